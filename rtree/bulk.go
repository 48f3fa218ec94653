package rtree

import (
	"errors"
	"io/fs"
	"os"
	"slices"

	"github.com/scigolib/loam"
	"github.com/scigolib/loam/geom"
)

// chunkSlice splits s into consecutive subslices of length n, with a
// final, possibly shorter, subslice. It panics if n < 1. This mirrors
// the standard library's slices.Chunk, which is unavailable on the
// Go version this module is built with.
func chunkSlice[T any](s []T, n int) [][]T {
	if n < 1 {
		panic("rtree: chunkSlice: n must be greater than 0")
	}
	var chunks [][]T
	for len(s) > 0 {
		chunkSize := min(n, len(s))
		var chunk []T
		chunk, s = s[:chunkSize:chunkSize], s[chunkSize:]
		chunks = append(chunks, chunk)
	}
	return chunks
}

// axis selects the OMT sort direction.
type axis int

const (
	axisX axis = iota
	axisY
)

// withHeight returns the axis used at the given height: odd heights
// keep the stored axis, even heights flip it.
func (a axis) withHeight(height int) axis {
	if height%2 != 0 {
		return a
	}
	if a == axisX {
		return axisY
	}
	return axisX
}

// nodePlan is a future on-disk node: either a finished leaf, or a
// list of back-references into the plan list for nodes whose children
// have not been assigned IDs yet.
type nodePlan[F geom.Float] struct {
	leaf     *Node[F]
	children []int
}

// materialize resolves a plan against the entries of already-written
// nodes.
func (p *nodePlan[F]) materialize(written []Entry[F]) *Node[F] {
	if p.leaf != nil {
		return p.leaf
	}
	n := &Node[F]{}
	for _, child := range p.children {
		e := written[child]
		n.push(e.id, e.bbox)
	}
	return n
}

// BulkWriter builds an R-tree file from pushed geometries using the
// OMT bulk loading algorithm.
//
// The file is written in two steps: first every geometry, grouped by
// leaf node to reduce page faults when reading, then every node in
// depth-first order with the root appearing last. Geometries stage in
// <path>.tmp, the tree in <path>.tmp2; Finish renames the tree over
// the target, so the target path is never touched until the build
// succeeds.
type BulkWriter[F geom.Float, G Geom[F]] struct {
	path    string
	writer  *loam.Writer
	reader  *loam.Reader
	elems   []Entry[F]
	nodes   []nodePlan[F]
	oddAxis axis
	newGeom func() G
}

// NewBulkWriter creates a bulk writer targeting path. newGeom returns
// fresh values for decoding staged geometries; G is normally a
// pointer type. A leftover staging file from an earlier crashed build
// is replaced.
func NewBulkWriter[F geom.Float, G Geom[F]](path string, newGeom func() G) (*BulkWriter[F, G], error) {
	writer, err := makeWriter(path + ".tmp")
	if err != nil {
		return nil, err
	}
	reader, err := loam.NewEmptyReader()
	if err != nil {
		_ = writer.Close()
		return nil, err
	}
	return &BulkWriter[F, G]{
		path:    path,
		writer:  writer,
		reader:  reader,
		newGeom: newGeom,
	}, nil
}

// makeWriter creates a staging file in strict-create mode, removing
// any leftover file at the path first.
func makeWriter(path string) (*loam.Writer, error) {
	opts := loam.WriterOptions{Mode: loam.CreateExclusive}
	writer, err := loam.NewWriterWithOptions(path, opts)
	if errors.Is(err, fs.ErrExist) {
		if err := os.Remove(path); err != nil {
			return nil, err
		}
		return loam.NewWriterWithOptions(path, opts)
	}
	return writer, err
}

// Push appends a geometry to the staging file. The in-memory tree is
// not updated until Finish.
func (w *BulkWriter[F, G]) Push(g G) error {
	id, err := w.writer.Push(g)
	if err != nil {
		return err
	}
	w.elems = append(w.elems, Entry[F]{id: id, bbox: g.Bounds()})
	return nil
}

// Finish builds the tree from the pushed geometries and atomically
// renames it into place. Finishing an empty build fails with
// loam.ErrInvalidCheckpoint. On any failure both staging files are
// removed and the target path is left untouched.
func (w *BulkWriter[F, G]) Finish() (err error) {
	elems := w.elems
	w.elems = nil
	if len(elems) == 0 {
		_ = w.Cancel()
		return loam.ErrInvalidCheckpoint
	}
	defer func() {
		if err != nil {
			_ = w.Cancel()
		}
	}()
	// Finish writing the staging file; the zero ID marks it as
	// geometry staging only.
	if err := w.writer.Checkpoint(0); err != nil {
		return err
	}
	if err := w.writer.Close(); err != nil {
		return err
	}
	writer, err := makeWriter(w.path + ".tmp2")
	if err != nil {
		return err
	}
	w.writer = writer
	_ = w.reader.Close()
	reader, err := loam.NewReader(w.path + ".tmp")
	if err != nil {
		return err
	}
	w.reader = reader
	if _, err := w.buildTree(elems); err != nil {
		return err
	}
	root, err := w.writeNodes(uint64(len(elems)))
	if err != nil {
		return err
	}
	if err := w.writer.Checkpoint(root); err != nil {
		return err
	}
	if err := w.writer.Close(); err != nil {
		return err
	}
	if err := w.reader.Close(); err != nil {
		return err
	}
	if err := os.Remove(w.path + ".tmp"); err != nil {
		return err
	}
	return os.Rename(w.path+".tmp2", w.path)
}

// Cancel abandons the build, removing both staging files. The target
// path is never touched.
func (w *BulkWriter[F, G]) Cancel() error {
	_ = w.writer.Close()
	_ = w.reader.Close()
	err := os.Remove(w.path + ".tmp")
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if rmErr := os.Remove(w.path + ".tmp2"); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

// buildTree runs the top-level OMT split: partition by X midpoint
// into vertical groups, then by Y midpoint within each group. Returns
// the root plan index.
func (w *BulkWriter[F, G]) buildTree(elems []Entry[F]) (int, error) {
	n := uint64(len(elems))
	height, err := Height(n)
	if err != nil {
		return 0, err
	}
	w.oddAxis = axisY.withHeight(height)
	if height == 1 {
		return w.buildLeaf(elems)
	}
	sortByXMid(elems)
	groups, err := RootGroups(n)
	if err != nil {
		return 0, err
	}
	nGroup := ceilDiv(n, uint64(groups))
	vGroup := Fanout / groups
	children := make([]int, 0, Fanout)
	for _, vChunk := range chunkSlice(elems, int(nGroup)) {
		sortByYMid(vChunk)
		nChunk := ceilDiv(uint64(len(vChunk)), uint64(vGroup))
		for _, hChunk := range chunkSlice(vChunk, int(nChunk)) {
			child, err := w.buildSubtree(height-1, hChunk)
			if err != nil {
				return 0, err
			}
			children = append(children, child)
		}
	}
	return w.pushNode(nodePlan[F]{children: children}), nil
}

// buildSubtree runs the uniform OMT split below the root level.
func (w *BulkWriter[F, G]) buildSubtree(height int, elems []Entry[F]) (int, error) {
	if height == 1 {
		return w.buildLeaf(elems)
	}
	switch w.oddAxis.withHeight(height) {
	case axisX:
		sortByXMid(elems)
	case axisY:
		sortByYMid(elems)
	}
	children := make([]int, 0, Fanout)
	nGroup := PartitionSize(height)
	for _, chunk := range chunkSlice(elems, int(nGroup)) {
		child, err := w.buildSubtree(height-1, chunk)
		if err != nil {
			return 0, err
		}
		children = append(children, child)
	}
	return w.pushNode(nodePlan[F]{children: children}), nil
}

// buildLeaf copies each staged geometry into the final file and
// records its new ID with the original bounding box.
func (w *BulkWriter[F, G]) buildLeaf(elems []Entry[F]) (int, error) {
	leaf := &Node[F]{}
	for _, e := range elems {
		g := w.newGeom()
		if err := w.reader.Lookup(e.id, g); err != nil {
			return 0, err
		}
		id, err := w.writer.Push(g)
		if err != nil {
			return 0, err
		}
		leaf.push(id, e.bbox)
	}
	return w.pushNode(nodePlan[F]{leaf: leaf}), nil
}

// pushNode appends a plan and returns its index.
func (w *BulkWriter[F, G]) pushNode(plan nodePlan[F]) int {
	idx := len(w.nodes)
	w.nodes = append(w.nodes, plan)
	return idx
}

// writeNodes materializes all node plans in order. Every referenced
// child precedes its parent, so back-references always resolve to
// already-written nodes. The final plan becomes the root.
func (w *BulkWriter[F, G]) writeNodes(nElem uint64) (loam.ID, error) {
	nNodes := len(w.nodes)
	written := make([]Entry[F], 0, nNodes)
	for i := range w.nodes[:nNodes-1] {
		node := w.nodes[i].materialize(written)
		id, err := w.writer.Push(node)
		if err != nil {
			return 0, err
		}
		written = append(written, Entry[F]{id: id, bbox: node.Bounds()})
	}
	node := w.nodes[nNodes-1].materialize(written)
	root := NewRoot(*node, nElem)
	return w.writer.Push(&root)
}

// sortByXMid sorts entries by bounding box X midpoint ascending.
// Incomparable midpoints (NaN) compare as equal; ordering among
// equals is unspecified but deterministic within a run.
func sortByXMid[F geom.Float](elems []Entry[F]) {
	slices.SortFunc(elems, func(a, b Entry[F]) int {
		return compareMid(a.bbox.XMid(), b.bbox.XMid())
	})
}

// sortByYMid sorts entries by bounding box Y midpoint ascending.
func sortByYMid[F geom.Float](elems []Entry[F]) {
	slices.SortFunc(elems, func(a, b Entry[F]) int {
		return compareMid(a.bbox.YMid(), b.bbox.YMid())
	})
}

func compareMid[F geom.Float](a, b F) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
