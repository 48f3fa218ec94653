package rtree

import (
	"github.com/scigolib/loam"
	"github.com/scigolib/loam/geom"
)

// RTree reads a bulk-written tree file and answers bounding-box
// queries. Multiple concurrent queries on one tree are safe; the
// underlying file must stay frozen while the tree is open.
type RTree[F geom.Float, G Geom[F]] struct {
	reader  *loam.Reader
	newGeom func() G
}

// Open memory-maps an R-tree file for querying. newGeom returns fresh
// values for decoded geometries; G is normally a pointer type.
func Open[F geom.Float, G Geom[F]](path string, newGeom func() G) (*RTree[F, G], error) {
	reader, err := loam.NewReader(path)
	if err != nil {
		return nil, err
	}
	return &RTree[F, G]{reader: reader, newGeom: newGeom}, nil
}

// Close unmaps the file. Geometries holding borrowed payloads must
// not be used afterwards.
func (t *RTree[F, G]) Close() error {
	return t.reader.Close()
}

// workItem pairs a chunk ID with its height in the tree.
type workItem struct {
	id     loam.ID
	height int
}

// Query returns an iterator over geometries whose bounding boxes
// overlap bbox. Traversal is depth-first and loads only nodes whose
// boxes overlap the query.
func (t *RTree[F, G]) Query(bbox geom.BBox[F]) *Query[F, G] {
	q := &Query[F, G]{tree: t, bbox: bbox}
	id, err := t.reader.Root()
	if err != nil {
		q.err = err
		return q
	}
	var root Root[F]
	if err := t.reader.Lookup(id, &root); err != nil {
		q.err = err
		return q
	}
	height, err := Height(root.nElem)
	if err != nil {
		q.err = err
		return q
	}
	q.work = make([]workItem, 0, height*Fanout)
	for _, child := range root.node.children {
		if child.overlaps(bbox) {
			q.work = append(q.work, workItem{child.id, height})
		}
	}
	return q
}

// Query iterates bounding-box query results.
//
// Iteration is fail-fast: the first decode error stops the traversal
// and is reported by Err.
type Query[F geom.Float, G Geom[F]] struct {
	tree *RTree[F, G]
	bbox geom.BBox[F]
	work []workItem
	cur  G
	err  error
}

// Next advances to the next matching geometry, reporting false when
// the traversal is exhausted or an error occurred.
func (q *Query[F, G]) Next() bool {
	if q.err != nil {
		return false
	}
	for len(q.work) > 0 {
		item := q.work[len(q.work)-1]
		q.work = q.work[:len(q.work)-1]
		if item.height > 1 {
			var node Node[F]
			if err := q.tree.reader.Lookup(item.id, &node); err != nil {
				q.err = err
				return false
			}
			for _, child := range node.children {
				if child.overlaps(q.bbox) {
					q.work = append(q.work, workItem{child.id, item.height - 1})
				}
			}
			continue
		}
		g := q.tree.newGeom()
		if err := q.tree.reader.Lookup(item.id, g); err != nil {
			q.err = err
			return false
		}
		q.cur = g
		return true
	}
	return false
}

// Geom returns the geometry at the current position. It is valid
// after Next reports true.
func (q *Query[F, G]) Geom() G {
	return q.cur
}

// Err returns the first error encountered during iteration, if any.
func (q *Query[F, G]) Err() error {
	return q.err
}
