// Package rtree provides a bulk-loaded, on-disk R-tree for 2-D
// geometry, stored in a loam chunk file. Trees are built with the
// Overlap Minimizing Top-down (OMT) algorithm and queried by
// axis-aligned bounding box.
package rtree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/scigolib/loam"
	"github.com/scigolib/loam/geom"
	"github.com/scigolib/loam/internal/bin"
)

// Fanout is the number of entries per tree node.
const Fanout = 6

// Geom is implemented by geometry values stored in a tree. The core
// never inspects a geometry beyond its bounding box.
type Geom[F geom.Float] interface {
	loam.Marshaler
	loam.Unmarshaler

	// Bounds returns the axis-aligned bounding box of the geometry.
	Bounds() geom.BBox[F]
}

// errTruncatedNode reports a node payload shorter than its fixed layout.
var errTruncatedNode = errors.New("truncated node payload")

// Entry references a chunk (geometry or node) together with its
// bounding box.
type Entry[F geom.Float] struct {
	id   loam.ID
	bbox geom.BBox[F]
}

// NewEntry returns an entry referencing id with the given bounds.
func NewEntry[F geom.Float](id loam.ID, bbox geom.BBox[F]) Entry[F] {
	return Entry[F]{id: id, bbox: bbox}
}

// ID returns the referenced chunk ID.
func (e Entry[F]) ID() loam.ID {
	return e.id
}

// Bounds returns the entry bounding box.
func (e Entry[F]) Bounds() geom.BBox[F] {
	return e.bbox
}

// overlaps reports whether the entry is valid and its box overlaps b.
func (e Entry[F]) overlaps(b geom.BBox[F]) bool {
	return e.id.IsValid() && e.bbox.Overlaps(b)
}

// Node is a branch node holding up to Fanout entries. Unused slots
// carry the zero ID and are ignored by readers.
type Node[F geom.Float] struct {
	children [Fanout]Entry[F]
}

// push appends a child entry to the first unused slot.
func (n *Node[F]) push(id loam.ID, bbox geom.BBox[F]) {
	for i := range n.children {
		if !n.children[i].id.IsValid() {
			n.children[i] = Entry[F]{id: id, bbox: bbox}
			return
		}
	}
	panic(fmt.Sprintf("too many children: %d", uint64(id)))
}

// Bounds returns the union of the bounding boxes of all valid entries.
// It is recomputed on demand and never stored.
func (n *Node[F]) Bounds() geom.BBox[F] {
	bbox := geom.EmptyBBox[F]()
	for i := range n.children {
		if n.children[i].id.IsValid() {
			bbox = bbox.Union(n.children[i].bbox)
		}
	}
	return bbox
}

// Entries returns all entry slots, including unused ones.
func (n *Node[F]) Entries() [Fanout]Entry[F] {
	return n.children
}

// AppendPayload implements loam.Marshaler. Each entry is the 8-byte
// little-endian ID followed by the four box coordinates.
func (n *Node[F]) AppendPayload(dst []byte) ([]byte, error) {
	for i := range n.children {
		c := &n.children[i]
		dst = binary.LittleEndian.AppendUint64(dst, uint64(c.id))
		dst = geom.AppendBBox(dst, c.bbox)
	}
	return dst, nil
}

// UnmarshalPayload implements loam.Unmarshaler.
func (n *Node[F]) UnmarshalPayload(data []byte) error {
	for i := range n.children {
		if len(data) < 8 {
			return errTruncatedNode
		}
		id := loam.ID(binary.LittleEndian.Uint64(data))
		data = data[8:]
		bbox, adv, err := geom.DecodeBBox[F](data)
		if err != nil {
			return errTruncatedNode
		}
		data = data[adv:]
		n.children[i] = Entry[F]{id: id, bbox: bbox}
	}
	return nil
}

// Root wraps the top node with the total number of leaf geometries,
// from which the tree height is derived.
type Root[F geom.Float] struct {
	node  Node[F]
	nElem uint64
}

// NewRoot returns a root wrapping node with nElem leaf geometries.
func NewRoot[F geom.Float](node Node[F], nElem uint64) Root[F] {
	return Root[F]{node: node, nElem: nElem}
}

// Node returns the wrapped node.
func (r *Root[F]) Node() Node[F] {
	return r.node
}

// NElem returns the number of leaf geometries in the tree.
func (r *Root[F]) NElem() uint64 {
	return r.nElem
}

// AppendPayload implements loam.Marshaler.
func (r *Root[F]) AppendPayload(dst []byte) ([]byte, error) {
	dst, err := r.node.AppendPayload(dst)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint64(dst, r.nElem), nil
}

// UnmarshalPayload implements loam.Unmarshaler.
func (r *Root[F]) UnmarshalPayload(data []byte) error {
	sz := Fanout * (8 + geom.BBoxSize[F]())
	if len(data) < sz+8 {
		return errTruncatedNode
	}
	if err := r.node.UnmarshalPayload(data[:sz]); err != nil {
		return err
	}
	r.nElem = binary.LittleEndian.Uint64(data[sz:])
	return nil
}

// Height returns the height of a tree holding nElem geometries: the
// smallest h where Fanout^h >= nElem. Leaves have height 1. Computed
// iteratively to avoid floating-point domain errors. Fails when nElem
// exceeds any representable tree capacity, which only a corrupt root
// chunk can produce.
func Height(nElem uint64) (int, error) {
	capacity := uint64(Fanout)
	for height := 1; ; height++ {
		if capacity >= nElem {
			return height, nil
		}
		if err := bin.CheckMultiplyOverflow(capacity, Fanout); err != nil {
			return 0, fmt.Errorf("incalculable height for %d elements: %w", nElem, err)
		}
		capacity *= Fanout
	}
}

// PartitionSize returns the maximum number of leaf geometries held by
// each child subtree of a node at the given height: Fanout^(height-1).
func PartitionSize(height int) uint64 {
	sz := uint64(1)
	for loamI := 0; loamI < height-1; loamI++ {
		sz *= Fanout
	}
	return sz
}

// RootGroups returns the number of vertical and horizontal groups
// used at the root's OMT partition.
func RootGroups(nElem uint64) (int, error) {
	height, err := Height(nElem)
	if err != nil {
		return 0, err
	}
	nSubtree := PartitionSize(height)
	nGroups := ceilDiv(nElem, nSubtree)
	return ceilSqrt(nGroups), nil
}

// ceilDiv returns ceil(a / b) for positive b.
func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// ceilSqrt returns the smallest integer s with s*s >= n.
func ceilSqrt(n uint64) int {
	s := 0
	for uint64(s)*uint64(s) < n {
		s++
	}
	return s
}
