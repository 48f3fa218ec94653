package geom

import "github.com/scigolib/loam/internal/bin"

// Points is one or more points sharing an opaque payload.
//
// Decoded values borrow their Data from the reader's memory map and
// must not be used after the reader closes.
type Points[F Float] struct {
	Pts  []Pt[F]
	Data []byte
}

// NewPoints returns an empty point geometry carrying data.
func NewPoints[F Float](data []byte) *Points[F] {
	return &Points[F]{Data: data}
}

// Push adds a point.
func (g *Points[F]) Push(x, y F) {
	g.Pts = append(g.Pts, Pt[F]{x, y})
}

// Bounds returns the bounding box of all points.
func (g *Points[F]) Bounds() BBox[F] {
	return NewBBox(g.Pts...)
}

// BoundedBy reports whether any point lies within b.
func (g *Points[F]) BoundedBy(b BBox[F]) bool {
	for _, pt := range g.Pts {
		if b.ContainsPt(pt) {
			return true
		}
	}
	return false
}

// AppendPayload implements loam.Marshaler.
func (g *Points[F]) AppendPayload(dst []byte) ([]byte, error) {
	dst = bin.AppendUvarint(dst, uint64(len(g.Pts)))
	for _, pt := range g.Pts {
		dst = appendCoord(dst, pt.X)
		dst = appendCoord(dst, pt.Y)
	}
	return appendData(dst, g.Data), nil
}

// UnmarshalPayload implements loam.Unmarshaler.
func (g *Points[F]) UnmarshalPayload(data []byte) error {
	pts, data, err := decodePts[F](data)
	if err != nil {
		return err
	}
	g.Pts = pts
	g.Data, _, err = decodeData(data)
	return err
}

// Linestring is a connected sequence of points.
type Linestring[F Float] struct {
	Pts []Pt[F]
}

// Bounds returns the bounding box of the line string.
func (l Linestring[F]) Bounds() BBox[F] {
	return NewBBox(l.Pts...)
}

// BoundedBy reports whether any segment intersects b.
func (l Linestring[F]) BoundedBy(b BBox[F]) bool {
	for i := 1; i < len(l.Pts); i++ {
		if (Seg[F]{l.Pts[i-1], l.Pts[i]}).Overlaps(b) {
			return true
		}
	}
	return false
}

// Linestrings is one or more line strings sharing an opaque payload.
type Linestrings[F Float] struct {
	Lines []Linestring[F]
	Data  []byte
}

// NewLinestrings returns an empty line string geometry carrying data.
func NewLinestrings[F Float](data []byte) *Linestrings[F] {
	return &Linestrings[F]{Data: data}
}

// Push adds a line string.
func (g *Linestrings[F]) Push(pts ...Pt[F]) {
	g.Lines = append(g.Lines, Linestring[F]{Pts: pts})
}

// Bounds returns the bounding box of all line strings.
func (g *Linestrings[F]) Bounds() BBox[F] {
	b := EmptyBBox[F]()
	for _, l := range g.Lines {
		b = b.Union(l.Bounds())
	}
	return b
}

// BoundedBy reports whether any line string intersects b.
func (g *Linestrings[F]) BoundedBy(b BBox[F]) bool {
	for _, l := range g.Lines {
		if l.BoundedBy(b) {
			return true
		}
	}
	return false
}

// AppendPayload implements loam.Marshaler.
func (g *Linestrings[F]) AppendPayload(dst []byte) ([]byte, error) {
	dst = bin.AppendUvarint(dst, uint64(len(g.Lines)))
	for _, l := range g.Lines {
		dst = bin.AppendUvarint(dst, uint64(len(l.Pts)))
		for _, pt := range l.Pts {
			dst = appendCoord(dst, pt.X)
			dst = appendCoord(dst, pt.Y)
		}
	}
	return appendData(dst, g.Data), nil
}

// UnmarshalPayload implements loam.Unmarshaler.
func (g *Linestrings[F]) UnmarshalPayload(data []byte) error {
	n, adv, err := bin.Uvarint(data)
	if err != nil {
		return err
	}
	data = data[adv:]
	// Each line costs at least its own count byte.
	if n > uint64(len(data)) {
		return ErrTruncated
	}
	lines := make([]Linestring[F], 0, n)
	for loamI := uint64(0); loamI < n; loamI++ {
		var pts []Pt[F]
		pts, data, err = decodePts[F](data)
		if err != nil {
			return err
		}
		lines = append(lines, Linestring[F]{Pts: pts})
	}
	g.Lines = lines
	g.Data, _, err = decodeData(data)
	return err
}

// Ring is a closed polygon ring. The winding order determines whether
// it is an outer or inner ring.
type Ring[F Float] struct {
	Pts []Pt[F]
}

// IsClockwise reports whether the ring has clockwise winding order,
// determined by the cross product of the edges at an extreme point of
// the convex hull.
func (r Ring[F]) IsClockwise() bool {
	ext, ok := r.extremePoint()
	if !ok {
		return false
	}
	n := len(r.Pts)
	a := n - 1
	if ext > 0 {
		a = ext - 1
	}
	b := 0
	if ext < n-1 {
		b = ext + 1
	}
	v0x := r.Pts[a].X - r.Pts[ext].X
	v0y := r.Pts[a].Y - r.Pts[ext].Y
	v1x := r.Pts[b].X - r.Pts[ext].X
	v1y := r.Pts[b].Y - r.Pts[ext].Y
	return v0x*v1y-v0y*v1x > 0
}

// extremePoint finds a point on the convex hull: the lexicographic
// minimum by (X, Y).
func (r Ring[F]) extremePoint() (int, bool) {
	if len(r.Pts) == 0 {
		return 0, false
	}
	ext := 0
	for i, pt := range r.Pts {
		min := r.Pts[ext]
		if pt.X < min.X || (pt.X == min.X && pt.Y < min.Y) {
			ext = i
		}
	}
	return ext, true
}

// Bounds returns the bounding box of the ring.
func (r Ring[F]) Bounds() BBox[F] {
	return NewBBox(r.Pts...)
}

// BoundedBy reports whether the ring intersects or surrounds b. The
// surround test tracks which border regions the vertices fall in; a
// ring whose vertices leave no gap of three adjacent regions is taken
// to surround the box. This can trigger false positives but is much
// simpler than the exact algorithm.
func (r Ring[F]) BoundedBy(b BBox[F]) bool {
	var border boundBorder
	for i := 1; i < len(r.Pts); i++ {
		seg := Seg[F]{r.Pts[i-1], r.Pts[i]}
		if seg.Overlaps(b) {
			return true
		}
		if border.add(b.regionOf(seg.P0)) {
			return true
		}
	}
	return border.surrounds()
}

// boundBorder records which of the eight regions around a box have
// been touched.
type boundBorder struct {
	below      bool
	belowLeft  bool
	left       bool
	aboveLeft  bool
	above      bool
	aboveRight bool
	right      bool
	belowRight bool
}

// add records a region, reporting true when the point was within the
// box itself.
func (bb *boundBorder) add(r region) bool {
	switch r {
	case below:
		bb.below = true
	case belowLeft:
		bb.belowLeft = true
	case left:
		bb.left = true
	case aboveLeft:
		bb.aboveLeft = true
	case above:
		bb.above = true
	case aboveRight:
		bb.aboveRight = true
	case right:
		bb.right = true
	case belowRight:
		bb.belowRight = true
	case within:
		return true
	}
	return false
}

// surrounds reports whether the touched regions leave no gap of three
// adjacent cardinal/ordinal directions.
func (bb *boundBorder) surrounds() bool {
	if !(bb.below || bb.belowLeft || bb.left) {
		return false
	}
	if !(bb.belowLeft || bb.left || bb.aboveLeft) {
		return false
	}
	if !(bb.left || bb.aboveLeft || bb.above) {
		return false
	}
	if !(bb.aboveLeft || bb.above || bb.aboveRight) {
		return false
	}
	if !(bb.above || bb.aboveRight || bb.right) {
		return false
	}
	if !(bb.aboveRight || bb.right || bb.belowRight) {
		return false
	}
	if !(bb.right || bb.belowRight || bb.below) {
		return false
	}
	if !(bb.belowRight || bb.below || bb.belowLeft) {
		return false
	}
	return true
}

// Polygons is one or more polygon rings sharing an opaque payload.
// Outer rings wind clockwise, inner rings counter-clockwise; PushOuter
// and PushInner normalize the order.
type Polygons[F Float] struct {
	Rings []Ring[F]
	Data  []byte
}

// NewPolygons returns an empty polygon geometry carrying data.
func NewPolygons[F Float](data []byte) *Polygons[F] {
	return &Polygons[F]{Data: data}
}

// PushOuter adds an outer ring, reversing it to clockwise winding if
// needed.
func (g *Polygons[F]) PushOuter(pts ...Pt[F]) {
	ring := Ring[F]{Pts: pts}
	if !ring.IsClockwise() {
		reverse(ring.Pts)
	}
	g.Rings = append(g.Rings, ring)
}

// PushInner adds an inner ring, reversing it to counter-clockwise
// winding if needed.
func (g *Polygons[F]) PushInner(pts ...Pt[F]) {
	ring := Ring[F]{Pts: pts}
	if ring.IsClockwise() {
		reverse(ring.Pts)
	}
	g.Rings = append(g.Rings, ring)
}

// Bounds returns the bounding box of all rings.
func (g *Polygons[F]) Bounds() BBox[F] {
	b := EmptyBBox[F]()
	for _, r := range g.Rings {
		b = b.Union(r.Bounds())
	}
	return b
}

// BoundedBy reports whether any ring intersects or surrounds b.
func (g *Polygons[F]) BoundedBy(b BBox[F]) bool {
	for _, r := range g.Rings {
		if r.BoundedBy(b) {
			return true
		}
	}
	return false
}

// AppendPayload implements loam.Marshaler.
func (g *Polygons[F]) AppendPayload(dst []byte) ([]byte, error) {
	dst = bin.AppendUvarint(dst, uint64(len(g.Rings)))
	for _, r := range g.Rings {
		dst = bin.AppendUvarint(dst, uint64(len(r.Pts)))
		for _, pt := range r.Pts {
			dst = appendCoord(dst, pt.X)
			dst = appendCoord(dst, pt.Y)
		}
	}
	return appendData(dst, g.Data), nil
}

// UnmarshalPayload implements loam.Unmarshaler.
func (g *Polygons[F]) UnmarshalPayload(data []byte) error {
	n, adv, err := bin.Uvarint(data)
	if err != nil {
		return err
	}
	data = data[adv:]
	// Each ring costs at least its own count byte.
	if n > uint64(len(data)) {
		return ErrTruncated
	}
	rings := make([]Ring[F], 0, n)
	for loamI := uint64(0); loamI < n; loamI++ {
		var pts []Pt[F]
		pts, data, err = decodePts[F](data)
		if err != nil {
			return err
		}
		rings = append(rings, Ring[F]{Pts: pts})
	}
	g.Rings = rings
	g.Data, _, err = decodeData(data)
	return err
}

func reverse[F Float](pts []Pt[F]) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

// decodePts decodes a count-prefixed point run, returning the points
// and the remaining data.
func decodePts[F Float](data []byte) ([]Pt[F], []byte, error) {
	n, adv, err := bin.Uvarint(data)
	if err != nil {
		return nil, nil, err
	}
	data = data[adv:]
	sz := 2 * coordSize[F]()
	if n > uint64(len(data))/uint64(sz) {
		return nil, nil, ErrTruncated
	}
	pts := make([]Pt[F], 0, n)
	for loamI := uint64(0); loamI < n; loamI++ {
		x, adv, err := decodeCoord[F](data)
		if err != nil {
			return nil, nil, err
		}
		data = data[adv:]
		y, adv, err := decodeCoord[F](data)
		if err != nil {
			return nil, nil, err
		}
		data = data[adv:]
		pts = append(pts, Pt[F]{x, y})
	}
	return pts, data, nil
}

// appendData appends a length-prefixed opaque payload.
func appendData(dst, data []byte) []byte {
	dst = bin.AppendUvarint(dst, uint64(len(data)))
	return append(dst, data...)
}

// decodeData decodes a length-prefixed opaque payload. The returned
// slice aliases data.
func decodeData(data []byte) ([]byte, []byte, error) {
	n, adv, err := bin.Uvarint(data)
	if err != nil {
		return nil, nil, err
	}
	data = data[adv:]
	if uint64(len(data)) < n {
		return nil, nil, ErrTruncated
	}
	return data[:n], data[n:], nil
}
