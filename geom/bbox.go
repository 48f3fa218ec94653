package geom

import "math"

// BBox is an axis-aligned bounding box over the coordinate field.
// The zero-area box around a single point is valid; the result of
// EmptyBBox is the identity for Union.
type BBox[F Float] struct {
	MinX F
	MinY F
	MaxX F
	MaxY F
}

// NewBBox returns the bounding box enclosing the given points.
func NewBBox[F Float](pts ...Pt[F]) BBox[F] {
	b := EmptyBBox[F]()
	for _, pt := range pts {
		b = b.ExtendPt(pt)
	}
	return b
}

// EmptyBBox returns the box that contains nothing.
func EmptyBBox[F Float]() BBox[F] {
	return BBox[F]{
		MinX: F(math.Inf(1)),
		MinY: F(math.Inf(1)),
		MaxX: F(math.Inf(-1)),
		MaxY: F(math.Inf(-1)),
	}
}

// IsEmpty reports whether the box contains nothing.
func (b BBox[F]) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// XMid returns the midpoint of the X extent.
func (b BBox[F]) XMid() F {
	return (b.MinX + b.MaxX) / 2
}

// YMid returns the midpoint of the Y extent.
func (b BBox[F]) YMid() F {
	return (b.MinY + b.MaxY) / 2
}

// ExtendPt returns the box grown to include pt.
func (b BBox[F]) ExtendPt(pt Pt[F]) BBox[F] {
	if pt.X < b.MinX {
		b.MinX = pt.X
	}
	if pt.X > b.MaxX {
		b.MaxX = pt.X
	}
	if pt.Y < b.MinY {
		b.MinY = pt.Y
	}
	if pt.Y > b.MaxY {
		b.MaxY = pt.Y
	}
	return b
}

// Union returns the box enclosing both b and other.
func (b BBox[F]) Union(other BBox[F]) BBox[F] {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	b = b.ExtendPt(Pt[F]{other.MinX, other.MinY})
	return b.ExtendPt(Pt[F]{other.MaxX, other.MaxY})
}

// Overlaps reports whether b and other share any point.
func (b BBox[F]) Overlaps(other BBox[F]) bool {
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

// ContainsPt reports whether pt lies within the box, borders included.
func (b BBox[F]) ContainsPt(pt Pt[F]) bool {
	return pt.X >= b.MinX && pt.X <= b.MaxX &&
		pt.Y >= b.MinY && pt.Y <= b.MaxY
}

// region classifies a point relative to the box for the polygon
// surround test.
type region uint8

const (
	within region = iota
	below
	belowLeft
	left
	aboveLeft
	above
	aboveRight
	right
	belowRight
)

// regionOf returns which of the eight border regions around the box
// holds the point, or within.
func (b BBox[F]) regionOf(pt Pt[F]) region {
	switch {
	case pt.X < b.MinX && pt.Y < b.MinY:
		return belowLeft
	case pt.X > b.MaxX && pt.Y < b.MinY:
		return belowRight
	case pt.X < b.MinX && pt.Y > b.MaxY:
		return aboveLeft
	case pt.X > b.MaxX && pt.Y > b.MaxY:
		return aboveRight
	case pt.Y < b.MinY:
		return below
	case pt.Y > b.MaxY:
		return above
	case pt.X < b.MinX:
		return left
	case pt.X > b.MaxX:
		return right
	}
	return within
}

// AppendBBox appends the four coordinates of b in little-endian order.
func AppendBBox[F Float](dst []byte, b BBox[F]) []byte {
	dst = appendCoord(dst, b.MinX)
	dst = appendCoord(dst, b.MinY)
	dst = appendCoord(dst, b.MaxX)
	return appendCoord(dst, b.MaxY)
}

// BBoxSize returns the encoded size of a bounding box of F.
func BBoxSize[F Float]() int {
	return 4 * coordSize[F]()
}

// DecodeBBox decodes a bounding box from the start of data, returning
// the box and the number of bytes consumed.
func DecodeBBox[F Float](data []byte) (BBox[F], int, error) {
	var b BBox[F]
	sz := BBoxSize[F]()
	if len(data) < sz {
		return b, 0, ErrTruncated
	}
	n := 0
	var err error
	for _, field := range []*F{&b.MinX, &b.MinY, &b.MaxX, &b.MaxY} {
		var adv int
		*field, adv, err = decodeCoord[F](data[n:])
		if err != nil {
			return b, 0, err
		}
		n += adv
	}
	return b, n, nil
}
