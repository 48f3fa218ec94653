// Package geom provides 2-D geometry values for spatial indexing:
// points, line strings and polygons, together with the axis-aligned
// bounding boxes used to index them. Shapes serialize to the
// deterministic little-endian payloads required by chunk files.
package geom

import (
	"encoding/binary"
	"errors"
	"math"
)

// Float is the coordinate field for geometry values.
type Float interface {
	float32 | float64
}

// Pt is a 2-D point.
type Pt[F Float] struct {
	X F
	Y F
}

// Seg is a 2-D line segment.
type Seg[F Float] struct {
	P0 Pt[F]
	P1 Pt[F]
}

// ErrTruncated reports a geometry payload shorter than its framing
// claims.
var ErrTruncated = errors.New("truncated geometry payload")

// coordSize returns the encoded size of one coordinate of F.
func coordSize[F Float]() int {
	var zero F
	if _, ok := any(zero).(float32); ok {
		return 4
	}
	return 8
}

// appendCoord appends the little-endian bits of v to dst.
func appendCoord[F Float](dst []byte, v F) []byte {
	switch v := any(v).(type) {
	case float32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	case float64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	panic("unreachable")
}

// decodeCoord decodes one coordinate from the start of data.
func decodeCoord[F Float](data []byte) (F, int, error) {
	var zero F
	if _, ok := any(zero).(float32); ok {
		if len(data) < 4 {
			return zero, 0, ErrTruncated
		}
		return F(math.Float32frombits(binary.LittleEndian.Uint32(data))), 4, nil
	}
	if len(data) < 8 {
		return zero, 0, ErrTruncated
	}
	return F(math.Float64frombits(binary.LittleEndian.Uint64(data))), 8, nil
}

// Overlaps reports whether the segment intersects the box, using
// Liang-Barsky clipping. A zero-length segment degrades to a point
// containment test.
func (s Seg[F]) Overlaps(b BBox[F]) bool {
	x0, y0 := float64(s.P0.X), float64(s.P0.Y)
	dx := float64(s.P1.X) - x0
	dy := float64(s.P1.Y) - y0
	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}
	return clip(-dx, x0-float64(b.MinX)) &&
		clip(dx, float64(b.MaxX)-x0) &&
		clip(-dy, y0-float64(b.MinY)) &&
		clip(dy, float64(b.MaxY)-y0) &&
		t0 <= t1
}
