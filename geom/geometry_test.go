package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/loam/internal/bin"
)

func TestPointsBounds(t *testing.T) {
	pts := NewPoints[float64]([]byte("cities"))
	pts.Push(2, 3)
	pts.Push(-1, 7)
	pts.Push(4, 0)

	assert.Equal(t, BBox[float64]{MinX: -1, MinY: 0, MaxX: 4, MaxY: 7}, pts.Bounds())
	assert.True(t, pts.BoundedBy(BBox[float64]{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4}))
	assert.False(t, pts.BoundedBy(BBox[float64]{MinX: 10, MinY: 10, MaxX: 11, MaxY: 11}))
}

func TestPointsCodec(t *testing.T) {
	want := NewPoints[float32]([]byte("data"))
	want.Push(0.5, 0.25)
	want.Push(-3, 8)

	buf, err := want.AppendPayload(nil)
	require.NoError(t, err)

	var got Points[float32]
	require.NoError(t, got.UnmarshalPayload(buf))
	assert.Equal(t, want.Pts, got.Pts)
	assert.Equal(t, want.Data, got.Data)

	t.Run("truncated", func(t *testing.T) {
		var g Points[float32]
		assert.Error(t, g.UnmarshalPayload(buf[:3]))
	})
}

func TestLinestrings(t *testing.T) {
	ls := NewLinestrings[float64]([]byte("road"))
	ls.Push(Pt[float64]{0, 0}, Pt[float64]{1, 0}, Pt[float64]{1, 1})
	ls.Push(Pt[float64]{5, 5}, Pt[float64]{6, 5})

	assert.Equal(t, BBox[float64]{MinX: 0, MinY: 0, MaxX: 6, MaxY: 5}, ls.Bounds())

	// A box pierced by the first line but holding no vertex.
	assert.True(t, ls.BoundedBy(BBox[float64]{MinX: 0.4, MinY: -0.5, MaxX: 0.6, MaxY: 0.5}))
	// A box inside the overall bounds that no segment touches.
	assert.False(t, ls.BoundedBy(BBox[float64]{MinX: 2, MinY: 2, MaxX: 3, MaxY: 3}))

	buf, err := ls.AppendPayload(nil)
	require.NoError(t, err)
	var got Linestrings[float64]
	require.NoError(t, got.UnmarshalPayload(buf))
	assert.Equal(t, ls.Lines, got.Lines)
	assert.Equal(t, ls.Data, got.Data)
}

// Counts far beyond the payload length must be rejected before any
// allocation.
func TestHugeCountsRejected(t *testing.T) {
	huge := bin.AppendUvarint(nil, ^uint64(0))

	var ls Linestrings[float64]
	assert.ErrorIs(t, ls.UnmarshalPayload(huge), ErrTruncated)

	var pg Polygons[float64]
	assert.ErrorIs(t, pg.UnmarshalPayload(huge), ErrTruncated)

	var pts Points[float64]
	assert.ErrorIs(t, pts.UnmarshalPayload(huge), ErrTruncated)
}

func TestRingWinding(t *testing.T) {
	ring := Ring[float64]{Pts: []Pt[float64]{{0, 0}, {1, 0}, {0, 1}}}
	assert.False(t, ring.IsClockwise())

	ring = Ring[float64]{Pts: []Pt[float64]{{0, 0}, {0, 1}, {1, 0}}}
	assert.True(t, ring.IsClockwise())

	assert.False(t, Ring[float64]{}.IsClockwise())
}

func TestPolygonsWindingNormalization(t *testing.T) {
	ccw := []Pt[float64]{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	g := NewPolygons[float64](nil)
	g.PushOuter(ccw...)
	require.Len(t, g.Rings, 1)
	assert.True(t, g.Rings[0].IsClockwise(), "outer rings are normalized clockwise")

	g.PushInner(g.Rings[0].Pts...)
	require.Len(t, g.Rings, 2)
	assert.False(t, g.Rings[1].IsClockwise(), "inner rings are normalized counter-clockwise")
}

func TestPolygonSurround(t *testing.T) {
	// A square ring whose vertices are all outside the query box and
	// whose edges never touch it: the surround heuristic must hit.
	square := Ring[float64]{Pts: []Pt[float64]{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	assert.True(t, square.BoundedBy(BBox[float64]{MinX: 0.4, MinY: 0.4, MaxX: 0.6, MaxY: 0.6}))

	// The same ring does not surround a disjoint box.
	assert.False(t, square.BoundedBy(BBox[float64]{MinX: 3, MinY: 3, MaxX: 4, MaxY: 4}))

	// An edge crossing counts without any vertex inside.
	assert.True(t, square.BoundedBy(BBox[float64]{MinX: 0.4, MinY: -0.5, MaxX: 0.6, MaxY: 0.5}))
}

func TestPolygonsCodec(t *testing.T) {
	want := NewPolygons[float64]([]byte("parcel"))
	want.PushOuter(Pt[float64]{0, 0}, Pt[float64]{2, 0}, Pt[float64]{2, 2}, Pt[float64]{0, 2})
	want.PushInner(Pt[float64]{0.5, 0.5}, Pt[float64]{1.5, 0.5}, Pt[float64]{1.5, 1.5}, Pt[float64]{0.5, 1.5})

	buf, err := want.AppendPayload(nil)
	require.NoError(t, err)

	var got Polygons[float64]
	require.NoError(t, got.UnmarshalPayload(buf))
	assert.Equal(t, want.Rings, got.Rings)
	assert.Equal(t, want.Data, got.Data)
	assert.Equal(t, BBox[float64]{MinX: 0, MinY: 0, MaxX: 2, MaxY: 2}, got.Bounds())
}
