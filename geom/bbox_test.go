package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBox(t *testing.T) {
	t.Run("from points", func(t *testing.T) {
		b := NewBBox(
			Pt[float64]{X: 1, Y: 5},
			Pt[float64]{X: -2, Y: 3},
			Pt[float64]{X: 4, Y: -1},
		)
		assert.Equal(t, BBox[float64]{MinX: -2, MinY: -1, MaxX: 4, MaxY: 5}, b)
		assert.Equal(t, float64(1), b.XMid())
		assert.Equal(t, float64(2), b.YMid())
		assert.False(t, b.IsEmpty())
	})

	t.Run("empty is union identity", func(t *testing.T) {
		empty := EmptyBBox[float32]()
		assert.True(t, empty.IsEmpty())

		b := NewBBox(Pt[float32]{X: 1, Y: 2})
		assert.Equal(t, b, empty.Union(b))
		assert.Equal(t, b, b.Union(empty))
	})

	t.Run("union encloses both", func(t *testing.T) {
		a := BBox[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
		b := BBox[float64]{MinX: 2, MinY: -1, MaxX: 3, MaxY: 0.5}
		u := a.Union(b)
		assert.Equal(t, BBox[float64]{MinX: 0, MinY: -1, MaxX: 3, MaxY: 1}, u)
	})
}

func TestBBoxOverlaps(t *testing.T) {
	base := BBox[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	tests := []struct {
		name  string
		other BBox[float64]
		want  bool
	}{
		{"identical", base, true},
		{"contained", BBox[float64]{MinX: 0.25, MinY: 0.25, MaxX: 0.75, MaxY: 0.75}, true},
		{"containing", BBox[float64]{MinX: -1, MinY: -1, MaxX: 2, MaxY: 2}, true},
		{"corner touch", BBox[float64]{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}, true},
		{"disjoint x", BBox[float64]{MinX: 2, MinY: 0, MaxX: 3, MaxY: 1}, false},
		{"disjoint y", BBox[float64]{MinX: 0, MinY: -2, MaxX: 1, MaxY: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestBBoxCodec(t *testing.T) {
	t.Run("float64", func(t *testing.T) {
		b := BBox[float64]{MinX: -1.5, MinY: 0.25, MaxX: 3.75, MaxY: 9}
		buf := AppendBBox(nil, b)
		require.Len(t, buf, BBoxSize[float64]())

		got, n, err := DecodeBBox[float64](buf)
		require.NoError(t, err)
		assert.Equal(t, b, got)
		assert.Equal(t, len(buf), n)
	})

	t.Run("float32", func(t *testing.T) {
		b := BBox[float32]{MinX: -1.5, MinY: 0.25, MaxX: 3.75, MaxY: 9}
		buf := AppendBBox(nil, b)
		require.Len(t, buf, BBoxSize[float32]())

		got, n, err := DecodeBBox[float32](buf)
		require.NoError(t, err)
		assert.Equal(t, b, got)
		assert.Equal(t, len(buf), n)
	})

	t.Run("truncated", func(t *testing.T) {
		buf := AppendBBox(nil, BBox[float64]{})
		_, _, err := DecodeBBox[float64](buf[:len(buf)-1])
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestSegOverlaps(t *testing.T) {
	box := BBox[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	tests := []struct {
		name string
		seg  Seg[float64]
		want bool
	}{
		{"inside", Seg[float64]{Pt[float64]{0.2, 0.2}, Pt[float64]{0.8, 0.8}}, true},
		{"crossing", Seg[float64]{Pt[float64]{-1, 0.5}, Pt[float64]{2, 0.5}}, true},
		{"diagonal through corner region", Seg[float64]{Pt[float64]{-0.5, 0.5}, Pt[float64]{0.5, 1.5}}, true},
		{"outside left", Seg[float64]{Pt[float64]{-2, 0}, Pt[float64]{-1, 1}}, false},
		{"diagonal miss", Seg[float64]{Pt[float64]{1.5, 0}, Pt[float64]{3, 0.5}}, false},
		{"degenerate inside", Seg[float64]{Pt[float64]{0.5, 0.5}, Pt[float64]{0.5, 0.5}}, true},
		{"degenerate outside", Seg[float64]{Pt[float64]{2, 2}, Pt[float64]{2, 2}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seg.Overlaps(box))
		})
	}
}
