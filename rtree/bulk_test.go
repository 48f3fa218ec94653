package rtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/loam"
	"github.com/scigolib/loam/geom"
)

func newPoints() *geom.Points[float64] {
	return &geom.Points[float64]{}
}

// buildPointFile bulk-loads one single-point geometry per coordinate
// pair into path.
func buildPointFile(t *testing.T, path string, pts []geom.Pt[float64]) {
	t.Helper()
	writer, err := NewBulkWriter[float64](path, newPoints)
	require.NoError(t, err)
	for _, pt := range pts {
		g := &geom.Points[float64]{Pts: []geom.Pt[float64]{pt}}
		require.NoError(t, writer.Push(g))
	}
	require.NoError(t, writer.Finish())
}

// gridPts returns n points spread over the unit square.
func gridPts(n int) []geom.Pt[float64] {
	pts := make([]geom.Pt[float64], 0, n)
	for i := 0; i < n; i++ {
		pts = append(pts, geom.Pt[float64]{
			X: float64(i%10) / 10,
			Y: float64(i/10) / 10,
		})
	}
	return pts
}

func TestFinishEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.loam")

	writer, err := NewBulkWriter[float64](path, newPoints)
	require.NoError(t, err)

	err = writer.Finish()
	assert.ErrorIs(t, err, loam.ErrInvalidCheckpoint)

	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".tmp")
	assert.NoFileExists(t, path+".tmp2")
}

func TestFinishBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		wantHeight int
	}{
		{"single geometry", 1, 1},
		{"full leaf", Fanout, 1},
		{"leaf overflow", Fanout + 1, 2},
		{"three levels", 37, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "tree.loam")
			pts := gridPts(tt.n)
			buildPointFile(t, path, pts)

			assert.NoFileExists(t, path+".tmp")
			assert.NoFileExists(t, path+".tmp2")

			stats := inspectTree(t, path)
			assert.Equal(t, uint64(tt.n), stats.nElem)
			assert.Equal(t, tt.wantHeight, stats.height)
			assert.Equal(t, tt.n, stats.nGeoms)
		})
	}
}

// treeStats aggregates a structural walk of a finished tree file.
type treeStats struct {
	nElem  uint64
	height int
	nGeoms int
}

// inspectTree verifies the structural invariants of a finished file:
// uniform leaf depth, valid entry counts, child boxes contained in
// parent boxes, and geometry chunks preceding node chunks.
func inspectTree(t *testing.T, path string) treeStats {
	t.Helper()
	reader, err := loam.NewReader(path)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	rootID, err := reader.Root()
	require.NoError(t, err)
	require.True(t, rootID.IsValid())

	var root Root[float64]
	require.NoError(t, reader.Lookup(rootID, &root))
	height, err := Height(root.NElem())
	require.NoError(t, err)
	stats := treeStats{nElem: root.NElem(), height: height}

	var minNodeID loam.ID = rootID
	var maxGeomID loam.ID
	var walk func(n *Node[float64], height int)
	walk = func(n *Node[float64], height int) {
		valid := 0
		for _, e := range n.Entries() {
			if !e.ID().IsValid() {
				continue
			}
			valid++
			if height > 1 {
				if e.ID() < minNodeID {
					minNodeID = e.ID()
				}
				var child Node[float64]
				require.NoError(t, reader.Lookup(e.ID(), &child))
				// A parent entry's box contains its subtree.
				union := child.Bounds()
				assert.Equal(t, e.Bounds(), e.Bounds().Union(union))
				walk(&child, height-1)
			} else {
				if e.ID() > maxGeomID {
					maxGeomID = e.ID()
				}
				g := newPoints()
				require.NoError(t, reader.Lookup(e.ID(), g))
				stats.nGeoms++
			}
		}
		require.LessOrEqual(t, valid, Fanout)
		require.GreaterOrEqual(t, valid, 1)
	}
	node := root.Node()
	walk(&node, stats.height)

	// All geometry chunks precede all node chunks.
	assert.Less(t, maxGeomID, minNodeID)
	return stats
}

func TestCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.loam")

	writer, err := NewBulkWriter[float64](path, newPoints)
	require.NoError(t, err)
	for _, pt := range gridPts(5) {
		g := &geom.Points[float64]{Pts: []geom.Pt[float64]{pt}}
		require.NoError(t, writer.Push(g))
	}
	require.NoError(t, writer.Cancel())

	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".tmp")
	assert.NoFileExists(t, path+".tmp2")
}

func TestCancelKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.loam")
	require.NoError(t, os.WriteFile(path, []byte("precious"), 0o666))

	writer, err := NewBulkWriter[float64](path, newPoints)
	require.NoError(t, err)
	g := &geom.Points[float64]{Pts: []geom.Pt[float64]{{X: 1, Y: 1}}}
	require.NoError(t, writer.Push(g))
	require.NoError(t, writer.Cancel())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("precious"), data)
}

func TestStaleStagingReplaced(t *testing.T) {
	// A leftover staging file from a crashed build must not poison
	// the next one.
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.loam")
	require.NoError(t, os.WriteFile(path+".tmp", []byte("loam0000stale"), 0o666))

	buildPointFile(t, path, gridPts(3))

	stats := inspectTree(t, path)
	assert.Equal(t, uint64(3), stats.nElem)
}

func TestFinishReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.loam")

	buildPointFile(t, path, gridPts(4))
	buildPointFile(t, path, gridPts(9))

	stats := inspectTree(t, path)
	assert.Equal(t, uint64(9), stats.nElem)
}
