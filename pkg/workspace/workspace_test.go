package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcristia/CGA/pkg/geo"
)

func TestCreateIsUniquePerRun(t *testing.T) {
	root := t.TempDir()
	a, err := Create(Options{Root: root})
	require.NoError(t, err)
	b, err := Create(Options{Root: root})
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.NotEqual(t, a.Dir, b.Dir)
	assert.DirExists(t, a.Dir)
	assert.Equal(t, root, filepath.Dir(a.Dir))
}

func TestCloseRemovesOnlyWithCleanup(t *testing.T) {
	root := t.TempDir()
	keep, err := Create(Options{Root: root})
	require.NoError(t, err)
	require.NoError(t, keep.Close())
	assert.DirExists(t, keep.Dir)

	drop, err := Create(Options{Root: root, Cleanup: true})
	require.NoError(t, err)
	require.NoError(t, drop.Close())
	assert.NoDirExists(t, drop.Dir)
}

func TestWriteShapes(t *testing.T) {
	w, err := Create(Options{Root: t.TempDir(), Snapshots: true})
	require.NoError(t, err)

	s, err := geo.FromPolygon(orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}})
	require.NoError(t, err)

	path, err := w.WriteShapes("mpa/sections", []geo.Shape{s}, func(i int) map[string]interface{} {
		return map[string]interface{}{"mpa": "Alpha"}
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Dir, "mpa_sections.geojson"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Alpha", fc.Features[0].Properties["mpa"])
}

func TestWriteShapesDisabled(t *testing.T) {
	w, err := Create(Options{Root: t.TempDir()})
	require.NoError(t, err)
	path, err := w.WriteShapes("x", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(w.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
