package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/config"
	"github.com/jcristia/CGA/pkg/geo"
)

func rect(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

const reef = "mpatt_eco_fish_reef_data"

// world is one 10x10 MPA inside a single subregion and ecosection, plus a
// reef layer of 50 units with 6 of them inside the MPA.
func world() *catalog.Memory {
	return catalog.NewMemory(geo.BCAlbersCRS).
		Add("mpatt_mpa_a", catalog.Feature(rect(0, 0, 10, 10), "NAME_E", "Alpha")).
		Add("mpatt_rgn_subregions", catalog.Feature(rect(-50, -50, 50, 50), "subregion", "NC")).
		Add("mpatt_eco_coarse_ecosections", catalog.Feature(rect(-50, -50, 50, 50), "ecosection", "Hecate Strait")).
		Add(reef,
			catalog.Feature(rect(0, 0, 2, 3)),
			catalog.Feature(rect(20, 0, 24, 11)))
}

func project(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if _, ok := files["interactions.csv"]; !ok {
		files["interactions.csv"] = "HU,Pathway,CP,Severity\nTrawl,contact,Reef,HIGH\n"
	}
	if _, ok := files["inclusion.csv"]; !ok {
		files["inclusion.csv"] = "MPA\n"
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	cfg := config.Default().WithDir(dir)
	cfg.Interactions.Matrix = "interactions.csv"
	cfg.Inclusion.Matrix = "inclusion.csv"
	cfg.Workspace.Dir = filepath.Join(dir, "work")
	return cfg
}

func run(t *testing.T, cfg *config.Config, cat catalog.Catalog) *Result {
	t.Helper()
	p, err := New(cfg, Options{Catalog: cat})
	require.NoError(t, err)
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRunHighInteractionRemovesProtection(t *testing.T) {
	cat := world().Add("mpatt_hu_trawl_data", catalog.Feature(rect(0, 0, 10, 10)))
	res := run(t, project(t, map[string]string{}), cat)

	require.Len(t, res.MPAs, 1)
	assert.InDelta(t, 100, res.MPAs[0].TotalArea, 1e-9)
	assert.EqualValues(t, "NC", res.MPAs[0].Subregion)

	score, ok := res.Scores.Lookup("Alpha", reef)
	require.True(t, ok)
	assert.Equal(t, 0.0, score.Effectiveness)

	require.Len(t, res.Tables.Table1, 1)
	v := res.Tables.Table1[0].Values[reef]
	assert.InDelta(t, 6, v.UnscaledArea, 1e-9)
	assert.Equal(t, 0.0, v.ScaledArea)
	assert.Equal(t, 0.0, v.PctOfOriginal.Value())
}

func TestRunWithoutHumanUse(t *testing.T) {
	res := run(t, project(t, map[string]string{}), world())

	require.Len(t, res.Tables.Table1, 1)
	row := res.Tables.Table1[0]
	assert.EqualValues(t, "Alpha", row.MPA)
	assert.EqualValues(t, "NC", row.Subregion)
	assert.EqualValues(t, "Hecate Strait", row.Ecosection)
	assert.InDelta(t, 0.12, row.Values[reef].PctOfOriginal.Value(), 1e-9)
	assert.InDelta(t, 0.06, row.Values[reef].PctOfSection.Value(), 1e-9)

	require.Len(t, res.Tables.Table2, 1)
	cell := res.Tables.Table2[0].Cells["NC"]
	assert.InDelta(t, 50, cell.Original, 1e-9)
	assert.InDelta(t, 0.12, cell.Pct.Value(), 1e-9)
	assert.True(t, res.Report.Valid, res.Report.Summary)
}

func TestRunInclusionExcludes(t *testing.T) {
	cfg := project(t, map[string]string{"inclusion.csv": "MPA," + reef + "\nAlpha,N\n"})
	cfg.Inclusion.OverrideN = false
	res := run(t, cfg, world())

	assert.Empty(t, res.Tables.Table1)
	require.Len(t, res.Tables.Table3, 1)
	assert.InDelta(t, 0.06, res.Tables.Table3[0].PercentOverlap.Value(), 1e-9)
}

func TestRunEmptyLayerIsReported(t *testing.T) {
	cat := world().Add("mpatt_eco_plants_eelgrass_data")
	res := run(t, project(t, map[string]string{}), cat)

	assert.False(t, res.Report.Valid)
	require.NotEmpty(t, res.Report.Errors)
	assert.Equal(t, "mpatt_eco_plants_eelgrass_data", res.Report.Errors[0].Layer)
	// the other layers are still measured
	require.Len(t, res.Tables.Table1, 1)
}

func TestRunIsIndependentOfWorkers(t *testing.T) {
	build := func(workers int) *Result {
		cat := world().
			Add("mpatt_hu_trawl_data", catalog.Feature(rect(0, 0, 1, 1))).
			Add("mpatt_hu_longline_data", catalog.Feature(rect(5, 5, 9, 9))).
			Add("mpatt_eco_plants_eelgrass_data", catalog.Feature(rect(3, 3, 8, 8)))
		cfg := project(t, map[string]string{
			"interactions.csv": "HU,Pathway,CP,Severity\nTrawl,contact,Reef,HIGH\nLongline,bycatch,Eelgrass,LOW\n",
		})
		cfg.Workers = workers
		return run(t, cfg, cat)
	}
	one, four := build(1), build(4)
	assert.Equal(t, one.Tables, four.Tables)
	assert.Equal(t, one.Scores, four.Scores)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := project(t, map[string]string{})
	cfg.Workers = 0
	p, err := New(cfg, Options{Catalog: world()})
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "workers: workers must be at least 1")
	assert.False(t, res.Report.Valid)
	assert.Nil(t, res.Tables)
}

func TestRunRequiresInclusionMatrix(t *testing.T) {
	cfg := project(t, map[string]string{})
	cfg.Inclusion.Matrix = ""
	p, err := New(cfg, Options{Catalog: world()})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.True(t, apperr.IsConfiguration(err), "got %v", err)
	assert.Contains(t, err.Error(), "inclusion.matrix")
}

func TestRunSnapshotsSections(t *testing.T) {
	cfg := project(t, map[string]string{})
	cfg.Workspace.Cleanup = false
	cfg.Workspace.Snapshots = true
	res := run(t, cfg, world())

	path := filepath.Join(cfg.Workspace.Dir, "cga-"+res.RunID.String(), "mpa_sections.geojson")
	assert.FileExists(t, path)
}

func TestCheckListsIgnored(t *testing.T) {
	cat := world().Add("mpatt_rgn_subregion_HG", catalog.Feature(rect(0, 0, 1, 1)))
	p, err := New(project(t, map[string]string{}), Options{Catalog: cat})
	require.NoError(t, err)

	class, rep, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mpatt_rgn_subregion_HG"}, class.Ignored)
	assert.Len(t, class.Features, 1)
	assert.True(t, rep.Valid)
}

func TestWriteTables(t *testing.T) {
	cfg := project(t, map[string]string{})
	res := run(t, cfg, world())
	require.NoError(t, WriteTables(cfg, res))

	data, err := os.ReadFile(cfg.Path(cfg.Output.Table1))
	require.NoError(t, err)
	assert.Contains(t, string(data), "MPA,Subregion,Ecosection,"+reef)
	assert.Contains(t, string(data), "Alpha,NC,Hecate Strait,0.1")
}

func TestRunSameMPAInTwoLayers(t *testing.T) {
	cat := world().Add("mpatt_mpa_b", catalog.Feature(rect(0, 0, 10, 10), "NAME_E", "Alpha"))
	res := run(t, project(t, map[string]string{}), cat)

	require.Len(t, res.MPAs, 1)
	assert.InDelta(t, 100, res.MPAs[0].TotalArea, 1e-9)

	require.Len(t, res.Tables.Table1, 1)
	v := res.Tables.Table1[0].Values[reef]
	assert.InDelta(t, 6, v.UnscaledArea, 1e-9)
	assert.InDelta(t, 0.12, v.PctOfOriginal.Value(), 1e-9)
	assert.InDelta(t, 0.06, v.PctOfSection.Value(), 1e-9)
}
