package mpa

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/geo"
	"github.com/jcristia/CGA/pkg/loader"
)

func rect(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func fixture() *catalog.Memory {
	return catalog.NewMemory(geo.BCAlbersCRS).
		Add("mpatt_mpa_a",
			catalog.Feature(rect(0, 0, 10, 10), "NAME_E", "Alpha"),
			catalog.Feature(rect(100, 100, 101, 101), "NAME_E", "Gamma"),
		).
		Add("mpatt_mpa_b",
			catalog.Feature(rect(20, 0, 22, 2), "Name_E", "Beta"),
			catalog.Feature(rect(30, 0, 32, 2), "Name_E", "Beta"),
		).
		Add("mpatt_rgn_subregions",
			catalog.Feature(rect(-10, -10, 4, 40), "subregion", "HG"),
			catalog.Feature(rect(4, -10, 25, 40), "subregion", "NC"),
			catalog.Feature(rect(25, -10, 40, 40), "subregion", "CC"),
		).
		Add("mpatt_eco_coarse_ecosections",
			catalog.Feature(rect(-10, -10, 3, 40), "ecosection", "Hecate Strait"),
			catalog.Feature(rect(3, -10, 40, 40), "ecosection", "Dixon Entrance"),
		)
}

func input(t *testing.T, cat *catalog.Memory, mpas ...string) Input {
	t.Helper()
	ctx := context.Background()
	open := func(name string) *catalog.Layer {
		l, err := cat.Open(ctx, name)
		require.NoError(t, err)
		return l
	}
	in := Input{Subregions: open("mpatt_rgn_subregions"), Ecosections: open("mpatt_eco_coarse_ecosections")}
	for _, m := range mpas {
		in.MPAs = append(in.MPAs, open(m))
	}
	return in
}

func newBuilder() *Builder {
	engine := geo.NewPlanar()
	ld := loader.New(engine, loader.Options{Target: geo.BCAlbersCRS})
	return NewBuilder(engine, ld, Options{
		NameFields:      []string{"NAME_E", "Name_E"},
		EcosectionField: "ecosection",
		SubregionField:  "subregion",
	})
}

func TestBuild(t *testing.T) {
	layer, report, err := newBuilder().Build(input(t, fixture(), "mpatt_mpa_a", "mpatt_mpa_b"))
	require.NoError(t, err)

	assert.Equal(t, []bioregion.MPAID{"Alpha", "Beta", "Gamma"}, layer.IDs())

	alpha := layer.MPAs["Alpha"]
	assert.InDelta(t, 100, alpha.TotalArea, 1e-9)
	// 60 in NC against 40 in HG
	assert.Equal(t, bioregion.NorthCoast, alpha.Subregion)

	beta := layer.MPAs["Beta"]
	assert.InDelta(t, 8, beta.TotalArea, 1e-9)
	// equal overlap with NC and CC; NC comes first in the reference layer
	assert.Equal(t, bioregion.NorthCoast, beta.Subregion)

	assert.Equal(t, bioregion.Subregion(""), layer.MPAs["Gamma"].Subregion)

	require.Len(t, layer.Sections, 3)
	got := map[[2]string]float64{}
	for _, s := range layer.Sections {
		got[[2]string{string(s.MPA), string(s.Ecosection)}] = s.SectionArea
		assert.Equal(t, layer.MPAs[s.MPA].TotalArea, s.TotalArea)
		assert.Equal(t, layer.MPAs[s.MPA].Subregion, s.Subregion)
	}
	assert.InDelta(t, 70, got[[2]string{"Alpha", "Dixon Entrance"}], 1e-9)
	assert.InDelta(t, 30, got[[2]string{"Alpha", "Hecate Strait"}], 1e-9)
	assert.InDelta(t, 8, got[[2]string{"Beta", "Dixon Entrance"}], 1e-9)
	assert.Equal(t, bioregion.MPAID("Alpha"), layer.Sections[0].MPA)
	assert.Equal(t, bioregion.EcosectionID("Dixon Entrance"), layer.Sections[0].Ecosection)

	// Gamma overlaps neither reference layer
	assert.Len(t, report.Warnings, 2)
	assert.True(t, report.Valid)
}

func TestBuildMissingNameField(t *testing.T) {
	cat := fixture().Add("mpatt_mpa_c", catalog.Feature(rect(0, 0, 1, 1), "LABEL", "Delta"))
	_, _, err := newBuilder().Build(input(t, cat, "mpatt_mpa_a", "mpatt_mpa_c"))
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "mpatt_mpa_c")
}

func TestBuildNoMPAs(t *testing.T) {
	cat := fixture().Add("mpatt_mpa_empty")
	_, _, err := newBuilder().Build(input(t, cat, "mpatt_mpa_empty"))
	assert.True(t, apperr.IsConfiguration(err))
}

func TestNameFieldOrder(t *testing.T) {
	raw := &catalog.Layer{Features: []catalog.RawFeature{
		catalog.Feature(nil, "Name_E", "x"),
		catalog.Feature(nil, "NAME_E", "y"),
	}}
	assert.Equal(t, "NAME_E", NameField(raw, []string{"NAME_E", "Name_E"}))
	assert.Equal(t, "", NameField(raw, []string{"NAME"}))
}

func TestBuildDissolvesOverlappingParts(t *testing.T) {
	cat := fixture().
		Add("mpatt_mpa_c", catalog.Feature(rect(0, 0, 10, 10), "NAME_E", "Alpha")).
		Add("mpatt_mpa_d", catalog.Feature(rect(5, 0, 15, 10), "NAME_E", "Alpha"))

	layer, _, err := newBuilder().Build(input(t, cat, "mpatt_mpa_a", "mpatt_mpa_c"))
	require.NoError(t, err)
	// the same footprint in two layers counts once
	alpha := layer.MPAs["Alpha"]
	assert.InDelta(t, 100, alpha.TotalArea, 1e-9)
	var sum float64
	for _, s := range layer.Sections {
		if s.MPA == "Alpha" {
			assert.InDelta(t, 100, s.TotalArea, 1e-9)
			sum += s.SectionArea
		}
	}
	assert.InDelta(t, 100, sum, 1e-9)

	layer, _, err = newBuilder().Build(input(t, cat, "mpatt_mpa_a", "mpatt_mpa_d"))
	require.NoError(t, err)
	assert.InDelta(t, 150, layer.MPAs["Alpha"].TotalArea, 1e-9)
}
