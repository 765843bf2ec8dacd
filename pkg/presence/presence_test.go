package presence

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/geo"
	"github.com/jcristia/CGA/pkg/loader"
	"github.com/jcristia/CGA/pkg/matrix"
	"github.com/jcristia/CGA/pkg/mpa"
	"github.com/jcristia/CGA/pkg/resolve"
)

func shape(t *testing.T, x0, y0, x1, y1 float64) geo.Shape {
	t.Helper()
	s, err := geo.FromPolygon(orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}})
	require.NoError(t, err)
	return s
}

// alpha is a 10 x 10 MPA split into two ecosections at x = 5.
func alpha(t *testing.T) *mpa.Layer {
	return &mpa.Layer{
		MPAs: map[bioregion.MPAID]mpa.MPA{
			"Alpha": {ID: "Alpha", Subregion: bioregion.HaidaGwaii, TotalArea: 100, Shape: shape(t, 0, 0, 10, 10)},
		},
		Sections: []mpa.Section{
			{MPA: "Alpha", Ecosection: "A", Subregion: bioregion.HaidaGwaii, TotalArea: 100, SectionArea: 50, Shape: shape(t, 0, 0, 5, 10)},
			{MPA: "Alpha", Ecosection: "B", Subregion: bioregion.HaidaGwaii, TotalArea: 100, SectionArea: 50, Shape: shape(t, 5, 0, 10, 10)},
		},
	}
}

type feat struct {
	x0, y0, x1, y1 float64
	scale          float64
}

func layer(t *testing.T, dataset string, feats ...feat) *loader.Layer {
	t.Helper()
	id, err := bioregion.DefaultConventions().Parse(dataset)
	require.NoError(t, err)
	l := &loader.Layer{Identity: id}
	for _, f := range feats {
		s := shape(t, f.x0, f.y0, f.x1, f.y1)
		l.Features = append(l.Features, loader.Feature{Shape: s, Area: s.Area(), Scale: f.scale})
		l.TotalArea += s.Area()
	}
	return l
}

func aggregator(t *testing.T, inc *matrix.Inclusion, o matrix.Overrides) *Aggregator {
	t.Helper()
	th, err := resolve.NewThresholds(0.05, 0.05, nil)
	require.NoError(t, err)
	return NewAggregator(geo.NewPlanar(), Options{Thresholds: th, Inclusion: inc, Overrides: o})
}

const reef = "mpatt_eco_fish_reef_data"

func TestIncludedAboveThreshold(t *testing.T) {
	// 6 inside section A, 44 outside the MPA
	l := layer(t, reef, feat{0, 0, 2, 3, 1}, feat{50, 50, 54, 61, 1})
	res, err := aggregator(t, nil, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)

	require.True(t, res.Present("Alpha"))
	rec := res.Presence["Alpha"]["A"]
	assert.InDelta(t, 6, rec.ClippedArea, 1e-9)
	assert.InDelta(t, 50, rec.LayerTotalArea, 1e-9)
	assert.Equal(t, 100.0, rec.MPAArea)
	assert.Equal(t, bioregion.HaidaGwaii, rec.Subregion)
	assert.InDelta(t, 0.12, rec.FractionOfMPA.Value(), 1e-9)
	assert.InDelta(t, 0.06, rec.FractionOfMPATotal.Value(), 1e-9)
	assert.InDelta(t, 0.12, rec.FractionOfLayer.Value(), 1e-9)
	assert.InDelta(t, 0.06, res.Slivers["Alpha"].Value(), 1e-9)
	assert.True(t, res.Report.Valid)
}

func TestBelowThresholdOnlyInSlivers(t *testing.T) {
	l := layer(t, reef, feat{0, 0, 1, 1, 1})
	res, err := aggregator(t, nil, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	assert.False(t, res.Present("Alpha"))
	assert.InDelta(t, 0.01, res.Slivers["Alpha"].Value(), 1e-9)
}

func TestFractionOfMPATotalSumsEcosections(t *testing.T) {
	// 6 in A, then a 4 unit feature straddling the A/B boundary
	l := layer(t, reef, feat{0, 0, 2, 3, 1}, feat{4, 0, 6, 2, 1})
	res, err := aggregator(t, nil, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)

	a, b := res.Presence["Alpha"]["A"], res.Presence["Alpha"]["B"]
	assert.InDelta(t, 8, a.ClippedArea, 1e-9)
	assert.InDelta(t, 2, b.ClippedArea, 1e-9)
	want := (a.ClippedArea + b.ClippedArea) / 100
	assert.InDelta(t, want, a.FractionOfMPATotal.Value(), 1e-9)
	assert.InDelta(t, want, b.FractionOfMPATotal.Value(), 1e-9)
	assert.InDelta(t, 10, a.MPATotalClipped, 1e-9)
}

func TestScaleAppliedBeforeAggregation(t *testing.T) {
	l := layer(t, reef, feat{0, 0, 2, 3, 2.5}, feat{0, 0, 2, 3, 1})
	res, err := aggregator(t, nil, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	// overlapping source features are both counted
	assert.InDelta(t, 21, res.Presence["Alpha"]["A"].ClippedArea, 1e-9)
}

func TestAggregateIsIdempotent(t *testing.T) {
	l := layer(t, reef, feat{0, 0, 2, 3, 1}, feat{4, 0, 6, 2, 0.5})
	base := alpha(t)
	agg := aggregator(t, nil, matrix.Overrides{})

	first, err := agg.Aggregate(l, base)
	require.NoError(t, err)
	second, err := agg.Aggregate(l, base)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNCellExcludesLargeFraction(t *testing.T) {
	inc := matrix.NewInclusion()
	inc.Set("Alpha", reef, matrix.No)
	l := layer(t, reef, feat{0, 0, 10, 5, 1})

	res, err := aggregator(t, inc, matrix.Overrides{N: false}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	assert.False(t, res.Present("Alpha"))
	assert.InDelta(t, 0.5, res.Slivers["Alpha"].Value(), 1e-9)

	res, err = aggregator(t, inc, matrix.Overrides{N: true}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	assert.True(t, res.Present("Alpha"))
}

func TestYCellIncludesSliver(t *testing.T) {
	inc := matrix.NewInclusion()
	inc.Set("Alpha", "mpatt_hu_trawl_data", matrix.Yes)
	l := layer(t, "mpatt_hu_trawl_data", feat{0, 0, 1, 1, 1})

	res, err := aggregator(t, inc, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	assert.True(t, res.Present("Alpha"))
}

func TestClippedVariantUsesCanonicalInclusion(t *testing.T) {
	inc := matrix.NewInclusion()
	inc.Set("Alpha", reef, matrix.No)
	l := layer(t, reef+"_HG", feat{0, 0, 10, 5, 1})

	res, err := aggregator(t, inc, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	assert.False(t, res.Present("Alpha"))
}

func TestZeroLayerTotalIsReported(t *testing.T) {
	l := layer(t, reef)
	res, err := aggregator(t, nil, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	assert.False(t, res.Report.Valid)
	require.Len(t, res.Report.Errors, 1)
	assert.Equal(t, reef, res.Report.Errors[0].Layer)
	assert.Empty(t, res.Presence)

	undefined := bioregion.Ratio(0, l.TotalArea, "fraction of layer")
	_, err = undefined.Float()
	assert.True(t, apperr.IsDataIntegrity(err))
}

func TestZeroMPAAreaIsDataIntegrityError(t *testing.T) {
	base := alpha(t)
	m := base.MPAs["Alpha"]
	m.TotalArea = 0
	base.MPAs["Alpha"] = m

	_, err := aggregator(t, nil, matrix.Overrides{}).Aggregate(layer(t, reef, feat{0, 0, 2, 3, 1}), base)
	assert.True(t, apperr.IsDataIntegrity(err))
}

func TestFallbacksAreWarned(t *testing.T) {
	l := layer(t, reef, feat{0, 0, 2, 3, 1})
	l.Fallbacks = 1
	l.ScaleAttribute = "og"
	res, err := aggregator(t, nil, matrix.Overrides{}).Aggregate(l, alpha(t))
	require.NoError(t, err)
	assert.Len(t, res.Report.Warnings, 1)
}

func TestSetMergesClippedVariants(t *testing.T) {
	base := alpha(t)
	agg := aggregator(t, nil, matrix.Overrides{})

	whole, err := agg.Aggregate(layer(t, reef, feat{0, 0, 2, 3, 1}, feat{50, 50, 60, 60, 1}), base)
	require.NoError(t, err)
	clipped, err := agg.Aggregate(layer(t, reef+"_HG", feat{0, 0, 2, 3, 1}), base)
	require.NoError(t, err)
	hu, err := agg.Aggregate(layer(t, "mpatt_hu_trawl_data", feat{6, 0, 10, 10, 1}), base)
	require.NoError(t, err)

	set := NewSet(bioregion.KindCP)
	set.Add(whole)
	set.Add(clipped)
	set.Add(hu)

	assert.Equal(t, []bioregion.MPAID{"Alpha"}, set.MPAs())
	assert.Equal(t, []string{reef}, set.Layers("Alpha"))
	assert.Equal(t, []bioregion.EcosectionID{"A"}, set.Ecosections("Alpha", reef))

	rec, ok := set.Record("Alpha", "A", reef)
	require.True(t, ok)
	// the clipped variant was added last
	assert.InDelta(t, 6, rec.LayerTotalArea, 1e-9)
	assert.Equal(t, bioregion.HaidaGwaii, set.Identities[reef].Subregion)
	assert.Contains(t, set.Slivers["Alpha"], reef)
	assert.NotContains(t, set.Slivers["Alpha"], "mpatt_hu_trawl_data")
}
