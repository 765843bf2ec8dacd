// Package presence measures how much of a normalized layer falls inside
// each MPA and ecosection, and decides where the layer counts as present.
package presence

import (
	"fmt"

	"github.com/jcristia/CGA/internal/logging"
	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/geo"
	"github.com/jcristia/CGA/pkg/loader"
	"github.com/jcristia/CGA/pkg/matrix"
	"github.com/jcristia/CGA/pkg/mpa"
	"github.com/jcristia/CGA/pkg/resolve"
	"github.com/jcristia/CGA/pkg/validation"
)

// Record is the presence of one layer in one MPA ecosection. ClippedArea
// is scaled; LayerTotalArea is not.
type Record struct {
	MPA                bioregion.MPAID        `json:"mpa"`
	Ecosection         bioregion.EcosectionID `json:"ecosection"`
	Subregion          bioregion.Subregion    `json:"subregion"`
	ClippedArea        float64                `json:"clipped_area"`
	LayerTotalArea     float64                `json:"layer_total_area"`
	MPAArea            float64                `json:"mpa_area"`
	SectionArea        float64                `json:"section_area"`
	MPATotalClipped    float64                `json:"mpa_total_clipped"`
	FractionOfMPA      bioregion.Fraction     `json:"fraction_of_mpa"`
	FractionOfMPATotal bioregion.Fraction     `json:"fraction_of_mpa_total"`
	FractionOfLayer    bioregion.Fraction     `json:"fraction_of_layer"`
}

// Result is the output of one Aggregate call. Presence holds included rows
// only; Slivers holds the raw fraction of MPA total for every MPA the
// layer touches.
type Result struct {
	Identity  bioregion.Identity
	TotalArea float64
	Presence  map[bioregion.MPAID]map[bioregion.EcosectionID]Record
	Slivers   map[bioregion.MPAID]bioregion.Fraction
	Report    *validation.Report
}

// Present reports whether the layer was included for id.
func (r *Result) Present(id bioregion.MPAID) bool {
	_, ok := r.Presence[id]
	return ok
}

// Options configures an Aggregator.
type Options struct {
	Thresholds *resolve.Thresholds
	Inclusion  *matrix.Inclusion
	Overrides  matrix.Overrides
	Logger     logging.Logger
}

// Aggregator intersects layers with the MPA/ecosection layer. It keeps no
// state between calls.
type Aggregator struct {
	engine geo.Engine
	opts   Options
	log    logging.Logger
}

// NewAggregator returns an Aggregator.
func NewAggregator(engine geo.Engine, opts Options) *Aggregator {
	if opts.Inclusion == nil {
		opts.Inclusion = matrix.NewInclusion()
	}
	if opts.Thresholds == nil {
		opts.Thresholds, _ = resolve.NewThresholds(0, 0, nil)
	}
	return &Aggregator{
		engine: engine,
		opts:   opts,
		log:    logging.OrNop(opts.Logger).Named("presence"),
	}
}

// Aggregate computes the presence of layer in every section of base.
func (a *Aggregator) Aggregate(layer *loader.Layer, base *mpa.Layer) (*Result, error) {
	id := layer.Identity
	res := &Result{
		Identity:  id,
		TotalArea: layer.TotalArea,
		Presence:  make(map[bioregion.MPAID]map[bioregion.EcosectionID]Record),
		Slivers:   make(map[bioregion.MPAID]bioregion.Fraction),
		Report:    validation.NewReport(),
	}
	if layer.TotalArea == 0 {
		res.Report.AddError(validation.Result{
			Level:       validation.LevelIntegrity,
			Layer:       id.Dataset,
			Message:     "layer total area is zero; fraction of layer is undefined",
			ActualValue: layer.TotalArea,
		})
	}
	if layer.Fallbacks > 0 {
		res.Report.AddWarning(validation.Result{
			Level:       validation.LevelPresence,
			Layer:       id.Dataset,
			Message:     fmt.Sprintf("%d features lack a numeric %q and were scaled by 1", layer.Fallbacks, layer.ScaleAttribute),
			ActualValue: layer.Fallbacks,
		})
	}

	shapes := make([]geo.Shape, len(layer.Features))
	for i, f := range layer.Features {
		shapes[i] = f.Shape
	}
	overlaps, err := a.engine.Overlay(shapes, base.Shapes())
	if err != nil {
		return nil, apperr.Geometry("intersect", id.Dataset, err)
	}

	// scaled area per section, in first-seen section order
	clipped := make(map[int]float64)
	var touched []int
	for _, o := range overlaps {
		if _, ok := clipped[o.Right]; !ok {
			touched = append(touched, o.Right)
		}
		clipped[o.Right] += o.Area * layer.Features[o.Left].Scale
	}

	perMPA := make(map[bioregion.MPAID]float64)
	for _, si := range touched {
		perMPA[base.Sections[si].MPA] += clipped[si]
	}

	threshold := a.opts.Thresholds.For(id.Kind, id.Dataset, id.Name)
	included := make(map[bioregion.MPAID]bool, len(perMPA))
	for mpaID, sum := range perMPA {
		m := base.MPAs[mpaID]
		if m.TotalArea == 0 {
			return nil, apperr.Integrityf(id.Dataset, "MPA %s has zero area", mpaID)
		}
		frac := bioregion.Ratio(sum, m.TotalArea, "fraction of MPA total")
		res.Slivers[mpaID] = frac

		cell := a.opts.Inclusion.Lookup(mpaID, id.Dataset, id.Name)
		included[mpaID] = matrix.ShouldInclude(cell, a.opts.Overrides, frac.Value(), threshold)
		if _, decided := matrix.Decide(cell, a.opts.Overrides); decided {
			a.log.Debug("inclusion decided by matrix",
				logging.Layer(id.Dataset), logging.MPA(string(mpaID)),
				logging.String("cell", string(cell)), logging.Bool("included", included[mpaID]))
		}
	}

	for _, si := range touched {
		sec := base.Sections[si]
		if !included[sec.MPA] {
			continue
		}
		area := clipped[si]
		m := base.MPAs[sec.MPA]
		rec := Record{
			MPA:                sec.MPA,
			Ecosection:         sec.Ecosection,
			Subregion:          sec.Subregion,
			ClippedArea:        area,
			LayerTotalArea:     layer.TotalArea,
			MPAArea:            m.TotalArea,
			SectionArea:        sec.SectionArea,
			MPATotalClipped:    perMPA[sec.MPA],
			FractionOfMPA:      bioregion.Ratio(area, sec.SectionArea, "fraction of MPA section"),
			FractionOfMPATotal: res.Slivers[sec.MPA],
			FractionOfLayer:    bioregion.Ratio(area, layer.TotalArea, "fraction of layer"),
		}
		row, ok := res.Presence[sec.MPA]
		if !ok {
			row = make(map[bioregion.EcosectionID]Record)
			res.Presence[sec.MPA] = row
		}
		row[sec.Ecosection] = rec
	}

	a.log.Debug("presence aggregated",
		logging.Layer(id.Dataset),
		logging.Int("touched", len(perMPA)),
		logging.Int("included", len(res.Presence)),
		logging.Float64("threshold", threshold))
	return res, nil
}
