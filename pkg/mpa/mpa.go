// Package mpa builds the canonical MPA/ecosection layer that feature layers
// are intersected against.
package mpa

import (
	"fmt"
	"sort"

	"github.com/jcristia/CGA/internal/logging"
	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/geo"
	"github.com/jcristia/CGA/pkg/loader"
	"github.com/jcristia/CGA/pkg/validation"
)

// MPA is one merged protected area. TotalArea is taken before ecosection
// decomposition.
type MPA struct {
	ID        bioregion.MPAID     `json:"id"`
	Subregion bioregion.Subregion `json:"subregion"`
	TotalArea float64             `json:"total_area"`
	Shape     geo.Shape           `json:"-"`
}

// Section is the part of one MPA inside one ecosection.
type Section struct {
	MPA         bioregion.MPAID        `json:"mpa"`
	Ecosection  bioregion.EcosectionID `json:"ecosection"`
	Subregion   bioregion.Subregion    `json:"subregion"`
	TotalArea   float64                `json:"total_area"`
	SectionArea float64                `json:"section_area"`
	Shape       geo.Shape              `json:"-"`
}

// Layer is the canonical MPA/ecosection layer. Sections are ordered by MPA
// then ecosection.
type Layer struct {
	MPAs     map[bioregion.MPAID]MPA
	Sections []Section
}

// IDs returns the MPA ids in sorted order.
func (l *Layer) IDs() []bioregion.MPAID {
	ids := make([]bioregion.MPAID, 0, len(l.MPAs))
	for id := range l.MPAs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Shapes returns the section shapes in Sections order.
func (l *Layer) Shapes() []geo.Shape {
	out := make([]geo.Shape, len(l.Sections))
	for i, s := range l.Sections {
		out[i] = s.Shape
	}
	return out
}

// Input is the set of raw layers the builder consumes.
type Input struct {
	MPAs        []*catalog.Layer
	Subregions  *catalog.Layer
	Ecosections *catalog.Layer
}

// Options configures a Builder.
type Options struct {
	// NameFields are the candidate MPA name attributes, tried in order.
	NameFields      []string
	EcosectionField string
	SubregionField  string
	Logger          logging.Logger
}

// Builder merges MPA layers and decomposes them by ecosection.
type Builder struct {
	engine geo.Engine
	loader *loader.Loader
	opts   Options
	log    logging.Logger
}

// NewBuilder returns a Builder. The loader must target the run CRS.
func NewBuilder(engine geo.Engine, ld *loader.Loader, opts Options) *Builder {
	return &Builder{
		engine: engine,
		loader: ld,
		opts:   opts,
		log:    logging.OrNop(opts.Logger).Named("mpa"),
	}
}

// NameField returns the first configured name field present on any
// feature of raw, or "" when none is.
func NameField(raw *catalog.Layer, candidates []string) string {
	for _, field := range candidates {
		for _, f := range raw.Features {
			if _, ok := f.Properties[field]; ok {
				return field
			}
		}
	}
	return ""
}

// Build produces the canonical MPA/ecosection layer.
func (b *Builder) Build(in Input) (*Layer, *validation.Report, error) {
	report := validation.NewReport()
	if in.Subregions == nil || in.Ecosections == nil {
		return nil, nil, apperr.Configf("subregion and ecosection layers are required")
	}

	merged, order, err := b.merge(in.MPAs, report)
	if err != nil {
		return nil, nil, err
	}
	if len(order) == 0 {
		return nil, nil, apperr.Configf("no MPA features found in %d MPA layers", len(in.MPAs))
	}

	shapes := make([]geo.Shape, len(order))
	for i, id := range order {
		shapes[i] = merged[id].Shape
	}

	subregions, err := b.loader.LoadReference(in.Subregions, b.opts.SubregionField)
	if err != nil {
		return nil, nil, err
	}
	if err := b.assignSubregions(merged, order, shapes, subregions, report); err != nil {
		return nil, nil, err
	}

	ecosections, err := b.loader.LoadReference(in.Ecosections, b.opts.EcosectionField)
	if err != nil {
		return nil, nil, err
	}
	sections, err := b.sections(merged, order, shapes, ecosections, report)
	if err != nil {
		return nil, nil, err
	}

	b.log.Info("MPA layer built",
		logging.Int("mpas", len(merged)),
		logging.Int("sections", len(sections)))
	return &Layer{MPAs: merged, Sections: sections}, report, nil
}

func (b *Builder) merge(layers []*catalog.Layer, report *validation.Report) (map[bioregion.MPAID]MPA, []bioregion.MPAID, error) {
	merged := make(map[bioregion.MPAID]MPA)
	var order []bioregion.MPAID
	parts := make(map[bioregion.MPAID][]geo.Shape)

	for _, raw := range layers {
		if len(raw.Features) == 0 {
			report.AddWarning(validation.Result{
				Level:   validation.LevelIntegrity,
				Layer:   raw.Dataset,
				Message: "MPA layer has no features",
			})
			continue
		}
		field := NameField(raw, b.opts.NameFields)
		if field == "" {
			return nil, nil, apperr.Configf("MPA layer %s has none of the name fields %v", raw.Dataset, b.opts.NameFields)
		}
		norm, err := b.loader.LoadReference(raw, field)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range norm.Features {
			if f.Tag == "" {
				report.AddWarning(validation.Result{
					Level:   validation.LevelIntegrity,
					Layer:   raw.Dataset,
					Message: fmt.Sprintf("MPA feature without a %s value skipped", field),
				})
				continue
			}
			id := bioregion.MPAID(f.Tag)
			m, seen := merged[id]
			if !seen {
				order = append(order, id)
				m.ID = id
			}
			merged[id] = m
			parts[id] = append(parts[id], f.Shape)
		}
	}

	// same-name parts may overlap, so the area comes from the dissolved
	// shape rather than the sum of the parts
	for id, m := range merged {
		m.Shape = b.engine.Merge(parts[id]...)
		m.TotalArea = b.engine.Area(m.Shape)
		merged[id] = m
	}
	return merged, order, nil
}

// assignSubregions gives each MPA the subregion it overlaps most. Equal
// overlaps go to the subregion that comes first in the reference layer.
func (b *Builder) assignSubregions(merged map[bioregion.MPAID]MPA, order []bioregion.MPAID, shapes []geo.Shape, ref *loader.Layer, report *validation.Report) error {
	overlaps, err := b.engine.Overlay(shapes, featureShapes(ref))
	if err != nil {
		return apperr.Geometry("intersect", ref.Identity.Dataset, err)
	}

	type tally struct {
		codes []bioregion.Subregion
		area  map[bioregion.Subregion]float64
	}
	tallies := make([]tally, len(order))
	for _, o := range overlaps {
		code := bioregion.Subregion(ref.Features[o.Right].Tag)
		t := &tallies[o.Left]
		if t.area == nil {
			t.area = make(map[bioregion.Subregion]float64)
		}
		if _, ok := t.area[code]; !ok {
			t.codes = append(t.codes, code)
		}
		t.area[code] += o.Area
	}

	for i, id := range order {
		t := tallies[i]
		var best bioregion.Subregion
		bestArea := 0.0
		for _, code := range t.codes {
			if t.area[code] > bestArea {
				best, bestArea = code, t.area[code]
			}
		}
		if bestArea == 0 {
			report.AddWarning(validation.Result{
				Level:   validation.LevelIntegrity,
				MPA:     string(id),
				Message: "MPA overlaps no subregion",
			})
		}
		m := merged[id]
		m.Subregion = best
		merged[id] = m
	}
	return nil
}

func (b *Builder) sections(merged map[bioregion.MPAID]MPA, order []bioregion.MPAID, shapes []geo.Shape, eco *loader.Layer, report *validation.Report) ([]Section, error) {
	overlaps, err := b.engine.Overlay(shapes, featureShapes(eco))
	if err != nil {
		return nil, apperr.Geometry("intersect", eco.Identity.Dataset, err)
	}

	type key struct {
		mpa bioregion.MPAID
		eco bioregion.EcosectionID
	}
	parts := make(map[key][]geo.Shape)
	covered := make(map[bioregion.MPAID]bool)
	for _, o := range overlaps {
		k := key{order[o.Left], bioregion.EcosectionID(eco.Features[o.Right].Tag)}
		parts[k] = append(parts[k], o.Shape)
		covered[k.mpa] = true
	}

	for _, id := range order {
		if !covered[id] {
			report.AddWarning(validation.Result{
				Level:   validation.LevelIntegrity,
				MPA:     string(id),
				Message: "MPA overlaps no ecosection",
			})
		}
	}

	out := make([]Section, 0, len(parts))
	for k, shapes := range parts {
		s := b.engine.Merge(shapes...)
		m := merged[k.mpa]
		out = append(out, Section{
			MPA:         k.mpa,
			Ecosection:  k.eco,
			Subregion:   m.Subregion,
			TotalArea:   m.TotalArea,
			SectionArea: b.engine.Area(s),
			Shape:       s,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MPA != out[j].MPA {
			return out[i].MPA < out[j].MPA
		}
		return out[i].Ecosection < out[j].Ecosection
	})
	return out, nil
}

func featureShapes(l *loader.Layer) []geo.Shape {
	out := make([]geo.Shape, len(l.Features))
	for i, f := range l.Features {
		out[i] = f.Shape
	}
	return out
}
