// Package loader normalizes raw catalog layers into area-bearing features
// in the target CRS.
package loader

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"

	"github.com/jcristia/CGA/internal/logging"
	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/geo"
	"github.com/jcristia/CGA/pkg/resolve"
)

// Feature is one normalized feature. Area is the unscaled planar area in
// target CRS units.
type Feature struct {
	Shape      geo.Shape
	Area       float64
	Scale      float64
	Ecosection bioregion.EcosectionID
	// Tag is the value of the reference field for layers read with
	// LoadReference.
	Tag string
}

// Layer is a normalized layer. TotalArea is the sum of feature areas
// before any clipping.
type Layer struct {
	Identity       bioregion.Identity
	Features       []Feature
	TotalArea      float64
	ScaleAttribute string
	// Fallbacks counts features whose scaling attribute was missing or not
	// numeric and which were scaled by 1.
	Fallbacks int
	// Skipped counts features with no geometry.
	Skipped int
}

// Options configures a Loader.
type Options struct {
	Target          geo.CRS
	Scaling         *resolve.Scaling
	EcosectionField string
	Logger          logging.Logger
}

// Loader normalizes layers. It is safe for concurrent use when its engine
// is.
type Loader struct {
	engine geo.Engine
	opts   Options
	log    logging.Logger
}

// New returns a Loader.
func New(engine geo.Engine, opts Options) *Loader {
	if opts.Scaling == nil {
		opts.Scaling, _ = resolve.NewScaling("", nil)
	}
	return &Loader{
		engine: engine,
		opts:   opts,
		log:    logging.OrNop(opts.Logger).Named("loader"),
	}
}

// Load reprojects raw, explodes it first when complex is set, resolves the
// per-feature scaling factor and computes areas. The returned layer keeps
// the identity of the catalog dataset it was read from.
func (l *Loader) Load(raw *catalog.Layer, id bioregion.Identity, complex bool) (*Layer, error) {
	attr := l.opts.Scaling.Attribute(id.Dataset, id.Name)
	out := &Layer{Identity: id, ScaleAttribute: attr}

	err := l.each(raw, complex, func(g orb.Geometry, props map[string]interface{}) error {
		s, err := l.engine.Shape(g)
		if err != nil {
			return apperr.Geometry("shape", raw.Dataset, err)
		}
		scale, ok := resolve.Value(attr, props)
		if !ok {
			out.Fallbacks++
		}
		out.Features = append(out.Features, Feature{
			Shape:      s,
			Area:       l.engine.Area(s),
			Scale:      scale,
			Ecosection: bioregion.EcosectionID(stringProp(props, l.opts.EcosectionField)),
		})
		return nil
	}, &out.Skipped)
	if err != nil {
		return nil, err
	}

	out.TotalArea = total(out.Features)
	if out.Fallbacks > 0 {
		l.log.Warn("scaling attribute missing, using 1",
			logging.Layer(raw.Dataset),
			logging.String("attribute", attr),
			logging.Int("features", out.Fallbacks))
	}
	l.log.Debug("layer loaded",
		logging.Layer(raw.Dataset),
		logging.Int("features", len(out.Features)),
		logging.Float64("total_area", out.TotalArea))
	return out, nil
}

// LoadReference loads a polygon layer whose features are identified by the
// string value of field. Features are unscaled.
func (l *Loader) LoadReference(raw *catalog.Layer, field string) (*Layer, error) {
	out := &Layer{Identity: bioregion.Identity{Dataset: raw.Dataset, Name: raw.Dataset}}
	err := l.each(raw, false, func(g orb.Geometry, props map[string]interface{}) error {
		s, err := l.engine.Shape(g)
		if err != nil {
			return apperr.Geometry("shape", raw.Dataset, err)
		}
		out.Features = append(out.Features, Feature{
			Shape: s,
			Area:  l.engine.Area(s),
			Scale: 1,
			Tag:   stringProp(props, field),
		})
		return nil
	}, &out.Skipped)
	if err != nil {
		return nil, err
	}
	out.TotalArea = total(out.Features)
	return out, nil
}

func (l *Loader) each(raw *catalog.Layer, complex bool, fn func(orb.Geometry, map[string]interface{}) error, skipped *int) error {
	for i, f := range raw.Features {
		if f.Geometry == nil {
			*skipped++
			continue
		}
		g, err := l.engine.Project(f.Geometry, raw.CRS, l.opts.Target)
		if err != nil {
			return apperr.Geometry("project", raw.Dataset, fmt.Errorf("feature %d: %w", i, err))
		}
		if !complex {
			if err := fn(g, f.Properties); err != nil {
				return err
			}
			continue
		}
		parts, err := l.engine.Explode(g)
		if err != nil {
			return apperr.Geometry("explode", raw.Dataset, fmt.Errorf("feature %d: %w", i, err))
		}
		for _, p := range parts {
			if err := fn(p, f.Properties); err != nil {
				return err
			}
		}
	}
	return nil
}

func total(features []Feature) float64 {
	areas := make([]float64, len(features))
	for i, f := range features {
		areas[i] = f.Area
	}
	return floats.Sum(areas)
}

func stringProp(props map[string]interface{}, key string) string {
	if key == "" {
		return ""
	}
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
