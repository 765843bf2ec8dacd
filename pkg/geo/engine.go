package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Engine is the geometry capability the analysis pipeline consumes. Calls
// are synchronous; implementations must be safe for concurrent use.
type Engine interface {
	// Project returns g reprojected from one CRS to another.
	Project(g orb.Geometry, from, to CRS) (orb.Geometry, error)
	// Explode splits multipart geometry into single polygons.
	Explode(g orb.Geometry) ([]orb.Polygon, error)
	// Shape converts polygonal geometry into the engine's working form.
	Shape(g orb.Geometry) (Shape, error)
	// Overlay intersects every left shape with every right shape and
	// returns the non-empty overlaps.
	Overlay(left, right []Shape) ([]Overlap, error)
	// Merge dissolves shapes into one. Overlapping parts count once.
	Merge(shapes ...Shape) Shape
	// Area returns the planar area of s in squared CRS units.
	Area(s Shape) float64
}

// Overlap is one non-empty intersection produced by Overlay. Left and Right
// index into the inputs.
type Overlap struct {
	Left  int
	Right int
	Shape Shape
	Area  float64
}

// Planar is the in-process Engine. It holds no state.
type Planar struct{}

// NewPlanar returns a planar engine.
func NewPlanar() Planar { return Planar{} }

func (Planar) Project(g orb.Geometry, from, to CRS) (orb.Geometry, error) {
	return Project(g, from, to)
}

func (Planar) Explode(g orb.Geometry) ([]orb.Polygon, error) {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}, nil
	case orb.Ring:
		return []orb.Polygon{{v}}, nil
	case orb.MultiPolygon:
		return append([]orb.Polygon(nil), v...), nil
	case orb.Collection:
		var out []orb.Polygon
		for i, child := range v {
			parts, err := Planar{}.Explode(child)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			out = append(out, parts...)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("nil geometry")
	}
	return nil, fmt.Errorf("cannot explode %s", g.GeoJSONType())
}

func (Planar) Shape(g orb.Geometry) (Shape, error) {
	return FromGeometry(g)
}

func (Planar) Overlay(left, right []Shape) ([]Overlap, error) {
	rightBounds := make([]orb.Bound, len(right))
	for j, r := range right {
		rightBounds[j] = r.Bound()
	}

	var out []Overlap
	for i, l := range left {
		if l.Empty() {
			continue
		}
		lb := l.Bound()
		for j, r := range right {
			if r.Empty() || !lb.Intersects(rightBounds[j]) {
				continue
			}
			s := Intersect(l, r)
			a := s.Area()
			if a <= 0 {
				continue
			}
			out = append(out, Overlap{Left: i, Right: j, Shape: s, Area: a})
		}
	}
	return out, nil
}

func (Planar) Merge(shapes ...Shape) Shape { return Union(shapes...) }

func (Planar) Area(s Shape) float64 { return s.Area() }
