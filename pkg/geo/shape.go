package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Piece is a convex counterclockwise polygon with a sign. A positive piece
// adds area, a negative piece cuts a hole.
type Piece struct {
	Ring  []orb.Point
	Sign  int
	Bound orb.Bound
}

// Area returns the signed area of the piece.
func (p Piece) Area() float64 {
	return float64(p.Sign) * signedArea(p.Ring)
}

// Shape is a region represented as a signed sum of convex pieces. The
// indicator function of the region equals the signed sum of the pieces'
// indicator functions, so intersections distribute over pieces.
type Shape struct {
	Pieces []Piece
}

// Empty reports whether the shape has no pieces.
func (s Shape) Empty() bool { return len(s.Pieces) == 0 }

// Area returns the area of the shape. Rounding noise below zero is clamped.
func (s Shape) Area() float64 {
	a := 0.0
	for _, p := range s.Pieces {
		a += p.Area()
	}
	return math.Max(a, 0)
}

// Bound returns the bounding box of all positive pieces.
func (s Shape) Bound() orb.Bound {
	var b orb.Bound
	first := true
	for _, p := range s.Pieces {
		if p.Sign < 0 {
			continue
		}
		if first {
			b = p.Bound
			first = false
			continue
		}
		b = b.Union(p.Bound)
	}
	return b
}

// Intersect returns the intersection of a and b.
func Intersect(a, b Shape) Shape {
	var out Shape
	for _, pa := range a.Pieces {
		for _, pb := range b.Pieces {
			if !pa.Bound.Intersects(pb.Bound) {
				continue
			}
			ring := clipToConvex(pa.Ring, pb.Ring)
			if ring == nil || signedArea(ring) <= 0 {
				continue
			}
			out.Pieces = append(out.Pieces, Piece{
				Ring:  ring,
				Sign:  pa.Sign * pb.Sign,
				Bound: boundOf(ring),
			})
		}
	}
	return out
}

// Merge concatenates shapes. The inputs must not overlap; use Union
// otherwise.
func Merge(shapes ...Shape) Shape {
	n := 0
	for _, s := range shapes {
		n += len(s.Pieces)
	}
	out := Shape{Pieces: make([]Piece, 0, n)}
	for _, s := range shapes {
		out.Pieces = append(out.Pieces, s.Pieces...)
	}
	return out
}

// Union dissolves shapes into one region in which overlapping parts count
// once. Each shape is added as acc + s - (acc ∩ s); the subtracted pieces
// are the intersection pieces with their signs flipped.
func Union(shapes ...Shape) Shape {
	var acc Shape
	for _, s := range shapes {
		if s.Empty() {
			continue
		}
		common := Intersect(acc, s)
		next := Shape{Pieces: make([]Piece, 0, len(acc.Pieces)+len(s.Pieces)+len(common.Pieces))}
		next.Pieces = append(next.Pieces, acc.Pieces...)
		next.Pieces = append(next.Pieces, s.Pieces...)
		for _, p := range common.Pieces {
			p.Sign = -p.Sign
			next.Pieces = append(next.Pieces, p)
		}
		acc = next
	}
	return acc
}

// FromPolygon decomposes a polygon with holes into a Shape.
func FromPolygon(p orb.Polygon) (Shape, error) {
	var s Shape
	for i, ring := range p {
		tris, err := triangulate(ring)
		if err != nil {
			return Shape{}, fmt.Errorf("ring %d: %w", i, err)
		}
		if err := checkTriangulation(ring, tris); err != nil {
			return Shape{}, fmt.Errorf("ring %d: %w", i, err)
		}
		sign := 1
		if i > 0 {
			sign = -1
		}
		for _, t := range tris {
			s.Pieces = append(s.Pieces, Piece{Ring: t, Sign: sign, Bound: boundOf(t)})
		}
	}
	return s, nil
}

// FromGeometry converts polygonal geometry into a Shape. Multipolygon parts
// are assumed not to overlap.
func FromGeometry(g orb.Geometry) (Shape, error) {
	switch v := g.(type) {
	case orb.Polygon:
		return FromPolygon(v)
	case orb.Ring:
		return FromPolygon(orb.Polygon{v})
	case orb.MultiPolygon:
		parts := make([]Shape, 0, len(v))
		for i, p := range v {
			s, err := FromPolygon(p)
			if err != nil {
				return Shape{}, fmt.Errorf("part %d: %w", i, err)
			}
			parts = append(parts, s)
		}
		return Merge(parts...), nil
	case orb.Collection:
		parts := make([]Shape, 0, len(v))
		for i, child := range v {
			s, err := FromGeometry(child)
			if err != nil {
				return Shape{}, fmt.Errorf("member %d: %w", i, err)
			}
			parts = append(parts, s)
		}
		return Merge(parts...), nil
	case nil:
		return Shape{}, fmt.Errorf("nil geometry")
	}
	return Shape{}, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
}

// checkTriangulation compares the triangle area with the ring's own area to
// catch rings whose ear clipping succeeded on a bad ring.
func checkTriangulation(ring orb.Ring, tris [][]orb.Point) error {
	want := math.Abs(planar.Area(orb.Polygon{ring}))
	got := 0.0
	for _, t := range tris {
		got += signedArea(t)
	}
	if math.Abs(got-want) > 1e-9*math.Max(want, 1) {
		return fmt.Errorf("%w: triangulated area %g, ring area %g", ErrNotSimple, got, want)
	}
	return nil
}

// Polygons renders every piece as its own polygon, regardless of sign.
func (s Shape) Polygons() orb.MultiPolygon {
	mp := make(orb.MultiPolygon, 0, len(s.Pieces))
	for _, p := range s.Pieces {
		mp = append(mp, orb.Polygon{closeRing(p.Ring)})
	}
	return mp
}

// Feature renders the shape as a GeoJSON feature carrying props and a
// "signs" property listing the sign of each part.
func (s Shape) Feature(props map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(s.Polygons())
	for k, v := range props {
		f.Properties[k] = v
	}
	signs := make([]int, len(s.Pieces))
	for i, p := range s.Pieces {
		signs[i] = p.Sign
	}
	f.Properties["signs"] = signs
	return f
}
