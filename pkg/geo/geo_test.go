package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

const tolerance = 1e-6

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func rect(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
}

func mustShape(t *testing.T, g orb.Geometry) Shape {
	t.Helper()
	s, err := FromGeometry(g)
	if err != nil {
		t.Fatalf("FromGeometry: %v", err)
	}
	return s
}

// --- Shape tests ---

func TestShapeAreaSquare(t *testing.T) {
	s := mustShape(t, orb.Polygon{rect(0, 0, 10, 10)})
	if !approxEqual(s.Area(), 100, tolerance) {
		t.Errorf("expected area 100, got %f", s.Area())
	}
}

func TestShapeAreaClockwise(t *testing.T) {
	cw := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	s := mustShape(t, orb.Polygon{cw})
	if !approxEqual(s.Area(), 100, tolerance) {
		t.Errorf("expected area 100, got %f", s.Area())
	}
}

func TestShapeAreaConcave(t *testing.T) {
	// L shape: 10x10 square minus its top-right 5x5 quadrant
	l := orb.Ring{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}, {0, 0}}
	s := mustShape(t, orb.Polygon{l})
	if !approxEqual(s.Area(), 75, tolerance) {
		t.Errorf("expected area 75, got %f", s.Area())
	}
	for _, p := range s.Pieces {
		if signedArea(p.Ring) <= 0 {
			t.Errorf("piece is not counterclockwise: %v", p.Ring)
		}
	}
}

func TestShapeAreaCollinearVertices(t *testing.T) {
	r := orb.Ring{{0, 0}, {5, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 5}, {0, 0}}
	s := mustShape(t, orb.Polygon{r})
	if !approxEqual(s.Area(), 100, tolerance) {
		t.Errorf("expected area 100, got %f", s.Area())
	}
}

func TestShapeAreaWithHole(t *testing.T) {
	p := orb.Polygon{rect(0, 0, 10, 10), rect(3, 3, 7, 7)}
	s := mustShape(t, p)
	if !approxEqual(s.Area(), 84, tolerance) {
		t.Errorf("expected area 84, got %f", s.Area())
	}
}

func TestShapeMultiPolygon(t *testing.T) {
	mp := orb.MultiPolygon{
		{rect(0, 0, 2, 2)},
		{rect(5, 5, 8, 8)},
	}
	s := mustShape(t, mp)
	if !approxEqual(s.Area(), 13, tolerance) {
		t.Errorf("expected area 13, got %f", s.Area())
	}
}

func TestShapeUnsupportedGeometry(t *testing.T) {
	if _, err := FromGeometry(orb.Point{1, 2}); err == nil {
		t.Error("expected error for point geometry")
	}
	if _, err := FromGeometry(nil); err == nil {
		t.Error("expected error for nil geometry")
	}
}

// --- Intersection tests ---

func TestIntersectSquares(t *testing.T) {
	a := mustShape(t, orb.Polygon{rect(0, 0, 10, 10)})
	b := mustShape(t, orb.Polygon{rect(5, 5, 15, 15)})
	got := Intersect(a, b).Area()
	if !approxEqual(got, 25, tolerance) {
		t.Errorf("expected overlap 25, got %f", got)
	}
}

func TestIntersectDisjoint(t *testing.T) {
	a := mustShape(t, orb.Polygon{rect(0, 0, 1, 1)})
	b := mustShape(t, orb.Polygon{rect(2, 2, 3, 3)})
	if s := Intersect(a, b); !s.Empty() {
		t.Errorf("expected empty intersection, got %d pieces", len(s.Pieces))
	}
}

func TestIntersectRespectsHoles(t *testing.T) {
	donut := mustShape(t, orb.Polygon{rect(0, 0, 10, 10), rect(3, 3, 7, 7)})
	left := mustShape(t, orb.Polygon{rect(0, 0, 5, 10)})
	// 50 minus the 2x4 part of the hole left of x=5
	got := Intersect(donut, left).Area()
	if !approxEqual(got, 42, tolerance) {
		t.Errorf("expected 42, got %f", got)
	}
}

func TestIntersectConcave(t *testing.T) {
	l := mustShape(t, orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}, {0, 0}}})
	corner := mustShape(t, orb.Polygon{rect(4, 4, 10, 10)})
	// 6x1 strip below y=5 plus 1x5 strip left of x=5
	want := 6.0*1 + 1*5
	got := Intersect(l, corner).Area()
	if !approxEqual(got, want, tolerance) {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestOverlayIndices(t *testing.T) {
	left := []Shape{
		mustShape(t, orb.Polygon{rect(0, 0, 4, 4)}),
		mustShape(t, orb.Polygon{rect(20, 20, 24, 24)}),
		mustShape(t, orb.Polygon{rect(2, 2, 6, 6)}),
	}
	right := []Shape{mustShape(t, orb.Polygon{rect(3, 3, 10, 10)})}

	got, err := NewPlanar().Overlay(left, right)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 overlaps, got %d", len(got))
	}
	if got[0].Left != 0 || got[1].Left != 2 {
		t.Errorf("unexpected left indices %d, %d", got[0].Left, got[1].Left)
	}
	if !approxEqual(got[0].Area, 1, tolerance) || !approxEqual(got[1].Area, 9, tolerance) {
		t.Errorf("unexpected areas %f, %f", got[0].Area, got[1].Area)
	}
}

func TestOverlayTouchingHasNoArea(t *testing.T) {
	left := []Shape{mustShape(t, orb.Polygon{rect(0, 0, 1, 1)})}
	right := []Shape{mustShape(t, orb.Polygon{rect(1, 0, 2, 1)})}
	got, err := NewPlanar().Overlay(left, right)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no overlaps for shared edge, got %d", len(got))
	}
}

func TestExplode(t *testing.T) {
	mp := orb.MultiPolygon{{rect(0, 0, 1, 1)}, {rect(2, 2, 3, 3)}}
	parts, err := NewPlanar().Explode(mp)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 {
		t.Errorf("expected 2 parts, got %d", len(parts))
	}
	if _, err := NewPlanar().Explode(orb.LineString{{0, 0}, {1, 1}}); err == nil {
		t.Error("expected error exploding a line")
	}
}

func TestMergeArea(t *testing.T) {
	a := mustShape(t, orb.Polygon{rect(0, 0, 2, 2)})
	b := mustShape(t, orb.Polygon{rect(2, 0, 4, 2)})
	if got := NewPlanar().Area(NewPlanar().Merge(a, b)); !approxEqual(got, 8, tolerance) {
		t.Errorf("expected 8, got %f", got)
	}
}

func TestUnionCountsOverlapOnce(t *testing.T) {
	a := mustShape(t, orb.Polygon{rect(0, 0, 10, 10)})
	b := mustShape(t, orb.Polygon{rect(0, 0, 10, 10)})
	u := Union(a, b)
	if got := u.Area(); !approxEqual(got, 100, tolerance) {
		t.Errorf("identical parts: expected 100, got %f", got)
	}

	reef := mustShape(t, orb.Polygon{rect(0, 0, 2, 3)})
	if got := Intersect(u, reef).Area(); !approxEqual(got, 6, tolerance) {
		t.Errorf("clip against union: expected 6, got %f", got)
	}
}

func TestUnionPartialOverlap(t *testing.T) {
	a := mustShape(t, orb.Polygon{rect(0, 0, 10, 10)})
	b := mustShape(t, orb.Polygon{rect(5, 5, 15, 15)})
	c := mustShape(t, orb.Polygon{rect(8, 0, 12, 4)})
	// 100 + 100 - 25, plus c minus its 2x4 overlap with a
	want := 175.0 + 16 - 8
	if got := NewPlanar().Merge(a, b, c).Area(); !approxEqual(got, want, tolerance) {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestUnionWithHole(t *testing.T) {
	donut := mustShape(t, orb.Polygon{rect(0, 0, 10, 10), rect(3, 3, 7, 7)})
	plug := mustShape(t, orb.Polygon{rect(2, 2, 8, 8)})
	if got := Union(donut, plug).Area(); !approxEqual(got, 100, tolerance) {
		t.Errorf("expected hole filled to 100, got %f", got)
	}
	if got := Union(donut, donut).Area(); !approxEqual(got, 84, tolerance) {
		t.Errorf("expected 84, got %f", got)
	}
}

func TestUnionDisjointMatchesMerge(t *testing.T) {
	a := mustShape(t, orb.Polygon{rect(0, 0, 2, 2)})
	b := mustShape(t, orb.Polygon{rect(2, 0, 4, 2)})
	if got, want := Union(a, b).Area(), Merge(a, b).Area(); !approxEqual(got, want, tolerance) {
		t.Errorf("expected %f, got %f", want, got)
	}
}

// --- Projection tests ---

func TestAlbersOrigin(t *testing.T) {
	p := bcAlbers.Forward(orb.Point{-126, 45})
	if !approxEqual(p[0], 1000000, 1e-6) || !approxEqual(p[1], 0, 1e-6) {
		t.Errorf("expected (1000000,0), got (%f,%f)", p[0], p[1])
	}
}

func TestAlbersRoundTrip(t *testing.T) {
	for _, ll := range []orb.Point{{-130.5, 53.2}, {-123.1, 49.3}, {-126, 58}} {
		back := bcAlbers.Inverse(bcAlbers.Forward(ll))
		if !approxEqual(back[0], ll[0], 1e-9) || !approxEqual(back[1], ll[1], 1e-9) {
			t.Errorf("round trip of %v gave %v", ll, back)
		}
	}
}

func TestAlbersNorthIsUp(t *testing.T) {
	south := bcAlbers.Forward(orb.Point{-126, 50})
	north := bcAlbers.Forward(orb.Point{-126, 55})
	if north[1] <= south[1] {
		t.Errorf("expected northing to increase with latitude: %v %v", south, north)
	}
}

func TestProjectDoesNotMutate(t *testing.T) {
	p := orb.Polygon{rect(-127, 50, -126, 51)}
	out, err := Project(p, WGS84, BCAlbersCRS)
	if err != nil {
		t.Fatal(err)
	}
	if p[0][0] != (orb.Point{-127, 50}) {
		t.Errorf("input mutated: %v", p[0][0])
	}
	proj := out.(orb.Polygon)
	if proj[0][0][0] < 900000 || proj[0][0][0] > 1000000 {
		t.Errorf("unexpected easting %f", proj[0][0][0])
	}
}

func TestProjectMercatorRoundTrip(t *testing.T) {
	pt := orb.Point{-125.5, 52.25}
	m, err := Project(pt, WGS84, WebMercator)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Project(m, WebMercator, WGS84)
	if err != nil {
		t.Fatal(err)
	}
	b := back.(orb.Point)
	if !approxEqual(b[0], pt[0], 1e-9) || !approxEqual(b[1], pt[1], 1e-9) {
		t.Errorf("expected %v, got %v", pt, b)
	}
}

func TestParseCRS(t *testing.T) {
	for _, in := range []string{"EPSG:3005", "epsg:3005", "3005"} {
		got, err := ParseCRS(in)
		if err != nil || got != BCAlbersCRS {
			t.Errorf("ParseCRS(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCRS("EPSG:9999"); err == nil {
		t.Error("expected error for unsupported code")
	}
	if _, err := ParseCRS("ESRI:102001"); err == nil {
		t.Error("expected error for unsupported authority")
	}
}
