package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// openRing returns the ring's vertices without the closing point and without
// consecutive duplicates.
func openRing(r orb.Ring) []orb.Point {
	pts := make([]orb.Point, 0, len(r))
	for _, p := range r {
		if len(pts) > 0 && pts[len(pts)-1].Equal(p) {
			continue
		}
		pts = append(pts, p)
	}
	if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// closeRing returns pts as a closed orb.Ring.
func closeRing(pts []orb.Point) orb.Ring {
	r := make(orb.Ring, 0, len(pts)+1)
	r = append(r, pts...)
	if len(pts) > 0 {
		r = append(r, pts[0])
	}
	return r
}

// signedArea returns the signed area using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func signedArea(pts []orb.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += pts[i][0] * pts[j][1]
		area -= pts[j][0] * pts[i][1]
	}
	return area / 2
}

// ensureCCW returns pts in counterclockwise order.
func ensureCCW(pts []orb.Point) []orb.Point {
	if signedArea(pts) >= 0 {
		return pts
	}
	n := len(pts)
	rev := make([]orb.Point, n)
	for i, v := range pts {
		rev[n-1-i] = v
	}
	return rev
}

// boundOf returns the bounding box of pts.
func boundOf(pts []orb.Point) orb.Bound {
	if len(pts) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b = b.Extend(p)
	}
	return b
}

// cross returns the z component of (b-a) x (c-b).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
}

// nearlyCollinear reports whether a, b, c lie on one line within a tolerance
// relative to the edge lengths.
func nearlyCollinear(a, b, c orb.Point) bool {
	ab := math.Hypot(b[0]-a[0], b[1]-a[1])
	bc := math.Hypot(c[0]-b[0], c[1]-b[1])
	return math.Abs(cross(a, b, c)) <= 1e-10*ab*bc
}
