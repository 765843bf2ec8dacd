package geo

import (
	"errors"

	"github.com/paulmach/orb"
)

// ErrNotSimple is returned when a ring cannot be triangulated, which happens
// for self-intersecting rings.
var ErrNotSimple = errors.New("ring is not simple")

// triangulate splits a simple ring into counterclockwise triangles by ear
// clipping. Degenerate rings (fewer than three distinct vertices or zero
// area) yield no triangles.
func triangulate(r orb.Ring) ([][]orb.Point, error) {
	pts := openRing(r)
	if len(pts) < 3 || signedArea(pts) == 0 {
		return nil, nil
	}
	pts = ensureCCW(pts)

	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}

	tris := make([][]orb.Point, 0, len(pts)-2)
	for len(idx) > 3 {
		n := len(idx)
		clipped := false
		for i := 0; i < n; i++ {
			a, b, c := pts[idx[(i+n-1)%n]], pts[idx[i]], pts[idx[(i+1)%n]]

			// Collinear vertices contribute no area; drop them.
			if nearlyCollinear(a, b, c) {
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
			if cross(a, b, c) < 0 {
				continue // reflex
			}
			if containsOther(pts, idx, a, b, c) {
				continue
			}
			tris = append(tris, []orb.Point{a, b, c})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, ErrNotSimple
		}
	}

	a, b, c := pts[idx[0]], pts[idx[1]], pts[idx[2]]
	if cross(a, b, c) > 0 && !nearlyCollinear(a, b, c) {
		tris = append(tris, []orb.Point{a, b, c})
	}
	return tris, nil
}

// containsOther reports whether any remaining vertex other than a, b, c lies
// inside or on the triangle abc.
func containsOther(pts []orb.Point, idx []int, a, b, c orb.Point) bool {
	for _, k := range idx {
		p := pts[k]
		if p.Equal(a) || p.Equal(b) || p.Equal(c) {
			continue
		}
		if isInsideEdge(p, a, b) && isInsideEdge(p, b, c) && isInsideEdge(p, c, a) {
			return true
		}
	}
	return false
}
