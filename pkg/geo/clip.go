package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// clipToConvex clips the subject polygon to a convex clip polygon using
// the Sutherland-Hodgman algorithm. The clipper must be counterclockwise.
// Returns nil when the intersection is empty.
func clipToConvex(subject, clipper []orb.Point) []orb.Point {
	if len(subject) < 3 || len(clipper) < 3 {
		return nil
	}
	output := make([]orb.Point, len(subject))
	copy(output, subject)

	clipN := len(clipper)
	for i := 0; i < clipN; i++ {
		if len(output) == 0 {
			return nil
		}
		edgeStart := clipper[i]
		edgeEnd := clipper[(i+1)%clipN]
		input := output
		output = make([]orb.Point, 0, len(input)+2)

		for j := 0; j < len(input); j++ {
			current := input[j]
			next := input[(j+1)%len(input)]
			curInside := isInsideEdge(current, edgeStart, edgeEnd)
			nextInside := isInsideEdge(next, edgeStart, edgeEnd)

			if curInside && nextInside {
				output = append(output, next)
			} else if curInside && !nextInside {
				if ix, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					output = append(output, ix)
				}
			} else if !curInside && nextInside {
				if ix, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					output = append(output, ix)
				}
				output = append(output, next)
			}
		}
	}
	output = openRing(output)
	if len(output) < 3 {
		return nil
	}
	return output
}

// isInsideEdge returns true if the point is on the inside (left) of the
// directed edge from edgeStart to edgeEnd.
func isInsideEdge(p, edgeStart, edgeEnd orb.Point) bool {
	return (edgeEnd[0]-edgeStart[0])*(p[1]-edgeStart[1])-
		(edgeEnd[1]-edgeStart[1])*(p[0]-edgeStart[0]) >= 0
}

// lineIntersection returns the intersection point of lines (p1→p2) and (p3→p4).
func lineIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	d := (p1[0]-p2[0])*(p3[1]-p4[1]) - (p1[1]-p2[1])*(p3[0]-p4[0])
	if math.Abs(d) < 1e-18 {
		return orb.Point{}, false
	}
	t := ((p1[0]-p3[0])*(p3[1]-p4[1]) - (p1[1]-p3[1])*(p3[0]-p4[0])) / d
	return orb.Point{
		p1[0] + t*(p2[0]-p1[0]),
		p1[1] + t*(p2[1]-p1[1]),
	}, true
}
