package geo

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// CRS names a coordinate reference system as "EPSG:<code>".
type CRS string

const (
	WGS84       CRS = "EPSG:4326"
	WebMercator CRS = "EPSG:3857"
	BCAlbersCRS CRS = "EPSG:3005"
)

type projection struct {
	toWGS84   orb.Projection
	fromWGS84 orb.Projection
}

var bcAlbers = BCAlbers()

var projections = map[CRS]projection{
	WGS84: {
		toWGS84:   func(p orb.Point) orb.Point { return p },
		fromWGS84: func(p orb.Point) orb.Point { return p },
	},
	WebMercator: {
		toWGS84:   project.Mercator.ToWGS84,
		fromWGS84: project.WGS84.ToMercator,
	},
	BCAlbersCRS: {
		toWGS84:   bcAlbers.Inverse,
		fromWGS84: bcAlbers.Forward,
	},
}

// ParseCRS accepts "EPSG:3005", "epsg:3005" or "3005".
func ParseCRS(s string) (CRS, error) {
	s = strings.TrimSpace(s)
	code := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if !strings.EqualFold(s[:i], "epsg") {
			return "", fmt.Errorf("unsupported authority in %q", s)
		}
		code = s[i+1:]
	}
	crs := CRS("EPSG:" + code)
	if _, ok := projections[crs]; !ok {
		return "", fmt.Errorf("unsupported CRS %q", s)
	}
	return crs, nil
}

// Transform returns the projection converting points from one CRS to
// another through WGS84.
func Transform(from, to CRS) (orb.Projection, error) {
	src, ok := projections[from]
	if !ok {
		return nil, fmt.Errorf("unsupported source CRS %q", from)
	}
	dst, ok := projections[to]
	if !ok {
		return nil, fmt.Errorf("unsupported target CRS %q", to)
	}
	return func(p orb.Point) orb.Point {
		return dst.fromWGS84(src.toWGS84(p))
	}, nil
}

// Project returns a projected copy of g. The input is not modified.
func Project(g orb.Geometry, from, to CRS) (orb.Geometry, error) {
	if g == nil {
		return nil, fmt.Errorf("nil geometry")
	}
	if from == to {
		return g, nil
	}
	proj, err := Transform(from, to)
	if err != nil {
		return nil, err
	}
	return project.Geometry(orb.Clone(g), proj), nil
}
