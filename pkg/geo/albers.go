package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Albers is an Albers equal-area conic projection on an ellipsoid.
// Angles are in degrees, distances in metres.
type Albers struct {
	SemiMajor       float64
	InvFlattening   float64
	StdParallel1    float64
	StdParallel2    float64
	LatOrigin       float64
	CentralMeridian float64
	FalseEasting    float64
	FalseNorthing   float64

	e, e2, n, c, rho0, lon0 float64
}

// BCAlbers returns the NAD83 / BC Albers projection (EPSG:3005).
func BCAlbers() *Albers {
	return NewAlbers(Albers{
		SemiMajor:       6378137,
		InvFlattening:   298.257222101,
		StdParallel1:    50,
		StdParallel2:    58.5,
		LatOrigin:       45,
		CentralMeridian: -126,
		FalseEasting:    1000000,
		FalseNorthing:   0,
	})
}

// NewAlbers precomputes the projection constants for p.
func NewAlbers(p Albers) *Albers {
	f := 1 / p.InvFlattening
	p.e2 = 2*f - f*f
	p.e = math.Sqrt(p.e2)

	phi1, phi2, phi0 := rad(p.StdParallel1), rad(p.StdParallel2), rad(p.LatOrigin)
	m1, m2 := p.m(phi1), p.m(phi2)
	q1, q2, q0 := p.q(phi1), p.q(phi2), p.q(phi0)

	p.n = (m1*m1 - m2*m2) / (q2 - q1)
	p.c = m1*m1 + p.n*q1
	p.rho0 = p.SemiMajor * math.Sqrt(p.c-p.n*q0) / p.n
	p.lon0 = rad(p.CentralMeridian)
	return &p
}

// Forward projects a lon/lat point to easting/northing.
func (p *Albers) Forward(pt orb.Point) orb.Point {
	lon, lat := rad(pt[0]), rad(pt[1])
	rho := p.SemiMajor * math.Sqrt(p.c-p.n*p.q(lat)) / p.n
	theta := p.n * (lon - p.lon0)
	return orb.Point{
		p.FalseEasting + rho*math.Sin(theta),
		p.FalseNorthing + p.rho0 - rho*math.Cos(theta),
	}
}

// Inverse converts easting/northing back to lon/lat.
func (p *Albers) Inverse(pt orb.Point) orb.Point {
	x := pt[0] - p.FalseEasting
	y := p.rho0 - (pt[1] - p.FalseNorthing)
	rho := math.Hypot(x, y)
	theta := math.Atan2(x, y)

	q := (p.c - rho*rho*p.n*p.n/(p.SemiMajor*p.SemiMajor)) / p.n
	phi := math.Asin(clamp(q/2, -1, 1))
	for i := 0; i < 15; i++ {
		sin := math.Sin(phi)
		esin := p.e * sin
		den := 1 - esin*esin
		delta := den * den / (2 * math.Cos(phi)) *
			(q/(1-p.e2) - sin/den + math.Log((1-esin)/(1+esin))/(2*p.e))
		phi += delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return orb.Point{deg(p.lon0 + theta/p.n), deg(phi)}
}

func (p *Albers) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-p.e2*s*s)
}

func (p *Albers) q(phi float64) float64 {
	s := math.Sin(phi)
	es := p.e * s
	return (1 - p.e2) * (s/(1-es*es) - math.Log((1-es)/(1+es))/(2*p.e))
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
