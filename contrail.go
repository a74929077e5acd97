/*
Copyright © 2024 the RFContrail authors.
This file is part of RFContrail.

RFContrail is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

RFContrail is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with RFContrail.  If not, see <http://www.gnu.org/licenses/>.
*/

package rfcontrail

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Fate is the way a photon random walk ends.
type Fate int

const (
	// Transmitted photons cross the contrail without interacting.
	Transmitted Fate = iota
	// Absorbed photons are absorbed by an ice crystal.
	Absorbed
	// Scattered photons leave the contrail after one or more scattering
	// events.
	Scattered
)

func (f Fate) String() string {
	switch f {
	case Transmitted:
		return "transmitted"
	case Absorbed:
		return "absorbed"
	case Scattered:
		return "scattered"
	default:
		return fmt.Sprintf("Fate(%d)", int(f))
	}
}

// Outcome is the result of a single photon random walk. Theta and Phi are
// the exit direction and are only meaningful for Scattered photons. Events
// is the number of scattering events before the walk ended.
type Outcome struct {
	Fate       Fate
	Theta, Phi float64
	Events     int
}

// Contrail traces photons through a contrail cross-section whose ice-crystal
// number density follows a bivariate normal distribution in the y-z plane.
// A Contrail is safe for concurrent use as long as each goroutine uses its
// own Source.
type Contrail struct {
	Params PhysicalParameters
	Phase  *PhaseSampler

	// Elements of the inverse covariance matrix.
	iyy, iyz, izz float64

	// norm is the normalization of the bivariate normal density.
	norm float64

	// beta converts the extinction integral into optical depth: the
	// extinction cross-section of one crystal times the number of crystals
	// per meter of contrail.
	beta float64

	// albedo is the single-scattering albedo Qsca/Qext.
	albedo float64
}

// NewContrail prepares a contrail for photon tracing.
func NewContrail(p PhysicalParameters) (*Contrail, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	c := &Contrail{Params: p}

	cov := mat.NewSymDense(2, []float64{
		p.SigmaH * p.SigmaH, p.SigmaS,
		p.SigmaS, p.SigmaV * p.SigmaV,
	})
	det := mat.Det(cov)
	var inv mat.Dense
	if err := inv.Inverse(cov); err != nil {
		return nil, &ConfigError{Param: "sigma_s", Err: fmt.Errorf("covariance matrix: %v", err)}
	}
	c.iyy, c.iyz, c.izz = inv.At(0, 0), inv.At(0, 1), inv.At(1, 1)
	c.norm = 1 / (2 * math.Pi * math.Sqrt(det))

	r := p.DropletRadius * 1e-6 // m
	c.beta = p.Qext() * math.Pi * r * r * p.NumIce / p.Length
	if q := p.Qext(); q > 0 {
		c.albedo = p.Qsca / q
	}

	var err error
	c.Phase, err = HenyeyGreenstein(p.G, p.NumSca)
	if err != nil {
		return nil, &ConfigError{Param: "num_sca", Err: err}
	}
	return c, nil
}

// Density returns the ice-crystal number density [m⁻³] at (y, z).
func (c *Contrail) Density(y, z float64) float64 {
	q := c.iyy*y*y + 2*c.iyz*y*z + c.izz*z*z
	return c.Params.NumIce / c.Params.Length * c.norm * math.Exp(-q/2)
}

// direction returns the unit vector for zenith angle theta and azimuth phi.
func direction(theta, phi float64) [3]float64 {
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	return [3]float64{st * cp, st * sp, ct}
}

// angles returns the zenith angle and azimuth [0, 2π) of unit vector d.
func angles(d [3]float64) (theta, phi float64) {
	z := math.Max(-1, math.Min(1, d[2]))
	theta = math.Acos(z)
	phi = math.Atan2(d[1], d[0])
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return theta, phi
}

// Iextinction returns the integral of the normalized ice-crystal density
// along the straight path of length s that starts at (y0, z0) and runs in
// direction (theta, phi). It has units of m⁻¹ and multiplying it by the
// number of crystals per meter and their extinction cross-section gives
// the optical depth of the path.
func (c *Contrail) Iextinction(y0, z0, theta, phi, s float64) float64 {
	d := direction(theta, phi)
	q := c.quadratic(y0, z0, d[1], d[2])
	return q.integral(s)
}

// pathQuadratic holds the quadratic form of the density exponent along a
// path, Q(t) = a t² + 2 b t + c.
type pathQuadratic struct {
	a, b, c float64
	norm    float64
}

func (c *Contrail) quadratic(y0, z0, dy, dz float64) pathQuadratic {
	return pathQuadratic{
		a:    c.iyy*dy*dy + 2*c.iyz*dy*dz + c.izz*dz*dz,
		b:    c.iyy*dy*y0 + c.iyz*(dy*z0+dz*y0) + c.izz*dz*z0,
		c:    c.iyy*y0*y0 + 2*c.iyz*y0*z0 + c.izz*z0*z0,
		norm: c.norm,
	}
}

// parallelLimit is the value of a below which the path is treated as
// parallel to the contrail axis.
const parallelLimit = 1e-14

// scale returns the prefactor and the erf arguments at t=0 and t=s.
func (q pathQuadratic) scale(s float64) (pre, lo, hi float64) {
	k := math.Sqrt(q.a / 2)
	shift := q.b / q.a
	pre = q.norm * math.Exp(-(q.c-q.b*shift)/2) * math.Sqrt(math.Pi/(2*q.a))
	return pre, k * shift, k * (s + shift)
}

func (q pathQuadratic) integral(s float64) float64 {
	if s <= 0 {
		return 0
	}
	if q.a < parallelLimit {
		return q.norm * math.Exp(-q.c/2) * s
	}
	pre, lo, hi := q.scale(s)
	return pre * erfDiff(lo, hi)
}

// invert returns the path length at which the integral reaches v, for
// 0 <= v < integral(s). The result is clamped to [0, s].
func (q pathQuadratic) invert(v, s float64) float64 {
	var t float64
	if q.a < parallelLimit {
		t = v / (q.norm * math.Exp(-q.c/2))
	} else {
		pre, lo, _ := q.scale(s)
		g := v / pre
		var u float64
		if lo >= 0 {
			u = erfcinv(math.Erfc(lo) - g)
		} else if w := math.Erfc(-lo) + g; w <= 1 {
			u = -erfcinv(w)
		} else {
			u = math.Erfinv(w - 1)
		}
		t = u/math.Sqrt(q.a/2) - q.b/q.a
	}
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if t > s {
		return s
	}
	return t
}

// erfcinv returns the inverse of math.Erfc for 0 < x <= 1. math.Erfcinv
// evaluates Erfinv(1-x), which has no precision left as x approaches 0, so
// the result is refined with Newton steps on Erfc.
func erfcinv(x float64) float64 {
	u := math.Erfcinv(x)
	if x < 1e-3 || math.IsInf(u, 0) {
		// erfc(u) ≈ exp(-u²)/(u√π) in the tail.
		l := -math.Log(x * math.SqrtPi)
		u = math.Sqrt(l - 0.5*math.Log(l))
	}
	for i := 0; i < 10; i++ {
		r := math.Erfc(u) - x
		if r == 0 {
			break
		}
		d := r * math.SqrtPi / 2 * math.Exp(u*u)
		u += d
		if math.Abs(d) <= 1e-15*math.Abs(u) {
			break
		}
	}
	return u
}

// erfDiff returns erf(hi) - erf(lo) for lo <= hi, using erfc in the tails.
func erfDiff(lo, hi float64) float64 {
	switch {
	case lo >= 0:
		return math.Erfc(lo) - math.Erfc(hi)
	case hi <= 0:
		return math.Erfc(-hi) - math.Erfc(-lo)
	default:
		return math.Erf(hi) - math.Erf(lo)
	}
}

// exitDistance returns the distance from p along d to the boundary of the
// medium: the incident cylinder or the ends of the contrail.
func (c *Contrail) exitDistance(p, d [3]float64) float64 {
	s := math.Inf(1)
	a := d[1]*d[1] + d[2]*d[2]
	if a > parallelLimit {
		r := c.Params.IncidentRadius
		b := p[1]*d[1] + p[2]*d[2]
		cc := p[1]*p[1] + p[2]*p[2] - r*r
		disc := b*b - a*cc
		if disc < 0 {
			disc = 0
		}
		s = (-b + math.Sqrt(disc)) / a
	}
	half := c.Params.Length / 2
	if d[0] > 0 {
		s = math.Min(s, (half-p[0])/d[0])
	} else if d[0] < 0 {
		s = math.Min(s, (-half-p[0])/d[0])
	}
	return math.Max(s, 0)
}

// Trace follows a single photon that arrives from direction (theta, phi)
// until it is absorbed or leaves the medium. Draws from src are consumed in
// a fixed order: the entry offset, then for each leg the free path and, if
// the photon interacts, the absorption test followed by the scattering
// angle and the scattering azimuth.
func (c *Contrail) Trace(theta, phi float64, src Source) (Outcome, error) {
	d := direction(theta, phi)
	r := c.Params.IncidentRadius

	// Enter through the incident cylinder at a uniform impact parameter
	// across the projected direction.
	b := (2*src.Float64() - 1) * r
	proj := math.Hypot(d[1], d[2])
	if proj*proj < parallelLimit {
		// Travelling along the axis, the photon never crosses the
		// cross-section.
		return Outcome{Fate: Transmitted}, nil
	}
	uy, uz := d[1]/proj, d[2]/proj
	back := math.Sqrt(r*r - b*b)
	p := [3]float64{0, -b*uz - back*uy, b*uy - back*uz}

	events := 0
	maxEvents := c.Params.maxEvents()
	for {
		s := c.exitDistance(p, d)
		q := c.quadratic(p[1], p[2], d[1], d[2])
		tau := c.beta * q.integral(s)
		free := -math.Log(1 - src.Float64())
		if free >= tau {
			if events == 0 {
				return Outcome{Fate: Transmitted}, nil
			}
			th, ph := angles(d)
			return Outcome{Fate: Scattered, Theta: th, Phi: ph, Events: events}, nil
		}
		t := q.invert(free/c.beta, s)
		for i := range p {
			p[i] += t * d[i]
		}
		if src.Float64() >= c.albedo {
			return Outcome{Fate: Absorbed, Events: events}, nil
		}
		if events >= maxEvents {
			return Outcome{}, fmt.Errorf("%w (%d)", ErrMaxEvents, maxEvents)
		}
		deflect, err := c.Phase.Sample(src)
		if err != nil {
			return Outcome{}, err
		}
		d = rotate(d, deflect, 2*math.Pi*src.Float64())
		events++
	}
}

// rotate turns unit vector d by polar angle theta and azimuth psi around
// itself.
func rotate(d [3]float64, theta, psi float64) [3]float64 {
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(psi)
	var o [3]float64
	den := math.Sqrt(1 - d[2]*d[2])
	if den < 1e-10 {
		sign := 1.0
		if d[2] < 0 {
			sign = -1
		}
		o = [3]float64{st * cp, st * sp, sign * ct}
	} else {
		o[0] = st*(d[0]*d[2]*cp-d[1]*sp)/den + d[0]*ct
		o[1] = st*(d[1]*d[2]*cp+d[0]*sp)/den + d[1]*ct
		o[2] = -st*cp*den + d[2]*ct
	}
	n := math.Sqrt(o[0]*o[0] + o[1]*o[1] + o[2]*o[2])
	for i := range o {
		o[i] /= n
	}
	return o
}
