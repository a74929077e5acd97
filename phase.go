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

	"gonum.org/v1/gonum/floats"
)

// PhaseSampler draws values from a discretized probability distribution
// by inverse transform sampling, interpolating linearly within the bin that
// brackets the draw. It holds no random state and may be shared between
// goroutines.
type PhaseSampler struct {
	dx float64

	// centers holds the bin centers padded with one extra bin on each side.
	centers []float64

	// cum[i] is the probability mass of the padded bins up to and including
	// bin i.
	cum []float64

	total float64
}

// NewPhaseSampler creates a sampler from uniformly spaced bin centers x
// and unnormalized probabilities p.
func NewPhaseSampler(x, p []float64) (*PhaseSampler, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("rfcontrail: phase function needs at least 2 bins, got %d", len(x))
	}
	if len(x) != len(p) {
		return nil, fmt.Errorf("rfcontrail: phase function has %d bin centers but %d probabilities", len(x), len(p))
	}
	for i, v := range p {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("rfcontrail: phase function probability %d is %g", i, v)
		}
	}
	s := &PhaseSampler{
		dx:      x[1] - x[0],
		centers: make([]float64, len(x)+2),
		cum:     make([]float64, len(x)+2),
	}
	if !(s.dx > 0) {
		return nil, fmt.Errorf("rfcontrail: phase function bin centers must increase")
	}
	copy(s.centers[1:], x)
	s.centers[0] = x[0] - s.dx
	s.centers[len(s.centers)-1] = x[len(x)-1] + s.dx

	mass := make([]float64, len(x)+2)
	copy(mass[1:], p)
	floats.CumSum(s.cum, mass)
	s.total = s.cum[len(s.cum)-1]
	if !(s.total > 0) {
		return nil, fmt.Errorf("rfcontrail: phase function has no probability mass")
	}
	return s, nil
}

// HenyeyGreenstein returns a sampler of the scattering angle [rad] for the
// Henyey-Greenstein phase function with asymmetry factor g, discretized into
// n bins over [0, π]. Each bin is weighted by the sine of its angle so that
// the result is distributed per unit angle rather than per unit solid angle.
func HenyeyGreenstein(g float64, n int) (*PhaseSampler, error) {
	if n < 2 {
		return nil, fmt.Errorf("rfcontrail: num_sca=%d but should be >=2", n)
	}
	x := make([]float64, n)
	p := make([]float64, n)
	dx := math.Pi / float64(n)
	for i := range x {
		x[i] = (float64(i) + 0.5) * dx
		mu := math.Cos(x[i])
		p[i] = math.Sin(x[i]) * (1 - g*g) / math.Pow(1+g*g-2*g*mu, 1.5) / 2
	}
	return NewPhaseSampler(x, p)
}

// Total returns the total probability mass.
func (s *PhaseSampler) Total() float64 { return s.total }

// Inverse returns the value at which the cumulative probability mass reaches
// m, where 0 <= m <= Total().
func (s *PhaseSampler) Inverse(m float64) (float64, error) {
	for i := 1; i < len(s.cum); i++ {
		if s.cum[i] >= m && s.cum[i] > s.cum[i-1] {
			slope := s.dx / (s.cum[i] - s.cum[i-1])
			intercept := s.centers[i] - slope*s.cum[i]
			return slope*m + intercept + s.dx/2, nil
		}
	}
	return math.NaN(), ErrOutOfRange
}

// Sample draws a value using src.
func (s *PhaseSampler) Sample(src Source) (float64, error) {
	return s.Inverse(src.Float64() * s.total)
}
