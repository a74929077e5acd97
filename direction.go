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
)

// CheckResolution makes sure that resolution [deg] evenly divides 180°.
func CheckResolution(resolution int) error {
	if resolution <= 0 || 180%resolution != 0 {
		return &ConfigError{Param: "resolution_s", Err: fmt.Errorf("%w, got %d", ErrResolution, resolution)}
	}
	return nil
}

// CorrectionFactor converts photon counts for incident direction
// (theta, phi) into the "S_" quantities of the output tables. It is the
// width of the incident cylinder as seen from the photon direction divided
// by the number of photons.
func CorrectionFactor(incidentRadius, theta, phi float64, numPhotons int) float64 {
	alpha := math.Acos(math.Sin(theta) * math.Cos(phi))
	return 2 * incidentRadius * math.Sin(alpha) / float64(numPhotons)
}

// DirectionTask traces NumPhotons photons arriving from one direction.
type DirectionTask struct {
	Index      int
	Theta, Phi float64
	NumPhotons int

	// Resolution is the width [deg] of the exit zenith angle bins.
	Resolution int
}

// DirectionResult holds the statistics of one DirectionTask.
type DirectionResult struct {
	Index      int
	Theta, Phi float64
	NumPhotons int

	Absorbed, Transmitted int

	// Scattered counts photons that left the medium after scattering;
	// ScatteredUp and ScatteredDown split them by exit direction and
	// ScatteredMultiple counts those that scattered more than once.
	Scattered, ScatteredUp, ScatteredDown, ScatteredMultiple int

	// Bins holds the number of scattered photons per exit zenith angle bin.
	Bins []int

	// AvgScattering is the mean number of scattering events of the
	// scattered photons.
	AvgScattering float64
}

// Affected returns the number of photons that interacted with the medium.
func (r *DirectionResult) Affected() int { return r.NumPhotons - r.Transmitted }

// add accumulates one photon outcome. The average number of scattering
// events is updated incrementally.
func (r *DirectionResult) add(o Outcome, resolution int) error {
	switch o.Fate {
	case Absorbed:
		r.Absorbed++
	case Transmitted:
		r.Transmitted++
	case Scattered:
		if !(o.Theta >= 0 && o.Theta <= math.Pi) {
			return fmt.Errorf("%w: theta=%g after %d events", ErrThetaRange, o.Theta, o.Events)
		}
		j := bin(o.Theta, resolution, len(r.Bins))
		if o.Events > 1 {
			r.ScatteredMultiple++
		}
		r.Scattered++
		if o.Theta <= math.Pi/2 {
			r.ScatteredUp++
		} else {
			r.ScatteredDown++
		}
		r.Bins[j]++
		r.AvgScattering += (float64(o.Events) - r.AvgScattering) / float64(r.Scattered)
	default:
		return fmt.Errorf("rfcontrail: invalid photon fate %v", o.Fate)
	}
	return nil
}

// bin returns the index j of the bin (res·j, res·(j+1)] [deg] that theta
// [rad] falls in. Theta = 0 belongs to the first bin.
func bin(theta float64, resolution, n int) int {
	for j := 0; j < n; j++ {
		if theta <= degToRad(float64(resolution*(j+1))) {
			return j
		}
	}
	return n - 1
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// Run traces the photons of the task through c using src.
func (t DirectionTask) Run(c *Contrail, src Source) (*DirectionResult, error) {
	if err := CheckResolution(t.Resolution); err != nil {
		return nil, err
	}
	r := &DirectionResult{
		Index:      t.Index,
		Theta:      t.Theta,
		Phi:        t.Phi,
		NumPhotons: t.NumPhotons,
		Bins:       make([]int, 180/t.Resolution),
	}
	for i := 0; i < t.NumPhotons; i++ {
		o, err := c.Trace(t.Theta, t.Phi, src)
		if err != nil {
			return nil, fmt.Errorf("photon %d: %w", i, err)
		}
		if err := r.add(o, t.Resolution); err != nil {
			return nil, err
		}
	}
	return r, nil
}
