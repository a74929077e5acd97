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
	"errors"
	"fmt"
)

var (
	// ErrResolution is returned when the angular resolution of the output
	// histogram does not evenly divide 180°.
	ErrResolution = errors.New("rfcontrail: resolution_s must evenly divide 180")

	// ErrThetaRange is returned when a scattered photon leaves the medium
	// with a zenith angle outside of [0, π].
	ErrThetaRange = errors.New("rfcontrail: scattered photon theta outside of [0, π]")

	// ErrOutOfRange is returned by PhaseSampler when a draw lies beyond the
	// total probability mass.
	ErrOutOfRange = errors.New("rfcontrail: phase function draw beyond cumulative distribution")

	// ErrMaxEvents is returned when a photon scatters more often than
	// PhysicalParameters.MaxEvents allows.
	ErrMaxEvents = errors.New("rfcontrail: maximum number of scattering events exceeded")

	// ErrOutputExists is returned when an output file for the same spectral
	// band already exists and overwriting was not requested.
	ErrOutputExists = errors.New("rfcontrail: output file already exists")
)

// ConfigError is a problem with the run configuration. It is detected before
// any photons are traced.
type ConfigError struct {
	Param string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("rfcontrail: configuration: %v", e.Err)
	}
	return fmt.Sprintf("rfcontrail: configuration variable %s: %v", e.Param, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// WorkerError is a fault in a direction task running on the worker pool.
// It is fatal to the whole run.
type WorkerError struct {
	Index      int
	Theta, Phi float64
	Err        error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("rfcontrail: direction %d (theta=%g, phi=%g): %v", e.Index, e.Theta, e.Phi, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }

// IOError is a problem reading or writing a file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("rfcontrail: %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
