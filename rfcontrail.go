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

// Package rfcontrail is a Monte Carlo radiative transfer model for aircraft
// contrails. Photons are traced through a Gaussian ice-crystal
// cross-section, and their absorption and scattering statistics are
// tabulated for each incident direction so that they can later be combined
// with spectral radiance fields to calculate radiative forcing.
//
// Coordinates follow the aircraft: x points along the flight track (the
// contrail axis), y is horizontal across the track and z points up. A
// direction is given by a zenith angle theta measured from +z and an azimuth
// phi measured from +x, so theta <= π/2 means the photon travels upward.
package rfcontrail

import (
	"fmt"
	"math"
)

// Version gives the version number.
const Version = "1.0.0"

// Kind distinguishes the part of the spectrum that a simulation covers.
type Kind int

const (
	// Solar is short-wave radiation from the sun.
	Solar Kind = iota
	// Terrestrial is long-wave radiation emitted by the earth and atmosphere.
	Terrestrial
)

func (k Kind) String() string {
	switch k {
	case Solar:
		return "solar"
	case Terrestrial:
		return "terrestrial"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts "solar" or "terrestrial" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "solar", "sol":
		return Solar, nil
	case "terrestrial", "terr":
		return Terrestrial, nil
	}
	return 0, fmt.Errorf("rfcontrail: invalid spectral part %q; should be solar or terrestrial", s)
}

// DefaultMaxEvents is the default limit on scattering events in a single
// photon random walk.
const DefaultMaxEvents = 10000

// PhysicalParameters holds the properties of a contrail that the photon
// tracer needs. It is created once per run and only read afterwards, so it
// can be shared between workers.
type PhysicalParameters struct {
	Kind Kind

	// G is the asymmetry factor of the phase function.
	G float64

	// Qabs and Qsca are the absorption and scattering efficiencies.
	Qabs, Qsca float64

	// IncidentRadius is the radius of the cylinder that photons enter
	// through [m]. It also bounds the medium.
	IncidentRadius float64

	// DropletRadius is the effective ice-crystal radius [μm].
	DropletRadius float64

	// NumIce is the total number of ice crystals in the contrail.
	NumIce float64

	// Length is the length of the contrail along the flight track [m].
	Length float64

	// SigmaH and SigmaV are the horizontal and vertical standard deviations
	// of the ice-crystal distribution [m]; SigmaS is its covariance [m²].
	SigmaH, SigmaV, SigmaS float64

	// NumSca is the number of angular bins of the scattering phase function.
	NumSca int

	// MaxEvents limits the number of scattering events per photon.
	// Zero means DefaultMaxEvents.
	MaxEvents int
}

// Qext returns the extinction efficiency.
func (p *PhysicalParameters) Qext() float64 { return p.Qabs + p.Qsca }

// Check makes sure the parameters describe a valid medium.
func (p *PhysicalParameters) Check() error {
	vars := []float64{p.IncidentRadius, p.DropletRadius, p.Length, p.SigmaH, p.SigmaV}
	names := []string{"radius_incident", "radius_droplet", "distance", "sigma_h", "sigma_v"}
	for i, v := range vars {
		if !(v > 0) {
			return &ConfigError{Param: names[i], Err: fmt.Errorf("%s=%g but should be >0", names[i], v)}
		}
	}
	if p.NumIce < 0 || math.IsNaN(p.NumIce) {
		return &ConfigError{Param: "num_ice", Err: fmt.Errorf("num_ice=%g but should be >=0", p.NumIce)}
	}
	if p.Qabs < 0 || p.Qsca < 0 || math.IsNaN(p.Qabs) || math.IsNaN(p.Qsca) {
		return &ConfigError{Param: "absorption_factor", Err: fmt.Errorf("efficiencies must be >=0 (Qabs=%g, Qsca=%g)", p.Qabs, p.Qsca)}
	}
	if !(p.G > -1 && p.G < 1) {
		return &ConfigError{Param: "g", Err: fmt.Errorf("g=%g but should be within (-1, 1)", p.G)}
	}
	if p.NumSca < 2 {
		return &ConfigError{Param: "num_sca", Err: fmt.Errorf("num_sca=%d but should be >=2", p.NumSca)}
	}
	if p.SigmaH*p.SigmaH*p.SigmaV*p.SigmaV-p.SigmaS*p.SigmaS <= 0 {
		return &ConfigError{Param: "sigma_s", Err: fmt.Errorf("sigma_s=%g is too large for sigma_h=%g and sigma_v=%g", p.SigmaS, p.SigmaH, p.SigmaV)}
	}
	if p.Kind == Terrestrial && p.SigmaS != 0 {
		return &ConfigError{Param: "sigma_s", Err: fmt.Errorf("sigma_s must be 0 for terrestrial radiation")}
	}
	return nil
}

func (p *PhysicalParameters) maxEvents() int {
	if p.MaxEvents <= 0 {
		return DefaultMaxEvents
	}
	return p.MaxEvents
}
