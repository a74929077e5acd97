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
	"strconv"
)

// CommonParams are the settings shared by all parts of a run.
type CommonParams struct {
	NumPhotons int

	// Psi is the aircraft heading [deg] as a deviation from geographic
	// north.
	Psi float64

	OutputPrefix string
}

// Validate checks the common settings.
func (c *CommonParams) Validate() error {
	if c.NumPhotons <= 0 {
		return &ConfigError{Param: "common.num_photons", Err: fmt.Errorf("%d should be >0", c.NumPhotons)}
	}
	if !(c.Psi >= 0 && c.Psi <= 360) {
		return &ConfigError{Param: "common.psi", Err: fmt.Errorf("%g should be within [0, 360]", c.Psi)}
	}
	return nil
}

// DiffuseParams are the physical and simulation settings of a diffuse
// (direction grid) run. The direct solar run uses the same settings for
// the medium.
type DiffuseParams struct {
	BinsPhi, BinsTheta int

	// ResolutionS is the exit zenith angle bin width [deg].
	ResolutionS int

	// Distance is the length of the contrail [m].
	Distance float64

	SpectralBandIndex int

	G                float64
	AbsorptionFactor float64
	ScatteringFactor float64
	Lambda           float64 // μm
	RadiusIncident   float64 // m
	RadiusDroplet    float64 // μm
	NumSca           int
	SigmaH, SigmaV   float64 // m
	SigmaS           float64 // m²
	NumIce           float64
	MaxScatterEvents int
}

// Validate checks the diffuse settings before any photon is traced.
func (d *DiffuseParams) Validate() error {
	ints := []int{d.BinsPhi, d.BinsTheta, d.NumSca}
	names := []string{"bins_phi", "bins_theta", "num_sca"}
	for i, v := range ints {
		if v <= 0 {
			return &ConfigError{Param: names[i], Err: fmt.Errorf("%d should be >0", v)}
		}
	}
	if err := CheckResolution(d.ResolutionS); err != nil {
		return err
	}
	if d.SpectralBandIndex < 0 {
		return &ConfigError{Param: "spectral_band_index", Err: fmt.Errorf("%d should be >=0", d.SpectralBandIndex)}
	}
	if !(d.Lambda > 0) {
		return &ConfigError{Param: "lambda", Err: fmt.Errorf("%g should be >0", d.Lambda)}
	}
	return nil
}

// Physical returns the parameters of the medium for spectral part k.
func (d *DiffuseParams) Physical(k Kind) PhysicalParameters {
	p := PhysicalParameters{
		Kind:           k,
		G:              d.G,
		Qabs:           d.AbsorptionFactor,
		Qsca:           d.ScatteringFactor,
		IncidentRadius: d.RadiusIncident,
		DropletRadius:  d.RadiusDroplet,
		NumIce:         d.NumIce,
		Length:         d.Distance,
		SigmaH:         d.SigmaH,
		SigmaV:         d.SigmaV,
		SigmaS:         d.SigmaS,
		NumSca:         d.NumSca,
		MaxEvents:      d.MaxScatterEvents,
	}
	if k == Terrestrial {
		p.SigmaS = 0
	}
	return p
}

// DirectParams give the sun position for the direct solar run.
type DirectParams struct {
	// Sza is the solar zenith angle and Phi0 the solar azimuth relative to
	// the flight direction [rad].
	Sza, Phi0 float64
}

// Validate checks the sun position.
func (d *DirectParams) Validate() error {
	if !(d.Sza >= 0 && d.Sza <= math.Pi) {
		return &ConfigError{Param: "solar_direct.sza", Err: fmt.Errorf("%g should be within [0, π]", d.Sza)}
	}
	if !(d.Phi0 >= 0 && d.Phi0 <= 2*math.Pi) {
		return &ConfigError{Param: "solar_direct.phi0", Err: fmt.Errorf("%g should be within [0, 2π]", d.Phi0)}
	}
	return nil
}

// param is one "// key = value" line of an output table header.
type param struct {
	key, value string
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func (c *CommonParams) params() []param {
	return []param{
		{"num_photons", strconv.Itoa(c.NumPhotons)},
		{"psi", ftoa(c.Psi)},
	}
}

func (d *DiffuseParams) params() []param {
	return []param{
		{"bins_phi", strconv.Itoa(d.BinsPhi)},
		{"bins_theta", strconv.Itoa(d.BinsTheta)},
		{"resolution_s", strconv.Itoa(d.ResolutionS)},
		{"distance", ftoa(d.Distance)},
		{"spectral_band_index", strconv.Itoa(d.SpectralBandIndex)},
		{"g", ftoa(d.G)},
		{"absorption_factor", ftoa(d.AbsorptionFactor)},
		{"scattering_factor", ftoa(d.ScatteringFactor)},
		{"lambda", ftoa(d.Lambda)},
		{"radius_incident", ftoa(d.RadiusIncident)},
		{"radius_droplet", ftoa(d.RadiusDroplet)},
		{"num_sca", strconv.Itoa(d.NumSca)},
		{"sigma_h", ftoa(d.SigmaH)},
		{"sigma_v", ftoa(d.SigmaV)},
		{"sigma_s", ftoa(d.SigmaS)},
		{"num_ice", ftoa(d.NumIce)},
	}
}

func (d *DirectParams) params() []param {
	return []param{
		{"sza", ftoa(d.Sza)},
		{"phi0", ftoa(d.Phi0)},
	}
}

// setParam assigns a header value to the matching field. Unknown keys are
// only recorded in t.Params.
func (t *Table) setParam(key, value string) error {
	var err error
	setInt := func(dst *int) { *dst, err = strconv.Atoi(value) }
	setFloat := func(dst *float64) { *dst, err = strconv.ParseFloat(value, 64) }
	switch key {
	case "num_photons":
		setInt(&t.Common.NumPhotons)
	case "psi":
		setFloat(&t.Common.Psi)
	case "bins_phi":
		setInt(&t.Diffuse.BinsPhi)
	case "bins_theta":
		setInt(&t.Diffuse.BinsTheta)
	case "resolution_s":
		setInt(&t.Diffuse.ResolutionS)
	case "distance":
		setFloat(&t.Diffuse.Distance)
	case "spectral_band_index":
		setInt(&t.Diffuse.SpectralBandIndex)
	case "g":
		setFloat(&t.Diffuse.G)
	case "absorption_factor":
		setFloat(&t.Diffuse.AbsorptionFactor)
	case "scattering_factor":
		setFloat(&t.Diffuse.ScatteringFactor)
	case "lambda":
		setFloat(&t.Diffuse.Lambda)
	case "radius_incident":
		setFloat(&t.Diffuse.RadiusIncident)
	case "radius_droplet":
		setFloat(&t.Diffuse.RadiusDroplet)
	case "num_sca":
		setInt(&t.Diffuse.NumSca)
	case "sigma_h":
		setFloat(&t.Diffuse.SigmaH)
	case "sigma_v":
		setFloat(&t.Diffuse.SigmaV)
	case "sigma_s":
		setFloat(&t.Diffuse.SigmaS)
	case "num_ice":
		setFloat(&t.Diffuse.NumIce)
	case "sza":
		setFloat(&t.Direct.Sza)
	case "phi0":
		setFloat(&t.Direct.Phi0)
	}
	if err != nil {
		return fmt.Errorf("parameter %s: %v", key, err)
	}
	t.Params[key] = value
	return nil
}
