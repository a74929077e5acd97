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

// Package forcing combines the photon statistics of contrail simulations
// with libRadtran radiances to calculate radiative forcing.
package forcing

import (
	"errors"
	"fmt"
	"math"

	"github.com/spatialmodel/rfcontrail"
	"github.com/spatialmodel/rfcontrail/libradtran"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrGridShape is returned when step results over different direction
	// grids are combined.
	ErrGridShape = errors.New("forcing: step results have different shapes")

	// ErrBandMismatch is returned when the solar direct and solar diffuse
	// outputs of a wavelength have different spectral bands.
	ErrBandMismatch = errors.New("forcing: solar direct and solar diffuse outputs must have the same spectral band index")

	// ErrFileCount is returned when the numbers of output files of the
	// three parts differ.
	ErrFileCount = errors.New("forcing: numbers of solar direct, solar diffuse and terrestrial diffuse files differ")

	// ErrDuplicateBand is returned when two outputs of the same part cover
	// the same spectral band.
	ErrDuplicateBand = errors.New("forcing: duplicate spectral_band_index")

	// ErrGrid is returned when a diffuse output does not hold one row for
	// each of its bins_phi x bins_theta directions.
	ErrGrid = errors.New("forcing: invalid direction grid")
)

// StepResult holds the upward scattered, downward scattered and absorbed
// power for each incident direction of one spectral part.
type StepResult struct {
	Up, Down, Abs []float64
}

func newStepResult(n int) *StepResult {
	return &StepResult{Up: make([]float64, n), Down: make([]float64, n), Abs: make([]float64, n)}
}

// Add adds o to s element by element.
func (s *StepResult) Add(o *StepResult) error {
	if len(s.Up) != len(o.Up) || len(s.Down) != len(o.Down) || len(s.Abs) != len(o.Abs) {
		return fmt.Errorf("%w: %d and %d directions", ErrGridShape, len(s.Up), len(o.Up))
	}
	floats.Add(s.Up, o.Up)
	floats.Add(s.Down, o.Down)
	floats.Add(s.Abs, o.Abs)
	return nil
}

// Clone returns a deep copy of s.
func (s *StepResult) Clone() *StepResult {
	c := newStepResult(0)
	c.Up = append(c.Up, s.Up...)
	c.Down = append(c.Down, s.Down...)
	c.Abs = append(c.Abs, s.Abs...)
	return c
}

// Sums returns the totals over all directions.
func (s *StepResult) Sums() (up, down, abs float64) {
	return floats.Sum(s.Up), floats.Sum(s.Down), floats.Sum(s.Abs)
}

// Forcing returns the sum over all directions of abs + down - up.
func (s *StepResult) Forcing() float64 {
	up, down, abs := s.Sums()
	return abs + down - up
}

// RadiativeForcing returns the solar, terrestrial and total radiative
// forcing of the given parts.
func RadiativeForcing(sol, terr *StepResult) (rfSol, rfTerr, rfTotal float64) {
	rfSol = sol.Forcing()
	rfTerr = terr.Forcing()
	return rfSol, rfTerr, rfSol + rfTerr
}

// Wavelength holds the simulation outputs of one spectral band together
// with the libRadtran output they are combined with.
type Wavelength struct {
	dir, diff, terr *rfcontrail.Table

	uvspec, twostr []*libradtran.Block

	// Psi is the aircraft heading [deg].
	Psi float64
}

// NewWavelength checks that the output tables belong together.
func NewWavelength(solarDirect, solarDiffuse, terrestrial *rfcontrail.Table, uvspec, twostr []*libradtran.Block) (*Wavelength, error) {
	tables := []*rfcontrail.Table{solarDirect, solarDiffuse, terrestrial}
	names := []string{rfcontrail.DirectTableName, rfcontrail.DiffuseTableName, rfcontrail.DiffuseTableName}
	for i, t := range tables {
		if t.Name != names[i] {
			return nil, fmt.Errorf("forcing: expected a %s table, got %q", names[i], t.Name)
		}
	}
	for _, t := range tables[1:] {
		d := t.Diffuse
		if d.BinsPhi <= 0 || d.BinsTheta <= 0 {
			return nil, &rfcontrail.ConfigError{Param: "bins_phi, bins_theta",
				Err: fmt.Errorf("%w: %d x %d in band %d", ErrGrid, d.BinsPhi, d.BinsTheta, d.SpectralBandIndex)}
		}
		if n := d.BinsPhi * d.BinsTheta; len(t.Rows) != n {
			return nil, &rfcontrail.ConfigError{Param: "bins_phi, bins_theta",
				Err: fmt.Errorf("%w: band %d has %d rows for %d directions", ErrGrid, d.SpectralBandIndex, len(t.Rows), n)}
		}
	}
	if solarDirect.Diffuse.SpectralBandIndex != solarDiffuse.Diffuse.SpectralBandIndex {
		return nil, &rfcontrail.ConfigError{Param: "spectral_band_index", Err: fmt.Errorf("%w: %d and %d", ErrBandMismatch,
			solarDirect.Diffuse.SpectralBandIndex, solarDiffuse.Diffuse.SpectralBandIndex)}
	}
	return &Wavelength{
		dir:    solarDirect,
		diff:   solarDiffuse,
		terr:   terrestrial,
		uvspec: uvspec,
		twostr: twostr,
		Psi:    solarDiffuse.Common.Psi,
	}, nil
}

// LambdaSolarDirect returns the wavelength [nm] of the direct output.
func (w *Wavelength) LambdaSolarDirect() float64 { return nanometers(w.dir.Diffuse.Lambda) }

// LambdaSolar returns the wavelength [nm] of the solar diffuse output.
func (w *Wavelength) LambdaSolar() float64 { return nanometers(w.diff.Diffuse.Lambda) }

// LambdaTerrestrial returns the wavelength [nm] of the terrestrial output.
func (w *Wavelength) LambdaTerrestrial() float64 { return nanometers(w.terr.Diffuse.Lambda) }

func nanometers(micrometers float64) float64 { return micrometers * 1e3 }

// Bands returns the spectral band indices of the solar and terrestrial
// outputs.
func (w *Wavelength) Bands() (solar, terrestrial int) {
	return w.diff.Diffuse.SpectralBandIndex, w.terr.Diffuse.SpectralBandIndex
}

func columns(t *rfcontrail.Table, names ...string) ([][]float64, error) {
	o := make([][]float64, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		o[i] = c
	}
	return o, nil
}

// SolarDirect calculates the power of the direct solar beam:
// up = num_scattered_up·f·Edir and abs = num_absorbed·f·Edir with f the
// correction factor. There is no downward part.
func (w *Wavelength) SolarDirect() (*StepResult, error) {
	b, err := libradtran.Find(w.uvspec, w.LambdaSolarDirect())
	if err != nil {
		return nil, fmt.Errorf("forcing: uvspec: %w", err)
	}
	c, err := columns(w.dir, rfcontrail.ColNumScatteredUp, rfcontrail.ColNumAbsorbed, rfcontrail.ColCorrectionFactor)
	if err != nil {
		return nil, err
	}
	up, abs, f := c[0], c[1], c[2]
	r := newStepResult(len(up))
	for i := range up {
		r.Up[i] = up[i] * b.Edir * f[i]
		r.Abs[i] = abs[i] * b.Edir * f[i]
	}
	return r, nil
}

// SolarDiffuse calculates the power of the diffuse solar radiation for
// each incident direction. The direct result is added to the direction
// closest to the sun position.
func (w *Wavelength) SolarDiffuse(direct *StepResult) (*StepResult, error) {
	b, err := libradtran.Find(w.uvspec, w.LambdaSolar())
	if err != nil {
		return nil, fmt.Errorf("forcing: uvspec: %w", err)
	}
	c, err := columns(w.diff, rfcontrail.ColTheta, rfcontrail.ColPhi, rfcontrail.ColNumScatteredUp,
		rfcontrail.ColNumAbs, rfcontrail.ColCorrectionFactor)
	if err != nil {
		return nil, err
	}
	theta, phi, up, abs, f := c[0], c[1], c[2], c[3], c[4]
	sun, err := columns(w.dir, rfcontrail.ColSza, rfcontrail.ColPhi0)
	if err != nil {
		return nil, err
	}
	if len(sun[0]) == 0 {
		return nil, fmt.Errorf("forcing: solar direct table has no rows")
	}
	sza, phi0 := sun[0][0], sun[1][0]

	dTheta := math.Pi / float64(w.diff.Diffuse.BinsTheta)
	dPhi := 2 * math.Pi / float64(w.diff.Diffuse.BinsPhi)
	r := newStepResult(len(theta))
	nearest, minDist := -1, math.MaxFloat64
	for i, t := range theta {
		o := math.Sin(t) * dPhi * dTheta
		rad, err := b.DiffuseRadiance(t, phi[i], w.Psi)
		if err != nil {
			return nil, err
		}
		td := t * 180 / math.Pi
		switch {
		case td > 0 && td <= 90:
			r.Up[i] = up[i] * f[i] * o * rad
		case td > 90 && td <= 180:
			r.Down[i] = up[i] * f[i] * o * rad
		}
		r.Abs[i] = abs[i] * f[i] * rad * o
		if d := math.Abs(sza-t) + math.Abs(phi0-phi[i]); d < minDist {
			nearest, minDist = i, d
		}
	}
	if nearest >= 0 && direct != nil && len(direct.Up) > 0 {
		r.Up[nearest] += direct.Up[0]
		r.Abs[nearest] += direct.Abs[0]
	}
	return r, nil
}

// TerrestrialDiffuse calculates the power of the terrestrial radiation.
// The upward and downward irradiances are spread evenly over the
// directions of the grid.
func (w *Wavelength) TerrestrialDiffuse() (*StepResult, error) {
	b, err := libradtran.Find(w.twostr, w.LambdaTerrestrial())
	if err != nil {
		return nil, fmt.Errorf("forcing: twostr: %w", err)
	}
	c, err := columns(w.terr, rfcontrail.ColTheta, rfcontrail.ColNumScatteredUp,
		rfcontrail.ColNumAbs, rfcontrail.ColCorrectionFactor)
	if err != nil {
		return nil, err
	}
	theta, up, abs, f := c[0], c[1], c[2], c[3]
	dTheta := math.Pi / float64(w.terr.Diffuse.BinsTheta)
	dPhi := 2 * math.Pi / float64(w.terr.Diffuse.BinsPhi)
	n := float64(w.terr.Diffuse.BinsPhi * w.terr.Diffuse.BinsTheta)
	r := newStepResult(len(theta))
	for i, t := range theta {
		o := math.Sin(t) * dPhi * dTheta
		td := t * 180 / math.Pi
		switch {
		case td > 0 && td <= 90:
			r.Up[i] = up[i] * f[i] * b.Edn / n * o
		case td > 90 && td <= 180:
			r.Down[i] = up[i] * f[i] * b.Eup / n * o
		}
		r.Abs[i] = abs[i] * f[i] * b.Edn / n * o
	}
	return r, nil
}
