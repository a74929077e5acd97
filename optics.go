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

	"github.com/BurntSushi/toml"
	"github.com/ctessum/unit"
)

// Coefficients are the optical properties of the ice crystals in one
// spectral band.
type Coefficients struct {
	// Lambda is the wavelength [μm].
	Lambda float64

	G          float64
	Qabs, Qsca float64
}

// Qext returns the extinction efficiency.
func (c Coefficients) Qext() float64 { return c.Qabs + c.Qsca }

// OpticsModel provides the optical properties of ice crystals with
// maximum dimension dMax [μm].
type OpticsModel interface {
	Kind() Kind

	// Lambda returns the central wavelength [μm] of a spectral band.
	Lambda(band int) (float64, error)

	// Mixed returns the properties of the default mixture of crystal
	// shapes.
	Mixed(band int, dMax float64) (Coefficients, error)

	// Shape returns the properties of crystals that all have shape s.
	Shape(band int, dMax float64, s Shape) (Coefficients, error)
}

// Shape is an ice crystal habit.
type Shape int

// Crystal shapes.
const (
	Plate Shape = iota
	Column
	HollowColumn
	Rosette4
	Rosette6
	Aggregate
	numShapes
)

var shapeNames = [numShapes]string{"plate", "column", "hollow_column", "rosette4", "rosette6", "aggregate"}

func (s Shape) String() string {
	if s < 0 || s >= numShapes {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape converts a shape name into a Shape.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("rfcontrail: invalid crystal shape %q", name)
}

// Polynomial coefficients in ln(dMax) of the area-equivalent (da) and
// volume-equivalent (dv) diameters, by shape.
var (
	daCoef = [5][numShapes]float64{
		{0.43773, 0.33401, 0.33401, 0.15909, 0.14195, -0.47737},
		{0.75497, 0.36477, 0.36477, 0.84308, 0.84394, 0.10026e1},
		{0.19033e-1, 0.30855, 0.30855, 0.70161e-2, 0.72125e-2, -0.10030e-2},
		{0.35191e-3, -0.55631e-1, -0.55631e-1, -0.11003e-2, -0.11219e-2, 0.15166e-3},
		{-0.70782e-4, 0.30162e-2, 0.30162e-2, 0.45161e-4, 0.45819e-4, -0.78433e-5},
	}
	dvCoef = [5][numShapes]float64{
		{0.31228, 0.30581, 0.24568, -0.97940e-1, -0.10318, -0.70160},
		{0.80874, 0.26252, 0.26202, 0.85683, 0.86290, 0.99215},
		{0.29287e-2, 0.35458, 0.35479, 0.29483e-2, 0.70665e-3, 0.29322e-2},
		{-0.44378e-3, -0.63202e-1, -0.63236e-1, -0.14341e-2, -0.11055e-2, -0.40492e-3},
		{0.23109e-4, 0.33755e-2, 0.33773e-2, 0.74627e-4, 0.57906e-4, 0.18841e-4},
	}
)

func diameter(coef *[5][numShapes]float64, dMax float64, s Shape) float64 {
	l := math.Log(dMax)
	var v, p float64 = 0, 1
	for n := 0; n < 5; n++ {
		v += coef[n][s] * p
		p *= l
	}
	return math.Exp(v)
}

// mixture returns the fraction of each shape for crystals of maximum
// dimension dMax [μm].
func mixture(dMax float64) [numShapes]float64 {
	if dMax < 70 {
		return [numShapes]float64{0.25, 0, 0.25, 0, 0.5, 0}
	}
	return [numShapes]float64{0.2, 0, 0.2, 0, 0.3, 0.3}
}

// effectiveDiameter returns dv³/da² of the shape mixture.
func effectiveDiameter(dMax float64) float64 {
	var num, den float64
	for s, f := range mixture(dMax) {
		if f == 0 {
			continue
		}
		num += f * math.Pow(diameter(&dvCoef, dMax, Shape(s)), 3)
		den += f * math.Pow(diameter(&daCoef, dMax, Shape(s)), 2)
	}
	return num / den
}

// ShapeCoefficients are tabulated properties of one crystal shape.
type ShapeCoefficients struct {
	Qext float64 `toml:"qext"`
	Qabs float64 `toml:"qabs"`
	G    float64 `toml:"g"`
}

// Band is one entry of a BandTable.
type Band struct {
	Index int `toml:"index"`

	// Lambda is the central wavelength, [μm] once the table is loaded.
	Lambda float64 `toml:"lambda"`

	// Shape holds tabulated solar properties by shape name.
	Shape map[string]ShapeCoefficients `toml:"shape"`

	// Eta, Xi and Zeta are the coefficients of the rational fits of the
	// terrestrial extinction and absorption efficiencies over the effective
	// diameter and of the asymmetry factor over dMax.
	Eta  []float64 `toml:"eta"`
	Xi   []float64 `toml:"xi"`
	Zeta []float64 `toml:"zeta"`
}

// BandTable is an OpticsModel read from a TOML file.
type BandTable struct {
	KindName string `toml:"kind"`

	// LambdaUnit is the unit of the band wavelengths, "um" if empty.
	// Wavenumbers such as "cm-1" and frequencies are converted into
	// wavelengths.
	LambdaUnit string `toml:"lambda_unit"`

	Bands []Band `toml:"band"`

	kind  Kind
	index map[int]*Band
}

// LoadBandTable reads a band table from a TOML file.
func LoadBandTable(path string) (*BandTable, error) {
	t := new(BandTable)
	if _, err := toml.DecodeFile(path, t); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	if err := t.init(); err != nil {
		return nil, &ConfigError{Param: "optics.band_table", Err: fmt.Errorf("%s: %v", path, err)}
	}
	return t, nil
}

func (t *BandTable) init() error {
	var err error
	if t.kind, err = ParseKind(t.KindName); err != nil {
		return err
	}
	var lu *unit.Unit
	if t.LambdaUnit != "" {
		if lu, err = ParseUnit(t.LambdaUnit); err != nil {
			return err
		}
		if err = CheckWavelengthUnit(lu); err != nil {
			return fmt.Errorf("lambda_unit: %v", err)
		}
	}
	t.index = make(map[int]*Band, len(t.Bands))
	for i := range t.Bands {
		b := &t.Bands[i]
		if lu != nil {
			if b.Lambda, err = ConvertWavelength(b.Lambda, lu, Micrometer); err != nil {
				return fmt.Errorf("band %d: lambda_unit: %v", b.Index, err)
			}
		}
		if _, ok := t.index[b.Index]; ok {
			return fmt.Errorf("band %d is listed more than once", b.Index)
		}
		if t.kind == Terrestrial && (len(b.Eta) != 3 || len(b.Xi) != 4 || len(b.Zeta) != 4) {
			return fmt.Errorf("terrestrial band %d needs 3 eta, 4 xi and 4 zeta coefficients", b.Index)
		}
		for name := range b.Shape {
			if _, err := ParseShape(name); err != nil {
				return fmt.Errorf("band %d: %v", b.Index, err)
			}
		}
		t.index[b.Index] = b
	}
	return nil
}

// Kind returns the spectral part the table describes.
func (t *BandTable) Kind() Kind { return t.kind }

func (t *BandTable) band(i int) (*Band, error) {
	b, ok := t.index[i]
	if !ok {
		return nil, fmt.Errorf("rfcontrail: %s band table has no band %d", t.kind, i)
	}
	return b, nil
}

// Lambda implements OpticsModel.
func (t *BandTable) Lambda(band int) (float64, error) {
	b, err := t.band(band)
	if err != nil {
		return math.NaN(), err
	}
	return b.Lambda, nil
}

func (b *Band) shape(s Shape) (ShapeCoefficients, error) {
	c, ok := b.Shape[s.String()]
	if !ok {
		return c, fmt.Errorf("rfcontrail: band %d has no coefficients for %s crystals", b.Index, s)
	}
	return c, nil
}

func rational(a0, a1, b1, b2, x float64) float64 {
	return (a0 + a1/x) / (1 + b1/x + b2/(x*x))
}

func (b *Band) terrestrial(dMax float64) Coefficients {
	de := effectiveDiameter(dMax)
	qext := rational(2, b.Eta[0], b.Eta[1], b.Eta[2], de)
	qabs := rational(b.Xi[0], b.Xi[1], b.Xi[2], b.Xi[3], de)
	return Coefficients{
		Lambda: b.Lambda,
		G:      rational(b.Zeta[0], b.Zeta[1], b.Zeta[2], b.Zeta[3], dMax),
		Qabs:   qabs,
		Qsca:   qext - qabs,
	}
}

// Mixed implements OpticsModel. Solar properties are averaged over the
// shapes weighted by their projected area, and the asymmetry factor by
// their scattering cross-section.
func (t *BandTable) Mixed(band int, dMax float64) (Coefficients, error) {
	b, err := t.band(band)
	if err != nil {
		return Coefficients{}, err
	}
	if !(dMax > 0) {
		return Coefficients{}, fmt.Errorf("rfcontrail: maximum crystal dimension %g should be >0", dMax)
	}
	if t.kind == Terrestrial {
		return b.terrestrial(dMax), nil
	}
	var w, qext, qabs, wsca, g float64
	for s, f := range mixture(dMax) {
		if f == 0 {
			continue
		}
		c, err := b.shape(Shape(s))
		if err != nil {
			return Coefficients{}, err
		}
		a := f * math.Pow(diameter(&daCoef, dMax, Shape(s)), 2)
		w += a
		qext += a * c.Qext
		qabs += a * c.Qabs
		wsca += a * (c.Qext - c.Qabs)
		g += a * (c.Qext - c.Qabs) * c.G
	}
	o := Coefficients{Lambda: b.Lambda, Qabs: qabs / w, Qsca: (qext - qabs) / w}
	if wsca > 0 {
		o.G = g / wsca
	}
	return o, nil
}

// Shape implements OpticsModel. Terrestrial tables have no shape
// dependence and return the mixture.
func (t *BandTable) Shape(band int, dMax float64, s Shape) (Coefficients, error) {
	if t.kind == Terrestrial {
		return t.Mixed(band, dMax)
	}
	b, err := t.band(band)
	if err != nil {
		return Coefficients{}, err
	}
	c, err := b.shape(s)
	if err != nil {
		return Coefficients{}, err
	}
	return Coefficients{Lambda: b.Lambda, G: c.G, Qabs: c.Qabs, Qsca: c.Qext - c.Qabs}, nil
}
