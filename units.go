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
	"regexp"
	"strconv"
	"strings"

	"github.com/ctessum/unit"
)

// Units of the wavelengths in band tables and in libRadtran output.
var (
	Micrometer = unit.New(1e-6, unit.Meter)
	Nanometer  = unit.New(1e-9, unit.Meter)
)

var perMeter = unit.Dimensions{unit.LengthDim: -1}

// speedOfLight [m/s] converts frequencies into wavelengths.
const speedOfLight = 299792458.0

var baseUnits = map[string]*unit.Unit{
	"m":  unit.New(1, unit.Meter),
	"s":  unit.New(1, unit.Second),
	"Hz": unit.New(1, unit.Herz),
	"K":  unit.New(1, unit.Kelvin),
	"g":  unit.New(1e-3, unit.Kilogram),
	"W":  unit.New(1, unit.Watt),
	"J":  unit.New(1, unit.Joule),
	"sr": unit.New(1, unit.Dimless),
}

var unitPrefixes = map[string]float64{
	"k": 1e3,
	"c": 1e-2,
	"m": 1e-3,
	"u": 1e-6,
	"μ": 1e-6,
	"n": 1e-9,
}

var unitAtom = regexp.MustCompile(`^([^0-9-]+)(-?[0-9]+)?$`)

// ParseUnit parses a product of unit symbols separated by spaces, such as
// "nm", "cm-1" or "W m-2 nm-1". Each symbol may carry an SI prefix and an
// integer exponent.
func ParseUnit(s string) (*unit.Unit, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("rfcontrail: empty unit")
	}
	o := unit.New(1, unit.Dimless)
	for _, f := range fields {
		m := unitAtom.FindStringSubmatch(f)
		if m == nil {
			return nil, fmt.Errorf("rfcontrail: invalid unit %q", f)
		}
		base, err := symbol(m[1])
		if err != nil {
			return nil, err
		}
		exp := 1
		if m[2] != "" {
			if exp, err = strconv.Atoi(m[2]); err != nil || exp == 0 {
				return nil, fmt.Errorf("rfcontrail: invalid exponent in unit %q", f)
			}
		}
		for i := 0; i < exp; i++ {
			o.Mul(base)
		}
		for i := 0; i > exp; i-- {
			o.Div(base)
		}
	}
	return o, nil
}

func symbol(s string) (*unit.Unit, error) {
	if u, ok := baseUnits[s]; ok {
		return u, nil
	}
	for p, scale := range unitPrefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		if u, ok := baseUnits[strings.TrimPrefix(s, p)]; ok {
			return unit.Mul(unit.New(scale, unit.Dimless), u), nil
		}
	}
	return nil, fmt.Errorf("rfcontrail: unknown unit %q", s)
}

// ConvertWavelength converts v, given in unit from, into a wavelength in
// unit to. from may be a length, a wavenumber or a frequency; to must be a
// length.
func ConvertWavelength(v float64, from, to *unit.Unit) (float64, error) {
	if err := to.Check(unit.Meter); err != nil {
		return math.NaN(), fmt.Errorf("rfcontrail: wavelength unit: %v", err)
	}
	q := unit.Mul(unit.New(v, unit.Dimless), from)
	switch d := q.Dimensions(); {
	case d.Matches(unit.Meter):
	case d.Matches(perMeter):
		q = unit.Div(unit.New(1, unit.Dimless), q)
	case d.Matches(unit.Herz):
		q = unit.Div(unit.New(speedOfLight, unit.MeterPerSecond), q)
	default:
		return math.NaN(), fmt.Errorf("rfcontrail: unit %v is not a wavelength, wavenumber or frequency", d)
	}
	return unit.Div(q, to).Value(), nil
}

// CheckWavelengthUnit returns an error unless values in u can be
// converted into wavelengths.
func CheckWavelengthUnit(u *unit.Unit) error {
	_, err := ConvertWavelength(1, u, Micrometer)
	return err
}
