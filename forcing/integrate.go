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

package forcing

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rfcontrail"
	"github.com/spatialmodel/rfcontrail/libradtran"
)

// OutputFile is the name of the radiative forcing table written by Run.
const OutputFile = "radiative_forcing.csv"

// Parts of the radiative forcing table.
const (
	PartSolarDirect  = "sol_dir"
	PartSolarDiffuse = "sol_diff"
	PartTerrestrial  = "terr_diff"
	PartTotal        = "total"
)

// Row is one line of the radiative forcing table. Step is nil for the
// total row.
type Row struct {
	Lambda float64
	Part   string
	Step   *StepResult

	RFSolar, RFTerrestrial, RFTotal float64
}

// Result is the outcome of integrating over all wavelengths.
type Result struct {
	Rows []Row

	// Solar and Terrestrial are the integrated power per direction.
	Solar, Terrestrial *StepResult

	RFSolar, RFTerrestrial, RFTotal float64
}

// Integrate calculates the forcing of each wavelength and sums the results
// element by element over all wavelengths.
func Integrate(wavelengths []*Wavelength, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if len(wavelengths) == 0 {
		return nil, fmt.Errorf("forcing: no wavelengths to integrate")
	}
	res := new(Result)
	seenSol := make(map[int]bool)
	seenTerr := make(map[int]bool)
	for i, w := range wavelengths {
		bs, bt := w.Bands()
		if seenSol[bs] {
			return nil, &rfcontrail.ConfigError{Param: "spectral_band_index",
				Err: fmt.Errorf("%w %d in solar diffuse output %d", ErrDuplicateBand, bs, i)}
		}
		if seenTerr[bt] {
			return nil, &rfcontrail.ConfigError{Param: "spectral_band_index",
				Err: fmt.Errorf("%w %d in terrestrial diffuse output %d", ErrDuplicateBand, bt, i)}
		}
		seenSol[bs], seenTerr[bt] = true, true

		dir, err := w.SolarDirect()
		if err != nil {
			return nil, err
		}
		sol, err := w.SolarDiffuse(dir)
		if err != nil {
			return nil, err
		}
		terr, err := w.TerrestrialDiffuse()
		if err != nil {
			return nil, err
		}
		rfSol, rfTerr, rf := RadiativeForcing(sol, terr)
		log.WithFields(logrus.Fields{
			"step":        fmt.Sprintf("%d/%d", i+1, len(wavelengths)),
			"lambda_sol":  fmt.Sprintf("%.2f nm", w.LambdaSolar()),
			"lambda_terr": fmt.Sprintf("%.2f nm", w.LambdaTerrestrial()),
		}).Infof("solar RF = %g, terrestrial RF = %g, total RF = %g", rfSol, rfTerr, rf)

		res.Rows = append(res.Rows,
			Row{Lambda: w.LambdaSolarDirect(), Part: PartSolarDirect, Step: dir},
			Row{Lambda: w.LambdaSolar(), Part: PartSolarDiffuse, Step: sol, RFSolar: rfSol, RFTotal: rf},
			Row{Lambda: w.LambdaTerrestrial(), Part: PartTerrestrial, Step: terr, RFTerrestrial: rfTerr, RFTotal: rf},
		)
		if res.Solar == nil {
			res.Solar, res.Terrestrial = sol.Clone(), terr.Clone()
			continue
		}
		if err := res.Solar.Add(sol); err != nil {
			return nil, fmt.Errorf("forcing: solar diffuse output %d: %w", i, err)
		}
		if err := res.Terrestrial.Add(terr); err != nil {
			return nil, fmt.Errorf("forcing: terrestrial diffuse output %d: %w", i, err)
		}
	}
	res.RFSolar, res.RFTerrestrial, res.RFTotal = RadiativeForcing(res.Solar, res.Terrestrial)
	res.Rows = append(res.Rows, Row{Part: PartTotal,
		RFSolar: res.RFSolar, RFTerrestrial: res.RFTerrestrial, RFTotal: res.RFTotal})
	log.Infof("integrated results: solar RF = %g, terrestrial RF = %g, total RF = %g",
		res.RFSolar, res.RFTerrestrial, res.RFTotal)
	return res, nil
}

// formatDouble formats v the way the radiative forcing table has always
// been written: the shortest representation that round trips, with a
// decimal point, and scientific notation outside of [1e-3, 1e7).
func formatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}
	if a := math.Abs(v); a >= 1e-3 && a < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(v, 'E', -1, 64)
	i := strings.Index(s, "E")
	mant, exp := s[:i], s[i+1:]
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(e)
}

// WriteCSV writes the radiative forcing table.
func (r *Result) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "lambda, part, p_up, p_down, p_abs, rf_sol, rf_terr, rf_total"); err != nil {
		return err
	}
	for _, row := range r.Rows {
		var up, down, abs float64
		if row.Step != nil {
			up, down, abs = row.Step.Sums()
		}
		fields := []string{formatDouble(row.Lambda), row.Part,
			formatDouble(up), formatDouble(down), formatDouble(abs),
			formatDouble(row.RFSolar), formatDouble(row.RFTerrestrial), formatDouble(row.RFTotal)}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, ", ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the radiative forcing table to path.
func (r *Result) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	if err := r.WriteCSV(f); err != nil {
		f.Close()
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	return nil
}

// Load finds the simulation outputs in dir, matches them up by sorted file
// name and pairs them with the libRadtran output, whose wavelength column is
// in lambdaUnit. A nil lambdaUnit means nm.
func Load(dir, uvspecPath, twostrPath string, lambdaUnit *unit.Unit) ([]*Wavelength, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		if err == nil {
			err = fmt.Errorf("not a directory")
		}
		return nil, &rfcontrail.IOError{Path: dir, Err: err}
	}
	var files [3][]string
	for i, suffix := range []string{rfcontrail.SolarDirectSuffix, rfcontrail.SolarDiffuseSuffix, rfcontrail.TerrestrialDiffuseSuffix} {
		f, err := rfcontrail.FindOutputFiles(dir, "", suffix)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}
	if len(files[0]) != len(files[1]) || len(files[1]) != len(files[2]) {
		return nil, &rfcontrail.ConfigError{Param: "directory", Err: fmt.Errorf("%w: found %d, %d and %d",
			ErrFileCount, len(files[0]), len(files[1]), len(files[2]))}
	}
	uvspec, err := libradtran.ReadUVSpecFile(uvspecPath)
	if err != nil {
		return nil, &rfcontrail.IOError{Path: uvspecPath, Err: err}
	}
	twostr, err := libradtran.ReadTwoStrFile(twostrPath)
	if err != nil {
		return nil, &rfcontrail.IOError{Path: twostrPath, Err: err}
	}
	if lambdaUnit != nil {
		for _, blocks := range [][]*libradtran.Block{uvspec, twostr} {
			if err := libradtran.ConvertLambda(blocks, lambdaUnit); err != nil {
				return nil, &rfcontrail.ConfigError{Param: "lambda_unit", Err: err}
			}
		}
	}
	o := make([]*Wavelength, len(files[0]))
	for i := range o {
		var t [3]*rfcontrail.Table
		for j := range t {
			if t[j], err = rfcontrail.ReadTableFile(files[j][i]); err != nil {
				return nil, err
			}
		}
		if o[i], err = NewWavelength(t[0], t[1], t[2], uvspec, twostr); err != nil {
			return nil, fmt.Errorf("%s: %w", files[1][i], err)
		}
	}
	return o, nil
}

// Run calculates the radiative forcing of the simulation outputs in dir and
// writes it to OutputFile in the same directory.
func Run(dir, uvspecPath, twostrPath string, lambdaUnit *unit.Unit, log logrus.FieldLogger) (*Result, error) {
	w, err := Load(dir, uvspecPath, twostrPath, lambdaUnit)
	if err != nil {
		return nil, err
	}
	res, err := Integrate(w, log)
	if err != nil {
		return nil, err
	}
	if err := res.WriteFile(filepath.Join(dir, OutputFile)); err != nil {
		return nil, err
	}
	return res, nil
}
