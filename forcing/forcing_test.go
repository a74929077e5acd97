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
	"bytes"
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rfcontrail"
	"github.com/spatialmodel/rfcontrail/libradtran"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

// diffuseTable returns a table over a 2×1 grid with incident zenith angles
// π/4 and 3π/4. Each row holds num_scattered_up, num_abs and the
// correction factor.
func diffuseTable(band int, lambda float64, rows [][3]float64) *rfcontrail.Table {
	t := &rfcontrail.Table{
		Name:    rfcontrail.DiffuseTableName,
		Common:  rfcontrail.CommonParams{NumPhotons: 1000, Psi: 180},
		Diffuse: rfcontrail.DiffuseParams{BinsTheta: len(rows), BinsPhi: 1, SpectralBandIndex: band, Lambda: lambda},
		Columns: []string{rfcontrail.ColTheta, rfcontrail.ColPhi, rfcontrail.ColNumScatteredUp,
			rfcontrail.ColNumAbs, rfcontrail.ColCorrectionFactor},
	}
	for i, r := range rows {
		theta := (float64(i) + 0.5) * math.Pi / float64(len(rows))
		t.Rows = append(t.Rows, []float64{theta, math.Pi, r[0], r[1], r[2]})
	}
	return t
}

func directTable(band int, lambda float64) *rfcontrail.Table {
	return &rfcontrail.Table{
		Name:    rfcontrail.DirectTableName,
		Diffuse: rfcontrail.DiffuseParams{SpectralBandIndex: band, Lambda: lambda},
		Direct:  rfcontrail.DirectParams{Sza: math.Pi / 4, Phi0: math.Pi},
		Columns: []string{rfcontrail.ColSza, rfcontrail.ColPhi0, rfcontrail.ColNumAbsorbed,
			rfcontrail.ColNumScatteredUp, rfcontrail.ColCorrectionFactor},
		Rows: [][]float64{{math.Pi / 4, math.Pi, 10, 20, 0.5}},
	}
}

var (
	uvspec = []*libradtran.Block{
		{Lambda: 550, Edir: 100, Umu: []float64{-0.7071, 0.7071}, U0u: []float64{0, 0}, Phi: []float64{0}, Uu: [][]float64{{2}, {3}}},
		{Lambda: 1600, Edir: 40, Umu: []float64{-0.7071, 0.7071}, U0u: []float64{0, 0}, Phi: []float64{0}, Uu: [][]float64{{1}, {0.5}}},
	}
	twostr = []*libradtran.Block{
		{Lambda: 10000, Edn: 50, Eup: 80},
		{Lambda: 12000, Edn: 40, Eup: 70},
	}
)

func testWavelength(t *testing.T, solBand int, solLambda float64, terrBand int, terrLambda float64) *Wavelength {
	w, err := NewWavelength(
		directTable(solBand, solLambda),
		diffuseTable(solBand, solLambda, [][3]float64{{4, 2, 0.1}, {6, 1, 0.2}}),
		diffuseTable(terrBand, terrLambda, [][3]float64{{4, 2, 0.1}, {6, 1, 0.2}}),
		uvspec, twostr)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestSolarDirect(t *testing.T) {
	r, err := testWavelength(t, 0, 0.55, 0, 10).SolarDirect()
	if err != nil {
		t.Fatal(err)
	}
	want := &StepResult{Up: []float64{1000}, Down: []float64{0}, Abs: []float64{500}}
	if diff := pretty.Diff(r, want); len(diff) != 0 {
		t.Error(diff)
	}
}

func TestSolarDiffuse(t *testing.T) {
	w := testWavelength(t, 0, 0.55, 0, 10)
	dir, err := w.SolarDirect()
	if err != nil {
		t.Fatal(err)
	}
	r, err := w.SolarDiffuse(dir)
	if err != nil {
		t.Fatal(err)
	}
	o := math.Sin(math.Pi/4) * 2 * math.Pi * math.Pi / 2
	o2 := math.Sin(3*math.Pi/4) * 2 * math.Pi * math.Pi / 2
	want := &StepResult{
		// The direct beam arrives closest to the first direction.
		Up:   []float64{4*0.1*o*3 + 1000, 0},
		Down: []float64{0, 6 * 0.2 * o2 * 2},
		Abs:  []float64{2*0.1*3*o + 500, 1 * 0.2 * 2 * o2},
	}
	for i := range want.Up {
		if different(r.Up[i], want.Up[i], 1e-12) && r.Up[i] != want.Up[i] {
			t.Errorf("up %d: have %g, want %g", i, r.Up[i], want.Up[i])
		}
		if different(r.Down[i], want.Down[i], 1e-12) && r.Down[i] != want.Down[i] {
			t.Errorf("down %d: have %g, want %g", i, r.Down[i], want.Down[i])
		}
		if different(r.Abs[i], want.Abs[i], 1e-12) {
			t.Errorf("abs %d: have %g, want %g", i, r.Abs[i], want.Abs[i])
		}
	}
}

func TestTerrestrialDiffuse(t *testing.T) {
	r, err := testWavelength(t, 0, 0.55, 0, 10).TerrestrialDiffuse()
	if err != nil {
		t.Fatal(err)
	}
	o := math.Sin(math.Pi/4) * 2 * math.Pi * math.Pi / 2
	o2 := math.Sin(3*math.Pi/4) * 2 * math.Pi * math.Pi / 2
	up := []float64{4 * 0.1 * 50 / 2 * o, 0}
	down := []float64{0, 6 * 0.2 * 80 / 2 * o2}
	abs := []float64{2 * 0.1 * 50 / 2 * o, 1 * 0.2 * 50 / 2 * o2}
	for i := range up {
		if (up[i] != r.Up[i] && different(r.Up[i], up[i], 1e-12)) ||
			(down[i] != r.Down[i] && different(r.Down[i], down[i], 1e-12)) ||
			different(r.Abs[i], abs[i], 1e-12) {
			t.Errorf("direction %d: have (%g, %g, %g), want (%g, %g, %g)",
				i, r.Up[i], r.Down[i], r.Abs[i], up[i], down[i], abs[i])
		}
	}
}

func TestRadiativeForcing(t *testing.T) {
	sol := &StepResult{Up: []float64{1, 2}, Down: []float64{0, 4}, Abs: []float64{3, 1}}
	terr := &StepResult{Up: []float64{1, 0}, Down: []float64{0, 2}, Abs: []float64{0.5, 0.5}}
	rs, rt, rf := RadiativeForcing(sol, terr)
	if rs != 5 || rt != 2 || rf != 7 {
		t.Errorf("have (%g, %g, %g), want (5, 2, 7)", rs, rt, rf)
	}
}

func TestStepResultAdd(t *testing.T) {
	a := &StepResult{Up: []float64{1, 2}, Down: []float64{0, 4}, Abs: []float64{3, 1}}
	b := a.Clone()
	if err := b.Add(a); err != nil {
		t.Fatal(err)
	}
	want := &StepResult{Up: []float64{2, 4}, Down: []float64{0, 8}, Abs: []float64{6, 2}}
	if diff := pretty.Diff(b, want); len(diff) != 0 {
		t.Error(diff)
	}
	if a.Up[0] != 1 {
		t.Error("Clone shares memory with its source")
	}
	err := a.Add(&StepResult{Up: []float64{1}, Down: []float64{1}, Abs: []float64{1}})
	if !errors.Is(err, ErrGridShape) {
		t.Errorf("have error %v, want ErrGridShape", err)
	}
}

func TestIntegrate(t *testing.T) {
	w := testWavelength(t, 0, 0.55, 0, 10)
	res, err := Integrate([]*Wavelength{w}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 4 {
		t.Fatalf("have %d rows, want 4", len(res.Rows))
	}
	parts := []string{PartSolarDirect, PartSolarDiffuse, PartTerrestrial, PartTotal}
	for i, p := range parts {
		if res.Rows[i].Part != p {
			t.Errorf("row %d: have part %s, want %s", i, res.Rows[i].Part, p)
		}
	}
	total := res.Rows[3]
	if total.RFTotal != res.RFTotal || total.RFSolar != res.RFSolar || total.RFTerrestrial != res.RFTerrestrial {
		t.Errorf("total row %+v does not match result", total)
	}
	if different(res.RFTotal, res.RFSolar+res.RFTerrestrial, 1e-12) {
		t.Errorf("total %g != %g + %g", res.RFTotal, res.RFSolar, res.RFTerrestrial)
	}
	if res.Rows[1].RFSolar != res.RFSolar || res.Rows[2].RFTerrestrial != res.RFTerrestrial {
		t.Error("a single wavelength should give the same forcing as the total")
	}

	again, err := Integrate([]*Wavelength{w}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(res, again); len(diff) != 0 {
		t.Errorf("integration is not repeatable: %v", diff)
	}
}

// The integrated forcing does not depend on the order of the wavelengths.
func TestIntegrateOrder(t *testing.T) {
	w1 := testWavelength(t, 0, 0.55, 0, 10)
	w2 := testWavelength(t, 1, 1.6, 1, 12)
	a, err := Integrate([]*Wavelength{w1, w2}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Integrate([]*Wavelength{w2, w1}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if different(a.RFSolar, b.RFSolar, 1e-12) || different(a.RFTerrestrial, b.RFTerrestrial, 1e-12) {
		t.Errorf("(%g, %g) != (%g, %g)", a.RFSolar, a.RFTerrestrial, b.RFSolar, b.RFTerrestrial)
	}
	single1, err := Integrate([]*Wavelength{w1}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	single2, err := Integrate([]*Wavelength{w2}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if different(a.RFTotal, single1.RFTotal+single2.RFTotal, 1e-12) {
		t.Errorf("total %g, want %g", a.RFTotal, single1.RFTotal+single2.RFTotal)
	}
}

func TestIntegrateErrors(t *testing.T) {
	w := testWavelength(t, 0, 0.55, 0, 10)
	_, err := Integrate([]*Wavelength{w, w}, quietLog())
	var ce *rfcontrail.ConfigError
	if !errors.Is(err, ErrDuplicateBand) || !errors.As(err, &ce) {
		t.Errorf("duplicate band: have error %v", err)
	}

	coarse, err := NewWavelength(
		directTable(1, 1.6),
		diffuseTable(1, 1.6, [][3]float64{{4, 2, 0.1}, {6, 1, 0.2}, {1, 1, 0.1}}),
		diffuseTable(1, 12, [][3]float64{{4, 2, 0.1}, {6, 1, 0.2}, {1, 1, 0.1}}),
		uvspec, twostr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Integrate([]*Wavelength{w, coarse}, quietLog()); !errors.Is(err, ErrGridShape) {
		t.Errorf("grid shape: have error %v, want ErrGridShape", err)
	}

	if _, err := Integrate(nil, quietLog()); err == nil {
		t.Error("expected an error without wavelengths")
	}

	missing := testWavelength(t, 2, 0.7, 2, 10)
	if _, err := Integrate([]*Wavelength{missing}, quietLog()); !errors.Is(err, libradtran.ErrNoBlock) {
		t.Errorf("missing radiance: have error %v, want ErrNoBlock", err)
	}
}

func TestNewWavelengthErrors(t *testing.T) {
	diff := diffuseTable(0, 0.55, [][3]float64{{4, 2, 0.1}, {6, 1, 0.2}})
	_, err := NewWavelength(directTable(1, 0.55), diff, diff, uvspec, twostr)
	var ce *rfcontrail.ConfigError
	if !errors.Is(err, ErrBandMismatch) || !errors.As(err, &ce) {
		t.Errorf("band mismatch: have error %v", err)
	}
	if _, err := NewWavelength(diff, diff, diff, uvspec, twostr); err == nil {
		t.Error("expected an error for a diffuse table in place of the direct table")
	}

	grids := []struct {
		name       string
		phi, theta int
	}{
		{name: "zero bins_phi", phi: 0, theta: 2},
		{name: "negative bins_theta", phi: 1, theta: -2},
		{name: "row count", phi: 2, theta: 2},
	}
	for _, g := range grids {
		t.Run(g.name, func(t *testing.T) {
			bad := diffuseTable(0, 10, [][3]float64{{4, 2, 0.1}, {6, 1, 0.2}})
			bad.Diffuse.BinsPhi, bad.Diffuse.BinsTheta = g.phi, g.theta
			sol := diffuseTable(0, 0.55, [][3]float64{{4, 2, 0.1}, {6, 1, 0.2}})
			for _, tables := range [][2]*rfcontrail.Table{{bad, sol}, {sol, bad}} {
				_, err := NewWavelength(directTable(0, 0.55), tables[0], tables[1], uvspec, twostr)
				var ce *rfcontrail.ConfigError
				if !errors.Is(err, ErrGrid) || !errors.As(err, &ce) {
					t.Errorf("have error %v, want an ErrGrid ConfigError", err)
				}
			}
		})
	}
}

func TestFormatDouble(t *testing.T) {
	tests := map[float64]string{
		0:           "0.0",
		1:           "1.0",
		-3:          "-3.0",
		1234.5:      "1234.5",
		0.001:       "0.001",
		1e-4:        "1.0E-4",
		-2.5e-5:     "-2.5E-5",
		1e7:         "1.0E7",
		12345678.9:  "1.23456789E7",
		9999999.5:   "9999999.5",
		math.NaN():  "NaN",
		math.Inf(1): "Infinity",
	}
	for v, want := range tests {
		if have := formatDouble(v); have != want {
			t.Errorf("formatDouble(%g) = %s, want %s", v, have, want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	res, err := Integrate([]*Wavelength{testWavelength(t, 0, 0.55, 0, 10)}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	b := new(bytes.Buffer)
	if err := res.WriteCSV(b); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("have %d lines, want 5", len(lines))
	}
	if lines[0] != "lambda, part, p_up, p_down, p_abs, rf_sol, rf_terr, rf_total" {
		t.Errorf("header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ", sol_dir, 1000.0, 0.0, 500.0, 0.0, 0.0, 0.0") {
		t.Errorf("solar direct row %q", lines[1])
	}
	if !strings.HasPrefix(lines[4], "0.0, total, 0.0, 0.0, 0.0, ") {
		t.Errorf("total row %q", lines[4])
	}
	for _, l := range lines {
		if n := len(strings.Split(l, ", ")); n != 8 {
			t.Errorf("line %q has %d fields", l, n)
		}
	}
}

func TestSpectrumBreak(t *testing.T) {
	res, err := Integrate([]*Wavelength{testWavelength(t, 0, 0.55, 0, 10), testWavelength(t, 1, 1.6, 1, 12)}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	cut, ok := res.spectrumBreak()
	if !ok || different(cut, 1600, 1e-12) {
		t.Errorf("have break at %g (%v), want 1600", cut, ok)
	}

	overlap := &Result{Rows: []Row{
		{Lambda: 550, Part: PartSolarDiffuse},
		{Lambda: 4000, Part: PartSolarDiffuse},
		{Lambda: 3500, Part: PartTerrestrial},
		{Part: PartTotal},
	}}
	if _, ok := overlap.spectrumBreak(); ok {
		t.Error("break between overlapping solar and terrestrial wavelengths")
	}
	if _, ok := (&Result{}).spectrumBreak(); ok {
		t.Error("break in an empty spectrum")
	}
}

func TestPlotSpectrum(t *testing.T) {
	res, err := Integrate([]*Wavelength{testWavelength(t, 0, 0.55, 0, 10), testWavelength(t, 1, 1.6, 1, 12)}, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	b := new(bytes.Buffer)
	if err := res.PlotSpectrum(b); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG image")
	}
}

// writeOutputs writes the three simulation outputs of one wavelength.
func writeOutputs(t *testing.T, dir string, band int, lambda, terrLambda float64) {
	c := &rfcontrail.CommonParams{NumPhotons: 100, Psi: 180}
	d := &rfcontrail.DiffuseParams{BinsPhi: 1, BinsTheta: 2, ResolutionS: 90, Distance: 1000,
		SpectralBandIndex: band, G: 0.8, AbsorptionFactor: 0.1, ScatteringFactor: 1.9, Lambda: lambda,
		RadiusIncident: 500, RadiusDroplet: 10, NumSca: 100, SigmaH: 200, SigmaV: 100, NumIce: 1e14}
	rows := []*rfcontrail.DirectionResult{
		{Index: 0, Theta: math.Pi / 4, Phi: math.Pi, NumPhotons: 100, Absorbed: 5, Transmitted: 80, Scattered: 15,
			ScatteredUp: 10, ScatteredDown: 5, Bins: []int{10, 5}, AvgScattering: 1.2},
		{Index: 1, Theta: 3 * math.Pi / 4, Phi: math.Pi, NumPhotons: 100, Absorbed: 3, Transmitted: 90, Scattered: 7,
			ScatteredUp: 2, ScatteredDown: 5, Bins: []int{2, 5}, AvgScattering: 1.1},
	}
	write := func(path string, f func(*os.File) error) {
		o, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := f(o); err != nil {
			t.Fatal(err)
		}
		if err := o.Close(); err != nil {
			t.Fatal(err)
		}
	}
	diffuse := func(d *rfcontrail.DiffuseParams) func(*os.File) error {
		return func(f *os.File) error {
			w, err := rfcontrail.NewTableWriter(f, c, d)
			if err != nil {
				return err
			}
			for _, r := range rows {
				if err := w.WriteRow(r); err != nil {
					return err
				}
			}
			return w.Flush()
		}
	}
	write(rfcontrail.OutputFileName(dir, "run", rfcontrail.SolarDirectSuffix, lambda), func(f *os.File) error {
		return rfcontrail.WriteDirectTable(f, c, d, &rfcontrail.DirectParams{Sza: math.Pi / 4, Phi0: math.Pi}, rows[0])
	})
	write(rfcontrail.OutputFileName(dir, "run", rfcontrail.SolarDiffuseSuffix, lambda), diffuse(d))
	terr := *d
	terr.Lambda = terrLambda
	write(rfcontrail.OutputFileName(dir, "run", rfcontrail.TerrestrialDiffuseSuffix, terrLambda), diffuse(&terr))
}

const (
	uvspecFile = `  550.000 100.0 50.0 20.0 0.1 0.2 0.3
            0.0
 -0.7071 0.0 2.0
 0.7071 0.0 3.0
  1600.000 40.0 20.0 10.0 0.1 0.2 0.3
            0.0
 -0.7071 0.0 1.0
 0.7071 0.0 0.5
`
	twostrFile = ` 10000.0 0.0 50.0 80.0 1.0
 12000.0 0.0 40.0 70.0 1.0
`
)

func writeLibRadtran(t *testing.T, dir string) (uv, ts string) {
	uv, ts = filepath.Join(dir, "uvspec.out"), filepath.Join(dir, "twostr.out")
	if err := ioutil.WriteFile(uv, []byte(uvspecFile), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(ts, []byte(twostrFile), 0644); err != nil {
		t.Fatal(err)
	}
	return uv, ts
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir, 0, 0.55, 10)
	writeOutputs(t, dir, 1, 1.6, 12)
	uv, ts := writeLibRadtran(t, t.TempDir())
	res, err := Run(dir, uv, ts, nil, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 7 {
		t.Errorf("have %d rows, want 7", len(res.Rows))
	}
	b, err := ioutil.ReadFile(filepath.Join(dir, OutputFile))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(b)), "\n"); len(lines) != 8 {
		t.Errorf("have %d lines in %s, want 8", len(lines), OutputFile)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir, 0, 0.55, 10)
	uv, ts := writeLibRadtran(t, t.TempDir())
	if err := os.Remove(rfcontrail.OutputFileName(dir, "run", rfcontrail.TerrestrialDiffuseSuffix, 10)); err != nil {
		t.Fatal(err)
	}
	_, err := Load(dir, uv, ts, nil)
	var ce *rfcontrail.ConfigError
	if !errors.Is(err, ErrFileCount) || !errors.As(err, &ce) {
		t.Errorf("file count: have error %v", err)
	}

	_, err = Load(filepath.Join(dir, "missing"), uv, ts, nil)
	var ioErr *rfcontrail.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("missing directory: expected an IOError, got %v", err)
	}

	writeOutputs(t, dir, 0, 0.55, 10)
	_, err = Load(dir, filepath.Join(dir, "missing.out"), ts, nil)
	if !errors.As(err, &ioErr) {
		t.Errorf("missing uvspec file: expected an IOError, got %v", err)
	}

	kelvin, err := rfcontrail.ParseUnit("K")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Load(dir, uv, ts, kelvin)
	if !errors.As(err, &ce) || ce.Param != "lambda_unit" {
		t.Errorf("kelvin lambda unit: have error %v", err)
	}
}

func TestLoadLambdaUnit(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir, 0, 0.55, 10)
	writeOutputs(t, dir, 1, 1.6, 12)
	lr := t.TempDir()
	uv, ts := filepath.Join(lr, "uvspec.out"), filepath.Join(lr, "twostr.out")
	um := strings.NewReplacer("  550.000", "  0.55", "  1600.000", "  1.6")
	if err := ioutil.WriteFile(uv, []byte(um.Replace(uvspecFile)), 0644); err != nil {
		t.Fatal(err)
	}
	umTerr := strings.NewReplacer(" 10000.0", " 10.0", " 12000.0", " 12.0")
	if err := ioutil.WriteFile(ts, []byte(umTerr.Replace(twostrFile)), 0644); err != nil {
		t.Fatal(err)
	}
	micrometers, err := rfcontrail.ParseUnit("um")
	if err != nil {
		t.Fatal(err)
	}
	w, err := Load(dir, uv, ts, micrometers)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Integrate(w, quietLog())
	if err != nil {
		t.Fatal(err)
	}

	uvNM, tsNM := writeLibRadtran(t, t.TempDir())
	wNM, err := Load(dir, uvNM, tsNM, nil)
	if err != nil {
		t.Fatal(err)
	}
	want, err := Integrate(wNM, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if different(res.RFTotal, want.RFTotal, 1e-12) {
		t.Errorf("have total RF %g with μm input, want %g", res.RFTotal, want.RFTotal)
	}
}
