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

package rfutil

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ctessum/unit"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/rfcontrail"
	"github.com/spf13/cast"
)

func getInt(cfg *viper.Viper, key string) (int, error) {
	v, err := cast.ToIntE(cfg.Get(key))
	if err != nil {
		return 0, &rfcontrail.ConfigError{Param: key, Err: err}
	}
	return v, nil
}

func getFloat(cfg *viper.Viper, key string) (float64, error) {
	v, err := cast.ToFloat64E(cfg.Get(key))
	if err != nil {
		return math.NaN(), &rfcontrail.ConfigError{Param: key, Err: err}
	}
	return v, nil
}

// inGroup qualifies the parameter name of a ConfigError with its group.
func inGroup(group string, err error) error {
	var ce *rfcontrail.ConfigError
	if errors.As(err, &ce) && ce.Param != "" && !strings.Contains(ce.Param, ".") {
		ce.Param = group + "." + ce.Param
	}
	return err
}

// CommonConfig reads the settings shared by all spectral parts.
func CommonConfig(cfg *viper.Viper) (*rfcontrail.CommonParams, error) {
	c := &rfcontrail.CommonParams{OutputPrefix: cfg.GetString("common.output_prefix")}
	var err error
	if c.NumPhotons, err = getInt(cfg, "common.num_photons"); err != nil {
		return nil, err
	}
	if c.Psi, err = getFloat(cfg, "common.psi"); err != nil {
		return nil, err
	}
	if strings.ContainsAny(c.OutputPrefix, `/\`) {
		return nil, &rfcontrail.ConfigError{Param: "common.output_prefix",
			Err: fmt.Errorf("%q should not contain a path separator; use common.output_dir", c.OutputPrefix)}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// RunConfig holds the settings of how a simulation is executed, as opposed
// to what is simulated.
type RunConfig struct {
	OutputDir string
	LogFile   string

	Seed    int64
	Mode    rfcontrail.RandomMode
	Threads int

	Force, Metrics bool
}

// GetRunConfig reads the execution settings.
func GetRunConfig(cfg *viper.Viper) (*RunConfig, error) {
	r := &RunConfig{
		OutputDir: os.ExpandEnv(cfg.GetString("common.output_dir")),
		LogFile:   os.ExpandEnv(cfg.GetString("common.log_file")),
		Force:     cfg.GetBool("force"),
		Metrics:   cfg.GetBool("metrics"),
	}
	if r.OutputDir == "" {
		r.OutputDir = "."
	}
	var err error
	if r.Seed, err = cast.ToInt64E(cfg.Get("common.seed")); err != nil {
		return nil, &rfcontrail.ConfigError{Param: "common.seed", Err: err}
	}
	if r.Mode, err = rfcontrail.ParseRandomMode(cfg.GetString("common.random_mode")); err != nil {
		return nil, &rfcontrail.ConfigError{Param: "common.random_mode", Err: err}
	}
	if r.Threads, err = getInt(cfg, "threads"); err != nil {
		return nil, err
	}
	if r.Threads <= 0 {
		return nil, &rfcontrail.ConfigError{Param: "threads", Err: fmt.Errorf("%d should be >0", r.Threads)}
	}
	return r, nil
}

func diffuseGroup(k rfcontrail.Kind) string {
	if k == rfcontrail.Terrestrial {
		return TerrestrialDiffuseGroup
	}
	return SolarDiffuseGroup
}

// DiffuseConfig reads the diffuse settings of spectral part k. Optical
// coefficients that are not set are taken from the band table of the part,
// using a maximum crystal dimension of twice the droplet radius.
func DiffuseConfig(cfg *viper.Viper, k rfcontrail.Kind) (*rfcontrail.DiffuseParams, error) {
	group := diffuseGroup(k)
	d := new(rfcontrail.DiffuseParams)
	ints := map[string]*int{
		"bins_phi":            &d.BinsPhi,
		"bins_theta":          &d.BinsTheta,
		"resolution_s":        &d.ResolutionS,
		"spectral_band_index": &d.SpectralBandIndex,
		"num_sca":             &d.NumSca,
		"max_scatter_events":  &d.MaxScatterEvents,
	}
	for name, v := range ints {
		var err error
		if *v, err = getInt(cfg, group+"."+name); err != nil {
			return nil, err
		}
	}
	floats := map[string]*float64{
		"distance":          &d.Distance,
		"g":                 &d.G,
		"absorption_factor": &d.AbsorptionFactor,
		"scattering_factor": &d.ScatteringFactor,
		"lambda":            &d.Lambda,
		"radius_incident":   &d.RadiusIncident,
		"radius_droplet":    &d.RadiusDroplet,
		"sigma_h":           &d.SigmaH,
		"sigma_v":           &d.SigmaV,
		"sigma_s":           &d.SigmaS,
		"num_ice":           &d.NumIce,
	}
	for name, v := range floats {
		var err error
		if *v, err = getFloat(cfg, group+"."+name); err != nil {
			return nil, err
		}
	}
	if k == rfcontrail.Terrestrial {
		d.SigmaS = 0
	}
	if err := resolveOptics(cfg, k, group, d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, inGroup(group, err)
	}
	p := d.Physical(k)
	if err := p.Check(); err != nil {
		return nil, inGroup(group, err)
	}
	return d, nil
}

// resolveOptics fills in the optical coefficients of d that are NaN.
func resolveOptics(cfg *viper.Viper, k rfcontrail.Kind, group string, d *rfcontrail.DiffuseParams) error {
	coef := []*float64{&d.G, &d.AbsorptionFactor, &d.ScatteringFactor, &d.Lambda}
	names := []string{"g", "absorption_factor", "scattering_factor", "lambda"}
	missing := ""
	for i, v := range coef {
		if math.IsNaN(*v) {
			missing = names[i]
			break
		}
	}
	if missing == "" {
		return nil
	}
	key := "optics." + k.String() + "_band_table"
	path := os.ExpandEnv(cfg.GetString(key))
	if path == "" {
		return &rfcontrail.ConfigError{Param: group + "." + missing, Err: fmt.Errorf("not set and no %s given", key)}
	}
	t, err := rfcontrail.LoadBandTable(path)
	if err != nil {
		var ce *rfcontrail.ConfigError
		if errors.As(err, &ce) {
			ce.Param = key
		}
		return err
	}
	if t.Kind() != k {
		return &rfcontrail.ConfigError{Param: key, Err: fmt.Errorf("%s is a %s band table", path, t.Kind())}
	}
	dMax := 2 * d.RadiusDroplet
	var c rfcontrail.Coefficients
	if name := cfg.GetString("optics.shape"); name != "" {
		s, err := rfcontrail.ParseShape(name)
		if err != nil {
			return &rfcontrail.ConfigError{Param: "optics.shape", Err: err}
		}
		c, err = t.Shape(d.SpectralBandIndex, dMax, s)
		if err != nil {
			return &rfcontrail.ConfigError{Param: group + ".spectral_band_index", Err: err}
		}
	} else {
		c, err = t.Mixed(d.SpectralBandIndex, dMax)
		if err != nil {
			return &rfcontrail.ConfigError{Param: group + ".spectral_band_index", Err: err}
		}
	}
	values := []float64{c.G, c.Qabs, c.Qsca, c.Lambda}
	for i, v := range coef {
		if math.IsNaN(*v) {
			*v = values[i]
		}
	}
	return nil
}

// DirectConfig reads the sun position of the direct solar run.
func DirectConfig(cfg *viper.Viper) (*rfcontrail.DirectParams, error) {
	d := new(rfcontrail.DirectParams)
	var err error
	if d.Sza, err = getFloat(cfg, "solar_direct.sza"); err != nil {
		return nil, err
	}
	if d.Phi0, err = getFloat(cfg, "solar_direct.phi0"); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// RFConfig holds the inputs of the radiative forcing calculation.
type RFConfig struct {
	Directory, UVSpec, TwoStr, Plot string

	// LambdaUnit is the unit of the libRadtran wavelength column.
	LambdaUnit *unit.Unit
}

// GetRFConfig reads and checks the radiative forcing settings.
func GetRFConfig(cfg *viper.Viper) (*RFConfig, error) {
	r := &RFConfig{
		Directory: os.ExpandEnv(cfg.GetString("directory")),
		UVSpec:    os.ExpandEnv(cfg.GetString("uvspec")),
		TwoStr:    os.ExpandEnv(cfg.GetString("twostr")),
		Plot:      os.ExpandEnv(cfg.GetString("plot")),
	}
	if r.UVSpec == "" {
		return nil, &rfcontrail.ConfigError{Param: "uvspec", Err: fmt.Errorf("the uvspec output file must be given")}
	}
	if r.TwoStr == "" {
		return nil, &rfcontrail.ConfigError{Param: "twostr", Err: fmt.Errorf("the twostr output file must be given")}
	}
	if r.Directory == "" {
		r.Directory = "."
	}
	if lu := cfg.GetString("lambda_unit"); lu != "" {
		u, err := rfcontrail.ParseUnit(lu)
		if err == nil {
			err = rfcontrail.CheckWavelengthUnit(u)
		}
		if err != nil {
			return nil, &rfcontrail.ConfigError{Param: "lambda_unit", Err: err}
		}
		r.LambdaUnit = u
	}
	return r, nil
}
