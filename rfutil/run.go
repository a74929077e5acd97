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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rfcontrail"
	"github.com/spatialmodel/rfcontrail/forcing"
	"github.com/spatialmodel/rfcontrail/internal/hash"
	"github.com/spf13/cobra"
)

// newLogger returns a logger that writes to the output of cmd and, if
// logFile is not empty, to logFile as well. The returned function closes
// the log file.
func newLogger(cmd *cobra.Command, logFile string, verbose bool) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	log.Level = logrus.InfoLevel
	if verbose {
		log.Level = logrus.DebugLevel
	}
	closer := func() error { return nil }
	var out io.Writer = cmd.OutOrStdout()
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, nil, &rfcontrail.IOError{Path: logFile, Err: fmt.Errorf("problem creating log file: %v", err)}
		}
		out = io.MultiWriter(out, f)
		closer = f.Close
	}
	log.Out = out
	return log, closer, nil
}

// simulation is one spectral part of a run.
type simulation struct {
	kind    rfcontrail.Kind
	common  *rfcontrail.CommonParams
	diffuse *rfcontrail.DiffuseParams
	run     *RunConfig

	contrail *rfcontrail.Contrail
	log      logrus.FieldLogger
}

func newSimulation(k rfcontrail.Kind, common *rfcontrail.CommonParams, diffuse *rfcontrail.DiffuseParams,
	run *RunConfig, log logrus.FieldLogger) (*simulation, error) {
	c, err := rfcontrail.NewContrail(diffuse.Physical(k))
	if err != nil {
		return nil, inGroup(diffuseGroup(k), err)
	}
	return &simulation{
		kind:     k,
		common:   common,
		diffuse:  diffuse,
		run:      run,
		contrail: c,
		log: log.WithFields(logrus.Fields{
			"run":  hash.Fingerprint(k, common, diffuse),
			"band": diffuse.SpectralBandIndex,
		}),
	}, nil
}

func (s *simulation) driver() *rfcontrail.Driver {
	return &rfcontrail.Driver{
		Contrail:   s.contrail,
		NumPhotons: s.common.NumPhotons,
		BinsTheta:  s.diffuse.BinsTheta,
		BinsPhi:    s.diffuse.BinsPhi,
		Resolution: s.diffuse.ResolutionS,
		Workers:    s.run.Threads,
		Mode:       s.run.Mode,
		Seed:       s.run.Seed,
		Log:        s.log,
	}
}

func (s *simulation) diffuseSuffix() string {
	if s.kind == rfcontrail.Terrestrial {
		return rfcontrail.TerrestrialDiffuseSuffix
	}
	return rfcontrail.SolarDiffuseSuffix
}

func (s *simulation) outputFile(suffix string) string {
	return rfcontrail.OutputFileName(s.run.OutputDir, s.common.OutputPrefix, suffix, s.diffuse.Lambda)
}

// checkOverwrite makes sure that no output of this part is overwritten
// unless forced.
func (s *simulation) checkOverwrite() error {
	suffixes := []string{s.diffuseSuffix()}
	if s.kind == rfcontrail.Solar {
		suffixes = append(suffixes, rfcontrail.SolarDirectSuffix)
	}
	for _, suffix := range suffixes {
		if err := rfcontrail.CheckOverwrite(s.run.OutputDir, s.common.OutputPrefix, suffix,
			s.diffuse.SpectralBandIndex, s.run.Force); err != nil {
			return err
		}
	}
	return nil
}

// ioRowWriter classifies row write failures as I/O errors.
type ioRowWriter struct {
	w    *rfcontrail.TableWriter
	path string
}

func (w ioRowWriter) WriteRow(r *rfcontrail.DirectionResult) error {
	if err := w.w.WriteRow(r); err != nil {
		return &rfcontrail.IOError{Path: w.path, Err: err}
	}
	return nil
}

// runDiffuse traces the direction grid and writes the diffuse table. An
// incomplete table is removed.
func (s *simulation) runDiffuse(ctx context.Context) (err error) {
	path := s.outputFile(s.diffuseSuffix())
	f, err := os.Create(path)
	if err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(path)
		}
	}()
	tw, err := rfcontrail.NewTableWriter(f, s.common, s.diffuse)
	if err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	m, err := s.driver().RunDiffuse(ctx, ioRowWriter{w: tw, path: path})
	if err != nil {
		return err
	}
	if err = tw.Flush(); err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	if err = f.Close(); err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	s.log.WithField("file", path).Infof("wrote %s diffuse output", s.kind)
	if !s.run.Metrics {
		return nil
	}
	mf := rfcontrail.MetricsFileName(filepath.Join(s.run.OutputDir, "metrics"), m, time.Now())
	if err := m.WriteFile(mf); err != nil {
		return err
	}
	s.log.WithField("file", mf).Info("wrote metrics")
	return nil
}

// runDirect traces the direct solar beam and writes the direct table.
func (s *simulation) runDirect(ctx context.Context, dir *rfcontrail.DirectParams) error {
	r, err := s.driver().RunDirect(ctx, dir.Sza, dir.Phi0)
	if err != nil {
		return err
	}
	path := s.outputFile(rfcontrail.SolarDirectSuffix)
	f, err := os.Create(path)
	if err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	if err := rfcontrail.WriteDirectTable(f, s.common, s.diffuse, dir, r); err != nil {
		f.Close()
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &rfcontrail.IOError{Path: path, Err: err}
	}
	s.log.WithField("file", path).Info("wrote solar direct output")
	return nil
}

// RunSimulation runs the given spectral parts with the configuration in
// cfg. All configuration is checked, and existing outputs are looked for,
// before the first photon is traced.
func RunSimulation(ctx context.Context, cmd *cobra.Command, cfg *viper.Viper, kinds ...rfcontrail.Kind) error {
	common, err := CommonConfig(cfg)
	if err != nil {
		return err
	}
	rc, err := GetRunConfig(cfg)
	if err != nil {
		return err
	}
	diffuse := make([]*rfcontrail.DiffuseParams, len(kinds))
	var direct *rfcontrail.DirectParams
	for i, k := range kinds {
		if diffuse[i], err = DiffuseConfig(cfg, k); err != nil {
			return err
		}
		if k == rfcontrail.Solar {
			if direct, err = DirectConfig(cfg); err != nil {
				return err
			}
		}
	}

	log, closeLog, err := newLogger(cmd, rc.LogFile, cfg.GetBool("verbose"))
	if err != nil {
		return err
	}
	defer closeLog()

	if err := os.MkdirAll(rc.OutputDir, os.ModePerm); err != nil {
		return &rfcontrail.IOError{Path: rc.OutputDir, Err: err}
	}
	sims := make([]*simulation, len(kinds))
	for i, k := range kinds {
		if sims[i], err = newSimulation(k, common, diffuse[i], rc, log); err != nil {
			return err
		}
		if err := sims[i].checkOverwrite(); err != nil {
			return err
		}
	}

	start := time.Now()
	for _, s := range sims {
		if s.kind == rfcontrail.Solar {
			if err := s.runDirect(ctx, direct); err != nil {
				return err
			}
		}
		if err := s.runDiffuse(ctx); err != nil {
			return err
		}
	}
	log.Infof("simulation finished in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

// RunRF calculates radiative forcing from the output tables in the
// configured directory and optionally plots the spectrum.
func RunRF(cmd *cobra.Command, cfg *viper.Viper) error {
	rc, err := GetRFConfig(cfg)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cmd, "", cfg.GetBool("verbose"))
	if err != nil {
		return err
	}
	defer closeLog()

	res, err := forcing.Run(rc.Directory, rc.UVSpec, rc.TwoStr, rc.LambdaUnit, log)
	if err != nil {
		return err
	}
	log.WithField("file", filepath.Join(rc.Directory, forcing.OutputFile)).Info("wrote radiative forcing")
	if rc.Plot == "" {
		return nil
	}
	f, err := os.Create(rc.Plot)
	if err != nil {
		return &rfcontrail.IOError{Path: rc.Plot, Err: err}
	}
	if err := res.PlotSpectrum(f); err != nil {
		f.Close()
		return &rfcontrail.IOError{Path: rc.Plot, Err: err}
	}
	if err := f.Close(); err != nil {
		return &rfcontrail.IOError{Path: rc.Plot, Err: err}
	}
	log.WithField("file", rc.Plot).Info("wrote radiative forcing plot")
	return nil
}

// RunVariation prints the variation of the photon statistics between the
// runs whose metrics files are given.
func RunVariation(cmd *cobra.Command, files []string) error {
	runs := make([]*rfcontrail.RunMetrics, len(files))
	for i, f := range files {
		var err error
		if runs[i], err = rfcontrail.ReadMetricsFile(os.ExpandEnv(f)); err != nil {
			return err
		}
	}
	abs, trans, err := rfcontrail.VariationError(runs)
	if err != nil {
		return &rfcontrail.ConfigError{Param: "metrics files", Err: err}
	}
	cmd.Printf("runs: %d\nmean squared error of avg_n_abs: %g\nmean squared error of avg_n_trans: %g\n",
		len(runs), abs, trans)
	return nil
}
