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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// RunMetrics summarizes the photon statistics of a diffuse run. Averages
// are per direction and rounded half-up to 4 decimals.
type RunMetrics struct {
	NumPhotonsPerAngle int `toml:"n_phot_per_angle"`
	BinsPhi            int `toml:"bins_phi"`
	BinsTheta          int `toml:"bins_theta"`

	NumPhotons float64 `toml:"n_phot"`

	SumTransmitted float64 `toml:"sum_n_trans"`
	SumAffected    float64 `toml:"sum_n_affected"`
	SumAbsorbed    float64 `toml:"sum_n_abs"`
	SumScattered   float64 `toml:"sum_n_scat"`

	AvgTransmitted float64 `toml:"avg_n_trans"`
	AvgAbsorbed    float64 `toml:"avg_n_abs"`
	AvgScattered   float64 `toml:"avg_n_scat"`
	AvgAffected    float64 `toml:"avg_n_affected"`
}

// round4 rounds half-up to 4 decimals.
func round4(v float64) float64 {
	return math.Floor(v*1e4+0.5) / 1e4
}

// newRunMetrics calculates the metrics from the per-direction sums.
func newRunMetrics(numPhotons, binsPhi, binsTheta int, trans, abs, scat int64) *RunMetrics {
	n := float64(binsPhi * binsTheta)
	np := float64(numPhotons)
	return &RunMetrics{
		NumPhotonsPerAngle: numPhotons,
		BinsPhi:            binsPhi,
		BinsTheta:          binsTheta,
		NumPhotons:         np * n,
		SumTransmitted:     float64(trans),
		SumAffected:        np*n - float64(trans),
		SumAbsorbed:        float64(abs),
		SumScattered:       float64(scat),
		AvgTransmitted:     round4(float64(trans) / n),
		AvgAbsorbed:        round4(float64(abs) / n),
		AvgScattered:       round4(float64(scat) / n),
		AvgAffected:        np - round4(float64(trans)/n),
	}
}

func (m *RunMetrics) sameShape(o *RunMetrics) bool {
	return m.NumPhotonsPerAngle == o.NumPhotonsPerAngle && m.BinsPhi == o.BinsPhi && m.BinsTheta == o.BinsTheta
}

// Add returns the element-wise sum of m and o. Only metrics of runs with
// the same number of photons and directions can be added.
func (m *RunMetrics) Add(o *RunMetrics) (*RunMetrics, error) {
	if !m.sameShape(o) {
		return nil, fmt.Errorf("rfcontrail: cannot add metrics of %d×%d×%d and %d×%d×%d runs",
			m.NumPhotonsPerAngle, m.BinsPhi, m.BinsTheta, o.NumPhotonsPerAngle, o.BinsPhi, o.BinsTheta)
	}
	r := *m
	r.SumTransmitted += o.SumTransmitted
	r.SumAffected += o.SumAffected
	r.SumAbsorbed += o.SumAbsorbed
	r.SumScattered += o.SumScattered
	r.AvgTransmitted += o.AvgTransmitted
	r.AvgAbsorbed += o.AvgAbsorbed
	r.AvgScattered += o.AvgScattered
	r.AvgAffected += o.AvgAffected
	return &r, nil
}

// Mean divides the sums and averages of m by n.
func (m *RunMetrics) Mean(n int) *RunMetrics {
	d := float64(n)
	r := *m
	r.SumTransmitted = round4(m.SumTransmitted / d)
	r.SumAffected = round4(m.SumAffected / d)
	r.SumAbsorbed = round4(m.SumAbsorbed / d)
	r.SumScattered = round4(m.SumScattered / d)
	r.AvgTransmitted = round4(m.AvgTransmitted / d)
	r.AvgAbsorbed = round4(m.AvgAbsorbed / d)
	r.AvgScattered = round4(m.AvgScattered / d)
	r.AvgAffected = round4(m.AvgAffected / d)
	return &r
}

// SquaredError returns the squared differences of the averages of m and o.
// The other fields of the result are zero.
func (m *RunMetrics) SquaredError(o *RunMetrics) *RunMetrics {
	sq := func(a, b float64) float64 { return (a - b) * (a - b) }
	return &RunMetrics{
		AvgTransmitted: sq(m.AvgTransmitted, o.AvgTransmitted),
		AvgAbsorbed:    sq(m.AvgAbsorbed, o.AvgAbsorbed),
		AvgScattered:   sq(m.AvgScattered, o.AvgScattered),
		AvgAffected:    sq(m.AvgAffected, o.AvgAffected),
	}
}

func (m *RunMetrics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total number of processed photons (n_phot)  = %g\n", m.NumPhotons)
	fmt.Fprintf(&b, "Sum of unaffected photons (n_trans)  = %g\n", m.SumTransmitted)
	fmt.Fprintf(&b, "Sum of affected photons (n_affected) = %g\n", m.SumAffected)
	fmt.Fprintf(&b, "Sum of absorbed photons (n_abs)      = %g\n", m.SumAbsorbed)
	fmt.Fprintf(&b, "Sum of scattered photons (n_scat)    = %g\n", m.SumScattered)
	fmt.Fprintf(&b, "n_trans_avg    = %.4f\n", m.AvgTransmitted)
	fmt.Fprintf(&b, "n_abs_avg      = %.4f\n", m.AvgAbsorbed)
	fmt.Fprintf(&b, "n_scat_avg     = %.4f\n", m.AvgScattered)
	fmt.Fprintf(&b, "n_affected_avg = %.4f (out of %d photons per angle)", m.AvgAffected, m.NumPhotonsPerAngle)
	return b.String()
}

// MetricsFileName returns a time-stamped name for the metrics of a run
// in dir.
func MetricsFileName(dir string, m *RunMetrics, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%d_%d_%d_%s.toml",
		m.NumPhotonsPerAngle, m.BinsPhi, m.BinsTheta, t.Format("20060102150405")))
}

// WriteFile writes m to path in TOML format.
func (m *RunMetrics) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return &IOError{Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return &IOError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: path, Err: err}
	}
	return nil
}

// ReadMetricsFile reads metrics written by WriteFile.
func ReadMetricsFile(path string) (*RunMetrics, error) {
	m := new(RunMetrics)
	if _, err := toml.DecodeFile(path, m); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return m, nil
}

// VariationError returns the mean squared deviation of the per-direction
// absorbed and transmitted averages of repeated runs from their mean.
func VariationError(runs []*RunMetrics) (abs, trans float64, err error) {
	if len(runs) == 0 {
		return 0, 0, fmt.Errorf("rfcontrail: no metrics to compare")
	}
	sum := runs[0]
	for _, r := range runs[1:] {
		if sum, err = sum.Add(r); err != nil {
			return 0, 0, err
		}
	}
	mean := sum.Mean(len(runs))
	for _, r := range runs {
		e := r.SquaredError(mean)
		abs += e.AvgAbsorbed
		trans += e.AvgTransmitted
	}
	n := float64(len(runs))
	return abs / n, trans / n, nil
}
