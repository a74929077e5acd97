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
	"context"
	"errors"
	"io/ioutil"
	"math"
	"testing"

	"github.com/ctessum/atmos/evalstats"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

type recorder struct {
	rows []*DirectionResult
	fail int
}

var errWrite = errors.New("write failed")

func (r *recorder) WriteRow(d *DirectionResult) error {
	if r.fail > 0 && len(r.rows) == r.fail {
		return errWrite
	}
	r.rows = append(r.rows, d)
	return nil
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func testDriver(t *testing.T, workers int, mode RandomMode) *Driver {
	return &Driver{
		Contrail:   testContrail(t, testParams()),
		NumPhotons: 300,
		BinsTheta:  4,
		BinsPhi:    6,
		Resolution: 10,
		Workers:    workers,
		Mode:       mode,
		Seed:       12,
		Log:        quietLog(),
	}
}

func TestDriverTasks(t *testing.T) {
	d := testDriver(t, 1, TaskRandom)
	tasks := d.Tasks()
	if len(tasks) != 24 {
		t.Fatalf("have %d tasks, want 24", len(tasks))
	}
	for i, task := range tasks {
		if task.Index != i {
			t.Errorf("task %d has index %d", i, task.Index)
		}
	}
	task := tasks[7]
	if different(task.Theta, 3*math.Pi/8, 1e-12) || different(task.Phi, math.Pi/2, 1e-12) {
		t.Errorf("task 7 at (%g, %g), want (3π/8, π/2)", task.Theta, task.Phi)
	}
	if task.NumPhotons != 300 || task.Resolution != 10 {
		t.Errorf("task 7: %d photons at resolution %d", task.NumPhotons, task.Resolution)
	}
}

func TestDriverOrder(t *testing.T) {
	for _, mode := range []RandomMode{SharedRandom, WorkerRandom, TaskRandom} {
		t.Run(mode.String(), func(t *testing.T) {
			d := testDriver(t, 4, mode)
			var w recorder
			m, err := d.RunDiffuse(context.Background(), &w)
			if err != nil {
				t.Fatal(err)
			}
			if len(w.rows) != 24 {
				t.Fatalf("have %d rows, want 24", len(w.rows))
			}
			for i, r := range w.rows {
				if r.Index != i {
					t.Fatalf("row %d holds direction %d", i, r.Index)
				}
			}
			if m.NumPhotons != 24*300 {
				t.Errorf("metrics photons: have %g, want %d", m.NumPhotons, 24*300)
			}
		})
	}
}

// Results in task mode do not depend on the number of workers.
func TestDriverTaskModeWorkers(t *testing.T) {
	var runs [2]recorder
	for i, workers := range []int{1, 4} {
		if _, err := testDriver(t, workers, TaskRandom).RunDiffuse(context.Background(), &runs[i]); err != nil {
			t.Fatal(err)
		}
	}
	if diff := pretty.Diff(runs[0].rows, runs[1].rows); len(diff) != 0 {
		t.Errorf("1 and 4 workers differ: %v", diff)
	}
}

// Shared mode is reproducible even when more workers are requested.
func TestDriverSharedMode(t *testing.T) {
	d := testDriver(t, 8, SharedRandom)
	if n := d.workers(); n != 1 {
		t.Fatalf("shared mode runs %d workers", n)
	}
	var a, b recorder
	if _, err := d.RunDiffuse(context.Background(), &a); err != nil {
		t.Fatal(err)
	}
	if _, err := testDriver(t, 8, SharedRandom).RunDiffuse(context.Background(), &b); err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(a.rows, b.rows); len(diff) != 0 {
		t.Errorf("runs with the same seed differ: %v", diff)
	}
}

func absorbedFractions(rows []*DirectionResult) []float64 {
	o := make([]float64, len(rows))
	for i, r := range rows {
		o[i] = float64(r.Absorbed+r.Scattered) / float64(r.NumPhotons)
	}
	return o
}

// Worker mode is not reproducible, but one and several workers sample the
// same distribution.
func TestDriverWorkerMode(t *testing.T) {
	var runs [2]recorder
	for i, workers := range []int{1, 4} {
		d := testDriver(t, workers, WorkerRandom)
		d.NumPhotons = 5000
		if _, err := d.RunDiffuse(context.Background(), &runs[i]); err != nil {
			t.Fatal(err)
		}
	}
	one, four := absorbedFractions(runs[0].rows), absorbedFractions(runs[1].rows)
	a, b := stat.Mean(one, nil), stat.Mean(four, nil)

	// Each photon interacts or not, so the mean fractions are binomial and
	// their difference has at most this standard error.
	p := (a + b) / 2
	n := float64(len(one) * 5000)
	se := math.Sqrt(2 * p * (1 - p) / n)
	if mb := evalstats.MB(one, four); math.Abs(mb) > 4*se {
		t.Errorf("interaction fraction: 1 worker %g, 4 workers %g, mean bias %g > 4σ = %g (MFE %.1f%%)",
			a, b, mb, 4*se, evalstats.MFE(one, four)*100)
	}
}

func TestDriverWriteError(t *testing.T) {
	w := recorder{fail: 5}
	_, err := testDriver(t, 3, TaskRandom).RunDiffuse(context.Background(), &w)
	if !errors.Is(err, errWrite) {
		t.Errorf("have error %v, want errWrite", err)
	}
	if len(w.rows) != 5 {
		t.Errorf("have %d rows before the failure, want 5", len(w.rows))
	}
}

func TestDriverWorkerError(t *testing.T) {
	p := testParams()
	p.Qabs = 0
	p.NumIce = 1e18
	p.MaxEvents = 1
	d := testDriver(t, 2, TaskRandom)
	d.Contrail = testContrail(t, p)
	var w recorder
	_, err := d.RunDiffuse(context.Background(), &w)
	var we *WorkerError
	if !errors.As(err, &we) {
		t.Fatalf("expected a WorkerError, got %v", err)
	}
	if !errors.Is(err, ErrMaxEvents) {
		t.Errorf("have error %v, want ErrMaxEvents", err)
	}
}

func TestDriverPanic(t *testing.T) {
	p := testParams()
	p.Qabs = 0
	p.NumIce = 1e18
	d := testDriver(t, 2, TaskRandom)
	d.Contrail = testContrail(t, p)
	d.Contrail.Phase = nil
	var w recorder
	_, err := d.RunDiffuse(context.Background(), &w)
	var we *WorkerError
	if !errors.As(err, &we) {
		t.Fatalf("expected a WorkerError, got %v", err)
	}
	if len(w.rows) != 0 {
		t.Errorf("have %d rows, want 0", len(w.rows))
	}
}

func TestDriverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var w recorder
	_, err := testDriver(t, 2, TaskRandom).RunDiffuse(ctx, &w)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("have error %v, want context.Canceled", err)
	}
}

func TestDriverConfig(t *testing.T) {
	d := testDriver(t, 1, TaskRandom)
	d.Resolution = 7
	_, err := d.RunDiffuse(context.Background(), new(recorder))
	if !errors.Is(err, ErrResolution) {
		t.Errorf("have error %v, want ErrResolution", err)
	}
}

func TestRunDirect(t *testing.T) {
	d := testDriver(t, 1, TaskRandom)
	d.NumPhotons = 3000
	r, err := d.RunDirect(context.Background(), 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if r.Theta != 0.5 || r.Phi != 1 {
		t.Errorf("direction (%g, %g), want (0.5, 1)", r.Theta, r.Phi)
	}
	if r.Absorbed+r.Transmitted+r.Scattered != d.NumPhotons {
		t.Errorf("%d+%d+%d photons, want %d", r.Absorbed, r.Transmitted, r.Scattered, d.NumPhotons)
	}
	again, err := d.RunDirect(context.Background(), 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(r, again); len(diff) != 0 {
		t.Errorf("not reproducible: %v", diff)
	}
}
