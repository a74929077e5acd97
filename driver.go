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
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RowWriter receives direction results in direction index order.
type RowWriter interface {
	WriteRow(*DirectionResult) error
}

// Driver runs the direction tasks of a simulation on a pool of workers.
type Driver struct {
	Contrail *Contrail

	NumPhotons         int
	BinsTheta, BinsPhi int

	// Resolution is the exit zenith angle bin width [deg].
	Resolution int

	// Workers is the number of concurrent workers. Zero means
	// runtime.GOMAXPROCS(0). Shared random mode always uses one worker.
	Workers int

	Mode RandomMode
	Seed int64

	Log logrus.FieldLogger
}

func (d *Driver) log() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

func (d *Driver) workers() int {
	if d.Mode == SharedRandom {
		return 1
	}
	if d.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return d.Workers
}

func (d *Driver) check() error {
	if d.Contrail == nil {
		return &ConfigError{Err: fmt.Errorf("driver has no contrail")}
	}
	if d.NumPhotons <= 0 {
		return &ConfigError{Param: "common.num_photons", Err: fmt.Errorf("%d should be >0", d.NumPhotons)}
	}
	return CheckResolution(d.Resolution)
}

// Tasks returns the incident directions of the diffuse grid. Bin centers
// are at theta = (i+½)·π/BinsTheta and phi = (j+½)·2π/BinsPhi, and the
// index runs over phi fastest.
func (d *Driver) Tasks() []DirectionTask {
	dTheta := math.Pi / float64(d.BinsTheta)
	dPhi := 2 * math.Pi / float64(d.BinsPhi)
	tasks := make([]DirectionTask, 0, d.BinsTheta*d.BinsPhi)
	for i := 0; i < d.BinsTheta; i++ {
		for j := 0; j < d.BinsPhi; j++ {
			tasks = append(tasks, DirectionTask{
				Index:      len(tasks),
				Theta:      (0.5 + float64(i)) * dTheta,
				Phi:        (0.5 + float64(j)) * dPhi,
				NumPhotons: d.NumPhotons,
				Resolution: d.Resolution,
			})
		}
	}
	return tasks
}

type taskResult struct {
	r   *DirectionResult
	err error
}

// run executes one task and turns failures and panics into a WorkerError.
func (d *Driver) run(t DirectionTask, src Source) (res taskResult) {
	defer func() {
		if p := recover(); p != nil {
			res = taskResult{err: &WorkerError{Index: t.Index, Theta: t.Theta, Phi: t.Phi, Err: fmt.Errorf("panic: %v", p)}}
		}
	}()
	r, err := t.Run(d.Contrail, src)
	if err != nil {
		return taskResult{err: &WorkerError{Index: t.Index, Theta: t.Theta, Phi: t.Phi, Err: err}}
	}
	return taskResult{r: r}
}

// RunDiffuse traces every direction of the diffuse grid and passes the
// results to w in index order while later directions are still running.
// At most 2·Workers results are held in memory at once. The first failure
// stops the run.
func (d *Driver) RunDiffuse(ctx context.Context, w RowWriter) (*RunMetrics, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if d.BinsTheta <= 0 || d.BinsPhi <= 0 {
		return nil, &ConfigError{Param: "bins_theta", Err: fmt.Errorf("grid of %d×%d directions", d.BinsTheta, d.BinsPhi)}
	}
	tasks := d.Tasks()
	workers := d.workers()
	window := 2 * workers
	log := d.log().WithFields(logrus.Fields{
		"part":        d.Contrail.Params.Kind,
		"directions":  len(tasks),
		"workers":     workers,
		"random_mode": d.Mode,
	})
	log.Info("starting diffuse radiation simulation")

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	// A token is taken before a task is dispatched and returned once its
	// result has been consumed, so task i and task i+window never share
	// a result slot at the same time.
	tokens := make(chan struct{}, window)
	slots := make([]chan taskResult, window)
	for i := range slots {
		slots[i] = make(chan taskResult, 1)
	}
	taskCh := make(chan DirectionTask)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(taskCh)
		for _, t := range tasks {
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				return
			}
			select {
			case taskCh <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	var shared Source
	if d.Mode == SharedRandom {
		shared = NewSharedSource(d.Seed)
	}
	wg.Add(workers)
	for p := 0; p < workers; p++ {
		go func(p int) {
			defer wg.Done()
			src := shared
			if d.Mode == WorkerRandom {
				src = NewSource(workerSeed(d.Seed, p))
			}
			for t := range taskCh {
				s := src
				if d.Mode == TaskRandom {
					s = NewSource(taskSeed(d.Seed, t.Index))
				}
				var res taskResult
				if err := ctx.Err(); err != nil {
					res.err = err
				} else {
					res = d.run(t, s)
				}
				slots[t.Index%window] <- res
			}
		}(p)
	}

	var trans, abs, scat int64
	start := time.Now()
	every := len(tasks) / 20
	if every < 1 {
		every = 1
	}
	for i := range tasks {
		var res taskResult
		select {
		case res = <-slots[i%window]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.err != nil {
			return nil, res.err
		}
		r := res.r
		if err := w.WriteRow(r); err != nil {
			return nil, err
		}
		<-tokens
		trans += int64(r.Transmitted)
		abs += int64(r.Absorbed)
		scat += int64(r.Scattered)

		log.WithFields(logrus.Fields{"index": r.Index, "theta": r.Theta, "phi": r.Phi}).Debug("direction finished")
		if done := i + 1; done%every == 0 || done == len(tasks) {
			elapsed := time.Since(start)
			left := time.Duration(float64(elapsed) * float64(len(tasks)-done) / float64(done))
			log.WithFields(logrus.Fields{
				"elapsed":   elapsed.Round(time.Second),
				"remaining": left.Round(time.Second),
			}).Infof("processed %d out of %d directions (%.2f%%)", done, len(tasks), 100*float64(done)/float64(len(tasks)))
		}
	}
	m := newRunMetrics(d.NumPhotons, d.BinsPhi, d.BinsTheta, trans, abs, scat)
	log.Info("diffuse radiation simulation finished\n" + m.String())
	return m, nil
}

// RunDirect traces the photons of a single incident direction, the
// position of the sun in a direct solar simulation.
func (d *Driver) RunDirect(ctx context.Context, sza, phi0 float64) (*DirectionResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var src Source
	switch d.Mode {
	case SharedRandom:
		src = NewSharedSource(d.Seed)
	case WorkerRandom:
		src = NewSource(workerSeed(d.Seed, 0))
	default:
		src = NewSource(taskSeed(d.Seed, 0))
	}
	log := d.log().WithFields(logrus.Fields{"sza": sza, "phi0": phi0})
	log.Info("starting direct radiation simulation")
	t := DirectionTask{Theta: sza, Phi: phi0, NumPhotons: d.NumPhotons, Resolution: d.Resolution}
	res := d.run(t, src)
	if res.err != nil {
		return nil, res.err
	}
	r := res.r
	log.WithFields(logrus.Fields{
		"absorbed":           r.Absorbed,
		"scattered":          r.Scattered,
		"scattered_multiple": r.ScatteredMultiple,
		"scattered_up":       r.ScatteredUp,
		"scattered_down":     r.ScatteredDown,
		"transmitted":        r.Transmitted,
	}).Info("direct radiation simulation finished")
	return r, nil
}
