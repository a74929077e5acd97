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
	"math/rand"
	"sync"
	"time"
)

// Source is a stream of uniform random numbers in [0, 1).
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// RandomMode selects how random sources are assigned when direction tasks
// run on the worker pool.
type RandomMode int

const (
	// SharedRandom uses one seeded generator for the whole run. The draw
	// order is only enumerable with a single worker, so the driver runs
	// sequentially in this mode.
	SharedRandom RandomMode = iota

	// WorkerRandom gives each worker its own generator. Results are not
	// reproducible because task-to-worker assignment depends on scheduling.
	WorkerRandom

	// TaskRandom gives each direction its own generator seeded from the run
	// seed and the direction index, so results are identical for any
	// number of workers.
	TaskRandom
)

func (m RandomMode) String() string {
	switch m {
	case SharedRandom:
		return "shared"
	case WorkerRandom:
		return "worker"
	case TaskRandom:
		return "task"
	default:
		return fmt.Sprintf("RandomMode(%d)", int(m))
	}
}

// ParseRandomMode converts a configuration value into a RandomMode.
func ParseRandomMode(s string) (RandomMode, error) {
	switch s {
	case "shared":
		return SharedRandom, nil
	case "worker", "":
		return WorkerRandom, nil
	case "task":
		return TaskRandom, nil
	}
	return 0, &ConfigError{Param: "common.random_mode",
		Err: fmt.Errorf("%q should be shared, worker, or task", s)}
}

// lockedSource is a generator that can be shared between goroutines.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSharedSource returns a seeded generator guarded by a mutex.
func NewSharedSource(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	v := s.r.Float64()
	s.mu.Unlock()
	return v
}

// NewSource returns an unsynchronized generator for a single goroutine.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// taskSeed derives the seed for direction index i (splitmix64 finalizer).
func taskSeed(seed int64, i int) int64 {
	z := uint64(seed) + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// workerSeed is the seed of worker w in WorkerRandom mode. A zero run seed
// means the clock is used.
func workerSeed(seed int64, w int) int64 {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return taskSeed(seed, -1-w)
}
