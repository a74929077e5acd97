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

// Package libradtran reads the spectral radiance and irradiance output of
// the libRadtran uvspec and twostr solvers.
package libradtran

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/rfcontrail"
)

// ErrNoBlock is returned when no block matches a wavelength.
var ErrNoBlock = errors.New("libradtran: no block for wavelength")

// LambdaTolerance is the largest difference [nm] between a requested
// wavelength and the wavelength of a matching block.
const LambdaTolerance = 0.01

// Block is the output for one wavelength.
type Block struct {
	// Lambda is the wavelength [nm].
	Lambda float64

	// Irradiances: direct, diffuse downward and diffuse upward.
	Edir, Edn, Eup float64

	// Mean intensities: direct, diffuse downward and diffuse upward. The
	// twostr solver only provides Uavgdir, its average intensity.
	Uavgdir, Uavgdn, Uavgup float64

	// Umu holds the cosines of the radiance zenith angles and U0u the
	// azimuthally averaged radiances, one per row of Uu.
	Umu, U0u []float64

	// Phi holds the radiance azimuths [deg] of the columns of Uu.
	Phi []float64

	// Uu holds the radiances by row (umu) and column (phi).
	Uu [][]float64
}

// parseLine converts the fields of a line into numbers.
func parseLine(l string) ([]float64, error) {
	f := strings.Fields(l)
	o := make([]float64, len(f))
	for i, s := range f {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		o[i] = v
	}
	return o, nil
}

func skip(l string) bool {
	t := strings.TrimSpace(l)
	return t == "" || strings.HasPrefix(t, "//")
}

type state int

const (
	header state = iota
	columns
	rows
)

// ParseUVSpec reads the blocks of uvspec radiance output. Each block has a
// line of seven values (lambda edir edn eup uavgdir uavgdn uavgup), a line
// of azimuths and rows of "umu u0u uu...". A line that starts with two
// spaces after the rows of a block begins the next block.
func ParseUVSpec(r io.Reader) ([]*Block, error) {
	var blocks []*Block
	b := new(Block)
	st := header
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		l := s.Text()
		if skip(l) {
			continue
		}
		nums, err := parseLine(l)
		if err != nil {
			return nil, fmt.Errorf("libradtran: uvspec line %d: %v", line, err)
		}
		if st == rows {
			if !strings.HasPrefix(l, "  ") {
				if len(nums) < 2 {
					return nil, fmt.Errorf("libradtran: uvspec line %d: expected at least 2 values, got %d", line, len(nums))
				}
				if len(b.Phi) != 0 && len(nums)-2 != len(b.Phi) {
					return nil, fmt.Errorf("libradtran: uvspec line %d: %d radiances but %d azimuths", line, len(nums)-2, len(b.Phi))
				}
				b.Umu = append(b.Umu, nums[0])
				b.U0u = append(b.U0u, nums[1])
				b.Uu = append(b.Uu, nums[2:])
				continue
			}
			blocks = append(blocks, b)
			b = new(Block)
			st = header
		}
		switch st {
		case header:
			if len(nums) != 7 {
				return nil, fmt.Errorf("libradtran: uvspec line %d: expected 7 values, got %d", line, len(nums))
			}
			b.Lambda, b.Edir, b.Edn, b.Eup = nums[0], nums[1], nums[2], nums[3]
			b.Uavgdir, b.Uavgdn, b.Uavgup = nums[4], nums[5], nums[6]
			st = columns
		case columns:
			b.Phi = nums
			st = rows
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if st != header {
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// ParseTwoStr reads twostr irradiance output: one line of
// "lambda edir edn eup uavg" per wavelength.
func ParseTwoStr(r io.Reader) ([]*Block, error) {
	var blocks []*Block
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		l := s.Text()
		if skip(l) {
			continue
		}
		nums, err := parseLine(l)
		if err != nil {
			return nil, fmt.Errorf("libradtran: twostr line %d: %v", line, err)
		}
		if len(nums) != 5 {
			return nil, fmt.Errorf("libradtran: twostr line %d: expected 5 values, got %d", line, len(nums))
		}
		blocks = append(blocks, &Block{
			Lambda: nums[0], Edir: nums[1], Edn: nums[2], Eup: nums[3], Uavgdir: nums[4],
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func readFile(path string, parse func(io.Reader) ([]*Block, error)) ([]*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return b, nil
}

// ReadUVSpecFile parses a uvspec output file.
func ReadUVSpecFile(path string) ([]*Block, error) { return readFile(path, ParseUVSpec) }

// ReadTwoStrFile parses a twostr output file.
func ReadTwoStrFile(path string) ([]*Block, error) { return readFile(path, ParseTwoStr) }

// Find returns the first block whose wavelength is within
// LambdaTolerance of lambda [nm].
func Find(blocks []*Block, lambda float64) (*Block, error) {
	for _, b := range blocks {
		if math.Abs(b.Lambda-lambda) <= LambdaTolerance {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: lambda = %.2f", ErrNoBlock, lambda)
}

// ConvertLambda converts the wavelengths of blocks, given in unit from, into
// nm. libRadtran writes wavenumbers (cm-1) for some band parameterizations.
func ConvertLambda(blocks []*Block, from *unit.Unit) error {
	for _, b := range blocks {
		l, err := rfcontrail.ConvertWavelength(b.Lambda, from, rfcontrail.Nanometer)
		if err != nil {
			return fmt.Errorf("libradtran: %v", err)
		}
		b.Lambda = l
	}
	return nil
}

// PhiToModel converts a libRadtran azimuth [deg] into the azimuth
// relative to the flight direction of an aircraft with heading psi [deg].
func PhiToModel(psi, phi float64) float64 { return phi - 180 + psi }

// DiffuseRadiance returns the radiance of the block nearest to direction
// (theta, phi) [rad] for an aircraft heading psi [deg]. The row is the
// closest umu to cos(theta) and the column the closest converted azimuth
// to phi; ties go to the first.
func (b *Block) DiffuseRadiance(theta, phi, psi float64) (float64, error) {
	if len(b.Uu) == 0 || len(b.Phi) == 0 {
		return math.NaN(), fmt.Errorf("libradtran: block at lambda %g has no radiance table", b.Lambda)
	}
	mu := math.Cos(theta)
	row := argMin(len(b.Umu), func(i int) float64 { return math.Abs(mu - b.Umu[i]) })
	deg := phi * 180 / math.Pi
	col := argMin(len(b.Phi), func(i int) float64 { return math.Abs(deg - PhiToModel(psi, b.Phi[i])) })
	return b.Uu[row][col], nil
}

func argMin(n int, dist func(int) float64) int {
	best, min := 0, math.Inf(1)
	for i := 0; i < n; i++ {
		if d := dist(i); d < min {
			best, min = i, d
		}
	}
	return best
}
