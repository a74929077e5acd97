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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// File name suffixes of the three output parts.
const (
	SolarDiffuseSuffix       = "_solar_diffuse"
	SolarDirectSuffix        = "_solar_direct"
	TerrestrialDiffuseSuffix = "_terrestrial_diffuse"
)

// OutputFileName returns the path of the output table for one spectral
// part at wavelength lambda.
func OutputFileName(dir, prefix, suffix string, lambda float64) string {
	return filepath.Join(dir, fmt.Sprintf("%s%s_%.2f.csv", prefix, suffix, lambda))
}

// outputPattern matches the file names produced by OutputFileName. An
// empty prefix matches any prefix.
func outputPattern(prefix, suffix string) *regexp.Regexp {
	p := ".*"
	if prefix != "" {
		p = regexp.QuoteMeta(prefix)
	}
	return regexp.MustCompile("^" + p + regexp.QuoteMeta(suffix) + `_[+]?([0-9]*[.])?[0-9]+\.csv$`)
}

// FindOutputFiles returns the output tables in dir that belong to the
// given part, sorted by name.
func FindOutputFiles(dir, prefix, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Path: dir, Err: err}
	}
	re := outputPattern(prefix, suffix)
	var files []string
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// CheckOverwrite returns an error if dir already holds an output table of
// the given part for spectral band index band, unless force is true.
func CheckOverwrite(dir, prefix, suffix string, band int, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	files, err := FindOutputFiles(dir, prefix, suffix)
	if err != nil {
		return err
	}
	for _, f := range files {
		t, err := ReadTableFile(f)
		if err != nil {
			return err
		}
		if v, ok := t.Params["spectral_band_index"]; ok && v == strconv.Itoa(band) {
			return &IOError{Path: f, Err: fmt.Errorf("%w for spectral band %d; use --force to overwrite", ErrOutputExists, band)}
		}
	}
	return nil
}
