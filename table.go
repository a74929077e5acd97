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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Names of the output tables.
const (
	DiffuseTableName = "DIFFUSE_SCATTERED_RADIATION"
	DirectTableName  = "DIRECT_SCATTERED_RADIATION"
)

// Column names shared by the output tables.
const (
	ColTheta            = "theta"
	ColPhi              = "phi"
	ColNumAbs           = "num_abs"
	ColNumScattered     = "num_scattered"
	ColNumScatteredUp   = "num_scattered_up"
	ColNumScatteredDown = "num_scattered_down"
	ColCorrectionFactor = "correction_factor"
	ColAvgScattered     = "average_scattered"
	ColNumAffected      = "num_affected"

	ColSza         = "sza"
	ColPhi0        = "phi0"
	ColNumAbsorbed = "num_absorbed"
)

// DiffuseColumns returns the column names of a diffuse table with exit
// angle bins of width resolution [deg].
func DiffuseColumns(resolution int) []string {
	cols := []string{ColTheta, ColPhi, ColNumAbs, ColNumScattered, ColNumScatteredUp,
		ColNumScatteredDown, ColCorrectionFactor, ColAvgScattered, ColNumAffected}
	for s := resolution; s <= 180; s += resolution {
		cols = append(cols, "S_"+strconv.Itoa(s))
	}
	return cols
}

// DirectColumns returns the column names of the direct table.
func DirectColumns() []string {
	return []string{ColSza, ColPhi0, ColNumAbsorbed, ColNumScattered, ColNumScatteredUp,
		ColNumScatteredDown, ColCorrectionFactor}
}

func writeHeader(w io.Writer, name string, columns []string, groups ...[]param) error {
	for _, g := range groups {
		for _, p := range g {
			if _, err := fmt.Fprintf(w, "// %s = %s\n", p.key, p.value); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "//%s\n%s\n", name, strings.Join(columns, " "))
	return err
}

// TableWriter streams the rows of a diffuse output table.
type TableWriter struct {
	w              *bufio.Writer
	incidentRadius float64
	numPhotons     int
	bins           int
	buf            []string
}

// NewTableWriter writes the header of a diffuse output table to w and
// returns a writer for its rows.
func NewTableWriter(w io.Writer, c *CommonParams, d *DiffuseParams) (*TableWriter, error) {
	if err := CheckResolution(d.ResolutionS); err != nil {
		return nil, err
	}
	t := &TableWriter{
		w:              bufio.NewWriter(w),
		incidentRadius: d.RadiusIncident,
		numPhotons:     c.NumPhotons,
		bins:           180 / d.ResolutionS,
	}
	if err := writeHeader(t.w, DiffuseTableName, DiffuseColumns(d.ResolutionS), c.params(), d.params()); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteRow writes the statistics of one direction.
func (t *TableWriter) WriteRow(r *DirectionResult) error {
	if len(r.Bins) != t.bins {
		return fmt.Errorf("rfcontrail: direction %d has %d bins but the table has %d", r.Index, len(r.Bins), t.bins)
	}
	f := CorrectionFactor(t.incidentRadius, r.Theta, r.Phi, t.numPhotons)
	t.buf = append(t.buf[:0],
		ftoa(r.Theta), ftoa(r.Phi),
		strconv.Itoa(r.Absorbed), strconv.Itoa(r.Scattered),
		strconv.Itoa(r.ScatteredUp), strconv.Itoa(r.ScatteredDown),
		ftoa(f), ftoa(r.AvgScattering), strconv.Itoa(r.Affected()))
	for _, n := range r.Bins {
		t.buf = append(t.buf, ftoa(float64(n)*f))
	}
	_, err := fmt.Fprintln(t.w, strings.Join(t.buf, " "))
	return err
}

// Flush writes any buffered rows to the underlying writer.
func (t *TableWriter) Flush() error { return t.w.Flush() }

// WriteDirectTable writes the single-row output table of a direct run.
func WriteDirectTable(w io.Writer, c *CommonParams, d *DiffuseParams, dir *DirectParams, r *DirectionResult) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, DirectTableName, DirectColumns(), c.params(), d.params(), dir.params()); err != nil {
		return err
	}
	f := CorrectionFactor(d.RadiusIncident, dir.Sza, dir.Phi0, c.NumPhotons)
	row := []string{ftoa(dir.Sza), ftoa(dir.Phi0),
		strconv.Itoa(r.Absorbed), strconv.Itoa(r.Scattered),
		strconv.Itoa(r.ScatteredUp), strconv.Itoa(r.ScatteredDown), ftoa(f)}
	if _, err := fmt.Fprintln(bw, strings.Join(row, " ")); err != nil {
		return err
	}
	return bw.Flush()
}

// Table is a parsed output table.
type Table struct {
	Name string

	Common  CommonParams
	Diffuse DiffuseParams
	Direct  DirectParams

	// Params holds the raw values of all header parameters, including the
	// ones that no field is set from.
	Params map[string]string

	Columns []string
	Rows    [][]float64
}

// ReadTable parses an output table. Header lines of the form
// "// key = value" set parameters, the first other comment line names the
// table and the first non-comment line holds the column names. Header lines
// are split at the first "=" and the value is kept as written, apart from
// leading and trailing space.
func ReadTable(r io.Reader) (*Table, error) {
	t := &Table{Params: make(map[string]string)}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for s.Scan() {
		line++
		l := strings.TrimSpace(s.Text())
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "//") {
			c := l[2:]
			if i := strings.Index(c, "="); i >= 0 {
				key := strings.TrimSpace(c[:i])
				value := strings.TrimSpace(c[i+1:])
				if err := t.setParam(key, value); err != nil {
					return nil, fmt.Errorf("rfcontrail: line %d: %v", line, err)
				}
			} else if t.Name == "" {
				t.Name = strings.TrimSpace(c)
			}
			continue
		}
		fields := strings.Fields(l)
		if t.Columns == nil {
			t.Columns = fields
			continue
		}
		if len(fields) != len(t.Columns) {
			return nil, fmt.Errorf("rfcontrail: line %d: %d values but %d columns", line, len(fields), len(t.Columns))
		}
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("rfcontrail: line %d, column %s: %v", line, t.Columns[i], err)
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if t.Columns == nil {
		return nil, fmt.Errorf("rfcontrail: table has no column header")
	}
	return t, nil
}

// ReadTableFile parses the output table in file path.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return t, nil
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	for i, c := range t.Columns {
		if c == name {
			o := make([]float64, len(t.Rows))
			for j, r := range t.Rows {
				o[j] = r[i]
			}
			return o, nil
		}
	}
	return nil, fmt.Errorf("rfcontrail: table %s has no column %s", t.Name, name)
}
