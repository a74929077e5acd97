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
	"io"
	"math"

	"github.com/ctessum/plotextra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotSpectrum draws the solar, terrestrial and total radiative forcing of
// each wavelength as a PNG image.
func (r *Result) PlotSpectrum(w io.Writer) error {
	var sol, terr, total plotter.XYs
	for _, row := range r.Rows {
		switch row.Part {
		case PartSolarDiffuse:
			sol = append(sol, struct{ X, Y float64 }{row.Lambda, row.RFSolar})
			total = append(total, struct{ X, Y float64 }{row.Lambda, row.RFTotal})
		case PartTerrestrial:
			terr = append(terr, struct{ X, Y float64 }{row.Lambda, row.RFTerrestrial})
		}
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Contrail radiative forcing"
	p.X.Label.Text = "Wavelength (nm)"
	p.Y.Label.Text = "Radiative forcing"
	if cut, ok := r.spectrumBreak(); ok {
		// Solar wavelengths fill the left half of the axis and the much
		// wider terrestrial range the right half.
		p.X.Scale = plotextra.BrokenScale{
			HighCut:         cut,
			HighCutFraction: 0.5,
		}
		p.X.Tick.Marker = plotextra.BrokenTicks{
			HighCut: cut,
		}
	}
	if err := plotutil.AddLinePoints(p, "solar", sol, "terrestrial", terr, "total", total); err != nil {
		return err
	}
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// spectrumBreak returns the longest solar wavelength [nm] if it is shorter
// than all terrestrial wavelengths.
func (r *Result) spectrumBreak() (float64, bool) {
	maxSol, minTerr := math.Inf(-1), math.Inf(1)
	for _, row := range r.Rows {
		switch row.Part {
		case PartSolarDiffuse:
			maxSol = math.Max(maxSol, row.Lambda)
		case PartTerrestrial:
			minTerr = math.Min(minTerr, row.Lambda)
		}
	}
	if math.IsInf(maxSol, 0) || math.IsInf(minTerr, 0) || maxSol >= minTerr {
		return 0, false
	}
	return maxSol, true
}
