/*
Copyright © 2026 the dsfuse authors.
This file is part of dsfuse.

dsfuse is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

dsfuse is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with dsfuse.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridio

import (
	"fmt"
	"io"
	"math"

	"github.com/spatialmodel/dsfuse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// gridXYZ adapts a Grid to plotter.GridXYZ.
type gridXYZ struct {
	g        *dsfuse.Grid
	spec     GridSpec
	min, max float64
}

func newGridXYZ(g *dsfuse.Grid, spec GridSpec) gridXYZ {
	s := dsfuse.Summarize(g)
	min, max := s.Min, s.Max
	if s.Valid == 0 {
		min, max = 0, 1
	} else if max == min {
		max = min + 1
	}
	return gridXYZ{g: g, spec: spec, min: min, max: max}
}

func (x gridXYZ) Dims() (c, r int) {
	r, c = x.g.Dims()
	return c, r
}

// Z returns NaN for no-data cells, which the heat map leaves blank.
func (x gridXYZ) Z(c, r int) float64 {
	if x.g.IsNoData(r, c) {
		return math.NaN()
	}
	return x.g.At(r, c)
}

func (x gridXYZ) X(c int) float64 { return x.spec.Xo + (float64(c)+0.5)*x.spec.Dx }
func (x gridXYZ) Y(r int) float64 { return x.spec.Yo + (float64(r)+0.5)*x.spec.Dy }
func (x gridXYZ) Min() float64    { return x.min }
func (x gridXYZ) Max() float64    { return x.max }

// WritePNG draws g as a heat map and writes it to w in PNG format.
func WritePNG(w io.Writer, g *dsfuse.Grid, spec GridSpec, title string) error {
	if err := spec.Check(); err != nil {
		return err
	}
	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("gridio: creating plot: %v", err)
	}
	p.Title.Text = title
	p.X.Label.Text = "Easting"
	p.Y.Label.Text = "Northing"

	xyz := newGridXYZ(g, spec)
	h := plotter.NewHeatMap(xyz, moreland.SmoothBlueRed().Palette(255))
	p.Add(h)

	wt, err := p.WriterTo(6*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("gridio: rendering plot: %v", err)
	}
	if _, err = wt.WriteTo(w); err != nil {
		return fmt.Errorf("gridio: writing plot: %v", err)
	}
	return nil
}
