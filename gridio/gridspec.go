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

// Package gridio reads evidence grids into and writes fused results out of
// the dsfuse pipeline. It supports netCDF (classic format) input and output,
// ESRI shapefile output, PNG maps, TOML source manifests, and fetching
// inputs over HTTP or from blob storage.
package gridio

import (
	"fmt"

	"github.com/ctessum/geom"
)

// GridSpec locates a grid in space. Row 0 is the southernmost row and
// column 0 the westernmost column; cell (i, j) spans
// [Xo + j*Dx, Xo + (j+1)*Dx] by [Yo + i*Dy, Yo + (i+1)*Dy].
type GridSpec struct {
	// Xo and Yo are the coordinates of the lower-left corner of the grid.
	Xo, Yo float64

	// Dx and Dy are the cell edge lengths.
	Dx, Dy float64

	// Proj is the spatial reference of the grid in WKT format.
	// It is written alongside shapefile output when not empty.
	Proj string
}

// Check returns an error if the cell sizes are not positive.
func (s GridSpec) Check() error {
	if s.Dx <= 0 || s.Dy <= 0 {
		return fmt.Errorf("gridio: grid cell size must be positive, got %g x %g", s.Dx, s.Dy)
	}
	return nil
}

// Cell returns the polygon covered by cell (i, j).
func (s GridSpec) Cell(i, j int) geom.Polygon {
	x0 := s.Xo + float64(j)*s.Dx
	y0 := s.Yo + float64(i)*s.Dy
	x1, y1 := x0+s.Dx, y0+s.Dy
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}
