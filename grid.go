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

package dsfuse

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Grid is a rectangular array of float64 values stored in row-major order
// together with a no-data mask of the same shape. Cells flagged as no-data
// carry no meaningful value and are skipped by all calculations.
type Grid struct {
	data   *mat.Dense
	noData []bool
}

// NewGrid returns a grid with the given shape where every cell holds zero
// and is data-bearing. It panics if rows or cols is not positive.
func NewGrid(rows, cols int) *Grid {
	return &Grid{
		data:   mat.NewDense(rows, cols, nil),
		noData: make([]bool, rows*cols),
	}
}

// NewGridFromSlice returns a grid backed by a copy of data, which must be
// in row-major order and have length rows*cols.
func NewGridFromSlice(rows, cols int, data []float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("dsfuse: invalid grid shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("dsfuse: grid data has length %d, want %d", len(data), rows*cols)
	}
	d := make([]float64, len(data))
	copy(d, data)
	return &Grid{
		data:   mat.NewDense(rows, cols, d),
		noData: make([]bool, rows*cols),
	}, nil
}

// Dims returns the number of rows and columns in the grid.
func (g *Grid) Dims() (rows, cols int) { return g.data.Dims() }

// At returns the value at row i, column j.
func (g *Grid) At(i, j int) float64 { return g.data.At(i, j) }

// Set sets the value at row i, column j.
func (g *Grid) Set(i, j int, v float64) { g.data.Set(i, j, v) }

// IsNoData reports whether the cell at row i, column j is no-data.
func (g *Grid) IsNoData(i, j int) bool { return g.noData[g.index(i, j)] }

// SetNoData flags or unflags the cell at row i, column j as no-data.
func (g *Grid) SetNoData(i, j int, noData bool) { g.noData[g.index(i, j)] = noData }

func (g *Grid) index(i, j int) int {
	_, c := g.data.Dims()
	return i*c + j
}

// SameShape reports whether g and o have the same number of rows and columns.
func (g *Grid) SameShape(o *Grid) bool {
	r1, c1 := g.Dims()
	r2, c2 := o.Dims()
	return r1 == r2 && c1 == c2
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	o := &Grid{
		data:   mat.DenseCopyOf(g.data),
		noData: make([]bool, len(g.noData)),
	}
	copy(o.noData, g.noData)
	return o
}

// RawRow returns a copy of row i. No-data cells are included as stored.
func (g *Grid) RawRow(i int) []float64 {
	_, c := g.Dims()
	return mat.Row(make([]float64, c), i, g.data)
}

// ValidValues returns the values of all data-bearing cells in row-major order.
func (g *Grid) ValidValues() []float64 {
	r, c := g.Dims()
	o := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !g.noData[i*c+j] {
				o = append(o, g.data.At(i, j))
			}
		}
	}
	return o
}

// MassBundle holds the three co-registered grids that make up one
// evidence source: the mass assigned to Mineral, to NonMineral and to
// the whole frame (Theta).
type MassBundle struct {
	Name         string
	M, NM, Theta *Grid
}

// Dims returns the shape shared by the bundle's grids, or an error if the
// three grids are missing or do not share a shape.
func (b *MassBundle) Dims() (rows, cols int, err error) {
	if b == nil || b.M == nil || b.NM == nil || b.Theta == nil {
		return 0, 0, fmt.Errorf("source %q is missing one or more mass grids", b.name())
	}
	if !b.M.SameShape(b.NM) || !b.M.SameShape(b.Theta) {
		return 0, 0, fmt.Errorf("source %q: %w", b.name(), ErrShapeMismatch)
	}
	rows, cols = b.M.Dims()
	return rows, cols, nil
}

// NoData reports whether any of the bundle's grids flags cell (i, j) as no-data.
func (b *MassBundle) NoData(i, j int) bool {
	return b.M.IsNoData(i, j) || b.NM.IsNoData(i, j) || b.Theta.IsNoData(i, j)
}

// At returns the raw mass triple stored at cell (i, j).
func (b *MassBundle) At(i, j int) MassTriple {
	return MassTriple{M: b.M.At(i, j), NM: b.NM.At(i, j), Theta: b.Theta.At(i, j)}
}

func (b *MassBundle) name() string {
	if b == nil {
		return "<nil>"
	}
	return b.Name
}
