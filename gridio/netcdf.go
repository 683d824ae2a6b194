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
	"math"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/dsfuse"
)

// Dimension names used for netCDF grids.
const (
	DimY = "y"
	DimX = "x"
)

// FillValue is written to no-data cells of netCDF output. It is the
// netCDF default fill value for doubles.
const FillValue = 9.9692099683868690e+36

// MassVariables names the netCDF variables holding one source's masses.
type MassVariables struct {
	M, NM, Theta string
}

// DefaultMassVariables are the variable names used when a source does not
// specify its own.
var DefaultMassVariables = MassVariables{M: "mM", NM: "mNM", Theta: "mTheta"}

func (v MassVariables) withDefaults() MassVariables {
	if v.M == "" {
		v.M = DefaultMassVariables.M
	}
	if v.NM == "" {
		v.NM = DefaultMassVariables.NM
	}
	if v.Theta == "" {
		v.Theta = DefaultMassVariables.Theta
	}
	return v
}

// ReadBundle reads one evidence source from a netCDF file. Each mass
// variable must be two-dimensional (y, x). Cells holding the variable's
// fill value or NaN are flagged as no-data and hold NaN.
func ReadBundle(r cdf.ReaderWriterAt, name string, vars MassVariables) (*dsfuse.MassBundle, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("gridio: opening netCDF source %q: %v", name, err)
	}
	vars = vars.withDefaults()
	b := &dsfuse.MassBundle{Name: name}
	for _, v := range []struct {
		name string
		dst  **dsfuse.Grid
	}{{vars.M, &b.M}, {vars.NM, &b.NM}, {vars.Theta, &b.Theta}} {
		g, err := readGrid(f, v.name)
		if err != nil {
			return nil, fmt.Errorf("gridio: source %q: %v", name, err)
		}
		*v.dst = g
	}
	return b, nil
}

// readGrid reads a two-dimensional float variable into a Grid.
func readGrid(f *cdf.File, v string) (*dsfuse.Grid, error) {
	dims := f.Header.Lengths(v)
	if dims == nil {
		return nil, fmt.Errorf("variable %q not found", v)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("variable %q has %d dimensions, want 2", v, len(dims))
	}
	rows, cols := dims[0], dims[1]
	r := f.Reader(v, nil, nil)
	buf := r.Zero(rows * cols)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %q: %v", v, err)
	}

	var data []float64
	var fill float64
	switch d := buf.(type) {
	case []float64:
		data = d
		fill, _ = f.Header.FillValue(v).(float64)
	case []float32:
		data = make([]float64, len(d))
		for i, x := range d {
			data[i] = float64(x)
		}
		fv, _ := f.Header.FillValue(v).(float32)
		fill = float64(fv)
	default:
		return nil, fmt.Errorf("variable %q has unsupported type %T", v, buf)
	}

	g, err := dsfuse.NewGridFromSlice(rows, cols, data)
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x := data[i*cols+j]
			if math.IsNaN(x) || x == fill {
				g.Set(i, j, math.NaN())
				g.SetNoData(i, j, true)
			}
		}
	}
	return g, nil
}

// WriteNetCDF writes the named output grids to w as double-precision
// variables with dimensions (y, x). If names is empty, all outputs are
// written. attrs are stored as global attributes.
func WriteNetCDF(w cdf.ReaderWriterAt, res *dsfuse.Results, spec GridSpec, names []string, attrs map[string]string) error {
	if len(names) == 0 {
		names = dsfuse.OutputNames
	}
	grids := make([]*dsfuse.Grid, len(names))
	for i, n := range names {
		g, err := res.Grid(n)
		if err != nil {
			return err
		}
		grids[i] = g
	}
	rows, cols := res.Dims()

	h := cdf.NewHeader([]string{DimY, DimX}, []int{rows, cols})
	for _, n := range names {
		h.AddVariable(n, []string{DimY, DimX}, []float64{0})
		h.AddAttribute(n, "description", dsfuse.OutputDescriptions[n])
		h.AddAttribute(n, "_FillValue", []float64{FillValue})
	}
	h.AddAttribute("", "Xo", []float64{spec.Xo})
	h.AddAttribute("", "Yo", []float64{spec.Yo})
	h.AddAttribute("", "Dx", []float64{spec.Dx})
	h.AddAttribute("", "Dy", []float64{spec.Dy})
	if spec.Proj != "" {
		h.AddAttribute("", "projection", spec.Proj)
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if attrs[k] != "" {
			h.AddAttribute("", k, attrs[k])
		}
	}
	return writeGrids(w, h, names, grids)
}

// WriteBundle writes an evidence source to w using the variable names in
// vars. It is the inverse of ReadBundle.
func WriteBundle(w cdf.ReaderWriterAt, b *dsfuse.MassBundle, vars MassVariables) error {
	rows, cols, err := b.Dims()
	if err != nil {
		return fmt.Errorf("gridio: %v", err)
	}
	vars = vars.withDefaults()
	names := []string{vars.M, vars.NM, vars.Theta}
	grids := []*dsfuse.Grid{b.M, b.NM, b.Theta}

	h := cdf.NewHeader([]string{DimY, DimX}, []int{rows, cols})
	for _, n := range names {
		h.AddVariable(n, []string{DimY, DimX}, []float64{0})
		h.AddAttribute(n, "_FillValue", []float64{FillValue})
	}
	if b.Name != "" {
		h.AddAttribute("", "source", b.Name)
	}
	return writeGrids(w, h, names, grids)
}

// writeGrids creates a netCDF file with header h and writes each grid to
// the variable of the same index in names.
func writeGrids(w cdf.ReaderWriterAt, h *cdf.Header, names []string, grids []*dsfuse.Grid) error {
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("gridio: creating netCDF header: %v", err)
	}
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("gridio: creating netCDF file: %v", err)
	}
	for k, g := range grids {
		if _, err := f.Writer(names[k], nil, nil).Write(filled(g)); err != nil {
			return fmt.Errorf("gridio: writing variable %s: %v", names[k], err)
		}
	}
	return nil
}

// filled returns the values of g in row-major order with no-data cells
// replaced by FillValue.
func filled(g *dsfuse.Grid) []float64 {
	rows, cols := g.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if g.IsNoData(i, j) {
				data = append(data, FillValue)
			} else {
				data = append(data, g.At(i, j))
			}
		}
	}
	return data
}
