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
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// OutputNames lists the names of the output grids in the order they are
// written.
var OutputNames = []string{
	"M", "NM", "Theta", "K",
	"Belief", "Plausibility", "BetP", "Entropy", "TotalUncertainty",
}

// OutputDescriptions describes each output grid.
var OutputDescriptions = map[string]string{
	"M":                "Fused mass assigned to Mineral",
	"NM":               "Fused mass assigned to NonMineral",
	"Theta":            "Fused mass assigned to the whole frame (ignorance)",
	"K":                "Conflict of the final combination step",
	"Belief":           "Belief in Mineral",
	"Plausibility":     "Plausibility of Mineral",
	"BetP":             "Pignistic probability of Mineral",
	"Entropy":          "Shannon entropy of the pignistic probability (nats)",
	"TotalUncertainty": "Total uncertainty",
}

// Results holds the output grids of a pipeline run. Every grid shares the
// same no-data mask.
type Results struct {
	M, NM, Theta, K            *Grid
	Belief, Plausibility, BetP *Grid
	Entropy, TotalUncertainty  *Grid

	Stats RunStats
}

func newResults(rows, cols int) *Results {
	return &Results{
		M: NewGrid(rows, cols), NM: NewGrid(rows, cols), Theta: NewGrid(rows, cols),
		K: NewGrid(rows, cols), Belief: NewGrid(rows, cols), Plausibility: NewGrid(rows, cols),
		BetP: NewGrid(rows, cols), Entropy: NewGrid(rows, cols), TotalUncertainty: NewGrid(rows, cols),
	}
}

func (r *Results) all() []*Grid {
	return []*Grid{r.M, r.NM, r.Theta, r.K, r.Belief, r.Plausibility,
		r.BetP, r.Entropy, r.TotalUncertainty}
}

// Grids returns the output grids keyed by name.
func (r *Results) Grids() map[string]*Grid {
	o := make(map[string]*Grid, len(OutputNames))
	for i, g := range r.all() {
		o[OutputNames[i]] = g
	}
	return o
}

// Grid returns the output grid with the given name.
func (r *Results) Grid(name string) (*Grid, error) {
	g, ok := r.Grids()[name]
	if !ok {
		return nil, fmt.Errorf("dsfuse: invalid output variable %q; valid names are %v", name, OutputNames)
	}
	return g, nil
}

// Dims returns the shape of the output grids.
func (r *Results) Dims() (rows, cols int) { return r.M.Dims() }

func (r *Results) set(i, j int, f FusedMass, m Measures) {
	vals := [...]float64{f.M, f.NM, f.Theta, f.K, m.Belief, m.Plausibility,
		m.BetP, m.Entropy, m.TotalUncertainty}
	for k, g := range r.all() {
		g.Set(i, j, vals[k])
	}
}

func (r *Results) setNoData(i, j int) {
	for _, g := range r.all() {
		g.Set(i, j, math.NaN())
		g.SetNoData(i, j, true)
	}
}

// Summary holds descriptive statistics for the data-bearing cells of a grid.
type Summary struct {
	Valid                  int
	Min, Max, Mean, StdDev float64
}

// Summarize computes statistics over the data-bearing cells of g.
// If g has no data-bearing cells, the statistics are NaN.
func Summarize(g *Grid) Summary {
	v := g.ValidValues()
	if len(v) == 0 {
		nan := math.NaN()
		return Summary{Min: nan, Max: nan, Mean: nan, StdDev: nan}
	}
	s := Summary{Valid: len(v), Min: floats.Min(v), Max: floats.Max(v)}
	if len(v) == 1 {
		s.Mean = v[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(v, nil)
	return s
}

// Summaries returns a Summary for every output grid, keyed by name.
func (r *Results) Summaries() map[string]Summary {
	o := make(map[string]Summary, len(OutputNames))
	for name, g := range r.Grids() {
		o[name] = Summarize(g)
	}
	return o
}
