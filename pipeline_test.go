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
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// constBundle returns a source whose cells all hold m.
func constBundle(name string, rows, cols int, m MassTriple) *MassBundle {
	b := &MassBundle{Name: name, M: NewGrid(rows, cols), NM: NewGrid(rows, cols), Theta: NewGrid(rows, cols)}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.M.Set(i, j, m.M)
			b.NM.Set(i, j, m.NM)
			b.Theta.Set(i, j, m.Theta)
		}
	}
	return b
}

func randomBundle(name string, rows, cols int, r *rand.Rand) *MassBundle {
	b := constBundle(name, rows, cols, MassTriple{})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.M.Set(i, j, r.Float64())
			b.NM.Set(i, j, r.Float64())
			b.Theta.Set(i, j, r.Float64())
		}
	}
	return b
}

func newTestPipeline(t *testing.T, cfg Config) (*Pipeline, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	p, err := NewPipeline(cfg, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	return p, hook
}

func TestPipelineTwoSources(t *testing.T) {
	p, hook := newTestPipeline(t, DefaultConfig())
	res, err := p.Run([]*MassBundle{
		constBundle("geochem", 3, 4, MassTriple{M: 0.7, NM: 0.1, Theta: 0.2}),
		constBundle("geophys", 3, 4, MassTriple{M: 0.6, NM: 0.2, Theta: 0.2}),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		"M": 0.775, "NM": 0.1, "Theta": 0.05, "K": 0.2,
		"Belief": 0.775, "Plausibility": 0.825, "BetP": 0.8,
	}
	for name, w := range want {
		g, err := res.Grid(name)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 4; j++ {
				if g.IsNoData(i, j) {
					t.Fatalf("%s[%d,%d] should hold data", name, i, j)
				}
				if different(g.At(i, j), w, tol) {
					t.Errorf("%s[%d,%d]: have %g, want %g", name, i, j, g.At(i, j), w)
				}
			}
		}
	}
	if res.Stats.Valid != 12 || res.Stats.Cells != 12 {
		t.Errorf("stats: have %+v", res.Stats)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.InfoLevel {
		t.Errorf("expected a summary log entry, have %v", e)
	}
}

func TestPipelineSingleIgnorantSource(t *testing.T) {
	p, _ := newTestPipeline(t, DefaultConfig())
	res, err := p.Run([]*MassBundle{constBundle("vacuous", 5, 5, Ignorance)})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if res.M.At(i, j) != 0 || res.NM.At(i, j) != 0 || res.Theta.At(i, j) != 1 {
				t.Fatalf("fused output should equal input at [%d,%d]", i, j)
			}
			if different(res.BetP.At(i, j), 0.5, tol) {
				t.Errorf("BetP: have %g, want 0.5", res.BetP.At(i, j))
			}
			if different(res.Entropy.At(i, j), math.Ln2, tol) {
				t.Errorf("Entropy: have %g, want ln 2", res.Entropy.At(i, j))
			}
			if res.K.At(i, j) != 0 {
				t.Errorf("K: have %g, want 0", res.K.At(i, j))
			}
		}
	}
}

func TestPipelineNoDataCell(t *testing.T) {
	a := constBundle("a", 3, 3, MassTriple{M: 0.7, NM: 0.1, Theta: 0.2})
	b := constBundle("b", 3, 3, MassTriple{M: 0.6, NM: 0.2, Theta: 0.2})
	b.M.Set(1, 1, 0)
	b.NM.Set(1, 1, 0)
	b.Theta.Set(1, 1, 0)
	a.M.Set(0, 2, math.NaN())

	p, _ := newTestPipeline(t, DefaultConfig())
	res, err := p.Run([]*MassBundle{a, b})
	if err != nil {
		t.Fatal(err)
	}
	for name, g := range res.Grids() {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				bad := (i == 1 && j == 1) || (i == 0 && j == 2)
				if g.IsNoData(i, j) != bad {
					t.Errorf("%s[%d,%d]: no-data = %v, want %v", name, i, j, g.IsNoData(i, j), bad)
				}
				if !bad && math.IsNaN(g.At(i, j)) {
					t.Errorf("%s[%d,%d] should be computed", name, i, j)
				}
			}
		}
	}
	if res.Stats.InvalidMass != 2 || res.Stats.Valid != 7 {
		t.Errorf("stats: have %+v", res.Stats)
	}
}

func TestPipelineTotalConflictCell(t *testing.T) {
	a := constBundle("a", 2, 2, MassTriple{M: 0.5, NM: 0.25, Theta: 0.25})
	b := constBundle("b", 2, 2, MassTriple{M: 0.5, NM: 0.25, Theta: 0.25})
	a.M.Set(0, 0, 1)
	a.NM.Set(0, 0, 0)
	a.Theta.Set(0, 0, 0)
	b.M.Set(0, 0, 0)
	b.NM.Set(0, 0, 1)
	b.Theta.Set(0, 0, 0)
	p, _ := newTestPipeline(t, DefaultConfig())
	res, err := p.Run([]*MassBundle{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if !res.K.IsNoData(0, 0) || res.K.IsNoData(1, 1) {
		t.Error("only the conflicting cell should be no-data")
	}
	if res.Stats.TotalConflict != 1 {
		t.Errorf("TotalConflict: have %d, want 1", res.Stats.TotalConflict)
	}
}

func TestPipelineMasking(t *testing.T) {
	build := func() []*MassBundle {
		a := constBundle("a", 2, 2, MassTriple{M: 0.7, NM: 0.1, Theta: 0.2})
		b := constBundle("b", 2, 2, MassTriple{M: 0.6, NM: 0.2, Theta: 0.2})
		a.Theta.SetNoData(0, 0, true)
		b.M.SetNoData(1, 1, true)
		return []*MassBundle{a, b}
	}

	cfg := DefaultConfig()
	p, _ := newTestPipeline(t, cfg)
	res, err := p.Run(build())
	if err != nil {
		t.Fatal(err)
	}
	if !res.BetP.IsNoData(0, 0) {
		t.Error("first source's no-data cell should be masked")
	}
	for _, g := range res.Grids() {
		if !g.IsNoData(1, 1) || !math.IsNaN(g.At(1, 1)) {
			t.Fatal("a later source's no-data cell should not be fused")
		}
	}
	if res.Stats.Masked != 1 || res.Stats.InvalidMass != 1 || res.Stats.Valid != 2 {
		t.Errorf("stats: have %+v, want 1 masked, 1 invalid, 2 valid", res.Stats)
	}

	cfg.MaskAllSources = true
	p, _ = newTestPipeline(t, cfg)
	res, err = p.Run(build())
	if err != nil {
		t.Fatal(err)
	}
	if !res.BetP.IsNoData(0, 0) || !res.BetP.IsNoData(1, 1) {
		t.Error("union mask should cover both sources' no-data cells")
	}
	if res.Stats.Masked != 2 || res.Stats.InvalidMass != 0 {
		t.Errorf("stats: have %+v, want 2 masked, 0 invalid", res.Stats)
	}
}

func TestPipelineLaterSourceNoData(t *testing.T) {
	a := constBundle("a", 2, 2, MassTriple{M: 0.7, NM: 0.1, Theta: 0.2})
	b := constBundle("b", 2, 2, MassTriple{M: 0.6, NM: 0.2, Theta: 0.2})
	// A fill value that normalizes to finite masses if it is ever read.
	const fill = 9.9692099683868690e+36
	b.M.Set(0, 0, fill)
	b.M.SetNoData(0, 0, true)

	p, _ := newTestPipeline(t, DefaultConfig())
	res, err := p.Run([]*MassBundle{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if !res.M.IsNoData(0, 0) || !res.K.IsNoData(0, 0) {
		t.Errorf("fused (0,0): M=%g K=%g, want no-data", res.M.At(0, 0), res.K.At(0, 0))
	}
	if res.Stats.Valid != 3 || res.Stats.InvalidMass != 1 || res.Stats.Masked != 0 {
		t.Errorf("stats: have %+v", res.Stats)
	}
}

func TestPipelineConfigErrors(t *testing.T) {
	p, _ := newTestPipeline(t, DefaultConfig())
	_, err := p.Run(nil)
	var cerr *ConfigError
	if !errors.As(err, &cerr) || !errors.Is(err, ErrNoSources) {
		t.Errorf("have %v, want ConfigError wrapping ErrNoSources", err)
	}

	_, err = p.Run([]*MassBundle{
		constBundle("a", 2, 2, Ignorance),
		constBundle("b", 2, 3, Ignorance),
	})
	if !errors.As(err, &cerr) || !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("have %v, want ConfigError wrapping ErrShapeMismatch", err)
	}

	bad := constBundle("c", 2, 2, Ignorance)
	bad.NM = NewGrid(3, 2)
	if _, err = p.Run([]*MassBundle{bad}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("have %v, want ErrShapeMismatch", err)
	}

	for _, cfg := range []Config{
		{Eps: -1, Clip: ClipBounds{0, 1}},
		{Eps: math.NaN(), Clip: ClipBounds{0, 1}},
		{Eps: 1e-12, Clip: ClipBounds{1, 0}},
		{Eps: 1e-12, Clip: ClipBounds{0, 1}, WarnThreshold: -1},
		{Eps: 1e-12, Clip: ClipBounds{0, 1}, Mode: UncertaintyMode(7)},
	} {
		if _, err := NewPipeline(cfg); !errors.As(err, &cerr) {
			t.Errorf("%+v: have %v, want ConfigError", cfg, err)
		}
	}
}

func TestPipelineParallelReproducible(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	sources := []*MassBundle{
		randomBundle("a", 37, 23, r),
		randomBundle("b", 37, 23, r),
		randomBundle("c", 37, 23, r),
	}
	before := sources[0].M.Clone()

	var results []*Results
	for _, nprocs := range []int{1, 2, 7, 64} {
		cfg := DefaultConfig()
		cfg.NumProcessors = nprocs
		p, _ := newTestPipeline(t, cfg)
		res, err := p.Run(sources)
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, res)
	}
	for _, res := range results[1:] {
		for name, g := range res.Grids() {
			g0, _ := results[0].Grid(name)
			for i := 0; i < 37; i++ {
				for j := 0; j < 23; j++ {
					if g.IsNoData(i, j) != g0.IsNoData(i, j) ||
						(!g.IsNoData(i, j) && math.Float64bits(g.At(i, j)) != math.Float64bits(g0.At(i, j))) {
						t.Fatalf("%s[%d,%d] depends on the number of processors", name, i, j)
					}
				}
			}
		}
		if res.Stats != results[0].Stats {
			t.Errorf("stats differ: %+v != %+v", res.Stats, results[0].Stats)
		}
	}
	for i := 0; i < 37; i++ {
		for j := 0; j < 23; j++ {
			if sources[0].M.At(i, j) != before.At(i, j) {
				t.Fatal("input grid was modified")
			}
		}
	}
}

func TestPipelineClipWarning(t *testing.T) {
	a := constBundle("a", 1, 2, MassTriple{M: 0.7, NM: 0.1, Theta: 0.2})
	a.M.Set(0, 1, 1.5)
	a.NM.Set(0, 1, -0.25)
	a.Theta.Set(0, 1, 0.75)
	p, hook := newTestPipeline(t, DefaultConfig())
	res, err := p.Run([]*MassBundle{a})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.ClipWarnings != 1 || different(res.Stats.MaxClip, 0.125, tol) {
		t.Errorf("stats: have %+v", res.Stats)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("expected a warning log entry, have %v", e)
	}
}

func TestSummarize(t *testing.T) {
	g, err := NewGridFromSlice(2, 2, []float64{1, 2, 3, 100})
	if err != nil {
		t.Fatal(err)
	}
	g.SetNoData(1, 1, true)
	s := Summarize(g)
	if s.Valid != 3 || s.Min != 1 || s.Max != 3 || different(s.Mean, 2, tol) || different(s.StdDev, 1, tol) {
		t.Errorf("have %+v", s)
	}
	g.SetNoData(0, 0, true)
	g.SetNoData(0, 1, true)
	g.SetNoData(1, 0, true)
	if s := Summarize(g); s.Valid != 0 || !math.IsNaN(s.Mean) {
		t.Errorf("have %+v, want empty summary", s)
	}
}
