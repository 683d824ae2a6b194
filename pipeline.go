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
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config holds the numerical settings for a Pipeline.
type Config struct {
	// Eps is the tolerance below which a raw mass sum or a combination
	// denominator is treated as zero.
	Eps float64

	// Clip gives the bounds normalized masses are clipped to.
	Clip ClipBounds

	// Mode selects how TotalUncertainty is computed.
	Mode UncertaintyMode

	// WarnThreshold is the clipping adjustment above which a cell is
	// counted as a numeric warning.
	WarnThreshold float64

	// MaskAllSources makes the output no-data mask the union of the
	// no-data masks of all sources. By default only the first source's
	// masks count as masked; a cell that another source flags as no-data
	// is invalid instead.
	MaskAllSources bool

	// NumProcessors is the number of goroutines used to process rows.
	// Values < 1 mean runtime.GOMAXPROCS(0).
	NumProcessors int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Eps:           1e-12,
		Clip:          ClipBounds{Min: 0, Max: 1},
		Mode:          EntropyPlusTheta,
		WarnThreshold: 1e-6,
	}
}

// Validate checks that c can be used to build a Pipeline.
func (c Config) Validate() error {
	switch {
	case !isFinite(c.Eps) || c.Eps < 0 || c.Eps >= 0.5:
		return configErrorf("Eps", "must be in [0, 0.5), got %g", c.Eps)
	case !isFinite(c.Clip.Min) || !isFinite(c.Clip.Max) || c.Clip.Min > c.Clip.Max:
		return configErrorf("Clip", "invalid bounds [%g, %g]", c.Clip.Min, c.Clip.Max)
	case c.WarnThreshold < 0 || math.IsNaN(c.WarnThreshold):
		return configErrorf("WarnThreshold", "must not be negative, got %g", c.WarnThreshold)
	}
	if _, ok := modeNames[c.Mode]; !ok {
		return configErrorf("Mode", "unknown uncertainty mode %v", c.Mode)
	}
	return nil
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used to report run statistics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// Pipeline normalizes, fuses and analyzes evidence grids.
// A Pipeline holds no per-run state and may be reused concurrently.
type Pipeline struct {
	cfg  Config
	norm Normalizer
	an   Analyzer
	log  logrus.FieldLogger
}

// NewPipeline returns a Pipeline using cfg. It returns a *ConfigError if
// cfg is invalid.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:  cfg,
		norm: Normalizer{Eps: cfg.Eps, Clip: cfg.Clip},
		an:   Analyzer{Eps: cfg.Eps, Mode: cfg.Mode},
		log:  logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// RunStats counts the outcome of every cell in a run.
type RunStats struct {
	Cells         int // cells processed
	Valid         int // cells with fused output
	Masked        int // cells excluded by the input no-data mask
	InvalidMass   int // cells where a source was no-data or could not be normalized
	TotalConflict int // cells where a fold step hit total conflict

	// ClipWarnings is the number of cells where clipping changed a
	// normalized mass by more than the configured threshold.
	ClipWarnings int
	MaxClip      float64
}

func (s *RunStats) add(o RunStats) {
	s.Cells += o.Cells
	s.Valid += o.Valid
	s.Masked += o.Masked
	s.InvalidMass += o.InvalidMass
	s.TotalConflict += o.TotalConflict
	s.ClipWarnings += o.ClipWarnings
	s.MaxClip = math.Max(s.MaxClip, o.MaxClip)
}

// Run fuses sources cell by cell and returns the fused masses and the
// derived measures. All source grids must share a shape. Sources are
// never modified. Cells that cannot be fused are no-data in every output.
func (p *Pipeline) Run(sources []*MassBundle) (*Results, error) {
	rows, cols, err := checkSources(sources)
	if err != nil {
		return nil, err
	}
	res := newResults(rows, cols)

	nprocs := p.cfg.NumProcessors
	if nprocs < 1 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	if nprocs > rows {
		nprocs = rows
	}
	stats := make([]RunStats, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			norm := make([]MassTriple, len(sources))
			for i := pp; i < rows; i += nprocs {
				for j := 0; j < cols; j++ {
					p.cell(sources, res, i, j, norm, &stats[pp])
				}
			}
		}(pp)
	}
	wg.Wait()

	for _, s := range stats {
		res.Stats.add(s)
	}
	p.report(sources, rows, cols, res.Stats)
	return res, nil
}

// checkSources makes sure there is at least one source and that all
// source grids share a shape.
func checkSources(sources []*MassBundle) (rows, cols int, err error) {
	if len(sources) == 0 {
		return 0, 0, &ConfigError{Field: "sources", Err: ErrNoSources}
	}
	for i, s := range sources {
		r, c, err := s.Dims()
		if err != nil {
			return 0, 0, &ConfigError{Field: fmt.Sprintf("sources[%d]", i), Err: err}
		}
		if i == 0 {
			rows, cols = r, c
			continue
		}
		if r != rows || c != cols {
			return 0, 0, &ConfigError{
				Field: fmt.Sprintf("sources[%d]", i),
				Err:   fmt.Errorf("%w: %q is %dx%d, %q is %dx%d", ErrShapeMismatch, s.Name, r, c, sources[0].Name, rows, cols),
			}
		}
	}
	return rows, cols, nil
}

// cell processes a single grid cell. norm is scratch space with one
// element per source.
func (p *Pipeline) cell(sources []*MassBundle, res *Results, i, j int, norm []MassTriple, st *RunStats) {
	st.Cells++
	if p.masked(sources, i, j) {
		res.setNoData(i, j)
		st.Masked++
		return
	}
	var maxClip float64
	for k, s := range sources {
		if s.NoData(i, j) {
			res.setNoData(i, j)
			st.InvalidMass++
			return
		}
		m, clipped, err := p.norm.Normalize(s.At(i, j))
		if err != nil {
			res.setNoData(i, j)
			st.InvalidMass++
			return
		}
		maxClip = math.Max(maxClip, clipped)
		norm[k] = m
	}
	if maxClip > p.cfg.WarnThreshold {
		st.ClipWarnings++
	}
	st.MaxClip = math.Max(st.MaxClip, maxClip)
	f, err := Fuse(norm, p.cfg.Eps)
	if err != nil {
		res.setNoData(i, j)
		st.TotalConflict++
		return
	}
	res.set(i, j, f, p.an.Analyze(f))
	st.Valid++
}

func (p *Pipeline) masked(sources []*MassBundle, i, j int) bool {
	if !p.cfg.MaskAllSources {
		return sources[0].NoData(i, j)
	}
	for _, s := range sources {
		if s.NoData(i, j) {
			return true
		}
	}
	return false
}

func (p *Pipeline) report(sources []*MassBundle, rows, cols int, s RunStats) {
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	l := p.log.WithFields(logrus.Fields{
		"sources":       names,
		"rows":          rows,
		"cols":          cols,
		"valid":         s.Valid,
		"masked":        s.Masked,
		"invalidMass":   s.InvalidMass,
		"totalConflict": s.TotalConflict,
	})
	l.Info("evidence fusion complete")
	if s.ClipWarnings > 0 {
		l.WithFields(logrus.Fields{
			"clipWarnings": s.ClipWarnings,
			"maxClip":      s.MaxClip,
		}).Warn("normalized masses needed clipping; mass functions may be poorly calibrated")
	}
}
