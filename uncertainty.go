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
	"strings"
)

// UncertaintyMode selects how TotalUncertainty is computed.
type UncertaintyMode int

const (
	// EntropyPlusTheta sums the pignistic entropy and the ignorance mass.
	EntropyPlusTheta UncertaintyMode = iota
	// EntropyOnly uses the pignistic entropy alone.
	EntropyOnly
	// ThetaOnly uses the ignorance mass alone.
	ThetaOnly
)

var modeNames = map[UncertaintyMode]string{
	EntropyPlusTheta: "entropy+theta",
	EntropyOnly:      "entropy",
	ThetaOnly:        "theta",
}

func (m UncertaintyMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("UncertaintyMode(%d)", int(m))
}

// ParseUncertaintyMode converts a configuration string into an
// UncertaintyMode. Accepted values are "entropy+theta" (or "sum"),
// "entropy" (or "entropy_only") and "theta" (or "theta_only").
func ParseUncertaintyMode(s string) (UncertaintyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entropy+theta", "sum", "":
		return EntropyPlusTheta, nil
	case "entropy", "entropy_only":
		return EntropyOnly, nil
	case "theta", "theta_only":
		return ThetaOnly, nil
	}
	return 0, fmt.Errorf("dsfuse: invalid uncertainty mode %q", s)
}

// Measures holds the quantities derived from a fused mass triple.
type Measures struct {
	Belief           float64 // Bel(M) = m(M)
	Plausibility     float64 // Pl(M) = m(M) + m(Theta)
	BetP             float64 // m(M) + m(Theta)/2
	Entropy          float64 // Shannon entropy of BetP, in nats
	Theta            float64
	TotalUncertainty float64
}

// Analyzer derives uncertainty measures from fused masses.
type Analyzer struct {
	// Eps bounds BetP away from 0 and 1 before taking logarithms.
	Eps  float64
	Mode UncertaintyMode
}

// Analyze computes the derived measures for f. f is not modified.
func (a Analyzer) Analyze(f FusedMass) Measures {
	betP := clip(f.M+0.5*f.Theta, 0, 1)
	h := Entropy(betP, a.Eps)
	m := Measures{
		Belief:       f.M,
		Plausibility: f.M + f.Theta,
		BetP:         betP,
		Entropy:      h,
		Theta:        f.Theta,
	}
	switch a.Mode {
	case EntropyOnly:
		m.TotalUncertainty = h
	case ThetaOnly:
		m.TotalUncertainty = f.Theta
	default:
		m.TotalUncertainty = h + f.Theta
	}
	return m
}

// Entropy returns the binary Shannon entropy (natural log) of probability
// p, after clipping p to [eps, 1-eps]. It is ln 2 at p = 0.5 and tends to
// zero as p approaches 0 or 1. It never returns NaN for finite p.
func Entropy(p, eps float64) float64 {
	p = clip(p, eps, 1-eps)
	return -(xlogx(p) + xlogx(1-p))
}

func xlogx(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x * math.Log(x)
}
