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
)

// FusedMass is the result of combining one or more mass triples.
type FusedMass struct {
	MassTriple

	// K is the conflict between the accumulated evidence and the last
	// source folded into it. It is zero when only one source was fused.
	K float64
}

// Conflict returns the mass that a and b assign to contradictory
// hypotheses (Mineral in one, NonMineral in the other).
func Conflict(a, b MassTriple) float64 {
	return a.M*b.NM + a.NM*b.M
}

// Combine applies Dempster's rule to two normalized mass triples and
// returns the combined triple and the conflict K between them.
// If 1-K is non-finite or not greater than eps in magnitude, no
// combination exists and an error wrapping ErrTotalConflict is returned
// along with K.
func Combine(a, b MassTriple, eps float64) (MassTriple, float64, error) {
	k := Conflict(a, b)
	denom := 1 - k
	if !isFinite(denom) || math.Abs(denom) <= eps {
		return MassTriple{}, k, fmt.Errorf("%w (K=%g)", ErrTotalConflict, k)
	}
	m := a.M*b.M + a.M*b.Theta + a.Theta*b.M
	nm := a.NM*b.NM + a.NM*b.Theta + a.Theta*b.NM
	theta := a.Theta * b.Theta
	return MassTriple{M: m / denom, NM: nm / denom, Theta: theta / denom}, k, nil
}

// Fuse combines sources from left to right, starting with sources[0] as
// the accumulator. The returned K is the conflict of the final fold step.
// If any step ends in total conflict, the whole fusion fails.
func Fuse(sources []MassTriple, eps float64) (FusedMass, error) {
	if len(sources) == 0 {
		return FusedMass{}, ErrNoSources
	}
	acc := FusedMass{MassTriple: sources[0]}
	for i, s := range sources[1:] {
		m, k, err := Combine(acc.MassTriple, s, eps)
		if err != nil {
			return FusedMass{}, fmt.Errorf("combining source %d: %w", i+1, err)
		}
		acc = FusedMass{MassTriple: m, K: k}
	}
	return acc, nil
}
