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
	"math"
)

// MassTriple holds the belief mass assigned to the hypotheses Mineral (M)
// and NonMineral (NM) and to the whole frame of discernment (Theta), which
// represents ignorance.
type MassTriple struct {
	M, NM, Theta float64
}

// Sum returns M + NM + Theta.
func (m MassTriple) Sum() float64 { return m.M + m.NM + m.Theta }

// IsFinite reports whether all three masses are finite.
func (m MassTriple) IsFinite() bool {
	return isFinite(m.M) && isFinite(m.NM) && isFinite(m.Theta)
}

// Ignorance is the vacuous mass function: all mass on Theta.
var Ignorance = MassTriple{Theta: 1}

// ClipBounds is the closed interval normalized masses are clipped to.
type ClipBounds struct {
	Min, Max float64
}

// Normalizer rescales raw mass triples so they sum to one.
type Normalizer struct {
	// Eps is the smallest raw sum that can be normalized.
	Eps float64

	// Clip gives the bounds each normalized component is clipped to.
	Clip ClipBounds
}

// Normalize divides raw by its sum and clips each component to n.Clip.
// The result is not renormalized after clipping. clipped is the largest
// absolute change clipping made to any component.
// If any component is non-finite or the sum is not greater than n.Eps,
// ErrInvalidMass is returned.
func (n Normalizer) Normalize(raw MassTriple) (norm MassTriple, clipped float64, err error) {
	s := raw.Sum()
	if !raw.IsFinite() || !isFinite(s) || s <= n.Eps {
		return MassTriple{}, 0, ErrInvalidMass
	}
	norm = MassTriple{M: raw.M / s, NM: raw.NM / s, Theta: raw.Theta / s}
	for _, v := range []*float64{&norm.M, &norm.NM, &norm.Theta} {
		c := clip(*v, n.Clip.Min, n.Clip.Max)
		if d := math.Abs(c - *v); d > clipped {
			clipped = d
		}
		*v = c
	}
	return norm, clipped, nil
}

func clip(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
