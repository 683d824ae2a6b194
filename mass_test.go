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
)

const tol = 1e-9

func different(a, b, tolerance float64) bool {
	return math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b)
}

func differentTriple(a, b MassTriple, tolerance float64) bool {
	return different(a.M, b.M, tolerance) || different(a.NM, b.NM, tolerance) ||
		different(a.Theta, b.Theta, tolerance)
}

// randomTriple returns a normalized mass triple.
func randomTriple(r *rand.Rand) MassTriple {
	m := MassTriple{M: r.Float64(), NM: r.Float64(), Theta: r.Float64()}
	s := m.Sum()
	return MassTriple{M: m.M / s, NM: m.NM / s, Theta: m.Theta / s}
}

func TestNormalize(t *testing.T) {
	n := Normalizer{Eps: 1e-12, Clip: ClipBounds{Min: 0, Max: 1}}
	tests := []struct {
		name string
		raw  MassTriple
		want MassTriple
		err  error
	}{
		{name: "already normalized", raw: MassTriple{M: 0.7, NM: 0.1, Theta: 0.2}, want: MassTriple{M: 0.7, NM: 0.1, Theta: 0.2}},
		{name: "scaled", raw: MassTriple{M: 2, NM: 1, Theta: 1}, want: MassTriple{M: 0.5, NM: 0.25, Theta: 0.25}},
		{name: "zero sum", raw: MassTriple{}, err: ErrInvalidMass},
		{name: "tiny sum", raw: MassTriple{M: 1e-13}, err: ErrInvalidMass},
		{name: "negative sum", raw: MassTriple{M: -1, NM: 0.5}, err: ErrInvalidMass},
		{name: "NaN", raw: MassTriple{M: math.NaN(), NM: 1}, err: ErrInvalidMass},
		{name: "Inf", raw: MassTriple{M: math.Inf(1), NM: 1}, err: ErrInvalidMass},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have, _, err := n.Normalize(test.raw)
			if !errors.Is(err, test.err) {
				t.Fatalf("error: have %v, want %v", err, test.err)
			}
			if err != nil {
				return
			}
			if differentTriple(have, test.want, tol) {
				t.Errorf("have %+v, want %+v", have, test.want)
			}
		})
	}
}

func TestNormalizeClipNoRenormalize(t *testing.T) {
	n := Normalizer{Eps: 1e-12, Clip: ClipBounds{Min: 0, Max: 1}}
	// A negative component survives the sum check but is clipped to zero.
	have, clipped, err := n.Normalize(MassTriple{M: 1.5, NM: -0.25, Theta: 0.75})
	if err != nil {
		t.Fatal(err)
	}
	want := MassTriple{M: 0.75, NM: 0, Theta: 0.375}
	if differentTriple(have, want, tol) {
		t.Errorf("have %+v, want %+v", have, want)
	}
	if different(clipped, 0.125, tol) {
		t.Errorf("clipped: have %g, want 0.125", clipped)
	}
	if have.Sum() <= 1 {
		t.Errorf("clipped triple should not be renormalized, sum = %g", have.Sum())
	}
}

func TestNormalizeClosure(t *testing.T) {
	n := Normalizer{Eps: 1e-12, Clip: ClipBounds{Min: 0, Max: 1}}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		raw := MassTriple{M: r.Float64() * 100, NM: r.Float64() * 100, Theta: r.Float64() * 100}
		if raw.Sum() <= n.Eps {
			continue
		}
		m, _, err := n.Normalize(raw)
		if err != nil {
			t.Fatalf("%+v: %v", raw, err)
		}
		if different(m.Sum(), 1, tol) {
			t.Errorf("%+v: sum %g", raw, m.Sum())
		}
		for _, v := range []float64{m.M, m.NM, m.Theta} {
			if v < 0 || v > 1 {
				t.Errorf("%+v: component %g out of [0,1]", raw, v)
			}
		}
	}
}
