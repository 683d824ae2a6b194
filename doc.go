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

// Package dsfuse combines independent belief-mass grids for the two-hypothesis
// frame {Mineral, NonMineral} using Dempster's rule of combination and derives
// uncertainty measures (belief, plausibility, pignistic probability, Shannon
// entropy, and conflict) for each grid cell.
//
// Evidence enters as one MassBundle per source: three co-registered Grids
// holding the mass assigned to Mineral, to NonMineral, and to the whole
// frame Theta. A Pipeline normalizes each source, folds the sources
// together left to right, and returns newly allocated output grids.
// Cells that cannot be fused are marked as no-data rather than reported
// as errors.
package dsfuse

// Version gives the version number.
const Version = "0.1.0"
