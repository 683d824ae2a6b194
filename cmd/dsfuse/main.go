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

// Command dsfuse is a command-line interface for Dempster-Shafer fusion of
// mineral-potential evidence grids.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/dsfuse/dsfuseutil"
)

func main() {
	if err := dsfuseutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
