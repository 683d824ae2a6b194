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
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/dsfuse"
)

// ShapefileFields maps output names to shapefile attribute names, which
// are limited to 10 characters.
var ShapefileFields = map[string]string{
	"M":                "M",
	"NM":               "NM",
	"Theta":            "Theta",
	"K":                "K",
	"Belief":           "Belief",
	"Plausibility":     "Plaus",
	"BetP":             "BetP",
	"Entropy":          "Entropy",
	"TotalUncertainty": "TotalUnc",
}

// WriteShapefile writes one polygon per data-bearing cell to fileName,
// with the row and column of the cell and the value of each of the named
// outputs as attributes. If names is empty, all outputs are written.
// A .prj file is written alongside if spec.Proj is set.
func WriteShapefile(fileName string, res *dsfuse.Results, spec GridSpec, names []string) error {
	if err := spec.Check(); err != nil {
		return err
	}
	if len(names) == 0 {
		names = dsfuse.OutputNames
	}
	grids := make([]*dsfuse.Grid, len(names))
	fields := []goshp.Field{goshp.NumberField("row", 10), goshp.NumberField("col", 10)}
	for i, n := range names {
		g, err := res.Grid(n)
		if err != nil {
			return err
		}
		grids[i] = g
		fields = append(fields, goshp.FloatField(ShapefileFields[n], 14, 8))
	}

	// remove extension and replace it with .shp
	fileBase := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	shape, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("gridio: creating output shapefile: %v", err)
	}
	rows, cols := res.Dims()
	vals := make([]interface{}, len(fields))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if res.M.IsNoData(i, j) {
				continue
			}
			vals[0], vals[1] = i, j
			for k, g := range grids {
				vals[k+2] = g.At(i, j)
			}
			if err = shape.EncodeFields(spec.Cell(i, j), vals...); err != nil {
				shape.Close()
				return fmt.Errorf("gridio: writing output shapefile: %v", err)
			}
		}
	}
	shape.Close()

	if spec.Proj == "" {
		return nil
	}
	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("gridio: creating output prj file: %v", err)
	}
	if _, err = fmt.Fprint(f, spec.Proj); err != nil {
		f.Close()
		return fmt.Errorf("gridio: writing output prj file: %v", err)
	}
	return f.Close()
}
