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

package dsfuseutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dsfuse"
	"github.com/spatialmodel/dsfuse/gridio"
	"github.com/spatialmodel/dsfuse/internal/hash"
)

// Fuse reads the evidence sources listed in the manifest file, fuses them
// using cfg, and writes the requested output variables to outputFile.
// outputFile must end in .nc (netCDF) or .shp (shapefile). If plotDir is
// not empty, a PNG map of each output variable is written there.
func Fuse(ctx context.Context, log logrus.FieldLogger, manifestFile, outputFile, plotDir string,
	outputVars []string, cfg dsfuse.Config, spec gridio.GridSpec) (*dsfuse.Results, error) {

	m, err := gridio.ReadManifest(manifestFile)
	if err != nil {
		return nil, err
	}
	runKey := hash.Key(cfg, spec, m.Source)
	log = log.WithField("run", runKey)

	fetch := gridio.NewFetcher(log)
	sources, err := m.Load(ctx, fetch)
	if cerr := fetch.Close(); cerr != nil {
		log.WithError(cerr).Warn("removing downloaded inputs")
	}
	if err != nil {
		return nil, err
	}
	p, err := dsfuse.NewPipeline(cfg, dsfuse.WithLogger(log))
	if err != nil {
		return nil, err
	}
	res, err := p.Run(sources)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(m.Source))
	for i, s := range m.Source {
		names[i] = s.Name
	}
	attrs := map[string]string{
		"run":         runKey,
		"sources":     strings.Join(names, ","),
		"uncertainty": cfg.Mode.String(),
		"version":     dsfuse.Version,
	}
	if err := writeOutput(outputFile, res, spec, outputVars, attrs); err != nil {
		return nil, err
	}
	if plotDir != "" {
		if err := writePlots(plotDir, res, spec, outputVars); err != nil {
			return nil, err
		}
	}
	logSummaries(log, res, outputVars)
	log.WithField("output", outputFile).Info("output written")
	return res, nil
}

func writeOutput(outputFile string, res *dsfuse.Results, spec gridio.GridSpec, vars []string, attrs map[string]string) error {
	if strings.ToLower(filepath.Ext(outputFile)) == ".shp" {
		return gridio.WriteShapefile(outputFile, res, spec, vars)
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("dsfuse: creating output file: %v", err)
	}
	if err := gridio.WriteNetCDF(f, res, spec, vars, attrs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePlots(dir string, res *dsfuse.Results, spec gridio.GridSpec, vars []string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("dsfuse: creating plot directory: %v", err)
	}
	for _, v := range vars {
		g, err := res.Grid(v)
		if err != nil {
			return err
		}
		f, err := os.Create(filepath.Join(dir, v+".png"))
		if err != nil {
			return fmt.Errorf("dsfuse: creating plot file: %v", err)
		}
		if err := gridio.WritePNG(f, g, spec, dsfuse.OutputDescriptions[v]); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// logSummaries logs descriptive statistics for each output variable.
func logSummaries(log logrus.FieldLogger, res *dsfuse.Results, vars []string) {
	sums := res.Summaries()
	sorted := append([]string(nil), vars...)
	sort.Strings(sorted)
	for _, v := range sorted {
		s := sums[v]
		log.WithFields(logrus.Fields{
			"variable": v,
			"valid":    s.Valid,
			"min":      s.Min,
			"max":      s.Max,
			"mean":     s.Mean,
			"stddev":   s.StdDev,
		}).Debug("output summary")
	}
}
