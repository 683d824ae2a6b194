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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dsfuse"
	"github.com/spatialmodel/dsfuse/gridio"
	"github.com/spf13/cast"
)

// checkSources makes sure that the source manifest is specified and
// expands any environment variables.
func checkSources(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`dsfuse: you need to specify a Sources manifest (for example: Sources="sources.toml")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("dsfuse: the Sources manifest doesn't exist: %v", err)
	}
	return f, nil
}

// checkOutputFile makes sure that the output file is specified, has a
// supported extension, and that its directory exists, and expands any
// environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`dsfuse: you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	switch strings.ToLower(filepath.Ext(f)) {
	case ".nc", ".shp":
	default:
		return f, fmt.Errorf("dsfuse: OutputFile must end in .nc or .shp, got %q", f)
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("dsfuse: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkOutputVars makes sure the requested output variables exist.
// vars may be a slice or a whitespace- or comma-separated string.
func checkOutputVars(vars interface{}) ([]string, error) {
	if s, ok := vars.(string); ok {
		vars = strings.Fields(strings.Replace(s, ",", " ", -1))
	}
	o, err := cast.ToStringSliceE(vars)
	if err != nil {
		return nil, fmt.Errorf("dsfuse: reading OutputVariables: %v", err)
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("dsfuse: there are no variables specified for output. Please fill in " +
			"the OutputVariables configuration and try again")
	}
	valid := make(map[string]bool)
	for _, n := range dsfuse.OutputNames {
		valid[n] = true
	}
	for _, v := range o {
		if !valid[v] {
			return nil, fmt.Errorf("dsfuse: invalid output variable %q; valid names are %v", v, dsfuse.OutputNames)
		}
	}
	return o, nil
}

// PipelineConfig builds a pipeline configuration from cfg.
func PipelineConfig(cfg *viper.Viper) (dsfuse.Config, error) {
	mode, err := dsfuse.ParseUncertaintyMode(cfg.GetString("Uncertainty"))
	if err != nil {
		return dsfuse.Config{}, err
	}
	c := dsfuse.Config{
		Eps:            cfg.GetFloat64("Eps"),
		Clip:           dsfuse.ClipBounds{Min: cfg.GetFloat64("ClipMin"), Max: cfg.GetFloat64("ClipMax")},
		Mode:           mode,
		WarnThreshold:  cfg.GetFloat64("WarnThreshold"),
		MaskAllSources: cfg.GetBool("MaskAllSources"),
		NumProcessors:  cfg.GetInt("NumProcessors"),
	}
	return c, c.Validate()
}

// GridSpecConfig builds a grid specification from cfg.
func GridSpecConfig(cfg *viper.Viper) (gridio.GridSpec, error) {
	s := gridio.GridSpec{
		Xo:   cfg.GetFloat64("Grid.Xo"),
		Yo:   cfg.GetFloat64("Grid.Yo"),
		Dx:   cfg.GetFloat64("Grid.Dx"),
		Dy:   cfg.GetFloat64("Grid.Dy"),
		Proj: cfg.GetString("Grid.Proj"),
	}
	return s, s.Check()
}

// configureLogger sets the level and format of l.
func configureLogger(l *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("dsfuse: invalid LogLevel: %v", err)
	}
	l.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "", "text":
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		l.Formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("dsfuse: invalid LogFormat %q; use text or json", format)
	}
	return nil
}

// SetLogOutput directs log messages to w.
func SetLogOutput(w io.Writer) { Log.Out = w }
