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

// Package dsfuseutil contains the command-line interface and configuration
// handling for dsfuse.
package dsfuseutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dsfuse"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger used by the commands. It is configured from the
// LogLevel and LogFormat options before each command runs.
var Log = logrus.New()

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

func init() {
	// Options are the configuration options available to dsfuse.
	options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the minimum severity of log messages: one of
              debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFormat",
			usage: `
              LogFormat sets the format of log messages: text or json.`,
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Sources",
			usage: `
              Sources is the path to a TOML manifest listing the evidence
              sources to fuse, in fold order. Each [[Source]] entry has a Name,
              a File (a local path, an http(s) URL, or a gs://, s3://, or
              file:// blob URL pointing to a netCDF file) and optional
              Variables naming the M, NM, and Theta mass variables in the file.
              Can include environment variables.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output file. Files ending
              in .nc are written as netCDF grids; files ending in .shp are
              written as shapefiles with one polygon per grid cell.
              Can include environment variables.`,
			shorthand:  "o",
			defaultVal: "dsfuse_output.nc",
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which outputs should be written.
              Options are M, NM, Theta, K, Belief, Plausibility, BetP,
              Entropy, and TotalUncertainty.`,
			defaultVal: dsfuse.OutputNames,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "PlotDir",
			usage: `
              PlotDir, if set, is a directory where a PNG map of each output
              variable will be written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "Eps",
			usage: `
              Eps is the tolerance below which a raw mass sum or the Dempster
              normalization factor is treated as zero.`,
			defaultVal: 1e-12,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "ClipMin",
			usage: `
              ClipMin is the lower bound normalized masses are clipped to.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "ClipMax",
			usage: `
              ClipMax is the upper bound normalized masses are clipped to.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "Uncertainty",
			usage: `
              Uncertainty selects how TotalUncertainty is computed:
              entropy+theta, entropy, or theta.`,
			defaultVal: "entropy+theta",
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "WarnThreshold",
			usage: `
              WarnThreshold is the change made by clipping a normalized mass
              above which a warning is counted.`,
			defaultVal: 1e-6,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "MaskAllSources",
			usage: `
              MaskAllSources, if true, makes an output cell no-data when any
              source flags it as no-data. By default only the first source's
              no-data cells are masked.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "NumProcessors",
			usage: `
              NumProcessors is the number of processors to use. Values less
              than 1 use all available processors.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "Grid.Xo",
			usage: `
              Grid.Xo specifies the X coordinate of the lower-left corner of
              the evidence grids.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "Grid.Yo",
			usage: `
              Grid.Yo specifies the Y coordinate of the lower-left corner of
              the evidence grids.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "Grid.Dx",
			usage: `
              Grid.Dx specifies the X edge length of the grid cells in the
              units of the grid projection.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "Grid.Dy",
			usage: `
              Grid.Dy specifies the Y edge length of the grid cells in the
              units of the grid projection.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
		{
			name: "Grid.Proj",
			usage: `
              Grid.Proj gives the spatial reference of the grid in WKT format.
              It is written to a .prj file alongside shapefile output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fuseCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DSFUSE")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(fuseCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and configures the logger.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("dsfuse: problem reading configuration file: %v", err)
		}
	}
	return configureLogger(Log, Cfg.GetString("LogLevel"), Cfg.GetString("LogFormat"))
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "dsfuse",
	Short: "Fuse mineral-potential evidence with Dempster-Shafer theory.",
	Long: `dsfuse combines gridded belief-mass evidence layers for the hypotheses
Mineral and NonMineral using Dempster's rule of combination and computes
belief, plausibility, pignistic probability, entropy, and conflict grids.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'DSFUSE_var' where 'var' is the
name of the variable to be set (with '.' replaced by '_').`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of dsfuse.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("dsfuse v%s\n", dsfuse.Version)
	},
	DisableAutoGenTag: true,
}

// fuseCmd is a command that fuses the evidence sources listed in a manifest.
var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Fuse evidence grids.",
	Long: `fuse reads the evidence sources listed in the manifest given by the
Sources option, combines them cell by cell, and writes the fused masses
and the derived uncertainty measures to OutputFile.

	Output variables:
	M, NM, Theta: Fused masses for Mineral, NonMineral, and ignorance
	K: Conflict of the final combination step
	Belief, Plausibility: Lower and upper probability bounds for Mineral
	BetP: Pignistic probability of Mineral
	Entropy: Shannon entropy of BetP (nats)
	TotalUncertainty: Combined uncertainty, as set by the Uncertainty option`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := checkSources(Cfg.GetString("Sources"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		outputVars, err := checkOutputVars(Cfg.Get("OutputVariables"))
		if err != nil {
			return err
		}
		cfg, err := PipelineConfig(Cfg)
		if err != nil {
			return err
		}
		spec, err := GridSpecConfig(Cfg)
		if err != nil {
			return err
		}
		_, err = Fuse(context.Background(), Log, manifest, outputFile,
			os.ExpandEnv(Cfg.GetString("PlotDir")), outputVars, cfg, spec)
		return err
	},
	DisableAutoGenTag: true,
}
