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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/dsfuse"
)

// SourceSpec describes one evidence source in a manifest.
type SourceSpec struct {
	// Name identifies the source in logs and reports.
	Name string

	// File is the path or URL of the netCDF file holding the source.
	// Environment variables are expanded. Relative paths are relative
	// to the manifest file.
	File string

	// Variables names the mass variables within File. Empty names
	// default to DefaultMassVariables.
	Variables MassVariables
}

// Manifest lists the evidence sources to fuse, in fold order.
//
// An example manifest:
//
//	[[Source]]
//	Name = "geochemistry"
//	File = "$DATA/geochem.nc"
//
//	[[Source]]
//	Name = "magnetics"
//	File = "https://example.com/mag.nc"
//	[Source.Variables]
//	M = "mass_mineral"
//	NM = "mass_barren"
//	Theta = "mass_unknown"
type Manifest struct {
	Source []SourceSpec
}

// DecodeManifest reads a TOML manifest from r. Relative file paths are
// resolved against dir.
func DecodeManifest(r io.Reader, dir string) (*Manifest, error) {
	m := new(Manifest)
	if _, err := toml.DecodeReader(r, m); err != nil {
		return nil, fmt.Errorf("gridio: decoding source manifest: %v", err)
	}
	if len(m.Source) == 0 {
		return nil, fmt.Errorf("gridio: source manifest lists no sources: %v", dsfuse.ErrNoSources)
	}
	seen := make(map[string]bool)
	for i := range m.Source {
		s := &m.Source[i]
		if s.Name == "" {
			s.Name = fmt.Sprintf("source%d", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("gridio: duplicate source name %q in manifest", s.Name)
		}
		seen[s.Name] = true
		if s.File == "" {
			return nil, fmt.Errorf("gridio: source %q has no File", s.Name)
		}
		s.File = os.ExpandEnv(s.File)
		if !isRemote(s.File) && !filepath.IsAbs(s.File) && dir != "" {
			s.File = filepath.Join(dir, s.File)
		}
		s.Variables = s.Variables.withDefaults()
	}
	return m, nil
}

// ReadManifest reads a TOML manifest from the file at path.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("gridio: opening source manifest: %v", err)
	}
	defer f.Close()
	return DecodeManifest(f, filepath.Dir(path))
}

// Load fetches and reads every source in the manifest, in order.
func (m *Manifest) Load(ctx context.Context, fetch *Fetcher) ([]*dsfuse.MassBundle, error) {
	o := make([]*dsfuse.MassBundle, len(m.Source))
	for i, s := range m.Source {
		path, err := fetch.Fetch(ctx, s.File)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("gridio: opening source %q: %v", s.Name, err)
		}
		o[i], err = ReadBundle(f, s.Name, s.Variables)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}
