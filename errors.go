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
	"fmt"
)

// Sentinel errors. ErrNoSources and ErrShapeMismatch are configuration
// errors and abort a pipeline run. ErrInvalidMass and ErrTotalConflict are
// per-cell conditions: the pipeline records them as no-data cells.
var (
	ErrNoSources     = errors.New("dsfuse: at least one evidence source is required")
	ErrShapeMismatch = errors.New("dsfuse: evidence grids do not share a shape")
	ErrInvalidMass   = errors.New("dsfuse: mass triple cannot be normalized")
	ErrTotalConflict = errors.New("dsfuse: total conflict between sources")
)

// ConfigError reports a problem with the pipeline configuration or
// with the set of evidence sources supplied to it.
type ConfigError struct {
	// Field is the configuration field or source at fault.
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dsfuse: invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}
