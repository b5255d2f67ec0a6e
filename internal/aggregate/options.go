// SPDX-License-Identifier: MPL-2.0

package aggregate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/routes"
	"github.com/invowk/areas/internal/stores"
	"github.com/invowk/areas/pkg/nspath"
)

const (
	// DefaultBase is the areas folder, relative to the project root.
	DefaultBase = "areas"
	// DefaultOutDir is the folder generated artefacts are written to,
	// relative to the project root.
	DefaultOutDir = ".areas"
	// DebugFolder is the snapshot folder created below the areas folder.
	DebugFolder = ".debug"
)

// ErrInvalidOptions is returned when build options fail validation.
var ErrInvalidOptions = errors.New("invalid build options")

// Options are the settings of one aggregation build.
type Options struct {
	// ProjectRoot is the absolute host project folder.
	ProjectRoot string `json:"projectRoot" toml:"project_root"`
	// Base is the areas folder. Relative values resolve against ProjectRoot.
	Base string `json:"base" toml:"base"`
	// App is the folder inside Base that holds the host's own pages,
	// layouts and store. It is never scanned as an area.
	App string `json:"app" toml:"app"`
	// OutDir receives generated artefacts. Relative values resolve against
	// ProjectRoot.
	OutDir string `json:"outDir" toml:"out_dir"`
	// Policy classifies folders holding both pages and a group override.
	Policy area.Policy `json:"policy" toml:"policy"`
	// Externals are areas supplied by reference.
	Externals []area.ExternalRef `json:"externals,omitempty" toml:"externals,omitempty"`
	// PageExtensions are the page file extensions, without the dot.
	PageExtensions []string `json:"pageExtensions" toml:"page_extensions"`
	// StoreExtensions are the store file extensions, without the dot.
	StoreExtensions []string `json:"storeExtensions" toml:"store_extensions"`
	// FollowSymlinks makes the page compiler descend into symlinked folders.
	FollowSymlinks bool `json:"followSymlinks,omitempty" toml:"follow_symlinks,omitempty"`
	// NameSeparator joins route name segments.
	NameSeparator string `json:"nameSeparator" toml:"name_separator"`
	// TrailingSlash is the trailing-slash policy of top-level routes.
	TrailingSlash routes.TrailingSlash `json:"trailingSlash,omitempty" toml:"trailing_slash,omitempty"`
	// Dev enables the watch list.
	Dev bool `json:"dev,omitempty" toml:"dev,omitempty"`
	// Debug writes snapshots to <base>/.debug after each build.
	Debug bool `json:"debug,omitempty" toml:"debug,omitempty"`
	// MetricsFile is the Prometheus textfile written after each build.
	MetricsFile string `json:"metricsFile,omitempty" toml:"metrics_file,omitempty"`
}

// WithDefaults returns a copy of o with empty fields set to their defaults.
func (o Options) WithDefaults() Options {
	if o.ProjectRoot == "" {
		o.ProjectRoot = "/"
	}
	o.ProjectRoot = nspath.ToSlash(o.ProjectRoot)
	if o.Base == "" {
		o.Base = DefaultBase
	}
	if o.App == "" {
		o.App = area.DefaultAppFolder
	}
	if o.OutDir == "" {
		o.OutDir = DefaultOutDir
	}
	if o.Policy == "" {
		o.Policy = area.PolicyPages
	}
	if len(o.StoreExtensions) == 0 {
		o.StoreExtensions = slices.Clone(stores.DefaultExtensions)
	}
	compile := o.CompileOptions()
	o.PageExtensions = compile.Extensions
	o.NameSeparator = compile.NameSeparator
	return o
}

// Validate reports every invalid field of o.
func (o Options) Validate() error {
	var errs []error
	if !nspath.IsAbs(o.ProjectRoot) {
		errs = append(errs, fmt.Errorf("project root %q is not absolute", o.ProjectRoot))
	}
	if o.Policy != "" {
		if ok, perrs := o.Policy.IsValid(); !ok {
			errs = append(errs, perrs...)
		}
	}
	if ok, terrs := o.TrailingSlash.IsValid(); !ok {
		errs = append(errs, terrs...)
	}
	for i, ext := range o.Externals {
		if ext.Src == "" {
			errs = append(errs, fmt.Errorf("externals[%d]: empty src", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(errs...))
	}
	return nil
}

// BasePath returns the absolute areas folder.
func (o Options) BasePath() string {
	return o.resolve(o.Base)
}

// AppPath returns the absolute host app folder.
func (o Options) AppPath() string {
	return nspath.Join(o.BasePath(), o.App)
}

// OutPath returns the absolute output folder.
func (o Options) OutPath() string {
	return o.resolve(o.OutDir)
}

// MissingComponent returns the absolute path of the placeholder component.
func (o Options) MissingComponent() string {
	return nspath.Join(o.OutPath(), "components", "Missing.vue")
}

// CompileOptions returns the page compiler settings of o.
func (o Options) CompileOptions() routes.CompileOptions {
	return routes.CompileOptions{
		Extensions:     o.PageExtensions,
		FollowSymlinks: o.FollowSymlinks,
		NameSeparator:  o.NameSeparator,
		TrailingSlash:  o.TrailingSlash,
	}.WithDefaults()
}

func (o Options) resolve(p string) string {
	p = nspath.ToSlash(p)
	if nspath.IsAbs(p) {
		return nspath.Join(p)
	}
	return nspath.Join(o.ProjectRoot, p)
}
