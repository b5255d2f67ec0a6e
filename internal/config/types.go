// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/invowk/areas/internal/aggregate"
	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/routes"
	"github.com/invowk/areas/internal/stores"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDebounce is the quiet period the watcher waits for before rebuilding.
const DefaultDebounce = 200 * time.Millisecond

var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid config")

	// DefaultWatchIgnore are the patterns the watcher never reacts to.
	DefaultWatchIgnore = []string{"**/.debug/**", "**/node_modules/**", "**/.*.swp", "**/*~"}
)

type (
	// Config is the effective tool configuration.
	Config struct {
		// Base is the areas folder, relative to the project root.
		Base string `json:"base" mapstructure:"base"`
		// App is the host app folder inside Base.
		App string `json:"app" mapstructure:"app"`
		// OutDir receives the generated manifest and plugin.
		OutDir string `json:"out_dir" mapstructure:"out_dir"`
		// Policy classifies folders holding both pages and a group override.
		Policy string `json:"policy" mapstructure:"policy"`
		// Externals are areas supplied by reference.
		Externals []area.ExternalRef `json:"externals,omitempty" mapstructure:"externals"`
		Pages     PagesConfig        `json:"pages" mapstructure:"pages"`
		Stores    StoresConfig       `json:"stores" mapstructure:"stores"`
		Dev       bool               `json:"dev" mapstructure:"dev"`
		Debug     bool               `json:"debug" mapstructure:"debug"`
		// MetricsFile is the Prometheus textfile written after each build.
		MetricsFile string      `json:"metrics_file,omitempty" mapstructure:"metrics_file"`
		Watch       WatchConfig `json:"watch" mapstructure:"watch"`
		UI          UIConfig    `json:"ui" mapstructure:"ui"`

		// SourceFile is the config file the values were read from, if any.
		SourceFile string `json:"-" mapstructure:"-"`
	}

	// PagesConfig configures the default page compiler.
	PagesConfig struct {
		Extensions     []string `json:"extensions" mapstructure:"extensions"`
		FollowSymlinks bool     `json:"follow_symlinks" mapstructure:"follow_symlinks"`
		NameSeparator  string   `json:"name_separator" mapstructure:"name_separator"`
		TrailingSlash  string   `json:"trailing_slash,omitempty" mapstructure:"trailing_slash"`
	}

	// StoresConfig configures store discovery.
	StoresConfig struct {
		Extensions []string `json:"extensions" mapstructure:"extensions"`
	}

	// WatchConfig configures the development rebuild loop.
	WatchConfig struct {
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		Ignore   []string      `json:"ignore" mapstructure:"ignore"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Base:   aggregate.DefaultBase,
		App:    area.DefaultAppFolder,
		OutDir: aggregate.DefaultOutDir,
		Policy: string(area.PolicyPages),
		Pages: PagesConfig{
			Extensions:    slices.Clone(routes.DefaultExtensions),
			NameSeparator: routes.DefaultNameSeparator,
		},
		Stores: StoresConfig{
			Extensions: slices.Clone(stores.DefaultExtensions),
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
			Ignore:   slices.Clone(DefaultWatchIgnore),
		},
	}
}

// Validate reports the constraints the CUE schema cannot express, such as
// values supplied through the environment.
func (c *Config) Validate() error {
	var errs []error
	if _, err := area.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	if ok, terrs := routes.TrailingSlash(c.Pages.TrailingSlash).IsValid(); !ok {
		errs = append(errs, terrs...)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: negative duration %s", c.Watch.Debounce))
	}
	for i, pattern := range c.Watch.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("watch.ignore[%d]: malformed pattern %q", i, pattern))
		}
	}
	for i, ext := range c.Externals {
		if ext.Src == "" {
			errs = append(errs, fmt.Errorf("externals[%d]: empty src", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Options converts c into build options rooted at projectRoot.
func (c *Config) Options(projectRoot string) aggregate.Options {
	policy, _ := area.ParsePolicy(c.Policy)
	return aggregate.Options{
		ProjectRoot:     projectRoot,
		Base:            c.Base,
		App:             c.App,
		OutDir:          c.OutDir,
		Policy:          policy,
		Externals:       slices.Clone(c.Externals),
		PageExtensions:  slices.Clone(c.Pages.Extensions),
		StoreExtensions: slices.Clone(c.Stores.Extensions),
		FollowSymlinks:  c.Pages.FollowSymlinks,
		NameSeparator:   c.Pages.NameSeparator,
		TrailingSlash:   routes.TrailingSlash(c.Pages.TrailingSlash),
		Dev:             c.Dev,
		Debug:           c.Debug,
		MetricsFile:     c.MetricsFile,
	}
}
