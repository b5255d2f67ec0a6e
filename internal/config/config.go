// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/areas/internal/issue"
	"github.com/invowk/areas/pkg/cueutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "areas"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "areas.config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes the environment variables overriding config keys.
	EnvPrefix = "AREAS"
	// EnvFileName is the optional dotenv file read from the project root.
	EnvFileName = ".env"

	configDefinition = "#Config"
)

//go:embed config_schema.cue
var configSchema string

// FileName returns the default config file name.
func FileName() string {
	return ConfigFileName + "." + ConfigFileExt
}

// EnvName returns the environment variable overriding key, for example
// "pages.trailing_slash" becomes "AREAS_PAGES_TRAILING_SLASH".
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// An explicit --config path must exist; the project-root file is optional.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'areas config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else if opts.ProjectRoot != "" {
		if p := filepath.Join(opts.ProjectRoot, FileName()); fileExists(p) {
			resolvedPath = p
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'areas config show' to print a valid configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	envFile := opts.EnvFilePath
	if envFile == "" && opts.ProjectRoot != "" {
		envFile = filepath.Join(opts.ProjectRoot, EnvFileName)
	}
	if err := loadEnvFileIntoViper(v, envFile); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load environment file").
			WithResource(envFile).
			WithSuggestion("Check that every line has the form KEY=value").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.SourceFile = resolvedPath

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check values supplied through " + EnvPrefix + "_* environment variables").
			WithSuggestion("Ignore patterns use doublestar syntax, for example \"**/*.tmp\"").
			WithIssue(issue.ConfigInvalidId).
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// setDefaults registers every key of defaults so that AutomaticEnv can
// resolve it during Unmarshal.
func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("base", defaults.Base)
	v.SetDefault("app", defaults.App)
	v.SetDefault("out_dir", defaults.OutDir)
	v.SetDefault("policy", defaults.Policy)
	v.SetDefault("externals", defaults.Externals)
	v.SetDefault("pages.extensions", defaults.Pages.Extensions)
	v.SetDefault("pages.follow_symlinks", defaults.Pages.FollowSymlinks)
	v.SetDefault("pages.name_separator", defaults.Pages.NameSeparator)
	v.SetDefault("pages.trailing_slash", defaults.Pages.TrailingSlash)
	v.SetDefault("stores.extensions", defaults.Stores.Extensions)
	v.SetDefault("dev", defaults.Dev)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("metrics_file", defaults.MetricsFile)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Fields are optional, so values need not
// be concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, configDefinition, data,
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// loadEnvFileIntoViper applies the AREAS_* entries of a dotenv file. Real
// environment variables take precedence, so an entry is only used when the
// variable is unset. A missing file is not an error.
func loadEnvFileIntoViper(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	entries, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}

	for _, key := range v.AllKeys() {
		name := EnvName(key)
		value, ok := entries[name]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(key, value)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// areas configuration file\n\n")

	fmt.Fprintf(&sb, "base:    %q\n", cfg.Base)
	fmt.Fprintf(&sb, "app:     %q\n", cfg.App)
	fmt.Fprintf(&sb, "out_dir: %q\n", cfg.OutDir)
	fmt.Fprintf(&sb, "policy:  %q\n", cfg.Policy)
	if cfg.Dev {
		sb.WriteString("dev:     true\n")
	}
	if cfg.Debug {
		sb.WriteString("debug:   true\n")
	}
	if cfg.MetricsFile != "" {
		fmt.Fprintf(&sb, "metrics_file: %q\n", cfg.MetricsFile)
	}

	if len(cfg.Externals) > 0 {
		sb.WriteString("\nexternals: [\n")
		for _, ext := range cfg.Externals {
			fmt.Fprintf(&sb, "\t{src: %q", ext.Src)
			if ext.Route != "" {
				fmt.Fprintf(&sb, ", route: %q", ext.Route)
			}
			if ext.Namespace != "" {
				fmt.Fprintf(&sb, ", namespace: %q", ext.Namespace)
			}
			sb.WriteString("},\n")
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\npages: {\n")
	fmt.Fprintf(&sb, "\textensions: %s\n", cueList(cfg.Pages.Extensions))
	fmt.Fprintf(&sb, "\tfollow_symlinks: %v\n", cfg.Pages.FollowSymlinks)
	fmt.Fprintf(&sb, "\tname_separator: %q\n", cfg.Pages.NameSeparator)
	if cfg.Pages.TrailingSlash != "" {
		fmt.Fprintf(&sb, "\ttrailing_slash: %q\n", cfg.Pages.TrailingSlash)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nstores: {\n")
	fmt.Fprintf(&sb, "\textensions: %s\n", cueList(cfg.Stores.Extensions))
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	fmt.Fprintf(&sb, "\tignore: %s\n", cueList(cfg.Watch.Ignore))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, fmt.Sprintf("%q", item))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
