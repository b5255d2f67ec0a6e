// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/invowk/areas/internal/aggregate"
	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/issue"
	"github.com/invowk/areas/internal/routes"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return p
}

func load(t *testing.T, opts LoadOptions) *Config {
	t.Helper()

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Base != aggregate.DefaultBase {
		t.Errorf("Base = %q, want %q", cfg.Base, aggregate.DefaultBase)
	}
	if cfg.Policy != string(area.PolicyPages) {
		t.Errorf("Policy = %q, want pages", cfg.Policy)
	}
	if !slices.Equal(cfg.Pages.Extensions, routes.DefaultExtensions) {
		t.Errorf("Pages.Extensions = %v", cfg.Pages.Extensions)
	}
	if cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("Watch.Debounce = %s", cfg.Watch.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg := load(t, LoadOptions{ProjectRoot: t.TempDir()})

	if cfg.SourceFile != "" {
		t.Errorf("SourceFile = %q, want empty", cfg.SourceFile)
	}
	if cfg.OutDir != aggregate.DefaultOutDir || cfg.App != area.DefaultAppFolder {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !slices.Equal(cfg.Watch.Ignore, DefaultWatchIgnore) {
		t.Errorf("Watch.Ignore = %v", cfg.Watch.Ignore)
	}
}

func TestLoadProjectConfig(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, FileName(), `
base:   "src/areas"
policy: "config"
externals: [
	{src: "~/vendor/docs", route: "/docs", namespace: "docs"},
	{src: "@acme/faq"},
]
pages: {
	extensions:     ["vue", "tsx"]
	trailing_slash: "never"
}
watch: debounce: "750ms"
debug: true
`)

	cfg := load(t, LoadOptions{ProjectRoot: root})

	if cfg.SourceFile != path {
		t.Errorf("SourceFile = %q, want %q", cfg.SourceFile, path)
	}
	if cfg.Base != "src/areas" || cfg.Policy != "config" || !cfg.Debug {
		t.Errorf("unexpected top-level values: %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.App != area.DefaultAppFolder || cfg.Pages.NameSeparator != routes.DefaultNameSeparator {
		t.Errorf("defaults lost: app=%q sep=%q", cfg.App, cfg.Pages.NameSeparator)
	}
	if !slices.Equal(cfg.Pages.Extensions, []string{"vue", "tsx"}) {
		t.Errorf("Pages.Extensions = %v", cfg.Pages.Extensions)
	}
	if cfg.Watch.Debounce != 750*time.Millisecond {
		t.Errorf("Watch.Debounce = %s", cfg.Watch.Debounce)
	}

	want := []area.ExternalRef{
		{Src: "~/vendor/docs", Route: "/docs", Namespace: "docs"},
		{Src: "@acme/faq"},
	}
	if !slices.Equal(cfg.Externals, want) {
		t.Errorf("Externals = %+v, want %+v", cfg.Externals, want)
	}

	opts := cfg.Options(root)
	if opts.Policy != area.PolicyConfig || opts.TrailingSlash != routes.TrailingSlashNever {
		t.Errorf("Options() = %+v", opts)
	}
	if err := opts.WithDefaults().Validate(); err != nil {
		t.Errorf("Options() invalid: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		explicit string
		wantMsg  string
		wantId   issue.Id
	}{
		{
			name:    "syntax error",
			content: `base: "x`,
			wantId:  issue.ConfigLoadFailedId,
		},
		{
			name:    "unknown field",
			content: `colour: "red"`,
			wantMsg: "colour",
			wantId:  issue.ConfigLoadFailedId,
		},
		{
			name:    "bad policy",
			content: `policy: "folders"`,
			wantMsg: "policy",
			wantId:  issue.ConfigLoadFailedId,
		},
		{
			// rejected by the schema or by Validate, depending on concreteness
			name:    "external without src",
			content: `externals: [{route: "/x"}]`,
		},
		{
			name:    "bad ignore pattern",
			content: `watch: ignore: ["[unclosed"]`,
			wantMsg: "watch.ignore[0]",
			wantId:  issue.ConfigInvalidId,
		},
		{
			name:     "explicit file missing",
			explicit: "nope.cue",
			wantMsg:  "config file not found",
			wantId:   issue.ConfigLoadFailedId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			opts := LoadOptions{ProjectRoot: root}
			if tt.content != "" {
				writeFile(t, root, FileName(), tt.content)
			}
			if tt.explicit != "" {
				opts.ConfigFilePath = filepath.Join(root, tt.explicit)
			}

			_, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T", err)
			}
			if tt.wantId != 0 && ae.Issue != tt.wantId {
				t.Errorf("Issue = %d, want %d", ae.Issue, tt.wantId)
			}
			if !ae.HasSuggestions() {
				t.Error("error has no suggestions")
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadInvalidValueWrapsSentinel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, FileName(), `watch: ignore: ["a/[b"]`)

	_, err := NewProvider().Load(context.Background(), LoadOptions{ProjectRoot: root})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error should wrap ErrInvalidConfig, got %v", err)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, FileName(), `base: "ignored"`)
	other := writeFile(t, t.TempDir(), "custom.cue", `base: "custom"`)

	cfg := load(t, LoadOptions{ProjectRoot: root, ConfigFilePath: other})
	if cfg.Base != "custom" || cfg.SourceFile != other {
		t.Errorf("Base = %q from %q, want custom from %q", cfg.Base, cfg.SourceFile, other)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

// Environment tests cannot run in parallel with t.Setenv.

func TestLoadEnvOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName(), `base: "from-file"
dev: false`)
	t.Setenv(EnvName("base"), "from-env")
	t.Setenv(EnvName("dev"), "true")
	t.Setenv(EnvName("pages.extensions"), "vue,md")

	cfg := load(t, LoadOptions{ProjectRoot: root})

	if cfg.Base != "from-env" {
		t.Errorf("Base = %q, want from-env", cfg.Base)
	}
	if !cfg.Dev {
		t.Error("Dev = false, want true")
	}
	if !slices.Equal(cfg.Pages.Extensions, []string{"vue", "md"}) {
		t.Errorf("Pages.Extensions = %v", cfg.Pages.Extensions)
	}
}

func TestLoadEnvFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName(), `base: "from-file"
out_dir: "from-file"`)
	writeFile(t, root, EnvFileName, "AREAS_BASE=from-dotenv\nAREAS_OUT_DIR=from-dotenv\nOTHER=1\n")
	t.Setenv(EnvName("out_dir"), "from-env")

	cfg := load(t, LoadOptions{ProjectRoot: root})

	if cfg.Base != "from-dotenv" {
		t.Errorf("Base = %q, want the .env value to beat the file", cfg.Base)
	}
	if cfg.OutDir != "from-env" {
		t.Errorf("OutDir = %q, want the real environment to beat .env", cfg.OutDir)
	}
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"base":                 "AREAS_BASE",
		"pages.trailing_slash": "AREAS_PAGES_TRAILING_SLASH",
		"watch.debounce":       "AREAS_WATCH_DEBOUNCE",
	}
	for key, want := range tests {
		if got := EnvName(key); got != want {
			t.Errorf("EnvName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestGenerateCUERoundTrips(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Externals = []area.ExternalRef{{Src: "@acme/faq", Route: "/faq"}}
	cfg.Pages.TrailingSlash = "always"
	cfg.MetricsFile = "metrics.prom"

	root := t.TempDir()
	writeFile(t, root, FileName(), GenerateCUE(cfg))

	got := load(t, LoadOptions{ProjectRoot: root})
	got.SourceFile = ""
	if GenerateCUE(got) != GenerateCUE(cfg) {
		t.Errorf("round trip changed config:\n%s\nwant:\n%s", GenerateCUE(got), GenerateCUE(cfg))
	}
}
