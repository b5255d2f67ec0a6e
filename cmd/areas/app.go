// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/invowk/areas/internal/aggregate"
	"github.com/invowk/areas/internal/config"
	"github.com/invowk/areas/internal/emit"
	"github.com/invowk/areas/internal/issue"
	"github.com/invowk/areas/pkg/nspath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reaches configuration and output through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		logger *slog.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// project is the resolved input of one command run.
	project struct {
		Root    string
		Config  *config.Config
		Options aggregate.Options
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	app.logger = newLogger(app.stderr, false)
	return app
}

// newLogger returns a slog logger backed by charmbracelet/log.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	return slog.New(handler)
}

// loadProject resolves the project root, loads its configuration and applies
// the global flags on top.
func (a *App) loadProject(cmd *cobra.Command, flags *rootFlagValues) (*project, error) {
	root := flags.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		if statErr == nil {
			statErr = fmt.Errorf("%s is not a directory", root)
		}
		return nil, issue.NewErrorContext().
			WithOperation("open project").
			WithResource(root).
			WithSuggestion("Pass the folder holding your areas with --root").
			WithIssue(issue.ProjectRootNotFoundId).
			Wrap(statErr).
			BuildError()
	}

	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ProjectRoot:    root,
		ConfigFilePath: flags.configPath,
	})
	if err != nil {
		return nil, err
	}

	if flags.verbose || cfg.UI.Verbose {
		a.logger = newLogger(a.stderr, true)
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = flags.debug
	}
	if cmd.Flags().Changed("dev") {
		cfg.Dev = flags.dev
	}

	a.logger.Debug("project loaded", "root", root, "config", cfg.SourceFile)

	return &project{
		Root:    root,
		Config:  cfg,
		Options: cfg.Options(nspath.ToSlash(root)),
	}, nil
}

// newAggregator creates the build pipeline of p.
func (a *App) newAggregator(p *project, metrics *aggregate.Metrics) (*aggregate.Aggregator, error) {
	fns := []aggregate.Option{aggregate.WithLogger(a.logger)}
	if metrics != nil {
		fns = append(fns, aggregate.WithMetrics(metrics))
	}
	agg, err := aggregate.New(p.Options, fns...)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("prepare build").
			WithResource(p.Root).
			WithSuggestion("Run 'areas config show' to inspect the effective configuration").
			WithIssue(issue.ConfigInvalidId).
			Wrap(err).
			BuildError()
	}
	return agg, nil
}

// buildAndEmit runs one build, merges it into the host manifest at
// manifestPath (when set) and writes the generated artefacts.
func (a *App) buildAndEmit(ctx context.Context, agg *aggregate.Aggregator, manifestPath string) (*aggregate.Result, []string, error) {
	res, err := agg.Build(ctx)
	if err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("build areas").
			WithResource(agg.Options().BasePath()).
			WithSuggestion("Check the pages folders of your areas for unreadable files").
			WithIssue(issue.PageCompileFailedId).
			Wrap(err).
			BuildError()
	}

	fs := agg.Scanner().FS()
	host := &aggregate.Manifest{}
	if manifestPath != "" {
		abs, absErr := filepath.Abs(manifestPath)
		if absErr != nil {
			return nil, nil, fmt.Errorf("resolve manifest path: %w", absErr)
		}
		host, err = emit.LoadManifest(fs, nspath.ToSlash(abs))
		if err != nil {
			return nil, nil, issue.NewErrorContext().
				WithOperation("read host manifest").
				WithResource(manifestPath).
				WithSuggestion("The manifest must be a JSON object, see 'areas inspect --format json'").
				WithIssue(issue.ManifestInvalidId).
				Wrap(err).
				BuildError()
		}
	}
	aggregate.Inject(host, res)

	written, err := emit.New(fs, agg.Options().OutPath()).Emit(host, res)
	if err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("write generated files").
			WithResource(agg.Options().OutPath()).
			WithSuggestion("Check that the output folder is writable").
			WithIssue(issue.OutputWriteFailedId).
			Wrap(err).
			BuildError()
	}
	return res, written, nil
}
