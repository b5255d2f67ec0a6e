// SPDX-License-Identifier: MPL-2.0

// Package aggregate runs one areas build: it scans the areas folder and the
// external areas into an area tree, derives the route table and the store
// list, computes aliases and the watch list, and injects the result into a
// host manifest.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/areaconfig"
	"github.com/invowk/areas/internal/diag"
	"github.com/invowk/areas/internal/fsscan"
	"github.com/invowk/areas/internal/pages"
	"github.com/invowk/areas/internal/routes"
	"github.com/invowk/areas/internal/storereg"
	"github.com/invowk/areas/internal/stores"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/invowk/areas/internal/aggregate"

type (
	// Aggregator runs builds for one project.
	Aggregator struct {
		opts     Options
		scanner  *fsscan.Scanner
		loader   areaconfig.Loader
		compiler routes.PageCompiler
		logger   *slog.Logger
		tracer   trace.Tracer
		metrics  *Metrics
		env      func(string) string
		now      func() time.Time
	}

	// Option configures an Aggregator.
	Option func(*Aggregator)

	// Result is the output of one build.
	Result struct {
		// Options are the effective build options.
		Options Options
		// Areas is the area tree, scanned areas first, then external areas.
		Areas []*area.Area
		// Externals holds the resolved external areas, also present in Areas.
		Externals []*area.Area
		// Routes is the ordered route table.
		Routes []routes.Route
		// Stores is the ordered store list.
		Stores []stores.Record
		// Aliases maps alias prefixes to absolute folders.
		Aliases map[string]string
		// Watch lists the files that must trigger a rebuild in dev mode.
		Watch []string
		// Diagnostics holds every recoverable problem of the build.
		Diagnostics []diag.Diagnostic
		// Duration is the wall time of the build.
		Duration time.Duration
	}
)

// WithScanner sets the filesystem scanner. The default scans the host
// filesystem.
func WithScanner(s *fsscan.Scanner) Option {
	return func(a *Aggregator) { a.scanner = s }
}

// WithLoader sets the override descriptor loader.
func WithLoader(l areaconfig.Loader) Option {
	return func(a *Aggregator) { a.loader = l }
}

// WithCompiler replaces the default pages compiler.
func WithCompiler(c routes.PageCompiler) Option {
	return func(a *Aggregator) { a.compiler = c }
}

// WithLogger sets the logger diagnostics are reported through.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithTracerProvider sets the provider build spans are created from. The
// default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Aggregator) {
		if tp != nil {
			a.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithMetrics records every build into m.
func WithMetrics(m *Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithClock sets the time source used to measure Result.Duration.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithEnv sets the variable lookup used to expand external area references.
func WithEnv(fn func(string) string) Option {
	return func(a *Aggregator) { a.env = fn }
}

// New returns an Aggregator for opts. Options are defaulted and validated.
func New(opts Options, fns ...Option) (*Aggregator, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	a := &Aggregator{opts: opts, now: time.Now}
	for _, fn := range fns {
		fn(a)
	}
	if a.scanner == nil {
		a.scanner = fsscan.New(nil)
	}
	if a.loader == nil {
		a.loader = areaconfig.NewFileLoader(a.scanner)
	}
	if a.compiler == nil {
		a.compiler = pages.New(a.scanner)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(tracerName)
	}
	return a, nil
}

// Options returns the effective options.
func (a *Aggregator) Options() Options {
	return a.opts
}

// Scanner returns the scanner builds read through.
func (a *Aggregator) Scanner() *fsscan.Scanner {
	return a.scanner
}

// Build runs one aggregation. Recoverable problems end up in
// Result.Diagnostics; an error is returned only when the page compiler
// fails, the context is cancelled or the debug snapshots cannot be written.
func (a *Aggregator) Build(ctx context.Context) (*Result, error) {
	start := a.now()
	ctx, span := a.tracer.Start(ctx, "areas.build", trace.WithAttributes(
		attribute.String("areas.base", a.opts.BasePath()),
	))
	defer span.End()

	res, err := a.build(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Duration = a.now().Sub(start)

	span.SetAttributes(
		attribute.Int("areas.routes", routes.Count(res.Routes)),
		attribute.Int("areas.stores", len(res.Stores)),
		attribute.Int("areas.diagnostics", len(res.Diagnostics)),
	)

	a.logger.Debug("areas build finished",
		"routes", len(res.Routes),
		"stores", len(res.Stores),
		"diagnostics", len(res.Diagnostics),
		"duration", res.Duration)

	if a.opts.Debug {
		if err := a.phase(ctx, "areas.debug", func() (int, error) {
			return WriteDebug(a.scanner.FS(), a.opts.BasePath(), res)
		}); err != nil {
			return nil, err
		}
	}

	if a.metrics != nil {
		a.metrics.Observe(res)
		if a.opts.MetricsFile != "" {
			if err := a.metrics.WriteTextfile(a.opts.MetricsFile); err != nil {
				// metrics never fail a build
				a.logger.Warn("cannot write metrics textfile", "path", a.opts.MetricsFile, "error", err)
			}
		}
	}

	return res, nil
}

func (a *Aggregator) build(ctx context.Context) (*Result, error) {
	diags := diag.NewCollector(a.logger)
	root := a.opts.ProjectRoot
	res := &Result{Options: a.opts}

	builder := area.New(a.scanner, a.loader,
		area.WithAppFolder(a.opts.App),
		area.WithPolicy(a.opts.Policy),
		area.WithDiagnostics(diags),
		area.WithProjectRoot(root),
		area.WithEnv(a.env),
	)

	if err := a.phase(ctx, "areas.scan", func() (int, error) {
		res.Areas = builder.Build(a.opts.BasePath())
		return len(res.Areas), nil
	}); err != nil {
		return nil, err
	}

	if err := a.phase(ctx, "areas.externals", func() (int, error) {
		res.Externals = builder.BuildExternals(a.opts.Externals)
		res.Areas = append(res.Areas, res.Externals...)
		return len(res.Externals), nil
	}); err != nil {
		return nil, err
	}

	rootAlias := map[string]string{routes.RootAlias: root}

	if err := a.phase(ctx, "areas.routes", func() (int, error) {
		deriver := routes.NewDeriver(a.scanner, a.compiler, a.loader,
			routes.WithCompileOptions(a.opts.CompileOptions()),
			routes.WithProjectRoot(root),
			routes.WithMissingComponent(a.opts.MissingComponent()),
			routes.WithDiagnostics(diags),
		)
		var err error
		res.Routes, err = deriver.Derive(res.Areas)
		if err != nil {
			return 0, fmt.Errorf("derive routes: %w", err)
		}
		return routes.Count(res.Routes), nil
	}); err != nil {
		return nil, err
	}

	if err := a.phase(ctx, "areas.stores", func() (int, error) {
		deriver := stores.NewDeriver(a.scanner,
			stores.WithExtensions(a.opts.StoreExtensions),
			stores.WithAliases(rootAlias),
			stores.WithDiagnostics(diags),
		)
		res.Stores = deriver.Derive(res.Areas)
		return len(res.Stores), nil
	}); err != nil {
		return nil, err
	}

	res.Aliases = Aliases(a.opts, res.Externals)
	res.Watch = WatchList(a.opts, res.Areas)
	res.Diagnostics = diags.Diagnostics()
	return res, nil
}

// phase runs fn inside a child span. fn returns the number of produced
// items, recorded on the span.
func (a *Aggregator) phase(ctx context.Context, name string, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	_, span := a.tracer.Start(ctx, name)
	defer span.End()

	n, err := fn()
	span.SetAttributes(attribute.Int("areas.items", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// StoreTree registers the stores of r into a fresh in-memory tree.
func (r *Result) StoreTree() (*storereg.Tree, error) {
	tree := storereg.NewTree()
	if err := storereg.Register(tree, r.Stores); err != nil {
		return nil, err
	}
	return tree, nil
}

// Aliases returns the alias table of a build: "~" and "@" map to the project
// root, "~areas" to the areas folder and "@areas/<name>" to every external
// area.
func Aliases(opts Options, externals []*area.Area) map[string]string {
	aliases := map[string]string{
		"~":      opts.ProjectRoot,
		"@":      opts.ProjectRoot,
		"~areas": opts.BasePath(),
	}
	for _, ext := range externals {
		aliases["@areas/"+ext.Name] = ext.Path
	}
	return aliases
}

// WatchList returns the files that trigger a rebuild: the areas folder and
// every override file of the tree, without duplicates. It is empty unless
// dev mode is on.
func WatchList(opts Options, areas []*area.Area) []string {
	if !opts.Dev {
		return nil
	}
	watch := []string{opts.BasePath()}
	for _, p := range area.ConfigFiles(areas) {
		if !slices.Contains(watch, p) {
			watch = append(watch, p)
		}
	}
	return watch
}
