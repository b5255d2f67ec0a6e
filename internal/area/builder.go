// SPDX-License-Identifier: MPL-2.0

package area

import (
	"strings"

	"github.com/invowk/areas/internal/areaconfig"
	"github.com/invowk/areas/internal/diag"
	"github.com/invowk/areas/internal/fsscan"
	"github.com/invowk/areas/pkg/nspath"
)

const (
	// DefaultAppFolder is the host application folder skipped by the scan.
	DefaultAppFolder = "app"
	// PagesFolder is the folder that turns an area into a leaf.
	PagesFolder = "pages"
)

type (
	// Builder turns an areas folder into a tree of Area records.
	Builder struct {
		scanner     *fsscan.Scanner
		loader      areaconfig.Loader
		diags       *diag.Collector
		appFolder   string
		policy      Policy
		projectRoot string
		env         func(string) string
	}

	// Option configures a Builder.
	Option func(*Builder)
)

// WithAppFolder sets the name of the root-level folder that belongs to the
// host application and is never scanned as an area.
func WithAppFolder(name string) Option {
	return func(b *Builder) { b.appFolder = name }
}

// WithPolicy sets the classification policy.
func WithPolicy(p Policy) Option {
	return func(b *Builder) {
		if p != "" {
			b.policy = p
		}
	}
}

// WithDiagnostics sets the collector receiving recoverable problems.
func WithDiagnostics(c *diag.Collector) Option {
	return func(b *Builder) {
		if c != nil {
			b.diags = c
		}
	}
}

// WithProjectRoot sets the folder that relative and aliased external area
// references resolve against.
func WithProjectRoot(root string) Option {
	return func(b *Builder) { b.projectRoot = nspath.ToSlash(root) }
}

// WithEnv sets the variable lookup used to expand external area references.
// A nil function uses the process environment.
func WithEnv(fn func(string) string) Option {
	return func(b *Builder) { b.env = fn }
}

// New returns a Builder scanning through scanner and loading override files
// through loader.
func New(scanner *fsscan.Scanner, loader areaconfig.Loader, opts ...Option) *Builder {
	b := &Builder{
		scanner:     scanner,
		loader:      loader,
		appFolder:   DefaultAppFolder,
		policy:      PolicyPages,
		projectRoot: "/",
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.diags == nil {
		b.diags = diag.NewCollector(nil)
	}
	return b
}

// Diagnostics returns the collector used by the builder.
func (b *Builder) Diagnostics() *diag.Collector {
	return b.diags
}

// Build scans root and returns its top-level areas in folder-name order. A
// missing root yields no areas.
func (b *Builder) Build(root string) []*Area {
	return b.buildChildren(nspath.ToSlash(root), "/", "/", b.appFolder)
}

// buildChildren builds an area for every sub-folder of folder except skip.
func (b *Builder) buildChildren(folder, route, namespace, skip string) []*Area {
	names, err := b.scanner.ListSubfolders(folder)
	if err != nil {
		b.diags.Warn(diag.CodeScanFailed, folder, err, "cannot list areas in %q, skipping it", folder)
		return nil
	}

	var areas []*Area
	for _, name := range names {
		if name == skip {
			continue
		}
		child := b.buildArea(nspath.Join(folder, name), nspath.Resolve(route, name), nspath.Resolve(namespace, name))
		if child != nil {
			areas = append(areas, child)
		}
	}
	return areas
}

// buildArea classifies folder. route and namespace are the prefixes already
// extended with the folder name.
func (b *Builder) buildArea(folder, route, namespace string) *Area {
	a := &Area{
		Name:      nspath.Base(folder),
		Path:      folder,
		Route:     route,
		Namespace: namespace,
	}

	hasPages := b.scanner.IsDir(nspath.Join(folder, PagesFolder))
	groupConfig, hasGroupConfig := b.scanner.FindFirstExisting(folder, areaconfig.GroupCandidates)

	if hasPages && (b.policy == PolicyPages || !hasGroupConfig) {
		a.Kind = KindLeaf
		if routesFile, ok := b.scanner.FindFirstExisting(folder, areaconfig.RoutesCandidates); ok {
			a.ConfigFile = nspath.Base(routesFile)
		}
		return a
	}

	a.Kind = KindGroup
	if hasGroupConfig {
		a.ConfigFile = nspath.Base(groupConfig)
		d := b.loadDescriptor(groupConfig)
		if d.Namespace != nil {
			a.Namespace = ApplyOverride(namespace, *d.Namespace)
		}
		if d.Route != nil {
			a.Route = ApplyOverride(route, *d.Route)
		}
	}

	// a group holding pages under PolicyConfig does not scan them as areas
	skip := ""
	if hasPages {
		skip = PagesFolder
	}
	a.Areas = b.buildChildren(folder, a.Route, a.Namespace, skip)
	if len(a.Areas) == 0 && !hasGroupConfig {
		return nil
	}
	if a.Areas == nil {
		a.Areas = []*Area{}
	}
	return a
}

func (b *Builder) loadDescriptor(path string) *areaconfig.Descriptor {
	d, err := b.loader.Load(path)
	if err != nil {
		b.diags.Warn(diag.CodeConfigLoadFailed, path, err, "cannot read area config %q, ignoring it", path)
		return areaconfig.Empty()
	}
	return d
}

// ApplyOverride replaces the last segment of computed with override.
//
// An override written as a parent escape ("../x") is resolved from computed
// directly; any other relative override ("x") is resolved from the parent of
// computed. Both spellings therefore replace the folder-name segment exactly
// once. An absolute override replaces the whole prefix, and an empty one
// mounts the folder at its parent level.
func ApplyOverride(computed, override string) string {
	o := nspath.Normalize(strings.TrimSpace(override))
	if o == ".." || strings.HasPrefix(o, "../") {
		return nspath.Resolve(computed, o)
	}
	return nspath.Resolve(computed, "..", o)
}
