// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/areaconfig"
	"github.com/invowk/areas/internal/diag"
	"github.com/invowk/areas/internal/fsscan"
	"github.com/invowk/areas/pkg/nspath"
)

const (
	// RootAlias is the alias prefix of the project root.
	RootAlias = "~"

	defaultComponentExt = ".vue"
)

var (
	rxComponentExt = regexp.MustCompile(`\.(vue|js|ts|tsx)$`)
	rxChunkExt     = regexp.MustCompile(`\.\w+$`)
)

type (
	// Deriver produces the route table of an area tree.
	Deriver struct {
		scanner     *fsscan.Scanner
		compiler    PageCompiler
		loader      areaconfig.Loader
		diags       *diag.Collector
		opts        CompileOptions
		projectRoot string
		aliases     map[string]string
		missing     string
	}

	// Option configures a Deriver.
	Option func(*Deriver)
)

// WithCompileOptions sets the options handed to the page compiler and used
// for naming and trailing slashes.
func WithCompileOptions(o CompileOptions) Option {
	return func(d *Deriver) { d.opts = o.WithDefaults() }
}

// WithProjectRoot sets the project root used for the "~" alias and chunk names.
func WithProjectRoot(root string) Option {
	return func(d *Deriver) { d.projectRoot = strings.TrimSuffix(nspath.ToSlash(root), "/") }
}

// WithAliases adds component aliases on top of the project-root alias.
func WithAliases(aliases map[string]string) Option {
	return func(d *Deriver) {
		for k, v := range aliases {
			d.aliases[k] = v
		}
	}
}

// WithMissingComponent sets the absolute path of the placeholder component
// used for routes whose component does not exist.
func WithMissingComponent(p string) Option {
	return func(d *Deriver) { d.missing = nspath.ToSlash(p) }
}

// WithDiagnostics sets the collector receiving recoverable problems.
func WithDiagnostics(c *diag.Collector) Option {
	return func(d *Deriver) {
		if c != nil {
			d.diags = c
		}
	}
}

// NewDeriver returns a Deriver compiling pages with compiler and reading
// routes files with loader.
func NewDeriver(scanner *fsscan.Scanner, compiler PageCompiler, loader areaconfig.Loader, opts ...Option) *Deriver {
	d := &Deriver{
		scanner:     scanner,
		compiler:    compiler,
		loader:      loader,
		opts:        CompileOptions{}.WithDefaults(),
		projectRoot: "",
		aliases:     map[string]string{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if _, ok := d.aliases[RootAlias]; !ok {
		d.aliases[RootAlias] = d.projectRoot
	}
	if d.diags == nil {
		d.diags = diag.NewCollector(nil)
	}
	if d.missing == "" {
		d.missing = nspath.Join(d.projectRoot, "components", "Missing.vue")
	}
	return d
}

// Derive returns the ordered route table of areas. Only a failing page
// compiler aborts the derivation; every other problem is recorded as a
// diagnostic.
func (d *Deriver) Derive(areas []*area.Area) ([]Route, error) {
	var all []Route
	for _, a := range areas {
		var (
			routes []Route
			err    error
		)
		if a.IsLeaf() {
			routes, err = d.deriveLeaf(a)
		} else {
			routes, err = d.Derive(a.Areas)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, routes...)
	}
	Sort(all)
	return all, nil
}

func (d *Deriver) deriveLeaf(a *area.Area) ([]Route, error) {
	routes, explicit := d.explicitRoutes(a)
	if !explicit {
		compiled, err := d.compiler.Compile(a.Path, d.opts)
		if err != nil {
			return nil, fmt.Errorf("compile pages of area %q: %w", a.Path, err)
		}
		routes = compiled
	}

	for i := range routes {
		routes[i].Path = d.applyTrailingSlash(nspath.Join("/", a.Route, routes[i].Path))
	}
	d.check(routes, a.Path, "")
	Sort(routes)

	return routes, nil
}

// explicitRoutes returns the route list of the area's routes file. The second
// result is false when the page compiler should run instead.
func (d *Deriver) explicitRoutes(a *area.Area) ([]Route, bool) {
	if a.ConfigFile == "" || !slices.Contains(areaconfig.RoutesCandidates, a.ConfigFile) {
		return nil, false
	}

	p := a.ConfigPath()
	desc, err := d.loader.Load(p)
	if err != nil {
		d.diags.Warn(diag.CodeConfigLoadFailed, p, err, "cannot read routes file %q, compiling pages instead", p)
		return nil, false
	}
	if desc.RoutesErr != nil {
		d.diags.Warn(diag.CodeRoutesMalformed, p, desc.RoutesErr, "routes in %q are not a list, skipping area %q", p, a.Name)
		return nil, true
	}
	if !desc.HasRoutes {
		return nil, false
	}
	return fromDefs(desc.Routes), true
}

func fromDefs(defs []areaconfig.RouteDef) []Route {
	routes := make([]Route, 0, len(defs))
	for _, def := range defs {
		component := def.Component
		if component == "" && def.Page != "" {
			component = path.Join(area.PagesFolder, def.Page)
		}
		if !rxComponentExt.MatchString(component) {
			component += defaultComponentExt
		}
		routes = append(routes, Route{
			Path:      def.Path,
			Component: component,
			Name:      def.Name,
			Children:  fromDefs(def.Children),
		})
	}
	if len(routes) == 0 {
		return nil
	}
	return routes
}

// check resolves components, derives chunk names and names, bottom-up for
// children. prefix accumulates the paths of the enclosing routes.
func (d *Deriver) check(routes []Route, folder, prefix string) {
	for i := range routes {
		r := &routes[i]

		component := nspath.ToSlash(r.Component)
		if !nspath.IsAbs(component) {
			component = nspath.Resolve(folder, component)
		}
		if !d.scanner.Exists(component) {
			d.diags.Warn(diag.CodeComponentMissing, component, nil, "component %q of route %q does not exist", component, r.Path)
			component = d.missing
		}
		r.Component = nspath.Alias(component, d.aliases)
		r.ChunkName = d.chunkName(r.Component)

		if r.Name == "" {
			r.Name = MakeName(d.opts.NameSeparator, prefix, r.Path)
		}

		if len(r.Children) > 0 {
			d.check(r.Children, folder, prefix+"/"+r.Path)
			if slices.ContainsFunc(r.Children, func(c Route) bool { return c.Name == r.Name }) {
				r.Name = ""
			}
		}
	}
}

// chunkName turns an aliased component into a bundler chunk name, for
// example "~/areas/blog/pages/post-list.vue" becomes
// "areas/blog/pages/post/list".
func (d *Deriver) chunkName(component string) string {
	name := strings.TrimPrefix(component, RootAlias+"/")
	if d.projectRoot != "" {
		name = strings.TrimPrefix(name, d.projectRoot+"/")
	}
	name = rxChunkExt.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "-", "/")
}

func (d *Deriver) applyTrailingSlash(p string) string {
	switch d.opts.TrailingSlash {
	case TrailingSlashAlways:
		if !strings.HasSuffix(p, "/") {
			return p + "/"
		}
	case TrailingSlashNever:
		if p != "/" {
			return strings.TrimSuffix(p, "/")
		}
	}
	return p
}
