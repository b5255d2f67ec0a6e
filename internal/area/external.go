// SPDX-License-Identifier: MPL-2.0

package area

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/invowk/areas/internal/diag"
	"github.com/invowk/areas/pkg/nspath"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"mvdan.cc/sh/v3/shell"
)

const (
	// DefaultExternalRoute is the route prefix of an external area without one.
	DefaultExternalRoute = "/external"
	// DefaultExternalNamespace is the namespace prefix of an external area without one.
	DefaultExternalNamespace = "/"

	packagesFolder = "node_modules"
	packageFile    = "package.json"
	defaultMain    = "index.js"
)

var (
	// rxPathRef matches references that name a folder rather than a package.
	rxPathRef = regexp.MustCompile(`^[./\\~@]`)
	// rxRootAlias matches the project-root aliases "~/" and "@/".
	rxRootAlias = regexp.MustCompile(`^[~@]/`)

	mainPath = jp.MustParseString("$.main")

	errNoPackage = errors.New("package not installed")
)

// ExternalRef names an area that lives outside the areas folder.
type ExternalRef struct {
	// Src is a folder (./x, ../x, /x, ~/x, @/x) or an installed package name
	// (name, @scope/name). Environment variables are expanded.
	Src string `json:"src" toml:"src" mapstructure:"src"`
	// Route is the route prefix of the area. Defaults to DefaultExternalRoute.
	Route string `json:"route,omitempty" toml:"route,omitempty" mapstructure:"route"`
	// Namespace is the namespace prefix of the area. Defaults to DefaultExternalNamespace.
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty" mapstructure:"namespace"`
}

// BuildExternals resolves every reference, skipping the ones that fail.
func (b *Builder) BuildExternals(refs []ExternalRef) []*Area {
	var areas []*Area
	for _, ref := range refs {
		if a := b.BuildExternal(ref); a != nil {
			areas = append(areas, a)
		}
	}
	return areas
}

// BuildExternal resolves ref into an area. It returns nil, after recording a
// warning, when the reference cannot be resolved or holds nothing usable.
func (b *Builder) BuildExternal(ref ExternalRef) *Area {
	src, err := shell.Expand(ref.Src, b.env)
	if err != nil {
		b.diags.Warn(diag.CodeExternalUnresolved, "", err, "cannot expand external area %q", ref.Src)
		return nil
	}
	src = strings.TrimSpace(src)

	route := nspath.Resolve("/", nspath.Normalize(orDefault(ref.Route, DefaultExternalRoute)))
	namespace := nspath.Resolve("/", nspath.Normalize(orDefault(ref.Namespace, DefaultExternalNamespace)))

	var (
		a        *Area
		resolved string
	)
	switch {
	case src == "":
		err = errors.New("empty reference")
	case rxPathRef.MatchString(src):
		a, resolved, err = b.resolveFolderRef(src, route, namespace)
	default:
		a, resolved, err = b.resolvePackage(src, route, namespace)
	}

	if err != nil {
		b.diags.Warn(diag.CodeExternalUnresolved, resolved, err, "external area %q does not exist", src)
		return nil
	}
	if a == nil {
		b.diags.Warn(diag.CodeExternalEmpty, resolved, nil, "external area %q has no pages or areas", src)
		return nil
	}

	a.External = true
	markExternal(a.Areas)
	return a
}

func (b *Builder) resolveFolderRef(src, route, namespace string) (*Area, string, error) {
	p := nspath.ToSlash(src)
	switch {
	case rxRootAlias.MatchString(p):
		p = nspath.Join(b.projectRoot, p[2:])
	case strings.HasPrefix(p, "@"):
		// a scoped package takes precedence over a folder of the same name
		if a, dir, err := b.resolvePackage(src, route, namespace); err == nil {
			return a, dir, nil
		}
		p = nspath.Resolve(b.projectRoot, p)
	case !nspath.IsAbs(p):
		p = nspath.Resolve(b.projectRoot, p)
	}

	if !b.scanner.IsDir(p) {
		return nil, p, fmt.Errorf("folder %q not found", p)
	}
	return b.buildArea(p, route, namespace), p, nil
}

// resolvePackage locates an installed package and uses the folder of its
// main entry as the area root. The area takes the package name.
func (b *Builder) resolvePackage(name, route, namespace string) (*Area, string, error) {
	pkgDir := nspath.Join(b.projectRoot, packagesFolder, name)
	manifest := nspath.Join(pkgDir, packageFile)

	data, err := b.scanner.ReadFile(manifest)
	if err != nil {
		return nil, manifest, fmt.Errorf("%w: %s", errNoPackage, name)
	}

	main, err := packageMain(data)
	if err != nil {
		return nil, manifest, fmt.Errorf("%s: %w", manifest, err)
	}

	dir := nspath.Dir(nspath.Resolve(pkgDir, main))
	if !b.scanner.IsDir(dir) {
		return nil, dir, fmt.Errorf("package %s: entry folder %q not found", name, dir)
	}

	a := b.buildArea(dir, route, namespace)
	if a != nil {
		a.Name = name
	}
	return a, dir, nil
}

// packageMain returns the main entry declared in a package manifest.
func packageMain(data []byte) (string, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse package manifest: %w", err)
	}
	for _, v := range mainPath.Get(doc) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	return defaultMain, nil
}

func markExternal(areas []*Area) {
	Walk(areas, func(a *Area) { a.External = true })
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
