// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"errors"
	"slices"
	"testing"

	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/areaconfig"
	"github.com/invowk/areas/internal/diag"
	"github.com/invowk/areas/internal/fsscan"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

const testRoot = "/project"

// fixedCompiler returns a fresh copy of raw for every folder in byFolder.
func fixedCompiler(byFolder map[string][]Route) PageCompiler {
	return PageCompilerFunc(func(folder string, _ CompileOptions) ([]Route, error) {
		return cloneRoutes(byFolder[folder]), nil
	})
}

func cloneRoutes(in []Route) []Route {
	if in == nil {
		return nil
	}
	out := make([]Route, len(in))
	for i, r := range in {
		r.Children = cloneRoutes(r.Children)
		out[i] = r
	}
	return out
}

func newTestDeriver(t *testing.T, files map[string]string, compiler PageCompiler, opts ...Option) (*Deriver, *diag.Collector) {
	t.Helper()

	fs := memfs.New()
	for name, content := range files {
		if err := util.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	scanner := fsscan.New(fs)
	collector := diag.NewCollector(nil)
	defaults := []Option{
		WithProjectRoot(testRoot),
		WithDiagnostics(collector),
		WithMissingComponent(testRoot + "/.areas/components/Missing.vue"),
	}
	return NewDeriver(scanner, compiler, areaconfig.NewFileLoader(scanner), append(defaults, opts...)...), collector
}

func leaf(name, route string) *area.Area {
	return &area.Area{
		Name:      name,
		Path:      testRoot + "/areas/" + name,
		Route:     route,
		Namespace: route,
		Kind:      area.KindLeaf,
	}
}

func TestDeriveCompiledRoutes(t *testing.T) {
	t.Parallel()

	blog := leaf("blog", "/blog")
	d, collector := newTestDeriver(t,
		map[string]string{
			testRoot + "/areas/blog/pages/index.vue":    "",
			testRoot + "/areas/blog/pages/post/_id.vue": "",
		},
		fixedCompiler(map[string][]Route{
			blog.Path: {
				{Path: "/post/:id", Component: "pages/post/_id.vue"},
				{Path: "/", Component: "pages/index.vue"},
			},
		}),
	)

	got, err := d.Derive([]*area.Area{blog})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	want := []Route{
		{Path: "/blog", Component: "~/areas/blog/pages/index.vue", Name: "blog", ChunkName: "areas/blog/pages/index"},
		{Path: "/blog/post/:id", Component: "~/areas/blog/pages/post/_id.vue", Name: "blog-post-id", ChunkName: "areas/blog/pages/post/_id"},
	}
	if !slices.EqualFunc(got, want, routeEqual) {
		t.Errorf("Derive() =\n%+v\nwant\n%+v", got, want)
	}
	if collector.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", collector.Diagnostics())
	}
}

func TestDeriveMissingComponent(t *testing.T) {
	t.Parallel()

	shop := leaf("shop", "/shop")
	d, collector := newTestDeriver(t,
		map[string]string{testRoot + "/areas/shop/pages/index.vue": ""},
		fixedCompiler(map[string][]Route{
			shop.Path: {
				{Path: "/", Component: "pages/index.vue"},
				{Path: "/gone", Component: "pages/gone.vue"},
			},
		}),
	)

	got, err := d.Derive([]*area.Area{shop})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Derive() = %+v, want 2 routes", got)
	}
	gone := got[1]
	if gone.Path != "/shop/gone" {
		t.Errorf("path changed: %q", gone.Path)
	}
	if gone.Component != "~/.areas/components/Missing.vue" {
		t.Errorf("component = %q, want placeholder", gone.Component)
	}

	diags := collector.Diagnostics()
	if len(diags) != 1 || diags[0].Code != diag.CodeComponentMissing || diags[0].Path != testRoot+"/areas/shop/pages/gone.vue" {
		t.Errorf("diagnostics = %+v", diags)
	}
}

func TestDeriveNestedNames(t *testing.T) {
	t.Parallel()

	user := leaf("user", "/")
	files := map[string]string{
		testRoot + "/areas/user/pages/user.vue":       "",
		testRoot + "/areas/user/pages/user/index.vue": "",
		testRoot + "/areas/user/pages/user/_id.vue":   "",
	}
	d, _ := newTestDeriver(t, files, fixedCompiler(map[string][]Route{
		user.Path: {{
			Path:      "/user",
			Component: "pages/user.vue",
			Children: []Route{
				{Path: ":id", Component: "pages/user/_id.vue"},
				{Path: "", Component: "pages/user/index.vue"},
			},
		}},
	}))

	got, err := d.Derive([]*area.Area{user})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	parent := got[0]
	if parent.Path != "/user" || parent.Name != "" {
		t.Errorf("parent = %+v, want path /user and no name (default child owns it)", parent)
	}
	if names := []string{parent.Children[0].Name, parent.Children[1].Name}; !slices.Equal(names, []string{"user", "user-id"}) {
		t.Errorf("child names = %q", names)
	}
	if parent.Children[0].Path != "" || parent.Children[1].Path != ":id" {
		t.Errorf("children not sorted or prefixed: %+v", parent.Children)
	}
}

func TestDeriveExplicitRoutes(t *testing.T) {
	t.Parallel()

	admin := leaf("admin", "/admin")
	admin.ConfigFile = "routes.toml"
	files := map[string]string{
		testRoot + "/areas/admin/pages/index.vue":      "",
		testRoot + "/areas/admin/pages/users/list.vue": "",
		testRoot + "/areas/admin/views/Audit.vue":      "",
		testRoot + "/areas/admin/routes.toml":          `
[[routes]]
path = "/users"
page = "users/list"

[[routes]]
path = "/"
component = "pages/index"
name = "admin-home"

[[routes]]
path = "/audit"
component = "views/Audit.vue"
`,
	}

	compilerCalled := false
	compiler := PageCompilerFunc(func(string, CompileOptions) ([]Route, error) {
		compilerCalled = true
		return nil, nil
	})
	d, collector := newTestDeriver(t, files, compiler)

	got, err := d.Derive([]*area.Area{admin})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if compilerCalled {
		t.Error("page compiler must not run when routes are explicit")
	}

	want := []Route{
		{Path: "/admin", Component: "~/areas/admin/pages/index.vue", Name: "admin-home", ChunkName: "areas/admin/pages/index"},
		{Path: "/admin/audit", Component: "~/areas/admin/views/Audit.vue", Name: "admin-audit", ChunkName: "areas/admin/views/Audit"},
		{Path: "/admin/users", Component: "~/areas/admin/pages/users/list.vue", Name: "admin-users", ChunkName: "areas/admin/pages/users/list"},
	}
	if !slices.EqualFunc(got, want, routeEqual) {
		t.Errorf("Derive() =\n%+v\nwant\n%+v", got, want)
	}
	if collector.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", collector.Diagnostics())
	}
}

func TestDeriveMalformedRoutes(t *testing.T) {
	t.Parallel()

	broken := leaf("broken", "/broken")
	broken.ConfigFile = "routes.cue"
	ok := leaf("ok", "/ok")

	files := map[string]string{
		testRoot + "/areas/broken/routes.cue":      `routes: "pages/index.vue"`,
		testRoot + "/areas/broken/pages/index.vue": "",
		testRoot + "/areas/ok/pages/index.vue":     "",
	}
	d, collector := newTestDeriver(t, files, fixedCompiler(map[string][]Route{
		broken.Path: {{Path: "/", Component: "pages/index.vue"}},
		ok.Path:     {{Path: "/", Component: "pages/index.vue"}},
	}))

	got, err := d.Derive([]*area.Area{broken, ok})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if paths := Paths(got); !slices.Equal(paths, []string{"/ok"}) {
		t.Errorf("paths = %q, want only /ok", paths)
	}
	if !diag.HasCode(collector.Diagnostics(), diag.CodeRoutesMalformed) {
		t.Errorf("missing routes_malformed warning: %v", collector.Diagnostics())
	}
}

func TestDeriveUnreadableRoutesFallsBackToPages(t *testing.T) {
	t.Parallel()

	blog := leaf("blog", "/blog")
	blog.ConfigFile = "routes.cue"
	files := map[string]string{
		testRoot + "/areas/blog/routes.cue":      "routes: [",
		testRoot + "/areas/blog/pages/index.vue": "",
	}
	d, collector := newTestDeriver(t, files, fixedCompiler(map[string][]Route{
		blog.Path: {{Path: "/", Component: "pages/index.vue"}},
	}))

	got, err := d.Derive([]*area.Area{blog})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if paths := Paths(got); !slices.Equal(paths, []string{"/blog"}) {
		t.Errorf("paths = %q", paths)
	}
	if !diag.HasCode(collector.Diagnostics(), diag.CodeConfigLoadFailed) {
		t.Errorf("missing config_load_failed warning: %v", collector.Diagnostics())
	}
}

func TestDeriveGroupsAndOrdering(t *testing.T) {
	t.Parallel()

	docs := leaf("docs", "/docs")
	blog := leaf("blog", "/blog")
	group := &area.Area{Name: "content", Path: testRoot + "/areas/content", Route: "/", Kind: area.KindGroup, Areas: []*area.Area{docs}}

	files := map[string]string{
		testRoot + "/areas/docs/pages/_.vue":     "",
		testRoot + "/areas/docs/pages/index.vue": "",
		testRoot + "/areas/blog/pages/_id.vue":   "",
		testRoot + "/areas/blog/pages/index.vue": "",
	}
	d, _ := newTestDeriver(t, files, fixedCompiler(map[string][]Route{
		docs.Path: {{Path: "/*", Component: "pages/_.vue"}, {Path: "/", Component: "pages/index.vue"}},
		blog.Path: {{Path: "/:id", Component: "pages/_id.vue"}, {Path: "/", Component: "pages/index.vue"}},
	}))

	got, err := d.Derive([]*area.Area{group, blog})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	want := []string{"/blog", "/docs", "/blog/:id", "/docs/*"}
	if paths := Paths(got); !slices.Equal(paths, want) {
		t.Errorf("paths = %q, want %q", paths, want)
	}
}

func TestDeriveTrailingSlash(t *testing.T) {
	t.Parallel()

	blog := leaf("blog", "/blog")
	files := map[string]string{testRoot + "/areas/blog/pages/index.vue": ""}
	compiler := fixedCompiler(map[string][]Route{blog.Path: {{Path: "/", Component: "pages/index.vue"}}})

	tests := []struct {
		policy TrailingSlash
		want   string
	}{
		{TrailingSlashKeep, "/blog"},
		{TrailingSlashNever, "/blog"},
		{TrailingSlashAlways, "/blog/"},
	}

	for _, tt := range tests {
		d, _ := newTestDeriver(t, files, compiler, WithCompileOptions(CompileOptions{TrailingSlash: tt.policy}))
		got, err := d.Derive([]*area.Area{blog})
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}
		if got[0].Path != tt.want {
			t.Errorf("policy %q: path = %q, want %q", tt.policy, got[0].Path, tt.want)
		}
	}
}

func TestDeriveCompilerFailureAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	d, _ := newTestDeriver(t, nil, PageCompilerFunc(func(string, CompileOptions) ([]Route, error) {
		return nil, boom
	}))
	if _, err := d.Derive([]*area.Area{leaf("blog", "/blog")}); !errors.Is(err, boom) {
		t.Errorf("Derive() error = %v, want boom", err)
	}
}

func TestTrailingSlashIsValid(t *testing.T) {
	t.Parallel()

	if ok, _ := TrailingSlash("sometimes").IsValid(); ok {
		t.Error("unknown policy accepted")
	}
	if ok, _ := TrailingSlashAlways.IsValid(); !ok {
		t.Error("always rejected")
	}
}
