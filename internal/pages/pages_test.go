// SPDX-License-Identifier: MPL-2.0

package pages

import (
	"reflect"
	"testing"

	"github.com/invowk/areas/internal/fsscan"
	"github.com/invowk/areas/internal/routes"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func compile(t *testing.T, opts routes.CompileOptions, files ...string) []routes.Route {
	t.Helper()

	fs := memfs.New()
	for _, f := range files {
		if err := util.WriteFile(fs, f, []byte("<template />"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
	out, err := New(fsscan.New(fs)).Compile("/areas/blog", opts)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return out
}

func TestCompileFlat(t *testing.T) {
	t.Parallel()

	got := compile(t, routes.CompileOptions{},
		"/areas/blog/pages/index.vue",
		"/areas/blog/pages/about.vue",
		"/areas/blog/pages/post/_id.vue",
		"/areas/blog/pages/docs/_.vue",
		"/areas/blog/pages/post/new.vue",
	)

	want := []routes.Route{
		{Path: "/", Component: "pages/index.vue"},
		{Path: "/about", Component: "pages/about.vue"},
		{Path: "/post/new", Component: "pages/post/new.vue"},
		{Path: "/post/:id", Component: "pages/post/_id.vue"},
		{Path: "/docs/*", Component: "pages/docs/_.vue"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compile() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestCompileNested(t *testing.T) {
	t.Parallel()

	got := compile(t, routes.CompileOptions{},
		"/areas/blog/pages/user.vue",
		"/areas/blog/pages/user/index.vue",
		"/areas/blog/pages/user/_id.vue",
		"/areas/blog/pages/user/_id/edit.vue",
		"/areas/blog/pages/user/_id.js",
	)

	want := []routes.Route{
		{
			Path:      "/user",
			Component: "pages/user.vue",
			Children: []routes.Route{
				{Path: "", Component: "pages/user/index.vue"},
				{Path: ":id", Component: "pages/user/_id.vue", Children: []routes.Route{
					{Path: "edit", Component: "pages/user/_id/edit.vue"},
				}},
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compile() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestCompileExtensions(t *testing.T) {
	t.Parallel()

	files := []string{
		"/areas/blog/pages/index.js",
		"/areas/blog/pages/feed.ts",
		"/areas/blog/pages/notes.md",
	}

	got := compile(t, routes.CompileOptions{}, files...)
	if len(got) != 1 || got[0].Component != "pages/index.js" {
		t.Errorf("default extensions: %+v", got)
	}

	got = compile(t, routes.CompileOptions{Extensions: []string{"vue", "js", "ts"}}, files...)
	if paths := routes.Paths(got); !reflect.DeepEqual(paths, []string{"/", "/feed"}) {
		t.Errorf("additional extensions: %q", paths)
	}
}

func TestCompileMissingPages(t *testing.T) {
	t.Parallel()

	if got := compile(t, routes.CompileOptions{}); len(got) != 0 {
		t.Errorf("Compile() = %+v, want none", got)
	}
}
