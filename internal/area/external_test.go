// SPDX-License-Identifier: MPL-2.0

package area

import (
	"testing"

	"github.com/invowk/areas/internal/diag"
)

func TestBuildExternal(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/project/lib/docs/pages/index.vue":                     "",
		"/project/node_modules/forum/package.json":              `{"name": "forum", "main": "dist/area/index.js"}`,
		"/project/node_modules/forum/dist/area/index.js":        "",
		"/project/node_modules/forum/dist/area/pages/index.vue": "",
		"/project/node_modules/@acme/shop/package.json":         `{"name": "@acme/shop"}`,
		"/project/node_modules/@acme/shop/index.js":             "",
		"/project/node_modules/@acme/shop/pages/index.vue":      "",
		"/project/shared/admin/users/pages/index.vue":           "",
	}

	tests := []struct {
		name      string
		ref       ExternalRef
		wantName  string
		wantPath  string
		wantRoute string
		wantNS    string
	}{
		{
			name:      "relative folder",
			ref:       ExternalRef{Src: "./lib/docs"},
			wantName:  "docs",
			wantPath:  "/project/lib/docs",
			wantRoute: "/external",
			wantNS:    "/",
		},
		{
			name:      "root alias",
			ref:       ExternalRef{Src: "~/lib/docs", Route: "docs"},
			wantName:  "docs",
			wantPath:  "/project/lib/docs",
			wantRoute: "/docs",
			wantNS:    "/",
		},
		{
			name:      "src alias",
			ref:       ExternalRef{Src: "@/lib/docs", Namespace: "/docs"},
			wantName:  "docs",
			wantPath:  "/project/lib/docs",
			wantRoute: "/external",
			wantNS:    "/docs",
		},
		{
			name:      "package with main",
			ref:       ExternalRef{Src: "forum", Route: "/forum", Namespace: "forum"},
			wantName:  "forum",
			wantPath:  "/project/node_modules/forum/dist/area",
			wantRoute: "/forum",
			wantNS:    "/forum",
		},
		{
			name:      "scoped package default main",
			ref:       ExternalRef{Src: "@acme/shop", Route: "/shop"},
			wantName:  "@acme/shop",
			wantPath:  "/project/node_modules/@acme/shop",
			wantRoute: "/shop",
			wantNS:    "/",
		},
		{
			name:      "environment expansion",
			ref:       ExternalRef{Src: "$SHARED/admin"},
			wantName:  "admin",
			wantPath:  "/project/shared/admin",
			wantRoute: "/external",
			wantNS:    "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := func(name string) string {
				if name == "SHARED" {
					return "/project/shared"
				}
				return ""
			}
			b, collector := newTestBuilder(t, files, WithEnv(env))
			a := b.BuildExternal(tt.ref)
			if a == nil {
				t.Fatalf("BuildExternal(%q) = nil, diagnostics %v", tt.ref.Src, collector.Diagnostics())
			}
			if a.Name != tt.wantName || a.Path != tt.wantPath || a.Route != tt.wantRoute || a.Namespace != tt.wantNS {
				t.Errorf("BuildExternal(%q) = %+v", tt.ref.Src, a)
			}
			if !a.External {
				t.Error("external area not marked")
			}
		})
	}
}

func TestBuildExternalGroupMarksChildren(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t, map[string]string{
		"/project/shared/admin/users/pages/index.vue": "",
	})
	a := b.BuildExternal(ExternalRef{Src: "./shared", Route: "/ext"})
	if a == nil {
		t.Fatal("BuildExternal() = nil")
	}
	users := find(t, a.Areas, "admin", "users")
	if !users.External || users.Route != "/ext/admin/users" {
		t.Errorf("nested external area = %+v", users)
	}
}

func TestBuildExternalFailuresAreSkipped(t *testing.T) {
	t.Parallel()

	b, collector := newTestBuilder(t, map[string]string{
		"/project/areas/blog/pages/index.vue":       "",
		"/project/empty/readme.md":                  "",
		"/project/node_modules/broken/package.json": `{"main": `,
	})

	refs := []ExternalRef{
		{Src: "not-installed"},
		{Src: "./missing"},
		{Src: "@scope/missing"},
		{Src: "./empty"},
		{Src: "broken"},
		{Src: ""},
	}
	if got := b.BuildExternals(refs); len(got) != 0 {
		t.Errorf("BuildExternals() = %+v, want none", got)
	}

	counts := diag.CountByCode(collector.Diagnostics())
	if counts[diag.CodeExternalUnresolved] != 5 || counts[diag.CodeExternalEmpty] != 1 {
		t.Errorf("diagnostic counts = %v", counts)
	}

	// unrelated areas are unaffected
	if areas := b.Build("/project/areas"); len(areas) != 1 || areas[0].Name != "blog" {
		t.Errorf("Build() = %+v", areas)
	}
}
