// SPDX-License-Identifier: MPL-2.0

// Package pages is the default page compiler. It maps the files of an area's
// pages folder to raw routes following the host framework's conventions:
//
//	pages/index.vue        -> /
//	pages/about.vue        -> /about
//	pages/post/_id.vue     -> /post/:id
//	pages/docs/_.vue       -> /docs/*
//	pages/user.vue         -> /user (parent)
//	pages/user/index.vue   -> ""    (default child of /user)
//	pages/user/_id.vue     -> :id   (child of /user)
//
// A .vue file wins over other extensions for the same key. Results carry no
// names; components are relative to the area folder.
package pages

import (
	"cmp"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/fsscan"
	"github.com/invowk/areas/internal/routes"
	"github.com/invowk/areas/pkg/nspath"
)

const (
	indexKey    = "index"
	paramPrefix = "_"
	vueExt      = "vue"
)

type (
	// Compiler implements routes.PageCompiler over a Scanner.
	Compiler struct {
		scanner *fsscan.Scanner
	}

	// node is a route under construction; key is the slash-joined file key
	// used to attach nested files to their parent.
	node struct {
		key      string
		route    routes.Route
		children []*node
	}
)

// New returns a Compiler reading through scanner.
func New(scanner *fsscan.Scanner) *Compiler {
	return &Compiler{scanner: scanner}
}

// Compile returns the raw routes of folder/pages. A missing pages folder
// yields no routes.
func (c *Compiler) Compile(folder string, opts routes.CompileOptions) ([]routes.Route, error) {
	opts = opts.WithDefaults()
	folder = nspath.ToSlash(folder)
	pagesDir := nspath.Join(folder, area.PagesFolder)

	files, err := c.pageFiles(folder, pagesDir, opts)
	if err != nil {
		return nil, err
	}

	root := &node{}
	for _, file := range files {
		insert(root, file)
	}

	out := materialize(root.children, true)
	routes.Sort(out)
	return out, nil
}

// pageFiles lists the page files relative to folder, one per key, ordered
// by depth then path so parents are seen before their nested files.
func (c *Compiler) pageFiles(folder, pagesDir string, opts routes.CompileOptions) ([]string, error) {
	byKey := make(map[string]string)
	err := c.scanner.WalkFiles(pagesDir, opts.FollowSymlinks, func(p string) error {
		ext := strings.TrimPrefix(path.Ext(p), ".")
		if !slices.Contains(opts.Extensions, ext) {
			return nil
		}
		rel := nspath.Relative(folder, p)
		key := nspath.TrimExt(rel)
		if prev, seen := byKey[key]; !seen || (ext == vueExt && path.Ext(prev) != "."+vueExt) {
			byKey[key] = rel
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan pages of %q: %w", folder, err)
	}

	files := make([]string, 0, len(byKey))
	for _, rel := range byKey {
		files = append(files, rel)
	}
	slices.SortFunc(files, func(a, b string) int {
		if c := cmp.Compare(strings.Count(a, "/"), strings.Count(b, "/")); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return files, nil
}

// insert attaches file below root. A file whose key extends the key of an
// already inserted file becomes one of its children.
func insert(root *node, file string) {
	keys := nspath.Segments(strings.TrimPrefix(nspath.TrimExt(file), area.PagesFolder+"/"))

	parent := root
	n := &node{route: routes.Route{Component: file}}
	for i, key := range keys {
		n.key = path.Join(n.key, key)

		if existing := findNode(parent.children, n.key); existing != nil {
			parent = existing
			n.route.Path = ""
			continue
		}
		if key == indexKey && i == len(keys)-1 {
			if i == 0 {
				n.route.Path += "/"
			}
			continue
		}
		n.route.Path += "/" + segment(key)
	}

	parent.children = append(parent.children, n)
}

func findNode(level []*node, key string) *node {
	for _, n := range level {
		if n.key == key {
			return n
		}
	}
	return nil
}

// segment converts a file key to a path segment: "_" is a catch-all and a
// leading underscore marks a parameter.
func segment(key string) string {
	switch {
	case key == paramPrefix:
		return "*"
	case strings.HasPrefix(key, paramPrefix):
		return ":" + strings.TrimPrefix(key, paramPrefix)
	default:
		return key
	}
}

// materialize converts the forest into routes. Child paths are relative.
func materialize(level []*node, top bool) []routes.Route {
	if len(level) == 0 {
		return nil
	}
	out := make([]routes.Route, 0, len(level))
	for _, n := range level {
		r := n.route
		if !top {
			r.Path = strings.TrimPrefix(r.Path, "/")
		}
		r.Children = materialize(n.children, false)
		out = append(out, r)
	}
	return out
}
