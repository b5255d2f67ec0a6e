// SPDX-License-Identifier: MPL-2.0

// Package routes derives the route table contributed by an area tree.
//
// Leaf areas either supply an explicit route list in their routes file or
// have their pages folder compiled by a PageCompiler. Every raw route is then
// prefixed with the area route, its component is checked and aliased, a chunk
// name and a name are derived, and each level of the result is ordered with
// Compare.
package routes

import (
	"errors"
	"fmt"
)

const (
	// TrailingSlashKeep leaves derived paths as they are.
	TrailingSlashKeep TrailingSlash = ""
	// TrailingSlashAlways appends a slash to every top-level path.
	TrailingSlashAlways TrailingSlash = "always"
	// TrailingSlashNever strips the trailing slash of every top-level path
	// except the root.
	TrailingSlashNever TrailingSlash = "never"

	// DefaultNameSeparator joins the segments of a derived route name.
	DefaultNameSeparator = "-"
)

// ErrInvalidTrailingSlash is returned when a TrailingSlash value is not recognized.
var ErrInvalidTrailingSlash = errors.New("invalid trailing slash policy")

// DefaultExtensions are the page extensions compiled when none are configured.
var DefaultExtensions = []string{"vue", "js"}

type (
	// TrailingSlash is the trailing-slash policy applied to top-level paths.
	TrailingSlash string

	// Route is one entry of the derived route table.
	Route struct {
		Path      string  `json:"path" toml:"path"`
		Component string  `json:"component" toml:"component"`
		Name      string  `json:"name,omitempty" toml:"name,omitempty"`
		ChunkName string  `json:"chunkName,omitempty" toml:"chunk_name,omitempty"`
		Children  []Route `json:"children,omitempty" toml:"children,omitempty"`
	}

	// CompileOptions are the build-wide settings handed to a PageCompiler.
	CompileOptions struct {
		// Extensions lists the page file extensions without the dot.
		Extensions []string
		// FollowSymlinks makes the compiler descend into symlinked folders.
		FollowSymlinks bool
		// NameSeparator joins route name segments.
		NameSeparator string
		// TrailingSlash is the trailing-slash policy.
		TrailingSlash TrailingSlash
	}

	// PageCompiler turns the pages folder of an area into raw routes.
	// Components in the result are relative to folder.
	PageCompiler interface {
		Compile(folder string, opts CompileOptions) ([]Route, error)
	}

	// PageCompilerFunc adapts a function to PageCompiler.
	PageCompilerFunc func(folder string, opts CompileOptions) ([]Route, error)
)

// Compile calls f.
func (f PageCompilerFunc) Compile(folder string, opts CompileOptions) ([]Route, error) {
	return f(folder, opts)
}

// IsValid reports whether t is a known policy.
func (t TrailingSlash) IsValid() (bool, []error) {
	switch t {
	case TrailingSlashKeep, TrailingSlashAlways, TrailingSlashNever:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidTrailingSlash, string(t))}
	}
}

// WithDefaults returns o with empty fields filled in.
func (o CompileOptions) WithDefaults() CompileOptions {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.NameSeparator == "" {
		o.NameSeparator = DefaultNameSeparator
	}
	return o
}

// Count returns the number of routes including nested children.
func Count(routes []Route) int {
	n := len(routes)
	for _, r := range routes {
		n += Count(r.Children)
	}
	return n
}

// Paths returns the top-level paths in order.
func Paths(routes []Route) []string {
	paths := make([]string, len(routes))
	for i, r := range routes {
		paths[i] = r.Path
	}
	return paths
}
