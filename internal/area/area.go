// SPDX-License-Identifier: MPL-2.0

// Package area builds the tree of Area records from an areas folder.
//
// A folder holding a pages/ folder is a leaf area. Any other folder is a group
// whose nested folders are scanned in turn; a group survives only when it has
// an override file or at least one nested area. Route and namespace prefixes
// are inherited from the parent and extended with the folder name unless an
// override file renames the segment.
package area

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/areas/pkg/nspath"
)

const (
	// KindLeaf marks an area that owns a pages folder.
	KindLeaf Kind = "leaf"
	// KindGroup marks an area that only aggregates nested areas.
	KindGroup Kind = "group"
)

const (
	// PolicyPages classifies a folder holding pages as a leaf even when it
	// also carries a group override file.
	PolicyPages Policy = "pages"
	// PolicyConfig classifies a folder carrying a group override file as a
	// group even when it also holds pages.
	PolicyConfig Policy = "config"
)

// ErrInvalidPolicy is returned when a Policy value is not recognized.
var ErrInvalidPolicy = errors.New("invalid classification policy")

type (
	// Kind is the classification of an Area.
	Kind string

	// Policy decides how a folder with both pages and a group override file
	// is classified.
	Policy string

	// Area is one node of the area tree.
	Area struct {
		// Name is the folder name, or the reference of a package area.
		Name string `json:"name" toml:"name"`
		// Path is the absolute slash-separated folder of the area.
		Path string `json:"path" toml:"path"`
		// Route is the absolute route prefix of the area's pages.
		Route string `json:"route" toml:"route"`
		// Namespace is the absolute namespace prefix of the area's stores.
		Namespace string `json:"namespace" toml:"namespace"`
		// Kind is the classification of the folder.
		Kind Kind `json:"kind" toml:"kind"`
		// ConfigFile is the basename of the override file found in Path.
		ConfigFile string `json:"configFile,omitempty" toml:"config_file,omitempty"`
		// External is set for areas supplied by reference instead of by scan.
		External bool `json:"external,omitempty" toml:"external,omitempty"`
		// Areas holds the nested areas of a group.
		Areas []*Area `json:"areas,omitempty" toml:"areas,omitempty"`
	}
)

// IsValid reports whether p is a known policy.
func (p Policy) IsValid() (bool, []error) {
	switch p {
	case PolicyPages, PolicyConfig:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidPolicy, string(p), PolicyPages, PolicyConfig)}
	}
}

// ParsePolicy converts s into a Policy. The empty string yields PolicyPages.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PolicyPages, nil
	}
	if ok, errs := p.IsValid(); !ok {
		return "", errs[0]
	}
	return p, nil
}

// IsLeaf reports whether the area owns a pages folder.
func (a *Area) IsLeaf() bool {
	return a.Kind == KindLeaf
}

// ConfigPath returns the absolute path of the override file, or "".
func (a *Area) ConfigPath() string {
	if a.ConfigFile == "" {
		return ""
	}
	return nspath.Join(a.Path, a.ConfigFile)
}

// Walk calls fn for every area in depth-first order, parents first.
func Walk(areas []*Area, fn func(a *Area)) {
	for _, a := range areas {
		fn(a)
		Walk(a.Areas, fn)
	}
}

// ConfigFiles returns the absolute paths of every override file in the tree,
// depth first.
func ConfigFiles(areas []*Area) []string {
	var paths []string
	Walk(areas, func(a *Area) {
		if p := a.ConfigPath(); p != "" {
			paths = append(paths, p)
		}
	})
	return paths
}

// Count returns the number of leaf and group areas in the tree.
func Count(areas []*Area) (leaves, groups int) {
	Walk(areas, func(a *Area) {
		if a.IsLeaf() {
			leaves++
		} else {
			groups++
		}
	})
	return leaves, groups
}
