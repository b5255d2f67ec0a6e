// SPDX-License-Identifier: MPL-2.0

// Package storereg registers derived store modules into a hierarchical store.
//
// A module can only be registered below an existing parent, so every missing
// ancestor namespace is registered first as an empty namespaced module.
package storereg

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/invowk/areas/internal/stores"
)

var (
	// ErrParentMissing is returned when a module is registered below a
	// namespace that does not exist.
	ErrParentMissing = errors.New("parent module not registered")
	// ErrInvalidNamespace is returned for namespaces with empty segments.
	ErrInvalidNamespace = errors.New("invalid namespace")
)

type (
	// Module is a namespaced store module.
	Module struct {
		// Ref is the import identifier of the module. Passthrough modules
		// have no ref.
		Ref string `json:"ref,omitempty" toml:"ref,omitempty"`
		// Path is the aliased import path.
		Path string `json:"path,omitempty" toml:"path,omitempty"`
		// Namespaced is always true for area modules.
		Namespaced bool `json:"namespaced" toml:"namespaced"`
	}

	// Store is the registration surface of a hierarchical store.
	Store interface {
		HasModule(ns []string) bool
		RegisterModule(ns []string, m Module) error
	}
)

// Passthrough returns the empty namespaced module used for ancestors.
func Passthrough() Module {
	return Module{Namespaced: true}
}

// IsPassthrough reports whether m only exists to hold children.
func (m Module) IsPassthrough() bool {
	return m.Ref == ""
}

// FromRecord converts a derived store record into a module.
func FromRecord(r stores.Record) Module {
	return Module{Ref: r.Ref, Path: r.Path, Namespaced: true}
}

// Register registers records into s in order. Missing ancestors of each
// record are registered as passthrough modules before the record itself.
func Register(s Store, records []stores.Record) error {
	for _, r := range records {
		ns := r.Segments()
		for i := 1; i < len(ns); i++ {
			parent := ns[:i]
			if s.HasModule(parent) {
				continue
			}
			if err := s.RegisterModule(parent, Passthrough()); err != nil {
				return fmt.Errorf("register parent %q of %q: %w", strings.Join(parent, "/"), r.Namespace, err)
			}
		}
		if err := s.RegisterModule(ns, FromRecord(r)); err != nil {
			return fmt.Errorf("register %q: %w", r.Namespace, err)
		}
	}
	return nil
}

type (
	// Tree is an in-memory Store. The zero value is an empty root.
	Tree struct {
		root node
		log  []string
	}

	node struct {
		module   Module
		children map[string]*node
		order    []string
	}
)

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{}
}

// HasModule reports whether ns is registered. The empty namespace is the
// root and always exists.
func (t *Tree) HasModule(ns []string) bool {
	return t.find(ns) != nil
}

// RegisterModule registers m at ns. Registering an existing namespace
// replaces its module and keeps its children. The empty namespace updates
// the root module.
func (t *Tree) RegisterModule(ns []string, m Module) error {
	if slices.Contains(ns, "") {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, ns)
	}
	t.log = append(t.log, strings.Join(ns, "/"))

	if len(ns) == 0 {
		t.root.module = m
		return nil
	}

	parent := t.find(ns[:len(ns)-1])
	if parent == nil {
		return fmt.Errorf("%w: %q", ErrParentMissing, strings.Join(ns[:len(ns)-1], "/"))
	}

	name := ns[len(ns)-1]
	if existing, ok := parent.children[name]; ok {
		existing.module = m
		return nil
	}
	if parent.children == nil {
		parent.children = make(map[string]*node)
	}
	parent.children[name] = &node{module: m}
	parent.order = append(parent.order, name)
	return nil
}

// Module returns the module registered at ns.
func (t *Tree) Module(ns []string) (Module, bool) {
	n := t.find(ns)
	if n == nil {
		return Module{}, false
	}
	return n.module, true
}

// Registrations returns every registered namespace in registration order.
func (t *Tree) Registrations() []string {
	return slices.Clone(t.log)
}

// Walk calls fn for every registered module below the root, depth first, in
// registration order.
func (t *Tree) Walk(fn func(ns []string, m Module)) {
	t.root.walk(nil, fn)
}

// String renders the tree as an indented outline.
func (t *Tree) String() string {
	var sb strings.Builder
	t.Walk(func(ns []string, m Module) {
		sb.WriteString(strings.Repeat("  ", len(ns)-1))
		sb.WriteString(ns[len(ns)-1])
		if !m.IsPassthrough() {
			sb.WriteString(" <- ")
			sb.WriteString(m.Path)
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}

func (t *Tree) find(ns []string) *node {
	n := &t.root
	for _, seg := range ns {
		child, ok := n.children[seg]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

func (n *node) walk(prefix []string, fn func(ns []string, m Module)) {
	for _, name := range n.order {
		child := n.children[name]
		ns := append(slices.Clone(prefix), name)
		fn(ns, child.module)
		child.walk(ns, fn)
	}
}
