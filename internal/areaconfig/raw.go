// SPDX-License-Identifier: MPL-2.0

package areaconfig

import (
	"fmt"
	"slices"
	"strings"
)

var knownKeys = []string{"namespace", "route", "routes"}

// FromMap builds a Descriptor from the raw decoded form shared by every file
// format. Unknown keys and non-string overrides are rejected. A malformed
// routes value does not fail the descriptor; it is reported through RoutesErr.
func FromMap(raw map[string]any) (*Descriptor, error) {
	d := &Descriptor{}

	for k := range raw {
		if !slices.Contains(knownKeys, k) {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidDescriptor, k)
		}
	}

	var err error
	if d.Namespace, err = optionalString(raw, "namespace"); err != nil {
		return nil, err
	}
	if d.Route, err = optionalString(raw, "route"); err != nil {
		return nil, err
	}

	value, ok := raw["routes"]
	if !ok || value == nil {
		return d, nil
	}
	routes, err := routeList(value, "routes")
	if err != nil {
		d.RoutesErr = err
		return d, nil
	}
	d.Routes = routes
	d.HasRoutes = true

	return d, nil
}

func optionalString(raw map[string]any, key string) (*string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidDescriptor, key, v)
	}
	return &s, nil
}

func routeList(value any, where string) ([]RouteDef, error) {
	items, ok := asList(value)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrRoutesNotList, where, value)
	}

	routes := make([]RouteDef, 0, len(items))
	for i, item := range items {
		entryPath := fmt.Sprintf("%s[%d]", where, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %T, want an object", ErrInvalidDescriptor, entryPath, item)
		}
		r, err := routeDef(m, entryPath)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func routeDef(m map[string]any, where string) (RouteDef, error) {
	var r RouteDef
	for k, v := range m {
		switch k {
		case "path", "component", "page", "name":
			s, ok := v.(string)
			if !ok {
				return r, fmt.Errorf("%w: %s.%s must be a string, got %T", ErrInvalidDescriptor, where, k, v)
			}
			switch k {
			case "path":
				r.Path = s
			case "component":
				r.Component = s
			case "page":
				r.Page = s
			case "name":
				r.Name = s
			}
		case "children":
			if v == nil {
				continue
			}
			children, err := routeList(v, where+".children")
			if err != nil {
				return r, err
			}
			r.Children = children
		default:
			return r, fmt.Errorf("%w: %s has unknown field %q", ErrInvalidDescriptor, where, k)
		}
	}
	if strings.TrimSpace(r.Component) == "" && strings.TrimSpace(r.Page) == "" {
		return r, fmt.Errorf("%w: %s needs a component or a page", ErrInvalidDescriptor, where)
	}
	return r, nil
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	default:
		return nil, false
	}
}
