// SPDX-License-Identifier: MPL-2.0

package areaconfig

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

type (
	hclDescriptor struct {
		Namespace *string    `hcl:"namespace,optional"`
		Route     *string    `hcl:"route,optional"`
		Routes    []hclRoute `hcl:"routes,block"`
	}

	hclRoute struct {
		Path      string     `hcl:"path,label"`
		Component string     `hcl:"component,optional"`
		Page      string     `hcl:"page,optional"`
		Name      string     `hcl:"name,optional"`
		Children  []hclRoute `hcl:"routes,block"`
	}
)

// decodeHCL decodes an HCL descriptor. Each explicit route is a labelled
// block, children nest the same way:
//
//	namespace = "shop"
//
//	routes "/" {
//	  component = "pages/index.vue"
//	}
func decodeHCL(filename string, data []byte) (map[string]any, error) {
	var d hclDescriptor
	if err := hclsimple.Decode(filename, data, nil, &d); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	raw := make(map[string]any, 3)
	if d.Namespace != nil {
		raw["namespace"] = *d.Namespace
	}
	if d.Route != nil {
		raw["route"] = *d.Route
	}
	if len(d.Routes) > 0 {
		raw["routes"] = hclRoutesToRaw(d.Routes)
	}
	return raw, nil
}

func hclRoutesToRaw(routes []hclRoute) []any {
	out := make([]any, 0, len(routes))
	for _, r := range routes {
		m := map[string]any{"path": r.Path}
		if r.Component != "" {
			m["component"] = r.Component
		}
		if r.Page != "" {
			m["page"] = r.Page
		}
		if r.Name != "" {
			m["name"] = r.Name
		}
		if len(r.Children) > 0 {
			m["children"] = hclRoutesToRaw(r.Children)
		}
		out = append(out, m)
	}
	return out
}
