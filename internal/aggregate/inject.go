// SPDX-License-Identifier: MPL-2.0

package aggregate

import (
	"maps"
	"slices"

	"github.com/invowk/areas/internal/routes"
	"github.com/invowk/areas/internal/stores"
	"github.com/invowk/areas/pkg/nspath"
)

// ComponentPattern is the component scan pattern registered for the areas
// folder.
const ComponentPattern = "*/components/**/*.{vue,js,ts,tsx}"

type (
	// Manifest is the host build configuration areas are injected into.
	Manifest struct {
		// Routes is the host route table.
		Routes []routes.Route `json:"routes"`
		// Stores lists the store modules registered by the areas plugin.
		Stores []stores.Record `json:"stores"`
		// Store enables the host store.
		Store bool `json:"store"`
		// Alias is the module resolution alias table.
		Alias map[string]string `json:"alias"`
		// Watch lists files that trigger a rebuild in dev mode.
		Watch []string `json:"watch,omitempty"`
		// Dir remaps the host's layouts, pages and store folders.
		Dir map[string]string `json:"dir"`
		// Components are the component scan entries.
		Components []ComponentDir `json:"components"`
	}

	// ComponentDir is one component scan entry.
	ComponentDir struct {
		Path       string `json:"path"`
		Pattern    string `json:"pattern"`
		PathPrefix bool   `json:"pathPrefix"`
	}
)

// Inject merges res into host. Routes replace host routes with the same
// path, stores replace the host store list, aliases are merged, and in dev
// mode watch paths are appended once. Injecting the same result twice leaves
// host unchanged after the first call.
func Inject(host *Manifest, res *Result) {
	opts := res.Options

	host.Routes = routes.MergeByPath(host.Routes, res.Routes)
	host.Stores = slices.Clone(res.Stores)
	host.Store = true

	if host.Alias == nil {
		host.Alias = make(map[string]string, len(res.Aliases))
	}
	maps.Copy(host.Alias, res.Aliases)

	if opts.Dev {
		for _, p := range res.Watch {
			if !slices.Contains(host.Watch, p) {
				host.Watch = append(host.Watch, p)
			}
		}
	}

	app := nspath.Join(opts.Base, opts.App)
	if host.Dir == nil {
		host.Dir = make(map[string]string, 3)
	}
	host.Dir["layouts"] = nspath.Join(app, "layouts")
	host.Dir["pages"] = nspath.Join(app, "pages")
	host.Dir["store"] = nspath.Join(app, "store")

	entry := ComponentDir{Path: opts.Base, Pattern: ComponentPattern}
	if !slices.Contains(host.Components, entry) {
		host.Components = append(host.Components, entry)
	}
}
