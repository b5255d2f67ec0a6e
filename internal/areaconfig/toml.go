// SPDX-License-Identifier: MPL-2.0

package areaconfig

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// decodeTOML decodes a TOML descriptor. Explicit routes are written as an
// array of tables:
//
//	[[routes]]
//	path = "/"
//	component = "pages/index.vue"
func decodeTOML(filename string, data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return raw, nil
}
