// SPDX-License-Identifier: MPL-2.0

package areaconfig

import (
	_ "embed"

	"github.com/invowk/areas/pkg/cueutil"
)

//go:embed descriptor_schema.cue
var descriptorSchema string

const descriptorDefinition = "#Descriptor"

// decodeCUE unifies data with #Descriptor and decodes the result into a raw
// map.
func decodeCUE(filename string, data []byte) (map[string]any, error) {
	return cueutil.DecodeMap(descriptorSchema, descriptorDefinition, data, cueutil.WithFilename(filename))
}
