// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE files against an embedded schema.
//
// Both the tool configuration and the area override descriptors follow the
// same flow: compile the schema, unify the user file with one definition,
// validate, and decode into a map that callers post-process.
//
//	//go:embed config_schema.cue
//	var schema string
//
//	raw, err := cueutil.DecodeMap(schema, "#Config", data,
//		cueutil.WithFilename("areas.config.cue"),
//		cueutil.WithConcrete(false),
//	)
package cueutil
