// SPDX-License-Identifier: MPL-2.0

// Package config loads the areas tool configuration using Viper with CUE as
// the file format.
//
// Configuration is read from areas.config.cue in the project root (or the
// file given by --config) and validated against the embedded schema
// (config_schema.cue). Values are layered, lowest first: built-in defaults,
// the config file, a .env file in the project root, and AREAS_* environment
// variables. Command-line flags are applied by the caller on top.
package config
