// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks over the hot paths of an areas build,
// used to generate PGO profiles:
//   - override descriptor decoding (CUE, TOML, HCL)
//   - route ordering
//   - full aggregation of a synthetic areas tree
//   - manifest and plugin emission
//
// To generate a profile, run:
//
//	go test ./internal/benchmark -run '^$' -bench . -cpuprofile default.pgo
package benchmark
