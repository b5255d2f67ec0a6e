// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the areas tests and
// benchmarks: in-memory project fixtures (WriteFiles, ReadFile) and a
// deterministic clock (FakeClock).
package testutil
