// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable, user-facing errors.
//
// An ActionableError names the failed operation, the resource and the
// suggestions shown by the CLI. Documented failures are also available as
// Markdown issues rendered with glamour.
package issue
