// SPDX-License-Identifier: MPL-2.0

// Package diag carries the structured, non-fatal diagnostics produced while
// aggregating areas.
//
// Every recoverable failure (a broken override file, a missing page
// component, an unresolvable external area, a malformed route list) is
// recorded as a Diagnostic and logged once as a warning. The build carries on
// without the offending unit.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

const (
	// SeverityWarning indicates a recoverable aggregation warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal aggregation error.
	SeverityError Severity = "error"
)

const (
	// CodeConfigLoadFailed is recorded when an override file cannot be read or evaluated.
	CodeConfigLoadFailed Code = "config_load_failed"
	// CodeRoutesMalformed is recorded when a routes file defines routes that are not a list.
	CodeRoutesMalformed Code = "routes_malformed"
	// CodeComponentMissing is recorded when a route points at a component that does not exist.
	CodeComponentMissing Code = "component_missing"
	// CodeExternalUnresolved is recorded when an external area reference cannot be resolved.
	CodeExternalUnresolved Code = "external_area_unresolved"
	// CodeExternalEmpty is recorded when an external area resolves but holds no pages or areas.
	CodeExternalEmpty Code = "external_area_empty"
	// CodeScanFailed is recorded when a folder inside the areas tree cannot be listed.
	CodeScanFailed Code = "scan_failed"
	// CodeStoreGlobFailed is recorded when store files of an area cannot be listed.
	CodeStoreGlobFailed Code = "store_glob_failed"
)

// ErrInvalidSeverity is returned when a Severity value is not recognized.
var ErrInvalidSeverity = errors.New("invalid diagnostic severity")

type (
	// Severity represents a diagnostic level.
	Severity string

	// Code is a machine-readable diagnostic identifier.
	Code string

	// Diagnostic is a structured, recoverable problem found during a build.
	Diagnostic struct {
		// Severity is the diagnostic level.
		Severity Severity `json:"severity" toml:"severity"`
		// Code identifies the kind of problem.
		Code Code `json:"code" toml:"code"`
		// Message is the human-readable description.
		Message string `json:"message" toml:"message"`
		// Path is the file or folder involved (optional).
		Path string `json:"path,omitempty" toml:"path,omitempty"`
		// Cause is the underlying error (optional).
		Cause error `json:"-" toml:"-"`
	}

	// Collector accumulates diagnostics and logs each one as it is recorded.
	// The zero value logs through slog.Default.
	Collector struct {
		logger *slog.Logger
		diags  []Diagnostic
	}
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidSeverity, string(s))}
	}
}

// String returns the code as a plain string.
func (c Code) String() string { return string(c) }

// NewCollector returns a Collector logging through logger. A nil logger uses
// slog.Default at record time.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// Warn records a warning diagnostic.
func (c *Collector) Warn(code Code, path string, cause error, format string, args ...any) {
	c.Add(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Cause:    cause,
	})
}

// Add records d and logs it.
func (c *Collector) Add(d Diagnostic) {
	if c == nil {
		return
	}
	c.diags = append(c.diags, d)

	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"code", string(d.Code)}
	if d.Path != "" {
		attrs = append(attrs, "path", d.Path)
	}
	if d.Cause != nil {
		attrs = append(attrs, "error", d.Cause)
	}
	if d.Severity == SeverityError {
		logger.Error(d.Message, attrs...)
		return
	}
	logger.Warn(d.Message, attrs...)
}

// Diagnostics returns a copy of everything recorded so far.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	return slices.Clone(c.diags)
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.diags)
}

// CountByCode tallies diags per code.
func CountByCode(diags []Diagnostic) map[Code]int {
	counts := make(map[Code]int, len(diags))
	for _, d := range diags {
		counts[d.Code]++
	}
	return counts
}

// HasCode reports whether any diagnostic in diags carries code.
func HasCode(diags []Diagnostic, code Code) bool {
	return slices.ContainsFunc(diags, func(d Diagnostic) bool { return d.Code == code })
}
