// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load configuration"},
			expected: "failed to load configuration",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load configuration", Resource: "./areas.config.cue"},
			expected: "failed to load configuration: ./areas.config.cue",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "parse manifest", Cause: errors.New("unexpected end of JSON input")},
			expected: "failed to parse manifest: unexpected end of JSON input",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "write build output",
				Resource:  "/project/.areas",
				Cause:     errors.New("permission denied"),
			},
			expected: "failed to write build output: /project/.areas: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().
		WithOperation("build areas").
		Wrap(fmt.Errorf("derive routes: %w", sentinel)).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}

	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Operation != "build areas" {
		t.Errorf("errors.As() = %+v", ae)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("load configuration").
		WithResource("areas.config.cue").
		WithSuggestion("Check the CUE syntax").
		WithSuggestions("Remove the file", "Run 'areas config show'").
		WithIssue(ConfigLoadFailedId).
		Wrap(fmt.Errorf("evaluate: %w", errors.New("expected '}'"))).
		Build()

	short := err.Format(false)
	for _, want := range []string{"failed to load configuration: areas.config.cue", "  • Check the CUE syntax", "  • Run 'areas config show'"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "1. evaluate: expected '}'") || !strings.Contains(verbose, "2. expected '}'") {
		t.Errorf("Format(true) missing chain:\n%s", verbose)
	}
	if !err.HasSuggestions() || err.Issue != ConfigLoadFailedId {
		t.Errorf("built error = %+v", err)
	}
}

func TestErrorContext_BuildRequiresOperation(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
	cause := errors.New("boom")
	err := WrapWithContext(cause, "emit plugin", "areas.js")
	if err.Error() != "failed to emit plugin: areas.js: boom" || !errors.Is(err, cause) {
		t.Errorf("WrapWithContext() = %v", err)
	}
}
