package main

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies a ToolError.
type ErrorKind string

const (
	// KindUsage: bad or oversized parameters. Always carries a suggestion.
	KindUsage ErrorKind = "usage"
	// KindResourceLimit: a walk budget ceiling was hit. Surfaced as a warning
	// on an otherwise successful result, never returned as a failure.
	KindResourceLimit ErrorKind = "resource_limit"
	// KindTimeout: a search exceeded its time budget.
	KindTimeout ErrorKind = "timeout"
	// KindIO: the target path is missing, unreadable or of the wrong type.
	KindIO ErrorKind = "io"
)

// ToolError is the single structured failure handed to callers. The same
// fields are serialised when errors are returned as results.
type ToolError struct {
	Kind         ErrorKind      `json:"kind" yaml:"kind"`
	Operation    string         `json:"operation" yaml:"operation"`
	Message      string         `json:"message" yaml:"message"`
	Suggestion   string         `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Alternatives []string       `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	err error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.err != nil {
		fmt.Fprintf(&b, ": %v", e.err)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error {
	return e.err
}

// Render formats the error for a human or a model, suggestion included.
func (e *ToolError) Render() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.Error())
	if e.Suggestion != "" {
		b.WriteString("\nSuggestion: ")
		b.WriteString(e.Suggestion)
	}
	for _, alt := range e.Alternatives {
		b.WriteString("\n  - ")
		b.WriteString(alt)
	}
	return b.String()
}

func newUsageError(op, message, suggestion string, params map[string]any) *ToolError {
	return &ToolError{
		Kind:       KindUsage,
		Operation:  op,
		Message:    message,
		Suggestion: suggestion,
		Parameters: params,
	}
}

func newTimeoutError(op, pattern string, timeout time.Duration, err error) *ToolError {
	return &ToolError{
		Kind:       KindTimeout,
		Operation:  op,
		Message:    fmt.Sprintf("search for %q timed out after %s", pattern, timeout),
		Suggestion: "Narrow the search with a more specific pattern or search a subdirectory",
		Parameters: map[string]any{"pattern": pattern, "timeout": timeout.String()},
		err:        err,
	}
}

func newIOError(op, path string, err error) *ToolError {
	return &ToolError{
		Kind:       KindIO,
		Operation:  op,
		Message:    fmt.Sprintf("cannot access %s", path),
		Parameters: map[string]any{"path": path},
		err:        err,
	}
}

// newResourceLimit builds the warning text for a walk budget ceiling.
func newResourceLimit(op, message string, params map[string]any) *ToolError {
	return &ToolError{
		Kind:       KindResourceLimit,
		Operation:  op,
		Message:    message,
		Parameters: params,
	}
}

// AsToolError extracts a *ToolError from err, if any.
func AsToolError(err error) (*ToolError, bool) {
	var te *ToolError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsKind reports whether err is a ToolError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	te, ok := AsToolError(err)
	return ok && te.Kind == kind
}
