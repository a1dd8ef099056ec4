package errors

import (
	"fmt"
	"strings"
)

// Category classifies an error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryGenerate Category = "generate"
	CategoryWatch    Category = "watch"
	CategoryCLI      Category = "cli"
)

// WayfindError is a structured error with a stable code, a category,
// and an actionable suggestion.
type WayfindError struct {
	// Code is a unique error identifier (e.g., "W001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WayfindError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WayfindError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *WayfindError) WithDetail(format string, args ...any) *WayfindError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WayfindError) WithSuggestion(s string) *WayfindError {
	e.Suggestion = s
	return e
}

// Wrap attaches the underlying error.
func (e *WayfindError) Wrap(err error) *WayfindError {
	e.Wrapped = err
	return e
}

// Format renders the error for terminal output: code, message,
// detail, underlying cause, and suggestion on separate lines.
func (e *WayfindError) Format() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Detail != "" {
		sb.WriteString("\n  ")
		sb.WriteString(e.Detail)
	}
	if e.Wrapped != nil {
		sb.WriteString("\n  cause: ")
		sb.WriteString(e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		sb.WriteString("\n  hint: ")
		sb.WriteString(e.Suggestion)
	}
	if e.DocURL != "" {
		sb.WriteString("\n  docs: ")
		sb.WriteString(e.DocURL)
	}
	return sb.String()
}
