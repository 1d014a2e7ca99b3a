// Package errors provides a lightweight structured error type (HandbookError)
// for category-based classification of build failures and CLI exit codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of a handbook error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Source material errors
	CategoryContent    ErrorCategory = "content"
	CategoryNavigation ErrorCategory = "navigation"
	CategoryLinks      ErrorCategory = "links"

	// Build and output errors
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryGit        ErrorCategory = "git"
	CategoryHistory    ErrorCategory = "history"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// HandbookError is a structured error with category, severity and context
type HandbookError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for HandbookError
type ContextFields map[string]any

// Error implements the error interface
func (e *HandbookError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for errors.Is / errors.As
func (e *HandbookError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *HandbookError) WithContext(key string, value any) *HandbookError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the severity.
func (e *HandbookError) WithSeverity(severity ErrorSeverity) *HandbookError {
	e.Severity = severity
	return e
}

// New creates a new HandbookError
func New(category ErrorCategory, severity ErrorSeverity, message string) *HandbookError {
	return &HandbookError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new HandbookError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *HandbookError {
	return &HandbookError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the outermost HandbookError in err's chain.
func As(err error) (*HandbookError, bool) {
	var he *HandbookError
	if stderrors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if he, ok := As(err); ok {
		return he.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if no HandbookError is found in the chain.
func GetCategory(err error) ErrorCategory {
	if he, ok := As(err); ok {
		return he.Category
	}
	return CategoryInternal
}

// Details renders err followed by the context of its outermost
// HandbookError, one "key: value" line per field in key order.
func Details(err error) string {
	if err == nil {
		return ""
	}
	he, ok := As(err)
	if !ok || len(he.Context) == 0 {
		return err.Error()
	}
	keys := make([]string, 0, len(he.Context))
	for k := range he.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(err.Error())
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, he.Context[k])
	}
	return b.String()
}
