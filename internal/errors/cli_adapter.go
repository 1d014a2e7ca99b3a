package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// exitCodes maps error categories to process exit codes. Categories not
// listed exit with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNavigation: 2,
	CategoryContent:    2,
	CategoryConfig:     7,
	CategoryGit:        8,
	CategoryHistory:    8,
	CategoryInternal:   10,
	CategoryLinks:      11,
	CategoryRender:     11,
	CategoryFileSystem: 11,
	CategoryRuntime:    12,
}

// CLIErrorAdapter turns command errors into terminal output, log records
// and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// ExitCodeFor returns 0 for nil, the category's code for a HandbookError
// and 1 for anything else.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	he, ok := As(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodes[he.Category]; ok {
		return code
	}
	return 1
}

// FormatError renders err for the terminal. Verbose output includes the
// error's context.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	he, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return Details(err)
	}
	switch he.Category {
	case CategoryConfig, CategoryValidation:
		if reason, ok := he.Context["reason"]; ok {
			return fmt.Sprintf("%s: %v", he.Message, reason)
		}
		return he.Message
	default:
		return fmt.Sprintf("%s: %s", he.Category, he.Message)
	}
}

// Handle logs and prints err and returns the exit code the process should use.
func (a *CLIErrorAdapter) Handle(err error) int {
	if err == nil {
		return 0
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if he, ok := As(err); ok {
		return he.Category == CategoryInternal ||
			he.Category == CategoryRuntime ||
			he.Severity == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	he, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(he.Category))}
	for k, v := range he.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	if he.Cause != nil {
		attrs = append(attrs, slog.String("cause", he.Cause.Error()))
	}
	a.logger.LogAttrs(context.Background(), slogLevel(he.Severity), he.Message, attrs...)
}

func slogLevel(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
