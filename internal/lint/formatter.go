package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, docsPath string) error
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// NewTextFormatter creates a text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format outputs results in human-readable text format. Issues are printed
// in result order; callers sort the result first.
func (f *TextFormatter) Format(w io.Writer, result *Result, docsPath string) error {
	p := &printer{w: w}
	p.linef("Checking documentation in: %s", docsPath)
	p.line(strings.Repeat("━", 60))
	p.line("")

	for _, issue := range result.Issues {
		f.formatIssue(p, issue)
		p.line("")
	}

	p.line(strings.Repeat("━", 60))
	p.line("Results:")
	p.linef("  %d files scanned", result.FilesTotal)
	if n := result.ErrorCount(); n > 0 {
		p.linef("  %d error%s (blocks build)", n, pluralize(n))
	}
	if n := result.WarningCount(); n > 0 {
		p.linef("  %d warning%s (should fix)", n, pluralize(n))
	}
	if n := result.InfoCount(); n > 0 {
		p.linef("  %d info (explicitly allowed)", n)
	}
	p.line("")

	switch {
	case result.HasErrors():
		p.line("❌ Documentation has errors that will fail handbook build.")
	case result.HasWarnings():
		p.line("⚠️  Documentation has warnings. Consider fixing before commit.")
	case len(result.Issues) > 0:
		p.line("ℹ️  All issues are informational.")
	default:
		p.line("✨ All documentation passes handbook check!")
	}
	return p.err
}

func (f *TextFormatter) formatIssue(p *printer, issue Issue) {
	var icon string
	switch issue.Severity {
	case SeverityError:
		icon = "✗"
	case SeverityWarning:
		icon = "⚠"
	case SeverityInfo:
		icon = "ℹ"
	}

	location := issue.FilePath
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", issue.FilePath, issue.Line)
	}
	p.linef("%s %s", icon, location)
	p.linef("  %s [%s]: %s", issue.Severity, issue.Rule, issue.Message)

	if issue.Explanation != "" {
		for line := range strings.SplitSeq(strings.TrimSpace(issue.Explanation), "\n") {
			p.linef("  %s", line)
		}
	}
	if issue.Fix != "" {
		p.line("")
		p.linef("  Fix: %s", issue.Fix)
	}
}

// printer remembers the first write error so formatting code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err == nil {
		_, p.err = fmt.Fprintln(p.w, s)
	}
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Path         string      `json:"path"`
	FilesTotal   int         `json:"files_total"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	InfoCount    int         `json:"info_count"`
	Issues       []JSONIssue `json:"issues"`
}

// JSONIssue represents a single issue in JSON format.
type JSONIssue struct {
	FilePath    string `json:"file_path"`
	Severity    string `json:"severity"`
	Rule        string `json:"rule"`
	Message     string `json:"message"`
	Explanation string `json:"explanation,omitempty"`
	Fix         string `json:"fix,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// Format outputs results in JSON format.
func (f *JSONFormatter) Format(w io.Writer, result *Result, docsPath string) error {
	output := JSONOutput{
		Path:         docsPath,
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		InfoCount:    result.InfoCount(),
		Issues:       make([]JSONIssue, 0, len(result.Issues)),
	}
	for _, issue := range result.Issues {
		output.Issues = append(output.Issues, JSONIssue{
			FilePath:    issue.FilePath,
			Severity:    issue.Severity.String(),
			Rule:        issue.Rule,
			Message:     issue.Message,
			Explanation: issue.Explanation,
			Fix:         issue.Fix,
			Line:        issue.Line,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// NewFormatter creates the appropriate formatter based on format string.
func NewFormatter(format string) Formatter {
	if format == "json" {
		return NewJSONFormatter()
	}
	return NewTextFormatter()
}

// pluralize returns "s" if count != 1, otherwise empty string.
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
