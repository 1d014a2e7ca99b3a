package lint

import (
	"path/filepath"
	"sort"
)

// Severity ranks an issue. Only errors fail a build.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is one finding. FilePath is relative to the site root; Line is 0
// when the finding concerns the whole file.
type Issue struct {
	FilePath    string
	Line        int
	Severity    Severity
	Rule        string
	Message     string
	Explanation string
	Fix         string
}

// Result collects the issues of one check run.
type Result struct {
	Issues []Issue
	// FilesTotal counts every file visited under the docs directory.
	FilesTotal int
}

func (r *Result) HasErrors() bool   { return r.ErrorCount() > 0 }
func (r *Result) HasWarnings() bool { return r.WarningCount() > 0 }

func (r *Result) ErrorCount() int   { return r.count(SeverityError) }
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }
func (r *Result) InfoCount() int    { return r.count(SeverityInfo) }

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// ExitCode is the process status for the result: 2 with errors, 1 with
// warnings unless quiet, 0 otherwise.
func (r *Result) ExitCode(quiet bool) int {
	switch {
	case r.HasErrors():
		return 2
	case r.HasWarnings() && !quiet:
		return 1
	default:
		return 0
	}
}

// Sort orders issues by file, line and rule so output is stable.
func (r *Result) Sort() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
}

// Rule checks a single file of the docs tree on its own, without the
// corpus.
type Rule interface {
	Name() string
	AppliesTo(filePath string) bool
	Check(filePath string) ([]Issue, error)
}

type Config struct {
	// Quiet drops warnings and informational issues from the result.
	Quiet bool
	// Format is the report format the caller renders: text or json.
	Format string
}

var (
	docExtensions   = map[string]bool{".md": true, ".markdown": true}
	assetExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true}
)

// IsDocFile reports whether path names a Markdown document.
func IsDocFile(path string) bool { return docExtensions[filepath.Ext(path)] }

// IsAssetFile reports whether path names an image.
func IsAssetFile(path string) bool { return assetExtensions[filepath.Ext(path)] }
