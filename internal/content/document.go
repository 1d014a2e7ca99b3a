// Package content loads the Markdown corpus: one Document per training
// module, with ids, titles and routes derived the same way for every file.
package content

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Document is one Markdown-authored training module.
type Document struct {
	// ID is the slash separated identifier referenced by the navigation
	// descriptor, e.g. "sql/getting-started".
	ID string
	// Source is the path relative to the docs directory, slash separated,
	// exactly as on disk (ordering prefixes included).
	Source string
	// Dir is the cleaned directory part of ID ("" for top level documents).
	Dir string
	// AbsPath is the file the document was read from.
	AbsPath string

	Title            string
	TitleFromHeading bool
	SidebarLabel     string
	SidebarPosition  *float64
	Description      string
	Keywords         []string
	Slug             string
	Route            string
	// IsIndex marks a document that serves as its directory's own page
	// (index.md, README.md or a file named after the directory).
	IsIndex bool

	Draft           bool
	HideTitle       bool
	HideTOC         bool
	CustomEditURL   string
	PaginationLabel string

	Fields      map[string]any
	Body        []byte
	Fingerprint string
}

// Label is the text shown for the document in the sidebar.
func (d *Document) Label() string {
	if d.SidebarLabel != "" {
		return d.SidebarLabel
	}
	return d.Title
}

// NavLabel is the text shown in previous/next pagination.
func (d *Document) NavLabel() string {
	if d.PaginationLabel != "" {
		return d.PaginationLabel
	}
	return d.Label()
}

// Position returns the sidebar position, or ok=false when unset.
func (d *Document) Position() (float64, bool) {
	if d.SidebarPosition == nil {
		return 0, false
	}
	return *d.SidebarPosition, true
}

var numberPrefix = regexp.MustCompile(`^(\d+)[-_.]`)

// StripNumberPrefix removes an ordering prefix such as "01-" or "2_" and
// returns the remaining name and the prefix value.
func StripNumberPrefix(name string) (string, *float64) {
	m := numberPrefix.FindStringSubmatch(name)
	if m == nil || len(m[0]) == len(name) {
		return name, nil
	}
	var n float64
	for _, r := range m[1] {
		n = n*10 + float64(r-'0')
	}
	return name[len(m[0]):], &n
}

// cleanDir strips ordering prefixes from every segment of a slash path.
func cleanDir(dir string) string {
	if dir == "" || dir == "." {
		return ""
	}
	segs := strings.Split(dir, "/")
	for i, s := range segs {
		segs[i], _ = StripNumberPrefix(s)
	}
	return strings.Join(segs, "/")
}

// Humanize turns a file or directory name into a display label:
// "getting-started" becomes "Getting Started".
func Humanize(name string) string {
	name, _ = StripNumberPrefix(name)
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	// Casers are stateful; one per call keeps Humanize safe for concurrent use.
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

// isIndexStem reports whether a file stem names its directory's own page.
func isIndexStem(stem, dir string) bool {
	lower := strings.ToLower(stem)
	if lower == "index" || lower == "readme" {
		return true
	}
	return dir != "" && stem == path.Base(dir)
}
