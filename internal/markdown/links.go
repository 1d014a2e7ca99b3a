package markdown

import (
	"net/url"
	"path"
	"strings"
)

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// BrokenLink is a link to a Markdown file that no document answers to.
type BrokenLink struct {
	Destination string
	// Target is the docs relative source path the destination points at.
	Target string
}

// Resolver maps a docs relative Markdown source path ("sql/intro.md") to the
// route of the document it belongs to.
type Resolver func(source string) (route string, ok bool)

// IsExternal reports whether dest carries a scheme or a host.
func IsExternal(dest string) bool {
	if strings.HasPrefix(dest, "//") {
		return true
	}
	u, err := url.Parse(dest)
	return err == nil && u.Scheme != ""
}

// MarkdownTarget returns the docs relative source path a link destination
// written in the document at source refers to, plus its fragment. ok is
// false for destinations that are not local Markdown files.
func MarkdownTarget(source, dest string) (target, fragment string, ok bool) {
	if dest == "" || IsExternal(dest) || strings.HasPrefix(dest, "#") {
		return "", "", false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return "", "", false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext != ".md" && ext != ".markdown" {
		return "", "", false
	}
	p := u.Path
	if strings.HasPrefix(p, "/") {
		p = strings.TrimPrefix(path.Clean(p), "/")
	} else {
		p = path.Join(path.Dir(source), p)
	}
	return p, u.Fragment, true
}
