// Package frontmatter splits YAML front matter from Markdown documents and
// decodes the fields the handbook generator understands.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")

// Meta holds the typed front matter fields of a document. Unknown keys are
// kept in Document.Fields by the caller and otherwise ignored.
type Meta struct {
	ID                  string   `yaml:"id"`
	Title               string   `yaml:"title"`
	SidebarLabel        string   `yaml:"sidebar_label"`
	SidebarPosition     *float64 `yaml:"sidebar_position"`
	Slug                string   `yaml:"slug"`
	Description         string   `yaml:"description"`
	Keywords            []string `yaml:"keywords"`
	Draft               bool     `yaml:"draft"`
	HideTitle           bool     `yaml:"hide_title"`
	HideTableOfContents bool     `yaml:"hide_table_of_contents"`
	CustomEditURL       string   `yaml:"custom_edit_url"`
	PaginationLabel     string   `yaml:"pagination_label"`
}

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. Both LF and CRLF documents are supported.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		closeEOF := []byte(nl + "---")
		if bytes.HasSuffix(content, closeEOF) {
			return content[start : len(content)-len(closeEOF)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes its front matter into both the raw field
// map and the typed Meta.
func Parse(content []byte) (fields map[string]any, meta Meta, body []byte, err error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return nil, Meta{}, nil, err
	}
	fields = map[string]any{}
	if !had || len(bytes.TrimSpace(fm)) == 0 {
		return fields, Meta{}, body, nil
	}
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, Meta{}, nil, fmt.Errorf("parse front matter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return nil, Meta{}, nil, fmt.Errorf("decode front matter: %w", err)
	}
	return fields, meta, body, nil
}

// Raw returns the front matter block without delimiters, or nil.
func Raw(content []byte) []byte {
	fm, _, had, err := Split(content)
	if err != nil || !had {
		return nil
	}
	return fm
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
