package markdown

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// TOCEntry is one h2/h3 heading of a rendered document.
type TOCEntry struct {
	Level int
	ID    string
	Text  string
}

// Result is the output of Render.
type Result struct {
	HTML []byte
	TOC  []TOCEntry
	// CodeLanguages lists the fenced code block languages, sorted and
	// deduplicated.
	CodeLanguages []string
	Links         []Link
	BrokenLinks   []BrokenLink
}

// Renderer converts Markdown bodies to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a renderer with GitHub flavoured Markdown, footnotes,
// automatic heading ids and raw HTML passthrough.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

// Render renders body, the Markdown of the document at source (docs
// relative). Links to Markdown files are rewritten to the route returned by
// resolve; the ones it cannot resolve are reported in BrokenLinks and left
// untouched. resolve may be nil.
func (r *Renderer) Render(body []byte, source string, resolve Resolver) (*Result, error) {
	root := r.md.Parser().Parse(text.NewReader(body), parser.WithContext(parser.NewContext()))

	res := &Result{}
	langs := map[string]struct{}{}
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			if node.Level == 2 || node.Level == 3 {
				res.TOC = append(res.TOC, TOCEntry{Level: node.Level, ID: headingID(node), Text: plainText(node, body)})
			}
		case *gmast.FencedCodeBlock:
			if lang := string(node.Language(body)); lang != "" {
				langs[lang] = struct{}{}
			}
		case *gmast.AutoLink, *gmast.Image:
			l, _ := nodeLink(n, body)
			res.Links = append(res.Links, l)
		case *gmast.Link:
			dest := string(node.Destination)
			res.Links = append(res.Links, Link{Kind: LinkKindInline, Destination: dest})
			target, fragment, ok := MarkdownTarget(source, dest)
			if !ok {
				break
			}
			route, found := "", false
			if resolve != nil {
				route, found = resolve(target)
			}
			if !found {
				res.BrokenLinks = append(res.BrokenLinks, BrokenLink{Destination: dest, Target: target})
				break
			}
			if fragment != "" {
				route += "#" + fragment
			}
			node.Destination = []byte(route)
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	for lang := range langs {
		res.CodeLanguages = append(res.CodeLanguages, lang)
	}
	sort.Strings(res.CodeLanguages)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, body, root); err != nil {
		return nil, fmt.Errorf("render %s: %w", source, err)
	}
	res.HTML = buf.Bytes()
	return res, nil
}

func headingID(h *gmast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case []byte:
		return string(id)
	case string:
		return id
	}
	return ""
}

// plainText concatenates the text below n, dropping inline markup.
func plainText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
