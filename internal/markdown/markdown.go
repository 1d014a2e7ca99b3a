// Package markdown renders document bodies to HTML with goldmark and
// analyses the links they contain.
package markdown

import (
	"sort"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var analyser = NewRenderer()

// ExtractLinks parses body with the same dialect Render uses and returns
// its links without rendering. Reference definitions follow the links in
// label order, whether or not anything uses them.
func ExtractLinks(body []byte) ([]Link, error) {
	pc := parser.NewContext()
	root := analyser.md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))

	links := make([]Link, 0)
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if l, ok := nodeLink(n, body); ok {
				links = append(links, l)
			}
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	refs := pc.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links, nil
}

// nodeLink returns the link n represents. Reference style links arrive as
// Link nodes with the definition's destination.
func nodeLink(n gmast.Node, body []byte) (Link, bool) {
	switch node := n.(type) {
	case *gmast.AutoLink:
		return Link{Kind: LinkKindAuto, Destination: string(node.URL(body))}, true
	case *gmast.Image:
		return Link{Kind: LinkKindImage, Destination: string(node.Destination)}, true
	case *gmast.Link:
		return Link{Kind: LinkKindInline, Destination: string(node.Destination)}, true
	}
	return Link{}, false
}
