// Package linkcheck verifies the internal links of rendered pages and
// applies the configured broken-link policy.
package linkcheck

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"

	herrors "git.home.luguber.info/inful/handbook/internal/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL       string // The URL or path
	Text      string // Link text, alt text or rel
	Tag       string // HTML tag (a, img, script, link)
	Attribute string // Attribute holding the URL (href, src)
}

// ExtractLinks extracts every a[href], img[src], script[src] and
// link[href] in document order.
func ExtractLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, herrors.Wrap(err, herrors.CategoryLinks, herrors.SeverityError, "failed to parse HTML")
	}

	var links []Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

// ExtractLinksFromBytes is ExtractLinks over an in-memory page.
func ExtractLinksFromBytes(page []byte) ([]Link, error) {
	return ExtractLinks(bytes.NewReader(page))
}

func elementLink(n *html.Node) (Link, bool) {
	var l Link
	switch n.Data {
	case "a":
		l = Link{URL: getAttr(n, "href"), Text: extractText(n), Tag: "a", Attribute: "href"}
	case "img":
		l = Link{URL: getAttr(n, "src"), Text: getAttr(n, "alt"), Tag: "img", Attribute: "src"}
	case "script":
		l = Link{URL: getAttr(n, "src"), Tag: "script", Attribute: "src"}
	case "link":
		l = Link{URL: getAttr(n, "href"), Text: getAttr(n, "rel"), Tag: "link", Attribute: "href"}
	default:
		return l, false
	}
	return l, l.URL != ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}
