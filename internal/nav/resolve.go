package nav

import (
	"strings"
	"unicode"

	"git.home.luguber.info/inful/handbook/internal/content"
)

// Item is a resolved sidebar entry ready for rendering: labels and hrefs
// are final.
type Item struct {
	Kind        Kind
	Label       string
	Href        string
	DocID       string
	External    bool
	Collapsible bool
	Collapsed   bool
	Items       []*Item
	// Index is set for categories linking to a generated index page.
	Index *GeneratedIndex
}

// GeneratedIndex describes a category index page listing its items.
type GeneratedIndex struct {
	Title       string
	Description string
	Route       string
	// Path is the chain of category labels ending with this category. It
	// identifies the category across sidebars.
	Path []string
}

// Contains reports whether href is the item itself or one of its
// descendants.
func (i *Item) Contains(href string) bool {
	if i.Href == href && !i.External {
		return true
	}
	for _, c := range i.Items {
		if c.Contains(href) {
			return true
		}
	}
	return false
}

// Tree is a resolved sidebar.
type Tree struct {
	Name  string
	Items []*Item
}

// Resolve turns an expanded sidebar into render-ready items. routeBase is
// the docs route ("/docs/") generated index pages live under. Doc nodes
// that do not resolve are dropped; Validate reports them.
func Resolve(sb *Sidebar, corpus *content.Corpus, routeBase string) *Tree {
	r := resolver{corpus: corpus, routeBase: routeBase}
	return &Tree{Name: sb.Name, Items: r.items(sb.Items, nil)}
}

type resolver struct {
	corpus    *content.Corpus
	routeBase string
}

func (r resolver) items(nodes []*Node, parents []string) []*Item {
	out := make([]*Item, 0, len(nodes))
	for _, n := range nodes {
		switch n.Type {
		case KindDoc:
			d, ok := r.corpus.Get(n.ID)
			if !ok {
				continue
			}
			label := n.Label
			if label == "" {
				label = d.Label()
			}
			out = append(out, &Item{Kind: KindDoc, Label: label, Href: d.Route, DocID: d.ID})
		case KindLink:
			out = append(out, &Item{Kind: KindLink, Label: n.Label, Href: n.Href, External: isExternal(n.Href)})
		case KindCategory:
			path := append(parents[:len(parents):len(parents)], n.Label)
			it := &Item{
				Kind:        KindCategory,
				Label:       n.Label,
				Collapsible: n.IsCollapsible(),
				Collapsed:   n.IsCollapsed(),
				Items:       r.items(n.Items, path),
			}
			if n.Link != nil {
				switch n.Link.Type {
				case LinkDoc:
					if d, ok := r.corpus.Get(n.Link.ID); ok {
						it.Href, it.DocID = d.Route, d.ID
					}
				case LinkGeneratedIndex:
					idx := &GeneratedIndex{Title: n.Link.Title, Description: n.Link.Description, Path: path}
					if idx.Title == "" {
						idx.Title = n.Label
					}
					if n.Link.Slug != "" {
						idx.Route = r.routeBase + strings.Trim(n.Link.Slug, "/") + "/"
					} else {
						idx.Route = r.routeBase + "category/" + slugPath(path) + "/"
					}
					it.Href, it.Index = idx.Route, idx
				}
			}
			out = append(out, it)
		}
	}
	return out
}

func isExternal(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "//") || strings.HasPrefix(href, "mailto:")
}

// slugPath joins the slugs of a label chain: SQL > Basics is "sql/basics".
func slugPath(labels []string) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if s := Slugify(l); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// Slugify lowercases s and replaces every run of non alphanumerics with a
// single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Entry is one page in pagination order.
type Entry struct {
	Sidebar string
	Item    *Item
	// Ancestors are the categories enclosing Item, outermost first.
	Ancestors []*Item
}

// Route is the page route of the entry.
func (e Entry) Route() string { return e.Item.Href }

// Flatten lists the pages of a sidebar in reading order: doc leaves and
// linked categories, each category before its children.
func Flatten(t *Tree) []Entry {
	var out []Entry
	var rec func(items []*Item, parents []*Item)
	rec = func(items []*Item, parents []*Item) {
		for _, it := range items {
			if it.Kind == KindLink || (it.Kind == KindCategory && it.Href == "") {
				if it.Kind == KindCategory {
					rec(it.Items, append(parents[:len(parents):len(parents)], it))
				}
				continue
			}
			out = append(out, Entry{Sidebar: t.Name, Item: it, Ancestors: parents})
			if it.Kind == KindCategory {
				rec(it.Items, append(parents[:len(parents):len(parents)], it))
			}
		}
	}
	rec(t.Items, nil)
	return out
}

// Neighbours returns the entries before and after the entry whose route is
// route, or nil when there is none.
func Neighbours(entries []Entry, route string) (prev, next *Entry) {
	for i := range entries {
		if entries[i].Route() != route {
			continue
		}
		if i > 0 {
			prev = &entries[i-1]
		}
		if i+1 < len(entries) {
			next = &entries[i+1]
		}
		return prev, next
	}
	return nil, nil
}
