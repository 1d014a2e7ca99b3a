// Package nav implements the navigation descriptor: named sidebars made of
// ordered doc, category, link and autogenerated nodes.
//
// Order is significant everywhere. It is the order the sidebar renders in
// and the order previous/next pagination walks.
package nav

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the node type.
type Kind string

const (
	KindDoc           Kind = "doc"
	KindCategory      Kind = "category"
	KindLink          Kind = "link"
	KindAutogenerated Kind = "autogenerated"
)

// Category link types.
const (
	LinkDoc            = "doc"
	LinkGeneratedIndex = "generated-index"
)

// Node is one entry of a sidebar.
type Node struct {
	Type        Kind          `yaml:"type"`
	ID          string        `yaml:"id,omitempty"`
	Label       string        `yaml:"label,omitempty"`
	Href        string        `yaml:"href,omitempty"`
	Items       []*Node       `yaml:"items,omitempty"`
	Link        *CategoryLink `yaml:"link,omitempty"`
	Collapsed   *bool         `yaml:"collapsed,omitempty"`
	Collapsible *bool         `yaml:"collapsible,omitempty"`
	DirName     string        `yaml:"dir_name,omitempty"`

	// Line is the source line of the node in the descriptor file (0 when
	// the node was generated).
	Line int `yaml:"-"`
}

// CategoryLink makes a category clickable: either a document or a
// generated index page listing the category's items.
type CategoryLink struct {
	Type        string `yaml:"type"`
	ID          string `yaml:"id,omitempty"`
	Slug        string `yaml:"slug,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Doc returns a doc leaf.
func Doc(id, label string) *Node { return &Node{Type: KindDoc, ID: id, Label: label} }

// Category returns a category node.
func Category(label string, items ...*Node) *Node {
	return &Node{Type: KindCategory, Label: label, Items: items}
}

// Link returns an external link node.
func Link(label, href string) *Node { return &Node{Type: KindLink, Label: label, Href: href} }

var nodeKeys = map[string]bool{
	"type": true, "id": true, "label": true, "href": true, "items": true,
	"link": true, "collapsed": true, "collapsible": true, "dir_name": true,
}

// UnmarshalYAML accepts the long form, a bare string (doc shorthand) and a
// single-key mapping of a label to a list (category shorthand).
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	n.Line = value.Line
	switch value.Kind {
	case yaml.ScalarNode:
		id := strings.TrimSpace(value.Value)
		if id == "" {
			return fmt.Errorf("line %d: empty sidebar item", value.Line)
		}
		n.Type = KindDoc
		n.ID = id
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: sidebar item must be a string or a mapping", value.Line)
	}

	if len(value.Content) == 2 && value.Content[1].Kind == yaml.SequenceNode && !nodeKeys[value.Content[0].Value] {
		n.Type = KindCategory
		n.Label = value.Content[0].Value
		return value.Content[1].Decode(&n.Items)
	}

	for i := 0; i < len(value.Content); i += 2 {
		if key := value.Content[i].Value; !nodeKeys[key] {
			return fmt.Errorf("line %d: unknown sidebar item field %q", value.Content[i].Line, key)
		}
	}

	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	n.Line = value.Line

	if n.Type == "" {
		n.Type = inferKind(n)
	}
	switch n.Type {
	case KindDoc, KindCategory, KindLink, KindAutogenerated:
	default:
		return fmt.Errorf("line %d: unknown sidebar item type %q", value.Line, n.Type)
	}
	if n.Link != nil && n.Link.Type != LinkDoc && n.Link.Type != LinkGeneratedIndex {
		return fmt.Errorf("line %d: unknown category link type %q", value.Line, n.Link.Type)
	}
	return nil
}

func inferKind(n *Node) Kind {
	switch {
	case n.DirName != "":
		return KindAutogenerated
	case n.Href != "":
		return KindLink
	case n.Items != nil || n.Link != nil:
		return KindCategory
	default:
		return KindDoc
	}
}

// IsCollapsed reports the initial collapsed state of a category.
func (n *Node) IsCollapsed() bool {
	if !n.IsCollapsible() {
		return false
	}
	return n.Collapsed == nil || *n.Collapsed
}

// IsCollapsible reports whether a category can be collapsed.
func (n *Node) IsCollapsible() bool {
	return n.Collapsible == nil || *n.Collapsible
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	if n.Link != nil {
		l := *n.Link
		c.Link = &l
	}
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, child := range n.Items {
			c.Items[i] = child.Clone()
		}
	}
	return &c
}

// Sidebar is one named navigation tree.
type Sidebar struct {
	Name  string
	Items []*Node
}

// Sidebars keeps the sidebars in descriptor order.
type Sidebars []*Sidebar

// Get returns the sidebar with the given name.
func (s Sidebars) Get(name string) (*Sidebar, bool) {
	for _, sb := range s {
		if sb.Name == name {
			return sb, true
		}
	}
	return nil, false
}

// Names returns the sidebar names in order.
func (s Sidebars) Names() []string {
	names := make([]string, len(s))
	for i, sb := range s {
		names[i] = sb.Name
	}
	return names
}

// DocIDs returns every doc id referenced by leaves and category doc links,
// sorted and deduplicated.
func (s Sidebars) DocIDs() []string {
	seen := map[string]struct{}{}
	for _, sb := range s {
		walk(sb.Items, func(n *Node, _ []*Node) {
			for _, id := range referencedIDs(n) {
				seen[id] = struct{}{}
			}
		})
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func referencedIDs(n *Node) []string {
	switch {
	case n.Type == KindDoc:
		return []string{n.ID}
	case n.Type == KindCategory && n.Link != nil && n.Link.Type == LinkDoc && n.Link.ID != "":
		return []string{n.Link.ID}
	}
	return nil
}

// walk visits nodes depth first in order; parents lists the ancestors.
func walk(items []*Node, fn func(n *Node, parents []*Node)) {
	var rec func(items []*Node, parents []*Node)
	rec = func(items []*Node, parents []*Node) {
		for _, n := range items {
			fn(n, parents)
			if n.Type == KindCategory {
				rec(n.Items, append(parents[:len(parents):len(parents)], n))
			}
		}
	}
	rec(items, nil)
}
