package theme

import (
	"fmt"
	"html/template"
	"strings"

	"git.home.luguber.info/inful/handbook/internal/config"
	"git.home.luguber.info/inful/handbook/internal/markdown"
	"git.home.luguber.info/inful/handbook/internal/nav"
)

// Routes answers the lookups navbar items need.
type Routes interface {
	// DocRoute returns the route of a document id.
	DocRoute(id string) (string, bool)
	// SidebarRoute returns the route of the first page of a sidebar.
	SidebarRoute(name string) (string, bool)
}

// Navbar is the navigation bar resolved for one locale.
type Navbar struct {
	title    string
	homeHref string
	logo     *Logo
	items    []navbarItem
}

type navbarItem struct {
	link     NavLink
	sidebar  string
	position string
}

// NavbarView is the navbar as rendered on one page.
type NavbarView struct {
	Title    string
	HomeHref string
	Logo     *Logo
	Left     []NavLink
	Right    []NavLink
}

type Logo struct {
	Alt string
	Src string
}

type NavLink struct {
	Label    string
	Href     string
	External bool
	Active   bool
}

// Navbar resolves the configured navbar items. homeHref is the locale's
// home route. Items referring to unknown sidebars or documents are errors.
func (t *Theme) Navbar(routes Routes, homeHref string) (*Navbar, error) {
	nc := t.cfg.Theme.Navbar
	n := &Navbar{title: nc.Title, homeHref: homeHref}
	if nc.Logo != nil {
		n.logo = &Logo{Alt: nc.Logo.Alt, Src: t.sitePath(nc.Logo.Src)}
	}
	for i, item := range nc.Items {
		ni := navbarItem{position: item.Position, link: NavLink{Label: item.Label}}
		switch item.Type {
		case config.NavItemDocSidebar:
			href, ok := routes.SidebarRoute(item.SidebarID)
			if !ok {
				return nil, fmt.Errorf("theme.navbar.items[%d]: unknown or empty sidebar %q", i, item.SidebarID)
			}
			ni.link.Href, ni.sidebar = href, item.SidebarID
		case config.NavItemDoc:
			href, ok := routes.DocRoute(item.DocID)
			if !ok {
				return nil, fmt.Errorf("theme.navbar.items[%d]: unknown document %q", i, item.DocID)
			}
			ni.link.Href = href
		default:
			ni.link.Href = t.sitePath(item.Href)
			ni.link.External = markdown.IsExternal(item.Href)
		}
		n.items = append(n.items, ni)
	}
	return n, nil
}

// View returns the navbar for a page: items pointing at the page, or at
// the sidebar the page belongs to, are marked active.
func (n *Navbar) View(sidebar, route string) NavbarView {
	v := NavbarView{Title: n.title, HomeHref: n.homeHref, Logo: n.logo}
	for _, it := range n.items {
		link := it.link
		link.Active = !link.External && (link.Href == route || (it.sidebar != "" && it.sidebar == sidebar))
		if it.position == "right" {
			v.Right = append(v.Right, link)
		} else {
			v.Left = append(v.Left, link)
		}
	}
	return v
}

// Footer is the rendered footer configuration.
type Footer struct {
	Style     string
	Columns   []FooterColumn
	Copyright template.HTML
}

type FooterColumn struct {
	Title string
	Links []FooterLink
}

type FooterLink struct {
	Label    string
	Href     string
	External bool
	HTML     template.HTML
}

// buildFooter converts the configured footer. Copyright and html items are
// trusted markup from the configuration record and are not escaped.
func (t *Theme) buildFooter() Footer {
	fc := t.cfg.Theme.Footer
	f := Footer{Style: fc.Style, Copyright: template.HTML(fc.Copyright)} //nolint:gosec // trusted config markup
	for _, col := range fc.Links {
		c := FooterColumn{Title: col.Title}
		for _, item := range col.Items {
			l := FooterLink{Label: item.Label}
			switch {
			case item.HTML != "":
				l.HTML = template.HTML(item.HTML) //nolint:gosec // trusted config markup
			case item.Href != "":
				l.Href, l.External = item.Href, markdown.IsExternal(item.Href)
			default:
				l.Href = t.sitePath(item.To)
			}
			c.Links = append(c.Links, l)
		}
		f.Columns = append(f.Columns, c)
	}
	return f
}

// SidebarItem is a sidebar entry as rendered on one page.
type SidebarItem struct {
	Label       string
	Href        string
	External    bool
	Active      bool
	IsCategory  bool
	Collapsible bool
	Open        bool
	Items       []*SidebarItem
}

// SidebarItems converts a resolved sidebar for the page at route.
// Categories containing the page are open whatever their collapsed state.
func SidebarItems(items []*nav.Item, route string) []*SidebarItem {
	out := make([]*SidebarItem, 0, len(items))
	for _, it := range items {
		si := &SidebarItem{
			Label:    it.Label,
			Href:     it.Href,
			External: it.External,
			Active:   !it.External && it.Href == route,
		}
		if it.Kind == nav.KindCategory {
			si.IsCategory = true
			si.Collapsible = it.Collapsible
			si.Open = !it.Collapsed || it.Contains(route)
			si.Items = SidebarItems(it.Items, route)
		}
		out = append(out, si)
	}
	return out
}

// Breadcrumbs turns the ancestors of a sidebar entry into crumbs. The page
// itself is not included.
func Breadcrumbs(homeHref string, ancestors []*nav.Item) []Crumb {
	if len(ancestors) == 0 {
		return nil
	}
	crumbs := []Crumb{{Label: "Home", Href: homeHref}}
	for _, a := range ancestors {
		crumbs = append(crumbs, Crumb{Label: a.Label, Href: a.Href})
	}
	return crumbs
}

// sitePath prefixes site-relative paths with the base URL; external URLs
// are returned as is.
func (t *Theme) sitePath(p string) string {
	if p == "" || markdown.IsExternal(p) {
		return p
	}
	return t.cfg.BaseURL + strings.TrimPrefix(p, "/")
}
