package theme

import (
	"html/template"

	"git.home.luguber.info/inful/handbook/internal/markdown"
)

// Chrome is the part of every page that comes from the site configuration
// record rather than from a document.
type Chrome struct {
	Lang        string
	SiteTitle   string
	PageTitle   string
	Description string
	Keywords    []string
	Canonical   string
	Favicon     string
	Stylesheet  string
	NoIndex     bool

	ColorMode                 string
	ColorSwitch               bool
	RespectPrefersColorScheme bool
	PrismTheme                string
	PrismDarkTheme            string

	Version    string
	Navbar     NavbarView
	Footer     Footer
	Locales    []LocaleLink
	LiveReload string
}

// PageInfo is what the generator knows about a page when building its
// Chrome.
type PageInfo struct {
	// Title is the page title; empty for the home page.
	Title       string
	Description string
	Keywords    []string
	Route       string
	// Sidebar is the name of the sidebar the page belongs to, if any.
	Sidebar string
	Lang    string
	Locales []LocaleLink
	Navbar  *Navbar
	NoIndex bool
	// LiveReload is the SSE endpoint injected into the page; empty disables
	// live reload.
	LiveReload string
}

// LocaleLink points at the same page in another locale.
type LocaleLink struct {
	Locale string
	Label  string
	Href   string
	Active bool
}

// Crumb is one breadcrumb.
type Crumb struct {
	Label string
	Href  string
}

// PageLink is a previous/next pagination target.
type PageLink struct {
	Label string
	Href  string
}

// Card is one entry of a generated index or the home page.
type Card struct {
	Label       string
	Href        string
	Description string
	External    bool
}

// DocPage is the data of a document page.
type DocPage struct {
	Chrome
	Title       string
	ShowTitle   bool
	Content     template.HTML
	TOC         []markdown.TOCEntry
	ShowTOC     bool
	Sidebar     []*SidebarItem
	Breadcrumbs []Crumb
	Prev, Next  *PageLink

	EditURL       string
	LastUpdatedAt string
	LastUpdatedBy string
}

// CategoryPage is the data of a generated category index.
type CategoryPage struct {
	Chrome
	Title       string
	Description string
	Cards       []Card
	Sidebar     []*SidebarItem
	Breadcrumbs []Crumb
	Prev, Next  *PageLink
}

// HomePage is the data of the generated landing page.
type HomePage struct {
	Chrome
	Title     string
	Tagline   string
	StartHref string
	Cards     []Card
}

// NotFoundPage is the data of 404.html.
type NotFoundPage struct {
	Chrome
}
