package site

import (
	"git.home.luguber.info/inful/handbook/internal/content"
	"git.home.luguber.info/inful/handbook/internal/nav"
	"git.home.luguber.info/inful/handbook/internal/theme"
)

// localeSite is the part of a build belonging to one locale. The default
// locale lives at the base URL, the others below "<base_url><locale>/".
type localeSite struct {
	locale    string
	isDefault bool
	prefix    string
	docsRoute string

	corpus   *content.Corpus
	sidebars nav.Sidebars
	trees    []*nav.Tree
	entries  map[string][]nav.Entry
	navbar   *theme.Navbar
}

func newLocaleSite(locale string, isDefault bool, baseURL, routeBasePath string) *localeSite {
	prefix := baseURL
	if !isDefault {
		prefix = baseURL + locale + "/"
	}
	docsRoute := prefix
	if routeBasePath != "" {
		docsRoute = prefix + routeBasePath + "/"
	}
	return &localeSite{
		locale:    locale,
		isDefault: isDefault,
		prefix:    prefix,
		docsRoute: docsRoute,
		entries:   map[string][]nav.Entry{},
	}
}

// resolve builds the render-ready sidebar trees and their reading order.
func (l *localeSite) resolve() {
	l.trees = l.trees[:0]
	for _, sb := range l.sidebars {
		t := nav.Resolve(sb, l.corpus, l.docsRoute)
		l.trees = append(l.trees, t)
		l.entries[t.Name] = nav.Flatten(t)
	}
}

// DocRoute implements theme.Routes.
func (l *localeSite) DocRoute(id string) (string, bool) {
	d, ok := l.corpus.Get(id)
	if !ok {
		return "", false
	}
	return d.Route, true
}

// SidebarRoute implements theme.Routes: the first page of the sidebar.
func (l *localeSite) SidebarRoute(name string) (string, bool) {
	entries := l.entries[name]
	if len(entries) == 0 {
		return "", false
	}
	return entries[0].Route(), true
}

// placement finds the first sidebar, in file order, listing route as a
// page. ok is false for pages no sidebar mentions.
func (l *localeSite) placement(route string) (tree *nav.Tree, entries []nav.Entry, at int, ok bool) {
	for _, t := range l.trees {
		es := l.entries[t.Name]
		for i := range es {
			if es[i].Route() == route {
				return t, es, i, true
			}
		}
	}
	return nil, nil, -1, false
}
