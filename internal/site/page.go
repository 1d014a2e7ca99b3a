package site

import (
	"fmt"
	"strings"
)

// PageKind tells what produced a page.
type PageKind string

const (
	PageDoc      PageKind = "doc"
	PageCategory PageKind = "category"
	PageHome     PageKind = "home"
	PageNotFound PageKind = "notfound"
)

// Page is the rendered output for one route.
type Page struct {
	Route  string
	Kind   PageKind
	Locale string
	// DocID, Source and Fingerprint are set for document pages.
	DocID       string
	Source      string
	Fingerprint string
	// Category is the label path of the category a generated index page
	// lists.
	Category string
	HTML     []byte
}

// outputPath maps a route below baseURL to the file serving it: routes
// ending in "/" are served by their index.html.
func outputPath(baseURL, route string) (string, error) {
	if !strings.HasPrefix(route, baseURL) {
		return "", fmt.Errorf("route %q is outside base url %q", route, baseURL)
	}
	rel := strings.TrimPrefix(route, baseURL)
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}
	if strings.Contains(rel, "..") {
		return "", fmt.Errorf("route %q escapes the output directory", route)
	}
	return rel, nil
}

func (bs *buildState) addPage(p *Page) error {
	if prev, dup := bs.routes[p.Route]; dup {
		return fmt.Errorf("route %s is produced twice (%s %s and %s %s)",
			p.Route, prev.Kind, describe(prev), p.Kind, describe(p))
	}
	bs.routes[p.Route] = p
	bs.pages = append(bs.pages, p)
	return nil
}

func describe(p *Page) string {
	switch {
	case p.Source != "":
		return p.Source
	case p.Category != "":
		return p.Category
	}
	return p.Route
}
