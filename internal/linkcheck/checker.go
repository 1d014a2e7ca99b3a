package linkcheck

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/handbook/internal/config"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/logfields"
)

// Broken is an internal link whose target is neither a page nor an asset.
type Broken struct {
	// Page is the route of the page holding the link.
	Page string
	// Source is the document source path of the page, empty for generated
	// pages.
	Source string
	URL    string
	// Target is the site path the link resolves to.
	Target string
	Tag    string
}

// Checker knows every route and asset of a site.
type Checker struct {
	routes map[string]struct{}
	assets map[string]struct{}
}

// NewChecker returns an empty checker.
func NewChecker() *Checker {
	return &Checker{routes: map[string]struct{}{}, assets: map[string]struct{}{}}
}

// AddRoute registers a page route such as "/docs/sql/intro/".
func (c *Checker) AddRoute(route string) { c.routes[normalizeRoute(route)] = struct{}{} }

// AddAsset registers a non-page file by its site path, e.g. "/img/logo.svg".
func (c *Checker) AddAsset(p string) { c.assets[p] = struct{}{} }

// Skip reports whether a URL is outside the scope of the checker: external,
// fragment-only, empty, or a non-http scheme.
func Skip(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" || u.Host != ""
}

// CheckPage returns the broken internal links of the page at route.
func (c *Checker) CheckPage(route, source string, page []byte) ([]Broken, error) {
	links, err := ExtractLinksFromBytes(page)
	if err != nil {
		return nil, herrors.Wrap(err, herrors.CategoryLinks, herrors.SeverityError, "extract links").
			WithContext("route", route)
	}
	base := &url.URL{Path: route}

	var broken []Broken
	for _, l := range links {
		if Skip(l.URL) {
			continue
		}
		u, err := url.Parse(l.URL)
		if err != nil {
			broken = append(broken, Broken{Page: route, Source: source, URL: l.URL, Tag: l.Tag})
			continue
		}
		target := base.ResolveReference(u).Path
		if c.Exists(target) {
			continue
		}
		broken = append(broken, Broken{Page: route, Source: source, URL: l.URL, Target: target, Tag: l.Tag})
	}
	return broken, nil
}

// Exists reports whether a site path names a page or an asset. Page routes
// match with or without the trailing slash and with an explicit
// index.html.
func (c *Checker) Exists(p string) bool {
	if _, ok := c.assets[p]; ok {
		return true
	}
	_, ok := c.routes[normalizeRoute(p)]
	return ok
}

func normalizeRoute(p string) string {
	p = strings.TrimSuffix(p, "index.html")
	if !strings.HasSuffix(p, "/") && path.Ext(p) == "" {
		p += "/"
	}
	return p
}

// Sort orders broken links by page then URL.
func Sort(broken []Broken) {
	sort.SliceStable(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].URL < broken[j].URL
	})
}

// Apply enforces policy: throw returns a links error, warn and log report
// through logger, ignore drops the findings.
func Apply(policy config.LinkPolicy, broken []Broken, logger *slog.Logger) error {
	if len(broken) == 0 || policy == config.PolicyIgnore {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	level := slog.LevelInfo
	switch policy {
	case config.PolicyThrow:
		level = slog.LevelError
	case config.PolicyWarn:
		level = slog.LevelWarn
	}
	for _, b := range broken {
		logger.Log(context.Background(), level, "Broken link",
			logfields.Route(b.Page),
			logfields.Link(b.URL),
			logfields.Path(b.Source),
			logfields.Policy(string(policy)))
	}

	if policy == config.PolicyThrow {
		err := herrors.BrokenLinks(len(broken))
		first := broken[0]
		return err.WithContext("first_page", first.Page).WithContext("first_link", first.URL)
	}
	return nil
}
