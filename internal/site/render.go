package site

import (
	"bytes"
	"context"
	"html/template"
	"sort"
	"strings"

	"git.home.luguber.info/inful/handbook/internal/config"
	"git.home.luguber.info/inful/handbook/internal/content"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/gitinfo"
	"git.home.luguber.info/inful/handbook/internal/linkcheck"
	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/markdown"
	"git.home.luguber.info/inful/handbook/internal/nav"
	"git.home.luguber.info/inful/handbook/internal/theme"
)

const lastUpdateLayout = "2006-01-02"

func (b *Builder) stageRender(ctx context.Context, bs *buildState) error {
	renderer := markdown.NewRenderer()
	var mdBroken []linkcheck.Broken

	for _, ls := range bs.locales {
		for _, doc := range ls.corpus.Docs() {
			if err := ctx.Err(); err != nil {
				return err
			}
			broken, err := b.renderDoc(bs, ls, renderer, doc)
			if err != nil {
				return err
			}
			mdBroken = append(mdBroken, broken...)
		}
		if err := b.renderCategories(ctx, bs, ls); err != nil {
			return err
		}
		if _, ok := ls.corpus.ByRoute(ls.prefix); !ok {
			if err := b.renderHome(bs, ls); err != nil {
				return err
			}
		}
	}
	if len(bs.locales) > 0 {
		if err := b.renderNotFound(bs, bs.locales[0]); err != nil {
			return err
		}
	}
	sort.Slice(bs.pages, func(i, j int) bool { return bs.pages[i].Route < bs.pages[j].Route })

	policy := bs.cfg.OnBrokenMarkdownLinks
	linkcheck.Sort(mdBroken)
	bs.report.BrokenMarkdownLinks = len(mdBroken)
	b.recorder.AddBrokenLinks("markdown", len(mdBroken))
	if policy == config.PolicyWarn {
		bs.report.Warnings += len(mdBroken)
	}
	return linkcheck.Apply(policy, mdBroken, bs.logger.With("kind", "markdown"))
}

func (b *Builder) renderDoc(bs *buildState, ls *localeSite, renderer *markdown.Renderer, doc *content.Document) ([]linkcheck.Broken, error) {
	res, err := renderer.Render(doc.Body, doc.Source, func(source string) (string, bool) {
		d, ok := ls.corpus.BySource(source)
		if !ok {
			return "", false
		}
		return d.Route, true
	})
	if err != nil {
		return nil, herrors.RenderFailed(doc.ID, err).WithContext("locale", ls.locale)
	}

	for _, lang := range bs.theme.UnknownLanguages(res.CodeLanguages) {
		bs.report.Warnings++
		bs.logger.Warn("Code block language is not highlighted; add it to theme.prism.additional_languages",
			"language", lang, logfields.DocID(doc.ID), logfields.Locale(ls.locale))
	}

	broken := make([]linkcheck.Broken, 0, len(res.BrokenLinks))
	for _, bl := range res.BrokenLinks {
		broken = append(broken, linkcheck.Broken{
			Page:   doc.Route,
			Source: doc.Source,
			URL:    bl.Destination,
			Target: bl.Target,
			Tag:    "a",
		})
	}

	sidebarName := ""
	page := &theme.DocPage{
		Title:     doc.Title,
		ShowTitle: !doc.HideTitle && !doc.TitleFromHeading,
		Content:   template.HTML(res.HTML), //nolint:gosec // rendered Markdown, raw HTML is author content
		TOC:       res.TOC,
		ShowTOC:   !doc.HideTOC,
		EditURL:   gitinfo.EditURL(bs.cfg.Docs.EditURL, bs.cfg.Docs.Path, doc.Source, doc.CustomEditURL),
	}
	if tree, entries, at, ok := ls.placement(doc.Route); ok {
		sidebarName = tree.Name
		page.Sidebar = theme.SidebarItems(tree.Items, doc.Route)
		page.Breadcrumbs = theme.Breadcrumbs(ls.prefix, entries[at].Ancestors)
		page.Prev, page.Next = pagination(ls, entries, doc.Route)
	}
	b.lastUpdate(bs, doc, page)

	page.Chrome = b.chrome(bs, ls, theme.PageInfo{
		Title:       doc.Title,
		Description: doc.Description,
		Keywords:    doc.Keywords,
		Route:       doc.Route,
		Sidebar:     sidebarName,
	}, doc.ID)

	var buf bytes.Buffer
	if err := bs.theme.RenderDoc(&buf, page); err != nil {
		return nil, herrors.RenderFailed(doc.ID, err).WithContext("locale", ls.locale)
	}
	err = bs.addPage(&Page{
		Route:       doc.Route,
		Kind:        PageDoc,
		Locale:      ls.locale,
		DocID:       doc.ID,
		Source:      doc.Source,
		Fingerprint: doc.Fingerprint,
		HTML:        buf.Bytes(),
	})
	if err != nil {
		return nil, herrors.Wrap(err, herrors.CategoryContent, herrors.SeverityFatal, "route collision")
	}
	return broken, nil
}

func (b *Builder) lastUpdate(bs *buildState, doc *content.Document, page *theme.DocPage) {
	if bs.git == nil {
		return
	}
	info, ok, err := bs.git.LastUpdate(doc.AbsPath)
	if err != nil {
		bs.logger.Debug("No git metadata for document", logfields.DocID(doc.ID), logfields.Error(err))
		return
	}
	if !ok {
		return
	}
	if bs.cfg.Docs.ShowLastUpdateTime {
		page.LastUpdatedAt = info.Time.UTC().Format(lastUpdateLayout)
	}
	if bs.cfg.Docs.ShowLastUpdateAuthor {
		page.LastUpdatedBy = info.Author
	}
}

// renderCategories writes the generated index page of every category that
// links to one. A category listed by several sidebars is rendered with the
// first of them; any other category claiming a taken route is a collision.
func (b *Builder) renderCategories(ctx context.Context, bs *buildState, ls *localeSite) error {
	for _, tree := range ls.trees {
		entries := ls.entries[tree.Name]
		for i, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx := e.Item.Index
			if idx == nil {
				continue
			}
			category := strings.Join(idx.Path, " > ")
			if prev, taken := bs.routes[idx.Route]; taken && prev.Kind == PageCategory && prev.Category == category {
				continue
			}
			page := &theme.CategoryPage{
				Title:       idx.Title,
				Description: idx.Description,
				Cards:       cards(ls, e.Item.Items),
				Sidebar:     theme.SidebarItems(tree.Items, idx.Route),
				Breadcrumbs: theme.Breadcrumbs(ls.prefix, entries[i].Ancestors),
			}
			page.Prev, page.Next = pagination(ls, entries, idx.Route)
			page.Chrome = b.chrome(bs, ls, theme.PageInfo{
				Title:       idx.Title,
				Description: idx.Description,
				Route:       idx.Route,
				Sidebar:     tree.Name,
			}, "")

			var buf bytes.Buffer
			if err := bs.theme.RenderCategory(&buf, page); err != nil {
				return herrors.Wrap(err, herrors.CategoryRender, herrors.SeverityFatal, "category page render failed").
					WithContext("route", idx.Route)
			}
			if err := bs.addPage(&Page{Route: idx.Route, Kind: PageCategory, Locale: ls.locale, Category: category, HTML: buf.Bytes()}); err != nil {
				return herrors.Wrap(err, herrors.CategoryNavigation, herrors.SeverityFatal, "route collision")
			}
		}
	}
	return nil
}

func (b *Builder) renderHome(bs *buildState, ls *localeSite) error {
	page := &theme.HomePage{Title: bs.cfg.Title, Tagline: bs.cfg.Tagline}
	if len(ls.trees) > 0 {
		first := ls.trees[0]
		if entries := ls.entries[first.Name]; len(entries) > 0 {
			page.StartHref = entries[0].Route()
		}
		page.Cards = cards(ls, first.Items)
	}
	page.Chrome = b.chrome(bs, ls, theme.PageInfo{Description: bs.cfg.Tagline, Route: ls.prefix}, "")

	var buf bytes.Buffer
	if err := bs.theme.RenderHome(&buf, page); err != nil {
		return herrors.Wrap(err, herrors.CategoryRender, herrors.SeverityFatal, "home page render failed")
	}
	return bs.addPage(&Page{Route: ls.prefix, Kind: PageHome, Locale: ls.locale, HTML: buf.Bytes()})
}

func (b *Builder) renderNotFound(bs *buildState, ls *localeSite) error {
	page := &theme.NotFoundPage{}
	page.Chrome = b.chrome(bs, ls, theme.PageInfo{Title: "Page Not Found", NoIndex: true}, "")

	var buf bytes.Buffer
	if err := bs.theme.RenderNotFound(&buf, page); err != nil {
		return herrors.Wrap(err, herrors.CategoryRender, herrors.SeverityFatal, "404 page render failed")
	}
	return bs.addPage(&Page{Route: bs.cfg.BaseURL + "404.html", Kind: PageNotFound, Locale: ls.locale, HTML: buf.Bytes()})
}

// chrome fills the per-locale parts of the page chrome. docID links the
// locale switcher to the same document in the other locales.
func (b *Builder) chrome(bs *buildState, ls *localeSite, info theme.PageInfo, docID string) theme.Chrome {
	info.Lang = ls.locale
	info.Navbar = ls.navbar
	info.LiveReload = b.liveReload
	info.Locales = localeLinks(bs, ls, info.Route, docID)
	return bs.theme.Chrome(info)
}

func localeLinks(bs *buildState, current *localeSite, route, docID string) []theme.LocaleLink {
	if len(bs.locales) < 2 {
		return nil
	}
	links := make([]theme.LocaleLink, 0, len(bs.locales))
	for _, ls := range bs.locales {
		href := ls.prefix
		switch {
		case docID != "":
			if d, ok := ls.corpus.Get(docID); ok {
				href = d.Route
			}
		case route != "" && strings.HasPrefix(route, current.prefix):
			href = ls.prefix + strings.TrimPrefix(route, current.prefix)
		}
		links = append(links, theme.LocaleLink{
			Locale: ls.locale,
			Label:  ls.locale,
			Href:   href,
			Active: ls == current,
		})
	}
	return links
}

// pagination returns the previous and next pages around route.
func pagination(ls *localeSite, entries []nav.Entry, route string) (prev, next *theme.PageLink) {
	p, n := nav.Neighbours(entries, route)
	return pageLink(ls, p), pageLink(ls, n)
}

func pageLink(ls *localeSite, e *nav.Entry) *theme.PageLink {
	if e == nil {
		return nil
	}
	label := e.Item.Label
	if e.Item.DocID != "" {
		if d, ok := ls.corpus.Get(e.Item.DocID); ok && d.PaginationLabel != "" {
			label = d.PaginationLabel
		}
	}
	return &theme.PageLink{Label: label, Href: e.Route()}
}

// cards lists items as index cards. Categories without a page of their own
// link to their first page.
func cards(ls *localeSite, items []*nav.Item) []theme.Card {
	out := make([]theme.Card, 0, len(items))
	for _, it := range items {
		c := theme.Card{Label: it.Label, Href: it.Href, External: it.External}
		switch {
		case it.Index != nil:
			c.Description = it.Index.Description
		case it.DocID != "":
			if d, ok := ls.corpus.Get(it.DocID); ok {
				c.Description = d.Description
			}
		}
		if c.Href == "" {
			c.Href = firstHref(it.Items)
		}
		if c.Href == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func firstHref(items []*nav.Item) string {
	for _, it := range items {
		if it.Kind == nav.KindLink {
			continue
		}
		if it.Href != "" {
			return it.Href
		}
		if h := firstHref(it.Items); h != "" {
			return h
		}
	}
	return ""
}
