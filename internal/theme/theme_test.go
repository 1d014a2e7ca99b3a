package theme

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/handbook/internal/config"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/markdown"
	"git.home.luguber.info/inful/handbook/internal/nav"
)

const baseConfig = `
title: SQL Handbook
url: https://handbook.example.com
base_url: /handbook/
`

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(baseConfig + extra))
	require.NoError(t, err)
	cfg.Root = t.TempDir()
	return cfg
}

type fakeRoutes struct {
	docs     map[string]string
	sidebars map[string]string
}

func (f fakeRoutes) DocRoute(id string) (string, bool) {
	r, ok := f.docs[id]
	return r, ok
}

func (f fakeRoutes) SidebarRoute(name string) (string, bool) {
	r, ok := f.sidebars[name]
	return r, ok
}

var routes = fakeRoutes{
	docs:     map[string]string{"sql/intro": "/handbook/docs/sql/intro/"},
	sidebars: map[string]string{"handbook": "/handbook/docs/intro/"},
}

func TestCSS_ColorsAndCustomFiles(t *testing.T) {
	cfg := testConfig(t, `
theme:
  custom_css: [src/css/custom.css]
  colors:
    primary: "#123456"
    primary_dark: "#abcdef"
`)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Root, "src", "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "src", "css", "custom.css"), []byte(".hero { color: red; }"), 0o600))

	th, err := New(cfg)
	require.NoError(t, err)
	css := string(th.CSS())
	assert.Contains(t, css, "--hb-color-primary: #123456;")
	assert.Contains(t, css, "--hb-color-primary: #abcdef;")
	assert.Contains(t, css, "--hb-color-background: #ffffff;")
	assert.Contains(t, css, "/* src/css/custom.css */\n.hero { color: red; }\n")
	assert.Less(t, bytes.Index(th.CSS(), []byte(".navbar")), bytes.Index(th.CSS(), []byte(".hero { color")))
}

func TestCSS_MissingCustomFile(t *testing.T) {
	cfg := testConfig(t, "theme:\n  custom_css: [missing.css]\n")
	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, herrors.IsCategory(err, herrors.CategoryFileSystem))
}

func TestNavbar(t *testing.T) {
	cfg := testConfig(t, `
theme:
  navbar:
    logo: {alt: Logo, src: img/logo.svg}
    items:
      - {type: doc_sidebar, sidebar_id: handbook, label: Guides}
      - {type: doc, doc_id: sql/intro, label: SQL}
      - {type: href, href: /blog/, label: Blog}
      - {href: "https://github.com/example/handbook", label: GitHub, position: right}
`)
	th, err := New(cfg)
	require.NoError(t, err)
	n, err := th.Navbar(routes, "/handbook/")
	require.NoError(t, err)

	v := n.View("handbook", "/handbook/docs/git/branches/")
	assert.Equal(t, "SQL Handbook", v.Title)
	assert.Equal(t, &Logo{Alt: "Logo", Src: "/handbook/img/logo.svg"}, v.Logo)
	require.Len(t, v.Left, 3)
	assert.Equal(t, NavLink{Label: "Guides", Href: "/handbook/docs/intro/", Active: true}, v.Left[0])
	assert.Equal(t, NavLink{Label: "SQL", Href: "/handbook/docs/sql/intro/"}, v.Left[1])
	assert.Equal(t, NavLink{Label: "Blog", Href: "/handbook/blog/"}, v.Left[2])
	require.Len(t, v.Right, 1)
	assert.True(t, v.Right[0].External)

	v = n.View("", "/handbook/docs/sql/intro/")
	assert.False(t, v.Left[0].Active)
	assert.True(t, v.Left[1].Active)
}

func TestNavbar_UnknownTargets(t *testing.T) {
	for name, items := range map[string]string{
		"sidebar": "{type: doc_sidebar, sidebar_id: nope, label: X}",
		"doc":     "{type: doc, doc_id: nope, label: X}",
	} {
		t.Run(name, func(t *testing.T) {
			th, err := New(testConfig(t, "theme:\n  navbar:\n    items:\n      - "+items+"\n"))
			require.NoError(t, err)
			_, err = th.Navbar(routes, "/handbook/")
			require.Error(t, err)
			assert.Contains(t, err.Error(), `"nope"`)
		})
	}
}

func sqlTree() []*nav.Item {
	return []*nav.Item{
		{Kind: nav.KindDoc, Label: "Welcome", Href: "/handbook/docs/intro/", DocID: "intro"},
		{Kind: nav.KindCategory, Label: "SQL", Collapsible: true, Collapsed: true, Items: []*nav.Item{
			{Kind: nav.KindDoc, Label: "Introduction", Href: "/handbook/docs/sql/introduction/", DocID: "sql/introduction"},
			{Kind: nav.KindDoc, Label: "Getting Started", Href: "/handbook/docs/sql/getting-started/", DocID: "sql/getting-started"},
			{Kind: nav.KindDoc, Label: "Querying Data", Href: "/handbook/docs/sql/querying-data/", DocID: "sql/querying-data"},
		}},
		{Kind: nav.KindCategory, Label: "Git", Collapsible: true, Collapsed: true, Items: []*nav.Item{
			{Kind: nav.KindDoc, Label: "Branches", Href: "/handbook/docs/git/branches/", DocID: "git/branches"},
		}},
		{Kind: nav.KindLink, Label: "PostgreSQL docs", Href: "https://www.postgresql.org/docs/", External: true},
	}
}

func TestSidebarItems_OpensActiveCategory(t *testing.T) {
	items := SidebarItems(sqlTree(), "/handbook/docs/sql/getting-started/")
	require.Len(t, items, 4)
	assert.True(t, items[1].IsCategory)
	assert.True(t, items[1].Open)
	assert.True(t, items[1].Items[1].Active)
	assert.False(t, items[2].Open)
	assert.True(t, items[3].External)
	assert.False(t, items[3].Active)
}

func TestRenderDoc(t *testing.T) {
	cfg := testConfig(t, `
tagline: Learn by doing
favicon: img/favicon.ico
theme:
  footer:
    links:
      - title: Guides
        items:
          - {label: SQL, to: /docs/sql/introduction/}
          - {label: PostgreSQL, href: "https://www.postgresql.org"}
          - {html: '<a href="https://example.com" style="color:#fff">Raw</a>'}
    copyright: '<span style="opacity:.8">Copyright © Example</span>'
`)
	th, err := New(cfg)
	require.NoError(t, err)
	n, err := th.Navbar(routes, "/handbook/")
	require.NoError(t, err)

	route := "/handbook/docs/sql/getting-started/"
	page := &DocPage{
		Chrome: th.Chrome(PageInfo{
			Title:       "Getting Started",
			Description: "Connect with <psql>",
			Keywords:    []string{"sql", "psql"},
			Route:       route,
			Sidebar:     "handbook",
			Lang:        "en",
			Navbar:      n,
		}),
		Title:         "Getting Started",
		ShowTitle:     true,
		Content:       "<p>Run <code>psql</code>.</p>",
		TOC:           []markdown.TOCEntry{{Level: 2, ID: "install", Text: "Install"}},
		ShowTOC:       true,
		Sidebar:       SidebarItems(sqlTree(), route),
		Breadcrumbs:   Breadcrumbs("/handbook/", []*nav.Item{sqlTree()[1]}),
		Prev:          &PageLink{Label: "Introduction", Href: "/handbook/docs/sql/introduction/"},
		Next:          &PageLink{Label: "Querying Data", Href: "/handbook/docs/sql/querying-data/"},
		EditURL:       "https://github.com/example/handbook/tree/main/docs/sql/getting-started.md",
		LastUpdatedAt: "2024-03-01",
		LastUpdatedBy: "Ada",
	}

	var buf bytes.Buffer
	require.NoError(t, th.RenderDoc(&buf, page))
	html := buf.String()

	assert.Contains(t, html, "<title>Getting Started | SQL Handbook</title>")
	assert.Contains(t, html, `<meta name="description" content="Connect with &lt;psql&gt;">`)
	assert.Contains(t, html, `<meta name="keywords" content="sql, psql">`)
	assert.Contains(t, html, `<link rel="canonical" href="https://handbook.example.com/handbook/docs/sql/getting-started/">`)
	assert.Contains(t, html, `<link rel="icon" href="/handbook/img/favicon.ico">`)
	assert.Contains(t, html, `<link rel="stylesheet" href="/handbook/assets/css/styles.css">`)
	assert.Contains(t, html, "<p>Run <code>psql</code>.</p>")
	assert.Contains(t, html, `<a href="#install">Install</a>`)
	assert.Contains(t, html, `aria-current="page">Getting Started</a>`)
	assert.Contains(t, html, `<span class="menu__link menu__link--sublist">SQL</span>`)
	assert.Contains(t, html, `<a class="breadcrumbs__link" href="/handbook/">Home</a>`)
	assert.Contains(t, html, "Querying Data</div></a>")
	assert.Contains(t, html, "Edit this page")
	assert.Contains(t, html, `<time datetime="2024-03-01">2024-03-01</time>`)
	assert.Contains(t, html, "by <b>Ada</b>")
	assert.Contains(t, html, `href="/handbook/docs/sql/introduction/">SQL</a>`)
	assert.Contains(t, html, `<a href="https://example.com" style="color:#fff">Raw</a>`)
	assert.Contains(t, html, `<span style="opacity:.8">Copyright © Example</span>`)
	assert.NotContains(t, html, "EventSource")

	// SQL items keep their declared order under one heading.
	intro := bytes.Index(buf.Bytes(), []byte(">Introduction</a>"))
	started := bytes.Index(buf.Bytes(), []byte(">Getting Started</a>"))
	querying := bytes.Index(buf.Bytes(), []byte(">Querying Data</a>"))
	assert.True(t, intro < started && started < querying)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`menu__link--sublist">SQL</span>`)))
}

func TestRender_LiveReloadAndHome(t *testing.T) {
	th, err := New(testConfig(t, "tagline: Learn by doing\n"))
	require.NoError(t, err)
	n, err := th.Navbar(routes, "/handbook/")
	require.NoError(t, err)

	page := &HomePage{
		Chrome:    th.Chrome(PageInfo{Route: "/handbook/", Lang: "en", Navbar: n, LiveReload: "/__livereload"}),
		Title:     "SQL Handbook",
		Tagline:   "Learn by doing",
		StartHref: "/handbook/docs/intro/",
		Cards:     []Card{{Label: "SQL", Href: "/handbook/docs/sql/introduction/", Description: "Queries"}},
	}
	var buf bytes.Buffer
	require.NoError(t, th.RenderHome(&buf, page))
	html := buf.String()
	assert.Contains(t, html, "<title>SQL Handbook | Learn by doing</title>")
	assert.Contains(t, html, "new EventSource(")
	assert.Contains(t, html, `__livereload`)
	assert.Contains(t, html, `<a class="button button--primary" href="/handbook/docs/intro/">Get started</a>`)
	assert.Contains(t, html, `<h2 class="card__title">SQL</h2>`)
}

func TestRenderNotFoundAndCategory(t *testing.T) {
	th, err := New(testConfig(t, "theme:\n  color_mode:\n    disable_switch: true\n"))
	require.NoError(t, err)
	n, err := th.Navbar(routes, "/handbook/")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, th.RenderNotFound(&buf, &NotFoundPage{Chrome: th.Chrome(PageInfo{Title: "Page Not Found", Lang: "en", Navbar: n, NoIndex: true})}))
	assert.Contains(t, buf.String(), `<meta name="robots" content="noindex">`)
	assert.Contains(t, buf.String(), `<a href="/handbook/">Back to SQL Handbook</a>`)
	assert.NotContains(t, buf.String(), "navbar__toggle-theme")
	assert.NotContains(t, buf.String(), `rel="canonical"`)

	buf.Reset()
	route := "/handbook/docs/category/sql/"
	require.NoError(t, th.RenderCategory(&buf, &CategoryPage{
		Chrome:      th.Chrome(PageInfo{Title: "SQL", Route: route, Lang: "en", Navbar: n}),
		Title:       "SQL",
		Description: "Everything SQL",
		Cards:       []Card{{Label: "Introduction", Href: "/handbook/docs/sql/introduction/"}},
		Sidebar:     SidebarItems(sqlTree(), route),
	}))
	assert.Contains(t, buf.String(), `<p class="doc__description">Everything SQL</p>`)
	assert.Contains(t, buf.String(), `<h2 class="card__title">Introduction</h2>`)
}

func TestUnknownLanguages(t *testing.T) {
	th, err := New(testConfig(t, "theme:\n  prism:\n    additional_languages: [bash, SQL]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http", "powershell"}, th.UnknownLanguages([]string{"sql", "bash", "go", "powershell", "http", "http", "text"}))
	assert.Empty(t, th.UnknownLanguages(nil))
}
