package nav

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/handbook/internal/content"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return dir
}

func loadCorpus(t *testing.T, files map[string]string) (*content.Corpus, string) {
	t.Helper()
	dir := writeTree(t, files)
	corpus, err := content.LoadCorpus(dir, content.Options{RouteBase: "/docs/"})
	require.NoError(t, err)
	return corpus, dir
}

var sqlDocs = map[string]string{
	"intro.md":                 "# Welcome\n",
	"sql/introduction.md":      "# Introduction\n",
	"sql/getting-started.md":   "# Getting Started\n",
	"sql/querying-data.md":     "# Querying Data\n",
	"curl/basics.md":           "# cURL Basics\n",
	"git/branches.md":          "# Branches\n",
	"postman/collections.md":   "---\nsidebar_label: Collections\n---\n# Working with collections\n",
	"postman/environments.md":  "# Environments\n",
	"postman/postman.md":       "# Postman\n",
	"sql/_category_.yaml":      "label: ignored\n",
	"_partials/snippet.md":     "not loaded\n",
	"sql/.hidden/something.md": "not loaded\n",
}

const sqlSidebar = `
handbook:
  - intro
  - type: category
    label: SQL
    items:
      - sql/introduction
      - sql/getting-started
      - sql/querying-data
  - Tools:
      - curl/basics
      - type: category
        label: Postman
        link:
          type: doc
          id: postman/postman
        items:
          - postman/collections
          - postman/environments
  - type: link
    label: PostgreSQL docs
    href: https://www.postgresql.org/docs/
reference:
  Git:
    - git/branches
`

func TestParse_OrderAndShorthand(t *testing.T) {
	sidebars, err := Parse([]byte(sqlSidebar))
	require.NoError(t, err)
	assert.Equal(t, []string{"handbook", "reference"}, sidebars.Names())

	hb, ok := sidebars.Get("handbook")
	require.True(t, ok)
	require.Len(t, hb.Items, 4)
	assert.Equal(t, KindDoc, hb.Items[0].Type)
	assert.Equal(t, "intro", hb.Items[0].ID)

	sql := hb.Items[1]
	assert.Equal(t, KindCategory, sql.Type)
	assert.Equal(t, "SQL", sql.Label)
	ids := make([]string, len(sql.Items))
	for i, n := range sql.Items {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"sql/introduction", "sql/getting-started", "sql/querying-data"}, ids)

	tools := hb.Items[2]
	assert.Equal(t, KindCategory, tools.Type)
	assert.Equal(t, "Tools", tools.Label)
	require.Len(t, tools.Items, 2)
	assert.Equal(t, LinkDoc, tools.Items[1].Link.Type)

	assert.Equal(t, KindLink, hb.Items[3].Type)
	assert.Equal(t, "https://www.postgresql.org/docs/", hb.Items[3].Href)

	ref, ok := sidebars.Get("reference")
	require.True(t, ok)
	require.Len(t, ref.Items, 1)
	assert.Equal(t, "Git", ref.Items[0].Label)

	assert.Equal(t, []string{
		"curl/basics", "git/branches", "intro", "postman/collections", "postman/environments",
		"postman/postman", "sql/getting-started", "sql/introduction", "sql/querying-data",
	}, sidebars.DocIDs())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown type", "handbook:\n  - type: widget\n    id: x\n", "line 2"},
		{"unknown field", "handbook:\n  - id: x\n    colour: red\n", "colour"},
		{"duplicate sidebar", "a:\n  - x\na:\n  - y\n", "duplicate sidebar"},
		{"scalar sidebar", "a: x\n", "must be a list"},
		{"not a mapping", "- a\n- b\n", "must map"},
		{"bad link type", "a:\n  - type: category\n    label: C\n    link:\n      type: page\n", "category link type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, herrors.IsCategory(err, herrors.CategoryNavigation))
		})
	}
}

func TestParse_Empty(t *testing.T) {
	sidebars, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, sidebars)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "sidebars.yaml"))
	require.Error(t, err)
	assert.True(t, herrors.IsCategory(err, herrors.CategoryNavigation))
}

func TestSQLCategoryRendersInDeclaredOrder(t *testing.T) {
	corpus, dir := loadCorpus(t, sqlDocs)
	sidebars, err := Parse([]byte(sqlSidebar))
	require.NoError(t, err)
	sidebars, err = Expand(sidebars, corpus, dir)
	require.NoError(t, err)

	assert.Empty(t, Validate(sidebars, corpus, ValidateOptions{RequireCompleteSidebar: true}))

	hb, _ := sidebars.Get("handbook")
	tree := Resolve(hb, corpus, "/docs/")
	var sqlHeadings []*Item
	for _, it := range tree.Items {
		if it.Kind == KindCategory && it.Label == "SQL" {
			sqlHeadings = append(sqlHeadings, it)
		}
	}
	require.Len(t, sqlHeadings, 1)
	var labels []string
	for _, it := range sqlHeadings[0].Items {
		labels = append(labels, it.Label)
	}
	assert.Equal(t, []string{"Introduction", "Getting Started", "Querying Data"}, labels)
	assert.Equal(t, "/docs/sql/introduction/", sqlHeadings[0].Items[0].Href)
}

func TestValidate_Problems(t *testing.T) {
	corpus, _ := loadCorpus(t, map[string]string{
		"intro.md":          "# Intro\n",
		"sql/a.md":          "# Same\n",
		"sql/b.md":          "# Same\n",
		"sql/orphan.md":     "# Orphan\n",
		"sql/draft.md":      "---\ndraft: true\n---\n# Draft\n",
		"git/branches.md":   "# Branches\n",
		"git/rebase.md":     "---\nsidebar_label: Rebasing\n---\n",
		"curl/flags.md":     "# Flags\n",
		"curl/reference.md": "# Reference\n",
	})
	sidebars, err := Parse([]byte(`
main:
  - intro
  - missing/doc
  - SQL:
      - sql/a
      - sql/b
  - type: category
    label: Empty
    items: []
  - type: category
    label: Git
    link: {type: doc, id: git/nope}
    items:
      - git/branches
      - git/rebase
  - intro
  - type: category
    label: cURL
    link: {type: generated-index}
    items:
      - curl/flags
      - id: curl/reference
        label: Flags
`))
	require.NoError(t, err)

	problems := Validate(sidebars, corpus, ValidateOptions{})
	rules := map[string][]Problem{}
	for _, p := range problems {
		rules[p.Rule] = append(rules[p.Rule], p)
	}

	require.Len(t, rules[RuleUnresolvedDoc], 2)
	assert.Equal(t, "missing/doc", rules[RuleUnresolvedDoc][0].DocID)
	assert.Equal(t, "git/nope", rules[RuleUnresolvedDoc][1].DocID)
	assert.Equal(t, SeverityError, rules[RuleUnresolvedDoc][0].Severity)

	require.Len(t, rules[RuleDuplicateLabel], 3)
	assert.Equal(t, "", rules[RuleDuplicateLabel][0].Path, "intro listed twice at the top level")
	assert.Contains(t, rules[RuleDuplicateLabel][0].Message, `"Intro"`)
	assert.Equal(t, "SQL", rules[RuleDuplicateLabel][1].Path)
	assert.Contains(t, rules[RuleDuplicateLabel][1].Message, `"Same"`)
	assert.Equal(t, "cURL", rules[RuleDuplicateLabel][2].Path)

	require.Len(t, rules[RuleEmptyCategory], 1)
	assert.Contains(t, rules[RuleEmptyCategory][0].Message, "Empty")

	require.Len(t, rules[RuleDuplicateDoc], 1)
	assert.Equal(t, "intro", rules[RuleDuplicateDoc][0].DocID)
	assert.Equal(t, SeverityWarning, rules[RuleDuplicateDoc][0].Severity)

	require.Len(t, rules[RuleOrphanDoc], 1, "drafts are not orphans")
	assert.Equal(t, "sql/orphan", rules[RuleOrphanDoc][0].DocID)
	assert.Equal(t, SeverityWarning, rules[RuleOrphanDoc][0].Severity)
	assert.True(t, HasErrors(problems))

	strict := Validate(sidebars, corpus, ValidateOptions{RequireCompleteSidebar: true})
	for _, p := range strict {
		if p.Rule == RuleOrphanDoc {
			assert.Equal(t, SeverityError, p.Severity)
		}
	}
}

func TestValidate_UnexpandedAutogenerated(t *testing.T) {
	corpus, _ := loadCorpus(t, map[string]string{"intro.md": "x"})
	sidebars, err := Parse([]byte("main:\n  - intro\n  - type: autogenerated\n    dir_name: sql\n"))
	require.NoError(t, err)
	problems := Validate(sidebars, corpus, ValidateOptions{})
	require.Len(t, problems, 1)
	assert.Equal(t, RuleUnexpanded, problems[0].Rule)
	assert.Equal(t, 3, problems[0].Line)
	assert.Contains(t, problems[0].String(), "error [unexpanded-autogenerated] sidebar main (line 3)")
}

func TestExpand_Autogenerated(t *testing.T) {
	corpus, dir := loadCorpus(t, map[string]string{
		"intro.md":                  "---\nsidebar_position: 1\n---\n# Intro\n",
		"zeta.md":                   "# Zeta\n",
		"02-tools/index.md":         "# Tools overview\n",
		"02-tools/postman.md":       "# Postman\n",
		"02-tools/01-curl.md":       "# cURL\n",
		"sql/_category_.yaml":       "label: SQL & PostgreSQL\nposition: 3\ncollapsed: false\n",
		"sql/introduction.md":       "# Introduction\n",
		"sql/getting-started.md":    "# Getting Started\n",
		"sql/joins/_category_.json": `{"label": "Joins", "link": {"description": "All about joins"}}`,
		"sql/joins/inner.md":        "# Inner joins\n",
	})
	sidebars, err := Parse([]byte("main:\n  - type: autogenerated\n    dir_name: .\n"))
	require.NoError(t, err)
	expanded, err := Expand(sidebars, corpus, dir)
	require.NoError(t, err)

	main, _ := expanded.Get("main")
	require.Len(t, main.Items, 4)
	assert.Equal(t, "intro", main.Items[0].ID)

	tools := main.Items[1]
	assert.Equal(t, KindCategory, tools.Type)
	assert.Equal(t, "Tools", tools.Label)
	require.NotNil(t, tools.Link)
	assert.Equal(t, "tools/index", tools.Link.ID)
	require.Len(t, tools.Items, 2)
	assert.Equal(t, "tools/curl", tools.Items[0].ID)
	assert.Equal(t, "tools/postman", tools.Items[1].ID)

	sql := main.Items[2]
	assert.Equal(t, "SQL & PostgreSQL", sql.Label)
	assert.False(t, sql.IsCollapsed())
	require.Len(t, sql.Items, 3)
	assert.Equal(t, "sql/getting-started", sql.Items[0].ID)
	assert.Equal(t, "sql/introduction", sql.Items[1].ID)
	joins := sql.Items[2]
	assert.Equal(t, "Joins", joins.Label)
	require.NotNil(t, joins.Link)
	assert.Equal(t, LinkGeneratedIndex, joins.Link.Type)

	assert.Equal(t, "zeta", main.Items[3].ID)

	// The original descriptor is untouched.
	orig, _ := sidebars.Get("main")
	assert.Equal(t, KindAutogenerated, orig.Items[0].Type)

	assert.Empty(t, Validate(expanded, corpus, ValidateOptions{RequireCompleteSidebar: true}))
}

func TestExpand_EmptyDirectory(t *testing.T) {
	corpus, dir := loadCorpus(t, map[string]string{"intro.md": "x"})
	sidebars, err := Parse([]byte("main:\n  - type: autogenerated\n    dir_name: sql\n"))
	require.NoError(t, err)
	_, err = Expand(sidebars, corpus, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no documents")
}

func TestFlattenAndNeighbours(t *testing.T) {
	corpus, dir := loadCorpus(t, sqlDocs)
	sidebars, err := Parse([]byte(sqlSidebar))
	require.NoError(t, err)
	sidebars, err = Expand(sidebars, corpus, dir)
	require.NoError(t, err)

	hb, _ := sidebars.Get("handbook")
	entries := Flatten(Resolve(hb, corpus, "/docs/"))
	var routes []string
	for _, e := range entries {
		routes = append(routes, e.Route())
	}
	assert.Equal(t, []string{
		"/docs/intro/",
		"/docs/sql/introduction/",
		"/docs/sql/getting-started/",
		"/docs/sql/querying-data/",
		"/docs/curl/basics/",
		"/docs/postman/",
		"/docs/postman/collections/",
		"/docs/postman/environments/",
	}, routes)

	collections := entries[6]
	require.Len(t, collections.Ancestors, 2)
	assert.Equal(t, "Tools", collections.Ancestors[0].Label)
	assert.Equal(t, "Postman", collections.Ancestors[1].Label)
	assert.Equal(t, "Collections", collections.Item.Label)

	prev, next := Neighbours(entries, "/docs/intro/")
	assert.Nil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "/docs/sql/introduction/", next.Route())

	prev, next = Neighbours(entries, "/docs/postman/environments/")
	require.NotNil(t, prev)
	assert.Equal(t, "/docs/postman/collections/", prev.Route())
	assert.Nil(t, next)

	prev, next = Neighbours(entries, "/docs/nowhere/")
	assert.Nil(t, prev)
	assert.Nil(t, next)
}

func TestResolve_GeneratedIndexAndLinks(t *testing.T) {
	corpus, _ := loadCorpus(t, map[string]string{"sql/a.md": "# A\n"})
	sidebars, err := Parse([]byte(`
main:
  - type: category
    label: SQL & Friends
    collapsible: false
    link: {type: generated-index, description: Everything SQL}
    items: [sql/a]
  - type: category
    label: Custom
    link: {type: generated-index, slug: /custom-index, title: Custom things}
    items: [sql/a]
  - type: link
    label: Local
    href: /blog/
`))
	require.NoError(t, err)
	main, _ := sidebars.Get("main")
	tree := Resolve(main, corpus, "/docs/")

	sql := tree.Items[0]
	require.NotNil(t, sql.Index)
	assert.Equal(t, "/docs/category/sql-friends/", sql.Href)
	assert.Equal(t, "SQL & Friends", sql.Index.Title)
	assert.Equal(t, "Everything SQL", sql.Index.Description)
	assert.False(t, sql.Collapsible)
	assert.False(t, sql.Collapsed)
	assert.True(t, sql.Contains("/docs/sql/a/"))

	custom := tree.Items[1]
	assert.Equal(t, "/docs/custom-index/", custom.Href)
	assert.Equal(t, "Custom things", custom.Index.Title)
	assert.True(t, custom.Collapsed)

	local := tree.Items[2]
	assert.False(t, local.External)

	var routes []string
	for _, e := range Flatten(tree) {
		routes = append(routes, e.Route())
	}
	assert.Equal(t, []string{"/docs/category/sql-friends/", "/docs/sql/a/", "/docs/custom-index/", "/docs/sql/a/"}, routes)
}

func TestResolve_NestedGeneratedIndexRoutes(t *testing.T) {
	corpus, _ := loadCorpus(t, map[string]string{"sql/a.md": "# A\n", "git/b.md": "# B\n"})
	sidebars, err := Parse([]byte(`
main:
  - type: category
    label: SQL
    items:
      - type: category
        label: Basics
        link: {type: generated-index}
        items: [sql/a]
  - type: category
    label: Git
    items:
      - type: category
        label: Basics
        link: {type: generated-index}
        items: [git/b]
`))
	require.NoError(t, err)
	main, _ := sidebars.Get("main")
	tree := Resolve(main, corpus, "/docs/")

	sqlBasics := tree.Items[0].Items[0]
	gitBasics := tree.Items[1].Items[0]
	assert.Equal(t, "/docs/category/sql/basics/", sqlBasics.Href)
	assert.Equal(t, []string{"SQL", "Basics"}, sqlBasics.Index.Path)
	assert.Equal(t, "/docs/category/git/basics/", gitBasics.Href)
	assert.Equal(t, []string{"Git", "Basics"}, gitBasics.Index.Path)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "sql-postgresql", Slugify("SQL / PostgreSQL"))
	assert.Equal(t, "getting-started", Slugify("  Getting   Started!"))
	assert.Equal(t, "curl", Slugify("cURL"))
}
