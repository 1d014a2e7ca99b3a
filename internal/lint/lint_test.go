package lint

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/handbook/internal/config"
)

const lintConfig = `
title: Lint Handbook
url: https://handbook.example.com
theme:
  prism:
    additional_languages: [sql]
`

func newSite(t *testing.T, files map[string]string, extra string) *config.Config {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	cfg, err := config.Parse([]byte(lintConfig + extra))
	require.NoError(t, err)
	cfg.Root = root
	return cfg
}

func byRule(result *Result, rule string) []Issue {
	var out []Issue
	for _, issue := range result.Issues {
		if issue.Rule == rule {
			out = append(out, issue)
		}
	}
	return out
}

func cleanFiles() map[string]string {
	return map[string]string{
		"docs/intro.md":       "# Intro\n\nSee [basics](sql/basics.md) and ![logo](/img/logo.png).\n",
		"docs/sql/basics.md":  "# Basics\n\n```sql\nSELECT 1;\n```\n",
		"static/img/logo.png": "png",
		"sidebars.yaml":       "handbook:\n  - intro\n  - sql/basics\n",
	}
}

func TestLint_CleanSite(t *testing.T) {
	site := newSite(t, cleanFiles(), "")

	result, err := NewLinter(nil).Lint(site)
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 2, result.FilesTotal)
	assert.Equal(t, 0, result.ExitCode(false))
}

func TestLint_ReportsProblems(t *testing.T) {
	files := cleanFiles()
	files["docs/intro.md"] = "# Intro\n\n[gone](missing.md) ![lost](/img/lost.png)\n\n```haskell\nmain = pure ()\n```\n"
	files["docs/broken.md"] = "---\nid: a/b\n---\n# Broken\n"
	files["docs/sql/basics.md"] = "# Basics\n\nSee [the guide](getting started.md).\n"
	files["docs/sql/Query Tips.md"] = "# Tips\n"
	files["docs/sql/basics.md.bak"] = "old"
	files["sidebars.yaml"] = "handbook:\n  - intro\n  - missing-doc\n  - sql/basics\n"
	site := newSite(t, files, "")

	result, err := NewLinter(&Config{}).Lint(site)
	require.NoError(t, err)

	fm := byRule(result, RuleFrontMatter)
	require.Len(t, fm, 1)
	assert.Equal(t, "docs/broken.md", fm[0].FilePath)
	assert.Equal(t, SeverityError, fm[0].Severity)

	unresolved := byRule(result, "unresolved-doc")
	require.Len(t, unresolved, 1)
	assert.Equal(t, "sidebars.yaml", unresolved[0].FilePath)
	assert.Equal(t, 3, unresolved[0].Line)
	assert.Equal(t, SeverityError, unresolved[0].Severity)
	assert.Equal(t, "Sidebar: handbook", unresolved[0].Explanation)

	orphans := byRule(result, "orphan-doc")
	require.Len(t, orphans, 1)
	assert.Equal(t, "docs/sql/Query Tips.md", orphans[0].FilePath)
	assert.Equal(t, SeverityWarning, orphans[0].Severity)

	md := byRule(result, RuleBrokenMarkdown)
	require.Len(t, md, 1)
	assert.Equal(t, "docs/intro.md", md[0].FilePath)
	assert.Equal(t, SeverityWarning, md[0].Severity)
	assert.Contains(t, md[0].Message, "missing.md")

	img := byRule(result, RuleMissingImage)
	require.Len(t, img, 1)
	assert.Equal(t, SeverityError, img[0].Severity)
	assert.Contains(t, img[0].Message, "/img/lost.png")

	langs := byRule(result, RuleCodeLanguage)
	require.Len(t, langs, 1)
	assert.Equal(t, `Add "haskell" to theme.prism.additional_languages`, langs[0].Fix)

	unparsed := byRule(result, RuleUnparsedLink)
	require.Len(t, unparsed, 1)
	assert.Equal(t, "docs/sql/basics.md", unparsed[0].FilePath)
	assert.Contains(t, unparsed[0].Message, "getting started.md")

	names := byRule(result, "filename-conventions")
	var nameFiles []string
	for _, issue := range names {
		nameFiles = append(nameFiles, issue.FilePath)
	}
	assert.Contains(t, nameFiles, "docs/sql/Query Tips.md")
	assert.Contains(t, nameFiles, "docs/sql/basics.md.bak")

	assert.Equal(t, 2, result.ExitCode(false))

	for i := 1; i < len(result.Issues); i++ {
		assert.LessOrEqual(t, result.Issues[i-1].FilePath, result.Issues[i].FilePath)
	}
}

func TestLint_PolicySeverities(t *testing.T) {
	files := cleanFiles()
	files["docs/intro.md"] = "# Intro\n\n[gone](missing.md) ![lost](/img/lost.png)\n"

	tests := []struct {
		extra   string
		md, img []Severity
	}{
		{extra: "on_broken_markdown_links: throw\non_broken_links: warn\n", md: []Severity{SeverityError}, img: []Severity{SeverityWarning}},
		{extra: "on_broken_markdown_links: log\non_broken_links: log\n", md: []Severity{SeverityInfo}, img: []Severity{SeverityInfo}},
		{extra: "on_broken_markdown_links: ignore\non_broken_links: ignore\n"},
	}
	for _, tt := range tests {
		t.Run(tt.extra, func(t *testing.T) {
			result, err := NewLinter(nil).Lint(newSite(t, files, tt.extra))
			require.NoError(t, err)

			var md, img []Severity
			for _, issue := range byRule(result, RuleBrokenMarkdown) {
				md = append(md, issue.Severity)
			}
			for _, issue := range byRule(result, RuleMissingImage) {
				img = append(img, issue.Severity)
			}
			assert.Equal(t, tt.md, md)
			assert.Equal(t, tt.img, img)
		})
	}
}

func TestLint_QuietKeepsErrors(t *testing.T) {
	files := cleanFiles()
	files["docs/Extra.md"] = "# Extra\n"
	files["sidebars.yaml"] = "handbook:\n  - intro\n  - nope\n"
	site := newSite(t, files, "")

	result, err := NewLinter(&Config{Quiet: true}).Lint(site)
	require.NoError(t, err)
	require.NotEmpty(t, result.Issues)
	for _, issue := range result.Issues {
		assert.Equal(t, SeverityError, issue.Severity, issue.Message)
	}
}

func TestLint_DuplicateDocuments(t *testing.T) {
	files := cleanFiles()
	files["docs/other.md"] = "---\nid: intro\n---\n# Other\n"
	site := newSite(t, files, "")

	result, err := NewLinter(nil).Lint(site)
	require.NoError(t, err)

	dup := byRule(result, RuleDuplicateDocument)
	require.Len(t, dup, 1)
	assert.Equal(t, "docs", dup[0].FilePath)
	assert.Empty(t, byRule(result, "orphan-doc"))
}

func TestLint_MissingDocsDir(t *testing.T) {
	site := newSite(t, map[string]string{"sidebars.yaml": "handbook: []\n"}, "")

	_, err := NewLinter(nil).Lint(site)
	require.Error(t, err)
}

func TestFormatters(t *testing.T) {
	result := &Result{
		FilesTotal: 3,
		Issues: []Issue{
			{FilePath: "sidebars.yaml", Line: 4, Severity: SeverityError, Rule: "unresolved-doc", Message: `document "x" not found`, Fix: "Create the document or correct the id"},
			{FilePath: "docs/Intro.md", Severity: SeverityWarning, Rule: "filename-conventions", Message: "Filename contains uppercase letters"},
		},
	}

	var text bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&text, result, "docs"))
	out := text.String()
	assert.Contains(t, out, "Checking documentation in: docs")
	assert.Contains(t, out, "✗ sidebars.yaml:4")
	assert.Contains(t, out, "ERROR [unresolved-doc]: document \"x\" not found")
	assert.Contains(t, out, "Fix: Create the document or correct the id")
	assert.Contains(t, out, "1 error (blocks build)")
	assert.Contains(t, out, "1 warning (should fix)")
	assert.Contains(t, out, "will fail handbook build")

	var js bytes.Buffer
	require.NoError(t, NewFormatter("json").Format(&js, result, "docs"))
	var decoded JSONOutput
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.ErrorCount)
	assert.Equal(t, 1, decoded.WarningCount)
	require.Len(t, decoded.Issues, 2)
	assert.Equal(t, "ERROR", decoded.Issues[0].Severity)
	assert.Equal(t, 4, decoded.Issues[0].Line)

	var empty bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&empty, &Result{}, "docs"))
	assert.Contains(t, empty.String(), "passes handbook check")
}
