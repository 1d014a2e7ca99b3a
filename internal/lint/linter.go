package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/handbook/internal/config"
	"git.home.luguber.info/inful/handbook/internal/content"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/markdown"
	"git.home.luguber.info/inful/handbook/internal/nav"
	"git.home.luguber.info/inful/handbook/internal/theme"
)

// Rule identifiers of the site level checks. Navigation problems keep the
// rule names of the nav package.
const (
	RuleFrontMatter       = "front-matter"
	RuleDuplicateDocument = "duplicate-document"
	RuleNavigation        = "navigation"
	RuleBrokenMarkdown    = "broken-markdown-link"
	RuleMissingImage      = "missing-image"
	RuleUnparsedLink      = "unparsed-link"
	RuleCodeLanguage      = "code-language"
	RuleTheme             = "theme"
)

// Linter checks a handbook site without building it.
type Linter struct {
	cfg   *Config
	rules []Rule
}

// NewLinter creates a new linter with the given configuration.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}
	return &Linter{
		cfg:   cfg,
		rules: []Rule{&FilenameRule{}},
	}
}

// siteCheck carries one Lint run.
type siteCheck struct {
	site   *config.Config
	result *Result
	docs   []*content.Document
	corpus *content.Corpus
}

// Lint checks the site configured by site: file names, front matter,
// navigation, Markdown links, images and code block languages. Problems
// are reported as issues; the error is reserved for an unreadable docs
// directory.
func (l *Linter) Lint(site *config.Config) (*Result, error) {
	sc := &siteCheck{site: site, result: &Result{Issues: []Issue{}}}

	if err := l.scanDocs(sc); err != nil {
		return nil, err
	}
	corpus, err := content.NewCorpus(sc.docs)
	if err != nil {
		sc.add(Issue{
			FilePath: sc.rel(site.DocsDir()),
			Severity: SeverityError,
			Rule:     RuleDuplicateDocument,
			Message:  err.Error(),
			Fix:      "Give each document a unique id and slug",
		})
	} else {
		sc.corpus = corpus
		checkNavigation(sc)
		checkDocuments(sc)
	}

	if l.cfg.Quiet {
		kept := sc.result.Issues[:0]
		for _, issue := range sc.result.Issues {
			if issue.Severity == SeverityError {
				kept = append(kept, issue)
			}
		}
		sc.result.Issues = kept
	}
	sc.result.Sort()
	return sc.result, nil
}

// scanDocs applies the file rules and parses every document the build
// would load.
func (l *Linter) scanDocs(sc *siteCheck) error {
	dir := sc.site.DocsDir()
	info, err := os.Stat(dir)
	if err != nil {
		return herrors.ContentError(dir, err)
	}
	if !info.IsDir() {
		return herrors.ContentError(dir, errors.New("docs path is not a directory"))
	}
	opts := content.Options{RouteBase: sc.site.DocsRoute(), IncludeDrafts: sc.site.Docs.IncludeDrafts}

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		display := sc.rel(p)
		applies := false
		for _, rule := range l.rules {
			if !rule.AppliesTo(p) {
				continue
			}
			applies = true
			issues, err := rule.Check(display)
			if err != nil {
				return err
			}
			sc.result.Issues = append(sc.result.Issues, issues...)
		}
		if applies {
			sc.result.FilesTotal++
		}
		if !content.IsMarkdown(name) {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		doc, err := content.ReadDocument(p, filepath.ToSlash(rel), opts)
		if err != nil {
			sc.add(Issue{
				FilePath:    display,
				Severity:    SeverityError,
				Rule:        RuleFrontMatter,
				Message:     "Document cannot be loaded",
				Explanation: errorCause(err),
				Fix:         "Fix the YAML between the leading --- lines",
			})
			return nil
		}
		if doc.Draft && !sc.site.Docs.IncludeDrafts {
			return nil
		}
		sc.docs = append(sc.docs, doc)
		return nil
	})
}

func checkNavigation(sc *siteCheck) {
	sidebarFile := sc.site.SidebarFile()
	display := sc.rel(sidebarFile)

	sidebars, err := nav.Load(sidebarFile)
	if err == nil {
		sidebars, err = nav.Expand(sidebars, sc.corpus, sc.site.DocsDir())
	}
	if err != nil {
		sc.add(Issue{
			FilePath:    display,
			Severity:    SeverityError,
			Rule:        RuleNavigation,
			Message:     "Sidebar file cannot be loaded",
			Explanation: errorCause(err),
		})
		return
	}

	problems := nav.Validate(sidebars, sc.corpus, nav.ValidateOptions{
		RequireCompleteSidebar: sc.site.Docs.RequireCompleteSidebar,
	})
	for _, p := range problems {
		issue := Issue{
			FilePath: display,
			Severity: SeverityWarning,
			Rule:     p.Rule,
			Message:  p.Message,
			Line:     p.Line,
		}
		if p.Severity == nav.SeverityError {
			issue.Severity = SeverityError
		}
		if p.Sidebar != "" {
			issue.Explanation = "Sidebar: " + p.Sidebar
			if p.Path != "" {
				issue.Explanation += " > " + p.Path
			}
		}
		switch p.Rule {
		case nav.RuleOrphanDoc:
			if d, ok := sc.corpus.Get(p.DocID); ok {
				issue.FilePath = sc.rel(d.AbsPath)
			}
			issue.Fix = fmt.Sprintf("Reference %q from a sidebar in %s", p.DocID, display)
		case nav.RuleUnresolvedDoc:
			issue.Fix = "Create the document or correct the id"
		case nav.RuleDuplicateLabel:
			issue.Fix = "Give sibling items distinct labels"
		}
		sc.add(issue)
	}
}

// checkDocuments renders every document the way the build does and
// reports broken Markdown links, missing images and code languages
// without highlighting.
func checkDocuments(sc *siteCheck) {
	th, err := theme.New(sc.site)
	if err != nil {
		sc.add(Issue{
			FilePath:    sc.rel(sc.site.Resolve(config.DefaultPath)),
			Severity:    SeverityError,
			Rule:        RuleTheme,
			Message:     "Theme cannot be built",
			Explanation: errorCause(err),
		})
	}

	renderer := markdown.NewRenderer()
	mdSeverity, reportMD := policySeverity(sc.site.OnBrokenMarkdownLinks)
	imgSeverity, reportImg := policySeverity(sc.site.OnBrokenLinks)
	staticDir := sc.site.Resolve(sc.site.StaticDir)

	for _, doc := range sc.corpus.Docs() {
		display := sc.rel(doc.AbsPath)
		res, err := renderer.Render(doc.Body, doc.Source, func(source string) (string, bool) {
			d, ok := sc.corpus.BySource(source)
			if !ok {
				return "", false
			}
			return d.Route, true
		})
		if err != nil {
			sc.add(Issue{FilePath: display, Severity: SeverityError, Rule: RuleFrontMatter, Message: "Document cannot be rendered", Explanation: err.Error()})
			continue
		}

		if reportMD {
			for _, bl := range res.BrokenLinks {
				sc.add(Issue{
					FilePath: display,
					Severity: mdSeverity,
					Rule:     RuleBrokenMarkdown,
					Message:  fmt.Sprintf("Link %q points to a missing document", bl.Destination),
					Explanation: "Resolved to " + path.Join(sc.site.Docs.Path, bl.Target) + ", which is not a loaded document " +
						"(missing, a draft, or excluded by a leading _ or .).",
					Fix: "Correct the path relative to " + doc.Source,
				})
			}
		}

		if reportImg {
			links, err := markdown.ExtractLinks(doc.Body)
			if err != nil {
				continue
			}
			for _, l := range links {
				if !isImageLink(l) || imageExists(sc.site, staticDir, doc.Route, l.Destination) {
					continue
				}
				sc.add(Issue{
					FilePath: display,
					Severity: imgSeverity,
					Rule:     RuleMissingImage,
					Message:  fmt.Sprintf("Image %q does not exist", l.Destination),
					Explanation: "Images are published from the static directory (" + sc.rel(staticDir) + "). " +
						"A relative path resolves against the page URL " + doc.Route + ".",
					Fix: "Place the image in the static directory and reference it as " + sc.site.BaseURL + "img/<name>",
				})
			}
		}

		for _, l := range markdown.UnparsedLinks(doc.Body) {
			sc.add(Issue{
				FilePath: display,
				Severity: SeverityWarning,
				Rule:     RuleUnparsedLink,
				Message:  fmt.Sprintf("Link destination %q contains spaces and renders as plain text", l.Destination),
				Fix:      "Rename the target without spaces, encode them as %20, or wrap the destination in <...>",
			})
		}

		if th != nil {
			for _, lang := range th.UnknownLanguages(res.CodeLanguages) {
				sc.add(Issue{
					FilePath: display,
					Severity: SeverityWarning,
					Rule:     RuleCodeLanguage,
					Message:  fmt.Sprintf("Code block language %q has no syntax highlighting", lang),
					Fix:      fmt.Sprintf("Add %q to theme.prism.additional_languages", lang),
				})
			}
		}
	}
}

func isImageLink(l markdown.Link) bool {
	if markdown.IsExternal(l.Destination) {
		return false
	}
	switch l.Kind {
	case markdown.LinkKindImage:
		return true
	case markdown.LinkKindReferenceDefinition:
		return IsAssetFile(strings.ToLower(pathOnly(l.Destination)))
	}
	return false
}

// imageExists resolves dest against the page route and looks the site path
// up in the static directory.
func imageExists(site *config.Config, staticDir, route, dest string) bool {
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	base := &url.URL{Path: route}
	target := base.ResolveReference(u).Path
	if !strings.HasPrefix(target, site.BaseURL) {
		return false
	}
	rel := path.Clean(strings.TrimPrefix(target, site.BaseURL))
	st, err := os.Stat(filepath.Join(staticDir, filepath.FromSlash(rel)))
	return err == nil && !st.IsDir()
}

func pathOnly(dest string) string {
	if u, err := url.Parse(dest); err == nil {
		return u.Path
	}
	return dest
}

// policySeverity maps a broken link policy to the issue severity; ok is
// false for ignore.
func policySeverity(p config.LinkPolicy) (Severity, bool) {
	switch p {
	case config.PolicyThrow:
		return SeverityError, true
	case config.PolicyWarn:
		return SeverityWarning, true
	case config.PolicyLog:
		return SeverityInfo, true
	}
	return SeverityInfo, false
}

func (sc *siteCheck) add(issue Issue) { sc.result.Issues = append(sc.result.Issues, issue) }

// rel shows p relative to the site root when possible.
func (sc *siteCheck) rel(p string) string {
	if sc.site.Root == "" {
		return filepath.ToSlash(p)
	}
	if r, err := filepath.Rel(sc.site.Root, p); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return filepath.ToSlash(p)
}

// errorCause is the most specific message of err: the wrapped cause of a
// structured error, or err itself.
func errorCause(err error) string {
	if he, ok := herrors.As(err); ok && he.Cause != nil {
		return he.Cause.Error()
	}
	return err.Error()
}
