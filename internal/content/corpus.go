package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"

	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/frontmatter"
	"git.home.luguber.info/inful/handbook/internal/logfields"
)

// Options controls how documents are turned into routes.
type Options struct {
	// RouteBase is the URL prefix of every document, ending in "/".
	RouteBase string
	// IncludeDrafts keeps documents with draft: true.
	IncludeDrafts bool
}

// Corpus is the set of loaded documents, ordered by id.
type Corpus struct {
	docs     []*Document
	byID     map[string]*Document
	bySource map[string]*Document
	byRoute  map[string]*Document
}

// NewCorpus indexes docs. Duplicate ids or routes are content errors.
func NewCorpus(docs []*Document) (*Corpus, error) {
	c := &Corpus{
		byID:     make(map[string]*Document, len(docs)),
		bySource: make(map[string]*Document, len(docs)),
		byRoute:  make(map[string]*Document, len(docs)),
	}
	sorted := make([]*Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, d := range sorted {
		if prev, dup := c.byID[d.ID]; dup {
			return nil, herrors.New(herrors.CategoryContent, herrors.SeverityFatal, "duplicate document id").
				WithContext("doc_id", d.ID).
				WithContext("sources", []string{prev.Source, d.Source})
		}
		if prev, dup := c.byRoute[d.Route]; dup {
			return nil, herrors.New(herrors.CategoryContent, herrors.SeverityFatal, "duplicate document route").
				WithContext("route", d.Route).
				WithContext("sources", []string{prev.Source, d.Source})
		}
		c.byID[d.ID] = d
		c.bySource[d.Source] = d
		c.byRoute[d.Route] = d
	}
	c.docs = sorted
	return c, nil
}

// Docs returns all documents ordered by id.
func (c *Corpus) Docs() []*Document { return c.docs }

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.docs) }

// Get looks a document up by id.
func (c *Corpus) Get(id string) (*Document, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// BySource looks a document up by its docs-relative source path.
func (c *Corpus) BySource(source string) (*Document, bool) {
	d, ok := c.bySource[source]
	return d, ok
}

// ByRoute looks a document up by its route.
func (c *Corpus) ByRoute(route string) (*Document, bool) {
	d, ok := c.byRoute[route]
	return d, ok
}

// Under returns the documents whose Dir is dir or below it, ordered by id.
func (c *Corpus) Under(dir string) []*Document {
	dir = strings.Trim(dir, "/")
	var out []*Document
	for _, d := range c.docs {
		if dir == "" || d.Dir == dir || strings.HasPrefix(d.Dir, dir+"/") {
			out = append(out, d)
		}
	}
	return out
}

// LoadCorpus reads every Markdown document below dir.
//
// Hidden entries and entries whose name starts with "_" are skipped.
func LoadCorpus(dir string, opts Options) (*Corpus, error) {
	docs, err := loadDocs(dir, opts)
	if err != nil {
		return nil, err
	}
	return NewCorpus(docs)
}

// LoadLocalized loads baseDir and replaces every document that also exists,
// by source path, below overlayDir. A missing overlayDir yields the base
// documents routed with opts.
func LoadLocalized(baseDir, overlayDir string, opts Options) (*Corpus, error) {
	base, err := loadDocs(baseDir, opts)
	if err != nil {
		return nil, err
	}
	if st, statErr := os.Stat(overlayDir); statErr != nil || !st.IsDir() {
		return NewCorpus(base)
	}
	overlay, err := loadDocs(overlayDir, opts)
	if err != nil {
		return nil, err
	}
	translated := make(map[string]*Document, len(overlay))
	for _, d := range overlay {
		translated[d.Source] = d
	}
	merged := make([]*Document, 0, len(base))
	for _, d := range base {
		if t, ok := translated[d.Source]; ok {
			merged = append(merged, t)
			delete(translated, d.Source)
			continue
		}
		merged = append(merged, d)
	}
	for source := range translated {
		slog.Warn("Translated document has no source document; skipping", logfields.Path(source))
	}
	return NewCorpus(merged)
}

func loadDocs(dir string, opts Options) ([]*Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, herrors.ContentError(dir, err)
	}
	if !info.IsDir() {
		return nil, herrors.ContentError(dir, errors.New("docs path is not a directory"))
	}

	var docs []*Document
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
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
		if d.IsDir() || !IsMarkdown(name) {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		doc, err := ReadDocument(p, filepath.ToSlash(rel), opts)
		if err != nil {
			return err
		}
		if doc.Draft && !opts.IncludeDrafts {
			slog.Debug("Skipping draft document", logfields.DocID(doc.ID))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		if _, ok := herrors.As(err); ok {
			return nil, err
		}
		return nil, herrors.ContentError(dir, err)
	}
	return docs, nil
}

// IsMarkdown reports whether name is a Markdown source file.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// ReadDocument loads a single file. source is its docs-relative slash path.
func ReadDocument(absPath, source string, opts Options) (*Document, error) {
	// #nosec G304 -- path comes from walking the configured docs directory
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, herrors.ContentError(source, err)
	}
	doc, err := ParseDocument(raw, source, opts)
	if err != nil {
		return nil, err
	}
	doc.AbsPath = absPath
	return doc, nil
}

// ParseDocument derives a Document from file content.
func ParseDocument(raw []byte, source string, opts Options) (*Document, error) {
	fields, meta, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, herrors.ContentError(source, err)
	}
	if strings.Contains(meta.ID, "/") {
		return nil, herrors.ContentError(source, fmt.Errorf("front matter id %q must not contain '/'", meta.ID))
	}

	rawDir := path.Dir(source)
	if rawDir == "." {
		rawDir = ""
	}
	dir := cleanDir(rawDir)
	fileStem := strings.TrimSuffix(path.Base(source), path.Ext(source))
	stem, prefixPos := StripNumberPrefix(fileStem)

	idStem := stem
	if meta.ID != "" {
		idStem = meta.ID
	}

	doc := &Document{
		ID:              path.Join(dir, idStem),
		Source:          source,
		Dir:             dir,
		SidebarLabel:    meta.SidebarLabel,
		SidebarPosition: meta.SidebarPosition,
		Description:     meta.Description,
		Keywords:        meta.Keywords,
		Slug:            meta.Slug,
		Draft:           meta.Draft,
		HideTitle:       meta.HideTitle,
		HideTOC:         meta.HideTableOfContents,
		CustomEditURL:   meta.CustomEditURL,
		PaginationLabel: meta.PaginationLabel,
		Fields:          fields,
		Body:            body,
	}
	if doc.SidebarPosition == nil {
		doc.SidebarPosition = prefixPos
	}

	switch {
	case meta.Title != "":
		doc.Title = meta.Title
	case firstHeading(body) != "":
		doc.Title = firstHeading(body)
		doc.TitleFromHeading = true
	default:
		doc.Title = Humanize(stem)
	}
	if doc.Description == "" {
		doc.Description = excerpt(body)
	}

	doc.Route = routeFor(opts.RouteBase, dir, stem, meta.Slug)
	doc.IsIndex = meta.Slug == "" && isIndexStem(stem, dir)
	doc.Fingerprint = mdfp.CalculateFingerprintFromParts(
		string(bytes.TrimRight(frontmatter.Raw(raw), "\r\n")),
		string(body),
	)
	return doc, nil
}

func routeFor(base, dir, stem, slug string) string {
	if base == "" {
		base = "/"
	}
	var p string
	switch {
	case strings.HasPrefix(slug, "/"):
		p = strings.Trim(slug, "/")
	case slug != "":
		p = path.Join(dir, strings.Trim(slug, "/"))
	case isIndexStem(stem, dir):
		p = dir
	default:
		p = path.Join(dir, stem)
	}
	if p == "" {
		return base
	}
	return base + p + "/"
}

// firstHeading returns the text of a leading level-1 ATX heading.
func firstHeading(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
		return ""
	}
	return ""
}

const maxExcerpt = 160

// excerpt returns the first prose line of body, trimmed of inline markup.
func excerpt(body []byte) string {
	inFence := false
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "|") ||
			strings.HasPrefix(line, "<") || strings.HasPrefix(line, "!") || strings.HasPrefix(line, ">") {
			continue
		}
		line = strings.NewReplacer("**", "", "__", "", "`", "", "*", "").Replace(line)
		if len([]rune(line)) > maxExcerpt {
			line = string([]rune(line)[:maxExcerpt-1]) + "…"
		}
		return line
	}
	return ""
}
