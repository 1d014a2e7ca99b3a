package nav

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/handbook/internal/content"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
)

// categoryFiles are tried in order inside a directory. JSON is valid YAML,
// so one decoder reads all of them.
var categoryFiles = []string{"_category_.yaml", "_category_.yml", "_category_.json"}

// CategoryMeta is the content of a _category_.yaml file.
type CategoryMeta struct {
	Label       string        `yaml:"label"`
	Position    *float64      `yaml:"position"`
	Collapsed   *bool         `yaml:"collapsed"`
	Collapsible *bool         `yaml:"collapsible"`
	Link        *CategoryLink `yaml:"link"`
}

// Expand returns a copy of sidebars with every autogenerated node replaced
// by the documents found under its directory. docsDir is the directory
// the corpus was loaded from; it is consulted for _category_ files.
func Expand(sidebars Sidebars, corpus *content.Corpus, docsDir string) (Sidebars, error) {
	e := &expander{corpus: corpus, docsDir: docsDir}
	out := make(Sidebars, len(sidebars))
	for i, sb := range sidebars {
		items, err := e.expandItems(sb.Items)
		if err != nil {
			return nil, herrors.Wrap(err, herrors.CategoryNavigation, herrors.SeverityFatal, "expand sidebar").
				WithContext("sidebar", sb.Name)
		}
		out[i] = &Sidebar{Name: sb.Name, Items: items}
	}
	return out, nil
}

type expander struct {
	corpus  *content.Corpus
	docsDir string
}

func (e *expander) expandItems(items []*Node) ([]*Node, error) {
	out := make([]*Node, 0, len(items))
	for _, n := range items {
		switch n.Type {
		case KindAutogenerated:
			dir := cleanDirName(n.DirName)
			generated, err := e.generate(dir)
			if err != nil {
				return nil, err
			}
			if len(generated) == 0 {
				return nil, fmt.Errorf("line %d: autogenerated directory %q contains no documents", n.Line, n.DirName)
			}
			out = append(out, generated...)
		case KindCategory:
			c := n.Clone()
			children, err := e.expandItems(n.Items)
			if err != nil {
				return nil, err
			}
			c.Items = children
			out = append(out, c)
		default:
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

type entry struct {
	pos    float64
	hasPos bool
	isDir  bool
	key    string
	node   *Node
}

func (e *expander) generate(dir string) ([]*Node, error) {
	var entries []entry
	subdirs := map[string]*content.Document{}
	var subdirOrder []string

	for _, d := range e.corpus.Under(dir) {
		if d.Dir == dir {
			pos, ok := d.Position()
			entries = append(entries, entry{pos: pos, hasPos: ok, key: d.ID, node: &Node{Type: KindDoc, ID: d.ID}})
			continue
		}
		rest := strings.TrimPrefix(d.Dir, dir)
		rest = strings.TrimPrefix(rest, "/")
		name := strings.SplitN(rest, "/", 2)[0]
		if _, ok := subdirs[name]; !ok {
			subdirs[name] = d
			subdirOrder = append(subdirOrder, name)
		}
	}

	for _, name := range subdirOrder {
		sub := path.Join(dir, name)
		raw := rawDir(subdirs[name].Source, strings.Count(sub, "/")+1)
		cat, err := e.category(sub, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, cat)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.hasPos != b.hasPos {
			return a.hasPos
		}
		if a.hasPos && a.pos != b.pos {
			return a.pos < b.pos
		}
		if a.isDir != b.isDir {
			return !a.isDir
		}
		return a.key < b.key
	})

	nodes := make([]*Node, len(entries))
	for i, en := range entries {
		nodes[i] = en.node
	}
	return nodes, nil
}

// category builds the category node for the cleaned directory sub whose
// on-disk path relative to the docs directory is raw.
func (e *expander) category(sub, raw string) (entry, error) {
	meta, err := readCategoryMeta(filepath.Join(e.docsDir, filepath.FromSlash(raw)))
	if err != nil {
		return entry{}, err
	}

	items, err := e.generate(sub)
	if err != nil {
		return entry{}, err
	}

	base := path.Base(raw)
	node := &Node{
		Type:        KindCategory,
		Label:       meta.Label,
		Link:        meta.Link,
		Collapsed:   meta.Collapsed,
		Collapsible: meta.Collapsible,
	}
	if node.Label == "" {
		node.Label = content.Humanize(base)
	}

	var index *content.Document
	for _, d := range e.corpus.Under(sub) {
		if d.Dir == sub && d.IsIndex {
			index = d
			break
		}
	}
	if node.Link == nil && index != nil {
		node.Link = &CategoryLink{Type: LinkDoc, ID: index.ID}
	}
	if node.Link != nil && node.Link.Type == LinkDoc {
		items = removeDoc(items, node.Link.ID)
	}
	node.Items = items

	en := entry{isDir: true, key: sub, node: node}
	switch {
	case meta.Position != nil:
		en.pos, en.hasPos = *meta.Position, true
	default:
		if _, p := content.StripNumberPrefix(base); p != nil {
			en.pos, en.hasPos = *p, true
		} else if index != nil {
			en.pos, en.hasPos = index.Position()
		}
	}
	return en, nil
}

func readCategoryMeta(dir string) (CategoryMeta, error) {
	var meta CategoryMeta
	for _, name := range categoryFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return meta, err
		}
		if err := yaml.Unmarshal(data, &meta); err != nil {
			return meta, fmt.Errorf("%s: %w", filepath.Join(dir, name), err)
		}
		if meta.Link != nil && meta.Link.Type == "" {
			meta.Link.Type = LinkGeneratedIndex
			if meta.Link.ID != "" {
				meta.Link.Type = LinkDoc
			}
		}
		return meta, nil
	}
	return meta, nil
}

func removeDoc(items []*Node, id string) []*Node {
	out := items[:0:0]
	for _, n := range items {
		if n.Type == KindDoc && n.ID == id {
			continue
		}
		out = append(out, n)
	}
	return out
}

// rawDir returns the first depth segments of the directory of source.
func rawDir(source string, depth int) string {
	segs := strings.Split(path.Dir(source), "/")
	if depth < len(segs) {
		segs = segs[:depth]
	}
	return strings.Join(segs, "/")
}

// cleanDirName normalises an autogenerated dir_name to the form used by
// document ids: no surrounding slashes, ordering prefixes stripped, empty
// for the docs root.
func cleanDirName(dir string) string {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	if dir == "" {
		return ""
	}
	segs := strings.Split(dir, "/")
	for i, s := range segs {
		segs[i], _ = content.StripNumberPrefix(s)
	}
	return strings.Join(segs, "/")
}
