package theme

import (
	"sort"
	"strings"
)

// defaultLanguages are highlighted without any configuration.
var defaultLanguages = []string{
	"markup", "html", "xml", "svg", "mathml", "ssml", "atom", "rss",
	"clike", "c", "cpp", "css", "javascript", "js", "jsx", "typescript", "ts", "tsx",
	"go", "graphql", "json", "kotlin", "markdown", "md", "objectivec", "objc",
	"python", "py", "reason", "rust", "swift", "yaml", "yml",
	"text", "txt", "plain", "plaintext", "none",
}

func knownLanguages(additional []string) map[string]bool {
	langs := make(map[string]bool, len(defaultLanguages)+len(additional))
	for _, l := range defaultLanguages {
		langs[l] = true
	}
	for _, l := range additional {
		langs[strings.ToLower(l)] = true
	}
	return langs
}

// UnknownLanguages returns the fenced code languages that neither the
// default set nor prism.additional_languages cover, sorted.
func (t *Theme) UnknownLanguages(langs []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, l := range langs {
		key := strings.ToLower(l)
		if t.langs[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
