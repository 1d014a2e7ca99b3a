package nav

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/handbook/internal/content"
)

// Severity of a validation problem.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem rules.
const (
	RuleUnresolvedDoc  = "unresolved-doc"
	RuleDuplicateLabel = "duplicate-label"
	RuleEmptyCategory  = "empty-category"
	RuleMissingLabel   = "missing-label"
	RuleInvalidLink    = "invalid-link"
	RuleUnexpanded     = "unexpanded-autogenerated"
	RuleOrphanDoc      = "orphan-doc"
	RuleDuplicateDoc   = "duplicate-doc"
)

// Problem is one finding of Validate.
type Problem struct {
	Rule     string
	Severity Severity
	Sidebar  string
	// Path is the chain of category labels leading to the node.
	Path    string
	DocID   string
	Line    int
	Message string
}

func (p Problem) String() string {
	var b strings.Builder
	b.WriteString(string(p.Severity))
	b.WriteString(" [")
	b.WriteString(p.Rule)
	b.WriteString("]")
	if p.Sidebar != "" {
		b.WriteString(" sidebar ")
		b.WriteString(p.Sidebar)
		if p.Path != "" {
			b.WriteString(" > ")
			b.WriteString(p.Path)
		}
	}
	if p.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", p.Line)
	}
	b.WriteString(": ")
	b.WriteString(p.Message)
	return b.String()
}

// ValidateOptions tunes Validate.
type ValidateOptions struct {
	// RequireCompleteSidebar turns orphan documents into errors.
	RequireCompleteSidebar bool
}

// Validate checks expanded sidebars against the corpus. Problems are
// returned in sidebar walk order followed by orphans ordered by id.
func Validate(sidebars Sidebars, corpus *content.Corpus, opts ValidateOptions) []Problem {
	var problems []Problem
	refs := map[string]int{}

	for _, sb := range sidebars {
		problems = append(problems, checkSiblings(sb.Name, "", sb.Items, corpus)...)
		walk(sb.Items, func(n *Node, parents []*Node) {
			at := Problem{Sidebar: sb.Name, Path: labelPath(parents), Line: n.Line}
			add := func(rule string, sev Severity, docID, format string, args ...any) {
				p := at
				p.Rule, p.Severity, p.DocID = rule, sev, docID
				p.Message = fmt.Sprintf(format, args...)
				problems = append(problems, p)
			}

			switch n.Type {
			case KindDoc:
				if _, ok := corpus.Get(n.ID); !ok {
					add(RuleUnresolvedDoc, SeverityError, n.ID, "document %q not found", n.ID)
				}
			case KindCategory:
				if strings.TrimSpace(n.Label) == "" {
					add(RuleMissingLabel, SeverityError, "", "category without label")
				}
				if len(n.Items) == 0 && n.Link == nil {
					add(RuleEmptyCategory, SeverityError, "", "category %q has no items and no link", n.Label)
				}
				if n.Link != nil && n.Link.Type == LinkDoc {
					if _, ok := corpus.Get(n.Link.ID); !ok {
						add(RuleUnresolvedDoc, SeverityError, n.Link.ID, "category %q links to unknown document %q", n.Label, n.Link.ID)
					}
				}
				if len(n.Items) > 0 {
					problems = append(problems, checkSiblings(sb.Name, labelPath(append(parents, n)), n.Items, corpus)...)
				}
			case KindLink:
				if strings.TrimSpace(n.Label) == "" {
					add(RuleMissingLabel, SeverityError, "", "link %q without label", n.Href)
				}
				if strings.TrimSpace(n.Href) == "" {
					add(RuleInvalidLink, SeverityError, "", "link %q without href", n.Label)
				}
			case KindAutogenerated:
				add(RuleUnexpanded, SeverityError, "", "autogenerated item %q was not expanded", n.DirName)
			}

			for _, id := range referencedIDs(n) {
				refs[id]++
				if refs[id] == 2 {
					add(RuleDuplicateDoc, SeverityWarning, id, "document %q is referenced more than once", id)
				}
			}
		})
	}

	orphanSeverity := SeverityWarning
	if opts.RequireCompleteSidebar {
		orphanSeverity = SeverityError
	}
	for _, d := range corpus.Docs() {
		if d.Draft || refs[d.ID] > 0 {
			continue
		}
		problems = append(problems, Problem{
			Rule:     RuleOrphanDoc,
			Severity: orphanSeverity,
			DocID:    d.ID,
			Message:  fmt.Sprintf("document %q (%s) is not in any sidebar", d.ID, d.Source),
		})
	}
	return problems
}

// checkSiblings reports labels shared by nodes of the same list.
func checkSiblings(sidebar, at string, items []*Node, corpus *content.Corpus) []Problem {
	var problems []Problem
	seen := map[string]bool{}
	for _, n := range items {
		label := effectiveLabel(n, corpus)
		if label == "" {
			continue
		}
		if seen[label] {
			problems = append(problems, Problem{
				Rule:     RuleDuplicateLabel,
				Severity: SeverityError,
				Sidebar:  sidebar,
				Path:     at,
				Line:     n.Line,
				Message:  fmt.Sprintf("label %q is used by more than one sibling", label),
			})
			continue
		}
		seen[label] = true
	}
	return problems
}

// effectiveLabel is the label a node renders with.
func effectiveLabel(n *Node, corpus *content.Corpus) string {
	if n.Label != "" {
		return n.Label
	}
	if n.Type == KindDoc {
		if d, ok := corpus.Get(n.ID); ok {
			return d.Label()
		}
		return n.ID
	}
	return ""
}

func labelPath(parents []*Node) string {
	labels := make([]string, len(parents))
	for i, p := range parents {
		labels[i] = p.Label
	}
	return strings.Join(labels, " > ")
}

// HasErrors reports whether any problem has error severity.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of errors and warnings.
func Count(problems []Problem) (errs, warnings int) {
	for _, p := range problems {
		if p.Severity == SeverityError {
			errs++
		} else {
			warnings++
		}
	}
	return errs, warnings
}
