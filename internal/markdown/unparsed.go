package markdown

import "strings"

// UnparsedLinks finds link and image syntax whose destination contains
// whitespace. CommonMark does not treat these as links, so they render as
// literal text; authors almost always meant a link. Fenced and indented
// code and inline code spans are skipped.
func UnparsedLinks(body []byte) []Link {
	var out []Link
	fence := ""
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if f := fenceOf(trimmed); f != "" {
			switch fence {
			case "":
				fence = f
			case f:
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		line = stripCodeSpans(line)
		out = append(out, inlineWithSpaces(line)...)
		if dest, ok := referenceWithSpaces(line); ok {
			out = append(out, Link{Kind: LinkKindReferenceDefinition, Destination: dest})
		}
	}
	return out
}

func fenceOf(trimmed string) string {
	for _, f := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, f) {
			return f
		}
	}
	return ""
}

// stripCodeSpans blanks out `code` spans so their content is not scanned.
func stripCodeSpans(line string) string {
	var b strings.Builder
	inCode := false
	for _, r := range line {
		if r == '`' {
			inCode = !inCode
			b.WriteRune(' ')
			continue
		}
		if inCode {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inlineWithSpaces scans "[text](dest)" and "![alt](dest)" forms.
func inlineWithSpaces(line string) []Link {
	var out []Link
	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' {
			continue
		}
		open := strings.LastIndexByte(line[:i], '[')
		if open == -1 {
			continue
		}
		end := strings.IndexByte(line[i+2:], ')')
		if end == -1 {
			continue
		}
		dest := strings.TrimSpace(line[i+2 : i+2+end])
		if dest == "" || !strings.ContainsAny(dest, " \t") || isTitled(dest) || strings.HasPrefix(dest, "<") {
			continue
		}
		kind := LinkKindInline
		if open > 0 && line[open-1] == '!' {
			kind = LinkKindImage
		}
		out = append(out, Link{Kind: kind, Destination: dest})
		i += 2 + end
	}
	return out
}

// isTitled reports destinations of the form `dest "title"`, which are
// valid links.
func isTitled(dest string) bool {
	i := strings.IndexAny(dest, " \t")
	rest := strings.TrimSpace(dest[i:])
	return !strings.ContainsAny(dest[:i], " \t") && len(rest) >= 2 &&
		(rest[0] == '"' && rest[len(rest)-1] == '"' || rest[0] == '\'' && rest[len(rest)-1] == '\'')
}

// referenceWithSpaces handles "[label]: dest with spaces". Footnote
// definitions ("[^1]: text") are not links.
func referenceWithSpaces(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "[^") {
		return "", false
	}
	_, rest, ok := strings.Cut(trimmed, "]:")
	if !ok {
		return "", false
	}
	dest := strings.TrimSpace(rest)
	if before, _, ok := strings.Cut(dest, " \""); ok {
		dest = before
	} else if before, _, ok := strings.Cut(dest, " '"); ok {
		dest = before
	}
	dest = strings.TrimSpace(dest)
	if dest == "" || !strings.ContainsAny(dest, " \t") || strings.HasPrefix(dest, "<") {
		return "", false
	}
	return dest, true
}
