package lint

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// FilenameRule checks that document and image names make clean URLs.
// Document file names become the last route segment, so anything that
// would need escaping in a URL is reported.
type FilenameRule struct{}

// Name returns the rule identifier.
func (r *FilenameRule) Name() string {
	return "filename-conventions"
}

// AppliesTo returns true for all documentation and asset files, and for
// backup copies of them.
func (r *FilenameRule) AppliesTo(filePath string) bool {
	return IsDocFile(filePath) || IsAssetFile(filePath) || hasBackupExtension(filepath.Base(filePath))
}

// Check validates filename conventions.
func (r *FilenameRule) Check(filePath string) ([]Issue, error) {
	filename := filepath.Base(filePath)
	if isIgnoredFile(filename) || strings.HasPrefix(filename, "_") {
		return nil, nil
	}

	if hasBackupExtension(filename) {
		return []Issue{{
			FilePath: filePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "Backup file in docs directory",
			Explanation: `The build ignores this file, so it is never published. Backup and
temporary copies usually end up here by accident.`,
			Fix: "Delete the file or add it to .gitignore",
		}}, nil
	}

	var issues []Issue
	suggested := suggestFilename(filename)

	if hasUppercase(filename) {
		issues = append(issues, Issue{
			FilePath: filePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "Filename contains uppercase letters",
			Explanation: `The file name becomes part of the page URL. Mixed case URLs are easy to
mistype and behave differently on case-insensitive file systems.

Current:   ` + filename + `
Suggested: ` + suggested,
			Fix: "Rename to lowercase: " + suggested,
		})
	}

	if strings.Contains(filename, " ") {
		issues = append(issues, Issue{
			FilePath: filePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "Filename contains spaces",
			Explanation: `Spaces become %20 in page URLs and break links written by hand.

Current:   ` + filename + `
Suggested: ` + suggested,
			Fix: "Rename using hyphens: " + suggested,
		})
	}

	if chars := findSpecialChars(filename); len(chars) > 0 {
		issues = append(issues, Issue{
			FilePath: filePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "Filename contains special characters: " + strings.Join(chars, ", "),
			Explanation: `Allowed characters: [a-zA-Z0-9-_.]

Current:   ` + filename + `
Suggested: ` + suggested,
			Fix: "Rename to remove special characters: " + suggested,
		})
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if strings.HasSuffix(stem, "-") || strings.HasSuffix(stem, "_") || strings.HasPrefix(stem, "-") {
		issues = append(issues, Issue{
			FilePath: filePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "Filename has leading or trailing separators",
			Explanation: `Leading or trailing hyphens and underscores produce routes such as
/docs/-intro/ or /docs/intro_/.`,
			Fix: "Rename to remove leading/trailing separators: " + suggested,
		})
	}

	return issues, nil
}

var backupExtensions = []string{".bak", ".backup", ".old", ".orig", ".tmp", ".swp"}

// hasBackupExtension reports names such as "intro.md.bak" or "intro.md~".
func hasBackupExtension(filename string) bool {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, "~") {
		return true
	}
	ext := filepath.Ext(lower)
	for _, b := range backupExtensions {
		if ext == b {
			return true
		}
	}
	return false
}

func hasUppercase(filename string) bool {
	for _, r := range filename {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// findSpecialChars returns the characters outside [a-zA-Z0-9-_.] and space,
// in order of appearance.
func findSpecialChars(filename string) []string {
	seen := make(map[rune]bool)
	var chars []string
	for _, r := range filename {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		if r == '-' || r == '_' || r == '.' || r == ' ' {
			continue
		}
		if !seen[r] {
			chars = append(chars, string(r))
			seen[r] = true
		}
	}
	return chars
}

var (
	invalidNameChars = regexp.MustCompile(`[^a-z0-9\-_.]`)
	multiHyphen      = regexp.MustCompile(`-+`)
)

// suggestFilename returns a lowercase, hyphen separated variant of filename.
func suggestFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := strings.ToLower(strings.TrimSuffix(filename, filepath.Ext(filename)))
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidNameChars.ReplaceAllString(name, "")
	name = multiHyphen.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_")
	return name + ext
}

// isIgnoredFile returns true for repository files that don't follow
// documentation naming conventions. README.md also serves as a directory
// index.
func isIgnoredFile(filename string) bool {
	switch strings.ToUpper(filename) {
	case "README.MD", "CONTRIBUTING.MD", "CHANGELOG.MD", "LICENSE.MD", "CODE_OF_CONDUCT.MD", "SECURITY.MD":
		return true
	}
	return false
}
