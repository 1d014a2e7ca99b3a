package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyDocID      = "doc_id"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeySidebar    = "sidebar"
	KeyLocale     = "locale"
	KeyLink       = "link"
	KeyPolicy     = "policy"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func DocID(id string) slog.Attr       { return slog.String(KeyDocID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Sidebar(name string) slog.Attr   { return slog.String(KeySidebar, name) }
func Locale(l string) slog.Attr       { return slog.String(KeyLocale, l) }
func Link(target string) slog.Attr    { return slog.String(KeyLink, target) }
func Policy(p string) slog.Attr       { return slog.String(KeyPolicy, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
