package config

// Config is the site configuration record: every build-time option the
// generator reads. It is loaded once per build and never mutated afterwards.
type Config struct {
	Title            string `yaml:"title"`
	Tagline          string `yaml:"tagline,omitempty"`
	URL              string `yaml:"url"`
	BaseURL          string `yaml:"base_url,omitempty"`
	OrganizationName string `yaml:"organization_name,omitempty"`
	ProjectName      string `yaml:"project_name,omitempty"`
	Favicon          string `yaml:"favicon,omitempty"`

	OnBrokenLinks         LinkPolicy `yaml:"on_broken_links,omitempty"`
	OnBrokenMarkdownLinks LinkPolicy `yaml:"on_broken_markdown_links,omitempty"`

	I18n       I18nConfig       `yaml:"i18n,omitempty"`
	Docs       DocsConfig       `yaml:"docs,omitempty"`
	StaticDir  string           `yaml:"static_dir,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	Theme      ThemeConfig      `yaml:"theme,omitempty"`
	History    HistoryConfig    `yaml:"history,omitempty"`
	LinkEvents LinkEventsConfig `yaml:"link_events,omitempty"`

	// Root is the directory of the loaded configuration file. Relative paths
	// in the record resolve against it.
	Root string `yaml:"-"`
}

// LinkPolicy decides what happens when a link target cannot be resolved.
type LinkPolicy string

const (
	PolicyThrow  LinkPolicy = "throw"
	PolicyWarn   LinkPolicy = "warn"
	PolicyLog    LinkPolicy = "log"
	PolicyIgnore LinkPolicy = "ignore"
)

// Valid reports whether p is a known policy.
func (p LinkPolicy) Valid() bool {
	switch p {
	case PolicyThrow, PolicyWarn, PolicyLog, PolicyIgnore:
		return true
	}
	return false
}

// I18nConfig lists the locales the site is built for.
type I18nConfig struct {
	DefaultLocale string   `yaml:"default_locale,omitempty"`
	Locales       []string `yaml:"locales,omitempty"`
}

// DocsConfig configures the documentation content plugin.
type DocsConfig struct {
	Path                   string `yaml:"path,omitempty"`
	RouteBasePath          string `yaml:"route_base_path,omitempty"`
	SidebarPath            string `yaml:"sidebar_path,omitempty"`
	EditURL                string `yaml:"edit_url,omitempty"`
	ShowLastUpdateTime     bool   `yaml:"show_last_update_time,omitempty"`
	ShowLastUpdateAuthor   bool   `yaml:"show_last_update_author,omitempty"`
	RequireCompleteSidebar bool   `yaml:"require_complete_sidebar,omitempty"`
	IncludeDrafts          bool   `yaml:"include_drafts,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory,omitempty"`
}

// ThemeConfig holds everything the layout templates read.
type ThemeConfig struct {
	CustomCSS []string        `yaml:"custom_css,omitempty"`
	ColorMode ColorModeConfig `yaml:"color_mode,omitempty"`
	Colors    ColorsConfig    `yaml:"colors,omitempty"`
	Navbar    NavbarConfig    `yaml:"navbar,omitempty"`
	Footer    FooterConfig    `yaml:"footer,omitempty"`
	Prism     PrismConfig     `yaml:"prism,omitempty"`
}

type ColorModeConfig struct {
	DefaultMode               string `yaml:"default_mode,omitempty"`
	DisableSwitch             bool   `yaml:"disable_switch,omitempty"`
	RespectPrefersColorScheme bool   `yaml:"respect_prefers_color_scheme,omitempty"`
}

type ColorsConfig struct {
	Primary        string `yaml:"primary,omitempty"`
	PrimaryDark    string `yaml:"primary_dark,omitempty"`
	Background     string `yaml:"background,omitempty"`
	Text           string `yaml:"text,omitempty"`
	CodeBackground string `yaml:"code_background,omitempty"`
}

type NavbarConfig struct {
	Title string       `yaml:"title,omitempty"`
	Logo  *LogoConfig  `yaml:"logo,omitempty"`
	Items []NavbarItem `yaml:"items,omitempty"`
}

type LogoConfig struct {
	Alt string `yaml:"alt,omitempty"`
	Src string `yaml:"src"`
}

// Navbar item types.
const (
	NavItemDocSidebar = "doc_sidebar"
	NavItemDoc        = "doc"
	NavItemHref       = "href"
)

// NavbarItem is one entry of the top navigation bar.
type NavbarItem struct {
	Type      string `yaml:"type,omitempty"`
	SidebarID string `yaml:"sidebar_id,omitempty"`
	DocID     string `yaml:"doc_id,omitempty"`
	Href      string `yaml:"href,omitempty"`
	Label     string `yaml:"label"`
	Position  string `yaml:"position,omitempty"`
}

// FooterConfig describes the page footer. Copyright is trusted markup and
// may carry inline CSS.
type FooterConfig struct {
	Style     string         `yaml:"style,omitempty"`
	Links     []FooterColumn `yaml:"links,omitempty"`
	Copyright string         `yaml:"copyright,omitempty"`
}

type FooterColumn struct {
	Title string       `yaml:"title"`
	Items []FooterLink `yaml:"items"`
}

// FooterLink points either to an internal path (To) or an external URL (Href).
// HTML replaces both with raw markup.
type FooterLink struct {
	Label string `yaml:"label,omitempty"`
	To    string `yaml:"to,omitempty"`
	Href  string `yaml:"href,omitempty"`
	HTML  string `yaml:"html,omitempty"`
}

// PrismConfig lists the syntax-highlighting languages beyond the default set.
type PrismConfig struct {
	Theme               string   `yaml:"theme,omitempty"`
	DarkTheme           string   `yaml:"dark_theme,omitempty"`
	AdditionalLanguages []string `yaml:"additional_languages,omitempty"`
}

// HistoryConfig enables the build history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// LinkEventsConfig enables publishing broken links to NATS.
type LinkEventsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}
