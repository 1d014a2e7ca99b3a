package config

import "strings"

const (
	defaultLocale       = "en"
	defaultDocsPath     = "docs"
	defaultRouteBase    = "docs"
	defaultSidebarPath  = "sidebars.yaml"
	defaultStaticDir    = "static"
	defaultOutputDir    = "build"
	defaultHistoryPath  = ".handbook/history.db"
	defaultLinkSubject  = "handbook.links.broken"
	defaultPrimaryColor = "#2e8555"
)

// applyDefaults fills unset options. It never overrides explicit values.
func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "/"
	}
	if cfg.OnBrokenLinks == "" {
		cfg.OnBrokenLinks = PolicyThrow
	}
	if cfg.OnBrokenMarkdownLinks == "" {
		cfg.OnBrokenMarkdownLinks = PolicyWarn
	}

	if cfg.I18n.DefaultLocale == "" {
		cfg.I18n.DefaultLocale = defaultLocale
	}
	if len(cfg.I18n.Locales) == 0 {
		cfg.I18n.Locales = []string{cfg.I18n.DefaultLocale}
	}

	if cfg.Docs.Path == "" {
		cfg.Docs.Path = defaultDocsPath
	}
	if cfg.Docs.RouteBasePath == "" {
		cfg.Docs.RouteBasePath = defaultRouteBase
	}
	// "/" means documents live at the site root.
	cfg.Docs.RouteBasePath = strings.Trim(cfg.Docs.RouteBasePath, "/")
	if cfg.Docs.SidebarPath == "" {
		cfg.Docs.SidebarPath = defaultSidebarPath
	}
	if cfg.Docs.EditURL != "" && !strings.HasSuffix(cfg.Docs.EditURL, "/") {
		cfg.Docs.EditURL += "/"
	}

	if cfg.StaticDir == "" {
		cfg.StaticDir = defaultStaticDir
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}

	theme := &cfg.Theme
	if theme.ColorMode.DefaultMode == "" {
		theme.ColorMode.DefaultMode = "light"
	}
	if theme.Colors.Primary == "" {
		theme.Colors.Primary = defaultPrimaryColor
	}
	if theme.Navbar.Title == "" {
		theme.Navbar.Title = cfg.Title
	}
	for i := range theme.Navbar.Items {
		item := &theme.Navbar.Items[i]
		if item.Type == "" {
			item.Type = NavItemHref
		}
		if item.Position == "" {
			item.Position = "left"
		}
	}
	if theme.Footer.Style == "" {
		theme.Footer.Style = "dark"
	}

	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath
	}
	if cfg.LinkEvents.Subject == "" {
		cfg.LinkEvents.Subject = defaultLinkSubject
	}
}
