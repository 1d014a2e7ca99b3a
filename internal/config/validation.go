package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	herrors "git.home.luguber.info/inful/handbook/internal/errors"
)

// Validate checks a defaulted configuration and returns the first problem
// as a config error.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Title) == "" {
		return herrors.ConfigInvalid("title", "title is required")
	}
	if err := validateSiteURL(cfg.URL); err != nil {
		return err
	}
	if !strings.HasPrefix(cfg.BaseURL, "/") || !strings.HasSuffix(cfg.BaseURL, "/") {
		return herrors.ConfigInvalid("base_url", fmt.Sprintf("base_url must start and end with '/', got %q", cfg.BaseURL))
	}
	if !cfg.OnBrokenLinks.Valid() {
		return herrors.ConfigInvalid("on_broken_links", fmt.Sprintf("unknown policy %q (throw, warn, log, ignore)", cfg.OnBrokenLinks))
	}
	if !cfg.OnBrokenMarkdownLinks.Valid() {
		return herrors.ConfigInvalid("on_broken_markdown_links", fmt.Sprintf("unknown policy %q (throw, warn, log, ignore)", cfg.OnBrokenMarkdownLinks))
	}
	if err := validateI18n(cfg.I18n); err != nil {
		return err
	}
	if err := validateTheme(&cfg.Theme); err != nil {
		return err
	}
	if cfg.LinkEvents.Enabled && cfg.LinkEvents.NATSURL == "" {
		return herrors.ConfigInvalid("link_events.nats_url", "nats_url is required when link_events is enabled")
	}
	return nil
}

func validateSiteURL(raw string) error {
	if raw == "" {
		return herrors.ConfigInvalid("url", "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return herrors.ConfigInvalid("url", fmt.Sprintf("url must be an absolute http(s) URL, got %q", raw))
	}
	if u.Path != "" && u.Path != "/" {
		return herrors.ConfigInvalid("url", "url must not contain a path; put it in base_url")
	}
	return nil
}

func validateI18n(i I18nConfig) error {
	seen := make(map[string]struct{}, len(i.Locales))
	for _, l := range i.Locales {
		if strings.TrimSpace(l) == "" {
			return herrors.ConfigInvalid("i18n.locales", "empty locale")
		}
		if _, dup := seen[l]; dup {
			return herrors.ConfigInvalid("i18n.locales", fmt.Sprintf("duplicate locale %q", l))
		}
		seen[l] = struct{}{}
	}
	if !slices.Contains(i.Locales, i.DefaultLocale) {
		return herrors.ConfigInvalid("i18n.locales", fmt.Sprintf("locales must include default locale %q", i.DefaultLocale))
	}
	return nil
}

func validateTheme(t *ThemeConfig) error {
	switch t.ColorMode.DefaultMode {
	case "light", "dark":
	default:
		return herrors.ConfigInvalid("theme.color_mode.default_mode", fmt.Sprintf("must be light or dark, got %q", t.ColorMode.DefaultMode))
	}
	switch t.Footer.Style {
	case "light", "dark":
	default:
		return herrors.ConfigInvalid("theme.footer.style", fmt.Sprintf("must be light or dark, got %q", t.Footer.Style))
	}
	for i, item := range t.Navbar.Items {
		field := fmt.Sprintf("theme.navbar.items[%d]", i)
		if item.Label == "" {
			return herrors.ConfigInvalid(field, "label is required")
		}
		if item.Position != "left" && item.Position != "right" {
			return herrors.ConfigInvalid(field, fmt.Sprintf("position must be left or right, got %q", item.Position))
		}
		switch item.Type {
		case NavItemDocSidebar:
			if item.SidebarID == "" {
				return herrors.ConfigInvalid(field, "doc_sidebar items need sidebar_id")
			}
		case NavItemDoc:
			if item.DocID == "" {
				return herrors.ConfigInvalid(field, "doc items need doc_id")
			}
		case NavItemHref:
			if item.Href == "" {
				return herrors.ConfigInvalid(field, "href items need href")
			}
		default:
			return herrors.ConfigInvalid(field, fmt.Sprintf("unknown navbar item type %q", item.Type))
		}
	}
	for i, col := range t.Footer.Links {
		for j, link := range col.Items {
			if link.To == "" && link.Href == "" && link.HTML == "" {
				return herrors.ConfigInvalid(fmt.Sprintf("theme.footer.links[%d].items[%d]", i, j), "one of to, href or html is required")
			}
		}
	}
	return nil
}
