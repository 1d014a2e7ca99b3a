package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	herrors "git.home.luguber.info/inful/handbook/internal/errors"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "handbook.yaml"

// Load loads, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, herrors.ConfigNotFound(configPath)
	}

	root, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, herrors.Wrap(err, herrors.CategoryConfig, herrors.SeverityFatal, "resolve config directory")
	}

	if loaded := loadEnvFiles(root); len(loaded) > 0 {
		slog.Debug("Loaded environment files", "files", loaded)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, herrors.Wrap(err, herrors.CategoryConfig, herrors.SeverityFatal, "failed to read config file").
			WithContext("path", configPath)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	return cfg, nil
}

// Parse decodes, defaults and validates configuration bytes. Environment
// variable references (${VAR}) are expanded before decoding.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, herrors.Wrap(err, herrors.CategoryConfig, herrors.SeverityFatal, "failed to decode config")
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve returns p resolved against the configuration directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// DocsDir is the absolute docs directory.
func (c *Config) DocsDir() string { return c.Resolve(c.Docs.Path) }

// SidebarFile is the absolute navigation descriptor path.
func (c *Config) SidebarFile() string { return c.Resolve(c.Docs.SidebarPath) }

// OutputDir is the absolute output directory.
func (c *Config) OutputDir() string { return c.Resolve(c.Output.Directory) }

// LocaleDocsDir is the translated docs directory for a non-default locale.
func (c *Config) LocaleDocsDir(locale string) string {
	return c.Resolve(filepath.Join("i18n", locale, "docs"))
}

// DocsRoute returns the URL path prefix of all documents, always ending in "/".
func (c *Config) DocsRoute() string {
	if c.Docs.RouteBasePath == "" {
		return c.BaseURL
	}
	return c.BaseURL + c.Docs.RouteBasePath + "/"
}

// Init writes an example configuration, sidebar and first document into dir.
// Existing files are kept unless force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(exampleConfig()); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	dir := filepath.Dir(configPath)
	scaffold := map[string]string{
		filepath.Join(dir, "sidebars.yaml"):            exampleSidebars,
		filepath.Join(dir, "docs", "intro.md"):         exampleIntro,
		filepath.Join(dir, "static", ".gitkeep"):       "",
		filepath.Join(dir, "src", "css", "custom.css"): exampleCSS,
	}
	for path, content := range scaffold {
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func exampleConfig() *Config {
	return &Config{
		Title:                 "Training Handbook",
		Tagline:               "cURL, Postman, Git and SQL from the ground up",
		URL:                   "https://example.github.io",
		BaseURL:               "/handbook/",
		OrganizationName:      "example",
		ProjectName:           "handbook",
		OnBrokenLinks:         PolicyThrow,
		OnBrokenMarkdownLinks: PolicyWarn,
		I18n:                  I18nConfig{DefaultLocale: "en", Locales: []string{"en"}},
		Docs: DocsConfig{
			Path:               "docs",
			RouteBasePath:      "docs",
			SidebarPath:        "sidebars.yaml",
			EditURL:            "https://github.com/example/handbook/tree/main/",
			ShowLastUpdateTime: true,
		},
		Theme: ThemeConfig{
			CustomCSS: []string{"src/css/custom.css"},
			Navbar: NavbarConfig{
				Title: "Training Handbook",
				Items: []NavbarItem{
					{Type: NavItemDocSidebar, SidebarID: "handbook", Label: "Guides", Position: "left"},
					{Type: NavItemHref, Href: "https://github.com/example/handbook", Label: "GitHub", Position: "right"},
				},
			},
			Footer: FooterConfig{
				Style: "dark",
				Links: []FooterColumn{{
					Title: "Guides",
					Items: []FooterLink{{Label: "Introduction", To: "/docs/intro/"}},
				}},
				Copyright: `<span style="opacity:.8">Copyright © Example. Built with handbook.</span>`,
			},
			Prism: PrismConfig{AdditionalLanguages: []string{"bash", "sql", "json", "http"}},
		},
	}
}

const exampleSidebars = `handbook:
  - intro
`

const exampleIntro = `---
title: Introduction
sidebar_position: 1
---

Welcome to the handbook.
`

const exampleCSS = `:root {
  --hb-color-primary: #2e8555;
}
`
