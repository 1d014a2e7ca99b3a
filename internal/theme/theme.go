// Package theme renders pages with the embedded layouts and builds the site
// stylesheet from the theme section of the configuration record.
package theme

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/handbook/internal/config"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/version"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/base.css
var baseCSS []byte

// StylesheetPath is where the generated stylesheet is written, relative to
// the output root.
const StylesheetPath = "assets/css/styles.css"

// Page layouts.
const (
	layoutDoc      = "doc"
	layoutCategory = "category"
	layoutHome     = "home"
	layoutNotFound = "notfound"
)

// Theme holds the parsed layouts and the generated stylesheet.
type Theme struct {
	cfg     *config.Config
	layouts map[string]*template.Template
	css     []byte
	footer  Footer
	langs   map[string]bool
}

// New parses the layouts and builds the stylesheet. Custom CSS files are
// read relative to the configuration root.
func New(cfg *config.Config) (*Theme, error) {
	base, err := template.New("base").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, herrors.Wrap(err, herrors.CategoryInternal, herrors.SeverityFatal, "parse base layout")
	}

	t := &Theme{cfg: cfg, layouts: map[string]*template.Template{}}
	for _, name := range []string{layoutDoc, layoutCategory, layoutHome, layoutNotFound} {
		clone, err := base.Clone()
		if err != nil {
			return nil, herrors.Wrap(err, herrors.CategoryInternal, herrors.SeverityFatal, "clone base layout")
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, herrors.Wrap(err, herrors.CategoryInternal, herrors.SeverityFatal, "parse layout").
				WithContext("layout", name)
		}
		t.layouts[name] = clone
	}

	css, err := buildCSS(cfg)
	if err != nil {
		return nil, err
	}
	t.css = css
	t.footer = t.buildFooter()
	t.langs = knownLanguages(cfg.Theme.Prism.AdditionalLanguages)
	return t, nil
}

// CSS returns the site stylesheet.
func (t *Theme) CSS() []byte { return t.css }

// Chrome builds the configuration derived part of a page.
func (t *Theme) Chrome(info PageInfo) Chrome {
	cfg := t.cfg
	c := Chrome{
		Lang:                      info.Lang,
		SiteTitle:                 cfg.Title,
		PageTitle:                 cfg.Title,
		Description:               info.Description,
		Keywords:                  info.Keywords,
		Favicon:                   t.sitePath(cfg.Favicon),
		Stylesheet:                cfg.BaseURL + StylesheetPath,
		NoIndex:                   info.NoIndex,
		ColorMode:                 cfg.Theme.ColorMode.DefaultMode,
		ColorSwitch:               !cfg.Theme.ColorMode.DisableSwitch,
		RespectPrefersColorScheme: cfg.Theme.ColorMode.RespectPrefersColorScheme,
		PrismTheme:                cfg.Theme.Prism.Theme,
		PrismDarkTheme:            cfg.Theme.Prism.DarkTheme,
		Version:                   version.Version,
		Footer:                    t.footer,
		Locales:                   info.Locales,
		LiveReload:                info.LiveReload,
	}
	if info.Title != "" {
		c.PageTitle = info.Title + " | " + cfg.Title
	} else if cfg.Tagline != "" {
		c.PageTitle = cfg.Title + " | " + cfg.Tagline
	}
	if info.Route != "" && !info.NoIndex {
		c.Canonical = strings.TrimRight(cfg.URL, "/") + info.Route
	}
	if info.Navbar != nil {
		c.Navbar = info.Navbar.View(info.Sidebar, info.Route)
	}
	return c
}

// RenderDoc writes a document page.
func (t *Theme) RenderDoc(w io.Writer, p *DocPage) error { return t.render(w, layoutDoc, p) }

// RenderCategory writes a generated category index page.
func (t *Theme) RenderCategory(w io.Writer, p *CategoryPage) error {
	return t.render(w, layoutCategory, p)
}

// RenderHome writes the generated landing page.
func (t *Theme) RenderHome(w io.Writer, p *HomePage) error { return t.render(w, layoutHome, p) }

// RenderNotFound writes the 404 page.
func (t *Theme) RenderNotFound(w io.Writer, p *NotFoundPage) error {
	return t.render(w, layoutNotFound, p)
}

func (t *Theme) render(w io.Writer, layout string, data any) error {
	var buf bytes.Buffer
	if err := t.layouts[layout].ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("execute %s layout: %w", layout, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// buildCSS renders the color variables, the embedded base stylesheet and
// then every custom CSS file in configuration order.
func buildCSS(cfg *config.Config) ([]byte, error) {
	colors := cfg.Theme.Colors
	primaryDark := colors.PrimaryDark
	if primaryDark == "" {
		primaryDark = colors.Primary
	}

	var buf bytes.Buffer
	buf.WriteString(":root {\n")
	writeVar(&buf, "primary", colors.Primary, "#2e8555")
	writeVar(&buf, "background", colors.Background, "#ffffff")
	writeVar(&buf, "text", colors.Text, "#1c1e21")
	writeVar(&buf, "code-background", colors.CodeBackground, "#f6f7f8")
	buf.WriteString("}\n\n[data-theme=\"dark\"] {\n")
	writeVar(&buf, "primary", primaryDark, "#25c2a0")
	writeVar(&buf, "background", "", "#1b1b1d")
	writeVar(&buf, "text", "", "#e3e3e3")
	writeVar(&buf, "code-background", "", "#2b2b2b")
	buf.WriteString("}\n\n")
	buf.Write(baseCSS)

	for _, p := range cfg.Theme.CustomCSS {
		data, err := os.ReadFile(cfg.Resolve(p))
		if err != nil {
			return nil, herrors.FileSystemError("read custom css", err).WithContext("path", p)
		}
		fmt.Fprintf(&buf, "\n/* %s */\n", p)
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

func writeVar(buf *bytes.Buffer, name, value, fallback string) {
	if value == "" {
		value = fallback
	}
	fmt.Fprintf(buf, "  --hb-color-%s: %s;\n", name, value)
}
