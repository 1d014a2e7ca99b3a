package site

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/handbook/internal/content"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/gitinfo"
	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/nav"
	"git.home.luguber.info/inful/handbook/internal/theme"
)

type staticFile struct {
	// rel is the slash separated path below the static directory.
	rel string
	abs string
}

func (b *Builder) stageLoad(ctx context.Context, bs *buildState) error {
	cfg := bs.cfg

	th, err := theme.New(cfg)
	if err != nil {
		return err
	}
	bs.theme = th

	sidebars, err := nav.Load(cfg.SidebarFile())
	if err != nil {
		return err
	}

	for _, locale := range buildLocales(cfg.I18n.DefaultLocale, cfg.I18n.Locales) {
		if err := ctx.Err(); err != nil {
			return err
		}
		isDefault := locale == cfg.I18n.DefaultLocale
		ls := newLocaleSite(locale, isDefault, cfg.BaseURL, cfg.Docs.RouteBasePath)
		opts := content.Options{RouteBase: ls.docsRoute, IncludeDrafts: cfg.Docs.IncludeDrafts}

		if isDefault {
			ls.corpus, err = content.LoadCorpus(cfg.DocsDir(), opts)
		} else {
			dir := cfg.LocaleDocsDir(locale)
			if st, statErr := os.Stat(dir); statErr != nil || !st.IsDir() {
				bs.logger.Debug("No translated docs for locale; skipping", logfields.Locale(locale), logfields.Path(dir))
				continue
			}
			ls.corpus, err = content.LoadLocalized(cfg.DocsDir(), dir, opts)
		}
		if err != nil {
			return err
		}

		ls.sidebars, err = nav.Expand(sidebars, ls.corpus, cfg.DocsDir())
		if err != nil {
			return err
		}
		bs.locales = append(bs.locales, ls)
		bs.report.Locales = append(bs.report.Locales, locale)
		bs.logger.Info("Loaded documents", logfields.Locale(locale), logfields.Count(ls.corpus.Len()))
	}

	if cfg.Docs.ShowLastUpdateTime || cfg.Docs.ShowLastUpdateAuthor {
		repo, err := gitinfo.Open(cfg.DocsDir())
		switch {
		case err != nil:
			bs.report.Warnings++
			bs.logger.Warn("Git metadata unavailable", logfields.Error(err))
		case repo == nil:
			bs.logger.Debug("Docs directory is not in a git repository; last update metadata disabled")
		default:
			bs.git = repo
		}
	}

	static, err := collectStatic(cfg.Resolve(cfg.StaticDir))
	if err != nil {
		return err
	}
	bs.static = static
	return nil
}

// buildLocales lists the default locale first, then the others in
// configuration order.
func buildLocales(def string, locales []string) []string {
	out := []string{def}
	seen := map[string]bool{def: true}
	for _, l := range locales {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// collectStatic lists the files of the static directory in lexical order.
// A missing directory yields nothing.
func collectStatic(dir string) ([]staticFile, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	var files []staticFile
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, staticFile{rel: filepath.ToSlash(rel), abs: p})
		return nil
	})
	if err != nil {
		return nil, herrors.FileSystemError("read static directory", err).WithContext("path", dir)
	}
	return files, nil
}

func (b *Builder) stageValidate(ctx context.Context, bs *buildState) error {
	cfg := bs.cfg
	for _, ls := range bs.locales {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ls.isDefault {
			if err := validateNavigation(bs, ls); err != nil {
				return err
			}
		}
		ls.resolve()

		navbar, err := bs.theme.Navbar(ls, ls.prefix)
		if err != nil {
			return herrors.Wrap(err, herrors.CategoryConfig, herrors.SeverityFatal, "invalid navbar").
				WithContext("locale", ls.locale)
		}
		ls.navbar = navbar
	}
	if len(bs.locales) > 0 && len(bs.locales[0].trees) == 0 {
		bs.logger.Warn("Sidebar file declares no sidebars", logfields.Path(cfg.SidebarFile()))
		bs.report.Warnings++
	}
	return nil
}

// validateNavigation logs every problem; errors fail the build.
func validateNavigation(bs *buildState, ls *localeSite) error {
	problems := nav.Validate(ls.sidebars, ls.corpus, nav.ValidateOptions{
		RequireCompleteSidebar: bs.cfg.Docs.RequireCompleteSidebar,
	})
	var first string
	for _, p := range problems {
		if p.Severity == nav.SeverityError {
			if first == "" {
				first = p.String()
			}
			bs.logger.Error("Navigation problem", "rule", p.Rule, logfields.Sidebar(p.Sidebar), "problem", p.String())
			continue
		}
		bs.logger.Warn("Navigation problem", "rule", p.Rule, logfields.Sidebar(p.Sidebar), "problem", p.String())
	}
	errs, warnings := nav.Count(problems)
	bs.report.Warnings += warnings
	if errs > 0 {
		return herrors.NavigationInvalid(errs).WithContext("first", first)
	}
	return nil
}
