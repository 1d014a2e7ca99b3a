package site

import (
	"context"

	"git.home.luguber.info/inful/handbook/internal/config"
	"git.home.luguber.info/inful/handbook/internal/linkcheck"
	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/theme"
)

// Files written next to the pages. Links to them are valid.
const (
	sitemapFile  = "sitemap.xml"
	manifestFile = "manifest.json"
)

func (b *Builder) stageLinks(ctx context.Context, bs *buildState) error {
	cfg := bs.cfg
	checker := linkcheck.NewChecker()
	for _, p := range bs.pages {
		checker.AddRoute(p.Route)
	}
	checker.AddAsset(cfg.BaseURL + theme.StylesheetPath)
	checker.AddAsset(cfg.BaseURL + sitemapFile)
	checker.AddAsset(cfg.BaseURL + manifestFile)
	for _, f := range bs.static {
		checker.AddAsset(cfg.BaseURL + f.rel)
	}

	var broken []linkcheck.Broken
	for _, p := range bs.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		found, err := checker.CheckPage(p.Route, p.Source, p.HTML)
		if err != nil {
			return err
		}
		broken = append(broken, found...)
	}
	linkcheck.Sort(broken)

	bs.report.BrokenLinks = len(broken)
	b.recorder.AddBrokenLinks("html", len(broken))
	if cfg.OnBrokenLinks == config.PolicyWarn {
		bs.report.Warnings += len(broken)
	}
	b.publishBroken(ctx, bs, broken)
	return linkcheck.Apply(cfg.OnBrokenLinks, broken, bs.logger.With("kind", "html"))
}

// publishBroken sends every broken link as an event when publishing is
// configured. Delivery failures are warnings.
func (b *Builder) publishBroken(ctx context.Context, bs *buildState, broken []linkcheck.Broken) {
	cfg := bs.cfg
	if len(broken) == 0 || (b.publisher == nil && !cfg.LinkEvents.Enabled) {
		return
	}
	pub := b.publisher
	if pub == nil {
		np, err := linkcheck.NewNATSPublisher(cfg.LinkEvents.NATSURL, cfg.LinkEvents.Subject)
		if err != nil {
			bs.report.Warnings++
			bs.logger.Warn("Broken link events not published", logfields.Error(err))
			return
		}
		defer func() {
			if err := np.Close(); err != nil {
				bs.logger.Debug("Closing NATS publisher", logfields.Error(err))
			}
		}()
		pub = np
	}

	for _, br := range broken {
		locale := ""
		if p, ok := bs.routes[br.Page]; ok {
			locale = p.Locale
		}
		ev := linkcheck.NewEvent(br, cfg.URL, locale, string(cfg.OnBrokenLinks), bs.report.BuildID)
		if err := pub.PublishBrokenLink(ctx, ev); err != nil {
			bs.report.Warnings++
			bs.logger.Warn("Broken link events not published", logfields.Error(err))
			return
		}
	}
	bs.logger.Info("Published broken link events", logfields.Count(len(broken)))
}
