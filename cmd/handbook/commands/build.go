package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Output directory (overrides output.directory)" type:"path"`
	IncludeDrafts bool   `name:"include-drafts" help:"Publish documents marked as drafts"`

	out io.Writer
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.IncludeDrafts {
		cfg.Docs.IncludeDrafts = true
	}

	store, err := openHistory(cfg)
	if err != nil {
		g.Logger.Warn("Build history unavailable", logfields.Error(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	builder := site.NewBuilder(cfg).WithLogger(g.Logger)
	if store != nil {
		defer func() { _ = store.Close() }()
		builder = builder.WithHistory(store)
	}
	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	w := b.out
	if w == nil {
		w = os.Stdout
	}
	_, err = fmt.Fprintf(w, "Built %d pages into %s in %s (%s, %d warnings)\n",
		report.Pages, report.OutputDir, report.Duration().Round(time.Millisecond), report.Outcome, report.Warnings)
	return err
}
