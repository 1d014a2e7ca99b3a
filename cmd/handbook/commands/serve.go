package commands

import (
	"net"
	"strconv"
	"time"

	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host          string        `default:"localhost" help:"Interface to listen on"`
	Port          int           `short:"p" default:"3000" help:"Port to listen on"`
	PollInterval  time.Duration `name:"poll-interval" help:"Also rebuild on this interval (e.g. 1m); 0 disables"`
	IncludeDrafts bool          `name:"include-drafts" default:"true" negatable:"" help:"Publish documents marked as drafts"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	cfg.Docs.IncludeDrafts = s.IncludeDrafts

	store, err := openHistory(cfg)
	if err != nil {
		g.Logger.Warn("Build history unavailable", logfields.Error(err))
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := preview.New(cfg, preview.Options{
		Addr:         net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		ConfigPath:   root.Config,
		PollInterval: s.PollInterval,
		History:      store,
		Logger:       g.Logger,
	})
	return srv.Run(ctx)
}
