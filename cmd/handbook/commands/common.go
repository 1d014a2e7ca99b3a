package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/handbook/internal/config"
	"git.home.luguber.info/inful/handbook/internal/history"
)

// Global is shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"handbook.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the static site into the output directory"`
	Check   CheckCmd   `cmd:"" help:"Check documents, sidebars and links without writing output"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site locally and rebuild on change"`
	Init    InitCmd    `cmd:"" help:"Create an example configuration, sidebar and first document"`
	History HistoryCmd `cmd:"" help:"List recorded builds"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// ExitError ends the process with Code without further error output. The
// check command uses it to report findings.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// loadConfig reads the configuration named by the global flag.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}

// openHistory opens the build history store of cfg, or returns nil when
// history is disabled.
func openHistory(cfg *config.Config) (history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.NewSQLiteStore(cfg.Resolve(cfg.History.Path))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
