package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/handbook/internal/lint"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Quiet  bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`

	out io.Writer
}

// Run checks the site and exits 2 on errors, 1 on warnings unless quiet.
func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	linter := lint.NewLinter(&lint.Config{Quiet: c.Quiet, Format: c.Format})
	result, err := linter.Lint(cfg)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	w := c.out
	if w == nil {
		w = os.Stdout
	}
	if err := lint.NewFormatter(c.Format).Format(w, result, cfg.Docs.Path); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if code := result.ExitCode(c.Quiet); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
