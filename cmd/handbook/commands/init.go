package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/handbook/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`

	out io.Writer
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	w := i.out
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, "Initialized handbook; run 'handbook serve' to preview it")
	return nil
}
