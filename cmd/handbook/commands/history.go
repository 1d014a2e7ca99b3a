package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit  int    `short:"n" default:"10" help:"Number of builds to show"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`

	out io.Writer
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	path := cfg.Resolve(cfg.History.Path)
	if !cfg.History.Enabled {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return herrors.ConfigInvalid("history.enabled", "build history is disabled; set history.enabled: true")
		}
	}

	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return herrors.Wrap(err, herrors.CategoryHistory, herrors.SeverityFatal, "open build history")
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return herrors.Wrap(err, herrors.CategoryHistory, herrors.SeverityFatal, "read build history")
	}

	w := h.out
	if w == nil {
		w = os.Stdout
	}
	if h.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return writeHistoryTable(w, records)
}

func writeHistoryTable(w io.Writer, records []history.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No builds recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tOUTCOME\tPAGES\tBROKEN\tWARNINGS\tDURATION\tHASH\tBUILD")
	for _, r := range records {
		hash := r.OutputHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		if hash == "" {
			hash = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Outcome, r.Pages, r.BrokenLinks, r.Warnings,
			r.Duration.Round(time.Millisecond), hash, r.BuildID)
	}
	return tw.Flush()
}
