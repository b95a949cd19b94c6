package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.ConfigError("run history is disabled").
			WithContext("hint", "set history.enabled: true").
			Build()
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	out := g.stdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "no runs recorded")
		return nil
	}
	for _, r := range runs {
		_, _ = fmt.Fprintln(out, r.String())
	}
	return nil
}
