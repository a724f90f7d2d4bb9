package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/tui"
)

func browseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse sessions, listings and diffs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return errors.New("browse needs a terminal")
			}

			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			return tui.Run(db, tui.Options{SourceRoot: g.cfg.SourceRoot})
		},
	}
}
