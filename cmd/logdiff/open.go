package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/open"
	"github.com/Zuo-Peng/logdiff/internal/query"
)

func openCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "open <occurrence-id>",
		Short: "Open an occurrence's source file in $EDITOR at its line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid occurrence id %q", args[0])
			}

			db, err := g.openStore()
			if err != nil {
				return err
			}
			r, err := query.Occurrence(cmd.Context(), db, id)
			db.Close()
			if err != nil {
				return err
			}

			return open.Open(g.cfg.SourceRoot, r)
		},
	}
}
