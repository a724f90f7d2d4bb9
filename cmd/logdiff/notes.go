package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/query"
)

func notesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <occurrence-id> [text...]",
		Short: "Set the notes of the diagnostic behind an occurrence",
		Long: `Set the notes of the diagnostic behind an occurrence.

Notes belong to the diagnostic (repository, file and message), so they show
up in every session that recorded it. Without text the notes are cleared.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid occurrence id %q", args[0])
			}
			text := strings.Join(args[1:], " ")

			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			r, err := query.Occurrence(cmd.Context(), db, id)
			if err != nil {
				return err
			}
			if err := query.SetNotes(cmd.Context(), db, r, text); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Notes set on %s\n", r.Location())
			return nil
		},
	}
}
