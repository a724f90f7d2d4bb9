package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/query"
	"github.com/Zuo-Peng/logdiff/internal/tui"
)

func diffCmd(g *globals) *cobra.Command {
	var (
		flags listingFlags
		both  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "List diagnostics recorded in session a but not in session b",
		Long: `List diagnostics recorded in session a but not in session b.

Two diagnostics are the same when repository, file and message match; line
numbers are ignored. With --both the reverse direction is printed as well.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b := args[0], args[1]

			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if flags.browse {
				if !isTerminal() {
					return fmt.Errorf("--browse needs a terminal")
				}
				for _, label := range args {
					if _, err := db.SessionID(label); err != nil {
						return err
					}
				}
				return tui.Run(db, tui.Options{A: a, B: b, Diff: true, SourceRoot: g.cfg.SourceRoot})
			}

			l, err := query.Diff(cmd.Context(), db, a, b)
			if err != nil {
				return err
			}
			if !both {
				return flags.write(g, l.Rows)
			}

			fmt.Fprintf(os.Stderr, "=== %s ===\n", l.Title())
			if err := flags.write(g, l.Rows); err != nil {
				return err
			}
			rev, err := query.Diff(cmd.Context(), db, b, a)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "\n=== %s ===\n", rev.Title())
			return flags.write(g, rev.Rows)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&both, "both", false, "also list what b has that a does not")
	return cmd
}
