package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/query"
	"github.com/Zuo-Peng/logdiff/internal/render"
	"github.com/Zuo-Peng/logdiff/internal/tui"
)

// listingFlags are the presentation flags shared by show and diff.
type listingFlags struct {
	sortBy string
	desc   bool
	header bool
	browse bool
}

func (f *listingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "sort by column: id, repo, file, line, message, notes")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "reverse the sort")
	cmd.Flags().BoolVar(&f.header, "header", false, "print a header row in tsv output")
	cmd.Flags().BoolVar(&f.browse, "browse", false, "open the listing in the interactive browser")
}

// write sorts rows as requested and prints them in the chosen format.
func (f *listingFlags) write(g *globals, rows []query.Row) error {
	format, err := g.outputFormat()
	if err != nil {
		return err
	}
	if f.sortBy != "" {
		col, err := render.ParseColumn(f.sortBy)
		if err != nil {
			return err
		}
		render.Sort(rows, col, f.desc)
	}
	if format == render.FormatTSV && f.header {
		return render.WriteTSV(os.Stdout, rows, true)
	}
	return render.Write(os.Stdout, format, rows, termWidth())
}

func showCmd(g *globals) *cobra.Command {
	var flags listingFlags

	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "List every diagnostic recorded in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if flags.browse {
				if !isTerminal() {
					return fmt.Errorf("--browse needs a terminal")
				}
				if _, err := db.SessionID(args[0]); err != nil {
					return err
				}
				return tui.Run(db, tui.Options{A: args[0], SourceRoot: g.cfg.SourceRoot})
			}

			l, err := query.Full(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}
			return flags.write(g, l.Rows)
		},
	}

	flags.register(cmd)
	return cmd
}
