package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/render"
)

func sessionsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List recorded sessions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := g.outputFormat()
			if err != nil {
				return err
			}

			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			labels := db.Sessions()
			switch format {
			case render.FormatJSON:
				return render.WriteJSON(os.Stdout, labels)
			case render.FormatYAML:
				return render.WriteYAML(os.Stdout, labels)
			}
			for _, label := range labels {
				fmt.Println(label)
			}
			return nil
		},
	}
}
