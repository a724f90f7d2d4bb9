package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func rmCmd(g *globals) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <session>",
		Short: "Remove a session and its occurrences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := args[0]

			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.SessionID(label); err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(os.Stderr, "Remove session %q? [y/N] ", label)
				answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(os.Stderr, "Aborted.")
					return nil
				}
			}

			if err := db.RemoveSession(cmd.Context(), label); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Removed %s\n", label)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
