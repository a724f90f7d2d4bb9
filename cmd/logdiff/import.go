package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/parse"
	"github.com/Zuo-Peng/logdiff/internal/scan"
	"github.com/Zuo-Peng/logdiff/internal/store"
)

func importCmd(g *globals) *cobra.Command {
	var (
		root           string
		when           string
		comment        string
		showUnrecorded bool
	)

	cmd := &cobra.Command{
		Use:   "import <log|dir>...",
		Short: "Import build logs, one session per file",
		Long: `Import build logs, one session per file.

Directories are scanned for *.log and *.txt files. Each session is labelled
with the file's modification time (or --time) and --comment. A log with the
same label as an existing session is skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = g.cfg.BuildRoot
			}

			var ts time.Time
			if when != "" {
				ts = parse.ParseTimestamp(when)
				if ts.IsZero() {
					return fmt.Errorf("invalid --time %q (want YYYY-MM-DD HH:MM)", when)
				}
			}

			files, err := scan.ScanPaths(args, nil)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			if len(files) == 0 {
				return errors.New("no log files found")
			}
			if !ts.IsZero() && len(files) > 1 {
				return fmt.Errorf("--time needs exactly one log, got %d", len(files))
			}

			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Importing %d file(s)...\n", len(files))
			if root != "" {
				fmt.Fprintf(os.Stderr, "  Build root: %s\n", root)
			}

			var lastErr error
			stats, err := store.ImportAll(cmd.Context(), db, files, store.BatchOptions{
				BuildRoot: root,
				Comment:   comment,
				Timestamp: ts,
				OnFile: func(fi scan.FileInfo, parsed *parse.Result, res store.ImportResult, err error) {
					if parsed != nil && showUnrecorded {
						printUnrecorded(fi.Path, parsed)
					}
					switch {
					case err == nil:
						fmt.Fprintf(os.Stderr, "  %s: %s\n", fi.Path, res)
					case store.IsNoEntries(err):
						fmt.Fprintf(os.Stderr, "  %s: no entries found, skipped\n", fi.Path)
					default:
						fmt.Fprintf(os.Stderr, "  %s: %v\n", fi.Path, err)
					}
					if err != nil {
						lastErr = err
					}
				},
			})
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)

			// a single log that was not imported is a failure of the command
			if len(files) == 1 && stats.Imported == 0 && lastErr != nil {
				return lastErr
			}
			if stats.Errors > 0 {
				return fmt.Errorf("%d file(s) failed to import", stats.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "build root prefix stripped from paths (default from config)")
	cmd.Flags().StringVar(&when, "time", "", "session time instead of the file's modification time")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "session comment")
	cmd.Flags().BoolVar(&showUnrecorded, "show-unrecorded", false, "print log lines that were not recorded")
	return cmd
}

func printUnrecorded(path string, parsed *parse.Result) {
	if len(parsed.Unrecorded) > 0 {
		fmt.Fprintf(os.Stderr, "--- %s: %d unrecorded line(s)\n", path, len(parsed.Unrecorded))
		for _, line := range parsed.Unrecorded {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	if len(parsed.Unparsed) > 0 {
		fmt.Fprintf(os.Stderr, "--- %s: %d unparsed line(s)\n", path, len(parsed.Unparsed))
		for _, line := range parsed.Unparsed {
			fmt.Fprintln(os.Stderr, line)
		}
	}
}
