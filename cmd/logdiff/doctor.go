package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/logdiff/internal/config"
)

func doctorCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, roots and database, and show stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("=== Config ===")
			cfgPath := g.configPath
			if cfgPath == "" {
				cfgPath, _ = config.DefaultPath()
			}
			if _, err := os.Stat(cfgPath); err != nil {
				fmt.Printf("  File: %s (not found, using defaults)\n", cfgPath)
			} else {
				fmt.Printf("  File: %s (OK)\n", cfgPath)
			}
			fmt.Printf("  Log level: %s\n", g.cfg.LogLevel)

			fmt.Println("\n=== Roots ===")
			if g.cfg.BuildRoot == "" {
				fmt.Println("  Build:  (not set, paths are imported as logged)")
			} else {
				fmt.Printf("  Build:  %s\n", g.cfg.BuildRoot)
			}
			if g.cfg.SourceRoot == "" {
				fmt.Println("  Source: (not set, 'open' is disabled)")
			} else {
				checkDir("Source", g.cfg.SourceRoot)
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", g.cfg.DBPath)
			if _, err := os.Stat(g.cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'logdiff import' first)")
				return nil
			}

			db, err := g.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			var version string
			if err := db.Raw().GetContext(cmd.Context(), &version, "SELECT sqlite_version()"); err == nil {
				fmt.Printf("  SQLite: %s\n", version)
			}

			counts, err := db.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("  Sessions:    %d\n", counts.Sessions)
			fmt.Printf("  Occurrences: %d\n", counts.Occurrences)
			fmt.Printf("  Errors:      %d\n", counts.Errors)
			fmt.Printf("  Messages:    %d\n", counts.Messages)
			fmt.Printf("  Files:       %d\n", counts.Files)
			fmt.Printf("  Repos:       %d\n", counts.Repos)

			fmt.Println("\n=== Integrity ===")
			problems, err := db.Check(cmd.Context())
			if err != nil {
				fmt.Printf("  check error: %v\n", err)
			} else if len(problems) == 0 {
				fmt.Println("  Status: OK")
			} else {
				for _, p := range problems {
					fmt.Printf("  %s\n", p)
				}
				fmt.Printf("  Status: %d problem(s)\n", len(problems))
			}

			if info, err := os.Stat(db.Path()); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
