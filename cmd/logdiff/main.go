package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/logdiff/internal/config"
	"github.com/Zuo-Peng/logdiff/internal/render"
	"github.com/Zuo-Peng/logdiff/internal/store"
)

var version = "dev"

// globals holds the persistent flags shared by every command.
type globals struct {
	dbPath     string
	configPath string
	verbose    bool
	format     string

	cfg *config.Config
}

func main() {
	rootCmd := newRootCmd(&globals{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(g *globals) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "logdiff",
		Short:         "Record build-log diagnostics per session and diff them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.dbPath, "db", "", "database file (overrides config and LOGDIFF_DB)")
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.config/logdiff/config.toml)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.StringVarP(&g.format, "format", "f", "", "output format: tsv, table, json, yaml (default table on a terminal, tsv otherwise)")

	rootCmd.AddCommand(importCmd(g))
	rootCmd.AddCommand(sessionsCmd(g))
	rootCmd.AddCommand(showCmd(g))
	rootCmd.AddCommand(diffCmd(g))
	rootCmd.AddCommand(notesCmd(g))
	rootCmd.AddCommand(rmCmd(g))
	rootCmd.AddCommand(openCmd(g))
	rootCmd.AddCommand(browseCmd(g))
	rootCmd.AddCommand(doctorCmd(g))
	return rootCmd
}

// setup loads the config and installs the default logger.
func (g *globals) setup() error {
	var err error
	if g.configPath != "" {
		g.cfg, err = config.LoadFile(g.configPath)
	} else {
		g.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if g.dbPath != "" {
		g.cfg.DBPath = g.dbPath
	}

	level := parseLevel(g.cfg.LogLevel)
	if g.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore opens the store named by the config. The caller closes it.
func (g *globals) openStore() (*store.DB, error) {
	db, err := store.OpenDB(g.cfg.DBPath, store.Options{Logger: slog.Default()})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// outputFormat resolves --format, defaulting by whether stdout is a terminal.
func (g *globals) outputFormat() (render.Format, error) {
	if g.format != "" {
		return render.ParseFormat(g.format)
	}
	if isTerminal() {
		return render.FormatTable, nil
	}
	return render.FormatTSV, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// termWidth is the stdout width, or 0 when it is not a terminal.
func termWidth() int {
	if !isTerminal() {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
