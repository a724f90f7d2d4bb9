package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zuo-Peng/logdiff/internal/parse"
	"github.com/Zuo-Peng/logdiff/internal/scan"
)

type Stats struct {
	Scanned    int
	Imported   int
	Duplicates int
	Empty      int
	Errors     int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d imported=%d duplicates=%d empty=%d errors=%d",
		s.Scanned, s.Imported, s.Duplicates, s.Empty, s.Errors)
}

type BatchOptions struct {
	BuildRoot string
	Comment   string
	// Timestamp overrides each file's modification time.
	Timestamp time.Time
	// OnFile is called after each file with its parse result (nil if parsing
	// failed) and the import outcome.
	OnFile func(file scan.FileInfo, parsed *parse.Result, res ImportResult, err error)
}

// ImportAll imports every file as its own session. A file that fails to
// parse, holds no entries, or duplicates an existing session is counted and
// skipped; the remaining files are still imported.
func ImportAll(ctx context.Context, db *DB, files []scan.FileInfo, opts BatchOptions) (Stats, error) {
	var stats Stats
	stats.Scanned = len(files)

	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		parsed, res, err := importFile(ctx, db, fi, opts)
		if opts.OnFile != nil {
			opts.OnFile(fi, parsed, res, err)
		}

		switch {
		case err == nil:
			stats.Imported++
		case errors.Is(err, ErrDuplicateSession):
			stats.Duplicates++
		case errors.Is(err, errNoEntries):
			stats.Empty++
		default:
			stats.Errors++
			db.logger.Warn("import failed", "path", fi.Path, "error", err)
		}
	}

	return stats, nil
}

var errNoEntries = errors.New("no entries found")

func importFile(ctx context.Context, db *DB, fi scan.FileInfo, opts BatchOptions) (*parse.Result, ImportResult, error) {
	parsed, err := parse.ParseFile(fi.Path, opts.BuildRoot)
	if err != nil {
		return nil, ImportResult{}, fmt.Errorf("parse %s: %w", fi.Path, err)
	}
	if len(parsed.Entries) == 0 {
		return parsed, ImportResult{}, fmt.Errorf("%s: %w", fi.Path, errNoEntries)
	}

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = fi.Mtime
	}

	res, err := db.Import(ctx, parse.Session{
		Timestamp: ts,
		Comment:   opts.Comment,
		Entries:   parsed.Entries,
	}, ImportOptions{})
	return parsed, res, err
}

// IsNoEntries reports whether err means a log held no diagnostics.
func IsNoEntries(err error) bool {
	return errors.Is(err, errNoEntries)
}
