// Package query answers the two questions asked of a store: what did a
// session report, and what did it report that another session did not.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zuo-Peng/logdiff/internal/store"
)

var (
	// ErrNoSuchError means a notes edit matched no error by natural key.
	ErrNoSuchError       = errors.New("no error matches repo, file and message")
	ErrUnknownOccurrence = errors.New("unknown occurrence")
)

// Row is one occurrence joined out to its natural keys.
type Row struct {
	ID      int64  `db:"id" json:"id" yaml:"id"`
	Repo    string `db:"repo" json:"repo" yaml:"repo"`
	File    string `db:"file" json:"file" yaml:"file"`
	Line    int    `db:"line" json:"line" yaml:"line"`
	Message string `db:"message" json:"message" yaml:"message"`
	Notes   string `db:"notes" json:"notes" yaml:"notes"`
}

// Location is repo/file:line, or repo/file when the line is unknown.
func (r Row) Location() string {
	if r.Line < 0 {
		return r.Repo + "/" + r.File
	}
	return fmt.Sprintf("%s/%s:%d", r.Repo, r.File, r.Line)
}

// Legacy files have no NOT NULL constraints, so every column is coalesced.
const selectRows = `
SELECT
	Main.id                        AS id,
	COALESCE(Repos.repo, '')       AS repo,
	COALESCE(Files.file, '')       AS file,
	COALESCE(Main.line, -1)        AS line,
	COALESCE(Messages.message, '') AS message,
	COALESCE(Errors.notes, '')     AS notes
FROM Main
JOIN Errors   ON Errors.id = Main.error
JOIN Files    ON Files.id = Errors.file
JOIN Repos    ON Repos.id = Files.repo
JOIN Messages ON Messages.id = Errors.message
`

func full(ctx context.Context, db *store.DB, session int64) ([]Row, error) {
	rows := []Row{}
	err := db.Select(ctx, &rows, selectRows+`
		WHERE Main.session = ?
		ORDER BY Main.id`, session)
	if err != nil {
		return nil, fmt.Errorf("list session: %w", err)
	}
	return rows, nil
}

// diff compares errors, not lines: an error that moved is not new.
func diff(ctx context.Context, db *store.DB, a, b int64) ([]Row, error) {
	rows := []Row{}
	err := db.Select(ctx, &rows, selectRows+`
		WHERE Main.session = ?
		  AND Main.error NOT IN (
			SELECT error FROM Main WHERE session = ? AND error IS NOT NULL
		  )
		ORDER BY Main.id`, a, b)
	if err != nil {
		return nil, fmt.Errorf("diff sessions: %w", err)
	}
	return rows, nil
}

// SetNotes stores text as the notes of the error row r belongs to. The error
// is found again by repo, file and message, so the edit shows in every
// session listing that error.
func SetNotes(ctx context.Context, db *store.DB, r Row, text string) error {
	res, err := db.Exec(ctx, `
		UPDATE Errors SET notes = ?
		WHERE file IN (
			SELECT Files.id FROM Files
			JOIN Repos ON Repos.id = Files.repo
			WHERE Repos.repo = ? AND Files.file = ?
		)
		AND message IN (SELECT id FROM Messages WHERE message = ?)`,
		text, r.Repo, r.File, r.Message)
	if err != nil {
		return fmt.Errorf("set notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set notes: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s: %s", ErrNoSuchError, r.Location(), r.Message)
	}
	db.Logger().Debug("notes updated", "repo", r.Repo, "file", r.File, "errors", n)
	return nil
}

// Occurrence fetches a single row by occurrence id.
func Occurrence(ctx context.Context, db *store.DB, id int64) (Row, error) {
	var rows []Row
	if err := db.Select(ctx, &rows, selectRows+"WHERE Main.id = ?", id); err != nil {
		return Row{}, fmt.Errorf("get occurrence: %w", err)
	}
	if len(rows) == 0 {
		return Row{}, fmt.Errorf("%w: %d", ErrUnknownOccurrence, id)
	}
	return rows[0], nil
}
