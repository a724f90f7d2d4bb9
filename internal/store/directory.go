package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/Zuo-Peng/logdiff/internal/parse"
)

const (
	labelLayout     = "2006-01-02 15:04"
	timestampLayout = "2006-01-02T15:04:05"
)

// Label is a session's natural key: its timestamp to the minute plus the
// comment, if any. Two imports with the same label are the same session.
func Label(ts time.Time, comment string) string {
	s := ts.Format(labelLayout)
	if comment == "" {
		return s
	}
	return s + " - " + comment
}

// Directory maps session labels to session ids.
type Directory struct {
	ids    map[string]int64
	labels []string // newest first
}

func newDirectory() *Directory {
	return &Directory{ids: make(map[string]int64)}
}

// refreshDirectory rebuilds the directory from the Sessions table. It is
// never patched in place.
func (d *DB) refreshDirectory(ctx context.Context) error {
	var rows []struct {
		ID        int64          `db:"id"`
		Timestamp sql.NullString `db:"timestamp"`
		Comments  sql.NullString `db:"comments"`
	}
	if err := d.db.SelectContext(ctx, &rows, "SELECT id, timestamp, comments FROM Sessions ORDER BY id"); err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	dir := newDirectory()
	for _, r := range rows {
		label := storedLabel(r.Timestamp.String, r.Comments.String)
		if _, ok := dir.ids[label]; ok {
			continue
		}
		dir.ids[label] = r.ID
		dir.labels = append(dir.labels, label)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dir.labels)))

	d.mu.Lock()
	d.dir = dir
	d.mu.Unlock()
	return nil
}

// storedLabel derives the label from a stored timestamp. A timestamp that
// does not parse keeps its raw text so the session stays addressable.
func storedLabel(timestamp, comment string) string {
	t := parse.ParseTimestamp(timestamp)
	if t.IsZero() {
		if comment == "" {
			return timestamp
		}
		return timestamp + " - " + comment
	}
	return Label(t, comment)
}

// Sessions returns every session label, newest first.
func (d *DB) Sessions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.dir.labels))
	copy(out, d.dir.labels)
	return out
}

// SessionID resolves a label to its session id.
func (d *DB) SessionID(label string) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.dir.ids[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSession, label)
	}
	return id, nil
}

// RemoveSession deletes a session and its occurrences in one transaction.
// Repositories, files, messages and errors stay, even when nothing
// references them any more.
func (d *DB) RemoveSession(ctx context.Context, label string) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	id, err := d.SessionID(label)
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	defer tx.Rollback()

	if _, err := d.hooks.exec(ctx, tx, "DELETE FROM Main WHERE session = ?", id); err != nil {
		return fmt.Errorf("remove session occurrences: %w", err)
	}
	if _, err := d.hooks.exec(ctx, tx, "DELETE FROM Sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if err := d.hooks.commit(tx); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}

	d.logger.Debug("session removed", "label", label, "id", id)
	return d.refreshDirectory(ctx)
}
