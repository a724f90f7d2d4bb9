package query

import (
	"context"
	"fmt"

	"github.com/Zuo-Peng/logdiff/internal/store"
)

type Kind int

const (
	KindFull Kind = iota
	KindDiff
)

func (k Kind) String() string {
	if k == KindDiff {
		return "diff"
	}
	return "full"
}

// Listing is a materialised query result that remembers how it was made,
// so callers can re-run it after a mutation.
type Listing struct {
	Kind Kind
	A    string
	B    string // diff only
	Rows []Row

	db *store.DB
}

// Full lists every occurrence recorded for the session labelled label.
func Full(ctx context.Context, db *store.DB, label string) (*Listing, error) {
	l := &Listing{Kind: KindFull, A: label, db: db}
	if err := l.Refresh(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Diff lists the occurrences of session a whose error never occurs in
// session b. It is directional; swap the arguments for the other side.
func Diff(ctx context.Context, db *store.DB, a, b string) (*Listing, error) {
	l := &Listing{Kind: KindDiff, A: a, B: b, db: db}
	if err := l.Refresh(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Listing) Title() string {
	if l.Kind == KindDiff {
		return fmt.Sprintf("%s  minus  %s", l.A, l.B)
	}
	return l.A
}

// Refresh re-runs the query. Rows are replaced only when it succeeds.
func (l *Listing) Refresh(ctx context.Context) error {
	a, err := l.db.SessionID(l.A)
	if err != nil {
		return err
	}

	var rows []Row
	switch l.Kind {
	case KindDiff:
		b, err := l.db.SessionID(l.B)
		if err != nil {
			return err
		}
		rows, err = diff(ctx, l.db, a, b)
		if err != nil {
			return err
		}
	default:
		rows, err = full(ctx, l.db, a)
		if err != nil {
			return err
		}
	}

	l.Rows = rows
	return nil
}

// SetNotes edits the notes of row i and re-runs the listing. When the edit
// fails the rows are left as they were.
func (l *Listing) SetNotes(ctx context.Context, i int, text string) error {
	if i < 0 || i >= len(l.Rows) {
		return fmt.Errorf("set notes: row %d out of range", i)
	}
	if err := SetNotes(ctx, l.db, l.Rows[i], text); err != nil {
		return err
	}
	return l.Refresh(ctx)
}
