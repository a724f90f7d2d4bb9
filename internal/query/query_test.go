package query_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/logdiff/internal/parse"
	"github.com/Zuo-Peng/logdiff/internal/query"
	"github.com/Zuo-Peng/logdiff/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "data.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func importSession(t *testing.T, db *store.DB, hour int, comment string, entries ...parse.Entry) string {
	t.Helper()
	res, err := db.Import(context.Background(), parse.Session{
		Timestamp: time.Date(2014, 3, 9, hour, 0, 0, 0, time.Local),
		Comment:   comment,
		Entries:   entries,
	}, store.ImportOptions{})
	require.NoError(t, err)
	return res.Label
}

var (
	e1 = parse.Entry{Repo: "qtbase", File: "src/a.cpp", Line: 1, Message: "warning: one"}
	e2 = parse.Entry{Repo: "qtbase", File: "src/b.cpp", Line: 10, Message: "warning: two"}
	e3 = parse.Entry{Repo: "qtsvg", File: "src/c.cpp", Line: 3, Message: "warning: three"}
	e4 = parse.Entry{Repo: "qtsvg", File: "src/d.cpp", Line: 4, Message: "warning: four"}
)

func messages(rows []query.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Message
	}
	return out
}

func TestFull(t *testing.T) {
	db := newTestDB(t)
	a := importSession(t, db, 9, "A", e1, e2, e3)
	importSession(t, db, 10, "B", e4)

	l, err := query.Full(context.Background(), db, a)
	require.NoError(t, err)

	assert.Equal(t, query.KindFull, l.Kind)
	assert.Equal(t, a, l.Title())
	require.Len(t, l.Rows, 3)
	assert.Equal(t, []string{"warning: one", "warning: two", "warning: three"}, messages(l.Rows))

	r := l.Rows[1]
	assert.Equal(t, "qtbase", r.Repo)
	assert.Equal(t, "src/b.cpp", r.File)
	assert.Equal(t, 10, r.Line)
	assert.Equal(t, "", r.Notes)
	assert.Equal(t, "qtbase/src/b.cpp:10", r.Location())
}

func TestFull_EmptyAndUnknown(t *testing.T) {
	db := newTestDB(t)
	empty := importSession(t, db, 9, "empty")

	l, err := query.Full(context.Background(), db, empty)
	require.NoError(t, err)
	assert.Empty(t, l.Rows)

	_, err = query.Full(context.Background(), db, "1999-01-01 00:00")
	assert.ErrorIs(t, err, store.ErrUnknownSession)
}

func TestDiff(t *testing.T) {
	db := newTestDB(t)
	a := importSession(t, db, 9, "A", e1, e2, e3)
	b := importSession(t, db, 10, "B", e2, e3, e4)
	ctx := context.Background()

	ab, err := query.Diff(ctx, db, a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"warning: one"}, messages(ab.Rows))
	assert.Equal(t, query.KindDiff, ab.Kind)

	ba, err := query.Diff(ctx, db, b, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"warning: four"}, messages(ba.Rows))

	aa, err := query.Diff(ctx, db, a, a)
	require.NoError(t, err)
	assert.Empty(t, aa.Rows)

	_, err = query.Diff(ctx, db, a, "nope")
	assert.ErrorIs(t, err, store.ErrUnknownSession)
}

func TestDiff_IgnoresLineMovement(t *testing.T) {
	db := newTestDB(t)
	moved := e2
	moved.Line = 50

	a := importSession(t, db, 9, "A", e1, e2)
	b := importSession(t, db, 10, "B", moved)
	ctx := context.Background()

	ab, err := query.Diff(ctx, db, a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"warning: one"}, messages(ab.Rows))

	ba, err := query.Diff(ctx, db, b, a)
	require.NoError(t, err)
	assert.Empty(t, ba.Rows)
}

func TestDiff_SameMessageOtherFileIsNew(t *testing.T) {
	db := newTestDB(t)
	elsewhere := e1
	elsewhere.File = "src/other.cpp"

	a := importSession(t, db, 9, "A", elsewhere)
	b := importSession(t, db, 10, "B", e1)

	l, err := query.Diff(context.Background(), db, a, b)
	require.NoError(t, err)
	require.Len(t, l.Rows, 1)
	assert.Equal(t, "src/other.cpp", l.Rows[0].File)
}

func TestListing_SetNotesPropagates(t *testing.T) {
	db := newTestDB(t)
	a := importSession(t, db, 9, "A", e1, e2)
	b := importSession(t, db, 10, "B", e2, e3)
	ctx := context.Background()

	la, err := query.Full(ctx, db, a)
	require.NoError(t, err)
	lb, err := query.Full(ctx, db, b)
	require.NoError(t, err)

	require.NoError(t, la.SetNotes(ctx, 1, "known, QTBUG-1234"))
	assert.Equal(t, "known, QTBUG-1234", la.Rows[1].Notes)
	assert.Equal(t, "", la.Rows[0].Notes)

	// another view of the same error sees it once re-run
	assert.Equal(t, "", lb.Rows[0].Notes)
	require.NoError(t, lb.Refresh(ctx))
	assert.Equal(t, "known, QTBUG-1234", lb.Rows[0].Notes)
	assert.Equal(t, "", lb.Rows[1].Notes)

	d, err := query.Diff(ctx, db, b, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"warning: three"}, messages(d.Rows))
}

func TestListing_SetNotesFailureKeepsRows(t *testing.T) {
	db := newTestDB(t)
	a := importSession(t, db, 9, "A", e1)
	ctx := context.Background()

	l, err := query.Full(ctx, db, a)
	require.NoError(t, err)

	l.Rows[0].Message = "warning: edited elsewhere"
	before := append([]query.Row(nil), l.Rows...)

	err = l.SetNotes(ctx, 0, "x")
	assert.ErrorIs(t, err, query.ErrNoSuchError)
	assert.Equal(t, before, l.Rows)

	assert.Error(t, l.SetNotes(ctx, 5, "x"))
}

func TestListing_RefreshAfterRemoval(t *testing.T) {
	db := newTestDB(t)
	a := importSession(t, db, 9, "A", e1)
	ctx := context.Background()

	l, err := query.Full(ctx, db, a)
	require.NoError(t, err)
	require.NoError(t, db.RemoveSession(ctx, a))

	err = l.Refresh(ctx)
	assert.ErrorIs(t, err, store.ErrUnknownSession)
	assert.Len(t, l.Rows, 1)
}

func TestSetNotes_UnknownError(t *testing.T) {
	db := newTestDB(t)
	err := query.SetNotes(context.Background(), db, query.Row{Repo: "r", File: "f", Message: "m"}, "x")
	assert.ErrorIs(t, err, query.ErrNoSuchError)
}

func TestOccurrence(t *testing.T) {
	db := newTestDB(t)
	a := importSession(t, db, 9, "A", e1, e3)
	ctx := context.Background()

	l, err := query.Full(ctx, db, a)
	require.NoError(t, err)

	r, err := query.Occurrence(ctx, db, l.Rows[1].ID)
	require.NoError(t, err)
	assert.Equal(t, l.Rows[1], r)

	_, err = query.Occurrence(ctx, db, 424242)
	assert.ErrorIs(t, err, query.ErrUnknownOccurrence)
}

func TestRow_LocationWithoutLine(t *testing.T) {
	r := query.Row{Repo: "qtdoc", File: "doc/index.qdoc", Line: -1}
	assert.Equal(t, "qtdoc/doc/index.qdoc", r.Location())
}
