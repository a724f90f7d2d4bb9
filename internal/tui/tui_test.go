package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/logdiff/internal/parse"
	"github.com/Zuo-Peng/logdiff/internal/query"
	"github.com/Zuo-Peng/logdiff/internal/render"
	"github.com/Zuo-Peng/logdiff/internal/store"
)

const (
	labelA = "2014-03-09 09:00 - A"
	labelB = "2014-03-09 10:00 - B"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "data.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	imp := func(hour int, comment string, entries ...parse.Entry) {
		_, err := db.Import(context.Background(), parse.Session{
			Timestamp: time.Date(2014, 3, 9, hour, 0, 0, 0, time.Local),
			Comment:   comment,
			Entries:   entries,
		}, store.ImportOptions{})
		require.NoError(t, err)
	}
	imp(9, "A",
		parse.Entry{Repo: "qtsvg", File: "b.cpp", Line: 2, Message: "warning: gone"},
		parse.Entry{Repo: "qtbase", File: "a.cpp", Line: 1, Message: "warning: kept"},
	)
	imp(10, "B",
		parse.Entry{Repo: "qtbase", File: "a.cpp", Line: 9, Message: "warning: kept"},
		parse.Entry{Repo: "qtdoc", File: "c.qdoc", Line: 3, Message: "warning: new"},
	)
	return db
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, msg tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

// load runs a listing command and feeds its result back.
func load(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(listingMsg)
	require.True(t, ok)
	next, _ := m.Update(msg)
	return next.(model)
}

func messagesOf(m model) []string {
	var out []string
	for _, r := range m.listing.Rows {
		out = append(out, r.Message)
	}
	return out
}

func TestSelectAndDiff(t *testing.T) {
	m := newModel(newTestDB(t), Options{})
	assert.Equal(t, []string{labelB, labelA}, m.sessions)

	// mark B on the newest session, select the older one as A
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, labelB, m.b)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = load(t, m, cmd)

	assert.Equal(t, modeRows, m.mode)
	assert.Equal(t, labelA, m.a)
	assert.Equal(t, query.KindFull, m.listing.Kind)
	assert.Equal(t, []string{"warning: gone", "warning: kept"}, messagesOf(m))

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = load(t, m, cmd)
	assert.Equal(t, query.KindDiff, m.listing.Kind)
	assert.Equal(t, []string{"warning: gone"}, messagesOf(m))

	m, cmd = press(t, m, runes("r"))
	m = load(t, m, cmd)
	assert.Equal(t, labelB, m.a)
	assert.Equal(t, labelA, m.b)
	assert.Equal(t, []string{"warning: new"}, messagesOf(m))

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeSessions, m.mode)
	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestToggleWithoutB(t *testing.T) {
	m := newModel(newTestDB(t), Options{A: labelA})
	m = load(t, m, m.Init())

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
	assert.True(t, m.statusErr)
	assert.Equal(t, query.KindFull, m.listing.Kind)
}

func TestEditNotes(t *testing.T) {
	db := newTestDB(t)
	m := newModel(db, Options{A: labelA})
	m = load(t, m, m.Init())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, runes("e"))
	require.True(t, m.editing)
	m, _ = press(t, m, runes("QTBUG-1"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.editing)
	assert.False(t, m.statusErr, m.status)
	assert.Equal(t, "QTBUG-1", m.listing.Rows[1].Notes)

	// notes belong to the error, so session B sees them too
	l, err := query.Full(context.Background(), db, labelB)
	require.NoError(t, err)
	assert.Equal(t, "QTBUG-1", l.Rows[0].Notes)
}

func TestEditNotesCancel(t *testing.T) {
	m := newModel(newTestDB(t), Options{A: labelA})
	m = load(t, m, m.Init())

	m, _ = press(t, m, runes("e"))
	m, _ = press(t, m, runes("draft"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.editing)
	assert.Equal(t, modeRows, m.mode)
	assert.Equal(t, "", m.listing.Rows[0].Notes)
}

func TestDeleteSession(t *testing.T) {
	db := newTestDB(t)
	m := newModel(db, Options{})

	// anything but y cancels
	m, _ = press(t, m, runes("d"))
	require.Equal(t, labelB, m.confirmDelete)
	m, _ = press(t, m, runes("n"))
	assert.Len(t, m.sessions, 2)

	m, _ = press(t, m, runes("d"))
	m, _ = press(t, m, runes("y"))
	assert.Equal(t, []string{labelA}, m.sessions)
	assert.Equal(t, []string{labelA}, db.Sessions())
	assert.Equal(t, 0, m.cursor)
}

func TestCopy(t *testing.T) {
	var got string
	orig := writeClipboard
	writeClipboard = func(s string) error { got = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	m := newModel(newTestDB(t), Options{A: labelA})
	m = load(t, m, m.Init())

	m, _ = press(t, m, runes("c"))
	assert.Equal(t, render.TSV(m.listing.Rows[:1]), got)

	_, _ = press(t, m, runes("C"))
	assert.Equal(t, render.TSV(m.listing.Rows), got)
	assert.Contains(t, got, "\twarning: kept\t\n")
}

func TestSortKeepsCursorRow(t *testing.T) {
	m := newModel(newTestDB(t), Options{A: labelA})
	m = load(t, m, m.Init())
	require.Equal(t, "qtsvg", m.listing.Rows[0].Repo)

	m, _ = press(t, m, runes("s"))
	assert.Equal(t, render.ColRepo, m.sortCol)
	assert.Equal(t, []string{"qtbase", "qtsvg"}, []string{m.listing.Rows[0].Repo, m.listing.Rows[1].Repo})
	assert.Equal(t, 1, m.rowCursor, "cursor follows the highlighted row")

	m, _ = press(t, m, runes("S"))
	assert.True(t, m.sortDesc)
	assert.Equal(t, "qtsvg", m.listing.Rows[0].Repo)
	assert.Equal(t, 0, m.rowCursor)
}

func TestView(t *testing.T) {
	m := newModel(newTestDB(t), Options{})
	assert.Empty(t, m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(model)
	out := m.View()
	assert.Contains(t, out, "sessions (2)")
	assert.Contains(t, out, labelA)
}
