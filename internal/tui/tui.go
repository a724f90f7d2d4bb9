package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/logdiff/internal/open"
	"github.com/Zuo-Peng/logdiff/internal/query"
	"github.com/Zuo-Peng/logdiff/internal/render"
	"github.com/Zuo-Peng/logdiff/internal/store"
)

type tuiMode int

const (
	modeSessions tuiMode = iota
	modeRows
)

// Options picks what the browser shows first. With A set it opens straight
// on that session's listing, or on the diff against B when Diff is set.
type Options struct {
	A          string
	B          string
	Diff       bool
	SourceRoot string
}

// message types

type listingMsg struct {
	listing *query.Listing
	err     error
}

type editorDoneMsg struct {
	err error
}

var writeClipboard = clipboard.WriteAll

// model

type model struct {
	db   *store.DB
	opts Options
	mode tuiMode

	sessions   []string
	cursor     int
	listOffset int

	a, b string
	diff bool

	listing   *query.Listing
	rowCursor int
	rowOffset int
	sorted    bool
	sortCol   render.Column
	sortDesc  bool

	editing       bool
	notesInput    textinput.Model
	confirmDelete string

	preview    viewport.Model
	previewKey string
	status     string
	statusErr  bool

	width    int
	height   int
	ready    bool
	quitting bool
}

func newModel(db *store.DB, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "notes"
	ti.Prompt = "notes> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 4096

	m := model{
		db:         db,
		opts:       opts,
		sessions:   db.Sessions(),
		a:          opts.A,
		b:          opts.B,
		diff:       opts.Diff && opts.B != "",
		notesInput: ti,
		preview:    viewport.New(0, 0),
	}
	if m.a != "" {
		m.mode = modeRows
		m.cursor = indexOf(m.sessions, m.a)
	}
	return m
}

// Run starts the browser and blocks until it exits.
func Run(db *store.DB, opts Options) error {
	p := tea.NewProgram(newModel(db, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	if m.mode == modeRows {
		return m.loadListing()
	}
	return nil
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""

	case listingMsg:
		if msg.err != nil {
			m.setError(msg.err)
			m.mode = modeSessions
			break
		}
		m.listing = msg.listing
		m.applySort(0)
		m.rowCursor = 0
		m.rowOffset = 0
		m.mode = modeRows
		m.status = fmt.Sprintf("%d rows", len(m.listing.Rows))
		m.statusErr = false

	case editorDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}

	case tea.KeyMsg:
		switch {
		case m.editing:
			cmd = m.updateEditing(msg)
		case m.confirmDelete != "":
			m.updateConfirm(msg)
		default:
			var quit bool
			cmd, quit = m.updateKeys(msg)
			if quit {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}

	m.syncPreview()
	return m, cmd
}

func (m *model) updateKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	m.status = ""
	m.statusErr = false

	switch {
	case key.Matches(msg, keys.Quit):
		return nil, true

	case key.Matches(msg, keys.Back):
		if m.mode == modeRows {
			m.mode = modeSessions
			return nil, false
		}
		return nil, true

	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(m.panelHeight() / 2)

	case key.Matches(msg, keys.PreviewDn):
		m.preview.LineDown(m.panelHeight() / 2)

	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(m.panelHeight())

	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(m.panelHeight())

	case key.Matches(msg, keys.Enter):
		if m.mode == modeSessions && len(m.sessions) > 0 {
			m.a = m.sessions[m.cursor]
			return m.loadListing(), false
		}

	case key.Matches(msg, keys.MarkB):
		if m.mode == modeSessions && len(m.sessions) > 0 {
			label := m.sessions[m.cursor]
			if m.b == label {
				m.b = ""
				m.diff = false
			} else {
				m.b = label
			}
		}

	case key.Matches(msg, keys.Toggle):
		if m.a == "" || m.b == "" {
			m.setError(errors.New("mark a session B with space to diff"))
			return nil, false
		}
		m.diff = !m.diff
		if m.mode == modeRows {
			return m.loadListing(), false
		}

	case key.Matches(msg, keys.Flip):
		if m.a == "" || m.b == "" {
			return nil, false
		}
		m.a, m.b = m.b, m.a
		if m.mode == modeRows {
			return m.loadListing(), false
		}

	case key.Matches(msg, keys.Edit):
		if row, ok := m.currentRow(); ok {
			m.editing = true
			m.notesInput.SetValue(row.Notes)
			m.notesInput.CursorEnd()
			return m.notesInput.Focus(), false
		}

	case key.Matches(msg, keys.Delete):
		if m.mode == modeSessions && len(m.sessions) > 0 {
			m.confirmDelete = m.sessions[m.cursor]
			m.status = fmt.Sprintf("delete session %q? (y/N)", m.confirmDelete)
		}

	case key.Matches(msg, keys.Copy):
		if row, ok := m.currentRow(); ok {
			m.copyRows([]query.Row{row})
		}

	case key.Matches(msg, keys.CopyAll):
		if m.mode == modeRows && m.listing != nil {
			m.copyRows(m.listing.Rows)
		}

	case key.Matches(msg, keys.Sort):
		if m.mode == modeRows && m.listing != nil {
			if m.sorted {
				m.sortCol = (m.sortCol + 1) % (render.ColNotes + 1)
			} else {
				m.sorted = true
				m.sortCol = render.ColRepo
			}
			m.applySort(m.currentID())
		}

	case key.Matches(msg, keys.SortRev):
		if m.mode == modeRows && m.listing != nil {
			m.sorted = true
			m.sortDesc = !m.sortDesc
			m.applySort(m.currentID())
		}

	case key.Matches(msg, keys.Open):
		if row, ok := m.currentRow(); ok {
			c, err := open.Command(m.opts.SourceRoot, row)
			if err != nil {
				m.setError(err)
				return nil, false
			}
			return tea.ExecProcess(c, func(err error) tea.Msg { return editorDoneMsg{err: err} }), false
		}
	}
	return nil, false
}

func (m *model) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.notesInput.Blur()
		return nil
	case tea.KeyEnter:
		m.editing = false
		m.notesInput.Blur()
		m.saveNotes(m.notesInput.Value())
		return nil
	}
	var cmd tea.Cmd
	m.notesInput, cmd = m.notesInput.Update(msg)
	return cmd
}

func (m *model) saveNotes(text string) {
	id := m.currentID()
	if err := m.listing.SetNotes(context.Background(), m.rowCursor, text); err != nil {
		m.setError(err)
		return
	}
	m.applySort(id)
	m.status = "notes saved"
	m.previewKey = ""
}

func (m *model) updateConfirm(msg tea.KeyMsg) {
	label := m.confirmDelete
	m.confirmDelete = ""
	if !key.Matches(msg, keys.Confirm) {
		m.status = "delete cancelled"
		return
	}

	if err := m.db.RemoveSession(context.Background(), label); err != nil {
		m.setError(err)
		return
	}
	m.sessions = m.db.Sessions()
	if m.a == label {
		m.a = ""
		m.listing = nil
	}
	if m.b == label {
		m.b = ""
		m.diff = false
	}
	if m.cursor >= len(m.sessions) {
		m.cursor = max(len(m.sessions)-1, 0)
	}
	m.adjustListScroll()
	m.status = "removed " + label
	m.previewKey = ""
}

func (m *model) copyRows(rows []query.Row) {
	if err := writeClipboard(render.TSV(rows)); err != nil {
		m.setError(fmt.Errorf("copy: %w", err))
		return
	}
	m.status = fmt.Sprintf("copied %d rows", len(rows))
}

func (m *model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m model) loadListing() tea.Cmd {
	db, a, b, diff := m.db, m.a, m.b, m.diff && m.b != ""
	return func() tea.Msg {
		ctx := context.Background()
		if diff {
			l, err := query.Diff(ctx, db, a, b)
			return listingMsg{listing: l, err: err}
		}
		l, err := query.Full(ctx, db, a)
		return listingMsg{listing: l, err: err}
	}
}

// applySort re-sorts the listing and puts the cursor back on the row with
// the given occurrence id, if it is still there.
func (m *model) applySort(keepID int64) {
	if m.listing == nil {
		return
	}
	if m.sorted {
		render.Sort(m.listing.Rows, m.sortCol, m.sortDesc)
	}
	for i, r := range m.listing.Rows {
		if r.ID == keepID {
			m.rowCursor = i
			break
		}
	}
	if m.rowCursor >= len(m.listing.Rows) {
		m.rowCursor = max(len(m.listing.Rows)-1, 0)
	}
	m.adjustRowScroll()
	m.previewKey = ""
}

func (m model) currentRow() (query.Row, bool) {
	if m.mode != modeRows || m.listing == nil || m.rowCursor >= len(m.listing.Rows) {
		return query.Row{}, false
	}
	return m.listing.Rows[m.rowCursor], true
}

func (m model) currentID() int64 {
	r, _ := m.currentRow()
	return r.ID
}

func (m *model) moveCursor(delta int) {
	if m.mode == modeRows {
		if m.listing == nil {
			return
		}
		next := m.rowCursor + delta
		if next >= 0 && next < len(m.listing.Rows) {
			m.rowCursor = next
			m.adjustRowScroll()
		}
		return
	}
	next := m.cursor + delta
	if next >= 0 && next < len(m.sessions) {
		m.cursor = next
		m.adjustListScroll()
	}
}

// syncPreview refreshes the preview pane when the highlighted item changed.
func (m *model) syncPreview() {
	var k, content string
	switch m.mode {
	case modeRows:
		row, ok := m.currentRow()
		if !ok {
			k, content = "rows:empty", "(no rows)"
			break
		}
		k = fmt.Sprintf("row:%d", row.ID)
		content = render.Detail(row, m.previewWidth())
	default:
		label := ""
		if len(m.sessions) > 0 {
			label = m.sessions[m.cursor]
		}
		k = "session:" + label + "|" + m.a + "|" + m.b + fmt.Sprint(m.diff)
		content = m.sessionSummary(label)
	}
	if k == m.previewKey {
		return
	}
	m.preview.SetContent(content)
	m.preview.GotoTop()
	m.previewKey = k
}

func (m model) sessionSummary(label string) string {
	var b strings.Builder
	if label == "" {
		b.WriteString("No sessions. Import a build log first.\n")
		return b.String()
	}
	b.WriteString(styleTitle.Render(label) + "\n\n")
	fmt.Fprintf(&b, "A: %s\n", orNone(m.a))
	fmt.Fprintf(&b, "B: %s\n", orNone(m.b))
	if m.diff {
		b.WriteString("view: diff (A minus B)\n")
	} else {
		b.WriteString("view: full listing of A\n")
	}
	b.WriteString("\nenter select A | space mark B | tab full/diff | r swap | d delete\n")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	var top string
	if m.editing {
		top = m.notesInput.View()
	} else {
		top = styleTitle.Render(m.title())
	}

	var listContent string
	if m.mode == modeRows {
		listContent = m.renderRows(listW, panelH)
	} else {
		listContent = m.renderSessions(listW, panelH)
	}
	listPanel := styleActiveBorder.
		Width(listW).
		Height(panelH).
		Render(listContent)

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := stylePanelBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, top, panels, m.statusBar())
}

func (m model) title() string {
	if m.mode == modeRows && m.listing != nil {
		t := fmt.Sprintf("[%s] %s  (%d)", m.listing.Kind, m.listing.Title(), len(m.listing.Rows))
		if m.sorted {
			dir := "asc"
			if m.sortDesc {
				dir = "desc"
			}
			t += fmt.Sprintf("  sort: %s %s", m.sortCol, dir)
		}
		return t
	}
	return fmt.Sprintf("sessions (%d)", len(m.sessions))
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 60
	}
	// 55% for list, minus border padding
	w := m.width*55/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*45/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// title row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m model) statusBar() string {
	if m.status != "" {
		if m.statusErr {
			return styleStatusError.Render(m.status)
		}
		return styleStatusBar.Render(m.status)
	}

	var parts []string
	switch {
	case m.editing:
		parts = []string{"Enter save", "Esc cancel"}
	case m.mode == modeRows:
		parts = []string{"e notes", "c/C copy", "s/S sort", "tab full/diff", "r swap", "o open", "Esc back"}
	default:
		parts = []string{"Enter A", "Space B", "tab full/diff", "d delete", "Esc quit"}
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	return viewport.New(width, height)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}
