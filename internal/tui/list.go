package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/logdiff/internal/query"
)

// linesPerRow is the number of terminal lines each listing row occupies.
const linesPerRow = 2

// renderSessions renders the left panel in session mode, one label per line.
func (m model) renderSessions(width, height int) string {
	if len(m.sessions) == 0 {
		return emptyPanel(width, height, "No sessions")
	}

	var lines []string
	for i, label := range m.sessions {
		if i < m.listOffset {
			continue
		}
		if len(lines) >= height {
			break
		}
		lines = append(lines, m.formatSession(label, width, i == m.cursor))
	}
	return padLines(lines, width, height)
}

func (m model) formatSession(label string, width int, selected bool) string {
	markA, markB := "  ", "  "
	if label == m.a {
		markA = styleMarkA.Render("A ")
	}
	if label == m.b {
		markB = styleMarkB.Render("B ")
	}

	labelMax := width - 6
	if labelMax < 0 {
		labelMax = 0
	}
	if runewidth.StringWidth(label) > labelMax {
		label = runewidth.Truncate(label, labelMax, "")
	}

	if selected {
		return styleListSelected.Render("> ") + markA + markB + styleListSelected.Render(label)
	}
	return "  " + markA + markB + styleListNormal.Render(label)
}

// renderRows renders the left panel in listing mode.
func (m model) renderRows(width, height int) string {
	if m.listing == nil || len(m.listing.Rows) == 0 {
		return emptyPanel(width, height, "No rows")
	}

	var lines []string
	for i, r := range m.listing.Rows {
		if i < m.rowOffset {
			continue
		}
		if len(lines)+linesPerRow > height {
			break
		}
		lines = append(lines, formatRow(r, width, i == m.rowCursor)...)
	}
	return padLines(lines, width, height)
}

// formatRow formats a row as two lines:
//
//	line 1: [>] repo/file:line  [notes marker]
//	line 2:    message (dimmed)
func formatRow(r query.Row, width int, selected bool) []string {
	loc := r.Location()
	marker := ""
	if r.Notes != "" {
		marker = styleNotes.Render(" *")
	}
	locMax := width - 4
	if locMax < 0 {
		locMax = 0
	}
	if runewidth.StringWidth(loc) > locMax {
		// keep the end of the path, it carries the file name
		loc = "..." + truncateLeft(loc, locMax-3)
	}

	var line1 string
	if selected {
		line1 = styleListSelected.Render("> " + loc)
	} else {
		line1 = "  " + loc
	}
	line1 += marker

	msg, _, _ := strings.Cut(r.Message, "\n")
	msg = strings.ReplaceAll(msg, "\t", " ")
	msgMax := width - 4
	if msgMax < 0 {
		msgMax = 0
	}
	if runewidth.StringWidth(msg) > msgMax {
		msg = runewidth.Truncate(msg, msgMax, "")
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(msg)

	return []string{line1, line2}
}

func truncateLeft(s string, w int) string {
	if w <= 0 {
		return ""
	}
	runes := []rune(s)
	width := 0
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if width+rw > w {
			break
		}
		width += rw
		i--
	}
	return string(runes[i:])
}

func emptyPanel(width, height int, text string) string {
	return lipgloss.NewStyle().
		Foreground(colorDim).
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(text)
}

func padLines(lines []string, width, height int) string {
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// adjustListScroll keeps the session cursor visible.
func (m *model) adjustListScroll() {
	m.listOffset = scrollOffset(m.cursor, m.listOffset, m.panelHeight())
}

// adjustRowScroll keeps the row cursor visible.
func (m *model) adjustRowScroll() {
	m.rowOffset = scrollOffset(m.rowCursor, m.rowOffset, m.panelHeight()/linesPerRow)
}

func scrollOffset(cursor, offset, visible int) int {
	if visible < 1 {
		visible = 1
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visible {
		return cursor - visible + 1
	}
	return offset
}
