package tui

import "github.com/charmbracelet/lipgloss"

// Session A is blue and session B green wherever they appear.
var (
	colorPrimary   = lipgloss.Color("12")  // session A
	colorSecondary = lipgloss.Color("10")  // session B, notes
	colorDim       = lipgloss.Color("240") // messages under a location
	colorHighlight = lipgloss.Color("11")  // cursor, titles
	colorBorder    = lipgloss.Color("238")
	colorDanger    = lipgloss.Color("9")

	bold = lipgloss.NewStyle().Bold(true)

	styleMarkA = bold.Foreground(colorPrimary)
	styleMarkB = bold.Foreground(colorSecondary)
	styleNotes = lipgloss.NewStyle().Foreground(colorSecondary)

	styleInputPrompt = styleMarkA
	styleInput       = styleMarkA

	styleListSelected = bold.Foreground(colorHighlight)
	styleListNormal   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	styleTitle        = styleListSelected

	stylePanelBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder)
	styleActiveBorder = stylePanelBorder.BorderForeground(colorPrimary)

	styleStatusBar   = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	styleStatusError = styleStatusBar.Foreground(colorDanger)
)
