package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/logdiff/internal/query"
)

const (
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
	colorLoc     = "\033[1;34m" // bold blue
	colorWarning = "\033[1;33m" // bold yellow
	colorError   = "\033[1;31m" // bold red
	colorNotes   = "\033[1;32m" // bold green
)

// Detail renders one row for the preview pane: location, the full message
// (continuation lines kept) and notes. Lines are wrapped at width.
func Detail(r query.Row, width int) string {
	var b strings.Builder
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, width) {
			b.WriteString(wl)
			b.WriteString("\n")
		}
	}

	writeLine(fmt.Sprintf("%s%s%s  %s#%d%s", colorLoc, r.Location(), colorReset, colorDim, r.ID, colorReset))
	writeLine("")

	for i, l := range strings.Split(r.Message, "\n") {
		if i == 0 {
			l = highlightKind(l)
		}
		writeLine(indentLines(l, "  "))
	}

	writeLine("")
	if r.Notes == "" {
		writeLine(colorDim + "(no notes)" + colorReset)
	} else {
		writeLine(colorNotes + "NOTES" + colorReset)
		for _, l := range strings.Split(r.Notes, "\n") {
			writeLine(indentLines(l, "  "))
		}
	}
	return b.String()
}

// highlightKind colours a leading "warning:" or "error:".
func highlightKind(line string) string {
	kind, rest, ok := strings.Cut(line, ":")
	if !ok {
		return line
	}
	switch strings.TrimSpace(strings.ToLower(kind)) {
	case "warning":
		return colorWarning + kind + ":" + colorReset + rest
	case "error", "fatal error":
		return colorError + kind + ":" + colorReset + rest
	}
	return line
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}
