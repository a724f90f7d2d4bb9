package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/logdiff/internal/query"
)

type Format string

const (
	FormatTSV   Format = "tsv"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTSV, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want tsv, table, json or yaml)", s)
}

type Column int

const (
	ColID Column = iota
	ColRepo
	ColFile
	ColLine
	ColMessage
	ColNotes
)

var columnNames = []string{"id", "repo", "file", "line", "message", "notes"}

func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return "column(" + strconv.Itoa(int(c)) + ")"
	}
	return columnNames[c]
}

func ParseColumn(s string) (Column, error) {
	for i, name := range columnNames {
		if strings.EqualFold(s, name) {
			return Column(i), nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", s)
}

func cell(r query.Row, c Column) string {
	switch c {
	case ColID:
		return strconv.FormatInt(r.ID, 10)
	case ColRepo:
		return r.Repo
	case ColFile:
		return r.File
	case ColLine:
		return strconv.Itoa(r.Line)
	case ColMessage:
		return r.Message
	case ColNotes:
		return r.Notes
	}
	return ""
}

func less(a, b query.Row, c Column) bool {
	switch c {
	case ColID:
		return a.ID < b.ID
	case ColLine:
		return a.Line < b.Line
	}
	return cell(a, c) < cell(b, c)
}

// Sort orders rows in place by one column. Equal rows keep their order in
// either direction.
func Sort(rows []query.Row, c Column, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i], c)
		}
		return less(rows[i], rows[j], c)
	})
}

// WriteTSV writes rows in the format spreadsheets paste: tab separated cells,
// newlines inside a cell turned into spaces, every row ending in a newline.
func WriteTSV(w io.Writer, rows []query.Row, header bool) error {
	var b strings.Builder
	if header {
		b.WriteString(strings.Join(columnNames, "\t"))
		b.WriteByte('\n')
	}
	for _, r := range rows {
		for c := range columnNames {
			if c > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(flatten(cell(r, Column(c))))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// TSV is WriteTSV into a string, without header.
func TSV(rows []query.Row) string {
	var b strings.Builder
	WriteTSV(&b, rows, false)
	return b.String()
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\t", " ")
}

// WriteTable writes aligned columns. With width > 0 the message column is
// truncated so each line fits.
func WriteTable(w io.Writer, rows []query.Row, width int) error {
	cells := make([][]string, len(rows))
	widths := make([]int, len(columnNames))
	for c, name := range columnNames {
		widths[c] = runewidth.StringWidth(name)
	}
	for i, r := range rows {
		cells[i] = make([]string, len(columnNames))
		for c := range columnNames {
			s := flatten(cell(r, Column(c)))
			cells[i][c] = s
			if sw := runewidth.StringWidth(s); sw > widths[c] {
				widths[c] = sw
			}
		}
	}

	if width > 0 {
		fixed := 0
		for c, cw := range widths {
			if Column(c) != ColMessage {
				fixed += cw + 2
			}
		}
		if room := width - fixed - 2; room >= len("message") && widths[ColMessage] > room {
			widths[ColMessage] = room
		}
	}

	var b strings.Builder
	writeLine := func(values []string) {
		var line strings.Builder
		for c, v := range values {
			if c > 0 {
				line.WriteString("  ")
			}
			if runewidth.StringWidth(v) > widths[c] {
				v = runewidth.Truncate(v, widths[c], "...")
			}
			if Column(c) == ColID || Column(c) == ColLine {
				line.WriteString(runewidth.FillLeft(v, widths[c]))
			} else {
				line.WriteString(runewidth.FillRight(v, widths[c]))
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}

	header := make([]string, len(columnNames))
	for c, name := range columnNames {
		header[c] = strings.ToUpper(name)
	}
	writeLine(header)
	for _, r := range cells {
		writeLine(r)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders rows in format f. width only applies to tables.
func Write(w io.Writer, f Format, rows []query.Row, width int) error {
	if rows == nil {
		rows = []query.Row{}
	}
	switch f {
	case FormatTable:
		return WriteTable(w, rows, width)
	case FormatJSON:
		return WriteJSON(w, rows)
	case FormatYAML:
		return WriteYAML(w, rows)
	default:
		return WriteTSV(w, rows, false)
	}
}
