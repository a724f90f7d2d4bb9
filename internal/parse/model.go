package parse

import "time"

// Entry is one diagnostic reported by a build.
type Entry struct {
	Repo    string
	File    string
	Line    int // -1 when the log gives no line
	Message string
}

// Session is one build-log snapshot ready for import.
type Session struct {
	Timestamp time.Time
	Comment   string
	Entries   []Entry
}

type Result struct {
	Entries    []Entry
	Unrecorded []string // lines outside the diagnostics body
	Unparsed   []string // body lines that do not look like "path:line: message"
}
