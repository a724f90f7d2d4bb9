package parse

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// continuation lines of a multi-line diagnostic are indented by four spaces
const continuationIndent = "    "

// ParseFile opens path and parses it with ParseLog.
func ParseFile(path, buildRoot string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLog(f, buildRoot)
}

// ParseLog splits a build log into diagnostics. Lines before the first one
// starting with buildRoot, and lines in the body that neither start with
// buildRoot nor continue the previous diagnostic, are returned as unrecorded.
func ParseLog(r io.Reader, buildRoot string) (*Result, error) {
	root := NormalizeRoot(buildRoot)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	result := &Result{}
	var body []string
	bodyStarted := false

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, root):
			bodyStarted = true
			body = append(body, strings.TrimPrefix(line, root))
		case bodyStarted && strings.HasPrefix(line, continuationIndent):
			body[len(body)-1] += "\n" + line
		default:
			result.Unrecorded = append(result.Unrecorded, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, raw := range body {
		entry, ok := parseEntry(raw)
		if !ok {
			result.Unparsed = append(result.Unparsed, raw)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// parseEntry handles lines like
// "qtxmlpatterns/examples/xmlpatterns/xquery/doc/src/globalVariables.qdoc:28: warning:   EXAMPLE PATH DOES NOT EXIST: xmlpatterns/xquery/globalVariables"
func parseEntry(raw string) (Entry, bool) {
	tokens := strings.Split(raw, ": ")
	if len(tokens) < 3 {
		return Entry{}, false
	}

	location := tokens[0]
	line := -1
	if i := strings.IndexByte(location, ':'); i >= 0 {
		if n, err := strconv.Atoi(strings.SplitN(location[i+1:], ":", 2)[0]); err == nil {
			line = n
		}
		location = location[:i]
	}

	repo, file, _ := strings.Cut(location, "/")

	return Entry{
		Repo: repo,
		File: file,
		Line: line,
		// the message itself may contain ": "
		Message: strings.Join(tokens[1:], ": "),
	}, true
}

// NormalizeRoot makes a non-empty build root end with a slash so the first
// path segment after it is the repository.
func NormalizeRoot(root string) string {
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}

// ParseTimestamp accepts the layouts a user is likely to type or a store
// is likely to hold. The zero time means no layout matched.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
