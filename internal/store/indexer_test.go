package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/logdiff/internal/parse"
	"github.com/Zuo-Peng/logdiff/internal/scan"
)

func writeLog(t *testing.T, dir, name, content string, mtime time.Time) scan.FileInfo {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return scan.FileInfo{Path: path, Mtime: mtime, Size: int64(len(content))}
}

func TestImportAll(t *testing.T) {
	d := newTestDB(t)
	dir := t.TempDir()

	good := "make[1]: Entering directory\n" +
		"/build/qtbase/src/corelib/qobject.cpp:120: warning: Undocumented parameter 'x'\n" +
		"/build/qtsvg/src/svg/qsvg.cpp:7: warning: No such file: qsvg.h\n"
	other := "/build/qtbase/src/corelib/qobject.cpp:125: warning: Undocumented parameter 'x'\n"

	files := []scan.FileInfo{
		writeLog(t, dir, "a.log", good, at(9, 0, 10)),
		writeLog(t, dir, "empty.log", "nothing to see\n", at(9, 30, 0)),
		// same minute as a.log
		writeLog(t, dir, "b.log", other, at(9, 0, 50)),
		writeLog(t, dir, "c.log", other, at(10, 0, 0)),
		{Path: filepath.Join(dir, "missing.log"), Mtime: at(11, 0, 0)},
	}

	var seen []string
	stats, err := ImportAll(context.Background(), d, files, BatchOptions{
		BuildRoot: "/build",
		OnFile: func(fi scan.FileInfo, parsed *parse.Result, res ImportResult, err error) {
			seen = append(seen, filepath.Base(fi.Path))
		},
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Scanned: 5, Imported: 2, Duplicates: 1, Empty: 1, Errors: 1}, stats)
	assert.Equal(t, []string{"a.log", "empty.log", "b.log", "c.log", "missing.log"}, seen)
	assert.Equal(t, []string{"2014-03-09 10:00", "2014-03-09 09:00"}, d.Sessions())

	c := counts(t, d)
	assert.Equal(t, 2, c.Repos)
	assert.Equal(t, 2, c.Errors)
	assert.Equal(t, 3, c.Occurrences)
}

func TestImportAll_TimestampAndComment(t *testing.T) {
	d := newTestDB(t)
	f := writeLog(t, t.TempDir(), "a.log", "/b/r/f.cpp:1: warning: w\n", at(9, 0, 0))

	stats, err := ImportAll(context.Background(), d, []scan.FileInfo{f}, BatchOptions{
		BuildRoot: "/b/",
		Comment:   "qt5",
		Timestamp: time.Date(2020, 5, 1, 12, 30, 0, 0, time.Local),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, []string{"2020-05-01 12:30 - qt5"}, d.Sessions())
}

func TestImportAll_Cancelled(t *testing.T) {
	d := newTestDB(t)
	f := writeLog(t, t.TempDir(), "a.log", "/b/r/f.cpp:1: warning: w\n", at(9, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ImportAll(ctx, d, []scan.FileInfo{f}, BatchOptions{BuildRoot: "/b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.Sessions())
}

func TestIsNoEntries(t *testing.T) {
	d := newTestDB(t)
	f := writeLog(t, t.TempDir(), "a.log", "no diagnostics\n", at(9, 0, 0))

	var got error
	_, err := ImportAll(context.Background(), d, []scan.FileInfo{f}, BatchOptions{
		BuildRoot: "/b",
		OnFile:    func(_ scan.FileInfo, _ *parse.Result, _ ImportResult, err error) { got = err },
	})
	require.NoError(t, err)
	assert.True(t, IsNoEntries(got))
}
