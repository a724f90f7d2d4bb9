package open

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/logdiff/internal/query"
)

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"vim", []string{"vim", "+12", "/src/a.cpp"}},
		{"/usr/bin/nvim", []string{"/usr/bin/nvim", "+12", "/src/a.cpp"}},
		{"code", []string{"code", "--goto", "/src/a.cpp:12"}},
		{"less", []string{"less", "+12", "/src/a.cpp"}},
		{"nano", []string{"nano", "+12", "/src/a.cpp"}},
		{"gedit", []string{"gedit", "/src/a.cpp"}},
	}
	for _, tt := range tests {
		t.Run(tt.editor, func(t *testing.T) {
			cmd := editorCommand(tt.editor, "/src/a.cpp", 12)
			assert.Equal(t, tt.want, cmd.Args)
		})
	}
}

func TestCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "qtbase", "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "qtbase", "src", "a.cpp"), []byte("int x;\n"), 0o644))
	t.Setenv("EDITOR", "vim")

	cmd, err := Command(root, query.Row{Repo: "qtbase", File: "src/a.cpp", Line: -1})
	require.NoError(t, err)
	assert.Equal(t, []string{"vim", "+1", filepath.Join(root, "qtbase", "src", "a.cpp")}, cmd.Args)

	_, err = Command(root, query.Row{Repo: "qtbase", File: "src/missing.cpp", Line: 3})
	assert.ErrorContains(t, err, "file not found")

	_, err = Command("", query.Row{Repo: "qtbase", File: "src/a.cpp"})
	assert.Error(t, err)
}
