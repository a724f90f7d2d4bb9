package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/logdiff/internal/query"
)

// SourcePath is where the row's file lives in a source checkout.
func SourcePath(sourceRoot string, r query.Row) string {
	return filepath.Join(sourceRoot, r.Repo, filepath.FromSlash(r.File))
}

// Command builds the editor invocation for r without running it.
func Command(sourceRoot string, r query.Row) (*exec.Cmd, error) {
	if sourceRoot == "" {
		return nil, fmt.Errorf("source_root is not configured")
	}

	filePath := SourcePath(sourceRoot, r)
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}

	lineNum := r.Line
	if lineNum < 1 {
		lineNum = 1
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return editorCommand(editor, filePath, lineNum), nil
}

// Open runs the editor on the terminal and waits for it to exit.
func Open(sourceRoot string, r query.Row) error {
	cmd, err := Command(sourceRoot, r)
	if err != nil {
		return err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"), strings.Contains(editor, "emacs"), strings.Contains(editor, "nano"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}
