package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type FileInfo struct {
	Path  string
	Mtime time.Time
	Size  int64
}

// DefaultExts are the extensions picked up when a directory is scanned.
var DefaultExts = []string{".log", ".txt"}

// ScanPaths expands the given files and directories into log files, oldest
// first. Explicit files are taken whatever their extension; directories are
// walked for files with one of exts.
func ScanPaths(paths []string, exts []string) ([]FileInfo, error) {
	if len(exts) == 0 {
		exts = DefaultExts
	}

	var files []FileInfo
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, FileInfo{Path: p, Mtime: info.ModTime(), Size: info.Size()})
			continue
		}
		found, err := scanDir(p, exts)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Mtime.Before(files[j].Mtime)
	})
	return files, nil
}

func scanDir(root string, exts []string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExt(path, exts) {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
