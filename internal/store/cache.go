package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// fileKey identifies a file within its repository.
type fileKey struct {
	Repo int64
	Path string
}

// errorKey identifies an error by its (file, message) pair. A struct key
// has no width limit on either component.
type errorKey struct {
	File    int64
	Message int64
}

// Cache maps natural keys to row ids. Entries are only ever added: the
// dimension tables they mirror are append-only.
type Cache struct {
	repos    map[string]int64
	files    map[fileKey]int64
	messages map[string]int64
	errors   map[errorKey]int64
}

func newCache() *Cache {
	return &Cache{
		repos:    make(map[string]int64),
		files:    make(map[fileKey]int64),
		messages: make(map[string]int64),
		errors:   make(map[errorKey]int64),
	}
}

// load scans each dimension table once. Rows are read in id order and the
// first id seen for a key wins, so legacy duplicates resolve to the oldest row.
func (c *Cache) load(ctx context.Context, q sqlx.QueryerContext) error {
	var repos []struct {
		ID   int64  `db:"id"`
		Name string `db:"repo"`
	}
	if err := sqlx.SelectContext(ctx, q, &repos, "SELECT id, COALESCE(repo, '') AS repo FROM Repos ORDER BY id"); err != nil {
		return fmt.Errorf("repos: %w", err)
	}
	for _, r := range repos {
		if _, ok := c.repos[r.Name]; !ok {
			c.repos[r.Name] = r.ID
		}
	}

	var files []struct {
		ID   int64  `db:"id"`
		Repo int64  `db:"repo"`
		Path string `db:"file"`
	}
	if err := sqlx.SelectContext(ctx, q, &files, "SELECT id, COALESCE(repo, 0) AS repo, COALESCE(file, '') AS file FROM Files ORDER BY id"); err != nil {
		return fmt.Errorf("files: %w", err)
	}
	for _, f := range files {
		k := fileKey{Repo: f.Repo, Path: f.Path}
		if _, ok := c.files[k]; !ok {
			c.files[k] = f.ID
		}
	}

	var messages []struct {
		ID   int64  `db:"id"`
		Text string `db:"message"`
	}
	if err := sqlx.SelectContext(ctx, q, &messages, "SELECT id, COALESCE(message, '') AS message FROM Messages ORDER BY id"); err != nil {
		return fmt.Errorf("messages: %w", err)
	}
	for _, m := range messages {
		if _, ok := c.messages[m.Text]; !ok {
			c.messages[m.Text] = m.ID
		}
	}

	var errs []struct {
		ID      int64 `db:"id"`
		File    int64 `db:"file"`
		Message int64 `db:"message"`
	}
	if err := sqlx.SelectContext(ctx, q, &errs, "SELECT id, COALESCE(file, 0) AS file, COALESCE(message, 0) AS message FROM Errors ORDER BY id"); err != nil {
		return fmt.Errorf("errors: %w", err)
	}
	for _, e := range errs {
		k := errorKey{File: e.File, Message: e.Message}
		if _, ok := c.errors[k]; !ok {
			c.errors[k] = e.ID
		}
	}

	return nil
}

func (c *Cache) Repo(name string) (int64, bool) {
	id, ok := c.repos[name]
	return id, ok
}

func (c *Cache) File(repoID int64, path string) (int64, bool) {
	id, ok := c.files[fileKey{Repo: repoID, Path: path}]
	return id, ok
}

func (c *Cache) Message(text string) (int64, bool) {
	id, ok := c.messages[text]
	return id, ok
}

func (c *Cache) Error(fileID, messageID int64) (int64, bool) {
	id, ok := c.errors[errorKey{File: fileID, Message: messageID}]
	return id, ok
}

// stagedCache collects ids created inside an open transaction. Lookups see
// staged entries first; nothing reaches the shared cache until commit.
type stagedCache struct {
	base    *Cache
	pending *Cache
}

func (c *Cache) stage() *stagedCache {
	return &stagedCache{base: c, pending: newCache()}
}

func (s *stagedCache) repo(name string) (int64, bool) {
	if id, ok := s.pending.Repo(name); ok {
		return id, true
	}
	return s.base.Repo(name)
}

func (s *stagedCache) file(repoID int64, path string) (int64, bool) {
	if id, ok := s.pending.File(repoID, path); ok {
		return id, true
	}
	return s.base.File(repoID, path)
}

func (s *stagedCache) message(text string) (int64, bool) {
	if id, ok := s.pending.Message(text); ok {
		return id, true
	}
	return s.base.Message(text)
}

func (s *stagedCache) errorOf(fileID, messageID int64) (int64, bool) {
	if id, ok := s.pending.Error(fileID, messageID); ok {
		return id, true
	}
	return s.base.Error(fileID, messageID)
}

// commit merges staged entries into the shared cache. Call only after the
// transaction that created them has committed.
func (s *stagedCache) commit() {
	for k, v := range s.pending.repos {
		s.base.repos[k] = v
	}
	for k, v := range s.pending.files {
		s.base.files[k] = v
	}
	for k, v := range s.pending.messages {
		s.base.messages[k] = v
	}
	for k, v := range s.pending.errors {
		s.base.errors[k] = v
	}
}
