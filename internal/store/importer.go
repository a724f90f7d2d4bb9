package store

import (
	"context"
	"fmt"

	"github.com/Zuo-Peng/logdiff/internal/parse"
)

const defaultProgressEvery = 1000

type ImportOptions struct {
	// Progress, if set, is called every ProgressEvery entries and once at the end.
	Progress      func(done, total int)
	ProgressEvery int
}

type ImportResult struct {
	SessionID   int64
	Label       string
	Occurrences int
	NewRepos    int
	NewFiles    int
	NewMessages int
	NewErrors   int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("session=%q occurrences=%d new repos=%d files=%d messages=%d errors=%d",
		r.Label, r.Occurrences, r.NewRepos, r.NewFiles, r.NewMessages, r.NewErrors)
}

// Import records a session and one occurrence per entry in a single
// transaction. A session whose label already exists is rejected before
// anything is written. On any error the store and the identity cache are
// left exactly as they were.
func (d *DB) Import(ctx context.Context, sess parse.Session, opts ImportOptions) (ImportResult, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	label := Label(sess.Timestamp, sess.Comment)
	result := ImportResult{Label: label}

	d.mu.RLock()
	_, exists := d.dir.ids[label]
	d.mu.RUnlock()
	if exists {
		return result, fmt.Errorf("%w: %s", ErrDuplicateSession, label)
	}

	every := opts.ProgressEvery
	if every <= 0 {
		every = defaultProgressEvery
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("import: begin: %w", err)
	}
	defer tx.Rollback()

	sessionID, err := d.insertRow(ctx, tx, "Sessions",
		field{"timestamp", sess.Timestamp.Format(timestampLayout)},
		field{"comments", sess.Comment})
	if err != nil {
		return result, fmt.Errorf("import: %w", err)
	}

	// the shared cache is read-locked for lookups only; new ids are staged
	d.mu.RLock()
	staged := d.cache.stage()
	d.mu.RUnlock()

	for i, e := range sess.Entries {
		repoID, ok := staged.repo(e.Repo)
		if !ok {
			if repoID, err = d.insertRow(ctx, tx, "Repos", field{"repo", e.Repo}); err != nil {
				return result, fmt.Errorf("import entry %d: %w", i, err)
			}
			staged.pending.repos[e.Repo] = repoID
			result.NewRepos++
		}

		msgID, ok := staged.message(e.Message)
		if !ok {
			if msgID, err = d.insertRow(ctx, tx, "Messages", field{"message", e.Message}); err != nil {
				return result, fmt.Errorf("import entry %d: %w", i, err)
			}
			staged.pending.messages[e.Message] = msgID
			result.NewMessages++
		}

		fileID, ok := staged.file(repoID, e.File)
		if !ok {
			if fileID, err = d.insertRow(ctx, tx, "Files", field{"repo", repoID}, field{"file", e.File}); err != nil {
				return result, fmt.Errorf("import entry %d: %w", i, err)
			}
			staged.pending.files[fileKey{Repo: repoID, Path: e.File}] = fileID
			result.NewFiles++
		}

		errorID, ok := staged.errorOf(fileID, msgID)
		if !ok {
			if errorID, err = d.insertRow(ctx, tx, "Errors", field{"file", fileID}, field{"message", msgID}); err != nil {
				return result, fmt.Errorf("import entry %d: %w", i, err)
			}
			staged.pending.errors[errorKey{File: fileID, Message: msgID}] = errorID
			result.NewErrors++
		}

		if _, err := d.insertRow(ctx, tx, "Main",
			field{"session", sessionID},
			field{"error", errorID},
			field{"line", e.Line}); err != nil {
			return result, fmt.Errorf("import entry %d: %w", i, err)
		}
		result.Occurrences++

		if opts.Progress != nil && (i+1)%every == 0 {
			opts.Progress(i+1, len(sess.Entries))
		}
	}

	if err := d.hooks.commit(tx); err != nil {
		return result, fmt.Errorf("import: commit: %w", err)
	}

	d.mu.Lock()
	staged.commit()
	d.mu.Unlock()

	if opts.Progress != nil {
		opts.Progress(len(sess.Entries), len(sess.Entries))
	}

	result.SessionID = sessionID
	d.logger.Debug("session imported", "label", label, "id", sessionID, "occurrences", result.Occurrences,
		"new_repos", result.NewRepos, "new_files", result.NewFiles,
		"new_messages", result.NewMessages, "new_errors", result.NewErrors)

	if err := d.refreshDirectory(ctx); err != nil {
		return result, fmt.Errorf("import committed, refresh sessions: %w", err)
	}
	return result, nil
}
