package cuestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"gale8/internal/config"
	"gale8/internal/detection"
)

// Store is a detection.Cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ detection.Cache = (*Store)(nil)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// OpenFromConfig opens the cache at the configured location.
func OpenFromConfig(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return Open(cfg.CueCachePath())
}

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached result for file.
func (s *Store) Get(ctx context.Context, file string) (detection.Result, bool, error) {
	var document string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM cue_results WHERE file = ?", file).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return detection.Result{}, false, nil
	}
	if err != nil {
		return detection.Result{}, false, fmt.Errorf("query cues for %s: %w", file, err)
	}
	result, err := detection.Decode([]byte(document))
	if err != nil {
		return detection.Result{}, false, fmt.Errorf("decode cached cues for %s: %w", file, err)
	}
	return result, true, nil
}

// Put stores or replaces the result for result.File.
func (s *Store) Put(ctx context.Context, result detection.Result) error {
	if strings.TrimSpace(result.File) == "" {
		return errors.New("cache result: file name is required")
	}
	document, err := result.Encode()
	if err != nil {
		return fmt.Errorf("encode cues for %s: %w", result.File, err)
	}
	return retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
INSERT INTO cue_results (file, length, keywords, document, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(file) DO UPDATE SET
    length = excluded.length,
    keywords = excluded.keywords,
    document = excluded.document,
    updated_at = excluded.updated_at`,
			result.File,
			result.Length,
			strings.Join(result.Cues.Keywords(), ","),
			string(document),
			time.Now().UTC().Format(time.RFC3339),
		)
		return execErr
	})
}

// Delete drops the cached result for file. Deleting an unknown file is not an error.
func (s *Store) Delete(ctx context.Context, file string) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM cue_results WHERE file = ?", file)
		return err
	})
}

// List returns every cached result ordered by file name.
func (s *Store) List(ctx context.Context) ([]detection.Result, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT file, document FROM cue_results ORDER BY file")
	if err != nil {
		return nil, fmt.Errorf("list cues: %w", err)
	}
	defer rows.Close()

	var results []detection.Result
	for rows.Next() {
		var file, document string
		if err := rows.Scan(&file, &document); err != nil {
			return nil, fmt.Errorf("scan cues: %w", err)
		}
		result, err := detection.Decode([]byte(document))
		if err != nil {
			return nil, fmt.Errorf("decode cached cues for %s: %w", file, err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cues: %w", err)
	}
	return results, nil
}

// Count reports how many results are cached.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM cue_results").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cues: %w", err)
	}
	return n, nil
}
