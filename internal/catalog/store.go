package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"gale8/internal/logging"
	"gale8/internal/services"
	"gale8/internal/storage"
)

const lockRetryDelay = 100 * time.Millisecond

// Store reads and writes the catalog document as a whole. Updates hold a
// file lock so concurrent gale8 processes on one host do not lose appends.
type Store struct {
	blobs    storage.Store
	key      string
	lockPath string
	logger   *slog.Logger
}

// NewStore persists the catalog under key in blobs. lockPath may be empty to
// skip locking.
func NewStore(blobs storage.Store, key, lockPath string, logger *slog.Logger) *Store {
	return &Store{
		blobs:    blobs,
		key:      key,
		lockPath: lockPath,
		logger:   logging.NewComponentLogger(logger, "catalog"),
	}
}

// Key returns the object key of the catalog document.
func (s *Store) Key() string { return s.key }

// Load reads the catalog. A missing document yields ErrNotFound.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	c := New()
	if err := c.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Save replaces the catalog document.
func (s *Store) Save(ctx context.Context, c *Catalog) error {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := s.blobs.Put(ctx, s.key, data, storage.ContentTypeJSON); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	s.logger.Info("catalog saved",
		logging.String(logging.FieldEventType, "catalog_saved"),
		logging.String("key", s.key),
		logging.Int("recordings", c.Len()),
	)
	return nil
}

// Update loads the catalog, applies fn and saves the result under the file
// lock. A missing document starts from an empty catalog. Nothing is written
// when fn fails.
func (s *Store) Update(ctx context.Context, fn func(*Catalog) error) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.Load(ctx)
	if errors.Is(err, services.ErrNotFound) {
		logging.WarnWithContext(s.logger, "catalog not found; starting a new one", "catalog_missing",
			logging.String("key", s.key),
			logging.String(logging.FieldErrorHint, "run gale8 catalog rebuild if the archive already holds recordings"),
			logging.String(logging.FieldImpact, "catalog will only list recordings added from now on"),
		)
		c, err = New(), nil
	}
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.Save(ctx, c)
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	if s.lockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(s.lockPath)
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire catalog lock: %s is held by another process", s.lockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release catalog lock", logging.Error(err))
		}
	}, nil
}
