package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gale8/internal/config"
	"gale8/internal/logging"
	"gale8/internal/services"
)

// Content types used when publishing objects.
const (
	ContentTypeJSON = "application/json"
	ContentTypeMPEG = "audio/mpeg"
	ContentTypeVTT  = "text/vtt"
)

// Object describes one stored blob.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is the blob store holding recordings, cue files, the catalog and the
// assembled outputs. Keys always use forward slashes.
type Store interface {
	// Get returns the object body. Missing keys yield an error matching
	// services.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the object at key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// List returns the objects whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// Open builds the store selected by the storage configuration.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "open", "missing configuration", nil)
	}
	logger = logging.NewComponentLogger(logger, "storage")
	switch cfg.Storage.Backend {
	case config.BackendLocal:
		logger.Debug("using local store", logging.String("dir", cfg.Storage.LocalDir))
		return NewLocal(cfg.Storage.LocalDir)
	case config.BackendS3:
		logger.Debug("using s3 store",
			logging.String("bucket", cfg.Storage.Bucket),
			logging.String("region", cfg.Storage.Region),
		)
		return NewS3(ctx, S3Options{
			Bucket:         cfg.Storage.Bucket,
			Region:         cfg.Storage.Region,
			Endpoint:       cfg.Storage.Endpoint,
			AccessKey:      cfg.Storage.AccessKey,
			SecretKey:      cfg.Storage.SecretKey,
			ForcePathStyle: cfg.Storage.ForcePathStyle,
			PublicRead:     cfg.Storage.PublicRead,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "storage", "open",
			fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend), nil)
	}
}

func notFound(key string, err error) error {
	return services.Wrap(services.ErrNotFound, "storage", "get", fmt.Sprintf("object %q", key), err)
}
