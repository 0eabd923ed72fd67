package testsupport

import (
	"path/filepath"
	"testing"

	"gale8/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test and
// a local store below the same directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CatalogLock = filepath.Join(base, "cache", "catalog.lock")
	cfg.Storage.Backend = config.BackendLocal
	cfg.Storage.LocalDir = filepath.Join(base, "store")
	cfg.Detection.ModelPath = filepath.Join(base, "model")
	cfg.Detection.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithEndScan selects the end-boundary scan mode.
func WithEndScan(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Assembly.EndScan = mode
	}
}
