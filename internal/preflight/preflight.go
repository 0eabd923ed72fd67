package preflight

import (
	"context"

	"gale8/internal/config"
	"gale8/internal/storage"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks a detection or assembly run depends on. store
// may be nil when it could not be opened; the failure is reported as a check.
func RunAll(ctx context.Context, cfg *config.Config, store storage.Store) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(cfg) {
		if status.Optional {
			continue
		}
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: detail})
	}

	results = append(results,
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckModel(cfg.Detection.ModelPath),
	)
	if cfg.Storage.Backend == config.BackendLocal {
		results = append(results, CheckDirectoryAccess("Local store", cfg.Storage.LocalDir))
	}
	results = append(results, CheckStore(ctx, "Store", store, cfg.Storage.ArchivePrefix))
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
