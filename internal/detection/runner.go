package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gale8/internal/logging"
	"gale8/internal/recognizer"
	"gale8/internal/services"
	"gale8/internal/storage"
)

// Cache keeps detection results close at hand, keyed by recording file name.
type Cache interface {
	Get(ctx context.Context, file string) (Result, bool, error)
	Put(ctx context.Context, result Result) error
}

// Layout names the store prefixes recordings and cue files live under.
type Layout struct {
	ArchivePrefix string
	CuePrefix     string
}

// RecordingKey maps a bare file name to its archive key. Values that already
// contain a slash are treated as keys.
func (l Layout) RecordingKey(nameOrKey string) string {
	nameOrKey = strings.TrimLeft(strings.TrimSpace(nameOrKey), "/")
	if strings.Contains(nameOrKey, "/") {
		return nameOrKey
	}
	return l.ArchivePrefix + nameOrKey
}

// CueKey is where the result for file is published.
func (l Layout) CueKey(file string) string {
	return l.CuePrefix + path.Base(file) + ".json"
}

// Outcome pairs a requested recording with its detection result.
type Outcome struct {
	Key    string
	Result Result
	Err    error
}

// Runner fetches recordings from the store, detects them on a pool of
// recognizers and publishes the results.
type Runner struct {
	detector *Detector
	pool     *recognizer.Pool
	store    storage.Store
	cache    Cache
	layout   Layout
	logger   *slog.Logger
}

// NewRunner wires a runner. cache may be nil. pool may be nil when no
// recognizer is available; Lookup then serves published results only.
func NewRunner(detector *Detector, pool *recognizer.Pool, store storage.Store, cache Cache, layout Layout, logger *slog.Logger) *Runner {
	return &Runner{
		detector: detector,
		pool:     pool,
		store:    store,
		cache:    cache,
		layout:   layout,
		logger:   logging.NewComponentLogger(logger, "detection"),
	}
}

// Layout returns the key layout the runner publishes with.
func (r *Runner) Layout() Layout { return r.layout }

// Run detects every recording concurrently, one recognizer per worker.
// Outcomes are returned in the order of keys. Failures of individual
// recordings are reported in their Outcome; the returned error is set only
// when the batch itself could not continue.
func (r *Runner) Run(ctx context.Context, keys []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(keys))
	limit := 1
	if r.pool != nil {
		limit = r.pool.Size()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, key := range keys {
		key = r.layout.RecordingKey(key)
		outcomes[i].Key = key
		g.Go(func() error {
			result, err := r.DetectOne(gctx, key)
			outcomes[i].Result = result
			outcomes[i].Err = err
			if err != nil && !services.Skippable(err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// DetectOne runs detection for a single recording and publishes the result.
// A missing recording yields an empty result and an ErrNotFound error.
func (r *Runner) DetectOne(ctx context.Context, key string) (Result, error) {
	key = r.layout.RecordingKey(key)
	file := path.Base(key)
	ctx = services.WithRecording(ctx, file)
	logger := logging.WithContext(ctx, r.logger)

	audio, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logging.WarnWithContext(logger, "recording not found; skipping", "recording_missing",
				logging.String("key", key),
				logging.String(logging.FieldErrorHint, "check the archive prefix and file name"),
				logging.String(logging.FieldImpact, "no cues for this recording"),
			)
		}
		return Result{File: file, Cues: CueSet{}}, err
	}

	if r.pool == nil {
		return Result{File: file, Cues: CueSet{}}, services.Wrap(services.ErrNotFound, "detection", "detect",
			fmt.Sprintf("no cue file for %s and no recognizer available", file), nil)
	}
	rec, err := r.pool.Acquire(ctx)
	if err != nil {
		return Result{File: file, Cues: CueSet{}}, err
	}
	started := time.Now()
	result, detectErr := r.detector.Detect(ctx, rec, file, bytes.NewReader(audio))
	r.pool.Release(rec)

	if detectErr != nil {
		if !errors.Is(detectErr, services.ErrExternalTool) || result.Length == 0 {
			return result, detectErr
		}
		logging.WarnWithContext(logger, "decoder failed part way; keeping partial cues", "detection_partial",
			logging.Error(detectErr),
			logging.Float64("length", result.Length),
			logging.String(logging.FieldErrorHint, "inspect the recording with ffprobe"),
			logging.String(logging.FieldImpact, "cues cover only the decoded part of the recording"),
		)
	}

	if err := r.publish(ctx, result); err != nil {
		return result, err
	}
	logger.Info("cues detected",
		logging.String(logging.FieldEventType, "cues_detected"),
		logging.Float64("length", result.Length),
		logging.String("keywords", strings.Join(result.Cues.Keywords(), ",")),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return result, detectErr
}

// Lookup returns the result for file from the cache, then the published cue
// file, and finally by detecting the recording afresh.
func (r *Runner) Lookup(ctx context.Context, file string) (Result, error) {
	file = path.Base(file)
	if r.cache != nil {
		result, ok, err := r.cache.Get(ctx, file)
		if err != nil {
			logging.WarnWithContext(r.logger, "cue cache read failed", "cue_cache_failed",
				logging.String(logging.FieldRecording, file),
				logging.Error(err),
				logging.String(logging.FieldImpact, "falling back to the published cue file"),
			)
		} else if ok {
			return result, nil
		}
	}

	data, err := r.store.Get(ctx, r.layout.CueKey(file))
	switch {
	case err == nil:
		result, decodeErr := Decode(data)
		if decodeErr != nil {
			return Result{}, services.Wrap(services.ErrMalformedInput, "detection", "lookup",
				fmt.Sprintf("cue file for %s", file), decodeErr)
		}
		if result.File == "" {
			result.File = file
		}
		r.remember(ctx, result)
		return result, nil
	case errors.Is(err, services.ErrNotFound):
		return r.DetectOne(ctx, r.layout.RecordingKey(file))
	default:
		return Result{}, err
	}
}

func (r *Runner) publish(ctx context.Context, result Result) error {
	data, err := result.Encode()
	if err != nil {
		return fmt.Errorf("encode cues for %s: %w", result.File, err)
	}
	if err := r.store.Put(ctx, r.layout.CueKey(result.File), data, storage.ContentTypeJSON); err != nil {
		return fmt.Errorf("publish cues for %s: %w", result.File, err)
	}
	r.remember(ctx, result)
	return nil
}

func (r *Runner) remember(ctx context.Context, result Result) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(ctx, result); err != nil {
		logging.WarnWithContext(r.logger, "cue cache write failed", "cue_cache_failed",
			logging.String(logging.FieldRecording, result.File),
			logging.Error(err),
			logging.String(logging.FieldImpact, "result will be read from the store next time"),
		)
	}
}
