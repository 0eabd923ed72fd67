package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gale8/internal/catalog"
	"gale8/internal/config"
	"gale8/internal/cuestore"
	"gale8/internal/detection"
	"gale8/internal/logging"
	"gale8/internal/recognizer"
	"gale8/internal/services"
	"gale8/internal/storage"
	"gale8/internal/transcoder"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	runID string
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		runID:        uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.configPath = resolved
		c.configExists = exists
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		current := logging.DailyLogPath(cfg.Paths.LogDir, time.Now())
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, current)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// runContext tags the command context with this invocation's run id.
func (c *commandContext) runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return services.WithRunID(ctx, c.runID)
}

func (c *commandContext) openStore(ctx context.Context) (storage.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, cfg, logger)
}

func (c *commandContext) layout() detection.Layout {
	cfg := c.config
	return detection.Layout{ArchivePrefix: cfg.Storage.ArchivePrefix, CuePrefix: cfg.Storage.CuePrefix}
}

func (c *commandContext) catalogStore(store storage.Store) *catalog.Store {
	return catalog.NewStore(store, c.config.Storage.CatalogKey, c.config.Paths.CatalogLock, c.logger)
}

// detectionEnv is everything a detection run needs; close releases it.
type detectionEnv struct {
	runner *detection.Runner
	cache  *cuestore.Store
	pool   *recognizer.Pool
	model  recognizer.Model
}

func (e *detectionEnv) close() {
	if e.pool != nil {
		_ = e.pool.Close()
	}
	if e.model != nil {
		_ = e.model.Close()
	}
	if e.cache != nil {
		_ = e.cache.Close()
	}
}

// openDetection wires the runner. When requireModel is false a missing or
// unusable speech model only disables fresh detection.
func (c *commandContext) openDetection(store storage.Store, requireModel bool) (*detectionEnv, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	env := &detectionEnv{}
	cache, err := cuestore.OpenFromConfig(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "cue cache unavailable", "cue_cache_failed",
			logging.String("path", cfg.CueCachePath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the cache file to rebuild it"),
			logging.String(logging.FieldImpact, "cue files are read from the store every time"),
		)
	} else {
		env.cache = cache
	}

	model, err := recognizer.OpenModel(cfg.Detection.ModelPath)
	if err == nil {
		env.model = model
		env.pool, err = recognizer.NewPool(model, cfg.Detection.Workers, cfg.Detection.SampleRate)
	}
	if err != nil {
		if requireModel {
			env.close()
			return nil, err
		}
		logging.WarnWithContext(logger, "speech model unavailable; using published cues only", "model_unavailable",
			logging.String("model_path", cfg.Detection.ModelPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run gale8 doctor"),
			logging.String(logging.FieldImpact, "recordings without a cue file are skipped"),
		)
	}

	decoder := transcoder.NewFromConfig(cfg, logger)
	detector := detection.NewDetector(decoder, cfg.Detection.SampleRate, cfg.Detection.Triggers, logger)
	var cacheArg detection.Cache
	if env.cache != nil {
		cacheArg = env.cache
	}
	env.runner = detection.NewRunner(detector, env.pool, store, cacheArg, c.layout(), logger)
	return env, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
