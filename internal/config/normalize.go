package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	if err := c.normalizeDetection(); err != nil {
		return err
	}
	c.normalizeTranscoder()
	c.normalizeCatalog()
	c.normalizeAssembly()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CatalogLock) == "" {
		c.Paths.CatalogLock = filepath.Join(c.Paths.CacheDir, defaultCatalogLockName)
	}
	if c.Paths.CatalogLock, err = expandPath(c.Paths.CatalogLock); err != nil {
		return fmt.Errorf("paths.catalog_lock: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	var err error
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultLocalStorageDir
	}
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	if c.Storage.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok && strings.TrimSpace(value) != "" {
			c.Storage.Region = strings.TrimSpace(value)
		} else {
			c.Storage.Region = defaultS3Region
		}
	}
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.Storage.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.Storage.SecretKey = strings.TrimSpace(value)
		}
	}
	c.Storage.ArchivePrefix = normalizePrefix(c.Storage.ArchivePrefix, defaultArchivePrefix)
	c.Storage.CuePrefix = normalizePrefix(c.Storage.CuePrefix, defaultCuePrefix)
	c.Storage.CatalogKey = strings.TrimLeft(strings.TrimSpace(c.Storage.CatalogKey), "/")
	if c.Storage.CatalogKey == "" {
		c.Storage.CatalogKey = defaultCatalogKey
	}
	c.Storage.StreamKey = strings.TrimLeft(strings.TrimSpace(c.Storage.StreamKey), "/")
	if c.Storage.StreamKey == "" {
		c.Storage.StreamKey = defaultStreamKey
	}
	c.Storage.CaptionsKey = strings.TrimLeft(strings.TrimSpace(c.Storage.CaptionsKey), "/")
	if c.Storage.CaptionsKey == "" {
		c.Storage.CaptionsKey = defaultCaptionsKey
	}
	return nil
}

func normalizePrefix(value, fallback string) string {
	value = strings.TrimLeft(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	if !strings.HasSuffix(value, "/") {
		value += "/"
	}
	return value
}

func (c *Config) normalizeTranscoder() {
	c.Transcoder.FFmpegBinary = strings.TrimSpace(c.Transcoder.FFmpegBinary)
	if c.Transcoder.FFmpegBinary == "" {
		c.Transcoder.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Transcoder.TimeoutSeconds <= 0 {
		c.Transcoder.TimeoutSeconds = defaultTranscoderTimeout
	}
	if c.Transcoder.KillGraceSeconds <= 0 {
		c.Transcoder.KillGraceSeconds = defaultTranscoderKillGrace
	}
}

func (c *Config) normalizeDetection() error {
	var err error
	if strings.TrimSpace(c.Detection.ModelPath) == "" {
		if value, ok := os.LookupEnv("GALE8_MODEL"); ok && strings.TrimSpace(value) != "" {
			c.Detection.ModelPath = strings.TrimSpace(value)
		} else {
			c.Detection.ModelPath = defaultModelPath
		}
	}
	if c.Detection.ModelPath, err = expandPath(c.Detection.ModelPath); err != nil {
		return fmt.Errorf("detection.model_path: %w", err)
	}
	if c.Detection.SampleRate <= 0 {
		c.Detection.SampleRate = defaultSampleRate
	}
	if c.Detection.Workers <= 0 {
		c.Detection.Workers = defaultWorkers()
	}
	if len(c.Detection.Triggers) == 0 {
		c.Detection.Triggers = DefaultTriggers()
		return nil
	}
	triggers := make(map[string]float64, len(c.Detection.Triggers))
	for keyword, latency := range c.Detection.Triggers {
		normalized := strings.ToLower(strings.TrimSpace(keyword))
		if normalized == "" {
			continue
		}
		triggers[normalized] = latency
	}
	c.Detection.Triggers = triggers
	return nil
}

func (c *Config) normalizeCatalog() {
	if len(c.Catalog.BroadcastTimes) == 0 {
		c.Catalog.BroadcastTimes = DefaultBroadcastTimes()
		return
	}
	times := make([]string, 0, len(c.Catalog.BroadcastTimes))
	seen := make(map[string]struct{}, len(c.Catalog.BroadcastTimes))
	for _, timing := range c.Catalog.BroadcastTimes {
		normalized := strings.ReplaceAll(strings.TrimSpace(timing), ":", "")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		times = append(times, normalized)
	}
	c.Catalog.BroadcastTimes = times
}

func (c *Config) normalizeAssembly() {
	if c.Assembly.LengthSeconds <= 0 {
		c.Assembly.LengthSeconds = defaultAssemblyLengthSeconds
	}
	if c.Assembly.FadeSeconds < 0 {
		c.Assembly.FadeSeconds = 0
	}
	if c.Assembly.SpacingSeconds < 0 {
		c.Assembly.SpacingSeconds = 0
	}
	if c.Assembly.BytesPerSecond <= 0 {
		c.Assembly.BytesPerSecond = defaultBytesPerSecond
	}
	c.Assembly.Bitrate = strings.TrimSpace(c.Assembly.Bitrate)
	if c.Assembly.Bitrate == "" {
		c.Assembly.Bitrate = defaultBitrate
	}
	if c.Assembly.MaxConsecutiveFailures <= 0 {
		c.Assembly.MaxConsecutiveFailures = defaultMaxConsecutiveFailures
	}
	c.Assembly.EndScan = strings.ToLower(strings.TrimSpace(c.Assembly.EndScan))
	if c.Assembly.EndScan == "" {
		c.Assembly.EndScan = defaultEndScan
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
