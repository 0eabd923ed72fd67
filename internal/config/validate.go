package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir must be set when storage.backend is local")
		}
	case BackendS3:
		if c.Storage.Bucket == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("storage.bucket is required for the s3 backend. Edit %s (create with 'gale8 config init')", defaultPath)
		}
		if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
			return errors.New("storage.access_key and storage.secret_key must be set together")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want %q or %q)", c.Storage.Backend, BackendLocal, BackendS3)
	}
	return nil
}

func (c *Config) validateDetection() error {
	if err := ensurePositiveMap(map[string]int{
		"detection.sample_rate":         c.Detection.SampleRate,
		"detection.workers":             c.Detection.Workers,
		"transcoder.timeout_seconds":    c.Transcoder.TimeoutSeconds,
		"transcoder.kill_grace_seconds": c.Transcoder.KillGraceSeconds,
	}); err != nil {
		return err
	}
	if c.Detection.SampleRate%4 != 0 {
		return errors.New("detection.sample_rate must be divisible by 4 (quarter-second windows)")
	}
	if len(c.Detection.Triggers) == 0 {
		return errors.New("detection.triggers must contain at least one keyword")
	}
	for keyword, latency := range c.Detection.Triggers {
		if latency < 0 {
			return fmt.Errorf("detection.triggers.%s: latency must not be negative", keyword)
		}
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if len(c.Catalog.BroadcastTimes) == 0 {
		return errors.New("catalog.broadcast_times must not be empty")
	}
	for _, timing := range c.Catalog.BroadcastTimes {
		if !validTiming(timing) {
			return fmt.Errorf("catalog.broadcast_times: %q is not a 24-hour HHMM time", timing)
		}
	}
	return nil
}

func validTiming(value string) bool {
	if len(value) != 4 {
		return false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return false
	}
	return n/100 < 24 && n%100 < 60
}

func (c *Config) validateAssembly() error {
	if err := ensurePositiveMap(map[string]int{
		"assembly.length_seconds":           c.Assembly.LengthSeconds,
		"assembly.bytes_per_second":         c.Assembly.BytesPerSecond,
		"assembly.max_consecutive_failures": c.Assembly.MaxConsecutiveFailures,
	}); err != nil {
		return err
	}
	switch c.Assembly.EndScan {
	case EndScanFirstPresent, EndScanFallthrough:
	default:
		return fmt.Errorf("assembly.end_scan: unsupported value %q", c.Assembly.EndScan)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
