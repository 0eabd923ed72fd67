package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local working directories.
type Paths struct {
	WorkDir     string `toml:"work_dir"`
	CacheDir    string `toml:"cache_dir"`
	LogDir      string `toml:"log_dir"`
	CatalogLock string `toml:"catalog_lock"`
}

// Storage selects and configures the blob store that holds recordings, cue
// files, the catalog and assembled output.
type Storage struct {
	Backend        string `toml:"backend"`
	LocalDir       string `toml:"local_dir"`
	Bucket         string `toml:"bucket"`
	Region         string `toml:"region"`
	Endpoint       string `toml:"endpoint"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
	PublicRead     bool   `toml:"public_read"`
	ArchivePrefix  string `toml:"archive_prefix"`
	CuePrefix      string `toml:"cue_prefix"`
	CatalogKey     string `toml:"catalog_key"`
	StreamKey      string `toml:"stream_key"`
	CaptionsKey    string `toml:"captions_key"`
}

// Transcoder configures the ffmpeg gateway.
type Transcoder struct {
	FFmpegBinary     string `toml:"ffmpeg_binary"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	KillGraceSeconds int    `toml:"kill_grace_seconds"`
}

// Detection configures keyword spotting.
type Detection struct {
	ModelPath  string `toml:"model_path"`
	SampleRate int    `toml:"sample_rate"`
	Workers    int    `toml:"workers"`
	// Triggers maps each keyword to its recognizer latency correction in seconds.
	Triggers map[string]float64 `toml:"triggers"`
}

// Catalog configures which recordings may enter the catalog.
type Catalog struct {
	BroadcastTimes []string `toml:"broadcast_times"`
}

// Assembly configures stream assembly.
type Assembly struct {
	LengthSeconds          int    `toml:"length_seconds"`
	FadeSeconds            int    `toml:"fade_seconds"`
	SpacingSeconds         int    `toml:"spacing_seconds"`
	BytesPerSecond         int    `toml:"bytes_per_second"`
	Bitrate                string `toml:"bitrate"`
	MaxConsecutiveFailures int    `toml:"max_consecutive_failures"`
	// EndScan is "first_present" (default) or "fallthrough".
	EndScan string `toml:"end_scan"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for gale8.
//
// Configuration sections by subsystem:
//   - Paths: local work, cache and log directories
//   - Storage: blob store backend and object key layout
//   - Transcoder: ffmpeg binary and process time limits
//   - Detection: recognizer model, worker count and trigger keywords
//   - Catalog: broadcast time whitelist
//   - Assembly: stream length, fades and byte-rate estimate
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Storage    Storage    `toml:"storage"`
	Transcoder Transcoder `toml:"transcoder"`
	Detection  Detection  `toml:"detection"`
	Catalog    Catalog    `toml:"catalog"`
	Assembly   Assembly   `toml:"assembly"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Tables in the file replace the defaults rather than merging into them.
		cfg.Detection.Triggers = nil
		cfg.Catalog.BroadcastTimes = nil

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gale8.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local directories gale8 writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.CacheDir, c.Paths.LogDir}
	if c.Storage.Backend == BackendLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CueCachePath returns the location of the detection cache database.
func (c *Config) CueCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "cues.db")
}

// FFmpegBinary returns the ffmpeg executable name or path.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Transcoder.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.Storage.SecretKey != "" {
		redacted.Storage.SecretKey = "<redacted>"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
