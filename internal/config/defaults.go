package config

import "runtime"

const (
	defaultConfigPath             = "~/.config/gale8/config.toml"
	defaultWorkDir                = "~/.local/share/gale8/work"
	defaultCacheDir               = "~/.cache/gale8"
	defaultLogDir                 = "~/.local/share/gale8/logs"
	defaultLocalStorageDir        = "~/.local/share/gale8/store"
	defaultS3Region               = "eu-west-2"
	defaultArchivePrefix          = "archive/"
	defaultCuePrefix              = "cues/"
	defaultCatalogKey             = "archive/catalog.json"
	defaultStreamKey              = "stream.mp3"
	defaultCaptionsKey            = "stream.vtt"
	defaultFFmpegBinary           = "ffmpeg"
	defaultTranscoderTimeout      = 300
	defaultTranscoderKillGrace    = 5
	defaultModelPath              = "~/.local/share/gale8/model"
	defaultSampleRate             = 16000
	defaultMaxWorkers             = 4
	defaultAssemblyLengthSeconds  = 45 * 60
	defaultFadeSeconds            = 5
	defaultSpacingSeconds         = 5
	defaultBytesPerSecond         = 1 << 13
	defaultBitrate                = "128k"
	defaultMaxConsecutiveFailures = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 14
	defaultCatalogLockName        = "catalog.lock"
	defaultEndScan                = EndScanFirstPresent
	defaultTriggerLatencyLong     = 0.625
	defaultTriggerLatencyShort    = 0.5
	defaultStorageBackend         = BackendLocal
	defaultLateNightBroadcast     = "0048"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// End-boundary scan modes.
const (
	EndScanFirstPresent = "first_present"
	EndScanFallthrough  = "fallthrough"
)

// DefaultTriggers returns the keyword table with empirically chosen latencies.
func DefaultTriggers() map[string]float64 {
	return map[string]float64{
		"shipping": defaultTriggerLatencyLong,
		"forecast": defaultTriggerLatencyLong,
		"bulletin": defaultTriggerLatencyLong,
		"bbc":      defaultTriggerLatencyShort,
		"radio":    defaultTriggerLatencyShort,
	}
}

// DefaultBroadcastTimes returns the daily broadcast slots (UK local time).
func DefaultBroadcastTimes() []string {
	return []string{defaultLateNightBroadcast, "0520", "1201", "1754"}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > defaultMaxWorkers {
		return defaultMaxWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Storage: Storage{
			Backend:       defaultStorageBackend,
			LocalDir:      defaultLocalStorageDir,
			Region:        defaultS3Region,
			ArchivePrefix: defaultArchivePrefix,
			CuePrefix:     defaultCuePrefix,
			CatalogKey:    defaultCatalogKey,
			StreamKey:     defaultStreamKey,
			CaptionsKey:   defaultCaptionsKey,
		},
		Transcoder: Transcoder{
			FFmpegBinary:     defaultFFmpegBinary,
			TimeoutSeconds:   defaultTranscoderTimeout,
			KillGraceSeconds: defaultTranscoderKillGrace,
		},
		Detection: Detection{
			ModelPath:  defaultModelPath,
			SampleRate: defaultSampleRate,
			Workers:    defaultWorkers(),
			Triggers:   DefaultTriggers(),
		},
		Catalog: Catalog{
			BroadcastTimes: DefaultBroadcastTimes(),
		},
		Assembly: Assembly{
			LengthSeconds:          defaultAssemblyLengthSeconds,
			FadeSeconds:            defaultFadeSeconds,
			SpacingSeconds:         defaultSpacingSeconds,
			BytesPerSecond:         defaultBytesPerSecond,
			Bitrate:                defaultBitrate,
			MaxConsecutiveFailures: defaultMaxConsecutiveFailures,
			EndScan:                defaultEndScan,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
