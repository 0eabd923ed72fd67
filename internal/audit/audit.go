package audit

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"gale8/internal/broadcast"
	"gale8/internal/detection"
	"gale8/internal/logging"
	"gale8/internal/storage"
)

// Keywords whose presence shows the recogniser heard the broadcast at all.
var presenceKeywords = []string{"shipping", "forecast", "bbc", "radio"}

// Finding is one recording an audit flagged.
type Finding struct {
	File     string
	Length   float64
	Expected float64
	Keywords []string
}

// LoadOptions filters the cue files Load reads.
type LoadOptions struct {
	// Since skips cue files last modified before it. Zero reads everything.
	Since time.Time
}

// Load reads every published cue file under cuePrefix. Unreadable documents
// are logged and skipped.
func Load(ctx context.Context, blobs storage.Store, cuePrefix string, opts LoadOptions, logger *slog.Logger) ([]detection.Result, error) {
	logger = logging.NewComponentLogger(logger, "audit")
	objects, err := blobs.List(ctx, cuePrefix)
	if err != nil {
		return nil, fmt.Errorf("list cue files: %w", err)
	}

	var results []detection.Result
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		if !opts.Since.IsZero() && obj.LastModified.Before(opts.Since) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		data, err := blobs.Get(ctx, obj.Key)
		if err != nil {
			return results, err
		}
		result, err := detection.Decode(data)
		if err != nil {
			logging.WarnWithContext(logger, "unreadable cue file skipped", "cue_file_invalid",
				logging.String("key", obj.Key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-run gale8 detect for the recording"),
				logging.String(logging.FieldImpact, "recording is left out of the audit"),
			)
			continue
		}
		if result.File == "" {
			result.File = strings.TrimSuffix(path.Base(obj.Key), ".json")
		}
		results = append(results, result)
	}
	return results, nil
}

// ShortRecordings flags recordings no longer than half the nominal length of
// their broadcast slot. Recordings in unknown slots are not judged.
func ShortRecordings(results []detection.Result) []Finding {
	var findings []Finding
	for _, result := range results {
		rec, err := broadcast.Parse(result.File)
		if err != nil {
			continue
		}
		expected := rec.ExpectedLength()
		if expected > 0 && result.Length <= expected/2 {
			findings = append(findings, Finding{
				File:     result.File,
				Length:   result.Length,
				Expected: expected,
				Keywords: result.Cues.Keywords(),
			})
		}
	}
	return findings
}

// MissingCues flags recordings in which none of the presence keywords fired.
func MissingCues(results []detection.Result) []Finding {
	var findings []Finding
	for _, result := range results {
		if result.Cues.HasAny(presenceKeywords...) {
			continue
		}
		finding := Finding{File: result.File, Length: result.Length, Keywords: result.Cues.Keywords()}
		if rec, err := broadcast.Parse(result.File); err == nil {
			finding.Expected = rec.ExpectedLength()
		}
		findings = append(findings, finding)
	}
	return findings
}
