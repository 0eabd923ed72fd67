package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gale8/internal/boundary"
	"gale8/internal/broadcast"
	"gale8/internal/captions"
	"gale8/internal/config"
	"gale8/internal/detection"
	"gale8/internal/logging"
	"gale8/internal/services"
	"gale8/internal/storage"
)

// Picker chooses recordings to assemble. *catalog.Catalog satisfies it.
type Picker interface {
	Last() (broadcast.Recording, error)
	Random(rng *rand.Rand) (broadcast.Recording, error)
}

// CueSource returns the detection result for a recording file name.
type CueSource interface {
	Lookup(ctx context.Context, file string) (detection.Result, error)
}

// Trimmer cuts and fades a window out of an encoded recording.
type Trimmer interface {
	TrimAndFade(ctx context.Context, audio []byte, start, end, fade float64) ([]byte, error)
}

// Options tunes the assembler.
type Options struct {
	// FadeSeconds is the fade-in and fade-out length of every segment.
	FadeSeconds float64
	// BytesPerSecond estimates the encoded byte rate used to judge when the
	// stream is long enough.
	BytesPerSecond int
	// MaxConsecutiveFailures ends a run after this many recordings in a row
	// could not be used.
	MaxConsecutiveFailures int
	Boundary               boundary.Options
	Layout                 detection.Layout
	// Rand drives the random picks. A time-seeded source is used when nil.
	Rand *rand.Rand
}

// OptionsFromConfig maps the assembly section of cfg to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FadeSeconds:            float64(cfg.Assembly.FadeSeconds),
		BytesPerSecond:         cfg.Assembly.BytesPerSecond,
		MaxConsecutiveFailures: cfg.Assembly.MaxConsecutiveFailures,
		Boundary: boundary.Options{
			Spacing: float64(cfg.Assembly.SpacingSeconds),
			EndScan: cfg.Assembly.EndScan,
		},
		Layout: detection.Layout{
			ArchivePrefix: cfg.Storage.ArchivePrefix,
			CuePrefix:     cfg.Storage.CuePrefix,
		},
	}
}

// Segment records one recording's place in the stream.
type Segment struct {
	Recording broadcast.Recording
	Window    boundary.Window
	Offset    float64
	Bytes     int
}

// Assembly is the assembled stream and its caption track.
type Assembly struct {
	Audio    []byte
	Captions captions.Track
	Segments []Segment
}

// Seconds is the caption-track length of the stream.
func (a *Assembly) Seconds() float64 { return a.Captions.End() }

// ErrStalled reports that too many recordings in a row could not be used.
var ErrStalled = errors.New("assembly stalled")

// Assembler builds a continuous stream of forecasts from cataloged recordings.
type Assembler struct {
	blobs   storage.Store
	cues    CueSource
	trimmer Trimmer
	opts    Options
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewAssembler wires an assembler.
func NewAssembler(blobs storage.Store, cues CueSource, trimmer Trimmer, opts Options, logger *slog.Logger) *Assembler {
	if opts.BytesPerSecond <= 0 {
		opts.BytesPerSecond = 8192
	}
	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = 10
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Assembler{
		blobs:   blobs,
		cues:    cues,
		trimmer: trimmer,
		opts:    opts,
		rng:     rng,
		logger:  logging.NewComponentLogger(logger, "assembly"),
	}
}

// Assemble starts with the latest cataloged recording and keeps adding random
// ones until the encoded audio reaches targetSeconds. The last segment is
// kept whole, so the stream usually runs a little over. Recordings that
// cannot be used are skipped; the run is abandoned with ErrStalled after
// MaxConsecutiveFailures of them in a row. The context is checked between
// recordings.
func (a *Assembler) Assemble(ctx context.Context, picker Picker, targetSeconds float64) (*Assembly, error) {
	asm := &Assembly{}
	targetBytes := int(targetSeconds * float64(a.opts.BytesPerSecond))
	logger := logging.WithContext(ctx, a.logger)

	rec, err := picker.Last()
	if err != nil {
		return asm, err
	}
	var offset float64
	failures := 0
	for len(asm.Audio) < targetBytes {
		if err := ctx.Err(); err != nil {
			return asm, err
		}

		seg, audio, err := a.segment(ctx, rec)
		switch {
		case err == nil:
			failures = 0
			seg.Offset = offset
			seg.Bytes = len(audio)
			asm.Audio = append(asm.Audio, audio...)
			asm.Captions.Add(offset, offset+seg.Window.Length(), rec.Label())
			asm.Segments = append(asm.Segments, seg)
			offset += seg.Window.Length()
			logger.Info("segment added",
				logging.String(logging.FieldEventType, "segment_added"),
				logging.String(logging.FieldRecording, rec.FileName()),
				logging.Float64("start", seg.Window.Start),
				logging.Float64("end", seg.Window.End),
				logging.Float64("offset", seg.Offset),
				logging.Int("bytes", len(asm.Audio)),
				logging.Int("target_bytes", targetBytes),
			)
		case !services.Skippable(err):
			return asm, err
		default:
			failures++
			logging.WarnWithContext(logger, "recording skipped", "segment_skipped",
				logging.String(logging.FieldRecording, rec.FileName()),
				logging.Error(err),
				logging.Int("consecutive_failures", failures),
				logging.String(logging.FieldErrorHint, "check the recording and its cue file"),
				logging.String(logging.FieldImpact, "stream continues with another recording"),
			)
			if failures >= a.opts.MaxConsecutiveFailures {
				return asm, fmt.Errorf("%w: %d recordings in a row could not be used", ErrStalled, failures)
			}
		}

		if rec, err = picker.Random(a.rng); err != nil {
			return asm, err
		}
	}

	logger.Info("stream assembled",
		logging.String(logging.FieldEventType, "stream_assembled"),
		logging.Int("segments", len(asm.Segments)),
		logging.Float64("seconds", asm.Seconds()),
		logging.Int("bytes", len(asm.Audio)),
	)
	return asm, nil
}

func (a *Assembler) segment(ctx context.Context, rec broadcast.Recording) (Segment, []byte, error) {
	file := rec.FileName()
	ctx = services.WithRecording(ctx, file)

	result, err := a.cues.Lookup(ctx, file)
	if err != nil && !(errors.Is(err, services.ErrExternalTool) && result.Length > 0) {
		return Segment{}, nil, err
	}
	window := boundary.Select(result.Cues, result.Length, a.opts.Boundary)
	if window.Degenerate() {
		return Segment{}, nil, services.Wrap(services.ErrDegenerateWindow, "assembly", "select",
			fmt.Sprintf("%s window %s", file, window), nil)
	}

	audio, err := a.blobs.Get(ctx, a.opts.Layout.RecordingKey(file))
	if err != nil {
		return Segment{}, nil, err
	}
	trimmed, err := a.trimmer.TrimAndFade(ctx, audio, window.Start, window.End, a.opts.FadeSeconds)
	if err != nil {
		return Segment{}, nil, err
	}
	if len(trimmed) == 0 {
		return Segment{}, nil, services.Wrap(services.ErrExternalTool, "assembly", "trim",
			fmt.Sprintf("%s produced no audio", file), nil)
	}
	return Segment{Recording: rec, Window: window}, trimmed, nil
}

// Publish writes the stream and its captions to the sink.
func (a *Assembler) Publish(ctx context.Context, asm *Assembly, streamKey, captionsKey string) error {
	if err := a.blobs.Put(ctx, streamKey, asm.Audio, storage.ContentTypeMPEG); err != nil {
		return fmt.Errorf("publish stream: %w", err)
	}
	if err := a.blobs.Put(ctx, captionsKey, asm.Captions.Render(), storage.ContentTypeVTT); err != nil {
		return fmt.Errorf("publish captions: %w", err)
	}
	a.logger.Info("stream published",
		logging.String(logging.FieldEventType, "stream_published"),
		logging.String("stream_key", streamKey),
		logging.String("captions_key", captionsKey),
		logging.Float64("seconds", asm.Seconds()),
	)
	return nil
}
