package detection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"gale8/internal/logging"
	"gale8/internal/recognizer"
	"gale8/internal/services"
)

// Decoder turns encoded audio into mono s16le PCM. Close reports a decoder
// failure after the stream ends.
type Decoder interface {
	Decode(ctx context.Context, src io.Reader) (io.ReadCloser, error)
}

type trigger struct {
	keyword string
	token   string
	latency float64
}

// Detector spots trigger keywords in a recording and builds its transcript.
// A Detector is safe for concurrent use; each call must bring its own
// recognizer.
type Detector struct {
	decoder        Decoder
	triggers       []trigger
	bytesPerSecond int
	windowSize     int
	logger         *slog.Logger
}

// NewDetector builds a detector for PCM at sampleRate. triggers maps each
// keyword to the recognizer lag, in seconds, subtracted from its cue times.
func NewDetector(decoder Decoder, sampleRate int, triggers map[string]float64, logger *slog.Logger) *Detector {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	fold := cases.Fold()
	list := make([]trigger, 0, len(triggers))
	for keyword, latency := range triggers {
		list = append(list, trigger{keyword: keyword, token: fold.String(keyword), latency: latency})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].keyword < list[j].keyword })
	bytesPerSecond := sampleRate * 2
	return &Detector{
		decoder:        decoder,
		triggers:       list,
		bytesPerSecond: bytesPerSecond,
		windowSize:     bytesPerSecond / 4,
		logger:         logging.NewComponentLogger(logger, "detection"),
	}
}

// WindowSize is the number of PCM bytes fed to the recognizer per step.
func (d *Detector) WindowSize() int { return d.windowSize }

// Detect decodes audio and runs it through rec in quarter-second windows.
// The recognizer is reset first so state from a previous recording cannot
// leak in. When the decoder or recognizer fails part way, the result
// accumulated so far is returned together with the error.
func (d *Detector) Detect(ctx context.Context, rec recognizer.Recognizer, file string, audio io.Reader) (Result, error) {
	result := Result{File: file, Cues: CueSet{}}
	logger := logging.WithContext(ctx, d.logger)

	pcm, err := d.decoder.Decode(ctx, audio)
	if err != nil {
		return result, err
	}

	rec.Reset()
	fold := cases.Fold()
	seen := make(map[string]bool, len(d.triggers))
	window := make([]byte, d.windowSize)
	var bytesRead int64
	var lineStart float64
	var runErr error

	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		n, readErr := io.ReadFull(pcm, window)
		if n == 0 {
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				runErr = services.Wrap(services.ErrExternalTool, "detection", "read pcm", file, readErr)
			}
			break
		}
		outcome, err := rec.AcceptWaveform(window[:n])
		if err != nil {
			runErr = services.Wrap(services.ErrExternalTool, "detection", "recognize", file, err)
			break
		}
		if outcome.Complete && outcome.Text != "" {
			result.Transcript = append(result.Transcript, Line{Start: roundMillis(lineStart), Text: outcome.Text})
		}
		payload := fold.String(outcome.Payload)
		offset := float64(bytesRead) / float64(d.bytesPerSecond)
		for _, trig := range d.triggers {
			if seen[trig.keyword] || !strings.Contains(payload, trig.token) {
				continue
			}
			cue := roundMillis(offset - trig.latency)
			if cue < 0 {
				cue = 0
			}
			result.Cues[trig.keyword] = append(result.Cues[trig.keyword], cue)
			seen[trig.keyword] = true
		}
		bytesRead += int64(n)
		if outcome.Complete {
			lineStart = float64(bytesRead) / float64(d.bytesPerSecond)
			clear(seen)
		}
		if readErr != nil {
			if !errors.Is(readErr, io.ErrUnexpectedEOF) {
				runErr = services.Wrap(services.ErrExternalTool, "detection", "read pcm", file, readErr)
			}
			break
		}
	}

	result.Length = roundMillis(float64(bytesRead) / float64(d.bytesPerSecond))
	if closeErr := pcm.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return result, fmt.Errorf("detect %s: %w", file, runErr)
	}

	logger.Debug("detection finished",
		logging.Float64("length", result.Length),
		logging.Int("lines", len(result.Transcript)),
		logging.String("keywords", strings.Join(result.Cues.Keywords(), ",")),
	)
	return result, nil
}
