package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"gale8/internal/config"
	"gale8/internal/logging"
	"gale8/internal/services"
)

var commandContext = exec.CommandContext

const stderrLimit = 4096

// Options configures the ffmpeg gateway.
type Options struct {
	Binary     string
	SampleRate int
	Bitrate    string
	// Timeout bounds each ffmpeg invocation.
	Timeout time.Duration
	// KillGrace is how long ffmpeg may take to exit after an interrupt before
	// it is killed.
	KillGrace time.Duration
}

// FFmpeg decodes recordings to PCM and re-encodes trimmed segments.
type FFmpeg struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a gateway, filling unset options with defaults.
func New(opts Options, logger *slog.Logger) *FFmpeg {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if strings.TrimSpace(opts.Bitrate) == "" {
		opts.Bitrate = "128k"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = 5 * time.Second
	}
	return &FFmpeg{opts: opts, logger: logging.NewComponentLogger(logger, "transcoder")}
}

// NewFromConfig builds a gateway from the transcoder, detection and assembly sections.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	return New(Options{
		Binary:     cfg.FFmpegBinary(),
		SampleRate: cfg.Detection.SampleRate,
		Bitrate:    cfg.Assembly.Bitrate,
		Timeout:    time.Duration(cfg.Transcoder.TimeoutSeconds) * time.Second,
		KillGrace:  time.Duration(cfg.Transcoder.KillGraceSeconds) * time.Second,
	}, logger)
}

// SampleRate is the PCM rate Decode produces.
func (f *FFmpeg) SampleRate() int { return f.opts.SampleRate }

// BytesPerSecond is the PCM byte rate Decode produces (mono, 16-bit).
func (f *FFmpeg) BytesPerSecond() int { return f.opts.SampleRate * 2 }

// PCMStream is raw mono s16le audio produced by a running ffmpeg process.
type PCMStream struct {
	stdout io.ReadCloser
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *tailBuffer
	ctx    context.Context
	closed bool
	err    error
}

func (s *PCMStream) Read(p []byte) (int, error) { return s.stdout.Read(p) }

// Close waits for ffmpeg to exit. A non-zero exit is reported as an
// ErrExternalTool error; the bytes already read remain valid. Closing before
// the stream is drained stops ffmpeg.
func (s *PCMStream) Close() error {
	if s.closed {
		return s.err
	}
	s.closed = true
	s.stdout.Close()
	err := s.cmd.Wait()
	deadline := s.ctx.Err()
	s.cancel()
	s.err = classify("decode", err, deadline, s.stderr.String())
	return s.err
}

// Decode starts ffmpeg converting the encoded audio read from src into PCM at
// the configured sample rate. The returned stream is a *PCMStream; the caller
// must Close it.
func (f *FFmpeg) Decode(ctx context.Context, src io.Reader) (io.ReadCloser, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "-",
		"-vn",
		"-ar", strconv.Itoa(f.opts.SampleRate),
		"-ac", "1",
		"-f", "s16le",
		"-",
	}
	runCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	cmd := f.command(runCtx, args)
	cmd.Stdin = src
	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, services.Wrap(services.ErrExternalTool, "transcoder", "decode", "stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, services.Wrap(services.ErrExternalTool, "transcoder", "decode", "start ffmpeg", err)
	}
	f.logger.Debug("decoding to pcm", logging.Int("sample_rate", f.opts.SampleRate))
	return &PCMStream{stdout: stdout, cmd: cmd, cancel: cancel, stderr: stderr, ctx: runCtx}, nil
}

// TrimAndFade re-encodes the [start, end] seconds of an MP3 recording as mono
// MP3, fading in over the first fade seconds and out over the last. When
// ffmpeg fails the returned bytes hold whatever it produced before exiting.
func (f *FFmpeg) TrimAndFade(ctx context.Context, audio []byte, start, end, fade float64) ([]byte, error) {
	if end <= start {
		return nil, services.Wrap(services.ErrDegenerateWindow, "transcoder", "trim",
			fmt.Sprintf("window %s-%s is empty", formatSeconds(start), formatSeconds(end)), nil)
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", "-",
		"-ac", "1",
		"-ab", f.opts.Bitrate,
	}
	if filter := fadeFilter(end-start, fade); filter != "" {
		args = append(args, "-af", filter)
	}
	args = append(args, "-f", "mp3", "-")

	runCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()
	cmd := f.command(runCtx, args)
	cmd.Stdin = bytes.NewReader(audio)
	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	f.logger.Debug("re-encoding segment",
		logging.Float64("start", start),
		logging.Float64("end", end),
		logging.Float64("seconds", end-start),
	)
	err := cmd.Run()
	return stdout.Bytes(), classify("trim", err, runCtx.Err(), stderr.String())
}

func (f *FFmpeg) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := commandContext(ctx, f.opts.Binary, args...) //nolint:gosec
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = f.opts.KillGrace
	return cmd
}

// fadeFilter builds the afade chain for a segment of the given length.
func fadeFilter(length, fade float64) string {
	if fade <= 0 {
		return ""
	}
	fadeOut := length - fade
	if fadeOut < 0 {
		fadeOut = 0
	}
	d := formatSeconds(fade)
	return "afade=t=in:st=0:d=" + d + ",afade=t=out:st=" + formatSeconds(fadeOut) + ":d=" + d
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func classify(operation string, err error, ctxErr error, stderr string) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "transcoder", operation, "ffmpeg did not finish in time", err)
	}
	if errors.Is(ctxErr, context.Canceled) {
		return fmt.Errorf("transcoder %s: %w", operation, context.Canceled)
	}
	message := "ffmpeg failed"
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		message = fmt.Sprintf("ffmpeg exited with status %d", exitErr.ExitCode())
	}
	if detail := strings.TrimSpace(stderr); detail != "" {
		message += ": " + detail
	}
	return services.Wrap(services.ErrExternalTool, "transcoder", operation, message, err)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
