package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"gale8/internal/config"
	"gale8/internal/logging"
	"gale8/internal/services"
)

func useHelper(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func newTestGateway() *FFmpeg {
	return New(Options{Binary: "ffmpeg-test", Timeout: 5 * time.Second, KillGrace: time.Second}, logging.NewNop())
}

func TestDecodeStreamsPCM(t *testing.T) {
	args := useHelper(t, "pcm")
	gw := newTestGateway()

	stream, err := gw.Decode(context.Background(), strings.NewReader("mp3 bytes"))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read pcm: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if len(data) != 20000 {
		t.Fatalf("expected 20000 pcm bytes, got %d", len(data))
	}
	joined := strings.Join(*args, " ")
	for _, fragment := range []string{"ffmpeg-test", "-i -", "-ar 16000", "-ac 1", "-f s16le -"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args %q", fragment, joined)
		}
	}
	if gw.BytesPerSecond() != 32000 {
		t.Fatalf("unexpected byte rate %d", gw.BytesPerSecond())
	}
}

func TestDecodeReportsNonZeroExit(t *testing.T) {
	useHelper(t, "pcm-fail")
	gw := newTestGateway()

	stream, err := gw.Decode(context.Background(), strings.NewReader("mp3 bytes"))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	data, _ := io.ReadAll(stream)
	if len(data) != 8000 {
		t.Fatalf("expected partial pcm to be readable, got %d bytes", len(data))
	}
	err = stream.Close()
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "corrupt input") || !strings.Contains(err.Error(), "status 3") {
		t.Fatalf("expected stderr and exit status in error, got %v", err)
	}
	if again := stream.Close(); again != err {
		t.Fatalf("expected Close to be idempotent, got %v", again)
	}
}

func TestTrimAndFadeBuildsFilterChain(t *testing.T) {
	args := useHelper(t, "echo")
	gw := newTestGateway()

	out, err := gw.TrimAndFade(context.Background(), []byte("encoded audio"), 35, 315, 5)
	if err != nil {
		t.Fatalf("TrimAndFade returned error: %v", err)
	}
	if string(out) != "encoded audio" {
		t.Fatalf("unexpected output %q", out)
	}
	joined := strings.Join(*args, " ")
	for _, fragment := range []string{
		"-ss 35 -to 315 -i -",
		"-ac 1 -ab 128k",
		"-af afade=t=in:st=0:d=5,afade=t=out:st=275:d=5",
		"-f mp3 -",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args %q", fragment, joined)
		}
	}
}

func TestTrimAndFadeKeepsPartialOutput(t *testing.T) {
	useHelper(t, "partial")
	gw := newTestGateway()

	out, err := gw.TrimAndFade(context.Background(), []byte("x"), 0, 60, 5)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !bytes.Equal(out, []byte("partial")) {
		t.Fatalf("expected partial output, got %q", out)
	}
}

func TestTrimAndFadeRejectsDegenerateWindow(t *testing.T) {
	gw := newTestGateway()
	if _, err := gw.TrimAndFade(context.Background(), nil, 40, 40, 5); !errors.Is(err, services.ErrDegenerateWindow) {
		t.Fatalf("expected degenerate window error, got %v", err)
	}
}

func TestTrimAndFadeTimesOut(t *testing.T) {
	useHelper(t, "hang")
	gw := New(Options{Timeout: 200 * time.Millisecond, KillGrace: 200 * time.Millisecond}, nil)

	started := time.Now()
	_, err := gw.TrimAndFade(context.Background(), []byte("x"), 0, 60, 5)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("expected hung process to be stopped promptly, took %s", elapsed)
	}
}

func TestFadeFilter(t *testing.T) {
	tests := []struct {
		length, fade float64
		want         string
	}{
		{length: 60, fade: 5, want: "afade=t=in:st=0:d=5,afade=t=out:st=55:d=5"},
		{length: 12.5, fade: 2.5, want: "afade=t=in:st=0:d=2.5,afade=t=out:st=10:d=2.5"},
		{length: 3, fade: 5, want: "afade=t=in:st=0:d=5,afade=t=out:st=0:d=5"},
		{length: 60, fade: 0, want: ""},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%v/%v", tc.length, tc.fade), func(t *testing.T) {
			if got := fadeFilter(tc.length, tc.fade); got != tc.want {
				t.Fatalf("fadeFilter(%v, %v) = %q, want %q", tc.length, tc.fade, got, tc.want)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transcoder.FFmpegBinary = "/opt/ffmpeg"
	cfg.Assembly.Bitrate = "96k"
	gw := NewFromConfig(&cfg, nil)
	if gw.opts.Binary != "/opt/ffmpeg" || gw.opts.Bitrate != "96k" || gw.SampleRate() != 16000 {
		t.Fatalf("unexpected options: %+v", gw.opts)
	}
	if gw.opts.Timeout != 300*time.Second || gw.opts.KillGrace != 5*time.Second {
		t.Fatalf("unexpected time limits: %+v", gw.opts)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "pcm":
		io.Copy(io.Discard, os.Stdin)
		os.Stdout.Write(make([]byte, 20000))
		os.Exit(0)
	case "pcm-fail":
		io.Copy(io.Discard, os.Stdin)
		os.Stdout.Write(make([]byte, 8000))
		fmt.Fprintln(os.Stderr, "corrupt input")
		os.Exit(3)
	case "echo":
		io.Copy(os.Stdout, os.Stdin)
		os.Exit(0)
	case "partial":
		io.Copy(io.Discard, os.Stdin)
		os.Stdout.WriteString("partial")
		os.Exit(1)
	case "hang":
		time.Sleep(time.Minute)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
