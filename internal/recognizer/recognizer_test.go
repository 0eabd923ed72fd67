package recognizer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gale8/internal/recognizer"
	"gale8/internal/services"
	"gale8/internal/testsupport"
)

func TestPoolHandsOutExclusiveRecognizers(t *testing.T) {
	model := &testsupport.ScriptedModel{}
	pool, err := recognizer.NewPool(model, 2, 16000)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	if pool.Size() != 2 || len(model.Recognizers()) != 2 {
		t.Fatalf("expected two recognizers, got %d", pool.Size())
	}

	ctx := context.Background()
	first, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	second, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct recognizers")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected exhausted pool to block until deadline, got %v", err)
	}

	pool.Release(first)
	again, err := pool.Acquire(ctx)
	if err != nil || again != first {
		t.Fatalf("expected released recognizer back, got %v %v", again, err)
	}
}

func TestPoolClose(t *testing.T) {
	pool, err := recognizer.NewPool(&testsupport.ScriptedModel{}, 1, 16000)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, recognizer.ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestNewPoolRequiresModel(t *testing.T) {
	if _, err := recognizer.NewPool(nil, 1, 16000); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseText(t *testing.T) {
	tests := map[string]string{
		`{"text" : "shipping forecast"}`: "shipping forecast",
		`{"partial" : " and now the "}`:  "and now the",
		`{"text" : ""}`:                  "",
		`not json`:                       "",
	}
	for payload, want := range tests {
		if got := recognizer.ParseText(payload); got != want {
			t.Errorf("ParseText(%q) = %q, want %q", payload, got, want)
		}
	}
}

func TestOpenModelWithoutBackend(t *testing.T) {
	if recognizer.Available() {
		t.Skip("native backend compiled in")
	}
	if _, err := recognizer.OpenModel(t.TempDir()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
