package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gale8/internal/config"
	"gale8/internal/logging"
	"gale8/internal/services"
	"gale8/internal/storage"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := storage.NewLocal(base)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	if err := store.Put(ctx, "archive/20241014Z0520.mp3", []byte("mp3"), storage.ContentTypeMPEG); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "cues/20241014Z0520.mp3.json", []byte("{}"), storage.ContentTypeJSON); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := store.Get(ctx, "archive/20241014Z0520.mp3")
	if err != nil || string(data) != "mp3" {
		t.Fatalf("Get returned %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(base, "archive", "20241014Z0520.mp3")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	ok, err := store.Exists(ctx, "cues/20241014Z0520.mp3.json")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	ok, err = store.Exists(ctx, "cues/missing.json")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}

	objects, err := store.List(ctx, "archive/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 1 || objects[0].Key != "archive/20241014Z0520.mp3" || objects[0].Size != 3 {
		t.Fatalf("unexpected listing: %+v", objects)
	}
}

func TestLocalStoreMissingKey(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	_, err = store.Get(context.Background(), "archive/nope.mp3")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := store.Put(context.Background(), "../outside", []byte("x"), ""); err == nil {
		t.Fatal("expected error for key escaping the base directory")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	if err := store.Put(ctx, "stream.vtt", []byte("WEBVTT"), storage.ContentTypeVTT); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if store.ContentType("stream.vtt") != storage.ContentTypeVTT {
		t.Fatalf("unexpected content type %q", store.ContentType("stream.vtt"))
	}
	if _, err := store.Get(ctx, "stream.mp3"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	objects, _ := store.List(ctx, "")
	if len(objects) != 1 {
		t.Fatalf("unexpected listing: %+v", objects)
	}
}

func TestOpenLocalBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.LocalDir = filepath.Join(t.TempDir(), "store")
	store, err := storage.Open(context.Background(), &cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := store.(*storage.Local); !ok {
		t.Fatalf("expected local store, got %T", store)
	}

	cfg.Storage.Backend = "ftp"
	if _, err := storage.Open(context.Background(), &cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
