package cuestore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"gale8/internal/cuestore"
	"gale8/internal/detection"
	"gale8/internal/testsupport"
)

func openStore(t *testing.T) *cuestore.Store {
	t.Helper()
	store, err := cuestore.OpenFromConfig(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("OpenFromConfig: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutThenGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "20241014Z0520.mp3"); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	result := detection.Result{
		File:       "20241014Z0520.mp3",
		Cues:       detection.CueSet{"shipping": {9.375, 39.375}},
		Transcript: []detection.Line{{Start: 0, Text: "and now the shipping forecast"}},
		Length:     720,
	}
	if err := store.Put(ctx, result); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, result.File)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, result) {
		t.Fatalf("cached result differs: %+v", got)
	}

	result.Length = 360
	result.Cues = detection.CueSet{}
	if err := store.Put(ctx, result); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, _, _ = store.Get(ctx, result.File)
	if got.Length != 360 || len(got.Cues) != 0 {
		t.Fatalf("expected replaced result, got %+v", got)
	}
	if n, err := store.Count(ctx); err != nil || n != 1 {
		t.Fatalf("expected one row, got %d (%v)", n, err)
	}
}

func TestPutRequiresFile(t *testing.T) {
	store := openStore(t)
	if err := store.Put(context.Background(), detection.Result{Length: 1}); err == nil {
		t.Fatal("expected error for result without file name")
	}
}

func TestListAndDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, file := range []string{"20241015Z0048.mp3", "20241014Z1754.mp3", "20241014Z0520.mp3"} {
		if err := store.Put(ctx, detection.Result{File: file, Cues: detection.CueSet{}, Length: 10}); err != nil {
			t.Fatalf("Put %s: %v", file, err)
		}
	}
	if err := store.Delete(ctx, "20241014Z1754.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "unknown.mp3"); err != nil {
		t.Fatalf("Delete unknown: %v", err)
	}

	results, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var files []string
	for _, r := range results {
		files = append(files, r.File)
	}
	if want := []string{"20241014Z0520.mp3", "20241015Z0048.mp3"}; !reflect.DeepEqual(files, want) {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestReopenKeepsResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.db")
	store, err := cuestore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, detection.Result{File: "a.mp3", Length: 5}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = store.Close()

	reopened, err := cuestore.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, ok, err := reopened.Get(ctx, "a.mp3"); err != nil || !ok {
		t.Fatalf("expected result to survive reopen, ok=%v err=%v", ok, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.db")
	store, err := cuestore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := cuestore.Open(path); !errors.Is(err, cuestore.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
