package catalog_test

import (
	"context"
	"errors"
	"testing"

	"gale8/internal/catalog"
	"gale8/internal/services"
)

func TestConsider(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		cues    map[string][]float64
		wantErr error
	}{
		{name: "forecast cue present", file: "20241014Z0520.mp3", cues: map[string][]float64{"forecast": {12}}},
		{name: "shipping cue present", file: "archive/20241014Z1754.mp3", cues: map[string][]float64{"shipping": {40}, "bbc": {3}}},
		{name: "unknown cues", file: "20241014Z1201.mp3"},
		{name: "empty cues", file: "20241014Z0048.mp3", cues: map[string][]float64{}},
		{name: "no start cues", file: "20241014Z0520.mp3", cues: map[string][]float64{"bbc": {3}}, wantErr: services.ErrMalformedInput},
		{name: "not a broadcast slot", file: "20241014Z0600.mp3", wantErr: services.ErrMalformedInput},
		{name: "bad name", file: "forecast.mp3", wantErr: services.ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newStore(t)
			cataloger := catalog.NewCataloger(store, []string{"0048", "0520", "1201", "1754"}, nil)
			ctx := context.Background()

			_, err := cataloger.Consider(ctx, tt.file, tt.cues)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if _, loadErr := store.Load(ctx); !errors.Is(loadErr, services.ErrNotFound) {
					t.Fatalf("expected no catalog write, got %v", loadErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Consider: %v", err)
			}
			c, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if c.Len() != 1 {
				t.Fatalf("expected one entry, got %d", c.Len())
			}
		})
	}
}
