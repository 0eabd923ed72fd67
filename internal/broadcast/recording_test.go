package broadcast_test

import (
	"errors"
	"testing"
	"time"

	"gale8/internal/broadcast"
	"gale8/internal/services"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    broadcast.Recording
		wantErr bool
	}{
		{name: "plain", input: "20241014Z0520.mp3", want: broadcast.New("2024", "10", "14", "0520")},
		{name: "object key", input: "archive/20240101Z0048.mp3", want: broadcast.New("2024", "01", "01", "0048")},
		{name: "upper ext", input: "20240101Z1754.MP3", want: broadcast.New("2024", "01", "01", "1754")},
		{name: "wav", input: "20240101Z1201.wav", want: broadcast.Recording{Year: "2024", Month: "01", Day: "01", Timing: "1201", Ext: "wav"}},
		{name: "missing z", input: "202410140520.mp3", wantErr: true},
		{name: "bad month", input: "20241314Z0520.mp3", wantErr: true},
		{name: "bad time", input: "20241014Z2560.mp3", wantErr: true},
		{name: "no ext", input: "20241014Z0520", wantErr: true},
		{name: "catalog", input: "archive/catalog.json", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := broadcast.Parse(tc.input)
			if tc.wantErr {
				if !errors.Is(err, services.ErrMalformedInput) {
					t.Fatalf("expected malformed input error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFileNameRoundTrip(t *testing.T) {
	rec := broadcast.New("2024", "10", "14", "0520")
	if rec.FileName() != "20241014Z0520.mp3" {
		t.Fatalf("unexpected file name %q", rec.FileName())
	}
	parsed, err := broadcast.Parse(rec.FileName())
	if err != nil || parsed != rec {
		t.Fatalf("round trip failed: %+v %v", parsed, err)
	}
}

func TestFromTime(t *testing.T) {
	rec := broadcast.FromTime(time.Date(2024, time.October, 14, 17, 54, 12, 0, time.UTC))
	if rec.FileName() != "20241014Z1754.mp3" {
		t.Fatalf("unexpected file name %q", rec.FileName())
	}
}

func TestLabel(t *testing.T) {
	rec := broadcast.New("2024", "10", "14", "0520")
	if got := rec.Label(); got != "Monday 14 October 2024, 05:20" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestExpectedLength(t *testing.T) {
	cases := map[string]float64{"0048": 720, "0520": 720, "1201": 360, "1754": 360, "0900": 0}
	for timing, want := range cases {
		if got := broadcast.New("2024", "01", "01", timing).ExpectedLength(); got != want {
			t.Errorf("ExpectedLength(%s) = %v, want %v", timing, got, want)
		}
	}
}
