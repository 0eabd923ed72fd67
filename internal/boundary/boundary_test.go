package boundary_test

import (
	"reflect"
	"testing"

	"gale8/internal/boundary"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		cues     map[string][]float64
		duration float64
		want     boundary.Window
	}{
		{
			name:     "no cues keeps whole recording",
			cues:     map[string][]float64{},
			duration: 720,
			want:     boundary.Window{Start: 0, End: 720},
		},
		{
			name:     "latest shipping cue inside opening boundary",
			cues:     map[string][]float64{"shipping": {200, 40, 100}},
			duration: 720,
			want:     boundary.Window{Start: 95, End: 720},
		},
		{
			name:     "early shipping cue is not padded",
			cues:     map[string][]float64{"shipping": {3}},
			duration: 720,
			want:     boundary.Window{Start: 3, End: 720},
		},
		{
			name:     "shipping at zero falls back to forecast",
			cues:     map[string][]float64{"shipping": {0}, "forecast": {30, 20}},
			duration: 720,
			want:     boundary.Window{Start: 15, End: 720},
		},
		{
			name:     "short recording uses the tighter opening boundary",
			cues:     map[string][]float64{"shipping": {120}, "forecast": {40, 60}},
			duration: 200,
			want:     boundary.Window{Start: 35, End: 200},
		},
		{
			name:     "forecast beyond boundary is ignored",
			cues:     map[string][]float64{"forecast": {95}},
			duration: 200,
			want:     boundary.Window{Start: 0, End: 200},
		},
		{
			name:     "earliest shipping cue past closing boundary",
			cues:     map[string][]float64{"shipping": {100, 700, 650}},
			duration: 720,
			want:     boundary.Window{Start: 95, End: 655},
		},
		{
			name:     "end is not padded past the recording",
			cues:     map[string][]float64{"shipping": {718}},
			duration: 720,
			want:     boundary.Window{Start: 0, End: 718},
		},
		{
			name:     "absent categories are skipped",
			cues:     map[string][]float64{"bulletin": {400}, "radio": {500}},
			duration: 720,
			want:     boundary.Window{Start: 0, End: 405},
		},
		{
			name:     "first present category stops the scan",
			cues:     map[string][]float64{"shipping": {40}, "bbc": {310}},
			duration: 360,
			want:     boundary.Window{Start: 35, End: 360},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := boundary.Select(tt.cues, tt.duration, boundary.DefaultOptions())
			if got != tt.want {
				t.Fatalf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectFallthroughScansLaterCategories(t *testing.T) {
	cues := map[string][]float64{"shipping": {40}, "bbc": {310}}
	opts := boundary.Options{Spacing: 5, EndScan: boundary.ScanFallthrough}

	got := boundary.Select(cues, 360, opts)
	if want := (boundary.Window{Start: 35, End: 315}); got != want {
		t.Fatalf("Select() = %v, want %v", got, want)
	}

	withShippingEnd := map[string][]float64{"shipping": {40, 200}, "bbc": {310}}
	if got := boundary.Select(withShippingEnd, 360, opts); got.End != 205 {
		t.Fatalf("expected shipping end to win, got %v", got)
	}
}

func TestSelectIsPure(t *testing.T) {
	cues := map[string][]float64{"shipping": {200, 40, 100}, "bbc": {650, 610}}
	snapshot := map[string][]float64{"shipping": {200, 40, 100}, "bbc": {650, 610}}

	first := boundary.Select(cues, 720, boundary.DefaultOptions())
	second := boundary.Select(cues, 720, boundary.DefaultOptions())
	if first != second {
		t.Fatalf("expected identical windows, got %v and %v", first, second)
	}
	if !reflect.DeepEqual(cues, snapshot) {
		t.Fatalf("Select mutated its input: %v", cues)
	}
}

func TestWindowDegenerate(t *testing.T) {
	if got := boundary.Select(nil, 0, boundary.DefaultOptions()); !got.Degenerate() {
		t.Fatalf("expected empty recording to give a degenerate window, got %v", got)
	}
	w := boundary.Select(map[string][]float64{"shipping": {80, 180}}, 200, boundary.DefaultOptions())
	if w.Start != 75 || w.End != 185 || w.Degenerate() || w.Length() != 110 {
		t.Fatalf("unexpected window %v", w)
	}
}
