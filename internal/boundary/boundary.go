package boundary

import (
	"fmt"
	"math"
	"sort"
)

// End-boundary scan modes.
const (
	// ScanFirstPresent stops at the first cue category present in the set,
	// whether or not it had a cue past the end boundary.
	ScanFirstPresent = "first_present"
	// ScanFallthrough moves on to the next category when a present one has
	// no cue past the end boundary.
	ScanFallthrough = "fallthrough"
)

// DefaultSpacing is the padding, in seconds, kept around the segment.
const DefaultSpacing = 5.0

const (
	longStartThreshold = 300.0
	longStartBoundary  = 150.0
	shortStartBoundary = 90.0
	longEndThreshold   = 540.0
	longEndBoundary    = 300.0
	shortEndBoundary   = 180.0
)

var endCategories = []string{"shipping", "bulletin", "bbc", "radio"}

// Options tunes the selector.
type Options struct {
	Spacing float64
	EndScan string
}

// DefaultOptions returns the selector defaults.
func DefaultOptions() Options {
	return Options{Spacing: DefaultSpacing, EndScan: ScanFirstPresent}
}

// Window is the part of a recording kept for the stream, in seconds.
type Window struct {
	Start float64
	End   float64
}

// Length is End minus Start.
func (w Window) Length() float64 { return w.End - w.Start }

// Degenerate reports whether the window holds no audio.
func (w Window) Degenerate() bool { return w.End <= w.Start }

func (w Window) String() string {
	return fmt.Sprintf("%gs-%gs", w.Start, w.End)
}

// Select turns the cues of a recording lasting duration seconds into the
// window to keep. The start is the latest "shipping" cue inside the opening
// boundary, falling back to the earliest "forecast" cue there; the end is the
// earliest cue at or after the closing boundary among the sign-off
// categories. Both are widened by the spacing where the recording allows.
// Select never enforces Start < End; callers skip degenerate windows.
func Select(cues map[string][]float64, duration float64, opts Options) Window {
	if opts.Spacing < 0 || math.IsNaN(opts.Spacing) {
		opts.Spacing = DefaultSpacing
	}
	return Window{
		Start: selectStart(cues, duration, opts.Spacing),
		End:   selectEnd(cues, duration, opts),
	}
}

func selectStart(cues map[string][]float64, duration, spacing float64) float64 {
	boundary := shortStartBoundary
	if duration > longStartThreshold {
		boundary = longStartBoundary
	}

	start := 0.0
	if times := within(cues["shipping"], func(t float64) bool { return t <= boundary }); len(times) > 0 {
		start = times[len(times)-1]
	}
	// A shipping cue at exactly zero counts as no start, as does no cue.
	if start == 0 {
		if times := within(cues["forecast"], func(t float64) bool { return t <= boundary }); len(times) > 0 {
			start = times[0]
		}
	}
	if start > spacing {
		start -= spacing
	}
	return start
}

func selectEnd(cues map[string][]float64, duration float64, opts Options) float64 {
	boundary := shortEndBoundary
	if duration > longEndThreshold {
		boundary = longEndBoundary
	}

	end := duration
	for _, category := range endCategories {
		list, present := cues[category]
		if !present {
			continue
		}
		times := within(list, func(t float64) bool { return t >= boundary })
		if len(times) > 0 {
			end = times[0]
			break
		}
		if opts.EndScan != ScanFallthrough && end != 0 {
			break
		}
	}
	if end+opts.Spacing < duration {
		end += opts.Spacing
	}
	return end
}

func within(times []float64, keep func(float64) bool) []float64 {
	out := make([]float64, 0, len(times))
	for _, t := range times {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Float64s(out)
	return out
}
