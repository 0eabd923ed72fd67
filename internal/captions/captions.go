package captions

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gale8/internal/services"
)

const header = "WEBVTT"

// Cue is one caption on the assembled stream, in seconds from its start.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Track is an ordered caption track. Cues are numbered from 1 when rendered.
type Track struct {
	Cues []Cue
}

// Add appends a cue.
func (t *Track) Add(start, end float64, text string) {
	t.Cues = append(t.Cues, Cue{Start: start, End: end, Text: text})
}

// End returns the end of the last cue, or 0 for an empty track.
func (t Track) End() float64 {
	if len(t.Cues) == 0 {
		return 0
	}
	return t.Cues[len(t.Cues)-1].End
}

// Render writes the track as WebVTT with sequentially numbered cues.
func (t Track) Render() []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString("\n\n")
	for i, cue := range t.Cues {
		fmt.Fprintf(&buf, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	}
	return buf.Bytes()
}

// FormatTimestamp renders seconds as minutes:seconds.milliseconds. Minutes
// are not wrapped into hours.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	minutes := millis / 60000
	millis %= 60000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, millis/1000, millis%1000)
}

// ParseTimestamp reads minutes:seconds.milliseconds, with an optional hours
// field in front.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	whole, frac, ok := strings.Cut(value, ".")
	if !ok || len(frac) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	millis, err := strconv.Atoi(frac)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(whole, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || (i > 0 && n >= 60) {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		total = total*60 + n
	}
	return float64(total) + float64(millis)/1000, nil
}

// Parse reads a track produced by Render. Cue numbers are ignored.
func Parse(data []byte) (Track, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, header) {
		return Track{}, services.Wrap(services.ErrMalformedInput, "captions", "parse", "missing WEBVTT header", nil)
	}

	var track Track
	for _, block := range strings.Split(content, "\n\n")[1:] {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			continue
		}
		startText, endText, _ := strings.Cut(lines[timing], "-->")
		start, err := ParseTimestamp(startText)
		if err != nil {
			return Track{}, services.Wrap(services.ErrMalformedInput, "captions", "parse", "cue start", err)
		}
		end, err := ParseTimestamp(endText)
		if err != nil {
			return Track{}, services.Wrap(services.ErrMalformedInput, "captions", "parse", "cue end", err)
		}
		track.Add(start, end, strings.Join(lines[timing+1:], "\n"))
	}
	return track, nil
}
