package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CueSet maps a trigger keyword to the times, in seconds, at which it was
// first heard in each utterance. Lists are non-decreasing; a keyword that
// never fired is absent.
type CueSet map[string][]float64

// Has reports whether keyword fired at least once.
func (c CueSet) Has(keyword string) bool {
	return len(c[keyword]) > 0
}

// HasAny reports whether any of the keywords fired.
func (c CueSet) HasAny(keywords ...string) bool {
	for _, keyword := range keywords {
		if c.Has(keyword) {
			return true
		}
	}
	return false
}

// Keywords returns the keywords present, sorted.
func (c CueSet) Keywords() []string {
	keys := make([]string, 0, len(c))
	for key, times := range c {
		if len(times) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (c CueSet) Clone() CueSet {
	out := make(CueSet, len(c))
	for key, times := range c {
		out[key] = append([]float64(nil), times...)
	}
	return out
}

// Line is one completed utterance. It is encoded as a [start, text] pair.
type Line struct {
	Start float64
	Text  string
}

func (l Line) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{l.Start, l.Text})
}

func (l *Line) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("transcript line: want [start, text], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &l.Start); err != nil {
		return fmt.Errorf("transcript line start: %w", err)
	}
	if err := json.Unmarshal(pair[1], &l.Text); err != nil {
		return fmt.Errorf("transcript line text: %w", err)
	}
	return nil
}

// Result is everything detection learns about one recording.
type Result struct {
	File       string  `json:"file"`
	Cues       CueSet  `json:"cues"`
	Transcript []Line  `json:"transcript"`
	Length     float64 `json:"length"`
}

// Empty reports whether no audio was processed.
func (r Result) Empty() bool {
	return r.Length == 0 && len(r.Cues) == 0 && len(r.Transcript) == 0
}

// Encode renders the cue file document.
func (r Result) Encode() ([]byte, error) {
	if r.Cues == nil {
		r.Cues = CueSet{}
	}
	if r.Transcript == nil {
		r.Transcript = []Line{}
	}
	return json.Marshal(r)
}

// Decode parses a cue file document.
func Decode(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, err
	}
	if r.Cues == nil {
		r.Cues = CueSet{}
	}
	return r, nil
}

// Summary renders the shipping and forecast cues followed by the length as a
// comma-separated list.
func (r Result) Summary() string {
	values := make([]string, 0, len(r.Cues["shipping"])+len(r.Cues["forecast"])+1)
	for _, keyword := range []string{"shipping", "forecast"} {
		for _, t := range r.Cues[keyword] {
			values = append(values, formatSeconds(t))
		}
	}
	values = append(values, formatSeconds(r.Length))
	return strings.Join(values, ",")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}
