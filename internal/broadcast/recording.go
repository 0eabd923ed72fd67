package broadcast

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"gale8/internal/services"
)

const (
	// DefaultExt is the extension recordings are captured with.
	DefaultExt = "mp3"

	stampLayout = "20060102Z1504"
	labelLayout = "Monday 2 January 2006, 15:04"
)

var fileNamePattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})Z(\d{4})\.([A-Za-z0-9]+)$`)

// Recording identifies one captured broadcast by its UK local start time.
// The fields keep their zero-padded textual form because the catalog orders
// them lexicographically.
type Recording struct {
	Year   string
	Month  string
	Day    string
	Timing string
	Ext    string
}

// New builds a recording with the default extension.
func New(year, month, day, timing string) Recording {
	return Recording{Year: year, Month: month, Day: day, Timing: timing, Ext: DefaultExt}
}

// FromTime returns the recording captured at t.
func FromTime(t time.Time) Recording {
	r, _ := Parse(t.Format(stampLayout) + "." + DefaultExt)
	return r
}

// Parse decodes a file name or object key following the YYYYMMDDZHHMM.<ext>
// convention. Any directory prefix is ignored.
func Parse(name string) (Recording, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	m := fileNamePattern.FindStringSubmatch(base)
	if m == nil {
		return Recording{}, services.Wrap(services.ErrMalformedInput, "broadcast", "parse",
			fmt.Sprintf("%q does not match YYYYMMDDZHHMM.<ext>", name), nil)
	}
	if _, err := time.Parse(stampLayout, m[1]+m[2]+m[3]+"Z"+m[4]); err != nil {
		return Recording{}, services.Wrap(services.ErrMalformedInput, "broadcast", "parse",
			fmt.Sprintf("%q is not a valid broadcast time", name), err)
	}
	return Recording{Year: m[1], Month: m[2], Day: m[3], Timing: m[4], Ext: strings.ToLower(m[5])}, nil
}

// FileName renders the recording using the naming convention.
func (r Recording) FileName() string {
	ext := r.Ext
	if ext == "" {
		ext = DefaultExt
	}
	return r.Year + r.Month + r.Day + "Z" + r.Timing + "." + ext
}

func (r Recording) String() string { return r.FileName() }

// Time returns the broadcast start as a wall-clock time. The location is UTC
// only as a carrier; the digits are UK local time.
func (r Recording) Time() time.Time {
	t, err := time.Parse(stampLayout, r.Year+r.Month+r.Day+"Z"+r.Timing)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Label renders the broadcast time for captions, e.g. "Monday 14 October 2024, 05:20".
func (r Recording) Label() string {
	t := r.Time()
	if t.IsZero() {
		return r.FileName()
	}
	return t.Format(labelLayout)
}

// ExpectedLength returns the nominal capture length in seconds for the
// recording's broadcast slot, or 0 when the slot is unknown.
func (r Recording) ExpectedLength() float64 {
	switch r.Timing {
	case "0048", "0520":
		return 720
	case "1201", "1754":
		return 360
	default:
		return 0
	}
}
