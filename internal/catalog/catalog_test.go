package catalog_test

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"gale8/internal/broadcast"
	"gale8/internal/catalog"
	"gale8/internal/services"
)

func rec(year, month, day, timing string) broadcast.Recording {
	return broadcast.New(year, month, day, timing)
}

func TestEmptyCatalog(t *testing.T) {
	c := catalog.New()
	if _, err := c.Last(); !errors.Is(err, services.ErrEmptyCatalog) {
		t.Fatalf("expected empty catalog error from Last, got %v", err)
	}
	if _, err := c.Random(rand.New(rand.NewSource(1))); !errors.Is(err, services.ErrEmptyCatalog) {
		t.Fatalf("expected empty catalog error from Random, got %v", err)
	}
	data, err := json.Marshal(c)
	if err != nil || string(data) != "{}" {
		t.Fatalf("unexpected empty encoding %s (%v)", data, err)
	}
}

func TestLastAfterAppend(t *testing.T) {
	c := catalog.New()
	c.Append(rec("2024", "10", "14", "0520"))
	c.Append(rec("2023", "12", "31", "1754"))
	c.Append(rec("2024", "10", "14", "0048"))
	c.Append(rec("2024", "09", "30", "1754"))

	last, err := c.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	// Timings within a day keep append order, so 0048 appended last wins.
	if last.FileName() != "20241014Z0048.mp3" {
		t.Fatalf("unexpected last recording %s", last)
	}

	c.Append(rec("2024", "10", "15", "1201"))
	if last, _ := c.Last(); last.FileName() != "20241015Z1201.mp3" {
		t.Fatalf("expected appended recording to become last, got %s", last)
	}
}

func TestAppendKeepsDuplicates(t *testing.T) {
	c := catalog.New()
	c.Append(rec("2024", "10", "14", "0520"))
	c.Append(rec("2024", "10", "14", "0520"))
	if c.Len() != 2 {
		t.Fatalf("expected duplicate to be kept, got %d entries", c.Len())
	}
}

func TestRandomReturnsCatalogedRecordings(t *testing.T) {
	c := catalog.New()
	c.Append(rec("2023", "01", "01", "0048"))
	for _, timing := range []string{"0048", "0520", "1201", "1754"} {
		for _, day := range []string{"01", "02"} {
			c.Append(rec("2024", "06", day, timing))
		}
	}
	known := map[string]bool{}
	for _, r := range c.Recordings() {
		known[r.FileName()] = true
	}

	rng := rand.New(rand.NewSource(42))
	lonely := 0
	const draws = 2000
	for i := 0; i < draws; i++ {
		r, err := c.Random(rng)
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		if !known[r.FileName()] {
			t.Fatalf("Random returned uncataloged recording %s", r)
		}
		if r.Year == "2023" {
			lonely++
		}
	}
	// Each year is equally likely, so the single 2023 recording comes up about
	// half the time rather than one draw in nine.
	if lonely < draws/3 || lonely > draws*2/3 {
		t.Fatalf("expected per-level uniform choice, 2023 drawn %d of %d times", lonely, draws)
	}
}

func TestCatalogJSON(t *testing.T) {
	doc := `{"2024":{"10":{"14":["0520","1754"],"15":[]}},"2025":{}}`
	c := catalog.New()
	if err := json.Unmarshal([]byte(doc), c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 recordings, got %d", c.Len())
	}
	last, err := c.Last()
	if err != nil || last.FileName() != "20241014Z1754.mp3" {
		t.Fatalf("expected empty branches to be pruned, got %s (%v)", last, err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"2024":{"10":{"14":["0520","1754"]}}}` {
		t.Fatalf("unexpected encoding %s", data)
	}

	if err := json.Unmarshal([]byte(`["nope"]`), catalog.New()); !errors.Is(err, services.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}

func TestRecordingsAreOrdered(t *testing.T) {
	c := catalog.New()
	c.Append(rec("2024", "10", "15", "1754"))
	c.Append(rec("2024", "10", "14", "1754"))
	c.Append(rec("2024", "10", "14", "0520"))
	var names []string
	for _, r := range c.Recordings() {
		names = append(names, r.FileName())
	}
	want := []string{"20241014Z1754.mp3", "20241014Z0520.mp3", "20241015Z1754.mp3"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected order %v", names)
		}
	}
}
