package catalog

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"gale8/internal/broadcast"
	"gale8/internal/services"
)

// Catalog indexes recordings as year -> month -> day -> timings. Timings
// within a day keep their append order; every other level is ordered by key.
type Catalog struct {
	years map[string]map[string]map[string][]string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{years: map[string]map[string]map[string][]string{}}
}

// Append adds rec under its day. Duplicates are kept.
func (c *Catalog) Append(rec broadcast.Recording) {
	if c.years == nil {
		c.years = map[string]map[string]map[string][]string{}
	}
	months, ok := c.years[rec.Year]
	if !ok {
		months = map[string]map[string][]string{}
		c.years[rec.Year] = months
	}
	days, ok := months[rec.Month]
	if !ok {
		days = map[string][]string{}
		months[rec.Month] = days
	}
	days[rec.Day] = append(days[rec.Day], rec.Timing)
}

// Len counts the timings in the catalog, duplicates included.
func (c *Catalog) Len() int {
	n := 0
	for _, months := range c.years {
		for _, days := range months {
			for _, timings := range days {
				n += len(timings)
			}
		}
	}
	return n
}

// Last returns the latest day's final timing. Days are compared by key and
// timings by append order.
func (c *Catalog) Last() (broadcast.Recording, error) {
	if c.Len() == 0 {
		return broadcast.Recording{}, emptyCatalog("last")
	}
	year := lastKey(c.years)
	month := lastKey(c.years[year])
	day := lastKey(c.years[year][month])
	timings := c.years[year][month][day]
	return broadcast.New(year, month, day, timings[len(timings)-1]), nil
}

// Random picks a year, then a month within it, then a day, then a timing,
// each uniformly. Recordings on sparse days are therefore more likely than
// recordings on busy ones.
func (c *Catalog) Random(rng *rand.Rand) (broadcast.Recording, error) {
	if c.Len() == 0 {
		return broadcast.Recording{}, emptyCatalog("random")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	year := pick(rng, c.years)
	month := pick(rng, c.years[year])
	day := pick(rng, c.years[year][month])
	timings := c.years[year][month][day]
	return broadcast.New(year, month, day, timings[rng.Intn(len(timings))]), nil
}

// Recordings lists every entry in catalog order.
func (c *Catalog) Recordings() []broadcast.Recording {
	var out []broadcast.Recording
	for _, year := range sortedKeys(c.years) {
		months := c.years[year]
		for _, month := range sortedKeys(months) {
			days := months[month]
			for _, day := range sortedKeys(days) {
				for _, timing := range days[day] {
					out = append(out, broadcast.New(year, month, day, timing))
				}
			}
		}
	}
	return out
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	if c.years == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.years)
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var years map[string]map[string]map[string][]string
	if err := json.Unmarshal(data, &years); err != nil {
		return services.Wrap(services.ErrMalformedInput, "catalog", "decode", "catalog document", err)
	}
	// Branches without timings would make Last and Random pick a dead end.
	for year, months := range years {
		for month, days := range months {
			for day, timings := range days {
				if len(timings) == 0 {
					delete(days, day)
				}
			}
			if len(days) == 0 {
				delete(months, month)
			}
		}
		if len(months) == 0 {
			delete(years, year)
		}
	}
	if years == nil {
		years = map[string]map[string]map[string][]string{}
	}
	c.years = years
	return nil
}

func emptyCatalog(op string) error {
	return services.Wrap(services.ErrEmptyCatalog, "catalog", op, "no recordings cataloged", nil)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func lastKey[V any](m map[string]V) string {
	keys := sortedKeys(m)
	return keys[len(keys)-1]
}

func pick[V any](rng *rand.Rand, m map[string]V) string {
	keys := sortedKeys(m)
	return keys[rng.Intn(len(keys))]
}

func (c *Catalog) String() string {
	return fmt.Sprintf("catalog(%d recordings)", c.Len())
}
