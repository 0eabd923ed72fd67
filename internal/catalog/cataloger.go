package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gale8/internal/broadcast"
	"gale8/internal/logging"
	"gale8/internal/services"
)

// Cataloger decides which recordings belong in the catalog and appends them.
type Cataloger struct {
	store  *Store
	times  map[string]bool
	logger *slog.Logger
}

// NewCataloger admits recordings whose timing is one of broadcastTimes.
func NewCataloger(store *Store, broadcastTimes []string, logger *slog.Logger) *Cataloger {
	return &Cataloger{
		store:  store,
		times:  timingSet(broadcastTimes),
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// Consider appends file to the catalog when it names a recording in a
// broadcast slot. When cues are known and neither "shipping" nor "forecast"
// fired, the recording is skipped: the stream could not find where the
// forecast starts. nil or empty cues count as unknown.
func (c *Cataloger) Consider(ctx context.Context, file string, cues map[string][]float64) (broadcast.Recording, error) {
	ctx = services.WithRecording(ctx, file)
	logger := logging.WithContext(ctx, c.logger)

	rec, err := broadcast.Parse(file)
	if err != nil {
		return broadcast.Recording{}, err
	}
	if err := c.admit(rec); err != nil {
		logger.Info("recording not in a broadcast slot; skipping catalog",
			logging.String(logging.FieldEventType, "catalog_skipped"),
			logging.String("timing", rec.Timing),
		)
		return rec, err
	}
	if len(cues) > 0 && len(cues["shipping"]) == 0 && len(cues["forecast"]) == 0 {
		logger.Info("no start cues for recording; skipping catalog",
			logging.String(logging.FieldEventType, "catalog_skipped"),
		)
		return rec, services.Wrap(services.ErrMalformedInput, "catalog", "consider",
			fmt.Sprintf("%s has no shipping or forecast cue", rec), nil)
	}

	if err := c.store.Update(ctx, func(cat *Catalog) error {
		cat.Append(rec)
		return nil
	}); err != nil {
		return rec, err
	}
	logger.Info("recording cataloged",
		logging.String(logging.FieldEventType, "recording_cataloged"),
		logging.String("label", rec.Label()),
	)
	return rec, nil
}

func (c *Cataloger) admit(rec broadcast.Recording) error {
	if c.times[rec.Timing] {
		return nil
	}
	return services.Wrap(services.ErrMalformedInput, "catalog", "consider",
		fmt.Sprintf("%s is not a broadcast time", rec.Timing), nil)
}

func timingSet(times []string) map[string]bool {
	set := make(map[string]bool, len(times))
	for _, t := range times {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}
	return set
}
