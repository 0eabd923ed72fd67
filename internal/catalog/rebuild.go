package catalog

import (
	"context"
	"fmt"
	"path"

	"gale8/internal/broadcast"
	"gale8/internal/logging"
)

// Rejection reasons reported by Rebuild.
const (
	RejectNoMatch   = "no match"
	RejectExcluded  = "excluded"
	RejectWrongTime = "wrong time"
)

// RebuildOptions controls Rebuild.
type RebuildOptions struct {
	// Prefix is the archive prefix listed for recordings.
	Prefix string
	// BroadcastTimes whitelists timings.
	BroadcastTimes []string
	// Exclude lists object keys to leave out.
	Exclude map[string]bool
	// DryRun builds the catalog without saving it.
	DryRun bool
}

// Rejection names an archive object Rebuild left out and why.
type Rejection struct {
	Key    string
	Reason string
}

// Rebuild recreates the catalog from the recordings found under the archive
// prefix. The catalog document itself is not reported as a rejection.
func (s *Store) Rebuild(ctx context.Context, opts RebuildOptions) (*Catalog, []Rejection, error) {
	objects, err := s.blobs.List(ctx, opts.Prefix)
	if err != nil {
		return nil, nil, fmt.Errorf("list archive: %w", err)
	}
	times := timingSet(opts.BroadcastTimes)

	c := New()
	var rejected []Rejection
	for _, obj := range objects {
		if obj.Key == s.key {
			continue
		}
		rec, err := broadcast.Parse(obj.Key)
		if err != nil || rec.Ext != broadcast.DefaultExt || obj.Key != opts.Prefix+path.Base(obj.Key) {
			rejected = append(rejected, Rejection{Key: obj.Key, Reason: RejectNoMatch})
			continue
		}
		if opts.Exclude[obj.Key] {
			rejected = append(rejected, Rejection{Key: obj.Key, Reason: RejectExcluded})
			continue
		}
		if !times[rec.Timing] {
			rejected = append(rejected, Rejection{Key: obj.Key, Reason: RejectWrongTime})
			continue
		}
		c.Append(rec)
	}

	s.logger.Info("catalog rebuilt",
		logging.String(logging.FieldEventType, "catalog_rebuilt"),
		logging.String("prefix", opts.Prefix),
		logging.Int("recordings", c.Len()),
		logging.Int("rejected", len(rejected)),
		logging.Bool("dry_run", opts.DryRun),
	)
	if opts.DryRun {
		return c, rejected, nil
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return c, rejected, err
	}
	defer unlock()
	return c, rejected, s.Save(ctx, c)
}
