package geocode

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/model"
)

// StateLocator supplies an offline approximate centroid for a US state,
// used before falling back to a network state-level query.
type StateLocator interface {
	StateCentroid(state string) (lat, lng float64, ok bool)
}

// ProgressFunc receives progress after every record attempt: 1-based index,
// total records in the worklist, and the record's name.
type ProgressFunc func(done, total int, name string)

// BatchReport summarizes a batch geocoding run. Failures are warnings, not
// errors: an ungeocoded record does not block a merge commit.
type BatchReport struct {
	Attempted   int      `json:"attempted"`
	Geocoded    int      `json:"geocoded"`
	Approximate int      `json:"approximate"` // state-centroid placements
	Failed      int      `json:"failed"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Batcher fills in coordinates for records that lack them, strictly
// sequentially: one external request in flight at a time, rate limiting
// enforced by the client between calls.
type Batcher struct {
	client   Client
	states   StateLocator // optional
	progress ProgressFunc // optional
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithStateCentroids provides an offline state-centroid fallback table.
func WithStateCentroids(loc StateLocator) BatcherOption {
	return func(b *Batcher) { b.states = loc }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) BatcherOption {
	return func(b *Batcher) { b.progress = fn }
}

// NewBatcher creates a Batcher around the given client.
func NewBatcher(client Client, opts ...BatcherOption) *Batcher {
	b := &Batcher{client: client}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run geocodes every record in the slice that is missing coordinates,
// mutating matched records in place. Cancellation via ctx stops between
// records; an in-flight request is allowed to finish.
func (b *Batcher) Run(ctx context.Context, records []model.Account) (*BatchReport, error) {
	var worklist []model.Account
	for _, rec := range records {
		if _, _, ok := rec.Coordinates(); !ok {
			worklist = append(worklist, rec)
		}
	}

	report := &BatchReport{}
	total := len(worklist)
	for i, rec := range worklist {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		name := rec.Name()
		if b.progress != nil {
			b.progress(i+1, total, name)
		}

		state := rec.State()
		if state == "" {
			report.Failed++
			report.Warnings = append(report.Warnings, fmt.Sprintf("no state for %q", name))
			continue
		}
		report.Attempted++

		result := b.locate(ctx, rec, name, state)
		if result == nil {
			report.Failed++
			report.Warnings = append(report.Warnings, fmt.Sprintf("could not geocode %q", name))
			zap.L().Warn("geocode: no result", zap.String("name", name), zap.String("state", state))
			continue
		}

		rec.SetCoordinates(result.Latitude, result.Longitude)
		if result.Quality == "centroid" {
			report.Approximate++
		}
		report.Geocoded++
	}

	zap.L().Info("geocode: batch complete",
		zap.Int("attempted", report.Attempted),
		zap.Int("geocoded", report.Geocoded),
		zap.Int("approximate", report.Approximate),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// locate tries every query variant in order, then the state-centroid
// fallbacks. Per-attempt errors degrade to "this variant failed".
func (b *Batcher) locate(ctx context.Context, rec model.Account, name, state string) *Result {
	for _, query := range BuildQueries(rec) {
		result, err := b.client.Lookup(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			zap.L().Warn("geocode: query failed",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if result.Matched {
			return result
		}
	}

	// Last resort: place the record somewhere in its state rather than
	// nowhere. Offline table first, then one network query.
	if b.states != nil {
		if lat, lng, ok := b.states.StateCentroid(state); ok {
			zap.L().Debug("geocode: offline state centroid",
				zap.String("name", name), zap.String("state", state))
			return &Result{Latitude: lat, Longitude: lng, Quality: "centroid", Matched: true}
		}
	}

	result, err := b.client.Lookup(ctx, state+", USA")
	if err != nil || !result.Matched {
		return nil
	}
	return &Result{
		Latitude:  result.Latitude,
		Longitude: result.Longitude,
		Quality:   "centroid",
		Matched:   true,
	}
}
