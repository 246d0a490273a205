package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edia/stratmap/internal/model"
)

// fakeClient records every query and answers from a canned table.
type fakeClient struct {
	queries []string
	hits    map[string]*Result
	err     error
}

func (f *fakeClient) Lookup(_ context.Context, query string) (*Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.hits[query]; ok {
		return r, nil
	}
	return &Result{Matched: false}, nil
}

type fakeStates map[string][2]float64

func (f fakeStates) StateCentroid(state string) (float64, float64, bool) {
	c, ok := f[state]
	return c[0], c[1], ok
}

func TestBuildQueries_LadderOrder(t *testing.T) {
	rec := model.Account{
		"name":                   "Dallas Independent School District",
		"state":                  "TX",
		"billing_address_line_1": "9400 N Central Expy",
		"billing_city":           "Dallas",
	}
	got := BuildQueries(rec)
	want := []string{
		"9400 N Central Expy, Dallas, TX, USA",
		"Dallas, TX, USA",
		"Dallas County, TX, USA",
		"Dallas Independent School District, TX, USA",
		"Dallas city, TX, USA",
		"Dallas Independent School District school district, TX, USA",
	}
	assert.Equal(t, want, got)
}

func TestBuildQueries_NoAddressNoCity(t *testing.T) {
	rec := model.Account{"name": "DeSoto County Schools", "state": "MS"}
	got := BuildQueries(rec)
	assert.Equal(t, []string{
		"DeSoto, MS, USA",
		"DeSoto County, MS, USA",
		"DeSoto County Schools, MS, USA",
		"DeSoto city, MS, USA",
		"DeSoto County Schools school district, MS, USA",
	}, got)
}

func TestBuildQueries_SuffixOnlyName(t *testing.T) {
	// The whole name is an organizational suffix; core-name variants drop out.
	rec := model.Account{"name": "District", "state": "OH"}
	got := BuildQueries(rec)
	assert.Equal(t, []string{
		"District, OH, USA",
		"District school district, OH, USA",
	}, got)
}

func TestRun_FirstHitWinsAndStopsLadder(t *testing.T) {
	client := &fakeClient{hits: map[string]*Result{
		"Dallas, TX, USA": {Latitude: 32.7, Longitude: -96.8, Quality: "point", Matched: true},
	}}
	records := []model.Account{
		{"name": "Dallas ISD", "state": "TX"},
	}

	report, err := NewBatcher(client).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Geocoded)
	assert.Equal(t, 0, report.Failed)
	lat, lng, ok := records[0].Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 32.7, lat, 1e-9)
	assert.InDelta(t, -96.8, lng, 1e-9)

	// First variant hit, so no further variants were tried.
	assert.Equal(t, []string{"Dallas, TX, USA"}, client.queries)
}

func TestRun_SkipsRecordsWithCoordinates(t *testing.T) {
	client := &fakeClient{}
	records := []model.Account{
		{"name": "Plano ISD", "state": "TX", "lat": 33.0, "lng": -96.7},
	}

	report, err := NewBatcher(client).Run(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)
	assert.Empty(t, client.queries)
}

func TestRun_OfflineStateCentroidFallback(t *testing.T) {
	client := &fakeClient{}
	states := fakeStates{"TX": {31.0, -99.0}}
	records := []model.Account{
		{"name": "Nowhere ISD", "state": "TX"},
	}

	report, err := NewBatcher(client, WithStateCentroids(states)).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Geocoded)
	assert.Equal(t, 1, report.Approximate)
	lat, lng, ok := records[0].Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 31.0, lat, 1e-9)
	assert.InDelta(t, -99.0, lng, 1e-9)

	// Offline table answered; the network state query was never issued.
	assert.NotContains(t, client.queries, "TX, USA")
}

func TestRun_NetworkStateFallbackWhenNoTable(t *testing.T) {
	client := &fakeClient{hits: map[string]*Result{
		"TX, USA": {Latitude: 31.0, Longitude: -99.0, Quality: "point", Matched: true},
	}}
	records := []model.Account{
		{"name": "Nowhere ISD", "state": "TX"},
	}

	report, err := NewBatcher(client).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Approximate)
	assert.Contains(t, client.queries, "TX, USA")
	lat, lng, ok := records[0].Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 31.0, lat, 1e-9)
	assert.InDelta(t, -99.0, lng, 1e-9)
}

func TestRun_NoStateIsWarnedNotAttempted(t *testing.T) {
	client := &fakeClient{}
	records := []model.Account{
		{"name": "Stateless District"},
	}

	report, err := NewBatcher(client).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Attempted)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Stateless District")
	assert.Empty(t, client.queries)
}

func TestRun_AllMissesCountsFailure(t *testing.T) {
	client := &fakeClient{}
	records := []model.Account{
		{"name": "Ghost ISD", "state": "TX"},
	}

	report, err := NewBatcher(client).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Geocoded)
	assert.Equal(t, 1, report.Failed)
	_, _, ok := records[0].Coordinates()
	assert.False(t, ok)
}

func TestRun_ProgressReported(t *testing.T) {
	client := &fakeClient{}
	var calls [][2]int
	progress := func(done, total int, _ string) {
		calls = append(calls, [2]int{done, total})
	}
	records := []model.Account{
		{"name": "A ISD", "state": "TX"},
		{"name": "B ISD", "state": "TX"},
	}

	_, err := NewBatcher(client, WithProgress(progress)).Run(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestRun_CancelledBetweenRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{}
	records := []model.Account{
		{"name": "A ISD", "state": "TX"},
	}

	_, err := NewBatcher(client).Run(ctx, records)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.queries)
}

func TestRun_ClientErrorDegradesToMiss(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	records := []model.Account{
		{"name": "A ISD", "state": "TX"},
	}

	report, err := NewBatcher(client).Run(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}
