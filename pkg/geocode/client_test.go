package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_ParsesCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Dallas, TX, USA", r.URL.Query().Get("q"))
		assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"32.7767","lon":"-96.7970"}]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithInterval(0))
	got, err := c.Lookup(context.Background(), "Dallas, TX, USA")
	require.NoError(t, err)
	assert.True(t, got.Matched)
	assert.InDelta(t, 32.7767, got.Latitude, 1e-9)
	assert.InDelta(t, -96.7970, got.Longitude, 1e-9)
	assert.Equal(t, "point", got.Quality)
}

func TestLookup_EmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithInterval(0))
	got, err := c.Lookup(context.Background(), "Nowhere, ZZ, USA")
	require.NoError(t, err)
	assert.False(t, got.Matched)
}

func TestLookup_ServerErrorIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithInterval(0))
	_, err := c.Lookup(context.Background(), "Dallas, TX, USA")
	assert.Error(t, err)
}

func TestLookup_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(WithInterval(0))
	_, err := c.Lookup(ctx, "Dallas, TX, USA")
	assert.Error(t, err)
}
