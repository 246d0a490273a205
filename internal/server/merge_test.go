package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edia/stratmap/internal/model"
)

func postCSV(t *testing.T, h http.Handler, path, csv string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const updateCSV = "District,State,Stage\nDallas,TX,3 - Pilot\n"

func TestMergeLifecycle_PreviewCommit(t *testing.T) {
	s, store := newTestServer(t)
	router := s.Router()

	rec := postCSV(t, router, "/api/merge/preview", updateCSV)
	require.Equal(t, http.StatusOK, rec.Code)

	var preview struct {
		ID    string           `json:"id"`
		Stats model.MergeStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.NotEmpty(t, preview.ID)
	// Dallas resolves via state-scoped fuzzy match: one update, no new.
	assert.Equal(t, 1, preview.Stats.UpdatedRecords)
	assert.Equal(t, 0, preview.Stats.NewRecords)

	rec = get(t, router, "/api/merge/pending")
	assert.Equal(t, http.StatusOK, rec.Code)

	versionBefore := store.Version()
	rec = post(t, router, "/api/merge/commit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, versionBefore+1, store.Version())

	// The merged dataset kept the canonical name and gained the stage.
	accounts := store.Snapshot(model.VariantStrategic)
	found := false
	for _, acct := range accounts {
		if acct.Name() == "Dallas ISD" {
			found = true
			assert.Equal(t, "3 - Pilot", acct.Str("opp_stage"))
		}
	}
	assert.True(t, found)

	// Commit consumed the pending merge.
	rec = get(t, router, "/api/merge/pending")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergeLifecycle_Cancel(t *testing.T) {
	s, store := newTestServer(t)
	router := s.Router()

	rec := postCSV(t, router, "/api/merge/preview", updateCSV)
	require.Equal(t, http.StatusOK, rec.Code)

	versionBefore := store.Version()
	rec = post(t, router, "/api/merge/cancel")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Nothing changed, nothing left to commit.
	assert.Equal(t, versionBefore, store.Version())
	rec = post(t, router, "/api/merge/commit")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergeCommit_StalePreviewRefused(t *testing.T) {
	s, store := newTestServer(t)
	router := s.Router()

	rec := postCSV(t, router, "/api/merge/preview", updateCSV)
	require.Equal(t, http.StatusOK, rec.Code)

	// The dataset moves between preview and commit.
	store.ReplaceAll(model.VariantStrategic, store.Snapshot(model.VariantStrategic))

	rec = post(t, router, "/api/merge/commit")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The stale pending merge is discarded.
	rec = get(t, router, "/api/merge/pending")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergePreview_NewPreviewReplacesOld(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	rec := postCSV(t, router, "/api/merge/preview", updateCSV)
	require.Equal(t, http.StatusOK, rec.Code)
	var first struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = postCSV(t, router, "/api/merge/preview", "District,State\nSpringfield Schools,IL\n")
	require.Equal(t, http.StatusOK, rec.Code)
	var second struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestMergePreview_GeocodesNewRecordsOnCommit(t *testing.T) {
	s, store := newTestServer(t)
	router := s.Router()

	rec := postCSV(t, router, "/api/merge/preview?variant=strategic",
		"District,State\nMesa Unified,AZ\n")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = post(t, router, "/api/merge/commit")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, acct := range store.Snapshot(model.VariantStrategic) {
		if acct.Name() == "Mesa Unified" {
			_, _, ok := acct.Coordinates()
			assert.True(t, ok, "new record should be geocoded on commit")
			return
		}
	}
	t.Fatal("merged record not found")
}

func TestMergePreview_BadUpload(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/merge/preview", strings.NewReader(""))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	// An empty body parses to zero rows; preview still succeeds with empty
	// stats rather than erroring.
	assert.Equal(t, http.StatusOK, rec.Code)
}
