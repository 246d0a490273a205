package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/fetcher"
	"github.com/edia/stratmap/internal/importer"
	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/pkg/geocode"
)

const maxUploadBytes = 32 << 20

// handleMergePreview parses an uploaded export, reconciles it against the
// current dataset, and stores the result as the single pending merge.
// A new preview replaces any previous uncommitted one.
func (s *Server) handleMergePreview(w http.ResponseWriter, r *http.Request) {
	variant := model.VariantStrategic
	if r.URL.Query().Get("variant") == string(model.VariantCustomers) {
		variant = model.VariantCustomers
	}

	rows, report, err := s.parseUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	variant = importer.DetectVariant(rows, variant)
	reconciler := importer.NewReconciler(s.notes)
	pending, err := reconciler.Reconcile(r.Context(), variant, s.store.Snapshot(variant), rows, s.store.Version())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "a merge commit is in progress")
		return
	}
	s.pending = pending
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      pending.ID,
		"variant": pending.Variant,
		"stats":   pending.Stats,
		"parse":   report,
	})
}

func (s *Server) handleMergePending(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()

	if pending == nil {
		writeError(w, http.StatusNotFound, "no pending merge")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      pending.ID,
		"variant": pending.Variant,
		"stats":   pending.Stats,
	})
}

// handleMergeCommit geocodes the pending merge's unlocated records and
// swaps the canonical dataset. Exactly one commit may run at a time, and a
// commit whose preview predates a dataset change is refused.
func (s *Server) handleMergeCommit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "a merge commit is already in progress")
		return
	}
	pending := s.pending
	if pending == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "no pending merge")
		return
	}
	s.committing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.committing = false
		s.mu.Unlock()
	}()

	var batchOpts []geocode.BatcherOption
	if s.states != nil {
		batchOpts = append(batchOpts, geocode.WithStateCentroids(s.states))
	}
	report, err := geocode.NewBatcher(s.geocoder, batchOpts...).Run(r.Context(), pending.Accounts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	version, err := s.store.Commit(pending.Variant, pending.Accounts, pending.BaseVersion)
	if err != nil {
		// The dataset moved under the preview; the pending merge is stale
		// and its geocode results are discarded with it.
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	zap.L().Info("server: merge committed",
		zap.String("variant", string(pending.Variant)),
		zap.Uint64("version", version),
		zap.Int("records", len(pending.Accounts)),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"version": version,
		"stats":   pending.Stats,
		"geocode": report,
	})
}

func (s *Server) handleMergeCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		writeError(w, http.StatusConflict, "a merge commit is in progress")
		return
	}
	if s.pending == nil {
		writeError(w, http.StatusNotFound, "no pending merge")
		return
	}
	s.pending = nil
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// parseUpload extracts rows from either a multipart "file" part or a raw
// CSV request body.
func (s *Server) parseUpload(r *http.Request) ([]model.RawRow, *model.ParseReport, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, nil, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, nil, err
		}
		defer file.Close() //nolint:errcheck

		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".xlsx", ".xls":
			data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
			if err != nil {
				return nil, nil, err
			}
			return fetcher.ReadXLSXBytes(data, fetcher.XLSXOptions{})
		default:
			decoded, err := fetcher.DecodeReader(file)
			if err != nil {
				return nil, nil, err
			}
			return fetcher.ReadCSV(decoded)
		}
	}

	decoded, err := fetcher.DecodeReader(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, nil, err
	}
	return fetcher.ReadCSV(decoded)
}
