// Package server exposes the dashboard API: read-only dataset and index
// lookups for the map front end, notes, and the merge preview/commit
// lifecycle with single-pending-merge semantics.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/dataset"
	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/internal/notes"
	"github.com/edia/stratmap/internal/roster"
	"github.com/edia/stratmap/pkg/geocode"
)

// Server holds the API's collaborators and the pending-merge slot.
type Server struct {
	store    *dataset.Store
	roster   *roster.Roster
	notes    notes.Store
	geocoder geocode.Client
	states   geocode.StateLocator // optional
	radius   float64              // proximity radius in miles

	mu         sync.Mutex
	pending    *model.PendingMerge
	committing bool
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithStateCentroids supplies the offline geocode fallback table.
func WithStateCentroids(loc geocode.StateLocator) Option {
	return func(s *Server) { s.states = loc }
}

// WithProximityRadius sets the customer-proximity search radius in miles.
func WithProximityRadius(miles float64) Option {
	return func(s *Server) { s.radius = miles }
}

// New creates a Server.
func New(store *dataset.Store, r *roster.Roster, noteStore notes.Store, geocoder geocode.Client, opts ...Option) *Server {
	s := &Server{
		store:    store,
		roster:   r,
		notes:    noteStore,
		geocoder: geocoder,
		radius:   50,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset/{variant}", s.handleDataset)
		r.Get("/dataset/{variant}/geojson", s.handleGeoJSON)
		r.Get("/accounts/near", s.handleNear)

		r.Route("/index", func(r chi.Router) {
			r.Get("/teams", s.handleTeams)
			r.Get("/teams/{team}/accounts", s.handleTeamAccounts)
			r.Get("/reps/{rep}/accounts", s.handleRepAccounts)
			r.Get("/unique", s.handleUnique)
			r.Get("/autocomplete", s.handleAutocomplete)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/{key}", s.handleListNotes)
			r.Post("/{key}", s.handleAddNote)
		})

		r.Route("/merge", func(r chi.Router) {
			r.Post("/preview", s.handleMergePreview)
			r.Get("/pending", s.handleMergePending)
			r.Post("/commit", s.handleMergeCommit)
			r.Post("/cancel", s.handleMergeCancel)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseVariant resolves the {variant} URL parameter; writes a 404 and
// returns false for anything unknown.
func parseVariant(w http.ResponseWriter, r *http.Request) (model.Variant, bool) {
	v := chi.URLParam(r, "variant")
	switch v {
	case string(model.VariantStrategic), string(model.VariantCustomers):
		return model.Variant(v), true
	default:
		writeError(w, http.StatusNotFound, "unknown variant "+v)
		return "", false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
