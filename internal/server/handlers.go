package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edia/stratmap/internal/export"
	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/internal/notes"
	"github.com/edia/stratmap/internal/proximity"
)

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	variant, ok := parseVariant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  s.store.Version(),
		"accounts": s.store.Snapshot(variant),
	})
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	variant, ok := parseVariant(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteGeoJSON(&buf, s.store.Snapshot(variant)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	idx := s.store.Index()
	teams := make(map[string]any)
	for _, team := range idx.TeamNames() {
		teams[team] = map[string]any{
			"reps":     s.roster.RepsFor(team),
			"accounts": len(idx.AccountsForTeam(team)),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"teams":   teams,
		"overlap": idx.OverlapCount(),
	})
}

func (s *Server) handleTeamAccounts(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")
	idx := s.store.Index()
	accounts := s.store.Snapshot(model.VariantStrategic)

	out := make([]model.Account, 0)
	for _, i := range idx.AccountsForTeam(team) {
		if i < len(accounts) {
			out = append(out, accounts[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRepAccounts(w http.ResponseWriter, r *http.Request) {
	rep := chi.URLParam(r, "rep")
	idx := s.store.Index()
	accounts := s.store.Snapshot(model.VariantStrategic)

	out := make([]model.Account, 0)
	for _, i := range idx.AccountsForRep(rep) {
		if i < len(accounts) {
			out = append(out, accounts[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUnique(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		writeError(w, http.StatusBadRequest, "field parameter required")
		return
	}
	variant := model.VariantStrategic
	if r.URL.Query().Get("variant") == string(model.VariantCustomers) {
		variant = model.VariantCustomers
	}
	team := r.URL.Query().Get("team")

	values := s.store.Index().UniqueValues(variant, team, field)
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	idx := s.store.Index()
	writeJSON(w, http.StatusOK, map[string]any{
		"states":        idx.StateCounts(),
		"regions":       idx.Regions(),
		"region_counts": idx.RegionCounts(),
	})
}

// handleNear lists strategic accounts within the proximity radius of any
// customer. The grid is rebuilt per request; the customer dataset only
// changes on merge commit and the build is linear in customers.
func (s *Server) handleNear(w http.ResponseWriter, r *http.Request) {
	radius := s.radius
	if q := r.URL.Query().Get("radius"); q != "" {
		parsed, err := strconv.ParseFloat(q, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid radius")
			return
		}
		radius = parsed
	}

	grid := proximity.NewGrid(s.store.Snapshot(model.VariantCustomers), radius)

	out := make([]model.Account, 0)
	for _, acct := range s.store.Snapshot(model.VariantStrategic) {
		lat, lng, ok := acct.Coordinates()
		if !ok {
			continue
		}
		if grid.Near(lat, lng) {
			out = append(out, acct)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"radius_miles": radius,
		"accounts":     out,
	})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	list, err := s.notes.List(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []notes.Note{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req struct {
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Author == "" {
		req.Author = "Anonymous"
	}

	note, err := s.notes.Add(r.Context(), key, req.Author, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
