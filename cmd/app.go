package main

import (
	"context"

	"github.com/edia/stratmap/internal/dataset"
	"github.com/edia/stratmap/internal/notes"
	"github.com/edia/stratmap/internal/roster"
	"github.com/edia/stratmap/pkg/geocode"
)

// appEnv bundles the shared subsystems a command needs: the canonical
// dataset store, the roster, the notes store, and the geocoder.
type appEnv struct {
	store    *dataset.Store
	roster   *roster.Roster
	notes    notes.Store
	geocoder geocode.Client
}

// initApp wires the subsystems from config, loads the seed data, and runs
// notes-store migrations.
func initApp(ctx context.Context) (*appEnv, error) {
	r := roster.Default()
	if cfg.Roster.Path != "" {
		loaded, err := roster.Load(cfg.Roster.Path)
		if err != nil {
			return nil, err
		}
		r = loaded
	}

	store := dataset.NewStore(r)
	if err := dataset.LoadSeed(ctx, store, cfg.Data.Dir); err != nil {
		return nil, err
	}

	noteStore, err := notes.Open(ctx, cfg.Notes.Driver, cfg.Notes.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := noteStore.Migrate(ctx); err != nil {
		noteStore.Close()
		return nil, err
	}

	client := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithInterval(cfg.Geocode.Interval()),
	)

	return &appEnv{
		store:    store,
		roster:   r,
		notes:    noteStore,
		geocoder: client,
	}, nil
}

func (e *appEnv) Close() {
	if e.notes != nil {
		_ = e.notes.Close()
	}
}
