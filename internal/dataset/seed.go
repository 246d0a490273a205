package dataset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edia/stratmap/internal/model"
)

// LoadSeed reads the variant seed files (strategic.json, customers.json)
// from dir, both in parallel, and installs them in the store. A missing
// seed file leaves that variant empty with a warning; a malformed one is an
// error.
func LoadSeed(ctx context.Context, store *Store, dir string) error {
	variants := []model.Variant{model.VariantStrategic, model.VariantCustomers}
	loaded := make([][]model.Account, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			accounts, err := ReadSeedFile(filepath.Join(dir, variant.FileName()))
			if err != nil {
				return err
			}
			loaded[i] = accounts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, variant := range variants {
		store.ReplaceAll(variant, loaded[i])
	}
	return nil
}

// ReadSeedFile parses one variant seed file into accounts. Numeric JSON
// values arrive as float64, matching the canonical numeric-field
// representation.
func ReadSeedFile(path string) ([]model.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("dataset: seed file missing, starting empty", zap.String("path", path))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "dataset: read seed %s", path)
	}

	var accounts []model.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse seed %s", path)
	}
	zap.L().Info("dataset: seed loaded",
		zap.String("path", path),
		zap.Int("records", len(accounts)),
	)
	return accounts, nil
}
