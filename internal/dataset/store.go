// Package dataset owns the canonical account datasets (strategic and
// customer) and their derived indices. ReplaceAll is the only mutation
// entry point; every mutation rebuilds the indices synchronously before
// returning, so readers never observe a dataset/index mismatch.
package dataset

import (
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/internal/roster"
)

// ErrStaleMerge is returned by Commit when the dataset was replaced after
// the pending merge was computed.
var ErrStaleMerge = eris.New("dataset: canonical dataset changed since merge preview")

// Store holds both dataset variants behind a single lock, with a version
// counter bumped on every mutation. A merge preview records the version it
// was computed against; Commit refuses to apply it over a newer dataset.
type Store struct {
	mu        sync.RWMutex
	strategic []model.Account
	customers []model.Account
	version   uint64
	roster    *roster.Roster
	index     *Index
}

// NewStore creates an empty store indexed against the given roster.
func NewStore(r *roster.Roster) *Store {
	s := &Store{roster: r}
	s.index = buildIndex(nil, nil, r)
	return s
}

// Version returns the current dataset version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the record count for a variant.
func (s *Store) Len(variant model.Variant) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slice(variant))
}

// Snapshot returns a copy of one variant's records. Accounts themselves are
// shared; callers that mutate must Clone first.
func (s *Store) Snapshot(variant model.Variant) []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.slice(variant)
	out := make([]model.Account, len(src))
	copy(out, src)
	return out
}

// Index returns the current derived indices. The returned Index is
// immutable once built; a later ReplaceAll swaps in a fresh one rather than
// patching it.
func (s *Store) Index() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// ReplaceAll atomically swaps one variant's dataset and rebuilds the
// indices. Returns the new version.
func (s *Store) ReplaceAll(variant model.Variant, accounts []model.Account) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(variant, accounts)
}

// Commit swaps one variant's dataset only if the store is still at
// baseVersion; otherwise it returns ErrStaleMerge and leaves the dataset
// untouched.
func (s *Store) Commit(variant model.Variant, accounts []model.Account, baseVersion uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != baseVersion {
		return s.version, ErrStaleMerge
	}
	return s.replaceLocked(variant, accounts), nil
}

func (s *Store) replaceLocked(variant model.Variant, accounts []model.Account) uint64 {
	if variant == model.VariantCustomers {
		s.customers = accounts
	} else {
		s.strategic = accounts
	}
	s.version++
	s.index = buildIndex(s.strategic, s.customers, s.roster)

	zap.L().Info("dataset: replaced",
		zap.String("variant", string(variant)),
		zap.Int("records", len(accounts)),
		zap.Uint64("version", s.version),
	)
	return s.version
}

func (s *Store) slice(variant model.Variant) []model.Account {
	if variant == model.VariantCustomers {
		return s.customers
	}
	return s.strategic
}
