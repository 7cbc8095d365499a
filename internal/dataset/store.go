package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/observability"
)

// DefaultLiveLimit bounds the live overlay when no limit is configured.
const DefaultLiveLimit = 10000

// Store holds the dataset snapshot loaded from disk plus live measurements
// received since startup. Readers get immutable snapshots.
type Store struct {
	mu         sync.RWMutex
	base       *domain.Dataset
	live       []domain.Measurement
	liveLimit  int
	current    *domain.Dataset
	generation uint64

	logger  *slog.Logger
	metrics *observability.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLiveLimit caps the number of live measurements kept; the oldest received
// are evicted first. Non-positive values keep the default.
func WithLiveLimit(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.liveLimit = n
		}
	}
}

// NewStore creates an empty store. It reports not ready until Replace is called.
func NewStore(logger *slog.Logger, metrics *observability.Metrics, opts ...StoreOption) *Store {
	s := &Store{logger: logger, metrics: metrics, liveLimit: DefaultLiveLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current dataset, or nil before the first load.
func (s *Store) Snapshot() *domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Generation increments on every change to the snapshot. Caches key on it.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Replace installs a dataset freshly loaded from disk. Live measurements the
// new export already covers are dropped; the rest are merged back on top.
func (s *Store) Replace(ds *domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.base = ds
	s.live = s.fresh(s.live)
	s.current = ds.WithMeasurements(s.live)
	s.generation++
	s.observe()

	s.logger.Info("dataset installed",
		"levels", s.current.Levels.Len(),
		"flows", s.current.Flows.Len(),
		"predictions", len(s.current.Predictions),
		"live", len(s.live),
		"generation", s.generation,
	)
}

// LoadBatch merges live measurements into the snapshot. Readings at or before
// the end of the exported series are dropped as stale.
func (s *Store) LoadBatch(_ context.Context, ms []domain.Measurement) error {
	if len(ms) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base == nil {
		return errors.New("dataset not loaded yet")
	}
	ms = s.fresh(ms)
	if len(ms) == 0 {
		return nil
	}

	s.live = append(s.live, ms...)
	if over := len(s.live) - s.liveLimit; over > 0 {
		s.live = append([]domain.Measurement(nil), s.live[over:]...)
		s.metrics.LiveDropped.WithLabelValues("evicted").Add(float64(over))
		s.current = s.base.WithMeasurements(s.live)
	} else {
		s.current = s.current.WithMeasurements(ms)
	}
	s.generation++
	s.observe()
	return nil
}

// CheckReadiness reports whether a dataset has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.Snapshot() == nil {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// fresh keeps the parts of ms not covered by the base export.
// Must be called with s.mu held.
func (s *Store) fresh(ms []domain.Measurement) []domain.Measurement {
	out := make([]domain.Measurement, 0, len(ms))
	for _, m := range ms {
		if m, ok := s.base.Fresh(m); ok {
			out = append(out, m)
		}
	}
	if dropped := len(ms) - len(out); dropped > 0 {
		s.metrics.LiveDropped.WithLabelValues("stale").Add(float64(dropped))
	}
	return out
}

// observe must be called with s.mu held.
func (s *Store) observe() {
	s.metrics.DatasetRows.WithLabelValues("levels").Set(float64(s.current.Levels.Len()))
	s.metrics.DatasetRows.WithLabelValues("flows").Set(float64(s.current.Flows.Len()))
	s.metrics.DatasetRows.WithLabelValues("predictions").Set(float64(len(s.current.Predictions)))
	s.metrics.DatasetRows.WithLabelValues("live").Set(float64(len(s.live)))
}
