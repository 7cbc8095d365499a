package figure

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/observability"
)

// ErrNotLoaded is returned when no dataset has been installed yet.
var ErrNotLoaded = errors.New("dataset not loaded")

// Source provides dataset snapshots. Generation changes whenever the snapshot does.
type Source interface {
	Snapshot() *domain.Dataset
	Generation() uint64
}

// Builder builds dashboard figures from the current dataset. Returned values
// may be shared between callers and must not be modified.
type Builder interface {
	Historical(ctx context.Context, q HistoricalQuery) (Figure, error)
	Predictions(ctx context.Context, indicator string) ([]Panel, error)
}

// Service builds figures from the latest snapshot of a source.
type Service struct {
	source  Source
	catalog *domain.Catalog
	metrics *observability.Metrics
}

// NewService creates a figure service over a dataset source.
func NewService(source Source, catalog *domain.Catalog, metrics *observability.Metrics) *Service {
	return &Service{source: source, catalog: catalog, metrics: metrics}
}

func (s *Service) Historical(_ context.Context, q HistoricalQuery) (Figure, error) {
	ds := s.source.Snapshot()
	if ds == nil {
		return Figure{}, ErrNotLoaded
	}
	start := time.Now()
	fig, err := Historical(ds, q)
	if err != nil {
		return Figure{}, fmt.Errorf("build historical figure: %w", err)
	}
	s.metrics.FigureBuildDuration.WithLabelValues("historical").Observe(time.Since(start).Seconds())
	return fig, nil
}

func (s *Service) Predictions(_ context.Context, indicator string) ([]Panel, error) {
	ds := s.source.Snapshot()
	if ds == nil {
		return nil, ErrNotLoaded
	}
	code, err := s.catalog.ResolveIndicator(indicator)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	panels := Predictions(ds, s.catalog, code)
	s.metrics.FigureBuildDuration.WithLabelValues("predictions").Observe(time.Since(start).Seconds())
	return panels, nil
}

// Cached wraps a Builder with LRU caches keyed by request and source generation,
// so a dataset change never serves stale figures.
type Cached struct {
	inner       Builder
	source      Source
	metrics     *observability.Metrics
	historical  *lru.Cache[string, Figure]
	predictions *lru.Cache[string, []Panel]
}

// NewCached creates a cache decorator around a builder. Each figure kind keeps
// up to maxEntries entries, at least one.
func NewCached(inner Builder, source Source, maxEntries int, metrics *observability.Metrics) *Cached {
	return &Cached{
		inner:       inner,
		source:      source,
		metrics:     metrics,
		historical:  newLRU[Figure](maxEntries),
		predictions: newLRU[[]Panel](maxEntries),
	}
}

func newLRU[V any](size int) *lru.Cache[string, V] {
	c, err := lru.New[string, V](max(size, 1))
	if err != nil {
		// lru.New only rejects non-positive sizes.
		panic(err)
	}
	return c
}

func (c *Cached) Historical(ctx context.Context, q HistoricalQuery) (Figure, error) {
	key := fmt.Sprintf("%d|%s", c.source.Generation(), q.Key())
	if fig, ok := c.historical.Get(key); ok {
		c.metrics.FigureCache.WithLabelValues("hit").Inc()
		return fig, nil
	}
	c.metrics.FigureCache.WithLabelValues("miss").Inc()

	fig, err := c.inner.Historical(ctx, q)
	if err != nil {
		return fig, err
	}
	c.historical.Add(key, fig)
	return fig, nil
}

func (c *Cached) Predictions(ctx context.Context, indicator string) ([]Panel, error) {
	key := fmt.Sprintf("%d|predictions|%s", c.source.Generation(), indicator)
	if panels, ok := c.predictions.Get(key); ok {
		c.metrics.FigureCache.WithLabelValues("hit").Inc()
		return panels, nil
	}
	c.metrics.FigureCache.WithLabelValues("miss").Inc()

	panels, err := c.inner.Predictions(ctx, indicator)
	if err != nil {
		return nil, err
	}
	c.predictions.Add(key, panels)
	return panels, nil
}
