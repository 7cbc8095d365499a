package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/observability"
	"github.com/pmatran/vulnerapp/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawMessage
	index   atomic.Int64
	err     error
	calls   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawMessage, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.Measurement
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, ms []domain.Measurement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, ms...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func rawMessage(offset int64, payload string) domain.RawMessage {
	return domain.RawMessage{
		Value:     []byte(payload),
		Topic:     "gallery-measurements",
		Offset:    offset,
		Timestamp: time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
	}
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawMessage{{
		rawMessage(1, `{"time":"2024-05-01","level":12.5}`),
		rawMessage(2, `{"time":"2024-05-02","level":12.7,"flow":310}`),
	}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), metrics, 50)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 2)
	assert.InDelta(t, 12.7, ldr.loaded[1].Level, 1e-9)
	assert.InDelta(t, 310, ldr.loaded[1].Flow, 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MeasurementsLoaded), 0)
	assert.Zero(t, testutil.ToFloat64(metrics.IngestRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_PoisonMessagesSkippedAndCommitted(t *testing.T) {
	var commits atomic.Int64
	commit := func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	bad := rawMessage(1, `not json`)
	bad.Commit = commit
	empty := rawMessage(2, `{"time":"2024-05-01"}`)
	empty.Commit = commit
	good := rawMessage(3, `{"flow":305}`)
	good.Commit = commit

	ext := &mockExtractor{batches: [][]domain.RawMessage{{bad, empty, good}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), metrics, 50)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, good.Timestamp, ldr.loaded[0].Time, "payload without time takes the message timestamp")
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TransformErrors), 0)
	assert.Equal(t, int64(3), commits.Load())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	committed := false
	raw := rawMessage(1, `{"time":"2024-05-01","level":12.5}`)
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{raw}}}
	ldr := &mockLoader{err: errors.New("dataset not loaded yet")}
	metrics := newTestMetrics()

	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), metrics, 50)
	runFor(t, p, 100*time.Millisecond)

	assert.False(t, committed)
	assert.Zero(t, testutil.ToFloat64(metrics.MeasurementsLoaded))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker unavailable")}

	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), &mockLoader{}, slog.Default(), newTestMetrics(), 50)
	runFor(t, p, 500*time.Millisecond)

	// 200ms then 400ms sleeps leave room for two or three attempts, not a tight loop.
	calls := ext.calls.Load()
	assert.GreaterOrEqual(t, calls, int64(2))
	assert.LessOrEqual(t, calls, int64(3))
}

func TestPipeline_Run_LoadsIntoStoreShape(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawMessage{
		{rawMessage(1, `{"time":"2024-05-01","level":12.5}`)},
		{rawMessage(2, `{"time":"2024-05-02","level":12.6}`)},
	}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), newTestMetrics(), 1)
	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, 2, ldr.count())
}

func TestPipeline_Run_MergesReadingsSharingATimestamp(t *testing.T) {
	var commits atomic.Int64
	commit := func(_ context.Context) error {
		commits.Add(1)
		return nil
	}
	level := rawMessage(1, `{"time":"2024-05-02","level":12.7}`)
	level.Commit = commit
	earlier := rawMessage(2, `{"time":"2024-05-01","level":12.5}`)
	earlier.Commit = commit
	flow := rawMessage(3, `{"time":"2024-05-02","flow":310}`)
	flow.Commit = commit

	ext := &mockExtractor{batches: [][]domain.RawMessage{{level, earlier, flow}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), metrics, 50)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), ldr.loaded[0].Time, "loaded in time order")
	assert.InDelta(t, 12.7, ldr.loaded[1].Level, 1e-9)
	assert.InDelta(t, 310, ldr.loaded[1].Flow, 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MeasurementsLoaded), 0)
	assert.Equal(t, int64(3), commits.Load(), "every source message is committed")
}
