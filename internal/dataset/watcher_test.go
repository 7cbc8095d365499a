package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pmatran/vulnerapp/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Reload(t *testing.T) {
	files := writeFixtures(t, t.TempDir())
	metrics := observability.NewMetricsForTesting()
	store := NewStore(slog.Default(), metrics)
	w := NewWatcher(files, store, 10*time.Millisecond, slog.Default(), metrics)

	require.NoError(t, w.Reload())
	assert.Equal(t, 4, store.Snapshot().Levels.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DatasetReloads.WithLabelValues("success")), 1e-9)
}

func TestWatcher_ReloadFailureKeepsSnapshot(t *testing.T) {
	files := writeFixtures(t, t.TempDir())
	metrics := observability.NewMetricsForTesting()
	store := NewStore(slog.Default(), metrics)
	w := NewWatcher(files, store, 10*time.Millisecond, slog.Default(), metrics)
	require.NoError(t, w.Reload())
	before := store.Snapshot()

	require.NoError(t, os.WriteFile(files.Levels, []byte("date,x\n"), 0o600))

	require.Error(t, w.Reload())
	assert.Same(t, before, store.Snapshot())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DatasetReloads.WithLabelValues("error")), 1e-9)
}

func TestWatcher_RunPicksUpChanges(t *testing.T) {
	files := writeFixtures(t, t.TempDir())
	metrics := observability.NewMetricsForTesting()
	store := NewStore(slog.Default(), metrics)
	w := NewWatcher(files, store, 20*time.Millisecond, slog.Default(), metrics)
	require.NoError(t, w.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Keep rewriting until the watcher has registered and reloaded.
	updated := levelsCSV + "2016-06-02,11.75\n"
	require.Eventually(t, func() bool {
		_ = os.WriteFile(files.Levels, []byte(updated), 0o600)
		return store.Snapshot().Levels.Len() == 5
	}, 5*time.Second, 50*time.Millisecond)

	assert.GreaterOrEqual(t, store.Generation(), uint64(2))

	cancel()
	require.NoError(t, <-errCh)
}

func TestWatcher_RunWaitsForMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-yet")
	files := Files{
		Levels:      filepath.Join(dir, "n_galerie.csv"),
		Flows:       filepath.Join(dir, "q_galerie.csv"),
		Predictions: filepath.Join(dir, "la_results.csv"),
	}
	metrics := observability.NewMetricsForTesting()
	store := NewStore(slog.Default(), metrics)
	w := NewWatcher(files, store, 20*time.Millisecond, slog.Default(), metrics)
	w.retryInterval = 20 * time.Millisecond

	require.Error(t, w.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Run must keep going while the directory is absent.
	select {
	case err := <-errCh:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	require.Error(t, store.CheckReadiness(ctx))

	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeFixtures(t, dir)

	require.Eventually(t, func() bool {
		return store.CheckReadiness(ctx) == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 4, store.Snapshot().Levels.Len())

	cancel()
	require.NoError(t, <-errCh)
}
