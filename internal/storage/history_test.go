package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecentPrices(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		prices := []float64{0.5 + float64(i)*0.01, 0.5 - float64(i)*0.01}
		require.NoError(t, store.AppendPrices("mkt-1", prices, base.Add(time.Duration(i)*time.Minute)))
	}

	points, err := store.RecentPrices("mkt-1", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// Oldest first within the tail.
	assert.Equal(t, []float64{0.52, 0.48}, points[0].Prices)
	assert.Equal(t, []float64{0.54, 0.46}, points[2].Prices)
	assert.True(t, points[0].Ts.Before(points[2].Ts))
}

func TestRecentPrices_FewerThanRequested(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AppendPrices("mkt-1", []float64{0.5}, time.Now()))

	points, err := store.RecentPrices("mkt-1", 10)
	require.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestRecentPrices_Empty(t *testing.T) {
	store := newTestStore(t)

	points, err := store.RecentPrices("unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, points)

	points, err = store.RecentPrices("mkt-1", 0)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestAppendPrices_IsolatedByMarket(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	require.NoError(t, store.AppendPrices("mkt-a", []float64{0.1}, now))
	require.NoError(t, store.AppendPrices("mkt-b", []float64{0.9}, now))

	points, err := store.RecentPrices("mkt-a", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "mkt-a", points[0].MarketID)
	assert.Equal(t, []float64{0.1}, points[0].Prices)
}

func TestAppendPrices_PrefixDoesNotLeak(t *testing.T) {
	store := newTestStore(t)

	// "mkt-1" must not pick up points recorded for "mkt-10".
	now := time.Now()
	require.NoError(t, store.AppendPrices("mkt-1", []float64{0.5}, now))
	require.NoError(t, store.AppendPrices("mkt-10", []float64{0.7}, now))

	points, err := store.RecentPrices("mkt-1", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "mkt-1", points[0].MarketID)
}

func TestAppendPrices_RequiresMarketID(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.AppendPrices("", []float64{0.5}, time.Now()))
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, store.AppendPrices("mkt-1", []float64{0.4, 0.6}, time.Now()))
	require.NoError(t, store.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	points, err := reopened.RecentPrices("mkt-1", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, []float64{0.4, 0.6}, points[0].Prices)
}

func BenchmarkRecentPrices(b *testing.B) {
	store, err := New(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	base := time.Now()
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("mkt-%d", i%10)
		if err := store.AppendPrices(id, []float64{0.5, 0.5}, base.Add(time.Duration(i)*time.Second)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.RecentPrices("mkt-5", 10); err != nil {
			b.Fatal(err)
		}
	}
}
