package ledger

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/dailyword/internal/storage"
)

var testPool = []string{"COLD", "MINT", "WAVE"}

func day(d int) time.Time {
	return time.Date(2026, time.October, d, 9, 30, 0, 0, time.UTC)
}

func newTestLedger(t *testing.T, store storage.LedgerStore) *Ledger {
	t.Helper()
	l, err := New(context.Background(), testPool, store, WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	return l
}

// TestNew covers construction and validation
func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pool", func(t *testing.T) {
		_, err := New(ctx, nil, storage.NewMemoryStore())
		assert.ErrorIs(t, err, ErrEmptyPool)
	})

	t.Run("duplicate pool word", func(t *testing.T) {
		_, err := New(ctx, []string{"MINT", "MINT"}, storage.NewMemoryStore())
		assert.Error(t, err)
	})

	t.Run("default random source", func(t *testing.T) {
		l, err := New(ctx, testPool, storage.NewMemoryStore())
		require.NoError(t, err)
		w, err := l.GetOrAssign(ctx, day(1))
		require.NoError(t, err)
		assert.Contains(t, testPool, w)
	})

	t.Run("load failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.json")
		store, err := storage.NewFileStore(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

		_, err = New(ctx, testPool, store)
		assert.Error(t, err)
	})
}

// TestGetOrAssignIdempotent verifies a day keeps its word
func TestGetOrAssignIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := newTestLedger(t, store)

	first, err := l.GetOrAssign(ctx, day(17))
	require.NoError(t, err)
	assert.Contains(t, testPool, first)

	// Same calendar day at a different hour
	later := time.Date(2026, time.October, 17, 23, 59, 59, 0, time.UTC)
	again, err := l.GetOrAssign(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	assert.Equal(t, 1, store.Saves(), "reads of an assigned day must not write")

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Ledger{"2026-10-17": first}, saved)
}

// TestDayKeyUsesLocation verifies the calendar date comes from the time's zone
func TestDayKeyUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	instant := time.Date(2026, time.October, 17, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-10-17", DayKey(instant))
	assert.Equal(t, "2026-10-18", DayKey(instant.In(tokyo)))
}

// TestNoRepeatUntilExhausted verifies each pool word appears once per cycle
func TestNoRepeatUntilExhausted(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, storage.NewMemoryStore())

	seen := map[string]bool{}
	for d := 1; d <= len(testPool); d++ {
		w, err := l.GetOrAssign(ctx, day(d))
		require.NoError(t, err)
		assert.False(t, seen[w], "word %s repeated before pool exhausted", w)
		seen[w] = true
	}
	assert.Len(t, seen, len(testPool))

	stats := l.Stats()
	assert.Equal(t, len(testPool), stats.CycleUsed)
	assert.Equal(t, 0, stats.CyclesEnded)
}

// TestExhaustionStartsNewCycle verifies reuse after the pool runs out
// while earlier days keep their words
func TestExhaustionStartsNewCycle(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, storage.NewMemoryStore())

	for d := 1; d <= len(testPool); d++ {
		_, err := l.GetOrAssign(ctx, day(d))
		require.NoError(t, err)
	}
	before := l.History()

	// Two full extra cycles
	second := map[string]bool{}
	for d := len(testPool) + 1; d <= 2*len(testPool); d++ {
		w, err := l.GetOrAssign(ctx, day(d))
		require.NoError(t, err)
		require.NotEmpty(t, w)
		assert.False(t, second[w], "word %s repeated inside second cycle", w)
		second[w] = true
	}
	assert.Len(t, second, len(testPool))

	w, err := l.GetOrAssign(ctx, day(2*len(testPool)+1))
	require.NoError(t, err)
	assert.Contains(t, testPool, w)

	history := l.History()
	for k, v := range before {
		assert.Equal(t, v, history[k], "history for %s changed", k)
	}

	stats := l.Stats()
	assert.Equal(t, 2*len(testPool)+1, stats.Days)
	assert.Equal(t, 2, stats.CyclesEnded)
	assert.Equal(t, 1, stats.CycleUsed)
	assert.Equal(t, len(testPool), stats.PoolSize)
}

// TestRestartKeepsWordAndCycle verifies history and cycle state survive a reload
func TestRestartKeepsWordAndCycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	store, err := storage.NewFileStore(path)
	require.NoError(t, err)
	l := newTestLedger(t, store)

	w1, err := l.GetOrAssign(ctx, day(1))
	require.NoError(t, err)
	w2, err := l.GetOrAssign(ctx, day(2))
	require.NoError(t, err)

	reopened, err := storage.NewFileStore(path)
	require.NoError(t, err)
	restarted, err := New(ctx, testPool, reopened, WithRand(rand.New(rand.NewPCG(99, 99))))
	require.NoError(t, err)

	got, err := restarted.GetOrAssign(ctx, day(2))
	require.NoError(t, err)
	assert.Equal(t, w2, got)

	// The only unused word must come next
	w3, err := restarted.GetOrAssign(ctx, day(3))
	require.NoError(t, err)
	assert.ElementsMatch(t, testPool, []string{w1, w2, w3})
}

// TestReplayFromHistory covers cycle reconstruction from stored entries
func TestReplayFromHistory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		history     storage.Ledger
		cycleUsed   int
		cyclesEnded int
	}{
		{
			name:    "empty",
			history: storage.Ledger{},
		},
		{
			name:      "partial cycle",
			history:   storage.Ledger{"2026-10-01": "MINT", "2026-10-02": "COLD"},
			cycleUsed: 2,
		},
		{
			name: "full cycle stays open until next assignment",
			history: storage.Ledger{
				"2026-10-01": "MINT", "2026-10-02": "COLD", "2026-10-03": "WAVE",
			},
			cycleUsed: 3,
		},
		{
			name: "second cycle in progress",
			history: storage.Ledger{
				"2026-10-01": "MINT", "2026-10-02": "COLD", "2026-10-03": "WAVE",
				"2026-10-04": "COLD",
			},
			cycleUsed:   1,
			cyclesEnded: 1,
		},
		{
			name: "retired words are ignored",
			history: storage.Ledger{
				"2026-10-01": "LAMP", "2026-10-02": "MINT",
			},
			cycleUsed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Save(ctx, tt.history))

			l := newTestLedger(t, store)
			stats := l.Stats()
			assert.Equal(t, len(tt.history), stats.Days)
			assert.Equal(t, tt.cycleUsed, stats.CycleUsed)
			assert.Equal(t, tt.cyclesEnded, stats.CyclesEnded)
		})
	}
}

// TestReplayedCycleExcludesUsedWords verifies the next pick honours stored history
func TestReplayedCycleExcludesUsedWords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(ctx, storage.Ledger{"2026-10-01": "MINT", "2026-10-02": "COLD"}))

	for seed := uint64(0); seed < 20; seed++ {
		l, err := New(ctx, testPool, store, WithRand(rand.New(rand.NewPCG(seed, seed))))
		require.NoError(t, err)
		w, err := l.GetOrAssign(ctx, day(3))
		require.NoError(t, err)
		require.Equal(t, "WAVE", w)

		// Reset so every seed starts from the same history
		require.NoError(t, store.Save(ctx, storage.Ledger{"2026-10-01": "MINT", "2026-10-02": "COLD"}))
	}
}

// TestPersistenceFailure verifies failed saves are not committed
func TestPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := newTestLedger(t, store)

	boom := errors.New("disk full")
	store.FailSaves(boom)

	w, err := l.GetOrAssign(ctx, day(17))
	require.Error(t, err)
	assert.Empty(t, w)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "2026-10-17", perr.Day)
	assert.True(t, perr.Retryable())
	assert.ErrorIs(t, err, boom)

	_, ok := l.Lookup(day(17))
	assert.False(t, ok, "failed assignment must not be visible")
	assert.Equal(t, 0, l.Stats().Days)
	assert.Equal(t, 0, l.Stats().CycleUsed)

	store.FailSaves(nil)
	w, err = l.GetOrAssign(ctx, day(17))
	require.NoError(t, err)
	assert.Contains(t, testPool, w)
}

// TestConcurrentFirstRequests verifies racing callers agree on one word
func TestConcurrentFirstRequests(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := newTestLedger(t, store)

	const workers = 50
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := l.GetOrAssign(ctx, day(17))
			assert.NoError(t, err)
			results[i] = w
		}(i)
	}
	wg.Wait()

	for _, w := range results {
		assert.Equal(t, results[0], w)
	}
	assert.Equal(t, 1, store.Saves())
}

// TestPersistenceErrorMessage verifies the error text names the day
func TestPersistenceErrorMessage(t *testing.T) {
	err := &PersistenceError{Day: "2026-10-17", Err: errors.New("disk full")}
	assert.Equal(t, "persist word for 2026-10-17: disk full", err.Error())
}
