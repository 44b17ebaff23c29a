package ledger

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/dreamware/dailyword/internal/storage"
)

// ErrEmptyPool is returned by New when there is nothing to assign
var ErrEmptyPool = errors.New("word pool is empty")

// PersistenceError reports that a new assignment could not be saved.
// The assignment was not committed; calling GetOrAssign again is safe.
type PersistenceError struct {
	Day string // Date that was being assigned
	Err error  // Store failure
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist word for %s: %v", e.Day, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Retryable is always true: nothing was committed, so the caller may try again
func (e *PersistenceError) Retryable() bool {
	return true
}

// Stats describes the ledger for monitoring
type Stats struct {
	Days        int `json:"days"`         // Recorded dates
	PoolSize    int `json:"pool_size"`    // Words eligible as secrets
	CycleUsed   int `json:"cycle_used"`   // Pool words used in the current cycle
	CyclesEnded int `json:"cycles_ended"` // Times the pool was exhausted
}

// Ledger assigns one secret word per calendar date and remembers it.
//
// Invariants:
//   - A recorded date never changes its word
//   - Within a cycle no pool word is assigned twice
//   - A new cycle starts only once every pool word has been used
//
// Concurrency model:
//   - Lookups of recorded dates take the read lock
//   - Assignment holds the write lock across pick, save and commit,
//     so concurrent first requests of a day agree on one word
type Ledger struct {
	pool    []string        // Secret pool, index i ↔ bit i in used
	index   map[string]uint // Word → pool index
	entries storage.Ledger  // Committed history
	used    *bitset.BitSet  // Pool words used in the current cycle
	cycles  int             // Completed cycles
	store   storage.LedgerStore
	rng     *rand.Rand // Guarded by mu (write lock)
	mu      sync.RWMutex
}

// Option configures a Ledger
type Option func(*Ledger)

// WithRand sets the random source used to pick words
func WithRand(rng *rand.Rand) Option {
	return func(l *Ledger) {
		l.rng = rng
	}
}

// New loads the persisted history from store and rebuilds the current cycle.
func New(ctx context.Context, pool []string, store storage.LedgerStore, opts ...Option) (*Ledger, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	l := &Ledger{
		pool:  append([]string(nil), pool...),
		index: make(map[string]uint, len(pool)),
		store: store,
	}
	for i, w := range l.pool {
		if _, dup := l.index[w]; dup {
			return nil, fmt.Errorf("duplicate pool word %q", w)
		}
		l.index[w] = uint(i)
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		rng, err := newRand()
		if err != nil {
			return nil, err
		}
		l.rng = rng
	}

	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l.entries = entries
	l.replay()

	log.Printf("ledger: loaded %d days, %d/%d pool words used in current cycle",
		len(l.entries), l.used.Count(), len(l.pool))
	return l, nil
}

// newRand seeds a ChaCha8 generator from crypto/rand
func newRand() (*rand.Rand, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}

// replay rebuilds the used set by walking history in date order.
// Words no longer in the pool are skipped. Must be called with mu held
// or before the ledger is shared.
func (l *Ledger) replay() {
	l.used = bitset.New(uint(len(l.pool)))
	l.cycles = 0
	for _, day := range l.entries.Days() {
		idx, ok := l.index[l.entries[day]]
		if !ok {
			continue
		}
		if l.exhausted(l.used) {
			l.used.ClearAll()
			l.cycles++
		}
		l.used.Set(idx)
	}
}

func (l *Ledger) exhausted(used *bitset.BitSet) bool {
	return used.Count() >= uint(len(l.pool))
}

// DayKey normalises t to the ledger's date key in t's own location
func DayKey(t time.Time) string {
	return t.Format(storage.DateLayout)
}

// Lookup returns the word recorded for the date of today, if any
func (l *Ledger) Lookup(today time.Time) (string, bool) {
	day := DayKey(today)
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.entries[day]
	return w, ok
}

// GetOrAssign returns the secret word for the calendar date of today,
// assigning and persisting one if the date has none yet.
//
// A new word is drawn uniformly from the pool words not used in the current
// cycle. When every pool word has been used a new cycle begins; earlier
// dates keep their words. The assignment is visible to other callers only
// after the store has saved it; on a failed save a *PersistenceError is
// returned and the ledger is unchanged.
func (l *Ledger) GetOrAssign(ctx context.Context, today time.Time) (string, error) {
	if w, ok := l.Lookup(today); ok {
		return w, nil
	}
	day := DayKey(today)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another caller may have assigned the day while we waited
	if w, ok := l.entries[day]; ok {
		return w, nil
	}

	used := l.used.Clone()
	newCycle := false
	if l.exhausted(used) {
		used.ClearAll()
		newCycle = true
	}

	available := make([]uint, 0, len(l.pool)-int(used.Count()))
	for i := uint(0); i < uint(len(l.pool)); i++ {
		if !used.Test(i) {
			available = append(available, i)
		}
	}
	pick := available[l.rng.IntN(len(available))]
	word := l.pool[pick]

	next := l.entries.Clone()
	next[day] = word
	if err := l.store.Save(ctx, next); err != nil {
		return "", &PersistenceError{Day: day, Err: err}
	}

	used.Set(pick)
	l.entries = next
	l.used = used
	if newCycle {
		l.cycles++
		log.Printf("ledger: pool of %d words exhausted, new cycle starts %s", len(l.pool), day)
	}
	log.Printf("ledger: assigned word for %s (%d/%d used this cycle)", day, used.Count(), len(l.pool))
	return word, nil
}

// History returns a copy of every recorded date and word
func (l *Ledger) History() storage.Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries.Clone()
}

// Stats returns current ledger statistics
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Stats{
		Days:        len(l.entries),
		PoolSize:    len(l.pool),
		CycleUsed:   int(l.used.Count()),
		CyclesEnded: l.cycles,
	}
}
