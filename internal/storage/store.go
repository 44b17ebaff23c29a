package storage

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/exp/slices"
)

// ErrStoreClosed is returned by operations on a closed store
var ErrStoreClosed = errors.New("store closed")

// DateLayout is the key format of every ledger entry
const DateLayout = "2006-01-02"

// Ledger maps ISO calendar dates to the secret word assigned that day
type Ledger map[string]string

// Clone returns an independent copy of the ledger
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for day, word := range l {
		out[day] = word
	}
	return out
}

// Days returns the ledger's dates in ascending order
func (l Ledger) Days() []string {
	days := make([]string, 0, len(l))
	for day := range l {
		days = append(days, day)
	}
	slices.Sort(days)
	return days
}

// LedgerStore defines durable persistence for the daily word ledger
// All implementations must be safe for concurrent use
type LedgerStore interface {
	// Load returns the full persisted ledger
	// An empty ledger is returned when nothing has been saved yet
	Load(ctx context.Context) (Ledger, error)

	// Save durably replaces the persisted ledger
	// A concurrent Load observes either the old or the new ledger, never a mix
	Save(ctx context.Context, ledger Ledger) error
}

// MemoryStore implements LedgerStore in memory
// Nothing survives the process; used for tests and throwaway servers
type MemoryStore struct {
	mu     sync.RWMutex // Protects data
	data   Ledger       // Last saved ledger
	saves  int          // Number of successful saves
	failOn error        // Error returned by Save when set
}

// NewMemoryStore creates an empty in-memory ledger store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(Ledger),
	}
}

// Load returns a copy of the stored ledger
func (m *MemoryStore) Load(ctx context.Context) (Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data.Clone(), nil
}

// Save replaces the stored ledger with a copy of ledger
func (m *MemoryStore) Save(ctx context.Context, ledger Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn != nil {
		return m.failOn
	}
	m.data = ledger.Clone()
	m.saves++
	return nil
}

// FailSaves makes every subsequent Save return err; nil restores normal behaviour
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = err
}

// Saves returns how many times Save succeeded
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
