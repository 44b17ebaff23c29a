// Package storage defines the persistence contract for the daily word ledger
// and provides the in-memory and JSON file backends. A SQLite backend lives in
// the sqlite subpackage.
//
// # Overview
//
// The ledger is a small record mapping calendar dates to the secret word that
// was assigned on that date. It is the only durable state of the server: if it
// is lost or diverges, players on the same day may be scored against
// different words. The ledger package depends only on the LedgerStore
// contract, never on a concrete backend.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│        ledger.Ledger                │
//	│   (assignment, cycle tracking)      │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│        LedgerStore                  │
//	│     Load(ctx) / Save(ctx, l)        │
//	└─────────────────────────────────────┘
//	                 │
//	    ┌────────────┼────────────┐
//	    ▼            ▼            ▼
//	┌────────┐  ┌────────┐  ┌────────┐
//	│ Memory │  │  File  │  │ SQLite │
//	│ Store  │  │ Store  │  │ Store  │
//	└────────┘  └────────┘  └────────┘
//
// # Core Interface
//
// LedgerStore: whole-ledger persistence
//   - Load(ctx) - Read every recorded date→word entry
//   - Save(ctx, ledger) - Durably replace the recorded entries
//
// Save is write-through: it returns only after the data is durable, and the
// caller treats any error as "not committed".
//
// # Implementations
//
// MemoryStore: map guarded by sync.RWMutex
//   - No persistence (data lost on restart)
//   - FailSaves injects write failures for tests
//
// FileStore: a single JSON object {"2026-10-17": "MINT", ...}
//   - Temp file in the same directory, fsync, then rename
//   - A reader never observes a partially written document
//   - A missing file loads as an empty ledger
//
// sqlite.Store: table daily_words(day, word) in a SQLite database
//   - Save runs in one transaction
//   - Embedded migrations applied on Open
//
// # Concurrency
//
// All backends are safe for concurrent use. The ledger package serialises
// assignments itself, so backends only need to keep each Save atomic.
//
// # Usage Example
//
//	store, err := storage.NewFileStore("data/ledger.json")
//	if err != nil {
//	    log.Fatalf("open ledger store: %v", err)
//	}
//
//	entries, err := store.Load(ctx)
//	if err != nil {
//	    log.Fatalf("load ledger: %v", err)
//	}
//
//	entries["2026-10-17"] = "MINT"
//	if err := store.Save(ctx, entries); err != nil {
//	    log.Printf("save failed, retry later: %v", err)
//	}
package storage
