// Package ledger decides which secret word belongs to each calendar day.
//
// # Overview
//
// The first request of a new day draws a word at random from the pool words
// that have not been used in the current cycle, saves the whole history to a
// storage.LedgerStore, and only then makes the word visible. Every later
// request on that day, including requests after a restart, reads the recorded
// word back.
//
// # Cycles
//
// A cycle is a run of consecutive assignments that uses each pool word at most
// once. When the last unused word has been assigned, the next new day starts a
// fresh cycle with the whole pool available again. History is never rewritten:
// past dates keep their words, and the current cycle is reconstructed on
// startup by replaying the recorded dates in order.
//
//	2026-10-15 MINT ┐
//	2026-10-16 WAVE ├─ cycle 1 (pool exhausted)
//	2026-10-17 COLD ┘
//	2026-10-18 WAVE ┐
//	2026-10-19 ...  ┴─ cycle 2
//
// # Failure Handling
//
// A failed save returns *PersistenceError and leaves the in-memory state
// untouched, so the server never hands out a word that a restart could
// replace with a different one.
package ledger
