// Package state owns the local view of the backend-held problem queue.
//
// # Overview
//
// A Coordinator holds the one authoritative Snapshot and is the only writer
// of it. Three kinds of triggers ask it to reconcile with the backend:
//
//   - the scheduler's periodic poll: Refresh(ctx, false)
//   - a manual refresh from the CLI or TUI: Refresh(ctx, true)
//   - a successful add/delete: MutateAndRefresh runs a forced refresh
//
// # Refresh Semantics
//
//	Refresh(force=false) while another refresh is in flight
//	→ returns (false, nil) immediately; nothing is queued
//
//	Refresh(force=true)
//	→ always runs, even alongside another refresh
//	→ overlapping completions race; the last to finish wins
//
//	ListProblems fails
//	→ previous queue kept
//	→ LastError, LastAttempt, ConsecutiveFailures updated
//	→ LastUpdated still names the last successful reconcile
//	→ error returned to the caller for display
//
// The in-flight marker is an atomic counter released by a deferred decrement,
// so it is cleared on success, failure and panic alike.
//
// # Snapshot Replacement
//
// Each successful refresh builds a brand-new queue.Snapshot through
// queue.Reconcile and swaps it in under the write lock. Nothing is merged with
// the previous snapshot and no item is ever edited in place. Readers get a
// cloned slice.
//
//	┌───────────────┐   ListProblems   ┌──────────────┐
//	│  Coordinator  │ ───────────────→ │   backend    │
//	│               │ ←─────────────── │              │
//	│ Reconcile()   │     records      └──────────────┘
//	│ swap snapshot │
//	└──────┬────────┘
//	       │ Snapshot()
//	       ▼
//	   CLI / TUI
//
// # Mutations
//
// AddProblem and DeleteProblem validate the id first. AddProblem also rejects
// ids already present in the current snapshot with ErrDuplicate before any
// network call. A mutation the backend refuses is returned unchanged and no
// local state is touched.
package state
