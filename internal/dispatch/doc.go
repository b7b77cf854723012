// Package dispatch chooses between cached retrieval and fresh generation of
// solution code for a single problem id.
//
// The decision is a two-step procedure over the snapshot the caller hands in:
//
//	id fails ^[0-9]+$          → OutcomeInvalid, no network call
//	absent or not completed    → Generate
//	completed                  → FetchCachedCode
//	    success                → OutcomeCached
//	    ErrCacheMiss/transport → Generate (Fallback = true)
//
// A Generate whose body carries an error field ends as OutcomeDataError and
// is never retried. Every dispatch makes at most two backend calls.
//
// The Dispatcher never touches coordinator state. Callers trigger a refresh
// after dispatch so the backend's status change becomes visible.
package dispatch
