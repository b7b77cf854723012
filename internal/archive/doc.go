// Package archive keeps a local SQLite history of solutions produced by
// dispatch, so previously retrieved code stays available when the backend is
// unreachable.
//
// Only successful results are stored. Each row records the origin (fresh or
// cached), whether a cache fallback happened, and the request id used in the
// logs for that dispatch. The schema is created on first open and guarded by a
// single schema_version row.
package archive
