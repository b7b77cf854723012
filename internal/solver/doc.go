// Package solver provides an HTTP client for the code-generation backend.
//
// # Overview
//
// The backend holds the problem queue and produces solution code for numeric
// problem identifiers. This package is the typed request/response boundary to
// it; it keeps no state between calls.
//
// # API Endpoints
//
//   - GET /list-problems: raw queue records
//   - POST /add-problem: enqueue an id
//   - DELETE /delete-problem/{id}: remove an id
//   - POST /generate: produce fresh code for an id
//   - GET /get-problem-code/{id}: previously generated code
//   - POST /run-daily: let the backend execute the next queued id
//
// # Error Handling
//
// Callers inspect failures with errors.Is and errors.As:
//
//   - *TransportError: network failure, non-2xx status, undecodable body
//   - *RejectedError: add or delete refused; wraps ErrDuplicateOrRejected or
//     ErrNotFoundOrRejected
//   - *DataError: a 2xx /generate body carrying an error field
//   - ErrCacheMiss: a cached-code record whose status is not "success"
//
// # Request Handling
//
// Every method issues exactly one request and never retries. Retry and
// fallback policy belong to the callers (see the dispatch package). No timeout
// is set unless WithTimeout is used; cancellation flows through the context.
package solver
