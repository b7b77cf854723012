// Package logging builds the slog loggers used across bojq.
//
// Output goes to files and/or stdout/stderr in text or json form. The TUI
// owns the terminal, so interactive sessions log to a file under the data
// directory only. Debug level adds source locations.
//
// User actions are correlated with a request id carried on the context; see
// WithRequestID and WithContext.
package logging
