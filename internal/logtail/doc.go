// Package logtail reads the tail of bojq's log file for the TUI log view.
//
// Read uses a ring buffer so only the last maxLines are held in memory no
// matter how large the file grows. ReadFiltered applies a Filter while
// scanning, so "last 200 lines for problem 1000" means the last 200 matching
// lines, not a filter over the last 200 lines.
//
// Lines are matched by field rather than parsed in full. Field understands the
// two formats the logging package writes:
//
//	ts=2026-03-01T12:00:00Z level=info msg="generated solution" problem_id=1000
//	{"ts":"2026-03-01T12:00:00Z","level":"info","msg":"generated solution","problem_id":"1000"}
//
// A missing log file is not an error; it simply has no lines yet.
package logtail
