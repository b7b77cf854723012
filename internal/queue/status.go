package queue

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the canonical lifecycle state of a queue item.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// rawCompleted is the only raw backend value that marks an item completed.
const rawCompleted = "completed"

// normalization maps raw backend statuses to canonical ones. Matching is exact.
var normalization = map[string]Status{
	"pending":    StatusWaiting,
	"waiting":    StatusWaiting,
	"processing": StatusProcessing,
	"completed":  StatusCompleted,
	"failed":     StatusFailed,
}

// AllStatuses lists the canonical statuses in priority order.
var AllStatuses = []Status{
	StatusWaiting,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

// Normalize maps a raw backend status to its canonical Status. Unknown values
// pass through unchanged and are never reported as completed.
func Normalize(raw string) (status Status, completed bool) {
	if s, ok := normalization[raw]; ok {
		return s, raw == rawCompleted
	}
	return Status(raw), false
}

// Known reports whether s is one of the four canonical statuses.
func (s Status) Known() bool {
	switch s {
	case StatusWaiting, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Priority orders statuses for display. Unknown statuses sort last.
func (s Status) Priority() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted:
		return 2
	case StatusFailed:
		return 3
	default:
		return 4
	}
}

// Label returns a human-friendly status label.
func (s Status) Label() string {
	if s == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(string(s))
}
