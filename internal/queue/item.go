package queue

import (
	"fmt"
	"regexp"
	"time"
)

// Item is one tracked problem identifier.
type Item struct {
	ID          string
	Status      Status
	IsCompleted bool
	CreatedAt   time.Time
}

// Snapshot is an ordered, immutable-once-built view of the queue.
type Snapshot []Item

// Find returns the item with id, if present.
func (s Snapshot) Find(id string) (Item, bool) {
	for _, item := range s {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Contains reports whether id is present.
func (s Snapshot) Contains(id string) bool {
	_, ok := s.Find(id)
	return ok
}

// Counts tallies items per status.
func (s Snapshot) Counts() map[Status]int {
	counts := make(map[Status]int, len(AllStatuses))
	for _, item := range s {
		counts[item.Status]++
	}
	return counts
}

// FirstWaiting returns the first item still waiting, in snapshot order.
func (s Snapshot) FirstWaiting() (Item, bool) {
	for _, item := range s {
		if item.Status == StatusWaiting {
			return item, true
		}
	}
	return Item{}, false
}

var idPattern = regexp.MustCompile(`^[0-9]+$`)

// ValidationError reports a malformed problem identifier.
type ValidationError struct {
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid problem id %q: %s", e.ID, e.Reason)
}

// ValidateID checks that id is a non-empty run of decimal digits. No trimming
// or leading-zero normalization is applied.
func ValidateID(id string) error {
	if id == "" {
		return &ValidationError{ID: id, Reason: "problem id is required"}
	}
	if !idPattern.MatchString(id) {
		return &ValidationError{ID: id, Reason: "problem id must contain digits only"}
	}
	return nil
}
