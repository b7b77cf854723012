package queue

import (
	"sort"

	"github.com/five82/bojq/internal/solver"
)

// Reconcile converts raw backend records into a fresh Snapshot. Records with
// malformed ids are skipped and only the first record for an id is kept. The
// result is ordered by status priority, stable on backend order.
func Reconcile(records []solver.ProblemRecord) Snapshot {
	items := make(Snapshot, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if ValidateID(rec.ID) != nil {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		status, completed := Normalize(rec.Data.Status)
		items = append(items, Item{
			ID:          rec.ID,
			Status:      status,
			IsCompleted: completed,
			CreatedAt:   rec.Data.ParsedCreatedAt(),
		})
	}
	Sort(items)
	return items
}

// Sort orders items by status priority in place. Equal priorities keep their
// relative order.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Status.Priority() < items[j].Status.Priority()
	})
}
