package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/bojq/internal/queue"
	"github.com/five82/bojq/internal/solver"
)

// ErrDuplicate reports an add rejected locally because the id is already in
// the current snapshot. No network call is made.
var ErrDuplicate = errors.New("problem already in queue")

// QueueClient is the subset of the backend client the coordinator needs.
type QueueClient interface {
	ListProblems(ctx context.Context) ([]solver.ProblemRecord, error)
	AddProblem(ctx context.Context, id string) error
	DeleteProblem(ctx context.Context, id string) error
}

// Snapshot represents the latest data available to presentation.
type Snapshot struct {
	Queue               queue.Snapshot
	LastUpdated         time.Time // last successful reconcile
	LastAttempt         time.Time // last refresh that reached the backend, successful or not
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
	Refreshing          bool
}

// IsOffline returns true when the backend has been unreachable for multiple refreshes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Coordinator owns the authoritative queue snapshot and serializes
// reconciliation between polling, manual refresh and mutations.
type Coordinator struct {
	client QueueClient
	logger *slog.Logger
	now    func() time.Time

	inFlight atomic.Int32

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewCoordinator builds a Coordinator with an empty snapshot.
func NewCoordinator(client QueueClient, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{client: client, logger: logger, now: time.Now}
}

// Snapshot returns a copy of the current snapshot.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	snap.Queue = slices.Clone(snap.Queue)
	snap.Refreshing = c.inFlight.Load() > 0
	return snap
}

// Queue returns the current queue snapshot.
func (c *Coordinator) Queue() queue.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.snapshot.Queue)
}

// Refresh reconciles the local snapshot with the backend. A non-forced refresh
// while another is in flight returns (false, nil) without doing anything. A
// forced refresh always runs; overlapping completions are last-write-wins.
// On failure the previous queue is kept and the error is recorded.
func (c *Coordinator) Refresh(ctx context.Context, force bool) (bool, error) {
	if force {
		c.inFlight.Add(1)
	} else if !c.inFlight.CompareAndSwap(0, 1) {
		c.logger.Debug("refresh skipped; another refresh in flight")
		return false, nil
	}
	defer c.inFlight.Add(-1)

	records, err := c.client.ListProblems(ctx)
	if err != nil {
		c.recordFailure(err)
		c.logger.Warn("queue refresh failed", "force", force, "error", err)
		return true, fmt.Errorf("refresh queue: %w", err)
	}

	next := queue.Reconcile(records)
	if dropped := len(records) - len(next); dropped > 0 {
		c.logger.Debug("dropped invalid or duplicate queue records", "dropped", dropped)
	}
	c.replace(next)
	c.logger.Debug("queue refreshed", "items", len(next), "force", force)
	return true, nil
}

// MutateAndRefresh runs one queue mutation and, when it succeeds, a forced
// refresh. A failed mutation is returned as-is and nothing is refreshed. A
// failed follow-up refresh is recorded on the snapshot but not returned,
// because the mutation itself was applied.
func (c *Coordinator) MutateAndRefresh(ctx context.Context, mutation func(context.Context) error) error {
	if err := mutation(ctx); err != nil {
		return err
	}
	if _, err := c.Refresh(ctx, true); err != nil {
		c.logger.Warn("refresh after mutation failed", "error", err)
	}
	return nil
}

// AddProblem validates id, rejects it locally when already queued, and
// otherwise enqueues it on the backend.
func (c *Coordinator) AddProblem(ctx context.Context, id string) error {
	if err := queue.ValidateID(id); err != nil {
		return err
	}
	if c.contains(id) {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	err := c.MutateAndRefresh(ctx, func(ctx context.Context) error {
		return c.client.AddProblem(ctx, id)
	})
	if err != nil {
		return err
	}
	c.logger.Info("problem added", "problem_id", id)
	return nil
}

// DeleteProblem validates id and removes it from the backend queue.
func (c *Coordinator) DeleteProblem(ctx context.Context, id string) error {
	if err := queue.ValidateID(id); err != nil {
		return err
	}
	err := c.MutateAndRefresh(ctx, func(ctx context.Context) error {
		return c.client.DeleteProblem(ctx, id)
	})
	if err != nil {
		return err
	}
	c.logger.Info("problem deleted", "problem_id", id)
	return nil
}

func (c *Coordinator) contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Queue.Contains(id)
}

// replace swaps in a freshly reconciled queue as a whole value.
func (c *Coordinator) replace(next queue.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.snapshot = Snapshot{
		Queue:       next,
		LastUpdated: now,
		LastAttempt: now,
	}
}

func (c *Coordinator) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.LastError = err
	c.snapshot.LastAttempt = c.now()
	c.snapshot.ConsecutiveFailures++
}
