package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/bojq/internal/queue"
	"github.com/five82/bojq/internal/solver"
)

type fakeClient struct {
	mu       sync.Mutex
	records  []solver.ProblemRecord
	listErr  error
	addErr   error
	delErr   error
	lists    int
	adds     []string
	deletes  []string
	entered  chan struct{}
	release  chan struct{}
	blocking bool
}

func (f *fakeClient) ListProblems(ctx context.Context) ([]solver.ProblemRecord, error) {
	f.mu.Lock()
	f.lists++
	blocking := f.blocking
	records := append([]solver.ProblemRecord(nil), f.records...)
	err := f.listErr
	f.mu.Unlock()

	if blocking {
		f.entered <- struct{}{}
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (f *fakeClient) AddProblem(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, id)
	if f.addErr != nil {
		return f.addErr
	}
	f.records = append(f.records, solver.ProblemRecord{ID: id, Data: solver.ProblemData{Status: "pending"}})
	return nil
}

func (f *fakeClient) DeleteProblem(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.delErr != nil {
		return f.delErr
	}
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeClient) set(fn func(f *fakeClient)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeClient) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func rec(id, status string) solver.ProblemRecord {
	return solver.ProblemRecord{ID: id, Data: solver.ProblemData{Status: status}}
}

func TestRefresh_ReplacesSnapshot(t *testing.T) {
	client := &fakeClient{records: []solver.ProblemRecord{rec("1000", "pending")}}
	c := NewCoordinator(client, nil)

	ran, err := c.Refresh(context.Background(), false)
	if err != nil || !ran {
		t.Fatalf("Refresh = (%v, %v), want (true, nil)", ran, err)
	}
	snap := c.Snapshot()
	if len(snap.Queue) != 1 {
		t.Fatalf("queue = %#v, want 1 item", snap.Queue)
	}
	item := snap.Queue[0]
	if item.ID != "1000" || item.Status != queue.StatusWaiting || item.IsCompleted {
		t.Fatalf("item = %#v, want {1000 waiting false}", item)
	}
	if snap.LastUpdated.IsZero() || snap.LastError != nil {
		t.Fatalf("snapshot metadata = %#v, want updated without error", snap)
	}

	client.set(func(f *fakeClient) { f.records = []solver.ProblemRecord{rec("2000", "failed")} })
	if _, err := c.Refresh(context.Background(), true); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	snap = c.Snapshot()
	if len(snap.Queue) != 1 || snap.Queue[0].ID != "2000" {
		t.Fatalf("queue = %#v, want previous items discarded", snap.Queue)
	}
}

func TestRefresh_FailureKeepsPreviousQueue(t *testing.T) {
	client := &fakeClient{records: []solver.ProblemRecord{rec("1000", "pending")}}
	c := NewCoordinator(client, nil)
	ctx := context.Background()

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return clock }
	if _, err := c.Refresh(ctx, false); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	succeeded := clock
	clock = clock.Add(time.Minute)
	boom := &solver.TransportError{Op: "list problems", StatusCode: 502}
	client.set(func(f *fakeClient) { f.listErr = boom })

	for i := 1; i <= 2; i++ {
		ran, err := c.Refresh(ctx, false)
		if !ran || !errors.Is(err, boom) {
			t.Fatalf("Refresh = (%v, %v), want (true, wrapped transport error)", ran, err)
		}
		snap := c.Snapshot()
		if len(snap.Queue) != 1 || snap.Queue[0].ID != "1000" {
			t.Fatalf("queue = %#v, want previous snapshot retained", snap.Queue)
		}
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if !snap.LastUpdated.Equal(succeeded) {
			t.Fatalf("LastUpdated = %v, want last success %v", snap.LastUpdated, succeeded)
		}
		if !snap.LastAttempt.Equal(clock) {
			t.Fatalf("LastAttempt = %v, want failed attempt %v", snap.LastAttempt, clock)
		}
	}
	if !c.Snapshot().IsOffline() {
		t.Fatalf("IsOffline() = false, want true after two failures")
	}

	client.set(func(f *fakeClient) { f.listErr = nil })
	if _, err := c.Refresh(ctx, false); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	snap := c.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil {
		t.Fatalf("snapshot = %#v, want failures reset", snap)
	}
}

func TestRefresh_NonForcedIsNoOpWhileInFlight(t *testing.T) {
	client := &fakeClient{
		records:  []solver.ProblemRecord{rec("1000", "pending")},
		blocking: true,
		entered:  make(chan struct{}, 2),
		release:  make(chan struct{}),
	}
	c := NewCoordinator(client, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Refresh(ctx, false)
		done <- err
	}()
	<-client.entered

	if !c.Snapshot().Refreshing {
		t.Fatalf("Refreshing = false while a refresh is in flight")
	}

	ran, err := c.Refresh(ctx, false)
	if ran || err != nil {
		t.Fatalf("overlapping Refresh = (%v, %v), want (false, nil)", ran, err)
	}
	if got := client.listCount(); got != 1 {
		t.Fatalf("ListProblems calls = %d, want 1", got)
	}
	if len(c.Snapshot().Queue) != 0 {
		t.Fatalf("skipped refresh must not alter the snapshot")
	}

	close(client.release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight Refresh returned error: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Queue) != 1 || snap.Queue[0].ID != "1000" {
		t.Fatalf("queue = %#v, want in-flight result applied", snap.Queue)
	}
	if snap.Refreshing {
		t.Fatalf("Refreshing = true after completion")
	}
}

func TestRefresh_ForcedRunsWhileInFlight(t *testing.T) {
	client := &fakeClient{
		records:  []solver.ProblemRecord{rec("1000", "pending")},
		blocking: true,
		entered:  make(chan struct{}, 2),
		release:  make(chan struct{}),
	}
	c := NewCoordinator(client, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.Refresh(ctx, false)
	}()
	<-client.entered
	go func() {
		defer wg.Done()
		_, _ = c.Refresh(ctx, true)
	}()

	select {
	case <-client.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("forced refresh did not start while another was in flight")
	}
	close(client.release)
	wg.Wait()

	if got := client.listCount(); got != 2 {
		t.Fatalf("ListProblems calls = %d, want 2", got)
	}
	if c.Snapshot().Refreshing {
		t.Fatalf("in-flight marker not cleared")
	}
	if ran, _ := c.Refresh(ctx, false); !ran {
		t.Fatalf("non-forced refresh should run once nothing is in flight")
	}
}

func TestAddProblem_RejectsLocalDuplicateWithoutNetwork(t *testing.T) {
	client := &fakeClient{}
	c := NewCoordinator(client, nil)
	ctx := context.Background()

	if err := c.AddProblem(ctx, "1000"); err != nil {
		t.Fatalf("AddProblem returned error: %v", err)
	}
	if len(c.Snapshot().Queue) != 1 {
		t.Fatalf("queue = %#v, want added item after forced refresh", c.Snapshot().Queue)
	}

	err := c.AddProblem(ctx, "1000")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second AddProblem error = %v, want ErrDuplicate", err)
	}
	if len(client.adds) != 1 {
		t.Fatalf("backend adds = %v, want exactly one", client.adds)
	}

	count := 0
	for _, item := range c.Snapshot().Queue {
		if item.ID == "1000" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("id 1000 appears %d times, want 1", count)
	}
}

func TestAddProblem_ValidatesBeforeNetwork(t *testing.T) {
	client := &fakeClient{}
	c := NewCoordinator(client, nil)

	for _, id := range []string{"12a", "", "-5"} {
		err := c.AddProblem(context.Background(), id)
		var verr *queue.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("AddProblem(%q) error = %v, want ValidationError", id, err)
		}
	}
	if len(client.adds) != 0 || client.listCount() != 0 {
		t.Fatalf("validation failures made network calls: adds=%v lists=%d", client.adds, client.listCount())
	}
}

func TestMutateAndRefresh_FailureSkipsRefresh(t *testing.T) {
	rejected := &solver.RejectedError{Op: "delete problem", ProblemID: "1000", StatusCode: 404, Reason: solver.ErrNotFoundOrRejected}
	client := &fakeClient{records: []solver.ProblemRecord{rec("1000", "pending")}, delErr: rejected}
	c := NewCoordinator(client, nil)
	ctx := context.Background()

	if _, err := c.Refresh(ctx, false); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	before := client.listCount()

	err := c.DeleteProblem(ctx, "1000")
	if !errors.Is(err, solver.ErrNotFoundOrRejected) {
		t.Fatalf("DeleteProblem error = %v, want ErrNotFoundOrRejected", err)
	}
	if client.listCount() != before {
		t.Fatalf("failed mutation triggered a refresh")
	}
	if !c.Snapshot().Queue.Contains("1000") {
		t.Fatalf("failed delete must not change the local queue")
	}
}

func TestMutateAndRefresh_RefreshFailureIsRecorded(t *testing.T) {
	client := &fakeClient{}
	c := NewCoordinator(client, nil)
	ctx := context.Background()

	err := c.MutateAndRefresh(ctx, func(context.Context) error {
		client.set(func(f *fakeClient) { f.listErr = errors.New("offline") })
		return nil
	})
	if err != nil {
		t.Fatalf("MutateAndRefresh returned error: %v", err)
	}
	if c.Snapshot().LastError == nil {
		t.Fatalf("LastError = nil, want refresh failure recorded")
	}
}

func TestSnapshot_ReturnsClone(t *testing.T) {
	client := &fakeClient{records: []solver.ProblemRecord{rec("1", "pending"), rec("2", "pending")}}
	c := NewCoordinator(client, nil)
	if _, err := c.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	snap := c.Snapshot()
	snap.Queue[0].ID = "999"
	if got := c.Queue()[0].ID; got != "1" {
		t.Fatalf("Snapshot should clone queue; got id %q want 1", got)
	}
}
