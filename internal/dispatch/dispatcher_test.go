package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/five82/bojq/internal/backendtest"
	"github.com/five82/bojq/internal/queue"
	"github.com/five82/bojq/internal/solver"
)

type fakeGenerator struct {
	generateCalls []string
	cachedCalls   []string

	solution  solver.Solution
	genErr    error
	cached    solver.CachedSolution
	cachedErr error
}

func (f *fakeGenerator) Generate(_ context.Context, id string) (solver.Solution, error) {
	f.generateCalls = append(f.generateCalls, id)
	if f.genErr != nil {
		return solver.Solution{}, f.genErr
	}
	sol := f.solution
	sol.ProblemID = id
	return sol, nil
}

func (f *fakeGenerator) FetchCachedCode(_ context.Context, id string) (solver.CachedSolution, error) {
	f.cachedCalls = append(f.cachedCalls, id)
	if f.cachedErr != nil {
		return solver.CachedSolution{}, f.cachedErr
	}
	return f.cached, nil
}

func (f *fakeGenerator) calls() int {
	return len(f.generateCalls) + len(f.cachedCalls)
}

func completed(id string) queue.Snapshot {
	return queue.Snapshot{{ID: id, Status: queue.StatusCompleted, IsCompleted: true}}
}

func TestDispatch_RoutesByCompletion(t *testing.T) {
	tests := []struct {
		name       string
		snap       queue.Snapshot
		wantRoute  route
		wantOrigin Origin
	}{
		{"absent", nil, routeGenerate, OriginFresh},
		{"waiting", queue.Snapshot{{ID: "1000", Status: queue.StatusWaiting}}, routeGenerate, OriginFresh},
		{"failed", queue.Snapshot{{ID: "1000", Status: queue.StatusFailed}}, routeGenerate, OriginFresh},
		{"completed", completed("1000"), routeCached, OriginCached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plan("1000", tt.snap); got != tt.wantRoute {
				t.Fatalf("plan = %v, want %v", got, tt.wantRoute)
			}
			gen := &fakeGenerator{
				solution: solver.Solution{Code: "fresh"},
				cached:   solver.CachedSolution{Status: "success", ProblemID: "1000", Code: "cached"},
			}
			res, err := New(gen, nil).Dispatch(context.Background(), "1000", tt.snap)
			if err != nil {
				t.Fatalf("Dispatch returned error: %v", err)
			}
			if res.Origin != tt.wantOrigin || !res.OK() || res.Fallback {
				t.Fatalf("result = %#v, want origin %s without fallback", res, tt.wantOrigin)
			}
			if gen.calls() != 1 {
				t.Fatalf("network calls = %d, want 1", gen.calls())
			}
		})
	}
}

func TestDispatch_RejectsInvalidIDWithoutCalls(t *testing.T) {
	for _, id := range []string{"12a", "", "-5"} {
		gen := &fakeGenerator{}
		res, err := New(gen, nil).Dispatch(context.Background(), id, nil)
		var verr *queue.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Dispatch(%q) error = %v, want ValidationError", id, err)
		}
		if res.Outcome != OutcomeInvalid || res.ErrorMessage == "" {
			t.Fatalf("result = %#v, want invalid outcome with message", res)
		}
		if gen.calls() != 0 {
			t.Fatalf("Dispatch(%q) made %d calls, want 0", id, gen.calls())
		}
	}
}

func TestDispatch_CacheFailureFallsBackOnce(t *testing.T) {
	tests := []struct {
		name      string
		cachedErr error
	}{
		{"marker mismatch", fmt.Errorf("%w: problem 1000 has status %q", solver.ErrCacheMiss, "pending")},
		{"transport", &solver.TransportError{Op: "fetch cached code", StatusCode: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{cachedErr: tt.cachedErr, solution: solver.Solution{Code: "regen", Sources: []string{"https://example.com"}}}
			res, err := New(gen, nil).Dispatch(context.Background(), "1000", completed("1000"))
			if err != nil {
				t.Fatalf("Dispatch returned error: %v", err)
			}
			if len(gen.cachedCalls) != 1 || len(gen.generateCalls) != 1 {
				t.Fatalf("calls cached=%v generate=%v, want one each", gen.cachedCalls, gen.generateCalls)
			}
			if gen.generateCalls[0] != "1000" {
				t.Fatalf("fallback generate id = %q, want 1000", gen.generateCalls[0])
			}
			if !res.Fallback || res.Outcome != OutcomeFresh || res.Code != "regen" {
				t.Fatalf("result = %#v, want fresh fallback", res)
			}
		})
	}
}

func TestDispatch_FallbackFailureStopsAtTwoCalls(t *testing.T) {
	gen := &fakeGenerator{
		cachedErr: solver.ErrCacheMiss,
		genErr:    &solver.TransportError{Op: "generate", StatusCode: 502},
	}
	res, err := New(gen, nil).Dispatch(context.Background(), "1000", completed("1000"))
	if !solver.IsTransport(err) {
		t.Fatalf("error = %v, want transport error", err)
	}
	if gen.calls() != 2 {
		t.Fatalf("network calls = %d, want 2", gen.calls())
	}
	if res.Outcome != OutcomeTransportError || !res.Fallback || res.OK() {
		t.Fatalf("result = %#v, want failed fallback", res)
	}
}

func TestDispatch_DataErrorIsTerminal(t *testing.T) {
	gen := &fakeGenerator{genErr: &solver.DataError{ProblemID: "1000", Message: "no solution found"}}
	res, err := New(gen, nil).Dispatch(context.Background(), "1000", nil)

	var dataErr *solver.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("error = %v, want DataError", err)
	}
	if res.Outcome != OutcomeDataError || res.ErrorMessage != "no solution found" {
		t.Fatalf("result = %#v, want data error with verbatim message", res)
	}
	if len(gen.generateCalls) != 1 || len(gen.cachedCalls) != 0 {
		t.Fatalf("calls generate=%v cached=%v, want one generate", gen.generateCalls, gen.cachedCalls)
	}
}

func TestDispatch_AgainstBackend(t *testing.T) {
	srv := backendtest.New(t)
	srv.Enqueue("1000", "pending")
	srv.SetSolution("1000", "class Main {}", "https://www.acmicpc.net/problem/1000")

	client, err := solver.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	records, err := client.ListProblems(ctx)
	if err != nil {
		t.Fatalf("ListProblems returned error: %v", err)
	}
	snap := queue.Reconcile(records)
	d := New(client, nil)

	res, err := d.Dispatch(ctx, "1000", snap)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if res.Origin != OriginFresh || res.Code != "class Main {}" {
		t.Fatalf("result = %#v, want fresh code", res)
	}
	if srv.Calls(backendtest.RouteCached) != 0 {
		t.Fatalf("waiting item must not hit the cache")
	}

	records, err = client.ListProblems(ctx)
	if err != nil {
		t.Fatalf("ListProblems returned error: %v", err)
	}
	snap = queue.Reconcile(records)
	res, err = d.Dispatch(ctx, "1000", snap)
	if err != nil {
		t.Fatalf("second Dispatch returned error: %v", err)
	}
	if res.Origin != OriginCached || res.SourceList() != "https://www.acmicpc.net/problem/1000" {
		t.Fatalf("result = %#v, want cached code with sources", res)
	}
	if got := srv.Calls(backendtest.RouteGenerate); got != 1 {
		t.Fatalf("generate calls = %d, want 1", got)
	}

	srv.SetCached("1000", "processing", "partial")
	before := srv.Calls(backendtest.RouteGenerate)
	res, err = d.Dispatch(ctx, "1000", snap)
	if err != nil {
		t.Fatalf("third Dispatch returned error: %v", err)
	}
	if !res.Fallback || srv.Calls(backendtest.RouteGenerate) != before+1 {
		t.Fatalf("marker mismatch should regenerate exactly once; result %#v", res)
	}
}
