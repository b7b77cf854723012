package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/five82/bojq/internal/logging"
	"github.com/five82/bojq/internal/queue"
	"github.com/five82/bojq/internal/solver"
)

// Generator is the subset of the backend client used for dispatch.
type Generator interface {
	Generate(ctx context.Context, id string) (solver.Solution, error)
	FetchCachedCode(ctx context.Context, id string) (solver.CachedSolution, error)
}

// route is the first call a dispatch makes for an id.
type route int

const (
	routeGenerate route = iota
	routeCached
)

// Dispatcher decides between cached retrieval and fresh generation.
type Dispatcher struct {
	client Generator
	logger *slog.Logger
}

// New builds a Dispatcher. A nil logger discards output.
func New(client Generator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{client: client, logger: logger}
}

// plan picks the first call for id given the caller's snapshot.
func plan(id string, snap queue.Snapshot) route {
	if item, ok := snap.Find(id); ok && item.IsCompleted {
		return routeCached
	}
	return routeGenerate
}

// Dispatch produces code for id. Invalid ids fail with *queue.ValidationError
// before any network call. Completed items are fetched from the cache first;
// a cache miss or transport failure falls back to exactly one Generate call.
// The returned Result is populated even when err is non-nil.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, snap queue.Snapshot) (Result, error) {
	if err := queue.ValidateID(id); err != nil {
		return Result{ProblemID: id, Outcome: OutcomeInvalid, ErrorMessage: err.Error()}, err
	}

	logger := logging.WithContext(ctx, d.logger).With(logging.FieldProblemID, id)
	if plan(id, snap) == routeCached {
		cached, err := d.client.FetchCachedCode(ctx, id)
		if err == nil {
			logger.Info("served cached solution")
			return Result{
				ProblemID: id,
				Code:      cached.Code,
				Sources:   cached.Sources,
				Origin:    OriginCached,
				Outcome:   OutcomeCached,
			}, nil
		}
		if !errors.Is(err, solver.ErrCacheMiss) && !solver.IsTransport(err) {
			return failure(id, OutcomeTransportError, false, err), err
		}
		logger.Warn("cached fetch failed; regenerating", "error", err)
		return d.generate(ctx, logger, id, true)
	}
	return d.generate(ctx, logger, id, false)
}

func (d *Dispatcher) generate(ctx context.Context, logger *slog.Logger, id string, fallback bool) (Result, error) {
	sol, err := d.client.Generate(ctx, id)
	if err != nil {
		outcome := OutcomeTransportError
		var dataErr *solver.DataError
		if errors.As(err, &dataErr) {
			outcome = OutcomeDataError
		}
		logger.Warn("generation failed", "fallback", fallback, "outcome", outcome.String(), "error", err)
		return failure(id, outcome, fallback, err), err
	}
	logger.Info("generated solution", "fallback", fallback, "sources", len(sol.Sources))
	return Result{
		ProblemID: id,
		Code:      sol.Code,
		Sources:   sol.Sources,
		Origin:    OriginFresh,
		Outcome:   OutcomeFresh,
		Fallback:  fallback,
	}, nil
}

func failure(id string, outcome Outcome, fallback bool, err error) Result {
	return Result{
		ProblemID:    id,
		Outcome:      outcome,
		Fallback:     fallback,
		ErrorMessage: err.Error(),
	}
}
