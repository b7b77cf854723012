package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/bojq/internal/archive"
	"github.com/five82/bojq/internal/dispatch"
	"github.com/five82/bojq/internal/logging"
	"github.com/five82/bojq/internal/queue"
	"github.com/five82/bojq/internal/solver"
	"github.com/five82/bojq/internal/state"
)

// ErrNoCode is returned by Save for results without code.
var ErrNoCode = errors.New("no solution code to save")

// Queue is the coordinator surface used by a session.
type Queue interface {
	Snapshot() state.Snapshot
	Refresh(ctx context.Context, force bool) (bool, error)
	AddProblem(ctx context.Context, id string) error
	DeleteProblem(ctx context.Context, id string) error
}

// Dispatcher produces code for one problem id.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, snap queue.Snapshot) (dispatch.Result, error)
}

// Runner asks the backend to process the next queued problem.
type Runner interface {
	RunNext(ctx context.Context) (solver.RunNextResult, error)
}

// Archive stores successful results.
type Archive interface {
	Save(ctx context.Context, res dispatch.Result, requestID string) (archive.Entry, error)
	Latest(ctx context.Context, problemID string) (archive.Entry, error)
	List(ctx context.Context, problemID string, limit int) ([]archive.Entry, error)
}

// Options configures a Session.
type Options struct {
	Queue         Queue
	Dispatcher    Dispatcher
	Runner        Runner
	Archive       Archive // optional
	Logger        *slog.Logger
	DownloadDir   string
	FileExtension string
}

// Session is the entry point the CLI, TUI and scheduler share. It turns
// dispatch outcomes into archive writes and forced refreshes.
type Session struct {
	queue      Queue
	dispatcher Dispatcher
	runner     Runner
	archive    Archive
	logger     *slog.Logger
	dir        string
	ext        string
}

// RunNextReport describes one run-next call.
type RunNextReport struct {
	Ran     bool
	Message string
	Result  dispatch.Result
}

// New builds a Session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ext := strings.TrimPrefix(strings.TrimSpace(opts.FileExtension), ".")
	if ext == "" {
		ext = "java"
	}
	dir := opts.DownloadDir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &Session{
		queue:      opts.Queue,
		dispatcher: opts.Dispatcher,
		runner:     opts.Runner,
		archive:    opts.Archive,
		logger:     logger.With(logging.FieldComponent, "session"),
		dir:        dir,
		ext:        ext,
	}
}

// Snapshot returns the coordinator's current snapshot.
func (s *Session) Snapshot() state.Snapshot {
	return s.queue.Snapshot()
}

// Refresh is a manual reconciliation. Like a poll it is skipped while another
// refresh is in flight; ran reports whether it actually ran.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	return s.queue.Refresh(ctx, false)
}

// Poll runs a non-forced refresh; it is skipped while another is in flight.
func (s *Session) Poll(ctx context.Context) error {
	_, err := s.queue.Refresh(ctx, false)
	return err
}

// Add enqueues id on the backend.
func (s *Session) Add(ctx context.Context, id string) error {
	return s.queue.AddProblem(ctx, strings.TrimSpace(id))
}

// Delete removes id from the backend queue.
func (s *Session) Delete(ctx context.Context, id string) error {
	return s.queue.DeleteProblem(ctx, strings.TrimSpace(id))
}

// Generate dispatches id against the current snapshot, archives a success,
// and forces a refresh so the backend's status change is picked up. Invalid
// ids return before any network call.
func (s *Session) Generate(ctx context.Context, id string) (dispatch.Result, error) {
	id = strings.TrimSpace(id)
	requestID := logging.NewRequestID()
	ctx = logging.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, s.logger)

	res, err := s.dispatcher.Dispatch(ctx, id, s.queue.Snapshot().Queue)
	var verr *queue.ValidationError
	if errors.As(err, &verr) {
		return res, err
	}
	if res.OK() {
		s.archiveResult(ctx, logger, res, requestID)
	}
	s.refreshAfter(ctx, logger)
	return res, err
}

// RunNext lets the backend process the next eligible problem, archives any
// produced code, and forces a refresh.
func (s *Session) RunNext(ctx context.Context) (RunNextReport, error) {
	requestID := logging.NewRequestID()
	ctx = logging.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, s.logger)

	out, err := s.runner.RunNext(ctx)
	if err != nil {
		logger.Warn("run next failed", "error", err)
		s.refreshAfter(ctx, logger)
		return RunNextReport{}, err
	}

	report := RunNextReport{Ran: out.Ran(), Message: out.Message}
	if out.Ran() {
		report.Result = dispatch.Result{ProblemID: out.ProblemID, Origin: dispatch.OriginFresh, Outcome: dispatch.OutcomeFresh}
		if out.Result != nil {
			report.Result.Code = out.Result.Code
			report.Result.Sources = out.Result.Sources
			if msg := out.Result.Error; msg != "" {
				report.Result.Code = ""
				report.Result.Outcome = dispatch.OutcomeDataError
				report.Result.ErrorMessage = msg
				logger.Warn("backend run next produced no code", logging.FieldProblemID, out.ProblemID, "error", msg)
				s.refreshAfter(ctx, logger)
				return report, &solver.DataError{ProblemID: out.ProblemID, Message: msg}
			}
		}
		logger.Info("backend ran next problem", logging.FieldProblemID, out.ProblemID)
		if report.Result.Code != "" {
			s.archiveResult(ctx, logger, report.Result, requestID)
		}
	} else {
		logger.Info("nothing eligible to run", "message", out.Message)
	}
	s.refreshAfter(ctx, logger)
	return report, nil
}

// Save writes res to <download_dir>/BOJ_<id>.<ext> and returns the path.
func (s *Session) Save(res dispatch.Result) (string, error) {
	if strings.TrimSpace(res.Code) == "" {
		return "", ErrNoCode
	}
	if err := queue.ValidateID(res.ProblemID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("BOJ_%s.%s", res.ProblemID, s.ext))
	if err := os.WriteFile(path, []byte(res.Code), 0o644); err != nil {
		return "", fmt.Errorf("write solution: %w", err)
	}
	s.logger.Info("solution saved", logging.FieldProblemID, res.ProblemID, "path", path)
	return path, nil
}

// History lists archived solutions, newest first.
func (s *Session) History(ctx context.Context, id string, limit int) ([]archive.Entry, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.List(ctx, strings.TrimSpace(id), limit)
}

// Latest returns the newest archived result for id without touching the
// backend.
func (s *Session) Latest(ctx context.Context, id string) (dispatch.Result, error) {
	id = strings.TrimSpace(id)
	if err := queue.ValidateID(id); err != nil {
		return dispatch.Result{}, err
	}
	if s.archive == nil {
		return dispatch.Result{}, fmt.Errorf("%w for problem %s", archive.ErrNotFound, id)
	}
	entry, err := s.archive.Latest(ctx, id)
	if err != nil {
		return dispatch.Result{}, err
	}
	outcome := dispatch.OutcomeFresh
	if entry.Origin == dispatch.OriginCached {
		outcome = dispatch.OutcomeCached
	}
	return dispatch.Result{
		ProblemID: entry.ProblemID,
		Code:      entry.Code,
		Sources:   entry.Sources,
		Origin:    entry.Origin,
		Outcome:   outcome,
		Fallback:  entry.Fallback,
	}, nil
}

func (s *Session) archiveResult(ctx context.Context, logger *slog.Logger, res dispatch.Result, requestID string) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(ctx, res, requestID); err != nil {
		logger.Warn("archive solution failed", logging.FieldProblemID, res.ProblemID, "error", err)
		return
	}
	logger.Info("solution archived",
		logging.FieldProblemID, res.ProblemID,
		"origin", res.Origin,
		"sources", res.SourceList(),
	)
}

func (s *Session) refreshAfter(ctx context.Context, logger *slog.Logger) {
	if _, err := s.queue.Refresh(ctx, true); err != nil {
		logger.Debug("refresh after action failed", "error", err)
	}
}
