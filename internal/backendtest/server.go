// Package backendtest provides an in-memory fake of the code-generation
// backend for tests. It serves the same routes as the real service and counts
// calls per route so tests can assert on network traffic.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Route names used by Calls and Fail.
const (
	RouteList     = "list-problems"
	RouteAdd      = "add-problem"
	RouteDelete   = "delete-problem"
	RouteGenerate = "generate"
	RouteCached   = "get-problem-code"
	RouteRunNext  = "run-daily"
)

type problem struct {
	id        string
	status    string
	createdAt time.Time
}

type solution struct {
	code    string
	sources []string
}

type cached struct {
	status  string
	code    string
	sources []string
}

// Server is a fake backend bound to an httptest.Server.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	problems  []problem
	solutions map[string]solution
	genErrors map[string]string
	runErrors map[string]string
	cache     map[string]cached
	failures  map[string]int
	calls     map[string]int
	requests  map[string][]string
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		solutions: make(map[string]solution),
		genErrors: make(map[string]string),
		runErrors: make(map[string]string),
		cache:     make(map[string]cached),
		failures:  make(map[string]int),
		calls:     make(map[string]int),
		requests:  make(map[string][]string),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/list-problems", s.track(RouteList, s.handleList))
	r.Post("/add-problem", s.track(RouteAdd, s.handleAdd))
	r.Delete("/delete-problem/{id}", s.track(RouteDelete, s.handleDelete))
	r.Post("/generate", s.track(RouteGenerate, s.handleGenerate))
	r.Get("/get-problem-code/{id}", s.track(RouteCached, s.handleCached))
	r.Post("/run-daily", s.track(RouteRunNext, s.handleRunNext))
	return r
}

// Enqueue seeds a problem with a raw backend status.
func (s *Server) Enqueue(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems = append(s.problems, problem{id: id, status: status, createdAt: time.Now().UTC()})
}

// SetSolution makes /generate succeed for id.
func (s *Server) SetSolution(id, code string, sources ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solutions[id] = solution{code: code, sources: sources}
	delete(s.genErrors, id)
}

// SetGenerateError makes /generate answer 200 with a logical error for id.
func (s *Server) SetGenerateError(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genErrors[id] = message
}

// SetRunNextError makes /run-daily pick id and report message inside its
// result instead of code.
func (s *Server) SetRunNextError(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runErrors[id] = message
}

// SetCached seeds the cached-code record for id.
func (s *Server) SetCached(id, status, code string, sources ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[id] = cached{status: status, code: code, sources: sources}
}

// Fail forces route to answer with status until cleared with Fail(route, 0).
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Calls returns the number of requests served on route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests served on every route.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// ProblemIDs returns the ids passed to route in request order.
func (s *Server) ProblemIDs(route string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests[route]...)
}

// Status returns the stored raw status for id, or "" when absent.
func (s *Server) Status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.problems {
		if p.id == id {
			return p.status
		}
	}
	return ""
}

func (s *Server) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		status := s.failures[route]
		s.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		next(w, r)
	}
}

func (s *Server) record(route, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[route] = append(s.requests[route], id)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type data struct {
		ProblemID string `json:"problem_id"`
		Status    string `json:"status"`
		CreatedAt string `json:"created_at"`
	}
	type record struct {
		ID   string `json:"id"`
		Data data   `json:"data"`
	}
	out := make([]record, 0, len(s.problems))
	for _, p := range s.problems {
		out = append(out, record{ID: p.id, Data: data{ProblemID: p.id, Status: p.status, CreatedAt: p.createdAt.Format(http.TimeFormat)}})
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "problems": out})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeProblemID(w, r)
	if !ok {
		return
	}
	s.record(RouteAdd, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.problems {
		if p.id == id {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "problem " + id + " already exists"})
			return
		}
	}
	s.problems = append(s.problems, problem{id: id, status: "pending", createdAt: time.Now().UTC()})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "problem " + id + " added"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.record(RouteDelete, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.problems {
		if p.id == id {
			s.problems = append(s.problems[:i], s.problems[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "problem " + id + " not found"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeProblemID(w, r)
	if !ok {
		return
	}
	s.record(RouteGenerate, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	status, body := s.generateLocked(id)
	writeJSON(w, status, body)
}

func (s *Server) generateLocked(id string) (int, map[string]any) {
	if msg, ok := s.genErrors[id]; ok {
		s.setStatusLocked(id, "failed")
		return http.StatusOK, map[string]any{"error": msg}
	}
	sol, ok := s.solutions[id]
	if !ok {
		s.setStatusLocked(id, "failed")
		return http.StatusOK, map[string]any{"error": "no solution found for problem " + id}
	}
	s.setStatusLocked(id, "completed")
	s.cache[id] = cached{status: "success", code: sol.code, sources: sol.sources}
	return http.StatusOK, map[string]any{"problem_id": id, "code": sol.code, "sources": nonNil(sol.sources)}
}

func (s *Server) setStatusLocked(id, status string) {
	for i := range s.problems {
		if s.problems[i].id == id {
			s.problems[i].status = status
		}
	}
}

func (s *Server) handleCached(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.record(RouteCached, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached code for " + id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     c.status,
		"problem_id": id,
		"code":       c.code,
		"sources":    nonNil(c.sources),
	})
}

func (s *Server) handleRunNext(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.problems {
		if p.status != "pending" && p.status != "waiting" {
			continue
		}
		s.requests[RouteRunNext] = append(s.requests[RouteRunNext], p.id)
		if msg, ok := s.runErrors[p.id]; ok {
			s.setStatusLocked(p.id, "failed")
			writeJSON(w, http.StatusOK, map[string]any{
				"status":     "success",
				"problem_id": p.id,
				"result":     map[string]any{"problem_id": p.id, "error": msg},
			})
			return
		}
		status, body := s.generateLocked(p.id)
		if errMsg, failed := body["error"]; failed {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": errMsg})
			return
		}
		writeJSON(w, status, map[string]any{
			"status":     "success",
			"problem_id": p.id,
			"result":     map[string]any{"problem_id": p.id, "code": body["code"], "sources": body["sources"]},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "no problems to process"})
}

func decodeProblemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		ProblemID string `json:"problem_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProblemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "problem_id is required"})
		return "", false
	}
	return req.ProblemID, true
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
