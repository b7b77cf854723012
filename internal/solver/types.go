package solver

import (
	"net/http"
	"time"
)

// cacheSuccessStatus is the only status value that marks a cached solution as
// complete.
const cacheSuccessStatus = "success"

// ProblemRecord mirrors one entry of /list-problems.
type ProblemRecord struct {
	ID   string      `json:"id"`
	Data ProblemData `json:"data"`
}

// ProblemData is the backend document stored for a queued problem.
type ProblemData struct {
	ProblemID string `json:"problem_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	Error     string `json:"error"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (d ProblemData) ParsedCreatedAt() time.Time {
	return parseTime(d.CreatedAt)
}

type listProblemsResponse struct {
	Status   string          `json:"status"`
	Problems []ProblemRecord `json:"problems"`
}

type problemRequest struct {
	ProblemID string `json:"problem_id"`
}

// Solution is the payload of /generate.
type Solution struct {
	ProblemID string   `json:"problem_id"`
	Code      string   `json:"code"`
	Sources   []string `json:"sources"`
	Error     string   `json:"error,omitempty"`
}

// CachedSolution is the payload of /get-problem-code/{id}.
type CachedSolution struct {
	Status    string   `json:"status"`
	ProblemID string   `json:"problem_id"`
	Code      string   `json:"code"`
	Sources   []string `json:"sources"`
}

// Complete reports whether the cached record carries the success marker.
func (c CachedSolution) Complete() bool {
	return c.Status == cacheSuccessStatus
}

// RunNextResult is the payload of /run-daily. A bare Message means no queued
// problem was eligible.
type RunNextResult struct {
	Message   string    `json:"message,omitempty"`
	ProblemID string    `json:"problem_id,omitempty"`
	Result    *Solution `json:"result,omitempty"`
}

// Ran reports whether the backend picked and executed a problem.
func (r RunNextResult) Ran() bool {
	return r.ProblemID != ""
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	http.TimeFormat,
	time.RFC1123Z,
	time.RFC1123,
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
