package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the code-generation backend over HTTP. Each method issues a
// single request and never retries.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8080"
	defaultUserAgent = "bojq/0.1"
	maxResponseBytes = 16 << 20
)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout sets an overall request timeout. Zero keeps the transport
// default, which never times out.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a Client for the backend at apiURL.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListProblems retrieves the raw queue records held by the backend.
func (c *Client) ListProblems(ctx context.Context) ([]ProblemRecord, error) {
	const op = "list problems"
	resp, err := c.send(ctx, op, http.MethodGet, "/list-problems", nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.transportError(op)
	}
	var payload listProblemsResponse
	if err := resp.decode(op, &payload); err != nil {
		return nil, err
	}
	return payload.Problems, nil
}

// AddProblem enqueues id on the backend. Callers check for local duplicates
// before calling.
func (c *Client) AddProblem(ctx context.Context, id string) error {
	const op = "add problem"
	resp, err := c.send(ctx, op, http.MethodPost, "/add-problem", problemRequest{ProblemID: id})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.rejected(op, id, ErrDuplicateOrRejected)
	}
	return nil
}

// DeleteProblem removes id from the backend queue.
func (c *Client) DeleteProblem(ctx context.Context, id string) error {
	const op = "delete problem"
	resp, err := c.send(ctx, op, http.MethodDelete, "/delete-problem/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.rejected(op, id, ErrNotFoundOrRejected)
	}
	return nil
}

// Generate requests fresh solution code for id. A 2xx body with an error field
// is returned as *DataError.
func (c *Client) Generate(ctx context.Context, id string) (Solution, error) {
	const op = "generate"
	resp, err := c.send(ctx, op, http.MethodPost, "/generate", problemRequest{ProblemID: id})
	if err != nil {
		return Solution{}, err
	}
	if !resp.ok() {
		return Solution{}, resp.transportError(op)
	}
	var sol Solution
	if err := resp.decode(op, &sol); err != nil {
		return Solution{}, err
	}
	if msg := strings.TrimSpace(sol.Error); msg != "" {
		return Solution{}, &DataError{ProblemID: id, Message: msg}
	}
	if sol.ProblemID == "" {
		sol.ProblemID = id
	}
	return sol, nil
}

// FetchCachedCode retrieves previously generated code for id. Any status other
// than the success marker is reported as ErrCacheMiss.
func (c *Client) FetchCachedCode(ctx context.Context, id string) (CachedSolution, error) {
	const op = "fetch cached code"
	resp, err := c.send(ctx, op, http.MethodGet, "/get-problem-code/"+url.PathEscape(id), nil)
	if err != nil {
		return CachedSolution{}, err
	}
	if !resp.ok() {
		return CachedSolution{}, resp.transportError(op)
	}
	var cached CachedSolution
	if err := resp.decode(op, &cached); err != nil {
		return CachedSolution{}, err
	}
	if !cached.Complete() {
		return CachedSolution{}, fmt.Errorf("%w: problem %s has status %q", ErrCacheMiss, id, cached.Status)
	}
	if cached.ProblemID == "" {
		cached.ProblemID = id
	}
	return cached, nil
}

// RunNext asks the backend to pick and execute the next eligible queued item.
func (c *Client) RunNext(ctx context.Context) (RunNextResult, error) {
	const op = "run next"
	resp, err := c.send(ctx, op, http.MethodPost, "/run-daily", nil)
	if err != nil {
		return RunNextResult{}, err
	}
	if !resp.ok() {
		return RunNextResult{}, resp.transportError(op)
	}
	var result RunNextResult
	if err := resp.decode(op, &result); err != nil {
		return RunNextResult{}, err
	}
	return result, nil
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// message extracts the backend's error text, falling back to the raw body.
func (r response) message() string {
	var payload errorResponse
	if err := json.Unmarshal(r.body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(r.body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

func (r response) transportError(op string) error {
	return &TransportError{Op: op, StatusCode: r.status, Message: r.message()}
}

func (r response) rejected(op, id string, reason error) error {
	return &RejectedError{Op: op, ProblemID: id, StatusCode: r.status, Message: r.message(), Reason: reason}
}

func (r response) decode(op string, dest any) error {
	if err := json.Unmarshal(r.body, dest); err != nil {
		return &TransportError{Op: op, StatusCode: r.status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, payload any) (response, error) {
	reqURL := c.baseURL.JoinPath(path)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return response{}, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, &TransportError{Op: op, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	return response{status: resp.StatusCode, body: data}, nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
