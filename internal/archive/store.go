package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/five82/bojq/internal/dispatch"
)

// ErrNotFound is returned by Latest when nothing is archived for an id.
var ErrNotFound = errors.New("no archived solution")

// Entry is one archived solution.
type Entry struct {
	ID        int64
	ProblemID string
	Origin    dispatch.Origin
	Fallback  bool
	Code      string
	Sources   []string
	RequestID string
	CreatedAt time.Time
}

// Store persists successful dispatch results in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the archive database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save archives a successful result. Failed results are rejected.
func (s *Store) Save(ctx context.Context, res dispatch.Result, requestID string) (Entry, error) {
	if !res.OK() {
		return Entry{}, fmt.Errorf("archive %s: result is not a success (%s)", res.ProblemID, res.Outcome)
	}
	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal sources: %w", err)
	}

	createdAt := s.now().UTC()
	out, err := s.db.ExecContext(ctx,
		`INSERT INTO solutions (problem_id, origin, fallback, code, sources_json, request_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ProblemID,
		string(res.Origin),
		boolToInt(res.Fallback),
		res.Code,
		string(sourcesJSON),
		nullableString(requestID),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert solution: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	return Entry{
		ID:        id,
		ProblemID: res.ProblemID,
		Origin:    res.Origin,
		Fallback:  res.Fallback,
		Code:      res.Code,
		Sources:   sources,
		RequestID: requestID,
		CreatedAt: createdAt,
	}, nil
}

// Latest returns the most recent entry for problemID.
func (s *Store) Latest(ctx context.Context, problemID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM solutions WHERE problem_id = ? ORDER BY id DESC LIMIT 1`,
		problemID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w for problem %s", ErrNotFound, problemID)
	}
	return entry, err
}

// List returns entries newest first. An empty problemID lists every problem;
// limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, problemID string, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM solutions`
	var args []any
	if problemID != "" {
		query += ` WHERE problem_id = ?`
		args = append(args, problemID)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query solutions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solutions: %w", err)
	}
	return entries, nil
}

const entryColumns = `id, problem_id, origin, fallback, code, sources_json, request_id, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry       Entry
		origin      string
		fallback    int
		sourcesJSON string
		requestID   sql.NullString
		createdAt   string
	)
	if err := row.Scan(&entry.ID, &entry.ProblemID, &origin, &fallback, &entry.Code, &sourcesJSON, &requestID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan solution: %w", err)
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &entry.Sources); err != nil {
		return Entry{}, fmt.Errorf("decode sources for %s: %w", entry.ProblemID, err)
	}
	entry.Origin = dispatch.Origin(origin)
	entry.Fallback = fallback != 0
	entry.RequestID = requestID.String
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		entry.CreatedAt = ts
	}
	return entry, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
