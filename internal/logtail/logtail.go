package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Filter narrows the lines returned by ReadFiltered. Zero fields match
// everything.
type Filter struct {
	ProblemID string
	RequestID string
	MinLevel  string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	return ReadFiltered(path, maxLines, Filter{})
}

// ReadFiltered is Read restricted to lines matching f.
func ReadFiltered(path string, maxLines int, f Filter) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			if line := scanner.Text(); f.Match(line) {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !f.Match(line) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Match reports whether a text or json slog line satisfies f.
func (f Filter) Match(line string) bool {
	if f.ProblemID != "" && Field(line, "problem_id") != f.ProblemID {
		return false
	}
	if f.RequestID != "" && Field(line, "request_id") != f.RequestID {
		return false
	}
	if min, ok := levelRank[strings.ToLower(f.MinLevel)]; ok {
		rank, known := levelRank[Level(line)]
		if known && rank < min {
			return false
		}
	}
	return true
}

// Level extracts the lowercase level of a log line, or "".
func Level(line string) string {
	return strings.ToLower(Field(line, "level"))
}

// Field extracts key's value from a text (key=value) or json ("key":"value")
// slog line. Quoted text values are unquoted.
func Field(line, key string) string {
	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		marker := `"` + key + `":`
		i := strings.Index(line, marker)
		if i < 0 {
			return ""
		}
		rest := strings.TrimLeft(line[i+len(marker):], " ")
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				return ""
			}
			return rest[1 : end+1]
		}
		end := strings.IndexAny(rest, ",}")
		if end < 0 {
			return rest
		}
		return rest[:end]
	}

	marker := key + "="
	for i := 0; ; {
		j := strings.Index(line[i:], marker)
		if j < 0 {
			return ""
		}
		start := i + j
		if start == 0 || line[start-1] == ' ' {
			rest := line[start+len(marker):]
			if strings.HasPrefix(rest, `"`) {
				end := strings.IndexByte(rest[1:], '"')
				if end < 0 {
					return rest[1:]
				}
				return rest[1 : end+1]
			}
			if end := strings.IndexByte(rest, ' '); end >= 0 {
				return rest[:end]
			}
			return rest
		}
		i = start + len(marker)
	}
}
