// Package prefs persists bojq user preferences in ~/.config/bojq/prefs.toml.
// Unreadable or malformed files degrade to defaults rather than failing.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// Recent lists recently generated problem ids, newest first.
	Recent []string `toml:"recent,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/bojq/prefs.toml"
	defaultTheme     = "Dracula"
	maxRecent        = 10
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load reads preferences from path, falling back to defaults when the file is
// missing or unreadable. The error is informational; the returned Prefs is
// always usable.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("open prefs: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return Default(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("parse prefs: %w", err)
	}
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	if len(p.Recent) > maxRecent {
		p.Recent = p.Recent[:maxRecent]
	}
	return p, nil
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Remember moves id to the front of Recent, keeping at most ten entries.
func (p *Prefs) Remember(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	p.Recent = slices.DeleteFunc(p.Recent, func(v string) bool { return v == id })
	p.Recent = append([]string{id}, p.Recent...)
	if len(p.Recent) > maxRecent {
		p.Recent = p.Recent[:maxRecent]
	}
}

// LastProblem returns the most recently remembered id.
func (p Prefs) LastProblem() string {
	if len(p.Recent) == 0 {
		return ""
	}
	return p.Recent[0]
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
