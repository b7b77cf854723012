package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/five82/bojq/internal/logging"
)

// Config holds everything bojq reads from config.toml.
type Config struct {
	APIURL          string
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	RunNextSchedule string
	DataDir         string
	DownloadDir     string
	FileExtension   string
	LogLevel        string
	LogFormat       string
}

const (
	defaultConfigPath    = "~/.config/bojq/config.toml"
	defaultDataDir       = "~/.local/share/bojq"
	defaultAPIURL        = "http://127.0.0.1:8080"
	defaultPollSeconds   = 30
	defaultDownloadDir   = "."
	defaultFileExtension = "java"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

type rawConfig struct {
	APIURL                string `toml:"api_url"`
	PollIntervalSeconds   *int   `toml:"poll_interval_seconds"`
	RequestTimeoutSeconds *int   `toml:"request_timeout_seconds"`
	RunNextSchedule       string `toml:"run_next_schedule"`
	DataDir               string `toml:"data_dir"`
	DownloadDir           string `toml:"download_dir"`
	FileExtension         string `toml:"file_extension"`
	LogLevel              string `toml:"log_level"`
	LogFormat             string `toml:"log_format"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:        defaultAPIURL,
		PollInterval:  defaultPollSeconds * time.Second,
		DataDir:       mustExpand(defaultDataDir),
		DownloadDir:   mustExpand(defaultDownloadDir),
		FileExtension: defaultFileExtension,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := raw.resolve()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (raw rawConfig) resolve() (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if raw.PollIntervalSeconds != nil {
		cfg.PollInterval = time.Duration(*raw.PollIntervalSeconds) * time.Second
	}
	if raw.RequestTimeoutSeconds != nil {
		cfg.RequestTimeout = time.Duration(*raw.RequestTimeoutSeconds) * time.Second
	}
	cfg.RunNextSchedule = strings.TrimSpace(raw.RunNextSchedule)

	if v := strings.TrimSpace(raw.DataDir); v != "" {
		expanded, err := expandPath(v)
		if err != nil {
			return Config{}, fmt.Errorf("data_dir: %w", err)
		}
		cfg.DataDir = expanded
	}
	if v := strings.TrimSpace(raw.DownloadDir); v != "" {
		expanded, err := expandPath(v)
		if err != nil {
			return Config{}, fmt.Errorf("download_dir: %w", err)
		}
		cfg.DownloadDir = expanded
	}
	if v := strings.TrimPrefix(strings.TrimSpace(raw.FileExtension), "."); v != "" {
		cfg.FileExtension = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	return cfg, nil
}

// Validate reports configuration values that cannot be used.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval_seconds: must be positive, got %s", c.PollInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout_seconds: must not be negative, got %s", c.RequestTimeout)
	}
	if c.RunNextSchedule != "" {
		if _, err := cron.ParseStandard(c.RunNextSchedule); err != nil {
			return fmt.Errorf("run_next_schedule: %w", err)
		}
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}
	if strings.ContainsAny(c.FileExtension, `/\`) {
		return fmt.Errorf("file_extension: %q must not contain path separators", c.FileExtension)
	}
	return nil
}

// LogPath returns the log file the TUI and CLI write to.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "bojq.log")
}

// ArchivePath returns the SQLite solution archive location.
func (c Config) ArchivePath() string {
	return filepath.Join(c.dataDir(), "solutions.db")
}

// LockPath returns the lock file that elects the run-next scheduler.
func (c Config) LockPath() string {
	return filepath.Join(c.dataDir(), "scheduler.lock")
}

// SolutionPath returns where a saved solution for id is written.
func (c Config) SolutionPath(id string) string {
	return filepath.Join(c.DownloadDir, fmt.Sprintf("BOJ_%s.%s", id, c.FileExtension))
}

// EnsureDirectories creates the data directory.
func (c Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.dataDir(), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
