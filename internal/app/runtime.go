package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/five82/bojq/internal/archive"
	"github.com/five82/bojq/internal/config"
	"github.com/five82/bojq/internal/dispatch"
	"github.com/five82/bojq/internal/logging"
	"github.com/five82/bojq/internal/session"
	"github.com/five82/bojq/internal/solver"
	"github.com/five82/bojq/internal/state"
)

// Options configure the bojq runtime.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/bojq/prefs.toml
	APIURL     string // overrides api_url when set
	PollEvery  int    // seconds; zero uses the configured interval
	// LogMirror, when set, receives a copy of log output. The TUI leaves it nil.
	LogMirror io.Writer
}

// Runtime holds the wired components shared by the CLI and the TUI.
type Runtime struct {
	Config      config.Config
	Logger      *slog.Logger
	Client      *solver.Client
	Coordinator *state.Coordinator
	Session     *session.Session

	archive   *archive.Store
	logCloser io.Closer
}

// Open loads configuration and builds every component.
func Open(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		OutputPaths: []string{cfg.LogPath()},
		Writer:      opts.LogMirror,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := solver.NewClient(cfg.APIURL, solver.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	store, err := archive.Open(cfg.ArchivePath())
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("open solution archive: %w", err)
	}

	coordinator := state.NewCoordinator(client, logger.With(logging.FieldComponent, "coordinator"))
	sess := session.New(session.Options{
		Queue:         coordinator,
		Dispatcher:    dispatch.New(client, logger.With(logging.FieldComponent, "dispatch")),
		Runner:        client,
		Archive:       store,
		Logger:        logger,
		DownloadDir:   cfg.DownloadDir,
		FileExtension: cfg.FileExtension,
	})

	logger.Debug("runtime ready", "api_url", client.BaseURL(), "archive", store.Path())
	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Client:      client,
		Coordinator: coordinator,
		Session:     sess,
		archive:     store,
		logCloser:   logCloser,
	}, nil
}

// Scheduler builds a stopped Scheduler driving this runtime's session.
func (r *Runtime) Scheduler() *Scheduler {
	return NewScheduler(SchedulerOptions{
		Actions:         r.Session,
		Interval:        r.Config.PollInterval,
		RunNextSchedule: r.Config.RunNextSchedule,
		LockPath:        r.Config.LockPath(),
		Logger:          r.Logger,
	})
}

// Close releases the archive and log files.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.archive.Close(), r.logCloser.Close())
}
