// Package app is the composition root for bojq.
//
// # Overview
//
// Open turns a config path into a Runtime: logger, backend client, queue
// coordinator, dispatcher, solution archive and the Session the CLI and TUI
// share. Run and Watch add a Scheduler on top.
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()          config.toml
//	       ├─────> logging.New()          bojq.log (+ stderr for the CLI)
//	       ├─────> solver.NewClient()     backend HTTP client
//	       ├─────> archive.Open()         solutions.db
//	       ├─────> state.NewCoordinator() queue snapshot owner
//	       └─────> session.New()          shared actions
//
// # Scheduling
//
// The Scheduler runs on robfig/cron. Every process polls the queue at the
// configured interval with a non-forced refresh, so a slow poll is skipped
// rather than stacked. The optional run_next_schedule job is registered only
// by the process that takes the scheduler.lock file lock; other terminals
// keep polling but never trigger the backend's run-next.
//
// # Lifecycle
//
// Run starts the TUI and the scheduler under one errgroup. Quitting the TUI
// or cancelling ctx stops both; the scheduler waits for a running job before
// releasing its lock.
package app
