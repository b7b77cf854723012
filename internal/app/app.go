package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/bojq/internal/prefs"
	"github.com/five82/bojq/internal/ui"
)

const uiTick = time.Second

// Run boots the bojq TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := Open(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		rt.Logger.Warn("load preferences failed; using defaults", "error", err)
	}

	// Populate the queue before the first frame.
	if err := rt.Session.Poll(ctx); err != nil {
		rt.Logger.Warn("initial queue refresh failed", "error", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	sched := rt.Scheduler()
	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	g.Go(func() error {
		defer cancel()
		return ui.Run(ui.Options{
			Context:   gctx,
			Backend:   rt.Session,
			PollTick:  uiTick,
			ThemeName: userPrefs.Theme,
			PrefsPath: opts.PrefsPath,
			Prefs:     userPrefs,
			LogPath:   rt.Config.LogPath(),
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	return g.Wait()
}

// Watch runs the scheduler without a UI until ctx is cancelled.
func Watch(ctx context.Context, rt *Runtime) error {
	sched := rt.Scheduler()
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	rt.Logger.Info("watching queue",
		"api_url", rt.Client.BaseURL(),
		"interval", rt.Config.PollInterval,
		"run_next", sched.OwnsRunNext(),
		"jobs", sched.Entries(),
	)
	if err := rt.Session.Poll(ctx); err != nil {
		rt.Logger.Warn("initial queue refresh failed", "error", err)
	}
	<-ctx.Done()
	sched.Stop()
	rt.Logger.Info("watch stopped")
	return nil
}
