package main

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/bojq/internal/app"
)

const skipRuntimeAnnotation = "skipRuntime"

type commandContext struct {
	opts    app.Options
	verbose bool

	runtimeOnce sync.Once
	runtime     *app.Runtime
	runtimeErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// ensureRuntime opens the shared runtime once. With --verbose, log output is
// mirrored to the command's stderr.
func (c *commandContext) ensureRuntime(cmd *cobra.Command) (*app.Runtime, error) {
	c.runtimeOnce.Do(func() {
		opts := c.opts
		if c.verbose {
			opts.LogMirror = cmd.ErrOrStderr()
		}
		c.runtime, c.runtimeErr = app.Open(opts)
	})
	return c.runtime, c.runtimeErr
}

// runUI hands control to the TUI, which opens its own runtime.
func (c *commandContext) runUI(ctx context.Context) error {
	return app.Run(ctx, c.opts)
}

func (c *commandContext) close() {
	if c.runtime != nil {
		_ = c.runtime.Close()
		c.runtime = nil
	}
}

// shouldSkipRuntime reports whether cmd itself opts out of the shared
// runtime. Annotations are not inherited so the root's opt-out does not
// leak into subcommands.
func shouldSkipRuntime(cmd *cobra.Command) bool {
	return cmd.Annotations != nil && cmd.Annotations[skipRuntimeAnnotation] == "true"
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
