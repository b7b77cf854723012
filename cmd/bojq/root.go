package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// execute builds the command tree, runs it with args and releases whatever
// runtime the command opened.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd, cc := newRootCommand()
	defer cc.close()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand() (*cobra.Command, *commandContext) {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "bojq",
		Short:         "Queue and generate solutions for BOJ problems",
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{skipRuntimeAnnotation: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipRuntime(cmd) {
				return nil
			}
			_, err := ctx.ensureRuntime(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTerminal(cmd.OutOrStdout()) {
				return ctx.runUI(cmd.Context())
			}
			return runList(cmd, ctx, listOptions{})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.opts.ConfigPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.opts.APIURL, "api-url", "", "Override the backend URL")
	flags.StringVar(&ctx.opts.PrefsPath, "prefs", "", "Preferences file path")
	flags.IntVar(&ctx.opts.PollEvery, "poll", 0, "Queue poll interval in seconds")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Mirror log output to stderr")

	rootCmd.AddCommand(newUICommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newRunNextCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))

	return rootCmd, ctx
}

func newUICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "ui",
		Short:       "Open the interactive queue browser",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipRuntimeAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runUI(cmd.Context())
		},
	}
}
