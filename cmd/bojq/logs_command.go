package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/bojq/internal/app"
	"github.com/five82/bojq/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var filter logtail.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime(cmd)
			if err != nil {
				return err
			}
			out, err := logtail.ReadFiltered(rt.Config.LogPath(), lines, filter)
			if err != nil {
				return err
			}
			for _, line := range out {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().StringVarP(&filter.ProblemID, "problem", "p", "", "Only lines for this problem id")
	cmd.Flags().StringVar(&filter.RequestID, "request", "", "Only lines for this request id")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the queue and run the run-next schedule without a UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime(cmd)
			if err != nil {
				return err
			}
			return app.Watch(cmd.Context(), rt)
		},
	}
}
