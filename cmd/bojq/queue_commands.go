package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/five82/bojq/internal/queue"
)

type listOptions struct {
	statuses []string
	json     bool
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List queued problems",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, ctx, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.statuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output JSON")
	return cmd
}

func runList(cmd *cobra.Command, ctx *commandContext, opts listOptions) error {
	rt, err := ctx.ensureRuntime(cmd)
	if err != nil {
		return err
	}
	if _, err := rt.Session.Refresh(cmd.Context()); err != nil {
		return err
	}
	items, err := filterByStatus(rt.Session.Snapshot().Queue, opts.statuses)
	if err != nil {
		return err
	}

	if opts.json {
		type jsonItem struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			Completed bool   `json:"completed"`
			CreatedAt string `json:"created_at,omitempty"`
		}
		out := make([]jsonItem, 0, len(items))
		for _, item := range items {
			ji := jsonItem{ID: item.ID, Status: string(item.Status), Completed: item.IsCompleted}
			if !item.CreatedAt.IsZero() {
				ji.CreatedAt = item.CreatedAt.UTC().Format(time.RFC3339)
			}
			out = append(out, ji)
		}
		return writeJSON(cmd, map[string]any{"items": out})
	}

	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
		return nil
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		added := "-"
		if !item.CreatedAt.IsZero() {
			added = humanize.Time(item.CreatedAt)
		}
		rows = append(rows, []string{item.ID, item.Status.Label(), yesNo(item.IsCompleted), added})
	}
	table := renderTable(
		[]string{"BOJ", "Status", "Completed", "Added"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
	fmt.Fprint(cmd.OutOrStdout(), table)
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func filterByStatus(items queue.Snapshot, statuses []string) (queue.Snapshot, error) {
	if len(statuses) == 0 {
		return items, nil
	}
	want := make(map[queue.Status]bool, len(statuses))
	for _, raw := range statuses {
		status, _ := queue.Normalize(strings.ToLower(strings.TrimSpace(raw)))
		if !status.Known() {
			return nil, fmt.Errorf("unknown status %q (want waiting, processing, completed or failed)", raw)
		}
		want[status] = true
	}
	out := make(queue.Snapshot, 0, len(items))
	for _, item := range items {
		if want[item.Status] {
			out = append(out, item)
		}
	}
	return out, nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id>...",
		Short: "Add problem ids to the backend queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.Session.Poll(cmd.Context()); err != nil {
				return err
			}
			var errs []error
			for _, id := range args {
				if err := rt.Session.Add(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("add %s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added BOJ %s\n", id)
			}
			return errors.Join(errs...)
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove problem ids from the backend queue",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime(cmd)
			if err != nil {
				return err
			}
			var errs []error
			for _, id := range args {
				if err := rt.Session.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted BOJ %s\n", id)
			}
			return errors.Join(errs...)
		},
	}
}
