package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showCode bool

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show archived solutions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime(cmd)
			if err != nil {
				return err
			}
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			if showCode && id != "" {
				res, err := rt.Session.Latest(cmd.Context(), id)
				if err != nil {
					return err
				}
				writeCode(cmd.OutOrStdout(), res)
				return nil
			}
			entries, err := rt.Session.History(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No archived solutions")
				return nil
			}
			if showCode {
				fmt.Fprintln(out, entries[0].Code)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.ProblemID,
					string(e.Origin),
					yesNo(e.Fallback),
					humanize.Bytes(uint64(len(e.Code))),
					humanize.Time(e.CreatedAt),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"#", "BOJ", "Origin", "Fallback", "Size", "Saved"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&showCode, "code", false, "Print the newest archived code instead of the table")
	return cmd
}
