package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/bojq/internal/app"
	"github.com/five82/bojq/internal/dispatch"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var save bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "generate <id>",
		Aliases: []string{"gen"},
		Short:   "Produce solution code for a problem id",
		Long: "Produce solution code for a problem id. Completed problems are served\n" +
			"from the backend cache; anything else is generated fresh.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime(cmd)
			if err != nil {
				return err
			}
			// Routing depends on completion state; a failed poll falls back
			// to fresh generation.
			if err := rt.Session.Poll(cmd.Context()); err != nil {
				rt.Logger.Debug("pre-generate refresh failed", "error", err)
			}
			res, err := rt.Session.Generate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, rt, res, save, asJSON)
		},
	}
	cmd.Flags().BoolVarP(&save, "save", "s", false, "Write code to the download directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newRunNextCommand(ctx *commandContext) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "run-next",
		Short: "Ask the backend to process the next queued problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime(cmd)
			if err != nil {
				return err
			}
			report, err := rt.Session.RunNext(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !report.Ran {
				fmt.Fprintln(out, report.Message)
				return nil
			}
			fmt.Fprintf(out, "Backend ran BOJ %s\n", report.Result.ProblemID)
			if report.Result.Code == "" {
				return nil
			}
			return printResult(cmd, rt, report.Result, save, false)
		},
	}
	cmd.Flags().BoolVarP(&save, "save", "s", false, "Write produced code to the download directory")
	return cmd
}

func printResult(cmd *cobra.Command, rt *app.Runtime, res dispatch.Result, save, asJSON bool) error {
	var path string
	if save {
		saved, err := rt.Session.Save(res)
		if err != nil {
			return err
		}
		path = saved
	}

	if asJSON {
		payload := map[string]any{
			"problem_id": res.ProblemID,
			"origin":     string(res.Origin),
			"fallback":   res.Fallback,
			"code":       res.Code,
			"sources":    nonNil(res.Sources),
		}
		if path != "" {
			payload["path"] = path
		}
		return writeJSON(cmd, payload)
	}

	writeCode(cmd.OutOrStdout(), res)
	errOut := cmd.ErrOrStderr()
	note := fmt.Sprintf("BOJ %s: %s", res.ProblemID, res.Origin)
	if res.Fallback {
		note += " (cache unavailable, regenerated)"
	}
	fmt.Fprintln(errOut, note)
	if path != "" {
		fmt.Fprintf(errOut, "Saved to %s\n", path)
	}
	return nil
}

func writeCode(out io.Writer, res dispatch.Result) {
	fmt.Fprint(out, res.Code)
	if n := len(res.Code); n > 0 && res.Code[n-1] != '\n' {
		fmt.Fprintln(out)
	}
	if len(res.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for _, src := range res.Sources {
			fmt.Fprintf(out, "  %s\n", src)
		}
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
