package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/db"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", -1, "max runs to list, 0 for all (default: history.limit)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored runs, newest first",
	Long: `List runs stored by demo and time, newest first.

Examples:
  diveboard history
  diveboard history --limit 5 -j
  diveboard history show <run-id>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openHistory()
		if err != nil {
			return err
		}
		defer conn.Close()

		limit := flagHistoryLimit
		if limit < 0 {
			limit = appConfig.History.Limit
		}
		runs, err := conn.ListRuns(limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		out := newWriter(cmd)
		if out.Structured() {
			if runs == nil {
				runs = []*db.Run{}
			}
			return out.Write(runs)
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{
				r.ID,
				r.Name,
				r.StartedAt.Local().Format(time.DateTime),
				strconv.Itoa(r.Passed),
				strconv.Itoa(r.Failed),
			})
		}
		return out.Table([]string{"ID", "NAME", "STARTED", "PASSED", "FAILED"}, rows)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its per-label results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openHistory()
		if err != nil {
			return err
		}
		defer conn.Close()

		run, err := conn.GetRun(args[0])
		if err != nil {
			return err
		}

		out := newWriter(cmd)
		if out.Structured() {
			return out.Write(run)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "run %s (%s)\n", run.ID, run.Name)
		fmt.Fprintf(w, "  level:    %s\n", run.Level)
		if run.ProjectPath != "" {
			fmt.Fprintf(w, "  project:  %s\n", run.ProjectPath)
		}
		fmt.Fprintf(w, "  started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
		fmt.Fprintf(w, "  finished: %s\n", run.FinishedAt.Local().Format(time.DateTime))
		fmt.Fprintf(w, "  checks:   %d passed, %d failed\n", run.Passed, run.Failed)
		for _, res := range run.Results {
			fmt.Fprintf(w, "%s: %s\n", res.Label, resultValue(res))
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openHistory()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.DeleteRun(args[0]); err != nil {
			return err
		}
		out := newWriter(cmd)
		if out.Structured() {
			return out.Write(map[string]any{"deleted": args[0]})
		}
		out.Success("deleted run " + args[0])
		return nil
	},
}
