package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/unityctx/internal/store"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent analysis runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			ledger, err := openLedger(cfg.Store)
			if err != nil {
				return fmt.Errorf("opening run ledger: %w", err)
			}
			defer ledger.Close()

			runs, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(runs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of runs to show")
	cmd.Flags().Bool("json", false, "print runs as JSON")
	return cmd
}

// printRuns writes a table of runs, newest first.
func printRuns(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTAGE\tEXIT\tDURATION\tSTARTED\tTARGET")
	for _, r := range runs {
		exit := "-"
		if r.ExitCode >= 0 {
			exit = fmt.Sprint(r.ExitCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Kind, r.Stage, exit,
			(time.Duration(r.Duration) * time.Millisecond).String(),
			r.StartedAt.Local().Format(time.DateTime),
			r.Target)
	}
	return tw.Flush()
}
