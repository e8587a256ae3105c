package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/julianshen/unityctx/internal/doctor"
	"github.com/julianshen/unityctx/internal/runner"
	"github.com/julianshen/unityctx/internal/tui"
)

func doctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the analyzer runs and meets the version constraint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			rep, err := doctor.Run(cmd.Context(), cfg.Analyzer, runner.New())
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(rep, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(rep))
			}

			if !rep.OK() {
				return &runner.ExitError{Code: runner.ExitUnavailable}
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the report as JSON")
	return cmd
}
