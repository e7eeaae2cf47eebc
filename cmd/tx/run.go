package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/types"
)

var runStartCmd = &cobra.Command{
	Use:     "run-start <worker-id>",
	GroupID: "runs",
	Short:   "Start a run, optionally against a claimed task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var taskID *string
		if v, _ := cmd.Flags().GetString("task"); v != "" {
			taskID = &v
		}
		r, err := heartbeatSvc.StartRun(cmd.Context(), args[0], taskID)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(r, func() { fmt.Printf("started run %s for worker %s\n", r.ID, r.WorkerID) })
		return nil
	},
}

var runTickCmd = &cobra.Command{
	Use:     "run-tick <run-id>",
	GroupID: "runs",
	Short:   "Record liveness byte counters for a run",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stdout, _ := cmd.Flags().GetInt64("stdout-bytes")
		stderr, _ := cmd.Flags().GetInt64("stderr-bytes")
		transcript, _ := cmd.Flags().GetInt64("transcript-bytes")
		if err := heartbeatSvc.Tick(cmd.Context(), args[0], stdout, stderr, transcript); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"run": args[0]}, func() { fmt.Printf("tick %s\n", args[0]) })
		return nil
	},
}

var runEndCmd = &cobra.Command{
	Use:     "run-end <run-id> <status>",
	GroupID: "runs",
	Short:   "End a run (status: completed|cancelled|stalled)",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := heartbeatSvc.End(cmd.Context(), args[0], types.RunStatus(args[1])); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"run": args[0], "status": args[1]}, func() {
			fmt.Printf("ended run %s: %s\n", args[0], args[1])
		})
		return nil
	},
}

var reapCmd = &cobra.Command{
	Use:     "reap",
	GroupID: "runs",
	Short:   "Sweep stalled runs, resetting their tasks and expiring their claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := reaperSvc.Sweep(cmd.Context())
		if err != nil {
			FatalOnError(err)
		}
		printOutput(result, func() {
			fmt.Printf("reaped: %+v\n", result)
		})
		return nil
	},
}

func init() {
	runStartCmd.Flags().String("task", "", "task id the run is working on")
	runTickCmd.Flags().Int64("stdout-bytes", 0, "cumulative stdout bytes observed")
	runTickCmd.Flags().Int64("stderr-bytes", 0, "cumulative stderr bytes observed")
	runTickCmd.Flags().Int64("transcript-bytes", 0, "cumulative transcript bytes observed")
	rootCmd.AddCommand(runStartCmd, runTickCmd, runEndCmd, reapCmd)
}
