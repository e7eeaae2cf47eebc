package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/claimservice"
)

var claimCmd = &cobra.Command{
	Use:     "claim <task-id> <worker-id>",
	GroupID: "claims",
	Short:   "Acquire a lease on a task for a worker",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var override *time.Duration
		if cmd.Flags().Changed("lease-minutes") {
			m, _ := cmd.Flags().GetInt("lease-minutes")
			d := time.Duration(m) * time.Minute
			override = &d
		}
		c, err := claimSvc.Claim(cmd.Context(), args[0], args[1], override)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(c, func() {
			fmt.Printf("claim %d on %s by %s, expires %s\n", c.ID, c.TaskID, c.WorkerID, c.LeaseExpiresAt.Format(time.RFC3339))
		})
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:     "release <task-id> <worker-id>",
	GroupID: "claims",
	Short:   "Release an active claim",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := claimSvc.Release(cmd.Context(), args[0], args[1]); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"released": args[0]}, func() { fmt.Printf("released %s\n", args[0]) })
		return nil
	},
}

var renewCmd = &cobra.Command{
	Use:     "renew <task-id> <worker-id>",
	GroupID: "claims",
	Short:   "Extend the lease on an active claim",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var override *time.Duration
		if cmd.Flags().Changed("lease-minutes") {
			m, _ := cmd.Flags().GetInt("lease-minutes")
			d := time.Duration(m) * time.Minute
			override = &d
		}
		c, err := claimSvc.Renew(cmd.Context(), args[0], args[1], override)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(c, func() {
			fmt.Printf("claim %d renewed (%d/%d), expires %s\n", c.ID, c.RenewedCount, claimservice.MaxRenewals, c.LeaseExpiresAt.Format(time.RFC3339))
		})
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:     "complete <task-id> <worker-id>",
	GroupID: "claims",
	Short:   "Complete an active claim",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := claimSvc.Complete(cmd.Context(), args[0], args[1]); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"completed": args[0]}, func() { fmt.Printf("completed %s\n", args[0]) })
		return nil
	},
}

var claimHistoryCmd = &cobra.Command{
	Use:     "claim-history <task-id>",
	GroupID: "claims",
	Short:   "List every claim ever made on a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claims, err := claimSvc.History(cmd.Context(), args[0])
		if err != nil {
			FatalOnError(err)
		}
		printOutput(claims, func() {
			for _, c := range claims {
				fmt.Printf("%d %s %s %s\n", c.ID, c.WorkerID, c.Status, c.ClaimedAt.Format(time.RFC3339))
			}
		})
		return nil
	},
}

func init() {
	claimCmd.Flags().Int("lease-minutes", 0, "override the configured lease duration")
	renewCmd.Flags().Int("lease-minutes", 0, "override the configured lease duration")
	rootCmd.AddCommand(claimCmd, releaseCmd, renewCmd, completeCmd, claimHistoryCmd)
}
