package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var workerRegisterCmd = &cobra.Command{
	Use:     "register <id> <name>",
	GroupID: "workers",
	Short:   "Register a worker",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		caps, _ := cmd.Flags().GetStringSlice("capability")
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		w, err := workerSvc.Register(cmd.Context(), args[0], args[1], hostname, os.Getpid(), caps)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(w, func() { fmt.Printf("registered %s (%s)\n", w.ID, w.Name) })
		return nil
	},
}

var workerHeartbeatCmd = &cobra.Command{
	Use:     "heartbeat <id>",
	GroupID: "workers",
	Short:   "Record a worker heartbeat",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := workerSvc.Heartbeat(cmd.Context(), args[0]); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"worker": args[0]}, func() { fmt.Printf("heartbeat %s\n", args[0]) })
		return nil
	},
}

var workerDeregisterCmd = &cobra.Command{
	Use:     "deregister <id>",
	GroupID: "workers",
	Short:   "Deregister a worker, releasing its claims",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		released, err := workerSvc.Deregister(cmd.Context(), args[0])
		if err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]int{"releasedClaims": released}, func() {
			fmt.Printf("deregistered %s, released %d claim(s)\n", args[0], released)
		})
		return nil
	},
}

var workerListCmd = &cobra.Command{
	Use:     "list",
	GroupID: "workers",
	Short:   "List registered workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		workers, err := workerSvc.List(cmd.Context())
		if err != nil {
			FatalOnError(err)
		}
		printOutput(workers, func() {
			for _, w := range workers {
				fmt.Printf("%s [%s] %s\n", w.ID, w.Status, w.Name)
			}
		})
		return nil
	},
}

func init() {
	workerRegisterCmd.Flags().StringSlice("capability", nil, "worker capability tag (repeatable)")
	rootCmd.AddCommand(workerRegisterCmd, workerHeartbeatCmd, workerDeregisterCmd, workerListCmd)
}
