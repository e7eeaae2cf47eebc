package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesaphoenix/tx/internal/config"
	"github.com/jamesaphoenix/tx/internal/reconcile"
	"github.com/spf13/cobra"
)

var syncExportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "sync",
	Short:   "Export the full task graph to the JSONL mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncEngine.Export(cmd.Context()); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"status": "exported"}, func() { fmt.Println("exported") })
		return nil
	},
}

var syncImportCmd = &cobra.Command{
	Use:     "import",
	GroupID: "sync",
	Short:   "Import the JSONL mirror into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := syncEngine.Import(cmd.Context())
		if err != nil {
			FatalOnError(err)
		}
		printOutput(result, func() {
			fmt.Printf("imported: +%d upserts(new) ~%d upserts(updated) %d skipped %d conflicts -%d deleted, deps +%d -%d ~%d skipped %d failed\n",
				result.Inserted, result.Updated, result.Skipped, result.Conflicts, result.Deleted,
				result.DepAdded, result.DepRemoved, result.DepSkipped, result.DepFailures)
		})
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show database/JSONL divergence",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := syncEngine.Status(cmd.Context())
		if err != nil {
			FatalOnError(err)
		}
		printOutput(st, func() {
			fmt.Printf("db: %d tasks, %d deps | jsonl: %d tasks, %d deps | dirty=%v\n",
				st.DBTaskCount, st.DBDependencyCount, st.JSONLTaskCount, st.JSONLDepCount, st.Dirty)
		})
		return nil
	},
}

var syncCompactCmd = &cobra.Command{
	Use:     "compact",
	GroupID: "sync",
	Short:   "Compact the JSONL mirror, dropping superseded tombstones",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncEngine.Compact(); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"status": "compacted"}, func() { fmt.Println("compacted") })
		return nil
	},
}

var syncWatchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "sync",
	Short:   "Watch the JSONL mirror and auto-import on local changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		jsonlPath := config.GetString("jsonl-path")
		w := reconcile.New(jsonlPath, logger, func(ctx context.Context) {
			st, err := syncEngine.Status(ctx)
			if err != nil {
				logger.Errorf("watch: status check failed: %v", err)
				return
			}
			if !st.Dirty {
				return
			}
			result, err := syncEngine.Import(ctx)
			if err != nil {
				logger.Errorf("watch: auto-import failed: %v", err)
				return
			}
			logger.Infof("watch: auto-imported +%d ~%d deps(+%d -%d)", result.Inserted, result.Updated, result.DepAdded, result.DepRemoved)
		})
		w.Start(ctx)
		defer w.Close()

		fmt.Println("watching for JSONL changes, press Ctrl-C to stop")
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncExportCmd, syncImportCmd, syncStatusCmd, syncCompactCmd, syncWatchCmd)
}
