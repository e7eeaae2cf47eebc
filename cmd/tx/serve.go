package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "tasks",
	Short:   "Serve the read-only HTTP API (spec.md §6)",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		logger.Infof("http api listening on %s", addr)
		return http.ListenAndServe(addr, httpapi.NewHandler(taskSvc))
	},
}

func init() {
	serveCmd.Flags().String("addr", "localhost:8080", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}
