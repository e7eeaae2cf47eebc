// Command tx is the CLI front end for the local task/knowledge engine.
// Grounded on cmd/bd's subcommand-per-file layout: one file per verb group,
// each declaring its own *cobra.Command and registering itself onto rootCmd
// from an init() func.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
