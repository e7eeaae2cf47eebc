package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/ids"
	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/types"
)

var invariantSetCmd = &cobra.Command{
	Use:     "invariant-set <name> <description>",
	GroupID: "knowledge",
	Short:   "Create or replace a named invariant",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		now := time.Now()
		if id == "" {
			id = ids.Generate("inv", args[0], args[1], now, 0)
		}
		inv := &types.Invariant{ID: id, Name: args[0], Description: args[1], CreatedAt: now}
		if err := repo.UpsertInvariant(cmd.Context(), theStore.DB(), inv); err != nil {
			FatalOnError(err)
		}
		printOutput(inv, func() { fmt.Printf("saved invariant %s\n", inv.ID) })
		return nil
	},
}

var invariantGetCmd = &cobra.Command{
	Use:     "invariant-get <id>",
	GroupID: "knowledge",
	Short:   "Show an invariant",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := repo.GetInvariant(cmd.Context(), theStore.DB(), args[0])
		if err != nil {
			FatalOnError(err)
		}
		printOutput(inv, func() { fmt.Printf("%s: %s\n%s\n", inv.ID, inv.Name, inv.Description) })
		return nil
	},
}

var invariantListCmd = &cobra.Command{
	Use:     "invariant-list",
	GroupID: "knowledge",
	Short:   "List invariants",
	RunE: func(cmd *cobra.Command, args []string) error {
		invs, err := repo.ListInvariants(cmd.Context(), theStore.DB())
		if err != nil {
			FatalOnError(err)
		}
		printOutput(invs, func() {
			for _, inv := range invs {
				fmt.Printf("%s %s\n", inv.ID, inv.Name)
			}
		})
		return nil
	},
}

func init() {
	invariantSetCmd.Flags().String("id", "", "invariant id (default: derived from name+description)")
	rootCmd.AddCommand(invariantSetCmd, invariantGetCmd, invariantListCmd)
}
