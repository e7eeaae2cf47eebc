package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jamesaphoenix/tx/internal/docrender"
	"github.com/jamesaphoenix/tx/internal/ids"
	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/types"
)

var docSetCmd = &cobra.Command{
	Use:     "doc-set <title> <body>",
	GroupID: "knowledge",
	Short:   "Create or replace a document",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		now := time.Now()
		if id == "" {
			id = ids.Generate("doc", args[0], args[1], now, 0)
		}
		d := &types.Doc{ID: id, Title: args[0], Body: args[1], CreatedAt: now, UpdatedAt: now}
		if err := repo.UpsertDoc(cmd.Context(), theStore.DB(), d); err != nil {
			FatalOnError(err)
		}
		printOutput(d, func() { fmt.Printf("saved doc %s\n", d.ID) })
		return nil
	},
}

var docShowCmd = &cobra.Command{
	Use:     "doc-show <id>",
	GroupID: "knowledge",
	Short:   "Render a document's markdown body",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := repo.GetDoc(cmd.Context(), theStore.DB(), args[0])
		if err != nil {
			FatalOnError(err)
		}
		if jsonOutput {
			printOutput(d, func() {})
			return nil
		}
		var rendered string
		if term.IsTerminal(int(os.Stdout.Fd())) {
			rendered, err = docrender.Render(d.Body, 100)
		} else {
			rendered, err = docrender.RenderPlain(d.Body, 0)
		}
		if err != nil {
			FatalOnError(err)
		}
		fmt.Print(rendered)
		return nil
	},
}

var docListCmd = &cobra.Command{
	Use:     "doc-list",
	GroupID: "knowledge",
	Short:   "List documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := repo.ListDocs(cmd.Context(), theStore.DB())
		if err != nil {
			FatalOnError(err)
		}
		printOutput(docs, func() {
			for _, d := range docs {
				fmt.Printf("%s %s\n", d.ID, d.Title)
			}
		})
		return nil
	},
}

var docRemoveCmd = &cobra.Command{
	Use:     "doc-remove <id>",
	GroupID: "knowledge",
	Short:   "Delete a document",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := repo.DeleteDoc(cmd.Context(), theStore.DB(), args[0]); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"removed": args[0]}, func() { fmt.Printf("removed doc %s\n", args[0]) })
		return nil
	},
}

func init() {
	docSetCmd.Flags().String("id", "", "document id (default: derived from title+body)")
	rootCmd.AddCommand(docSetCmd, docShowCmd, docListCmd, docRemoveCmd)
}
