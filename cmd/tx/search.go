package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/retrieval"
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	GroupID: "knowledge",
	Short:   "Run the hybrid retrieval pipeline over learnings",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		graph, _ := cmd.Flags().GetBool("graph")
		rerank, _ := cmd.Flags().GetBool("rerank")
		mmr, _ := cmd.Flags().GetBool("mmr")

		opts := retrieval.Options{
			Limit:                limit,
			MinScore:             &minScore,
			EnableGraphExpansion: graph,
			EnableRerank:         rerank,
			EnableMMR:            mmr,
		}
		results, err := pipeline.Search(cmd.Context(), args[0], opts)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(results, func() {
			for i, r := range results {
				fmt.Printf("%2d. [%.3f] %s %s\n", i+1, r.Score, r.Learning.ID, truncate(r.Learning.Content, 100))
			}
		})
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func init() {
	searchCmd.Flags().Int("limit", retrieval.DefaultLimit, "max results")
	searchCmd.Flags().Float64("min-score", retrieval.DefaultMinScore, "score cutoff")
	searchCmd.Flags().Bool("graph", false, "enable graph expansion")
	searchCmd.Flags().Bool("rerank", false, "enable LLM rerank")
	searchCmd.Flags().Bool("mmr", false, "enable MMR diversification")
	rootCmd.AddCommand(searchCmd)
}
