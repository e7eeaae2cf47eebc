package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/ids"
	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

var learningAddCmd = &cobra.Command{
	Use:     "learning-add <content>",
	GroupID: "knowledge",
	Short:   "Add a learning directly to the retrieval store",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		now := time.Now()
		l := &types.Learning{
			ID:        ids.Generate("lrn", args[0], "", now, 0),
			Content:   args[0],
			CreatedAt: now,
			Category:  category,
		}
		if err := repo.InsertLearning(cmd.Context(), theStore.DB(), l); err != nil {
			FatalOnError(err)
		}
		printOutput(l, func() { fmt.Printf("added learning %s\n", l.ID) })
		return nil
	},
}

var candidateAddCmd = &cobra.Command{
	Use:     "candidate-add <content>",
	GroupID: "knowledge",
	Short:   "Propose a candidate learning pending promotion",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confidence, _ := cmd.Flags().GetString("confidence")
		now := time.Now()
		c := &types.Candidate{
			ID:         ids.Generate("cnd", args[0], "", now, 0),
			Content:    args[0],
			Confidence: types.Confidence(confidence),
			Status:     types.CandidatePending,
			CreatedAt:  now,
		}
		if err := repo.InsertCandidate(cmd.Context(), theStore.DB(), c); err != nil {
			FatalOnError(err)
		}
		printOutput(c, func() { fmt.Printf("proposed candidate %s\n", c.ID) })
		return nil
	},
}

var candidatePromoteCmd = &cobra.Command{
	Use:     "candidate-promote <id>",
	GroupID: "knowledge",
	Short:   "Promote a candidate into a durable learning",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		var created *types.Learning
		err := theStore.WithTx(cmd.Context(), func(tx *store.Tx) error {
			c, err := repo.GetCandidate(cmd.Context(), tx, args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			l := &types.Learning{
				ID:        ids.Generate("lrn", c.Content, args[0], now, 0),
				Content:   c.Content,
				CreatedAt: now,
				Category:  category,
			}
			if err := repo.InsertLearning(cmd.Context(), tx, l); err != nil {
				return err
			}
			if err := repo.UpdateCandidateStatus(cmd.Context(), tx, args[0], types.CandidatePromoted); err != nil {
				return err
			}
			created = l
			return nil
		})
		if err != nil {
			FatalOnError(err)
		}
		printOutput(created, func() { fmt.Printf("promoted %s -> learning %s\n", args[0], created.ID) })
		return nil
	},
}

var candidateRejectCmd = &cobra.Command{
	Use:     "candidate-reject <id>",
	GroupID: "knowledge",
	Short:   "Reject a candidate learning",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := repo.UpdateCandidateStatus(cmd.Context(), theStore.DB(), args[0], types.CandidateRejected); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"rejected": args[0]}, func() { fmt.Printf("rejected %s\n", args[0]) })
		return nil
	},
}

var candidateListCmd = &cobra.Command{
	Use:     "candidate-list",
	GroupID: "knowledge",
	Short:   "List candidates by status (default: pending)",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		if status == "" {
			status = string(types.CandidatePending)
		}
		cands, err := repo.ListCandidatesByStatus(cmd.Context(), theStore.DB(), types.CandidateStatus(status))
		if err != nil {
			FatalOnError(err)
		}
		printOutput(cands, func() {
			for _, c := range cands {
				fmt.Printf("%s [%s] %s\n", c.ID, c.Confidence, truncate(c.Content, 80))
			}
		})
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:     "feedback <learning-id> <up|down>",
	GroupID: "knowledge",
	Short:   "Record thumbs up/down feedback on a learning",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var vote float64
		switch args[1] {
		case "up":
			vote = 1
		case "down":
			vote = 0
		default:
			FatalErrorRespectJSON("vote must be 'up' or 'down', got %q", args[1])
		}
		if err := feedbackSvc.Live.Record(cmd.Context(), args[0], vote); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"learning": args[0], "vote": args[1]}, func() {
			fmt.Printf("recorded %s feedback on %s\n", args[1], args[0])
		})
		return nil
	},
}

var edgeAddCmd = &cobra.Command{
	Use:     "edge-add <from-type> <from-id> <to-type> <to-id> <edge-type>",
	GroupID: "knowledge",
	Short:   "Add a typed edge between two nodes",
	Args:    cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		weight, _ := cmd.Flags().GetFloat64("weight")
		e := &types.Edge{
			FromType:  types.NodeType(args[0]),
			FromID:    args[1],
			ToType:    types.NodeType(args[2]),
			ToID:      args[3],
			Type:      types.EdgeType(args[4]),
			Weight:    weight,
			CreatedAt: time.Now(),
		}
		id, err := repo.InsertEdge(cmd.Context(), theStore.DB(), e)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]int64{"id": id}, func() { fmt.Printf("added edge %d\n", id) })
		return nil
	},
}

func init() {
	learningAddCmd.Flags().String("category", "", "learning category")
	candidateAddCmd.Flags().String("confidence", string(types.ConfidenceMedium), "confidence (low|medium|high)")
	candidatePromoteCmd.Flags().String("category", "", "category for the promoted learning")
	candidateListCmd.Flags().String("status", "", "filter by status (pending|promoted|rejected)")
	edgeAddCmd.Flags().Float64("weight", 1.0, "edge weight")

	rootCmd.AddCommand(learningAddCmd, candidateAddCmd, candidatePromoteCmd, candidateRejectCmd, candidateListCmd, feedbackCmd, edgeAddCmd)
}
