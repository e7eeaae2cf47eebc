package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/types"
)

var taskCreateCmd = &cobra.Command{
	Use:     "create <title>",
	GroupID: "tasks",
	Short:   "Create a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		score, _ := cmd.Flags().GetFloat64("score")
		parentID, _ := cmd.Flags().GetString("parent")
		metadata, _ := cmd.Flags().GetString("metadata")

		input := types.CreateTaskInput{Title: args[0], Description: desc, Score: score, Metadata: metadata}
		if parentID != "" {
			input.ParentID = &parentID
		}
		t, err := taskSvc.Create(cmd.Context(), input)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(t, func() { fmt.Printf("created %s: %s\n", t.ID, t.Title) })
		return nil
	},
}

var taskGetCmd = &cobra.Command{
	Use:     "get <id>",
	GroupID: "tasks",
	Short:   "Show a task and its derived relations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := taskSvc.GetWithDeps(cmd.Context(), args[0])
		if err != nil {
			FatalOnError(err)
		}
		printOutput(t, func() {
			fmt.Printf("%s [%s] %s\n", t.ID, t.Status, t.Title)
			if t.Description != "" {
				fmt.Println(t.Description)
			}
			fmt.Printf("ready=%v blockedBy=%v blocks=%v children=%v\n", t.IsReady, t.BlockedBy, t.Blocks, t.Children)
		})
		return nil
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:     "update <id>",
	GroupID: "tasks",
	Short:   "Update a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var input types.UpdateTaskInput
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			input.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			input.Description = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			status := types.Status(v)
			input.Status = &status
		}
		if cmd.Flags().Changed("score") {
			v, _ := cmd.Flags().GetFloat64("score")
			input.Score = &v
		}
		if cmd.Flags().Changed("parent") {
			v, _ := cmd.Flags().GetString("parent")
			var pp *string
			if v != "" {
				pp = &v
			}
			input.ParentID = &pp
		}
		t, err := taskSvc.Update(cmd.Context(), args[0], input)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(t, func() { fmt.Printf("updated %s\n", t.ID) })
		return nil
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	GroupID: "tasks",
	Short:   "Remove a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cascade, _ := cmd.Flags().GetBool("cascade")
		if err := taskSvc.Remove(cmd.Context(), args[0], cascade); err != nil {
			FatalOnError(err)
		}
		if err := syncEngine.AppendDelete(cmd.Context(), args[0]); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"removed": args[0]}, func() { fmt.Printf("removed %s\n", args[0]) })
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	GroupID: "tasks",
	Short:   "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFlags, _ := cmd.Flags().GetStringSlice("status")
		parentID, _ := cmd.Flags().GetString("parent")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := types.TaskFilter{Limit: limit}
		for _, s := range statusFlags {
			filter.Statuses = append(filter.Statuses, types.Status(s))
		}
		if parentID != "" {
			filter.ParentID = &parentID
		}

		tasks, err := taskSvc.ListWithDeps(cmd.Context(), filter)
		if err != nil {
			FatalOnError(err)
		}
		printOutput(tasks, func() {
			for _, t := range tasks {
				fmt.Printf("%s [%s] %s\n", t.ID, t.Status, t.Title)
			}
		})
		return nil
	},
}

var taskDepAddCmd = &cobra.Command{
	Use:     "dep-add <blocker-id> <blocked-id>",
	GroupID: "tasks",
	Short:   "Add a blocker -> blocked dependency",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := taskSvc.AddDependency(cmd.Context(), args[0], args[1]); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"blocker": args[0], "blocked": args[1]}, func() {
			fmt.Printf("%s now blocks %s\n", args[0], args[1])
		})
		return nil
	},
}

var taskDepRemoveCmd = &cobra.Command{
	Use:     "dep-remove <blocker-id> <blocked-id>",
	GroupID: "tasks",
	Short:   "Remove a blocker -> blocked dependency",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := taskSvc.RemoveDependency(cmd.Context(), args[0], args[1]); err != nil {
			FatalOnError(err)
		}
		if err := syncEngine.AppendDepRemove(cmd.Context(), args[0], args[1]); err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]string{"blocker": args[0], "blocked": args[1]}, func() {
			fmt.Printf("%s no longer blocks %s\n", args[0], args[1])
		})
		return nil
	},
}

func init() {
	taskCreateCmd.Flags().String("description", "", "task description")
	taskCreateCmd.Flags().Float64("score", 0, "priority score")
	taskCreateCmd.Flags().String("parent", "", "parent task id")
	taskCreateCmd.Flags().String("metadata", "", "opaque JSON metadata")

	taskUpdateCmd.Flags().String("title", "", "new title")
	taskUpdateCmd.Flags().String("description", "", "new description")
	taskUpdateCmd.Flags().String("status", "", "new status (backlog|ready|planning|active|done)")
	taskUpdateCmd.Flags().Float64("score", 0, "new priority score")
	taskUpdateCmd.Flags().String("parent", "", "new parent task id (empty clears it)")

	taskRemoveCmd.Flags().Bool("cascade", false, "remove descendants too")

	taskListCmd.Flags().StringSlice("status", nil, "filter by status (repeatable)")
	taskListCmd.Flags().String("parent", "", "filter by parent task id")
	taskListCmd.Flags().Int("limit", 0, "max results (0 = unbounded)")

	rootCmd.AddCommand(taskCreateCmd, taskGetCmd, taskUpdateCmd, taskRemoveCmd, taskListCmd, taskDepAddCmd, taskDepRemoveCmd)
}
