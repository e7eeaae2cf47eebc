package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/hookinstall"
)

var installHooksCmd = &cobra.Command{
	Use:     "install-hooks",
	GroupID: "tasks",
	Short:   "Install the post-commit file-count/high-value-file hook (spec.md §6)",
	RunE: func(cmd *cobra.Command, args []string) error {
		gitDir, err := resolveGitDir()
		if err != nil {
			FatalOnError(err)
		}

		threshold, _ := cmd.Flags().GetInt("file-threshold")
		highValue, _ := cmd.Flags().GetStringSlice("high-value")
		force, _ := cmd.Flags().GetBool("force")

		cfg := hookinstall.Config{FileThreshold: threshold, HighValueFiles: highValue}
		if err := hookinstall.WriteConfig(".", cfg); err != nil {
			FatalOnError(err)
		}
		if err := hookinstall.Install(gitDir, cfg, force); err != nil {
			FatalOnError(err)
		}
		printOutput(cfg, func() { fmt.Println("installed post-commit hook and wrote .txrc.json") })
		return nil
	},
}

var hooksStatusCmd = &cobra.Command{
	Use:     "hooks-status",
	GroupID: "tasks",
	Short:   "Report whether the tx post-commit hook is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		gitDir, err := resolveGitDir()
		if err != nil {
			FatalOnError(err)
		}
		installed := hookinstall.IsInstalled(gitDir)
		cfg, err := hookinstall.ReadConfig(".")
		if err != nil {
			FatalOnError(err)
		}
		printOutput(map[string]interface{}{"installed": installed, "config": cfg}, func() {
			fmt.Printf("installed=%v fileThreshold=%d highValueFiles=%v\n", installed, cfg.FileThreshold, cfg.HighValueFiles)
		})
		return nil
	},
}

// resolveGitDir shells out to git the same way cmd/bd's doctor and
// sync_git helpers do, rather than assuming ".git" (worktrees and
// submodules point elsewhere).
func resolveGitDir() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (or git not installed): %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func init() {
	installHooksCmd.Flags().Int("file-threshold", hookinstall.DefaultFileThreshold, "warn when a commit touches more than this many files")
	installHooksCmd.Flags().StringSlice("high-value", nil, "glob patterns that always warn when touched")
	installHooksCmd.Flags().Bool("force", false, "overwrite an existing non-tx post-commit hook")
	rootCmd.AddCommand(installHooksCmd, hooksStatusCmd)
}
