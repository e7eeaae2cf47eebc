package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/claimservice"
	"github.com/jamesaphoenix/tx/internal/config"
	"github.com/jamesaphoenix/tx/internal/embedding"
	"github.com/jamesaphoenix/tx/internal/feedback"
	"github.com/jamesaphoenix/tx/internal/graphexpand"
	"github.com/jamesaphoenix/tx/internal/heartbeat"
	"github.com/jamesaphoenix/tx/internal/llm"
	"github.com/jamesaphoenix/tx/internal/logging"
	"github.com/jamesaphoenix/tx/internal/reaper"
	"github.com/jamesaphoenix/tx/internal/retrieval"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/syncengine"
	"github.com/jamesaphoenix/tx/internal/taskservice"
	"github.com/jamesaphoenix/tx/internal/workerservice"
)

var rootCmd = &cobra.Command{
	Use:           "tx",
	Short:         "Local task and knowledge engine",
	Long:          `tx tracks hierarchical tasks, lease-based claims, and a retrieval-backed learnings store in a single SQLite file, mirrored to a git-friendly JSONL file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" ||
			(cmd.Parent() != nil && cmd.Parent().Name() == "completion") {
			return nil
		}
		return initGlobals(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeGlobals()
	},
}

// jsonOutput mirrors cmd/bd's package-level flag-backed var, toggled by
// --json on every subcommand.
var jsonOutput bool

var (
	dbPath   string
	theStore *store.Store

	taskSvc      *taskservice.Service
	claimSvc     *claimservice.Service
	workerSvc    *workerservice.Service
	heartbeatSvc *heartbeat.Service
	reaperSvc    *reaper.Reaper
	syncEngine   *syncengine.Engine
	pipeline     *retrieval.Pipeline
	feedbackSvc  *feedback.Auto
	logger       *logging.Logger
)

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Task commands:"},
		&cobra.Group{ID: "claims", Title: "Claim commands:"},
		&cobra.Group{ID: "workers", Title: "Worker commands:"},
		&cobra.Group{ID: "runs", Title: "Run commands:"},
		&cobra.Group{ID: "sync", Title: "Sync commands:"},
		&cobra.Group{ID: "knowledge", Title: "Knowledge commands:"},
	)

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (default: .tx/tx.db)")
}

// initGlobals wires the database handle and every service from
// internal/config. It runs once per process invocation, before the chosen
// subcommand's RunE.
func initGlobals(cmd *cobra.Command) error {
	if err := config.Initialize(); err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = config.GetString("db")
	}
	if dbPath == "" {
		dbPath = ".tx/tx.db"
	}
	if dir := dbDir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	theStore = s

	logger = logging.New(".tx/tx.log", config.GetBool("debug"))

	taskSvc = taskservice.New(s)
	claimSvc = claimservice.New(s)
	workerSvc = workerservice.New(s, claimSvc)
	heartbeatSvc = heartbeat.New(s)
	reaperSvc = reaper.New(s, reaperStaleAfter(), logger)

	jsonlPath := config.GetString("jsonl-path")
	syncEngine = syncengine.New(s, jsonlPath, logger)

	feedbackSvc = feedback.NewAuto(feedback.NewLive(s))

	expander := retrieval.NewAutoExpander(llmExpander())
	embedder := retrieval.NewAutoEmbedder(ollamaEmbedder())
	reranker := retrieval.NewAutoReranker(llmReranker())
	graph := retrieval.NewAutoGraphExpander(retrieval.NewGraphExpanderAdapter(graphexpand.NewLive(s)))
	pipeline = retrieval.NewPipeline(s, expander, embedder, reranker, graph, feedbackSvc)

	return nil
}

func closeGlobals() {
	if theStore != nil {
		_ = theStore.Close()
	}
}

// llmExpander/llmReranker/ollamaEmbedder return a nil interface (not a
// typed-nil concrete pointer) when the backing client can't be constructed,
// so AutoExpander/AutoReranker/AutoEmbedder's "Live != nil" probe actually
// falls through to Noop instead of calling a method on a nil receiver.

func llmExpander() retrieval.Expander {
	c, err := llm.New(config.GetString("anthropic-api-key"))
	if err != nil {
		return nil
	}
	return retrieval.NewLLMExpander(llm.NewExpander(c))
}

func llmReranker() retrieval.Reranker {
	c, err := llm.New(config.GetString("anthropic-api-key"))
	if err != nil {
		return nil
	}
	return retrieval.NewLLMReranker(llm.NewReranker(c))
}

func ollamaEmbedder() retrieval.Embedder {
	c, err := embedding.New(config.GetString("ollama-model"))
	if err != nil {
		return nil
	}
	return c
}

func Execute() error {
	return rootCmd.Execute()
}
