package store

import migpkg "github.com/jamesaphoenix/tx/internal/store/migrations"

// migrations is the ordered registry of every schema change, run by
// applyMigrations in strictly increasing version order. Grounded on the
// teacher's internal/storage/sqlite/migrations.go migrationsList.
var migrations = []Migration{
	{Version: 1, Description: "core task graph: tasks, task_dependencies", Func: migpkg.CoreSchema},
	{Version: 2, Description: "claims and workers", Func: migpkg.ClaimsAndWorkers},
	{Version: 3, Description: "learnings, candidates, and edges", Func: migpkg.LearningsAndEdges},
	{Version: 4, Description: "docs and invariants", Func: migpkg.DocsAndInvariants},
	{Version: 5, Description: "sync and orchestrator config", Func: migpkg.SyncAndOrchestratorConfig},
	{Version: 6, Description: "runs and heartbeat state", Func: migpkg.RunsAndHeartbeat},
	{Version: 7, Description: "learning feedback", Func: migpkg.Feedback},
}
