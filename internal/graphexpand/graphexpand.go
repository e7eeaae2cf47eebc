// Package graphexpand implements the retrieval pipeline's optional
// graph-expansion stage (spec.md §4.5 step 6) by walking the edges table
// outward from a seed set of learnings. Grounded on the teacher's
// internal/queries/graph.go recursive entity-graph walk, adapted from a
// single-table recursive CTE to a BFS over the heterogeneous
// learning/file/task/run/doc node types edges connects (spec.md §3).
package graphexpand

import (
	"context"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

// GraphExpandOptions mirrors internal/retrieval.GraphExpandOptions without
// importing that package, avoiding a dependency cycle.
type GraphExpandOptions struct {
	Depth       int
	DecayFactor float64
	MaxNodes    int
	EdgeTypes   []string
}

// GraphNode mirrors internal/retrieval.GraphNode.
type GraphNode struct {
	LearningID   string
	Hops         int
	DecayedScore float64
	Path         []string
	SourceEdge   string
}

// Live walks the edges table outward from a seed set of learning IDs.
type Live struct {
	store *store.Store
}

func NewLive(s *store.Store) *Live { return &Live{store: s} }

func (l *Live) IsAvailable(ctx context.Context) bool { return l != nil && l.store != nil }

// Expand performs a breadth-first walk from seeds up to opts.Depth hops,
// decaying each hop's score by opts.DecayFactor and stopping once
// opts.MaxNodes distinct learnings have been collected.
func (l *Live) Expand(ctx context.Context, seeds []string, opts GraphExpandOptions) ([]GraphNode, error) {
	depth := opts.Depth
	if depth <= 0 {
		depth = 2
	}
	decay := opts.DecayFactor
	if decay <= 0 {
		decay = 0.5
	}
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 20
	}

	var typeFilter *types.EdgeType
	if len(opts.EdgeTypes) == 1 {
		t := types.EdgeType(opts.EdgeTypes[0])
		typeFilter = &t
	}

	db := l.store.DB()
	visited := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		visited[s] = true
	}

	type frontierEntry struct {
		id       string
		nodeType types.NodeType
		path     []string
		score    float64
	}
	frontier := make([]frontierEntry, 0, len(seeds))
	for _, s := range seeds {
		frontier = append(frontier, frontierEntry{id: s, nodeType: types.NodeLearning, path: []string{s}, score: 1.0})
	}

	var out []GraphNode
	for hop := 1; hop <= depth && len(out) < maxNodes; hop++ {
		var next []frontierEntry
		for _, f := range frontier {
			if len(out) >= maxNodes {
				break
			}
			edges, err := edgesForHop(ctx, db, f.nodeType, f.id, typeFilter, opts.EdgeTypes)
			if err != nil {
				return out, err
			}
			for _, e := range edges {
				var neighborID string
				var neighborType types.NodeType
				if e.FromType == f.nodeType && e.FromID == f.id {
					neighborID, neighborType = e.ToID, e.ToType
				} else {
					neighborID, neighborType = e.FromID, e.FromType
				}
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true
				decayed := f.score * decay
				path := append(append([]string(nil), f.path...), neighborID)

				// Non-learning nodes (files, tasks, docs, runs) are bridges:
				// they extend the walk but are never returned as candidates.
				if neighborType == types.NodeLearning {
					out = append(out, GraphNode{
						LearningID:   neighborID,
						Hops:         hop,
						DecayedScore: decayed,
						Path:         path,
						SourceEdge:   string(e.Type),
					})
				}
				next = append(next, frontierEntry{id: neighborID, nodeType: neighborType, path: path, score: decayed})
				if len(out) >= maxNodes {
					break
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return out, nil
}

// edgesForHop fetches every live edge touching node (nodeType, id) in either
// direction, applying an edge-type filter when exactly one type was
// requested (the common case); a multi-type filter is applied in Go after
// the fetch.
func edgesForHop(ctx context.Context, db repo.Queryer, nodeType types.NodeType, id string, typeFilter *types.EdgeType, edgeTypes []string) ([]*types.Edge, error) {
	allow := map[string]bool{}
	for _, t := range edgeTypes {
		allow[t] = true
	}

	from, err := repo.EdgesFrom(ctx, db, nodeType, id, typeFilter)
	if err != nil {
		return nil, err
	}
	to, err := repo.EdgesTo(ctx, db, nodeType, id)
	if err != nil {
		return nil, err
	}
	out := append(from, to...)

	if len(allow) == 0 {
		return out, nil
	}
	filtered := out[:0]
	for _, e := range out {
		if allow[string(e.Type)] {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
