package retrieval

import (
	"context"

	"github.com/jamesaphoenix/tx/internal/graphexpand"
)

// GraphExpanderAdapter adapts internal/graphexpand.Live to the
// GraphExpander interface, translating between the two packages' identical
// option/node shapes (kept separate so internal/graphexpand has no
// dependency on internal/retrieval).
type GraphExpanderAdapter struct {
	inner *graphexpand.Live
}

func NewGraphExpanderAdapter(inner *graphexpand.Live) *GraphExpanderAdapter {
	return &GraphExpanderAdapter{inner: inner}
}

func (a *GraphExpanderAdapter) IsAvailable(ctx context.Context) bool { return a.inner.IsAvailable(ctx) }

func (a *GraphExpanderAdapter) Expand(ctx context.Context, seeds []string, opts GraphExpandOptions) ([]GraphNode, error) {
	nodes, err := a.inner.Expand(ctx, seeds, graphexpand.GraphExpandOptions{
		Depth: opts.Depth, DecayFactor: opts.DecayFactor, MaxNodes: opts.MaxNodes, EdgeTypes: opts.EdgeTypes,
	})
	if err != nil {
		return nil, err
	}
	out := make([]GraphNode, len(nodes))
	for i, n := range nodes {
		out[i] = GraphNode{LearningID: n.LearningID, Hops: n.Hops, DecayedScore: n.DecayedScore, Path: n.Path, SourceEdge: n.SourceEdge}
	}
	return out, nil
}
