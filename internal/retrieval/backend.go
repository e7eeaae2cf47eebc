// Package retrieval implements the hybrid search pipeline of spec.md
// §4.5: query expansion, multi-query BM25, vector similarity, RRF fusion,
// boost scoring, graph expansion, LLM rerank, and MMR diversification,
// each optional stage degrading gracefully. Grounded on the teacher's
// internal/queries/search.go scoring/ranking style and internal/extractor
// + internal/compact for the Live/Noop/Auto backend pattern (spec.md §9).
package retrieval

import "context"

// Expander turns one query into a small set of related queries.
type Expander interface {
	IsAvailable(ctx context.Context) bool
	Expand(ctx context.Context, query string) (Expansion, error)
}

// Expansion is the result of query expansion.
type Expansion struct {
	Original    string
	Expanded    []string
	WasExpanded bool
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	IsAvailable(ctx context.Context) bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker re-scores a shortlist of candidates against the query.
type Reranker interface {
	IsAvailable(ctx context.Context) bool
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)
}

// RerankCandidate is one item offered to the reranker.
type RerankCandidate struct {
	ID   string
	Text string
}

// RerankResult is the reranker's score for one candidate, in [0,1].
type RerankResult struct {
	ID    string
	Score float64
}

// GraphExpander walks the edges table to find nodes related to a seed set.
type GraphExpander interface {
	IsAvailable(ctx context.Context) bool
	Expand(ctx context.Context, seeds []string, opts GraphExpandOptions) ([]GraphNode, error)
}

// GraphExpandOptions parameterizes one graph-expansion call.
type GraphExpandOptions struct {
	Depth        int
	DecayFactor  float64
	MaxNodes     int
	EdgeTypes    []string
}

// GraphNode is one node reached during graph expansion.
type GraphNode struct {
	LearningID   string
	Hops         int
	DecayedScore float64
	Path         []string
	SourceEdge   string
}

// FeedbackTracker supplies a per-learning feedback score in [0,1].
type FeedbackTracker interface {
	IsAvailable(ctx context.Context) bool
	Score(ctx context.Context, learningID string) (float64, error)
}

// NeutralFeedbackScore is the spec's default when no feedback is recorded.
const NeutralFeedbackScore = 0.5
