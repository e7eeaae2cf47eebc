package retrieval

import "context"

// NoopExpander never expands; Expand returns the degraded result spec.md
// §4.5 step 1 names for an unavailable expansion service.
type NoopExpander struct{}

func (NoopExpander) IsAvailable(context.Context) bool { return false }
func (NoopExpander) Expand(_ context.Context, q string) (Expansion, error) {
	return Expansion{Original: q, Expanded: []string{q}, WasExpanded: false}, nil
}

// NoopEmbedder never embeds; the vector stage skips itself when Embed
// reports unavailability.
type NoopEmbedder struct{}

func (NoopEmbedder) IsAvailable(context.Context) bool { return false }
func (NoopEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, nil
}

// NoopReranker never reranks; the pipeline keeps the pre-rerank ranking.
type NoopReranker struct{}

func (NoopReranker) IsAvailable(context.Context) bool { return false }
func (NoopReranker) Rerank(context.Context, string, []RerankCandidate) ([]RerankResult, error) {
	return nil, nil
}

// NoopGraphExpander never expands the graph.
type NoopGraphExpander struct{}

func (NoopGraphExpander) IsAvailable(context.Context) bool { return false }
func (NoopGraphExpander) Expand(context.Context, []string, GraphExpandOptions) ([]GraphNode, error) {
	return nil, nil
}

// NoopFeedbackTracker always returns the neutral default score.
type NoopFeedbackTracker struct{}

func (NoopFeedbackTracker) IsAvailable(context.Context) bool { return false }
func (NoopFeedbackTracker) Score(context.Context, string) (float64, error) {
	return NeutralFeedbackScore, nil
}
