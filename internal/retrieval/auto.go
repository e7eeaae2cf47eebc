package retrieval

import "context"

// AutoExpander probes Live's availability on every call and falls back to
// Noop, so a transient LLM outage degrades gracefully instead of failing
// the whole expansion stage.
type AutoExpander struct {
	Live Expander
	Noop Expander
}

func NewAutoExpander(live Expander) *AutoExpander {
	return &AutoExpander{Live: live, Noop: NoopExpander{}}
}

func (a *AutoExpander) IsAvailable(ctx context.Context) bool { return true } // Noop is always available

func (a *AutoExpander) Expand(ctx context.Context, q string) (Expansion, error) {
	if a.Live != nil && a.Live.IsAvailable(ctx) {
		exp, err := a.Live.Expand(ctx, q)
		if err == nil {
			return exp, nil
		}
	}
	return a.Noop.Expand(ctx, q)
}

// AutoEmbedder probes Live and falls back to Noop (vector stage skipped).
type AutoEmbedder struct {
	Live Embedder
	Noop Embedder
}

func NewAutoEmbedder(live Embedder) *AutoEmbedder {
	return &AutoEmbedder{Live: live, Noop: NoopEmbedder{}}
}

func (a *AutoEmbedder) IsAvailable(ctx context.Context) bool {
	return a.Live != nil && a.Live.IsAvailable(ctx)
}

func (a *AutoEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if a.Live != nil && a.Live.IsAvailable(ctx) {
		v, err := a.Live.Embed(ctx, text)
		if err == nil {
			return v, nil
		}
	}
	return a.Noop.Embed(ctx, text)
}

// AutoReranker probes Live and falls back to Noop (no rerank).
type AutoReranker struct {
	Live Reranker
	Noop Reranker
}

func NewAutoReranker(live Reranker) *AutoReranker {
	return &AutoReranker{Live: live, Noop: NoopReranker{}}
}

func (a *AutoReranker) IsAvailable(ctx context.Context) bool { return true }

func (a *AutoReranker) Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error) {
	if a.Live != nil && a.Live.IsAvailable(ctx) {
		res, err := a.Live.Rerank(ctx, query, candidates)
		if err == nil {
			return res, nil
		}
	}
	return a.Noop.Rerank(ctx, query, candidates)
}

// AutoGraphExpander probes Live and falls back to Noop (no expansion).
type AutoGraphExpander struct {
	Live GraphExpander
	Noop GraphExpander
}

func NewAutoGraphExpander(live GraphExpander) *AutoGraphExpander {
	return &AutoGraphExpander{Live: live, Noop: NoopGraphExpander{}}
}

func (a *AutoGraphExpander) IsAvailable(ctx context.Context) bool { return true }

func (a *AutoGraphExpander) Expand(ctx context.Context, seeds []string, opts GraphExpandOptions) ([]GraphNode, error) {
	if a.Live != nil && a.Live.IsAvailable(ctx) {
		nodes, err := a.Live.Expand(ctx, seeds, opts)
		if err == nil {
			return nodes, nil
		}
	}
	return a.Noop.Expand(ctx, seeds, opts)
}

// AutoFeedbackTracker probes Live and falls back to the neutral default.
type AutoFeedbackTracker struct {
	Live FeedbackTracker
	Noop FeedbackTracker
}

func NewAutoFeedbackTracker(live FeedbackTracker) *AutoFeedbackTracker {
	return &AutoFeedbackTracker{Live: live, Noop: NoopFeedbackTracker{}}
}

func (a *AutoFeedbackTracker) IsAvailable(ctx context.Context) bool { return true }

func (a *AutoFeedbackTracker) Score(ctx context.Context, learningID string) (float64, error) {
	if a.Live != nil && a.Live.IsAvailable(ctx) {
		score, err := a.Live.Score(ctx, learningID)
		if err == nil {
			return score, nil
		}
	}
	return a.Noop.Score(ctx, learningID)
}
