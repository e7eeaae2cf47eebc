package retrieval

import (
	"context"

	"github.com/jamesaphoenix/tx/internal/llm"
)

// LLMExpander adapts internal/llm.Expander to the Expander interface,
// translating between the two packages' near-identical Expansion structs
// (kept separate so internal/llm has no dependency on internal/retrieval).
type LLMExpander struct {
	inner *llm.Expander
}

func NewLLMExpander(inner *llm.Expander) *LLMExpander { return &LLMExpander{inner: inner} }

func (a *LLMExpander) IsAvailable(ctx context.Context) bool { return a.inner.IsAvailable(ctx) }

func (a *LLMExpander) Expand(ctx context.Context, query string) (Expansion, error) {
	e, err := a.inner.Expand(ctx, query)
	if err != nil {
		return Expansion{}, err
	}
	return Expansion{Original: e.Original, Expanded: e.Expanded, WasExpanded: e.WasExpanded}, nil
}

// LLMReranker adapts internal/llm.Reranker to the Reranker interface.
type LLMReranker struct {
	inner *llm.Reranker
}

func NewLLMReranker(inner *llm.Reranker) *LLMReranker { return &LLMReranker{inner: inner} }

func (a *LLMReranker) IsAvailable(ctx context.Context) bool { return a.inner.IsAvailable(ctx) }

func (a *LLMReranker) Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error) {
	in := make([]llm.RerankCandidate, len(candidates))
	for i, c := range candidates {
		in[i] = llm.RerankCandidate{ID: c.ID, Text: c.Text}
	}
	out, err := a.inner.Rerank(ctx, query, in)
	if err != nil {
		return nil, err
	}
	results := make([]RerankResult, len(out))
	for i, r := range out {
		results[i] = RerankResult{ID: r.ID, Score: r.Score}
	}
	return results, nil
}
