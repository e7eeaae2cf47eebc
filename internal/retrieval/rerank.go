package retrieval

import "context"

// DefaultRerankWeight is the blend weight w in the final-score formula
// (spec.md §4.5 step 7).
const DefaultRerankWeight = 0.3

// applyRerank re-scores the top candidates and blends the reranker's score
// into the existing relevance score. A nil/unavailable reranker, or any
// error from it, degrades silently to the pre-rerank ranking — per spec,
// reranker failure never propagates.
func applyRerank(ctx context.Context, reranker Reranker, query string, candidates []RerankCandidate, existing map[string]float64, weight float64) map[string]float64 {
	if reranker == nil || !reranker.IsAvailable(ctx) || len(candidates) == 0 {
		return existing
	}
	results, err := reranker.Rerank(ctx, query, candidates)
	if err != nil || results == nil {
		return existing
	}
	blended := make(map[string]float64, len(existing))
	for id, score := range existing {
		blended[id] = score
	}
	for _, r := range results {
		prior, ok := blended[r.ID]
		if !ok {
			continue
		}
		blended[r.ID] = (1-weight)*prior + weight*r.Score
	}
	return blended
}
