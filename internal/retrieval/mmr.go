package retrieval

import (
	"math"
	"strings"
)

// DefaultMMRLambda trades relevance against diversity (spec.md §4.5 step 8);
// 1.0 is pure relevance, 0.0 is pure diversity.
const DefaultMMRLambda = 0.7

// mmrDiversify greedily re-orders candidates by Maximal Marginal Relevance:
// at each step it picks the item maximizing
// λ·relevance - (1-λ)·max-similarity-to-already-picked, using a cheap
// token-overlap similarity over learning content since no embedding is
// guaranteed to be present for every candidate.
func mmrDiversify(candidates []Result, lambda float64) []Result {
	if len(candidates) <= 1 {
		return candidates
	}
	remaining := append([]Result(nil), candidates...)
	picked := make([]Result, 0, len(candidates))

	for len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			for _, p := range picked {
				sim := tokenOverlap(cand.Learning.Content, p.Learning.Content)
				if sim > maxSim {
					maxSim = sim
				}
			}
			mmrScore := lambda*cand.Score - (1-lambda)*maxSim
			if mmrScore > bestScore {
				bestScore = mmrScore
				bestIdx = i
			}
		}
		picked = append(picked, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return picked
}

func tokenOverlap(a, b string) float64 {
	aTokens := tokenSet(a)
	bTokens := tokenSet(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	shared := 0
	for t := range aTokens {
		if bTokens[t] {
			shared++
		}
	}
	union := len(aTokens) + len(bTokens) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.Fields(strings.ToLower(s)) {
		out[f] = true
	}
	return out
}
