package retrieval

// rrfK is the Reciprocal Rank Fusion smoothing constant (spec.md §4.5 step 4).
const rrfK = 60

// fuseRRF merges any number of per-system rankings into one RRF score per
// learning id. An absent rank in a given system contributes 0, per spec.
func fuseRRF(rankings ...[]rankedHit) map[string]float64 {
	fused := map[string]float64{}
	for _, ranking := range rankings {
		for _, hit := range ranking {
			fused[hit.id] += 1.0 / float64(rrfK+hit.rank)
		}
	}
	return fused
}

// rankOf looks up a learning's rank within one ranking, returning 0 if
// absent (the spec's convention for "not present in this system").
func rankOf(ranking []rankedHit, id string) int {
	for _, h := range ranking {
		if h.id == id {
			return h.rank
		}
	}
	return 0
}
