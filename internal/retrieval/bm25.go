package retrieval

import (
	"context"
	"sort"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/storeerr"
)

// rankedHit pairs a learning ID with its best (lowest, i.e. most relevant)
// 1-indexed rank across one retrieval system.
type rankedHit struct {
	id   string
	rank int
}

// multiQueryBM25 runs one BM25 search per expanded query (spec.md §4.5 step
// 2) and merges the results into a single ranking keyed by learning id,
// keeping each learning's best rank across queries. This is the only
// mandatory stage: failure here aborts the whole pipeline.
func multiQueryBM25(ctx context.Context, q repo.Queryer, queries []string, limit int) ([]rankedHit, map[string]*learningRecord, error) {
	n := limit * 3
	if n <= 0 {
		n = 30
	}
	best := map[string]int{}
	records := map[string]*learningRecord{}
	for _, query := range queries {
		hits, err := repo.SearchLearningsBM25(ctx, q, query, n)
		if err != nil {
			return nil, nil, storeerr.RetrievalErr("bm25", err)
		}
		for i, h := range hits {
			rank := i + 1
			if cur, ok := best[h.Learning.ID]; !ok || rank < cur {
				best[h.Learning.ID] = rank
			}
			records[h.Learning.ID] = &learningRecord{learning: h.Learning}
		}
	}
	out := make([]rankedHit, 0, len(best))
	for id, rank := range best {
		out = append(out, rankedHit{id: id, rank: rank})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank < out[j].rank })
	return out, records, nil
}
