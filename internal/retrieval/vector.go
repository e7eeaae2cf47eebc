package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/jamesaphoenix/tx/internal/repo"
)

// DimensionMismatchPolicy controls how vectorRank handles a learning whose
// stored embedding dimension differs from the query embedding's.
type DimensionMismatchPolicy int

const (
	// SkipMismatched silently omits the offending learning from the vector
	// ranking (it can still surface via BM25).
	SkipMismatched DimensionMismatchPolicy = iota
	// FailOnMismatched aborts the vector stage entirely, degrading it to
	// "unavailable" for this request.
	FailOnMismatched
)

type dimensionMismatchError struct{ want, got int }

func (e *dimensionMismatchError) Error() string {
	return "embedding dimension mismatch"
}

// vectorRank embeds the original query, scores every learning that carries
// an embedding by cosine similarity normalized to [0,1], and returns a
// 1-indexed ranking sorted descending by similarity (spec.md §4.5 step 3).
// A nil embedder or an unavailable one yields (nil, nil): the stage is
// simply skipped, never an error.
func vectorRank(ctx context.Context, q repo.Queryer, embedder Embedder, query string, policy DimensionMismatchPolicy) ([]rankedHit, map[string]*learningRecord, error) {
	if embedder == nil || !embedder.IsAvailable(ctx) {
		return nil, nil, nil
	}
	qv, err := embedder.Embed(ctx, query)
	if err != nil || qv == nil {
		return nil, nil, nil
	}

	learnings, err := repo.AllLearningsWithEmbeddings(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	type scored struct {
		id   string
		sim  float64
	}
	var scoredList []scored
	records := map[string]*learningRecord{}
	for _, l := range learnings {
		if len(l.Embedding) != len(qv) {
			if policy == FailOnMismatched {
				return nil, nil, &dimensionMismatchError{want: len(qv), got: len(l.Embedding)}
			}
			continue
		}
		sim := cosineSimilarity(qv, l.Embedding)
		norm := (sim + 1) / 2
		scoredList = append(scoredList, scored{id: l.ID, sim: norm})
		records[l.ID] = &learningRecord{learning: l}
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].sim > scoredList[j].sim })

	out := make([]rankedHit, len(scoredList))
	for i, s := range scoredList {
		out[i] = rankedHit{id: s.id, rank: i + 1}
	}
	return out, records, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
