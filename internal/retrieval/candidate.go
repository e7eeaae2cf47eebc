package retrieval

import "github.com/jamesaphoenix/tx/internal/types"

// learningRecord accumulates everything the pipeline learns about one
// candidate learning as it passes through each stage.
type learningRecord struct {
	learning *types.Learning

	bm25Rank   int // 0 = absent from BM25 results
	vectorRank int // 0 = absent from vector results

	rrf     float64
	score   float64

	// graph-expansion bookkeeping; zero value means "seed, not expanded".
	fromGraph    bool
	hops         int
	path         []string
	sourceEdge   string
	decayedScore float64
}

// Result is one scored item returned by the retrieval pipeline.
type Result struct {
	Learning     *types.Learning
	Score        float64
	BM25Rank     int
	VectorRank   int
	FromGraph    bool
	Hops         int
	Path         []string
	SourceEdge   string
}
