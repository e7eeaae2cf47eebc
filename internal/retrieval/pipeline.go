package retrieval

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/jamesaphoenix/tx/internal/repo"
	"github.com/jamesaphoenix/tx/internal/store"
)

// DefaultMinScore is the default cutoff applied in the pipeline's final
// stage (spec.md §4.5 step 9).
const DefaultMinScore = 0.1

// DefaultLimit is the default result count.
const DefaultLimit = 10

// DefaultGraphSeeds is the default top-k seed count handed to graph
// expansion (spec.md §4.5 step 6).
const DefaultGraphSeeds = 10

// Options parameterizes one Search call. Zero values fall back to spec
// defaults.
type Options struct {
	Limit  int
	MinScore *float64

	EnableGraphExpansion bool
	GraphOptions         GraphExpandOptions

	EnableRerank  bool
	RerankWeight  *float64

	EnableMMR bool
	MMRLambda *float64

	EmbeddingDimensionPolicy DimensionMismatchPolicy
}

// Pipeline wires the optional backends (expansion/embedding/rerank/graph/
// feedback) to the store and runs the nine-stage hybrid retrieval algorithm
// of spec.md §4.5.
type Pipeline struct {
	store *store.Store

	expander Expander
	embedder Embedder
	reranker Reranker
	graph    GraphExpander
	feedback FeedbackTracker

	now func() time.Time
}

func NewPipeline(s *store.Store, expander Expander, embedder Embedder, reranker Reranker, graph GraphExpander, feedback FeedbackTracker) *Pipeline {
	if expander == nil {
		expander = NoopExpander{}
	}
	if embedder == nil {
		embedder = NoopEmbedder{}
	}
	if reranker == nil {
		reranker = NoopReranker{}
	}
	if graph == nil {
		graph = NoopGraphExpander{}
	}
	if feedback == nil {
		feedback = NoopFeedbackTracker{}
	}
	return &Pipeline{
		store: s, expander: expander, embedder: embedder, reranker: reranker,
		graph: graph, feedback: feedback, now: time.Now,
	}
}

// Search runs the full retrieval pipeline for one query.
func (p *Pipeline) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	minScore := DefaultMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}

	db := p.store.DB()
	now := p.now()

	// Stage 1: query expansion.
	expansion, err := p.expander.Expand(ctx, query)
	if err != nil || len(expansion.Expanded) == 0 {
		expansion = Expansion{Original: query, Expanded: []string{query}, WasExpanded: false}
	}
	queries := capExpansion(expansion.Expanded)

	// Stage 2: multi-query BM25 (mandatory).
	bm25Ranking, records, err := multiQueryBM25(ctx, db, queries, limit)
	if err != nil {
		return nil, err
	}

	// Stage 3: vector ranking (optional).
	vectorRanking, vectorRecords, err := vectorRank(ctx, db, p.embedder, expansion.Original, opts.EmbeddingDimensionPolicy)
	if err != nil {
		vectorRanking = nil
	}
	for id, rec := range vectorRecords {
		if _, ok := records[id]; !ok {
			records[id] = rec
		}
	}

	// Stage 4: RRF fusion.
	fused := fuseRRF(bm25Ranking, vectorRanking)

	recencyWeight := p.recencyWeight(ctx)

	// Stage 5: boosts.
	scores := map[string]float64{}
	for id, rec := range records {
		bm25Rank := rankOf(bm25Ranking, id)
		vectorRank := rankOf(vectorRanking, id)
		feedbackScore, _ := p.feedback.Score(ctx, id)
		score := boostedScore(
			fused[id],
			ageDaysOf(rec.learning.CreatedAt, now),
			rec.learning.OutcomeScore,
			rec.learning.UsageCount,
			[]int{bm25Rank, vectorRank},
			feedbackScore,
			recencyWeight,
			now,
		)
		scores[id] = score
		rec.bm25Rank = bm25Rank
		rec.vectorRank = vectorRank
	}

	results := toSortedResults(records, scores)

	// Stage 6: graph expansion (optional).
	if opts.EnableGraphExpansion {
		results = p.applyGraphExpansion(ctx, results, opts.GraphOptions)
	}

	// Stage 7: LLM rerank (optional).
	if opts.EnableRerank {
		weight := DefaultRerankWeight
		if opts.RerankWeight != nil {
			weight = *opts.RerankWeight
		}
		results = p.applyRerankStage(ctx, query, results, weight, limit)
	}

	// Stage 8: MMR diversification (optional).
	if opts.EnableMMR {
		lambda := DefaultMMRLambda
		if opts.MMRLambda != nil {
			lambda = *opts.MMRLambda
		}
		candidatePool := limit * 2
		if candidatePool > len(results) {
			candidatePool = len(results)
		}
		head := mmrDiversify(append([]Result(nil), results[:candidatePool]...), lambda)
		results = append(head, results[candidatePool:]...)
	}

	// Stage 9: cutoff.
	return applyCutoff(results, minScore, limit), nil
}

func capExpansion(expanded []string) []string {
	const maxAlternatives = 6 // original + 5 alternatives, per spec.md §4.5 step 1
	out := make([]string, 0, maxAlternatives)
	for i, q := range expanded {
		if i >= maxAlternatives {
			break
		}
		if len(q) > 200 {
			q = q[:200]
		}
		out = append(out, q)
	}
	return out
}

// recencyWeight reads the recency_weight override from persisted
// configuration (spec.md §6), falling back to the spec default.
func (p *Pipeline) recencyWeight(ctx context.Context) float64 {
	raw, ok, err := repo.GetSyncConfig(ctx, p.store.DB(), "recency_weight")
	if err != nil || !ok {
		return DefaultRecencyWeight
	}
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DefaultRecencyWeight
	}
	return w
}

func toSortedResults(records map[string]*learningRecord, scores map[string]float64) []Result {
	out := make([]Result, 0, len(records))
	for id, rec := range records {
		out = append(out, Result{
			Learning:   rec.learning,
			Score:      scores[id],
			BM25Rank:   rec.bm25Rank,
			VectorRank: rec.vectorRank,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Learning.ID < out[j].Learning.ID
	})
	return out
}

func (p *Pipeline) applyGraphExpansion(ctx context.Context, results []Result, opts GraphExpandOptions) []Result {
	if !p.graph.IsAvailable(ctx) {
		return results
	}
	seedIDs := make([]string, 0, len(results))
	for _, r := range results {
		seedIDs = append(seedIDs, r.Learning.ID)
	}
	seeds := topKSeeds(seedIDs, DefaultGraphSeeds)
	nodes := expandGraph(ctx, p.graph, seeds, opts)
	if len(nodes) == 0 {
		return results
	}

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.Learning.ID] = true
	}

	ids := make([]string, 0, len(nodes))
	byID := map[string]GraphNode{}
	for _, n := range nodes {
		if seen[n.LearningID] {
			continue
		}
		ids = append(ids, n.LearningID)
		byID[n.LearningID] = n
	}
	if len(ids) == 0 {
		return results
	}
	learnings, err := repo.GetLearnings(ctx, p.store.DB(), ids)
	if err != nil {
		return results
	}
	for _, l := range learnings {
		node := byID[l.ID]
		results = append(results, Result{
			Learning:   l,
			Score:      node.DecayedScore,
			FromGraph:  true,
			Hops:       node.Hops,
			Path:       node.Path,
			SourceEdge: node.SourceEdge,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

func (p *Pipeline) applyRerankStage(ctx context.Context, query string, results []Result, weight float64, limit int) []Result {
	topN := limit * 2
	if topN > 20 {
		topN = 20
	}
	if topN > len(results) {
		topN = len(results)
	}
	if topN == 0 {
		return results
	}

	candidates := make([]RerankCandidate, 0, topN)
	existing := map[string]float64{}
	for _, r := range results[:topN] {
		candidates = append(candidates, RerankCandidate{ID: r.Learning.ID, Text: r.Learning.Content})
		existing[r.Learning.ID] = r.Score
	}

	blended := applyRerank(ctx, p.reranker, query, candidates, existing, weight)

	for i := range results {
		if s, ok := blended[results[i].Learning.ID]; ok {
			results[i].Score = s
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

func applyCutoff(results []Result, minScore float64, limit int) []Result {
	out := make([]Result, 0, limit)
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out
}
