package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RerankCandidate is one item offered to the reranker.
type RerankCandidate struct {
	ID   string
	Text string
}

// RerankResult is the reranker's score for one candidate, in [0,1].
type RerankResult struct {
	ID    string
	Score float64
}

// Reranker re-scores a shortlist of candidates against the query using the
// Live client. It satisfies internal/retrieval.Reranker via the adapter in
// internal/retrieval/llmadapter.go.
type Reranker struct {
	client *Client
}

func NewReranker(client *Client) *Reranker { return &Reranker{client: client} }

func (r *Reranker) IsAvailable(ctx context.Context) bool {
	return r.client != nil && r.client.IsAvailable(ctx)
}

func (r *Reranker) Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error) {
	if !r.IsAvailable(ctx) || len(candidates) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score how relevant each of the following notes is to the query, on a scale of 0.0 to 1.0. Respond with ONLY a JSON object mapping each note's id to its numeric score, no other text.\n\nQuery: %s\n\nNotes:\n", query)
	for _, c := range candidates {
		text := c.Text
		if len(text) > 500 {
			text = text[:500]
		}
		fmt.Fprintf(&b, "- id=%s: %s\n", c.ID, text)
	}

	raw, err := r.client.complete(ctx, b.String(), 1024)
	if err != nil {
		return nil, err
	}

	var scores map[string]json.Number
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &scores); err != nil {
		return nil, fmt.Errorf("llm: rerank response not valid JSON: %w", err)
	}

	out := make([]RerankResult, 0, len(scores))
	for id, n := range scores {
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			continue
		}
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		out = append(out, RerankResult{ID: id, Score: f})
	}
	return out, nil
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "{}"
	}
	return s[start : end+1]
}
