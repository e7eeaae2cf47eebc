package retrieval

import "context"

// expandGraph takes the top-k seed learning IDs and asks the graph expander
// to walk outward (spec.md §4.5 step 6). Expanded nodes that duplicate an
// existing seed are skipped; seeds themselves keep hops=0.
func expandGraph(ctx context.Context, expander GraphExpander, seeds []string, opts GraphExpandOptions) []GraphNode {
	if expander == nil || !expander.IsAvailable(ctx) {
		return nil
	}
	nodes, err := expander.Expand(ctx, seeds, opts)
	if err != nil {
		return nil
	}
	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}
	out := make([]GraphNode, 0, len(nodes))
	for _, n := range nodes {
		if seedSet[n.LearningID] {
			continue
		}
		out = append(out, n)
	}
	return out
}

// topKSeeds returns the first k ids from an already-sorted candidate list.
func topKSeeds(ids []string, k int) []string {
	if k <= 0 || k > len(ids) {
		k = len(ids)
	}
	return append([]string(nil), ids[:k]...)
}
