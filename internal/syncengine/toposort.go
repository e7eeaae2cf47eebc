package syncengine

import "sort"

// topoSortUpserts orders task-upsert operations so that a task whose
// parent is also being upserted in this batch comes after its parent
// (spec.md §4.4 step 4). Tasks whose parent isn't in the import set are
// roots (in-degree 0). Falls back to the original (ts-sorted) order if a
// cycle is detected, which valid data should never produce.
func topoSortUpserts(upserts []Operation) []Operation {
	byID := make(map[string]Operation, len(upserts))
	for _, op := range upserts {
		byID[op.ID] = op
	}

	children := map[string][]string{}
	indegree := map[string]int{}
	for _, op := range upserts {
		indegree[op.ID] = 0
	}
	for _, op := range upserts {
		if op.Data.ParentID != nil {
			if _, ok := byID[*op.Data.ParentID]; ok {
				children[*op.Data.ParentID] = append(children[*op.Data.ParentID], op.ID)
				indegree[op.ID]++
			}
		}
	}

	var queue []string
	for _, op := range upserts {
		if indegree[op.ID] == 0 {
			queue = append(queue, op.ID)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		next := append([]string(nil), children[id]...)
		sort.Strings(next)
		for _, childID := range next {
			indegree[childID]--
			if indegree[childID] == 0 {
				queue = append(queue, childID)
				sort.Strings(queue)
			}
		}
	}

	if len(order) != len(upserts) {
		return upserts // cycle detected; fall back to original order
	}

	out := make([]Operation, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	return out
}
