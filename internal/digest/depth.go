package digest

import (
	"sort"

	"github.com/openline-proto/openline/internal/frame"
)

// dependencyDepth is the length, in edges, of the longest chain in the
// subgraph of depends_on/derives edges.
//
// Edge orientation: "A depends_on B" makes B a prerequisite of A, so the
// chain runs B -> A; "A derives B" already runs in derivation order,
// A -> B. With both orientations applied the subgraph reads
// prerequisite-to-consequence.
//
// If the subgraph has a cycle, depth falls back to a first-occurrence-
// wins approximation: a node already on the current walk contributes
// zero instead of looping. Traversal order is sorted, so the result is
// deterministic for any input permutation.
func dependencyDepth(f *frame.Frame, ids []string) int {
	adj := make(map[string][]string, len(ids))
	hasEdges := false
	for _, e := range f.Edges {
		switch e.Rel {
		case frame.RelDependsOn:
			adj[e.Dst] = append(adj[e.Dst], e.Src)
			hasEdges = true
		case frame.RelDerives:
			adj[e.Src] = append(adj[e.Src], e.Dst)
			hasEdges = true
		}
	}
	if !hasEdges {
		return 0
	}
	for src := range adj {
		sort.Strings(adj[src])
	}

	memo := make(map[string]int, len(ids))
	onPath := make(map[string]bool, len(ids))
	var longestFrom func(id string) int
	longestFrom = func(id string) int {
		if d, ok := memo[id]; ok {
			return d
		}
		if onPath[id] {
			// Cycle: the first occurrence on the walk wins, the
			// re-entry contributes nothing.
			return 0
		}
		onPath[id] = true
		best := 0
		for _, next := range adj[id] {
			if d := longestFrom(next) + 1; d > best {
				best = d
			}
		}
		onPath[id] = false
		memo[id] = best
		return best
	}

	depth := 0
	for _, id := range ids {
		if d := longestFrom(id); d > depth {
			depth = d
		}
	}
	return depth
}
