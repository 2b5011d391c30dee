package digest

import (
	"sort"

	"github.com/openline-proto/openline/internal/frame"
)

// reinforcingCycles counts elementary cycles in the subgraph restricted
// to reinforcing (supports/derives) edges.
//
// Enumeration roots each cycle at its lexicographically smallest node:
// a DFS from root r may only walk nodes >= r and counts each return to
// r. Every elementary cycle is therefore counted exactly once. The walk
// is exponential in the worst case, so it stops at maxCycleCount; the
// guard caps that matter live at single digits.
func reinforcingCycles(f *frame.Frame, ids []string) int {
	adj := make(map[string][]string, len(ids))
	for _, e := range f.Edges {
		if e.Rel.Reinforcing() {
			adj[e.Src] = append(adj[e.Src], e.Dst)
		}
	}
	for src := range adj {
		sort.Strings(adj[src])
	}

	count := 0
	onPath := make(map[string]bool, len(ids))
	var walk func(root, cur string)
	walk = func(root, cur string) {
		if count >= maxCycleCount {
			return
		}
		onPath[cur] = true
		for _, next := range adj[cur] {
			if next == root {
				count++
				if count >= maxCycleCount {
					break
				}
				continue
			}
			// Only nodes greater than the root participate, so the
			// cycle is counted once, rooted at its minimum node.
			if next < root || onPath[next] {
				continue
			}
			walk(root, next)
		}
		onPath[cur] = false
	}
	for _, root := range ids {
		walk(root, root)
	}
	return count
}
