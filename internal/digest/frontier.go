package digest

import "github.com/openline-proto/openline/internal/frame"

// contradictionFrontier counts distinct nodes that currently have at
// least one contradicts edge pointing at them with no recognized
// resolution.
//
// A target is resolved when an Assumption or Counter node is linked to
// it by a resolving (supports/updates) edge.
func contradictionFrontier(f *frame.Frame, ids []string) int {
	contested := make(map[string]bool)
	for _, e := range f.Edges {
		if e.Rel == frame.RelContradicts {
			contested[e.Dst] = true
		}
	}
	if len(contested) == 0 {
		return 0
	}

	resolved := make(map[string]bool)
	for _, e := range f.Edges {
		if !contested[e.Dst] || !e.Rel.Resolving() {
			continue
		}
		src, ok := f.NodeByID(e.Src)
		if ok && (src.Type == frame.NodeAssumption || src.Type == frame.NodeCounter) {
			resolved[e.Dst] = true
		}
	}

	count := 0
	for _, id := range ids {
		if contested[id] && !resolved[id] {
			count++
		}
	}
	return count
}
