package digest

import "github.com/openline-proto/openline/internal/frame"

// components counts connected components treating every edge as
// undirected, regardless of relation type. Isolated nodes each count as
// their own component; the empty graph has zero.
func components(f *frame.Frame, ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	uf := newUnionFind(ids)
	for _, e := range f.Edges {
		uf.union(e.Src, e.Dst)
	}
	roots := make(map[string]bool, len(ids))
	for _, id := range ids {
		roots[uf.find(id)] = true
	}
	return len(roots)
}

// unionFind is a string-keyed disjoint-set forest with path compression.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(ids)),
		rank:   make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(id string) string {
	root := id
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[id] != root {
		uf.parent[id], id = root, uf.parent[id]
	}
	return root
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}
