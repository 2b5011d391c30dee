package telemetry

import "github.com/openline-proto/openline/internal/frame"

// phiTopo is the share of nodes inside the largest undirected component.
// One argument scores 1.0; disjoint islands pull it toward 1/k.
func phiTopo(f *frame.Frame) float64 {
	if len(f.Nodes) == 0 {
		return 0
	}
	parent := make(map[string]string, len(f.Nodes))
	for _, n := range f.Nodes {
		parent[n.ID] = n.ID
	}
	var find func(string) string
	find = func(id string) string {
		for parent[id] != id {
			parent[id] = parent[parent[id]]
			id = parent[id]
		}
		return id
	}
	for _, e := range f.Edges {
		parent[find(e.Src)] = find(e.Dst)
	}
	sizes := make(map[string]int, len(f.Nodes))
	largest := 0
	for _, n := range f.Nodes {
		root := find(n.ID)
		sizes[root]++
		if sizes[root] > largest {
			largest = sizes[root]
		}
	}
	return float64(largest) / float64(len(f.Nodes))
}

// phiSem is the degree-weighted mean node weight: how much of the
// graph's connectivity passes through confident nodes. No edges means
// no semantic signal.
func phiSem(f *frame.Frame) float64 {
	degree := make(map[string]int, len(f.Nodes))
	for _, e := range f.Edges {
		degree[e.Src]++
		degree[e.Dst]++
	}
	var weighted, total float64
	for _, n := range f.Nodes {
		d := float64(degree[n.ID])
		weighted += n.Weight * d
		total += d
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// evidenceStrength is the mean of edge weight times source-node weight
// over supports edges that originate from Evidence nodes; zero when
// nothing evidential backs the graph.
func evidenceStrength(f *frame.Frame) float64 {
	var sum float64
	count := 0
	for _, e := range f.Edges {
		if e.Rel != frame.RelSupports {
			continue
		}
		src, ok := f.NodeByID(e.Src)
		if !ok || src.Type != frame.NodeEvidence {
			continue
		}
		sum += e.Weight * src.Weight
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
