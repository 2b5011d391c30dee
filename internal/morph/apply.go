package morph

import (
	"fmt"

	"github.com/openline-proto/openline/internal/frame"
)

// Result is the outcome of a successful batch application.
type Result struct {
	// Frame is the candidate new frame. The base frame is never touched.
	Frame *frame.Frame

	// DelSuspect is set when the batch deleted a contradiction's sole
	// resolver, or a contradicts edge with no replacing resolution in
	// the same batch. The guard engine and published telemetry both see
	// this flag.
	DelSuspect bool
}

// Apply applies an ordered morph batch to a frame, producing a candidate
// new frame.
//
// All-or-nothing: if any operation fails validation the whole batch is
// discarded and the base frame is exactly as it was. Application works
// on a clone, so callers may treat the base frame as immutable.
//
// The accepted batch is appended to the candidate's morph log;
// TLogical is NOT advanced here — committing is the bus's decision.
func Apply(base *frame.Frame, batch []frame.Morph) (*Result, error) {
	cand := base.Clone()
	res := &Result{}
	for i, m := range batch {
		if err := m.Validate(); err != nil {
			return nil, &ApplyError{
				Code:    ErrCodeBadPayload,
				Op:      m.Op,
				Index:   i,
				Message: err.Error(),
			}
		}
		if err := applyOne(cand, res, i, m, batch); err != nil {
			return nil, err
		}
	}
	cand.Morphs = append(cand.Morphs, batch...)
	res.Frame = cand
	return res, nil
}

func applyOne(f *frame.Frame, res *Result, idx int, m frame.Morph, batch []frame.Morph) error {
	switch m.Op {
	case frame.OpAddNode:
		return applyAddNode(f, idx, m)
	case frame.OpAddEdge:
		return applyAddEdge(f, idx, m)
	case frame.OpDelNode:
		return applyDelNode(f, res, idx, m, batch)
	case frame.OpDelEdge:
		return applyDelEdge(f, res, idx, m, batch)
	case frame.OpRetype:
		return applyRetype(f, idx, m)
	case frame.OpReweight:
		return applyReweight(f, idx, m)
	case frame.OpMerge:
		return applyMerge(f, idx, m)
	case frame.OpSplit:
		return applySplit(f, idx, m)
	case frame.OpHomotopy:
		for _, sub := range m.Ops {
			if err := applyOne(f, res, idx, sub, batch); err != nil {
				return err
			}
		}
		return nil
	}
	return &ApplyError{Code: ErrCodeBadPayload, Op: m.Op, Index: idx, Message: "unhandled op"}
}

func applyAddNode(f *frame.Frame, idx int, m frame.Morph) error {
	n := *m.Node
	if n.ID == "" || !n.Type.Valid() || n.Weight < 0 || n.Weight > 1 {
		return &ApplyError{Code: ErrCodeBadPayload, Op: m.Op, Index: idx, Target: n.ID, Message: "malformed node payload"}
	}
	if existing, ok := f.NodeByID(n.ID); ok {
		if existing == n {
			// Identical re-send: at-least-once delivery no-op.
			return nil
		}
		return &ApplyError{Code: ErrCodeDuplicateID, Op: m.Op, Index: idx, Target: n.ID, Message: "node id exists with different content"}
	}
	f.Nodes = append(f.Nodes, n)
	return nil
}

func applyAddEdge(f *frame.Frame, idx int, m frame.Morph) error {
	e := *m.Edge
	if !e.Rel.Valid() || e.Weight < 0 || e.Weight > 1 {
		return &ApplyError{Code: ErrCodeBadPayload, Op: m.Op, Index: idx, Target: e.Key().String(), Message: "malformed edge payload"}
	}
	if e.Src == e.Dst {
		return &ApplyError{Code: ErrCodeBadPayload, Op: m.Op, Index: idx, Target: e.Key().String(), Message: "self-loop"}
	}
	if !f.HasNode(e.Src) {
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: e.Src, Message: "edge src does not exist"}
	}
	if !f.HasNode(e.Dst) {
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: e.Dst, Message: "edge dst does not exist"}
	}
	if f.HasEdge(e.Key()) {
		// Identical identity re-send: no-op.
		return nil
	}
	f.Edges = append(f.Edges, e)
	return nil
}

func applyDelNode(f *frame.Frame, res *Result, idx int, m frame.Morph, batch []frame.Morph) error {
	n, ok := f.NodeByID(m.ID)
	if !ok {
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: m.ID, Message: "node does not exist"}
	}
	if soleResolver(f, n) && !batchAddsResolver(batch) {
		res.DelSuspect = true
	}
	keep := f.Nodes[:0]
	for _, node := range f.Nodes {
		if node.ID != m.ID {
			keep = append(keep, node)
		}
	}
	f.Nodes = keep
	// Cascading delete of every incident edge.
	edges := f.Edges[:0]
	for _, e := range f.Edges {
		if e.Src != m.ID && e.Dst != m.ID {
			edges = append(edges, e)
		}
	}
	f.Edges = edges
	return nil
}

func applyDelEdge(f *frame.Frame, res *Result, idx int, m frame.Morph, batch []frame.Morph) error {
	k := *m.TargetEdge
	if !f.HasEdge(k) {
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: k.String(), Message: "edge does not exist"}
	}
	if k.Rel == frame.RelContradicts && !batchResolvesTarget(batch, k.Dst) {
		res.DelSuspect = true
	}
	edges := f.Edges[:0]
	for _, e := range f.Edges {
		if e.Key() != k {
			edges = append(edges, e)
		}
	}
	f.Edges = edges
	return nil
}

func applyRetype(f *frame.Frame, idx int, m frame.Morph) error {
	for i := range f.Nodes {
		if f.Nodes[i].ID == m.ID {
			f.Nodes[i].Type = m.NewType
			return nil
		}
	}
	return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: m.ID, Message: "node does not exist"}
}

func applyReweight(f *frame.Frame, idx int, m frame.Morph) error {
	w := clamp01(*m.Weight)
	if m.ID != "" {
		for i := range f.Nodes {
			if f.Nodes[i].ID == m.ID {
				f.Nodes[i].Weight = w
				return nil
			}
		}
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: m.ID, Message: "node does not exist"}
	}
	k := *m.TargetEdge
	for i := range f.Edges {
		if f.Edges[i].Key() == k {
			f.Edges[i].Weight = w
			return nil
		}
	}
	return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: k.String(), Message: "edge does not exist"}
}

// applyMerge combines two nodes, unioning their incident edges. The
// lexicographically smaller id survives; the retired id lands in the
// frame's alias table for back-reference.
func applyMerge(f *frame.Frame, idx int, m frame.Morph) error {
	a, b := m.IDs[0], m.IDs[1]
	if !f.HasNode(a) {
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: a, Message: "node does not exist"}
	}
	if !f.HasNode(b) {
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: b, Message: "node does not exist"}
	}
	kept, retired := a, b
	if b < a {
		kept, retired = b, a
	}

	nodes := f.Nodes[:0]
	for _, n := range f.Nodes {
		if n.ID != retired {
			nodes = append(nodes, n)
		}
	}
	f.Nodes = nodes

	seen := make(map[frame.EdgeKey]bool, len(f.Edges))
	edges := f.Edges[:0]
	for _, e := range f.Edges {
		if e.Src == retired {
			e.Src = kept
		}
		if e.Dst == retired {
			e.Dst = kept
		}
		if e.Src == e.Dst {
			// Edges between the merged pair collapse to self-loops; drop them.
			continue
		}
		if seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		edges = append(edges, e)
	}
	f.Edges = edges

	if f.Aliases == nil {
		f.Aliases = make(map[string]string)
	}
	f.Aliases[retired] = kept
	for old, to := range f.Aliases {
		if to == retired {
			f.Aliases[old] = kept
		}
	}
	return nil
}

// applySplit divides one node into two, partitioning its incident edges
// per the morph's partition map. Every incident edge must be assigned;
// anything less fails the whole batch with AMBIGUOUS_SPLIT.
func applySplit(f *frame.Frame, idx int, m frame.Morph) error {
	orig, ok := f.NodeByID(m.ID)
	if !ok {
		return &ApplyError{Code: ErrCodeMissingTarget, Op: m.Op, Index: idx, Target: m.ID, Message: "node does not exist"}
	}
	into := map[string]bool{m.IntoIDs[0]: true, m.IntoIDs[1]: true}
	for newID := range into {
		if newID != m.ID && f.HasNode(newID) {
			return &ApplyError{Code: ErrCodeDuplicateID, Op: m.Op, Index: idx, Target: newID, Message: "split target id exists"}
		}
	}

	incident := f.IncidentEdges(m.ID)
	assigned := make(map[frame.EdgeKey]string, len(incident))
	for _, e := range incident {
		dest, ok := m.Partition[e.Key().String()]
		if !ok {
			return &ApplyError{Code: ErrCodeAmbiguousSplit, Op: m.Op, Index: idx, Target: e.Key().String(), Message: "incident edge not assigned by partition"}
		}
		if !into[dest] {
			return &ApplyError{Code: ErrCodeAmbiguousSplit, Op: m.Op, Index: idx, Target: e.Key().String(), Message: fmt.Sprintf("partition assigns unknown id %q", dest)}
		}
		assigned[e.Key()] = dest
	}

	nodes := f.Nodes[:0]
	for _, n := range f.Nodes {
		if n.ID != m.ID {
			nodes = append(nodes, n)
		}
	}
	f.Nodes = nodes
	for _, newID := range m.IntoIDs {
		f.Nodes = append(f.Nodes, frame.Node{ID: newID, Type: orig.Type, Label: orig.Label, Weight: orig.Weight})
	}

	for i := range f.Edges {
		dest, ok := assigned[f.Edges[i].Key()]
		if !ok {
			continue
		}
		if f.Edges[i].Src == m.ID {
			f.Edges[i].Src = dest
		}
		if f.Edges[i].Dst == m.ID {
			f.Edges[i].Dst = dest
		}
	}
	return nil
}

func clamp01(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// soleResolver reports whether the node is the only Assumption/Counter
// resolving some currently contested target.
func soleResolver(f *frame.Frame, n frame.Node) bool {
	if n.Type != frame.NodeAssumption && n.Type != frame.NodeCounter {
		return false
	}
	contested := make(map[string]bool)
	for _, e := range f.Edges {
		if e.Rel == frame.RelContradicts {
			contested[e.Dst] = true
		}
	}
	resolvers := make(map[string]map[string]bool) // target -> resolver ids
	for _, e := range f.Edges {
		if !contested[e.Dst] || !e.Rel.Resolving() {
			continue
		}
		src, ok := f.NodeByID(e.Src)
		if !ok || (src.Type != frame.NodeAssumption && src.Type != frame.NodeCounter) {
			continue
		}
		if resolvers[e.Dst] == nil {
			resolvers[e.Dst] = make(map[string]bool)
		}
		resolvers[e.Dst][e.Src] = true
	}
	for _, ids := range resolvers {
		if len(ids) == 1 && ids[n.ID] {
			return true
		}
	}
	return false
}

// batchAddsResolver reports whether the batch adds an Assumption or
// Counter node together with an edge linking it into the graph.
func batchAddsResolver(batch []frame.Morph) bool {
	added := make(map[string]bool)
	for _, m := range flattened(batch) {
		if m.Op == frame.OpAddNode && m.Node != nil &&
			(m.Node.Type == frame.NodeAssumption || m.Node.Type == frame.NodeCounter) {
			added[m.Node.ID] = true
		}
	}
	if len(added) == 0 {
		return false
	}
	for _, m := range flattened(batch) {
		if m.Op == frame.OpAddEdge && m.Edge != nil && (added[m.Edge.Src] || added[m.Edge.Dst]) {
			return true
		}
	}
	return false
}

// batchResolvesTarget reports whether the batch adds a resolving edge
// into the given target from an Assumption/Counter added in the same
// batch.
func batchResolvesTarget(batch []frame.Morph, target string) bool {
	added := make(map[string]bool)
	for _, m := range flattened(batch) {
		if m.Op == frame.OpAddNode && m.Node != nil &&
			(m.Node.Type == frame.NodeAssumption || m.Node.Type == frame.NodeCounter) {
			added[m.Node.ID] = true
		}
	}
	for _, m := range flattened(batch) {
		if m.Op == frame.OpAddEdge && m.Edge != nil &&
			m.Edge.Dst == target && m.Edge.Rel.Resolving() && added[m.Edge.Src] {
			return true
		}
	}
	return false
}

// flattened expands homotopy bundles so heuristics see sub-operations.
func flattened(batch []frame.Morph) []frame.Morph {
	out := make([]frame.Morph, 0, len(batch))
	for _, m := range batch {
		if m.Op == frame.OpHomotopy {
			out = append(out, m.Ops...)
			continue
		}
		out = append(out, m)
	}
	return out
}
