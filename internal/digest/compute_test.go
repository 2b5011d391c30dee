package digest

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openline-proto/openline/internal/frame"
)

// buildFrame assembles and validates a frame from raw node/edge lists.
func buildFrame(t *testing.T, nodes []frame.Node, edges []frame.Edge) *frame.Frame {
	t.Helper()
	f := frame.New("s1", frame.GaugeSym, "steps")
	f.Nodes = nodes
	f.Edges = edges
	require.NoError(t, f.Validate())
	return f
}

// TestCompute_EmptyFrame tests the digest of a graph with no nodes.
func TestCompute_EmptyFrame(t *testing.T) {
	f := frame.New("s1", frame.GaugeSym, "steps")
	d := Compute(f)
	assert.Equal(t, 0, d.B0)
	assert.Equal(t, 0, d.CyclePlus)
	assert.Equal(t, 0, d.XFrontier)
	assert.Equal(t, 0.0, d.SOverC)
	assert.Equal(t, 0, d.Depth)
}

// TestCompute_ContestedClaim tests the canonical three-node frame: a
// claim with supporting evidence (0.9) and an unresolved counter (0.3).
func TestCompute_ContestedClaim(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "c1", Type: frame.NodeClaim, Weight: 1.0},
			{ID: "e1", Type: frame.NodeEvidence, Weight: 0.9},
			{ID: "x1", Type: frame.NodeCounter, Weight: 0.3},
		},
		[]frame.Edge{
			{Src: "e1", Dst: "c1", Rel: frame.RelSupports, Weight: 0.9},
			{Src: "x1", Dst: "c1", Rel: frame.RelContradicts, Weight: 0.3},
		},
	)
	d := Compute(f)
	assert.Equal(t, 1, d.B0, "one connected component")
	assert.Equal(t, 0, d.CyclePlus, "no reinforcing cycles")
	assert.Equal(t, 1, d.XFrontier, "the counter's contradicts edge is live")
	assert.InDelta(t, 3.0, d.SOverC, 1e-12, "0.9 support over 0.3 contradiction")
	assert.Equal(t, 0, d.Depth, "no dependency edges")
}

// TestCompute_B0_Components tests component counting across isolated
// nodes and mixed relations.
func TestCompute_B0_Components(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "a", Type: frame.NodeClaim, Weight: 0.5},
			{ID: "b", Type: frame.NodeEvidence, Weight: 0.5},
			{ID: "c", Type: frame.NodeClaim, Weight: 0.5},
			{ID: "d", Type: frame.NodeCounter, Weight: 0.5},
			{ID: "lone", Type: frame.NodeMotif, Weight: 0.5},
		},
		[]frame.Edge{
			{Src: "b", Dst: "a", Rel: frame.RelSupports, Weight: 0.5},
			{Src: "d", Dst: "c", Rel: frame.RelContradicts, Weight: 0.5},
		},
	)
	assert.Equal(t, 3, Compute(f).B0)
}

// TestCompute_CyclePlus_Triangle tests that one three-node reinforcing
// loop counts as exactly one elementary cycle.
func TestCompute_CyclePlus_Triangle(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "a", Type: frame.NodeClaim, Weight: 0.5},
			{ID: "b", Type: frame.NodeClaim, Weight: 0.5},
			{ID: "c", Type: frame.NodeClaim, Weight: 0.5},
		},
		[]frame.Edge{
			{Src: "a", Dst: "b", Rel: frame.RelSupports, Weight: 0.5},
			{Src: "b", Dst: "c", Rel: frame.RelDerives, Weight: 0.5},
			{Src: "c", Dst: "a", Rel: frame.RelSupports, Weight: 0.5},
		},
	)
	assert.Equal(t, 1, Compute(f).CyclePlus)
}

// TestCompute_CyclePlus_IgnoresNonReinforcing tests that a loop closed
// by a contradicts edge is not a reinforcing cycle.
func TestCompute_CyclePlus_IgnoresNonReinforcing(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "a", Type: frame.NodeClaim, Weight: 0.5},
			{ID: "b", Type: frame.NodeClaim, Weight: 0.5},
		},
		[]frame.Edge{
			{Src: "a", Dst: "b", Rel: frame.RelSupports, Weight: 0.5},
			{Src: "b", Dst: "a", Rel: frame.RelContradicts, Weight: 0.5},
		},
	)
	assert.Equal(t, 0, Compute(f).CyclePlus)
}

// TestCompute_CyclePlus_DisjointTriangles tests that five independent
// three-node reinforcing cycles count as exactly five.
func TestCompute_CyclePlus_DisjointTriangles(t *testing.T) {
	var nodes []frame.Node
	var edges []frame.Edge
	for i := 0; i < 5; i++ {
		ids := []string{
			fmt.Sprintf("t%d_a", i),
			fmt.Sprintf("t%d_b", i),
			fmt.Sprintf("t%d_c", i),
		}
		for _, id := range ids {
			nodes = append(nodes, frame.Node{ID: id, Type: frame.NodeClaim, Weight: 0.5})
		}
		for j := range ids {
			edges = append(edges, frame.Edge{
				Src: ids[j], Dst: ids[(j+1)%3], Rel: frame.RelSupports, Weight: 0.5,
			})
		}
	}
	f := buildFrame(t, nodes, edges)
	assert.Equal(t, 5, Compute(f).CyclePlus)
}

// TestCompute_CyclePlus_Multiple tests counting several disjoint
// two-node reinforcing loops.
func TestCompute_CyclePlus_Multiple(t *testing.T) {
	var nodes []frame.Node
	var edges []frame.Edge
	pairs := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for i := 0; i < len(pairs); i += 2 {
		nodes = append(nodes,
			frame.Node{ID: pairs[i], Type: frame.NodeClaim, Weight: 0.5},
			frame.Node{ID: pairs[i+1], Type: frame.NodeClaim, Weight: 0.5},
		)
		edges = append(edges,
			frame.Edge{Src: pairs[i], Dst: pairs[i+1], Rel: frame.RelSupports, Weight: 0.5},
			frame.Edge{Src: pairs[i+1], Dst: pairs[i], Rel: frame.RelSupports, Weight: 0.5},
		)
	}
	f := buildFrame(t, nodes, edges)
	assert.Equal(t, 5, Compute(f).CyclePlus)
}

// TestCompute_XFrontier_Resolution tests that linking an Assumption to
// a contested target via a resolving edge clears it from the frontier.
func TestCompute_XFrontier_Resolution(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "c1", Type: frame.NodeClaim, Weight: 1.0},
			{ID: "x1", Type: frame.NodeCounter, Weight: 0.3},
			{ID: "a1", Type: frame.NodeAssumption, Weight: 0.6},
		},
		[]frame.Edge{
			{Src: "x1", Dst: "c1", Rel: frame.RelContradicts, Weight: 0.3},
			{Src: "a1", Dst: "c1", Rel: frame.RelUpdates, Weight: 0.6},
		},
	)
	assert.Equal(t, 0, Compute(f).XFrontier)
}

// TestCompute_XFrontier_EvidenceDoesNotResolve tests that a supports
// edge from plain Evidence leaves the contradiction live: only
// Assumption and Counter nodes discharge objections.
func TestCompute_XFrontier_EvidenceDoesNotResolve(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "c1", Type: frame.NodeClaim, Weight: 1.0},
			{ID: "x1", Type: frame.NodeCounter, Weight: 0.3},
			{ID: "e1", Type: frame.NodeEvidence, Weight: 0.9},
		},
		[]frame.Edge{
			{Src: "x1", Dst: "c1", Rel: frame.RelContradicts, Weight: 0.3},
			{Src: "e1", Dst: "c1", Rel: frame.RelSupports, Weight: 0.9},
		},
	)
	assert.Equal(t, 1, Compute(f).XFrontier)
}

// TestCompute_XFrontier_DistinctTargets tests that two contradicts
// edges against one target count the target once.
func TestCompute_XFrontier_DistinctTargets(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "c1", Type: frame.NodeClaim, Weight: 1.0},
			{ID: "x1", Type: frame.NodeCounter, Weight: 0.3},
			{ID: "x2", Type: frame.NodeCounter, Weight: 0.4},
		},
		[]frame.Edge{
			{Src: "x1", Dst: "c1", Rel: frame.RelContradicts, Weight: 0.3},
			{Src: "x2", Dst: "c1", Rel: frame.RelContradicts, Weight: 0.4},
		},
	)
	assert.Equal(t, 1, Compute(f).XFrontier)
}

// TestCompute_SOverC_NoContradictions tests the floor substitution for
// a contradiction-free frame: large finite ratio, never Inf.
func TestCompute_SOverC_NoContradictions(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "c1", Type: frame.NodeClaim, Weight: 1.0},
			{ID: "e1", Type: frame.NodeEvidence, Weight: 0.9},
		},
		[]frame.Edge{
			{Src: "e1", Dst: "c1", Rel: frame.RelSupports, Weight: 0.8},
		},
	)
	d := Compute(f)
	assert.InDelta(t, 0.8/1e-6, d.SOverC, 1e-3)
	assert.False(t, d.SOverC != d.SOverC, "never NaN")
}

// TestCompute_Depth_Chain tests the longest prerequisite chain over
// depends_on (reversed) and derives (forward) edges.
func TestCompute_Depth_Chain(t *testing.T) {
	// p derives q; r depends_on q, so the chain reads p -> q -> r.
	f := buildFrame(t,
		[]frame.Node{
			{ID: "p", Type: frame.NodePlanStep, Weight: 0.5},
			{ID: "q", Type: frame.NodePlanStep, Weight: 0.5},
			{ID: "r", Type: frame.NodeOutcome, Weight: 0.5},
		},
		[]frame.Edge{
			{Src: "p", Dst: "q", Rel: frame.RelDerives, Weight: 0.5},
			{Src: "r", Dst: "q", Rel: frame.RelDependsOn, Weight: 0.5},
		},
	)
	assert.Equal(t, 2, Compute(f).Depth)
}

// TestCompute_Depth_IgnoresSupports tests that supports edges never
// contribute to depth.
func TestCompute_Depth_IgnoresSupports(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "a", Type: frame.NodeClaim, Weight: 0.5},
			{ID: "b", Type: frame.NodeEvidence, Weight: 0.5},
		},
		[]frame.Edge{
			{Src: "b", Dst: "a", Rel: frame.RelSupports, Weight: 0.5},
		},
	)
	assert.Equal(t, 0, Compute(f).Depth)
}

// TestCompute_Depth_CycleBreaks tests that a dependency cycle does not
// loop: the walk breaks at re-entry and depth stays finite.
func TestCompute_Depth_CycleBreaks(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "a", Type: frame.NodePlanStep, Weight: 0.5},
			{ID: "b", Type: frame.NodePlanStep, Weight: 0.5},
		},
		[]frame.Edge{
			{Src: "a", Dst: "b", Rel: frame.RelDerives, Weight: 0.5},
			{Src: "b", Dst: "a", Rel: frame.RelDerives, Weight: 0.5},
		},
	)
	d := Compute(f)
	assert.LessOrEqual(t, d.Depth, 2)
	assert.GreaterOrEqual(t, d.Depth, 1)
}

// TestCompute_PermutationInvariant tests that shuffling node and edge
// container order never changes the digest.
func TestCompute_PermutationInvariant(t *testing.T) {
	nodes := []frame.Node{
		{ID: "c1", Type: frame.NodeClaim, Weight: 1.0},
		{ID: "e1", Type: frame.NodeEvidence, Weight: 0.9},
		{ID: "x1", Type: frame.NodeCounter, Weight: 0.3},
		{ID: "p1", Type: frame.NodePlanStep, Weight: 0.5},
		{ID: "p2", Type: frame.NodePlanStep, Weight: 0.5},
	}
	edges := []frame.Edge{
		{Src: "e1", Dst: "c1", Rel: frame.RelSupports, Weight: 0.9},
		{Src: "x1", Dst: "c1", Rel: frame.RelContradicts, Weight: 0.3},
		{Src: "p1", Dst: "p2", Rel: frame.RelDerives, Weight: 0.5},
		{Src: "c1", Dst: "p1", Rel: frame.RelSupports, Weight: 0.4},
		{Src: "p2", Dst: "c1", Rel: frame.RelSupports, Weight: 0.4},
	}
	base := buildFrame(t,
		append([]frame.Node(nil), nodes...),
		append([]frame.Edge(nil), edges...))
	want := Compute(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		ns := append([]frame.Node(nil), nodes...)
		es := append([]frame.Edge(nil), edges...)
		rng.Shuffle(len(ns), func(a, b int) { ns[a], ns[b] = ns[b], ns[a] })
		rng.Shuffle(len(es), func(a, b int) { es[a], es[b] = es[b], es[a] })
		got := Compute(buildFrame(t, ns, es))
		require.True(t, want.Equal(got), "shuffle %d: %+v != %+v", i, got, want)
	}
}

// TestCompute_CanonicalRoundTripStable tests that serializing a frame
// to canonical bytes and parsing it back reproduces an identical
// digest, including nodes with hard-to-round-trip float weights and a
// decomposed-unicode label.
func TestCompute_CanonicalRoundTripStable(t *testing.T) {
	f := buildFrame(t,
		[]frame.Node{
			{ID: "c1", Type: frame.NodeClaim, Label: "café", Weight: 0.30000000000000004},
			{ID: "e1", Type: frame.NodeEvidence, Weight: 1e-07},
			{ID: "x1", Type: frame.NodeCounter, Weight: 0.1},
			{ID: "p1", Type: frame.NodePlanStep, Weight: 0.7},
		},
		[]frame.Edge{
			{Src: "e1", Dst: "c1", Rel: frame.RelSupports, Weight: 0.30000000000000004},
			{Src: "x1", Dst: "c1", Rel: frame.RelContradicts, Weight: 0.1},
			{Src: "p1", Dst: "c1", Rel: frame.RelDependsOn, Weight: 0.5},
		},
	)
	want := Compute(f)

	raw, err := f.CanonicalBytes()
	require.NoError(t, err)
	parsed, err := frame.Parse(raw)
	require.NoError(t, err)
	require.NoError(t, parsed.Validate())

	assert.Equal(t, want, Compute(parsed))

	// A second serialization pass must be byte-identical.
	raw2, err := parsed.CanonicalBytes()
	require.NoError(t, err)
	assert.Equal(t, raw, raw2)
}
