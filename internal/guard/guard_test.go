package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openline-proto/openline/internal/frame"
)

// TestEvaluate_Accepts tests that a quiet commit under every cap passes.
func TestEvaluate_Accepts(t *testing.T) {
	in := Input{
		OldDigest: frame.Digest{B0: 1, XFrontier: 1},
		NewDigest: frame.Digest{B0: 1, XFrontier: 1, CyclePlus: 2},
		DeltaHol:  0.5,
	}
	assert.NoError(t, Evaluate(in, DefaultPolicy()))
}

// TestEvaluate_CycleCap tests rejection when cycle_plus crosses the cap.
func TestEvaluate_CycleCap(t *testing.T) {
	in := Input{
		NewDigest: frame.Digest{CyclePlus: 5},
	}
	err := Evaluate(in, DefaultPolicy())
	require.Error(t, err)
	v, ok := IsViolation(err)
	require.True(t, ok)
	assert.Equal(t, RuleCycleCap, v.Rule)
	assert.Equal(t, 5.0, v.Value)
	assert.Equal(t, 4.0, v.Threshold)
}

// TestEvaluate_CycleCap_AtBoundary tests that cycle_plus exactly at the
// cap is admissible.
func TestEvaluate_CycleCap_AtBoundary(t *testing.T) {
	in := Input{NewDigest: frame.Digest{CyclePlus: DefaultCycleCap}}
	assert.NoError(t, Evaluate(in, DefaultPolicy()))
}

// TestEvaluate_SilentErasure tests that lowering x_frontier by bare
// deletion is rejected.
func TestEvaluate_SilentErasure(t *testing.T) {
	in := Input{
		OldDigest: frame.Digest{XFrontier: 1},
		NewDigest: frame.Digest{XFrontier: 0},
		Batch: []frame.Morph{
			{Op: frame.OpDelEdge, TargetEdge: &frame.EdgeKey{Src: "x1", Dst: "c1", Rel: frame.RelContradicts}},
		},
	}
	err := Evaluate(in, DefaultPolicy())
	v, ok := IsViolation(err)
	require.True(t, ok)
	assert.Equal(t, RuleSilentErasure, v.Rule)
}

// TestEvaluate_ErasureWithResolverAccepted tests that the same frontier
// drop passes when the batch brings a linked Assumption.
func TestEvaluate_ErasureWithResolverAccepted(t *testing.T) {
	in := Input{
		OldDigest: frame.Digest{XFrontier: 1},
		NewDigest: frame.Digest{XFrontier: 0},
		Batch: []frame.Morph{
			{Op: frame.OpDelEdge, TargetEdge: &frame.EdgeKey{Src: "x1", Dst: "c1", Rel: frame.RelContradicts}},
			{Op: frame.OpAddNode, Node: &frame.Node{ID: "a1", Type: frame.NodeAssumption, Weight: 0.7}},
			{Op: frame.OpAddEdge, Edge: &frame.Edge{Src: "a1", Dst: "c1", Rel: frame.RelUpdates, Weight: 0.7}},
		},
	}
	assert.NoError(t, Evaluate(in, DefaultPolicy()))
}

// TestEvaluate_ErasureUnlinkedResolverRejected tests that an Assumption
// added without any linking edge does not excuse the drop.
func TestEvaluate_ErasureUnlinkedResolverRejected(t *testing.T) {
	in := Input{
		OldDigest: frame.Digest{XFrontier: 1},
		NewDigest: frame.Digest{XFrontier: 0},
		Batch: []frame.Morph{
			{Op: frame.OpDelEdge, TargetEdge: &frame.EdgeKey{Src: "x1", Dst: "c1", Rel: frame.RelContradicts}},
			{Op: frame.OpAddNode, Node: &frame.Node{ID: "a1", Type: frame.NodeAssumption, Weight: 0.7}},
		},
	}
	err := Evaluate(in, DefaultPolicy())
	v, ok := IsViolation(err)
	require.True(t, ok)
	assert.Equal(t, RuleSilentErasure, v.Rule)
}

// TestEvaluate_DriftSpike tests rejection of an unexplained holonomy
// spike.
func TestEvaluate_DriftSpike(t *testing.T) {
	in := Input{
		DeltaHol: 3.5,
		Batch: []frame.Morph{
			{Op: frame.OpReweight, ID: "c1", Weight: func() *float64 { w := 0.1; return &w }()},
		},
	}
	err := Evaluate(in, DefaultPolicy())
	v, ok := IsViolation(err)
	require.True(t, ok)
	assert.Equal(t, RuleDriftSpike, v.Rule)
	assert.Equal(t, 3.5, v.Value)
	assert.Equal(t, 2.0, v.Threshold)
}

// TestEvaluate_DriftExplained tests that the same spike passes when the
// batch adds a node wired in by a new edge.
func TestEvaluate_DriftExplained(t *testing.T) {
	in := Input{
		DeltaHol: 3.5,
		Batch: []frame.Morph{
			{Op: frame.OpAddNode, Node: &frame.Node{ID: "e9", Type: frame.NodeEvidence, Weight: 0.9}},
			{Op: frame.OpAddEdge, Edge: &frame.Edge{Src: "e9", Dst: "c1", Rel: frame.RelSupports, Weight: 0.9}},
		},
	}
	assert.NoError(t, Evaluate(in, DefaultPolicy()))
}

// TestEvaluate_TunedCapOverride tests that a per-stream tuned cap
// replaces the policy threshold.
func TestEvaluate_TunedCapOverride(t *testing.T) {
	in := Input{DeltaHol: 2.5, DeltaHolCap: 3.0}
	assert.NoError(t, Evaluate(in, DefaultPolicy()), "under the tuned cap")

	in = Input{DeltaHol: 1.5, DeltaHolCap: 1.0}
	err := Evaluate(in, DefaultPolicy())
	v, ok := IsViolation(err)
	require.True(t, ok)
	assert.Equal(t, RuleDriftSpike, v.Rule)
	assert.Equal(t, 1.0, v.Threshold, "tuned cap tightens below the default")
}

// TestEvaluate_GeometryCaps tests fail-closed enforcement of each
// geometry metric.
func TestEvaluate_GeometryCaps(t *testing.T) {
	cases := []struct {
		name   string
		report GeometryReport
		detail string
	}{
		{"spectral", GeometryReport{SpectralMax: 2.01}, "spectral_max"},
		{"orthogonality", GeometryReport{OrthogonalityError: 0.09}, "orthogonality_error"},
		{"lipschitz", GeometryReport{LipschitzBudgetUsed: 0.81}, "lipschitz_budget_used"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Input{Geometry: &tc.report}
			err := Evaluate(in, DefaultPolicy())
			v, ok := IsViolation(err)
			require.True(t, ok)
			assert.Equal(t, RuleGeometryCap, v.Rule)
			assert.Equal(t, tc.detail, v.Detail)
		})
	}
}

// TestEvaluate_GeometryAbsent tests that submissions without a report
// skip the geometry rules entirely.
func TestEvaluate_GeometryAbsent(t *testing.T) {
	in := Input{Geometry: nil}
	assert.NoError(t, Evaluate(in, DefaultPolicy()))
}

// TestEvaluate_GeometryAtCaps tests that metrics exactly at the caps
// are admissible.
func TestEvaluate_GeometryAtCaps(t *testing.T) {
	in := Input{Geometry: &GeometryReport{
		SpectralMax:         DefaultSpectralMax,
		OrthogonalityError:  DefaultOrthogonalityError,
		LipschitzBudgetUsed: DefaultLipschitzBudgetUsed,
	}}
	assert.NoError(t, Evaluate(in, DefaultPolicy()))
}

// TestUtilization tests that the worst fractional cap usage wins.
func TestUtilization(t *testing.T) {
	pol := DefaultPolicy()

	in := Input{NewDigest: frame.Digest{CyclePlus: 2}, DeltaHol: 0.4}
	assert.InDelta(t, 0.5, Utilization(in, pol), 1e-12, "2 of 4 cycles dominates 0.4 of 2.0 drift")

	in = Input{NewDigest: frame.Digest{CyclePlus: 1}, DeltaHol: 1.8}
	assert.InDelta(t, 0.9, Utilization(in, pol), 1e-12, "drift dominates")

	in = Input{DeltaHol: 1.0, Geometry: &GeometryReport{LipschitzBudgetUsed: 0.79}}
	assert.InDelta(t, 0.79/0.80, Utilization(in, pol), 1e-12, "geometry dominates")
}

// TestUtilization_ExplainedDriftExcluded tests that a drift carried by
// a new linked node does not count as residual cap stress.
func TestUtilization_ExplainedDriftExcluded(t *testing.T) {
	in := Input{
		DeltaHol: 500.0,
		Batch: []frame.Morph{
			{Op: frame.OpAddNode, Node: &frame.Node{ID: "e1", Type: frame.NodeEvidence, Weight: 0.9}},
			{Op: frame.OpAddEdge, Edge: &frame.Edge{Src: "e1", Dst: "c1", Rel: frame.RelSupports, Weight: 0.9}},
		},
	}
	assert.Equal(t, 0.0, Utilization(in, DefaultPolicy()))
}

// TestUtilization_DelSuspectFloorsAmber tests the advisory on suspect
// deletions: an otherwise quiet commit is floored into the amber band,
// while a worse enforced metric still wins.
func TestUtilization_DelSuspectFloorsAmber(t *testing.T) {
	pol := DefaultPolicy()

	in := Input{DelSuspect: true, DeltaHol: 0.1}
	assert.InDelta(t, 0.75, Utilization(in, pol), 1e-12, "floored, not rejected")
	assert.NoError(t, Evaluate(in, pol), "advisory only")

	in = Input{DelSuspect: true, NewDigest: frame.Digest{CyclePlus: 4}}
	assert.InDelta(t, 1.0, Utilization(in, pol), 1e-12, "cycle utilization dominates the floor")
}

// TestUtilization_TunedCap tests that utilization uses the tuned cap
// when one is set.
func TestUtilization_TunedCap(t *testing.T) {
	in := Input{DeltaHol: 1.0, DeltaHolCap: 4.0}
	assert.InDelta(t, 0.25, Utilization(in, DefaultPolicy()), 1e-12)
}
