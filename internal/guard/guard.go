package guard

import (
	"errors"
	"fmt"

	"github.com/openline-proto/openline/internal/frame"
)

// RuleID identifies a guard rule in verdicts and violations.
type RuleID string

const (
	RuleCycleCap      RuleID = "CYCLE_CAP_EXCEEDED"
	RuleSilentErasure RuleID = "SILENT_CONTRADICTION_ERASURE"
	RuleDriftSpike    RuleID = "UNEXPLAINED_DRIFT_SPIKE"
	RuleGeometryCap   RuleID = "GEOMETRY_CAP_BREACH"
)

// delSuspectUtilization is the floor Utilization reports for a commit
// whose batch removed a contradiction resolver or contradicts edge
// without replacement. It sits inside the amber band: the commit is
// admissible but the receipt must not read clean.
const delSuspectUtilization = 0.75

// Violation is a rejected commit: the specific rule, the offending
// metric value, and the threshold it crossed.
type Violation struct {
	Rule      RuleID
	Value     float64
	Threshold float64
	Detail    string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("guard violation %s: %.4g exceeds threshold %.4g (%s)", v.Rule, v.Value, v.Threshold, v.Detail)
}

// IsViolation reports whether err is (or wraps) a *Violation, returning
// it for inspection.
func IsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Input is everything the guard pass sees for one committed batch.
type Input struct {
	Old       *frame.Frame
	New       *frame.Frame
	OldDigest frame.Digest
	NewDigest frame.Digest
	DeltaHol  float64
	Batch     []frame.Morph

	// DelSuspect is the applier's silent-deletion flag. It is advisory:
	// no rule rejects on it, but Utilization floors a suspect commit at
	// amber.
	DelSuspect bool

	// Geometry carries measured geometry-audit metrics, when the
	// deployment runs that variant. Nil skips the geometry caps.
	Geometry *GeometryReport

	// DeltaHolCap overrides the policy spike threshold when positive
	// (tuned per-stream cap from calibration).
	DeltaHolCap float64
}

// Evaluate runs the guard rules in order and returns nil on acceptance
// or the first *Violation. Rules are independently checkable; order is
// fixed for reproducible verdicts.
func Evaluate(in Input, pol Policy) error {
	if v := checkCycleCap(in, pol); v != nil {
		return v
	}
	if v := checkSilentErasure(in); v != nil {
		return v
	}
	if v := checkDriftSpike(in, pol); v != nil {
		return v
	}
	if v := checkGeometryCaps(in, pol); v != nil {
		return v
	}
	return nil
}

func checkCycleCap(in Input, pol Policy) *Violation {
	if in.NewDigest.CyclePlus > pol.CycleCap {
		return &Violation{
			Rule:      RuleCycleCap,
			Value:     float64(in.NewDigest.CyclePlus),
			Threshold: float64(pol.CycleCap),
			Detail:    "self-reinforcing support loop",
		}
	}
	return nil
}

// checkSilentErasure rejects any batch that lowers x_frontier without
// adding an Assumption/Counter linked to the graph. Deletion alone must
// never lower the contradiction frontier.
func checkSilentErasure(in Input) *Violation {
	if in.NewDigest.XFrontier >= in.OldDigest.XFrontier {
		return nil
	}
	if addsLinkedResolver(in.Batch) {
		return nil
	}
	return &Violation{
		Rule:      RuleSilentErasure,
		Value:     float64(in.NewDigest.XFrontier),
		Threshold: float64(in.OldDigest.XFrontier),
		Detail:    "x_frontier lowered with no resolving Assumption/Counter in batch",
	}
}

// checkDriftSpike rejects a holonomy gap above the spike threshold when
// the batch contains no new node explaining the change — heuristically,
// no node added together with an edge wiring it into the graph.
func checkDriftSpike(in Input, pol Policy) *Violation {
	limit := pol.DeltaHolCap
	if in.DeltaHolCap > 0 {
		limit = in.DeltaHolCap
	}
	if in.DeltaHol <= limit {
		return nil
	}
	if addsExplainingNode(in.Batch) {
		return nil
	}
	return &Violation{
		Rule:      RuleDriftSpike,
		Value:     in.DeltaHol,
		Threshold: limit,
		Detail:    "holonomy gap spiked with no explanatory node in batch",
	}
}

// checkGeometryCaps enforces the fail-closed numeric caps of the
// geometry-audit variant. Any breach rejects the commit.
func checkGeometryCaps(in Input, pol Policy) *Violation {
	g := in.Geometry
	if g == nil {
		return nil
	}
	if g.SpectralMax > pol.Geometry.SpectralMax {
		return &Violation{Rule: RuleGeometryCap, Value: g.SpectralMax, Threshold: pol.Geometry.SpectralMax, Detail: "spectral_max"}
	}
	if g.OrthogonalityError > pol.Geometry.OrthogonalityError {
		return &Violation{Rule: RuleGeometryCap, Value: g.OrthogonalityError, Threshold: pol.Geometry.OrthogonalityError, Detail: "orthogonality_error"}
	}
	if g.LipschitzBudgetUsed > pol.Geometry.LipschitzBudgetUsed {
		return &Violation{Rule: RuleGeometryCap, Value: g.LipschitzBudgetUsed, Threshold: pol.Geometry.LipschitzBudgetUsed, Detail: "lipschitz_budget_used"}
	}
	return nil
}

// Utilization returns the worst cap utilization across all enforced
// rules for this input, as a fraction of the threshold. The receipt
// composer classifies status from this number.
//
// An explained drift (the batch carries a new linked node) does not
// count against the spike cap, mirroring the drift rule itself: the
// gap was accounted for, so it is not residual stress.
func Utilization(in Input, pol Policy) float64 {
	worst := 0.0
	note := func(value, threshold float64) {
		if threshold <= 0 {
			return
		}
		if u := value / threshold; u > worst {
			worst = u
		}
	}
	note(float64(in.NewDigest.CyclePlus), float64(pol.CycleCap))
	if !addsExplainingNode(in.Batch) {
		holCap := pol.DeltaHolCap
		if in.DeltaHolCap > 0 {
			holCap = in.DeltaHolCap
		}
		note(in.DeltaHol, holCap)
	}
	if g := in.Geometry; g != nil {
		note(g.SpectralMax, pol.Geometry.SpectralMax)
		note(g.OrthogonalityError, pol.Geometry.OrthogonalityError)
		note(g.LipschitzBudgetUsed, pol.Geometry.LipschitzBudgetUsed)
	}
	if in.DelSuspect && worst < delSuspectUtilization {
		worst = delSuspectUtilization
	}
	return worst
}

// addsLinkedResolver reports whether the batch adds an Assumption or
// Counter node and a new edge linking it to the graph.
func addsLinkedResolver(batch []frame.Morph) bool {
	added := make(map[string]bool)
	for _, m := range flatten(batch) {
		if m.Op == frame.OpAddNode && m.Node != nil &&
			(m.Node.Type == frame.NodeAssumption || m.Node.Type == frame.NodeCounter) {
			added[m.Node.ID] = true
		}
	}
	if len(added) == 0 {
		return false
	}
	for _, m := range flatten(batch) {
		if m.Op == frame.OpAddEdge && m.Edge != nil && (added[m.Edge.Src] || added[m.Edge.Dst]) {
			return true
		}
	}
	return false
}

// addsExplainingNode reports whether any node added in the batch is
// wired into the moved subgraph by an edge added in the same batch.
func addsExplainingNode(batch []frame.Morph) bool {
	added := make(map[string]bool)
	for _, m := range flatten(batch) {
		if m.Op == frame.OpAddNode && m.Node != nil {
			added[m.Node.ID] = true
		}
	}
	if len(added) == 0 {
		return false
	}
	for _, m := range flatten(batch) {
		if m.Op == frame.OpAddEdge && m.Edge != nil && (added[m.Edge.Src] || added[m.Edge.Dst]) {
			return true
		}
	}
	return false
}

func flatten(batch []frame.Morph) []frame.Morph {
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
