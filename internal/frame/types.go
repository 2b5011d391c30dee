package frame

import "fmt"

// Gauge selects the coordinate regime a frame is expressed in.
type Gauge string

const (
	// GaugeSym is the symbolic-only regime.
	GaugeSym Gauge = "sym"
	// GaugeEmb is the embedding/continuous-coordinate regime.
	GaugeEmb Gauge = "emb"
)

// Valid reports whether g is one of the defined gauges.
func (g Gauge) Valid() bool {
	return g == GaugeSym || g == GaugeEmb
}

// NodeType classifies a node's role in the reasoning graph.
type NodeType string

const (
	NodeClaim      NodeType = "Claim"
	NodeEvidence   NodeType = "Evidence"
	NodeCounter    NodeType = "Counter"
	NodeAssumption NodeType = "Assumption"
	NodeConstraint NodeType = "Constraint"
	NodePlanStep   NodeType = "PlanStep"
	NodeOutcome    NodeType = "Outcome"
	NodePrinciple  NodeType = "Principle"
	NodeMotif      NodeType = "Motif"
)

// NodeTypes lists every defined node type, in wire-declaration order.
var NodeTypes = []NodeType{
	NodeClaim, NodeEvidence, NodeCounter, NodeAssumption, NodeConstraint,
	NodePlanStep, NodeOutcome, NodePrinciple, NodeMotif,
}

// Valid reports whether t is one of the defined node types.
func (t NodeType) Valid() bool {
	for _, k := range NodeTypes {
		if t == k {
			return true
		}
	}
	return false
}

// EdgeRel classifies a directed relation between two nodes.
type EdgeRel string

const (
	RelSupports     EdgeRel = "supports"
	RelContradicts  EdgeRel = "contradicts"
	RelDependsOn    EdgeRel = "depends_on"
	RelDerives      EdgeRel = "derives"
	RelUpdates      EdgeRel = "updates"
	RelInstantiates EdgeRel = "instantiates"
	RelIllustrates  EdgeRel = "illustrates"
)

// EdgeRels lists every defined relation, in wire-declaration order.
var EdgeRels = []EdgeRel{
	RelSupports, RelContradicts, RelDependsOn, RelDerives,
	RelUpdates, RelInstantiates, RelIllustrates,
}

// Valid reports whether r is one of the defined relations.
func (r EdgeRel) Valid() bool {
	for _, k := range EdgeRels {
		if r == k {
			return true
		}
	}
	return false
}

// Reinforcing reports whether r is a reinforcing relation. Cycles made
// of reinforcing edges are "proving itself with itself" loops and feed
// the cycle_plus digest field.
func (r EdgeRel) Reinforcing() bool {
	return r == RelSupports || r == RelDerives
}

// Resolving reports whether an edge with this relation can discharge a
// contradiction against its destination. A contradicts edge never
// resolves: the objection it carries IS the live contradiction.
func (r EdgeRel) Resolving() bool {
	return r == RelSupports || r == RelUpdates
}

// Node is a typed, weighted vertex of the reasoning graph.
// Nodes are exclusively owned by the frame that contains them.
type Node struct {
	ID     string   `json:"id"`
	Type   NodeType `json:"type"`
	Label  string   `json:"label,omitempty"`
	Weight float64  `json:"weight"`
}

// Edge is a directed, typed, weighted relation between two nodes of the
// same frame. Self-loops are forbidden: they produce degenerate support
// cycles.
type Edge struct {
	Src    string  `json:"src"`
	Dst    string  `json:"dst"`
	Rel    EdgeRel `json:"rel"`
	Weight float64 `json:"weight"`
}

// Key returns the identity of the edge. Two edges with equal keys are
// the same edge regardless of weight.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Src: e.Src, Dst: e.Dst, Rel: e.Rel}
}

// EdgeKey identifies an edge by (src, rel, dst). Weight is not part of
// edge identity.
type EdgeKey struct {
	Src string  `json:"src"`
	Dst string  `json:"dst"`
	Rel EdgeRel `json:"rel"`
}

// String encodes the key as "src|rel|dst". Used for split partition
// maps and diagnostics.
func (k EdgeKey) String() string {
	return k.Src + "|" + string(k.Rel) + "|" + k.Dst
}

// ParseEdgeKey decodes a "src|rel|dst" string produced by EdgeKey.String.
func ParseEdgeKey(s string) (EdgeKey, error) {
	var k EdgeKey
	first, rest := -1, -1
	for i := 0; i < len(s); i++ {
		if s[i] != '|' {
			continue
		}
		if first < 0 {
			first = i
		} else {
			rest = i
			break
		}
	}
	if first < 0 || rest < 0 {
		return k, fmt.Errorf("malformed edge key %q: want src|rel|dst", s)
	}
	k.Src = s[:first]
	k.Rel = EdgeRel(s[first+1 : rest])
	k.Dst = s[rest+1:]
	if k.Src == "" || k.Dst == "" || !k.Rel.Valid() {
		return k, fmt.Errorf("malformed edge key %q: want src|rel|dst", s)
	}
	return k, nil
}

// Digest is the 5-number structural fingerprint of a frame.
//
// Digests are always derived: a client may attach one to a submission,
// but the authoritative value is the one the digest engine recomputes
// on the bus side.
type Digest struct {
	// B0 is the number of connected components, treating every edge as
	// undirected.
	B0 int `json:"b0"`
	// CyclePlus is the number of elementary cycles in the subgraph of
	// reinforcing (supports/derives) edges.
	CyclePlus int `json:"cycle_plus"`
	// XFrontier is the number of distinct nodes with at least one
	// unresolved contradicts edge pointing at them.
	XFrontier int `json:"x_frontier"`
	// SOverC is the support:contradiction weight-sum ratio.
	SOverC float64 `json:"s_over_c"`
	// Depth is the longest dependency chain (depends_on/derives),
	// measured in edges.
	Depth int `json:"depth"`
}

// Equal reports whether two digests are bit-identical.
func (d Digest) Equal(o Digest) bool {
	return d == o
}

// Telemetry carries the advisory runtime dials derived alongside a
// digest. These are signals, not guard inputs, unless a deployment
// explicitly wires one into an additional guard.
type Telemetry struct {
	PhiSem           float64 `json:"phi_sem"`
	PhiTopo          float64 `json:"phi_topo"`
	DeltaHol         float64 `json:"delta_hol"`
	KappaEff         float64 `json:"kappa_eff"`
	Commutator       float64 `json:"commutator"`
	EvidenceStrength float64 `json:"evidence_strength"`
	DelSuspect       bool    `json:"del_suspect"`
	CostTokens       int64   `json:"cost_tokens"`
	DADrift          float64 `json:"da_drift"`
}
