package frame

import "fmt"

// Op tags a single graph-editing operation. Morph batches are the only
// way a frame changes; there is no other mutation path.
type Op string

const (
	OpAddNode  Op = "add_node"
	OpAddEdge  Op = "add_edge"
	OpDelNode  Op = "del_node"
	OpDelEdge  Op = "del_edge"
	OpRetype   Op = "retype"
	OpReweight Op = "reweight"
	OpMerge    Op = "merge"
	OpSplit    Op = "split"
	OpHomotopy Op = "homotopy"
)

// Ops lists every defined operation tag.
var Ops = []Op{
	OpAddNode, OpAddEdge, OpDelNode, OpDelEdge, OpRetype,
	OpReweight, OpMerge, OpSplit, OpHomotopy,
}

// Valid reports whether o is one of the defined operation tags.
func (o Op) Valid() bool {
	for _, k := range Ops {
		if o == k {
			return true
		}
	}
	return false
}

// Morph is one tagged graph-editing operation. Exactly the payload
// fields required by the op are set; Validate enforces this per tag:
//
//	add_node:  Node
//	add_edge:  Edge
//	del_node:  ID
//	del_edge:  TargetEdge
//	retype:    ID, NewType
//	reweight:  Weight and exactly one of ID / TargetEdge
//	merge:     IDs (two node ids; the lexicographically smaller survives)
//	split:     ID, IntoIDs (two new ids), Partition (edge key -> new id)
//	homotopy:  Ops (retype/reweight sub-operations, applied atomically)
type Morph struct {
	Op Op `json:"op"`

	Node       *Node             `json:"node,omitempty"`
	Edge       *Edge             `json:"edge,omitempty"`
	ID         string            `json:"id,omitempty"`
	NewType    NodeType          `json:"new_type,omitempty"`
	Weight     *float64          `json:"weight,omitempty"`
	TargetEdge *EdgeKey          `json:"target_edge,omitempty"`
	IDs        []string          `json:"ids,omitempty"`
	IntoIDs    []string          `json:"into_ids,omitempty"`
	Partition  map[string]string `json:"partition,omitempty"`
	Ops        []Morph           `json:"ops,omitempty"`
	Note       string            `json:"note,omitempty"`
}

// Validate checks that the morph carries the payload its tag requires.
// It does not check the payload against any particular frame; that is
// the applier's job.
func (m Morph) Validate() error {
	if !m.Op.Valid() {
		return &SchemaError{Field: "morph.op", Detail: fmt.Sprintf("unknown op %q", m.Op)}
	}
	switch m.Op {
	case OpAddNode:
		if m.Node == nil {
			return &SchemaError{Field: "morph.node", Detail: "add_node requires node"}
		}
	case OpAddEdge:
		if m.Edge == nil {
			return &SchemaError{Field: "morph.edge", Detail: "add_edge requires edge"}
		}
	case OpDelNode:
		if m.ID == "" {
			return &SchemaError{Field: "morph.id", Detail: "del_node requires id"}
		}
	case OpDelEdge:
		if m.TargetEdge == nil {
			return &SchemaError{Field: "morph.target_edge", Detail: "del_edge requires target_edge"}
		}
	case OpRetype:
		if m.ID == "" || !m.NewType.Valid() {
			return &SchemaError{Field: "morph", Detail: "retype requires id and new_type"}
		}
	case OpReweight:
		if m.Weight == nil {
			return &SchemaError{Field: "morph.weight", Detail: "reweight requires weight"}
		}
		if (m.ID == "") == (m.TargetEdge == nil) {
			return &SchemaError{Field: "morph", Detail: "reweight requires exactly one of id or target_edge"}
		}
	case OpMerge:
		if len(m.IDs) != 2 || m.IDs[0] == m.IDs[1] {
			return &SchemaError{Field: "morph.ids", Detail: "merge requires two distinct ids"}
		}
	case OpSplit:
		if m.ID == "" || len(m.IntoIDs) != 2 || m.IntoIDs[0] == m.IntoIDs[1] {
			return &SchemaError{Field: "morph", Detail: "split requires id and two distinct into_ids"}
		}
	case OpHomotopy:
		if len(m.Ops) == 0 {
			return &SchemaError{Field: "morph.ops", Detail: "homotopy requires at least one sub-operation"}
		}
		for i, sub := range m.Ops {
			if sub.Op != OpRetype && sub.Op != OpReweight {
				return &SchemaError{Field: fmt.Sprintf("morph.ops[%d]", i), Detail: fmt.Sprintf("homotopy admits only retype/reweight, got %q", sub.Op)}
			}
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
