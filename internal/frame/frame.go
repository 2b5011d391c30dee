package frame

import (
	"encoding/json"
	"fmt"
)

// Frame is a versioned snapshot of one agent stream's reasoning graph.
//
// Lifecycle: created at stream start (empty or seeded), mutated only via
// accepted morph batches (each producing a new version with TLogical
// advanced), retained for holonomy comparison, then evicted by the store's
// retention policy.
//
// Nodes keep insertion order for stable wire output; digest computation
// treats both containers as sets keyed by id.
type Frame struct {
	StreamID string `json:"stream_id"`
	TLogical int64  `json:"t_logical"`
	Gauge    Gauge  `json:"gauge"`
	Units    string `json:"units"`

	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	Digest Digest `json:"digest"`

	// Morphs is the append-only log of operations applied to reach this
	// state. Entries are referenced by index, never mutated in place.
	Morphs []Morph `json:"morphs,omitempty"`

	// Aliases maps retired node ids (from merge morphs) to the id that
	// absorbed them, for back-reference by old id.
	Aliases map[string]string `json:"aliases,omitempty"`

	Telem     Telemetry `json:"telem"`
	Signature string    `json:"signature,omitempty"`
}

// New creates an empty frame for a stream at logical time zero.
func New(streamID string, gauge Gauge, units string) *Frame {
	return &Frame{
		StreamID: streamID,
		TLogical: 0,
		Gauge:    gauge,
		Units:    units,
	}
}

// Clone returns a deep copy. Morph application works on clones so that a
// failed batch never leaves partial state behind.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Nodes = append([]Node(nil), f.Nodes...)
	c.Edges = append([]Edge(nil), f.Edges...)
	c.Morphs = append([]Morph(nil), f.Morphs...)
	if f.Aliases != nil {
		c.Aliases = make(map[string]string, len(f.Aliases))
		for k, v := range f.Aliases {
			c.Aliases[k] = v
		}
	}
	return &c
}

// NodeByID returns the node with the given id.
func (f *Frame) NodeByID(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given id exists.
func (f *Frame) HasNode(id string) bool {
	_, ok := f.NodeByID(id)
	return ok
}

// HasEdge reports whether an edge with the given identity exists.
func (f *Frame) HasEdge(k EdgeKey) bool {
	for _, e := range f.Edges {
		if e.Key() == k {
			return true
		}
	}
	return false
}

// EdgesByRel returns all edges with the given relation, in container order.
func (f *Frame) EdgesByRel(rel EdgeRel) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Rel == rel {
			out = append(out, e)
		}
	}
	return out
}

// OutEdges returns all edges whose src is the given node.
func (f *Frame) OutEdges(id string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Src == id {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns all edges whose dst is the given node.
func (f *Frame) InEdges(id string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Dst == id {
			out = append(out, e)
		}
	}
	return out
}

// IncidentEdges returns all edges touching the given node.
func (f *Frame) IncidentEdges(id string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Src == id || e.Dst == id {
			out = append(out, e)
		}
	}
	return out
}

// Neighbors returns the distinct ids adjacent to the given node (either
// direction), in first-encounter order over the edge container.
func (f *Frame) Neighbors(id string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		if n != id && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, e := range f.Edges {
		if e.Src == id {
			add(e.Dst)
		}
		if e.Dst == id {
			add(e.Src)
		}
	}
	return out
}

// Validate checks structural well-formedness:
//   - stream id present, gauge and every node/edge enum defined
//   - weights in [0,1]
//   - node ids unique within the frame
//   - no self-loop edges
//   - every edge endpoint references an existing node
//
// Shape problems return *SchemaError; dangling endpoints return
// *ReferentialError. Nothing is repaired.
func (f *Frame) Validate() error {
	if f.StreamID == "" {
		return &SchemaError{Field: "stream_id", Detail: "must be non-empty"}
	}
	if f.TLogical < 0 {
		return &SchemaError{Field: "t_logical", Detail: "must be non-negative"}
	}
	if !f.Gauge.Valid() {
		return &SchemaError{Field: "gauge", Detail: fmt.Sprintf("unknown gauge %q", f.Gauge)}
	}
	ids := make(map[string]bool, len(f.Nodes))
	for i, n := range f.Nodes {
		if n.ID == "" {
			return &SchemaError{Field: fmt.Sprintf("nodes[%d].id", i), Detail: "must be non-empty"}
		}
		if !n.Type.Valid() {
			return &SchemaError{Field: fmt.Sprintf("nodes[%d].type", i), Detail: fmt.Sprintf("unknown node type %q", n.Type)}
		}
		if n.Weight < 0 || n.Weight > 1 {
			return &SchemaError{Field: fmt.Sprintf("nodes[%d].weight", i), Detail: fmt.Sprintf("%v outside [0,1]", n.Weight)}
		}
		if ids[n.ID] {
			return &SchemaError{Field: "nodes", Detail: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		ids[n.ID] = true
	}
	edgeKeys := make(map[EdgeKey]bool, len(f.Edges))
	for i, e := range f.Edges {
		if !e.Rel.Valid() {
			return &SchemaError{Field: fmt.Sprintf("edges[%d].rel", i), Detail: fmt.Sprintf("unknown relation %q", e.Rel)}
		}
		if e.Weight < 0 || e.Weight > 1 {
			return &SchemaError{Field: fmt.Sprintf("edges[%d].weight", i), Detail: fmt.Sprintf("%v outside [0,1]", e.Weight)}
		}
		if e.Src == e.Dst {
			return &SchemaError{Field: fmt.Sprintf("edges[%d]", i), Detail: fmt.Sprintf("self-loop on %q", e.Src)}
		}
		if !ids[e.Src] {
			return &ReferentialError{Edge: e.Key(), Missing: e.Src}
		}
		if !ids[e.Dst] {
			return &ReferentialError{Edge: e.Key(), Missing: e.Dst}
		}
		k := e.Key()
		if edgeKeys[k] {
			return &SchemaError{Field: "edges", Detail: fmt.Sprintf("duplicate edge %s", k)}
		}
		edgeKeys[k] = true
	}
	return nil
}

// Parse decodes a frame from JSON and validates it. Decode errors are
// wrapped as *SchemaError so callers get one taxonomy for malformed input.
func Parse(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &SchemaError{Field: "frame", Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
