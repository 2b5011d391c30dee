package digest

import (
	"sort"

	"github.com/openline-proto/openline/internal/frame"
)

// contradictionFloor substitutes for a zero contradiction mass in the
// s_over_c ratio, keeping the result a large finite number rather than
// +Inf or NaN.
const contradictionFloor = 1e-6

// maxCycleCount bounds elementary-cycle enumeration. Guards cap
// cycle_plus at single digits; past this bound the exact count carries
// no additional signal.
const maxCycleCount = 1024

// Compute derives the digest from the frame's current node/edge set.
// The frame must already be validated; Compute assumes referential
// integrity and unique ids.
func Compute(f *frame.Frame) frame.Digest {
	ids := sortedNodeIDs(f)
	return frame.Digest{
		B0:        components(f, ids),
		CyclePlus: reinforcingCycles(f, ids),
		XFrontier: contradictionFrontier(f, ids),
		SOverC:    supportRatio(f),
		Depth:     dependencyDepth(f, ids),
	}
}

func sortedNodeIDs(f *frame.Frame) []string {
	ids := make([]string, len(f.Nodes))
	for i, n := range f.Nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)
	return ids
}

// supportRatio is the sum of weights on reinforcing edges over the sum
// of weights on contradicts edges, floored when the denominator is zero.
func supportRatio(f *frame.Frame) float64 {
	var s, c float64
	for _, e := range f.Edges {
		switch {
		case e.Rel.Reinforcing():
			s += e.Weight
		case e.Rel == frame.RelContradicts:
			c += e.Weight
		}
	}
	if c == 0 {
		c = contradictionFloor
	}
	return s / c
}
