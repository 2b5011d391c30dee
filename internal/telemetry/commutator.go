package telemetry

import (
	"github.com/openline-proto/openline/internal/digest"
	"github.com/openline-proto/openline/internal/frame"
	"github.com/openline-proto/openline/internal/morph"
)

// Commutator measures order debt in a batch: for each adjacent pair of
// operations touching disjoint id sets, the batch is re-applied with
// the pair swapped and the resulting digests compared. Disjoint
// operations should commute; any pair that does not contributes to the
// returned fraction in [0,1].
//
// This is a re-entrant pure computation: every trial runs morph.Apply
// on the immutable base frame and discards the candidate.
func Commutator(base *frame.Frame, batch []frame.Morph) float64 {
	if len(batch) < 2 {
		return 0
	}
	orig, err := morph.Apply(base, batch)
	if err != nil {
		return 0
	}
	origDigest := digest.Compute(orig.Frame)

	trials, diffs := 0, 0
	for i := 0; i+1 < len(batch); i++ {
		if !disjoint(targets(batch[i]), targets(batch[i+1])) {
			continue
		}
		swapped := make([]frame.Morph, len(batch))
		copy(swapped, batch)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]

		trials++
		res, err := morph.Apply(base, swapped)
		if err != nil || !digest.Compute(res.Frame).Equal(origDigest) {
			diffs++
		}
	}
	if trials == 0 {
		return 0
	}
	return float64(diffs) / float64(trials)
}

// targets collects every node id an operation touches.
func targets(m frame.Morph) map[string]bool {
	ids := make(map[string]bool)
	add := func(id string) {
		if id != "" {
			ids[id] = true
		}
	}
	if m.Node != nil {
		add(m.Node.ID)
	}
	if m.Edge != nil {
		add(m.Edge.Src)
		add(m.Edge.Dst)
	}
	if m.TargetEdge != nil {
		add(m.TargetEdge.Src)
		add(m.TargetEdge.Dst)
	}
	add(m.ID)
	for _, id := range m.IDs {
		add(id)
	}
	for _, id := range m.IntoIDs {
		add(id)
	}
	for _, sub := range m.Ops {
		for id := range targets(sub) {
			add(id)
		}
	}
	return ids
}

func disjoint(a, b map[string]bool) bool {
	for id := range a {
		if b[id] {
			return false
		}
	}
	return true
}
