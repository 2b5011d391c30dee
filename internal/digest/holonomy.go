package digest

import (
	"math"

	"github.com/openline-proto/openline/internal/frame"
)

// Delta is the holonomy gap between two digests: the L1 distance across
// the five fields. It is symmetric, zero iff the digests are identical,
// and satisfies the triangle inequality.
//
// The gap is an input to the guard engine's drift rule only; it is never
// persisted as frame state.
func Delta(pre, post frame.Digest) float64 {
	return math.Abs(float64(post.B0-pre.B0)) +
		math.Abs(float64(post.CyclePlus-pre.CyclePlus)) +
		math.Abs(float64(post.XFrontier-pre.XFrontier)) +
		math.Abs(post.SOverC-pre.SOverC) +
		math.Abs(float64(post.Depth-pre.Depth))
}
