package telemetry

import (
	"math"

	"github.com/openline-proto/openline/internal/frame"
)

// kappa gain and mixing weights. rho blends contradiction density,
// normalized depth, and frontier pressure; the coherence pair damps it.
const (
	kappaGain     = 1.4
	rhoContraMix  = 0.45
	rhoDepthMix   = 0.35
	rhoFrontMix   = 0.20
	coherenceMixA = 0.45
	coherenceMixB = 0.45
	coherenceBias = 0.10
	depthScale    = 8.0
)

// sigma is the numerically stable logistic function.
func sigma(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}

// kappaEff is the effective stress of the committed state: high when
// contradictions are dense and chains are deep, damped when the
// coherence pair is healthy.
func kappaEff(f *frame.Frame, d frame.Digest, pTopo, pSem float64) float64 {
	contra := 0
	for _, e := range f.Edges {
		if e.Rel == frame.RelContradicts {
			contra++
		}
	}
	contraDensity := 0.0
	if len(f.Edges) > 0 {
		contraDensity = float64(contra) / float64(len(f.Edges))
	}
	normDepth := math.Min(1, float64(d.Depth)/depthScale)
	frontier := 0.0
	if len(f.Nodes) > 0 {
		frontier = math.Min(1, float64(d.XFrontier)/float64(len(f.Nodes)))
	}

	rho := rhoContraMix*contraDensity + rhoDepthMix*normDepth + rhoFrontMix*frontier
	sStar := math.Max(1e-3, coherenceMixA*pTopo+coherenceMixB*pSem+coherenceBias)
	return sigma(kappaGain * rho / sStar)
}
