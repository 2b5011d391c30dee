package telemetry

import "github.com/openline-proto/openline/internal/frame"

// Inputs is everything one telemetry computation sees.
type Inputs struct {
	// Base is the pre-batch frame (commutator trials re-apply against it).
	Base *frame.Frame
	// New is the accepted candidate frame.
	New *frame.Frame
	// NewDigest is the recomputed digest of New.
	NewDigest frame.Digest
	// DeltaHol is the holonomy gap versus the pre-batch digest.
	DeltaHol float64
	// Batch is the committed morph batch.
	Batch []frame.Morph
	// DelSuspect is the applier's silent-deletion flag.
	DelSuspect bool
	// CostTokens is pass-through cost accounting from the submission.
	CostTokens int64
	// Bucket keys the determinism anchor; empty skips da_drift.
	Bucket string
}

// Compute derives the full telemetry record for one accepted commit.
// anchor may be nil when no determinism tracking is wired.
func Compute(in Inputs, anchor *DriftAnchor) frame.Telemetry {
	pTopo := phiTopo(in.New)
	pSem := phiSem(in.New)
	t := frame.Telemetry{
		PhiTopo:          pTopo,
		PhiSem:           pSem,
		DeltaHol:         in.DeltaHol,
		KappaEff:         kappaEff(in.New, in.NewDigest, pTopo, pSem),
		Commutator:       Commutator(in.Base, in.Batch),
		EvidenceStrength: evidenceStrength(in.New),
		DelSuspect:       in.DelSuspect,
		CostTokens:       in.CostTokens,
	}
	if anchor != nil && in.Bucket != "" {
		t.DADrift = anchor.Observe(in.Bucket, in.NewDigest)
	}
	return t
}
