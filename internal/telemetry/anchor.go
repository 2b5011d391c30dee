package telemetry

import (
	"math"
	"sync"

	"github.com/openline-proto/openline/internal/frame"
)

// DefaultAnchorAlpha is the EWMA smoothing factor for drift anchors.
const DefaultAnchorAlpha = 0.2

// DriftAnchor tracks an exponentially-weighted moving average of
// digests per similarity bucket and reports how far each new digest
// sits from its bucket's average (da_drift).
//
// Bucketing policy is the caller's concern; the anchor only keys on the
// bucket string it is handed.
type DriftAnchor struct {
	alpha float64

	mu      sync.Mutex
	buckets map[string][5]float64
}

// NewDriftAnchor creates an anchor with the given smoothing factor.
// Alpha outside (0,1] falls back to DefaultAnchorAlpha.
func NewDriftAnchor(alpha float64) *DriftAnchor {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAnchorAlpha
	}
	return &DriftAnchor{alpha: alpha, buckets: make(map[string][5]float64)}
}

// Observe reports the L1 distance between the digest and the bucket's
// current EWMA, then folds the digest into the average. The first
// observation of a bucket seeds the average and reports zero drift.
func (a *DriftAnchor) Observe(bucket string, d frame.Digest) float64 {
	vec := [5]float64{
		float64(d.B0), float64(d.CyclePlus), float64(d.XFrontier), d.SOverC, float64(d.Depth),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	mean, seen := a.buckets[bucket]
	if !seen {
		a.buckets[bucket] = vec
		return 0
	}
	drift := 0.0
	for i := range vec {
		drift += math.Abs(vec[i] - mean[i])
		mean[i] = a.alpha*vec[i] + (1-a.alpha)*mean[i]
	}
	a.buckets[bucket] = mean
	return drift
}
