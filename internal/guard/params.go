package guard

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// TunedParams is the learned-override file written by calibration:
// per-stream holonomy caps derived from accepted receipt history.
type TunedParams struct {
	// DeltaHolCaps maps stream id to a learned spike threshold.
	DeltaHolCaps map[string]float64 `yaml:"delta_hol_caps"`
}

// ParamsCache reads tuned params with an mtime-aware TTL cache, so a
// freshly calibrated file takes effect without a restart and an
// unchanged file costs one stat per TTL window.
//
// Missing or corrupt files degrade to "no overrides" — calibration is
// advisory, the policy defaults always stand behind it.
type ParamsCache struct {
	path string
	ttl  time.Duration

	mu      sync.Mutex
	checked time.Time
	mtime   time.Time
	data    TunedParams
}

// NewParamsCache creates a cache over the given params file path.
// A zero ttl defaults to one minute.
func NewParamsCache(path string, ttl time.Duration) *ParamsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ParamsCache{path: path, ttl: ttl}
}

// DeltaHolCap returns the tuned spike threshold for the stream, or the
// fallback when no override exists.
func (c *ParamsCache) DeltaHolCap(streamID string, fallback float64) float64 {
	if c == nil {
		return fallback
	}
	params := c.load()
	if tuned, ok := params.DeltaHolCaps[streamID]; ok && tuned > 0 {
		return tuned
	}
	return fallback
}

func (c *ParamsCache) load() TunedParams {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	info, statErr := os.Stat(c.path)
	var mtime time.Time
	if statErr == nil {
		mtime = info.ModTime()
	}
	if now.Sub(c.checked) < c.ttl && mtime.Equal(c.mtime) {
		return c.data
	}
	c.checked = now
	c.mtime = mtime

	if statErr != nil {
		c.data = TunedParams{}
		return c.data
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		c.data = TunedParams{}
		return c.data
	}
	var params TunedParams
	if err := yaml.Unmarshal(raw, &params); err != nil {
		c.data = TunedParams{}
		return c.data
	}
	c.data = params
	return c.data
}
