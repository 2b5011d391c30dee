package guard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default caps. Cycle and drift defaults follow the protocol; geometry
// caps are the published fail-closed limits for the geometry-audit
// variant of the pipeline.
const (
	DefaultCycleCap            = 4
	DefaultDeltaHolCap         = 2.0
	DefaultSpectralMax         = 2.00
	DefaultOrthogonalityError  = 0.08
	DefaultLipschitzBudgetUsed = 0.80
)

// Policy is the rule configuration for one guard pipeline.
type Policy struct {
	// CycleCap is the maximum admissible cycle_plus.
	CycleCap int `yaml:"cycle_cap"`

	// DeltaHolCap is the holonomy spike threshold.
	DeltaHolCap float64 `yaml:"delta_hol_cap"`

	// Geometry holds the fail-closed numeric caps for the
	// geometry-audit variant.
	Geometry GeometryCaps `yaml:"geometry"`
}

// GeometryCaps are the published hard limits on geometry-audit metrics.
type GeometryCaps struct {
	SpectralMax         float64 `yaml:"spectral_max"`
	OrthogonalityError  float64 `yaml:"orthogonality_error"`
	LipschitzBudgetUsed float64 `yaml:"lipschitz_budget_used"`
}

// GeometryReport carries measured geometry-audit metrics attached to a
// submission. Absent report means the deployment does not run the
// geometry variant; present metrics are checked fail-closed.
type GeometryReport struct {
	SpectralMax         float64 `json:"spectral_max"`
	OrthogonalityError  float64 `json:"orthogonality_error"`
	LipschitzBudgetUsed float64 `json:"lipschitz_budget_used"`
}

// DefaultPolicy returns the protocol default caps.
func DefaultPolicy() Policy {
	return Policy{
		CycleCap:    DefaultCycleCap,
		DeltaHolCap: DefaultDeltaHolCap,
		Geometry: GeometryCaps{
			SpectralMax:         DefaultSpectralMax,
			OrthogonalityError:  DefaultOrthogonalityError,
			LipschitzBudgetUsed: DefaultLipschitzBudgetUsed,
		},
	}
}

// LoadPolicy reads a YAML policy file. Omitted fields keep protocol
// defaults; a missing file is an error (misconfigured deployments must
// not silently run with defaults).
func LoadPolicy(path string) (Policy, error) {
	pol := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return pol, fmt.Errorf("load policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return pol, fmt.Errorf("load policy %s: %w", path, err)
	}
	if pol.CycleCap < 0 || pol.DeltaHolCap < 0 {
		return pol, fmt.Errorf("load policy %s: caps must be non-negative", path)
	}
	return pol, nil
}
