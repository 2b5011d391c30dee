// Package guard evaluates committed morph batches against the hard
// stability rules.
//
// Evaluation is a synchronous, stateless pass over (old frame, old
// digest, candidate frame, new digest, holonomy gap, batch). Three
// mandatory rules plus the fail-closed geometry caps:
//
//	CYCLE_CAP_EXCEEDED            cycle_plus above the cap (default 4)
//	SILENT_CONTRADICTION_ERASURE  x_frontier lowered by deletion alone
//	UNEXPLAINED_DRIFT_SPIKE       holonomy gap above cap, no new node
//	                              explaining the move
//	GEOMETRY_CAP_BREACH           spectral/orthogonality/lipschitz cap
//	                              breached (downstream geometry-audit)
//
// A verdict is Accepted or a *Violation carrying the rule id, the
// offending metric value and the threshold — never a generic failure,
// never a silent pass on a borderline case.
//
// Caps come from a Policy, optionally overridden per stream by a tuned
// params file produced by calibration (see the calibrate CLI command).
package guard
