// Package telemetry derives the advisory runtime dials published with
// every receipt.
//
// These are signals about the commit, not guard inputs:
//   - phi_topo, phi_sem: topological/semantic coherence from weighted
//     degree and component structure
//   - kappa_eff: logistic stress proxy from contradiction density,
//     depth and frontier pressure
//   - commutator: order-debt proxy from trial re-application of the
//     batch with disjoint-id operations swapped pairwise
//   - evidence_strength: support mass carried by Evidence nodes
//   - da_drift: determinism-anchor drift against an EWMA of digests for
//     similar prior runs
//   - cost_tokens, del_suspect: pass-through accounting
//
// Everything here is a pure function over immutable candidate frames;
// the commutator in particular re-applies batches speculatively without
// ever touching shared state.
package telemetry
