// Package digest computes the 5-number structural fingerprint of a
// frame and the holonomy gap between two fingerprints.
//
// Compute is a pure, deterministic function of the frame's node/edge
// SET: identical content yields bit-identical digests regardless of the
// order nodes and edges were submitted in. Every traversal here iterates
// over ids in sorted order for exactly that reason.
//
// The five fields:
//   - b0: connected components, every edge treated as undirected —
//     is the reasoning one argument or several disjoint islands?
//   - cycle_plus: elementary cycles among reinforcing (supports/derives)
//     edges — "proving itself with itself"
//   - x_frontier: distinct targets with at least one unresolved
//     contradicts edge — live, unanswered objections
//   - s_over_c: support weight mass over contradiction weight mass
//   - depth: longest dependency chain over depends_on/derives
//
// CRITICAL: digests are derived, never trusted from the wire. The bus
// recomputes them after every morph batch; a client-attached digest is
// advisory only.
package digest
