// Package morph applies batches of graph-editing operations to frames.
//
// Apply is the single mutation path in the system: given a frame and an
// ordered batch, it produces a candidate new frame or fails with the
// base frame untouched. Application always works on a clone, so
// atomicity is structural — there is no partial state to roll back.
//
// Operation semantics worth calling out:
//   - add_node/add_edge re-sent with identical content are no-ops, to
//     support at-least-once delivery. A conflicting re-add (same id,
//     different content) is a DUPLICATE_ID failure.
//   - del_node cascades to every incident edge.
//   - merge keeps the lexicographically smaller id and records the
//     retired id in the frame's alias table.
//   - split requires a complete partition map assigning every incident
//     edge to one of the two new ids; anything less is AMBIGUOUS_SPLIT.
//   - homotopy bundles retype/reweight sub-operations atomically under
//     one audit-log entry.
//
// Deletions that would quietly discharge a contradiction (removing its
// sole resolver, or removing a contradicts edge with no replacement in
// the same batch) are flagged in Result.DelSuspect for the guard engine
// and the published telemetry.
package morph
