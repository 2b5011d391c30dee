// Package bus is the commit pipeline: the source of truth for "current
// frame per stream" and the only path by which a frame advances.
//
// Protocol (SYNC → MEASURE → STITCH):
//  1. SYNC: an agent fetches a snapshot of the stream's current frame.
//  2. MEASURE: the agent computes a candidate morph batch locally.
//     Read-only, lock-free, allowed against stale snapshots — many
//     agents measure concurrently.
//  3. STITCH: the agent submits the batch for commit.
//
// Commit evaluation per stream is strictly serialized under a
// per-stream mutex and protected by an optimistic-concurrency check: a
// submission carries the t_logical it believes is current; if the
// authoritative state has advanced the commit fails with ConflictError
// and the caller must re-SYNC. No automatic merge of racing batches.
//
// Pipeline inside one commit, all synchronous and CPU-bound:
//
//	apply batch → recompute digest (client digests are never trusted)
//	→ holonomy gap vs pre-batch digest → guard rules → telemetry
//	→ receipt → persist → advance canonical frame
//
// A guard rejection or mid-batch failure leaves the stream exactly as
// it was; the applier already works on clones, so there is no partial
// state to undo.
package bus
