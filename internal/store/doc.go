// Package store provides durable storage for frames and receipts.
//
// SQLite with WAL mode backs the keyed "current frame per stream"
// state: one row per stream with its latest accepted frame, a version
// history of frames for holonomy comparison within the retention
// window, and one receipt row per accepted commit.
//
// Frames and receipts are persisted as canonical JSON, so a stored
// frame round-trips to an identical digest and a stored receipt's
// signature stays verifiable.
//
// The connection pool is pinned to a single writer; commits are already
// serialized per stream above this layer, the pinning just keeps
// SQLITE_BUSY out of the picture.
package store
