// Package frame defines the OpenLine wire data model: typed reasoning
// graphs ("frames") and the pieces that travel with them.
//
// A Frame is a versioned snapshot of an agent's reasoning at one logical
// time. It carries:
//   - Nodes: typed claims, evidence, counters, assumptions, ...
//   - Edges: typed directed relations between nodes
//   - Digest: the 5-number structural fingerprint (computed elsewhere)
//   - Morphs: the append-only log of operations that produced this state
//   - Telem: advisory runtime dials
//   - Signature: optional witness mark over canonical bytes
//
// DESIGN CONSTRAINTS:
//
// Closed variants:
// NodeType, EdgeRel, and Op are closed enumerations. Consumers (digest
// engine, guard engine) switch over them exhaustively; adding a case is a
// wire-format change, not a plugin point.
//
// Validation, never repair:
// Validate rejects malformed frames with SchemaError or ReferentialError.
// Nothing in this package coerces or auto-corrects input.
//
// Canonical serialization:
// MarshalCanonical produces deterministic bytes (sorted keys, NFC strings,
// no HTML escaping, shortest round-trip numbers) so that content hashing
// and signature verification are reproducible. See canonical.go.
package frame
