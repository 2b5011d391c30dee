// Package receipt assembles the published artifact for one accepted
// commit: digest + telemetry + status, optionally signed over canonical
// bytes.
//
// Receipts are read-only snapshots. They are composed once, never
// mutated; downstream consumers must treat unknown fields as optional
// and ignorable.
package receipt

import (
	"encoding/json"
	"fmt"

	"github.com/openline-proto/openline/internal/frame"
)

// Status is the traffic-light classification of one commit.
type Status string

const (
	// StatusGreen: every enforced cap at or below half utilization.
	StatusGreen Status = "green"
	// StatusAmber: some metric between 50% and 100% of its cap.
	StatusAmber Status = "amber"
	// StatusRed: a cap breached. Unreachable after guard acceptance
	// except for advisory caps not enforced as hard guards.
	StatusRed Status = "red"
)

// Receipt is the externally published artifact for one accepted commit.
type Receipt struct {
	ID       string `json:"id"`
	StreamID string `json:"stream_id"`
	TLogical int64  `json:"t_logical"`

	Digest frame.Digest    `json:"digest"`
	Telem  frame.Telemetry `json:"telem"`
	Status Status          `json:"status"`

	// Signature fields are set by Sign and excluded from the signature
	// scope themselves.
	Signature string `json:"signature,omitempty"`
	SigAlg    string `json:"sig_alg,omitempty"`
	SignerKey string `json:"signer_key,omitempty"`
}

// Classify maps the worst cap utilization to a status.
func Classify(worstUtilization float64) Status {
	switch {
	case worstUtilization > 1.0:
		return StatusRed
	case worstUtilization > 0.5:
		return StatusAmber
	default:
		return StatusGreen
	}
}

// Compose builds the receipt for an accepted commit.
func Compose(id, streamID string, tLogical int64, d frame.Digest, t frame.Telemetry, worstUtilization float64) *Receipt {
	return &Receipt{
		ID:       id,
		StreamID: streamID,
		TLogical: tLogical,
		Digest:   d,
		Telem:    t,
		Status:   Classify(worstUtilization),
	}
}

// CanonicalBytes returns the deterministic serialization of the
// receipt, including any signature fields. Persisted receipts use
// exactly these bytes.
func (r *Receipt) CanonicalBytes() ([]byte, error) {
	return frame.MarshalCanonical(r.canonicalMap(true))
}

// SignatureScope returns the canonical bytes the signature covers: the
// receipt with its signature fields blanked.
func (r *Receipt) SignatureScope() ([]byte, error) {
	return frame.MarshalCanonical(r.canonicalMap(false))
}

func (r *Receipt) canonicalMap(withSig bool) map[string]any {
	out := map[string]any{
		"id":        r.ID,
		"stream_id": r.StreamID,
		"t_logical": r.TLogical,
		"digest":    r.Digest.CanonicalMap(),
		"telem":     r.Telem.CanonicalMap(),
		"status":    string(r.Status),
	}
	if withSig && r.Signature != "" {
		out["signature"] = r.Signature
		out["sig_alg"] = r.SigAlg
		out["signer_key"] = r.SignerKey
	}
	return out
}

// Parse decodes a receipt from JSON.
func Parse(data []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse receipt: %w", err)
	}
	switch r.Status {
	case StatusGreen, StatusAmber, StatusRed:
	default:
		return nil, fmt.Errorf("parse receipt: unknown status %q", r.Status)
	}
	return &r, nil
}
