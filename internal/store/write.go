package store

import (
	"context"
	"fmt"
	"time"

	"github.com/openline-proto/openline/internal/frame"
	"github.com/openline-proto/openline/internal/receipt"
)

// SaveCommit persists an accepted commit in one transaction: the
// stream's new canonical frame, a version-history row, and the receipt.
//
// Frame history uses ON CONFLICT DO NOTHING so a re-persisted commit
// (at-least-once delivery upstream) is idempotent.
func (s *Store) SaveCommit(ctx context.Context, f *frame.Frame, r *receipt.Receipt) error {
	frameJSON, err := f.CanonicalBytes()
	if err != nil {
		return fmt.Errorf("save commit: %w", err)
	}
	receiptJSON, err := r.CanonicalBytes()
	if err != nil {
		return fmt.Errorf("save commit: %w", err)
	}
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save commit: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO streams (stream_id, t_logical, frame, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(stream_id) DO UPDATE SET
			t_logical = excluded.t_logical,
			frame = excluded.frame,
			updated_at = excluded.updated_at
	`, f.StreamID, f.TLogical, string(frameJSON), now)
	if err != nil {
		return fmt.Errorf("save commit: streams: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO frames (stream_id, t_logical, frame)
		VALUES (?, ?, ?)
		ON CONFLICT(stream_id, t_logical) DO NOTHING
	`, f.StreamID, f.TLogical, string(frameJSON))
	if err != nil {
		return fmt.Errorf("save commit: frames: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, stream_id, t_logical, status, delta_hol, receipt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, r.ID, r.StreamID, r.TLogical, string(r.Status), r.Telem.DeltaHol, string(receiptJSON), now)
	if err != nil {
		return fmt.Errorf("save commit: receipts: %w", err)
	}

	return tx.Commit()
}

// PruneFrames drops frame history older than the given logical time for
// a stream. The stream's current row is never pruned; retention only
// trims the comparison window.
func (s *Store) PruneFrames(ctx context.Context, streamID string, keepFrom int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM frames WHERE stream_id = ? AND t_logical < ?
	`, streamID, keepFrom)
	if err != nil {
		return fmt.Errorf("prune frames: %w", err)
	}
	return nil
}
