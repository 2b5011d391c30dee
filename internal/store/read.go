package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openline-proto/openline/internal/frame"
	"github.com/openline-proto/openline/internal/receipt"
)

// LatestFrame returns the current frame for a stream, or ok=false when
// the stream has never committed.
func (s *Store) LatestFrame(ctx context.Context, streamID string) (*frame.Frame, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT frame FROM streams WHERE stream_id = ?
	`, streamID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("latest frame: %w", err)
	}
	f, err := frame.Parse([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("latest frame for %s: %w", streamID, err)
	}
	return f, true, nil
}

// FrameAt returns one stream's frame at a specific logical time from
// the retained history.
func (s *Store) FrameAt(ctx context.Context, streamID string, tLogical int64) (*frame.Frame, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT frame FROM frames WHERE stream_id = ? AND t_logical = ?
	`, streamID, tLogical).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("frame at: %w", err)
	}
	f, err := frame.Parse([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("frame at %s/%d: %w", streamID, tLogical, err)
	}
	return f, true, nil
}

// Receipts returns up to limit receipts for a stream, newest first.
// limit <= 0 means no limit.
func (s *Store) Receipts(ctx context.Context, streamID string, limit int) ([]*receipt.Receipt, error) {
	q := `
		SELECT receipt FROM receipts
		WHERE stream_id = ?
		ORDER BY created_at DESC, t_logical DESC
	`
	args := []any{streamID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("receipts: %w", err)
	}
	defer rows.Close()

	var out []*receipt.Receipt
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("receipts: %w", err)
		}
		r, err := receipt.Parse([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("receipts for %s: %w", streamID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListStreams returns every stream id with committed state, sorted.
func (s *Store) ListStreams(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stream_id FROM streams ORDER BY stream_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list streams: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
