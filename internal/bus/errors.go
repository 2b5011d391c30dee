package bus

import (
	"errors"
	"fmt"
)

// ConflictError signals a stale base state on commit: the submission's
// base t_logical does not match the stream's authoritative state. The
// caller must re-SYNC and retry; the bus never merges racing batches.
type ConflictError struct {
	StreamID string
	// Have is the authoritative t_logical.
	Have int64
	// Submitted is the base t_logical the submission carried.
	Submitted int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on stream %s: base t_logical %d, authoritative %d: re-sync and retry",
		e.StreamID, e.Submitted, e.Have)
}

// IsConflict reports whether err is (or wraps) a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
