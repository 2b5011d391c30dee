package morph

import (
	"errors"
	"fmt"

	"github.com/openline-proto/openline/internal/frame"
)

// ApplyError reports a morph batch that could not be applied. The whole
// batch is discarded; the base frame is unchanged.
type ApplyError struct {
	// Code identifies the failure category.
	Code ApplyErrorCode

	// Op is the operation tag that failed.
	Op frame.Op

	// Index is the position of the failing operation in the batch.
	Index int

	// Target identifies the node id or edge key involved.
	Target string

	// Message is a human-readable description.
	Message string
}

// ApplyErrorCode categorizes morph application failures.
type ApplyErrorCode string

const (
	// ErrCodeDuplicateID indicates an add that conflicts with existing
	// content and cannot be treated as an idempotent re-send.
	ErrCodeDuplicateID ApplyErrorCode = "DUPLICATE_ID"

	// ErrCodeMissingTarget indicates a delete/retype/reweight/merge/split
	// aimed at a node or edge that does not exist.
	ErrCodeMissingTarget ApplyErrorCode = "MISSING_TARGET"

	// ErrCodeAmbiguousSplit indicates a split whose partition map does
	// not assign every incident edge to one of the new ids.
	ErrCodeAmbiguousSplit ApplyErrorCode = "AMBIGUOUS_SPLIT"

	// ErrCodeBadPayload indicates a morph whose payload fails tag
	// validation or whose result would violate frame invariants.
	ErrCodeBadPayload ApplyErrorCode = "BAD_PAYLOAD"
)

// Error implements the error interface.
func (e *ApplyError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s[%d] %s: %s", e.Code, e.Op, e.Index, e.Target, e.Message)
	}
	return fmt.Sprintf("%s: %s[%d]: %s", e.Code, e.Op, e.Index, e.Message)
}

// IsDuplicateID reports whether err is a DUPLICATE_ID application error.
func IsDuplicateID(err error) bool {
	return hasCode(err, ErrCodeDuplicateID)
}

// IsMissingTarget reports whether err is a MISSING_TARGET application error.
func IsMissingTarget(err error) bool {
	return hasCode(err, ErrCodeMissingTarget)
}

// IsAmbiguousSplit reports whether err is an AMBIGUOUS_SPLIT application error.
func IsAmbiguousSplit(err error) bool {
	return hasCode(err, ErrCodeAmbiguousSplit)
}

func hasCode(err error, code ApplyErrorCode) bool {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
