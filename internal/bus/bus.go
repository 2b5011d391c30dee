package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/openline-proto/openline/internal/digest"
	"github.com/openline-proto/openline/internal/frame"
	"github.com/openline-proto/openline/internal/guard"
	"github.com/openline-proto/openline/internal/morph"
	"github.com/openline-proto/openline/internal/receipt"
	"github.com/openline-proto/openline/internal/store"
	"github.com/openline-proto/openline/internal/telemetry"
)

// Defaults for streams created on first SYNC.
const (
	DefaultGauge = frame.GaugeSym
	DefaultUnits = "steps"
)

// Bus owns the per-stream canonical frames and runs the commit
// pipeline. All mutation flows through Commit; Sync hands out snapshot
// clones only.
type Bus struct {
	policy guard.Policy
	params *guard.ParamsCache
	anchor *telemetry.DriftAnchor
	st     *store.Store
	signer receipt.Signer
	clock  *Clock
	log    *slog.Logger
	retain int64

	mu      sync.Mutex
	streams map[string]*streamState
}

// streamState serializes commits for one stream. The mutex is held only
// for the duration of one commit evaluation.
type streamState struct {
	mu    sync.Mutex
	frame *frame.Frame
}

// Option configures the bus.
type Option func(*Bus)

// WithStore backs the bus with durable storage. Streams hydrate from
// the store on first SYNC and every accepted commit is persisted.
func WithStore(s *store.Store) Option {
	return func(b *Bus) { b.st = s }
}

// WithPolicy replaces the default guard policy.
func WithPolicy(pol guard.Policy) Option {
	return func(b *Bus) { b.policy = pol }
}

// WithParams wires tuned per-stream cap overrides from calibration.
func WithParams(p *guard.ParamsCache) Option {
	return func(b *Bus) { b.params = p }
}

// WithSigner signs every composed receipt. receipt.NewEd25519Signer and
// receipt.NewDilithium3Signer are the supported implementations.
func WithSigner(s receipt.Signer) Option {
	return func(b *Bus) { b.signer = s }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.log = l }
}

// WithRetention keeps only the last n frame versions per stream in the
// store's history. Zero keeps everything.
func WithRetention(n int64) Option {
	return func(b *Bus) { b.retain = n }
}

// New creates a bus with protocol-default policy, an in-memory drift
// anchor, and no persistence unless WithStore is given.
func New(opts ...Option) *Bus {
	b := &Bus{
		policy:  guard.DefaultPolicy(),
		anchor:  telemetry.NewDriftAnchor(telemetry.DefaultAnchorAlpha),
		clock:   NewClock(),
		log:     slog.Default(),
		streams: make(map[string]*streamState),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sync returns a snapshot clone of the stream's current frame (SYNC
// phase). First contact with a stream creates it: from the store when
// one is wired and has state, otherwise empty at t_logical 0. The
// snapshot is the caller's to mutate; the canonical frame never leaves
// the bus.
func (b *Bus) Sync(ctx context.Context, streamID string) (*frame.Frame, error) {
	st, err := b.stream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.frame.Clone(), nil
}

// Evict drops a stream's in-memory state. The next SYNC re-hydrates
// from the store (or starts fresh). Part of the retention lifecycle.
func (b *Bus) Evict(streamID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.streams, streamID)
}

func (b *Bus) stream(ctx context.Context, streamID string) (*streamState, error) {
	if streamID == "" {
		return nil, &frame.SchemaError{Field: "stream_id", Detail: "must be non-empty"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.streams[streamID]; ok {
		return st, nil
	}
	f := frame.New(streamID, DefaultGauge, DefaultUnits)
	if b.st != nil {
		stored, ok, err := b.st.LatestFrame(ctx, streamID)
		if err != nil {
			return nil, fmt.Errorf("sync %s: %w", streamID, err)
		}
		if ok {
			f = stored
		}
	}
	st := &streamState{frame: f}
	b.streams[streamID] = st
	return st, nil
}

// CommitRequest is one STITCH submission. Exactly one of Batch or Frame
// must be set: either a morph batch against the base state, or a full
// candidate frame.
type CommitRequest struct {
	StreamID string

	// BaseT is the t_logical the submitter believes is current.
	BaseT int64

	// Batch is the proposed morph batch.
	Batch []frame.Morph

	// Frame is a full candidate frame, the alternative submission
	// shape. Its digest is ignored and recomputed.
	Frame *frame.Frame

	// CostTokens is pass-through cost accounting.
	CostTokens int64

	// Geometry carries geometry-audit measurements, when that variant
	// runs.
	Geometry *guard.GeometryReport

	// Bucket keys determinism-drift tracking; defaults to the stream id.
	Bucket string
}

// CommitResult is a successful STITCH: the receipt and a snapshot of
// the new canonical frame.
type CommitResult struct {
	Receipt *receipt.Receipt
	Frame   *frame.Frame
	Seq     int64
}

// Commit runs the STITCH phase. On acceptance the candidate becomes the
// stream's canonical frame and a receipt is composed, signed when a
// signer is wired, and persisted when a store is wired. On any failure
// the stream is left exactly as it was.
func (b *Bus) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if (req.Frame == nil) == (len(req.Batch) == 0) {
		return nil, &frame.SchemaError{Field: "commit", Detail: "exactly one of batch or frame is required"}
	}
	st, err := b.stream(ctx, req.StreamID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	old := st.frame
	if req.BaseT != old.TLogical {
		b.log.Warn("commit conflict",
			"stream", req.StreamID, "base", req.BaseT, "authoritative", old.TLogical)
		return nil, &ConflictError{StreamID: req.StreamID, Have: old.TLogical, Submitted: req.BaseT}
	}

	cand, batch, delSuspect, err := b.candidate(old, req)
	if err != nil {
		return nil, err
	}

	oldDigest := old.Digest
	newDigest := digest.Compute(cand)
	deltaHol := digest.Delta(oldDigest, newDigest)

	tuned := 0.0
	if b.params != nil {
		tuned = b.params.DeltaHolCap(req.StreamID, 0)
	}
	gin := guard.Input{
		Old:         old,
		New:         cand,
		OldDigest:   oldDigest,
		NewDigest:   newDigest,
		DeltaHol:    deltaHol,
		Batch:       batch,
		DelSuspect:  delSuspect,
		Geometry:    req.Geometry,
		DeltaHolCap: tuned,
	}
	if err := guard.Evaluate(gin, b.policy); err != nil {
		if v, ok := guard.IsViolation(err); ok {
			b.log.Warn("commit rejected",
				"stream", req.StreamID, "rule", string(v.Rule),
				"value", v.Value, "threshold", v.Threshold)
		}
		return nil, err
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = req.StreamID
	}
	telem := telemetry.Compute(telemetry.Inputs{
		Base:       old,
		New:        cand,
		NewDigest:  newDigest,
		DeltaHol:   deltaHol,
		Batch:      batch,
		DelSuspect: delSuspect,
		CostTokens: req.CostTokens,
		Bucket:     bucket,
	}, b.anchor)

	cand.TLogical = old.TLogical + 1
	cand.Digest = newDigest
	cand.Telem = telem

	rec := receipt.Compose(
		uuid.Must(uuid.NewV7()).String(),
		req.StreamID, cand.TLogical, newDigest, telem,
		guard.Utilization(gin, b.policy),
	)
	if b.signer != nil {
		if err := receipt.SignWith(rec, b.signer); err != nil {
			return nil, fmt.Errorf("commit %s: %w", req.StreamID, err)
		}
	}

	if b.st != nil {
		if err := b.st.SaveCommit(ctx, cand, rec); err != nil {
			// Storage failure is fatal to the request; the canonical
			// frame does not advance past what is durable.
			return nil, fmt.Errorf("commit %s: %w", req.StreamID, err)
		}
		if b.retain > 0 && cand.TLogical > b.retain {
			if err := b.st.PruneFrames(ctx, req.StreamID, cand.TLogical-b.retain); err != nil {
				b.log.Warn("retention prune failed", "stream", req.StreamID, "err", err)
			}
		}
	}

	st.frame = cand
	seq := b.clock.Next()
	b.log.Info("commit accepted",
		"stream", req.StreamID, "t_logical", cand.TLogical,
		"status", string(rec.Status), "delta_hol", deltaHol, "seq", seq)

	return &CommitResult{Receipt: rec, Frame: cand.Clone(), Seq: seq}, nil
}

// candidate builds the tentative new frame for a submission: applying
// the batch for batch submissions, validating and adopting the frame
// for full-frame submissions.
func (b *Bus) candidate(old *frame.Frame, req CommitRequest) (*frame.Frame, []frame.Morph, bool, error) {
	if req.Frame != nil {
		if req.Frame.StreamID != req.StreamID {
			return nil, nil, false, &frame.SchemaError{Field: "frame.stream_id", Detail: "does not match submission stream"}
		}
		if err := req.Frame.Validate(); err != nil {
			return nil, nil, false, err
		}
		cand := req.Frame.Clone()
		// The guard heuristics see the morph-log tail beyond the base
		// state; a full frame with no new log entries has no batch.
		var batch []frame.Morph
		if len(cand.Morphs) > len(old.Morphs) {
			batch = cand.Morphs[len(old.Morphs):]
		}
		return cand, batch, false, nil
	}
	res, err := morph.Apply(old, req.Batch)
	if err != nil {
		return nil, nil, false, err
	}
	return res.Frame, req.Batch, res.DelSuspect, nil
}
