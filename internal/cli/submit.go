package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openline-proto/openline/internal/bus"
	"github.com/openline-proto/openline/internal/frame"
	"github.com/openline-proto/openline/internal/guard"
	"github.com/openline-proto/openline/internal/store"
)

// SubmitOptions holds the submit command flags.
type SubmitOptions struct {
	DB        string
	Stream    string
	BatchPath string
	FramePath string
	Cost      int64
	Policy    string
	Params    string
}

// SubmitReply mirrors the transport-level reply shape: accepted with
// digest/telemetry/status, or rejected with the violated rule.
type SubmitReply struct {
	Accepted bool             `json:"accepted"`
	Digest   *frame.Digest    `json:"digest,omitempty"`
	Telem    *frame.Telemetry `json:"telem,omitempty"`
	Status   string           `json:"status,omitempty"`
	RuleID   string           `json:"rule_id,omitempty"`
	Detail   string           `json:"detail,omitempty"`
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a morph batch or full frame for commit",
		Long: `Run the SYNC -> STITCH protocol against a store-backed bus: fetch the
stream's current frame, submit the batch (or full candidate frame), and
print the commit reply. A guard rejection reports the violated rule; a
stale base reports a conflict and the submission should be retried
after re-sync.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the frame store database (required)")
	cmd.Flags().StringVar(&opts.Stream, "stream", "", "stream id (required)")
	cmd.Flags().StringVar(&opts.BatchPath, "batch", "", "path to a morph batch JSON file")
	cmd.Flags().StringVar(&opts.FramePath, "frame", "", "path to a full candidate frame JSON file")
	cmd.Flags().Int64Var(&opts.Cost, "cost", 0, "cost accounting (tokens) to attach")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "guard policy YAML (defaults apply when omitted)")
	cmd.Flags().StringVar(&opts.Params, "params", "", "tuned-caps params YAML from calibration")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("stream")
	return cmd
}

func runSubmit(rootOpts *RootOptions, opts *SubmitOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	if (opts.BatchPath == "") == (opts.FramePath == "") {
		formatter.Error("E_USAGE", "exactly one of --batch or --frame is required", nil)
		return NewExitError(ExitCommandError, "exactly one of --batch or --frame is required")
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		formatter.Error("E_STORE", "cannot open store", err.Error())
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer st.Close()

	busOpts := []bus.Option{bus.WithStore(st)}
	if opts.Policy != "" {
		pol, err := guard.LoadPolicy(opts.Policy)
		if err != nil {
			formatter.Error("E_POLICY", "cannot load policy", err.Error())
			return WrapExitError(ExitCommandError, "load policy", err)
		}
		busOpts = append(busOpts, bus.WithPolicy(pol))
	}
	if opts.Params != "" {
		busOpts = append(busOpts, bus.WithParams(guard.NewParamsCache(opts.Params, 0)))
	}
	b := bus.New(busOpts...)

	ctx := cmd.Context()
	base, err := b.Sync(ctx, opts.Stream)
	if err != nil {
		formatter.Error("E_SYNC", "cannot sync stream", err.Error())
		return WrapExitError(ExitCommandError, "sync", err)
	}
	formatter.VerboseLog("synced stream %s at t_logical=%d", opts.Stream, base.TLogical)

	req := bus.CommitRequest{
		StreamID:   opts.Stream,
		BaseT:      base.TLogical,
		CostTokens: opts.Cost,
	}
	if opts.BatchPath != "" {
		raw, err := os.ReadFile(opts.BatchPath)
		if err != nil {
			formatter.Error("E_READ", fmt.Sprintf("cannot read %s", opts.BatchPath), err.Error())
			return WrapExitError(ExitCommandError, "read batch", err)
		}
		if err := json.Unmarshal(raw, &req.Batch); err != nil {
			formatter.Error("E_BATCH", "malformed morph batch", err.Error())
			return WrapExitError(ExitFailure, "parse batch", err)
		}
	} else {
		raw, err := os.ReadFile(opts.FramePath)
		if err != nil {
			formatter.Error("E_READ", fmt.Sprintf("cannot read %s", opts.FramePath), err.Error())
			return WrapExitError(ExitCommandError, "read frame", err)
		}
		f, err := frame.Parse(raw)
		if err != nil {
			formatter.Error("E_FRAME", "frame rejected", err.Error())
			return WrapExitError(ExitFailure, "parse frame", err)
		}
		req.Frame = f
	}

	res, err := b.Commit(ctx, req)
	if err != nil {
		if v, ok := guard.IsViolation(err); ok {
			reply := SubmitReply{Accepted: false, RuleID: string(v.Rule), Detail: v.Error()}
			formatter.Success(reply)
			return NewExitError(ExitFailure, fmt.Sprintf("rejected: %s", v.Rule))
		}
		if bus.IsConflict(err) {
			formatter.Error("E_CONFLICT", "stale base state", err.Error())
			return WrapExitError(ExitFailure, "conflict", err)
		}
		formatter.Error("E_COMMIT", "commit failed", err.Error())
		return WrapExitError(ExitFailure, "commit", err)
	}

	reply := SubmitReply{
		Accepted: true,
		Digest:   &res.Receipt.Digest,
		Telem:    &res.Receipt.Telem,
		Status:   string(res.Receipt.Status),
	}
	text := fmt.Sprintf("accepted: t_logical=%d status=%s delta_hol=%g",
		res.Frame.TLogical, res.Receipt.Status, res.Receipt.Telem.DeltaHol)
	return formatter.SuccessText(reply, text)
}
