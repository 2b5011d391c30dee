package cli

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openline-proto/openline/internal/guard"
	"github.com/openline-proto/openline/internal/store"
)

// Calibration policy: a stream needs this many accepted receipts before
// a tuned cap is derived, and the cap is the given percentile of its
// observed holonomy gaps, floored so a flat history cannot tighten the
// cap to zero.
const (
	calibrateMinReceipts = 20
	calibratePercentile  = 0.80
	calibrateCapFloor    = 1e-3
)

// CalibrateOptions holds the calibrate command flags.
type CalibrateOptions struct {
	DB       string
	Out      string
	Lookback int
}

// NewCalibrateCommand creates the calibrate command.
func NewCalibrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CalibrateOptions{}
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Derive tuned guard caps from receipt history",
		Long: `Roll the store's receipt history into tuned per-stream delta_hol caps
(the 80th percentile of each stream's accepted holonomy gaps) and write
them atomically to a params YAML file. The guard engine picks the file
up through its mtime-aware cache; no restart required.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the frame store database (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "params.yaml", "output params file")
	cmd.Flags().IntVar(&opts.Lookback, "lookback", 0, "max receipts per stream to consider (0 = all)")
	cmd.MarkFlagRequired("db")
	return cmd
}

func runCalibrate(rootOpts *RootOptions, opts *CalibrateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	st, err := store.Open(opts.DB)
	if err != nil {
		formatter.Error("E_STORE", "cannot open store", err.Error())
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	streams, err := st.ListStreams(ctx)
	if err != nil {
		formatter.Error("E_STORE", "cannot list streams", err.Error())
		return WrapExitError(ExitCommandError, "list streams", err)
	}

	params := guard.TunedParams{DeltaHolCaps: make(map[string]float64)}
	for _, streamID := range streams {
		receipts, err := st.Receipts(ctx, streamID, opts.Lookback)
		if err != nil {
			formatter.Error("E_STORE", fmt.Sprintf("cannot read receipts for %s", streamID), err.Error())
			return WrapExitError(ExitCommandError, "read receipts", err)
		}
		if len(receipts) < calibrateMinReceipts {
			formatter.VerboseLog("stream %s: %d receipts, below calibration minimum %d",
				streamID, len(receipts), calibrateMinReceipts)
			continue
		}
		gaps := make([]float64, 0, len(receipts))
		for _, r := range receipts {
			gaps = append(gaps, r.Telem.DeltaHol)
		}
		tuned := math.Max(calibrateCapFloor, percentile(gaps, calibratePercentile))
		params.DeltaHolCaps[streamID] = math.Round(tuned*1000) / 1000
	}

	if err := writeParamsAtomic(opts.Out, params); err != nil {
		formatter.Error("E_WRITE", "cannot write params", err.Error())
		return WrapExitError(ExitCommandError, "write params", err)
	}

	text := fmt.Sprintf("wrote %s (streams=%d, tuned=%d)", opts.Out, len(streams), len(params.DeltaHolCaps))
	return formatter.SuccessText(map[string]any{
		"out":     opts.Out,
		"streams": len(streams),
		"tuned":   len(params.DeltaHolCaps),
	}, text)
}

// percentile is the linear-interpolated q-th percentile of xs.
func percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	k := float64(len(sorted)-1) * q
	f := int(k)
	c := f + 1
	if c >= len(sorted) {
		return sorted[f]
	}
	return sorted[f] + (sorted[c]-sorted[f])*(k-float64(f))
}

// writeParamsAtomic writes the params file via temp-file-and-rename so
// a concurrently reading guard never sees a torn file.
func writeParamsAtomic(path string, params guard.TunedParams) error {
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".params-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp params: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp params: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp params: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp params: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
