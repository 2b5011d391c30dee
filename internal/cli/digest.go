package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openline-proto/openline/internal/digest"
	"github.com/openline-proto/openline/internal/frame"
)

// NewDigestCommand creates the digest command.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest <frame.json>",
		Short: "Compute the structural digest of a frame document",
		Long: `Validate a frame document and print its 5-number structural digest
(b0, cycle_plus, x_frontier, s_over_c, depth). The digest is always
recomputed; any digest embedded in the document is ignored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(rootOpts, args[0], cmd)
		},
	}
}

func runDigest(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error("E_READ", fmt.Sprintf("cannot read %s", path), err.Error())
		return WrapExitError(ExitCommandError, "read frame", err)
	}
	f, err := frame.Parse(data)
	if err != nil {
		formatter.Error("E_FRAME", "frame rejected", err.Error())
		return WrapExitError(ExitFailure, "invalid frame", err)
	}

	d := digest.Compute(f)
	text := fmt.Sprintf("b0=%d cycle_plus=%d x_frontier=%d s_over_c=%g depth=%d",
		d.B0, d.CyclePlus, d.XFrontier, d.SOverC, d.Depth)
	return formatter.SuccessText(d, text)
}
