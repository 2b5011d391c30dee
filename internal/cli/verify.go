package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openline-proto/openline/internal/receipt"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <receipt.json>",
		Short: "Verify the signature on a published receipt",
		Long: `Check a receipt's signature over its canonical byte serialization,
using the signer key embedded in the receipt. Unsigned receipts verify
trivially.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}
}

func runVerify(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error("E_READ", fmt.Sprintf("cannot read %s", path), err.Error())
		return WrapExitError(ExitCommandError, "read receipt", err)
	}
	r, err := receipt.Parse(data)
	if err != nil {
		formatter.Error("E_RECEIPT", "malformed receipt", err.Error())
		return WrapExitError(ExitFailure, "parse receipt", err)
	}
	if err := receipt.Verify(r); err != nil {
		formatter.Error("E_SIGNATURE", "signature verification failed", err.Error())
		return WrapExitError(ExitFailure, "verify receipt", err)
	}

	signed := r.Signature != ""
	result := map[string]any{"verified": true, "signed": signed, "receipt_id": r.ID}
	text := fmt.Sprintf("receipt %s: signature ok", r.ID)
	if !signed {
		text = fmt.Sprintf("receipt %s: unsigned (nothing to verify)", r.ID)
	}
	return formatter.SuccessText(result, text)
}
