package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openline-proto/openline/internal/frame"
	"github.com/openline-proto/openline/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <frame.json>",
		Short: "Validate a frame document against the wire contract",
		Long: `Check a frame document against the CUE wire contract (shape, enums,
ranges) and the typed model's referential rules (unique ids, existing
edge endpoints, no self-loops).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error("E_READ", fmt.Sprintf("cannot read %s", path), err.Error())
		return WrapExitError(ExitCommandError, "read frame", err)
	}

	var errs []string
	if err := schema.ValidateFrameJSON(data); err != nil {
		errs = append(errs, err.Error())
	} else if _, err := frame.Parse(data); err != nil {
		// Referential checks only make sense once the shape conforms.
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		formatter.Error("E_INVALID", "frame does not conform", ValidationResult{Valid: false, Errors: errs})
		return NewExitError(ExitFailure, "frame does not conform")
	}
	return formatter.SuccessText(ValidationResult{Valid: true}, "frame conforms to wire contract")
}
