package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/contract"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/host"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	As     string
	Args   string
	Height int64
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <action>",
		Short: "Execute a call against the ledger",
		Long: `Execute one mutating call and print its receipt.

The call log is opened and recovered first, so the call sees every earlier
call. Rejected calls (Forbidden, Unauthorized) are logged and exit with 1.

Actions:
  Authorization.authorizeLab      lab
  Authorization.revokeLab         lab
  Stones.registerStone            name, weight, color, clarity, cut, origin
  Verifications.verifyStone       stone_id, lab_name, grade, report_number, notes
  Treatments.discloseTreatment    stone_id, treatment_type, description, performed_by, performed_at

Example:
  gemledger invoke Stones.registerStone --as ST1OWNER \
    --args '{"name":"Blue Sapphire","weight":500,"color":"Deep Blue","clarity":"VS1","cut":"Oval","origin":"Sri Lanka"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := ir.ParseActionRef(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid call", err)
			}
			return invokeAction(opts, action, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "calling principal (required)")
	_ = cmd.MarkFlagRequired("as")
	cmd.Flags().StringVar(&opts.Args, "args", "{}", "call arguments as JSON")
	cmd.Flags().Int64Var(&opts.Height, "height", -1, "run the call at this height instead of mining one")

	return cmd
}

func invokeAction(opts *InvokeOptions, action ir.ActionRef, cmd *cobra.Command) error {
	var args ir.Object
	if err := args.UnmarshalJSON([]byte(opts.Args)); err != nil {
		return WrapExitError(ExitCommandError, "invalid --args JSON", err)
	}
	call := ir.Call{Action: action, Args: args}
	if err := contract.Validate(call); err != nil {
		return WrapExitError(ExitCommandError, "invalid call", err)
	}

	ctx := commandContext(cmd)
	// An explicit height pins the call to it instead of mining a new block.
	var extra []host.Option
	if opts.Height >= 0 {
		extra = append(extra, host.WithAutoMine(false))
	}
	l, err := openLedger(ctx, opts.RootOptions, cmd, extra...)
	if err != nil {
		return err
	}
	defer l.Close()

	if opts.Height >= 0 {
		if err := l.host.AdvanceTo(ir.Height(opts.Height)); err != nil {
			return WrapExitError(ExitCommandError, "invalid --height", err)
		}
	}

	receipt, err := l.host.Execute(ctx, ir.Principal(opts.As), call)
	if err != nil {
		if errors.Is(err, ir.ErrInvalidCall) {
			return WrapExitError(ExitCommandError, "invalid call", err)
		}
		return WrapExitError(ExitCommandError, "call failed", err)
	}

	out := newFormatter(opts.RootOptions, cmd)
	if out.Format == "json" {
		var cliErr *CLIError
		if receipt.Code != ir.CodeNone {
			cliErr = &CLIError{Code: "E_REJECTED", Message: receipt.Case}
		}
		if err := out.JSON(receipt, cliErr); err != nil {
			return err
		}
	} else {
		printReceipt(out, receipt)
	}

	if receipt.Code != ir.CodeNone {
		return NewExitError(ExitFailure, fmt.Sprintf("%s rejected: %s (%d)", action, receipt.Case, receipt.Code))
	}
	return nil
}

func printReceipt(out *OutputFormatter, r ir.Receipt) {
	line := fmt.Sprintf("%s -> %s", r.Action, r.Case)
	if r.Code != ir.CodeNone {
		out.Fail("%s (%d)", line, r.Code)
	} else {
		out.Pass("%s %s", line, formatObject(r.Result))
	}
	w := out.Writer
	fmt.Fprintf(w, "  tx:     %s\n", r.TxID)
	fmt.Fprintf(w, "  seq:    %d\n", r.Seq)
	fmt.Fprintf(w, "  height: %d\n", r.Height)
	fmt.Fprintf(w, "  caller: %s\n", r.Caller)
	if out.Verbose {
		fmt.Fprintf(w, "  args:   %s\n", formatObject(r.Args))
		fmt.Fprintf(w, "  digest: %s\n", r.Digest)
	}
}

// formatObject renders an object as canonical JSON.
func formatObject(obj ir.Object) string {
	if obj == nil {
		return "{}"
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}
