package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Action string
	Caller string
	After  int64
	Limit  int
	TxID   string
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []ir.Receipt `json:"timeline"`
	Stats    store.Stats  `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the call log",
		Long: `Show the call log as a timeline of receipts.

Each line is one logged call in seq order with its caller, height and
outcome. Calls the host never completed are shown as pending.

Examples:
  gemledger trace
  gemledger trace --action Treatments.discloseTreatment --caller ST3AM1...
  gemledger trace --after 10 --limit 5 --format json
  gemledger trace --tx tx-3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "only calls to this action")
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "only calls from this principal")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only calls with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of calls (0 = all)")
	cmd.Flags().StringVar(&opts.TxID, "tx", "", "show a single call by transaction id")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 || opts.After < 0 {
		return NewExitError(ExitCommandError, "--after and --limit must not be negative")
	}
	if opts.Action != "" {
		if _, err := ir.ParseActionRef(opts.Action); err != nil {
			return WrapExitError(ExitCommandError, "invalid --action", err)
		}
	}

	ctx := commandContext(cmd)
	l, err := openLedger(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	var entries []ir.LogEntry
	if opts.TxID != "" {
		entry, err := l.log.ReadEntry(ctx, opts.TxID)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("transaction %q not found", opts.TxID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read call log", err)
		}
		entries = []ir.LogEntry{entry}
	} else {
		entries, err = l.host.Entries(ctx, ir.EntryFilter{
			Action:   ir.ActionRef(opts.Action),
			Caller:   ir.Principal(opts.Caller),
			AfterSeq: opts.After,
			Limit:    opts.Limit,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read call log", err)
		}
	}

	stats, err := l.log.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read call log", err)
	}

	result := TraceResult{Timeline: make([]ir.Receipt, 0, len(entries)), Stats: stats}
	for _, e := range entries {
		result.Timeline = append(result.Timeline, e.Receipt())
	}

	out := newFormatter(opts.RootOptions, cmd)
	if out.Format == "json" {
		return out.JSON(result, nil)
	}
	printTrace(out.Writer, result, out.Verbose)
	return nil
}

func printTrace(w io.Writer, result TraceResult, verbose bool) {
	st := result.Stats
	fmt.Fprintf(w, "Owner: %s\n", st.Owner)
	fmt.Fprintf(w, "Calls: %d (%d pending), height %d\n\n", st.Invocations, st.Pending, st.LastHeight)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No calls.")
		return
	}
	for _, r := range result.Timeline {
		fmt.Fprintf(w, "%4d  h=%-6d %-32s %s  %s\n", r.Seq, r.Height, r.Action, r.Caller, outcomeLabel(r))
		if verbose {
			fmt.Fprintf(w, "      tx=%s args=%s\n", r.TxID, formatObject(r.Args))
		}
	}
}

func outcomeLabel(r ir.Receipt) string {
	switch {
	case r.Case == "":
		return color.YellowString("pending")
	case r.Code != ir.CodeNone:
		return color.RedString("%s (%d)", r.Case, r.Code)
	case len(r.Result) > 0:
		return color.GreenString("%s %s", r.Case, formatObject(r.Result))
	default:
		return color.GreenString("%s", r.Case)
	}
}
