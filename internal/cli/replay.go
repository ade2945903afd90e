package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/store"
)

// ReplayResult holds the replay output.
type ReplayResult struct {
	Owner ir.Principal `json:"owner"`
	store.ReplayReport
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the call log and verify determinism",
		Long: `Replay the call log to verify determinism and report statistics.

Every logged call is re-applied twice to a fresh ledger at its recorded
caller and height. Each re-derived outcome must match the recorded
completion and both passes must produce the same trace digest. The log
is never written.

Exit codes:
  0 - The log is deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (config, database, owner mismatch)

Examples:
  gemledger replay --db ./gemledger.db --owner ST1OWNER
  gemledger replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}
	return cmd
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(opts, cfg, cmd)

	ctx := commandContext(cmd)
	log, err := openLog(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := log.Close(); err != nil {
			logger.Error("error closing call log", "error", err)
		}
	}()

	owner := ir.Principal(cfg.Owner)
	recorded, ok, err := log.Genesis(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read call log", err)
	}
	if ok && recorded != owner {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("call log was created for owner %s, configured owner is %s", recorded, owner))
	}

	report, err := store.Replay(ctx, log, owner)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	logger.Debug("replay finished", "entries", report.Entries, "deterministic", report.Deterministic)

	result := ReplayResult{Owner: owner, ReplayReport: report}
	out := newFormatter(opts, cmd)
	if out.Format == "json" {
		var cliErr *CLIError
		if !report.Deterministic {
			cliErr = &CLIError{
				Code:    "E_NONDETERMINISTIC",
				Message: "replay produced different results",
				Details: report.Mismatches,
			}
		}
		if err := out.JSON(result, cliErr); err != nil {
			return err
		}
	} else {
		printReplay(out, result)
	}

	if !report.Deterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func printReplay(out *OutputFormatter, r ReplayResult) {
	w := out.Writer
	fmt.Fprintf(w, "Owner:         %s\n", r.Owner)
	fmt.Fprintf(w, "Entries:       %d (%d pending)\n", r.Entries, r.Pending)
	fmt.Fprintf(w, "Last stone id: %d\n", r.LastStoneID)
	fmt.Fprintf(w, "Trace digest:  %s\n", r.TraceDigest)

	printCounts(w, "By action", r.ByAction)
	printCounts(w, "By case", r.ByCase)

	fmt.Fprintln(w)
	if r.Deterministic {
		out.Pass("deterministic")
		return
	}
	out.Fail("non-deterministic: %d mismatch(es)", len(r.Mismatches))
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "  seq %d (%s): %s\n", m.Seq, m.TxID, m.Reason)
	}
}

func printCounts[K ~string](w io.Writer, title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-32s %d\n", k, counts[k])
	}
}
