package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// NewQueryCommand creates the query command and its read-only subcommands.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read ledger state",
		Long: `Read ledger state rebuilt from the call log.

Queries never write to the log. A missing record exits with 1.

Exit codes:
  0 - Record found
  1 - Record not found
  2 - Command error`,
	}

	cmd.AddCommand(
		newQuerySubcommand(rootOpts, "stone <stone-id>", "Show a registered stone", 1, queryStone),
		newQuerySubcommand(rootOpts, "verification <stone-id>", "Show the latest verification of a stone", 1, queryVerification),
		newQuerySubcommand(rootOpts, "treatment <stone-id> <treatment-id>", "Show one treatment disclosure", 2, queryTreatment),
		newQuerySubcommand(rootOpts, "treatments <stone-id>", "List the treatment disclosures of a stone", 1, queryTreatments),
		newQuerySubcommand(rootOpts, "last-stone-id", "Show the most recently allocated stone id", 0, queryLastStoneID),
		newQuerySubcommand(rootOpts, "authorized <principal>", "Show whether a principal is an authorized laboratory", 1, queryAuthorized),
	)
	return cmd
}

// queryFunc reads from the ledger. ok=false means not found.
type queryFunc func(l *ledger, args []string) (data any, ok bool, err error)

func newQuerySubcommand(rootOpts *RootOptions, use, short string, nargs int, fn queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, cmd, args, fn)
		},
	}
}

func runQuery(opts *RootOptions, cmd *cobra.Command, args []string, fn queryFunc) error {
	l, err := openLedger(commandContext(cmd), opts, cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	data, ok, err := fn(l, args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid query", err)
	}

	out := newFormatter(opts, cmd)
	if !ok {
		msg := fmt.Sprintf("%s not found", cmd.Name())
		if err := out.Error("E_NOT_FOUND", msg, args); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	if out.Format == "json" {
		return out.JSON(data, nil)
	}
	printRecord(out, data)
	return nil
}

// printRecord writes data as indented JSON in text mode.
func printRecord(out *OutputFormatter, data any) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintln(out.Writer, data)
		return
	}
	fmt.Fprintln(out.Writer, string(b))
}

func parseID(s, what string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", what, s)
	}
	return n, nil
}

func queryStone(l *ledger, args []string) (any, bool, error) {
	id, err := parseID(args[0], "stone id")
	if err != nil {
		return nil, false, err
	}
	s, ok := l.host.Stone(ir.StoneID(id))
	return s, ok, nil
}

func queryVerification(l *ledger, args []string) (any, bool, error) {
	id, err := parseID(args[0], "stone id")
	if err != nil {
		return nil, false, err
	}
	v, ok := l.host.Verification(ir.StoneID(id))
	return v, ok, nil
}

func queryTreatment(l *ledger, args []string) (any, bool, error) {
	id, err := parseID(args[0], "stone id")
	if err != nil {
		return nil, false, err
	}
	tid, err := parseID(args[1], "treatment id")
	if err != nil {
		return nil, false, err
	}
	t, ok := l.host.Treatment(ir.StoneID(id), ir.TreatmentID(tid))
	return t, ok, nil
}

func queryTreatments(l *ledger, args []string) (any, bool, error) {
	id, err := parseID(args[0], "stone id")
	if err != nil {
		return nil, false, err
	}
	sid := ir.StoneID(id)
	list := l.host.Treatments(sid)
	if list == nil {
		list = []ir.Treatment{}
	}
	return map[string]any{
		"stone_id":   sid,
		"count":      l.host.TreatmentCount(sid),
		"treatments": list,
	}, true, nil
}

func queryLastStoneID(l *ledger, _ []string) (any, bool, error) {
	return map[string]any{"last_stone_id": l.host.LastStoneID()}, true, nil
}

func queryAuthorized(l *ledger, args []string) (any, bool, error) {
	p := ir.Principal(args[0])
	return map[string]any{"principal": p, "authorized": l.host.IsAuthorized(p)}, true, nil
}
