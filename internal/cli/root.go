package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/config"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Owner      string
	Database   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gemledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "gemledger",
		Version: ir.LedgerVersion,
		Short:   "Gemstone provenance ledger",
		Long: `A ledger of gemstone registrations, laboratory verifications and
treatment disclosures.

Every mutating call is appended to a durable call log and applied by a
single writer. The ledger state is rebuilt from the log on every start.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath, "path to CUE config file")
	cmd.PersistentFlags().StringVar(&opts.Owner, "owner", "", "contract owner principal (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "call log DSN or SQLite path (overrides config)")

	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
