// Package cli wires contextkit's subcommands (init, source, index,
// select, symbol, diff, cache, history, export, status, mcp) onto a
// cobra root command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/ctxerr"
)

// Version is the CLI's reported version string.
const Version = "0.1.0"

var (
	jsonOutput  bool
	plainOutput bool
	quiet       bool
	verbose     bool
)

// NewRootCommand assembles the contextkit root command and its full
// subcommand tree.
func NewRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "contextkit",
		Short: "Select minimal, relevant code context for LLM queries",
		Long: `contextkit indexes a local source tree into chunks and embeddings, then
selects the smallest relevant set of chunks that answers a query within a
token budget.

Use 'contextkit <command> --help' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("contextkit version %s\n", Version)
				return nil
			}
			return cmd.Help()
		},
	}

	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	root.PersistentFlags().BoolVar(&plainOutput, "plain", false, "emit plain text output with no styling")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "emit extra diagnostic output")
	root.Flags().BoolVarP(&showVersion, "version", "V", false, "show version information")

	root.AddCommand(
		NewInitCommand(),
		NewSourceCommand(),
		NewIndexCommand(),
		NewSelectCommand(),
		NewSymbolCommand(),
		NewDiffCommand(),
		NewCacheCommand(),
		NewHistoryCommand(),
		NewExportCommand(),
		NewStatusCommand(),
		NewMCPCommand(),
	)

	return root
}

// Execute runs the root command and translates any returned error into a
// process exit, the sole place ctxerr.ExitCode is consulted.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			if ce, ok := err.(*ctxerr.Error); ok && ce.Suggestion != "" {
				fmt.Fprintf(os.Stderr, "  %s\n", ce.Suggestion)
			}
		}
		os.Exit(ctxerr.ExitCode(err))
	}
}
