// Package cli holds the csvview command tree.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvview/internal/core"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Running it bare starts the server.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	serve := NewServeCommand(opts)

	cmd := &cobra.Command{
		Use:   "csvview",
		Short: "Upload a CSV or spreadsheet and browse it as a table",
		Long: `csvview serves a single-page app that loads one CSV or Excel file at a
time, lets you pick and sort its columns, and exports the result as CSV,
JSON or Parquet.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// Execute runs cmd and reports a failure on its error stream, returning the
// process exit code. Errors with a support code get a second line telling
// the user what to do.
func Execute(cmd *cobra.Command) int {
	cmd.SilenceErrors = true
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	cmd.PrintErrln("Error:", err)
	if core.IsUserFacing(err) {
		cmd.PrintErrln("  " + core.FormatUserError(err))
	}
	return 1
}
