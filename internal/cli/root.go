// Package cli wires forge's cobra commands together, grounded on the
// teacher's cmd/crisk root command (persistent --config/--verbose flags
// loading a Config in PersistentPreRun, subcommands added in init).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/config"
	"github.com/forgekit-dev/forge/internal/logging"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
	log *logging.Logger
)

// NewRootCommand builds the "forge" root command with every subcommand
// attached, ready for Execute.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "forge",
		Short: "Survey source repositories into a typed knowledge graph",
		Long: `forge surveys one or more repositories, extracts services, data
stores, and the relationships between them, and persists the result as a
knowledge graph that can be sliced into token-budgeted Markdown, JSON, or
diagram output for LLM consumption.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return apperrors.Wrap(err, apperrors.TypeConfig, "ConfigLoad", apperrors.SeverityHigh, "failed to load config")
			}
			cfg = loaded

			level := logging.INFO
			if verbose {
				level = logging.DEBUG
			}
			l, err := logging.New(logging.Config{Level: level, JSONFormat: false, AddSource: verbose})
			if err != nil {
				return apperrors.Wrap(err, apperrors.TypeInternal, "LoggerInit", apperrors.SeverityHigh, "failed to initialize logger")
			}
			log = l
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .forge/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newInitCommand())
	root.AddCommand(newSurveyCommand())
	root.AddCommand(newMapCommand())
	root.AddCommand(newMCPServeCommand())

	return root
}

// ExitCode maps an apperrors.Type to a process exit code, adapted from
// the teacher's category-to-behavior mapping in internal/cli/errors.go.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *apperrors.Error
	if wrapped, ok := err.(*apperrors.Error); ok {
		appErr = wrapped
	}
	if appErr == nil {
		return 1
	}
	switch appErr.Type {
	case apperrors.TypeConfig:
		return 2
	case apperrors.TypeNetwork:
		return 3
	case apperrors.TypePersistence:
		return 4
	case apperrors.TypeExtractor:
		return 5
	case apperrors.TypeGraph, apperrors.TypeIdentifier:
		return 6
	default:
		return 1
	}
}

// Main runs the root command and returns the process exit code. Kept
// separate from cmd/forge/main.go's os.Exit call so it stays testable.
func Main() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCode(err)
	}
	return 0
}
