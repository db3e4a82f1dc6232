// Package cli provides the command-line interface for bilog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/bilog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	commands.ExitCode = 0
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "bilog",
		Short: "Find the time range of a log file without reading all of it",
		Long: `bilog locates the first and last timestamped lines of a log file by
reading fixed-size chunks from both ends, then prints the lines that fall
inside a time window.

The timestamp format is detected from the first lines of the file. Built-in
formats cover YYYY-MM-DD HH:MM:SS with any single separator, an optional
.mmm fraction, and an optional Z or +hh:mm suffix. More formats can be added
in the configuration file.

Configuration is read from --config (YAML, or TOML for .toml files).
Environment overrides: BILOG_TIMEZONE, BILOG_LOG_LEVEL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Configuration file (YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")

	// Add subcommands
	rootCmd.AddCommand(commands.NewDetectCommand(g))
	rootCmd.AddCommand(commands.NewRangeCommand(g))
	rootCmd.AddCommand(commands.NewSearchCommand(g))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
