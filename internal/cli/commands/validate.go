package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/bilog/pkg/config"
	"github.com/ccollicutt/bilog/pkg/detector"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a bilog configuration file without reading any log.

Checks:
  - YAML or TOML syntax
  - Scan and detection limits
  - Timezone name or offset
  - Custom format regexes and their named groups
  - Custom format examples
  - Log level and format`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	// Load and validate config
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Report what we found
	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Timezone:        %s (%s)\n", cfg.Timezone, registry.LocalOffset())
	fmt.Fprintf(w, "  Buffer size:     %d bytes\n", cfg.Scan.BufferSize)
	fmt.Fprintf(w, "  Max line length: %d bytes\n", cfg.Scan.MaxLineLength)
	fmt.Fprintf(w, "  Sample lines:    %d\n", cfg.Detect.SampleLines)

	printFormats(w, registry)
	return nil
}

func printFormats(w io.Writer, registry *detector.Registry) {
	fmt.Fprintf(w, "\nFormats (in match order):\n")
	for i, f := range registry.Formats() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, f.Name)
		for _, ex := range f.Examples {
			fmt.Fprintf(w, "     e.g. %s\n", ex)
		}
	}
}
