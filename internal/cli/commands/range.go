package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/bilog/pkg/output"
)

// RangeOptions holds command-line options for the range command.
type RangeOptions struct {
	Output     string
	Format     string
	BufferSize int
	Verbose    bool
	Quiet      bool
}

// NewRangeCommand creates the range command.
func NewRangeCommand(g *GlobalOptions) *cobra.Command {
	opts := &RangeOptions{}

	cmd := &cobra.Command{
		Use:   "range <log-file>",
		Short: "Show the first and last timestamps of a log file",
		Long: `Locate the first and last timestamped lines of a log file.

The timestamp format is detected from the first lines of the file unless
--format names one. The file is then read in fixed-size chunks from its
start and from its end, so memory use does not grow with the file.

Exit codes:
  0 - Range located
  2 - No timestamp found, or I/O error

Example:
  bilog range /var/log/app.log
  bilog range -o json /var/log/app.log
  bilog range --buffer-size 65536 /var/log/huge.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRange(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Timestamp format name (skips detection)")
	cmd.Flags().IntVar(&opts.BufferSize, "buffer-size", 0, "Scan chunk size in bytes (default from config)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include run metadata")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Print only start, end and span")

	return cmd
}

func runRange(cmd *cobra.Command, args []string, g *GlobalOptions, opts *RangeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := output.New(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	env, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	loc, err := env.locate(args[0], opts.Format, opts.BufferSize)
	if err != nil {
		return err
	}
	defer loc.file.Close()

	report := output.NewReport(args[0], loc.format, loc.rng, output.Metadata{
		ConfigFile: g.ConfigPath,
		FileSize:   loc.size,
		BufferSize: loc.bufferSize,
		AnalyzedAt: time.Now(),
		Duration:   loc.duration,
	})

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}
