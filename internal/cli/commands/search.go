package commands

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/bilog/pkg/output"
	"github.com/ccollicutt/bilog/pkg/parser"
	"github.com/ccollicutt/bilog/pkg/search"
)

// SearchOptions holds command-line options for the search command.
type SearchOptions struct {
	StartTime  string
	EndTime    string
	Output     string
	Format     string
	BufferSize int
	Summary    bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand(g *GlobalOptions) *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search -s <time> [-e <time>] <log-file>",
		Short: "Print the lines of a log file inside a time window",
		Long: `Print every line whose timestamp lies between --start-time and
--end-time, both inclusive. Without --end-time the window is open ended.
Lines without a timestamp, such as stack traces, follow the line before them.

Times are written in any supported timestamp format and read in the
configured timezone when they carry none:
  -s '2023-01-02 20:13:14'
  -s '2023/01/02 20:13:14'
  -s '2023-01-02T12:13:14.000Z'
  -s '2023-01-02T12:13:14+08:00'

Exit codes:
  0 - Lines found
  1 - No line in the window
  2 - Invalid arguments, no timestamp in the file, or I/O error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.StartTime, "start-time", "s", "", "Start of the window, inclusive (required)")
	cmd.Flags().StringVarP(&opts.EndTime, "end-time", "e", "", "End of the window, inclusive")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Timestamp format name (skips detection)")
	cmd.Flags().IntVar(&opts.BufferSize, "buffer-size", 0, "Scan chunk size in bytes (default from config)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "Print a range and search summary to stderr")
	_ = cmd.MarkFlagRequired("start-time")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, g *GlobalOptions, opts *SearchOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	lines, err := output.NewLineWriter(opts.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	env, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	window, err := parseWindow(env, opts)
	if err != nil {
		return err
	}

	loc, err := env.locate(args[0], opts.Format, opts.BufferSize)
	if err != nil {
		return err
	}
	defer loc.file.Close()

	s := search.New(
		search.WithMaxLineLength(env.cfg.Scan.MaxLineLength),
		search.WithLogger(log.WithFields(log.Fields{"component": "search", "file": args[0]})))

	stats, err := s.Search(ctx, loc.file, loc.format, loc.rng, window, func(l *parser.ParsedLine) error {
		return lines.WriteLine(l)
	})
	if ferr := lines.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		return fmt.Errorf("searching %s: %w", args[0], err)
	}

	if opts.Summary {
		report := output.NewReport(args[0], loc.format, loc.rng, output.Metadata{
			ConfigFile: g.ConfigPath,
			FileSize:   loc.size,
			BufferSize: loc.bufferSize,
			AnalyzedAt: time.Now(),
			Duration:   loc.duration,
		}).WithSearch(window, stats)
		if err := output.NewTextFormatter(output.FormatOptions{}).Format(ctx, report, cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("formatting summary: %w", err)
		}
	}

	if stats.LinesMatched == 0 {
		ExitCode = 1
	}
	return nil
}

// parseWindow reads the start and end arguments with the same registry
// used for the file, so both accept every configured format.
func parseWindow(env *environment, opts *SearchOptions) (search.Window, error) {
	var w search.Window

	from, err := env.registry.ParseTime(opts.StartTime)
	if err != nil {
		return w, fmt.Errorf("invalid start time: %w", err)
	}
	w.From = from

	if opts.EndTime != "" {
		to, err := env.registry.ParseTime(opts.EndTime)
		if err != nil {
			return w, fmt.Errorf("invalid end time: %w", err)
		}
		w.To = to
	}

	return w, w.Validate()
}
