package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/bilog/pkg/config"
	"github.com/ccollicutt/bilog/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand(g *GlobalOptions) *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect timestamp format in a log file",
		Long: `Read the first lines of a log file and report the first registered
timestamp format that matches one of them.

Formats are tried in order: built-in formats first, then those listed under
"formats" in the configuration file.

Optionally generates a starter config file with --write-config. The file
type follows its extension (.yaml, .yml or .toml).

Exit codes:
  0 - Format detected
  1 - No format matched within the sampled lines
  2 - I/O error or invalid UTF-8

Example:
  bilog detect /var/log/myapp.log
  bilog detect --sample 500 /var/log/large.log
  bilog detect --write-config bilog.yaml /var/log/app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 0, "Number of lines to sample (default from config)")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, g *GlobalOptions, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	// Check file exists
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	env, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = env.cfg.Detect.SampleLines
	}
	d := detector.New(env.registry, detector.WithSampleSize(sampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	// Write config file if requested
	if opts.WriteConfig != "" {
		if err := writeStarterConfig(cmd.OutOrStdout(), env.cfg, result, opts.WriteConfig); err != nil {
			return err
		}
	}

	if !result.HasMatch() {
		ExitCode = 1
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(cmd.OutOrStdout(), result, logFile)
	default:
		return outputDetectText(cmd.OutOrStdout(), result, logFile)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string) error {
	fmt.Fprintln(w, "=== Timestamp Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No timestamp format detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: The file may use an uncommon format.")
		fmt.Fprintln(w, "Add a pattern with YEAR, MONTH, DAY, HOUR, MINUTE and SECOND named groups")
		fmt.Fprintln(w, "under \"formats\" in the config file.")
		return nil
	}

	f := result.Format
	fmt.Fprintf(w, "Detected Format: %s\n", f.Name)
	fmt.Fprintf(w, "First match on line %d:\n  %s\n", result.LineNumber, result.SampleLine)

	ts, err := f.Parse(result.SampleLine)
	if err != nil {
		fmt.Fprintf(w, "Parse error: %v\n", err)
	} else {
		fmt.Fprintf(w, "Parsed as: %s\n", ts.Format(time.RFC3339Nano))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Pattern ---")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", f.PatternStr)
	return nil
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string     `json:"file"`
	SampledLines int        `json:"sampled_lines"`
	Match        *JSONMatch `json:"match"`
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Name       string `json:"name"`
	Pattern    string `json:"pattern"`
	LineNumber int    `json:"line_number"`
	SampleLine string `json:"sample_line"`
	ParsedTime string `json:"parsed_time,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string) error {
	out := JSONOutput{
		File:         logFile,
		SampledLines: result.SampledLines,
	}

	if result.HasMatch() {
		out.Match = &JSONMatch{
			Name:       result.Format.Name,
			Pattern:    result.Format.PatternStr,
			LineNumber: result.LineNumber,
			SampleLine: result.SampleLine,
		}
		if ts, err := result.Format.Parse(result.SampleLine); err == nil {
			out.Match.ParsedTime = ts.Format(time.RFC3339Nano)
		}
	}

	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// writeStarterConfig writes the active configuration, with the detected
// format recorded, as a starting point for the user.
func writeStarterConfig(w io.Writer, cfg *config.Config, result *detector.DetectionResult, configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	// Need a detected format to generate config
	if !result.HasMatch() {
		return errors.New("cannot generate config: no timestamp format detected")
	}

	content, err := generateStarterConfig(cfg, result, configPath)
	if err != nil {
		return err
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig renders cfg in the format implied by configPath.
// The detected format is listed in a comment header; built-in formats are
// not repeated under "formats".
func generateStarterConfig(cfg *config.Config, result *detector.DetectionResult, configPath string) ([]byte, error) {
	starter := *cfg
	starter.Log.File = ""

	body, err := config.Marshal(configPath, &starter)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}

	var header strings.Builder
	header.WriteString("# bilog configuration\n")
	header.WriteString("# Generated by: bilog detect\n")
	fmt.Fprintf(&header, "# Detected format: %s (line %d)\n", result.Format.Name, result.LineNumber)
	fmt.Fprintf(&header, "# Sample: %s\n", truncate(result.SampleLine, 120))
	if ext := strings.ToLower(filepath.Ext(configPath)); ext != ".toml" {
		header.WriteString("#\n# Add formats as:\n")
		header.WriteString("# formats:\n")
		header.WriteString("#   - name: my-format\n")
		header.WriteString("#     pattern: '(?P<YEAR>\\d{4})-(?P<MONTH>\\d{2})-(?P<DAY>\\d{2}) (?P<HOUR>\\d{2}):(?P<MINUTE>\\d{2}):(?P<SECOND>\\d{2})'\n")
	}
	header.WriteString("\n")

	return append([]byte(header.String()), body...), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
