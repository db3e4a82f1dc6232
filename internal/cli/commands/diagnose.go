package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/bilog/pkg/config"
	"github.com/ccollicutt/bilog/pkg/detector"
	"github.com/ccollicutt/bilog/pkg/scanner"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Diagnose why a log file cannot be bracketed",
		Long: `Diagnose common problems with a log file and the configuration.

This command runs each step of the range lookup separately:
- Config file syntax and structure (when --config is given)
- Log file existence and accessibility
- Timestamp format detection against the first lines
- Parsing of the first timestamped line
- Locating the first and last timestamped lines

Example:
  bilog diagnose /var/log/app.log
  bilog --config bilog.yaml diagnose -v /var/log/app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), g.ConfigPath, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath, logPath string, opts *DiagnoseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := []DiagnosticResult{}

	// 1. Load config, or fall back to defaults
	cfg := config.DefaultConfig()
	if configPath != "" {
		result := checkConfigExists(configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}

		var loaded *config.Config
		loaded, result = checkConfigParseable(ctx, configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
		cfg = loaded
	} else if err := config.Validate(cfg); err != nil {
		results = append(results, DiagnosticResult{
			Check:   "Config",
			Status:  "error",
			Message: fmt.Sprintf("Default config invalid: %v", err),
			Suggests: []string{
				fmt.Sprintf("Check the %s and %s environment variables", config.EnvTimezone, config.EnvLogLevel),
			},
		})
		printDiagnostics(w, results, opts)
		return nil
	}

	registry, err := cfg.Registry()
	if err != nil {
		results = append(results, DiagnosticResult{
			Check:   "Formats",
			Status:  "error",
			Message: fmt.Sprintf("Cannot build format registry: %v", err),
		})
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Check the log file
	result := checkLogFile(logPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Detect the format
	detection, result := checkFormatDetection(logPath, cfg, registry)
	results = append(results, result)
	if detection == nil || !detection.HasMatch() {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 4. Parse the first timestamped line
	result = checkTimestampParse(detection)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 5. Locate the range
	results = append(results, checkTimeRange(logPath, cfg, detection.Format))

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'bilog detect <log-file> --write-config bilog.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case strings.Contains(err.Error(), "toml"):
			result.Suggests = []string{
				"Check TOML syntax - tables in [brackets], strings quoted",
			}
		case strings.Contains(err.Error(), "named group"):
			result.Suggests = []string{
				"Custom patterns need (?P<YEAR>...), (?P<MONTH>...), (?P<DAY>...), " +
					"(?P<HOUR>...), (?P<MINUTE>...) and (?P<SECOND>...) groups",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Timezone: %s", cfg.Timezone),
		fmt.Sprintf("Custom formats: %d", len(cfg.Formats)),
		fmt.Sprintf("Buffer size: %d", cfg.Scan.BufferSize),
	}
	return cfg, result
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Log file not found: %s", path)
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access log file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided log path is expected
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot open log file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	_ = f.Close()

	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Log file is empty"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkFormatDetection(path string, cfg *config.Config, registry *detector.Registry) (*detector.DetectionResult, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Timestamp Format",
	}

	d := detector.New(registry, detector.WithSampleSize(cfg.Detect.SampleLines))
	detection, err := d.DetectFromFile(context.Background(), path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Detection failed: %v", err)
		if strings.Contains(err.Error(), "UTF-8") {
			result.Suggests = []string{"Only UTF-8 encoded logs are supported; convert the file with iconv"}
		}
		return nil, result
	}

	if !detection.HasMatch() {
		result.Status = "error"
		result.Message = fmt.Sprintf("No format matched in %d sampled lines", detection.SampledLines)
		result.Suggests = []string{
			"Add a custom pattern under \"formats\" in the config file",
			fmt.Sprintf("Raise detect.sample_lines (currently %d) if timestamps start later in the file", cfg.Detect.SampleLines),
		}
		return detection, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Detected %s on line %d", detection.Format.Name, detection.LineNumber)
	result.Details = []string{
		fmt.Sprintf("Sample: %s", truncate(detection.SampleLine, 80)),
		fmt.Sprintf("Pattern: %s", truncate(detection.Format.PatternStr, 80)),
	}
	if detection.LineNumber > 1 {
		result.Status = "warning"
		result.Details = append(result.Details,
			fmt.Sprintf("%d leading line(s) carry no timestamp", detection.LineNumber-1))
	}
	return detection, result
}

func checkTimestampParse(detection *detector.DetectionResult) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Timestamp Parsing",
	}

	ts, err := detection.Format.Parse(detection.SampleLine)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Matched line does not parse: %v", err)
		result.Details = []string{fmt.Sprintf("Line %d: %s", detection.LineNumber, truncate(detection.SampleLine, 80))}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Parsed as %s", ts.Format("2006-01-02T15:04:05.000Z07:00"))
	result.Details = []string{fmt.Sprintf("Assumed local offset: %s", detection.Format.LocalOffset())}
	return result
}

func checkTimeRange(path string, cfg *config.Config, format *detector.TimeFormat) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Time Range",
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided log path is expected
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot open log file: %v", err)
		return result
	}
	defer f.Close()

	s := scanner.New(
		scanner.WithBufferSize(cfg.Scan.BufferSize),
		scanner.WithMaxLineLength(cfg.Scan.MaxLineLength))
	rng, err := s.FileTimeRange(f, format)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Range lookup failed: %v", err)
		if strings.Contains(err.Error(), "maximum line length") {
			result.Suggests = []string{
				fmt.Sprintf("Raise scan.max_line_length (currently %d)", cfg.Scan.MaxLineLength),
			}
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Span %s", rng.Span())
	result.Details = []string{
		fmt.Sprintf("Start: offset %d, %s", rng.Start.Offset, rng.Start.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")),
		fmt.Sprintf("End:   offset %d, %s", rng.End.Offset, rng.End.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")),
	}
	if rng.SingleLine() {
		result.Status = "warning"
		result.Message = "Only one timestamped line found"
	} else if rng.Span() < 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Last line is %s older than the first; the log is not in time order", -rng.Span())
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== bilog Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		// Status icon
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running range or search.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nThe file is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nThe file looks good!")
	}
}
