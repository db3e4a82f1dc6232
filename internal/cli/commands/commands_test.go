package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/bilog/pkg/config"
)

const testLog = `service starting
2023-01-02 00:00:00 first
  detail of first
2023-01-02 00:00:30 second
2023-01-02 00:01:00 third
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvTimezone, "UTC")
	ExitCode = 0

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestNewCommands(t *testing.T) {
	g := &GlobalOptions{}
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewDetectCommand(g), "detect <log-file>", []string{"output", "sample", "write-config"}},
		{NewRangeCommand(g), "range <log-file>", []string{"output", "format", "buffer-size", "verbose", "quiet"}},
		{NewSearchCommand(g), "search -s <time> [-e <time>] <log-file>", []string{"start-time", "end-time", "output", "summary"}},
		{NewDiagnoseCommand(g), "diagnose <log-file>", []string{"verbose"}},
		{NewValidateCommand(), "validate <config-file>", nil},
		{NewVersionCommand(), "version", nil},
	}

	for _, tt := range tests {
		if tt.cmd.Use != tt.use {
			t.Errorf("Unexpected Use: %s", tt.cmd.Use)
		}
		for _, flag := range tt.flags {
			if tt.cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s: missing flag %s", tt.use, flag)
			}
		}
	}
}

func TestRunRange_Text(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	out, err := execute(t, NewRangeCommand(&GlobalOptions{}), logPath)
	if err != nil {
		t.Fatalf("range error = %v", err)
	}

	for _, want := range []string{
		"Format: RFC3339",
		"Start:  2023-01-02T00:00:00.000Z (offset 17)",
		"End:    2023-01-02T00:01:00.000Z",
		"Span:   1m0s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}
}

func TestRunRange_JSON(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	out, err := execute(t, NewRangeCommand(&GlobalOptions{}), "-o", "json", "--buffer-size", "8", logPath)
	if err != nil {
		t.Fatalf("range error = %v", err)
	}

	var decoded struct {
		Start struct {
			Offset int64 `json:"offset"`
		} `json:"start"`
		End struct {
			Offset int64 `json:"offset"`
		} `json:"end"`
		Metadata struct {
			BufferSize int `json:"buffer_size"`
		} `json:"metadata"`
	}
	if err := sonic.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if decoded.Start.Offset != 17 {
		t.Errorf("start offset = %d, want 17", decoded.Start.Offset)
	}
	if want := int64(strings.Index(testLog, "2023-01-02 00:01:00")); decoded.End.Offset != want {
		t.Errorf("end offset = %d, want %d", decoded.End.Offset, want)
	}
	if decoded.Metadata.BufferSize != 8 {
		t.Errorf("buffer size = %d, want 8", decoded.Metadata.BufferSize)
	}
}

func TestRunRange_Errors(t *testing.T) {
	noStamps := writeFile(t, "plain.log", "nothing\nto see\n")

	if _, err := execute(t, NewRangeCommand(&GlobalOptions{}), "/nonexistent/app.log"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := execute(t, NewRangeCommand(&GlobalOptions{}), noStamps); err == nil {
		t.Error("expected error for file without timestamps")
	}
	if _, err := execute(t, NewRangeCommand(&GlobalOptions{}), "-o", "xml", noStamps); err == nil {
		t.Error("expected error for unknown output format")
	}
	if _, err := execute(t, NewRangeCommand(&GlobalOptions{}), "--format", "nope", noStamps); err == nil {
		t.Error("expected error for unknown format name")
	}
}

func TestRunRange_CustomFormatFromConfig(t *testing.T) {
	logPath := writeFile(t, "app.log", "boot\n[15/01/2024 10:00:00] a\n[15/01/2024 10:05:00] b\n")
	cfgPath := writeFile(t, "bilog.yaml", `timezone: UTC
formats:
  - name: european
    pattern: '\[(?P<DAY>\d{2})/(?P<MONTH>\d{2})/(?P<YEAR>\d{4}) (?P<HOUR>\d{2}):(?P<MINUTE>\d{2}):(?P<SECOND>\d{2})\]'
`)

	out, err := execute(t, NewRangeCommand(&GlobalOptions{ConfigPath: cfgPath}), logPath)
	if err != nil {
		t.Fatalf("range error = %v", err)
	}
	if !strings.Contains(out, "Format: european") || !strings.Contains(out, "Span:   5m0s") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunSearch(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	out, err := execute(t, NewSearchCommand(&GlobalOptions{}),
		"-s", "2023-01-02 00:00:00", "-e", "2023-01-02T00:00:30Z", logPath)
	if err != nil {
		t.Fatalf("search error = %v", err)
	}

	want := "2023-01-02 00:00:00 first\n  detail of first\n2023-01-02 00:00:30 second\n"
	if out != want {
		t.Errorf("search output = %q, want %q", out, want)
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}
}

func TestRunSearch_OpenEndedJSON(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	out, err := execute(t, NewSearchCommand(&GlobalOptions{}), "-o", "json", "-s", "2023-01-02 00:00:30", logPath)
	if err != nil {
		t.Fatalf("search error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], `"line":"2023-01-02 00:01:00 third"`) {
		t.Errorf("unexpected last line: %s", lines[1])
	}
}

func TestRunSearch_NoMatchSetsExitCode(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	out, err := execute(t, NewSearchCommand(&GlobalOptions{}), "-s", "2024-01-01 00:00:00", logPath)
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
}

func TestRunSearch_InvalidArguments(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	tests := []struct {
		name string
		args []string
	}{
		{"missing start", []string{logPath}},
		{"unparsable start", []string{"-s", "yesterday", logPath}},
		{"unparsable end", []string{"-s", "2023-01-02 00:00:00", "-e", "soon", logPath}},
		{"inverted window", []string{"-s", "2023-01-02 00:01:00", "-e", "2023-01-02 00:00:00", logPath}},
		{"impossible date", []string{"-s", "2023-02-30 00:00:00", logPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, NewSearchCommand(&GlobalOptions{}), tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunDetect_Success(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	out, err := execute(t, NewDetectCommand(&GlobalOptions{}), logPath)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	for _, want := range []string{
		"Detected Format: RFC3339",
		"First match on line 2:",
		"Parsed as: 2023-01-02T00:00:00Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestRunDetect_NoMatch(t *testing.T) {
	logPath := writeFile(t, "plain.log", "a\nb\nc\n")

	out, err := execute(t, NewDetectCommand(&GlobalOptions{}), logPath)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	if !strings.Contains(out, "No timestamp format detected.") || !strings.Contains(out, "Lines sampled: 3") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
}

func TestRunDetect_SampleLimit(t *testing.T) {
	logPath := writeFile(t, "late.log", "a\nb\nc\n2023-01-02 00:00:00 late\n")

	_, err := execute(t, NewDetectCommand(&GlobalOptions{}), "-n", "3", logPath)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1 with the match past the sample", ExitCode)
	}
}

func TestRunDetect_JSONOutput(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	out, err := execute(t, NewDetectCommand(&GlobalOptions{}), "-o", "json", logPath)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}

	var decoded JSONOutput
	if err := sonic.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if decoded.Match == nil || decoded.Match.Name != "RFC3339" || decoded.Match.LineNumber != 2 {
		t.Errorf("match = %+v", decoded.Match)
	}
}

func TestRunDetect_MissingFile(t *testing.T) {
	if _, err := execute(t, NewDetectCommand(&GlobalOptions{}), "/nonexistent/file.log"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunDetect_WriteConfig(t *testing.T) {
	logPath := writeFile(t, "app.log", testLog)

	for _, name := range []string{"bilog.yaml", "bilog.toml"} {
		t.Run(name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), name)

			out, err := execute(t, NewDetectCommand(&GlobalOptions{}), "-w", cfgPath, logPath)
			if err != nil {
				t.Fatalf("detect error = %v", err)
			}
			if !strings.Contains(out, "Wrote starter config to: "+cfgPath) {
				t.Errorf("missing confirmation:\n%s", out)
			}

			data, err := os.ReadFile(cfgPath)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "# Detected format: RFC3339 (line 2)") {
				t.Errorf("missing header:\n%s", data)
			}

			// The starter config must load and validate.
			if _, err := execute(t, NewValidateCommand(), cfgPath); err != nil {
				t.Errorf("generated config does not validate: %v\n%s", err, data)
			}

			// And is never overwritten.
			if _, err := execute(t, NewDetectCommand(&GlobalOptions{}), "-w", cfgPath, logPath); err == nil {
				t.Error("expected error when config exists")
			}
		})
	}
}

func TestRunValidate(t *testing.T) {
	cfgPath := writeFile(t, "bilog.yaml", "timezone: '+08:00'\ndetect:\n  sample_lines: 10\n")

	out, err := execute(t, NewValidateCommand(), cfgPath)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	for _, want := range []string{"Configuration valid!", "Sample lines:    10", "1. RFC3339"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	bad := writeFile(t, "bad.yaml", "scan:\n  buffer_size: -1\n")
	if _, err := execute(t, NewValidateCommand(), bad); err == nil {
		t.Error("expected validation error")
	}
	if _, err := execute(t, NewValidateCommand(), "/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestRunVersion(t *testing.T) {
	out, err := execute(t, NewVersionCommand())
	if err != nil {
		t.Fatal(err)
	}
	if out != "bilog dev\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a very long line indeed", 10); got != "a very ..." {
		t.Errorf("truncate() = %q", got)
	}
}
