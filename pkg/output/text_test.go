package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/bilog/pkg/detector"
	"github.com/ccollicutt/bilog/pkg/scanner"
	"github.com/ccollicutt/bilog/pkg/search"
)

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{}).Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"=== Log Time Range ===",
		"File:   /var/log/app.log",
		"Format: RFC3339",
		"Start:  2023-01-02T00:00:00.000Z (offset 0)",
		"End:    2023-01-02T00:00:01.000Z (offset 20)",
		"Span:   1s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
	if strings.Contains(output, "Duration:") {
		t.Error("non-verbose output should not include metadata")
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{Quiet: true}).Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "2023-01-02T00:00:00.000Z 2023-01-02T00:00:01.000Z 1s\n"
	if buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	var buf bytes.Buffer
	report := createTestReport()
	report.Metadata.ConfigFile = "bilog.yaml"
	if err := NewTextFormatter(FormatOptions{Verbose: true}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Config: bilog.yaml", "buffer: 4096 bytes", "Duration:"} {
		if !strings.Contains(output, want) {
			t.Errorf("verbose output missing %q", want)
		}
	}
}

func TestTextFormatter_Format_SingleLineAndUnordered(t *testing.T) {
	f := testFormat(t)
	t0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	single := NewReport("a.log", f, scanner.FileTimeRange{
		Start: scanner.LineMatch{Offset: 5, Timestamp: t0},
		End:   scanner.LineMatch{Offset: 5, Timestamp: t0},
	}, Metadata{})
	var buf bytes.Buffer
	_ = NewTextFormatter(FormatOptions{}).Format(context.Background(), single, &buf)
	if !strings.Contains(buf.String(), "single timestamped line") {
		t.Errorf("expected single line note:\n%s", buf.String())
	}

	unordered := NewReport("b.log", f, scanner.FileTimeRange{
		Start: scanner.LineMatch{Offset: 0, Timestamp: t0},
		End:   scanner.LineMatch{Offset: 40, Timestamp: t0.Add(-time.Minute)},
	}, Metadata{})
	buf.Reset()
	_ = NewTextFormatter(FormatOptions{}).Format(context.Background(), unordered, &buf)
	if !strings.Contains(buf.String(), "not in time order") {
		t.Errorf("expected ordering note:\n%s", buf.String())
	}
}

func TestTextFormatter_Format_Search(t *testing.T) {
	report := createTestReport().WithSearch(
		search.Window{From: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		search.Stats{LinesRead: 2, LinesMatched: 1},
	)

	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Window: 2023-01-02T00:00:00.000Z .. open") {
		t.Errorf("missing window:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "Lines:  1 matched of 2 read") {
		t.Errorf("missing stats:\n%s", buf.String())
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"text", "json"} {
		f, err := New(name, FormatOptions{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Name() = %q, want %q", f.Name(), name)
		}
	}
	if _, err := New("xml", FormatOptions{}); err == nil {
		t.Error("New(xml) expected error")
	}
}

func testFormat(t *testing.T) *detector.TimeFormat {
	t.Helper()
	f, ok := detector.MustNewRegistry(detector.WithLocalOffset(0)).Lookup("RFC3339")
	if !ok {
		t.Fatal("RFC3339 not registered")
	}
	return f
}

func createTestReport() *Report {
	f, _ := detector.MustNewRegistry(detector.WithLocalOffset(0)).Lookup("RFC3339")
	t0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rng := scanner.FileTimeRange{
		Start: scanner.LineMatch{Offset: 0, Timestamp: t0},
		End:   scanner.LineMatch{Offset: 20, Timestamp: t0.Add(time.Second)},
	}
	return NewReport("/var/log/app.log", f, rng, Metadata{
		FileSize:   40,
		BufferSize: 4096,
		AnalyzedAt: t0,
		Duration:   1500 * time.Microsecond,
	})
}
