package output

import (
	"context"
	"fmt"
	"io"
	"time"
)

// timeLayout is RFC 3339 with fixed millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s %s\n",
		report.Start.Timestamp.Format(timeLayout),
		report.End.Timestamp.Format(timeLayout),
		report.Summary.SpanString)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	p := &printer{w: w}

	p.println("=== Log Time Range ===")
	p.println()
	p.printf("File:   %s\n", report.File)
	p.printf("Format: %s\n", report.Format.Name)
	p.println()
	p.printf("Start:  %s (offset %d)\n", report.Start.Timestamp.Format(timeLayout), report.Start.Offset)
	p.printf("End:    %s (offset %d)\n", report.End.Timestamp.Format(timeLayout), report.End.Offset)

	if report.Summary.SingleLine {
		p.println("Span:   single timestamped line")
	} else {
		p.printf("Span:   %s\n", report.Summary.SpanString)
	}
	if report.Summary.Span < 0 {
		p.println("Note:   last line is older than the first; the log is not in time order")
	}

	if s := report.Search; s != nil {
		p.println()
		p.println("--- Search ---")
		to := "open"
		if s.To != nil {
			to = s.To.Format(timeLayout)
		}
		p.printf("Window: %s .. %s\n", s.From.Format(timeLayout), to)
		p.printf("Lines:  %d matched of %d read\n", s.LinesMatched, s.LinesRead)
	}

	if f.opts.Verbose {
		p.println()
		p.println("---")
		if report.Metadata.ConfigFile != "" {
			p.printf("Config: %s\n", report.Metadata.ConfigFile)
		}
		p.printf("Pattern: %s\n", report.Format.Pattern)
		p.printf("File size: %d bytes, buffer: %d bytes\n", report.Metadata.FileSize, report.Metadata.BufferSize)
		p.printf("Duration: %s\n", report.Metadata.Duration.Round(time.Microsecond))
	}

	return p.err
}

// printer remembers the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *printer) println(args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintln(p.w, args...)
	}
}
