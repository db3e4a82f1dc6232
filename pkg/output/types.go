// Package output provides formatting and output generation for range and
// search results.
package output

import (
	"time"

	"github.com/ccollicutt/bilog/pkg/detector"
	"github.com/ccollicutt/bilog/pkg/scanner"
	"github.com/ccollicutt/bilog/pkg/search"
)

// Report is the complete result of locating a file's time range, and
// optionally of searching inside it.
type Report struct {
	// File is the log file that was scanned.
	File string `json:"file"`

	// Format identifies the timestamp format the file was scanned with.
	Format FormatInfo `json:"format"`

	// Start and End are the first and last timestamped lines.
	Start LineInfo `json:"start"`
	End   LineInfo `json:"end"`

	// Summary provides derived figures.
	Summary Summary `json:"summary"`

	// Search is set when the lines inside a time window were requested.
	Search *SearchInfo `json:"search,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// FormatInfo describes a timestamp format.
type FormatInfo struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// LineInfo locates a timestamped line.
type LineInfo struct {
	Offset     int64     `json:"offset"`
	Timestamp  time.Time `json:"timestamp"`
	UnixMillis int64     `json:"unix_millis"`
}

// Summary provides figures derived from the range.
type Summary struct {
	// Span is End minus Start. Negative when the log is not in time order.
	Span       time.Duration `json:"-"`
	SpanString string        `json:"span"`
	SpanMillis int64         `json:"span_millis"`

	// SingleLine is true when the file holds a single timestamped line.
	SingleLine bool `json:"single_line"`

	// BracketBytes is the number of bytes from Start up to End's offset.
	BracketBytes int64 `json:"bracket_bytes"`
}

// SearchInfo reports a window search.
type SearchInfo struct {
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	LinesRead    int        `json:"lines_read"`
	LinesMatched int        `json:"lines_matched"`
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// FileSize is the size of the log file in bytes.
	FileSize int64 `json:"file_size"`

	// BufferSize is the scan chunk size in bytes.
	BufferSize int `json:"buffer_size"`

	// AnalyzedAt is when the scan was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the scan took.
	Duration time.Duration `json:"duration_ns"`
}

// NewReport creates a Report from a located range.
func NewReport(file string, format *detector.TimeFormat, rng scanner.FileTimeRange, meta Metadata) *Report {
	span := rng.Span()
	return &Report{
		File: file,
		Format: FormatInfo{
			Name:    format.Name,
			Pattern: format.PatternStr,
		},
		Start: lineInfo(rng.Start),
		End:   lineInfo(rng.End),
		Summary: Summary{
			Span:         span,
			SpanString:   span.String(),
			SpanMillis:   span.Milliseconds(),
			SingleLine:   rng.SingleLine(),
			BracketBytes: rng.End.Offset - rng.Start.Offset,
		},
		Metadata: meta,
	}
}

// WithSearch records the outcome of a window search on the report.
func (r *Report) WithSearch(w search.Window, stats search.Stats) *Report {
	info := &SearchInfo{
		From:         w.From,
		LinesRead:    stats.LinesRead,
		LinesMatched: stats.LinesMatched,
	}
	if !w.To.IsZero() {
		to := w.To
		info.To = &to
	}
	r.Search = info
	return r
}

// HasMatches returns false when a search was run and found nothing.
func (r *Report) HasMatches() bool {
	return r.Search == nil || r.Search.LinesMatched > 0
}

func lineInfo(m scanner.LineMatch) LineInfo {
	return LineInfo{
		Offset:     m.Offset,
		Timestamp:  m.Timestamp,
		UnixMillis: m.Timestamp.UnixMilli(),
	}
}
