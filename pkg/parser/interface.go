package parser

import (
	"context"
	"time"
)

// LogSource provides an iterator over parsed log lines.
// Implementations must be safe for sequential access (not concurrent).
type LogSource interface {
	// Next returns the next parsed log line.
	// Returns io.EOF when no more lines are available.
	Next(ctx context.Context) (*ParsedLine, error)

	// Close releases any resources held by the source.
	Close() error
}

// TimestampParser recognises and parses the timestamp of a line.
// *detector.TimeFormat implements it.
type TimestampParser interface {
	IsMatch(line string) bool
	Parse(line string) (time.Time, error)
}
