// Package scanner locates the first and last timestamped lines of a log
// file by reading fixed-size chunks from each end.
package scanner

import (
	"errors"
	"time"
)

var (
	// ErrNoStartFound is returned when the forward scan reaches the end of
	// the file without a matching line.
	ErrNoStartFound = errors.New("no timestamped line found scanning forward")

	// ErrNoEndFound is returned when the backward scan reaches the start of
	// the file without a matching line.
	ErrNoEndFound = errors.New("no timestamped line found scanning backward")

	// ErrLineTooLong is returned when a single line exceeds the configured
	// maximum line length.
	ErrLineTooLong = errors.New("line exceeds maximum line length")
)

// LineMatch is a timestamped line: the offset of its first byte in the file
// and its parsed instant.
type LineMatch struct {
	Offset    int64     `json:"offset"`
	Timestamp time.Time `json:"timestamp"`
}

// FileTimeRange brackets the timestamped lines of a file. Start.Offset is
// never greater than End.Offset; the timestamps are not ordered, since logs
// need not be written in time order.
type FileTimeRange struct {
	Start LineMatch `json:"start"`
	End   LineMatch `json:"end"`
}

// Span returns End.Timestamp minus Start.Timestamp. It may be negative.
func (r FileTimeRange) Span() time.Duration {
	return r.End.Timestamp.Sub(r.Start.Timestamp)
}

// SingleLine reports whether start and end are the same line.
func (r FileTimeRange) SingleLine() bool {
	return r.Start.Offset == r.End.Offset
}
