// Package parser reads the lines of a section of a log file and attaches the
// timestamp of each line that carries one.
package parser

import "time"

// ParsedLine represents a single log line with extracted metadata.
type ParsedLine struct {
	// Raw is the line content without its line terminator.
	Raw string

	// Offset is the absolute byte offset of the first byte of the line.
	Offset int64

	// LineNum is the 1-based line number within the section being read.
	LineNum int

	// Timestamp is the parsed timestamp. Zero when HasTimestamp is false.
	Timestamp time.Time

	// HasTimestamp is false for lines the format does not match, such as
	// stack trace continuations.
	HasTimestamp bool
}
