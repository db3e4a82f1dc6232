package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ccollicutt/bilog/pkg/detector"
)

// DefaultMaxLineLength is the longest line a LineSource accepts when none
// is given.
const DefaultMaxLineLength = 1024 * 1024

// LineSource implements LogSource over the byte section [start, end) of a
// file. It reads through its own section reader, so the file's cursor is
// never moved.
type LineSource struct {
	format  TimestampParser
	scanner *bufio.Scanner

	start    int64
	consumed int64 // bytes handed out by the split function so far
	lineNum  int
}

// NewLineSource creates a LogSource reading r between start and end. Every
// line is returned; those matched by format also carry their timestamp.
func NewLineSource(r io.ReaderAt, start, end int64, format TimestampParser, maxLineLength int) *LineSource {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	if end < start {
		end = start
	}

	s := &LineSource{format: format, start: start}
	s.scanner = bufio.NewScanner(io.NewSectionReader(r, start, end-start))
	s.scanner.Buffer(make([]byte, 0, min(64*1024, maxLineLength+1)), maxLineLength+1)
	s.scanner.Split(s.split)
	return s
}

// split is bufio.ScanLines, which also drops a trailing \r, except that it
// keeps count of the bytes consumed so every line knows its absolute offset.
func (s *LineSource) split(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanLines(data, atEOF)
	s.consumed += int64(advance)
	return advance, token, err
}

// Next returns the next line of the section.
// Returns io.EOF when the section has been read.
func (s *LineSource) Next(ctx context.Context) (*ParsedLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	before := s.consumed
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading line at offset %d: %w", s.start+before, err)
		}
		return nil, io.EOF
	}
	s.lineNum++

	raw := s.scanner.Bytes()
	offset := s.start + before
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("line at offset %d: %w", offset, detector.ErrInvalidUTF8)
	}

	line := &ParsedLine{
		Raw:     string(raw),
		Offset:  offset,
		LineNum: s.lineNum,
	}
	if s.format.IsMatch(line.Raw) {
		ts, err := s.format.Parse(line.Raw)
		if err != nil {
			return nil, fmt.Errorf("parsing line at offset %d: %w", offset, err)
		}
		line.Timestamp = ts
		line.HasTimestamp = true
	}
	return line, nil
}

// Close releases resources. The underlying reader is owned by the caller.
func (s *LineSource) Close() error {
	return nil
}
