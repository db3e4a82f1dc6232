package scanner

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ccollicutt/bilog/pkg/detector"
)

// Matcher tests candidate lines and parses the ones that match.
// *detector.TimeFormat implements it.
type Matcher interface {
	IsMatch(line string) bool
	Parse(line string) (time.Time, error)
}

type scanState int

const (
	stateAccumulating scanState = iota
	stateMatched
)

// lineSplitter finds the first matching line in a sequence of contiguous
// chunks fed in file order. Bytes after the last newline of a chunk are
// kept in pending until the newline that ends them arrives.
type lineSplitter struct {
	matcher       Matcher
	maxLineLength int

	state        scanState
	pending      []byte
	pendingStart int64
	match        LineMatch
}

func newLineSplitter(m Matcher, maxLineLength int) *lineSplitter {
	return &lineSplitter{matcher: m, maxLineLength: maxLineLength}
}

// feed consumes chunk, which starts at absolute offset pos.
func (s *lineSplitter) feed(pos int64, chunk []byte) error {
	if s.state == stateMatched {
		return nil
	}

	start := 0
	for {
		i := bytes.IndexByte(chunk[start:], '\n')
		if i < 0 {
			break
		}
		end := start + i

		line := chunk[start:end]
		lineStart := pos + int64(start)
		if len(s.pending) > 0 {
			line = append(s.pending, line...)
			lineStart = s.pendingStart
			s.pending = s.pending[:0]
		}

		matched, err := s.test(lineStart, line)
		if err != nil || matched {
			return err
		}
		start = end + 1
	}

	rest := chunk[start:]
	if len(rest) == 0 {
		return nil
	}
	if len(s.pending) == 0 {
		s.pendingStart = pos + int64(start)
	}
	if len(s.pending)+len(rest) > s.maxLineLength {
		return fmt.Errorf("line at offset %d: %w", s.pendingStart, ErrLineTooLong)
	}
	s.pending = append(s.pending, rest...)
	return nil
}

// finish treats end of file as the delimiter of an unterminated last line.
func (s *lineSplitter) finish() error {
	if s.state == stateMatched || len(s.pending) == 0 {
		return nil
	}
	_, err := s.test(s.pendingStart, s.pending)
	s.pending = nil
	return err
}

func (s *lineSplitter) test(offset int64, line []byte) (bool, error) {
	m, ok, err := testLine(s.matcher, s.maxLineLength, offset, line)
	if ok {
		s.match = m
		s.state = stateMatched
	}
	return ok, err
}

// reverseSplitter finds the last matching line in a sequence of contiguous
// chunks fed from the end of the file towards its start. Bytes before the
// first newline of a chunk are kept in pending and completed by the chunk
// that precedes it.
type reverseSplitter struct {
	matcher       Matcher
	maxLineLength int

	state   scanState
	pending []byte
	match   LineMatch
}

func newReverseSplitter(m Matcher, maxLineLength int) *reverseSplitter {
	return &reverseSplitter{matcher: m, maxLineLength: maxLineLength}
}

// feed consumes chunk, which starts at absolute offset pos and ends where
// the previously fed chunk began.
func (s *reverseSplitter) feed(pos int64, chunk []byte) error {
	if s.state == stateMatched {
		return nil
	}

	end := len(chunk)
	carried := false
	for {
		i := bytes.LastIndexByte(chunk[:end], '\n')
		if i < 0 {
			break
		}

		line := chunk[i+1 : end]
		if !carried {
			carried = true
			if len(s.pending) > 0 {
				joined := make([]byte, 0, len(line)+len(s.pending))
				line = append(append(joined, line...), s.pending...)
				s.pending = s.pending[:0]
			}
		}

		matched, err := s.test(pos+int64(i+1), line)
		if err != nil || matched {
			return err
		}
		end = i
	}

	head := chunk[:end]
	if carried {
		s.pending = append(s.pending[:0], head...)
	} else if len(head) > 0 {
		joined := make([]byte, 0, len(head)+len(s.pending))
		s.pending = append(append(joined, head...), s.pending...)
	}
	if len(s.pending) > s.maxLineLength {
		return fmt.Errorf("line ending before offset %d: %w", pos+int64(len(s.pending)), ErrLineTooLong)
	}
	return nil
}

// finish treats the start of the file as the delimiter of the first line.
func (s *reverseSplitter) finish() error {
	if s.state == stateMatched || len(s.pending) == 0 {
		return nil
	}
	_, err := s.test(0, s.pending)
	s.pending = nil
	return err
}

func (s *reverseSplitter) test(offset int64, line []byte) (bool, error) {
	m, ok, err := testLine(s.matcher, s.maxLineLength, offset, line)
	if ok {
		s.match = m
		s.state = stateMatched
	}
	return ok, err
}

func testLine(m Matcher, maxLineLength int, offset int64, line []byte) (LineMatch, bool, error) {
	if len(line) > maxLineLength {
		return LineMatch{}, false, fmt.Errorf("line at offset %d: %w", offset, ErrLineTooLong)
	}
	if !utf8.Valid(line) {
		return LineMatch{}, false, fmt.Errorf("line at offset %d: %w", offset, detector.ErrInvalidUTF8)
	}

	text := string(line)
	if !m.IsMatch(text) {
		return LineMatch{}, false, nil
	}
	ts, err := m.Parse(text)
	if err != nil {
		return LineMatch{}, false, fmt.Errorf("parsing line at offset %d: %w", offset, err)
	}
	return LineMatch{Offset: offset, Timestamp: ts}, true, nil
}
