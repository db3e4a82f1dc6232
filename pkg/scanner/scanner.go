package scanner

import (
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// Default values for the scan buffer.
const (
	DefaultBufferSize    = 4096
	DefaultMaxLineLength = 1024 * 1024
)

// File is a log file the scanner can read without moving its cursor.
// *os.File implements it.
type File interface {
	io.ReaderAt
	io.Seeker
}

// Scanner brackets the timestamped lines of a file using a fixed-size
// buffer, whatever the size of the file.
type Scanner struct {
	bufferSize    int
	maxLineLength int
	logger        *log.Entry
}

// Option configures the Scanner.
type Option func(*Scanner)

// WithBufferSize sets the chunk size (default 4096).
func WithBufferSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithMaxLineLength sets the longest line the scanner will reassemble
// across chunks (default 1 MiB).
func WithMaxLineLength(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxLineLength = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Entry) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		bufferSize:    DefaultBufferSize,
		maxLineLength: DefaultMaxLineLength,
		logger:        log.StandardLogger().WithField("component", "scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BufferSize returns the configured chunk size.
func (s *Scanner) BufferSize() int {
	return s.bufferSize
}

// FileTimeRange returns the first and last lines of f matched by m.
//
// Chunks are read with ReadAt. The only cursor movement is the probe for
// the file size, and the cursor is put back where it was before returning,
// on success and on every error path.
func (s *Scanner) FileTimeRange(f File, m Matcher) (rng FileTimeRange, err error) {
	origin, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return FileTimeRange{}, fmt.Errorf("reading file position: %w", err)
	}
	defer func() {
		if _, serr := f.Seek(origin, io.SeekStart); serr != nil && err == nil {
			rng, err = FileTimeRange{}, fmt.Errorf("restoring file position: %w", serr)
		}
	}()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return FileTimeRange{}, fmt.Errorf("reading file size: %w", err)
	}

	buf := make([]byte, min(size, int64(s.bufferSize)))

	start, err := s.scanForward(f, size, buf, m)
	if err != nil {
		return FileTimeRange{}, err
	}
	end, err := s.scanBackward(f, size, buf, m)
	if err != nil {
		return FileTimeRange{}, err
	}

	s.logger.WithFields(log.Fields{
		"start_offset": start.Offset,
		"end_offset":   end.Offset,
		"file_size":    size,
	}).Debug("file time range located")

	return FileTimeRange{Start: start, End: end}, nil
}

func (s *Scanner) scanForward(f io.ReaderAt, size int64, buf []byte, m Matcher) (LineMatch, error) {
	sp := newLineSplitter(m, s.maxLineLength)

	for pos := int64(0); pos < size && sp.state == stateAccumulating; {
		n := min(int64(len(buf)), size-pos)
		chunk := buf[:n]
		if err := readChunk(f, chunk, pos); err != nil {
			return LineMatch{}, err
		}
		s.logger.WithFields(log.Fields{"direction": "forward", "offset": pos, "length": n}).Trace("chunk read")

		if err := sp.feed(pos, chunk); err != nil {
			return LineMatch{}, err
		}
		pos += n
	}

	if err := sp.finish(); err != nil {
		return LineMatch{}, err
	}
	if sp.state != stateMatched {
		return LineMatch{}, ErrNoStartFound
	}
	return sp.match, nil
}

func (s *Scanner) scanBackward(f io.ReaderAt, size int64, buf []byte, m Matcher) (LineMatch, error) {
	sp := newReverseSplitter(m, s.maxLineLength)

	for end := size; end > 0 && sp.state == stateAccumulating; {
		n := min(int64(len(buf)), end)
		pos := end - n
		chunk := buf[:n]
		if err := readChunk(f, chunk, pos); err != nil {
			return LineMatch{}, err
		}
		s.logger.WithFields(log.Fields{"direction": "backward", "offset": pos, "length": n}).Trace("chunk read")

		if err := sp.feed(pos, chunk); err != nil {
			return LineMatch{}, err
		}
		end = pos
	}

	if err := sp.finish(); err != nil {
		return LineMatch{}, err
	}
	if sp.state != stateMatched {
		return LineMatch{}, ErrNoEndFound
	}
	return sp.match, nil
}

func readChunk(f io.ReaderAt, p []byte, off int64) error {
	n, err := f.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("reading %d bytes at offset %d: %w", len(p), off, err)
}
