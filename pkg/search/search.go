// Package search narrows the bracket found by the boundary scanner down to
// the lines whose timestamps fall inside a time window.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ccollicutt/bilog/pkg/parser"
	"github.com/ccollicutt/bilog/pkg/scanner"
)

// ErrInvalidWindow is returned when the window ends before it starts.
var ErrInvalidWindow = errors.New("window end is before window start")

// Window is an inclusive time interval. A zero To leaves it open ended.
type Window struct {
	From time.Time
	To   time.Time
}

// Validate checks that the window is not inverted.
func (w Window) Validate() error {
	if !w.To.IsZero() && w.To.Before(w.From) {
		return fmt.Errorf("%s > %s: %w", w.From.Format(time.RFC3339), w.To.Format(time.RFC3339), ErrInvalidWindow)
	}
	return nil
}

// Contains reports whether t lies within the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.From) {
		return false
	}
	return w.To.IsZero() || !t.After(w.To)
}

// Stats summarises a search.
type Stats struct {
	LinesRead    int `json:"lines_read"`
	LinesMatched int `json:"lines_matched"`
}

// EmitFunc receives each line inside the window. Returning an error stops
// the search and the error is returned from Search.
type EmitFunc func(line *parser.ParsedLine) error

// Searcher walks a FileTimeRange line by line.
type Searcher struct {
	maxLineLength int
	logger        *log.Entry
}

// Option configures the Searcher.
type Option func(*Searcher)

// WithMaxLineLength sets the longest line accepted while walking the range.
func WithMaxLineLength(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxLineLength = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Entry) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Searcher.
func New(opts ...Option) *Searcher {
	s := &Searcher{
		maxLineLength: parser.DefaultMaxLineLength,
		logger:        log.StandardLogger().WithField("component", "search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search emits every line between rng.Start and the end of the line at
// rng.End whose timestamp lies in w. Lines without a timestamp belong to
// the stamped line before them and share its verdict.
//
// Logs are not assumed to be ordered, so the whole bracket is always read.
func (s *Searcher) Search(ctx context.Context, f io.ReaderAt, format parser.TimestampParser,
	rng scanner.FileTimeRange, w Window, emit EmitFunc) (Stats, error) {
	var stats Stats
	if err := w.Validate(); err != nil {
		return stats, err
	}

	src := parser.NewLineSource(f, rng.Start.Offset, math.MaxInt64, format, s.maxLineLength)
	defer src.Close()

	inside := false
	for {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		if line.Offset > rng.End.Offset {
			break
		}
		stats.LinesRead++

		if line.HasTimestamp {
			inside = w.Contains(line.Timestamp)
		}
		if !inside {
			continue
		}

		stats.LinesMatched++
		if err := emit(line); err != nil {
			return stats, err
		}
	}

	s.logger.WithFields(log.Fields{
		"lines_read":    stats.LinesRead,
		"lines_matched": stats.LinesMatched,
	}).Debug("search complete")

	return stats, nil
}
