// Package detector provides timestamp format detection and parsing for log files.
package detector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

// DefaultSampleSize is the maximum number of lines read while detecting.
const DefaultSampleSize = 1000

// DetectionResult holds the outcome of sampling a log file.
type DetectionResult struct {
	Format       *TimeFormat // First matching format, nil if none
	SampledLines int         // Number of lines read
	LineNumber   int         // 1-based line number of the matching line
	SampleLine   string      // The matching line, without its delimiter
}

// HasMatch returns true if a format was found.
func (r *DetectionResult) HasMatch() bool {
	return r.Format != nil
}

// Detector picks the timestamp format of a log file from its first lines.
type Detector struct {
	registry   *Registry
	sampleSize int
	logger     *log.Entry
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 1000).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Entry) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Detector over the given registry.
func New(registry *Registry, opts ...Option) *Detector {
	d := &Detector{
		registry:   registry,
		sampleSize: DefaultSampleSize,
		logger:     log.StandardLogger().WithField("component", "detector"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the catalog the detector matches against.
func (d *Detector) Registry() *Registry {
	return d.registry
}

// DetectString returns the first format matching text.
func (d *Detector) DetectString(text string) (*TimeFormat, bool) {
	return d.registry.MatchLine(text)
}

// DetectFile returns the first format matching one of the lines read from
// the current position of rs. The position of rs is restored before
// returning, whatever the outcome.
func (d *Detector) DetectFile(rs io.ReadSeeker) (*TimeFormat, error) {
	result, err := d.Detect(rs)
	if err != nil {
		return nil, err
	}
	if !result.HasMatch() {
		return nil, fmt.Errorf("sampled %d lines: %w", result.SampledLines, ErrNoFormatMatched)
	}
	return result.Format, nil
}

// DetectFromFile opens path and detects its timestamp format.
func (d *Detector) DetectFromFile(_ context.Context, path string) (*DetectionResult, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return d.Detect(file)
}

// Detect samples up to the configured number of lines from the current
// position of rs. A result without a format is not an error; I/O failures
// and invalid UTF-8 are. The position of rs is restored on every path.
func (d *Detector) Detect(rs io.ReadSeeker) (result *DetectionResult, err error) {
	origin, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("reading file position: %w", err)
	}
	defer func() {
		if _, serr := rs.Seek(origin, io.SeekStart); serr != nil && err == nil {
			result, err = nil, fmt.Errorf("restoring file position: %w", serr)
		}
	}()

	result = &DetectionResult{}
	reader := bufio.NewReader(rs)

	for result.SampledLines < d.sampleSize {
		line, rerr := reader.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, fmt.Errorf("reading line %d: %w", result.SampledLines+1, rerr)
		}
		if line == "" && rerr != nil {
			break
		}
		result.SampledLines++

		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("line %d: %w", result.SampledLines, ErrInvalidUTF8)
		}
		if f, ok := d.registry.MatchLine(line); ok {
			result.Format = f
			result.LineNumber = result.SampledLines
			result.SampleLine = strings.TrimRight(line, "\r\n")
			d.logger.WithFields(log.Fields{
				"format": f.Name,
				"line":   result.LineNumber,
			}).Debug("timestamp format detected")
			return result, nil
		}
		if rerr != nil {
			break
		}
	}

	d.logger.WithField("sampled", result.SampledLines).Debug("no timestamp format detected")
	return result, nil
}
