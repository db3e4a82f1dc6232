package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ccollicutt/bilog/internal/logging"
	"github.com/ccollicutt/bilog/pkg/config"
	"github.com/ccollicutt/bilog/pkg/detector"
	"github.com/ccollicutt/bilog/pkg/scanner"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// environment is what a command needs once flags have been applied.
type environment struct {
	cfg      *config.Config
	registry *detector.Registry
	closer   io.Closer
}

func (e *environment) Close() error {
	return e.closer.Close()
}

// setup loads the configuration (defaults when no --config was given),
// applies --log-level, configures logging and builds the format registry.
func (g *GlobalOptions) setup(ctx context.Context) (*environment, error) {
	cfg, err := config.LoadOrDefault(ctx, g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}

	closer, err := logging.Setup(log.StandardLogger(), cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("building format registry: %w", err)
	}

	return &environment{cfg: cfg, registry: registry, closer: closer}, nil
}

// located is an open log file together with its format and time range.
type located struct {
	file       *os.File
	size       int64
	format     *detector.TimeFormat
	rng        scanner.FileTimeRange
	bufferSize int
	duration   time.Duration
}

// locate opens path, picks its format (formatName, or detection when
// empty) and brackets its timestamped lines. The caller closes the file.
func (e *environment) locate(path, formatName string, bufferSize int) (*located, error) {
	file, err := os.Open(path) // #nosec G304 -- user-provided log path is expected
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	l, err := e.locateFile(file, formatName, bufferSize)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return l, nil
}

func (e *environment) locateFile(file *os.File, formatName string, bufferSize int) (*located, error) {
	started := time.Now()
	logger := log.WithField("file", file.Name())

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}

	var format *detector.TimeFormat
	if formatName != "" {
		f, ok := e.registry.Lookup(formatName)
		if !ok {
			return nil, fmt.Errorf("unknown format %q", formatName)
		}
		format = f
	} else {
		d := detector.New(e.registry,
			detector.WithSampleSize(e.cfg.Detect.SampleLines),
			detector.WithLogger(logger.WithField("component", "detector")))
		f, err := d.DetectFile(file)
		if err != nil {
			return nil, fmt.Errorf("detecting timestamp format: %w", err)
		}
		format = f
	}

	if bufferSize <= 0 {
		bufferSize = e.cfg.Scan.BufferSize
	}
	s := scanner.New(
		scanner.WithBufferSize(bufferSize),
		scanner.WithMaxLineLength(e.cfg.Scan.MaxLineLength),
		scanner.WithLogger(logger.WithField("component", "scanner")))

	rng, err := s.FileTimeRange(file, format)
	if err != nil {
		return nil, fmt.Errorf("locating time range: %w", err)
	}

	return &located{
		file:       file,
		size:       info.Size(),
		format:     format,
		rng:        rng,
		bufferSize: bufferSize,
		duration:   time.Since(started),
	}, nil
}
