// Package logging configures the process-wide logrus logger from the log
// section of the configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ccollicutt/bilog/pkg/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup applies cfg to logger. Logs go to stderr unless cfg.File is set, in
// which case they go to a size-rotated file. The returned closer releases
// the file.
func Setup(logger *log.Logger, cfg config.LogConfig) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	toTerminal := isTerminal(os.Stderr)

	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, config.DefaultMaxSizeMB),
			MaxBackups: orDefault(cfg.MaxBackups, config.DefaultMaxBackups),
			MaxAge:     orDefault(cfg.MaxAgeDays, config.DefaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		out, closer = rotating, rotating
		toTerminal = false
	}

	var formatter log.Formatter
	switch cfg.Format {
	case "text", "":
		formatter = &log.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
			ForceColors:     toTerminal,
			DisableColors:   !toTerminal,
		}
	case "json":
		formatter = &log.JSONFormatter{TimestampFormat: time.RFC3339}
	default:
		_ = closer.Close()
		return nil, fmt.Errorf("unknown log format '%s'", cfg.Format)
	}

	logger.SetOutput(out)
	logger.SetFormatter(formatter)
	logger.SetLevel(level)

	return closer, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
