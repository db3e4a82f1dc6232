package config

import (
	"os"

	"github.com/ccollicutt/bilog/pkg/detector"
	"github.com/ccollicutt/bilog/pkg/scanner"
)

// Default values for configuration.
const (
	DefaultTimezone   = "Local"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Environment variable names.
const (
	EnvTimezone = "BILOG_TIMEZONE"
	EnvLogLevel = "BILOG_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timezone: DefaultTimezone,
		Scan: ScanConfig{
			BufferSize:    scanner.DefaultBufferSize,
			MaxLineLength: scanner.DefaultMaxLineLength,
		},
		Detect: DetectConfig{
			SampleLines: detector.DefaultSampleSize,
		},
		Formats: []FormatConfig{},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAgeDays: DefaultMaxAgeDays,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if tz := os.Getenv(EnvTimezone); tz != "" {
		c.Timezone = tz
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
}
