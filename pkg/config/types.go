// Package config provides configuration loading and validation for bilog.
package config

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	// Timezone is the zone assumed for timestamps that carry none:
	// "Local", "UTC", an IANA name such as "Europe/Paris", or "+08:00".
	Timezone string `yaml:"timezone" toml:"timezone"`

	Scan    ScanConfig     `yaml:"scan" toml:"scan"`
	Detect  DetectConfig   `yaml:"detect" toml:"detect"`
	Formats []FormatConfig `yaml:"formats,omitempty" toml:"formats,omitempty"`
	Log     LogConfig      `yaml:"log" toml:"log"`

	// localOffset is the resolved Timezone in seconds east of UTC
	// (populated during validation).
	localOffset int64
}

// ScanConfig tunes the boundary scanner.
type ScanConfig struct {
	// BufferSize is the chunk size in bytes read from each end of a file.
	BufferSize int `yaml:"buffer_size" toml:"buffer_size"`

	// MaxLineLength is the longest line, in bytes, the scanner will
	// reassemble across chunks.
	MaxLineLength int `yaml:"max_line_length" toml:"max_line_length"`
}

// DetectConfig tunes format detection.
type DetectConfig struct {
	// SampleLines is the number of leading lines inspected.
	SampleLines int `yaml:"sample_lines" toml:"sample_lines"`
}

// FormatConfig is a user-defined timestamp pattern. Extra formats are tried
// after the built-in ones.
type FormatConfig struct {
	Name string `yaml:"name" toml:"name"`

	// Pattern must define the YEAR, MONTH, DAY, HOUR, MINUTE and SECOND
	// named groups. MILLISECOND and TIMEZONE are optional.
	Pattern string `yaml:"pattern" toml:"pattern"`

	// Examples are checked against Pattern during validation.
	Examples []string `yaml:"examples,omitempty" toml:"examples,omitempty"`
}

// LogConfig configures the tool's own diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text or json

	// File, when set, sends logs to a rotated file instead of stderr.
	File       string `yaml:"file,omitempty" toml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" toml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" toml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" toml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty" toml:"compress,omitempty"`
}

// LocalOffset returns the resolved timezone offset in seconds east of UTC.
// It is only meaningful after Validate.
func (c *Config) LocalOffset() int64 {
	return c.localOffset
}
