package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones on hosts without a zoneinfo database

	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/bilog/pkg/detector"
)

// Load reads and validates a configuration file. Files ending in .toml are
// read as TOML, anything else as YAML.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults (with
// environment overrides) when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Marshal encodes cfg in the format implied by path's extension.
func Marshal(path string, cfg *Config) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(cfg)
	}
	return yaml.Marshal(cfg)
}

// Validate checks a configuration for errors and resolves the timezone.
func Validate(cfg *Config) error {
	offset, err := ParseTimezone(cfg.Timezone, time.Now())
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	cfg.localOffset = offset

	if cfg.Scan.BufferSize <= 0 {
		return fmt.Errorf("scan.buffer_size: must be positive, got %d", cfg.Scan.BufferSize)
	}
	if cfg.Scan.MaxLineLength <= 0 {
		return fmt.Errorf("scan.max_line_length: must be positive, got %d", cfg.Scan.MaxLineLength)
	}
	if cfg.Detect.SampleLines <= 0 {
		return fmt.Errorf("detect.sample_lines: must be positive, got %d", cfg.Detect.SampleLines)
	}

	seen := make(map[string]bool)
	for _, p := range detector.DefaultPatterns() {
		seen[p.Name] = true
	}
	for i := range cfg.Formats {
		f := &cfg.Formats[i]
		if err := validateFormat(f); err != nil {
			return fmt.Errorf("formats[%d] (%s): %w", i, f.Name, err)
		}
		if seen[f.Name] {
			return fmt.Errorf("formats[%d]: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = true
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: invalid format %q (must be text or json)", cfg.Log.Format)
	}

	return nil
}

func validateFormat(f *FormatConfig) error {
	if f.Name == "" {
		return errors.New("name is required")
	}
	if f.Pattern == "" {
		return errors.New("pattern is required")
	}

	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	for _, group := range detector.RequiredGroups {
		if re.SubexpIndex(group) < 0 {
			return fmt.Errorf("pattern must define the named group %s", group)
		}
	}

	for _, ex := range f.Examples {
		if !re.MatchString(ex) {
			return fmt.Errorf("example %q does not match pattern", ex)
		}
	}

	return nil
}

var offsetRe = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})$`)

// ParseTimezone resolves a timezone setting to seconds east of UTC at the
// instant now. It accepts "Local", "UTC", "Z", "+hh:mm", "-hhmm" and IANA
// zone names.
func ParseTimezone(tz string, now time.Time) (int64, error) {
	switch tz {
	case "", "Local":
		_, offset := now.In(time.Local).Zone()
		return int64(offset), nil
	case "UTC", "Z":
		return 0, nil
	}

	if m := offsetRe.FindStringSubmatch(tz); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes, _ := strconv.Atoi(m[3])
		if hours > 23 || minutes > 59 {
			return 0, fmt.Errorf("offset %q out of range", tz)
		}
		offset := int64(hours*3600 + minutes*60)
		if m[1] == "-" {
			offset = -offset
		}
		return offset, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	_, offset := now.In(loc).Zone()
	return int64(offset), nil
}

// Registry builds the format catalog: built-in formats first, then the
// configured ones, all using the configured timezone.
func (c *Config) Registry() (*detector.Registry, error) {
	patterns := make([]detector.Pattern, 0, len(c.Formats))
	for _, f := range c.Formats {
		patterns = append(patterns, detector.Pattern{
			Name:       f.Name,
			PatternStr: f.Pattern,
			Examples:   f.Examples,
		})
	}
	return detector.NewRegistry(
		detector.WithLocalOffset(c.localOffset),
		detector.WithFormats(patterns...),
	)
}
