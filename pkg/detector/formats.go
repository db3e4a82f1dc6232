package detector

import (
	"fmt"
	"regexp"
	"time"
)

// Named capture groups understood by TimeFormat.Parse.
const (
	GroupYear           = "YEAR"
	GroupMonth          = "MONTH"
	GroupDay            = "DAY"
	GroupHour           = "HOUR"
	GroupMinute         = "MINUTE"
	GroupSecond         = "SECOND"
	GroupMillisecond    = "MILLISECOND"
	GroupTimezone       = "TIMEZONE"
	GroupUTC            = "UTC"
	GroupOffset         = "OFFSET"
	GroupTimezoneHour   = "TIMEZONE_HOUR"
	GroupTimezoneMinute = "TIMEZONE_MINUTE"
)

// RequiredGroups lists the groups every pattern must define.
var RequiredGroups = []string{GroupYear, GroupMonth, GroupDay, GroupHour, GroupMinute, GroupSecond}

// Pattern is a labelled timestamp regex before compilation.
type Pattern struct {
	Name       string
	PatternStr string
	Examples   []string
}

// DefaultPatterns returns the built-in timestamp patterns in priority order.
//
// The RFC3339 family covers YYYY?MM?DD?HH?MM?SS with an optional .mmm
// fraction and an optional Z or ±HH:MM suffix, where ? is any single
// non-digit separator.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name: "RFC3339",
			PatternStr: `(?P<YEAR>\d{4})\D(?P<MONTH>\d{2})\D(?P<DAY>\d{2})\D` +
				`(?P<HOUR>\d{2})\D(?P<MINUTE>\d{2})\D(?P<SECOND>\d{2})` +
				`(\.(?P<MILLISECOND>\d{3}))?` +
				`(?P<TIMEZONE>(?P<OFFSET>[+-])(?P<TIMEZONE_HOUR>\d{2}):(?P<TIMEZONE_MINUTE>\d{2})|(?P<UTC>Z))?`,
			Examples: []string{
				"2023-01-02 20:13:14",
				"2023/01/02 20:13:14",
				"2023-01-02T12:13:14.000",
				"2023-01-02T12:13:14.000Z",
				"2023-01-02T12:13:14+08:00",
			},
		},
	}
}

// TimeFormat is a compiled, immutable timestamp pattern. The local UTC
// offset used for lines without a timezone is fixed when the format is built.
type TimeFormat struct {
	Name       string
	PatternStr string
	Examples   []string

	pattern     *regexp.Regexp
	localOffset int64 // seconds east of UTC
}

// NewTimeFormat compiles a pattern. localOffset is the UTC offset, in
// seconds, assumed for lines that carry no timezone.
func NewTimeFormat(p Pattern, localOffset int64) (*TimeFormat, error) {
	re, err := regexp.Compile(p.PatternStr)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", p.Name, err)
	}
	return &TimeFormat{
		Name:        p.Name,
		PatternStr:  p.PatternStr,
		Examples:    p.Examples,
		pattern:     re,
		localOffset: localOffset,
	}, nil
}

// Pattern returns the compiled regex.
func (f *TimeFormat) Pattern() *regexp.Regexp {
	return f.pattern
}

// LocalOffset returns the offset assumed for timezone-less lines.
func (f *TimeFormat) LocalOffset() time.Duration {
	return time.Duration(f.localOffset) * time.Second
}

// String returns the format name.
func (f *TimeFormat) String() string {
	return f.Name
}

// Registry is an ordered catalog of timestamp formats. Earlier entries win
// when a line matches several of them.
type Registry struct {
	formats     []*TimeFormat
	localOffset int64
	extra       []Pattern
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLocalOffset sets the UTC offset, in seconds, assumed for lines that
// carry no timezone. Defaults to the process's local offset at construction.
func WithLocalOffset(seconds int64) RegistryOption {
	return func(r *Registry) {
		r.localOffset = seconds
	}
}

// WithFormats appends patterns after the built-in ones.
func WithFormats(patterns ...Pattern) RegistryOption {
	return func(r *Registry) {
		r.extra = append(r.extra, patterns...)
	}
}

// NewRegistry builds the catalog: built-in patterns first, then any
// patterns added with WithFormats, in the order given.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	_, offset := time.Now().Zone()
	r := &Registry{localOffset: int64(offset)}
	for _, opt := range opts {
		opt(r)
	}

	patterns := append(DefaultPatterns(), r.extra...)
	r.extra = nil
	for _, p := range patterns {
		f, err := NewTimeFormat(p, r.localOffset)
		if err != nil {
			return nil, err
		}
		r.formats = append(r.formats, f)
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(opts ...RegistryOption) *Registry {
	r, err := NewRegistry(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Formats returns the catalog in priority order.
func (r *Registry) Formats() []*TimeFormat {
	out := make([]*TimeFormat, len(r.formats))
	copy(out, r.formats)
	return out
}

// LocalOffset returns the offset given to every format in the catalog.
func (r *Registry) LocalOffset() time.Duration {
	return time.Duration(r.localOffset) * time.Second
}

// Lookup returns the format with the given name.
func (r *Registry) Lookup(name string) (*TimeFormat, bool) {
	for _, f := range r.formats {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// MatchLine returns the first format whose pattern matches anywhere in line.
func (r *Registry) MatchLine(line string) (*TimeFormat, bool) {
	for _, f := range r.formats {
		if f.IsMatch(line) {
			return f, true
		}
	}
	return nil, false
}

// ParseTime detects the format of a free-standing date string and
// converts it to an instant.
func (r *Registry) ParseTime(s string) (time.Time, error) {
	f, ok := r.MatchLine(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrNoFormatMatched)
	}
	return f.Parse(s)
}
