package detector

import (
	"fmt"
	"strconv"
	"time"
)

// IsMatch reports whether the pattern matches any substring of line.
func (f *TimeFormat) IsMatch(line string) bool {
	return f.pattern.MatchString(line)
}

// Parse extracts the timestamp from line and returns it as a UTC instant
// with millisecond resolution.
//
// Lines without a TIMEZONE group are read as local wall-clock time using the
// offset the format was built with. A "+08:00" suffix means the wall clock
// is eight hours ahead of UTC.
func (f *TimeFormat) Parse(line string) (time.Time, error) {
	m := f.pattern.FindStringSubmatchIndex(line)
	if m == nil {
		return time.Time{}, ErrNoMatch
	}
	c := captures{line: line, f: f, m: m}

	offset, err := c.offsetSeconds()
	if err != nil {
		return time.Time{}, err
	}

	var fields [6]int
	for i, name := range RequiredGroups {
		v, err := c.int(name)
		if err != nil {
			return time.Time{}, err
		}
		fields[i] = v
	}

	var millis int64
	if s, ok := c.group(GroupMillisecond); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s %q: %w", GroupMillisecond, s, ErrInvalidNumber)
		}
		millis = n
	}

	base, err := calendarInstant(fields)
	if err != nil {
		return time.Time{}, err
	}

	ms := base.UnixMilli() + millis + offset*1000
	return time.UnixMilli(ms).UTC(), nil
}

// captures resolves named groups of a single match.
type captures struct {
	line string
	f    *TimeFormat
	m    []int
}

func (c captures) group(name string) (string, bool) {
	i := c.f.pattern.SubexpIndex(name)
	if i < 0 || 2*i+1 >= len(c.m) || c.m[2*i] < 0 {
		return "", false
	}
	return c.line[c.m[2*i]:c.m[2*i+1]], true
}

func (c captures) int(name string) (int, error) {
	s, ok := c.group(name)
	if !ok {
		return 0, &FieldMissingError{Name: name}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, s, ErrInvalidNumber)
	}
	return n, nil
}

// offsetSeconds returns the number of seconds to add to the wall-clock
// fields to get UTC.
func (c captures) offsetSeconds() (int64, error) {
	if _, ok := c.group(GroupTimezone); !ok {
		return -c.f.localOffset, nil
	}
	if _, ok := c.group(GroupUTC); ok {
		return 0, nil
	}

	sign, ok := c.group(GroupOffset)
	if !ok {
		return 0, &FieldMissingError{Name: GroupOffset}
	}
	hour, err := c.int(GroupTimezoneHour)
	if err != nil {
		return 0, err
	}
	minute, err := c.int(GroupTimezoneMinute)
	if err != nil {
		return 0, err
	}

	magnitude := int64(hour*3600 + minute*60)
	switch sign {
	case "+":
		return -magnitude, nil
	case "-":
		return magnitude, nil
	default:
		return 0, fmt.Errorf("timezone sign %q: %w", sign, ErrInvalidNumber)
	}
}

// calendarInstant converts year, month, day, hour, minute, second read as
// UTC. time.Date normalises out-of-range values, so the result is checked
// against its inputs.
func calendarInstant(v [6]int) (time.Time, error) {
	year, month, day, hour, minute, second := v[0], v[1], v[2], v[3], v[4], v[5]
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, fmt.Errorf("%04d-%02d-%02d %02d:%02d:%02d: %w",
			year, month, day, hour, minute, second, ErrInvalidCalendarDate)
	}
	return t, nil
}
