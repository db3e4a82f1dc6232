package detector

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned by Parse when the pattern does not match the line.
	ErrNoMatch = errors.New("timestamp pattern did not match")

	// ErrInvalidNumber is returned when a captured field is not an integer.
	ErrInvalidNumber = errors.New("invalid number in timestamp")

	// ErrInvalidCalendarDate is returned for fields that do not name a real
	// date and time, such as month 13 or February 30.
	ErrInvalidCalendarDate = errors.New("invalid calendar date")

	// ErrNoFormatMatched is returned when no registered format matches
	// within the sampled lines.
	ErrNoFormatMatched = errors.New("no timestamp format matched")

	// ErrInvalidUTF8 is returned for lines that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("line is not valid UTF-8")
)

// FieldMissingError reports a required named group that is absent from a match.
type FieldMissingError struct {
	Name string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("timestamp field %s missing from match", e.Name)
}
