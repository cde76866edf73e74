package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UnsetDate is the display sentinel for "no date chosen". It is valid
// input and is not a parse failure.
const UnsetDate = "--/--"

// ErrInvalidDate marks a date string that is neither the unset sentinel
// nor a parseable DD/MM or DD/MM/YYYY value.
var ErrInvalidDate = errors.New("invalid date")

// ErrInvalidTime marks a time string that is not HH:MM.
var ErrInvalidTime = errors.New("invalid time")

// ParseDisplayDate parses a display date string. Accepted forms are the
// unset sentinel "--/--" (unset=true, zero time), "DD/MM" and
// "DD/MM/YYYY". A year-less date is normalized to the year of now.
//
// The year-less normalization is lossy on purpose: two events dated
// "05/03" compare equal no matter which year they were logged in, and
// downstream consumers rely on exactly that collision.
func ParseDisplayDate(s string, now time.Time) (t time.Time, unset bool, err error) {
	if s == UnsetDate {
		return time.Time{}, true, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 && len(parts) != 3 {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	year := now.Year()
	if len(parts) == 3 {
		year, err = strconv.Atoi(parts[2])
		if err != nil || len(parts[2]) != 4 {
			return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// Day overflowed the month (e.g. 31/02).
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return t, false, nil
}

// FormatDisplayDate renders a calendar date back to the year-less
// display form. The zero time renders as the unset sentinel.
func FormatDisplayDate(t time.Time) string {
	if t.IsZero() {
		return UnsetDate
	}
	return fmt.Sprintf("%02d/%02d", t.Day(), int(t.Month()))
}

// SameDay reports whether two display dates fall on the same day and
// month, ignoring year entirely. Unset or unparseable dates never match.
func SameDay(a, b string, now time.Time) bool {
	ta, unsetA, errA := ParseDisplayDate(a, now)
	tb, unsetB, errB := ParseDisplayDate(b, now)
	if unsetA || unsetB || errA != nil || errB != nil {
		return false
	}
	return ta.Day() == tb.Day() && ta.Month() == tb.Month()
}

// ValidateDisplayTime checks an optional HH:MM display time. The empty
// string is accepted as "no time".
func ValidateDisplayTime(s string) error {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return nil
}
