package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrDescriptionTooLong marks a description over MaxDescriptionLen runes.
var ErrDescriptionTooLong = errors.New("description too long")

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (v ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors aggregates multiple validation failures.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Add records a validation error for a field.
func (v *ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: err.Error(),
		Cause:   err,
	})
}

// Err returns nil if there are no errors, otherwise the aggregate.
func (v *ValidationErrors) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Error implements error.
func (v *ValidationErrors) Error() string {
	if v == nil || len(v.Errors) == 0 {
		return "validation failed"
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	var builder strings.Builder
	for i, err := range v.Errors {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(err.Error())
	}
	return builder.String()
}

// Is allows errors.Is to match wrapped causes.
func (v *ValidationErrors) Is(target error) bool {
	if v == nil {
		return false
	}
	for _, err := range v.Errors {
		if err.Cause != nil && errors.Is(err.Cause, target) {
			return true
		}
	}
	return false
}

// ValidateEvent checks every user-supplied field of an event against
// the given icon set. Enum fields are checked too so that events read
// back from an older store surface bad data loudly.
func ValidateEvent(e *Event, icons *IconSet, now time.Time) error {
	var verr ValidationErrors

	if utf8.RuneCountInString(e.Description) > MaxDescriptionLen {
		verr.Add("description", fmt.Errorf("%w: %d runes (max %d)",
			ErrDescriptionTooLong, utf8.RuneCountInString(e.Description), MaxDescriptionLen))
	}
	if _, _, err := ParseDisplayDate(e.Date, now); err != nil {
		verr.Add("date", err)
	}
	if err := ValidateDisplayTime(e.Time); err != nil {
		verr.Add("time", err)
	}
	if icons != nil {
		if err := icons.Validate(e.Icon); err != nil {
			verr.Add("icon", fmt.Errorf("%w: %q", err, e.Icon))
		}
	}
	if !ValidStatuses[e.Status] {
		verr.Add("status", fmt.Errorf("unknown status %q", e.Status))
	}
	if !ValidPositions[e.Position] {
		verr.Add("position", fmt.Errorf("unknown position %q", e.Position))
	}

	return verr.Err()
}
