package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agenda/backend/internal/domain"
)

// ErrImmutableDefault is returned when a request tries to change or delete
// an owner's default schedule template.
var ErrImmutableDefault = errors.New("the default schedule template cannot be modified")

// MissingFieldsError lists required request fields that were not supplied.
// AnyOf marks the update case, where at least one of the fields is enough.
type MissingFieldsError struct {
	Fields []string
	AnyOf  bool
}

func (e *MissingFieldsError) Error() string {
	if e.AnyOf {
		return "provide at least one of: " + strings.Join(e.Fields, ", ")
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// WindowError reports an invalid (startTime, endTime) pair: wrong ordering,
// out-of-bounds boundaries, or off-grid granularity.
type WindowError struct {
	msg string
}

func (e *WindowError) Error() string { return e.msg }

func windowError(msg string) error { return &WindowError{msg: msg} }

type DateRangeKind string

const (
	DateTooEarly DateRangeKind = "too_early"
	DateTooLate  DateRangeKind = "too_late"
)

// DateRangeError reports a date outside the [today, today+2 months] horizon.
type DateRangeError struct {
	Kind DateRangeKind
	Date domain.CalendarDate
}

func (e *DateRangeError) Error() string {
	if e.Kind == DateTooEarly {
		return "the date cannot be earlier than today"
	}
	return "the date cannot be more than two months in the future"
}

// ConflictError reports that the requested window collides with an existing
// active booking on the same date.
type ConflictError struct {
	Window domain.TimeWindow
	Date   domain.CalendarDate
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("the time slot %s on %s is already taken", e.Window, e.Date)
}

// ReferenceNotFoundError reports a dangling owner, client or product id.
type ReferenceNotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
