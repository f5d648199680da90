package booking

import (
	"regexp"
	"time"

	"agenda/backend/internal/domain"
)

const (
	minBoundaryMinutes = 60   // 01:00
	maxBoundaryMinutes = 1440 // 24:00
)

// clockGrid accepts zero-padded half-hour boundaries between 01:00 and 24:00.
// Hour 24 pairs only with minute 00: "24:30" would name a boundary past the
// end of the day, and the ordering bounds already make it unreachable.
var clockGrid = regexp.MustCompile(`^((0[1-9]|1[0-9]|2[0-3]):(00|30)|24:00)$`)

// ValidateWindowOrdering checks that both boundaries parse, that start comes
// strictly before end, and that both fall within [01:00, 24:00].
func ValidateWindowOrdering(start, end string) error {
	w, err := domain.NewTimeWindow(start, end)
	if err != nil {
		return windowError(err.Error())
	}
	if w.StartMinutes >= w.EndMinutes {
		return windowError("the startTime must be earlier than the endTime")
	}
	if w.StartMinutes < minBoundaryMinutes || w.EndMinutes > maxBoundaryMinutes {
		return windowError("the times must be between 01:00 and 24:00")
	}
	return nil
}

// ValidateWindowGranularity checks that both boundaries land on a half-hour
// tick of the 01:00..24:00 grid.
func ValidateWindowGranularity(start, end string) error {
	if !clockGrid.MatchString(start) || !clockGrid.MatchString(end) {
		return windowError(`select a valid time for "startTime" and "endTime" between 01:00 and 24:00 in 30 minute intervals only`)
	}
	return nil
}

// ValidateDateHorizon checks a date against "not before today, not more than
// two calendar months ahead", both bounds inclusive, comparing at day
// granularity in local time. Default templates carry no date and always pass.
// Month addition follows time.AddDate normalization: Jan 31 plus two months
// is Mar 31, Dec 31 plus two months normalizes into early March.
func ValidateDateHorizon(date domain.CalendarDate, isDefault bool, now time.Time) error {
	if isDefault {
		return nil
	}
	day := date.Midnight()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if day.Before(today) {
		return &DateRangeError{Kind: DateTooEarly, Date: date}
	}
	if day.After(today.AddDate(0, 2, 0)) {
		return &DateRangeError{Kind: DateTooLate, Date: date}
	}
	return nil
}
