package domain

import (
	"fmt"
	"time"
)

// CalendarDate is a booking's concrete date in the process-local zone, with
// no time-of-day component. The zero value stands for "no date" on default
// schedule templates.
type CalendarDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Midnight truncates the date to local midnight; horizon comparisons happen
// at day granularity.
func (d CalendarDate) Midnight() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.Local)
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%d-%d-%d", d.Day, d.Month, d.Year)
}
