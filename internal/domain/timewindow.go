package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeWindow is a half-open [start,end) slot on a single day, expressed in
// minutes since local midnight. Boundaries travel and persist as "HH:MM"
// strings; this type exists only for validation and comparison.
type TimeWindow struct {
	StartMinutes int
	EndMinutes   int
}

// NewTimeWindow parses the two boundary strings. It does not enforce
// ordering, bounds or granularity; those are separate checks.
func NewTimeWindow(start, end string) (TimeWindow, error) {
	s, err := ClockToMinutes(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := ClockToMinutes(end)
	if err != nil {
		return TimeWindow{}, err
	}
	return TimeWindow{StartMinutes: s, EndMinutes: e}, nil
}

// ClockToMinutes parses a 24-hour "HH:MM" string. Hour 24 is allowed so that
// "24:00" can close a day-final window.
func ClockToMinutes(clock string) (int, error) {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("malformed clock value %q", clock)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", clock)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", clock)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", clock)
	}
	return hours*60 + minutes, nil
}

// MinutesToClock formats minutes since midnight as a zero-padded "HH:MM".
func MinutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether two half-open windows intersect. Touching
// boundaries do not count as a collision.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.StartMinutes < other.EndMinutes && w.EndMinutes > other.StartMinutes
}

// HasConflict reports whether candidate collides with any member of existing.
// Callers pre-filter existing to the same owner scope, same date and active
// status; on update the booking being changed is excluded.
func HasConflict(candidate TimeWindow, existing []TimeWindow) bool {
	for _, w := range existing {
		if candidate.Overlaps(w) {
			return true
		}
	}
	return false
}

func (w TimeWindow) String() string {
	return MinutesToClock(w.StartMinutes) + " - " + MinutesToClock(w.EndMinutes)
}
