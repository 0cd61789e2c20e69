// Package schedule decides whether a playlist's schedule window is open.
// It holds no state; everything operates on the Schedule value object.
package schedule

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/model"
)

// hhmm matches zero-padded 24h clock times. Lexicographic comparison of
// StartTime/EndTime is only correct when both match this; Validate enforces
// it on every write so InWindow never has to re-check.
var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validate checks a schedule before it is persisted. An empty day set is
// rejected rather than silently defaulted to "every day": a schedule that can
// never match is almost always an editor mistake, and the error detail lets
// the UI surface it as a blocking warning.
func Validate(s *model.Schedule) error {
	if s == nil {
		return nil
	}
	if len(s.DaysOfWeek) == 0 {
		return core.Invalidf("schedule has no active days and would never match").
			With("days_of_week", []int{})
	}
	seen := map[int64]bool{}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return core.Invalidf("day of week %d out of range 0 (Sunday) to 6 (Saturday)", d)
		}
		if seen[d] {
			return core.Invalidf("day of week %d listed twice", d)
		}
		seen[d] = true
	}
	if !hhmm.MatchString(s.StartTime) {
		return core.Invalidf("start time %q is not a zero-padded HH:MM clock time", s.StartTime)
	}
	if !hhmm.MatchString(s.EndTime) {
		return core.Invalidf("end time %q is not a zero-padded HH:MM clock time", s.EndTime)
	}
	// overnight windows (e.g. 22:00-02:00) are not supported
	if s.StartTime >= s.EndTime {
		return core.Invalidf("start time %s must be before end time %s", s.StartTime, s.EndTime)
	}
	if s.StartDate != nil && s.EndDate != nil && !s.EndDate.After(*s.StartDate) {
		return core.Invalidf("end date must be after start date")
	}
	return nil
}

// InWindow reports whether now falls inside the schedule. A nil schedule is
// always eligible. The date bound, weekday and time-of-day checks are
// conjunctive; the date bounds are inclusive by calendar day and the
// time-of-day range is half-open [start, end).
func InWindow(s *model.Schedule, now time.Time) bool {
	if s == nil {
		return true
	}
	if s.StartDate != nil && dayOf(now).Before(dayOf(*s.StartDate)) {
		return false
	}
	if s.EndDate != nil && dayOf(now).After(dayOf(*s.EndDate)) {
		return false
	}
	if !s.HasDay(now.Weekday()) {
		return false
	}
	clock := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	return clock >= s.StartTime && clock < s.EndTime
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
