package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/model"
)

func weekdays(days ...int64) []int64 { return days }

func businessHours() *model.Schedule {
	return &model.Schedule{
		DaysOfWeek: weekdays(1, 2, 3, 4, 5),
		StartTime:  "08:00",
		EndTime:    "18:00",
	}
}

// at builds a local timestamp on a known weekday: 2025-06-04 is a Wednesday.
func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.Local)
}

var (
	wednesday = time.Date(2025, 6, 4, 0, 0, 0, 0, time.Local)
	saturday  = time.Date(2025, 6, 7, 0, 0, 0, 0, time.Local)
)

func TestInWindow_NilScheduleAlwaysEligible(t *testing.T) {
	assert.True(t, InWindow(nil, time.Now()))
}

func TestInWindow_WeekdayAndTimeOfDay(t *testing.T) {
	s := businessHours()

	assert.True(t, InWindow(s, at(wednesday, 10, 0)), "Wednesday 10:00 should match")
	assert.False(t, InWindow(s, at(saturday, 10, 0)), "Saturday is not an active day")
	assert.False(t, InWindow(s, at(wednesday, 19, 0)), "19:00 is past the window")
}

func TestInWindow_HalfOpenTimeRange(t *testing.T) {
	s := businessHours()

	assert.True(t, InWindow(s, at(wednesday, 8, 0)), "start bound is inclusive")
	assert.False(t, InWindow(s, at(wednesday, 18, 0)), "end bound is exclusive")
	assert.True(t, InWindow(s, at(wednesday, 17, 59)))
}

func TestInWindow_EmptyDaySetNeverMatches(t *testing.T) {
	s := businessHours()
	s.DaysOfWeek = nil
	for hour := 0; hour < 24; hour++ {
		assert.False(t, InWindow(s, at(wednesday, hour, 30)))
	}
}

func TestInWindow_DateBoundsInclusiveByDay(t *testing.T) {
	s := businessHours()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 6, 4, 0, 0, 0, 0, time.Local)
	s.StartDate = &start
	s.EndDate = &end

	assert.True(t, InWindow(s, at(wednesday, 10, 0)), "end date itself still matches")

	before := time.Date(2025, 5, 28, 10, 0, 0, 0, time.Local) // a Wednesday before the range
	assert.False(t, InWindow(s, before))

	after := time.Date(2025, 6, 11, 10, 0, 0, 0, time.Local) // a Wednesday after the range
	assert.False(t, InWindow(s, after))
}

func TestValidate_AcceptsNilAndWellFormed(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(businessHours()))
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Schedule)
	}{
		{"empty day set", func(s *model.Schedule) { s.DaysOfWeek = nil }},
		{"day out of range", func(s *model.Schedule) { s.DaysOfWeek = weekdays(1, 7) }},
		{"duplicate day", func(s *model.Schedule) { s.DaysOfWeek = weekdays(1, 1) }},
		{"unpadded start time", func(s *model.Schedule) { s.StartTime = "8:00" }},
		{"non-numeric end time", func(s *model.Schedule) { s.EndTime = "18h00" }},
		{"hour out of range", func(s *model.Schedule) { s.EndTime = "24:00" }},
		{"start after end", func(s *model.Schedule) { s.StartTime = "18:00"; s.EndTime = "08:00" }},
		{"overnight window", func(s *model.Schedule) { s.StartTime = "22:00"; s.EndTime = "02:00" }},
		{"equal bounds", func(s *model.Schedule) { s.StartTime = "08:00"; s.EndTime = "08:00" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := businessHours()
			tc.mutate(s)
			err := Validate(s)
			assert.Error(t, err)
			assert.Equal(t, core.KindValidation, core.KindOf(err))
		})
	}
}

func TestValidate_DateOrder(t *testing.T) {
	s := businessHours()
	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	s.StartDate = &start
	s.EndDate = &end
	assert.Error(t, Validate(s))
}
