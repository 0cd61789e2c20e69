package model

import (
	"time"

	"github.com/lib/pq"
)

// Schedule gates when its playlist may be live on the assigned television.
// Times are zero-padded 24h "HH:MM" strings; comparisons elsewhere rely on
// that format, so it is enforced when a schedule is written, not when read.
type Schedule struct {
	PlaylistID int           `db:"playlist_id" json:"playlist_id"`
	DaysOfWeek pq.Int64Array `db:"days_of_week" json:"days_of_week"` // 0=Sunday .. 6=Saturday
	StartTime  string        `db:"start_time"  json:"start_time"`
	EndTime    string        `db:"end_time"    json:"end_time"`
	StartDate  *time.Time    `db:"start_date"  json:"start_date,omitempty"`
	EndDate    *time.Time    `db:"end_date"    json:"end_date,omitempty"`
}

// HasDay reports membership of a weekday (time.Weekday numbering matches ours).
func (s *Schedule) HasDay(d time.Weekday) bool {
	for _, day := range s.DaysOfWeek {
		if int(day) == int(d) {
			return true
		}
	}
	return false
}
