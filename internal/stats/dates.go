package stats

import (
	"time"

	"study-planner/internal/model"
)

// DateOf returns midnight UTC of t's calendar date in t's own location.
// All day arithmetic runs on these values so DST never skews a day count.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string. Longer ISO timestamps are cut to
// their date part.
func ParseDate(iso string) (time.Time, error) {
	if len(iso) > len(model.DateLayout) {
		iso = iso[:len(model.DateLayout)]
	}
	return time.Parse(model.DateLayout, iso)
}

// FormatDate renders t's calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// Today returns the date string of now.
func Today(now time.Time) string {
	return FormatDate(now)
}

// DaysBetween returns the whole days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// WeekStart returns the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	day := DateOf(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
