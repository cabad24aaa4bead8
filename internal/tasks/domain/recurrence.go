package domain

import "time"

// NextOccurrence computes the due date of the occurrence following base.
// Daily and weekly cadences are plain day arithmetic; monthly uses
// calendar-month arithmetic with end-of-month clamping: the target day of
// month is the base's day, clamped to the last day of the target month, so
// Jan 31 + 1 month is Feb 29 in a leap year rather than rolling into March.
// An interval below 1 is treated as 1.
func NextOccurrence(base time.Time, pattern Pattern, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch pattern {
	case PatternDaily:
		return base.AddDate(0, 0, interval)
	case PatternWeekly:
		return base.AddDate(0, 0, 7*interval)
	case PatternMonthly:
		return addMonthsClamped(base, interval)
	default:
		return base
	}
}

func addMonthsClamped(base time.Time, months int) time.Time {
	y, m, d := base.Date()
	// Normalize to the first of the target month, then clamp the day.
	first := time.Date(y, m, 1, 0, 0, 0, 0, base.Location())
	target := first.AddDate(0, months, 0)
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	h, min, sec := base.Clock()
	return time.Date(target.Year(), target.Month(), d, h, min, sec, base.Nanosecond(), base.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
