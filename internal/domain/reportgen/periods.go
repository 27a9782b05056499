package reportgen

import "time"

// EnumerateMonthly lists the calendar-month periods owed by a tenant, from
// the month of its earliest movement up to the end of the previous month,
// oldest first. The current (unfinished) month is never included.
func EnumerateMonthly(earliest, now time.Time) []Period {
	loc := now.Location()
	first := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, loc)
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	var periods []Period
	for start := first; start.Before(currentMonth); start = start.AddDate(0, 1, 0) {
		periods = append(periods, Period{
			Type:  ReportMonthly,
			Start: start,
			End:   start.AddDate(0, 1, 0),
		})
	}
	return periods
}

// WeeklyPeriod returns the trailing seven full days ending at today's
// midnight: [today-7d, today).
func WeeklyPeriod(now time.Time) Period {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Period{
		Type:  ReportWeekly,
		Start: end.AddDate(0, 0, -7),
		End:   end,
	}
}
