package reminder

import "time"

// Window returns the half-open interval covering the calendar day after now,
// [start of tomorrow, start of the day after tomorrow), in loc.
func Window(now time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}

	y, m, d := now.In(loc).Date()
	start = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	end = time.Date(y, m, d+2, 0, 0, 0, 0, loc)
	return start, end
}
