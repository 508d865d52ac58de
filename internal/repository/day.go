package repository

import "time"

// dayBoundsUTC returns the half-open [start, end) interval of the UTC calendar
// day containing t. Every daily cap and bonus check goes through this one
// function so reward counting and bonus eligibility can never disagree on a
// day boundary.
func dayBoundsUTC(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
