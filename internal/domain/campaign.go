package domain

import "time"

// Campaign is a bounded-duration survey program. Owned externally; the core
// only reads its date window and active flag.
type Campaign struct {
	ID          string
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	CreatedAt   time.Time
}

// IsRunning reports whether the campaign should dispatch on the given date.
func (c Campaign) IsRunning(asOf time.Time) bool {
	day := DateOnly(asOf)
	return c.IsActive && !day.Before(DateOnly(c.StartDate)) && !day.After(DateOnly(c.EndDate))
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
