package model

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// On combines the calendar date of d with c.
func (c Clock) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, d.Location())
}

// Before reports whether c is strictly earlier in the day than o.
func (c Clock) Before(o Clock) bool {
	return c.minutes() < o.minutes()
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// String renders c on a 12-hour clock, e.g. "9:30 AM".
func (c Clock) String() string {
	suffix := "AM"
	h := c.Hour
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, suffix)
}
