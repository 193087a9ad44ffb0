package model

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// FreqWeekly is the only frequency produced for class schedules.
const FreqWeekly = "WEEKLY"

// Recurrence describes a weekly repeat rule. Until is a calendar date; the
// whole day is included.
type Recurrence struct {
	Frequency string
	ByDay     []Weekday
	Until     time.Time
}

// UntilTime returns the last instant of the Until date in loc. A nil loc
// keeps the naive time.UTC representation.
func (r Recurrence) UntilTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(r.Until.Year(), r.Until.Month(), r.Until.Day(), 23, 59, 59, 0, loc)
}

// Format renders the RRULE value. With a nil loc the UNTIL is a floating
// date-time; otherwise it is the end of the Until day in loc, expressed in UTC.
func (r Recurrence) Format(loc *time.Location) string {
	days := make([]string, 0, len(r.ByDay))
	for _, d := range r.ByDay {
		days = append(days, d.Code())
	}

	until := r.UntilTime(loc)
	var untilStr string
	if loc == nil {
		untilStr = until.Format("20060102T150405")
	} else {
		untilStr = until.UTC().Format("20060102T150405Z")
	}

	freq := r.Frequency
	if freq == "" {
		freq = FreqWeekly
	}

	return "FREQ=" + freq + ";BYDAY=" + strings.Join(days, ",") + ";UNTIL=" + untilStr
}

// Rule builds an rrule-go rule seeded at FirstStart, suitable for expanding
// the event into concrete start times.
func (e RecurringEvent) Rule() (*rrule.RRule, error) {
	days := make([]rrule.Weekday, 0, len(e.Recurrence.ByDay))
	for _, d := range e.Recurrence.ByDay {
		days = append(days, d.RRule())
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   e.FirstStart,
		Byweekday: days,
		Until:     e.Recurrence.UntilTime(e.FirstStart.Location()),
	})
}
