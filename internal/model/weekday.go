package model

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Weekday is a Monday-first day of the week, matching the column layout of
// a conventional month calendar grid.
type Weekday int

const (
	Mon Weekday = iota
	Tue
	Wed
	Thu
	Fri
	Sat
	Sun
)

// AllWeekdays lists the enum in grid order.
var AllWeekdays = [7]Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var weekdayCodes = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

var weekdayRRule = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Valid reports whether d is within Mon..Sun.
func (d Weekday) Valid() bool {
	return d >= Mon && d <= Sun
}

// String returns the three-letter abbreviation used in meeting patterns.
func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Code returns the two-letter RFC 5545 BYDAY code.
func (d Weekday) Code() string {
	if !d.Valid() {
		return ""
	}
	return weekdayCodes[d]
}

// RRule returns the rrule-go weekday for d.
func (d Weekday) RRule() rrule.Weekday {
	return weekdayRRule[d]
}

// Time converts d into the standard library's Sunday-first weekday.
func (d Weekday) Time() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// WeekdayOf returns the Monday-first weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseWeekday maps a three-letter abbreviation ("Mon".."Sun") to a Weekday.
// Matching is exact.
func ParseWeekday(s string) (Weekday, bool) {
	for i, name := range weekdayNames {
		if name == s {
			return Weekday(i), true
		}
	}
	return 0, false
}
