package model

import (
	"fmt"
	"strings"
	"time"
)

// Row is a single spreadsheet record describing one course section.
// Number is the 1-based spreadsheet row, used to point users at bad data.
type Row struct {
	Number int

	Section             string
	InstructionalFormat string

	// MeetingPatterns is the raw multi-line encoded field.
	MeetingPatterns string
}

// Title returns the event summary for every meeting of the row:
// "{Section} {InstructionalFormat}".
func (r Row) Title() string {
	return r.Section + " " + r.InstructionalFormat
}

// MeetingPattern is one decoded line of the meeting-patterns field.
//
// Start and End are calendar dates (midnight, time.UTC) bounding the pattern
// inclusively. StartTime/EndTime are wall-clock times applied to each date.
type MeetingPattern struct {
	Start time.Time
	End   time.Time

	// Weekdays keeps the order the days were written in; duplicates are
	// removed by the parser.
	Weekdays []Weekday

	StartTime Clock
	EndTime   Clock

	Location string

	// Raw is the source line, kept for error reporting.
	Raw string
}

// Has reports whether d is one of the pattern's weekdays.
func (p MeetingPattern) Has(d Weekday) bool {
	for _, w := range p.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// EventOccurrence is a single concrete class meeting.
type EventOccurrence struct {
	Title    string
	Start    time.Time
	End      time.Time
	Location string
}

// RecurringEvent is one event carrying a weekly recurrence instead of
// enumerated dates. FirstStart/FirstEnd are the seed instance.
type RecurringEvent struct {
	Title      string
	FirstStart time.Time
	FirstEnd   time.Time
	Location   string
	Recurrence Recurrence
}

// Mode selects how meeting patterns are turned into events.
type Mode int

const (
	// ModeRecurring emits one RecurringEvent per meeting pattern.
	ModeRecurring Mode = iota
	// ModeExpanded emits one EventOccurrence per qualifying date.
	ModeExpanded
)

func (m Mode) String() string {
	switch m {
	case ModeExpanded:
		return "expanded"
	case ModeRecurring:
		return "recurring"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "recurring" or "expanded" (also "events"), case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recurring":
		return ModeRecurring, nil
	case "expanded", "events":
		return ModeExpanded, nil
	default:
		return ModeRecurring, fmt.Errorf("unknown mode %q", s)
	}
}

// Date truncates t to midnight of its calendar day, in time.UTC.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
