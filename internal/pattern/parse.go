// Package pattern decodes the meeting-patterns field of a course export.
//
// A field holds one pattern per line:
//
//	2024-01-08 - 2024-04-12 | Mon Wed | 9:30 AM - 10:45 AM | Room 101
//
// i.e. a date range, the meeting weekdays, a time range and a location,
// separated by '|'.
package pattern

import (
	"errors"
	"strings"
	"time"

	"schedcal/internal/model"
)

const (
	dateLayout = "2006-01-02"

	segmentSep = "|"
	rangeSep   = " - "
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "3 PM", "3PM"}

// Parse decodes every non-blank line of raw. The first bad line aborts.
func Parse(raw string) ([]model.MeetingPattern, error) {
	out := make([]model.MeetingPattern, 0)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, nil
}

// ParseLine decodes a single pattern line.
func ParseLine(line string) (model.MeetingPattern, error) {
	var p model.MeetingPattern
	p.Raw = line

	segs := strings.Split(line, segmentSep)
	if len(segs) != 4 {
		return p, newError(ErrMalformedPattern, line, "", errors.New("expected 4 '|'-separated segments"))
	}
	for i := range segs {
		segs[i] = strings.TrimSpace(segs[i])
	}

	startStr, endStr, ok := splitRange(segs[0])
	if !ok {
		return p, newError(ErrMalformedPattern, line, segs[0], errors.New("expected \"<start> - <end>\" date range"))
	}
	start, err := ParseDate(startStr)
	if err != nil {
		return p, newError(ErrInvalidDate, line, startStr, err)
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return p, newError(ErrInvalidDate, line, endStr, err)
	}
	if end.Before(start) {
		return p, newError(ErrMalformedPattern, line, segs[0], errors.New("end date before start date"))
	}

	days, err := parseWeekdays(line, segs[1])
	if err != nil {
		return p, err
	}

	fromStr, toStr, ok := splitRange(segs[2])
	if !ok {
		return p, newError(ErrMalformedPattern, line, segs[2], errors.New("expected \"<start> - <end>\" time range"))
	}
	from, err := ParseClock(fromStr)
	if err != nil {
		return p, newError(ErrInvalidTime, line, fromStr, err)
	}
	to, err := ParseClock(toStr)
	if err != nil {
		return p, newError(ErrInvalidTime, line, toStr, err)
	}
	if !from.Before(to) {
		return p, newError(ErrInvalidTime, line, segs[2], errors.New("end time not after start time"))
	}

	p.Start = start
	p.End = end
	p.Weekdays = days
	p.StartTime = from
	p.EndTime = to
	p.Location = segs[3]
	return p, nil
}

// ParseDate parses a YYYY-MM-DD date into midnight time.UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// ParseClock parses a 12-hour clock time. Periods are dropped and the
// suffix upper-cased first, so "9:30 a.m." reads as "9:30 AM".
func ParseClock(s string) (model.Clock, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(s, ".", "")), " "))

	var lastErr error
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, norm)
		if err == nil {
			return model.Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
		lastErr = err
	}
	return model.Clock{}, lastErr
}

// Format renders p back into the line grammar accepted by ParseLine.
func Format(p model.MeetingPattern) string {
	days := make([]string, 0, len(p.Weekdays))
	for _, d := range p.Weekdays {
		days = append(days, d.String())
	}

	return p.Start.Format(dateLayout) + rangeSep + p.End.Format(dateLayout) +
		" | " + strings.Join(days, " ") +
		" | " + p.StartTime.String() + rangeSep + p.EndTime.String() +
		" | " + p.Location
}

func parseWeekdays(line, seg string) ([]model.Weekday, error) {
	tokens := strings.Fields(seg)
	if len(tokens) == 0 {
		return nil, newError(ErrMalformedPattern, line, seg, errors.New("no weekdays"))
	}

	days := make([]model.Weekday, 0, len(tokens))
	seen := [7]bool{}
	for _, tok := range tokens {
		d, ok := model.ParseWeekday(tok)
		if !ok {
			return nil, newError(ErrUnknownWeekday, line, tok, nil)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	return days, nil
}

// splitRange splits "a - b". Both halves must be non-empty.
func splitRange(s string) (string, string, bool) {
	a, b, ok := strings.Cut(s, rangeSep)
	if !ok {
		return "", "", false
	}
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" || strings.Contains(b, rangeSep) {
		return "", "", false
	}
	return a, b, true
}
