package ics

import (
	"errors"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Entry is the normalized form of a VEVENT read back from an .ics file.
// Floating times are returned in time.UTC, matching how the converter
// carries naive wall-clock values.
type Entry struct {
	UID      string
	Summary  string
	Location string

	Start time.Time
	End   time.Time

	RawRRule string
}

// Read parses an iCalendar stream. Recurrences are recorded, not expanded;
// see Expand.
func Read(r io.Reader) ([]Entry, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	for _, ve := range cal.Events() {
		e, err := readVEvent(ve)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readVEvent(ve *ical.VEvent) (Entry, error) {
	var out Entry

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("ics: VEVENT missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	start, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtStart))
	if err != nil {
		return out, errors.New("ics: " + out.UID + ": DTSTART: " + err.Error())
	}
	end, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtEnd))
	if err != nil {
		return out, errors.New("ics: " + out.UID + ": DTEND: " + err.Error())
	}
	out.Start = start
	out.End = end

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	return out, nil
}

// propertyTime parses a DATE-TIME property honoring a TZID parameter.
func propertyTime(p *ical.IANAProperty) (time.Time, error) {
	if p == nil {
		return time.Time{}, errors.New("missing")
	}
	v := strings.TrimSpace(p.Value)

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	loc := time.UTC
	if tzs, ok := p.ICalParameters[string(ical.ParameterTzid)]; ok && len(tzs) > 0 {
		l, err := time.LoadLocation(tzs[0])
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	return time.ParseInLocation(floatingLayout, v, loc)
}
