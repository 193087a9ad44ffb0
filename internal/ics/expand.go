package ics

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "schedcal/internal/log"
	"schedcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandResult wraps the expanded occurrences and the UIDs whose
// expansion was cut short by the cap.
type ExpandResult struct {
	Occurrences     []model.EventOccurrence
	TruncatedEvents []string
}

// Expand turns entries into concrete occurrences, expanding RRULEs through
// rrule-go. maxPerEvent caps each event (zero selects the default); rules
// without UNTIL or COUNT are therefore safe. Output is sorted by start.
func Expand(entries []Entry, maxPerEvent int) (ExpandResult, error) {
	var result ExpandResult
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrencesPerEvent
	}

	for _, e := range entries {
		if e.RawRRule == "" {
			result.Occurrences = append(result.Occurrences, occurrence(e, e.Start))
			continue
		}

		r, err := rrule.StrToRRule(e.RawRRule)
		if err != nil {
			return result, fmt.Errorf("ics: %s: RRULE %q: %w", e.UID, e.RawRRule, err)
		}
		r.DTStart(e.Start)

		next := r.Iterator()
		n := 0
		for {
			t, ok := next()
			if !ok {
				break
			}
			if n == maxPerEvent {
				result.TruncatedEvents = append(result.TruncatedEvents, e.UID)
				appLog.Warn("expand: truncated occurrences due to cap", "uid", e.UID, "cap", maxPerEvent)
				break
			}
			result.Occurrences = append(result.Occurrences, occurrence(e, t))
			n++
		}
	}

	slices.SortStableFunc(result.Occurrences, func(a, b model.EventOccurrence) int {
		return a.Start.Compare(b.Start)
	})
	return result, nil
}

// occurrence preserves the entry's duration at the given start.
func occurrence(e Entry, start time.Time) model.EventOccurrence {
	return model.EventOccurrence{
		Title:    e.Summary,
		Start:    start,
		End:      start.Add(e.End.Sub(e.Start)),
		Location: e.Location,
	}
}
