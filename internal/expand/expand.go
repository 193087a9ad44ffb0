// Package expand turns decoded meeting patterns into calendar events, either
// one event per meeting date or a single weekly recurring event.
package expand

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"schedcal/internal/model"
	"schedcal/internal/pattern"
)

// Order controls the sequence of dates returned in expanded mode.
type Order int

const (
	// OrderChronological sorts dates ascending.
	OrderChronological Order = iota
	// OrderGrid keeps the month → week row → weekday walk order, with the
	// weekdays visited in the order the pattern lists them.
	OrderGrid
)

// ParseOrder accepts "chronological" (default) or "grid".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "chronological":
		return OrderChronological, nil
	case "grid":
		return OrderGrid, nil
	default:
		return OrderChronological, fmt.Errorf("unknown order %q", s)
	}
}

// Options tunes expansion.
type Options struct {
	Order Order

	// AlignSeed moves the first instance of a recurring event to the first
	// date in range that falls on one of its weekdays. When false the seed
	// is the start of the date range, whatever weekday it is.
	AlignSeed bool
}

// Result holds the output of Expand. Exactly one of the fields is set,
// depending on the mode.
type Result struct {
	Occurrences []model.EventOccurrence
	Recurring   *model.RecurringEvent
}

// Expand converts p into events titled title.
func Expand(p model.MeetingPattern, title string, mode model.Mode, opts Options) (Result, error) {
	switch mode {
	case model.ModeExpanded:
		occ, err := Occurrences(p, title, opts.Order)
		if err != nil {
			return Result{}, err
		}
		return Result{Occurrences: occ}, nil
	case model.ModeRecurring:
		ev, err := Recurring(p, title, opts)
		if err != nil {
			return Result{}, err
		}
		return Result{Recurring: &ev}, nil
	default:
		return Result{}, fmt.Errorf("expand: unsupported mode %v", mode)
	}
}

// Occurrences returns one event per date in p's range that falls on one of
// its weekdays. An empty slice is a valid result.
func Occurrences(p model.MeetingPattern, title string, order Order) ([]model.EventOccurrence, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	dates := Dates(p, order)
	out := make([]model.EventOccurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, model.EventOccurrence{
			Title:    title,
			Start:    p.StartTime.On(d),
			End:      p.EndTime.On(d),
			Location: p.Location,
		})
	}
	return out, nil
}

// Recurring returns a single weekly event covering p.
func Recurring(p model.MeetingPattern, title string, opts Options) (model.RecurringEvent, error) {
	if err := validate(p); err != nil {
		return model.RecurringEvent{}, err
	}

	seed := model.Date(p.Start)
	if opts.AlignSeed {
		if d, ok := firstMatch(p); ok {
			seed = d
		}
	}

	days := make([]model.Weekday, len(p.Weekdays))
	copy(days, p.Weekdays)

	return model.RecurringEvent{
		Title:      title,
		FirstStart: p.StartTime.On(seed),
		FirstEnd:   p.EndTime.On(seed),
		Location:   p.Location,
		Recurrence: model.Recurrence{
			Frequency: model.FreqWeekly,
			ByDay:     days,
			Until:     model.Date(p.End),
		},
	}, nil
}

// Dates enumerates the qualifying meeting dates of p by walking the month
// calendar grid of every month the range touches.
func Dates(p model.MeetingPattern, order Order) []time.Time {
	start := model.Date(p.Start)
	end := model.Date(p.End)

	out := make([]time.Time, 0)
	for cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		for _, week := range MonthGrid(cur.Year(), cur.Month()) {
			for _, wd := range p.Weekdays {
				if week[wd] == 0 {
					continue
				}
				d := time.Date(cur.Year(), cur.Month(), week[wd], 0, 0, 0, 0, time.UTC)
				if d.Before(start) || d.After(end) {
					continue
				}
				out = append(out, d)
			}
		}
	}

	if order == OrderChronological {
		slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	}
	return out
}

// MonthGrid lays out a month as Monday-first week rows. Days belonging to
// the neighbouring months are 0.
func MonthGrid(year int, month time.Month) [][7]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysIn := first.AddDate(0, 1, -1).Day()
	offset := int(model.WeekdayOf(first))

	rows := make([][7]int, 0, 6)
	var week [7]int
	col := offset
	for day := 1; day <= daysIn; day++ {
		week[col] = day
		col++
		if col == 7 {
			rows = append(rows, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		rows = append(rows, week)
	}
	return rows
}

func firstMatch(p model.MeetingPattern) (time.Time, bool) {
	start := model.Date(p.Start)
	end := model.Date(p.End)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		if d.After(end) {
			break
		}
		if p.Has(model.WeekdayOf(d)) {
			return d, true
		}
	}
	return time.Time{}, false
}

func validate(p model.MeetingPattern) error {
	if len(p.Weekdays) == 0 {
		return &pattern.Error{Kind: pattern.ErrMalformedPattern, Line: p.Raw, Err: errors.New("no weekdays")}
	}
	for _, d := range p.Weekdays {
		if !d.Valid() {
			return &pattern.Error{Kind: pattern.ErrUnknownWeekday, Line: p.Raw, Value: d.String()}
		}
	}
	if model.Date(p.End).Before(model.Date(p.Start)) {
		return &pattern.Error{Kind: pattern.ErrMalformedPattern, Line: p.Raw, Err: errors.New("end date before start date")}
	}
	if !validClock(p.StartTime) || !validClock(p.EndTime) {
		return &pattern.Error{Kind: pattern.ErrInvalidTime, Line: p.Raw, Err: errors.New("time of day out of range")}
	}
	if !p.StartTime.Before(p.EndTime) {
		return &pattern.Error{Kind: pattern.ErrInvalidTime, Line: p.Raw, Err: errors.New("end time not after start time")}
	}
	return nil
}

func validClock(c model.Clock) bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}
