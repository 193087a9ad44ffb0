package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"schedcal/internal/fileutil"
	"schedcal/internal/model"
)

const (
	floatingLayout = "20060102T150405"
	uidDomain      = "schedcal"
)

// DocumentOptions configures a new calendar document.
type DocumentOptions struct {
	ProductID string
	// Name becomes X-WR-CALNAME.
	Name string
	// Location anchors event times with TZID. Nil writes floating times.
	Location *time.Location
	// Now is stamped into DTSTAMP. Zero uses time.Now.
	Now time.Time
}

// Document accumulates events for a single .ics file.
type Document struct {
	cal    *ical.Calendar
	loc    *time.Location
	stamp  time.Time
	uids   map[string]int
	events int
}

// NewDocument creates an empty VCALENDAR.
func NewDocument(opts DocumentOptions) *Document {
	cal := ical.NewCalendar()
	if opts.ProductID != "" {
		cal.SetProductId(opts.ProductID)
	}
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if opts.Location != nil {
		cal.SetXWRTimezone(opts.Location.String())
	}

	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	return &Document{
		cal:   cal,
		loc:   opts.Location,
		stamp: stamp.UTC(),
		uids:  make(map[string]int),
	}
}

// Len reports how many VEVENTs have been added.
func (d *Document) Len() int {
	return d.events
}

// AddOccurrence adds a single non-recurring event.
func (d *Document) AddOccurrence(o model.EventOccurrence) {
	d.addEvent(o.Title, o.Start, o.End, o.Location)
}

// AddRecurring adds one event carrying a weekly RRULE. The rule text is
// checked with rrule-go before it is written.
func (d *Document) AddRecurring(e model.RecurringEvent) error {
	rule := e.Recurrence.Format(d.loc)
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("ics: invalid recurrence %q for %q: %w", rule, e.Title, err)
	}

	ev := d.addEvent(e.Title, e.FirstStart, e.FirstEnd, e.Location)
	ev.SetProperty(ical.ComponentPropertyRrule, rule)
	return nil
}

// Serialize renders the calendar in iCalendar text form.
func (d *Document) Serialize() string {
	return d.cal.Serialize()
}

// WriteFile atomically writes the document to path.
func (d *Document) WriteFile(path string) error {
	return fileutil.WriteFileAtomic(path, []byte(d.Serialize()), 0o644)
}

func (d *Document) addEvent(title string, start, end time.Time, location string) *ical.VEvent {
	ev := d.cal.AddEvent(d.uid(title, start, location))
	ev.SetDtStampTime(d.stamp)
	ev.SetSummary(title)
	d.setTime(ev, ical.ComponentPropertyDtStart, start)
	d.setTime(ev, ical.ComponentPropertyDtEnd, end)
	if location != "" {
		ev.SetLocation(location)
	}
	d.events++
	return ev
}

// setTime writes the wall-clock value of t, floating or with TZID.
func (d *Document) setTime(ev *ical.VEvent, prop ical.ComponentProperty, t time.Time) {
	value := t.Format(floatingLayout)
	if d.loc == nil {
		ev.SetProperty(prop, value)
		return
	}
	ev.SetProperty(prop, value, &ical.KeyValues{
		Key:   string(ical.ParameterTzid),
		Value: []string{d.loc.String()},
	})
}

// uid derives a stable identifier so regenerating a calendar updates the
// same events in subscribed clients instead of duplicating them.
func (d *Document) uid(title string, start time.Time, location string) string {
	sum := sha256.Sum256([]byte(title + "\x00" + start.Format(floatingLayout) + "\x00" + location))
	base := hex.EncodeToString(sum[:8])

	n := d.uids[base]
	d.uids[base] = n + 1
	if n > 0 {
		base = fmt.Sprintf("%s-%d", base, n)
	}
	return base + "@" + uidDomain
}
