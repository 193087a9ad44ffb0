package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func TestWeekdayTables(t *testing.T) {
	tests := []struct {
		day   Weekday
		name  string
		code  string
		rr    rrule.Weekday
		goDay time.Weekday
	}{
		{Mon, "Mon", "MO", rrule.MO, time.Monday},
		{Tue, "Tue", "TU", rrule.TU, time.Tuesday},
		{Wed, "Wed", "WE", rrule.WE, time.Wednesday},
		{Thu, "Thu", "TH", rrule.TH, time.Thursday},
		{Fri, "Fri", "FR", rrule.FR, time.Friday},
		{Sat, "Sat", "SA", rrule.SA, time.Saturday},
		{Sun, "Sun", "SU", rrule.SU, time.Sunday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.day.String())
			assert.Equal(t, tt.code, tt.day.Code())
			assert.Equal(t, tt.rr, tt.day.RRule())
			assert.Equal(t, tt.goDay, tt.day.Time())

			parsed, ok := ParseWeekday(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.day, parsed)
		})
	}

	_, ok := ParseWeekday("Xyz")
	assert.False(t, ok)
}

func TestWeekdayOf(t *testing.T) {
	// 2024-01-08 is a Monday.
	base := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	for i, want := range AllWeekdays {
		assert.Equal(t, want, WeekdayOf(base.AddDate(0, 0, i)))
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "9:30 AM", Clock{Hour: 9, Minute: 30}.String())
	assert.Equal(t, "12:00 PM", Clock{Hour: 12}.String())
	assert.Equal(t, "12:05 AM", Clock{Minute: 5}.String())
	assert.Equal(t, "11:59 PM", Clock{Hour: 23, Minute: 59}.String())
}

func TestClockOn(t *testing.T) {
	d := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 8, 14, 15, 0, 0, time.UTC), Clock{Hour: 14, Minute: 15}.On(d))
	assert.True(t, Clock{Hour: 9}.Before(Clock{Hour: 9, Minute: 1}))
	assert.False(t, Clock{Hour: 9}.Before(Clock{Hour: 9}))
}

func TestRowTitle(t *testing.T) {
	r := Row{Section: "MATH 221-002 - Calculus II", InstructionalFormat: "Lecture"}
	assert.Equal(t, "MATH 221-002 - Calculus II Lecture", r.Title())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Expanded")
	require.NoError(t, err)
	assert.Equal(t, ModeExpanded, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeRecurring, m)

	_, err = ParseMode("daily")
	assert.Error(t, err)
}

func TestRecurrenceFormat(t *testing.T) {
	r := Recurrence{
		Frequency: FreqWeekly,
		ByDay:     []Weekday{Tue, Thu},
		Until:     time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=20240425T235959", r.Format(nil))

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 23:59:59 EDT is 03:59:59 UTC the next day.
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=20240426T035959Z", r.Format(loc))

	_, err = rrule.StrToRRule(r.Format(nil))
	assert.NoError(t, err)
}
