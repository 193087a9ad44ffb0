package pattern

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcal/internal/model"
)

const sampleLine = "2024-01-08 - 2024-01-22 | Mon Wed | 9:30 AM - 10:45 AM | Room 101"

func TestParseLine(t *testing.T) {
	p, err := ParseLine(sampleLine)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, []model.Weekday{model.Mon, model.Wed}, p.Weekdays)
	assert.Equal(t, model.Clock{Hour: 9, Minute: 30}, p.StartTime)
	assert.Equal(t, model.Clock{Hour: 10, Minute: 45}, p.EndTime)
	assert.Equal(t, "Room 101", p.Location)
	assert.Equal(t, sampleLine, p.Raw)
}

func TestParseMultiLine(t *testing.T) {
	raw := sampleLine + "\r\n\n   \n" +
		"2024-01-09 - 2024-04-16 | Tue | 2:00 PM - 3:50 PM | Lab B\n"

	got, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Room 101", got[0].Location)
	assert.Equal(t, []model.Weekday{model.Tue}, got[1].Weekdays)
	assert.Equal(t, model.Clock{Hour: 14}, got[1].StartTime)
	assert.Equal(t, model.Clock{Hour: 15, Minute: 50}, got[1].EndTime)
}

func TestParseEmpty(t *testing.T) {
	got, err := Parse("\n\n")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want model.Clock
	}{
		{"9:30 AM", model.Clock{Hour: 9, Minute: 30}},
		{"9:30 A.M.", model.Clock{Hour: 9, Minute: 30}},
		{"9:30 a.m.", model.Clock{Hour: 9, Minute: 30}},
		{"9:30AM", model.Clock{Hour: 9, Minute: 30}},
		{"12:00 PM", model.Clock{Hour: 12}},
		{"12:15 AM", model.Clock{Hour: 0, Minute: 15}},
		{"11:59 P.M.", model.Clock{Hour: 23, Minute: 59}},
		{"3 PM", model.Clock{Hour: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClockPeriodStripping(t *testing.T) {
	a, err := ParseClock("9:30 A.M.")
	require.NoError(t, err)
	b, err := ParseClock("9:30 AM")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		kind  error
		value string
	}{
		{
			name: "three segments",
			line: "2024-01-08 - 2024-01-22 | Mon Wed | 9:30 AM - 10:45 AM",
			kind: ErrMalformedPattern,
		},
		{
			name: "five segments",
			line: sampleLine + " | extra",
			kind: ErrMalformedPattern,
		},
		{
			name:  "unknown weekday",
			line:  "2024-01-08 - 2024-01-22 | Mon Xyz | 9:30 AM - 10:45 AM | Room 101",
			kind:  ErrUnknownWeekday,
			value: "Xyz",
		},
		{
			name:  "lowercase weekday",
			line:  "2024-01-08 - 2024-01-22 | mon | 9:30 AM - 10:45 AM | Room 101",
			kind:  ErrUnknownWeekday,
			value: "mon",
		},
		{
			name: "no weekdays",
			line: "2024-01-08 - 2024-01-22 |  | 9:30 AM - 10:45 AM | Room 101",
			kind: ErrMalformedPattern,
		},
		{
			name:  "bad date",
			line:  "2024-13-08 - 2024-01-22 | Mon | 9:30 AM - 10:45 AM | Room 101",
			kind:  ErrInvalidDate,
			value: "2024-13-08",
		},
		{
			name: "reversed dates",
			line: "2024-01-22 - 2024-01-08 | Mon | 9:30 AM - 10:45 AM | Room 101",
			kind: ErrMalformedPattern,
		},
		{
			name: "missing date separator",
			line: "2024-01-08 | Mon | 9:30 AM - 10:45 AM | Room 101",
			kind: ErrMalformedPattern,
		},
		{
			name:  "bad time",
			line:  "2024-01-08 - 2024-01-22 | Mon | 9:30 XM - 10:45 AM | Room 101",
			kind:  ErrInvalidTime,
			value: "9:30 XM",
		},
		{
			name:  "24 hour time",
			line:  "2024-01-08 - 2024-01-22 | Mon | 9:30 AM - 14:45 | Room 101",
			kind:  ErrInvalidTime,
			value: "14:45",
		},
		{
			name: "end before start time",
			line: "2024-01-08 - 2024-01-22 | Mon | 10:45 AM - 9:30 AM | Room 101",
			kind: ErrInvalidTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, ErrMalformedPattern)

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
			if tt.value != "" {
				assert.Equal(t, tt.value, perr.Value)
			}
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestParseStopsAtFirstError(t *testing.T) {
	raw := sampleLine + "\n2024-01-08 - 2024-01-22 | Xyz | 9:30 AM - 10:45 AM | Room 101\nnot a pattern"

	got, err := Parse(raw)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrUnknownWeekday)
}

func TestDuplicateWeekdaysCollapse(t *testing.T) {
	p, err := ParseLine("2024-01-08 - 2024-01-22 | Wed Mon Wed | 9:30 AM - 10:45 AM | Room 101")
	require.NoError(t, err)
	assert.Equal(t, []model.Weekday{model.Wed, model.Mon}, p.Weekdays)
}

func TestFormatRoundTrip(t *testing.T) {
	lines := []string{
		sampleLine,
		"2024-01-09 - 2024-04-16 | Tue Thu | 2:00 PM - 3:50 PM | Science Hall 210",
		"2024-09-03 - 2024-12-06 | Fri | 12:00 PM - 12:50 PM | ",
		"2024-09-03   -   2024-12-06|Sat Sun|  8:05 A.M. - 11:00 A.M.  |Online",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			p, err := ParseLine(line)
			require.NoError(t, err)

			back, err := ParseLine(Format(p))
			require.NoError(t, err)

			assert.Equal(t, normalize(Format(p)), normalize(Format(back)))
			assert.Equal(t, p.Start, back.Start)
			assert.Equal(t, p.End, back.End)
			assert.Equal(t, p.Weekdays, back.Weekdays)
			assert.Equal(t, p.StartTime, back.StartTime)
			assert.Equal(t, p.EndTime, back.EndTime)
			assert.Equal(t, p.Location, back.Location)
		})
	}

	assert.Equal(t, sampleLine, Format(mustParse(t, sampleLine)))
}

func mustParse(t *testing.T, line string) model.MeetingPattern {
	t.Helper()
	p, err := ParseLine(line)
	require.NoError(t, err)
	return p
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
