// Package convert runs the spreadsheet → meeting pattern → calendar
// pipeline.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"schedcal/internal/expand"
	"schedcal/internal/ics"
	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/pattern"
	"schedcal/internal/sheet"
)

// Options configures a conversion run.
type Options struct {
	Mode      model.Mode
	Order     expand.Order
	AlignSeed bool

	// Location anchors times with TZID; nil writes floating times.
	Location  *time.Location
	ProductID string
	// Name is the calendar display name; File defaults it to the
	// destination stem.
	Name string
	// Now stamps DTSTAMP; zero uses the current time.
	Now time.Time

	Sheet   string
	Columns sheet.Columns
}

// Stats summarizes a conversion.
type Stats struct {
	Rows     int
	Skipped  int
	Patterns int
	Events   int
	Output   string
}

// RowError ties a failure to the spreadsheet row it came from.
type RowError struct {
	Row   int
	Title string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Title, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Rows converts rows into a calendar document. The first failing row
// aborts the conversion.
func Rows(rows []model.Row, opts Options) (*ics.Document, Stats, error) {
	var stats Stats
	doc := ics.NewDocument(ics.DocumentOptions{
		ProductID: opts.ProductID,
		Name:      opts.Name,
		Location:  opts.Location,
		Now:       opts.Now,
	})
	expOpts := expand.Options{Order: opts.Order, AlignSeed: opts.AlignSeed}

	for _, row := range rows {
		stats.Rows++
		if strings.TrimSpace(row.MeetingPatterns) == "" {
			stats.Skipped++
			appLog.Debug("row has no meeting patterns; skipping", "row", row.Number, "title", row.Title())
			continue
		}

		n, err := addRow(doc, row, opts.Mode, expOpts)
		if err != nil {
			return nil, stats, &RowError{Row: row.Number, Title: row.Title(), Err: err}
		}
		stats.Patterns += n
	}

	stats.Events = doc.Len()
	return doc, stats, nil
}

func addRow(doc *ics.Document, row model.Row, mode model.Mode, opts expand.Options) (int, error) {
	patterns, err := pattern.Parse(row.MeetingPatterns)
	if err != nil {
		return 0, err
	}

	title := row.Title()
	for _, p := range patterns {
		res, err := expand.Expand(p, title, mode, opts)
		if err != nil {
			return 0, err
		}
		if res.Recurring != nil {
			if err := doc.AddRecurring(*res.Recurring); err != nil {
				return 0, err
			}
			continue
		}
		if len(res.Occurrences) == 0 {
			appLog.Warn("meeting pattern has no dates in range", "row", row.Number, "pattern", p.Raw)
		}
		for _, o := range res.Occurrences {
			doc.AddOccurrence(o)
		}
	}
	return len(patterns), nil
}

// OutputPath resolves the .ics path for input and destination. An empty
// destination uses the input's stem in the working directory.
func OutputPath(input, destination string) string {
	if destination == "" {
		base := filepath.Base(input)
		destination = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if !strings.EqualFold(filepath.Ext(destination), ".ics") {
		destination += ".ics"
	}
	return destination
}

// File reads input, converts it and writes the calendar. Nothing is
// written unless every row converts.
func File(ctx context.Context, input, destination string, opts Options) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	out := OutputPath(input, destination)
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	}

	rows, err := sheet.ReadRows(input, sheet.Options{Sheet: opts.Sheet, Columns: opts.Columns})
	if err != nil {
		return Stats{}, err
	}

	doc, stats, err := Rows(rows, opts)
	if err != nil {
		return stats, err
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := doc.WriteFile(out); err != nil {
		return stats, fmt.Errorf("write %s: %w", out, err)
	}
	stats.Output = out

	appLog.Info("calendar written",
		"input", input,
		"output", out,
		"mode", opts.Mode.String(),
		"rows", stats.Rows,
		"skipped", stats.Skipped,
		"patterns", stats.Patterns,
		"events", stats.Events,
	)
	return stats, nil
}
