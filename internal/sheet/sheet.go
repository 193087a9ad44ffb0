// Package sheet reads course rows out of an .xlsx export.
package sheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	appLog "schedcal/internal/log"
	"schedcal/internal/model"
)

var (
	ErrInvalidInputFile = errors.New("invalid input file")
	ErrMissingColumn    = errors.New("missing column")
)

// headerSearchRows bounds how far down the sheet the header row may be.
// Registrar exports usually put a title block above it.
const headerSearchRows = 10

// Columns names the header cells of the three fields a row needs.
type Columns struct {
	Section  string
	Format   string
	Patterns string
}

// Options controls ReadRows. Zero values select the first sheet and the
// standard column names.
type Options struct {
	Sheet   string
	Columns Columns
}

// CheckInput validates that path is an existing regular .xlsx file.
func CheckInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidInputFile, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidInputFile, path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("%w: %s: requires an .xlsx file", ErrInvalidInputFile, path)
	}
	return nil
}

// ReadRows returns every data row below the header row. Rows with all
// three fields blank are dropped; rows with only a blank patterns cell are
// kept for the caller to skip.
func ReadRows(path string, opts Options) ([]model.Row, error) {
	if err := CheckInput(path); err != nil {
		return nil, err
	}
	cols := opts.Columns.withDefaults()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInputFile, path, err)
	}
	defer f.Close()

	sheetName := opts.Sheet
	if sheetName == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", ErrInvalidInputFile, path)
		}
		sheetName = list[0]
	}

	grid, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheetName, err)
	}

	headerIdx, index, err := findHeader(grid, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: sheet %q: %w", path, sheetName, err)
	}

	appLog.Debug("sheet header found",
		"path", path,
		"sheet", sheetName,
		"header_row", headerIdx+1,
	)

	rows := make([]model.Row, 0, len(grid)-headerIdx-1)
	for i := headerIdx + 1; i < len(grid); i++ {
		r := model.Row{
			Number:              i + 1,
			Section:             strings.TrimSpace(cell(grid[i], index[cols.Section])),
			InstructionalFormat: strings.TrimSpace(cell(grid[i], index[cols.Format])),
			MeetingPatterns:     cell(grid[i], index[cols.Patterns]),
		}
		if r.Section == "" && r.InstructionalFormat == "" && strings.TrimSpace(r.MeetingPatterns) == "" {
			continue
		}
		rows = append(rows, r)
	}

	appLog.Info("sheet rows read", "path", path, "sheet", sheetName, "rows", len(rows))
	return rows, nil
}

// findHeader locates the first row containing every required column and
// returns its index plus a column-name → cell-index map.
func findHeader(grid [][]string, cols Columns) (int, map[string]int, error) {
	required := []string{cols.Section, cols.Format, cols.Patterns}

	var best []string
	bestFound := -1
	for i := 0; i < len(grid) && i < headerSearchRows; i++ {
		index := make(map[string]int)
		for j, v := range grid[i] {
			name := strings.TrimSpace(v)
			if _, dup := index[name]; !dup {
				index[name] = j
			}
		}

		var missing []string
		for _, name := range required {
			if _, ok := index[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) == 0 {
			return i, index, nil
		}
		if found := len(required) - len(missing); found > bestFound {
			bestFound = found
			best = missing
		}
	}

	if best == nil {
		best = required
	}
	return -1, nil, fmt.Errorf("%w: %s", ErrMissingColumn, quoteAll(best))
}

func (c Columns) withDefaults() Columns {
	if c.Section == "" {
		c.Section = "Section"
	}
	if c.Format == "" {
		c.Format = "Instructional Format"
	}
	if c.Patterns == "" {
		c.Patterns = "Meeting Patterns"
	}
	return c
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(q, ", ")
}
