package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"schedcal/internal/sheet"
)

func writeCourses(t *testing.T, path string, patterns string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	name := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(name, "A1", &[]any{"Section", "Instructional Format", "Meeting Patterns"}))
	require.NoError(t, f.SetSheetRow(name, "A2", &[]any{"CS 101-01", "Lecture", patterns}))
	require.NoError(t, f.SaveAs(path))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const scenario = "2024-01-08 - 2024-01-22 | Mon Wed | 9:30 AM - 10:45 AM | Room 101"

func TestConvertRecurring(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "courses.xlsx")
	writeCourses(t, input, scenario)
	dest := filepath.Join(dir, "spring")

	out, err := execute(t, "--config", filepath.Join(dir, "none.yaml"), "--input", input, "--destination", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 events")

	data, err := os.ReadFile(dest + ".ics")
	require.NoError(t, err)
	assert.Contains(t, string(data), "RRULE:FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20240122T235959")

	preview, err := execute(t, "--config", filepath.Join(dir, "none.yaml"), "preview", dest+".ics")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(preview), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "2024-01-08 Mon  09:30-10:45  CS 101-01 Lecture  @ Room 101", lines[0])
	assert.True(t, strings.HasPrefix(lines[4], "2024-01-22 Mon"))
}

func TestConvertEvents(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "courses.xlsx")
	writeCourses(t, input, scenario)
	dest := filepath.Join(dir, "spring.ics")

	out, err := execute(t, "--config", filepath.Join(dir, "none.yaml"), "-i", input, "-d", dest, "--events", "--timezone", "America/New_York")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 5 events")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTSTART;TZID=America/New_York:20240117T093000")
	assert.NotContains(t, string(data), "RRULE")
}

func TestConvertUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mode: expanded\nproduct_id: -//campus//EN\n"), 0o600))

	input := filepath.Join(dir, "courses.xlsx")
	writeCourses(t, input, scenario)
	dest := filepath.Join(dir, "out")

	_, err := execute(t, "--config", cfgPath, "--input", input, "--destination", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest + ".ics")
	require.NoError(t, err)
	assert.Contains(t, string(data), "PRODID:-//campus//EN")
	assert.Equal(t, 5, strings.Count(string(data), "BEGIN:VEVENT"))
}

func TestConvertMalformedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "courses.xlsx")
	writeCourses(t, input, "2024-01-08 - 2024-01-22 | Mon Wed | 9:30 AM - 10:45 AM")
	dest := filepath.Join(dir, "spring")

	_, err := execute(t, "--config", filepath.Join(dir, "none.yaml"), "--input", input, "--destination", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	_, statErr := os.Stat(dest + ".ics")
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertRequiresInput(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "--config", filepath.Join(dir, "none.yaml"))
	assert.Error(t, err)

	csv := filepath.Join(dir, "courses.csv")
	require.NoError(t, os.WriteFile(csv, []byte("x"), 0o600))
	_, err = execute(t, "--config", filepath.Join(dir, "none.yaml"), "--input", csv)
	assert.ErrorIs(t, err, sheet.ErrInvalidInputFile)
}

func TestConfigInit(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "schedcal", "config.yaml")

	out, err := execute(t, "--config", cfgPath, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Meeting Patterns")

	_, err = execute(t, "--config", cfgPath, "config", "init")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfgPath, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "version")
	require.NoError(t, err)
	assert.Equal(t, "schedcal dev\n", out)
}
