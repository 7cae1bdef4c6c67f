package calendar

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ics(lines ...string) string {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//dayplan//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR")
	return strings.Join(all, "\r\n") + "\r\n"
}

var (
	windowStart = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
)

const feed = "BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20260202T100000Z\r\n" +
	"DTEND:20260202T101500Z\r\n" +
	"RRULE:FREQ=DAILY;COUNT=20\r\n" +
	"EXDATE:20260210T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"RECURRENCE-ID:20260211T100000Z\r\n" +
	"SUMMARY:Standup (moved)\r\n" +
	"DTSTART:20260211T140000Z\r\n" +
	"DTEND:20260211T141500Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review\r\n" +
	"SUMMARY:Design review\r\n" +
	"DTSTART:20260209T130000Z\r\n" +
	"DTEND:20260209T140000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday\r\n" +
	"SUMMARY:Holiday\r\n" +
	"DTSTART;VALUE=DATE:20260210\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"SUMMARY:No uid\r\n" +
	"DTSTART:20260209T080000Z\r\n" +
	"DTEND:20260209T090000Z\r\n" +
	"END:VEVENT"

func TestImportExpandsRecurrences(t *testing.T) {
	imp := NewImporter(nil, WithLocation(time.UTC))

	entries, err := imp.Parse(strings.NewReader(ics(feed)))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	events, err := imp.Expand(entries, windowStart, windowEnd)
	require.NoError(t, err)

	titles := make([]string, 0, len(events))
	for _, ev := range events {
		titles = append(titles, ev.Title)
	}
	assert.Equal(t, []string{"Standup", "Design review", "Holiday", "Standup (moved)"}, titles)

	assert.Equal(t, time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC), events[0].StartTime.UTC())
	assert.Equal(t, time.Date(2026, 2, 9, 10, 15, 0, 0, time.UTC), events[0].EndTime.UTC())
	assert.Equal(t, "standup@20260209T100000Z", events[0].ID)

	holiday := events[2]
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), holiday.StartTime)
	assert.Equal(t, time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC), holiday.EndTime)

	moved := events[3]
	assert.Equal(t, "standup@20260211T100000Z", moved.ID)
	assert.Equal(t, time.Date(2026, 2, 11, 14, 0, 0, 0, time.UTC), moved.StartTime.UTC())
}

func TestImportOverrideHonoursTZID(t *testing.T) {
	const zoned = "BEGIN:VEVENT\r\n" +
		"UID:sync\r\n" +
		"SUMMARY:Sync\r\n" +
		"DTSTART;TZID=Europe/Berlin:20260202T100000\r\n" +
		"DTEND;TZID=Europe/Berlin:20260202T103000\r\n" +
		"RRULE:FREQ=DAILY;COUNT=20\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:sync\r\n" +
		"RECURRENCE-ID;TZID=Europe/Berlin:20260210T100000\r\n" +
		"SUMMARY:Sync (moved)\r\n" +
		"DTSTART;TZID=Europe/Berlin:20260210T150000\r\n" +
		"DTEND;TZID=Europe/Berlin:20260210T153000\r\n" +
		"END:VEVENT"

	imp := NewImporter(nil, WithLocation(time.UTC))
	entries, err := imp.Parse(strings.NewReader(ics(zoned)))
	require.NoError(t, err)

	events, err := imp.Expand(entries, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Sync", events[0].Title)
	assert.Equal(t, time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC), events[0].StartTime.UTC())
	assert.Equal(t, "Sync (moved)", events[1].Title)
	assert.Equal(t, "sync@20260210T090000Z", events[1].ID)
	assert.Equal(t, time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC), events[1].StartTime.UTC())
	assert.Equal(t, "Sync", events[2].Title)
}

func TestImportEmptyPayload(t *testing.T) {
	imp := NewImporter(nil)
	_, err := imp.Parse(strings.NewReader("  \n"))
	assert.True(t, errors.Is(err, ErrEmptyCalendar))
}

func TestImportRejectsInvertedRange(t *testing.T) {
	imp := NewImporter(nil)
	_, err := imp.Expand(nil, windowEnd, windowStart)
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestImportInvalidRRuleSkipsSeries(t *testing.T) {
	imp := NewImporter(nil, WithLocation(time.UTC))
	entries := []Entry{{
		UID:   "bad",
		Start: time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC),
		RRule: "FREQ=SOMETIMES",
	}}
	events, err := imp.Expand(entries, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestImportCapsOccurrences(t *testing.T) {
	imp := NewImporter(nil, WithLocation(time.UTC), WithMaxOccurrences(2))
	entries := []Entry{{
		UID:   "hourly",
		Start: time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 9, 9, 30, 0, 0, time.UTC),
		RRule: "FREQ=HOURLY",
	}}
	events, err := imp.Expand(entries, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestLoadFilesSkipsUnreadablePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.ics")
	require.NoError(t, os.WriteFile(path, []byte(ics(feed)), 0o600))

	imp := NewImporter(nil, WithLocation(time.UTC))
	single, err := imp.LoadFile(path, windowStart, windowEnd)
	require.NoError(t, err)

	_, err = imp.LoadFile(filepath.Join(dir, "missing.ics"), windowStart, windowEnd)
	require.Error(t, err)

	events := imp.LoadFiles([]string{filepath.Join(dir, "missing.ics"), path}, windowStart, windowEnd)
	assert.Equal(t, single, events)
}
