package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/sandeepkv93/dayplan/internal/model"
)

const defaultMaxOccurrences = 1000

var (
	ErrEmptyCalendar = errors.New("calendar: empty ics payload")
	ErrInvalidRange  = errors.New("calendar: range end before range start")
)

// Entry is one VEVENT as read from a feed, before recurrence expansion.
type Entry struct {
	UID        string
	Summary    string
	Start      time.Time
	End        time.Time
	AllDay     bool
	RRule      string
	ExDates    []time.Time
	Recurrence *time.Time
}

type Importer struct {
	logger         *zap.Logger
	location       *time.Location
	maxOccurrences int
}

type Option func(*Importer)

func WithLocation(loc *time.Location) Option {
	return func(i *Importer) {
		if loc != nil {
			i.location = loc
		}
	}
}

func WithMaxOccurrences(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.maxOccurrences = n
		}
	}
}

func NewImporter(logger *zap.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Importer{logger: logger, location: time.Local, maxOccurrences: defaultMaxOccurrences}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// LoadFiles imports every path and returns the events overlapping [from, to)
// ordered by start time. A file that fails to load is logged and skipped.
func (i *Importer) LoadFiles(paths []string, from, to time.Time) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0)
	for _, path := range paths {
		events, err := i.LoadFile(path, from, to)
		if err != nil {
			i.logger.Warn("calendar import failed", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, events...)
	}
	sortEvents(out)
	return out
}

func (i *Importer) LoadFile(path string, from, to time.Time) ([]model.CalendarEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ics %q: %w", path, err)
	}
	defer f.Close()

	entries, err := i.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse ics %q: %w", path, err)
	}
	events, err := i.Expand(entries, from, to)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("calendar imported",
		zap.String("path", path),
		zap.Int("entries", len(entries)),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// Parse reads VEVENTs. Events without a UID or a start are skipped.
func (i *Importer) Parse(r io.Reader) ([]Entry, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyCalendar
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	components := cal.Events()
	if len(components) == 0 {
		return []Entry{}, nil
	}

	out := make([]Entry, 0, len(components))
	for _, ve := range components {
		entry, err := i.parseEvent(ve)
		if err != nil {
			i.logger.Debug("skipping vevent", zap.Error(err))
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (i *Importer) parseEvent(ve *ical.VEvent) (Entry, error) {
	var out Entry
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("event %s: missing DTSTART", out.UID)
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := parseDate(dtStart.Value, i.location)
		if err != nil {
			return out, fmt.Errorf("event %s: %w", out.UID, err)
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseDate(dtEnd.Value, i.location); err == nil && end.After(start) {
				out.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("event %s: %w", out.UID, err)
		}
		out.Start = start
		out.End = start
		if end, err := ve.GetEndAt(); err == nil {
			out.End = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := i.propertyLocation(p)
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, i.propertyLocation(p)); err == nil {
			out.Recurrence = &t
		}
	}
	return out, nil
}

// Expand materializes entries into concrete events overlapping [from, to).
// Overrides (RECURRENCE-ID) replace the occurrence they name.
func (i *Importer) Expand(entries []Entry, from, to time.Time) ([]model.CalendarEvent, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	overrides := make(map[string]Entry)
	for _, e := range entries {
		if e.Recurrence != nil {
			overrides[occurrenceKey(e.UID, *e.Recurrence)] = e
		}
	}

	out := make([]model.CalendarEvent, 0)
	for _, e := range entries {
		if e.Recurrence != nil {
			continue
		}
		if e.RRule == "" {
			out = appendIfVisible(out, toEvent(e.UID, e.Summary, e.Start, e.End), from, to)
			continue
		}
		for _, start := range i.occurrences(e, from, to) {
			end := start.Add(e.End.Sub(e.Start))
			id := occurrenceKey(e.UID, start)
			summary := e.Summary
			if o, ok := overrides[id]; ok {
				start, end, summary = o.Start, o.End, o.Summary
			}
			out = appendIfVisible(out, toEvent(id, summary, start, end), from, to)
		}
	}
	// Overrides whose base rule did not produce them.
	for key, o := range overrides {
		if !containsID(out, key) {
			out = appendIfVisible(out, toEvent(key, o.Summary, o.Start, o.End), from, to)
		}
	}

	sortEvents(out)
	return out, nil
}

func (i *Importer) occurrences(e Entry, from, to time.Time) []time.Time {
	r, err := rrule.StrToRRule(e.RRule)
	if err != nil {
		i.logger.Warn("invalid RRULE", zap.String("uid", e.UID), zap.String("rrule", e.RRule), zap.Error(err))
		return nil
	}
	r.DTStart(e.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	// Occurrences starting before from can still overlap the window.
	span := e.End.Sub(e.Start)
	times := set.Between(from.Add(-span).In(e.Start.Location()), to.In(e.Start.Location()), true)
	if len(times) > i.maxOccurrences {
		i.logger.Warn("recurrence truncated", zap.String("uid", e.UID), zap.Int("cap", i.maxOccurrences))
		times = times[:i.maxOccurrences]
	}
	return times
}

// propertyLocation resolves the TZID parameter of p, falling back to the
// importer location when it is absent or unknown.
func (i *Importer) propertyLocation(p *ical.IANAProperty) *time.Location {
	tzs, ok := p.ICalParameters["TZID"]
	if !ok || len(tzs) == 0 || strings.TrimSpace(tzs[0]) == "" {
		return i.location
	}
	loc, err := time.LoadLocation(strings.Trim(tzs[0], `"`))
	if err != nil {
		i.logger.Warn("unknown TZID", zap.String("tzid", tzs[0]), zap.Error(err))
		return i.location
	}
	return loc
}

func toEvent(id, title string, start, end time.Time) model.CalendarEvent {
	return model.CalendarEvent{ID: id, Title: title, StartTime: start, EndTime: end}
}

func appendIfVisible(out []model.CalendarEvent, ev model.CalendarEvent, from, to time.Time) []model.CalendarEvent {
	if !ev.EndTime.After(ev.StartTime) || !ev.Overlaps(from, to) {
		return out
	}
	return append(out, ev)
}

func containsID(events []model.CalendarEvent, id string) bool {
	for _, ev := range events {
		if ev.ID == id {
			return true
		}
	}
	return false
}

func occurrenceKey(uid string, start time.Time) string {
	return uid + "@" + start.UTC().Format("20060102T150405Z")
}

func sortEvents(events []model.CalendarEvent) {
	sort.SliceStable(events, func(a, b int) bool {
		if !events[a].StartTime.Equal(events[b].StartTime) {
			return events[a].StartTime.Before(events[b].StartTime)
		}
		return events[a].ID < events[b].ID
	})
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func parseDate(v string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("20060102", strings.TrimSpace(v), loc)
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return parseDate(v, loc)
	}
}
