package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidClock   = errors.New("model: invalid HH:MM clock value")
	ErrInvalidWeekday = errors.New("model: invalid weekday index")
)

// Weekday indices used by FixedEvent.Days: 0=Monday ... 6=Sunday.
// WeekdayIndex and TimeWeekday are the only conversions to and from
// time.Weekday (0=Sunday); nothing else in the module should infer the mapping.
const (
	Monday    = 0
	Tuesday   = 1
	Wednesday = 2
	Thursday  = 3
	Friday    = 4
	Saturday  = 5
	Sunday    = 6
)

// AllDays is every weekday index, Monday first.
var AllDays = []int{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func TimeWeekday(index int) (time.Weekday, error) {
	if index < Monday || index > Sunday {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWeekday, index)
	}
	return time.Weekday((index + 1) % 7), nil
}

type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" with 0<=HH<=23 and 0<=MM<=59.
func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	hour, err := parseClockPart(parts[0], 23)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	minute, err := parseClockPart(parts[1], 59)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func parseClockPart(s string, max int) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// On anchors the clock to the calendar date of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

type FixedEvent struct {
	ID              string
	Name            string
	StartTime       string
	DurationMinutes int
	Days            []int
	Enabled         bool
}

func (e FixedEvent) OccursOn(weekday int) bool {
	for _, d := range e.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// Interval materializes the event on day. ok is false when StartTime does not parse.
func (e FixedEvent) Interval(day time.Time) (start, end time.Time, ok bool) {
	clock, err := ParseClock(e.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start = clock.On(day)
	return start, start.Add(time.Duration(e.DurationMinutes) * time.Minute), true
}

func (e FixedEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: fixed event id is required")
	}
	if _, err := ParseClock(e.StartTime); err != nil {
		return err
	}
	if e.DurationMinutes <= 0 {
		return errors.New("model: fixed event duration must be positive")
	}
	s := append([]int(nil), e.Days...)
	sort.Ints(s)
	for i, d := range s {
		if d < Monday || d > Sunday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
		if i > 0 && s[i-1] == d {
			return errors.New("model: duplicate weekday in fixed event")
		}
	}
	return nil
}

type DailyTemplate struct {
	WakeUp           string
	Sleep            string
	FixedEvents      []FixedEvent
	MaxParallelLanes *int
}

// LaneCount is max(1, MaxParallelLanes or 1).
func (t DailyTemplate) LaneCount() int {
	if t.MaxParallelLanes == nil || *t.MaxParallelLanes < 1 {
		return 1
	}
	return *t.MaxParallelLanes
}

// Window resolves the availability window for day. A sleep time at or before
// the wake time falls on the following calendar day.
func (t DailyTemplate) Window(day time.Time) (start, end time.Time, err error) {
	wake, err := ParseClock(t.WakeUp)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	sleep, err := ParseClock(t.Sleep)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = wake.On(day)
	end = sleep.On(day)
	if sleep.Minutes() <= wake.Minutes() {
		end = sleep.On(day.AddDate(0, 0, 1))
	}
	return start, end, nil
}

func (t DailyTemplate) Validate() error {
	if _, _, err := t.Window(time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)); err != nil {
		return err
	}
	for _, e := range t.FixedEvents {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("fixed event %s: %w", e.ID, err)
		}
	}
	return nil
}
