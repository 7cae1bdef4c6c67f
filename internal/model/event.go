package model

import (
	"errors"
	"strings"
	"time"
)

// CalendarEvent is an immovable commitment imported from a calendar.
type CalendarEvent struct {
	ID        string
	Title     string
	StartTime time.Time
	EndTime   time.Time
}

// Overlaps reports half-open overlap with [start, end).
func (e CalendarEvent) Overlaps(start, end time.Time) bool {
	return e.StartTime.Before(end) && e.EndTime.After(start)
}

func (e CalendarEvent) Start() time.Time { return e.StartTime }

func (e CalendarEvent) End() time.Time { return e.EndTime }

func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: calendar event id is required")
	}
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return errors.New("model: calendar event start and end are required")
	}
	if !e.EndTime.After(e.StartTime) {
		return errors.New("model: calendar event must end after it starts")
	}
	return nil
}
