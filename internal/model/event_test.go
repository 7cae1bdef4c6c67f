package model

import (
	"testing"
	"time"
)

func TestCalendarEventOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)
	ev := CalendarEvent{ID: "ev-1", Title: "Sync", StartTime: base, EndTime: base.Add(time.Hour)}

	if !ev.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)) {
		t.Fatal("expected overlap for intersecting range")
	}
	if ev.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)) {
		t.Fatal("range starting at event end must not overlap")
	}
	if ev.Overlaps(base.Add(-time.Hour), base) {
		t.Fatal("range ending at event start must not overlap")
	}
}

func TestCalendarEventValidate(t *testing.T) {
	base := time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)
	ev := CalendarEvent{ID: "ev-1", StartTime: base, EndTime: base.Add(time.Hour)}
	if err := ev.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
	ev.EndTime = base
	if err := ev.Validate(); err == nil {
		t.Fatal("expected error for empty event")
	}
	ev.ID = ""
	if err := ev.Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}
}
