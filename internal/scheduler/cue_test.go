package scheduler

import (
	"testing"
	"time"
)

func TestCueEngineEmitsInTimeOrder(t *testing.T) {
	engine := NewCueEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(Cue{ID: "later", At: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(Cue{ID: "sooner", At: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitCue(t, engine.C(), time.Second)
	second := waitCue(t, engine.C(), time.Second)
	if first.ID != "sooner" || second.ID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
}

func TestCueEngineDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewCueEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(Cue{ID: "cue", At: at}); err != nil {
			t.Fatalf("schedule cue: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped cues > 0, got %d", engine.Dropped())
	}
}

func TestCueEngineValidatesTime(t *testing.T) {
	engine := NewCueEngine(1)
	if err := engine.Schedule(Cue{ID: "bad"}); err != ErrInvalidCueTime {
		t.Fatalf("expected ErrInvalidCueTime, got %v", err)
	}
}

func TestCueEngineReplaceSkipsPastCues(t *testing.T) {
	engine := NewCueEngine(4)
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	if err := engine.Schedule(Cue{ID: "stale", At: now.Add(time.Hour)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	queued, err := engine.Replace([]Cue{
		{ID: "past", At: now.Add(-time.Minute)},
		{ID: "future", At: now.Add(time.Minute)},
		{ID: "zero"},
	}, now)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if queued != 1 || engine.Pending() != 1 {
		t.Fatalf("expected exactly one pending cue, queued=%d pending=%d", queued, engine.Pending())
	}
	if next, ok := engine.peek(); !ok || next.ID != "future" {
		t.Fatalf("unexpected head cue: %+v", next)
	}
}

func TestCueForBlock(t *testing.T) {
	start := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	focus := CueForBlock(ScheduledBlock{ID: "b1", TaskTitle: "Write", Type: BlockTypeFocus, StartTime: start})
	if focus.Kind != CueFocusStart || focus.At != start || focus.BlockID != "b1" {
		t.Fatalf("unexpected focus cue: %+v", focus)
	}
	brk := CueForBlock(ScheduledBlock{ID: "b2", Type: BlockTypeBreak, StartTime: start})
	if brk.Kind != CueBreakStart || brk.ID != "b2:break_start" {
		t.Fatalf("unexpected break cue: %+v", brk)
	}
}

func waitCue(t *testing.T, ch <-chan Cue, timeout time.Duration) Cue {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for cue")
		return Cue{}
	}
}
