package commands

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/day tomorrow", TypeDay},
		{"lanes 2", TypeLanes},
		{"break", TypeBreak},
		{"fixed rm lunch", TypeFixed},
		{"window 08:30 17:00", TypeWindow},
		{"/task high 3 write report", TypeTask},
		{"replan", TypeReplan},
		{"SAVE", TypeSave},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestParseInvalidArguments(t *testing.T) {
	cases := []string{
		"day",
		"day someday",
		"day 2026-13-01",
		"day +x",
		"lanes 0",
		"lanes two",
		"break -1",
		"break 1 2",
		"fixed",
		"fixed move lunch",
		"fixed rm",
		"fixed add gym 17:00 60",
		"fixed add gym 5pm 60 all",
		"fixed add gym 17:00 0 all",
		"fixed add gym 17:00 60 funday",
		"window 09:00",
		"window 09:00 24:00",
		"task high 3",
		"task turbo 3 write",
		"task high 0 write",
		"task high 2 p:101 write",
		"task high 2 cat:later write",
		"task high 2 p:10",
		"replan now",
	}
	for _, in := range cases {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument error, got %v", in, err)
		}
	}
}

func TestParseDayResolve(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	today := time.Date(2026, 2, 9, 0, 0, 0, 0, loc)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"day today", today},
		{"day tomorrow", today.AddDate(0, 0, 1)},
		{"day yesterday", today.AddDate(0, 0, -1)},
		{"day +7", today.AddDate(0, 0, 7)},
		{"day -30", today.AddDate(0, 0, -30)},
		{"day 2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if got := cmd.Day.Resolve(today); !got.Equal(tc.want) || got.Location() != loc {
			t.Fatalf("%q resolved to %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseBreakCount(t *testing.T) {
	cmd, err := Parse("break")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Break.Pomodoros != -1 {
		t.Fatalf("default pomodoros = %d, want -1", cmd.Break.Pomodoros)
	}
	cmd, err = Parse("break 6")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Break.Pomodoros != 6 {
		t.Fatalf("pomodoros = %d, want 6", cmd.Break.Pomodoros)
	}
}

func TestParseFixedAdd(t *testing.T) {
	cmd, err := Parse("fixed add gym 17:00 45 mon,thu Evening gym")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := model.FixedEvent{
		ID: "gym", Name: "Evening gym", StartTime: "17:00", DurationMinutes: 45,
		Days: []int{model.Monday, model.Thursday}, Enabled: true,
	}
	if cmd.Fixed.Action != FixedAdd || !reflect.DeepEqual(cmd.Fixed.Event, want) {
		t.Fatalf("unexpected fixed args: %+v", cmd.Fixed)
	}

	cmd, err = Parse("fixed add standup 09:30 15 weekdays")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Fixed.Event.Name != "standup" || len(cmd.Fixed.Event.Days) != 5 {
		t.Fatalf("unexpected fixed event: %+v", cmd.Fixed.Event)
	}
}

func TestParseTask(t *testing.T) {
	cmd, err := Parse("task Medium 2 p:80 cat:someday tidy the backlog")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := cmd.Task
	if got.Title != "tidy the backlog" || got.Energy != model.EnergyMedium || got.Pomodoros != 2 {
		t.Fatalf("unexpected task args: %+v", got)
	}
	if got.Priority == nil || *got.Priority != 80 || got.Category != model.CategorySomeday {
		t.Fatalf("unexpected task tags: %+v", got)
	}

	cmd, err = Parse("task low 1 inbox zero")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Task.Priority != nil || cmd.Task.Category != model.CategoryActive {
		t.Fatalf("unexpected defaults: %+v", cmd.Task)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/lanes 3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Lanes: func(a LanesArgs) (Result, error) {
			called = true
			if a.Count != 3 {
				t.Fatalf("unexpected count: %d", a.Count)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteNoArgumentCommands(t *testing.T) {
	var saved, replanned bool
	handlers := Handlers{
		Save:   func() (Result, error) { saved = true; return Result{Message: "saved"}, nil },
		Replan: func() (Result, error) { replanned = true; return Result{Message: "replanned"}, nil },
	}
	for _, in := range []string{"save", "replan"} {
		cmd, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", in, err)
		}
		if _, err := Execute(cmd, handlers); err != nil {
			t.Fatalf("execute %q failed: %v", in, err)
		}
	}
	if !saved || !replanned {
		t.Fatalf("saved=%v replanned=%v", saved, replanned)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("window 07:00 15:00")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
