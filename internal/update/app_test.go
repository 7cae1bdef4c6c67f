package update

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/commands"
	"github.com/sandeepkv93/dayplan/internal/longbreak"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/planner"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

var monday = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

type fakePlanner struct {
	plan      planner.Plan
	planErr   error
	placement longbreak.PlacementResult
	template  model.DailyTemplate
	lanes     int
	window    [2]string
	fixed     []model.FixedEvent
	removed   []string
	tasks     []model.Task
	planned   []time.Time
}

func (f *fakePlanner) Plan(_ context.Context, day time.Time) (planner.Plan, error) {
	f.planned = append(f.planned, day)
	if f.planErr != nil {
		return planner.Plan{}, f.planErr
	}
	return f.plan, nil
}

func (f *fakePlanner) PlaceBreak(_ context.Context, _ planner.Plan, _ int) (longbreak.PlacementResult, error) {
	return f.placement, nil
}

func (f *fakePlanner) Template(context.Context) (model.DailyTemplate, error) {
	return f.template, nil
}

func (f *fakePlanner) SetLanes(_ context.Context, lanes int) (model.DailyTemplate, error) {
	f.lanes = lanes
	return f.template, nil
}

func (f *fakePlanner) SetWindow(_ context.Context, wake, sleep string) (model.DailyTemplate, error) {
	f.window = [2]string{wake, sleep}
	return f.template, nil
}

func (f *fakePlanner) PutFixedEvent(_ context.Context, fe model.FixedEvent) error {
	f.fixed = append(f.fixed, fe)
	return nil
}

func (f *fakePlanner) RemoveFixedEvent(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakePlanner) AddTask(_ context.Context, t model.Task) error {
	f.tasks = append(f.tasks, t)
	return nil
}

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func samplePlan() planner.Plan {
	return planner.Plan{
		Day:         monday,
		Template:    model.DailyTemplate{WakeUp: "09:00", Sleep: "18:00", MaxParallelLanes: model.IntPtr(2)},
		WindowStart: at(9, 0),
		WindowEnd:   at(18, 0),
		Blocks: []scheduler.ScheduledBlock{
			{ID: "a", TaskID: "a", TaskTitle: "Write report", Type: scheduler.BlockTypeFocus, Lane: 0, StartTime: at(9, 0), EndTime: at(9, 55), PomodoroCount: 2, BreakMinutes: 5},
			{ID: "b", TaskID: "b", TaskTitle: "Review", Type: scheduler.BlockTypeFocus, Lane: 1, StartTime: at(9, 0), EndTime: at(9, 25), PomodoroCount: 1},
			{ID: "c", TaskID: "c", TaskTitle: "Email", Type: scheduler.BlockTypeFocus, Lane: 0, StartTime: at(13, 0), EndTime: at(13, 25), PomodoroCount: 1},
		},
		Fixed:     []model.CalendarEvent{{ID: "fixed:lunch", Title: "Lunch", StartTime: at(12, 0), EndTime: at(13, 0)}},
		TaskCount: 3,
	}
}

func newTestModel(f *fakePlanner, engine *scheduler.CueEngine, now time.Time) Model {
	return NewModel(f, engine, monday, DefaultRuntimeConfig()).WithClock(func() time.Time { return now })
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, c := m.Update(msg)
		m, cmd = updated.(Model), c
	}
	return m, cmd
}

func runCommand(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	return press(t, m, "/", line, "enter")
}

func TestNewModelDefaults(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	if m.CurrentView != ViewPlan {
		t.Fatalf("expected default view %q, got %q", ViewPlan, m.CurrentView)
	}
	if m.Keys.Quit != "q" || m.Keys.Place != "b" {
		t.Fatalf("unexpected keys: %+v", m.Keys)
	}
	if !m.Day.Equal(monday) || m.Plan != nil {
		t.Fatalf("unexpected initial plan state: day=%v plan=%v", m.Day, m.Plan)
	}
	if m.Init() == nil {
		t.Fatal("expected init command")
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	next, _ := press(t, m, "2")
	if next.CurrentView != ViewBreak {
		t.Fatalf("expected break view, got %q", next.CurrentView)
	}
	next, _ = press(t, next, "4")
	if next.CurrentView != ViewNow {
		t.Fatalf("expected now view, got %q", next.CurrentView)
	}
	next, _ = press(t, next, "3")
	if next.CurrentView != ViewCues {
		t.Fatalf("expected cues view, got %q", next.CurrentView)
	}
}

func TestUpdateSwitchViewMsg(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	updated, _ := m.Update(SwitchViewMsg{View: ViewCues})
	next := updated.(Model)
	if next.CurrentView != ViewCues {
		t.Fatalf("expected cues view, got %q", next.CurrentView)
	}

	updated, _ = next.Update(SwitchViewMsg{View: View("Unknown")})
	next = updated.(Model)
	if next.CurrentView != ViewCues {
		t.Fatalf("expected view unchanged for unknown view, got %q", next.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	updated, _ := m.Update(SetStatusMsg{Text: "ready", IsError: false})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	next.Loading = true
	updated, _ = next.Update(AppErrorMsg{Err: errors.New("boom")})
	next = updated.(Model)
	if next.LastError == nil || next.LastError.Error() != "boom" || next.Loading {
		t.Fatalf("expected last error boom and loading cleared, got: %v %v", next.LastError, next.Loading)
	}
	if !next.Status.IsError || next.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}

	updated, _ = next.Update(ClearStatusMsg{})
	next = updated.(Model)
	if next.Status.Text != "" || next.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", next.Status)
	}
}

func TestLoadPlanCmd(t *testing.T) {
	f := &fakePlanner{plan: samplePlan()}
	m := newTestModel(f, nil, at(8, 0))
	msg := m.loadPlanCmd(monday)()
	loaded, ok := msg.(PlanLoadedMsg)
	if !ok || loaded.Plan.Key() != "2026-02-09" {
		t.Fatalf("unexpected message: %#v", msg)
	}

	f.planErr = errors.New("db down")
	msg = m.loadPlanCmd(monday)()
	failed, ok := msg.(AppErrorMsg)
	if !ok || !strings.Contains(failed.Err.Error(), "plan 2026-02-09: db down") {
		t.Fatalf("unexpected error message: %#v", msg)
	}
}

func TestPlanLoadedFillsTableAndCues(t *testing.T) {
	engine := scheduler.NewCueEngine(8)
	m := newTestModel(&fakePlanner{}, engine, at(9, 10))
	m.Loading = true

	updated, _ := m.Update(PlanLoadedMsg{Plan: samplePlan()})
	next := updated.(Model)
	if next.Loading || next.Plan == nil {
		t.Fatalf("expected plan loaded, loading=%v", next.Loading)
	}
	if rows := next.blockTable.Rows(); len(rows) != 3 || rows[0][5] != "Write report" || rows[0][3] != "Focus" {
		t.Fatalf("unexpected table rows: %v", rows)
	}
	// Only the 13:00 block is still ahead of 09:10.
	if got := engine.Pending(); got != 1 {
		t.Fatalf("pending cues = %d, want 1", got)
	}
	if !strings.Contains(next.Status.Text, "3 blocks") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	view := next.View()
	if !strings.Contains(view, "dayplan | 2026-02-09") || !strings.Contains(view, "lanes: 2") || !strings.Contains(view, "Lunch") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestPlanForOtherDayKeepsCues(t *testing.T) {
	engine := scheduler.NewCueEngine(8)
	m := newTestModel(&fakePlanner{}, engine, at(8, 0))
	updated, _ := m.Update(PlanLoadedMsg{Plan: samplePlan()})
	m = updated.(Model)
	if engine.Pending() != 3 {
		t.Fatalf("pending cues = %d, want 3", engine.Pending())
	}

	other := samplePlan()
	other.Day = monday.AddDate(0, 0, 1)
	other.Blocks = other.Blocks[:1]
	updated, _ = m.Update(PlanLoadedMsg{Plan: other})
	if engine.Pending() != 3 {
		t.Fatalf("pending cues after tomorrow's plan = %d, want 3", engine.Pending())
	}
	if got := updated.(Model).Day; !got.Equal(other.Day) {
		t.Fatalf("day = %v, want %v", got, other.Day)
	}
}

func TestBreakPlacedStoresBlock(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	updated, _ := m.Update(PlanLoadedMsg{Plan: samplePlan()})
	m = updated.(Model)

	res := longbreak.PlacementResult{
		BreakStart: at(9, 55),
		BreakEnd:   at(10, 10),
		Score:      0.58,
		Rationale:  "Fatigue: 0.31 (55m before), Calendar: 0.86 (25m after)",
		EvaluatedCandidates: []longbreak.CandidateInfo{
			{StartTime: at(9, 55), Score: 0.58, Rationale: "best"},
		},
	}
	updated, _ = m.Update(BreakPlacedMsg{Result: res})
	next := updated.(Model)
	if next.CurrentView != ViewBreak || !next.BreakStored {
		t.Fatalf("expected stored break in break view, view=%s stored=%v", next.CurrentView, next.BreakStored)
	}
	if len(next.Plan.Blocks) != 4 || next.Plan.Blocks[3].Type != scheduler.BlockTypeBreak {
		t.Fatalf("expected break block appended: %+v", next.Plan.Blocks)
	}
	if !strings.Contains(next.Status.Text, "09:55") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	data := next.breakReportData()
	if data.Day != "2026-02-09" || len(data.Candidates) != 1 || !data.Stored {
		t.Fatalf("unexpected report data: %+v", data)
	}
}

func TestBreakPlacementWithoutScoreIsNotStored(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	updated, _ := m.Update(PlanLoadedMsg{Plan: samplePlan()})
	m = updated.(Model)

	updated, _ = m.Update(BreakPlacedMsg{Result: longbreak.PlacementResult{BreakStart: at(13, 25), BreakEnd: at(13, 40), Rationale: "Not enough pomodoros (3/4)"}})
	next := updated.(Model)
	if next.BreakStored || len(next.Plan.Blocks) != 3 {
		t.Fatalf("expected no stored break, stored=%v blocks=%d", next.BreakStored, len(next.Plan.Blocks))
	}
}

func TestPlaceKeyWithoutPlan(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	next, cmd := press(t, m, "b")
	if cmd != nil || !next.Status.IsError {
		t.Fatalf("expected error status without plan, got %+v", next.Status)
	}
}

func TestPlaceBreakCmd(t *testing.T) {
	f := &fakePlanner{placement: longbreak.PlacementResult{Score: 1, FixedModeUsed: true}}
	m := newTestModel(f, nil, at(8, 0))
	msg := m.placeBreakCmd(samplePlan(), -1)()
	placed, ok := msg.(BreakPlacedMsg)
	if !ok || !placed.Result.FixedModeUsed {
		t.Fatalf("unexpected message: %#v", msg)
	}
}

func TestCueDueUpdatesLog(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	m.config.CueLogSize = 2
	for _, title := range []string{"one", "two", "three"} {
		updated, _ := m.Update(CueDueMsg{Cue: scheduler.Cue{ID: title, Kind: scheduler.CueFocusStart, Title: title, At: at(9, 0)}})
		m = updated.(Model)
	}
	if len(m.CueLog) != 2 || m.CueLog[0].Title != "two" {
		t.Fatalf("unexpected cue log: %+v", m.CueLog)
	}
	if m.Status.Text != "focus: three" {
		t.Fatalf("unexpected status: %q", m.Status.Text)
	}

	updated, _ := m.Update(CueDueMsg{Cue: scheduler.Cue{ID: "lb", Kind: scheduler.CueBreakStart, Title: "Long break", At: at(10, 0)}})
	m = updated.(Model)
	if m.Status.Text != "break time: Long break" {
		t.Fatalf("unexpected status: %q", m.Status.Text)
	}
	if last := m.lastCue(); last == nil || last.Kind != "break" {
		t.Fatalf("unexpected last cue: %+v", last)
	}
}

func TestPaletteCommands(t *testing.T) {
	f := &fakePlanner{template: model.DailyTemplate{WakeUp: "09:00", Sleep: "18:00"}}
	m := newTestModel(f, nil, at(8, 0))

	next, cmd := runCommand(t, m, "lanes 3")
	if f.lanes != 3 || cmd == nil || !next.Loading || next.Palette.Active {
		t.Fatalf("lanes not applied: lanes=%d loading=%v", f.lanes, next.Loading)
	}
	if next.Status.Text != "lanes set to 3" {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}

	next, _ = runCommand(t, next, "window 08:00 16:30")
	if f.window != [2]string{"08:00", "16:30"} {
		t.Fatalf("window not applied: %v", f.window)
	}

	next, _ = runCommand(t, next, "fixed add gym 17:00 60 mon,thu Gym")
	next, _ = runCommand(t, next, "fixed rm lunch")
	if len(f.fixed) != 1 || f.fixed[0].ID != "gym" || len(f.removed) != 1 || f.removed[0] != "lunch" {
		t.Fatalf("fixed events not applied: %+v %v", f.fixed, f.removed)
	}

	next, _ = runCommand(t, next, "task high 2 p:90 ship release")
	if len(f.tasks) != 1 {
		t.Fatalf("task not added: %+v", f.tasks)
	}
	task := f.tasks[0]
	if task.Title != "ship release" || task.Energy != model.EnergyHigh || *task.Priority != 90 || task.ID == "" || task.State != model.TaskStateReady {
		t.Fatalf("unexpected task: %+v", task)
	}

	next, _ = runCommand(t, next, "day tomorrow")
	if !next.Day.Equal(monday.AddDate(0, 0, 1)) {
		t.Fatalf("day = %v, want tomorrow", next.Day)
	}
}

func TestPaletteErrors(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))

	next, _ := runCommand(t, m, "bogus")
	if !next.Status.IsError || !strings.Contains(next.Status.Text, string(commands.ErrCodeUnknownCommand)) {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	next, _ = runCommand(t, next, "save")
	var ce *commands.CommandError
	if !errors.As(next.LastError, &ce) || ce.Code != commands.ErrCodeHandlerMissing {
		t.Fatalf("expected missing save handler, got %v", next.LastError)
	}

	next, _ = runCommand(t, next, "break")
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "no plan loaded") {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	next, _ = press(t, next, "/", "lanes", "esc")
	if next.Palette.Active || next.Status.Text != "command palette closed" {
		t.Fatalf("expected palette closed, got %+v", next.Palette)
	}
}

func TestPaletteSave(t *testing.T) {
	f := &fakePlanner{template: model.DailyTemplate{WakeUp: "07:00", Sleep: "22:00"}}
	var saved model.DailyTemplate
	m := newTestModel(f, nil, at(8, 0)).WithSaveTemplate(func(t model.DailyTemplate) error {
		saved = t
		return nil
	})
	next, _ := runCommand(t, m, "save")
	if saved.WakeUp != "07:00" || next.Status.Text != "template saved to config" {
		t.Fatalf("save not applied: %+v %q", saved, next.Status.Text)
	}
}

func TestDayNavigationKeys(t *testing.T) {
	f := &fakePlanner{}
	m := newTestModel(f, nil, time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC))

	next, cmd := press(t, m, "]")
	if !next.Day.Equal(monday.AddDate(0, 0, 1)) || cmd == nil {
		t.Fatalf("expected next day, got %v", next.Day)
	}
	next, _ = press(t, next, "[", "[")
	if !next.Day.Equal(monday.AddDate(0, 0, -1)) {
		t.Fatalf("expected previous day, got %v", next.Day)
	}
	next, _ = press(t, next, "t")
	if !next.Day.Equal(monday.AddDate(0, 0, 2)) {
		t.Fatalf("expected today, got %v", next.Day)
	}
}

func TestDayRolloverFollowsToday(t *testing.T) {
	f := &fakePlanner{}
	m := newTestModel(f, nil, at(23, 59))

	updated, cmd := m.Update(DayRolloverMsg{At: monday.AddDate(0, 0, 1)})
	next := updated.(Model)
	if !next.Day.Equal(monday.AddDate(0, 0, 1)) || cmd == nil || !next.Loading {
		t.Fatalf("expected rollover to tuesday, got %v", next.Day)
	}

	m.Day = monday.AddDate(0, 0, 3)
	updated, cmd = m.Update(DayRolloverMsg{At: monday.AddDate(0, 0, 1)})
	next = updated.(Model)
	if !next.Day.Equal(monday.AddDate(0, 0, 3)) || cmd != nil {
		t.Fatalf("rollover should keep a browsed day, got %v", next.Day)
	}
}

func TestStartRollover(t *testing.T) {
	if _, err := StartRollover("not a schedule", time.UTC, func(tea.Msg) {}); err == nil {
		t.Fatalf("expected invalid schedule error")
	}

	got := make(chan tea.Msg, 4)
	stop, err := StartRollover("@every 1s", time.UTC, func(msg tea.Msg) { got <- msg })
	if err != nil {
		t.Fatalf("start rollover: %v", err)
	}
	defer stop()

	select {
	case msg := <-got:
		if _, ok := msg.(DayRolloverMsg); !ok {
			t.Fatalf("unexpected message %T", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("rollover did not fire")
	}
}

func TestNowView(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(9, 30))
	updated, _ := m.Update(PlanLoadedMsg{Plan: samplePlan()})
	m = updated.(Model)

	cur, next := currentBlock(m.Plan.Blocks, at(9, 10))
	if cur == nil || cur.ID != "a" || next == nil || next.ID != "c" {
		t.Fatalf("unexpected current/next: %+v %+v", cur, next)
	}
	cur, next = currentBlock(m.Plan.Blocks, at(14, 0))
	if cur != nil || next != nil {
		t.Fatalf("expected free afternoon, got %+v %+v", cur, next)
	}

	updated, _ = m.Update(NowTickMsg{At: at(9, 30)})
	m = updated.(Model)
	view := m.renderNowView()
	if !strings.Contains(view, "Write report") || !strings.Contains(view, "25:00") || !strings.Contains(view, "Email @13:00") {
		t.Fatalf("unexpected now view:\n%s", view)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(&fakePlanner{}, nil, at(8, 0))
	next, cmd := press(t, m, "q")
	if !next.Quitting || cmd == nil {
		t.Fatal("expected quit")
	}
}
