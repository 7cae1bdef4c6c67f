package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/dayplan/internal/longbreak"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

const DefaultTemplateID = "default"

var ErrNoFocusBlocks = errors.New("planner: plan has no focus blocks")

// EventSource yields calendar events overlapping [from, to).
type EventSource interface {
	LoadFiles(paths []string, from, to time.Time) []model.CalendarEvent
}

type Options struct {
	Scheduler    scheduler.Config
	LongBreak    longbreak.Config
	SeedTemplate model.DailyTemplate
	ICSPaths     []string
	Events       EventSource
	Location     *time.Location
	Logger       *zap.Logger
	Now          func() time.Time
}

// Plan is one generated day. Blocks are ordered as the scheduler emitted them.
type Plan struct {
	Day         time.Time
	Template    model.DailyTemplate
	WindowStart time.Time
	WindowEnd   time.Time
	Blocks      []scheduler.ScheduledBlock
	Events      []model.CalendarEvent
	Fixed       []model.CalendarEvent
	TaskCount   int
}

// Key is the storage key of the plan's day.
func (p Plan) Key() string {
	return DayKey(p.Day)
}

// Busy returns calendar and fixed events together.
func (p Plan) Busy() []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(p.Events)+len(p.Fixed))
	out = append(out, p.Events...)
	return append(out, p.Fixed...)
}

// Cues returns the start cue of every block in the plan.
func (p Plan) Cues() []scheduler.Cue {
	out := make([]scheduler.Cue, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		out = append(out, scheduler.CueForBlock(b))
	}
	return out
}

type Service struct {
	repo      storage.Repository
	events    EventSource
	scheduler *scheduler.AutoScheduler
	placer    *longbreak.Placer
	icsPaths  []string
	seed      model.DailyTemplate
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

func New(repo storage.Repository, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheduler == (scheduler.Config{}) {
		opts.Scheduler = scheduler.DefaultConfig()
	}
	if opts.LongBreak == (longbreak.Config{}) {
		opts.LongBreak = longbreak.DefaultConfig()
	}
	if opts.SeedTemplate.WakeUp == "" && opts.SeedTemplate.Sleep == "" {
		opts.SeedTemplate = model.DailyTemplate{WakeUp: "09:00", Sleep: "18:00"}
	}
	return &Service{
		repo:      repo,
		events:    opts.Events,
		scheduler: scheduler.NewAutoSchedulerWithConfig(opts.Scheduler),
		placer:    longbreak.NewWithConfig(opts.LongBreak),
		icsPaths:  append([]string(nil), opts.ICSPaths...),
		seed:      opts.SeedTemplate,
		loc:       opts.Location,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Today is the current date at midnight in the service location.
func (s *Service) Today() time.Time {
	return startOfDay(s.now().In(s.loc))
}

// Template loads the stored template, seeding storage from the configured
// template on first use.
func (s *Service) Template(ctx context.Context) (model.DailyTemplate, error) {
	stored, err := s.repo.GetTemplate(ctx, DefaultTemplateID)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Info("seeding daily template", zap.String("wake_up", s.seed.WakeUp), zap.String("sleep", s.seed.Sleep))
		if err := s.SaveTemplate(ctx, s.seed); err != nil {
			return model.DailyTemplate{}, err
		}
		return s.seed, nil
	}
	if err != nil {
		return model.DailyTemplate{}, fmt.Errorf("load template: %w", err)
	}

	rows, err := s.repo.ListFixedEvents(ctx, storage.FixedEventListFilter{TemplateID: DefaultTemplateID})
	if err != nil {
		return model.DailyTemplate{}, fmt.Errorf("load fixed events: %w", err)
	}
	out := model.DailyTemplate{
		WakeUp:           stored.WakeUp,
		Sleep:            stored.Sleep,
		MaxParallelLanes: stored.MaxParallelLanes,
		FixedEvents:      make([]model.FixedEvent, 0, len(rows)),
	}
	for _, row := range rows {
		fe, err := FixedEventFromStorage(row)
		if err != nil {
			s.logger.Warn("skipping stored fixed event", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		out.FixedEvents = append(out.FixedEvents, fe)
	}
	return out, nil
}

// SaveTemplate replaces the stored template and its fixed events.
func (s *Service) SaveTemplate(ctx context.Context, t model.DailyTemplate) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", scheduler.ErrInvalidTemplate, err)
	}
	if err := s.repo.SaveTemplate(ctx, storage.Template{
		ID:               DefaultTemplateID,
		WakeUp:           t.WakeUp,
		Sleep:            t.Sleep,
		MaxParallelLanes: t.MaxParallelLanes,
		UpdatedAt:        s.now(),
	}); err != nil {
		return fmt.Errorf("save template: %w", err)
	}

	existing, err := s.repo.ListFixedEvents(ctx, storage.FixedEventListFilter{TemplateID: DefaultTemplateID})
	if err != nil {
		return fmt.Errorf("list fixed events: %w", err)
	}
	keep := make(map[string]bool, len(t.FixedEvents))
	for _, fe := range t.FixedEvents {
		keep[fe.ID] = true
	}
	for _, row := range existing {
		if !keep[row.ID] {
			if err := s.repo.DeleteFixedEvent(ctx, row.ID); err != nil {
				return fmt.Errorf("delete fixed event %s: %w", row.ID, err)
			}
		}
	}
	for _, fe := range t.FixedEvents {
		if err := s.putFixedEvent(ctx, fe); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SetLanes(ctx context.Context, lanes int) (model.DailyTemplate, error) {
	if lanes < 1 {
		return model.DailyTemplate{}, fmt.Errorf("planner: lanes must be at least 1, got %d", lanes)
	}
	t, err := s.Template(ctx)
	if err != nil {
		return model.DailyTemplate{}, err
	}
	t.MaxParallelLanes = model.IntPtr(lanes)
	if err := s.SaveTemplate(ctx, t); err != nil {
		return model.DailyTemplate{}, err
	}
	return t, nil
}

// SetWindow changes the wake and sleep clocks of the stored template.
func (s *Service) SetWindow(ctx context.Context, wake, sleep string) (model.DailyTemplate, error) {
	t, err := s.Template(ctx)
	if err != nil {
		return model.DailyTemplate{}, err
	}
	t.WakeUp, t.Sleep = wake, sleep
	if err := s.SaveTemplate(ctx, t); err != nil {
		return model.DailyTemplate{}, err
	}
	return t, nil
}

// PutFixedEvent creates or replaces a fixed event on the stored template.
func (s *Service) PutFixedEvent(ctx context.Context, fe model.FixedEvent) error {
	if err := fe.Validate(); err != nil {
		return err
	}
	if _, err := s.Template(ctx); err != nil {
		return err
	}
	return s.putFixedEvent(ctx, fe)
}

func (s *Service) putFixedEvent(ctx context.Context, fe model.FixedEvent) error {
	row := FixedEventToStorage(DefaultTemplateID, fe)
	err := s.repo.UpdateFixedEvent(ctx, row)
	if errors.Is(err, storage.ErrNotFound) {
		err = s.repo.CreateFixedEvent(ctx, row)
	}
	if err != nil {
		return fmt.Errorf("store fixed event %s: %w", fe.ID, err)
	}
	return nil
}

func (s *Service) RemoveFixedEvent(ctx context.Context, id string) error {
	return s.repo.DeleteFixedEvent(ctx, id)
}

func (s *Service) AddTask(ctx context.Context, t model.Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.repo.CreateTask(ctx, TaskToStorage(t))
}

// Tasks returns every stored task that passes validation, oldest first.
func (s *Service) Tasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		t, err := TaskFromStorage(row)
		if err != nil {
			s.logger.Warn("skipping invalid task", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Plan generates the schedule for day and replaces the stored blocks for it.
func (s *Service) Plan(ctx context.Context, day time.Time) (Plan, error) {
	day = startOfDay(day.In(s.loc))
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}

	template, err := s.Template(ctx)
	if err != nil {
		return Plan{}, err
	}
	windowStart, windowEnd, err := template.Window(day)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", scheduler.ErrInvalidTemplate, err)
	}

	tasks, err := s.Tasks(ctx)
	if err != nil {
		return Plan{}, err
	}

	events := []model.CalendarEvent{}
	if s.events != nil && len(s.icsPaths) > 0 {
		events = s.events.LoadFiles(s.icsPaths, windowStart, windowEnd)
	}
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}

	blocks, err := s.scheduler.Generate(template, tasks, events, day)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Day:         day,
		Template:    template,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Blocks:      blocks,
		Events:      events,
		Fixed:       FixedEventsAsCalendar(template, day),
		TaskCount:   len(tasks),
	}
	if err := s.persist(ctx, plan.Key(), blocks); err != nil {
		return Plan{}, err
	}

	s.logger.Info("plan generated",
		zap.String("day", plan.Key()),
		zap.Int("tasks", len(tasks)),
		zap.Int("events", len(events)),
		zap.Int("blocks", len(blocks)),
		zap.Int("lanes", template.LaneCount()),
	)
	return plan, nil
}

// PlaceBreak runs the long-break placer over the lane 0 focus blocks of plan.
// The cycle spans the first to the last of those blocks. A negative
// pomodoroCount counts the pomodoros of those blocks. A placement with a
// positive score is stored as a break block next to the plan's focus blocks.
func (s *Service) PlaceBreak(ctx context.Context, plan Plan, pomodoroCount int) (longbreak.PlacementResult, error) {
	focus := scheduler.FocusBlocks(plan.Blocks, 0)
	if len(focus) == 0 {
		return longbreak.PlacementResult{}, ErrNoFocusBlocks
	}
	if pomodoroCount < 0 {
		pomodoroCount = 0
		for _, b := range focus {
			pomodoroCount += b.PomodoroCount
		}
	}
	cycleStart := focus[0].StartTime
	cycleEnd := focus[len(focus)-1].EndTime

	res := s.placer.FindOptimalBreakPosition(focus, plan.Busy(), pomodoroCount, cycleStart, cycleEnd)
	s.logger.Info("long break placed",
		zap.String("day", plan.Key()),
		zap.Time("start", res.BreakStart),
		zap.Float64("score", res.Score),
		zap.Bool("fixed", res.FixedModeUsed),
		zap.String("rationale", res.Rationale),
	)

	if res.Score <= 0 {
		return res, nil
	}
	blocks := make([]scheduler.ScheduledBlock, 0, len(plan.Blocks)+1)
	for _, b := range plan.Blocks {
		if b.Type == scheduler.BlockTypeFocus {
			blocks = append(blocks, b)
		}
	}
	blocks = append(blocks, res.Block())
	if err := s.persist(ctx, plan.Key(), blocks); err != nil {
		return res, err
	}
	return res, nil
}

// StoredBlocks returns the persisted plan for day ordered by start time.
func (s *Service) StoredBlocks(ctx context.Context, day time.Time) ([]scheduler.ScheduledBlock, error) {
	rows, err := s.repo.ListBlocks(ctx, storage.BlockListFilter{Day: DayKey(startOfDay(day.In(s.loc)))})
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	out := make([]scheduler.ScheduledBlock, 0, len(rows))
	for _, row := range rows {
		out = append(out, BlockFromStorage(row, s.loc))
	}
	return out, nil
}

func (s *Service) persist(ctx context.Context, day string, blocks []scheduler.ScheduledBlock) error {
	now := s.now()
	rows := make([]storage.Block, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, BlockToStorage(day, b, now))
	}
	if err := s.repo.ReplaceBlocks(ctx, day, rows); err != nil {
		return fmt.Errorf("store plan %s: %w", day, err)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Describe renders a one-line summary used by the CLI and the status bar.
func (p Plan) Describe() string {
	lanes := make([]string, 0, p.Template.LaneCount())
	for lane := 0; lane < p.Template.LaneCount(); lane++ {
		lanes = append(lanes, fmt.Sprintf("lane %d: %d", lane, len(scheduler.FocusBlocks(p.Blocks, lane))))
	}
	return fmt.Sprintf("%s %s-%s, %d blocks (%s), %d events",
		p.Key(), p.WindowStart.Format("15:04"), p.WindowEnd.Format("15:04"),
		len(p.Blocks), strings.Join(lanes, ", "), len(p.Events)+len(p.Fixed))
}
