package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/timeline"
)

var ErrInvalidTemplate = errors.New("scheduler: invalid template")

// AutoScheduler fills a day's free gaps with pomodoro blocks. It holds only
// immutable configuration and is safe for concurrent use.
type AutoScheduler struct {
	config Config
}

func NewAutoScheduler() *AutoScheduler {
	return &AutoScheduler{config: DefaultConfig()}
}

func NewAutoSchedulerWithConfig(cfg Config) *AutoScheduler {
	return &AutoScheduler{config: cfg}
}

func (s *AutoScheduler) Config() Config {
	return s.config
}

// GenerateSchedule returns an empty schedule when the template cannot be parsed.
// Use Generate to tell an invalid template apart from a day without capacity.
func (s *AutoScheduler) GenerateSchedule(template model.DailyTemplate, tasks []model.Task, events []model.CalendarEvent, day time.Time) []ScheduledBlock {
	blocks, err := s.Generate(template, tasks, events, day)
	if err != nil {
		return []ScheduledBlock{}
	}
	return blocks
}

// AutoFill is GenerateSchedule under the name the planner UI uses.
func (s *AutoScheduler) AutoFill(template model.DailyTemplate, tasks []model.Task, events []model.CalendarEvent, day time.Time) []ScheduledBlock {
	return s.GenerateSchedule(template, tasks, events, day)
}

func (s *AutoScheduler) Generate(template model.DailyTemplate, tasks []model.Task, events []model.CalendarEvent, day time.Time) ([]ScheduledBlock, error) {
	dayStart, dayEnd, err := template.Window(day)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	busy := FixedEventIntervals(template, day)
	for _, ev := range events {
		busy = append(busy, ev)
	}
	gaps := timeline.DetectGaps(busy, dayStart, dayEnd)

	queue := FilterTasks(tasks)
	RankTasks(queue, dayStart)

	return s.assign(gaps, queue, template.LaneCount()), nil
}

// FixedEventIntervals materializes the template's enabled fixed events that
// occur on day's weekday. Events whose start time does not parse are skipped.
func FixedEventIntervals(template model.DailyTemplate, day time.Time) []timeline.Interval {
	weekday := model.WeekdayIndex(day.Weekday())
	out := make([]timeline.Interval, 0, len(template.FixedEvents))
	for _, ev := range template.FixedEvents {
		if !ev.Enabled || !ev.OccursOn(weekday) {
			continue
		}
		start, end, ok := ev.Interval(day)
		if !ok {
			continue
		}
		out = append(out, timeline.Span{From: start, To: end})
	}
	return out
}

// assign walks gaps and lanes with a single cursor into the ranked queue.
// The cursor moves only when a task is placed or has nothing left; a task that
// does not fit stays at the head and is retried against the next gap. Lanes of
// one gap all start at the gap start.
func (s *AutoScheduler) assign(gaps []timeline.Gap, queue []model.Task, lanes int) []ScheduledBlock {
	out := make([]ScheduledBlock, 0)
	if lanes < 1 {
		lanes = 1
	}
	unit := s.config.pomodoroWithBreak()
	if s.config.FocusDuration <= 0 || unit <= 0 {
		return out
	}

	cursor := 0
	for _, gap := range gaps {
		if gap.DurationMinutes() < s.config.MinGapMinutes {
			continue
		}
		for lane := 0; lane < lanes; lane++ {
			if cursor >= len(queue) {
				continue
			}
			task := queue[cursor]
			remaining := task.RemainingPomodoros()
			if remaining <= 0 {
				cursor++
				continue
			}

			count := minInt(remaining, int(gap.DurationMinutes()/unit), MaxPomodorosPerBlock)
			if count <= 0 {
				continue
			}

			minutes := int64(count)*s.config.FocusDuration + int64(count-1)*s.config.ShortBreak
			start := gap.StartTime
			out = append(out, ScheduledBlock{
				ID:            BlockID(task.ID, start, lane),
				TaskID:        task.ID,
				TaskTitle:     task.Title,
				Type:          BlockTypeFocus,
				Lane:          lane,
				StartTime:     start,
				EndTime:       start.Add(time.Duration(minutes) * time.Minute),
				PomodoroCount: count,
				BreakMinutes:  int(s.config.ShortBreak),
			})
			cursor++
		}
	}
	return out
}

func minInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}
