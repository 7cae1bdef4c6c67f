package planner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/storage"
)

const dayLayout = "2006-01-02"

func DayKey(day time.Time) string {
	return day.Format(dayLayout)
}

func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dayLayout, strings.TrimSpace(raw), loc)
}

func TaskFromStorage(in storage.Task) (model.Task, error) {
	out := model.Task{
		ID:                 in.ID,
		Title:              in.Title,
		Description:        in.Description,
		State:              model.TaskState(in.State),
		Category:           model.Category(in.Category),
		Energy:             model.Energy(in.Energy),
		Priority:           in.Priority,
		ProjectID:          in.ProjectID,
		EstimatedPomodoros: in.EstimatedPomodoros,
		CompletedPomodoros: in.CompletedPomodoros,
		Completed:          in.Completed,
		CreatedAt:          in.CreatedAt,
	}
	if err := out.Validate(); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func TaskToStorage(in model.Task) storage.Task {
	return storage.Task{
		ID:                 in.ID,
		Title:              in.Title,
		Description:        in.Description,
		State:              string(in.State),
		Category:           string(in.Category),
		Energy:             string(in.Energy),
		Priority:           in.Priority,
		ProjectID:          in.ProjectID,
		EstimatedPomodoros: in.EstimatedPomodoros,
		CompletedPomodoros: in.CompletedPomodoros,
		Completed:          in.Completed,
		CreatedAt:          in.CreatedAt,
	}
}

// FormatDays renders Monday-based weekday indices as "0,2,4".
func FormatDays(days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func ParseDays(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int{}, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < model.Monday || d > model.Sunday {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidWeekday, p)
		}
		out = append(out, d)
	}
	return out, nil
}

func FixedEventFromStorage(in storage.FixedEvent) (model.FixedEvent, error) {
	days, err := ParseDays(in.Days)
	if err != nil {
		return model.FixedEvent{}, err
	}
	return model.FixedEvent{
		ID:              in.ID,
		Name:            in.Name,
		StartTime:       in.StartTime,
		DurationMinutes: in.DurationMinutes,
		Days:            days,
		Enabled:         in.Enabled,
	}, nil
}

func FixedEventToStorage(templateID string, in model.FixedEvent) storage.FixedEvent {
	return storage.FixedEvent{
		ID:              in.ID,
		TemplateID:      templateID,
		Name:            in.Name,
		StartTime:       in.StartTime,
		DurationMinutes: in.DurationMinutes,
		Days:            FormatDays(in.Days),
		Enabled:         in.Enabled,
	}
}

func BlockToStorage(day string, in scheduler.ScheduledBlock, createdAt time.Time) storage.Block {
	var taskID *string
	if in.TaskID != "" {
		id := in.TaskID
		taskID = &id
	}
	return storage.Block{
		ID:            in.ID,
		Day:           day,
		TaskID:        taskID,
		TaskTitle:     in.TaskTitle,
		Type:          string(in.Type),
		Lane:          in.Lane,
		StartAt:       in.StartTime,
		EndAt:         in.EndTime,
		PomodoroCount: in.PomodoroCount,
		BreakMinutes:  in.BreakMinutes,
		CreatedAt:     createdAt,
	}
}

func BlockFromStorage(in storage.Block, loc *time.Location) scheduler.ScheduledBlock {
	if loc == nil {
		loc = time.Local
	}
	out := scheduler.ScheduledBlock{
		ID:            in.ID,
		TaskTitle:     in.TaskTitle,
		Type:          scheduler.BlockType(in.Type),
		Lane:          in.Lane,
		StartTime:     in.StartAt.In(loc),
		EndTime:       in.EndAt.In(loc),
		PomodoroCount: in.PomodoroCount,
		BreakMinutes:  in.BreakMinutes,
	}
	if in.TaskID != nil {
		out.TaskID = *in.TaskID
	}
	return out
}

// FixedEventsAsCalendar materializes the template's fixed events for day as
// calendar events so the break placer treats them as commitments.
func FixedEventsAsCalendar(template model.DailyTemplate, day time.Time) []model.CalendarEvent {
	weekday := model.WeekdayIndex(day.Weekday())
	out := make([]model.CalendarEvent, 0, len(template.FixedEvents))
	for _, fe := range template.FixedEvents {
		if !fe.Enabled || !fe.OccursOn(weekday) {
			continue
		}
		start, end, ok := fe.Interval(day)
		if !ok {
			continue
		}
		out = append(out, model.CalendarEvent{ID: "fixed:" + fe.ID, Title: fe.Name, StartTime: start, EndTime: end})
	}
	return out
}
