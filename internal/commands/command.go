package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/dayplan/internal/config"
	"github.com/sandeepkv93/dayplan/internal/model"
)

type Type string

const (
	TypeDay    Type = "day"
	TypeLanes  Type = "lanes"
	TypeBreak  Type = "break"
	TypeFixed  Type = "fixed"
	TypeWindow Type = "window"
	TypeTask   Type = "task"
	TypeReplan Type = "replan"
	TypeSave   Type = "save"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// DayArgs selects the planned day. Exactly one of Date or Offset applies:
// Date when it is non-zero, otherwise Offset days from today.
type DayArgs struct {
	Date   time.Time
	Offset int
}

// Resolve returns the selected day at midnight in today's location.
func (a DayArgs) Resolve(today time.Time) time.Time {
	if !a.Date.IsZero() {
		return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, today.Location())
	}
	y, m, d := today.Date()
	return time.Date(y, m, d+a.Offset, 0, 0, 0, 0, today.Location())
}

type LanesArgs struct {
	Count int
}

// BreakArgs.Pomodoros is negative when the count should come from the plan.
type BreakArgs struct {
	Pomodoros int
}

type FixedAction string

const (
	FixedAdd    FixedAction = "add"
	FixedRemove FixedAction = "rm"
)

type FixedArgs struct {
	Action FixedAction
	Event  model.FixedEvent
}

type WindowArgs struct {
	WakeUp string
	Sleep  string
}

type TaskArgs struct {
	Title     string
	Energy    model.Energy
	Pomodoros int
	Priority  *int
	Category  model.Category
}

type Command struct {
	Type   Type
	Raw    string
	Day    *DayArgs
	Lanes  *LanesArgs
	Break  *BreakArgs
	Fixed  *FixedArgs
	Window *WindowArgs
	Task   *TaskArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeDay:
		return parseDay(input, args)
	case TypeLanes:
		return parseLanes(input, args)
	case TypeBreak:
		return parseBreak(input, args)
	case TypeFixed:
		return parseFixed(input, args)
	case TypeWindow:
		return parseWindow(input, args)
	case TypeTask:
		return parseTask(input, args)
	case TypeReplan, TypeSave:
		if len(args) > 0 {
			return Command{}, invalid("%s takes no arguments", head)
		}
		return Command{Type: Type(head), Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseDay(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("day requires today, tomorrow, yesterday, +N, -N or YYYY-MM-DD")
	}
	arg := strings.ToLower(args[0])
	day := &DayArgs{}
	switch {
	case arg == "today":
	case arg == "tomorrow":
		day.Offset = 1
	case arg == "yesterday":
		day.Offset = -1
	case strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-"):
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, invalid("invalid day offset: %s", args[0])
		}
		day.Offset = n
	default:
		d, err := time.Parse("2006-01-02", arg)
		if err != nil {
			return Command{}, invalid("invalid date: %s", args[0])
		}
		day.Date = d
	}
	return Command{Type: TypeDay, Raw: raw, Day: day}, nil
}

func parseLanes(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("lanes requires a count")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, invalid("lanes must be a positive number, got %s", args[0])
	}
	return Command{Type: TypeLanes, Raw: raw, Lanes: &LanesArgs{Count: n}}, nil
}

func parseBreak(raw string, args []string) (Command, error) {
	out := &BreakArgs{Pomodoros: -1}
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return Command{}, invalid("break count must be a non-negative number, got %s", args[0])
		}
		out.Pomodoros = n
	default:
		return Command{}, invalid("break takes at most one pomodoro count")
	}
	return Command{Type: TypeBreak, Raw: raw, Break: out}, nil
}

// parseFixed accepts "fixed rm <id>" and
// "fixed add <id> <HH:MM> <minutes> <days> [name...]" where days is a comma
// separated list of weekday names, "all" or "weekdays".
func parseFixed(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("fixed requires add or rm")
	}
	switch FixedAction(strings.ToLower(args[0])) {
	case FixedRemove:
		if len(args) != 2 {
			return Command{}, invalid("fixed rm requires an id")
		}
		return Command{Type: TypeFixed, Raw: raw, Fixed: &FixedArgs{Action: FixedRemove, Event: model.FixedEvent{ID: args[1]}}}, nil
	case FixedAdd:
		if len(args) < 5 {
			return Command{}, invalid("fixed add requires id, start, minutes and days")
		}
		id, start := args[1], args[2]
		if _, err := model.ParseClock(start); err != nil {
			return Command{}, invalid("invalid start time: %s", start)
		}
		minutes, err := strconv.Atoi(args[3])
		if err != nil || minutes <= 0 {
			return Command{}, invalid("duration must be a positive number of minutes, got %s", args[3])
		}
		days, err := config.ParseDays(strings.Split(args[4], ","))
		if err != nil {
			return Command{}, invalid("%v", err)
		}
		name := strings.TrimSpace(strings.Join(args[5:], " "))
		if name == "" {
			name = id
		}
		fe := model.FixedEvent{ID: id, Name: name, StartTime: start, DurationMinutes: minutes, Days: days, Enabled: true}
		return Command{Type: TypeFixed, Raw: raw, Fixed: &FixedArgs{Action: FixedAdd, Event: fe}}, nil
	default:
		return Command{}, invalid("fixed requires add or rm, got %s", args[0])
	}
}

func parseWindow(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("window requires wake and sleep times")
	}
	for _, a := range args {
		if _, err := model.ParseClock(a); err != nil {
			return Command{}, invalid("invalid time: %s", a)
		}
	}
	return Command{Type: TypeWindow, Raw: raw, Window: &WindowArgs{WakeUp: args[0], Sleep: args[1]}}, nil
}

// parseTask reads "task <low|medium|high> <pomodoros> [p:N] [cat:name] <title...>".
func parseTask(raw string, args []string) (Command, error) {
	if len(args) < 3 {
		return Command{}, invalid("task requires energy, pomodoros and a title")
	}
	energy, ok := parseEnergy(args[0])
	if !ok {
		return Command{}, invalid("energy must be low, medium or high, got %s", args[0])
	}
	pomodoros, err := strconv.Atoi(args[1])
	if err != nil || pomodoros < 1 {
		return Command{}, invalid("pomodoros must be a positive number, got %s", args[1])
	}
	out := &TaskArgs{Energy: energy, Pomodoros: pomodoros, Category: model.CategoryActive}
	title := make([]string, 0, len(args)-2)
	for _, arg := range args[2:] {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "p:"):
			p, err := strconv.Atoi(strings.TrimPrefix(lower, "p:"))
			if err != nil || p < 0 || p > 100 {
				return Command{}, invalid("priority must be between 0 and 100, got %s", arg)
			}
			out.Priority = model.IntPtr(p)
		case strings.HasPrefix(lower, "cat:"):
			c, ok := parseCategory(strings.TrimPrefix(lower, "cat:"))
			if !ok {
				return Command{}, invalid("unknown category: %s", arg)
			}
			out.Category = c
		default:
			title = append(title, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	if out.Title == "" {
		return Command{}, invalid("task requires a title")
	}
	return Command{Type: TypeTask, Raw: raw, Task: out}, nil
}

func parseEnergy(raw string) (model.Energy, bool) {
	for _, e := range []model.Energy{model.EnergyLow, model.EnergyMedium, model.EnergyHigh} {
		if strings.EqualFold(raw, string(e)) {
			return e, true
		}
	}
	return "", false
}

func parseCategory(raw string) (model.Category, bool) {
	for _, c := range []model.Category{model.CategoryActive, model.CategorySomeday} {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}
