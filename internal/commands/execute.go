package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Day    func(DayArgs) (Result, error)
	Lanes  func(LanesArgs) (Result, error)
	Break  func(BreakArgs) (Result, error)
	Fixed  func(FixedArgs) (Result, error)
	Window func(WindowArgs) (Result, error)
	Task   func(TaskArgs) (Result, error)
	Replan func() (Result, error)
	Save   func() (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeDay:
		if handlers.Day == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Day(*cmd.Day)
	case TypeLanes:
		if handlers.Lanes == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Lanes(*cmd.Lanes)
	case TypeBreak:
		if handlers.Break == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Break(*cmd.Break)
	case TypeFixed:
		if handlers.Fixed == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Fixed(*cmd.Fixed)
	case TypeWindow:
		if handlers.Window == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Window(*cmd.Window)
	case TypeTask:
		if handlers.Task == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Task(*cmd.Task)
	case TypeReplan:
		if handlers.Replan == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Replan()
	case TypeSave:
		if handlers.Save == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Save()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
