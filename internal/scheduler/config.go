package scheduler

import "errors"

// MaxPomodorosPerBlock caps how many pomodoros one block may hold.
const MaxPomodorosPerBlock = 4

// Config durations are in minutes.
type Config struct {
	FocusDuration            int64
	ShortBreak               int64
	LongBreak                int64
	PomodorosBeforeLongBreak int
	MinGapMinutes            int64
}

func DefaultConfig() Config {
	return Config{
		FocusDuration:            25,
		ShortBreak:               5,
		LongBreak:                15,
		PomodorosBeforeLongBreak: 4,
		MinGapMinutes:            15,
	}
}

func (c Config) Validate() error {
	if c.FocusDuration <= 0 {
		return errors.New("scheduler: focus duration must be positive")
	}
	if c.ShortBreak < 0 || c.LongBreak < 0 {
		return errors.New("scheduler: break durations must not be negative")
	}
	if c.PomodorosBeforeLongBreak <= 0 {
		return errors.New("scheduler: pomodoros before long break must be positive")
	}
	if c.MinGapMinutes < 0 {
		return errors.New("scheduler: min gap must not be negative")
	}
	return nil
}

func (c Config) pomodoroWithBreak() int64 {
	return c.FocusDuration + c.ShortBreak
}
