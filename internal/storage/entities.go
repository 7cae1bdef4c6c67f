package storage

import "time"

type Task struct {
	ID                 string
	Title              string
	Description        string
	State              string
	Category           string
	Energy             string
	Priority           *int
	ProjectID          *string
	EstimatedPomodoros int
	CompletedPomodoros int
	Completed          bool
	CreatedAt          time.Time
}

type Template struct {
	ID               string
	WakeUp           string
	Sleep            string
	MaxParallelLanes *int
	UpdatedAt        time.Time
}

// FixedEvent.Days is a comma separated list of Monday-based weekday indices.
type FixedEvent struct {
	ID              string
	TemplateID      string
	Name            string
	StartTime       string
	DurationMinutes int
	Days            string
	Enabled         bool
}

// Block is a persisted scheduled block. Day is the plan date as YYYY-MM-DD.
type Block struct {
	ID            string
	Day           string
	TaskID        *string
	TaskTitle     string
	Type          string
	Lane          int
	StartAt       time.Time
	EndAt         time.Time
	PomodoroCount int
	BreakMinutes  int
	CreatedAt     time.Time
}

type TaskListFilter struct {
	State    string
	Category string
	Limit    int
	Offset   int
}

type FixedEventListFilter struct {
	TemplateID string
	Enabled    *bool
	Limit      int
	Offset     int
}

type BlockListFilter struct {
	Day    string
	Type   string
	Limit  int
	Offset int
}
