package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidState    = errors.New("model: invalid task state")
	ErrInvalidCategory = errors.New("model: invalid task category")
	ErrInvalidEnergy   = errors.New("model: invalid task energy")
)

// DefaultPriority is used for ranking when a task carries no explicit priority.
const DefaultPriority = 50

type TaskState string

const (
	TaskStateReady   TaskState = "Ready"
	TaskStateRunning TaskState = "Running"
	TaskStatePaused  TaskState = "Paused"
	TaskStateDone    TaskState = "Done"
)

func (s TaskState) IsValid() bool {
	switch s {
	case TaskStateReady, TaskStateRunning, TaskStatePaused, TaskStateDone:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryActive  Category = "Active"
	CategorySomeday Category = "Someday"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryActive, CategorySomeday:
		return true
	default:
		return false
	}
}

type Energy string

const (
	EnergyLow    Energy = "Low"
	EnergyMedium Energy = "Medium"
	EnergyHigh   Energy = "High"
)

func (e Energy) IsValid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	default:
		return false
	}
}

// Rank places the energy on the Low(0) - Medium(1) - High(2) scale.
// Unknown values rank as Medium.
func (e Energy) Rank() int {
	switch e {
	case EnergyLow:
		return 0
	case EnergyHigh:
		return 2
	default:
		return 1
	}
}

type Task struct {
	ID                 string
	Title              string
	Description        string
	State              TaskState
	Category           Category
	Energy             Energy
	Priority           *int
	ProjectID          *string
	EstimatedPomodoros int
	CompletedPomodoros int
	Completed          bool
	CreatedAt          time.Time
}

// EffectivePriority returns the explicit priority or DefaultPriority.
func (t Task) EffectivePriority() int {
	if t.Priority == nil {
		return DefaultPriority
	}
	return *t.Priority
}

func (t Task) HasProject() bool {
	return t.ProjectID != nil && strings.TrimSpace(*t.ProjectID) != ""
}

func (t Task) RemainingPomodoros() int {
	return t.EstimatedPomodoros - t.CompletedPomodoros
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.State.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, t.State)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if !t.Energy.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEnergy, t.Energy)
	}
	if t.EstimatedPomodoros < 0 || t.CompletedPomodoros < 0 {
		return errors.New("model: pomodoro counts must not be negative")
	}
	if t.State == TaskStateDone && !t.Completed {
		return errors.New("model: completed flag is required when task state is Done")
	}
	return nil
}

func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
