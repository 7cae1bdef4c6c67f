package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/sandeepkv93/dayplan/internal/commands"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/planner"
)

func (m Model) openPalette() Model {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var next tea.Cmd
	reload := func() {
		m.Loading = true
		next = tea.Batch(m.loadPlanCmd(m.Day), m.loadSpinner.Tick)
	}

	handlers := commands.Handlers{
		Day: func(a commands.DayArgs) (commands.Result, error) {
			m.Day = a.Resolve(m.today())
			m.Plan = nil
			m.Placement = nil
			reload()
			return commands.Result{Message: fmt.Sprintf("planning %s", planner.DayKey(m.Day))}, nil
		},
		Lanes: func(a commands.LanesArgs) (commands.Result, error) {
			if _, err := m.planner.SetLanes(m.ctx, a.Count); err != nil {
				return commands.Result{}, err
			}
			reload()
			return commands.Result{Message: fmt.Sprintf("lanes set to %d", a.Count)}, nil
		},
		Break: func(a commands.BreakArgs) (commands.Result, error) {
			if m.Plan == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no plan loaded yet"}
			}
			next = m.placeBreakCmd(*m.Plan, a.Pomodoros)
			return commands.Result{Message: "placing long break"}, nil
		},
		Fixed: func(a commands.FixedArgs) (commands.Result, error) {
			switch a.Action {
			case commands.FixedRemove:
				if err := m.planner.RemoveFixedEvent(m.ctx, a.Event.ID); err != nil {
					return commands.Result{}, err
				}
				reload()
				return commands.Result{Message: fmt.Sprintf("removed fixed event %s", a.Event.ID)}, nil
			default:
				if err := m.planner.PutFixedEvent(m.ctx, a.Event); err != nil {
					return commands.Result{}, err
				}
				reload()
				return commands.Result{Message: fmt.Sprintf("fixed event %s at %s for %dm", a.Event.ID, a.Event.StartTime, a.Event.DurationMinutes)}, nil
			}
		},
		Window: func(a commands.WindowArgs) (commands.Result, error) {
			if _, err := m.planner.SetWindow(m.ctx, a.WakeUp, a.Sleep); err != nil {
				return commands.Result{}, err
			}
			reload()
			return commands.Result{Message: fmt.Sprintf("window %s-%s", a.WakeUp, a.Sleep)}, nil
		},
		Task: func(a commands.TaskArgs) (commands.Result, error) {
			task := model.Task{
				ID:                 uuid.NewString(),
				Title:              a.Title,
				State:              model.TaskStateReady,
				Category:           a.Category,
				Energy:             a.Energy,
				Priority:           a.Priority,
				EstimatedPomodoros: a.Pomodoros,
			}
			if err := m.planner.AddTask(m.ctx, task); err != nil {
				return commands.Result{}, err
			}
			reload()
			return commands.Result{Message: fmt.Sprintf("added task: %s", a.Title)}, nil
		},
		Replan: func() (commands.Result, error) {
			reload()
			return commands.Result{Message: "replanning"}, nil
		},
	}
	if m.saveTemplate != nil {
		handlers.Save = func() (commands.Result, error) {
			t, err := m.planner.Template(m.ctx)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.saveTemplate(t); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "template saved to config"}, nil
		}
	}

	res, err := commands.Execute(cmd, handlers)
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, next
}
