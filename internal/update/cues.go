package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/planner"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

func waitForCueCmd(ch <-chan scheduler.Cue) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cue, ok := <-ch
		if !ok {
			return nil
		}
		return CueDueMsg{Cue: cue}
	}
}

// scheduleCues arms the engine with the plan's blocks when the plan is for
// today. Plans for other days leave the pending cues alone.
func (m *Model) scheduleCues(plan planner.Plan) {
	if m.Cues == nil || planner.DayKey(plan.Day) != planner.DayKey(m.clock().In(plan.Day.Location())) {
		return
	}
	if _, err := m.Cues.Replace(plan.Cues(), m.clock()); err != nil {
		m.Status = StatusBar{Text: fmt.Sprintf("cue scheduling failed: %v", err), IsError: true}
	}
}

func (m *Model) applyCue(c scheduler.Cue) {
	m.CueLog = append(m.CueLog, c)
	if len(m.CueLog) > m.config.CueLogSize {
		m.CueLog = m.CueLog[len(m.CueLog)-m.config.CueLogSize:]
	}
	switch c.Kind {
	case scheduler.CueBreakStart:
		m.Status = StatusBar{Text: fmt.Sprintf("break time: %s", c.Title)}
	default:
		m.Status = StatusBar{Text: fmt.Sprintf("focus: %s", c.Title)}
	}
}
