package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/dayplan/internal/planner"
)

// DayRolloverMsg is sent each time the rollover schedule fires.
type DayRolloverMsg struct {
	At time.Time
}

// StartRollover runs spec on a cron in loc and hands each firing to send.
// The returned func stops the cron and waits for a running job.
func StartRollover(spec string, loc *time.Location, send func(tea.Msg)) (func(), error) {
	if loc == nil {
		loc = time.Local
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() {
		send(DayRolloverMsg{At: time.Now().In(loc)})
	}); err != nil {
		return nil, fmt.Errorf("rollover schedule %q: %w", spec, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

// rollover follows the calendar only when the previous day is on screen.
func (m Model) rollover(at time.Time) (Model, tea.Cmd) {
	if m.Day.IsZero() {
		return m, nil
	}
	at = at.In(m.Day.Location())
	if planner.DayKey(m.Day) != planner.DayKey(at.AddDate(0, 0, -1)) {
		return m, nil
	}
	y, mo, d := at.Date()
	m.Day = time.Date(y, mo, d, 0, 0, 0, 0, at.Location())
	return m.replan()
}
