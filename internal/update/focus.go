package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/views"
)

func nowTickCmd(every time.Duration, clock func() time.Time) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg { return NowTickMsg{At: clock()} })
}

// currentBlock returns the lowest-lane block covering t and the earliest block
// starting after t.
func currentBlock(blocks []scheduler.ScheduledBlock, t time.Time) (cur, next *scheduler.ScheduledBlock) {
	for i := range blocks {
		b := &blocks[i]
		if !b.StartTime.After(t) && b.EndTime.After(t) {
			if cur == nil || b.Lane < cur.Lane {
				cur = b
			}
		}
		if b.StartTime.After(t) && (next == nil || b.StartTime.Before(next.StartTime)) {
			next = b
		}
	}
	return cur, next
}

func (m Model) renderNowView() string {
	data := views.NowPanelData{Clock: m.Now.Format("15:04")}
	if m.Plan == nil {
		return views.RenderNowPanel(data)
	}
	cur, next := currentBlock(m.Plan.Blocks, m.Now)
	if cur != nil {
		total := cur.EndTime.Sub(cur.StartTime)
		elapsed := m.Now.Sub(cur.StartTime)
		data.Current = cur.TaskTitle
		data.CurrentKind = string(cur.Type)
		data.Remaining = formatDuration(cur.EndTime.Sub(m.Now))
		data.ProgressView = m.blockProgress.ViewAs(float64(elapsed) / float64(total))
	}
	if next != nil {
		data.Next = next.TaskTitle
		data.NextAt = next.StartTime.Format("15:04")
	}
	return views.RenderNowPanel(data)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSec := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", totalSec/60, totalSec%60)
}
