package update

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/longbreak"
	"github.com/sandeepkv93/dayplan/internal/planner"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadPlanCmd(m.Day),
		m.loadSpinner.Tick,
		nowTickCmd(m.config.NowTick, m.clock),
	}
	if m.Cues != nil {
		cmds = append(cmds, waitForCueCmd(m.Cues.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) loadPlanCmd(day time.Time) tea.Cmd {
	p, ctx := m.planner, m.ctx
	return func() tea.Msg {
		plan, err := p.Plan(ctx, day)
		if err != nil {
			return AppErrorMsg{Err: fmt.Errorf("plan %s: %w", planner.DayKey(day), err)}
		}
		return PlanLoadedMsg{Plan: plan}
	}
}

func (m Model) placeBreakCmd(plan planner.Plan, pomodoros int) tea.Cmd {
	p, ctx := m.planner, m.ctx
	return func() tea.Msg {
		res, err := p.PlaceBreak(ctx, plan, pomodoros)
		if err != nil {
			return AppErrorMsg{Err: fmt.Errorf("long break: %w", err)}
		}
		return BreakPlacedMsg{Result: res}
	}
}

func (m Model) today() time.Time {
	now := m.clock()
	if !m.Day.IsZero() {
		now = now.In(m.Day.Location())
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
}

func (m Model) shiftDay(days int) (Model, tea.Cmd) {
	m.Day = m.Day.AddDate(0, 0, days)
	return m.replan()
}

func (m Model) replan() (Model, tea.Cmd) {
	m.Loading = true
	m.Status = StatusBar{Text: fmt.Sprintf("planning %s", planner.DayKey(m.Day))}
	return m, tea.Batch(m.loadPlanCmd(m.Day), m.loadSpinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			return m.openPalette(), nil
		case m.Keys.Plan:
			m.CurrentView = ViewPlan
			return m, nil
		case m.Keys.Break:
			m.CurrentView = ViewBreak
			return m, nil
		case m.Keys.Cues:
			m.CurrentView = ViewCues
			return m, nil
		case m.Keys.Now:
			m.CurrentView = ViewNow
			return m, nil
		case m.Keys.Replan:
			return m.replan()
		case m.Keys.Place:
			if m.Plan == nil {
				m.Status = StatusBar{Text: "no plan loaded yet", IsError: true}
				return m, nil
			}
			m.Status = StatusBar{Text: "placing long break"}
			return m, m.placeBreakCmd(*m.Plan, -1)
		case m.Keys.PrevDay:
			return m.shiftDay(-1)
		case m.Keys.NextDay:
			return m.shiftDay(1)
		case m.Keys.Today:
			m.Day = m.today()
			return m.replan()
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		switch m.CurrentView {
		case ViewPlan:
			m.blockTable, cmd = m.blockTable.Update(typed)
		case ViewBreak:
			m.breakViewport, cmd = m.breakViewport.Update(typed)
		}
		return m, cmd
	case spinner.TickMsg:
		if m.Loading {
			var cmd tea.Cmd
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.Loading = false
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case PlanLoadedMsg:
		plan := typed.Plan
		m.Loading = false
		m.Plan = &plan
		m.Day = plan.Day
		m.Placement = nil
		m.BreakStored = false
		m.syncBlockTable()
		m.Status = StatusBar{Text: plan.Describe()}
		m.scheduleCues(plan)
		return m, nil
	case BreakPlacedMsg:
		m.applyPlacement(typed.Result)
		return m, nil
	case CueDueMsg:
		m.applyCue(typed.Cue)
		if m.Cues != nil {
			return m, waitForCueCmd(m.Cues.C())
		}
		return m, nil
	case DayRolloverMsg:
		return m.rollover(typed.At)
	case NowTickMsg:
		m.Now = typed.At
		return m, nowTickCmd(m.config.NowTick, m.clock)
	}

	return m, nil
}

// applyPlacement mirrors what the planner stored: a positive score adds the
// break block next to the plan's focus blocks.
func (m *Model) applyPlacement(res longbreak.PlacementResult) {
	m.Placement = &res
	m.BreakStored = res.Score > 0 && m.Plan != nil
	if m.BreakStored {
		blocks := scheduler.FocusBlocks(m.Plan.Blocks, -1)
		m.Plan.Blocks = append(blocks, res.Block())
		m.syncBlockTable()
		m.scheduleCues(*m.Plan)
	}
	m.breakViewport.SetContent(views.RenderMarkdown(views.BreakReport(m.breakReportData())))
	m.breakViewport.GotoTop()
	m.CurrentView = ViewBreak
	m.Status = StatusBar{Text: fmt.Sprintf("long break %s (score %.2f)", res.BreakStart.Format("15:04"), res.Score)}
}

func (m Model) breakReportData() views.BreakReportData {
	res := m.Placement
	data := views.BreakReportData{
		Start:      res.BreakStart.Format("15:04"),
		End:        res.BreakEnd.Format("15:04"),
		Score:      res.Score,
		Rationale:  res.Rationale,
		Fixed:      res.FixedModeUsed,
		Stored:     m.BreakStored,
		Candidates: make([]views.CandidateData, 0, len(res.EvaluatedCandidates)),
	}
	if m.Plan != nil {
		data.Day = m.Plan.Key()
	}
	for _, c := range res.EvaluatedCandidates {
		data.Candidates = append(data.Candidates, views.CandidateData{
			Start:     c.StartTime.Format("15:04"),
			Score:     c.Score,
			Rationale: c.Rationale,
		})
	}
	return data
}

func (m *Model) syncBlockTable() {
	if m.Plan == nil {
		m.blockTable.SetRows([]table.Row{})
		return
	}
	rows := make([]table.Row, 0, len(m.Plan.Blocks))
	for _, b := range m.Plan.Blocks {
		rows = append(rows, table.Row{
			strconv.Itoa(b.Lane),
			b.StartTime.Format("15:04"),
			b.EndTime.Format("15:04"),
			string(b.Type),
			strconv.Itoa(b.PomodoroCount),
			b.TaskTitle,
		})
	}
	m.blockTable.SetRows(rows)
	m.blockTable.SetCursor(0)
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	switch m.CurrentView {
	case ViewPlan:
		leftPane = m.renderPlanView()
	case ViewBreak:
		leftPane = views.RenderBreakPanel(m.breakViewport.View(), m.Placement != nil)
	case ViewCues:
		leftPane = m.renderCueView()
	case ViewNow:
		leftPane = m.renderNowView()
	}
	rightPane := views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()) + m.renderHelpIfVisible()

	lanes := 1
	if m.Plan != nil {
		lanes = m.Plan.Template.LaneCount()
	}
	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("dayplan | %s | view: %s | lanes: %d", planner.DayKey(m.Day), m.CurrentView, lanes),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: views.RenderLastCue(m.lastCue()),
		Footer: fmt.Sprintf("keys: %s plan | %s break | %s cues | %s now | / cmd | %s help | %s quit",
			m.Keys.Plan, m.Keys.Break, m.Keys.Cues, m.Keys.Now, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderPlanView() string {
	data := views.PlanPanelData{
		Day:         planner.DayKey(m.Day),
		Loading:     m.Loading,
		SpinnerView: m.loadSpinner.View(),
		TableView:   m.blockTable.View(),
	}
	if m.Plan != nil {
		data.Window = fmt.Sprintf("%s - %s", m.Plan.WindowStart.Format("15:04"), m.Plan.WindowEnd.Format("Jan 2 15:04"))
		data.Summary = fmt.Sprintf("%d tasks considered, %d blocks", m.Plan.TaskCount, len(m.Plan.Blocks))
		data.BlockCount = len(m.Plan.Blocks)
		for _, ev := range m.Plan.Events {
			data.Events = append(data.Events, views.EventData{Title: ev.Title, Start: ev.StartTime.Format("15:04"), End: ev.EndTime.Format("15:04")})
		}
		for _, ev := range m.Plan.Fixed {
			data.Events = append(data.Events, views.EventData{Title: ev.Title, Start: ev.StartTime.Format("15:04"), End: ev.EndTime.Format("15:04"), Fixed: true})
		}
	}
	return views.RenderPlanPanel(data)
}

func (m Model) renderCueView() string {
	data := views.CuePanelData{Log: make([]views.CueData, 0, len(m.CueLog))}
	if m.Cues != nil {
		data.Pending = m.Cues.Pending()
		data.Dropped = m.Cues.Dropped()
	}
	for _, c := range m.CueLog {
		data.Log = append(data.Log, cueData(c))
	}
	return views.RenderCuePanel(data)
}

func (m Model) lastCue() *views.CueData {
	if len(m.CueLog) == 0 {
		return nil
	}
	c := cueData(m.CueLog[len(m.CueLog)-1])
	return &c
}

func cueData(c scheduler.Cue) views.CueData {
	kind := "focus"
	if c.Kind == scheduler.CueBreakStart {
		kind = "break"
	}
	return views.CueData{At: c.At.Format("15:04"), Kind: kind, Title: c.Title}
}

func isKnownView(v View) bool {
	switch v {
	case ViewPlan, ViewBreak, ViewCues, ViewNow:
		return true
	default:
		return false
	}
}
