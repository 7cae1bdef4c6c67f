package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/dayplan/internal/longbreak"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/planner"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

type View string

const (
	ViewPlan  View = "Plan"
	ViewBreak View = "Break"
	ViewCues  View = "Cues"
	ViewNow   View = "Now"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Plan    string
	Break   string
	Cues    string
	Now     string
	Replan  string
	Place   string
	PrevDay string
	NextDay string
	Today   string
	Help    string
	Quit    string
}

// Planner is the part of planner.Service the TUI drives.
type Planner interface {
	Plan(ctx context.Context, day time.Time) (planner.Plan, error)
	PlaceBreak(ctx context.Context, plan planner.Plan, pomodoroCount int) (longbreak.PlacementResult, error)
	Template(ctx context.Context) (model.DailyTemplate, error)
	SetLanes(ctx context.Context, lanes int) (model.DailyTemplate, error)
	SetWindow(ctx context.Context, wake, sleep string) (model.DailyTemplate, error)
	PutFixedEvent(ctx context.Context, fe model.FixedEvent) error
	RemoveFixedEvent(ctx context.Context, id string) error
	AddTask(ctx context.Context, t model.Task) error
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	CurrentView View
	Day         time.Time
	Plan        *planner.Plan
	Placement   *longbreak.PlacementResult
	BreakStored bool
	Cues        *scheduler.CueEngine
	CueLog      []scheduler.Cue
	Palette     CommandPaletteState
	HelpVisible bool
	Loading     bool
	Now         time.Time
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	planner      Planner
	saveTemplate func(model.DailyTemplate) error
	clock        func() time.Time
	ctx          context.Context
	config       RuntimeConfig

	blockTable    table.Model
	breakViewport viewport.Model
	commandInput  textinput.Model
	loadSpinner   spinner.Model
	blockProgress progress.Model
	helpModel     help.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type PlanLoadedMsg struct {
	Plan planner.Plan
}

type BreakPlacedMsg struct {
	Result longbreak.PlacementResult
}

type CueDueMsg struct {
	Cue scheduler.Cue
}

type NowTickMsg struct {
	At time.Time
}

// NewModel builds the TUI for day. A nil engine disables cues.
func NewModel(p Planner, engine *scheduler.CueEngine, day time.Time, cfg RuntimeConfig) Model {
	if cfg.CueLogSize <= 0 {
		cfg.CueLogSize = DefaultRuntimeConfig().CueLogSize
	}
	if cfg.TableHeight <= 0 {
		cfg.TableHeight = DefaultRuntimeConfig().TableHeight
	}
	if cfg.NowTick <= 0 {
		cfg.NowTick = DefaultRuntimeConfig().NowTick
	}
	m := Model{
		CurrentView: ViewPlan,
		Day:         day,
		Cues:        engine,
		HelpVisible: cfg.ShowHelp,
		Now:         time.Now(),
		Keys: GlobalKeyMap{
			Plan:    "1",
			Break:   "2",
			Cues:    "3",
			Now:     "4",
			Replan:  "r",
			Place:   "b",
			PrevDay: "[",
			NextDay: "]",
			Today:   "t",
			Help:    "?",
			Quit:    "q",
		},
		planner: p,
		clock:   time.Now,
		ctx:     context.Background(),
		config:  cfg,
	}
	m.initBubbleComponents()
	return m
}

// WithClock replaces the wall clock used for the Now view and cue scheduling.
func (m Model) WithClock(clock func() time.Time) Model {
	if clock != nil {
		m.clock = clock
		m.Now = clock()
	}
	return m
}

// WithSaveTemplate enables the save command.
func (m Model) WithSaveTemplate(save func(model.DailyTemplate) error) Model {
	m.saveTemplate = save
	return m
}

func (m Model) WithContext(ctx context.Context) Model {
	if ctx != nil {
		m.ctx = ctx
	}
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Lane", Width: 4},
		{Title: "Start", Width: 5},
		{Title: "End", Width: 5},
		{Title: "Type", Width: 5},
		{Title: "Pom", Width: 3},
		{Title: "Task", Width: 36},
	}
	m.blockTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(m.config.TableHeight))

	m.breakViewport = viewport.New(68, m.config.TableHeight+4)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "day tomorrow | lanes 2 | break | task high 2 title"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 40

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot

	m.blockProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	m.helpModel = help.New()
}
