package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/dayplan/internal/calendar"
	"github.com/sandeepkv93/dayplan/internal/config"
	"github.com/sandeepkv93/dayplan/internal/logging"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/planner"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/storage"
	"github.com/sandeepkv93/dayplan/internal/update"
)

type flagConfig struct {
	configPath string
	date       string
	jsonOut    bool
	lanes      int
	placeBreak bool
	show       bool
}

func main() {
	flags := parseFlags()
	if err := run(flags); err != nil {
		fmt.Fprintf(os.Stderr, "dayplan failed: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "dayplan.yaml", "Path to config file")
	flag.StringVar(&cfg.date, "date", "today", "Day to plan (YYYY-MM-DD or today)")
	flag.BoolVar(&cfg.jsonOut, "json", false, "Print the plan as JSON and exit")
	flag.IntVar(&cfg.lanes, "lanes", 0, "Set the number of parallel lanes before planning")
	flag.BoolVar(&cfg.placeBreak, "break", false, "With -json, also place the long break")
	flag.BoolVar(&cfg.show, "show", false, "Print the stored plan as JSON without replanning and exit")

	flag.Parse()

	return cfg
}

func run(flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc, err := conf.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	// The TUI owns the terminal, so it only logs to a file.
	var logger *zap.Logger
	if flags.jsonOut || flags.show {
		logger, err = logging.New(conf.Log.Level, conf.Log.Format, conf.Log.Development)
	} else {
		logger, err = logging.NewFile(conf.Log.Level, conf.Log.Format, conf.Log.File)
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	seed, err := conf.DailyTemplate()
	if err != nil {
		return fmt.Errorf("config template: %w", err)
	}

	repo, err := storage.OpenSQLite(conf.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	svc := planner.New(repo, planner.Options{
		Scheduler:    conf.SchedulerConfig(),
		LongBreak:    conf.LongBreakConfig(),
		SeedTemplate: seed,
		ICSPaths:     conf.ICS,
		Events:       calendar.NewImporter(logger, calendar.WithLocation(loc)),
		Location:     loc,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	day := svc.Today()
	if flags.date != "" && flags.date != "today" {
		day, err = planner.ParseDay(flags.date, loc)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", flags.date, err)
		}
	}
	if flags.lanes > 0 {
		if _, err := svc.SetLanes(ctx, flags.lanes); err != nil {
			return err
		}
	}

	logger.Info("dayplan starting",
		zap.String("config", flags.configPath),
		zap.String("database", conf.DatabasePath),
		zap.String("day", planner.DayKey(day)),
		zap.Int("ics", len(conf.ICS)),
		zap.Bool("json", flags.jsonOut),
		zap.Bool("show", flags.show),
	)

	if flags.show {
		return printStored(ctx, os.Stdout, svc, day)
	}
	if flags.jsonOut {
		return printPlan(ctx, os.Stdout, svc, day, flags.placeBreak)
	}
	return runTUI(ctx, svc, day, conf, flags.configPath, logger)
}

func runTUI(ctx context.Context, svc *planner.Service, day time.Time, conf config.Config, configPath string, logger *zap.Logger) error {
	rc := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())
	engine := scheduler.NewCueEngine(rc.CueBuffer)
	engine.Start()
	defer engine.Stop()

	m := update.NewModel(svc, engine, day, rc).
		WithContext(ctx).
		WithSaveTemplate(func(t model.DailyTemplate) error {
			conf.SetTemplate(t)
			if err := config.Save(configPath, conf); err != nil {
				return err
			}
			logger.Info("template saved", zap.String("path", configPath))
			return nil
		})

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if conf.Rollover != "off" {
		loc, err := conf.Location()
		if err != nil {
			return err
		}
		stopRollover, err := update.StartRollover(conf.Rollover, loc, program.Send)
		if err != nil {
			return err
		}
		defer stopRollover()
	}
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	if dropped := engine.Dropped(); dropped > 0 {
		logger.Warn("cues dropped", zap.Uint64("dropped", dropped))
	}
	return nil
}

type jsonBlock struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"task_id,omitempty"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	Lane          int       `json:"lane"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	PomodoroCount int       `json:"pomodoro_count"`
	BreakMinutes  int       `json:"break_minutes"`
}

type jsonEvent struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type jsonBreak struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Score     float64   `json:"score"`
	Rationale string    `json:"rationale"`
	Fixed     bool      `json:"fixed_mode"`
}

type jsonPlan struct {
	Day         string      `json:"day"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	Lanes       int         `json:"lanes"`
	Blocks      []jsonBlock `json:"blocks"`
	Events      []jsonEvent `json:"events"`
	LongBreak   *jsonBreak  `json:"long_break,omitempty"`
}

func printPlan(ctx context.Context, w io.Writer, svc *planner.Service, day time.Time, placeBreak bool) error {
	plan, err := svc.Plan(ctx, day)
	if err != nil {
		return err
	}
	out := jsonPlan{
		Day:         plan.Key(),
		WindowStart: plan.WindowStart,
		WindowEnd:   plan.WindowEnd,
		Lanes:       plan.Template.LaneCount(),
		Blocks:      make([]jsonBlock, 0, len(plan.Blocks)+1),
		Events:      make([]jsonEvent, 0, len(plan.Events)+len(plan.Fixed)),
	}
	blocks := plan.Blocks
	if placeBreak && len(scheduler.FocusBlocks(plan.Blocks, 0)) > 0 {
		res, err := svc.PlaceBreak(ctx, plan, -1)
		if err != nil {
			return err
		}
		out.LongBreak = &jsonBreak{Start: res.BreakStart, End: res.BreakEnd, Score: res.Score, Rationale: res.Rationale, Fixed: res.FixedModeUsed}
		if res.Score > 0 {
			blocks = append(scheduler.FocusBlocks(plan.Blocks, -1), res.Block())
		}
	}
	out.Blocks = appendBlocks(out.Blocks, blocks)
	for _, ev := range plan.Busy() {
		out.Events = append(out.Events, jsonEvent{ID: ev.ID, Title: ev.Title, Start: ev.StartTime, End: ev.EndTime})
	}
	return writeJSON(w, out)
}

type jsonStored struct {
	Day    string      `json:"day"`
	Blocks []jsonBlock `json:"blocks"`
}

func printStored(ctx context.Context, w io.Writer, svc *planner.Service, day time.Time) error {
	blocks, err := svc.StoredBlocks(ctx, day)
	if err != nil {
		return err
	}
	return writeJSON(w, jsonStored{
		Day:    planner.DayKey(day),
		Blocks: appendBlocks(make([]jsonBlock, 0, len(blocks)), blocks),
	})
}

func appendBlocks(out []jsonBlock, blocks []scheduler.ScheduledBlock) []jsonBlock {
	for _, b := range blocks {
		out = append(out, jsonBlock{
			ID: b.ID, TaskID: b.TaskID, Title: b.TaskTitle, Type: string(b.Type), Lane: b.Lane,
			Start: b.StartTime, End: b.EndTime, PomodoroCount: b.PomodoroCount, BreakMinutes: b.BreakMinutes,
		})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
