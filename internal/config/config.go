package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/dayplan/internal/longbreak"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

var ErrUnknownWeekday = errors.New("config: unknown weekday")

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
}

// SchedulerConfig durations are in minutes.
type SchedulerConfig struct {
	FocusMinutes             int64 `yaml:"focus_minutes"`
	ShortBreakMinutes        int64 `yaml:"short_break_minutes"`
	LongBreakMinutes         int64 `yaml:"long_break_minutes"`
	PomodorosBeforeLongBreak int   `yaml:"pomodoros_before_long_break"`
	MinGapMinutes            int64 `yaml:"min_gap_minutes"`
}

type LongBreakConfig struct {
	Fixed                bool    `yaml:"fixed"`
	MinFocusBeforeBreak  int64   `yaml:"min_focus_before_break"`
	MaxContinuousFocus   int64   `yaml:"max_continuous_focus"`
	BreakDuration        int64   `yaml:"break_duration"`
	PomodorosBeforeBreak int     `yaml:"pomodoros_before_break"`
	FatigueWeight        float64 `yaml:"fatigue_weight"`
	CalendarWeight       float64 `yaml:"calendar_weight"`
}

// FixedEventConfig lists days by name ("mon".."sun") or "all".
type FixedEventConfig struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Start           string   `yaml:"start"`
	DurationMinutes int      `yaml:"duration_minutes"`
	Days            []string `yaml:"days"`
	Disabled        bool     `yaml:"disabled"`
}

type TemplateConfig struct {
	WakeUp      string             `yaml:"wake_up"`
	Sleep       string             `yaml:"sleep"`
	Lanes       int                `yaml:"lanes"`
	FixedEvents []FixedEventConfig `yaml:"fixed_events"`
}

type Config struct {
	DatabasePath string          `yaml:"database_path"`
	Timezone     string          `yaml:"timezone"`
	Log          LogConfig       `yaml:"log"`
	ICS          []string        `yaml:"ics"`
	// Rollover is a cron expression; "off" disables the TUI day rollover.
	Rollover     string          `yaml:"rollover"`
	Scheduler    SchedulerConfig `yaml:"scheduler"`
	LongBreak    LongBreakConfig `yaml:"long_break"`
	Template     TemplateConfig  `yaml:"template"`
}

func Default() Config {
	sc := scheduler.DefaultConfig()
	lb := longbreak.DefaultConfig()
	return Config{
		DatabasePath: "dayplan.db",
		Timezone:     "Local",
		Log:          LogConfig{Level: "info", Format: "json"},
		ICS:          []string{},
		Rollover:     "0 0 * * *",
		Scheduler: SchedulerConfig{
			FocusMinutes:             sc.FocusDuration,
			ShortBreakMinutes:        sc.ShortBreak,
			LongBreakMinutes:         sc.LongBreak,
			PomodorosBeforeLongBreak: sc.PomodorosBeforeLongBreak,
			MinGapMinutes:            sc.MinGapMinutes,
		},
		LongBreak: LongBreakConfig{
			Fixed:                lb.FixedMode,
			MinFocusBeforeBreak:  lb.MinFocusBeforeBreak,
			MaxContinuousFocus:   lb.MaxContinuousFocus,
			BreakDuration:        lb.BreakDuration,
			PomodorosBeforeBreak: lb.PomodorosBeforeBreak,
			FatigueWeight:        lb.FatigueWeight,
			CalendarWeight:       lb.CalendarWeight,
		},
		Template: TemplateConfig{
			WakeUp: "09:00",
			Sleep:  "18:00",
			Lanes:  1,
			FixedEvents: []FixedEventConfig{{
				ID:              "lunch",
				Name:            "Lunch",
				Start:           "12:00",
				DurationMinutes: 60,
				Days:            []string{"all"},
			}},
		},
	}
}

// Normalize fills zero values with defaults so a partial file still works.
func (c *Config) Normalize() {
	d := Default()
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.ICS == nil {
		c.ICS = []string{}
	}
	if c.Rollover == "" {
		c.Rollover = d.Rollover
	}

	s := &c.Scheduler
	if s.FocusMinutes <= 0 {
		s.FocusMinutes = d.Scheduler.FocusMinutes
	}
	if s.ShortBreakMinutes <= 0 {
		s.ShortBreakMinutes = d.Scheduler.ShortBreakMinutes
	}
	if s.LongBreakMinutes <= 0 {
		s.LongBreakMinutes = d.Scheduler.LongBreakMinutes
	}
	if s.PomodorosBeforeLongBreak <= 0 {
		s.PomodorosBeforeLongBreak = d.Scheduler.PomodorosBeforeLongBreak
	}
	if s.MinGapMinutes <= 0 {
		s.MinGapMinutes = d.Scheduler.MinGapMinutes
	}

	lb := &c.LongBreak
	if lb.MinFocusBeforeBreak <= 0 {
		lb.MinFocusBeforeBreak = d.LongBreak.MinFocusBeforeBreak
	}
	if lb.MaxContinuousFocus <= 0 {
		lb.MaxContinuousFocus = d.LongBreak.MaxContinuousFocus
	}
	if lb.BreakDuration <= 0 {
		lb.BreakDuration = d.LongBreak.BreakDuration
	}
	if lb.PomodorosBeforeBreak <= 0 {
		lb.PomodorosBeforeBreak = d.LongBreak.PomodorosBeforeBreak
	}
	if lb.FatigueWeight == 0 && lb.CalendarWeight == 0 {
		lb.FatigueWeight = d.LongBreak.FatigueWeight
		lb.CalendarWeight = d.LongBreak.CalendarWeight
	}

	if c.Template.WakeUp == "" {
		c.Template.WakeUp = d.Template.WakeUp
	}
	if c.Template.Sleep == "" {
		c.Template.Sleep = d.Template.Sleep
	}
	if c.Template.Lanes <= 0 {
		c.Template.Lanes = d.Template.Lanes
	}
}

// Load reads a YAML config. A missing file yields Default. Environment
// overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		default:
			cfg = Config{}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}
	cfg.Normalize()
	return FromEnv(cfg), nil
}

// Save writes cfg as YAML through a temp file in the target directory.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dayplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func FromEnv(base Config) Config {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_DB")); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_TZ")); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_LOG_FORMAT")); v != "" {
		cfg.Log.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_ROLLOVER")); v != "" {
		cfg.Rollover = v
	}
	if v, ok := getEnvInt("DAYPLAN_FOCUS_MINUTES"); ok && v > 0 {
		cfg.Scheduler.FocusMinutes = int64(v)
	}
	if v, ok := getEnvInt("DAYPLAN_SHORT_BREAK_MINUTES"); ok && v > 0 {
		cfg.Scheduler.ShortBreakMinutes = int64(v)
	}
	if v, ok := getEnvInt("DAYPLAN_LONG_BREAK_MINUTES"); ok && v > 0 {
		cfg.Scheduler.LongBreakMinutes = int64(v)
		cfg.LongBreak.BreakDuration = int64(v)
	}
	if v, ok := getEnvInt("DAYPLAN_MIN_GAP_MINUTES"); ok && v > 0 {
		cfg.Scheduler.MinGapMinutes = int64(v)
	}
	if v, ok := getEnvInt("DAYPLAN_LANES"); ok && v > 0 {
		cfg.Template.Lanes = v
	}
	if v, ok := getEnvBool("DAYPLAN_LONG_BREAK_FIXED"); ok {
		cfg.LongBreak.Fixed = v
	}
	return cfg
}

func (c Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		FocusDuration:            c.Scheduler.FocusMinutes,
		ShortBreak:               c.Scheduler.ShortBreakMinutes,
		LongBreak:                c.Scheduler.LongBreakMinutes,
		PomodorosBeforeLongBreak: c.Scheduler.PomodorosBeforeLongBreak,
		MinGapMinutes:            c.Scheduler.MinGapMinutes,
	}
}

func (c Config) LongBreakConfig() longbreak.Config {
	return longbreak.Config{
		FixedMode:            c.LongBreak.Fixed,
		MinFocusBeforeBreak:  c.LongBreak.MinFocusBeforeBreak,
		MaxContinuousFocus:   c.LongBreak.MaxContinuousFocus,
		BreakDuration:        c.LongBreak.BreakDuration,
		PomodorosBeforeBreak: c.LongBreak.PomodorosBeforeBreak,
		FatigueWeight:        c.LongBreak.FatigueWeight,
		CalendarWeight:       c.LongBreak.CalendarWeight,
	}
}

// DailyTemplate converts the seed template section into a model template.
func (c Config) DailyTemplate() (model.DailyTemplate, error) {
	t := model.DailyTemplate{
		WakeUp:           c.Template.WakeUp,
		Sleep:            c.Template.Sleep,
		FixedEvents:      make([]model.FixedEvent, 0, len(c.Template.FixedEvents)),
		MaxParallelLanes: model.IntPtr(c.Template.Lanes),
	}
	for i, fe := range c.Template.FixedEvents {
		days, err := ParseDays(fe.Days)
		if err != nil {
			return model.DailyTemplate{}, fmt.Errorf("fixed event %d: %w", i, err)
		}
		id := fe.ID
		if id == "" {
			id = fmt.Sprintf("fixed-%d", i+1)
		}
		t.FixedEvents = append(t.FixedEvents, model.FixedEvent{
			ID:              id,
			Name:            fe.Name,
			StartTime:       fe.Start,
			DurationMinutes: fe.DurationMinutes,
			Days:            days,
			Enabled:         !fe.Disabled,
		})
	}
	if err := t.Validate(); err != nil {
		return model.DailyTemplate{}, err
	}
	return t, nil
}

// SetTemplate replaces the seed template section with t.
func (c *Config) SetTemplate(t model.DailyTemplate) {
	section := TemplateConfig{
		WakeUp:      t.WakeUp,
		Sleep:       t.Sleep,
		Lanes:       t.LaneCount(),
		FixedEvents: make([]FixedEventConfig, 0, len(t.FixedEvents)),
	}
	for _, fe := range t.FixedEvents {
		section.FixedEvents = append(section.FixedEvents, FixedEventConfig{
			ID:              fe.ID,
			Name:            fe.Name,
			Start:           fe.StartTime,
			DurationMinutes: fe.DurationMinutes,
			Days:            DayNames(fe.Days),
			Disabled:        !fe.Enabled,
		})
	}
	c.Template = section
}

var shortDayNames = [...]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// DayNames is the inverse of ParseDays. A full week collapses to "all".
func DayNames(days []int) []string {
	seen := make(map[int]bool, len(days))
	out := make([]string, 0, len(days))
	for _, d := range days {
		if d < model.Monday || d > model.Sunday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, shortDayNames[d])
	}
	if len(seen) == len(model.AllDays) {
		return []string{"all"}
	}
	return out
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

var weekdayNames = map[string]int{
	"mon": model.Monday, "monday": model.Monday,
	"tue": model.Tuesday, "tuesday": model.Tuesday,
	"wed": model.Wednesday, "wednesday": model.Wednesday,
	"thu": model.Thursday, "thursday": model.Thursday,
	"fri": model.Friday, "friday": model.Friday,
	"sat": model.Saturday, "saturday": model.Saturday,
	"sun": model.Sunday, "sunday": model.Sunday,
}

// ParseDays maps weekday names to Monday-based indices. "all" expands to the
// whole week, "weekdays" to Monday..Friday. Duplicates collapse.
func ParseDays(names []string) ([]int, error) {
	seen := make(map[int]bool, 7)
	out := make([]int, 0, 7)
	add := func(d int) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "all", "daily":
			for _, d := range model.AllDays {
				add(d)
			}
			continue
		case "weekdays":
			for d := model.Monday; d <= model.Friday; d++ {
				add(d)
			}
			continue
		}
		d, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWeekday, raw)
		}
		add(d)
	}
	return out, nil
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
