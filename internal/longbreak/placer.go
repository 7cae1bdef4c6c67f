package longbreak

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

const (
	// MaxEvaluated bounds PlacementResult.EvaluatedCandidates.
	MaxEvaluated = 5

	fixedRationale   = "Fixed mode: break at end of cycle"
	proximityPenalty = 0.3
	proximityHorizon = 60
)

// Config durations are in minutes. MinFocusBeforeBreak is carried for
// configuration compatibility and does not affect scoring.
type Config struct {
	FixedMode            bool
	MinFocusBeforeBreak  int64
	MaxContinuousFocus   int64
	BreakDuration        int64
	PomodorosBeforeBreak int
	FatigueWeight        float64
	CalendarWeight       float64
}

func DefaultConfig() Config {
	return Config{
		FixedMode:            false,
		MinFocusBeforeBreak:  90,
		MaxContinuousFocus:   180,
		BreakDuration:        15,
		PomodorosBeforeBreak: 4,
		FatigueWeight:        0.6,
		CalendarWeight:       0.4,
	}
}

func (c Config) Validate() error {
	if c.MaxContinuousFocus <= 0 {
		return errors.New("longbreak: max continuous focus must be positive")
	}
	if c.BreakDuration <= 0 {
		return errors.New("longbreak: break duration must be positive")
	}
	if c.PomodorosBeforeBreak < 0 {
		return errors.New("longbreak: pomodoros before break must not be negative")
	}
	if c.FatigueWeight < 0 || c.CalendarWeight < 0 {
		return errors.New("longbreak: weights must not be negative")
	}
	return nil
}

type BreakCandidate struct {
	StartTime time.Time
	EndTime   time.Time
	Score     float64
	Rationale string
}

type CandidateInfo struct {
	StartTime time.Time
	Score     float64
	Rationale string
}

type PlacementResult struct {
	FixedModeUsed       bool
	BreakStart          time.Time
	BreakEnd            time.Time
	Score               float64
	Rationale           string
	EvaluatedCandidates []CandidateInfo
}

// Block converts the placement into a break block suitable for persistence.
func (r PlacementResult) Block() scheduler.ScheduledBlock {
	return scheduler.ScheduledBlock{
		ID:           scheduler.BlockID("long-break", r.BreakStart, 0),
		TaskTitle:    "Long break",
		Type:         scheduler.BlockTypeBreak,
		StartTime:    r.BreakStart,
		EndTime:      r.BreakEnd,
		BreakMinutes: int(r.BreakEnd.Sub(r.BreakStart) / time.Minute),
	}
}

// Placer chooses where a long break goes within a focus cycle. It never fails:
// every input yields a PlacementResult.
type Placer struct {
	config Config
}

func New() *Placer {
	return &Placer{config: DefaultConfig()}
}

func NewWithConfig(cfg Config) *Placer {
	return &Placer{config: cfg}
}

func (p *Placer) Config() Config {
	return p.config
}

func (p *Placer) SetFixedMode(fixed bool) {
	p.config.FixedMode = fixed
}

// FindOptimalBreakPosition scores candidate break starts between adjacent focus
// blocks plus a fallback at cycleEnd and returns the best one. cycleStart is
// accepted for symmetry with the cycle window and is not consulted.
func (p *Placer) FindOptimalBreakPosition(blocks []scheduler.ScheduledBlock, events []model.CalendarEvent, pomodoroCount int, cycleStart, cycleEnd time.Time) PlacementResult {
	if p.config.FixedMode {
		return p.fixedPlacement(cycleEnd)
	}

	if pomodoroCount < p.config.PomodorosBeforeBreak {
		return PlacementResult{
			BreakStart:          cycleEnd,
			BreakEnd:            p.breakEnd(cycleEnd),
			Score:               0,
			Rationale:           fmt.Sprintf("Not enough pomodoros (%d/%d)", pomodoroCount, p.config.PomodorosBeforeBreak),
			EvaluatedCandidates: []CandidateInfo{},
		}
	}

	candidates := p.findCandidates(blocks, events, cycleEnd)
	for i := range candidates {
		p.score(&candidates[i], blocks, events)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	evaluated := make([]CandidateInfo, 0, MaxEvaluated)
	for i := 0; i < len(candidates) && i < MaxEvaluated; i++ {
		c := candidates[i]
		evaluated = append(evaluated, CandidateInfo{StartTime: c.StartTime, Score: c.Score, Rationale: c.Rationale})
	}

	best := candidates[0]
	return PlacementResult{
		BreakStart:          best.StartTime,
		BreakEnd:            best.EndTime,
		Score:               best.Score,
		Rationale:           best.Rationale,
		EvaluatedCandidates: evaluated,
	}
}

func (p *Placer) fixedPlacement(cycleEnd time.Time) PlacementResult {
	return PlacementResult{
		FixedModeUsed:       true,
		BreakStart:          cycleEnd,
		BreakEnd:            p.breakEnd(cycleEnd),
		Score:               1.0,
		Rationale:           fixedRationale,
		EvaluatedCandidates: []CandidateInfo{},
	}
}

func (p *Placer) breakEnd(start time.Time) time.Time {
	return start.Add(time.Duration(p.config.BreakDuration) * time.Minute)
}

// findCandidates walks adjacent focus blocks in input order. The cycle-end
// fallback is always the last candidate.
func (p *Placer) findCandidates(blocks []scheduler.ScheduledBlock, events []model.CalendarEvent, cycleEnd time.Time) []BreakCandidate {
	focus := scheduler.FocusBlocks(blocks, -1)
	out := make([]BreakCandidate, 0, len(focus)+1)
	for i := 0; i+1 < len(focus); i++ {
		start := focus[i].EndTime
		gap := int64(focus[i+1].StartTime.Sub(start) / time.Minute)
		if gap < p.config.BreakDuration {
			continue
		}
		end := p.breakEnd(start)
		if hasConflict(start, end, events) {
			continue
		}
		out = append(out, BreakCandidate{StartTime: start, EndTime: end})
	}
	return append(out, BreakCandidate{StartTime: cycleEnd, EndTime: p.breakEnd(cycleEnd)})
}

func (p *Placer) score(c *BreakCandidate, blocks []scheduler.ScheduledBlock, events []model.CalendarEvent) {
	before := focusMinutesBefore(blocks, c.StartTime)
	after := focusMinutesAfter(blocks, c.StartTime)

	fatigue := p.ratio(before)
	calendar := 1.0
	if after > 0 {
		calendar = 1.0 - p.ratio(after)
	}
	calendar *= 1.0 - proximityPenalty*calendarProximity(c.StartTime, events)

	c.Score = fatigue*p.config.FatigueWeight + calendar*p.config.CalendarWeight
	c.Rationale = fmt.Sprintf("Fatigue: %.2f (%dm before), Calendar: %.2f (%dm after)", fatigue, before, calendar, after)
}

// ratio is minutes/MaxContinuousFocus capped at 1. A non-positive limit
// saturates immediately.
func (p *Placer) ratio(minutes int64) float64 {
	if p.config.MaxContinuousFocus <= 0 {
		if minutes > 0 {
			return 1
		}
		return 0
	}
	r := float64(minutes) / float64(p.config.MaxContinuousFocus)
	if r > 1 {
		return 1
	}
	return r
}

func focusMinutesBefore(blocks []scheduler.ScheduledBlock, t time.Time) int64 {
	var total int64
	for _, b := range blocks {
		if b.Type == scheduler.BlockTypeFocus && !b.EndTime.After(t) {
			total += b.DurationMinutes()
		}
	}
	return total
}

func focusMinutesAfter(blocks []scheduler.ScheduledBlock, t time.Time) int64 {
	var total int64
	for _, b := range blocks {
		if b.Type == scheduler.BlockTypeFocus && !b.StartTime.Before(t) {
			total += b.DurationMinutes()
		}
	}
	return total
}

func hasConflict(start, end time.Time, events []model.CalendarEvent) bool {
	for _, e := range events {
		if e.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// calendarProximity is 1 at an event boundary, falling linearly to 0 at
// proximityHorizon minutes away. No events means 0.
func calendarProximity(t time.Time, events []model.CalendarEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	minGap := int64(-1)
	for _, e := range events {
		gap := absMinutes(e.StartTime.Sub(t))
		if g := absMinutes(e.EndTime.Sub(t)); g < gap {
			gap = g
		}
		if minGap < 0 || gap < minGap {
			minGap = gap
		}
	}
	switch {
	case minGap <= 0:
		return 1
	case minGap >= proximityHorizon:
		return 0
	default:
		return 1 - float64(minGap)/proximityHorizon
	}
}

func absMinutes(d time.Duration) int64 {
	m := int64(d / time.Minute)
	if m < 0 {
		return -m
	}
	return m
}
