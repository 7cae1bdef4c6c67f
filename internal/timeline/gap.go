// Package timeline converts busy intervals into the free gaps between them.
package timeline

import (
	"sort"
	"time"
)

// DefaultMinGap is the shortest free interval DetectGaps reports.
const DefaultMinGap = 15 * time.Minute

// Interval is anything with a start and an end instant.
type Interval interface {
	Start() time.Time
	End() time.Time
}

// Span is a plain Interval.
type Span struct {
	From time.Time
	To   time.Time
}

func (s Span) Start() time.Time { return s.From }
func (s Span) End() time.Time   { return s.To }

type GapSize string

const (
	GapSmall  GapSize = "Small"
	GapMedium GapSize = "Medium"
	GapLarge  GapSize = "Large"
)

func SizeOf(minutes int64) GapSize {
	switch {
	case minutes < 30:
		return GapSmall
	case minutes < 60:
		return GapMedium
	default:
		return GapLarge
	}
}

type Gap struct {
	StartTime time.Time
	EndTime   time.Time
	Size      GapSize
}

func (g Gap) DurationMinutes() int64 {
	return int64(g.EndTime.Sub(g.StartTime) / time.Minute)
}

func (g Gap) CanFit(minutes int64) bool {
	return g.DurationMinutes() >= minutes
}

type Detector struct {
	MinGap time.Duration
}

func NewDetector() Detector {
	return Detector{MinGap: DefaultMinGap}
}

// DetectGaps finds gaps of at least DefaultMinGap inside [windowStart, windowEnd].
func DetectGaps(busy []Interval, windowStart, windowEnd time.Time) []Gap {
	return NewDetector().FindGaps(busy, windowStart, windowEnd)
}

// FindGaps returns free intervals sorted by start, non-overlapping and
// contained in [windowStart, windowEnd]. Busy intervals may overlap each
// other or extend past the window.
func (d Detector) FindGaps(busy []Interval, windowStart, windowEnd time.Time) []Gap {
	if !windowEnd.After(windowStart) {
		return nil
	}

	sorted := make([]Span, 0, len(busy))
	for _, iv := range busy {
		if iv == nil || !iv.End().After(iv.Start()) {
			continue
		}
		sorted = append(sorted, Span{From: iv.Start(), To: iv.End()})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].From.Before(sorted[j].From)
	})

	out := make([]Gap, 0)
	cursor := windowStart
	for _, s := range sorted {
		if !s.To.After(cursor) {
			continue
		}
		if !s.From.Before(windowEnd) {
			break
		}
		if s.From.After(cursor) {
			out = d.appendGap(out, cursor, s.From)
		}
		cursor = minTime(s.To, windowEnd)
	}
	if cursor.Before(windowEnd) {
		out = d.appendGap(out, cursor, windowEnd)
	}
	return out
}

func (d Detector) appendGap(out []Gap, start, end time.Time) []Gap {
	if end.Sub(start) < d.MinGap {
		return out
	}
	g := Gap{StartTime: start, EndTime: end}
	g.Size = SizeOf(g.DurationMinutes())
	return append(out, g)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
