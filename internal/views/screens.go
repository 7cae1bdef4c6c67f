package views

import (
	"fmt"
	"strings"
)

type EventData struct {
	Title string
	Start string
	End   string
	Fixed bool
}

type PlanPanelData struct {
	Day         string
	Window      string
	Summary     string
	TableView   string
	BlockCount  int
	Events      []EventData
	Loading     bool
	SpinnerView string
}

type CandidateData struct {
	Start     string
	Score     float64
	Rationale string
}

type BreakReportData struct {
	Day        string
	Start      string
	End        string
	Score      float64
	Rationale  string
	Fixed      bool
	Stored     bool
	Candidates []CandidateData
}

type CueData struct {
	At    string
	Kind  string
	Title string
}

type CuePanelData struct {
	Pending int
	Dropped uint64
	Log     []CueData
}

type NowPanelData struct {
	Clock        string
	Current      string
	CurrentKind  string
	Remaining    string
	ProgressView string
	Next         string
	NextAt       string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderPlanPanel(data PlanPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("plan: %s\n", data.Day))
	if data.Loading {
		b.WriteString(fmt.Sprintf("%s generating...\n", data.SpinnerView))
	}
	if data.Window != "" {
		b.WriteString(fmt.Sprintf("window: %s\n", data.Window))
	}
	if data.Summary != "" {
		b.WriteString(data.Summary + "\n")
	}
	b.WriteString("actions: [j/k]move [r]replan [b]long break [[/]]day\n")
	if data.BlockCount == 0 && !data.Loading {
		b.WriteString("\n(no blocks: add tasks with /task or widen the window)\n")
	} else {
		b.WriteString(data.TableView + "\n")
	}

	b.WriteString("\nbusy:\n")
	if len(data.Events) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, ev := range data.Events {
		tag := "[CAL]"
		if ev.Fixed {
			tag = "[FIX]"
		}
		b.WriteString(fmt.Sprintf("  %s %s-%s %s\n", tag, ev.Start, ev.End, ev.Title))
	}
	return strings.TrimSpace(b.String())
}

// BreakReport renders a placement as markdown for RenderMarkdown.
func BreakReport(data BreakReportData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Long break %s\n\n", data.Day))
	b.WriteString(fmt.Sprintf("**%s - %s** (score %.2f)\n\n", data.Start, data.End, data.Score))
	b.WriteString(data.Rationale + "\n\n")
	if data.Fixed {
		b.WriteString("_Fixed mode is on._\n\n")
	}
	if data.Stored {
		b.WriteString("Stored with the plan.\n\n")
	} else {
		b.WriteString("Not stored.\n\n")
	}
	if len(data.Candidates) > 0 {
		b.WriteString("| start | score | rationale |\n|---|---|---|\n")
		for _, c := range data.Candidates {
			b.WriteString(fmt.Sprintf("| %s | %.2f | %s |\n", c.Start, c.Score, c.Rationale))
		}
	}
	return b.String()
}

func RenderBreakPanel(viewportView string, placed bool) string {
	if !placed {
		return "long break:\n(press b or run /break to place one)"
	}
	return "long break:\nactions: [j/k]scroll\n" + viewportView
}

func RenderCuePanel(data CuePanelData) string {
	var b strings.Builder
	b.WriteString("cues:\n")
	b.WriteString(fmt.Sprintf("pending: %d | dropped: %d\n", data.Pending, data.Dropped))
	if len(data.Log) == 0 {
		b.WriteString("(no cues fired yet)")
		return b.String()
	}
	for i := len(data.Log) - 1; i >= 0; i-- {
		c := data.Log[i]
		b.WriteString(fmt.Sprintf("%s %s %s\n", c.At, BlockKind(c.Kind), c.Title))
	}
	return strings.TrimSpace(b.String())
}

func RenderNowPanel(data NowPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("now: %s\n", data.Clock))
	if data.Current == "" {
		b.WriteString("current: (free)\n")
	} else {
		b.WriteString(fmt.Sprintf("current: %s %s\n", BlockKind(data.CurrentKind), data.Current))
		b.WriteString(fmt.Sprintf("remaining: %s\n", data.Remaining))
		b.WriteString(fmt.Sprintf("progress: %s\n", data.ProgressView))
	}
	if data.Next != "" {
		b.WriteString(fmt.Sprintf("next: %s @%s\n", data.Next, data.NextAt))
	} else {
		b.WriteString("next: (nothing left today)\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command:\n" + inputView
}

func RenderLastCue(cue *CueData) string {
	if cue == nil {
		return ""
	}
	return fmt.Sprintf("last cue: [%s] %s @ %s", strings.ToUpper(cue.Kind), cue.Title, cue.At)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
