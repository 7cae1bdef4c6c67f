package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/dayplan/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	global := m.keyBindings(m.globalBindings())
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: global,
			full:  [][]key.Binding{global},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Plan, Action: "plan"},
		{Key: m.Keys.Break, Action: "long break"},
		{Key: m.Keys.Cues, Action: "cues"},
		{Key: m.Keys.Now, Action: "now"},
		{Key: "/", Action: "command palette"},
		{Key: m.Keys.Help, Action: "help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewPlan:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: m.Keys.Replan, Action: "regenerate the plan"},
			{Key: m.Keys.Place, Action: "place the long break"},
			{Key: m.Keys.PrevDay + "/" + m.Keys.NextDay, Action: "previous/next day"},
			{Key: m.Keys.Today, Action: "jump to today"},
		}
	case ViewBreak:
		return []KeyBinding{
			{Key: "j/k", Action: "scroll the report"},
			{Key: m.Keys.Place, Action: "place again"},
		}
	case ViewCues:
		return []KeyBinding{{Key: m.Keys.Replan, Action: "regenerate and re-arm cues"}}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) keyBindings(kbs []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
