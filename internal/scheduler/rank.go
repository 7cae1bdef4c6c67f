package scheduler

import (
	"sort"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
)

// PreferredEnergy maps an hour of day to the energy it suits best:
// mornings High, afternoons (12-16) Medium, evenings Low.
func PreferredEnergy(hour int) model.Energy {
	switch {
	case hour < 12:
		return model.EnergyHigh
	case hour < 17:
		return model.EnergyMedium
	default:
		return model.EnergyLow
	}
}

// EnergyMatch scores 3 for an exact match, 1 for adjacent levels and 0 for High vs Low.
func EnergyMatch(task, preferred model.Energy) int {
	diff := task.Rank() - preferred.Rank()
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 3
	case 1:
		return 1
	default:
		return 0
	}
}

// Eligible reports whether a task can be offered to the assigner.
func Eligible(t model.Task) bool {
	return t.State == model.TaskStateReady &&
		!t.Completed &&
		t.Category == model.CategoryActive &&
		t.EstimatedPomodoros > t.CompletedPomodoros
}

// FilterTasks keeps eligible tasks in input order. A task id seen twice keeps its first entry.
func FilterTasks(tasks []model.Task) []model.Task {
	seen := make(map[string]bool, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !Eligible(t) || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// RankTasks sorts in place by energy match, then priority, then project presence.
// Equal tasks keep their input order.
func RankTasks(tasks []model.Task, dayStart time.Time) {
	preferred := PreferredEnergy(dayStart.Hour())
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if ma, mb := EnergyMatch(a.Energy, preferred), EnergyMatch(b.Energy, preferred); ma != mb {
			return ma > mb
		}
		if pa, pb := a.EffectivePriority(), b.EffectivePriority(); pa != pb {
			return pa > pb
		}
		return a.HasProject() && !b.HasProject()
	})
}
