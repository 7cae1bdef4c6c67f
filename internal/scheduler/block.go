package scheduler

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockTypeFocus BlockType = "Focus"
	BlockTypeBreak BlockType = "Break"
)

func (t BlockType) IsValid() bool {
	return t == BlockTypeFocus || t == BlockTypeBreak
}

// ScheduledBlock is one contiguous run of pomodoros for a task, or a break.
// EndTime is always after StartTime and PomodoroCount is at least 1 for focus blocks.
type ScheduledBlock struct {
	ID            string
	TaskID        string
	TaskTitle     string
	Type          BlockType
	Lane          int
	StartTime     time.Time
	EndTime       time.Time
	PomodoroCount int
	BreakMinutes  int
}

func (b ScheduledBlock) DurationMinutes() int64 {
	return int64(b.EndTime.Sub(b.StartTime) / time.Minute)
}

func (b ScheduledBlock) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

func (b ScheduledBlock) Start() time.Time { return b.StartTime }

func (b ScheduledBlock) End() time.Time { return b.EndTime }

var blockNamespace = uuid.MustParse("6f1c8d2e-5b0a-4e57-9a53-0c5d1f3e2b71")

// BlockID derives a stable id so regenerating the same plan yields the same ids.
func BlockID(taskID string, start time.Time, lane int) string {
	key := taskID + "|" + start.UTC().Format(time.RFC3339) + "|" + strconv.Itoa(lane)
	return uuid.NewSHA1(blockNamespace, []byte(key)).String()
}

// FocusBlocks keeps focus blocks, optionally restricted to one lane (lane < 0 keeps all).
func FocusBlocks(blocks []ScheduledBlock, lane int) []ScheduledBlock {
	out := make([]ScheduledBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != BlockTypeFocus {
			continue
		}
		if lane >= 0 && b.Lane != lane {
			continue
		}
		out = append(out, b)
	}
	return out
}
