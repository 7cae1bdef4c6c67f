package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidCueTime = errors.New("scheduler: invalid cue time")
	ErrCuesStopped    = errors.New("scheduler: cue engine stopped")
)

type CueKind string

const (
	CueFocusStart CueKind = "focus_start"
	CueBreakStart CueKind = "break_start"
)

// Cue announces that a planned block begins at At.
type Cue struct {
	ID      string
	BlockID string
	Kind    CueKind
	Title   string
	At      time.Time
}

// CueForBlock builds the start cue for a planned block.
func CueForBlock(b ScheduledBlock) Cue {
	kind := CueFocusStart
	if b.Type == BlockTypeBreak {
		kind = CueBreakStart
	}
	return Cue{
		ID:      b.ID + ":" + string(kind),
		BlockID: b.ID,
		Kind:    kind,
		Title:   b.TaskTitle,
		At:      b.StartTime,
	}
}

type cueQueue []Cue

func (q cueQueue) Len() int { return len(q) }

func (q cueQueue) Less(i, j int) bool {
	return q[i].At.Before(q[j].At)
}

func (q cueQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *cueQueue) Push(x any) {
	*q = append(*q, x.(Cue))
}

func (q *cueQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// CueEngine delivers cues on C() when their time arrives. Delivery never
// blocks: cues that find the channel full are counted in Dropped.
type CueEngine struct {
	mu      sync.Mutex
	queue   cueQueue
	out     chan Cue
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewCueEngine(bufferSize int) *CueEngine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &CueEngine{
		queue:  make(cueQueue, 0),
		out:    make(chan Cue, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *CueEngine) C() <-chan Cue {
	return e.out
}

func (e *CueEngine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *CueEngine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *CueEngine) Schedule(c Cue) error {
	if c.At.IsZero() {
		return ErrInvalidCueTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrCuesStopped
	}

	heap.Push(&e.queue, c)
	e.signalWakeup()
	return nil
}

// Replace drops every pending cue and queues the given ones, skipping cues
// already in the past relative to now.
func (e *CueEngine) Replace(cues []Cue, now time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return 0, ErrCuesStopped
	}
	e.queue = e.queue[:0]
	queued := 0
	for _, c := range cues {
		if c.At.IsZero() || c.At.Before(now) {
			continue
		}
		e.queue = append(e.queue, c)
		queued++
	}
	heap.Init(&e.queue)
	e.signalWakeup()
	return queued, nil
}

func (e *CueEngine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *CueEngine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *CueEngine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, ok := e.peek()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.At)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, c := range e.popDue(time.Now()) {
				select {
				case e.out <- c:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *CueEngine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *CueEngine) peek() (Cue, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Cue{}, false
	}
	return e.queue[0], true
}

func (e *CueEngine) popDue(now time.Time) []Cue {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Cue, 0)
	for len(e.queue) > 0 && !e.queue[0].At.After(now) {
		out = append(out, heap.Pop(&e.queue).(Cue))
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
