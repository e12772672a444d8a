// Package simtime implements a single-threaded, cooperative discrete-event
// scheduler: a virtual clock advanced by a min-heap of pending events,
// FIFO tie-break at equal virtual time, and no real concurrency — every
// "fiber" is a plain closure the scheduler invokes
// synchronously, which is what makes a seeded run bit-reproducible by
// construction rather than by convention.
package simtime

import (
	"container/heap"
	"log/slog"
)

// Time is virtual simulated time, in seconds.
type Time float64

// Action is a unit of work the scheduler executes at its scheduled time. It
// receives the scheduler so it can reschedule itself (modeling a fiber's
// next suspension point) or spawn further events.
type Action func(s *Scheduler)

type event struct {
	at   Time
	seq  uint64
	run  Action
	live *bool // nil, or points at a cancellation flag checked before run
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq // FIFO tie-break ordering contract
}
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)         { *h = append(*h, x.(*event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Scheduler drives virtual time forward, dispatching due events in
// (time, insertion-order) order.
type Scheduler struct {
	now     Time
	heap    eventHeap
	nextSeq uint64
	logger  *slog.Logger
	onTick  func(Time) // optional, invoked whenever Now crosses an integer second
	lastSec int64
}

// New creates a scheduler starting at virtual time 0.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{logger: logger.With("component", "scheduler")}
	heap.Init(&s.heap)
	return s
}

// Now returns the current virtual time.
func (s *Scheduler) Now() Time { return s.now }

// OnSecondTick registers a callback, used for the `Runtime: t/runtime …`
// progress line. It fires at most once per whole simulated second, when the
// first event in a new second is dispatched, with that second; a second in
// which no event runs is not reported.
func (s *Scheduler) OnSecondTick(fn func(Time)) { s.onTick = fn }

// After schedules action to run at s.Now()+delay. delay must be >= 0.
func (s *Scheduler) After(delay Time, action Action) {
	s.at(s.now+delay, action, nil)
}

// At schedules action to run at the given absolute virtual time.
func (s *Scheduler) At(at Time, action Action) {
	s.at(at, action, nil)
}

// Cancellable schedules action to run at s.Now()+delay and returns a cancel
// function; calling it before the event fires suppresses the run (models
// interrupt delivery to a suspended fiber "Cancellation").
func (s *Scheduler) Cancellable(delay Time, action Action) (cancel func()) {
	live := true
	s.at(s.now+delay, action, &live)
	return func() { live = false }
}

func (s *Scheduler) at(at Time, action Action, live *bool) {
	if at < s.now {
		at = s.now
	}
	e := &event{at: at, seq: s.nextSeq, run: action, live: live}
	s.nextSeq++
	heap.Push(&s.heap, e)
}

// Run drains the event heap, advancing Now to each event's time, until
// either the heap empties or until limit (exclusive upper bound) is reached.
func (s *Scheduler) Run(limit Time) {
	for s.heap.Len() > 0 {
		next := s.heap[0]
		if next.at >= limit {
			s.now = limit
			return
		}
		heap.Pop(&s.heap)
		s.now = next.at
		s.tickSeconds()
		if next.live != nil && !*next.live {
			continue
		}
		next.run(s)
	}
	s.now = limit
}

func (s *Scheduler) tickSeconds() {
	if s.onTick == nil {
		return
	}
	sec := int64(s.now)
	if sec > s.lastSec {
		s.lastSec = sec
		s.onTick(Time(sec))
	}
}

// Pending reports how many events are currently queued.
func (s *Scheduler) Pending() int { return s.heap.Len() }
