package core

import (
	"container/heap"
	"fmt"
)

// Config controls scheduler limits.
type Config struct {
	// MaxTime stops Step from advancing once exceeded. Zero means
	// unbounded.
	MaxTime Time
	// RecordHistory disables history appends entirely when false,
	// useful for long runs that only care about current levels.
	RecordHistory bool
	// MaxHistory bounds each signal's transition log (default 10,000
	// if zero).
	MaxHistory int
	// MaxDeltaCycles bounds the number of gate re-evaluations a single
	// applied event may trigger. When it is exceeded, the remaining
	// gates fanned out from that event are not evaluated and
	// DeltaCycleExhaustion is recorded; later events are still
	// processed. Re-evaluations are not counted across events that share
	// a timestamp.
	MaxDeltaCycles int
}

// DefaultConfig returns the scheduler defaults used throughout this
// module: unlimited time, history on, 10,000-entry signal logs, and a
// 1,000 delta-cycle guard.
func DefaultConfig() Config {
	return Config{
		RecordHistory:  true,
		MaxHistory:     defaultMaxHistory,
		MaxDeltaCycles: 1000,
	}
}

// Stats accumulates scheduler run-time statistics.
type Stats struct {
	EventsProcessed uint64
	TimeElapsed     Time
	PeakQueueDepth  int
}

// DeltaCycleExhaustion is recorded (see Scheduler.LastError) when a
// single applied event fans out to more than Config.MaxDeltaCycles gate
// re-evaluations.
type DeltaCycleExhaustion struct {
	Time    Time
	Signals []SignalID
}

// Error implements the error interface.
func (e DeltaCycleExhaustion) Error() string {
	return fmt.Sprintf("delta cycle exhaustion at time %d involving %d signal(s)", e.Time, len(e.Signals))
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is a single-threaded, time-ordered event queue and
// four-valued signal propagation engine.
type Scheduler struct {
	cfg     Config
	queue   eventHeap
	signals map[SignalID]*Signal
	names   map[string]SignalID
	nextID  SignalID
	gates   []Gate
	fanout  map[SignalID][]int // signal -> indices into gates, gates reading it as input
	seq     uint64
	now     Time
	stats   Stats
	lastErr error
}

// NewScheduler builds an empty scheduler with the given configuration.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.MaxHistory == 0 {
		cfg.MaxHistory = defaultMaxHistory
	}
	if cfg.MaxDeltaCycles == 0 {
		cfg.MaxDeltaCycles = 1000
	}
	return &Scheduler{
		cfg:     cfg,
		signals: map[SignalID]*Signal{},
		names:   map[string]SignalID{},
		fanout:  map[SignalID][]int{},
		nextID:  InvalidSignalID + 1,
	}
}

// Now returns the scheduler's current simulated time.
func (s *Scheduler) Now() Time { return s.now }

// Stats returns a copy of the scheduler's run-time statistics.
func (s *Scheduler) Stats() Stats { return s.stats }

// AllocSignal installs a new named signal at the given initial level
// and returns its dense id.
func (s *Scheduler) AllocSignal(name string, initial SignalLevel) SignalID {
	id := s.nextID
	s.nextID++
	sig := newSignal(id, name, initial)
	sig.maxHistory = s.cfg.MaxHistory
	s.signals[id] = sig
	s.names[name] = id
	return id
}

// Signal returns the named signal, or nil if it was never allocated.
func (s *Scheduler) Signal(id SignalID) *Signal {
	return s.signals[id]
}

// Level returns the current level of a signal, or X if the id is
// unknown (e.g. already pruned for a test).
func (s *Scheduler) Level(id SignalID) SignalLevel {
	if sig, ok := s.signals[id]; ok {
		return sig.Level()
	}
	return X
}

// AddGate registers a gate and indexes it under each of its input
// signal ids, returning the gate's index for use as Event.GateIdx.
func (s *Scheduler) AddGate(g Gate) int {
	idx := len(s.gates)
	s.gates = append(s.gates, g)
	for _, in := range g.Inputs() {
		s.fanout[in] = append(s.fanout[in], idx)
	}
	return idx
}

// Schedule enqueues an event at an absolute time. Scheduling in the
// past is rejected with ScheduleInPast; writes to an unknown SignalID
// are silently ignored per the failure semantics in the bus layer.
func (s *Scheduler) Schedule(t Time, target SignalID, value SignalLevel, source EventSource) error {
	if t < s.now {
		return ScheduleInPast{Requested: t, Current: s.now}
	}
	s.seq++
	heap.Push(&s.queue, &Event{Time: t, Target: target, Value: value, Source: source, seq: s.seq})
	if s.queue.Len() > s.stats.PeakQueueDepth {
		s.stats.PeakQueueDepth = s.queue.Len()
	}
	return nil
}

// ScheduleDelta enqueues an event relative to the current time.
func (s *Scheduler) ScheduleDelta(delay Delay, target SignalID, value SignalLevel, source EventSource) error {
	return s.Schedule(s.now+Time(delay), target, value, source)
}

// scheduleGate enqueues a gate-sourced event, tagging it with the
// originating gate index for trace/debug purposes.
func (s *Scheduler) scheduleGate(t Time, target SignalID, value SignalLevel, gateIdx int) {
	s.seq++
	heap.Push(&s.queue, &Event{Time: t, Target: target, Value: value, Source: SourceGate, GateIdx: gateIdx, seq: s.seq})
	if s.queue.Len() > s.stats.PeakQueueDepth {
		s.stats.PeakQueueDepth = s.queue.Len()
	}
}

// Step pops the earliest event, applies it, and propagates the change
// through the gate graph. It returns the new current time and true, or
// (0, false) when the queue is empty or Config.MaxTime has been
// exceeded.
func (s *Scheduler) Step() (Time, bool) {
	if s.queue.Len() == 0 {
		return 0, false
	}
	top := s.queue[0]
	if s.cfg.MaxTime != 0 && top.Time > s.cfg.MaxTime {
		return 0, false
	}
	ev := heap.Pop(&s.queue).(*Event)
	s.now = ev.Time
	s.applyEvent(ev)
	s.stats.EventsProcessed++
	s.stats.TimeElapsed = s.now
	return s.now, true
}

// applyEvent performs no-op suppression, updates signal state, and
// re-evaluates every gate fanned out from the changed signal, bounded
// by Config.MaxDeltaCycles to guard against zero-delay oscillation.
func (s *Scheduler) applyEvent(ev *Event) {
	sig, ok := s.signals[ev.Target]
	if !ok {
		return // unknown target: silently ignored
	}
	if sig.Level() == ev.Value {
		return // no-op suppression
	}
	if s.cfg.RecordHistory {
		sig.update(ev.Time, ev.Value)
	} else {
		sig.level = ev.Value
	}

	deltas := 0
	touched := map[SignalID]bool{ev.Target: true}
	for _, gidx := range s.fanout[ev.Target] {
		deltas++
		if deltas > s.cfg.MaxDeltaCycles {
			var sigs []SignalID
			for id := range touched {
				sigs = append(sigs, id)
			}
			s.lastErr = DeltaCycleExhaustion{Time: s.now, Signals: sigs}
			return
		}
		s.evaluateGate(gidx, touched)
	}
}

// LastError returns the most recent non-fatal diagnostic recorded by
// the scheduler (currently only DeltaCycleExhaustion), or nil. It is
// cleared on Reset.
func (s *Scheduler) LastError() error { return s.lastErr }

// evaluateGate recomputes a gate's output from its current input
// levels and, if the output differs from its current level, schedules
// a new event at the gate's propagation delay.
func (s *Scheduler) evaluateGate(gidx int, touched map[SignalID]bool) {
	g := s.gates[gidx]
	ins := make([]SignalLevel, len(g.Inputs()))
	for i, id := range g.Inputs() {
		ins[i] = s.Level(id)
	}
	newVal := g.Evaluate(ins)
	out := g.Output()
	if s.Level(out) == newVal {
		return
	}
	touched[out] = true
	s.scheduleGate(s.now+Time(g.PropagationDelay()), out, newVal, gidx)
}

// RunUntil steps the scheduler until its time reaches or exceeds end,
// or the queue drains.
func (s *Scheduler) RunUntil(end Time) {
	for {
		if s.queue.Len() == 0 || s.queue[0].Time > end {
			return
		}
		if _, ok := s.Step(); !ok {
			return
		}
	}
}

// RunEvents steps the scheduler exactly n times or until the queue
// drains, whichever comes first.
func (s *Scheduler) RunEvents(n int) {
	for i := 0; i < n; i++ {
		if _, ok := s.Step(); !ok {
			return
		}
	}
}

// Reset empties the event queue and zeroes run statistics, clears each
// signal's transition history (preserving the signal and gate maps
// themselves), and restores current time to zero.
func (s *Scheduler) Reset() {
	s.queue = nil
	s.stats = Stats{}
	s.now = 0
	s.lastErr = nil
	for _, sig := range s.signals {
		sig.resetHistory()
	}
}
