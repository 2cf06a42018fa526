package core

import "sort"

// SignalLevel is the four-valued logic level carried by a Signal.
type SignalLevel int

const (
	Low SignalLevel = iota
	High
	Z // undriven / tri-state
	X // contention / undefined
)

func (l SignalLevel) String() string {
	switch l {
	case Low:
		return "L"
	case High:
		return "H"
	case Z:
		return "Z"
	default:
		return "X"
	}
}

// Invert returns the logical complement. Undefined inputs stay undefined.
func (l SignalLevel) Invert() SignalLevel {
	switch l {
	case Low:
		return High
	case High:
		return Low
	default:
		return X
	}
}

// And implements four-valued AND. Low is absorbing (Low AND _ = Low).
func (l SignalLevel) And(r SignalLevel) SignalLevel {
	if l == Low || r == Low {
		return Low
	}
	if l == High && r == High {
		return High
	}
	return X
}

// Or implements four-valued OR. High is absorbing (High OR _ = High).
func (l SignalLevel) Or(r SignalLevel) SignalLevel {
	if l == High || r == High {
		return High
	}
	if l == Low && r == Low {
		return Low
	}
	return X
}

// Resolve combines a set of bus drivers into a single level: all-Z
// resolves to Z, a single defined value resolves to itself, and
// disagreeing defined values resolve to X.
func Resolve(drivers []SignalLevel) SignalLevel {
	defined := false
	var val SignalLevel
	sawX := false
	for _, d := range drivers {
		switch d {
		case Z:
			continue
		case X:
			sawX = true
		default:
			if !defined {
				val, defined = d, true
			} else if val != d {
				sawX = true
			}
		}
	}
	if sawX {
		return X
	}
	if !defined {
		return Z
	}
	return val
}

// SignalID is an opaque dense identifier assigned by the Scheduler.
type SignalID uint32

// InvalidSignalID is the reserved sentinel for "no signal".
const InvalidSignalID SignalID = 0

const defaultMaxHistory = 10_000

type transition struct {
	time  Time
	level SignalLevel
}

// Signal is a named four-valued wire with a bounded transition history.
type Signal struct {
	Name       string
	id         SignalID
	level      SignalLevel
	history    []transition
	maxHistory int
}

func newSignal(id SignalID, name string, initial SignalLevel) *Signal {
	return &Signal{
		Name:       name,
		id:         id,
		level:      initial,
		maxHistory: defaultMaxHistory,
	}
}

// ID returns this signal's dense identifier.
func (s *Signal) ID() SignalID { return s.id }

// Level returns the signal's current level.
func (s *Signal) Level() SignalLevel { return s.level }

// update appends a transition and evicts the oldest quartile of
// history once the bound is reached, matching the scheduler's
// quartile-eviction policy rather than a hard ring buffer.
func (s *Signal) update(t Time, level SignalLevel) {
	s.level = level
	s.history = append(s.history, transition{t, level})
	if len(s.history) > s.maxHistory {
		evict := s.maxHistory / 4
		s.history = append([]transition(nil), s.history[evict:]...)
	}
}

// ValueAt returns the level the signal held at time t. Before the
// first recorded transition it returns the inverse of that first
// recorded value (matching the original implementation's convention
// for "value before we started watching"); with no history at all it
// returns the signal's current level.
func (s *Signal) ValueAt(t Time) SignalLevel {
	if len(s.history) == 0 {
		return s.level
	}
	i := sort.Search(len(s.history), func(i int) bool {
		return s.history[i].time > t
	})
	if i == 0 {
		return s.history[0].level.Invert()
	}
	return s.history[i-1].level
}

// resetHistory clears the transition log but preserves the signal's
// current level, matching Scheduler.Reset's "clears each signal's
// history but preserves the signal" contract.
func (s *Signal) resetHistory() {
	s.history = nil
}

// Bus4 groups four signals treated as a nibble, LSB = bit 0.
type Bus4 [4]SignalID

// NibbleValue reads a nibble from a Scheduler's current signal state,
// treating Z or X on any line as producing a 0 in that bit position
// rather than failing; a 0 bit therefore does not distinguish Low from
// an undefined line.
func NibbleValue(sched *Scheduler, b Bus4) uint8 {
	var v uint8
	for i, id := range b {
		if sched.Level(id) == High {
			v |= 1 << uint(i)
		}
	}
	return v
}
