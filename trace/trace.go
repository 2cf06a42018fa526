// Package trace implements an append-only signal-trace recorder: the
// minimal hook a waveform viewer or regression harness needs to
// observe bus activity, without the simulator depending on any
// particular rendering front end.
package trace

import (
	"github.com/mcs4/sim/bus"
	"github.com/mcs4/sim/core"
)

// Capture is one machine cycle's worth of observable bus state, taken
// at the end of X3 (the cycle boundary where every control line has
// settled for the cycle just finished).
type Capture struct {
	Timestamp uint64 // cycle count
	WallTime  core.Time // scheduler-driven simulated time, in picoseconds
	Phi1      bool
	Phi2      bool
	Sync      bool
	DataBus   uint8
	CMROM     uint8
	CMRAM     uint8
	Phase     bus.BusCycle
}

// Recorder accumulates Captures in order. It never drops entries
// itself; callers that want bounded memory should periodically drain
// Frames() and Clear().
type Recorder struct {
	frames []Capture
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends one Capture.
func (r *Recorder) Record(c Capture) { r.frames = append(r.frames, c) }

// Frames returns every Capture recorded so far, oldest first.
func (r *Recorder) Frames() []Capture { return r.frames }

// Len returns the number of Captures currently buffered.
func (r *Recorder) Len() int { return len(r.frames) }

// Clear empties the buffer without otherwise resetting the Recorder.
func (r *Recorder) Clear() { r.frames = nil }

// Last returns the most recently recorded Capture and whether one exists.
func (r *Recorder) Last() (Capture, bool) {
	if len(r.frames) == 0 {
		return Capture{}, false
	}
	return r.frames[len(r.frames)-1], true
}
