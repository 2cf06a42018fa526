package trace

import (
	"testing"

	"github.com/mcs4/sim/bus"
)

func TestRecorderAppendsInOrder(t *testing.T) {
	r := NewRecorder()
	if _, ok := r.Last(); ok {
		t.Fatalf("empty recorder should have no Last()")
	}
	r.Record(Capture{Timestamp: 1, Phase: bus.A1})
	r.Record(Capture{Timestamp: 2, Phase: bus.X3})

	if got := r.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	frames := r.Frames()
	if frames[0].Timestamp != 1 || frames[1].Timestamp != 2 {
		t.Fatalf("frames out of order: %+v", frames)
	}
	last, ok := r.Last()
	if !ok || last.Timestamp != 2 {
		t.Fatalf("Last() = %+v, ok=%v, want timestamp 2", last, ok)
	}
}

func TestRecorderClear(t *testing.T) {
	r := NewRecorder()
	r.Record(Capture{Timestamp: 1})
	r.Clear()
	if got := r.Len(); got != 0 {
		t.Fatalf("Len() after Clear() = %d, want 0", got)
	}
	if _, ok := r.Last(); ok {
		t.Fatalf("Last() after Clear() should report ok=false")
	}
}
