package core

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		drivers []SignalLevel
		want    SignalLevel
	}{
		{"no drivers", []SignalLevel{Z, Z}, Z},
		{"single driver", []SignalLevel{High, Z}, High},
		{"agreeing drivers", []SignalLevel{Low, Low}, Low},
		{"disagreeing drivers", []SignalLevel{High, Low}, X},
		{"contention already X", []SignalLevel{X, High}, X},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.drivers); got != tc.want {
				t.Errorf("Resolve(%v) = %v, want %v\n%s", tc.drivers, got, tc.want, spew.Sdump(tc.drivers))
			}
		})
	}
}

func TestInverterRoundTrip(t *testing.T) {
	for _, v := range []SignalLevel{Low, High} {
		if got := v.Invert().Invert(); got != v {
			t.Errorf("Invert(Invert(%v)) = %v, want %v", v, got, v)
		}
	}
}

func TestSchedulerStepMonotone(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	a := s.AllocSignal("A", Low)

	if err := s.Schedule(100, a, High, SourceStimulus); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := s.Schedule(50, a, Low, SourceStimulus); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	var times []Time
	for {
		tm, ok := s.Step()
		if !ok {
			break
		}
		times = append(times, tm)
	}
	if len(times) != 2 {
		t.Fatalf("got %d events, want 2: %s", len(times), spew.Sdump(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Fatalf("event times not monotone: %v", times)
		}
	}
}

func TestScheduleInPast(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	a := s.AllocSignal("A", Low)
	if err := s.Schedule(10, a, High, SourceStimulus); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	s.Step()
	if err := s.Schedule(0, a, Low, SourceStimulus); err == nil {
		t.Fatalf("Schedule in past: got nil error, want ScheduleInPast")
	}
}

func TestGatePropagation(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	a := s.AllocSignal("A", Low)
	b := s.AllocSignal("B", Low)
	out := s.AllocSignal("OUT", High) // NAND(0,0) = 1, matches initial

	g := NewNand2(a, b, out, 0)
	s.AddGate(g)

	if err := s.Schedule(10, a, High, SourceStimulus); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := s.Schedule(10, b, High, SourceStimulus); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	s.RunUntil(10 + Time(DelayNAND2) + 1)

	if got := s.Level(out); got != Low {
		t.Errorf("NAND(1,1) = %v, want Low\n%s", got, spew.Sdump(s.Stats()))
	}
}

func TestSRLatchHoldsOnForbidden(t *testing.T) {
	latch := NewSRLatch(InvalidSignalID+1, InvalidSignalID+2, InvalidSignalID+3, 0)
	if got := latch.Evaluate([]SignalLevel{High, Low}); got != High {
		t.Fatalf("set: got %v, want High", got)
	}
	if got := latch.Evaluate([]SignalLevel{High, High}); got != High {
		t.Fatalf("forbidden should hold: got %v, want High", got)
	}
	if got := latch.Evaluate([]SignalLevel{Low, High}); got != Low {
		t.Fatalf("reset: got %v, want Low", got)
	}
}

func TestDFlipFlopSamplesOnRisingEdge(t *testing.T) {
	dff := NewDFlipFlop(InvalidSignalID+1, InvalidSignalID+2, InvalidSignalID+3, 0)
	dff.Evaluate([]SignalLevel{High, Low}) // D=1, clk=Low: no sample yet
	if got := dff.state; got != Low {
		t.Fatalf("before edge: state = %v, want Low", got)
	}
	dff.Evaluate([]SignalLevel{High, High}) // rising edge samples D=1
	if got := dff.state; got != High {
		t.Fatalf("after edge: state = %v, want High", got)
	}
	dff.Evaluate([]SignalLevel{Low, High}) // D changes while clk still High: no resample
	if got := dff.state; got != High {
		t.Fatalf("held high clk: state = %v, want High", got)
	}
}
