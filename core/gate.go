package core

// GateType names a gate's combinational or storage function.
type GateType int

const (
	GateInv GateType = iota
	GateNand2
	GateNand3
	GateNand4
	GateNor2
	GateNor3
	GateNor4
	GateAnd2
	GateOr2
	GateXor2
	GateMux2
	GateSRLatch
	GateDFlipFlop
)

// baseDelay returns the per-type base propagation delay before fanout.
func baseDelay(t GateType) Delay {
	switch t {
	case GateInv:
		return DelayINV
	case GateNand2:
		return DelayNAND2
	case GateNand3:
		return DelayNAND3
	case GateNand4:
		return DelayNAND4
	case GateNor2:
		return DelayNOR2
	case GateNor3:
		return DelayNOR3
	case GateNor4:
		return DelayNOR4
	case GateAnd2:
		// Modeled as NAND2 + INV.
		return DelayNAND2 + DelayINV
	case GateOr2:
		// Modeled as NOR2 + INV.
		return DelayNOR2 + DelayINV
	case GateXor2:
		return DelayXOR2
	case GateMux2:
		return DelayMUX2
	case GateSRLatch:
		return DelayLatch
	case GateDFlipFlop:
		return DelayDFF
	default:
		return DelayINV
	}
}

// Gate is a pure combinational (or storage) element wired between
// scheduler signals. Evaluate computes the next output level from the
// current input levels; storage gates additionally carry internal
// state across calls.
type Gate interface {
	Type() GateType
	Inputs() []SignalID
	Output() SignalID
	PropagationDelay() Delay
	// Evaluate computes the gate's output given the current levels of
	// its inputs, in input order.
	Evaluate(inputs []SignalLevel) SignalLevel
}

type baseGate struct {
	gt     GateType
	inputs []SignalID
	output SignalID
	fanout int
}

func (g *baseGate) Type() GateType             { return g.gt }
func (g *baseGate) Inputs() []SignalID         { return g.inputs }
func (g *baseGate) Output() SignalID           { return g.output }
func (g *baseGate) PropagationDelay() Delay    { return WithFanout(baseDelay(g.gt), g.fanout) }

// Inverter is a single-input NOT gate.
type Inverter struct{ baseGate }

// NewInverter builds an inverter with the given fanout load.
func NewInverter(in, out SignalID, fanout int) *Inverter {
	return &Inverter{baseGate{GateInv, []SignalID{in}, out, fanout}}
}

// Evaluate implements Gate.
func (g *Inverter) Evaluate(in []SignalLevel) SignalLevel { return in[0].Invert() }

// Nand2 is a two-input NAND gate.
type Nand2 struct{ baseGate }

// NewNand2 builds a 2-input NAND gate with the given fanout load.
func NewNand2(a, b, out SignalID, fanout int) *Nand2 {
	return &Nand2{baseGate{GateNand2, []SignalID{a, b}, out, fanout}}
}

// Evaluate implements Gate.
func (g *Nand2) Evaluate(in []SignalLevel) SignalLevel { return in[0].And(in[1]).Invert() }

// Nand3 is a three-input NAND gate.
type Nand3 struct{ baseGate }

// NewNand3 builds a 3-input NAND gate with the given fanout load.
func NewNand3(a, b, c, out SignalID, fanout int) *Nand3 {
	return &Nand3{baseGate{GateNand3, []SignalID{a, b, c}, out, fanout}}
}

// Evaluate implements Gate.
func (g *Nand3) Evaluate(in []SignalLevel) SignalLevel {
	return in[0].And(in[1]).And(in[2]).Invert()
}

// Nor2 is a two-input NOR gate.
type Nor2 struct{ baseGate }

// NewNor2 builds a 2-input NOR gate with the given fanout load.
func NewNor2(a, b, out SignalID, fanout int) *Nor2 {
	return &Nor2{baseGate{GateNor2, []SignalID{a, b}, out, fanout}}
}

// Evaluate implements Gate.
func (g *Nor2) Evaluate(in []SignalLevel) SignalLevel { return in[0].Or(in[1]).Invert() }

// Nor3 is a three-input NOR gate.
type Nor3 struct{ baseGate }

// NewNor3 builds a 3-input NOR gate with the given fanout load.
func NewNor3(a, b, c, out SignalID, fanout int) *Nor3 {
	return &Nor3{baseGate{GateNor3, []SignalID{a, b, c}, out, fanout}}
}

// Evaluate implements Gate.
func (g *Nor3) Evaluate(in []SignalLevel) SignalLevel {
	return in[0].Or(in[1]).Or(in[2]).Invert()
}

// And2 is a two-input AND gate, modeled as NAND2+INV for delay purposes.
type And2 struct{ baseGate }

// NewAnd2 builds a 2-input AND gate with the given fanout load.
func NewAnd2(a, b, out SignalID, fanout int) *And2 {
	return &And2{baseGate{GateAnd2, []SignalID{a, b}, out, fanout}}
}

// Evaluate implements Gate.
func (g *And2) Evaluate(in []SignalLevel) SignalLevel { return in[0].And(in[1]) }

// Or2 is a two-input OR gate, modeled as NOR2+INV for delay purposes.
type Or2 struct{ baseGate }

// NewOr2 builds a 2-input OR gate with the given fanout load.
func NewOr2(a, b, out SignalID, fanout int) *Or2 {
	return &Or2{baseGate{GateOr2, []SignalID{a, b}, out, fanout}}
}

// Evaluate implements Gate.
func (g *Or2) Evaluate(in []SignalLevel) SignalLevel { return in[0].Or(in[1]) }

// Xor2 is a two-input XOR gate, modeled as two levels of NAND2 for delay.
type Xor2 struct{ baseGate }

// NewXor2 builds a 2-input XOR gate with the given fanout load.
func NewXor2(a, b, out SignalID, fanout int) *Xor2 {
	return &Xor2{baseGate{GateXor2, []SignalID{a, b}, out, fanout}}
}

// Evaluate implements Gate.
func (g *Xor2) Evaluate(in []SignalLevel) SignalLevel {
	a, b := in[0], in[1]
	if a == X || b == X {
		return X
	}
	if a == b {
		return Low
	}
	return High
}

// Mux2 is a two-input multiplexer selected by a third select line.
type Mux2 struct{ baseGate }

// NewMux2 builds a 2-input MUX (inputs a, b, select sel) with the
// given fanout load.
func NewMux2(a, b, sel, out SignalID, fanout int) *Mux2 {
	return &Mux2{baseGate{GateMux2, []SignalID{a, b, sel}, out, fanout}}
}

// Evaluate implements Gate. Input order is (a, b, sel).
func (g *Mux2) Evaluate(in []SignalLevel) SignalLevel {
	switch in[2] {
	case Low:
		return in[0]
	case High:
		return in[1]
	default:
		return X
	}
}

// SRLatch is a cross-coupled set/reset latch. (S,R)=(H,L) sets,
// (L,H) resets, (L,L) holds, (H,H) is forbidden and holds the prior
// state.
type SRLatch struct {
	baseGate
	state SignalLevel
}

// NewSRLatch builds an SR latch with inputs (s, r) and outputs (q).
// The complementary output is not modeled separately; callers needing
// Q-bar should invert Q.
func NewSRLatch(s, r, q SignalID, fanout int) *SRLatch {
	return &SRLatch{baseGate{GateSRLatch, []SignalID{s, r}, q, fanout}, Low}
}

// Evaluate implements Gate; input order is (s, r).
func (g *SRLatch) Evaluate(in []SignalLevel) SignalLevel {
	s, r := in[0], in[1]
	switch {
	case s == High && r == Low:
		g.state = High
	case s == Low && r == High:
		g.state = Low
	case s == High && r == High:
		// Forbidden combination: hold prior state.
	}
	return g.state
}

// DFlipFlop samples D on the rising edge of CLK (a transition of the
// remembered previous clock level from Low to High).
type DFlipFlop struct {
	baseGate
	state   SignalLevel
	prevClk SignalLevel
}

// NewDFlipFlop builds a D flip-flop with inputs (d, clk) and output q.
func NewDFlipFlop(d, clk, q SignalID, fanout int) *DFlipFlop {
	return &DFlipFlop{baseGate{GateDFlipFlop, []SignalID{d, clk}, q, fanout}, Low, Low}
}

// Evaluate implements Gate; input order is (d, clk).
func (g *DFlipFlop) Evaluate(in []SignalLevel) SignalLevel {
	d, clk := in[0], in[1]
	if g.prevClk == Low && clk == High {
		g.state = d
	}
	g.prevClk = clk
	return g.state
}
