package i4002

import (
	"testing"

	"github.com/mcs4/sim/bus"
)

func TestInitValidatesIDs(t *testing.T) {
	if _, err := Init(&ChipDef{ChipID: 4}); err == nil {
		t.Fatalf("ChipID=4 should be rejected")
	}
	if _, err := Init(&ChipDef{BankID: 4}); err == nil {
		t.Fatalf("BankID=4 should be rejected")
	}
	if _, err := Init(&ChipDef{ChipID: 3, BankID: 3}); err != nil {
		t.Fatalf("ChipID=3,BankID=3 should be valid, got %v", err)
	}
}

func TestDirectReadWrite(t *testing.T) {
	c, _ := Init(&ChipDef{ChipID: 0, BankID: 0})
	c.WriteDirect(2, 9, 0xB)
	if got := c.ReadDirect(2, 9); got != 0xB {
		t.Fatalf("ReadDirect(2,9) = %#x, want 0xB", got)
	}
}

// setup builds a chip with the given bank/chip ids attached to a fresh
// bus, plus fresh control lines, and returns all three with the chip's
// driver id. Callers latch SRC and tick X1 themselves.
func setup(t *testing.T, bankID, chipID uint8) (*Chip, *bus.DataBus, *bus.ControlSignals, int) {
	t.Helper()
	c, err := Init(&ChipDef{ChipID: chipID, BankID: bankID})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	b := bus.NewDataBus()
	driverID := b.AddDriver("ram")
	c.AttachDriver(driverID)
	ctrl := bus.NewMCS4ControlSignals()
	return c, b, ctrl, driverID
}

func TestRAMWriteAndReadWhenSelected(t *testing.T) {
	c, b, ctrl, ramDriver := setup(t, 0, 1)
	ctrl.SelectRAM(0)
	// SRCHigh = chipSel(2 bits)<<2 | reg(2 bits) = 1<<2|2 = 0x6; SRCLow = char.
	ctrl.LatchSRC(0x6, 0xA)
	c.TickBus(bus.X1, b, ctrl)

	other := b.AddDriver("writer")
	ctrl.Operation = bus.OpRAMWrite
	b.Drive(other, 0x5)
	c.TickBus(bus.X2, b, ctrl)

	if got := c.ReadDirect(2, 0xA); got != 0x5 {
		t.Fatalf("ReadDirect(2,0xA) = %#x, want 0x5", got)
	}

	b.Release(other)
	ctrl.Operation = bus.OpRAMRead
	c.TickBus(bus.X3, b, ctrl)
	if got := b.Read(); got != 0x5 {
		t.Fatalf("bus read = %#x, want 0x5", got)
	}
	_ = ramDriver
}

func TestUnselectedChipDoesNotRespond(t *testing.T) {
	c, b, ctrl, _ := setup(t, 0, 1)
	ctrl.SelectRAM(1) // different bank
	ctrl.LatchSRC(0x6, 0xA)
	c.TickBus(bus.X1, b, ctrl)

	ctrl.Operation = bus.OpRAMRead
	c.TickBus(bus.X3, b, ctrl)
	if b.IsValid() {
		t.Fatalf("unselected RAM chip should not drive the bus, got %#x", b.Read())
	}
}

func TestStatusIndexIndependentOfCharSelect(t *testing.T) {
	c, b, ctrl, _ := setup(t, 0, 0)
	ctrl.SelectRAM(0)
	ctrl.LatchSRC(0x0, 0xF) // reg 0, char 0xF: irrelevant to status addressing
	c.TickBus(bus.X1, b, ctrl)

	other := b.AddDriver("writer")
	ctrl.Operation = bus.OpStatusWrite
	ctrl.StatusIndex = 2
	b.Drive(other, 0x9)
	c.TickBus(bus.X2, b, ctrl)

	if got := c.ReadDirect(0, 0); got != 0 {
		t.Fatalf("status write must not touch main RAM, ReadDirect(0,0) = %#x", got)
	}

	b.Release(other)
	ctrl.Operation = bus.OpStatusRead
	c.TickBus(bus.X3, b, ctrl)
	if got := b.Read(); got != 0x9 {
		t.Fatalf("status read at index 2 = %#x, want 0x9", got)
	}
}
