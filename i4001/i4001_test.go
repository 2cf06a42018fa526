package i4001

import (
	"testing"

	"github.com/mcs4/sim/bus"
)

func TestInitValidatesChipID(t *testing.T) {
	if _, err := Init(&ChipDef{ChipID: 16}); err == nil {
		t.Fatalf("ChipID=16 should be rejected, got nil error")
	}
	if _, err := Init(&ChipDef{ChipID: 15}); err != nil {
		t.Fatalf("ChipID=15 should be valid, got %v", err)
	}
}

func TestLoadAndReadDirect(t *testing.T) {
	c, err := Init(&ChipDef{ChipID: 0})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Load([]byte{0xD5, 0xAA})
	if got := c.ReadDirect(0); got != 0xD5 {
		t.Fatalf("ReadDirect(0) = %#x, want 0xD5", got)
	}
	if got := c.ReadDirect(1); got != 0xAA {
		t.Fatalf("ReadDirect(1) = %#x, want 0xAA", got)
	}
}

func TestLoadAtClipsAtChipBoundary(t *testing.T) {
	c, _ := Init(&ChipDef{ChipID: 0})
	c.LoadAt(254, []byte{0x11, 0x22, 0x33})
	if got := c.ReadDirect(254); got != 0x11 {
		t.Fatalf("ReadDirect(254) = %#x, want 0x11", got)
	}
	if got := c.ReadDirect(255); got != 0x22 {
		t.Fatalf("ReadDirect(255) = %#x, want 0x22", got)
	}
	// The third byte overruns the 256-byte chip and must be dropped,
	// not wrap around to address 0.
	if got := c.ReadDirect(0); got != 0 {
		t.Fatalf("ReadDirect(0) = %#x, want 0 (no wraparound)", got)
	}
}

// driveAddress walks the chip through A1-A3 presenting addr on the bus
// via a single driver (released before A3), then returns the fetched
// byte by walking M1-M2.
func driveAddress(t *testing.T, c *Chip, b *bus.DataBus, addrID int, ctrl *bus.ControlSignals, addr uint8) uint8 {
	t.Helper()
	b.Drive(addrID, addr&0xF)
	c.TickBus(bus.A1, b, ctrl)
	b.Drive(addrID, (addr>>4)&0xF)
	c.TickBus(bus.A2, b, ctrl)
	b.Release(addrID)
	c.TickBus(bus.A3, b, ctrl)
	c.TickBus(bus.M1, b, ctrl)
	lo := b.Read()
	c.TickBus(bus.M2, b, ctrl)
	hi := b.Read()
	return hi<<4 | lo
}

func TestROMFetchWhenSelected(t *testing.T) {
	c, _ := Init(&ChipDef{ChipID: 3})
	c.Load([]byte{0x00, 0x00, 0x00, 0xAB})
	b := bus.NewDataBus()
	driverID := b.AddDriver("addr")
	romID := b.AddDriver("rom")
	c.AttachDriver(romID)

	ctrl := bus.NewMCS4ControlSignals()
	ctrl.SelectROM(3)

	if got := driveAddress(t, c, b, driverID, ctrl, 3); got != 0xAB {
		t.Fatalf("fetched byte = %#x, want 0xAB", got)
	}
}

func TestROMFetchWhenNotSelected(t *testing.T) {
	c, _ := Init(&ChipDef{ChipID: 3})
	c.Load([]byte{0xAB})
	b := bus.NewDataBus()
	driverID := b.AddDriver("addr")
	romID := b.AddDriver("rom")
	c.AttachDriver(romID)

	ctrl := bus.NewMCS4ControlSignals()
	ctrl.SelectROM(4) // a different chip

	b.Drive(driverID, 0)
	c.TickBus(bus.A1, b, ctrl)
	c.TickBus(bus.A2, b, ctrl)
	b.Release(driverID)
	c.TickBus(bus.A3, b, ctrl)
	c.TickBus(bus.M1, b, ctrl)
	if b.IsValid() {
		t.Fatalf("unselected chip should not drive the bus, got %#x", b.Read())
	}
}

// TestFetchDriverReleasedBeforeX2Write reproduces the real multi-chip
// dispatch order around an instruction that both fetches from this ROM
// and then, at X2 of the same cycle, shares the bus with another
// driver (standing in for the CPU writing its accumulator during a
// RAM/port write instruction). The ROM's M2-driven opcode nibble must
// not still be active once X2 runs, or the other driver's value would
// contend with it instead of winning the bus outright.
func TestFetchDriverReleasedBeforeX2Write(t *testing.T) {
	c, _ := Init(&ChipDef{ChipID: 3})
	c.Load([]byte{0xE0}) // opcode byte whose nibbles are 0x0 and 0xE
	b := bus.NewDataBus()
	addrID := b.AddDriver("addr")
	romID := b.AddDriver("rom")
	otherID := b.AddDriver("other") // stands in for the CPU at X2
	c.AttachDriver(romID)

	ctrl := bus.NewMCS4ControlSignals()
	ctrl.SelectROM(3)

	if got := driveAddress(t, c, b, addrID, ctrl, 0); got != 0xE0 {
		t.Fatalf("fetched byte = %#x, want 0xE0", got)
	}

	// X1: the chip's fetch duty is done; it must release here, not at
	// its own X3 case, so the bus is free before X2.
	c.TickBus(bus.X1, b, ctrl)

	// X2: a second driver (the CPU, in the real system) drives a value
	// that disagrees with the ROM's stale M2 nibble (0xE). If the ROM
	// were still driving, this would contend and read back 0.
	b.Drive(otherID, 0x6)
	c.TickBus(bus.X2, b, ctrl)
	if b.HasContention() {
		t.Fatalf("bus contention at X2: ROM driver was not released after its fetch")
	}
	if got := b.Read(); got != 0x6 {
		t.Fatalf("bus read at X2 = %#x, want 0x6 (the other driver's value, uncontended)", got)
	}
}

func TestPortWriteAndRead(t *testing.T) {
	c, _ := Init(&ChipDef{ChipID: 5})
	b := bus.NewDataBus()
	portID := b.AddDriver("rom5")
	driverID := b.AddDriver("other")
	c.AttachDriver(portID)

	ctrl := bus.NewMCS4ControlSignals()
	ctrl.LatchSRC(5, 0) // chip select 5 in the high nibble
	c.TickBus(bus.X1, b, ctrl)

	ctrl.Operation = bus.OpPortWrite
	b.Drive(driverID, 0xC)
	c.TickBus(bus.X2, b, ctrl)
	if got := c.Output(); got != 0xC {
		t.Fatalf("Output() = %#x, want 0xC", got)
	}

	c.SetInput(0x7)
	ctrl.Operation = bus.OpPortRead
	b.Release(driverID)
	c.TickBus(bus.X3, b, ctrl)
	if got := b.Read(); got != 0x7 {
		t.Fatalf("port read = %#x, want 0x7", got)
	}
}
