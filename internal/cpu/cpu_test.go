package cpu

import "testing"

// flatBus is a minimal 64 KiB byte array satisfying Bus, used to exercise the
// CPU in isolation from the real banked memory fabric.
type flatBus struct {
	ram [65536]byte
}

func (b *flatBus) Read(addr uint16) byte            { return b.ram[addr] }
func (b *flatBus) Write(addr uint16, value byte)     { b.ram[addr] = value }
func (b *flatBus) Read16(addr uint16) uint16 {
	return uint16(b.ram[addr]) | uint16(b.ram[addr+1])<<8
}

type nopTrap struct{ hits []uint16 }

func (n *nopTrap) KernalTrap(pc uint16) { n.hits = append(n.hits, pc) }

func newTestCPU() (*Cpu6502, *flatBus) {
	bus := &flatBus{}
	c := New(bus, &nopTrap{})
	return c, bus
}

func TestADCDecimalCarry(t *testing.T) {
	c, bus := newTestCPU()
	c.CarryFlag = false
	c.DecFlag = true
	c.A = 0x15
	bus.ram[0x0200] = 0x69 // ADC #imm
	bus.ram[0x0201] = 0x27
	c.PC = 0x0200

	c.Step()

	if c.A != 0x42 {
		t.Fatalf("A = %#x, want 0x42", c.A)
	}
	if c.CarryFlag || c.ZeroFlag || c.NegFlag || c.OverflowFlag {
		t.Fatalf("unexpected flags: C=%v Z=%v N=%v V=%v", c.CarryFlag, c.ZeroFlag, c.NegFlag, c.OverflowFlag)
	}
	if c.Cycles != 2 {
		t.Fatalf("cycles = %d, want 2", c.Cycles)
	}
}

func TestBITNegativeOverflow(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0x0010] = 0xC0
	c.A = 0x00
	bus.ram[0x0200] = 0x24 // BIT zp
	bus.ram[0x0201] = 0x10
	c.PC = 0x0200

	c.Step()

	if !c.NegFlag || !c.OverflowFlag || !c.ZeroFlag {
		t.Fatalf("flags N=%v V=%v Z=%v, want all true", c.NegFlag, c.OverflowFlag, c.ZeroFlag)
	}
	if c.A != 0x00 {
		t.Fatalf("A changed by BIT: %#x", c.A)
	}
	if c.Cycles != 3 {
		t.Fatalf("cycles = %d, want 3", c.Cycles)
	}
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0x02FF] = 0x34
	bus.ram[0x0200] = 0x12
	bus.ram[0x0300] = 0xAB
	bus.ram[0x1000] = 0x6C // JMP (addr)
	bus.ram[0x1001] = 0xFF
	bus.ram[0x1002] = 0x02
	c.PC = 0x1000
	c.BugJMPIndirect = true

	c.Step()

	if c.PC != 0x1234 {
		t.Fatalf("PC = %#x, want 0x1234", c.PC)
	}
	if c.Cycles != 5 {
		t.Fatalf("cycles = %d, want 5", c.Cycles)
	}
}

func TestJMPIndirectWithoutBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0x02FF] = 0x34
	bus.ram[0x0300] = 0xAB
	bus.ram[0x1000] = 0x6C
	bus.ram[0x1001] = 0xFF
	bus.ram[0x1002] = 0x02
	c.PC = 0x1000
	c.BugJMPIndirect = false

	c.Step()

	if c.PC != 0xAB34 {
		t.Fatalf("PC = %#x, want 0xab34 (no page-wrap bug)", c.PC)
	}
}

func TestKernalTrapForcesRTS(t *testing.T) {
	c, bus := newTestCPU()
	trap := &nopTrap{}
	c.trap = trap
	c.PC = 0xFFD2 // CHROUT
	c.SP = 0xFF
	bus.ram[0x0100] = 0x00 // pushed return addr lo/hi, irrelevant content
	bus.ram[0x01FF] = 0x00
	bus.ram[0x01FE] = 0x00

	// seed a return address on the stack so RTS has something to pop
	c.SP = 0xFD
	bus.ram[0x01FE] = 0x00
	bus.ram[0x01FF] = 0x20

	c.Step()

	if len(trap.hits) != 1 || trap.hits[0] != 0xFFD2 {
		t.Fatalf("expected kernal trap at 0xffd2, got %v", trap.hits)
	}
	if c.PC != 0x2001 {
		t.Fatalf("PC = %#x after forced RTS, want 0x2001", c.PC)
	}
}

func TestKILSetsJam(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0x0200] = 0x02 // KIL
	c.PC = 0x0200

	c.Step()

	if !c.Jam {
		t.Fatalf("expected Jam=true after KIL opcode")
	}
}

func TestANCCopiesNegativeIntoCarry(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0xFF
	bus.ram[0x0200] = 0x0B
	bus.ram[0x0201] = 0x80
	c.PC = 0x0200

	c.Step()

	if c.A != 0x80 {
		t.Fatalf("A = %#x, want 0x80", c.A)
	}
	if !c.CarryFlag {
		t.Fatalf("expected carry set from negative result")
	}
}

func TestPush16Pop16RoundTrip(t *testing.T) {
	c, _ := newTestCPU()
	c.SP = 0xFF
	for _, v := range []uint16{0, 1, 0x00FF, 0x0100, 0xFFFF, 0x1234} {
		c.SP = 0xFF
		c.push16(v)
		if got := c.pop16(); got != v {
			t.Fatalf("push16/pop16(%#x) = %#x", v, got)
		}
	}
}

func TestStatusRoundTripOnObservableFlags(t *testing.T) {
	c, _ := newTestCPU()
	c.CarryFlag, c.ZeroFlag, c.IntFlag, c.DecFlag, c.OverflowFlag, c.NegFlag = true, false, true, false, true, false
	s := c.Status()
	c2, _ := newTestCPU()
	c2.SetStatus(s)
	if c2.CarryFlag != c.CarryFlag || c2.ZeroFlag != c.ZeroFlag || c2.IntFlag != c.IntFlag ||
		c2.DecFlag != c.DecFlag || c2.OverflowFlag != c.OverflowFlag || c2.NegFlag != c.NegFlag {
		t.Fatalf("status round trip mismatch")
	}
}

func TestCycleMonotonicityWithinFrame(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x0200
	for i := 0; i < 256; i++ {
		bus.ram[0x0200+uint16(i)] = 0xEA // NOP
	}
	prev := c.Cycles
	for i := 0; i < 100; i++ {
		c.Step()
		if c.Cycles < prev {
			t.Fatalf("cycles decreased: %d -> %d", prev, c.Cycles)
		}
		prev = c.Cycles
	}
}

func TestNMIPushesStatusWithBClear(t *testing.T) {
	c, _ := newTestCPU()
	c.SP = 0xFF
	c.PC = 0x1000
	c.SetNMI()

	c.Step()

	pushed := c.Read8StackTop()
	if pushed&0x10 != 0 {
		t.Fatalf("NMI pushed status with B set: %#x", pushed)
	}
}

// Read8StackTop is a test-only helper reading the byte just below SP.
func (c *Cpu6502) Read8StackTop() byte {
	return c.mem.Read(0x0100 + uint16(c.SP) + 1)
}
