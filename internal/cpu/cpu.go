// Package cpu implements a cycle-counted interpreter for the 6502 as wired
// into a Commodore 64: decimal-mode ADC/SBC, IRQ/NMI/RESET servicing, the
// illegal ANC and KIL opcodes, the classic JMP-indirect page-wrap bug, and a
// kernal-trap escape hatch for PC >= $FF00.
package cpu

// Bus is the memory surface the CPU reads and writes through. Cpu6502 holds
// only a Bus handle, never a reference back to the owning Machine.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	Read16(addr uint16) uint16
}

// TrapHandler services kernal ROM entry points the CPU never actually executes.
type TrapHandler interface {
	KernalTrap(pc uint16)
}

// Cpu6502 is the 6502 register file, flags, interrupt latches and cycle counter.
type Cpu6502 struct {
	A, X, Y, SP byte
	PC          uint16

	// Status flags. The B flag has no storage; it exists only as a constant
	// written on stack pushes (1 for BRK, 0 for NMI/IRQ entry).
	CarryFlag, ZeroFlag, IntFlag, DecFlag, OverflowFlag, NegFlag bool

	nmiLatch, irqLatch, resetLatch, Jam bool

	Cycles int32

	// BugJMPIndirect reproduces the page-wrap bug in JMP ($xxFF); default true.
	BugJMPIndirect bool
	// ZeroCostIRQ omits the +7 cycle cost of IRQ entry, a documented hack so
	// raster-timing code that assumes "IRQ takes zero cycles" behaves correctly.
	ZeroCostIRQ bool

	mem  Bus
	trap TrapHandler
}

// New constructs a CPU bound to the given bus and kernal trap handler, with
// the historical bug-compatible defaults (JMP-indirect bug on, IRQ entry free).
func New(mem Bus, trap TrapHandler) *Cpu6502 {
	return &Cpu6502{
		mem:            mem,
		trap:           trap,
		BugJMPIndirect: true,
		ZeroCostIRQ:    true,
	}
}

// SetIRQ latches a maskable interrupt request, serviced at the next Step.
func (c *Cpu6502) SetIRQ() { c.irqLatch = true }

// SetNMI latches a non-maskable interrupt request, serviced at the next Step.
func (c *Cpu6502) SetNMI() { c.nmiLatch = true }

// Reset latches a RESET request, serviced at the next Step.
func (c *Cpu6502) Reset() { c.resetLatch = true }

// ResetCycles zeroes the cycle counter at the start of a new frame.
func (c *Cpu6502) ResetCycles() { c.Cycles = 0 }

// IsJammed reports whether a KIL opcode has halted the CPU.
func (c *Cpu6502) IsJammed() bool { return c.Jam }

// Status packs the flags into the 6502 status byte, bits 4 and 5 forced to 1.
func (c *Cpu6502) Status() byte {
	var s byte
	if c.CarryFlag {
		s |= 0x01
	}
	if c.ZeroFlag {
		s |= 0x02
	}
	if c.IntFlag {
		s |= 0x04
	}
	if c.DecFlag {
		s |= 0x08
	}
	s |= 0x30
	if c.OverflowFlag {
		s |= 0x40
	}
	if c.NegFlag {
		s |= 0x80
	}
	return s
}

// SetStatus unpacks a status byte into the flags; bits 4 and 5 are ignored.
func (c *Cpu6502) SetStatus(s byte) {
	c.CarryFlag = s&0x01 != 0
	c.ZeroFlag = s&0x02 != 0
	c.IntFlag = s&0x04 != 0
	c.DecFlag = s&0x08 != 0
	c.OverflowFlag = s&0x40 != 0
	c.NegFlag = s&0x80 != 0
}

func (c *Cpu6502) push(v byte) {
	c.mem.Write(0x0100+uint16(c.SP), v)
	c.SP--
}

func (c *Cpu6502) pop() byte {
	c.SP++
	return c.mem.Read(0x0100 + uint16(c.SP))
}

func (c *Cpu6502) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v & 0xFF))
}

func (c *Cpu6502) pop16() uint16 {
	lo := c.pop()
	hi := c.pop()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *Cpu6502) fetch8() byte {
	v := c.mem.Read(c.PC)
	c.PC++
	return v
}

func (c *Cpu6502) fetch16() uint16 {
	v := c.mem.Read16(c.PC)
	c.PC += 2
	return v
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

// RunUntil steps the CPU until Cycles reaches target or the CPU is jammed.
func (c *Cpu6502) RunUntil(target int32) {
	for c.Cycles < target && !c.Jam {
		c.Step()
	}
}

// Step executes exactly one instruction, or one interrupt/reset entry.
func (c *Cpu6502) Step() int32 {
	start := c.Cycles

	switch {
	case c.resetLatch:
		c.SP -= 3
		c.IntFlag = true
		c.PC = c.mem.Read16(0xFFFC)
		c.nmiLatch, c.irqLatch, c.resetLatch, c.Jam = false, false, false, false
		c.Cycles += 7
		return c.Cycles - start

	case c.Jam:
		c.nmiLatch, c.irqLatch = false, false
		return 0

	case c.nmiLatch:
		c.push16(c.PC)
		c.push(c.Status() &^ 0x10)
		c.IntFlag = true
		c.PC = c.mem.Read16(0xFFFA)
		c.nmiLatch = false
		c.Cycles += 7
		return c.Cycles - start

	case c.irqLatch && !c.IntFlag:
		c.push16(c.PC)
		c.push(c.Status() &^ 0x10)
		c.IntFlag = true
		c.PC = c.mem.Read16(0xFFFE)
		c.irqLatch = false
		if !c.ZeroCostIRQ {
			c.Cycles += 7
		}
		return c.Cycles - start
	}

	if c.PC >= 0xFF00 {
		c.trap.KernalTrap(c.PC)
		c.execute(0x60) // force RTS
		return c.Cycles - start
	}

	op := c.fetch8()
	c.execute(op)
	return c.Cycles - start
}

// addr represents a decoded addressing-mode result: the effective address and
// whether a page boundary was crossed while computing it.
type addr struct {
	a           uint16
	pageCrossed bool
	isAccum     bool
}

func (c *Cpu6502) modeImmediate() addr {
	a := c.PC
	c.PC++
	return addr{a: a}
}

func (c *Cpu6502) modeZeroPage() addr {
	return addr{a: uint16(c.fetch8())}
}

func (c *Cpu6502) modeZeroPageX() addr {
	return addr{a: uint16(c.fetch8() + c.X)}
}

func (c *Cpu6502) modeZeroPageY() addr {
	return addr{a: uint16(c.fetch8() + c.Y)}
}

func (c *Cpu6502) modeAbsolute() addr {
	return addr{a: c.fetch16()}
}

func (c *Cpu6502) modeAbsoluteX(checkPage bool) addr {
	base := c.fetch16()
	eff := base + uint16(c.X)
	return addr{a: eff, pageCrossed: checkPage && pagesDiffer(base, eff)}
}

func (c *Cpu6502) modeAbsoluteY(checkPage bool) addr {
	base := c.fetch16()
	eff := base + uint16(c.Y)
	return addr{a: eff, pageCrossed: checkPage && pagesDiffer(base, eff)}
}

func (c *Cpu6502) modeIndirectX() addr {
	zp := c.fetch8() + c.X
	lo := c.mem.Read(uint16(zp))
	hi := c.mem.Read(uint16(zp + 1))
	return addr{a: uint16(hi)<<8 | uint16(lo)}
}

func (c *Cpu6502) modeIndirectY(checkPage bool) addr {
	zp := c.fetch8()
	lo := c.mem.Read(uint16(zp))
	hi := c.mem.Read(uint16(zp + 1))
	base := uint16(hi)<<8 | uint16(lo)
	eff := base + uint16(c.Y)
	return addr{a: eff, pageCrossed: checkPage && pagesDiffer(base, eff)}
}

// modeIndirect implements JMP (addr), including the page-wrap bug: when the
// low byte of the pointer is $FF, the high byte is fetched from the start of
// the same page rather than the next page.
func (c *Cpu6502) modeIndirect() uint16 {
	ptr := c.fetch16()
	lo := c.mem.Read(ptr)
	var hiAddr uint16
	if c.BugJMPIndirect && ptr&0xFF == 0xFF {
		hiAddr = ptr & 0xFF00
	} else {
		hiAddr = ptr + 1
	}
	hi := c.mem.Read(hiAddr)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *Cpu6502) load(a addr) byte {
	if a.isAccum {
		return c.A
	}
	return c.mem.Read(a.a)
}

func (c *Cpu6502) store(a addr, v byte) {
	if a.isAccum {
		c.A = v
		return
	}
	c.mem.Write(a.a, v)
}

func (c *Cpu6502) setZN(v byte) {
	c.ZeroFlag = v == 0
	c.NegFlag = v&0x80 != 0
}

func (c *Cpu6502) branch(taken bool) {
	disp := int8(c.fetch8())
	if !taken {
		return
	}
	target := uint16(int32(c.PC) + int32(disp))
	if pagesDiffer(c.PC, target) {
		c.Cycles++
	}
	c.Cycles++
	c.PC = target
}

func (c *Cpu6502) compare(reg byte, v byte) {
	r := reg - v
	c.CarryFlag = reg >= v
	c.setZN(r)
}

// adc implements binary and BCD addition with the NMOS overflow formula
// computed on the binary result even when decimal mode alters the stored sum.
func (c *Cpu6502) adc(v byte) {
	a := c.A
	carryIn := uint16(0)
	if c.CarryFlag {
		carryIn = 1
	}
	binSum := uint16(a) + uint16(v) + carryIn
	c.OverflowFlag = (uint16(a)^binSum)&(uint16(v)^binSum)&0x80 != 0

	if c.DecFlag {
		lo := (a & 0x0F) + (v & 0x0F) + byte(carryIn)
		hi := (a >> 4) + (v >> 4)
		if lo > 9 {
			lo += 6
			hi++
		}
		if hi > 9 {
			hi += 6
		}
		c.CarryFlag = hi > 15
		result := (hi << 4) | (lo & 0x0F)
		c.A = result
		c.setZN(byte(binSum))
	} else {
		c.CarryFlag = binSum > 0xFF
		c.A = byte(binSum)
		c.setZN(c.A)
	}
}

// sbc implements binary and BCD subtraction; the flags (including V) are
// always derived from the binary result, matching NMOS behaviour.
func (c *Cpu6502) sbc(v byte) {
	a := c.A
	borrowIn := uint16(0)
	if !c.CarryFlag {
		borrowIn = 1
	}
	binDiff := int32(a) - int32(v) - int32(borrowIn)
	c.OverflowFlag = (uint16(a)^uint16(v))&(uint16(a)^uint16(binDiff))&0x80 != 0
	c.CarryFlag = binDiff >= 0
	c.setZN(byte(uint16(binDiff)))

	if c.DecFlag {
		lo := int32(a&0x0F) - int32(v&0x0F) - int32(borrowIn)
		hi := int32(a>>4) - int32(v>>4)
		if lo < 0 {
			lo -= 6
			hi--
		}
		if hi < 0 {
			hi -= 6
		}
		c.A = byte((hi<<4)&0xF0) | byte(lo&0x0F)
	} else {
		c.A = byte(uint16(binDiff))
	}
}

func (c *Cpu6502) asl(v byte) byte {
	c.CarryFlag = v&0x80 != 0
	r := v << 1
	c.setZN(r)
	return r
}

func (c *Cpu6502) lsr(v byte) byte {
	c.CarryFlag = v&0x01 != 0
	r := v >> 1
	c.setZN(r)
	return r
}

func (c *Cpu6502) rol(v byte) byte {
	carryIn := byte(0)
	if c.CarryFlag {
		carryIn = 1
	}
	c.CarryFlag = v&0x80 != 0
	r := (v << 1) | carryIn
	c.setZN(r)
	return r
}

func (c *Cpu6502) ror(v byte) byte {
	carryIn := byte(0)
	if c.CarryFlag {
		carryIn = 0x80
	}
	c.CarryFlag = v&0x01 != 0
	r := (v >> 1) | carryIn
	c.setZN(r)
	return r
}

// kilOpcodes halts the CPU on the twelve documented JAM/KIL opcodes.
var kilOpcodes = map[byte]bool{
	0x02: true, 0x12: true, 0x22: true, 0x32: true,
	0x42: true, 0x52: true, 0x62: true, 0x72: true,
	0x92: true, 0xB2: true, 0xD2: true, 0xF2: true,
}
