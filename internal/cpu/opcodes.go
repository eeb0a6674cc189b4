package cpu

// execute dispatches a single opcode. Base cycle counts follow the standard
// NMOS 6502 timing table; +1 is added for page-crossing addressing modes that
// specify it and for taken branches (the simplified rule: "taken branch = +1
// cycle", with a separate page-cross check via pagesDiffer in branch()).
func (c *Cpu6502) execute(op byte) {
	switch op {
	// --- ADC ---
	case 0x69:
		c.adc(c.load(c.modeImmediate()))
		c.Cycles += 2
	case 0x65:
		c.adc(c.load(c.modeZeroPage()))
		c.Cycles += 3
	case 0x75:
		c.adc(c.load(c.modeZeroPageX()))
		c.Cycles += 4
	case 0x6D:
		c.adc(c.load(c.modeAbsolute()))
		c.Cycles += 4
	case 0x7D:
		a := c.modeAbsoluteX(true)
		c.adc(c.load(a))
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x79:
		a := c.modeAbsoluteY(true)
		c.adc(c.load(a))
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x61:
		c.adc(c.load(c.modeIndirectX()))
		c.Cycles += 6
	case 0x71:
		a := c.modeIndirectY(true)
		c.adc(c.load(a))
		c.Cycles += 5 + b2i(a.pageCrossed)

	// --- SBC ---
	case 0xE9, 0xEB: // 0xEB is an undocumented SBC-immediate alias
		c.sbc(c.load(c.modeImmediate()))
		c.Cycles += 2
	case 0xE5:
		c.sbc(c.load(c.modeZeroPage()))
		c.Cycles += 3
	case 0xF5:
		c.sbc(c.load(c.modeZeroPageX()))
		c.Cycles += 4
	case 0xED:
		c.sbc(c.load(c.modeAbsolute()))
		c.Cycles += 4
	case 0xFD:
		a := c.modeAbsoluteX(true)
		c.sbc(c.load(a))
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0xF9:
		a := c.modeAbsoluteY(true)
		c.sbc(c.load(a))
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0xE1:
		c.sbc(c.load(c.modeIndirectX()))
		c.Cycles += 6
	case 0xF1:
		a := c.modeIndirectY(true)
		c.sbc(c.load(a))
		c.Cycles += 5 + b2i(a.pageCrossed)

	// --- AND ---
	case 0x29:
		c.A &= c.load(c.modeImmediate())
		c.setZN(c.A)
		c.Cycles += 2
	case 0x25:
		c.A &= c.load(c.modeZeroPage())
		c.setZN(c.A)
		c.Cycles += 3
	case 0x35:
		c.A &= c.load(c.modeZeroPageX())
		c.setZN(c.A)
		c.Cycles += 4
	case 0x2D:
		c.A &= c.load(c.modeAbsolute())
		c.setZN(c.A)
		c.Cycles += 4
	case 0x3D:
		a := c.modeAbsoluteX(true)
		c.A &= c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x39:
		a := c.modeAbsoluteY(true)
		c.A &= c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x21:
		c.A &= c.load(c.modeIndirectX())
		c.setZN(c.A)
		c.Cycles += 6
	case 0x31:
		a := c.modeIndirectY(true)
		c.A &= c.load(a)
		c.setZN(c.A)
		c.Cycles += 5 + b2i(a.pageCrossed)

	// --- ORA ---
	case 0x09:
		c.A |= c.load(c.modeImmediate())
		c.setZN(c.A)
		c.Cycles += 2
	case 0x05:
		c.A |= c.load(c.modeZeroPage())
		c.setZN(c.A)
		c.Cycles += 3
	case 0x15:
		c.A |= c.load(c.modeZeroPageX())
		c.setZN(c.A)
		c.Cycles += 4
	case 0x0D:
		c.A |= c.load(c.modeAbsolute())
		c.setZN(c.A)
		c.Cycles += 4
	case 0x1D:
		a := c.modeAbsoluteX(true)
		c.A |= c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x19:
		a := c.modeAbsoluteY(true)
		c.A |= c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x01:
		c.A |= c.load(c.modeIndirectX())
		c.setZN(c.A)
		c.Cycles += 6
	case 0x11:
		a := c.modeIndirectY(true)
		c.A |= c.load(a)
		c.setZN(c.A)
		c.Cycles += 5 + b2i(a.pageCrossed)

	// --- EOR ---
	case 0x49:
		c.A ^= c.load(c.modeImmediate())
		c.setZN(c.A)
		c.Cycles += 2
	case 0x45:
		c.A ^= c.load(c.modeZeroPage())
		c.setZN(c.A)
		c.Cycles += 3
	case 0x55:
		c.A ^= c.load(c.modeZeroPageX())
		c.setZN(c.A)
		c.Cycles += 4
	case 0x4D:
		c.A ^= c.load(c.modeAbsolute())
		c.setZN(c.A)
		c.Cycles += 4
	case 0x5D:
		a := c.modeAbsoluteX(true)
		c.A ^= c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x59:
		a := c.modeAbsoluteY(true)
		c.A ^= c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0x41:
		c.A ^= c.load(c.modeIndirectX())
		c.setZN(c.A)
		c.Cycles += 6
	case 0x51:
		a := c.modeIndirectY(true)
		c.A ^= c.load(a)
		c.setZN(c.A)
		c.Cycles += 5 + b2i(a.pageCrossed)

	// --- CMP/CPX/CPY ---
	case 0xC9:
		c.compare(c.A, c.load(c.modeImmediate()))
		c.Cycles += 2
	case 0xC5:
		c.compare(c.A, c.load(c.modeZeroPage()))
		c.Cycles += 3
	case 0xD5:
		c.compare(c.A, c.load(c.modeZeroPageX()))
		c.Cycles += 4
	case 0xCD:
		c.compare(c.A, c.load(c.modeAbsolute()))
		c.Cycles += 4
	case 0xDD:
		a := c.modeAbsoluteX(true)
		c.compare(c.A, c.load(a))
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0xD9:
		a := c.modeAbsoluteY(true)
		c.compare(c.A, c.load(a))
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0xC1:
		c.compare(c.A, c.load(c.modeIndirectX()))
		c.Cycles += 6
	case 0xD1:
		a := c.modeIndirectY(true)
		c.compare(c.A, c.load(a))
		c.Cycles += 5 + b2i(a.pageCrossed)
	case 0xE0:
		c.compare(c.X, c.load(c.modeImmediate()))
		c.Cycles += 2
	case 0xE4:
		c.compare(c.X, c.load(c.modeZeroPage()))
		c.Cycles += 3
	case 0xEC:
		c.compare(c.X, c.load(c.modeAbsolute()))
		c.Cycles += 4
	case 0xC0:
		c.compare(c.Y, c.load(c.modeImmediate()))
		c.Cycles += 2
	case 0xC4:
		c.compare(c.Y, c.load(c.modeZeroPage()))
		c.Cycles += 3
	case 0xCC:
		c.compare(c.Y, c.load(c.modeAbsolute()))
		c.Cycles += 4

	// --- BIT ---
	case 0x24:
		v := c.load(c.modeZeroPage())
		c.ZeroFlag = c.A&v == 0
		c.OverflowFlag = v&0x40 != 0
		c.NegFlag = v&0x80 != 0
		c.Cycles += 3
	case 0x2C:
		v := c.load(c.modeAbsolute())
		c.ZeroFlag = c.A&v == 0
		c.OverflowFlag = v&0x40 != 0
		c.NegFlag = v&0x80 != 0
		c.Cycles += 4

	// --- Loads ---
	case 0xA9:
		c.A = c.load(c.modeImmediate())
		c.setZN(c.A)
		c.Cycles += 2
	case 0xA5:
		c.A = c.load(c.modeZeroPage())
		c.setZN(c.A)
		c.Cycles += 3
	case 0xB5:
		c.A = c.load(c.modeZeroPageX())
		c.setZN(c.A)
		c.Cycles += 4
	case 0xAD:
		c.A = c.load(c.modeAbsolute())
		c.setZN(c.A)
		c.Cycles += 4
	case 0xBD:
		a := c.modeAbsoluteX(true)
		c.A = c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0xB9:
		a := c.modeAbsoluteY(true)
		c.A = c.load(a)
		c.setZN(c.A)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0xA1:
		c.A = c.load(c.modeIndirectX())
		c.setZN(c.A)
		c.Cycles += 6
	case 0xB1:
		a := c.modeIndirectY(true)
		c.A = c.load(a)
		c.setZN(c.A)
		c.Cycles += 5 + b2i(a.pageCrossed)
	case 0xA2:
		c.X = c.load(c.modeImmediate())
		c.setZN(c.X)
		c.Cycles += 2
	case 0xA6:
		c.X = c.load(c.modeZeroPage())
		c.setZN(c.X)
		c.Cycles += 3
	case 0xB6:
		c.X = c.load(c.modeZeroPageY())
		c.setZN(c.X)
		c.Cycles += 4
	case 0xAE:
		c.X = c.load(c.modeAbsolute())
		c.setZN(c.X)
		c.Cycles += 4
	case 0xBE:
		a := c.modeAbsoluteY(true)
		c.X = c.load(a)
		c.setZN(c.X)
		c.Cycles += 4 + b2i(a.pageCrossed)
	case 0xA0:
		c.Y = c.load(c.modeImmediate())
		c.setZN(c.Y)
		c.Cycles += 2
	case 0xA4:
		c.Y = c.load(c.modeZeroPage())
		c.setZN(c.Y)
		c.Cycles += 3
	case 0xB4:
		c.Y = c.load(c.modeZeroPageX())
		c.setZN(c.Y)
		c.Cycles += 4
	case 0xAC:
		c.Y = c.load(c.modeAbsolute())
		c.setZN(c.Y)
		c.Cycles += 4
	case 0xBC:
		a := c.modeAbsoluteX(true)
		c.Y = c.load(a)
		c.setZN(c.Y)
		c.Cycles += 4 + b2i(a.pageCrossed)

	// --- Stores ---
	case 0x85:
		c.store(c.modeZeroPage(), c.A)
		c.Cycles += 3
	case 0x95:
		c.store(c.modeZeroPageX(), c.A)
		c.Cycles += 4
	case 0x8D:
		c.store(c.modeAbsolute(), c.A)
		c.Cycles += 4
	case 0x9D:
		c.store(c.modeAbsoluteX(false), c.A)
		c.Cycles += 5
	case 0x99:
		c.store(c.modeAbsoluteY(false), c.A)
		c.Cycles += 5
	case 0x81:
		c.store(c.modeIndirectX(), c.A)
		c.Cycles += 6
	case 0x91:
		c.store(c.modeIndirectY(false), c.A)
		c.Cycles += 6
	case 0x86:
		c.store(c.modeZeroPage(), c.X)
		c.Cycles += 3
	case 0x96:
		c.store(c.modeZeroPageY(), c.X)
		c.Cycles += 4
	case 0x8E:
		c.store(c.modeAbsolute(), c.X)
		c.Cycles += 4
	case 0x84:
		c.store(c.modeZeroPage(), c.Y)
		c.Cycles += 3
	case 0x94:
		c.store(c.modeZeroPageX(), c.Y)
		c.Cycles += 4
	case 0x8C:
		c.store(c.modeAbsolute(), c.Y)
		c.Cycles += 4

	// --- Transfers ---
	case 0xAA:
		c.X = c.A
		c.setZN(c.X)
		c.Cycles += 2
	case 0xA8:
		c.Y = c.A
		c.setZN(c.Y)
		c.Cycles += 2
	case 0x8A:
		c.A = c.X
		c.setZN(c.A)
		c.Cycles += 2
	case 0x98:
		c.A = c.Y
		c.setZN(c.A)
		c.Cycles += 2
	case 0xBA:
		c.X = c.SP
		c.setZN(c.X)
		c.Cycles += 2
	case 0x9A:
		c.SP = c.X
		c.Cycles += 2

	// --- Inc/Dec ---
	case 0xE6:
		a := c.modeZeroPage()
		c.store(a, c.setZNRet(c.load(a)+1))
		c.Cycles += 5
	case 0xF6:
		a := c.modeZeroPageX()
		c.store(a, c.setZNRet(c.load(a)+1))
		c.Cycles += 6
	case 0xEE:
		a := c.modeAbsolute()
		c.store(a, c.setZNRet(c.load(a)+1))
		c.Cycles += 6
	case 0xFE:
		a := c.modeAbsoluteX(false)
		c.store(a, c.setZNRet(c.load(a)+1))
		c.Cycles += 7
	case 0xC6:
		a := c.modeZeroPage()
		c.store(a, c.setZNRet(c.load(a)-1))
		c.Cycles += 5
	case 0xD6:
		a := c.modeZeroPageX()
		c.store(a, c.setZNRet(c.load(a)-1))
		c.Cycles += 6
	case 0xCE:
		a := c.modeAbsolute()
		c.store(a, c.setZNRet(c.load(a)-1))
		c.Cycles += 6
	case 0xDE:
		a := c.modeAbsoluteX(false)
		c.store(a, c.setZNRet(c.load(a)-1))
		c.Cycles += 7
	case 0xE8:
		c.X++
		c.setZN(c.X)
		c.Cycles += 2
	case 0xC8:
		c.Y++
		c.setZN(c.Y)
		c.Cycles += 2
	case 0xCA:
		c.X--
		c.setZN(c.X)
		c.Cycles += 2
	case 0x88:
		c.Y--
		c.setZN(c.Y)
		c.Cycles += 2

	// --- Shifts/rotates ---
	case 0x0A:
		c.A = c.asl(c.A)
		c.Cycles += 2
	case 0x06:
		a := c.modeZeroPage()
		c.store(a, c.asl(c.load(a)))
		c.Cycles += 5
	case 0x16:
		a := c.modeZeroPageX()
		c.store(a, c.asl(c.load(a)))
		c.Cycles += 6
	case 0x0E:
		a := c.modeAbsolute()
		c.store(a, c.asl(c.load(a)))
		c.Cycles += 6
	case 0x1E:
		a := c.modeAbsoluteX(false)
		c.store(a, c.asl(c.load(a)))
		c.Cycles += 7
	case 0x4A:
		c.A = c.lsr(c.A)
		c.Cycles += 2
	case 0x46:
		a := c.modeZeroPage()
		c.store(a, c.lsr(c.load(a)))
		c.Cycles += 5
	case 0x56:
		a := c.modeZeroPageX()
		c.store(a, c.lsr(c.load(a)))
		c.Cycles += 6
	case 0x4E:
		a := c.modeAbsolute()
		c.store(a, c.lsr(c.load(a)))
		c.Cycles += 6
	case 0x5E:
		a := c.modeAbsoluteX(false)
		c.store(a, c.lsr(c.load(a)))
		c.Cycles += 7
	case 0x2A:
		c.A = c.rol(c.A)
		c.Cycles += 2
	case 0x26:
		a := c.modeZeroPage()
		c.store(a, c.rol(c.load(a)))
		c.Cycles += 5
	case 0x36:
		a := c.modeZeroPageX()
		c.store(a, c.rol(c.load(a)))
		c.Cycles += 6
	case 0x2E:
		a := c.modeAbsolute()
		c.store(a, c.rol(c.load(a)))
		c.Cycles += 6
	case 0x3E:
		a := c.modeAbsoluteX(false)
		c.store(a, c.rol(c.load(a)))
		c.Cycles += 7
	case 0x6A:
		c.A = c.ror(c.A)
		c.Cycles += 2
	case 0x66:
		a := c.modeZeroPage()
		c.store(a, c.ror(c.load(a)))
		c.Cycles += 5
	case 0x76:
		a := c.modeZeroPageX()
		c.store(a, c.ror(c.load(a)))
		c.Cycles += 6
	case 0x6E:
		a := c.modeAbsolute()
		c.store(a, c.ror(c.load(a)))
		c.Cycles += 6
	case 0x7E:
		a := c.modeAbsoluteX(false)
		c.store(a, c.ror(c.load(a)))
		c.Cycles += 7

	// --- Branches ---
	case 0x10:
		c.branch(!c.NegFlag)
		c.Cycles += 2
	case 0x30:
		c.branch(c.NegFlag)
		c.Cycles += 2
	case 0x50:
		c.branch(!c.OverflowFlag)
		c.Cycles += 2
	case 0x70:
		c.branch(c.OverflowFlag)
		c.Cycles += 2
	case 0x90:
		c.branch(!c.CarryFlag)
		c.Cycles += 2
	case 0xB0:
		c.branch(c.CarryFlag)
		c.Cycles += 2
	case 0xD0:
		c.branch(!c.ZeroFlag)
		c.Cycles += 2
	case 0xF0:
		c.branch(c.ZeroFlag)
		c.Cycles += 2

	// --- Jumps/calls ---
	case 0x4C:
		c.PC = c.fetch16()
		c.Cycles += 3
	case 0x6C:
		c.PC = c.modeIndirect()
		c.Cycles += 5
	case 0x20:
		target := c.fetch16()
		c.push16(c.PC - 1)
		c.PC = target
		c.Cycles += 6
	case 0x60:
		c.PC = c.pop16() + 1
		c.Cycles += 6
	case 0x40:
		c.SetStatus(c.pop())
		c.PC = c.pop16()
		c.Cycles += 6

	// --- BRK ---
	case 0x00:
		c.PC++
		c.push16(c.PC)
		c.push(c.Status()) // B=1 via the constant 0x30 bits
		c.IntFlag = true
		c.PC = c.mem.Read16(0xFFFE)
		c.Cycles += 7

	// --- Stack ---
	case 0x48:
		c.push(c.A)
		c.Cycles += 3
	case 0x68:
		c.A = c.pop()
		c.setZN(c.A)
		c.Cycles += 4
	case 0x08:
		c.push(c.Status())
		c.Cycles += 3
	case 0x28:
		c.SetStatus(c.pop())
		c.Cycles += 4

	// --- Flags ---
	case 0x18:
		c.CarryFlag = false
		c.Cycles += 2
	case 0x38:
		c.CarryFlag = true
		c.Cycles += 2
	case 0x58:
		c.IntFlag = false
		c.Cycles += 2
	case 0x78:
		c.IntFlag = true
		c.Cycles += 2
	case 0xB8:
		c.OverflowFlag = false
		c.Cycles += 2
	case 0xD8:
		c.DecFlag = false
		c.Cycles += 2
	case 0xF8:
		c.DecFlag = true
		c.Cycles += 2

	// --- Misc ---
	case 0xEA:
		c.Cycles += 2

	// --- Illegal: ANC ---
	case 0x0B, 0x2B:
		c.A &= c.load(c.modeImmediate())
		c.setZN(c.A)
		c.CarryFlag = c.NegFlag
		c.Cycles += 2

	default:
		if kilOpcodes[op] {
			c.Jam = true
			c.Cycles += 2
			return
		}
		// Undocumented opcode: treated as a 1-byte, 2-cycle NOP.
		c.Cycles += 2
	}
}

func (c *Cpu6502) setZNRet(v byte) byte {
	c.setZN(v)
	return v
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
