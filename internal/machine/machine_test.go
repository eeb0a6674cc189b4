package machine

import "testing"

// nullPixels discards frames; used where a test only cares about machine state.
type nullPixels struct{ calls int }

func (n *nullPixels) Present(rgba *[320 * 200]uint32) { n.calls++ }

// fakeAudio always reports one free buffer and records queued buffers.
type fakeAudio struct{ queued [][]int16 }

func (f *fakeAudio) NumFreeBuffers() int { return 1 }
func (f *fakeAudio) QueueBuffer(samples []int16) {
	cp := make([]int16, len(samples))
	copy(cp, samples)
	f.queued = append(f.queued, cp)
}

func TestBootWithoutDiskRunsEmptyMemory(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)

	if m.Jammed() {
		t.Fatalf("fresh boot should not be jammed before any frame runs")
	}
}

func TestUpdateRunsOneFrameAndRendersPixels(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)

	var sink nullPixels
	m.Update(&sink)

	if sink.calls != 1 {
		t.Fatalf("Present called %d times, want 1", sink.calls)
	}
}

func TestUpdateIsRepeatable(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)

	var sink nullPixels
	m.Update(&sink)
	m.Update(&sink)

	if sink.calls != 2 {
		t.Fatalf("Present called %d times, want 2", sink.calls)
	}
}

func TestQueueAudioDrainsFrameSizedChunks(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)
	m.Update(nil) // one frame on an empty FIFO yields ~1100 samples (multiplier 1.25)

	out := &fakeAudio{}
	m.QueueAudio(out)

	for _, buf := range out.queued {
		if len(buf) != samplesPerFrame {
			t.Fatalf("queued buffer has %d samples, want %d", len(buf), samplesPerFrame)
		}
	}
}

func TestHandleKeySetsAndClearsMatrixBit(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)

	// Space is row7 col4 (slot 60), selected when $DC00 bit 7 is clear.
	m.mem.WriteIO(0xDC00, 0x7F)
	if v := m.keyboardByte(); v != 0xFF {
		t.Fatalf("keyboardByte = %#x before keydown, want 0xFF", v)
	}

	m.HandleKey(32, true)
	if v := m.keyboardByte(); v&(1<<4) != 0 {
		t.Fatalf("keyboardByte = %#x after Space down, bit 4 should be clear", v)
	}

	m.HandleKey(32, false)
	if v := m.keyboardByte(); v != 0xFF {
		t.Fatalf("keyboardByte = %#x after Space up, want 0xFF", v)
	}
}

func TestJoystickByteActiveLow(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)

	if v := m.joystickByte(); v != 0x1F {
		t.Fatalf("joystickByte = %#x at rest, want 0x1F", v)
	}

	m.HandleKey(keyJoyUp, true)
	if v := m.joystickByte(); v&0x01 != 0 {
		t.Fatalf("joystickByte = %#x with up held, bit 0 should be clear", v)
	}
	m.HandleKey(keyJoyUp, false)
	if v := m.joystickByte(); v != 0x1F {
		t.Fatalf("joystickByte = %#x after release, want 0x1F", v)
	}
}

func TestCIOUTBlocksFastloaderHandshake(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)

	m.mem.WriteRAM(0x90, 0x00)
	m.KernalTrap(0xFFA8)

	if got := m.mem.ReadRAM(0x90); got != 0x80 {
		t.Fatalf("$90 = %#x after CIOUT trap, want 0x80", got)
	}
}

func TestCHRINWithNoFileSignalsMissing(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil) // no disk image: CHKIN yields a handle that never opens

	m.KernalTrap(0xFFC6)
	m.KernalTrap(0xFFCF)

	if got := m.mem.ReadRAM(0x90); got != 0x42 {
		t.Fatalf("$90 = %#x after CHRIN with no file, want 0x42", got)
	}
}

func TestRasterIRQFiresOnTargetLine(t *testing.T) {
	m := New(DefaultConfig())
	m.Boot(nil)
	// Boot only latches RESET; service it first, since RESET clears every
	// pending latch. RESET also sets I, which would mask the IRQ.
	m.cpu.Step()
	m.cpu.IntFlag = false

	m.mem.WriteIO(0xD01A, 0x01) // enable raster IRQ
	m.mem.WriteIO(0xD011, 0x00) // high bit of target clear
	m.mem.WriteIO(0xD012, 100)  // target line 100

	m.mem.WriteRAM(0xFFFE, 0x00)
	m.mem.WriteRAM(0xFFFF, 0x10)
	m.mem.WriteRAM(0x1000, 0x40) // RTI

	for line := 0; line < 101; line++ {
		m.updateLineCounterAndIRQ(line)
	}
	// SetIRQ only latches; it's serviced on the next Step.
	m.cpu.Step()
	if m.cpu.PC < 0x1000 {
		t.Fatalf("PC = %#x, IRQ does not appear to have vectored to the handler", m.cpu.PC)
	}
}
