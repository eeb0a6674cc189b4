// Package hostaudio adapts the machine's mono 44.1 kHz SID output to
// ebiten's audio player via a pull-based io.Reader that converts queued
// samples on demand and pads with silence on underrun rather than stalling.
package hostaudio

import (
	"encoding/binary"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleRate is the fixed mono sample rate the SID core produces.
const SampleRate = 44100

// Stream is a ring of queued mono PCM buffers exposed to ebiten/v2/audio as
// an io.Reader, and to the machine as a machine.AudioOut. Buffers are
// queued whole (one per 882-sample chunk Machine.QueueAudio hands over; a
// single QueueAudio call may queue several) and drained byte-by-byte
// as ebiten's player pulls from Read.
type Stream struct {
	mu      sync.Mutex
	pending [][]int16
	cap     int
}

// New constructs a Stream that holds at most bufferCount queued buffers
// before reporting backpressure via NumFreeBuffers.
func New(bufferCount int) *Stream {
	return &Stream{cap: bufferCount}
}

// NumFreeBuffers implements machine.AudioOut.
func (s *Stream) NumFreeBuffers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.cap - len(s.pending)
	if n < 0 {
		return 0
	}
	return n
}

// QueueBuffer implements machine.AudioOut, taking ownership of a copy of
// samples (the slice Machine.QueueAudio passes aliases the SID FIFO's
// backing array).
func (s *Stream) QueueBuffer(samples []int16) {
	cp := make([]int16, len(samples))
	copy(cp, samples)
	s.mu.Lock()
	s.pending = append(s.pending, cp)
	s.mu.Unlock()
}

// Read implements io.Reader for ebiten/v2/audio.Player, converting queued
// int16 mono samples into little-endian stereo frames (ebiten's mixer is
// stereo-only; the mono signal is duplicated to both channels).
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	framesWanted := len(p) / 4
	i := 0
	for i < framesWanted {
		sample, ok := s.nextSample()
		if !ok {
			break
		}
		binary.LittleEndian.PutUint16(p[i*4:], uint16(sample))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(sample))
		i++
	}
	// Pad any remainder with silence rather than stalling the player.
	for j := i * 4; j < framesWanted*4; j += 4 {
		binary.LittleEndian.PutUint16(p[j:], 0)
		binary.LittleEndian.PutUint16(p[j+2:], 0)
	}
	return framesWanted * 4, nil
}

func (s *Stream) nextSample() (int16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) > 0 {
		buf := s.pending[0]
		if len(buf) == 0 {
			s.pending = s.pending[1:]
			continue
		}
		v := buf[0]
		s.pending[0] = buf[1:]
		return v, true
	}
	return 0, false
}

// NewPlayer builds an ebiten audio player reading from a fresh Stream.
func NewPlayer(ctx *audio.Context, bufferCount int) (*audio.Player, *Stream, error) {
	s := New(bufferCount)
	p, err := ctx.NewPlayer(s)
	if err != nil {
		return nil, nil, err
	}
	p.Play()
	return p, s, nil
}
