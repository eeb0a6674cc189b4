package main

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cadaver/c64emu/internal/machine"
)

// headlessConfig drives a fixed number of frames against null sinks,
// checksums the resulting framebuffer, optionally dumps it as a PNG, and
// optionally asserts the checksum - all without touching a window or an
// audio device, so it can run in CI with no toolchain beyond `go build`/`go
// run`.
type headlessConfig struct {
	Frames int
	PNGOut string
	Expect string
}

// capturePixels is a machine.PixelSink that just remembers the last frame.
type capturePixels struct {
	frame [320 * 200]uint32
}

func (c *capturePixels) Present(rgba *[320 * 200]uint32) {
	c.frame = *rgba
}

// bytes packs the raw framebuffer for checksumming, independent of any
// particular image encoding.
func (c *capturePixels) bytes() []byte {
	b := make([]byte, len(c.frame)*4)
	for i, px := range c.frame {
		binary.LittleEndian.PutUint32(b[i*4:], px)
	}
	return b
}

// toImage converts the bottom-up ARGB framebuffer (row 0 is the bottom
// scanline, per the pixel-sink contract) into a top-down image.RGBA, with
// a status bar burned in above it.
func (c *capturePixels) toImage(status string) *image.RGBA {
	const barHeight = 12
	img := image.NewRGBA(image.Rect(0, 0, 320, 200+barHeight))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, 9),
	}
	d.DrawString(status)

	for y := 0; y < 200; y++ {
		srcRow := 199 - y
		for x := 0; x < 320; x++ {
			px := c.frame[srcRow*320+x]
			o := img.PixOffset(x, y+barHeight)
			img.Pix[o+0] = byte(px >> 16)
			img.Pix[o+1] = byte(px >> 8)
			img.Pix[o+2] = byte(px)
			img.Pix[o+3] = byte(px >> 24)
		}
	}
	return img
}

func runHeadless(cfg cliConfig, h headlessConfig) error {
	saves := newFileSaveStore(cfg.SaveDir)
	img, err := loadDiskImage(cfg.DiskDir, cfg.DiskImageName, saves)
	if err != nil {
		log.Printf("warning: %v; running with empty memory", err)
	}

	m := machine.New(machine.Config{
		BugJMPIndirect: cfg.BugJMPIndirect,
		ZeroCostIRQ:    cfg.ZeroCostIRQ,
	})
	m.Boot(img)

	frames := h.Frames
	if frames <= 0 {
		frames = 1
	}

	var capture capturePixels
	start := time.Now()
	for i := 0; i < frames; i++ {
		m.Update(&capture)
	}
	dur := time.Since(start)

	crc := crc32.ChecksumIEEE(capture.bytes())
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f jammed=%v fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, m.Jammed(), crc)

	if h.PNGOut != "" {
		status := fmt.Sprintf("frames=%d crc32=%08x jam=%v", frames, crc, m.Jammed())
		if err := writeFramePNG(capture.toImage(status), h.PNGOut); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", h.PNGOut)
	}

	if h.Expect != "" {
		want := strings.TrimPrefix(strings.ToLower(h.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func writeFramePNG(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
