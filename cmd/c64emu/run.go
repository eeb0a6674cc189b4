package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/cadaver/c64emu/internal/hostaudio"
	"github.com/cadaver/c64emu/internal/machine"
)

const (
	screenW = 320
	screenH = 200
	// audioBuffers is how many 882-sample (one frame) buffers Stream holds
	// before it reports no free buffers and QueueAudio stops queuing.
	audioBuffers = 4
)

// app is a thin ebiten.Game adapter: it owns no emulation logic, only the
// window/input/audio plumbing the core's PixelSink/AudioOut/HandleKey
// contracts need a concrete host for.
type app struct {
	m      *machine.Machine
	tex    *ebiten.Image
	stream *hostaudio.Stream
	keys   map[ebiten.Key]bool
}

func runInteractive(cfg cliConfig) error {
	saves := newFileSaveStore(cfg.SaveDir)
	img, loadErr := loadDiskImage(cfg.DiskDir, cfg.DiskImageName, saves)
	if loadErr != nil {
		fmt.Printf("warning: %v; running with empty memory\n", loadErr)
	}

	m := machine.New(machine.Config{
		BugJMPIndirect: cfg.BugJMPIndirect,
		ZeroCostIRQ:    cfg.ZeroCostIRQ,
	})
	m.Boot(img)

	ctx := audio.NewContext(hostaudio.SampleRate)
	_, stream, err := hostaudio.NewPlayer(ctx, audioBuffers)
	if err != nil {
		return err
	}

	a := &app{
		m:      m,
		tex:    ebiten.NewImage(screenW, screenH),
		stream: stream,
		keys:   make(map[ebiten.Key]bool),
	}

	ebiten.SetWindowSize(screenW*cfg.Scale, screenH*cfg.Scale)
	ebiten.SetWindowTitle("c64emu - " + cfg.DiskImageName)
	ebiten.SetTPS(50) // the C64 core is inherently a 50 Hz PAL machine

	return ebiten.RunGame(a)
}

func (a *app) Update() error {
	for ek, code := range ebitenKeyCodes {
		down := ebiten.IsKeyPressed(ek)
		if down != a.keys[ek] {
			a.keys[ek] = down
			a.m.HandleKey(code, down)
		}
	}

	a.m.Update((*pixelAdapter)(a.tex))
	a.m.QueueAudio(a.stream)
	return nil
}

func (a *app) Draw(screen *ebiten.Image) {
	op := &ebiten.DrawImageOptions{}
	sx := float64(screen.Bounds().Dx()) / screenW
	sy := float64(screen.Bounds().Dy()) / screenH
	op.GeoM.Scale(sx, sy)
	screen.DrawImage(a.tex, op)
}

func (a *app) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// pixelAdapter lets *ebiten.Image satisfy machine.PixelSink directly,
// converting the bottom-up ARGB framebuffer into ebiten's top-down RGBA
// pixel order in one WritePixels call per frame.
type pixelAdapter ebiten.Image

func (p *pixelAdapter) Present(rgba *[320 * 200]uint32) {
	var buf [320 * 200 * 4]byte
	for y := 0; y < screenH; y++ {
		srcRow := screenH - 1 - y
		for x := 0; x < screenW; x++ {
			px := rgba[srcRow*screenW+x]
			o := (y*screenW + x) * 4
			buf[o+0] = byte(px >> 16)
			buf[o+1] = byte(px >> 8)
			buf[o+2] = byte(px)
			buf[o+3] = byte(px >> 24)
		}
	}
	(*ebiten.Image)(p).WritePixels(buf[:])
}
