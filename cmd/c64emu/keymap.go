package main

import "github.com/hajimehoshi/ebiten/v2"

// ebitenKeyCodes translates ebiten's key constants into the browser-style
// keyCode values internal/machine's keyboard matrix expects, since ebiten
// (unlike a browser KeyboardEvent) exposes a typed Key enum rather than a
// numeric code.
var ebitenKeyCodes = buildKeyCodes()

func buildKeyCodes() map[ebiten.Key]uint32 {
	m := map[ebiten.Key]uint32{
		ebiten.KeyArrowUp:      38,
		ebiten.KeyArrowDown:    40,
		ebiten.KeyArrowLeft:    37,
		ebiten.KeyArrowRight:   39,
		ebiten.KeyControl:      17,
		ebiten.KeySpace:        32,
		ebiten.KeyEnter:        13,
		ebiten.KeyBackspace:    8,
		ebiten.KeyShift:        16,
		ebiten.KeyEscape:       27,
		ebiten.KeyMeta:         91,
		ebiten.KeyF1:           112,
		ebiten.KeyF3:           114,
		ebiten.KeyF5:           116,
		ebiten.KeyF7:           118,
		ebiten.KeyHome:         36,
		ebiten.KeyBackquote:    192,
		ebiten.KeyQuote:        222,
		ebiten.KeyEqual:        187,
		ebiten.KeyMinus:        189,
		ebiten.KeyPeriod:       190,
		ebiten.KeyComma:        188,
		ebiten.KeySemicolon:    186,
		ebiten.KeySlash:        191,
		ebiten.KeyBracketLeft:  219,
		ebiten.KeyBracketRight: 221,
		ebiten.KeyBackslash:    220,
	}
	for k := ebiten.Key0; k <= ebiten.Key9; k++ {
		m[k] = uint32('0') + uint32(k-ebiten.Key0)
	}
	for k := ebiten.KeyA; k <= ebiten.KeyZ; k++ {
		m[k] = uint32('A') + uint32(k-ebiten.KeyA)
	}
	return m
}
