package plate

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Palette hands out annotation colours from a seeded counter-based generator,
// so the same seed always yields the same sequence on every platform.
type Palette struct {
	seed    uint64
	counter uint64
}

// NewPalette returns a palette positioned at the start of the seed's sequence.
func NewPalette(seed uint64) *Palette {
	return &Palette{seed: seed}
}

// next is splitmix64 over seed + counter.
func (p *Palette) next() uint64 {
	p.counter++
	z := p.seed + p.counter*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Next returns the next colour: a random hue at high saturation and full
// value, which stays readable on top of photographs.
func (p *Palette) Next() colorful.Color {
	hue := float64(p.next() % 360)
	sat := 0.7 + float64(p.next()%30)/100
	return colorful.Hsv(hue, sat, 1).Clamped()
}
