package session

// Palette hands out display colors cyclically
type Palette struct {
	colors []string
	next   int
}

// NewPalette creates a Palette over colors
func NewPalette(colors []string) *Palette {
	if len(colors) == 0 {
		colors = DefaultPalette
	}
	return &Palette{colors: append([]string(nil), colors...)}
}

// Next returns the next color of the cycle
func (p *Palette) Next() string {
	c := p.At(p.next)
	p.next++
	return c
}

// At returns the color at a cyclic index without advancing the cycle
func (p *Palette) At(i int) string {
	n := len(p.colors)
	return p.colors[((i%n)+n)%n]
}

// Colors returns the palette entries
func (p *Palette) Colors() []string {
	return append([]string(nil), p.colors...)
}
