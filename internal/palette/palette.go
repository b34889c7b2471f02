// Package palette provides the fixed colors used to draw model handles and
// the HSV-based node colors used to tell models apart in the preview.
package palette

import (
	"image/color"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// Handle and guide colors.
var (
	Handle       = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Locked       = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	First        = color.RGBA{R: 0, G: 255, B: 0, A: 255} // first point of a segment or polyline
	Selected     = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Outline      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Center       = color.RGBA{R: 255, G: 128, B: 0, A: 255}
	CurveControl = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Horizontal   = color.RGBA{R: 255, G: 0, B: 0, A: 255} // guide shown when a segment is level

	AxisX = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	AxisY = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	AxisZ = color.RGBA{R: 0, G: 255, B: 0, A: 255}

	Background = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Palette holds the node colors for a run of models.
type Palette [5]color.RGBA

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hsb converts hue, saturation and brightness given on a 0-100 scale.
func hsb(h, s, b float64) color.RGBA {
	c := colorful.Hsv(h*3.6, clamp(s/100.0, 0, 1), clamp(b/100.0, 0, 1))
	red, green, blue := c.RGB255()
	return color.RGBA{R: red, G: green, B: blue, A: 255}
}

// RandomPalette returns a palette of bright, saturated node colors.
func RandomPalette(r *rand.Rand) Palette {
	p := Palette{}
	for i := range p {
		p[i] = hsb(r.Float64()*100, r.Float64()*40+60, r.Float64()*30+70)
	}
	return p
}

// ForModel returns a node color for the i-th model of a layout, cycling
// through p.
func (p Palette) ForModel(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return p[i%len(p)]
}

// Shimmered applies a brightness jitter to every color when shimmer >= 0.
func Shimmered(p Palette, shimmer int, r *rand.Rand) Palette {
	if shimmer < 0 {
		return p
	}

	out := p
	for i := range out {
		c := colorful.Color{R: float64(out[i].R) / 255, G: float64(out[i].G) / 255, B: float64(out[i].B) / 255}
		h, s, v := c.Hsv()
		v = clamp(v+(r.Float64()-0.5)*0.2, 0, 1)
		red, green, blue := colorful.Hsv(h, s, v).RGB255()
		out[i] = color.RGBA{R: red, G: green, B: blue, A: 255}
	}
	return out
}

// Highlight returns c blended toward white, used for the nodes of selected
// models.
func Highlight(c color.RGBA) color.RGBA {
	base := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	red, green, blue := base.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.5).Clamped().RGB255()
	return color.RGBA{R: red, G: green, B: blue, A: c.A}
}
