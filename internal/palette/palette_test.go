package palette

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomPaletteIsDeterministic(t *testing.T) {
	a := RandomPalette(rand.New(rand.NewSource(7)))
	b := RandomPalette(rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
	for _, c := range a {
		assert.Equal(t, uint8(255), c.A)
	}
}

func TestForModelCycles(t *testing.T) {
	p := RandomPalette(rand.New(rand.NewSource(1)))
	assert.Equal(t, p[0], p.ForModel(0))
	assert.Equal(t, p[2], p.ForModel(len(p)+2))
	assert.Equal(t, p[1], p.ForModel(-1))
}

func TestShimmered(t *testing.T) {
	p := RandomPalette(rand.New(rand.NewSource(1)))
	assert.Equal(t, p, Shimmered(p, -1, rand.New(rand.NewSource(2))))
	assert.Len(t, Shimmered(p, 1, rand.New(rand.NewSource(2))), len(p))
}

func TestHighlightLightens(t *testing.T) {
	c := Highlight(color.RGBA{R: 200, A: 128})
	assert.Equal(t, uint8(128), c.A)
	assert.Greater(t, c.G, uint8(0))
	assert.Greater(t, c.B, uint8(0))

	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, Highlight(Outline))
}
