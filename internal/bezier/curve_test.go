package bezier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsStraight(t *testing.T) {
	c := New(0.1, 0.2, 0.5, 0.2)
	x, y := c.CP0()
	assert.Equal(t, 0.1, x)
	assert.Equal(t, 0.2, y)
	x, y = c.CP1()
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 0.2, y)

	c.SetScale(1000, 500)
	c.UpdatePoints()
	require.GreaterOrEqual(t, c.NumPoints(), 2)
	for i := 0; i < c.NumPoints(); i++ {
		_, py := c.Point(i)
		assert.InDelta(t, 0.2, py, 1e-9)
	}
	x, _ = c.Point(0)
	assert.InDelta(t, 0.1, x, 1e-9)
	x, _ = c.Point(c.NumPoints() - 1)
	assert.InDelta(t, 0.5, x, 1e-9)
}

func TestSamplingFollowsLength(t *testing.T) {
	c := New(0, 0, 1, 0)
	c.SetScale(100, 100)
	c.UpdatePoints()
	short := c.NumPoints()

	c.SetScale(1000, 100)
	c.UpdatePoints()
	assert.Greater(t, c.NumPoints(), short)
	assert.LessOrEqual(t, c.NumPoints(), maxSamples)

	// Without a preview size only the endpoints are sampled.
	c.SetScale(0, 0)
	c.UpdatePoints()
	assert.Equal(t, minSamples, c.NumPoints())
}

func TestCheckMinMax(t *testing.T) {
	c := New(0.2, 0.5, 0.6, 0.5)
	c.SetCP0(0.2, 0.9)
	c.SetCP1(0.6, 0.9)

	minX, maxX, minY, maxY := 100.0, 0.0, 100.0, 0.0
	c.CheckMinMax(&minX, &maxX, &minY, &maxY)
	assert.InDelta(t, 0.2, minX, 1e-9)
	assert.InDelta(t, 0.6, maxX, 1e-9)
	assert.InDelta(t, 0.5, minY, 1e-9)
	// The curve peaks at 3/4 of the way to its control points.
	assert.InDelta(t, 0.8, maxY, 1e-6)
}

func TestHitTest(t *testing.T) {
	c := New(0.1, 0.5, 0.9, 0.5)
	c.SetCP0(0.1, 0.9)
	c.SetCP1(0.9, 0.9)
	c.SetScale(1000, 1000)
	c.UpdatePoints()

	// Apex of the arch sits at y = 0.8 in the middle.
	assert.True(t, c.HitTest(500, 800))
	assert.True(t, c.HitTest(500, 802))
	assert.False(t, c.HitTest(500, 810))
	// The chord between the endpoints is not part of the curve.
	assert.False(t, c.HitTest(500, 500))
	assert.True(t, c.HitTest(100, 500))

	c.SetScale(0, 0)
	assert.False(t, c.HitTest(100, 500))
}

func TestHitTestCollapsed(t *testing.T) {
	c := New(0.5, 0.5, 0.5, 0.5)
	c.SetScale(200, 200)
	assert.True(t, c.HitTest(101, 100))
	assert.False(t, c.HitTest(110, 100))
}

func TestOffset(t *testing.T) {
	c := New(0.1, 0.1, 0.3, 0.3)
	c.SetCP0(0.2, 0.0)
	c.SetScale(100, 100)
	c.UpdatePoints()
	n := c.NumPoints()

	c.OffsetX(0.5)
	c.OffsetY(-0.1)
	x, y := c.P0()
	assert.InDelta(t, 0.6, x, 1e-12)
	assert.InDelta(t, 0.0, y, 1e-12)
	x, y = c.CP0()
	assert.InDelta(t, 0.7, x, 1e-12)
	assert.InDelta(t, -0.1, y, 1e-12)
	x, y = c.P1()
	assert.InDelta(t, 0.8, x, 1e-12)
	assert.InDelta(t, 0.2, y, 1e-12)

	require.Equal(t, n, c.NumPoints())
	x, y = c.Point(n - 1)
	assert.InDelta(t, 0.8, x, 1e-12)
	assert.InDelta(t, 0.2, y, 1e-12)
}
