package app

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/irfansharif/xlpreview/internal/config"
	"github.com/irfansharif/xlpreview/internal/geom"
)

func testCamera(mode3D bool) *Camera {
	return NewCamera(800, 600, config.Default().Camera, mode3D)
}

func TestCameraZoomClamps(t *testing.T) {
	c := testCamera(false)
	c.SetZoom(100)
	assert.Equal(t, maxZoom, c.Zoom)
	c.SetZoom(0)
	assert.Equal(t, minZoom, c.Zoom)

	c.Orbit(0, 500)
	assert.Equal(t, maxPitch, c.Pitch)
	c.Orbit(400, -1000)
	assert.Equal(t, -maxPitch, c.Pitch)
	assert.InDelta(t, 40, c.Yaw, 1e-9)
}

func TestCameraToPreviewFlipsY(t *testing.T) {
	c := testCamera(false)
	x, y := c.ToPreview(10, 10)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 590.0, y)
}

// ToPreview must undo the 2D view transform for any zoom and pan.
func TestCameraToPreviewInvertsView(t *testing.T) {
	c := testCamera(false)
	c.SetZoom(2.5)
	c.SetPan(-40, 25)

	p := mgl64.Vec4{123, 456, 0, 1}
	s := c.ViewMatrix().Mul4x1(p)
	x, y := c.ToPreview(s.X(), float64(c.Height())-s.Y())
	assert.InDelta(t, p.X(), x, 1e-9)
	assert.InDelta(t, p.Y(), y, 1e-9)
}

func TestCameraResetTo(t *testing.T) {
	c := testCamera(false)
	c.SetZoom(3)
	c.ResetTo(geom.MakePoint(100, 100))
	assert.Equal(t, 1.0, c.Zoom)

	x, y := c.ToPreview(400, 300)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)
}

func TestCameraOrbitEye(t *testing.T) {
	c := testCamera(true)
	c.Yaw, c.Pitch = 0, 0
	assert.True(t, c.Eye().ApproxEqual(mgl64.Vec3{400, 300, c.Distance}))

	c.SetZoom(2)
	assert.True(t, c.Eye().ApproxEqual(mgl64.Vec3{400, 300, c.Distance / 2}))

	// The preview center projects to the middle of the viewport.
	win := mgl64.Project(mgl64.Vec3{400, 300, 0}, c.ViewMatrix(), c.ProjMatrix(), 0, 0, 800, 600)
	assert.InDelta(t, 400, win.X(), 1e-6)
	assert.InDelta(t, 300, win.Y(), 1e-6)
}
