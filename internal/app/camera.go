package app

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/config"
	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/location"
)

const (
	minZoom  = 0.1
	maxZoom  = 8.0
	maxPitch = 89.0

	depthRange = 10000.0 // half depth of the 2D orthographic volume
	nearPlane  = 1.0
	farPlane   = 50000.0
)

// Camera looks at the preview, either straight on (2D, y up, origin at the
// bottom left) or from an orbit around the preview center (3D). It
// implements location.Preview.
type Camera struct {
	Zoom       float64
	PanX, PanY float64 // 2D pan in preview pixels, y up

	FOV      float64 // degrees
	Distance float64
	Yaw      float64 // degrees about the vertical axis
	Pitch    float64 // degrees above the floor

	width, height int
	mode3D        bool
}

var _ location.Preview = (*Camera)(nil)

// NewCamera creates a camera for a viewport of the given size.
func NewCamera(width, height int, c config.Camera, mode3D bool) *Camera {
	cam := &Camera{
		Zoom:     1.0,
		FOV:      c.FOV,
		Distance: c.Distance,
		Yaw:      c.Yaw,
		width:    width,
		height:   height,
		mode3D:   mode3D,
	}
	cam.SetPitch(c.Pitch)
	return cam
}

func (c *Camera) Width() int  { return c.width }
func (c *Camera) Height() int { return c.height }
func (c *Camera) Is3D() bool  { return c.mode3D }

// Set3D switches between the 2D and 3D views.
func (c *Camera) Set3D(on bool) { c.mode3D = on }

// SetZoom sets the zoom level, clamping to valid range.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = math.Max(minZoom, math.Min(maxZoom, zoom))
}

// SetPan sets the pan position to the given coordinates.
func (c *Camera) SetPan(x, y float64) {
	c.PanX, c.PanY = x, y
}

// SetPitch sets the orbit pitch, keeping the camera off the poles.
func (c *Camera) SetPitch(degrees float64) {
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, degrees))
}

// Orbit rotates the 3D camera around the preview center.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	c.SetPitch(c.Pitch + dPitch)
}

// SetViewport updates the viewport dimensions.
func (c *Camera) SetViewport(width, height int) {
	c.width, c.height = width, height
}

// ResetTo resets zoom to 1.0 and pans to center the given preview point in
// the viewport.
func (c *Camera) ResetTo(pos geom.Point) {
	c.Zoom = 1.0
	c.PanX = float64(c.width)/2.0 - pos.X
	c.PanY = float64(c.height)/2.0 - pos.Y
}

func (c *Camera) center() mgl64.Vec3 {
	return mgl64.Vec3{float64(c.width) / 2, float64(c.height) / 2, 0}
}

// Eye returns the 3D camera position.
func (c *Camera) Eye() mgl64.Vec3 {
	yaw, pitch := mgl64.DegToRad(c.Yaw), mgl64.DegToRad(c.Pitch)
	d := c.Distance / c.Zoom
	offset := mgl64.Vec3{
		d * math.Cos(pitch) * math.Sin(yaw),
		d * math.Sin(pitch),
		d * math.Cos(pitch) * math.Cos(yaw),
	}
	return c.center().Add(offset)
}

// ViewMatrix zooms about the viewport center then pans in 2D, and looks at
// the preview center from the orbit position in 3D.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	if c.mode3D {
		return mgl64.LookAtV(c.Eye(), c.center(), mgl64.Vec3{0, 1, 0})
	}
	ctr := c.center()
	return mgl64.Translate3D(c.PanX, c.PanY, 0).
		Mul4(mgl64.Translate3D(ctr.X(), ctr.Y(), 0)).
		Mul4(mgl64.Scale3D(c.Zoom, c.Zoom, 1)).
		Mul4(mgl64.Translate3D(-ctr.X(), -ctr.Y(), 0))
}

func (c *Camera) ProjMatrix() mgl64.Mat4 {
	w, h := float64(max(c.width, 1)), float64(max(c.height, 1))
	if c.mode3D {
		return mgl64.Perspective(mgl64.DegToRad(c.FOV), w/h, nearPlane, farPlane)
	}
	return mgl64.Ortho(0, w, 0, h, -depthRange, depthRange)
}

// ToPreview converts a 2D mouse position (origin top left) into preview
// pixels (origin bottom left), undoing zoom and pan.
func (c *Camera) ToPreview(mouseX, mouseY float64) (float64, float64) {
	ctr := c.center()
	x := mouseX - c.PanX
	y := float64(c.height) - mouseY - c.PanY
	return (x-ctr.X())/c.Zoom + ctr.X(), (y-ctr.Y())/c.Zoom + ctr.Y()
}
