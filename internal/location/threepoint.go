package location

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/palette"
)

// ThreePoint is a TwoPoint with a third handle that sets the model's height
// and, for models that support it, a bend angle or a shear.
type ThreePoint struct {
	*TwoPoint

	height float64 // multiple of the render height
	angle  int     // bend, degrees
	shear  float64

	modelHandlesHeight bool // the model scales its own nodes by height
	supportsAngle      bool
	supportsShear      bool
}

var _ Location = (*ThreePoint)(nil)

// ThreePointOption configures the capabilities of a ThreePoint.
type ThreePointOption func(*ThreePoint)

// WithAngle lets the third handle bend the model.
func WithAngle() ThreePointOption { return func(l *ThreePoint) { l.supportsAngle = true } }

// WithShear lets the third handle shear the model.
func WithShear() ThreePointOption { return func(l *ThreePoint) { l.supportsShear = true } }

// WithModelHandlesHeight leaves the vertical scale to the model itself.
func WithModelHandlesHeight() ThreePointOption {
	return func(l *ThreePoint) { l.modelHandlesHeight = true }
}

// NewThreePoint returns a ThreePoint with unit height.
func NewThreePoint(opts ...ThreePointOption) *ThreePoint {
	l := &ThreePoint{
		TwoPoint: newTwoPoint(3),
		height:   1.0,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ThreePoint) Height() float64 { return l.height }
func (l *ThreePoint) BendAngle() int  { return l.angle }
func (l *ThreePoint) Shear() float64  { return l.shear }

// SetHeight sets the height factor, kept at least MinExtent from zero.
func (l *ThreePoint) SetHeight(h float64) {
	if l.locked {
		return
	}
	l.height = clampMagnitude(h)
}

func (l *ThreePoint) Read(a Attributes) {
	l.TwoPoint.Read(a)
	l.height = clampMagnitude(attrFloat(a, "Height", 1.0))
	l.angle = attrInt(a, "Angle", 0)
	l.shear = attrFloat(a, "Shear", 0)
}

func (l *ThreePoint) Write(a Attributes) {
	l.TwoPoint.Write(a)
	a.DeleteAttr("Locked")
	replaceAttr(a, "Height", fmt.Sprintf("%f", l.height))
	if l.supportsAngle {
		replaceAttr(a, "Angle", fmt.Sprintf("%d", l.angle))
	}
	if l.supportsShear {
		replaceAttr(a, "Shear", fmt.Sprintf("%f", l.shear))
	}
	writeLocked(a, l.locked)
}

func (l *ThreePoint) vScale() float64 {
	if l.modelHandlesHeight {
		return 1.0
	}
	return l.height
}

func (l *ThreePoint) yShear() float64 {
	if l.supportsShear {
		return l.shear
	}
	return 0
}

func (l *ThreePoint) PrepareToDraw(is3D, allowSelected bool) {
	l.prepare(is3D, l.vScale(), l.yShear())
	l.placeShearHandle(is3D)
}

// SetPreviewSize records the canvas size and completes any pending legacy
// migration. The legacy model's top center fixes the height.
func (l *ThreePoint) SetPreviewSize(w, h int, _ []mgl64.Vec3) {
	l.previewW, l.previewH = w, h
	if a := l.legacy; a != nil {
		tx, ty, _ := l.legacyBox(a).TranslatePoint(l.renderW/2, l.renderH, 0)
		l.processLegacy(a)

		l.height = 1.0
		l.PrepareToDraw(false, false)
		if l.invertible && l.renderH > 0 {
			v := l.inverse.MulPoint(geom.MakePoint(tx, ty))
			l.height = clampMagnitude(v.Y / l.renderH)
		}
		l.Write(a)
		l.legacy = nil
	}
	l.PrepareToDraw(l.draw3D, false)
}

// upsideDown reports whether the bend turns the model over.
func (l *ThreePoint) upsideDown() bool {
	return l.angle > -270 && l.angle < -90
}

func (l *ThreePoint) IsContained(x1, y1, x2, y2 float64) bool {
	lo, hi := l.ymin, l.ymax
	if !l.minMaxSet {
		if l.upsideDown() {
			lo, hi = -l.renderH, 0
		} else {
			lo, hi = 0, l.renderH
		}
	}
	return strictlyInside(l.corners(lo, hi), x1, y1, x2, y2)
}

func (l *ThreePoint) HitTest(x, y float64) bool {
	if !l.invertible {
		return false
	}
	lo, hi := l.ymin, l.ymax
	if !l.minMaxSet {
		switch {
		case l.renderH < MinScreenSpan:
			lo, hi = l.slopRange()
		case l.upsideDown():
			lo, hi = -l.renderH, 1
		default:
			lo, hi = -1, l.renderH
		}
	}
	return l.hitLocal(x, y, lo, hi)
}

// shearHandle returns the screen position of the third handle's center.
func (l *ThreePoint) shearHandle() (float64, float64) {
	x, top := l.renderW/2, l.renderH
	if l.minMaxSet {
		top = l.ymax
	}
	if l.supportsAngle {
		top = l.renderH * l.height
		x, top = geom.RotatePoint(geom.Radians(l.angle), 0, top)
		x += l.renderW / 2
	}
	p := l.matrix.MulPoint(geom.MakePoint(x, top))
	return p.X, p.Y
}

func (l *ThreePoint) placeShearHandle(is3D bool) {
	sx, sy := l.shearHandle()
	if is3D {
		l.handles[HandleShear] = mgl64.Vec3{sx, sy, l.worldPos.Z()}
		return
	}
	l.handles[HandleShear] = mgl64.Vec3{sx - HandleWidth/2, sy - HandleWidth/2, l.worldPos.Z()}
}

// DrawHandles draws the endpoints and the height handle on an arm from the
// segment midpoint.
func (l *ThreePoint) DrawHandles(va Accumulator) {
	mx := (l.x1 + l.x2) * float64(l.previewW) / 2
	my := (l.y1 + l.y2) * float64(l.previewH) / 2
	sx, sy := l.shearHandle()
	z := l.worldPos.Z()

	va.AddVertex(mx, my, z, palette.Outline)
	va.AddVertex(sx, sy, z, palette.Outline)
	va.Finish(Lines)

	l.drawEndpoints(va)
	l.placeShearHandle(false)
	h := l.handles[HandleShear]
	va.AddRect(h.X(), h.Y(), h.X()+HandleWidth, h.Y()+HandleWidth, z, l.handleColor())
	va.Finish(Triangles)
}

// MoveHandle moves the height handle, or an endpoint.
func (l *ThreePoint) MoveHandle(p Preview, handle int, shift bool, x, y float64) bool {
	if l.locked {
		return false
	}
	if handle != HandleShear {
		return l.TwoPoint.MoveHandle(p, handle, shift, x, y)
	}
	if !l.invertible {
		return false
	}

	v := l.inverse.MulPoint(geom.MakePoint(x, y))
	top := l.renderH
	if l.minMaxSet {
		top = l.ymax
	}
	top = math.Max(top, MinExtent)

	switch {
	case l.supportsAngle:
		dx := v.X - l.renderW/2
		if l.renderH > 0 {
			l.height = math.Hypot(dx, v.Y) / l.renderH
		}
		l.angle = geom.Degrees(math.Atan2(v.Y, dx) - math.Pi/2)
	case l.supportsShear:
		l.height = l.height * v.Y / top
		if l.renderW > 0 {
			l.shear -= (v.X - l.renderW/2) / l.renderW
		}
		l.shear = math.Max(-3, math.Min(3, l.shear))
	default:
		l.height = l.height * v.Y / top
	}
	l.height = clampMagnitude(l.height)
	return true
}

func (l *ThreePoint) Properties() []Property {
	props := append(l.TwoPoint.Properties(), Property{Name: "ModelHeight", Label: "Height", Value: l.height})
	if l.supportsAngle {
		props = append(props, Property{Name: "ModelAngle", Label: "Angle", Value: l.angle})
	}
	if l.supportsShear {
		props = append(props, Property{Name: "ModelShear", Label: "Shear", Value: l.shear})
	}
	return props
}

func (l *ThreePoint) OnPropertyChange(name string, value any) ChangeResult {
	switch name {
	case "ModelHeight", "ModelShear", "ModelAngle":
	default:
		return l.TwoPoint.OnPropertyChange(name, value)
	}
	if l.locked {
		return ChangeVetoed
	}
	v, err := toFloat(value)
	if err != nil {
		Logger().Debug("rejected property value", "name", name, "err", err)
		return ChangeVetoed
	}
	switch name {
	case "ModelHeight":
		l.height = clampMagnitude(v)
	case "ModelAngle":
		l.angle = int(math.Max(-360, math.Min(360, v)))
	default:
		l.shear = v
	}
	return ChangeApplied
}

func (l *ThreePoint) MHeight() float64 { return l.height * l.renderH }

func (l *ThreePoint) SetMHeight(h float64) {
	if l.renderH > 0 {
		l.SetHeight(h / l.renderH)
	}
}
