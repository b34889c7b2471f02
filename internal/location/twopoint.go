package location

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/palette"
)

// legacyBoxedAttrs are the attributes of the single-point layout format that
// TwoPoint models are migrated away from.
var legacyBoxedAttrs = []string{
	"worldPos_x", "worldPos_y", "scalex", "scaley", "PreviewRotation",
	"WorldPosX", "WorldPosY", "WorldPosZ", "ScaleX", "ScaleY", "ScaleZ",
}

// TwoPoint stretches a model along the segment between two endpoints given
// as fractions of the preview size. Model x runs along the segment, scaled
// so the render width spans it; model y runs perpendicular to it.
type TwoPoint struct {
	base

	x1, y1, x2, y2 float64

	// Explicit model-space y bounds used for hit testing, if set.
	minMaxSet  bool
	ymin, ymax float64

	angle       float64 // segment angle, radians
	scaleFactor float64 // segment length over render width
	matrix      geom.Affine
	inverse     geom.Affine
	invertible  bool

	// legacy is the attribute store awaiting migration from the boxed
	// format; it is converted once the preview size is known.
	legacy Attributes
}

var _ Location = (*TwoPoint)(nil)

// NewTwoPoint returns a segment from (0.4, 0.4) to (0.6, 0.6).
func NewTwoPoint() *TwoPoint {
	return newTwoPoint(2)
}

func newTwoPoint(numHandles int) *TwoPoint {
	return &TwoPoint{
		base:   newBase(numHandles),
		x1:     0.4,
		y1:     0.4,
		x2:     0.6,
		y2:     0.6,
		matrix: geom.Identity(),
	}
}

func (l *TwoPoint) Read(a Attributes) {
	if !a.HasAttr("X1") && (a.HasAttr("worldPos_x") || a.HasAttr("WorldPosX")) {
		l.legacy = a
	} else {
		l.x1 = attrFloat(a, "X1", 0.4)
		l.x2 = attrFloat(a, "X2", 0.6)
		l.y1 = attrFloat(a, "Y1", 0.4)
		l.y2 = attrFloat(a, "Y2", 0.6)
	}
	l.locked = attrLocked(a)
}

func (l *TwoPoint) Write(a Attributes) {
	replaceAttr(a, "X1", fmt.Sprintf("%f", l.x1))
	replaceAttr(a, "Y1", fmt.Sprintf("%f", l.y1))
	replaceAttr(a, "X2", fmt.Sprintf("%f", l.x2))
	replaceAttr(a, "Y2", fmt.Sprintf("%f", l.y2))
	writeLocked(a, l.locked)
}

// Points returns the endpoints in preview fractions.
func (l *TwoPoint) Points() (x1, y1, x2, y2 float64) { return l.x1, l.y1, l.x2, l.y2 }

// SetPoints sets both endpoints.
func (l *TwoPoint) SetPoints(x1, y1, x2, y2 float64) {
	if l.locked {
		return
	}
	l.x1, l.y1, l.x2, l.y2 = x1, y1, x2, y2
}

// SetYBounds restricts hit testing to model y in [lo, hi] rather than the
// render height.
func (l *TwoPoint) SetYBounds(lo, hi float64) {
	l.ymin, l.ymax = lo, hi
	l.minMaxSet = true
}

// ClearYBounds restores the default hit testing bounds.
func (l *TwoPoint) ClearYBounds() { l.minMaxSet = false }

// Matrix returns the transform computed by the last PrepareToDraw.
func (l *TwoPoint) Matrix() geom.Affine { return l.matrix }

// Angle returns the segment angle computed by the last PrepareToDraw.
func (l *TwoPoint) Angle() float64 { return l.angle }

// ScaleFactor returns the segment length over the render width computed by
// the last PrepareToDraw.
func (l *TwoPoint) ScaleFactor() float64 { return l.scaleFactor }

// FlipCoords swaps the endpoints.
func (l *TwoPoint) FlipCoords() {
	if l.locked {
		return
	}
	l.x1, l.x2 = l.x2, l.x1
	l.y1, l.y2 = l.y2, l.y1
}

func (l *TwoPoint) pixels() (x1, y1, x2, y2 float64) {
	w, h := float64(l.previewW), float64(l.previewH)
	return l.x1 * w, l.y1 * h, l.x2 * w, l.y2 * h
}

func (l *TwoPoint) PrepareToDraw(is3D, allowSelected bool) {
	l.prepare(is3D, 1, 0)
}

// prepare rebuilds the segment transform with the given vertical scale and
// shear.
func (l *TwoPoint) prepare(is3D bool, vscale, shear float64) {
	x1p, y1p, x2p, y2p := l.pixels()
	l.angle = geom.SegmentAngle(x1p, y1p, x2p, y2p)
	length := math.Hypot(x2p-x1p, y2p-y1p)
	l.scaleFactor = length
	if l.renderW > 0 {
		l.scaleFactor = length / l.renderW
	}

	l.matrix = geom.Translate(x1p, y1p).
		Mul(geom.Rotate(l.angle)).
		Mul(geom.ShearY(shear)).
		Mul(geom.Scale(l.scaleFactor, l.scaleFactor*vscale))
	inv, err := l.matrix.Inv()
	l.inverse, l.invertible = inv, err == nil
	l.draw3D = is3D
	l.placeHandles(is3D)
}

func (l *TwoPoint) placeHandles(is3D bool) {
	x1p, y1p, x2p, y2p := l.pixels()
	z := l.worldPos.Z()
	if is3D {
		l.handles[HandleStart] = mgl64.Vec3{x1p, y1p, z}
		l.handles[HandleEnd] = mgl64.Vec3{x2p, y2p, z}
		return
	}
	l.handles[HandleStart] = mgl64.Vec3{x1p - HandleWidth/2, y1p - HandleWidth/2, z}
	l.handles[HandleEnd] = mgl64.Vec3{x2p - HandleWidth/2, y2p - HandleWidth/2, z}
}

func (l *TwoPoint) TranslatePoint(x, y, z float64) (float64, float64, float64) {
	p := l.matrix.MulPoint(geom.MakePoint(x, y))
	return p.X, p.Y, z
}

// SetPreviewSize records the canvas size and completes any pending legacy
// migration.
func (l *TwoPoint) SetPreviewSize(w, h int, _ []mgl64.Vec3) {
	l.previewW, l.previewH = w, h
	if l.legacy != nil {
		l.processLegacy(l.legacy)
		l.Write(l.legacy)
		l.legacy = nil
	}
	l.PrepareToDraw(l.draw3D, false)
}

// legacyBox reads the boxed placement stored in a legacy attribute set. The
// oldest layouts store the center and size as fractions of the preview under
// worldPos_x, worldPos_y, scalex and scaley.
func (l *TwoPoint) legacyBox(a Attributes) *Boxed {
	box := NewBoxed()
	box.Read(a)
	box.SetRenderSize(l.renderW, l.renderH)
	w, h := float64(l.previewW), float64(l.previewH)
	if !a.HasAttr("WorldPosX") && a.HasAttr("worldPos_x") {
		box.worldPos[0] = attrFloat(a, "worldPos_x", 0.5) * w
		box.worldPos[1] = attrFloat(a, "worldPos_y", 0.5) * h
	}
	if !a.HasAttr("ScaleX") && a.HasAttr("scalex") && l.renderW > 0 && l.renderH > 0 {
		box.setScale(attrFloat(a, "scalex", 0)*w/l.renderW, attrFloat(a, "scaley", 0)*h/l.renderH)
	}
	box.SetPreviewSize(l.previewW, l.previewH, nil)
	box.PrepareToDraw(false, false)
	return box
}

// processLegacy places the endpoints where the legacy boxed transform put the
// left and right ends of the model, then drops the boxed attributes.
func (l *TwoPoint) processLegacy(a Attributes) {
	box := l.legacyBox(a)
	w, h := float64(l.previewW), float64(l.previewH)

	sx, sy, _ := box.TranslatePoint(-l.renderW/2, 0, 0)
	l.x1, l.y1 = sx/w, sy/h
	sx, sy, _ = box.TranslatePoint(l.renderW/2, 0, 0)
	l.x2, l.y2 = sx/w, sy/h

	for _, name := range legacyBoxedAttrs {
		a.DeleteAttr(name)
	}
	Logger().Debug("migrated legacy boxed attributes", "x1", l.x1, "y1", l.y1, "x2", l.x2, "y2", l.y2)
}

// corners returns the screen box covered by model y in [lo, hi].
func (l *TwoPoint) corners(lo, hi float64) geom.Box {
	pts := [4]geom.Point{
		l.matrix.MulPoint(geom.MakePoint(0, lo)),
		l.matrix.MulPoint(geom.MakePoint(0, hi)),
		l.matrix.MulPoint(geom.MakePoint(l.renderW, lo)),
		l.matrix.MulPoint(geom.MakePoint(l.renderW, hi)),
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return geom.BoxFromCorners(minX, minY, maxX, maxY)
}

// strictlyInside reports whether b lies strictly inside the selection
// rectangle with corners (x1, y1) and (x2, y2).
func strictlyInside(b geom.Box, x1, y1, x2, y2 float64) bool {
	sel := geom.BoxFromCorners(x1, y1, x2, y2)
	return sel.X < b.X && sel.X+sel.W > b.X+b.W && sel.Y < b.Y && sel.Y+sel.H > b.Y+b.H
}

func (l *TwoPoint) IsContained(x1, y1, x2, y2 float64) bool {
	lo, hi := 0.0, l.renderH
	if l.minMaxSet {
		lo, hi = l.ymin, l.ymax
	}
	return strictlyInside(l.corners(lo, hi), x1, y1, x2, y2)
}

// slopRange maps a small square around the segment midpoint into model
// space and returns the y range it covers. Thin models use it so they stay
// clickable.
func (l *TwoPoint) slopRange() (float64, float64) {
	mx := (l.x1 + l.x2) * float64(l.previewW) / 2
	my := (l.y1 + l.y2) * float64(l.previewH) / 2
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range [4][2]float64{{HitSlop, HitSlop}, {HitSlop, -HitSlop}, {-HitSlop, HitSlop}, {-HitSlop, -HitSlop}} {
		v := l.inverse.MulPoint(geom.MakePoint(mx+d[0], my+d[1]))
		lo, hi = math.Min(lo, v.Y), math.Max(hi, v.Y)
	}
	return lo, hi
}

// hitLocal maps (x, y) into model space and tests it against the render
// width and the given y range.
func (l *TwoPoint) hitLocal(x, y, lo, hi float64) bool {
	v := l.inverse.MulPoint(geom.MakePoint(x, y))
	return v.X >= -1 && v.X <= l.renderW+1 && v.Y >= lo && v.Y <= hi
}

func (l *TwoPoint) HitTest(x, y float64) bool {
	if !l.invertible {
		return false
	}
	lo, hi := l.ymin, l.ymax
	if !l.minMaxSet {
		if l.renderH < MinScreenSpan {
			lo, hi = l.slopRange()
		} else {
			lo, hi = -1, l.renderH
		}
	}
	return l.hitLocal(x, y, lo, hi)
}

func (l *TwoPoint) CheckIfOverHandles(x, y float64) (int, Cursor) {
	if l.locked {
		return NoHandle, CursorDefault
	}
	for h := range l.handles {
		if overRect(l.handles[h], x, y) {
			return h, CursorSizing
		}
	}
	return NoHandle, CursorDefault
}

func (l *TwoPoint) CheckIfOverHandles3D(p Preview, x, y float64) (int, Cursor) {
	return l.overHandle3D(p, x, y, HandleStart, HandleEnd)
}

func (l *TwoPoint) handleColor() color.RGBA {
	if l.locked {
		return palette.Locked
	}
	return palette.Handle
}

// DrawHandles draws both endpoint handles, and a guide line when the segment
// is level or plumb.
func (l *TwoPoint) DrawHandles(va Accumulator) {
	l.drawEndpoints(va)
	va.Finish(Triangles)
}

func (l *TwoPoint) drawEndpoints(va Accumulator) {
	l.placeHandles(false)
	x1p, y1p, x2p, y2p := l.pixels()
	z := l.worldPos.Z()
	c := l.handleColor()

	switch {
	case math.Round(y2p) == math.Round(y1p):
		va.AddVertex(x1p, y1p, z, palette.Horizontal)
		va.AddVertex(x2p, y2p, z, palette.Horizontal)
		va.Finish(Lines)
	case math.Round(x2p) == math.Round(x1p):
		va.AddVertex(x1p, y1p, z, c)
		va.AddVertex(x2p, y2p, z, c)
		va.Finish(Lines)
	}

	h := l.handles[HandleStart]
	va.AddRect(h.X(), h.Y(), h.X()+HandleWidth, h.Y()+HandleWidth, z, palette.First)
	h = l.handles[HandleEnd]
	va.AddRect(h.X(), h.Y(), h.X()+HandleWidth, h.Y()+HandleWidth, z, c)
}

// DrawHandles3D draws the endpoints as cubes joined by the segment.
func (l *TwoPoint) DrawHandles3D(va Accumulator) {
	l.placeHandles(true)
	a, b := l.handles[HandleStart], l.handles[HandleEnd]
	va.AddVertex(a.X(), a.Y(), a.Z(), palette.Outline)
	va.AddVertex(b.X(), b.Y(), b.Z(), palette.Outline)
	va.Finish(Lines)
	va.AddCube(a.X(), a.Y(), a.Z(), HandleWidth, palette.First)
	va.AddCube(b.X(), b.Y(), b.Z(), HandleWidth, l.handleColor())
	va.Finish(Triangles)
	if l.activeHandle == HandleStart || l.activeHandle == HandleEnd {
		l.drawActiveAxis(l.handles[l.activeHandle], va)
	}
}

// MoveHandle moves an endpoint to the mouse. With shift held, each axis
// snaps to the other endpoint when within SnapRange pixels of it.
func (l *TwoPoint) MoveHandle(_ Preview, handle int, shift bool, x, y float64) bool {
	if l.locked {
		return false
	}
	w, h := float64(l.previewW), float64(l.previewH)
	newX, newY := x/w, y/h

	if shift {
		ox, oy := l.x2, l.y2
		if handle != HandleStart {
			ox, oy = l.x1, l.y1
		}
		if math.Abs(x-ox*w) <= SnapRange {
			newX = ox
		}
		if math.Abs(y-oy*h) <= SnapRange {
			newY = oy
		}
	}

	if handle != HandleStart {
		l.x2, l.y2 = newX, newY
	} else {
		l.x1, l.y1 = newX, newY
	}
	return true
}

// MoveHandle3D drags an endpoint along the active axis. The preview plane is
// z = 0, so dragging along Z moves the whole model in depth.
func (l *TwoPoint) MoveHandle3D(p Preview, handle int, _, _ bool, x, y float64, latch bool) {
	if l.locked || (handle != HandleStart && handle != HandleEnd) {
		return
	}
	if latch {
		x1p, y1p, x2p, y2p := l.pixels()
		if handle == HandleStart {
			l.worldPos[0], l.worldPos[1] = x1p, y1p
		} else {
			l.worldPos[0], l.worldPos[1] = x2p, y2p
		}
	}
	if !l.DragHandle(p, x, y, latch) || latch {
		return
	}
	pos := l.savedPosition.Add(l.dragDelta)
	l.worldPos[2] = pos.Z()
	fx, fy := pos.X()/float64(l.previewW), pos.Y()/float64(l.previewH)
	if handle == HandleStart {
		l.x1, l.y1 = fx, fy
	} else {
		l.x2, l.y2 = fx, fy
	}
}

// InitializeLocation collapses both endpoints onto the mouse so the creating
// drag pulls out the end handle.
func (l *TwoPoint) InitializeLocation(_ Preview, x, y float64, _ []mgl64.Vec3) (int, Cursor) {
	l.x1 = x / float64(l.previewW)
	l.x2 = l.x1
	l.y1 = y / float64(l.previewH)
	l.y2 = l.y1
	return HandleEnd, CursorSizing
}

func (l *TwoPoint) Properties() []Property {
	return []Property{
		{Name: "Locked", Label: "Locked", Value: l.locked},
		{Name: "ModelX1", Label: "X1 (%)", Value: l.x1 * 100},
		{Name: "ModelY1", Label: "Y1 (%)", Value: l.y1 * 100},
		{Name: "ModelX2", Label: "X2 (%)", Value: l.x2 * 100},
		{Name: "ModelY2", Label: "Y2 (%)", Value: l.y2 * 100},
	}
}

func (l *TwoPoint) OnPropertyChange(name string, value any) ChangeResult {
	var target *float64
	switch name {
	case "Locked":
		return setLocked(&l.base, value)
	case "ModelX1":
		target = &l.x1
	case "ModelY1":
		target = &l.y1
	case "ModelX2":
		target = &l.x2
	case "ModelY2":
		target = &l.y2
	default:
		return ChangeNone
	}
	if l.locked {
		return ChangeVetoed
	}
	v, err := toFloat(value)
	if err != nil {
		Logger().Debug("rejected property value", "name", name, "err", err)
		return ChangeVetoed
	}
	*target = v / 100
	return ChangeApplied
}

func (l *TwoPoint) Top() float64 {
	_, y1p, _, y2p := l.pixels()
	return math.Max(math.Round(y1p), math.Round(y2p))
}

func (l *TwoPoint) Bottom() float64 {
	_, y1p, _, y2p := l.pixels()
	return math.Min(math.Round(y1p), math.Round(y2p))
}

func (l *TwoPoint) Left() float64 {
	x1p, _, x2p, _ := l.pixels()
	return math.Min(math.Round(x1p), math.Round(x2p))
}

func (l *TwoPoint) Right() float64 {
	x1p, _, x2p, _ := l.pixels()
	return math.Max(math.Round(x1p), math.Round(x2p))
}

func (l *TwoPoint) MWidth() float64  { return math.Abs(l.x1-l.x2) * float64(l.previewW) }
func (l *TwoPoint) MHeight() float64 { return math.Abs(l.y1-l.y2) * float64(l.previewH) }

// moveExtremal moves whichever of *a, *b satisfies pick to v and shifts the
// other by the same amount.
func moveExtremal(a, b *float64, pick func(a, b float64) bool, v float64) {
	if pick(*a, *b) {
		diff := *a - v
		*a = v
		*b -= diff
	} else {
		diff := *b - v
		*b = v
		*a -= diff
	}
}

func greater(a, b float64) bool { return a > b }
func less(a, b float64) bool    { return a < b }

func (l *TwoPoint) SetTop(y float64) {
	if !l.locked {
		moveExtremal(&l.y1, &l.y2, greater, y/float64(l.previewH))
	}
}

func (l *TwoPoint) SetBottom(y float64) {
	if !l.locked {
		moveExtremal(&l.y1, &l.y2, less, y/float64(l.previewH))
	}
}

func (l *TwoPoint) SetLeft(x float64) {
	if !l.locked {
		moveExtremal(&l.x1, &l.x2, less, x/float64(l.previewW))
	}
}

func (l *TwoPoint) SetRight(x float64) {
	if !l.locked {
		moveExtremal(&l.x1, &l.x2, greater, x/float64(l.previewW))
	}
}

// SetMWidth keeps the left endpoint and moves the right one.
func (l *TwoPoint) SetMWidth(w float64) {
	if l.locked {
		return
	}
	if l.x1 > l.x2 {
		l.x1 = l.x2 + w/float64(l.previewW)
	} else {
		l.x2 = l.x1 + w/float64(l.previewW)
	}
}

// SetMHeight keeps the lower endpoint and moves the upper one.
func (l *TwoPoint) SetMHeight(h float64) {
	if l.locked {
		return
	}
	if l.y1 > l.y2 {
		l.y1 = l.y2 + h/float64(l.previewH)
	} else {
		l.y2 = l.y1 + h/float64(l.previewH)
	}
}

func (l *TwoPoint) HCenterOffset() float64 { return (l.x1 + l.x2) / 2 }
func (l *TwoPoint) VCenterOffset() float64 { return (l.y1 + l.y2) / 2 }

func (l *TwoPoint) SetHCenterOffset(f float64) {
	if l.locked {
		return
	}
	diff := (l.x1+l.x2)/2 - f
	l.x1 -= diff
	l.x2 -= diff
}

func (l *TwoPoint) SetVCenterOffset(f float64) {
	if l.locked {
		return
	}
	diff := (l.y1+l.y2)/2 - f
	l.y1 -= diff
	l.y2 -= diff
}

func (l *TwoPoint) SetOffset(xPct, yPct float64) {
	l.SetHCenterOffset(xPct)
	l.SetVCenterOffset(yPct)
}

// AddOffset moves both endpoints. Depth is carried by the world position.
func (l *TwoPoint) AddOffset(xPct, yPct, zPct float64) {
	if l.locked {
		return
	}
	l.x1 += xPct
	l.x2 += xPct
	l.y1 += yPct
	l.y2 += yPct
	l.worldPos[2] += zPct * float64(l.previewH)
}
