package location

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/palette"
)

// Boxed places a model by world position, per-axis scale and a rotation about
// Z. Its 2D handles are the four corners of the rotated bounding rectangle
// plus a rotate handle above it; in 3D it exposes the eight box corners and
// the center.
type Boxed struct {
	base

	rotation    int     // degrees, -180..180
	perspective float64 // pitch about X applied when drawing in 2D, radians

	radians          float64
	centerX, centerY float64
	modelMatrix      mgl64.Mat4

	// Screen bounding box of the translated nodes.
	minX, minY, maxX, maxY float64
	// Unrotated, untranslated node extents multiplied by scale.
	aabbMin, aabbMax mgl64.Vec3
}

var _ Location = (*Boxed)(nil)

// NewBoxed returns a boxed location at the origin with unit scale.
func NewBoxed() *Boxed {
	return &Boxed{
		base:        newBase(10),
		modelMatrix: mgl64.Ident4(),
	}
}

// Read loads position, scale, rotation and the lock flag.
func (l *Boxed) Read(a Attributes) {
	l.worldPos = mgl64.Vec3{
		attrFloat(a, "WorldPosX", 200),
		attrFloat(a, "WorldPosY", 0),
		attrFloat(a, "WorldPosZ", 0),
	}
	l.scale = mgl64.Vec3{
		attrFloat(a, "ScaleX", 1),
		attrFloat(a, "ScaleY", 1),
		attrFloat(a, "ScaleZ", 1),
	}
	for i := range l.scale {
		if l.scale[i] <= 0 {
			l.scale[i] = 1.0
		}
	}
	l.rotation = attrInt(a, "PreviewRotation", 0)
	l.locked = attrLocked(a)
}

func (l *Boxed) Write(a Attributes) {
	replaceAttr(a, "WorldPosX", fmt.Sprintf("%6.4f", l.worldPos.X()))
	replaceAttr(a, "WorldPosY", fmt.Sprintf("%6.4f", l.worldPos.Y()))
	replaceAttr(a, "WorldPosZ", fmt.Sprintf("%6.4f", l.worldPos.Z()))
	replaceAttr(a, "ScaleX", fmt.Sprintf("%6.4f", l.scale.X()))
	replaceAttr(a, "ScaleY", fmt.Sprintf("%6.4f", l.scale.Y()))
	replaceAttr(a, "ScaleZ", fmt.Sprintf("%6.4f", l.scale.Z()))
	replaceAttr(a, "PreviewRotation", fmt.Sprintf("%d", l.rotation))
	writeLocked(a, l.locked)
}

func (l *Boxed) Rotation() int                  { return l.rotation }
func (l *Boxed) Perspective() float64           { return l.perspective }
func (l *Boxed) SetPerspective(radians float64) { l.perspective = radians }
func (l *Boxed) ModelMatrix() mgl64.Mat4        { return l.modelMatrix }

// SetRotation sets the rotation in degrees.
func (l *Boxed) SetRotation(degrees int) {
	if l.locked {
		return
	}
	l.rotation = degrees
}

// SetWorldPosition moves the model's center.
func (l *Boxed) SetWorldPosition(v mgl64.Vec3) {
	if l.locked {
		return
	}
	l.worldPos = v
}

// SetScaleZ sets the depth scale factor.
func (l *Boxed) SetScaleZ(z float64) {
	if l.locked {
		return
	}
	l.scale[2] = math.Max(z, MinExtent)
}

// ScreenBounds returns the screen bounding box computed by SetPreviewSize.
func (l *Boxed) ScreenBounds() geom.Box {
	return geom.BoxFromCorners(l.minX, l.minY, l.maxX, l.maxY)
}

// AABB returns the scaled node extents computed by SetPreviewSize.
func (l *Boxed) AABB() (mgl64.Vec3, mgl64.Vec3) { return l.aabbMin, l.aabbMax }

// PrepareToDraw caches the rotation, center and model matrix, and places the
// handles for the requested mode.
func (l *Boxed) PrepareToDraw(is3D, allowSelected bool) {
	l.radians = geom.Radians(l.rotation)
	l.centerX, l.centerY = l.worldPos.X(), l.worldPos.Y()
	l.draw3D = is3D
	l.modelMatrix = mgl64.Translate3D(l.worldPos.X(), l.worldPos.Y(), l.worldPos.Z()).
		Mul4(mgl64.HomogRotate3DZ(l.radians))
	if is3D {
		l.placeHandles3D()
	} else {
		l.placeHandles2D()
	}
}

// TranslatePoint maps a node coordinate to the preview.
func (l *Boxed) TranslatePoint(x, y, z float64) (float64, float64, float64) {
	x *= l.scale.X()
	y *= l.scale.Y()
	z *= l.scale.Z()
	x, y = geom.RotatePoint(l.radians, x, y)
	if !l.draw3D && l.perspective != 0 {
		s, c := math.Sincos(l.perspective)
		y, z = c*y-s*z, s*y+c*z
	}
	return x + l.worldPos.X(), y + l.worldPos.Y(), z + l.worldPos.Z()
}

// SetPreviewSize records the canvas size and recomputes the screen bounding
// box and aabb from the node coordinates.
func (l *Boxed) SetPreviewSize(w, h int, nodes []mgl64.Vec3) {
	l.previewW, l.previewH = w, h
	l.PrepareToDraw(l.draw3D, false)
	l.updateBoundingBox(nodes)

	if len(nodes) == 0 {
		hw, hh := l.renderW*l.scale.X()/2, l.renderH*l.scale.Y()/2
		l.minX, l.maxX = l.centerX-hw, l.centerX+hw
		l.minY, l.maxY = l.centerY-hh, l.centerY+hh
	} else {
		l.minX, l.minY = math.Inf(1), math.Inf(1)
		l.maxX, l.maxY = math.Inf(-1), math.Inf(-1)
		for _, n := range nodes {
			sx, sy, _ := l.TranslatePoint(n.X(), n.Y(), n.Z())
			l.minX, l.maxX = math.Min(l.minX, sx), math.Max(l.maxX, sx)
			l.minY, l.maxY = math.Min(l.minY, sy), math.Max(l.maxY, sy)
		}
	}

	if l.maxY-l.minY < MinScreenSpan {
		l.maxY += MinScreenSpan / 2
		l.minY -= MinScreenSpan / 2
	}
	if l.maxX-l.minX < MinScreenSpan {
		l.maxX += MinScreenSpan / 2
		l.minX -= MinScreenSpan / 2
	}
}

func (l *Boxed) updateBoundingBox(nodes []mgl64.Vec3) {
	if len(nodes) == 0 {
		return
	}
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, n := range nodes {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], n[i])
			hi[i] = math.Max(hi[i], n[i])
		}
	}
	for i := 0; i < 3; i++ {
		l.aabbMin[i] = lo[i] * l.scale[i]
		l.aabbMax[i] = hi[i] * l.scale[i]
	}
}

func (l *Boxed) HitTest(x, y float64) bool {
	return x >= l.minX && x <= l.maxX && y >= l.minY && y <= l.maxY
}

func (l *Boxed) IsContained(x1, y1, x2, y2 float64) bool {
	return geom.BoxFromCorners(x1, y1, x2, y2).ContainsBox(l.ScreenBounds())
}

// CheckIfOverHandles returns the corner or rotate handle under (x, y) and the
// cursor to show for it.
func (l *Boxed) CheckIfOverHandles(x, y float64) (int, Cursor) {
	if l.locked {
		return NoHandle, CursorDefault
	}
	for corner := HandleLeftTop; corner <= HandleLeftBottom; corner++ {
		if overRect(l.handles[corner], x, y) {
			return corner, ResizeCursor(corner, float64(l.rotation))
		}
	}
	if overRect(l.handles[HandleRotate], x, y) {
		return HandleRotate, CursorHand
	}
	return NoHandle, CursorDefault
}

// CheckIfOverHandles3D only offers the center handle; corners are drawn but
// not draggable.
func (l *Boxed) CheckIfOverHandles3D(p Preview, x, y float64) (int, Cursor) {
	return l.overHandle3D(p, x, y, HandleCenter)
}

// InitializeLocation places a freshly created model at the mouse and returns
// the handle the creating drag continues with.
func (l *Boxed) InitializeLocation(p Preview, x, y float64, nodes []mgl64.Vec3) (int, Cursor) {
	handle := HandleRightBottom
	if p != nil && p.Is3D() {
		l.worldPos = mgl64.Vec3{}
		l.activeAxis = AxisX
		l.DragHandle(p, x, y, true)
		l.worldPos = mgl64.Vec3{l.savedIntersect.X(), l.renderH / 2, l.savedIntersect.Z()}
		l.activeAxis = AxisY
		handle = HandleCenter
	} else {
		l.worldPos = mgl64.Vec3{x, y, 0}
	}
	l.SetPreviewSize(l.previewW, l.previewH, nodes)
	return handle, CursorSizing
}

// corner returns the rotated, translated position of the local offset
// (sx, sy) from the model center.
func (l *Boxed) corner(sx, sy float64) (float64, float64) {
	sx, sy = geom.RotatePoint(l.radians, sx, sy)
	return sx + l.worldPos.X(), sy + l.worldPos.Y()
}

func (l *Boxed) placeHandles2D() {
	hw := l.renderW * l.scale.X() / 2
	hh := l.renderH * l.scale.Y() / 2
	z := l.worldPos.Z()

	set := func(i int, sx, sy float64) {
		x, y := l.corner(sx, sy)
		l.handles[i] = mgl64.Vec3{x, y, z}
	}
	set(HandleLeftTop, -hw-BoundingRectOffset-HandleWidth, hh+BoundingRectOffset)
	set(HandleRightTop, hw+BoundingRectOffset, hh+BoundingRectOffset)
	set(HandleRightBottom, hw+BoundingRectOffset, -hh-BoundingRectOffset-HandleWidth)
	set(HandleLeftBottom, -hw-BoundingRectOffset-HandleWidth, -hh-BoundingRectOffset-HandleWidth)
	set(HandleRotate, -HandleWidth/2, hh+RotateHandleOffset)
	l.handles[HandleCenter] = l.worldPos
}

func (l *Boxed) placeHandles3D() {
	hw := l.renderW * l.scale.X() / 2
	hh := l.renderH * l.scale.Y() / 2
	front := l.worldPos.Z() + l.renderW*l.scale.Z()/2
	back := l.worldPos.Z() - l.renderW*l.scale.Z()/2

	set := func(i int, sx, sy float64) {
		x, y := l.corner(sx, sy)
		l.handles[i] = mgl64.Vec3{x, y, front}
		l.handles[i+5] = mgl64.Vec3{x, y, back}
	}
	set(HandleLeftTop, -hw-BoundingRectOffset, hh+BoundingRectOffset)
	set(HandleRightTop, hw+BoundingRectOffset, hh+BoundingRectOffset)
	set(HandleRightBottom, hw+BoundingRectOffset, -hh-BoundingRectOffset)
	set(HandleLeftBottom, -hw-BoundingRectOffset, -hh-BoundingRectOffset)
	x, y := l.corner(-HandleWidth/2, hh+RotateHandleOffset)
	l.handles[HandleRotate] = mgl64.Vec3{x, y, l.worldPos.Z()}
	l.handles[HandleCenter] = l.worldPos
}

func (l *Boxed) handleColor() color.RGBA {
	if l.locked {
		return palette.Locked
	}
	return palette.Handle
}

// DrawHandles draws the corner and rotate handles and the rotate arm.
func (l *Boxed) DrawHandles(va Accumulator) {
	l.placeHandles2D()
	c := l.handleColor()
	z := l.worldPos.Z()
	for i := HandleLeftTop; i <= HandleRotate; i++ {
		h := l.handles[i]
		va.AddRect(h.X(), h.Y(), h.X()+HandleWidth, h.Y()+HandleWidth, z, c)
	}
	va.Finish(Triangles)

	x, y := l.corner(0, l.renderH*l.scale.Y()/2+RotateHandleOffset)
	va.AddVertex(l.worldPos.X(), l.worldPos.Y(), z, palette.Outline)
	va.AddVertex(x, y, z, palette.Outline)
	va.Finish(Lines)
}

// DrawHandles3D outlines the model's box and, while a handle is active, draws
// the axis tool.
func (l *Boxed) DrawHandles3D(va Accumulator) {
	l.placeHandles3D()
	edge := func(i, j int) {
		a, b := l.handles[i], l.handles[j]
		va.AddVertex(a.X(), a.Y(), a.Z(), palette.Outline)
		va.AddVertex(b.X(), b.Y(), b.Z(), palette.Outline)
	}
	for i := 0; i < 4; i++ {
		next := (i + 1) % 4
		edge(i, next)     // front face
		edge(i+5, next+5) // back face
		edge(i, i+5)      // connecting edges
	}
	va.Finish(Lines)
	l.drawActiveAxis(l.worldPos, va)
}

// MoveHandle applies a 2D drag of the rotate or a corner handle. Dragging a
// corner past the opposite edge is rejected.
func (l *Boxed) MoveHandle(_ Preview, handle int, shift bool, x, y float64) bool {
	if l.locked {
		return false
	}

	if handle == HandleRotate {
		sx, sy := x-l.centerX, y-l.centerY
		if sx == 0 && sy == 0 {
			return false // no direction
		}
		angle := -geom.Degrees(math.Atan(sx / sy))
		switch {
		case sy >= 0:
			l.rotation = angle
		case sx <= 0:
			l.rotation = 90 + (90 + angle)
		default:
			l.rotation = -90 - (90 - angle)
		}
		if shift {
			l.rotation = (l.rotation / 5) * 5
		}
		return true
	}

	if handle < HandleLeftTop || handle > HandleLeftBottom || l.renderW <= 0 || l.renderH <= 0 {
		return false
	}
	left := handle == HandleLeftTop || handle == HandleLeftBottom
	top := handle == HandleLeftTop || handle == HandleRightTop
	halfW := l.renderW / 2 * l.scale.X()
	halfH := l.renderH / 2 * l.scale.Y()
	if top && y <= l.centerY-halfH {
		return false
	}
	if !top && y >= l.centerY+halfH {
		return false
	}
	if !left && x <= l.centerX-halfW {
		return false
	}
	if left && x >= l.centerX+halfW {
		return false
	}

	sx, sy := geom.RotatePoint(-geom.Radians(l.rotation), x-l.centerX, y-l.centerY)
	sx, sy = math.Abs(sx), math.Abs(sy)
	currentW := l.renderW * l.scale.X()
	currentH := l.renderH * l.scale.Y()
	newW := sx + halfW - BoundingRectOffset
	newH := sy + halfH - BoundingRectOffset

	if left {
		l.worldPos[0] += (currentW - newW) / 2
	} else {
		l.worldPos[0] -= (currentW - newW) / 2
	}
	if top {
		l.worldPos[1] -= (currentH - newH) / 2
	} else {
		l.worldPos[1] += (currentH - newH) / 2
	}
	l.setScale(newW/l.renderW, newH/l.renderH)
	return true
}

// MoveHandle3D applies a 3D drag of the center handle. The translate tool
// moves the model along the active axis; the scale tool grows it, with ctrl
// scaling X and Z together and shift keeping the bottom edge in place.
func (l *Boxed) MoveHandle3D(p Preview, handle int, shift, ctrl bool, x, y float64, latch bool) {
	if l.locked {
		return
	}
	if !l.DragHandle(p, x, y, latch) {
		return
	}
	if handle != HandleCenter {
		return
	}

	if l.tool == ToolTranslate {
		switch l.activeAxis {
		case AxisX:
			l.worldPos[0] = l.savedPosition.X() + l.dragDelta.X()
		case AxisY:
			l.worldPos[1] = l.savedPosition.Y() + l.dragDelta.Y()
		case AxisZ:
			l.worldPos[2] = l.savedPosition.Z() + l.dragDelta.Z()
		}
		return
	}

	change := func(i int) float64 {
		if l.savedSize[i] == 0 {
			return 1
		}
		return (l.savedSize[i] + l.dragDelta[i]/2) / l.savedSize[i]
	}
	saved := l.savedScale
	anchorBottom := func() {
		bottom := l.savedPosition.Y() - saved.Y()*l.renderH/2
		l.worldPos[1] = bottom + l.scale.Y()*l.renderH/2
	}

	if ctrl {
		switch l.activeAxis {
		case AxisX:
			cx := change(0)
			l.scale = mgl64.Vec3{saved.X() * cx, saved.Y() * cx, saved.X() * cx}
		case AxisY:
			cy := change(1)
			l.scale = mgl64.Vec3{saved.X() * cy, saved.Y() * cy, saved.X() * cy}
		case AxisZ:
			cz := change(2)
			l.scale = mgl64.Vec3{saved.Z() * cz, saved.Y() * cz, saved.Z() * cz}
		}
		l.clampScale()
		if shift {
			anchorBottom()
		}
		return
	}

	switch l.activeAxis {
	case AxisX:
		l.scale[0] = saved.X() * change(0)
		if shift {
			l.scale[2] = l.scale[0]
		}
	case AxisY:
		l.scale[1] = saved.Y() * change(1)
		l.clampScale()
		if shift {
			anchorBottom()
		}
	case AxisZ:
		l.scale[2] = saved.Z() * change(2)
		if shift {
			l.scale[0] = l.scale[2]
		}
	}
	l.clampScale()
}

func (l *Boxed) clampScale() {
	for i := range l.scale {
		l.scale[i] = math.Max(l.scale[i], MinExtent)
	}
}

func (l *Boxed) Properties() []Property {
	return []Property{
		{Name: "Locked", Label: "Locked", Value: l.locked},
		{Name: "ModelX", Label: "X", Value: l.worldPos.X()},
		{Name: "ModelY", Label: "Y", Value: l.worldPos.Y()},
		{Name: "ModelZ", Label: "Z", Value: l.worldPos.Z()},
		{Name: "ScaleX", Label: "ScaleX", Value: l.scale.X()},
		{Name: "ScaleY", Label: "ScaleY", Value: l.scale.Y()},
		{Name: "ScaleZ", Label: "ScaleZ", Value: l.scale.Z()},
		{Name: "ModelRotation", Label: "Rotation", Value: l.rotation},
	}
}

func (l *Boxed) OnPropertyChange(name string, value any) ChangeResult {
	if name == "Locked" {
		return setLocked(&l.base, value)
	}

	var target *float64
	switch name {
	case "ModelX":
		target = &l.worldPos[0]
	case "ModelY":
		target = &l.worldPos[1]
	case "ModelZ":
		target = &l.worldPos[2]
	case "ScaleX":
		target = &l.scale[0]
	case "ScaleY":
		target = &l.scale[1]
	case "ScaleZ":
		target = &l.scale[2]
	case "ModelRotation":
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
	if target == nil {
		l.rotation = int(math.Max(-180, math.Min(180, v)))
		return ChangeApplied
	}
	*target = v
	l.clampScale()
	return ChangeApplied
}

// setLocked handles the Locked property shared by all strategies.
func setLocked(b *base, value any) ChangeResult {
	v, err := toBool(value)
	if err != nil {
		Logger().Debug("rejected property value", "name", "Locked", "err", err)
		return ChangeVetoed
	}
	b.locked = v
	return ChangeApplied
}

func (l *Boxed) Top() float64    { return l.worldPos.Y() + l.MHeight()/2 }
func (l *Boxed) Bottom() float64 { return l.worldPos.Y() - l.MHeight()/2 }
func (l *Boxed) Left() float64   { return l.worldPos.X() - l.MWidth()/2 }
func (l *Boxed) Right() float64  { return l.worldPos.X() + l.MWidth()/2 }
func (l *Boxed) MWidth() float64 { return l.renderW * l.scale.X() }
func (l *Boxed) MHeight() float64 {
	return l.renderH * l.scale.Y()
}

func (l *Boxed) SetMWidth(w float64) {
	if l.locked || l.renderW <= 0 {
		return
	}
	l.scale[0] = math.Max(w/l.renderW, MinExtent)
}

func (l *Boxed) SetMHeight(h float64) {
	if l.locked || l.renderH <= 0 {
		return
	}
	l.scale[1] = math.Max(h/l.renderH, MinExtent)
}

func (l *Boxed) SetLeft(x float64) {
	if !l.locked {
		l.worldPos[0] = x + l.MWidth()/2
	}
}

func (l *Boxed) SetRight(x float64) {
	if !l.locked {
		l.worldPos[0] = x - l.MWidth()/2
	}
}

func (l *Boxed) SetTop(y float64) {
	if !l.locked {
		l.worldPos[1] = y - l.MHeight()/2
	}
}

func (l *Boxed) SetBottom(y float64) {
	if !l.locked {
		l.worldPos[1] = y + l.MHeight()/2
	}
}

// HCenterOffset returns the center's x as a fraction of the preview width.
func (l *Boxed) HCenterOffset() float64 { return l.worldPos.X() / float64(l.previewW) }

// VCenterOffset returns the center's y as a fraction of the preview height.
func (l *Boxed) VCenterOffset() float64 { return l.worldPos.Y() / float64(l.previewH) }

func (l *Boxed) SetHCenterOffset(f float64) {
	if !l.locked {
		l.worldPos[0] = f * float64(l.previewW)
	}
}

func (l *Boxed) SetVCenterOffset(f float64) {
	if !l.locked {
		l.worldPos[1] = f * float64(l.previewH)
	}
}

func (l *Boxed) SetOffset(xPct, yPct float64) {
	l.SetHCenterOffset(xPct)
	l.SetVCenterOffset(yPct)
}

// AddOffset moves the model by fractions of the preview size. Depth moves by
// fractions of the preview height.
func (l *Boxed) AddOffset(xPct, yPct, zPct float64) {
	if l.locked {
		return
	}
	l.worldPos[0] += xPct * float64(l.previewW)
	l.worldPos[1] += yPct * float64(l.previewH)
	l.worldPos[2] += zPct * float64(l.previewH)
}
