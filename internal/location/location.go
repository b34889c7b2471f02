// Package location places lighting models on a preview canvas. A Location
// maps a model's node coordinates (model-local units) to preview pixels and
// turns mouse drags on its handles into changes of that mapping.
//
// Four strategies are provided:
//   - Boxed: world position, per-axis scale and a rotation about Z.
//   - TwoPoint: a segment between two endpoints in preview fractions.
//   - ThreePoint: a TwoPoint with a third handle for height, bend or shear.
//   - PolyPoint: a chain of points whose segments may be cubic curves.
//
// Every strategy is driven the same way: Read persisted attributes, call
// SetPreviewSize and PrepareToDraw whenever the canvas or node geometry
// changes, feed mouse events to CheckIfOverHandles and MoveHandle (or their
// 3D counterparts), and Write attributes back on save. A locked location
// ignores every mutation.
package location

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/palette"
)

// Pixel measurements shared by all strategies.
const (
	HandleWidth        = 6.0  // side of a handle square
	SnapRange          = 5.0  // endpoint snapping distance
	BoundingRectOffset = 8.0  // gap between a boxed model and its corner handles
	RotateHandleOffset = 50.0 // distance of the rotate handle above the model
	HitSlop            = 3.0  // half-size of the square sampled around thin shapes
	MinScreenSpan      = 4.0  // minimum width/height of a screen bounding box

	AxisRadius      = 4.0
	AxisArrowLength = 60.0
	AxisHeadLength  = 12.0
	axisSegments    = 18

	// MinExtent is the smallest height factor or bounding-box span, in
	// preview fractions, a drag may produce.
	MinExtent = 0.01

	farAway = 1000000.0 // half length of the active axis guide line
)

// Handle identifiers. Boxed models use the corner, rotate and center handles;
// TwoPoint and ThreePoint use Start, End and Shear; PolyPoint numbers its
// points from zero followed by its four boundary corners, and flags curve
// control points with CurveCP0/CurveCP1 ORed with the segment index.
const (
	NoHandle = -1

	HandleLeftTop     = 0
	HandleRightTop    = 1
	HandleRightBottom = 2
	HandleLeftBottom  = 3
	HandleRotate      = 4
	HandleCenter      = 9

	HandleStart = 0
	HandleEnd   = 1
	HandleShear = 2

	CurveCP0     = 0x4000
	CurveCP1     = 0x8000
	CurveSegment = 0x0FFF
)

// Axis is the axis a 3D drag is constrained to.
type Axis int

const (
	AxisNone Axis = iota - 1
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "none"
	}
}

// Tool selects what a 3D drag on the center handle does.
type Tool int

const (
	ToolTranslate Tool = iota
	ToolScale
)

func (t Tool) String() string {
	if t == ToolScale {
		return "scale"
	}
	return "translate"
}

// ChangeResult reports the outcome of OnPropertyChange.
type ChangeResult int

const (
	ChangeNone    ChangeResult = iota // property not handled here
	ChangeApplied                     // value stored, model needs a redraw
	ChangeVetoed                      // locked, value rejected
)

// Property is one editable value exposed to a property editor.
type Property struct {
	Name  string // key passed back to OnPropertyChange
	Label string
	Value any // float64, int or bool
}

// Primitive is the kind of geometry an Accumulator batch holds.
type Primitive int

const (
	Triangles Primitive = iota
	Lines
)

// Accumulator collects vertices for drawing. Finish closes the current batch.
type Accumulator interface {
	AddVertex(x, y, z float64, c color.RGBA)
	AddRect(x1, y1, x2, y2, z float64, c color.RGBA)
	AddCube(x, y, z, size float64, c color.RGBA)
	AddSphere(x, y, z, radius float64, c color.RGBA)
	Finish(p Primitive)
}

// Preview is the canvas a location is drawn into.
type Preview interface {
	ViewMatrix() mgl64.Mat4
	ProjMatrix() mgl64.Mat4
	Width() int
	Height() int
	Is3D() bool
}

// Location is implemented by every placement strategy.
type Location interface {
	Read(a Attributes)
	Write(a Attributes)

	SetPreviewSize(w, h int, nodes []mgl64.Vec3)
	PrepareToDraw(is3D, allowSelected bool)
	TranslatePoint(x, y, z float64) (float64, float64, float64)

	HitTest(x, y float64) bool
	IsContained(x1, y1, x2, y2 float64) bool
	CheckIfOverHandles(x, y float64) (int, Cursor)
	CheckIfOverHandles3D(p Preview, x, y float64) (int, Cursor)
	CheckIfOverAxis3D(p Preview, x, y float64) Axis
	InitializeLocation(p Preview, x, y float64, nodes []mgl64.Vec3) (int, Cursor)
	MoveHandle(p Preview, handle int, shift bool, x, y float64) bool
	MoveHandle3D(p Preview, handle int, shift, ctrl bool, x, y float64, latch bool)

	DrawHandles(va Accumulator)
	DrawHandles3D(va Accumulator)

	Properties() []Property
	OnPropertyChange(name string, value any) ChangeResult

	Top() float64
	Left() float64
	Right() float64
	Bottom() float64
	MWidth() float64
	MHeight() float64
	SetTop(y float64)
	SetLeft(x float64)
	SetRight(x float64)
	SetBottom(y float64)
	SetMWidth(w float64)
	SetMHeight(h float64)
	HCenterOffset() float64
	VCenterOffset() float64
	SetHCenterOffset(f float64)
	SetVCenterOffset(f float64)
	SetOffset(xPct, yPct float64)
	AddOffset(xPct, yPct, zPct float64)

	RenderSize() (float64, float64)
	SetRenderSize(w, h float64)
	PreviewSize() (int, int)
	Locked() bool
	SetLocked(locked bool)
	ActiveHandle() int
	SetActiveHandle(h int)
	ActiveAxis() Axis
	SetActiveAxis(a Axis)
	Tool() Tool
	AdvanceTool()
	Handles() []mgl64.Vec3
}

// base holds the state shared by all strategies.
type base struct {
	worldPos mgl64.Vec3
	scale    mgl64.Vec3

	renderW, renderH   float64
	previewW, previewH int

	handles      []mgl64.Vec3 // screen (2D) or world (3D) handle positions
	activeHandle int
	activeAxis   Axis
	tool         Tool
	locked       bool
	draw3D       bool

	// Drag baseline, recorded by a latching DragHandle call.
	savedIntersect mgl64.Vec3
	savedPosition  mgl64.Vec3
	savedSize      mgl64.Vec3
	savedScale     mgl64.Vec3
	dragDelta      mgl64.Vec3
}

func newBase(numHandles int) base {
	return base{
		scale:        mgl64.Vec3{1, 1, 1},
		previewW:     800,
		previewH:     600,
		handles:      make([]mgl64.Vec3, numHandles),
		activeHandle: NoHandle,
		activeAxis:   AxisNone,
		savedScale:   mgl64.Vec3{1, 1, 1},
	}
}

func (b *base) RenderSize() (float64, float64) { return b.renderW, b.renderH }
func (b *base) SetRenderSize(w, h float64)     { b.renderW, b.renderH = w, h }
func (b *base) PreviewSize() (int, int)        { return b.previewW, b.previewH }
func (b *base) Locked() bool                   { return b.locked }
func (b *base) SetLocked(locked bool)          { b.locked = locked }
func (b *base) ActiveHandle() int              { return b.activeHandle }
func (b *base) SetActiveHandle(h int)          { b.activeHandle = h }
func (b *base) ActiveAxis() Axis               { return b.activeAxis }
func (b *base) SetActiveAxis(a Axis)           { b.activeAxis = a }
func (b *base) Tool() Tool                     { return b.tool }
func (b *base) WorldPosition() mgl64.Vec3      { return b.worldPos }
func (b *base) Scale() mgl64.Vec3              { return b.scale }

// AdvanceTool cycles between the translate and scale tools.
func (b *base) AdvanceTool() {
	if b.tool == ToolTranslate {
		b.tool = ToolScale
	} else {
		b.tool = ToolTranslate
	}
}

// Handles returns a copy of the handle positions computed by the last draw.
func (b *base) Handles() []mgl64.Vec3 {
	return append([]mgl64.Vec3(nil), b.handles...)
}

// SetScale sets the X and Y scale factors. Non-positive factors are raised to
// MinExtent. Locked models ignore it.
func (b *base) SetScale(x, y float64) {
	if b.locked {
		return
	}
	b.setScale(x, y)
}

func (b *base) setScale(x, y float64) {
	b.scale[0] = math.Max(x, MinExtent)
	b.scale[1] = math.Max(y, MinExtent)
}

// DragHandle projects the mouse onto the plane of the active axis. A latching
// call records the intersection and the current position, scale and size as
// the baseline; later calls set dragDelta to the movement along the active
// axis since the latch. Mouse coordinates have their origin at the top left.
// It returns false when the mouse ray misses the plane, leaving dragDelta
// zero.
func (b *base) DragHandle(p Preview, mouseX, mouseY float64, latch bool) bool {
	if latch {
		b.savedPosition = b.worldPos
		b.savedScale = b.scale
		b.savedSize = mgl64.Vec3{b.renderW, b.renderH, b.renderW}
	}
	b.dragDelta = mgl64.Vec3{}

	ray, ok := geom.ScreenPosToWorldRay(
		mouseX, float64(p.Height())-mouseY,
		p.Width(), p.Height(),
		p.ViewMatrix(), p.ProjMatrix(),
	)
	if !ok {
		Logger().Warn("MoveHandle3D: intersect not found", "reason", "unprojectable pixel", "x", mouseX, "y", mouseY)
		return false
	}

	var normal mgl64.Vec3
	switch b.activeAxis {
	case AxisX, AxisZ:
		normal = mgl64.Vec3{0, 1, 0}
	case AxisY:
		normal = mgl64.Vec3{0, 0, 1}
	default:
		return false // nothing to drag along
	}

	intersect, ok := ray.IntersectPlane(b.savedPosition, normal)
	if !ok {
		Logger().Warn("MoveHandle3D: intersect not found", "axis", b.activeAxis, "x", mouseX, "y", mouseY)
		return false
	}

	if latch {
		b.savedIntersect = intersect
		return true
	}
	switch b.activeAxis {
	case AxisX:
		b.dragDelta[0] = intersect.X() - b.savedIntersect.X()
	case AxisY:
		b.dragDelta[1] = intersect.Y() - b.savedIntersect.Y()
	case AxisZ:
		b.dragDelta[2] = intersect.Z() - b.savedIntersect.Z()
	}
	return true
}

// DragDelta returns the movement computed by the last DragHandle call.
func (b *base) DragDelta() mgl64.Vec3 { return b.dragDelta }

// DrawAxisTool draws the translate arrows or scale cubes of the current tool
// at (x, y, z).
func (b *base) DrawAxisTool(x, y, z float64, va Accumulator) {
	colors := [3]color.RGBA{palette.AxisX, palette.AxisY, palette.AxisZ}

	switch b.tool {
	case ToolTranslate:
		for axis := 0; axis < 3; axis++ {
			tip := mgl64.Vec3{x, y, z}
			tip[axis] += AxisArrowLength
			for i := 0; i < axisSegments; i++ {
				u1 := 2 * math.Pi * float64(i) / axisSegments
				u2 := 2 * math.Pi * float64(i+1) / axisSegments
				va.AddVertex(tip[0], tip[1], tip[2], colors[axis])
				p1 := coneRim(tip, axis, u1)
				p2 := coneRim(tip, axis, u2)
				va.AddVertex(p1[0], p1[1], p1[2], colors[axis])
				va.AddVertex(p2[0], p2[1], p2[2], colors[axis])
			}
		}
		va.Finish(Triangles)
	case ToolScale:
		va.AddCube(x+AxisArrowLength-AxisRadius, y, z, AxisRadius*2, palette.AxisX)
		va.AddCube(x, y+AxisArrowLength-AxisRadius, z, AxisRadius*2, palette.AxisY)
		va.AddCube(x, y, z+AxisArrowLength-AxisRadius, AxisRadius*2, palette.AxisZ)
		va.Finish(Triangles)
	}

	va.AddVertex(x+HandleWidth, y, z, palette.AxisX)
	va.AddVertex(x+AxisArrowLength, y, z, palette.AxisX)
	va.AddVertex(x, y+HandleWidth, z, palette.AxisY)
	va.AddVertex(x, y+AxisArrowLength, z, palette.AxisY)
	va.AddVertex(x, y, z+HandleWidth, palette.AxisZ)
	va.AddVertex(x, y, z+AxisArrowLength, palette.AxisZ)
	va.Finish(Lines)
}

// coneRim returns the point at angle u on the base circle of an arrow head
// pointing along axis.
func coneRim(tip mgl64.Vec3, axis int, u float64) mgl64.Vec3 {
	p := tip
	p[axis] -= AxisHeadLength
	s, c := math.Sincos(u)
	switch axis {
	case 0:
		p[1] += AxisRadius * c
		p[2] += AxisRadius * s
	case 1:
		p[0] += AxisRadius * c
		p[2] += AxisRadius * s
	case 2:
		p[0] += AxisRadius * c
		p[1] += AxisRadius * s
	}
	return p
}

// drawActiveAxis draws the center sphere, the axis tool at the active handle
// and a guide line along the active axis.
func (b *base) drawActiveAxis(center mgl64.Vec3, va Accumulator) {
	if b.activeHandle < 0 || b.activeHandle >= len(b.handles) {
		return
	}
	va.AddSphere(center.X(), center.Y(), center.Z(), HandleWidth, palette.Center)
	h := b.handles[b.activeHandle]
	b.DrawAxisTool(h.X(), h.Y(), h.Z(), va)

	switch b.activeAxis {
	case AxisX:
		va.AddVertex(-farAway, h.Y(), h.Z(), palette.AxisX)
		va.AddVertex(farAway, h.Y(), h.Z(), palette.AxisX)
	case AxisY:
		va.AddVertex(h.X(), -farAway, h.Z(), palette.AxisY)
		va.AddVertex(h.X(), farAway, h.Z(), palette.AxisY)
	case AxisZ:
		va.AddVertex(h.X(), h.Y(), -farAway, palette.AxisZ)
		va.AddVertex(h.X(), h.Y(), farAway, palette.AxisZ)
	default:
		return
	}
	va.Finish(Lines)
}

// project maps a world position to window pixels with the origin at the top
// left, matching mouse coordinates.
func project(p Preview, v mgl64.Vec3) (float64, float64) {
	win := mgl64.Project(v, p.ViewMatrix(), p.ProjMatrix(), 0, 0, p.Width(), p.Height())
	return win.X(), float64(p.Height()) - win.Y()
}

// overHandle3D returns the first of the given handles whose projection lies
// within half a handle width of the mouse.
func (b *base) overHandle3D(p Preview, x, y float64, candidates ...int) (int, Cursor) {
	if b.locked {
		return NoHandle, CursorDefault
	}
	for _, h := range candidates {
		if h < 0 || h >= len(b.handles) {
			continue
		}
		hx, hy := project(p, b.handles[h])
		if math.Abs(x-hx) <= HandleWidth/2 && math.Abs(y-hy) <= HandleWidth/2 {
			return h, CursorSizing
		}
	}
	return NoHandle, CursorDefault
}

// CheckIfOverAxis3D returns the arrow of the axis tool under the mouse, if a
// handle is active.
func (b *base) CheckIfOverAxis3D(p Preview, x, y float64) Axis {
	if b.locked || b.activeHandle < 0 || b.activeHandle >= len(b.handles) {
		return AxisNone
	}
	origin := b.handles[b.activeHandle]
	ox, oy := project(p, origin)
	mouse := geom.MakePoint(x, y)
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		tip := origin
		tip[axis] += AxisArrowLength
		tx, ty := project(p, tip)
		if distToSegment(mouse, geom.MakePoint(ox, oy), geom.MakePoint(tx, ty)) <= AxisRadius+HandleWidth/2 {
			Logger().Debug("over axis", "axis", axis)
			return axis
		}
	}
	return AxisNone
}

// distToSegment returns the distance from p to the segment ab.
func distToSegment(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	l2 := geom.Dot(ab, ab)
	if l2 == 0 {
		return geom.Dist(p, a)
	}
	t := math.Max(0, math.Min(1, geom.Dot(p.Sub(a), ab)/l2))
	return geom.Dist(p, a.Add(ab.Scale(t)))
}

// overRect reports whether (x, y) lies strictly inside the handle square whose
// lower-left corner is at h.
func overRect(h mgl64.Vec3, x, y float64) bool {
	return x > h.X() && x < h.X()+HandleWidth && y > h.Y() && y < h.Y()+HandleWidth
}

// clampMagnitude keeps v at least MinExtent away from zero, preserving sign.
func clampMagnitude(v float64) float64 {
	if math.Abs(v) < MinExtent {
		if v < 0 {
			return -MinExtent
		}
		return MinExtent
	}
	return v
}
