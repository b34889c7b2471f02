package location

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/bezier"
	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/palette"
)

// vertex is one point of a PolyPoint and the segment leading from it to the
// next point. The last vertex has no segment.
type vertex struct {
	x, y float64 // preview fractions

	matrix     geom.Affine
	inverse    geom.Affine
	invertible bool

	curve    *bezier.Curve // nil for a straight segment
	cp0, cp1 mgl64.Vec3    // control handle positions of a selected curve
}

// PolyPoint chains models along a polyline whose segments may be cubic
// curves. Handles are numbered point by point, followed by the four corners
// of the bounding box: bottom-left, top-left, bottom-right, top-right.
type PolyPoint struct {
	base

	points          []vertex
	selectedHandle  int
	selectedSegment int

	// Bounding box of the points and curves, in preview fractions.
	minX, minY, maxX, maxY float64
	mainMatrix             geom.Affine
}

var _ Location = (*PolyPoint)(nil)

// NewPolyPoint returns a two point polyline collapsed at (0.4, 0.6).
func NewPolyPoint() *PolyPoint {
	l := &PolyPoint{
		base:            newBase(2 + 4),
		points:          []vertex{{x: 0.4, y: 0.6}, {x: 0.4, y: 0.6}},
		selectedHandle:  NoHandle,
		selectedSegment: NoHandle,
		mainMatrix:      geom.Identity(),
	}
	return l
}

// NumPoints returns the number of points.
func (l *PolyPoint) NumPoints() int { return len(l.points) }

// Point returns the i'th point in preview fractions.
func (l *PolyPoint) Point(i int) (float64, float64) { return l.points[i].x, l.points[i].y }

// SetPoint moves the i'th point and keeps the adjoining curves attached.
func (l *PolyPoint) SetPoint(i int, x, y float64) {
	if l.locked || i < 0 || i >= len(l.points) {
		return
	}
	l.points[i].x, l.points[i].y = x, y
	l.FixCurveHandles()
}

// Curve returns the curve on segment seg, or nil for a straight segment.
func (l *PolyPoint) Curve(seg int) *bezier.Curve {
	if seg < 0 || seg >= len(l.points)-1 {
		return nil
	}
	return l.points[seg].curve
}

// HasCurve reports whether segment seg is curved.
func (l *PolyPoint) HasCurve(seg int) bool { return l.Curve(seg) != nil }

func (l *PolyPoint) SelectedHandle() int  { return l.selectedHandle }
func (l *PolyPoint) SelectedSegment() int { return l.selectedSegment }

// Bounds returns the bounding box computed by the last PrepareToDraw, in
// preview fractions.
func (l *PolyPoint) Bounds() (minX, minY, maxX, maxY float64) {
	return l.minX, l.minY, l.maxX, l.maxY
}

// MainMatrix returns the transform mapping the unit square onto the bounding
// box in pixels.
func (l *PolyPoint) MainMatrix() geom.Affine { return l.mainMatrix }

// SegmentMatrix returns the transform of segment seg.
func (l *PolyPoint) SegmentMatrix(seg int) geom.Affine { return l.points[seg].matrix }

func (l *PolyPoint) resizeHandles() {
	l.handles = make([]mgl64.Vec3, len(l.points)+4)
}

// MaxPolyPoints bounds the vertex count read from NumPoints.
const MaxPolyPoints = 10000

func (l *PolyPoint) Read(a Attributes) {
	n := max(attrInt(a, "NumPoints", 2), 2)
	if n > MaxPolyPoints {
		Logger().Warn("capping polyline vertex count", "NumPoints", n, "max", MaxPolyPoints)
		n = MaxPolyPoints
	}
	data := parseFloatList(a.Attr("PointData", "0.4, 0.6, 0.4, 0.6"))
	l.points = make([]vertex, n)
	for i := range l.points {
		if 2*i+1 < len(data) {
			l.points[i].x, l.points[i].y = data[2*i], data[2*i+1]
		}
	}
	l.resizeHandles()

	cdata := parseFloatList(a.Attr("cPointData", ""))
	for i := 0; i+4 < len(cdata); i += 5 {
		seg := int(cdata[i])
		if seg < 0 || seg >= n-1 {
			Logger().Debug("dropping curve on missing segment", "segment", seg, "points", n)
			continue
		}
		c := bezier.New(l.points[seg].x, l.points[seg].y, l.points[seg+1].x, l.points[seg+1].y)
		c.SetCP0(cdata[i+1], cdata[i+2])
		c.SetCP1(cdata[i+3], cdata[i+4])
		c.SetScale(float64(l.previewW), float64(l.previewH))
		c.UpdatePoints()
		l.points[seg].curve = c
	}
	l.locked = attrLocked(a)
}

func (l *PolyPoint) Write(a Attributes) {
	pts := make([]string, 0, len(l.points))
	var curves strings.Builder
	for i, p := range l.points {
		pts = append(pts, fmt.Sprintf("%f,%f", p.x, p.y))
		if p.curve != nil {
			cx0, cy0 := p.curve.CP0()
			cx1, cy1 := p.curve.CP1()
			fmt.Fprintf(&curves, "%d,%f,%f,%f,%f,", i, cx0, cy0, cx1, cy1)
		}
	}
	replaceAttr(a, "NumPoints", strconv.Itoa(len(l.points)))
	replaceAttr(a, "PointData", strings.Join(pts, ","))
	replaceAttr(a, "cPointData", curves.String())
	writeLocked(a, l.locked)
}

// SetCurve turns segment seg into a curve, or back into a straight segment.
// A new curve starts straight, with its control points on its endpoints.
func (l *PolyPoint) SetCurve(seg int, create bool) {
	if l.locked || seg < 0 || seg >= len(l.points)-1 {
		return
	}
	if !create {
		l.points[seg].curve = nil
		return
	}
	a, b := l.points[seg], l.points[seg+1]
	c := bezier.New(a.x, a.y, b.x, b.y)
	c.SetScale(float64(l.previewW), float64(l.previewH))
	c.UpdatePoints()
	l.points[seg].curve = c
}

// FixCurveHandles reattaches every curve's endpoints to the points of its
// segment.
func (l *PolyPoint) FixCurveHandles() {
	for i := 0; i < len(l.points)-1; i++ {
		c := l.points[i].curve
		if c == nil {
			continue
		}
		c.SetP0(l.points[i].x, l.points[i].y)
		c.SetP1(l.points[i+1].x, l.points[i+1].y)
		c.SetScale(float64(l.previewW), float64(l.previewH))
		c.UpdatePoints()
	}
}

func (l *PolyPoint) SetPreviewSize(w, h int, _ []mgl64.Vec3) {
	l.previewW, l.previewH = w, h
	l.PrepareToDraw(l.draw3D, false)
}

// PrepareToDraw rebuilds every segment transform, resamples the curves and
// recomputes the bounding box.
func (l *PolyPoint) PrepareToDraw(is3D, allowSelected bool) {
	w, h := float64(l.previewW), float64(l.previewH)
	l.minX, l.minY = math.Inf(1), math.Inf(1)
	l.maxX, l.maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range l.points {
		l.minX, l.maxX = math.Min(l.minX, p.x), math.Max(l.maxX, p.x)
		l.minY, l.maxY = math.Min(l.minY, p.y), math.Max(l.maxY, p.y)
	}

	for i := 0; i < len(l.points)-1; i++ {
		p, q := &l.points[i], l.points[i+1]
		x1p, y1p, x2p, y2p := p.x*w, p.y*h, q.x*w, q.y*h

		scale := math.Hypot(x2p-x1p, y2p-y1p)
		if l.renderW > 0 {
			scale /= l.renderW
		}
		p.matrix = geom.Translate(x1p, y1p).
			Mul(geom.Rotate(geom.SegmentAngle(x1p, y1p, x2p, y2p))).
			Mul(geom.Scale(scale, scale))
		inv, err := p.matrix.Inv()
		p.inverse, p.invertible = inv, err == nil

		if p.curve != nil {
			p.curve.CheckMinMax(&l.minX, &l.maxX, &l.minY, &l.maxY)
			p.curve.SetScale(w, h)
			p.curve.UpdatePoints()
		}
	}

	l.mainMatrix = geom.Translate(l.minX*w, l.minY*h).
		Mul(geom.Scale((l.maxX-l.minX)*w, (l.maxY-l.minY)*h))
	l.draw3D = is3D
	l.placeHandles(is3D)
}

func (l *PolyPoint) placeHandles(is3D bool) {
	w, h := float64(l.previewW), float64(l.previewH)
	z := l.worldPos.Z()
	off := HandleWidth / 2
	if is3D {
		off = 0
	}
	at := func(fx, fy float64) mgl64.Vec3 { return mgl64.Vec3{fx*w - off, fy*h - off, z} }

	n := len(l.points)
	for i, p := range l.points {
		l.handles[i] = at(p.x, p.y)
	}
	l.handles[n] = at(l.minX, l.minY)
	l.handles[n+1] = at(l.minX, l.maxY)
	l.handles[n+2] = at(l.maxX, l.minY)
	l.handles[n+3] = at(l.maxX, l.maxY)

	if c := l.Curve(l.selectedSegment); c != nil {
		p := &l.points[l.selectedSegment]
		p.cp0 = at(c.CP0())
		p.cp1 = at(c.CP1())
	}
}

// TranslatePoint maps the unit square onto the bounding box.
func (l *PolyPoint) TranslatePoint(x, y, z float64) (float64, float64, float64) {
	p := l.mainMatrix.MulPoint(geom.MakePoint(x, y))
	return p.X, p.Y, z
}

func (l *PolyPoint) IsContained(x1, y1, x2, y2 float64) bool {
	w, h := float64(l.previewW), float64(l.previewH)
	return geom.BoxFromCorners(x1, y1, x2, y2).ContainsBox(
		geom.BoxFromCorners(l.minX*w, l.minY*h, l.maxX*w, l.maxY*h))
}

// HitTest reports whether (x, y) is on a segment or inside the bounding box.
// As a side effect it selects the segment hit, or clears the selected segment
// when no segment is hit.
func (l *PolyPoint) HitTest(x, y float64) bool {
	w, h := float64(l.previewW), float64(l.previewH)
	rw := l.renderW
	if rw <= 0 {
		rw = 1
	}
	for i := 0; i < len(l.points)-1; i++ {
		p, q := l.points[i], l.points[i+1]
		if p.curve != nil {
			if p.curve.HitTest(x, y) {
				l.selectedSegment = i
				return true
			}
			continue
		}
		if !p.invertible {
			continue
		}
		v := p.inverse.MulPoint(geom.MakePoint(x, y))
		mx, my := (p.x+q.x)*w/2, (p.y+q.y)*h/2
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, d := range [4][2]float64{{HitSlop, HitSlop}, {HitSlop, -HitSlop}, {-HitSlop, HitSlop}, {-HitSlop, -HitSlop}} {
			pv := p.inverse.MulPoint(geom.MakePoint(mx+d[0], my+d[1]))
			lo, hi = math.Min(lo, pv.Y), math.Max(hi, pv.Y)
		}
		if t := v.X / rw; t >= 0 && t <= 1 && v.Y >= lo && v.Y <= hi {
			l.selectedSegment = i
			return true
		}
	}
	l.selectedSegment = NoHandle

	fx, fy := x/w, y/h
	return fx >= l.minX && fx <= l.maxX && fy >= l.minY && fy <= l.maxY
}

// CheckIfOverHandles tests the control handles of the selected curve, then
// the points, then the bounding box corners.
func (l *PolyPoint) CheckIfOverHandles(x, y float64) (int, Cursor) {
	if l.locked {
		return NoHandle, CursorDefault
	}
	if seg := l.selectedSegment; l.Curve(seg) != nil {
		if overRect(l.points[seg].cp0, x, y) {
			return CurveCP0 | seg, CursorSizing
		}
		if overRect(l.points[seg].cp1, x, y) {
			return CurveCP1 | seg, CursorSizing
		}
	}
	for h := range l.handles {
		if overRect(l.handles[h], x, y) {
			return h, CursorSizing
		}
	}
	return NoHandle, CursorDefault
}

func (l *PolyPoint) CheckIfOverHandles3D(p Preview, x, y float64) (int, Cursor) {
	candidates := make([]int, len(l.points))
	for i := range candidates {
		candidates[i] = i
	}
	return l.overHandle3D(p, x, y, candidates...)
}

func (l *PolyPoint) handleColor() color.RGBA {
	if l.locked {
		return palette.Locked
	}
	return palette.Handle
}

// DrawHandles draws the bounding box corners, the selected segment and the
// point handles. A selected curve also shows its control handles.
func (l *PolyPoint) DrawHandles(va Accumulator) {
	l.placeHandles(false)
	w, h := float64(l.previewW), float64(l.previewH)
	z := l.worldPos.Z()
	c := l.handleColor()
	n := len(l.points)
	rect := func(v mgl64.Vec3, c color.RGBA) {
		va.AddRect(v.X(), v.Y(), v.X()+HandleWidth, v.Y()+HandleWidth, z, c)
	}
	line := func(x1, y1, x2, y2 float64, c color.RGBA) {
		va.AddVertex(x1*w, y1*h, z, c)
		va.AddVertex(x2*w, y2*h, z, c)
	}

	for i := n; i < n+4; i++ {
		rect(l.handles[i], c)
	}

	if seg := l.selectedSegment; seg >= 0 && seg < n-1 {
		va.Finish(Triangles)
		p, q := l.points[seg], l.points[seg+1]
		if p.curve == nil {
			line(p.x, p.y, q.x, q.y, palette.Selected)
		} else {
			for j := 1; j < p.curve.NumPoints(); j++ {
				ax, ay := p.curve.Point(j - 1)
				bx, by := p.curve.Point(j)
				line(ax, ay, bx, by, palette.Selected)
			}
			p0x, p0y := p.curve.P0()
			cp0x, cp0y := p.curve.CP0()
			line(p0x, p0y, cp0x, cp0y, palette.CurveControl)
			p1x, p1y := p.curve.P1()
			cp1x, cp1y := p.curve.CP1()
			line(p1x, p1y, cp1x, cp1y, palette.CurveControl)
		}
		va.Finish(Lines)
	}

	for i := 0; i < n; i++ {
		pc := c
		switch {
		case i == l.selectedHandle:
			pc = palette.Selected
		case i == 0:
			pc = palette.First
		}
		rect(l.handles[i], pc)
	}

	if seg := l.selectedSegment; l.Curve(seg) != nil {
		rect(l.points[seg].cp0, palette.CurveControl)
		rect(l.points[seg].cp1, palette.CurveControl)
	}
	va.Finish(Triangles)
}

// DrawHandles3D draws the polyline with a cube at every point.
func (l *PolyPoint) DrawHandles3D(va Accumulator) {
	l.placeHandles(true)
	n := len(l.points)
	for i := 0; i < n-1; i++ {
		a, b := l.handles[i], l.handles[i+1]
		va.AddVertex(a.X(), a.Y(), a.Z(), palette.Outline)
		va.AddVertex(b.X(), b.Y(), b.Z(), palette.Outline)
	}
	va.Finish(Lines)
	c := l.handleColor()
	for i := 0; i < n; i++ {
		pc := c
		if i == 0 {
			pc = palette.First
		}
		h := l.handles[i]
		va.AddCube(h.X(), h.Y(), h.Z(), HandleWidth, pc)
	}
	va.Finish(Triangles)
	if l.activeHandle >= 0 && l.activeHandle < n {
		l.drawActiveAxis(l.handles[l.activeHandle], va)
	}
}

// MoveHandle moves a curve control point, a point, or a bounding box corner.
// Dragging a corner rescales every point about the opposite corner, and is
// rejected when it would bring the corners within MinExtent of each other.
func (l *PolyPoint) MoveHandle(_ Preview, handle int, _ bool, x, y float64) bool {
	if l.locked || handle < 0 {
		return false
	}
	newX, newY := x/float64(l.previewW), y/float64(l.previewH)
	n := len(l.points)

	switch {
	case handle&CurveCP0 != 0:
		c := l.Curve(handle & CurveSegment)
		if c == nil {
			return false
		}
		c.SetCP0(newX, newY)
		c.UpdatePoints()
		return true
	case handle&CurveCP1 != 0:
		c := l.Curve(handle & CurveSegment)
		if c == nil {
			return false
		}
		c.SetCP1(newX, newY)
		c.UpdatePoints()
		return true
	case handle < n:
		l.points[handle].x, l.points[handle].y = newX, newY
		l.FixCurveHandles()
		return true
	}

	spanX, spanY := l.maxX-l.minX, l.maxY-l.minY
	if spanX <= 0 || spanY <= 0 {
		return false
	}
	var transX, transY float64
	scaleX, scaleY := 1.0, 1.0
	switch handle {
	case n: // bottom left
		if newX >= l.maxX-MinExtent || newY >= l.maxY-MinExtent {
			return false
		}
		transX, transY = newX-l.minX, newY-l.minY
		scaleX -= transX / spanX
		scaleY -= transY / spanY
	case n + 1: // top left
		if newX >= l.maxX-MinExtent || newY <= l.minY+MinExtent {
			return false
		}
		transX = newX - l.minX
		scaleX -= transX / spanX
		scaleY = (newY - l.minY) / spanY
	case n + 2: // bottom right
		if newX <= l.minX+MinExtent || newY >= l.maxY-MinExtent {
			return false
		}
		transY = newY - l.minY
		scaleX = (newX - l.minX) / spanX
		scaleY -= transY / spanY
	case n + 3: // top right
		if newX <= l.minX+MinExtent || newY <= l.minY+MinExtent {
			return false
		}
		scaleX = (newX - l.minX) / spanX
		scaleY = (newY - l.minY) / spanY
	default:
		return false
	}

	m := geom.Translate(l.minX+transX, l.minY+transY).Mul(geom.Scale(scaleX, scaleY))
	apply := func(x, y float64) (float64, float64) {
		v := m.MulPoint(geom.MakePoint(x-l.minX, y-l.minY))
		return v.X, v.Y
	}
	for i := range l.points {
		p := &l.points[i]
		p.x, p.y = apply(p.x, p.y)
		if p.curve != nil {
			p.curve.SetCP0(apply(p.curve.CP0()))
			p.curve.SetCP1(apply(p.curve.CP1()))
		}
	}
	l.FixCurveHandles()
	return true
}

// MoveHandle3D drags a point along the active axis.
func (l *PolyPoint) MoveHandle3D(p Preview, handle int, _, _ bool, x, y float64, latch bool) {
	if l.locked || handle < 0 || handle >= len(l.points) {
		return
	}
	w, h := float64(l.previewW), float64(l.previewH)
	if latch {
		l.worldPos[0], l.worldPos[1] = l.points[handle].x*w, l.points[handle].y*h
	}
	if !l.DragHandle(p, x, y, latch) || latch {
		return
	}
	pos := l.savedPosition.Add(l.dragDelta)
	l.worldPos[2] = pos.Z()
	l.points[handle].x, l.points[handle].y = pos.X()/w, pos.Y()/h
	l.FixCurveHandles()
}

// SelectHandle selects a point. Selecting a point clears the selected
// segment; selecting a curve control handle keeps it.
func (l *PolyPoint) SelectHandle(handle int) {
	l.selectedHandle = handle
	if handle != NoHandle && handle < CurveCP0 {
		l.selectedSegment = NoHandle
	}
}

// SelectSegment selects a segment and clears the selected point.
func (l *PolyPoint) SelectSegment(seg int) {
	l.selectedSegment = seg
	if seg != NoHandle {
		l.selectedHandle = NoHandle
	}
}

// AddHandle appends a point at the mouse.
func (l *PolyPoint) AddHandle(_ Preview, x, y float64) {
	if l.locked {
		return
	}
	l.points = append(l.points, vertex{x: x / float64(l.previewW), y: y / float64(l.previewH)})
	l.resizeHandles()
}

// InsertHandle inserts a point halfway along the segment after the given
// point and selects it. A curve on that segment now ends at the new point.
func (l *PolyPoint) InsertHandle(after int) {
	if l.locked || after < 0 || after >= len(l.points)-1 {
		return
	}
	a, b := l.points[after], l.points[after+1]
	mid := vertex{x: (a.x + b.x) / 2, y: (a.y + b.y) / 2}
	l.points = slices.Insert(l.points, after+1, mid)
	l.resizeHandles()
	l.FixCurveHandles()
	l.selectedHandle = after + 1
	l.selectedSegment = NoHandle
}

// DeleteHandle removes a point along with the curves on the segments before
// and after it. A polyline keeps at least two points.
func (l *PolyPoint) DeleteHandle(handle int) bool {
	if l.locked || handle < 0 || handle >= len(l.points) || len(l.points) <= 2 {
		return false
	}
	l.points[handle].curve = nil
	if handle > 0 {
		l.points[handle-1].curve = nil
	}
	l.points = slices.Delete(l.points, handle, handle+1)
	l.resizeHandles()
	l.selectedHandle = NoHandle
	if l.selectedSegment >= len(l.points)-1 {
		l.selectedSegment = NoHandle
	}
	return true
}

// InitializeLocation collapses the first two points onto the mouse so the
// creating drag pulls out the second.
func (l *PolyPoint) InitializeLocation(_ Preview, x, y float64, _ []mgl64.Vec3) (int, Cursor) {
	fx, fy := x/float64(l.previewW), y/float64(l.previewH)
	l.points[0].x, l.points[0].y = fx, fy
	l.points[1].x, l.points[1].y = fx, fy
	return 1, CursorSizing
}

func (l *PolyPoint) Properties() []Property {
	props := []Property{{Name: "Locked", Label: "Locked", Value: l.locked}}
	for i, p := range l.points {
		props = append(props,
			Property{Name: fmt.Sprintf("ModelX%d", i+1), Label: fmt.Sprintf("X%d (%%)", i+1), Value: p.x * 100},
			Property{Name: fmt.Sprintf("ModelY%d", i+1), Label: fmt.Sprintf("Y%d (%%)", i+1), Value: p.y * 100},
		)
	}
	return props
}

// OnPropertyChange handles Locked and the per-point ModelX<n>/ModelY<n>
// properties. Editing a point selects it.
func (l *PolyPoint) OnPropertyChange(name string, value any) ChangeResult {
	if name == "Locked" {
		return setLocked(&l.base, value)
	}
	isX := strings.HasPrefix(name, "ModelX")
	if !isX && !strings.HasPrefix(name, "ModelY") {
		return ChangeNone
	}
	idx, err := strconv.Atoi(name[len("ModelX"):])
	if err != nil || idx < 1 || idx > len(l.points) {
		return ChangeNone
	}
	l.selectedHandle = idx - 1
	l.selectedSegment = NoHandle
	if l.locked {
		return ChangeVetoed
	}
	v, err := toFloat(value)
	if err != nil {
		Logger().Debug("rejected property value", "name", name, "err", err)
		return ChangeVetoed
	}
	if isX {
		l.points[idx-1].x = v / 100
	} else {
		l.points[idx-1].y = v / 100
	}
	l.FixCurveHandles()
	return ChangeApplied
}

// extent returns the bounding box of the points alone.
func (l *PolyPoint) extent() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range l.points {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	return minX, minY, maxX, maxY
}

func (l *PolyPoint) Top() float64 {
	_, _, _, maxY := l.extent()
	return math.Round(maxY * float64(l.previewH))
}

func (l *PolyPoint) Bottom() float64 {
	_, minY, _, _ := l.extent()
	return math.Round(minY * float64(l.previewH))
}

func (l *PolyPoint) Left() float64 {
	minX, _, _, _ := l.extent()
	return math.Round(minX * float64(l.previewW))
}

func (l *PolyPoint) Right() float64 {
	_, _, maxX, _ := l.extent()
	return math.Round(maxX * float64(l.previewW))
}

func (l *PolyPoint) MWidth() float64 {
	minX, _, maxX, _ := l.extent()
	return (maxX - minX) * float64(l.previewW)
}

func (l *PolyPoint) MHeight() float64 {
	_, minY, _, maxY := l.extent()
	return (maxY - minY) * float64(l.previewH)
}

// shift moves every point and curve by (dx, dy) preview fractions.
func (l *PolyPoint) shift(dx, dy float64) {
	for i := range l.points {
		p := &l.points[i]
		p.x += dx
		p.y += dy
		if p.curve != nil {
			p.curve.OffsetX(dx)
			p.curve.OffsetY(dy)
		}
	}
	l.FixCurveHandles()
}

func (l *PolyPoint) SetTop(y float64) {
	if !l.locked {
		_, _, _, maxY := l.extent()
		l.shift(0, y/float64(l.previewH)-maxY)
	}
}

func (l *PolyPoint) SetBottom(y float64) {
	if !l.locked {
		_, minY, _, _ := l.extent()
		l.shift(0, y/float64(l.previewH)-minY)
	}
}

func (l *PolyPoint) SetLeft(x float64) {
	if !l.locked {
		minX, _, _, _ := l.extent()
		l.shift(x/float64(l.previewW)-minX, 0)
	}
}

func (l *PolyPoint) SetRight(x float64) {
	if !l.locked {
		_, _, maxX, _ := l.extent()
		l.shift(x/float64(l.previewW)-maxX, 0)
	}
}

// stretch scales every point and control point about the first point.
func (l *PolyPoint) stretch(sx, sy float64) {
	ox, oy := l.points[0].x, l.points[0].y
	apply := func(x, y float64) (float64, float64) {
		return ox + (x-ox)*sx, oy + (y-oy)*sy
	}
	for i := range l.points {
		p := &l.points[i]
		p.x, p.y = apply(p.x, p.y)
		if p.curve != nil {
			p.curve.SetCP0(apply(p.curve.CP0()))
			p.curve.SetCP1(apply(p.curve.CP1()))
		}
	}
	l.FixCurveHandles()
}

func (l *PolyPoint) SetMWidth(w float64) {
	if cur := l.MWidth(); !l.locked && cur > 0 {
		l.stretch(w/cur, 1)
	}
}

func (l *PolyPoint) SetMHeight(h float64) {
	if cur := l.MHeight(); !l.locked && cur > 0 {
		l.stretch(1, h/cur)
	}
}

func (l *PolyPoint) HCenterOffset() float64 {
	var total float64
	for _, p := range l.points {
		total += p.x
	}
	return total / float64(len(l.points))
}

func (l *PolyPoint) VCenterOffset() float64 {
	var total float64
	for _, p := range l.points {
		total += p.y
	}
	return total / float64(len(l.points))
}

func (l *PolyPoint) SetHCenterOffset(f float64) {
	if !l.locked {
		l.shift(f-l.HCenterOffset(), 0)
	}
}

func (l *PolyPoint) SetVCenterOffset(f float64) {
	if !l.locked {
		l.shift(0, f-l.VCenterOffset())
	}
}

func (l *PolyPoint) SetOffset(xPct, yPct float64) {
	l.SetHCenterOffset(xPct)
	l.SetVCenterOffset(yPct)
}

func (l *PolyPoint) AddOffset(xPct, yPct, zPct float64) {
	if l.locked {
		return
	}
	l.shift(xPct, yPct)
	l.worldPos[2] += zPct * float64(l.previewH)
}
