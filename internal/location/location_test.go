package location

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeCursorTable(t *testing.T) {
	for _, tc := range []struct {
		corner   int
		rotation float64
		want     Cursor
	}{
		{HandleLeftTop, 0, CursorSizeNWSE},
		{HandleLeftTop, 22.5, CursorSizeWE},
		{HandleLeftTop, 45, CursorSizeWE},
		{HandleLeftTop, 67.5, CursorSizeNESW},
		{HandleLeftTop, 90, CursorSizeNESW},
		{HandleLeftTop, 112.5, CursorSizeNS},
		{HandleLeftTop, 135, CursorSizeNS},
		{HandleLeftTop, 157.5, CursorSizeNWSE},
		{HandleLeftTop, 180, CursorSizeNWSE},
		{HandleRightTop, 0, CursorSizeNESW},
		{HandleRightBottom, 0, CursorSizeNWSE},
		{HandleLeftBottom, 0, CursorSizeNESW},
		{HandleLeftBottom, 45, CursorSizeNS},
		{HandleRotate, 0, CursorSizeNESW},
		{HandleLeftTop, -22.5, CursorSizeNWSE},
	} {
		assert.Equal(t, tc.want, ResizeCursor(tc.corner, tc.rotation), "corner %d at %v", tc.corner, tc.rotation)
	}
}

func TestResizeCursorPeriodic(t *testing.T) {
	for corner := HandleLeftTop; corner <= HandleLeftBottom; corner++ {
		for step := 0; step < 16; step++ {
			r := float64(step) * 22.5
			assert.Equal(t, ResizeCursor(corner, r), ResizeCursor(corner, r+360))
			assert.Equal(t, ResizeCursor(corner, r), ResizeCursor(corner, r-360))
			assert.Equal(t, ResizeCursor(corner, r), ResizeCursor(corner, r+720))
		}
	}
}

func TestDragHandleLatchAndDelta(t *testing.T) {
	p := abovePreview()
	b := NewBoxed()
	b.SetRenderSize(100, 100)
	b.SetActiveAxis(AxisX)

	require.True(t, b.DragHandle(p, 400, 300, true))
	assert.InDelta(t, 0, b.savedIntersect.X(), 1e-6)
	assert.InDelta(t, 0, b.savedIntersect.Z(), 1e-6)
	assert.Equal(t, mgl64.Vec3{100, 100, 100}, b.savedSize)
	assert.Equal(t, mgl64.Vec3{}, b.DragDelta())

	require.True(t, b.DragHandle(p, 500, 300, false))
	d := b.DragDelta()
	assert.Greater(t, d.X(), 0.0)
	assert.Zero(t, d.Y())
	assert.Zero(t, d.Z())

	// Dragging the other way reverses the delta.
	require.True(t, b.DragHandle(p, 300, 300, false))
	assert.Less(t, b.DragDelta().X(), 0.0)

	b.SetActiveAxis(AxisY)
	require.True(t, b.DragHandle(p, 400, 300, true))
	require.True(t, b.DragHandle(p, 400, 250, false))
	d = b.DragDelta()
	assert.Greater(t, d.Y(), 0.0)
	assert.Zero(t, d.X())
	assert.Zero(t, d.Z())
}

func TestDragHandleNoIntersection(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	b := NewBoxed()
	b.SetActiveAxis(AxisX)
	// The floor plane is edge-on to a camera at floor height.
	assert.False(t, b.DragHandle(levelPreview(), 400, 300, true))
	assert.Equal(t, mgl64.Vec3{}, b.DragDelta())
	assert.Contains(t, buf.String(), "MoveHandle3D: intersect not found")

	b.SetActiveAxis(AxisNone)
	assert.False(t, b.DragHandle(abovePreview(), 400, 300, true))
}

func TestAdvanceTool(t *testing.T) {
	b := NewBoxed()
	assert.Equal(t, ToolTranslate, b.Tool())
	b.AdvanceTool()
	assert.Equal(t, ToolScale, b.Tool())
	b.AdvanceTool()
	assert.Equal(t, ToolTranslate, b.Tool())
}

func TestDrawAxisTool(t *testing.T) {
	b := NewBoxed()
	var va recorder
	b.DrawAxisTool(0, 0, 0, &va)
	assert.Equal(t, []Primitive{Triangles, Lines}, va.batches)
	assert.Len(t, va.vertices, 3*axisSegments*3+6)

	b.AdvanceTool()
	va = recorder{}
	b.DrawAxisTool(0, 0, 0, &va)
	assert.Equal(t, 3, va.cubes)
	assert.Len(t, va.vertices, 6)
}

func TestCheckIfOverAxis3D(t *testing.T) {
	p := levelPreview()
	b := NewBoxed()
	b.SetRenderSize(100, 100)
	b.SetWorldPosition(mgl64.Vec3{})
	b.PrepareToDraw(true, true)

	assert.Equal(t, AxisNone, b.CheckIfOverAxis3D(p, 400, 300))

	b.SetActiveHandle(HandleCenter)
	x, y := project(p, mgl64.Vec3{AxisArrowLength / 2, 0, 0})
	assert.Equal(t, AxisX, b.CheckIfOverAxis3D(p, x, y))
	x, y = project(p, mgl64.Vec3{0, AxisArrowLength / 2, 0})
	assert.Equal(t, AxisY, b.CheckIfOverAxis3D(p, x, y))
	assert.Equal(t, AxisNone, b.CheckIfOverAxis3D(p, 10, 10))
}

func TestParseFloatList(t *testing.T) {
	assert.Equal(t, []float64{0.4, 0.6, 0.4, 0.6}, parseFloatList("0.4, 0.6, 0.4, 0.6"))
	assert.Equal(t, []float64{1, 0.5, 0}, parseFloatList("1,0.5,bogus,"))
	assert.Nil(t, parseFloatList(" "))

	// Blank entries keep their slot so later values stay aligned.
	assert.Equal(t, []float64{0.1, 0, 0.2, 0.3}, parseFloatList("0.1,,0.2,0.3"))
	assert.Equal(t, []float64{1, 2}, parseFloatList("1,2,"))
	assert.Equal(t, []float64{0, 1, 0}, parseFloatList("NaN,1,-Inf"))
}

func TestAttrNonFinite(t *testing.T) {
	a := newAttrs("A", "NaN", "B", "+Inf", "C", "-inf", "D", "NaN")
	assert.Equal(t, 3.0, attrFloat(a, "A", 3))
	assert.Equal(t, 3.0, attrFloat(a, "B", 3))
	assert.Equal(t, 3.0, attrFloat(a, "C", 3))
	assert.Equal(t, 4, attrInt(a, "D", 4))

	_, err := toFloat(math.NaN())
	assert.Error(t, err)
	_, err = toFloat("Inf")
	assert.Error(t, err)
	v, err := toFloat("1.5")
	assert.NoError(t, err)
	assert.Equal(t, 1.5, v)
}

func TestAttrHelpers(t *testing.T) {
	a := newAttrs("A", "2.5", "B", "junk", "Locked", "1")
	assert.Equal(t, 2.5, attrFloat(a, "A", 0))
	assert.Equal(t, 7.0, attrFloat(a, "B", 7))
	assert.Equal(t, 2, attrInt(a, "A", 0))
	assert.Equal(t, 3, attrInt(a, "C", 3))
	assert.True(t, attrLocked(a))

	writeLocked(a, false)
	assert.False(t, a.HasAttr("Locked"))
	writeLocked(a, true)
	assert.Equal(t, "1", a.Attr("Locked", ""))

	replaceAttr(a, "A", "3")
	assert.Equal(t, []string{"B", "Locked", "A"}, a.keys)
}
