package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLevelThreePoint(opts ...ThreePointOption) *ThreePoint {
	l := NewThreePoint(opts...)
	l.SetRenderSize(50, 10)
	l.SetPoints(0, 0.5, 1, 0.5)
	l.SetPreviewSize(200, 100, nil)
	return l
}

func TestThreePointHeightHandle(t *testing.T) {
	l := newLevelThreePoint()

	h, c := l.CheckIfOverHandles(100, 90)
	assert.Equal(t, HandleShear, h)
	assert.Equal(t, CursorSizing, c)

	require.True(t, l.MoveHandle(nil, HandleShear, false, 100, 130))
	assert.InDelta(t, 2, l.Height(), 1e-9)
	assert.InDelta(t, 20, l.MHeight(), 1e-9)

	// The vertical scale follows the height.
	l.PrepareToDraw(false, false)
	_, y, _ := l.TranslatePoint(0, 10, 0)
	assert.InDelta(t, 130, y, 1e-9)
}

func TestThreePointHeightStaysOffZero(t *testing.T) {
	l := newLevelThreePoint()
	require.True(t, l.MoveHandle(nil, HandleShear, false, 100, 50))
	assert.Equal(t, MinExtent, l.Height())

	assert.Equal(t, ChangeApplied, l.OnPropertyChange("ModelHeight", 0.001))
	assert.Equal(t, MinExtent, l.Height())
	assert.Equal(t, ChangeApplied, l.OnPropertyChange("ModelHeight", -0.001))
	assert.Equal(t, -MinExtent, l.Height())
}

func TestThreePointReadZeroHeight(t *testing.T) {
	l := NewThreePoint()
	l.Read(newAttrs("X1", "0", "Y1", "0.5", "X2", "1", "Y2", "0.5", "Height", "0"))
	assert.Equal(t, MinExtent, l.Height())

	l.SetRenderSize(50, 10)
	l.SetPreviewSize(200, 100, nil)
	assert.True(t, l.HitTest(100, 50))

	l.Read(newAttrs("X1", "0", "Y1", "0.5", "X2", "1", "Y2", "0.5", "Height", "-0.001"))
	assert.Equal(t, -MinExtent, l.Height())
}

func TestThreePointShear(t *testing.T) {
	l := newLevelThreePoint(WithShear())
	require.True(t, l.MoveHandle(nil, HandleShear, false, 120, 130))
	assert.InDelta(t, 2, l.Height(), 1e-9)
	assert.InDelta(t, -0.1, l.Shear(), 1e-9)

	assert.Equal(t, ChangeApplied, l.OnPropertyChange("ModelShear", 0.5))
	assert.Equal(t, 0.5, l.Shear())

	// Without shear support the shear is ignored when drawing.
	plain := newLevelThreePoint()
	require.True(t, plain.MoveHandle(nil, HandleShear, false, 120, 130))
	assert.Zero(t, plain.Shear())
}

func TestThreePointAngle(t *testing.T) {
	l := newLevelThreePoint(WithAngle())
	require.True(t, l.MoveHandle(nil, HandleShear, false, 100, 130))
	assert.InDelta(t, 2, l.Height(), 1e-9)
	assert.Equal(t, 0, l.BendAngle())

	l = newLevelThreePoint(WithAngle())
	require.True(t, l.MoveHandle(nil, HandleShear, false, 180, 50))
	assert.InDelta(t, 2, l.Height(), 1e-9)
	assert.Equal(t, -90, l.BendAngle())
}

func TestThreePointUpsideDownHitTest(t *testing.T) {
	l := NewThreePoint(WithAngle())
	l.Read(newAttrs("X1", "0", "Y1", "0.5", "X2", "1", "Y2", "0.5", "Angle", "-180", "Height", "1"))
	l.SetRenderSize(50, 10)
	l.SetPreviewSize(200, 100, nil)

	assert.True(t, l.HitTest(100, 45))
	assert.False(t, l.HitTest(100, 60))
	assert.True(t, l.IsContained(-1, 9, 201, 51))

	up := newLevelThreePoint()
	assert.False(t, up.HitTest(100, 45))
	assert.True(t, up.HitTest(100, 60))
}

func TestThreePointEndpointsStillMove(t *testing.T) {
	l := newLevelThreePoint()
	require.True(t, l.MoveHandle(nil, HandleEnd, false, 150, 50))
	_, _, x2, _ := l.Points()
	assert.Equal(t, 0.75, x2)
	assert.Equal(t, 1.0, l.Height())
}

func TestThreePointWrite(t *testing.T) {
	a := newAttrs()
	NewThreePoint().Write(a)
	assert.Equal(t, "1.000000", a.Attr("Height", ""))
	assert.False(t, a.HasAttr("Angle"))
	assert.False(t, a.HasAttr("Shear"))

	a = newAttrs()
	l := NewThreePoint(WithAngle(), WithShear())
	l.SetLocked(true)
	l.Write(a)
	assert.Equal(t, "0", a.Attr("Angle", ""))
	assert.Equal(t, "0.000000", a.Attr("Shear", ""))
	assert.Equal(t, "Locked", a.keys[len(a.keys)-1])

	got := NewThreePoint(WithAngle(), WithShear())
	got.Read(a)
	assert.True(t, got.Locked())
	assert.Equal(t, 1.0, got.Height())
}

func TestThreePointLocked(t *testing.T) {
	l := newLevelThreePoint()
	l.SetLocked(true)
	assert.Equal(t, ChangeVetoed, l.OnPropertyChange("ModelHeight", 3.0))
	assert.Equal(t, 1.0, l.Height())
	assert.False(t, l.MoveHandle(nil, HandleShear, false, 100, 130))
	l.SetMHeight(50)
	assert.Equal(t, 1.0, l.Height())
	h, _ := l.CheckIfOverHandles(100, 90)
	assert.Equal(t, NoHandle, h)
}

func TestThreePointProperties(t *testing.T) {
	var names []string
	for _, p := range NewThreePoint(WithShear()).Properties() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Locked", "ModelX1", "ModelY1", "ModelX2", "ModelY2", "ModelHeight", "ModelShear"}, names)

	names = names[:0]
	for _, p := range NewThreePoint(WithAngle()).Properties() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Locked", "ModelX1", "ModelY1", "ModelX2", "ModelY2", "ModelHeight", "ModelAngle"}, names)

	l := newLevelThreePoint(WithAngle())
	assert.Equal(t, ChangeApplied, l.OnPropertyChange("ModelAngle", -45.0))
	assert.Equal(t, -45, l.BendAngle())
	l.SetMHeight(30)
	assert.InDelta(t, 3, l.Height(), 1e-9)
}

func TestThreePointDrawHandles(t *testing.T) {
	l := newLevelThreePoint()
	var va recorder
	l.DrawHandles(&va)
	// Arm from the midpoint, then the level guide line.
	require.Len(t, va.vertices, 4)
	assert.InDelta(t, 100, va.vertices[0].X(), 1e-9)
	assert.InDelta(t, 50, va.vertices[0].Y(), 1e-9)
	assert.InDelta(t, 90, va.vertices[1].Y(), 1e-9)
	assert.Len(t, va.rects, 3)
}
