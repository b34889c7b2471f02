package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/xlpreview/internal/config"
	"github.com/irfansharif/xlpreview/internal/layout"
	"github.com/irfansharif/xlpreview/internal/location"
	"github.com/irfansharif/xlpreview/internal/memory"
	"github.com/irfansharif/xlpreview/internal/render"
)

type fakeDevice struct {
	next    memory.BufferID
	uploads int
	draws   int
}

func (d *fakeDevice) NewBuffer(int) (memory.BufferID, error) { d.next++; return d.next, nil }
func (d *fakeDevice) Upload(memory.BufferID, int, []float32) { d.uploads++ }
func (d *fakeDevice) MultiDraw(memory.BufferID, memory.Mode, []int32, []int32) {
	d.draws++
}
func (d *fakeDevice) Release(memory.BufferID) {}

type fakeShader struct{ calls int }

func (s *fakeShader) SetTransform([16]float32) { s.calls++ }

const testLayout = `<?xml version="1.0" encoding="UTF-8"?>
<xrgb>
  <models>
    <model name="Grid" DisplayAs="Matrix" parm1="2" parm2="2" WorldPosX="100" WorldPosY="500" ScaleX="10" ScaleY="10"/>
    <model name="Line" DisplayAs="Single Line" parm1="1" parm2="10" X1="0.25" Y1="0.5" X2="0.75" Y2="0.5"/>
    <model name="Spin" DisplayAs="Spinner" parm1="1" parm2="10"/>
  </models>
</xrgb>
`

func newTestApp(t *testing.T) (*App, *fakeDevice, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xlights_rgbeffects.xml")
	require.NoError(t, os.WriteFile(path, []byte(testLayout), 0o644))

	dev := &fakeDevice{}
	renderer := render.NewRenderer(memory.NewController(dev), &fakeShader{})
	app := NewApp(config.Default(), testCamera(false), renderer, 1)
	require.NoError(t, app.LoadLayout(path))
	return app, dev, path
}

func TestLoadLayoutSkipsUnsupported(t *testing.T) {
	app, _, _ := newTestApp(t)
	assert.Equal(t, []string{"Grid", "Line"}, names(app.Models.Models()))

	missing := filepath.Join(t.TempDir(), "new.xml")
	require.NoError(t, app.LoadLayout(missing))
	assert.Equal(t, 0, app.Models.Len())
	assert.Equal(t, missing, app.LayoutPath)
}

func TestPrepareRendererUploadsDirtyModels(t *testing.T) {
	app, dev, _ := newTestApp(t)
	require.NoError(t, app.PrepareRenderer())
	assert.Equal(t, 3, app.Renderer.Stats().ModelsUploaded) // backdrop and two models
	assert.Greater(t, dev.uploads, 0)

	require.NoError(t, app.PrepareRenderer())
	assert.Equal(t, 0, app.Renderer.Stats().ModelsUploaded)

	require.NoError(t, app.Draw())
	assert.Greater(t, dev.draws, 0)

	app.Models.IterModel(true)
	require.NoError(t, app.PrepareRenderer())
	assert.Equal(t, 1, app.Renderer.Stats().ModelsUploaded)
}

func linePoints(t *testing.T, app *App) (x1, y1, x2, y2 float64) {
	m, ok := app.Models.Get(1)
	require.True(t, ok)
	return m.Location.(*location.TwoPoint).Points()
}

func TestDragModelBody(t *testing.T) {
	app, _, _ := newTestApp(t)
	assert.Equal(t, location.CursorHand, app.Hover(400, 300))
	assert.Equal(t, location.CursorDefault, app.Hover(400, 100))

	app.BeginDrag(400, 300, false, false)
	require.NotNil(t, app.Models.Current())
	assert.Equal(t, "Line", app.Models.Current().Name)
	assert.True(t, app.Dragging())

	app.Drag(410, 300, false, false)
	app.EndDrag()
	x1, _, x2, _ := linePoints(t, app)
	assert.InDelta(t, 0.2625, x1, 1e-9)
	assert.InDelta(t, 0.7625, x2, 1e-9)
}

func TestDragHandleAndSave(t *testing.T) {
	app, _, path := newTestApp(t)
	app.BeginDrag(400, 300, false, false) // select
	app.EndDrag()

	assert.Equal(t, location.CursorSizing, app.Hover(600, 300))
	app.BeginDrag(600, 300, false, false)
	app.Drag(700, 200, false, false)
	app.EndDrag()

	_, _, x2, y2 := linePoints(t, app)
	assert.InDelta(t, 0.875, x2, 1e-9)
	assert.InDelta(t, 400.0/600, y2, 1e-9)

	require.NoError(t, app.Save())
	doc, err := layout.Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Models(), 3)
	assert.Equal(t, "0.875000", doc.Models()[1].Attr("X2", ""))
	assert.Equal(t, "Spinner", doc.Models()[2].Attr("DisplayAs", ""), "unsupported models are kept")
}

func TestLockedModelIgnoresEdits(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.BeginDrag(400, 300, false, false)
	app.EndDrag()
	app.ToggleLock()

	app.BeginDrag(400, 300, false, false)
	assert.False(t, app.Dragging())
	app.Nudge(10, 0)
	app.Flip()
	x1, _, x2, _ := linePoints(t, app)
	assert.Equal(t, 0.25, x1)
	assert.Equal(t, 0.75, x2)

	assert.ErrorContains(t, app.SetProperty("ModelX1", 10.0), "locked")
	app.ToggleLock()
	require.NoError(t, app.SetProperty("ModelX1", 10.0))
	x1, _, _, _ = linePoints(t, app)
	assert.InDelta(t, 0.1, x1, 1e-9)
	assert.ErrorContains(t, app.SetProperty("Bogus", 1.0), "no property")
}

func TestFlipAndNudge(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.BeginDrag(400, 300, false, false)
	app.EndDrag()

	app.Flip()
	x1, _, x2, _ := linePoints(t, app)
	assert.Equal(t, 0.75, x1)
	assert.Equal(t, 0.25, x2)

	app.Nudge(8, 0)
	x1, _, _, _ = linePoints(t, app)
	assert.InDelta(t, 0.76, x1, 1e-9)
}

func TestPolylineEditing(t *testing.T) {
	app, _, _ := newTestApp(t)
	n := app.Layout.AddModel("Poly", "Poly Line")
	n.SetAttr("NumPoints", "2")
	n.SetAttr("PointData", "0.1, 0.2, 0.5, 0.2")
	m, err := app.Models.Add(n)
	require.NoError(t, err)
	app.RefreshAll()
	app.Models.SetCurrent(m)
	poly := m.Location.(*location.PolyPoint)

	app.AddPoint(400, 300) // preview (400, 300)
	require.Equal(t, 3, poly.NumPoints())
	x, y := poly.Point(2)
	assert.InDelta(t, 0.5, x, 1e-9)
	assert.InDelta(t, 0.5, y, 1e-9)

	poly.SelectSegment(0)
	app.ToggleCurve()
	assert.True(t, poly.HasCurve(0))
	app.ToggleCurve()
	assert.False(t, poly.HasCurve(0))

	app.InsertPoint()
	require.Equal(t, 4, poly.NumPoints())
	assert.Equal(t, 1, poly.SelectedHandle())
	x, _ = poly.Point(1)
	assert.InDelta(t, 0.3, x, 1e-9)

	app.DeletePoint()
	assert.Equal(t, 3, poly.NumPoints())
	app.DeletePoint() // nothing selected
	assert.Equal(t, 3, poly.NumPoints())
}

func TestToggle3DKeepsSelection(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.IterModel(true)
	app.Toggle3D()
	assert.True(t, app.Camera.Is3D())
	app.IterModel(true)
	m := app.Models.Current()
	require.NotNil(t, m)
	assert.Equal(t, location.HandleStart, m.Location.ActiveHandle())

	app.AdvanceTool()
	assert.Equal(t, location.ToolScale, m.Location.Tool())
	require.NoError(t, app.PrepareRenderer())
}
