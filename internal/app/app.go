package app

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/irfansharif/xlpreview/internal/config"
	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/layout"
	"github.com/irfansharif/xlpreview/internal/location"
	"github.com/irfansharif/xlpreview/internal/model"
	"github.com/irfansharif/xlpreview/internal/palette"
	"github.com/irfansharif/xlpreview/internal/render"
)

const (
	backdropID = -1    // render ID of the preview backdrop
	nudgeStep  = 1.0   // arrow key movement in preview pixels
	pickSlop   = 3.0   // extra pixels around a node that still pick it in 3D
	backdropZ  = -10.0 // depth of the backdrop, behind every model
)

type dragKind int

const (
	dragNone     dragKind = iota
	dragHandle            // 2D handle of the current model
	dragHandle3D          // axis of the active 3D handle
	dragBody              // whole current model in 2D
)

type dragState struct {
	kind   dragKind
	handle int
	lastX  float64 // last preview position of a body drag
	lastY  float64
}

// App encapsulates the main application state and logic.
type App struct {
	Settings   config.Settings
	Layout     *layout.Document
	LayoutPath string
	Camera     *Camera
	Models     *ModelManager
	Renderer   *render.Renderer
	Palette    palette.Palette

	geometry      map[int]*render.Accumulator
	backdropDirty bool
	drag          dragState
	rng           *rand.Rand
}

// NewApp creates a new application instance.
func NewApp(settings config.Settings, camera *Camera, renderer *render.Renderer, seed int64) *App {
	rng := rand.New(rand.NewSource(seed))
	return &App{
		Settings:      settings,
		Layout:        layout.New(),
		Camera:        camera,
		Models:        NewModelManager(),
		Renderer:      renderer,
		Palette:       palette.RandomPalette(rng),
		geometry:      make(map[int]*render.Accumulator),
		backdropDirty: true,
		rng:           rng,
	}
}

// LoadLayout replaces the current models with those of the layout file. A
// missing file starts an empty layout saved to that path. Models of
// unsupported display types are skipped.
func (app *App) LoadLayout(path string) error {
	doc, err := layout.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Layout %s not found, starting empty", path)
		doc, err = layout.New(), nil
	}
	if err != nil {
		return err
	}

	for _, m := range app.Models.Models() {
		app.Renderer.Remove(m.ID)
	}
	clear(app.geometry)
	app.Layout, app.LayoutPath = doc, path
	app.Models = NewModelManager()

	for _, n := range doc.Models() {
		if _, err := app.Models.Add(n); err != nil {
			if !errors.Is(err, model.ErrUnsupported) {
				return err
			}
			log.Printf("Skipping %v", err)
		}
	}
	log.Printf("Loaded %d models from %s", app.Models.Len(), path)
	app.RefreshAll()
	return nil
}

// Save writes every model location back into the layout and saves it.
func (app *App) Save() error {
	if app.LayoutPath == "" {
		return fmt.Errorf("no layout path to save to")
	}
	for _, m := range app.Models.Models() {
		m.Save()
	}
	if err := app.Layout.Save(app.LayoutPath); err != nil {
		return err
	}
	log.Printf("Saved %d models to %s", app.Models.Len(), app.LayoutPath)
	return nil
}

// RefreshAll recomputes every location for the current viewport and mode.
func (app *App) RefreshAll() {
	for _, m := range app.Models.Models() {
		app.refresh(m)
	}
	app.backdropDirty = true
}

func (app *App) refresh(m *model.Model) {
	m.Refresh(app.Camera.Width(), app.Camera.Height(), app.Camera.Is3D())
	app.Models.MarkDirty(m.ID)
}

// Resize updates the viewport; the preview is the size of the viewport.
func (app *App) Resize(width, height int) {
	app.Camera.SetViewport(width, height)
	app.RefreshAll()
}

// Toggle3D switches between the 2D and 3D preview. Any drag in progress is
// abandoned.
func (app *App) Toggle3D() {
	app.EndDrag()
	app.Camera.Set3D(!app.Camera.Is3D())
	log.Printf("Preview mode: 3D=%v", app.Camera.Is3D())
	app.RefreshAll()
}

// Shimmer jitters the node colors.
func (app *App) Shimmer() {
	app.Palette = palette.Shimmered(app.Palette, 1, app.rng)
	app.Models.MarkAllDirty()
}

// PrepareRenderer rebuilds the geometry of dirty models and uploads it.
func (app *App) PrepareRenderer() error {
	var renderData []render.ModelRenderData
	if app.backdropDirty {
		acc := app.accumulator(backdropID)
		if err := app.drawBackdrop(acc); err != nil {
			return err
		}
		renderData = append(renderData, render.ModelRenderData{ID: backdropID, Geom: acc, Dirty: true})
		app.backdropDirty = false
	}

	current := app.Models.Current()
	for _, m := range app.Models.Models() {
		if !app.Models.IsDirty(m.ID) {
			continue
		}
		acc := app.accumulator(m.ID)
		app.drawModel(acc, m, m == current)
		renderData = append(renderData, render.ModelRenderData{ID: m.ID, Geom: acc, Dirty: true})
	}
	app.Models.ClearDirty()
	return app.Renderer.Prepare(renderData)
}

func (app *App) accumulator(id int) *render.Accumulator {
	acc, ok := app.geometry[id]
	if !ok {
		acc = &render.Accumulator{}
		app.geometry[id] = acc
	}
	acc.Reset()
	return acc
}

// drawBackdrop fills the preview area slightly lighter than the background.
func (app *App) drawBackdrop(acc *render.Accumulator) error {
	w, h := float64(app.Camera.Width()), float64(app.Camera.Height())
	bg := app.Settings.BackgroundColor()
	c := colorful.Color{R: float64(bg.R) / 255, G: float64(bg.G) / 255, B: float64(bg.B) / 255}
	r, g, b := c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.05).Clamped().RGB255()
	return acc.AddPolygon([]geom.Point{
		geom.MakePoint(0, 0), geom.MakePoint(w, 0), geom.MakePoint(w, h), geom.MakePoint(0, h),
	}, backdropZ, color.RGBA{R: r, G: g, B: b, A: 255})
}

// drawModel draws the nodes of a model, and its handles when selected.
func (app *App) drawModel(acc *render.Accumulator, m *model.Model, selected bool) {
	c := app.Palette.ForModel(m.ID)
	if selected {
		c = palette.Highlight(c)
	}
	for _, n := range m.ScreenNodes() {
		acc.AddDisc(n.X(), n.Y(), n.Z(), app.Settings.DotSize, c)
	}
	if !selected {
		return
	}
	if app.Camera.Is3D() {
		m.Location.DrawHandles3D(acc)
	} else {
		m.Location.DrawHandles(acc)
	}
}

// Draw draws the prepared geometry.
func (app *App) Draw() error {
	return app.Renderer.Draw(app.Camera.ViewMatrix(), app.Camera.ProjMatrix())
}

// Hover returns the cursor to show with the mouse at the given window
// position (origin top left).
func (app *App) Hover(mouseX, mouseY float64) location.Cursor {
	if m := app.Models.Current(); m != nil {
		var h int
		var cursor location.Cursor
		if app.Camera.Is3D() {
			if m.Location.CheckIfOverAxis3D(app.Camera, mouseX, mouseY) != location.AxisNone {
				return location.CursorSizing
			}
			h, cursor = m.Location.CheckIfOverHandles3D(app.Camera, mouseX, mouseY)
		} else {
			h, cursor = m.Location.CheckIfOverHandles(app.Camera.ToPreview(mouseX, mouseY))
		}
		if h != location.NoHandle {
			return cursor
		}
	}
	if app.pick(mouseX, mouseY) != nil {
		return location.CursorHand
	}
	return location.CursorDefault
}

// pick returns the model under the mouse. In 2D this is the topmost model
// whose outline contains the mouse; in 3D the nearest model with a node
// under the mouse.
func (app *App) pick(mouseX, mouseY float64) *model.Model {
	if !app.Camera.Is3D() {
		return app.Models.HitModel(app.Camera.ToPreview(mouseX, mouseY))
	}

	view, proj := app.Camera.ViewMatrix(), app.Camera.ProjMatrix()
	w, h := app.Camera.Width(), app.Camera.Height()
	eye := app.Camera.Eye()
	radius := app.Settings.DotSize + pickSlop

	var best *model.Model
	bestDist := math.Inf(1)
	for _, m := range app.Models.Models() {
		for _, n := range m.ScreenNodes() {
			win := mgl64.Project(n, view, proj, 0, 0, w, h)
			if math.Hypot(win.X()-mouseX, float64(h)-win.Y()-mouseY) > radius {
				continue
			}
			if d := n.Sub(eye).Len(); d < bestDist {
				best, bestDist = m, d
			}
		}
	}
	return best
}

// BeginDrag handles a mouse press at the given window position. A press on a
// handle of the current model starts dragging it; otherwise the model under
// the mouse becomes current and, in 2D, is dragged as a whole.
func (app *App) BeginDrag(mouseX, mouseY float64, shift, ctrl bool) {
	app.drag = dragState{kind: dragNone}
	if m := app.Models.Current(); m != nil && app.beginHandleDrag(m, mouseX, mouseY, shift, ctrl) {
		return
	}

	m := app.pick(mouseX, mouseY)
	app.Models.SetCurrent(m)
	if m == nil {
		return
	}
	if app.Camera.Is3D() {
		m.Location.SetActiveHandle(defaultHandle3D(m.Location))
		return
	}
	x, y := app.Camera.ToPreview(mouseX, mouseY)
	m.Location.HitTest(x, y) // selects the segment of a polyline
	if !m.Location.Locked() {
		app.drag = dragState{kind: dragBody, lastX: x, lastY: y}
	}
}

func (app *App) beginHandleDrag(m *model.Model, mouseX, mouseY float64, shift, ctrl bool) bool {
	loc := m.Location
	if app.Camera.Is3D() {
		if axis := loc.CheckIfOverAxis3D(app.Camera, mouseX, mouseY); axis != location.AxisNone {
			loc.SetActiveAxis(axis)
			loc.MoveHandle3D(app.Camera, loc.ActiveHandle(), shift, ctrl, mouseX, mouseY, true)
			app.drag = dragState{kind: dragHandle3D, handle: loc.ActiveHandle()}
			app.Models.MarkDirty(m.ID)
			return true
		}
		if h, _ := loc.CheckIfOverHandles3D(app.Camera, mouseX, mouseY); h != location.NoHandle {
			loc.SetActiveHandle(h)
			app.Models.MarkDirty(m.ID)
			return true
		}
		return false
	}

	h, _ := loc.CheckIfOverHandles(app.Camera.ToPreview(mouseX, mouseY))
	if h == location.NoHandle {
		return false
	}
	if poly, ok := loc.(*location.PolyPoint); ok {
		poly.SelectHandle(h)
	}
	loc.SetActiveHandle(h)
	app.drag = dragState{kind: dragHandle, handle: h}
	app.Models.MarkDirty(m.ID)
	return true
}

// defaultHandle3D is the handle that carries the axis tool when a model is
// selected in 3D.
func defaultHandle3D(loc location.Location) int {
	if _, ok := loc.(*location.Boxed); ok {
		return location.HandleCenter
	}
	return location.HandleStart
}

// Drag continues a drag started by BeginDrag.
func (app *App) Drag(mouseX, mouseY float64, shift, ctrl bool) {
	m := app.Models.Current()
	if m == nil || app.drag.kind == dragNone {
		return
	}

	switch app.drag.kind {
	case dragHandle:
		x, y := app.Camera.ToPreview(mouseX, mouseY)
		if !m.Location.MoveHandle(app.Camera, app.drag.handle, shift, x, y) {
			return
		}
	case dragHandle3D:
		m.Location.MoveHandle3D(app.Camera, app.drag.handle, shift, ctrl, mouseX, mouseY, false)
	case dragBody:
		x, y := app.Camera.ToPreview(mouseX, mouseY)
		w, h := float64(app.Camera.Width()), float64(app.Camera.Height())
		m.Location.AddOffset((x-app.drag.lastX)/w, (y-app.drag.lastY)/h, 0)
		app.drag.lastX, app.drag.lastY = x, y
	}
	app.refresh(m)
}

// EndDrag finishes any drag in progress.
func (app *App) EndDrag() {
	if m := app.Models.Current(); m != nil && app.drag.kind == dragHandle3D {
		m.Location.SetActiveAxis(location.AxisNone)
		app.Models.MarkDirty(m.ID)
	}
	app.drag = dragState{kind: dragNone}
}

// Dragging reports whether a drag is in progress.
func (app *App) Dragging() bool { return app.drag.kind != dragNone }

// IterModel makes the next or previous model current.
func (app *App) IterModel(next bool) {
	app.EndDrag()
	if m := app.Models.IterModel(next); m != nil {
		log.Printf("Selected model %q (%s)", m.Name, m.DisplayAs)
		if app.Camera.Is3D() {
			m.Location.SetActiveHandle(defaultHandle3D(m.Location))
		}
	}
}

// edit applies fn to the current model and refreshes it.
func (app *App) edit(fn func(m *model.Model)) {
	m := app.Models.Current()
	if m == nil {
		return
	}
	fn(m)
	app.refresh(m)
}

// ToggleLock locks or unlocks the current model.
func (app *App) ToggleLock() {
	app.edit(func(m *model.Model) {
		m.Location.SetLocked(!m.Location.Locked())
		log.Printf("Model %q locked=%v", m.Name, m.Location.Locked())
	})
}

// AdvanceTool switches the 3D axis tool of the current model.
func (app *App) AdvanceTool() {
	app.edit(func(m *model.Model) {
		m.Location.AdvanceTool()
		log.Printf("Tool: %s", m.Location.Tool())
	})
}

// Nudge moves the current model by the given preview pixels.
func (app *App) Nudge(dx, dy float64) {
	app.edit(func(m *model.Model) {
		m.Location.AddOffset(dx*nudgeStep/float64(app.Camera.Width()), dy*nudgeStep/float64(app.Camera.Height()), 0)
	})
}

// Flip swaps the endpoints of a line-based model.
func (app *App) Flip() {
	app.edit(func(m *model.Model) {
		if f, ok := m.Location.(interface{ FlipCoords() }); ok && !m.Location.Locked() {
			f.FlipCoords()
		}
	})
}

// SetProperty changes a property of the current model.
func (app *App) SetProperty(name string, value any) error {
	m := app.Models.Current()
	if m == nil {
		return fmt.Errorf("no model selected")
	}
	switch m.Location.OnPropertyChange(name, value) {
	case location.ChangeNone:
		return fmt.Errorf("model %q has no property %q", m.Name, name)
	case location.ChangeVetoed:
		return fmt.Errorf("model %q is locked", m.Name)
	}
	app.refresh(m)
	return nil
}

// DescribeCurrent logs the properties of the current model.
func (app *App) DescribeCurrent() {
	m := app.Models.Current()
	if m == nil {
		return
	}
	log.Printf("Model %q (%s):", m.Name, m.DisplayAs)
	for _, p := range m.Location.Properties() {
		log.Printf("  %-12s %v", p.Label, p.Value)
	}
}

// currentPoly returns the current model's polyline location, if any.
func (app *App) currentPoly() (*model.Model, *location.PolyPoint) {
	m := app.Models.Current()
	if m == nil {
		return nil, nil
	}
	poly, ok := m.Location.(*location.PolyPoint)
	if !ok {
		return nil, nil
	}
	return m, poly
}

// AddPoint appends a point at the mouse to the current polyline.
func (app *App) AddPoint(mouseX, mouseY float64) {
	if m, poly := app.currentPoly(); poly != nil {
		x, y := app.Camera.ToPreview(mouseX, mouseY)
		poly.AddHandle(app.Camera, x, y)
		app.refresh(m)
	}
}

// InsertPoint splits the selected segment of the current polyline, or the
// segment after the selected point.
func (app *App) InsertPoint() {
	m, poly := app.currentPoly()
	if poly == nil {
		return
	}
	after := poly.SelectedSegment()
	if after == location.NoHandle {
		after = poly.SelectedHandle()
	}
	poly.InsertHandle(after)
	app.refresh(m)
}

// DeletePoint removes the selected point of the current polyline.
func (app *App) DeletePoint() {
	if m, poly := app.currentPoly(); poly != nil && poly.DeleteHandle(poly.SelectedHandle()) {
		app.refresh(m)
	}
}

// ToggleCurve turns the selected segment of the current polyline into a
// curve, or back into a straight line.
func (app *App) ToggleCurve() {
	m, poly := app.currentPoly()
	if poly == nil || poly.Locked() {
		return
	}
	seg := poly.SelectedSegment()
	if seg == location.NoHandle {
		return
	}
	poly.SetCurve(seg, !poly.HasCurve(seg))
	app.refresh(m)
}
