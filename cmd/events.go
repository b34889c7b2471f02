package main

import (
	"log"
	"strconv"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/irfansharif/xlpreview/internal/app"
	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/location"
)

const (
	orbitSpeed    = 0.3  // degrees per pixel of right-drag in 3D
	nudgeFast     = 10.0 // arrow key multiplier with shift held
	zoomPerScroll = 0.15
)

// EventHandlers manages all event handling for the application.
type EventHandlers struct {
	application *app.App
	window      *glfw.Window
	cursors     map[location.Cursor]*glfw.Cursor
	cursor      location.Cursor

	// Left drags edit the current model; the modifiers held at press time
	// apply for the whole gesture.
	editing     bool
	editMods    glfw.ModifierKey
	lastCursorX float64
	lastCursorY float64

	// Right drags pan the 2D preview or orbit the 3D one.
	isPanning                        bool
	dragStartMouseX, dragStartMouseY float64
	dragStartPanX, dragStartPanY     float64

	// Input buffer for numeric property values. Accumulates digits, '.' and
	// '-' until an action key (R, H) is pressed.
	inputBuffer string
}

// NewEventHandlers creates a new event handlers manager.
func NewEventHandlers(application *app.App, window *glfw.Window) *EventHandlers {
	eh := &EventHandlers{
		application: application,
		window:      window,
		cursors: map[location.Cursor]*glfw.Cursor{
			location.CursorDefault:  glfw.CreateStandardCursor(glfw.ArrowCursor),
			location.CursorHand:     glfw.CreateStandardCursor(glfw.HandCursor),
			location.CursorSizing:   glfw.CreateStandardCursor(glfw.CrosshairCursor),
			location.CursorSizeNWSE: glfw.CreateStandardCursor(glfw.CrosshairCursor),
			location.CursorSizeNESW: glfw.CreateStandardCursor(glfw.CrosshairCursor),
			location.CursorSizeWE:   glfw.CreateStandardCursor(glfw.HResizeCursor),
			location.CursorSizeNS:   glfw.CreateStandardCursor(glfw.VResizeCursor),
		},
	}
	eh.SetupCallbacks(window)
	return eh
}

// Destroy releases the cursors.
func (eh *EventHandlers) Destroy() {
	for _, c := range eh.cursors {
		c.Destroy()
	}
}

// SetupCallbacks configures all GLFW event callbacks.
func (eh *EventHandlers) SetupCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(wnd *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		eh.handleKey(key, action, mods) // for various actions
	})
	window.SetMouseButtonCallback(func(wnd *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		eh.handleMouseButton(button, action, mods) // for editing and panning
	})
	window.SetCursorPosCallback(func(wnd *glfw.Window, xpos, ypos float64) {
		eh.handleCursorPos(xpos, ypos) // for dragging and hover cursors
	})
	window.SetScrollCallback(func(wnd *glfw.Window, _, zoomDelta float64) {
		eh.performZoom(zoomDelta) // for zooming
	})
	window.SetFramebufferSizeCallback(func(wnd *glfw.Window, newW, newH int) {
		eh.application.Resize(newW, newH) // the preview follows the window
	})
}

// framebufferPos converts a cursor position in window coordinates to
// framebuffer pixels, the units the camera works in.
func (eh *EventHandlers) framebufferPos(xpos, ypos float64) (float64, float64) {
	scaleX, scaleY := eh.window.GetContentScale()
	return xpos * float64(scaleX), ypos * float64(scaleY)
}

func (eh *EventHandlers) mousePos() (float64, float64) {
	return eh.framebufferPos(eh.window.GetCursorPos())
}

// handleKey handles keyboard input events.
func (eh *EventHandlers) handleKey(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	a := eh.application

	// Arrow keys repeat while held.
	if action == glfw.Press || action == glfw.Repeat {
		step := 1.0
		if mods&glfw.ModShift != 0 {
			step = nudgeFast
		}
		switch key {
		case glfw.KeyLeft:
			a.Nudge(-step, 0)
		case glfw.KeyRight:
			a.Nudge(step, 0)
		case glfw.KeyUp:
			a.Nudge(0, step)
		case glfw.KeyDown:
			a.Nudge(0, -step)
		}
	}
	if action != glfw.Press {
		return
	}

	// Numeric input for property values.
	if mods&glfw.ModSuper == 0 {
		switch {
		case key >= glfw.Key0 && key <= glfw.Key9:
			eh.inputBuffer += string(rune('0' + int(key-glfw.Key0)))
			return
		case key == glfw.KeyPeriod:
			eh.inputBuffer += "."
			return
		case key == glfw.KeyMinus:
			eh.inputBuffer += "-"
			return
		}
	}

	switch key {
	case glfw.KeyEscape:
		eh.inputBuffer = ""
	case glfw.KeyTab:
		eh.handleModelNavigation(mods&glfw.ModShift == 0)
	case glfw.KeyL:
		a.ToggleLock()
	case glfw.KeyS:
		if err := a.Save(); err != nil {
			log.Printf("Failed to save layout: %v", err)
		}
	case glfw.KeyT:
		a.AdvanceTool()
	case glfw.KeyV:
		a.Toggle3D()
	case glfw.KeyA:
		a.AddPoint(eh.mousePos())
	case glfw.KeyI:
		a.InsertPoint()
	case glfw.KeyDelete, glfw.KeyBackspace:
		a.DeletePoint()
	case glfw.KeyC:
		a.ToggleCurve()
	case glfw.KeyF:
		a.Flip()
	case glfw.KeyP:
		a.Shimmer()
	case glfw.KeySpace:
		a.DescribeCurrent()
	case glfw.KeyHome:
		eh.handleResetKey()
	case glfw.KeyR:
		eh.applyInput("ModelRotation")
	case glfw.KeyH:
		eh.applyInput("ModelHeight")
	case glfw.KeyEqual:
		if mods&glfw.ModSuper != 0 {
			eh.performZoom(1) // zoom in
		}
	case glfw.KeyMinus:
		if mods&glfw.ModSuper != 0 {
			eh.performZoom(-1) // zoom out
		}
	}

	if key != glfw.KeyR && key != glfw.KeyH {
		eh.inputBuffer = ""
	}
}

// applyInput sets a property of the current model to the buffered number.
func (eh *EventHandlers) applyInput(property string) {
	input := eh.inputBuffer
	eh.inputBuffer = ""
	if input == "" {
		return
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil {
		log.Printf("Invalid value %q for %s: %v", input, property, err)
		return
	}
	if err := eh.application.SetProperty(property, v); err != nil {
		log.Printf("Failed to set %s: %v", property, err)
	}
}

// handleResetKey resets zoom and pan to the current model, or to the
// closest model to the mouse when none is current.
func (eh *EventHandlers) handleResetKey() {
	a := eh.application
	m := a.Models.Current()
	if m == nil {
		models := a.Models.FindClosest(a.Camera.ToPreview(eh.mousePos()))
		if len(models) == 0 {
			return // nothing to do
		}
		m = models[0]
		a.Models.SetCurrent(m)
	}
	w, h := m.Location.PreviewSize()
	a.Camera.ResetTo(geom.MakePoint(m.Location.HCenterOffset()*float64(w), m.Location.VCenterOffset()*float64(h)))
}

// handleModelNavigation handles tab and shift+tab key presses for model
// navigation.
func (eh *EventHandlers) handleModelNavigation(next bool) {
	eh.application.IterModel(next)
	if eh.application.Models.Current() != nil && !eh.application.Camera.Is3D() {
		eh.handleResetKey()
	}
}

// handleMouseButton handles mouse button events: left edits, right pans or
// orbits.
func (eh *EventHandlers) handleMouseButton(button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	x, y := eh.mousePos()
	switch button {
	case glfw.MouseButtonLeft:
		switch action {
		case glfw.Press:
			eh.editing, eh.editMods = true, mods
			eh.application.BeginDrag(x, y, mods&glfw.ModShift != 0, mods&glfw.ModControl != 0)
		case glfw.Release:
			eh.editing = false
			eh.application.EndDrag()
		}
	case glfw.MouseButtonRight:
		switch action {
		case glfw.Press:
			eh.startPanning(x, y)
		case glfw.Release:
			eh.isPanning = false
		}
	}
}

// handleCursorPos handles mouse movement for dragging and hover feedback.
func (eh *EventHandlers) handleCursorPos(xpos, ypos float64) {
	x, y := eh.framebufferPos(xpos, ypos)
	defer func() { eh.lastCursorX, eh.lastCursorY = x, y }()

	if eh.isPanning {
		eh.updatePanning(x, y)
		return
	}
	if eh.editing {
		eh.application.Drag(x, y, eh.editMods&glfw.ModShift != 0, eh.editMods&glfw.ModControl != 0)
		return
	}
	eh.setCursor(eh.application.Hover(x, y))
}

func (eh *EventHandlers) setCursor(c location.Cursor) {
	if c == eh.cursor {
		return
	}
	eh.cursor = c
	eh.window.SetCursor(eh.cursors[c])
}

// startPanning starts the panning operation.
func (eh *EventHandlers) startPanning(x, y float64) {
	cam := eh.application.Camera
	eh.isPanning = true
	eh.dragStartMouseX, eh.dragStartMouseY = x, y
	eh.dragStartPanX, eh.dragStartPanY = cam.PanX, cam.PanY
}

// updatePanning pans the 2D preview with the mouse, or orbits the 3D camera
// by the movement since the last event.
func (eh *EventHandlers) updatePanning(x, y float64) {
	cam := eh.application.Camera
	if cam.Is3D() {
		cam.Orbit(-(x-eh.lastCursorX)*orbitSpeed, (y-eh.lastCursorY)*orbitSpeed)
		return
	}
	dx, dy := x-eh.dragStartMouseX, y-eh.dragStartMouseY
	cam.SetPan(eh.dragStartPanX+dx, eh.dragStartPanY-dy) // preview y is up
}

// performZoom handles zoom operations with cursor-centered zooming in 2D, and
// dollies the camera in 3D.
func (eh *EventHandlers) performZoom(zoomDelta float64) {
	cam := eh.application.Camera
	zoomFactor := 1.0 + zoomDelta*zoomPerScroll
	if cam.Is3D() {
		cam.SetZoom(cam.Zoom * zoomFactor)
		return
	}

	// What preview point is under the cursor right now?
	mouseX, mouseY := eh.mousePos()
	px, py := cam.ToPreview(mouseX, mouseY)

	cam.SetZoom(cam.Zoom * zoomFactor)

	// Calculate new pan to keep that preview point at the cursor.
	cx, cy := float64(cam.Width())/2, float64(cam.Height())/2
	sx, sy := mouseX, float64(cam.Height())-mouseY
	cam.SetPan(sx-cx-cam.Zoom*(px-cx), sy-cy-cam.Zoom*(py-cy))
}
