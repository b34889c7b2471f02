package location

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// attrs is an ordered in-memory attribute store.
type attrs struct {
	keys []string
	vals map[string]string
}

func newAttrs(kv ...string) *attrs {
	a := &attrs{vals: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		a.SetAttr(kv[i], kv[i+1])
	}
	return a
}

func (a *attrs) Attr(name, def string) string {
	if v, ok := a.vals[name]; ok {
		return v
	}
	return def
}

func (a *attrs) HasAttr(name string) bool {
	_, ok := a.vals[name]
	return ok
}

func (a *attrs) SetAttr(name, value string) {
	if _, ok := a.vals[name]; !ok {
		a.keys = append(a.keys, name)
	}
	a.vals[name] = value
}

func (a *attrs) DeleteAttr(name string) {
	if _, ok := a.vals[name]; !ok {
		return
	}
	delete(a.vals, name)
	for i, k := range a.keys {
		if k == name {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

type rect struct {
	x1, y1, x2, y2 float64
	c              color.RGBA
}

// recorder is an Accumulator that remembers what was drawn.
type recorder struct {
	vertices []mgl64.Vec3
	colors   []color.RGBA
	rects    []rect
	cubes    int
	spheres  int
	batches  []Primitive
}

func (r *recorder) AddVertex(x, y, z float64, c color.RGBA) {
	r.vertices = append(r.vertices, mgl64.Vec3{x, y, z})
	r.colors = append(r.colors, c)
}

func (r *recorder) AddRect(x1, y1, x2, y2, _ float64, c color.RGBA) {
	r.rects = append(r.rects, rect{x1, y1, x2, y2, c})
}

func (r *recorder) AddCube(_, _, _, _ float64, _ color.RGBA)   { r.cubes++ }
func (r *recorder) AddSphere(_, _, _, _ float64, _ color.RGBA) { r.spheres++ }
func (r *recorder) Finish(p Primitive)                         { r.batches = append(r.batches, p) }

// testPreview is an 800x600 perspective camera looking at the origin.
type testPreview struct {
	view, proj mgl64.Mat4
}

func newTestPreview(eye mgl64.Vec3) *testPreview {
	return &testPreview{
		view: mgl64.LookAtV(eye, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}),
		proj: mgl64.Perspective(mgl64.DegToRad(45), 800.0/600.0, 1, 5000),
	}
}

func (p *testPreview) ViewMatrix() mgl64.Mat4 { return p.view }
func (p *testPreview) ProjMatrix() mgl64.Mat4 { return p.proj }
func (p *testPreview) Width() int             { return 800 }
func (p *testPreview) Height() int            { return 600 }
func (p *testPreview) Is3D() bool             { return true }

// abovePreview looks down at the origin from above and in front, so both the
// floor and the back wall planes face it.
func abovePreview() *testPreview { return newTestPreview(mgl64.Vec3{0, 300, 500}) }

// levelPreview looks straight along -Z at floor height.
func levelPreview() *testPreview { return newTestPreview(mgl64.Vec3{0, 0, 500}) }
