package render

import (
	"image/color"

	"github.com/irfansharif/xlpreview/internal/geom"
	"github.com/irfansharif/xlpreview/internal/location"
	"github.com/irfansharif/xlpreview/internal/memory"
)

// discSegments is the number of sides used to approximate circles.
const discSegments = 12

// unitDisc is the triangulation of a unit circle, computed once.
var unitDisc [][3]geom.Point

func init() {
	var err error
	unitDisc, err = earClip(regularPolygon(discSegments, 1))
	if err != nil {
		panic(err)
	}
}

// Accumulator collects vertices for one model, split into a triangle and a
// line stream. It implements location.Accumulator. Vertices added with
// AddVertex are pending until Finish assigns them to a stream.
type Accumulator struct {
	pending   []float32
	triangles []float32
	lines     []float32
}

var _ location.Accumulator = (*Accumulator)(nil)

func appendVertex(dst []float32, x, y, z float64, c color.RGBA) []float32 {
	return append(dst,
		float32(x), float32(y), float32(z), // position
		float32(c.R)/255.0, float32(c.G)/255.0,
		float32(c.B)/255.0, float32(c.A)/255.0, // color
	)
}

// AddVertex appends a vertex to the pending batch.
func (a *Accumulator) AddVertex(x, y, z float64, c color.RGBA) {
	a.pending = appendVertex(a.pending, x, y, z, c)
}

// AddRect adds a filled axis-aligned rectangle at depth z.
func (a *Accumulator) AddRect(x1, y1, x2, y2, z float64, c color.RGBA) {
	for _, p := range [6][2]float64{
		{x1, y1}, {x2, y1}, {x2, y2},
		{x1, y1}, {x2, y2}, {x1, y2},
	} {
		a.triangles = appendVertex(a.triangles, p[0], p[1], z, c)
	}
}

// cubeFaces lists the corners of each face of a unit cube centered on the
// origin, in two-triangle order.
var cubeFaces = [6][4][3]float64{
	{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}},     // front
	{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}, // back
	{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}, // left
	{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}},     // right
	{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}},     // top
	{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}, // bottom
}

// AddCube adds a filled cube of the given side centered on (x, y, z).
func (a *Accumulator) AddCube(x, y, z, size float64, c color.RGBA) {
	h := size / 2
	for _, face := range cubeFaces {
		for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
			v := face[i]
			a.triangles = appendVertex(a.triangles, x+v[0]*h, y+v[1]*h, z+v[2]*h, c)
		}
	}
}

// AddSphere approximates a sphere with three orthogonal discs.
func (a *Accumulator) AddSphere(x, y, z, radius float64, c color.RGBA) {
	for axis := 0; axis < 3; axis++ {
		for _, tri := range unitDisc {
			for _, p := range tri {
				u, v := p.X*radius, p.Y*radius
				switch axis {
				case 0:
					a.triangles = appendVertex(a.triangles, x+u, y+v, z, c)
				case 1:
					a.triangles = appendVertex(a.triangles, x+u, y, z+v, c)
				case 2:
					a.triangles = appendVertex(a.triangles, x, y+u, z+v, c)
				}
			}
		}
	}
}

// AddDisc adds a filled circle in the XY plane, used for model nodes.
func (a *Accumulator) AddDisc(x, y, z, radius float64, c color.RGBA) {
	for _, tri := range unitDisc {
		for _, p := range tri {
			a.triangles = appendVertex(a.triangles, x+p.X*radius, y+p.Y*radius, z, c)
		}
	}
}

// AddPolygon triangulates a simple polygon at depth z.
func (a *Accumulator) AddPolygon(points []geom.Point, z float64, c color.RGBA) error {
	triangles, err := earClip(points)
	if err != nil {
		return err
	}
	for _, tri := range triangles {
		for _, p := range tri {
			a.triangles = appendVertex(a.triangles, p.X, p.Y, z, c)
		}
	}
	return nil
}

// Finish moves the pending vertices into the stream for p. Incomplete
// trailing primitives are dropped.
func (a *Accumulator) Finish(p location.Primitive) {
	n := len(a.pending) / memory.FloatsPerVertex
	switch p {
	case location.Triangles:
		n -= n % 3
		a.triangles = append(a.triangles, a.pending[:n*memory.FloatsPerVertex]...)
	case location.Lines:
		n -= n % 2
		a.lines = append(a.lines, a.pending[:n*memory.FloatsPerVertex]...)
	}
	a.pending = a.pending[:0]
}

// Triangles returns the finished triangle stream.
func (a *Accumulator) Triangles() []float32 { return a.triangles }

// Lines returns the finished line stream.
func (a *Accumulator) Lines() []float32 { return a.lines }

// Reset empties the accumulator, keeping its buffers.
func (a *Accumulator) Reset() {
	a.pending = a.pending[:0]
	a.triangles = a.triangles[:0]
	a.lines = a.lines[:0]
}
