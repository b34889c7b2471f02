// Package bezier implements the cubic curve segments a poly-line model can use
// in place of a straight segment. Curves are stored in preview-fraction space
// (0..1 of the preview width and height) and sampled into a polyline in that
// same space for drawing and hit-testing.
package bezier

import (
	"math"

	"honnef.co/go/curve"
)

const (
	// HitSlop is the distance in pixels within which a click selects the curve.
	HitSlop = 3.0

	sampleSpacing = 4.0 // pixels between polyline samples
	minSamples    = 2
	maxSamples    = 256
)

// Curve is a cubic Bezier segment from P0 to P1 steered by control points
// CP0 and CP1.
type Curve struct {
	bez curve.CubicBez // P0, CP0, CP1, P1 in fraction space

	previewW, previewH float64

	points []curve.Point // sampled polyline, fraction space
}

// New returns a straight curve from (x0,y0) to (x1,y1) with both control
// points coincident with their endpoints.
func New(x0, y0, x1, y1 float64) *Curve {
	c := &Curve{}
	c.SetP0(x0, y0)
	c.SetP1(x1, y1)
	c.SetCP0(x0, y0)
	c.SetCP1(x1, y1)
	return c
}

func (c *Curve) SetP0(x, y float64)  { c.bez.P0 = curve.Pt(x, y) }
func (c *Curve) SetCP0(x, y float64) { c.bez.P1 = curve.Pt(x, y) }
func (c *Curve) SetCP1(x, y float64) { c.bez.P2 = curve.Pt(x, y) }
func (c *Curve) SetP1(x, y float64)  { c.bez.P3 = curve.Pt(x, y) }

func (c *Curve) P0() (float64, float64)  { return c.bez.P0.Splat() }
func (c *Curve) CP0() (float64, float64) { return c.bez.P1.Splat() }
func (c *Curve) CP1() (float64, float64) { return c.bez.P2.Splat() }
func (c *Curve) P1() (float64, float64)  { return c.bez.P3.Splat() }

// SetScale records the preview size used to convert between fraction and
// pixel space.
func (c *Curve) SetScale(previewW, previewH float64) {
	c.previewW, c.previewH = previewW, previewH
}

// pixels returns the curve in preview pixel space.
func (c *Curve) pixels() curve.CubicBez {
	return c.bez.Transform(curve.Scale(c.previewW, c.previewH))
}

// UpdatePoints resamples the polyline. The number of samples follows the
// curve's on-screen length.
func (c *Curve) UpdatePoints() {
	n := minSamples
	if c.previewW > 0 && c.previewH > 0 {
		length := c.pixels().Arclen(curve.DefaultAccuracy)
		n = int(math.Ceil(length/sampleSpacing)) + 1
	}
	n = max(minSamples, min(n, maxSamples))

	c.points = c.points[:0]
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		c.points = append(c.points, c.bez.Eval(t))
	}
}

// NumPoints returns the number of samples in the polyline.
func (c *Curve) NumPoints() int { return len(c.points) }

// Point returns the i'th polyline sample in fraction space.
func (c *Curve) Point(i int) (float64, float64) { return c.points[i].Splat() }

// CheckMinMax widens the given fraction-space bounds to include the curve.
func (c *Curve) CheckMinMax(minX, maxX, minY, maxY *float64) {
	r := c.bez.BoundingBox()
	*minX = math.Min(*minX, r.MinX())
	*maxX = math.Max(*maxX, r.MaxX())
	*minY = math.Min(*minY, r.MinY())
	*maxY = math.Max(*maxY, r.MaxY())
}

// HitTest reports whether the pixel (sx, sy) lies within HitSlop of the curve.
func (c *Curve) HitTest(sx, sy float64) bool {
	if c.previewW <= 0 || c.previewH <= 0 {
		return false
	}
	px := c.pixels()
	pt := curve.Pt(sx, sy)

	r := px.BoundingBox()
	if sx < r.MinX()-HitSlop || sx > r.MaxX()+HitSlop || sy < r.MinY()-HitSlop || sy > r.MaxY()+HitSlop {
		return false
	}
	if r.Width() < 1e-9 && r.Height() < 1e-9 {
		return pt.Distance(px.P0) <= HitSlop // collapsed to a point
	}
	distSq, _ := px.Nearest(pt, curve.DefaultAccuracy)
	return distSq <= HitSlop*HitSlop
}

// OffsetX moves every point of the curve horizontally by dx.
func (c *Curve) OffsetX(dx float64) { c.offset(curve.Vec(dx, 0)) }

// OffsetY moves every point of the curve vertically by dy.
func (c *Curve) OffsetY(dy float64) { c.offset(curve.Vec(0, dy)) }

func (c *Curve) offset(v curve.Vec2) {
	c.bez = c.bez.Transform(curve.Translate(v))
	for i := range c.points {
		c.points[i] = c.points[i].Translate(v)
	}
}
