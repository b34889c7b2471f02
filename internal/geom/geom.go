// Package geom provides the 2D and 3D geometric primitives used to place
// models on a preview canvas:
// - 2D affine transformations (translation, rotation, scaling, shear)
// - Bounding box operations
// - Point rotation and degree/radian conversion
// - Screen ray unprojection and ray/plane intersection (see ray.go)
package geom

import (
	"fmt"
	"math"
)

// Point represents a 2D point or vector in Cartesian coordinates.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned rectangle.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// Affine represents a 2D affine transform in row-major form:
// [ a b c ]
// [ d e f ]
// where (x', y') = (a*x + b*y + c, d*x + e*y + f)
type Affine struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

func MakePoint(x, y float64) Point               { return Point{X: x, Y: y} }
func MakeBox(x, y, w, h float64) Box             { return Box{X: x, Y: y, W: w, H: h} }
func MakeAffine(a, b, c, d, e, f float64) Affine { return Affine{A: a, B: b, C: c, D: d, E: e, F: f} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

func Dot(p, q Point) float64 { return p.X*q.X + p.Y*q.Y }

func Dist(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BoxFromCorners returns the box spanned by two opposite corners given in any
// order.
func BoxFromCorners(x1, y1, x2, y2 float64) Box {
	minX, maxX := math.Min(x1, x2), math.Max(x1, x2)
	minY, maxY := math.Min(y1, y2), math.Max(y1, y2)
	return MakeBox(minX, minY, maxX-minX, maxY-minY)
}

// Contains reports whether p lies inside b, edges included.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return b.Contains(MakePoint(o.X, o.Y)) && b.Contains(MakePoint(o.X+o.W, o.Y+o.H))
}

// Identity returns the identity transform.
func Identity() Affine { return MakeAffine(1, 0, 0, 0, 1, 0) }

// Translate returns a transform moving points by (tx, ty).
func Translate(tx, ty float64) Affine { return MakeAffine(1, 0, tx, 0, 1, ty) }

// Scale returns a transform scaling points by (sx, sy) about the origin.
func Scale(sx, sy float64) Affine { return MakeAffine(sx, 0, 0, 0, sy, 0) }

// Rotate returns a counter-clockwise rotation by the given radians about the
// origin.
func Rotate(radians float64) Affine {
	s, c := math.Sincos(radians)
	return MakeAffine(c, -s, 0, s, c, 0)
}

// ShearY returns a transform that shifts y by s*x.
func ShearY(s float64) Affine { return MakeAffine(1, 0, 0, s, 1, 0) }

// MulPoint applies the affine transform to a point.
func (t Affine) MulPoint(p Point) Point {
	return Point{
		X: t.A*p.X + t.B*p.Y + t.C,
		Y: t.D*p.X + t.E*p.Y + t.F,
	}
}

// Mul composes two affine transforms (applies u then t).
func (t Affine) Mul(u Affine) Affine {
	return MakeAffine(
		t.A*u.A+t.B*u.D,
		t.A*u.B+t.B*u.E,
		t.A*u.C+t.B*u.F+t.C,
		t.D*u.A+t.E*u.D,
		t.D*u.B+t.E*u.E,
		t.D*u.C+t.E*u.F+t.F,
	)
}

// Inv returns the inverse of the affine transform.
// Returns an error if the transform is not invertible (determinant is zero).
func (t Affine) Inv() (Affine, error) {
	det := t.A*t.E - t.B*t.D
	if math.Abs(det) < 1e-10 {
		return Affine{}, fmt.Errorf("affine transform is not invertible (determinant ≈ 0)")
	}
	return MakeAffine(
		t.E/det, -t.B/det, (t.B*t.F-t.C*t.E)/det,
		-t.D/det, t.A/det, (t.C*t.D-t.A*t.F)/det,
	), nil
}

// RotatePoint rotates (x, y) counter-clockwise about the origin.
func RotatePoint(radians, x, y float64) (float64, float64) {
	s, c := math.Sincos(radians)
	return c*x - s*y, s*x + c*y
}

// Radians converts whole degrees to radians.
func Radians(degrees int) float64 {
	return 2.0 * math.Pi * float64(degrees) / 360.0
}

// Degrees converts radians to degrees, truncating toward zero.
func Degrees(radians float64) int {
	return int(radians / (2 * math.Pi) * 360.0)
}

// SegmentAngle returns the angle of the segment (x1,y1)->(x2,y2). It is
// computed from the slope so vertical segments resolve to pi/2, or 3pi/2 when
// pointing down.
func SegmentAngle(x1, y1, x2, y2 float64) float64 {
	angle := math.Pi / 2
	if x1 != x2 {
		angle = math.Atan((y2 - y1) / (x2 - x1))
		if x1 > x2 {
			angle += math.Pi
		}
	} else if y2 < y1 {
		angle += math.Pi
	}
	return angle
}
