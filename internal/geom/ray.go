package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelEpsilon is the smallest |normal . direction| for which a ray is
// considered to cross a plane.
const parallelEpsilon = 1e-6

// Ray is a half-line in world space.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // unit length
}

// ScreenPosToWorldRay unprojects a pixel into a world-space ray. The pixel is
// given with the origin at the bottom left of a w*h viewport, matching GL
// window coordinates.
func ScreenPosToWorldRay(mouseX, mouseY float64, w, h int, view, proj mgl64.Mat4) (Ray, bool) {
	if w <= 0 || h <= 0 {
		return Ray{}, false
	}
	ndcX := (mouseX/float64(w) - 0.5) * 2
	ndcY := (mouseY/float64(h) - 0.5) * 2

	viewProj := proj.Mul4(view)
	if math.Abs(viewProj.Det()) < 1e-12 {
		return Ray{}, false
	}
	inv := viewProj.Inv()

	start := inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, -1, 1})
	end := inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, 0, 1})
	if start.W() == 0 || end.W() == 0 {
		return Ray{}, false
	}
	s := start.Vec3().Mul(1 / start.W())
	e := end.Vec3().Mul(1 / end.W())

	dir := e.Sub(s)
	if dir.Len() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: s, Direction: dir.Normalize()}, true
}

// IntersectPlane intersects the ray with the plane through point with the
// given normal. It fails when the ray runs parallel to the plane or the plane
// lies behind the ray origin.
func (r Ray) IntersectPlane(point, normal mgl64.Vec3) (mgl64.Vec3, bool) {
	denom := normal.Dot(r.Direction)
	if math.Abs(denom) < parallelEpsilon {
		return mgl64.Vec3{}, false
	}
	t := point.Sub(r.Origin).Dot(normal) / denom
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return r.Origin.Add(r.Direction.Mul(t)), true
}
