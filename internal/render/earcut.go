package render

import (
	"fmt"
	"math"

	"github.com/rclancey/earcut"

	"github.com/irfansharif/xlpreview/internal/geom"
)

// earClip triangulates a simple polygon using the earcut algorithm and returns
// its triangles. Winding order does not matter.
func earClip(polygon []geom.Point) ([][3]geom.Point, error) {
	if len(polygon) < 3 {
		return nil, fmt.Errorf("degenerate polygon (%d vertices < 3)", len(polygon))
	}

	// Flat [x0, y0, x1, y1, ...] as earcut expects.
	coords := make([]float64, len(polygon)*2)
	for i, p := range polygon {
		coords[i*2] = p.X
		coords[i*2+1] = p.Y
	}

	indices, err := earcut.Earcut(coords, nil /* holeIndices */, 2 /* dim */)
	if err != nil {
		return nil, fmt.Errorf("triangulating %d-vertex polygon: %w", len(polygon), err)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("invalid triangle index count %d", len(indices))
	}

	triangles := make([][3]geom.Point, len(indices)/3)
	for i := range triangles {
		for v := 0; v < 3; v++ {
			idx := indices[i*3+v]
			triangles[i][v] = geom.Point{X: coords[idx*2], Y: coords[idx*2+1]}
		}
	}
	return triangles, nil
}

// regularPolygon returns n points on a circle of radius r around the origin.
func regularPolygon(n int, r float64) []geom.Point {
	points := make([]geom.Point, n)
	for i := range points {
		x, y := geom.RotatePoint(2*math.Pi*float64(i)/float64(n), r, 0)
		points[i] = geom.Point{X: x, Y: y}
	}
	return points
}
