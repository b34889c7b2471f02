// Package model turns the <model> elements of a layout into placed models: a
// location strategy chosen from DisplayAs plus the node coordinates the
// strategy positions on the preview.
package model

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/layout"
	"github.com/irfansharif/xlpreview/internal/location"
)

// MaxNodes bounds the node count of one model. Larger parm1/parm2 values are
// cut down to fit.
const MaxNodes = 100000

// TreePerspective is the tilt, in radians, that round trees are drawn with
// in the 2D preview.
const TreePerspective = 0.2

// ErrUnsupported is returned for display types without a placement strategy.
var ErrUnsupported = errors.New("unsupported display type")

// Kind is a family of display types sharing a strategy and node layout.
type Kind int

const (
	Matrix Kind = iota
	Tree
	Custom
	SingleLine
	Arches
	Icicles
	PolyLine
)

func (k Kind) String() string {
	switch k {
	case Matrix:
		return "matrix"
	case Tree:
		return "tree"
	case Custom:
		return "custom"
	case SingleLine:
		return "single-line"
	case Arches:
		return "arches"
	case Icicles:
		return "icicles"
	case PolyLine:
		return "poly-line"
	default:
		return "unknown"
	}
}

// KindOf maps a DisplayAs value to its Kind. Tree variants ("Tree 360",
// "Tree Flat", ...) and matrix variants ("Vert Matrix", "Horiz Matrix") are
// grouped together.
func KindOf(displayAs string) (Kind, error) {
	switch {
	case strings.HasPrefix(displayAs, "Tree"):
		return Tree, nil
	case strings.HasSuffix(displayAs, "Matrix"):
		return Matrix, nil
	}
	switch displayAs {
	case "Custom":
		return Custom, nil
	case "Single Line":
		return SingleLine, nil
	case "Arches":
		return Arches, nil
	case "Icicles":
		return Icicles, nil
	case "Poly Line":
		return PolyLine, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnsupported, displayAs)
}

// newLocation returns the strategy used for a kind.
func newLocation(k Kind) location.Location {
	switch k {
	case SingleLine:
		return location.NewTwoPoint()
	case Arches:
		return location.NewThreePoint(location.WithAngle())
	case Icicles:
		return location.NewThreePoint()
	case PolyLine:
		return location.NewPolyPoint()
	default:
		return location.NewBoxed()
	}
}

// Model is one placed model.
type Model struct {
	ID        int
	Name      string
	DisplayAs string
	Kind      Kind
	Location  location.Location

	node      *layout.Node
	strings   int // parm1
	perString int // parm2
	custom    string
	nodes     []mgl64.Vec3 // model-local coordinates
}

// New builds a model from its layout element.
func New(id int, n *layout.Node) (*Model, error) {
	name := n.Attr("name", "")
	displayAs := n.Attr("DisplayAs", "")
	kind, err := KindOf(displayAs)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}

	m := &Model{
		ID:        id,
		Name:      name,
		DisplayAs: displayAs,
		Kind:      kind,
		Location:  newLocation(kind),
		node:      n,
		strings:   parm(n, "parm1", 1),
		perString: parm(n, "parm2", 50),
		custom:    n.Attr("CustomModel", ""),
	}
	if m.strings*m.perString > MaxNodes {
		log.Printf("Model %q: %d strings of %d nodes exceeds %d nodes, truncating", name, m.strings, m.perString, MaxNodes)
		m.perString = max(MaxNodes/m.strings, 1)
	}
	m.Location.Read(n)
	if b, ok := m.Location.(*location.Boxed); ok && displayAs == "Tree 360" {
		b.SetPerspective(TreePerspective)
	}
	m.generateNodes()
	return m, nil
}

// parm reads a positive integer parameter, at most MaxNodes.
func parm(n *layout.Node, name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(n.Attr(name, "")))
	if err != nil || v < 1 {
		return def
	}
	if v > MaxNodes {
		log.Printf("%s=%d exceeds %d, capping", name, v, MaxNodes)
		return MaxNodes
	}
	return v
}

// Node returns the layout element backing the model.
func (m *Model) Node() *layout.Node { return m.node }

// Nodes returns the model-local node coordinates.
func (m *Model) Nodes() []mgl64.Vec3 { return m.nodes }

// Refresh recomputes the location for a preview of the given size.
// Poly-line nodes follow the points and curves, so they are regenerated
// afterwards.
func (m *Model) Refresh(w, h int, is3D bool) {
	m.Location.PrepareToDraw(is3D, true)
	m.Location.SetPreviewSize(w, h, m.nodes)
	if m.Kind == PolyLine {
		m.generateNodes()
	}
}

// ScreenNodes maps every node onto the preview.
func (m *Model) ScreenNodes() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(m.nodes))
	for i, n := range m.nodes {
		x, y, z := m.Location.TranslatePoint(n.X(), n.Y(), n.Z())
		out[i] = mgl64.Vec3{x, y, z}
	}
	return out
}

// Save writes the location back to the layout element.
func (m *Model) Save() {
	m.Location.Write(m.node)
}

func (m *Model) generateNodes() {
	var w, h float64
	switch m.Kind {
	case Matrix:
		m.nodes, w, h = gridNodes(m.strings, m.perString, false)
	case Tree:
		m.nodes, w, h = gridNodes(m.strings, m.perString, true)
	case Custom:
		m.nodes, w, h = customNodes(m.custom)
	case SingleLine:
		m.nodes, w, h = lineNodes(m.strings * m.perString)
	case Arches:
		m.nodes, w, h = archNodes(m.strings, m.perString)
	case Icicles:
		m.nodes, w, h = icicleNodes(m.strings, m.perString)
	case PolyLine:
		m.nodes = polyNodes(m.Location.(*location.PolyPoint), m.strings*m.perString)
		w, h = 1, 1
	}
	m.Location.SetRenderSize(w, h)
}

// gridNodes lays out cols strings of rows nodes centered on the origin. A
// tree narrows linearly towards its top.
func gridNodes(cols, rows int, taper bool) ([]mgl64.Vec3, float64, float64) {
	nodes := make([]mgl64.Vec3, 0, cols*rows)
	cx, cy := float64(cols-1)/2, float64(rows-1)/2
	for i := 0; i < cols; i++ {
		for j := 0; j < rows; j++ {
			x := float64(i) - cx
			if taper {
				x *= float64(rows-j) / float64(rows)
			}
			nodes = append(nodes, mgl64.Vec3{x, float64(j) - cy, 0})
		}
	}
	return nodes, float64(cols), float64(rows)
}

// customNodes parses a CustomModel grid: rows separated by ';' from the top,
// cells separated by ','. Every non-empty cell is a node.
func customNodes(grid string) ([]mgl64.Vec3, float64, float64) {
	rows := strings.Split(grid, ";")
	width := 1
	for _, r := range rows {
		width = max(width, len(strings.Split(r, ",")))
	}
	height := len(rows)

	var nodes []mgl64.Vec3
	cx, cy := float64(width-1)/2, float64(height-1)/2
	for r, row := range rows {
		for c, cell := range strings.Split(row, ",") {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			nodes = append(nodes, mgl64.Vec3{float64(c) - cx, cy - float64(r), 0})
		}
	}
	if len(nodes) == 0 {
		nodes = []mgl64.Vec3{{0, 0, 0}}
	}
	return nodes, float64(width), float64(height)
}

// lineNodes places n nodes along the unit-spaced segment [0, n].
func lineNodes(n int) ([]mgl64.Vec3, float64, float64) {
	nodes := make([]mgl64.Vec3, n)
	for i := range nodes {
		nodes[i] = mgl64.Vec3{float64(i) + 0.5, 0, 0}
	}
	return nodes, float64(n), 1
}

// archNodes places arches side by side, each a half circle of perArch nodes
// with diameter perArch.
func archNodes(arches, perArch int) ([]mgl64.Vec3, float64, float64) {
	d := float64(perArch)
	nodes := make([]mgl64.Vec3, 0, arches*perArch)
	for a := 0; a < arches; a++ {
		for k := 0; k < perArch; k++ {
			s, c := math.Sincos(math.Pi * (float64(k) + 0.5) / d)
			nodes = append(nodes, mgl64.Vec3{float64(a)*d + d/2 - c*d/2, s * d / 2, 0})
		}
	}
	return nodes, float64(arches) * d, d / 2
}

// icicleNodes hangs drops of perDrop nodes from the top edge, one drop per
// unit of width.
func icicleNodes(drops, perDrop int) ([]mgl64.Vec3, float64, float64) {
	h := float64(perDrop)
	nodes := make([]mgl64.Vec3, 0, drops*perDrop)
	for i := 0; i < drops; i++ {
		for j := 0; j < perDrop; j++ {
			nodes = append(nodes, mgl64.Vec3{float64(i) + 0.5, h - float64(j) - 0.5, 0})
		}
	}
	return nodes, float64(drops), h
}

// polyNodes spaces n nodes evenly by length along the polyline and its
// curves, in the unit square the location maps onto its bounding box.
func polyNodes(l *location.PolyPoint, n int) []mgl64.Vec3 {
	var path [][2]float64
	for i := 0; i < l.NumPoints(); i++ {
		if c := l.Curve(i); c != nil && c.NumPoints() > 0 {
			for k := 0; k < c.NumPoints(); k++ {
				x, y := c.Point(k)
				path = append(path, [2]float64{x, y})
			}
			continue
		}
		x, y := l.Point(i)
		path = append(path, [2]float64{x, y})
	}

	minX, minY, maxX, maxY := l.Bounds()
	unit := func(v, lo, hi float64) float64 {
		if hi-lo < 1e-12 {
			return 0.5
		}
		return (v - lo) / (hi - lo)
	}

	lengths := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		lengths[i] = lengths[i-1] + math.Hypot(path[i][0]-path[i-1][0], path[i][1]-path[i-1][1])
	}
	total := lengths[len(lengths)-1]

	nodes := make([]mgl64.Vec3, n)
	seg := 1
	for k := range nodes {
		target := total * (float64(k) + 0.5) / float64(n)
		for seg < len(path)-1 && lengths[seg] < target {
			seg++
		}
		x, y := path[0][0], path[0][1]
		if len(path) > 1 {
			a, b := path[seg-1], path[seg]
			t := 0.0
			if span := lengths[seg] - lengths[seg-1]; span > 0 {
				t = (target - lengths[seg-1]) / span
			}
			x, y = a[0]+(b[0]-a[0])*t, a[1]+(b[1]-a[1])*t
		}
		nodes[k] = mgl64.Vec3{unit(x, minX, maxX), unit(y, minY, maxY), 0}
	}
	return nodes
}
