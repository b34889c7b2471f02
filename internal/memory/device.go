package memory

// FloatsPerVertex is the vertex stride: x, y, z, r, g, b, a.
const FloatsPerVertex = 7

// Mode is the primitive type a slot is drawn with.
type Mode int

const (
	Triangles Mode = iota
	Lines
)

func (m Mode) String() string {
	if m == Lines {
		return "lines"
	}
	return "triangles"
}

// BufferID names a vertex buffer handed out by a Device.
type BufferID int

// Device is the graphics backend the controller allocates from. Offsets and
// counts are in vertices.
type Device interface {
	NewBuffer(vertexCapacity int) (BufferID, error)
	Upload(id BufferID, vertexOffset int, vertices []float32)
	MultiDraw(id BufferID, mode Mode, firsts, counts []int32)
	Release(id BufferID)
}
