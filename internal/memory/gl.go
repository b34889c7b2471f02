package memory

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type glBuffer struct {
	vao, vbo uint32
}

// GLDevice implements Device with one VAO/VBO pair per buffer. It must be
// used from the thread owning the GL context.
type GLDevice struct {
	buffers map[BufferID]glBuffer
	nextID  BufferID
}

func NewGLDevice() *GLDevice {
	return &GLDevice{buffers: make(map[BufferID]glBuffer), nextID: 1}
}

const vertexBytes = FloatsPerVertex * 4

func (d *GLDevice) NewBuffer(vertexCapacity int) (BufferID, error) {
	if vertexCapacity <= 0 {
		return 0, fmt.Errorf("invalid buffer capacity %d", vertexCapacity)
	}

	var b glBuffer
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	if b.vao == 0 || b.vbo == 0 {
		return 0, fmt.Errorf("gl: could not allocate buffer objects")
	}

	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, vertexCapacity*vertexBytes, nil, gl.DYNAMIC_DRAW)

	// - Attribute 0: position (vec3)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexBytes, gl.PtrOffset(0))
	// - Attribute 1: color (vec4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, vertexBytes, gl.PtrOffset(12))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	id := d.nextID
	d.nextID++
	d.buffers[id] = b
	return id, nil
}

func (d *GLDevice) Upload(id BufferID, vertexOffset int, vertices []float32) {
	b, ok := d.buffers[id]
	if !ok || len(vertices) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, vertexOffset*vertexBytes, len(vertices)*4, gl.Ptr(vertices))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *GLDevice) MultiDraw(id BufferID, mode Mode, firsts, counts []int32) {
	b, ok := d.buffers[id]
	if !ok || len(firsts) == 0 {
		return
	}
	glMode := uint32(gl.TRIANGLES)
	if mode == Lines {
		glMode = gl.LINES
	}
	gl.BindVertexArray(b.vao)
	gl.MultiDrawArrays(glMode, &firsts[0], &counts[0], int32(len(firsts)))
	gl.BindVertexArray(0)
}

func (d *GLDevice) Release(id BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(1, &b.vbo)
	delete(d.buffers, id)
}
