// Package render draws the models of a preview.
//
// Each model fills an Accumulator with its nodes, outline and handles in
// preview coordinates. The renderer uploads the accumulated triangle and line
// streams of dirty models into GPU memory and draws every model with a single
// view-projection transform, so panning, zooming and orbiting never
// regenerate geometry.
package render

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/irfansharif/xlpreview/internal/memory"
)

// Transformer receives the view-projection matrix before drawing.
type Transformer interface {
	SetTransform(matrix [16]float32)
}

// Renderer uploads model geometry and draws it.
type Renderer struct {
	memController *memory.Controller
	shader        Transformer
	stats         Stats
}

// ModelRenderData holds the geometry of one model for a frame.
type ModelRenderData struct {
	ID    int
	Geom  *Accumulator
	Dirty bool // whether the model needs a re-upload
}

// Stats tracks rendering performance metrics.
type Stats struct {
	LastPrepareTimeMs float64 // time spent in the last Prepare call
	LastDrawTimeUs    float64 // time spent in the last Draw call
	ModelsUploaded    int     // dirty models uploaded by the last Prepare call
}

func NewRenderer(memController *memory.Controller, shader Transformer) *Renderer {
	return &Renderer{
		memController: memController,
		shader:        shader,
	}
}

// Prepare uploads the geometry of every dirty model. A model whose upload
// fails is skipped; the returned error joins all failures.
func (r *Renderer) Prepare(models []ModelRenderData) error {
	startTime := time.Now()

	var errs []error
	uploaded := 0
	for _, m := range models {
		if !m.Dirty || m.Geom == nil {
			continue
		}
		if err := r.upload(m.ID, m.Geom); err != nil {
			log.Printf("Error uploading model %d: %v", m.ID, err)
			errs = append(errs, err)
			continue
		}
		uploaded++
	}

	r.stats.ModelsUploaded = uploaded
	r.stats.LastPrepareTimeMs = float64(time.Since(startTime).Microseconds()) / 1000.0
	return errors.Join(errs...)
}

func (r *Renderer) upload(id int, acc *Accumulator) error {
	if err := r.memController.EnsureSlot(memory.Key{Model: id, Mode: memory.Triangles}, acc.Triangles()); err != nil {
		return fmt.Errorf("model %d triangles: %w", id, err)
	}
	if err := r.memController.EnsureSlot(memory.Key{Model: id, Mode: memory.Lines}, acc.Lines()); err != nil {
		return fmt.Errorf("model %d lines: %w", id, err)
	}
	return nil
}

// Remove drops the geometry of a model that is no longer shown.
func (r *Renderer) Remove(id int) {
	r.memController.RemoveModel(id)
}

// Draw draws every uploaded model with the given view and projection.
func (r *Renderer) Draw(view, proj mgl64.Mat4) error {
	startTime := time.Now()

	r.shader.SetTransform(ViewProj(view, proj))
	if err := r.memController.Draw(); err != nil {
		return fmt.Errorf("memory controller draw failed: %w", err)
	}

	r.stats.LastDrawTimeUs = float64(time.Since(startTime).Microseconds())
	return nil
}

// Stats returns the current performance statistics.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// ViewProj combines view and projection into the column-major float32 matrix
// the shader expects.
func ViewProj(view, proj mgl64.Mat4) [16]float32 {
	m := proj.Mul4(view)
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
