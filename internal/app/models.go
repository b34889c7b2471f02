package app

import (
	"math"
	"sort"

	"github.com/irfansharif/xlpreview/internal/layout"
	"github.com/irfansharif/xlpreview/internal/model"
)

// ModelManager tracks the placed models of a layout and which one is being
// edited.
type ModelManager struct {
	models    map[int]*model.Model // map of model IDs to models
	dirty     map[int]bool         // models needing a GPU re-upload
	currentID int                  // ID of the current model, -1 for none
	nextID    int                  // next model ID to assign
}

// NewModelManager creates an empty model manager.
func NewModelManager() *ModelManager {
	return &ModelManager{
		models:    make(map[int]*model.Model),
		dirty:     make(map[int]bool),
		currentID: -1,
	}
}

// Add builds a model from its layout element. New models are always dirty.
func (mm *ModelManager) Add(n *layout.Node) (*model.Model, error) {
	m, err := model.New(mm.nextID, n)
	if err != nil {
		return nil, err
	}
	mm.models[m.ID] = m
	mm.dirty[m.ID] = true
	mm.nextID++
	return m, nil
}

// Remove removes a model by ID.
func (mm *ModelManager) Remove(id int) bool {
	if _, ok := mm.models[id]; !ok {
		return false
	}
	delete(mm.models, id)
	delete(mm.dirty, id)
	if mm.currentID == id {
		mm.currentID = -1
	}
	return true
}

// Len returns the number of models.
func (mm *ModelManager) Len() int { return len(mm.models) }

// Get returns a model by ID.
func (mm *ModelManager) Get(id int) (*model.Model, bool) {
	m, ok := mm.models[id]
	return m, ok
}

// Models returns all models sorted by ID (ascending), which is layout order.
func (mm *ModelManager) Models() []*model.Model {
	models := make([]*model.Model, 0, len(mm.models))
	for _, m := range mm.models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// Current returns the model being edited, or nil.
func (mm *ModelManager) Current() *model.Model {
	return mm.models[mm.currentID]
}

// SetCurrent selects a model for editing. Both the old and the new current
// model are redrawn since only the current one shows handles.
func (mm *ModelManager) SetCurrent(m *model.Model) {
	mm.MarkDirty(mm.currentID)
	if m == nil {
		mm.currentID = -1
		return
	}
	mm.currentID = m.ID
	mm.MarkDirty(m.ID)
}

// MarkDirty flags a model for re-upload. Unknown IDs are ignored.
func (mm *ModelManager) MarkDirty(id int) {
	if _, ok := mm.models[id]; ok {
		mm.dirty[id] = true
	}
}

// MarkAllDirty flags every model, used after the preview size or mode
// changes.
func (mm *ModelManager) MarkAllDirty() {
	for id := range mm.models {
		mm.dirty[id] = true
	}
}

// IsDirty reports whether a model awaits re-upload.
func (mm *ModelManager) IsDirty(id int) bool { return mm.dirty[id] }

// ClearDirty marks every model as uploaded.
func (mm *ModelManager) ClearDirty() {
	clear(mm.dirty)
}

// FindClosest returns all models sorted by the distance from their center to
// the given preview point (closest first). For models at equal distance,
// sorts by ID (highest first).
func (mm *ModelManager) FindClosest(x, y float64) []*model.Model {
	type sortKey struct {
		distance float64
		ID       int
	}

	var sortKeys []sortKey
	for _, m := range mm.models {
		w, h := m.Location.PreviewSize()
		dx := m.Location.HCenterOffset()*float64(w) - x
		dy := m.Location.VCenterOffset()*float64(h) - y
		sortKeys = append(sortKeys, sortKey{math.Hypot(dx, dy), m.ID})
	}

	sort.Slice(sortKeys, func(i, j int) bool {
		if math.Abs(sortKeys[i].distance-sortKeys[j].distance) < 1e-4 {
			return sortKeys[i].ID > sortKeys[j].ID
		}
		return sortKeys[i].distance < sortKeys[j].distance
	})

	result := make([]*model.Model, len(sortKeys))
	for i, k := range sortKeys {
		result[i] = mm.models[k.ID]
	}
	return result
}

// HitModel returns the topmost (last drawn) model whose outline contains the
// preview point, or nil.
func (mm *ModelManager) HitModel(x, y float64) *model.Model {
	models := mm.Models()
	for i := len(models) - 1; i >= 0; i-- {
		if models[i].Location.HitTest(x, y) {
			return models[i]
		}
	}
	return nil
}

// IterModel iterates to the next or previous model based on sorted model
// IDs.
func (mm *ModelManager) IterModel(next bool) *model.Model {
	if len(mm.models) == 0 {
		mm.currentID = -1
		return nil
	}

	models := mm.Models()
	pos := -1
	for i, m := range models {
		if m.ID == mm.currentID {
			pos = i
			break
		}
	}

	var newPos int
	switch {
	case pos == -1 && next:
		newPos = 0
	case pos == -1:
		newPos = len(models) - 1
	case next:
		newPos = (pos + 1) % len(models)
	default:
		newPos = (pos - 1 + len(models)) % len(models)
	}

	mm.SetCurrent(models[newPos])
	return models[newPos]
}
