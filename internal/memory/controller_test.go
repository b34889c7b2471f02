package memory

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draw struct {
	id     BufferID
	mode   Mode
	firsts []int32
	counts []int32
}

type fakeDevice struct {
	capacity map[BufferID]int
	uploads  map[BufferID]map[int]int // offset -> vertex count
	released []BufferID
	draws    []draw
	next     BufferID
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		capacity: make(map[BufferID]int),
		uploads:  make(map[BufferID]map[int]int),
		next:     1,
	}
}

func (d *fakeDevice) NewBuffer(vertexCapacity int) (BufferID, error) {
	id := d.next
	d.next++
	d.capacity[id] = vertexCapacity
	d.uploads[id] = make(map[int]int)
	return id, nil
}

func (d *fakeDevice) Upload(id BufferID, vertexOffset int, vertices []float32) {
	d.uploads[id][vertexOffset] = len(vertices) / FloatsPerVertex
}

func (d *fakeDevice) MultiDraw(id BufferID, mode Mode, firsts, counts []int32) {
	d.draws = append(d.draws, draw{id, mode, firsts, counts})
}

func (d *fakeDevice) Release(id BufferID) {
	d.released = append(d.released, id)
	delete(d.capacity, id)
}

func vertices(n int) []float32 { return make([]float32, n*FloatsPerVertex) }

func TestSelectBucket(t *testing.T) {
	assert.Equal(t, BucketS, selectBucket(1))
	assert.Equal(t, BucketS, selectBucket(vertexCapacityS))
	assert.Equal(t, BucketM, selectBucket(vertexCapacityS+1))
	assert.Equal(t, BucketL, selectBucket(vertexCapacityM+1))
	assert.Equal(t, BucketXL, selectBucket(vertexCapacityXL))
	assert.Equal(t, BucketXXL, selectBucket(vertexCapacityXL+1))
}

func TestEnsureSlotSharesBuffers(t *testing.T) {
	dev := newFakeDevice()
	mc := NewController(dev)

	require.NoError(t, mc.EnsureSlot(Key{1, Triangles}, vertices(6)))
	require.NoError(t, mc.EnsureSlot(Key{1, Lines}, vertices(4)))
	require.NoError(t, mc.EnsureSlot(Key{2, Triangles}, vertices(12)))

	assert.Len(t, dev.capacity, 1)
	assert.Equal(t, vertexCapacityS*slotsPerBatchS, dev.capacity[1])
	assert.Equal(t, map[int]int{0: 6, vertexCapacityS: 4, 2 * vertexCapacityS: 12}, dev.uploads[1])

	require.NoError(t, mc.Draw())
	want := []draw{
		{1, Triangles, []int32{0, 2 * vertexCapacityS}, []int32{6, 12}},
		{1, Lines, []int32{vertexCapacityS}, []int32{4}},
	}
	if diff := cmp.Diff(want, dev.draws, cmp.AllowUnexported(draw{})); diff != "" {
		t.Errorf("draws mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, mc.Stats().DrawCallsPerFrame)
}

func TestEnsureSlotUpdatesInPlace(t *testing.T) {
	dev := newFakeDevice()
	mc := NewController(dev)
	key := Key{7, Triangles}

	require.NoError(t, mc.EnsureSlot(key, vertices(10)))
	require.NoError(t, mc.EnsureSlot(key, vertices(20)))
	assert.Equal(t, map[int]int{0: 20}, dev.uploads[1])

	// Outgrowing the slot moves the data to a larger bucket.
	require.NoError(t, mc.EnsureSlot(key, vertices(vertexCapacityS+1)))
	assert.Len(t, dev.capacity, 2)
	stats := mc.Stats()
	assert.Equal(t, 1, stats.BucketSizeStats[BucketM].ActiveSlots)
	assert.Equal(t, 0, stats.BucketSizeStats[BucketS].ActiveSlots)
	assert.Equal(t, slotsPerBatchS, stats.BucketSizeStats[BucketS].FreeSlots)
}

func TestEnsureSlotRejectsPartialVertices(t *testing.T) {
	mc := NewController(newFakeDevice())
	err := mc.EnsureSlot(Key{1, Lines}, make([]float32, 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model 1/lines")
}

func TestRemoveReusesLowestSlot(t *testing.T) {
	dev := newFakeDevice()
	mc := NewController(dev)
	for m := 0; m < 3; m++ {
		require.NoError(t, mc.EnsureSlot(Key{m, Triangles}, vertices(3)))
	}
	mc.RemoveModel(0)
	mc.RemoveModel(1)
	assert.False(t, mc.Has(Key{0, Triangles}))

	require.NoError(t, mc.EnsureSlot(Key{9, Triangles}, vertices(3)))
	assert.Equal(t, 0, mc.allocations[Key{9, Triangles}].slotIndex)

	// Empty data frees the slot.
	require.NoError(t, mc.EnsureSlot(Key{9, Triangles}, nil))
	assert.False(t, mc.Has(Key{9, Triangles}))
}

func TestDedicatedBufferReleased(t *testing.T) {
	dev := newFakeDevice()
	mc := NewController(dev)
	key := Key{3, Triangles}

	require.NoError(t, mc.EnsureSlot(key, vertices(vertexCapacityXL+10)))
	assert.Equal(t, vertexCapacityXL+10, dev.capacity[1])

	mc.Remove(key)
	assert.Equal(t, []BufferID{1}, dev.released)
	stats := mc.Stats()
	assert.Equal(t, 0, stats.TotalBatches)
	assert.Equal(t, 1, stats.BatchesReleased)
}

func TestCleanup(t *testing.T) {
	dev := newFakeDevice()
	mc := NewController(dev)
	require.NoError(t, mc.EnsureSlot(Key{1, Triangles}, vertices(3)))
	require.NoError(t, mc.EnsureSlot(Key{2, Triangles}, vertices(2000)))
	mc.Cleanup()
	assert.ElementsMatch(t, []BufferID{1, 2}, dev.released)
	assert.Zero(t, mc.Stats().TotalKeys)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1.5K", formatNumber(1500))
	assert.Equal(t, "2.0M", formatNumber(2000000))
	assert.Equal(t, "██████░░░░░░", makeUtilizationBar(0.5, 12))
}
