// Package memory manages GPU vertex memory for the models in a preview.
//
// Each model uploads one triangle batch and one line batch per frame it
// changes. Batches are stored in fixed-capacity slots of shared buffers,
// grouped by size bucket, so a frame draws every model with one MultiDraw
// call per buffer and primitive mode.
package memory

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

var memoryLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("XLPREVIEW_DEBUG_MEMORY") == "1" {
		memoryLogger = log.New(os.Stdout, "[memory] ", log.Ltime|log.Lmsgprefix)
	}
}

// Bucket configuration.
const (
	vertexCapacityS  = 256
	vertexCapacityM  = 1024
	vertexCapacityL  = 4096
	vertexCapacityXL = 16384
	slotsPerBatchS   = 128
	slotsPerBatchM   = 64
	slotsPerBatchL   = 32
	slotsPerBatchXL  = 8
)

// BucketSize is the size category of a slot.
type BucketSize int

const (
	BucketS   BucketSize = iota // 256 vertices, a handful of handles
	BucketM                     // 1K vertices
	BucketL                     // 4K vertices, a large matrix
	BucketXL                    // 16K vertices
	BucketXXL                   // dedicated buffer per slot
)

var bucketSizes = []BucketSize{BucketS, BucketM, BucketL, BucketXL, BucketXXL}

func (bs BucketSize) String() string {
	switch bs {
	case BucketS:
		return "small"
	case BucketM:
		return "medium"
	case BucketL:
		return "large"
	case BucketXL:
		return "xlarge"
	case BucketXXL:
		return "xxlarge"
	default:
		return "unknown"
	}
}

// Key identifies one batch of a model.
type Key struct {
	Model int
	Mode  Mode
}

func (k Key) String() string { return fmt.Sprintf("model %d/%s", k.Model, k.Mode) }

// Stats tracks memory usage.
type Stats struct {
	TotalKeys          int
	TotalVertices      int64
	TotalGPUBytes      int64
	TotalBatches       int
	TotalSlots         int
	TotalActiveSlots   int
	DrawCallsPerFrame  int
	FreeSlots          int
	BatchesReleased    int
	BucketSizeStats    map[BucketSize]BucketSizeStats
}

// BucketSizeStats tracks metrics across the batches of one bucket.
type BucketSizeStats struct {
	BatchCount  int
	TotalSlots  int
	ActiveSlots int
	FreeSlots   int
	GPUBytes    int64
	Vertices    int64
}

type slot struct {
	active       bool
	key          Key
	vertexCount  int
	vertexOffset int
}

// batch is one device buffer divided into equal slots.
type batch struct {
	id          int
	buffer      BufferID
	capacity    int // vertices
	slots       []slot
	activeSlots []int
	bucketSize  BucketSize
}

type bucketPool struct {
	size          BucketSize
	slotCapacity  int
	slotsPerBatch int
	batches       []*batch
	freeSlots     []slotRef // sorted by (batch id, slot index)
}

type slotRef struct {
	batch     *batch
	slotIndex int
}

// Controller hands out slots for model batches and draws them.
type Controller struct {
	device      Device
	buckets     map[BucketSize]*bucketPool
	allocations map[Key]slotRef
	nextBatchID int
	stats       Stats
}

func selectBucket(vertexCount int) BucketSize {
	switch {
	case vertexCount <= vertexCapacityS:
		return BucketS
	case vertexCount <= vertexCapacityM:
		return BucketM
	case vertexCount <= vertexCapacityL:
		return BucketL
	case vertexCount <= vertexCapacityXL:
		return BucketXL
	default:
		return BucketXXL
	}
}

func newBucketPool(size BucketSize) *bucketPool {
	bp := &bucketPool{size: size, slotsPerBatch: 1}
	switch size {
	case BucketS:
		bp.slotCapacity, bp.slotsPerBatch = vertexCapacityS, slotsPerBatchS
	case BucketM:
		bp.slotCapacity, bp.slotsPerBatch = vertexCapacityM, slotsPerBatchM
	case BucketL:
		bp.slotCapacity, bp.slotsPerBatch = vertexCapacityL, slotsPerBatchL
	case BucketXL:
		bp.slotCapacity, bp.slotsPerBatch = vertexCapacityXL, slotsPerBatchXL
	}
	return bp
}

// takeFreeSlot pops the lowest free slot, keeping geometry packed towards
// the front of the oldest buffers.
func (bp *bucketPool) takeFreeSlot() (slotRef, bool) {
	if len(bp.freeSlots) == 0 {
		return slotRef{}, false
	}
	ref := bp.freeSlots[0]
	bp.freeSlots = bp.freeSlots[1:]
	return ref, true
}

func (bp *bucketPool) addFreeSlot(ref slotRef) {
	i := sort.Search(len(bp.freeSlots), func(i int) bool {
		f := bp.freeSlots[i]
		if f.batch.id != ref.batch.id {
			return f.batch.id > ref.batch.id
		}
		return f.slotIndex > ref.slotIndex
	})
	bp.freeSlots = append(bp.freeSlots, slotRef{})
	copy(bp.freeSlots[i+1:], bp.freeSlots[i:])
	bp.freeSlots[i] = ref
}

func (bp *bucketPool) dropFreeSlots(b *batch) {
	kept := bp.freeSlots[:0]
	for _, ref := range bp.freeSlots {
		if ref.batch != b {
			kept = append(kept, ref)
		}
	}
	bp.freeSlots = kept
}

// NewController returns a controller allocating from dev.
func NewController(dev Device) *Controller {
	mc := &Controller{
		device:      dev,
		buckets:     make(map[BucketSize]*bucketPool),
		allocations: make(map[Key]slotRef),
		nextBatchID: 1,
		stats:       Stats{BucketSizeStats: make(map[BucketSize]BucketSizeStats)},
	}
	for _, size := range bucketSizes {
		mc.buckets[size] = newBucketPool(size)
	}
	return mc
}

// EnsureSlot stores vertices for key, reusing its slot when the data still
// fits. Empty vertex data releases the slot.
func (mc *Controller) EnsureSlot(key Key, vertices []float32) error {
	if len(vertices)%FloatsPerVertex != 0 {
		return fmt.Errorf("vertex data for %s must be a multiple of %d floats (x,y,z,r,g,b,a), got %d",
			key, FloatsPerVertex, len(vertices))
	}
	if len(vertices) == 0 {
		mc.Remove(key)
		return nil
	}

	vertexCount := len(vertices) / FloatsPerVertex
	if ref, ok := mc.allocations[key]; ok {
		s := &ref.batch.slots[ref.slotIndex]
		if vertexCount <= ref.batch.capacity-s.vertexOffset && vertexCount <= mc.slotCapacity(ref.batch) {
			s.vertexCount = vertexCount
			mc.device.Upload(ref.batch.buffer, s.vertexOffset, vertices)
			return nil
		}
		mc.Remove(key)
	}

	bucket := selectBucket(vertexCount)
	pool := mc.buckets[bucket]
	ref, ok := pool.takeFreeSlot()
	if !ok {
		b, err := mc.createBatch(pool, vertexCount)
		if err != nil {
			return fmt.Errorf("failed to create %s batch for %s: %w", bucket, key, err)
		}
		// Every slot but the first goes on the free list.
		for i := 1; i < len(b.slots); i++ {
			pool.addFreeSlot(slotRef{batch: b, slotIndex: i})
		}
		ref = slotRef{batch: b}
	}

	s := &ref.batch.slots[ref.slotIndex]
	s.active = true
	s.key = key
	s.vertexCount = vertexCount
	ref.batch.activeSlots = append(ref.batch.activeSlots, ref.slotIndex)
	mc.allocations[key] = ref

	mc.device.Upload(ref.batch.buffer, s.vertexOffset, vertices)
	memoryLogger.Printf("%s: %d vertices in %s batch %d slot %d", key, vertexCount, bucket, ref.batch.id, ref.slotIndex)
	return nil
}

func (mc *Controller) slotCapacity(b *batch) int {
	if b.bucketSize == BucketXXL {
		return b.capacity
	}
	return mc.buckets[b.bucketSize].slotCapacity
}

func (mc *Controller) createBatch(pool *bucketPool, vertexCount int) (*batch, error) {
	capacity := pool.slotCapacity * pool.slotsPerBatch
	if pool.size == BucketXXL {
		capacity = vertexCount
	}
	id, err := mc.device.NewBuffer(capacity)
	if err != nil {
		return nil, err
	}

	b := &batch{
		id:         mc.nextBatchID,
		buffer:     id,
		capacity:   capacity,
		slots:      make([]slot, pool.slotsPerBatch),
		bucketSize: pool.size,
	}
	for i := range b.slots {
		b.slots[i].vertexOffset = i * pool.slotCapacity
	}
	mc.nextBatchID++
	pool.batches = append(pool.batches, b)
	return b, nil
}

// Remove frees the slot held by key, if any. Dedicated buffers are released
// right away.
func (mc *Controller) Remove(key Key) {
	ref, ok := mc.allocations[key]
	if !ok {
		return
	}
	delete(mc.allocations, key)

	b := ref.batch
	b.slots[ref.slotIndex] = slot{vertexOffset: b.slots[ref.slotIndex].vertexOffset}
	for i, idx := range b.activeSlots {
		if idx == ref.slotIndex {
			last := len(b.activeSlots) - 1
			b.activeSlots[i] = b.activeSlots[last]
			b.activeSlots = b.activeSlots[:last]
			break
		}
	}

	pool := mc.buckets[b.bucketSize]
	if b.bucketSize == BucketXXL {
		mc.releaseBatch(pool, b)
		return
	}
	pool.addFreeSlot(ref)
}

// RemoveModel frees every batch of a model.
func (mc *Controller) RemoveModel(model int) {
	mc.Remove(Key{Model: model, Mode: Triangles})
	mc.Remove(Key{Model: model, Mode: Lines})
}

func (mc *Controller) releaseBatch(pool *bucketPool, b *batch) {
	pool.dropFreeSlots(b)
	for i, other := range pool.batches {
		if other == b {
			pool.batches = append(pool.batches[:i], pool.batches[i+1:]...)
			break
		}
	}
	mc.device.Release(b.buffer)
	mc.stats.BatchesReleased++
	memoryLogger.Printf("released %s batch %d", b.bucketSize, b.id)
}

// Has reports whether key holds a slot.
func (mc *Controller) Has(key Key) bool {
	_, ok := mc.allocations[key]
	return ok
}

// Draw issues one MultiDraw per buffer and mode. Triangles are drawn before
// lines so outlines and handles stay on top.
func (mc *Controller) Draw() error {
	drawCalls := 0
	for _, mode := range []Mode{Triangles, Lines} {
		for _, size := range bucketSizes {
			for _, b := range mc.buckets[size].batches {
				var firsts, counts []int32
				for _, idx := range b.activeSlots {
					s := b.slots[idx]
					if s.key.Mode != mode || s.vertexCount == 0 {
						continue
					}
					firsts = append(firsts, int32(s.vertexOffset))
					counts = append(counts, int32(s.vertexCount))
				}
				if len(firsts) == 0 {
					continue
				}
				mc.device.MultiDraw(b.buffer, mode, firsts, counts)
				drawCalls++
			}
		}
	}
	mc.stats.DrawCallsPerFrame = drawCalls
	return nil
}

// Cleanup releases every buffer.
func (mc *Controller) Cleanup() {
	for _, pool := range mc.buckets {
		for _, b := range pool.batches {
			mc.device.Release(b.buffer)
		}
		pool.batches = nil
		pool.freeSlots = nil
	}
	mc.allocations = make(map[Key]slotRef)
}

// Stats returns current memory statistics.
func (mc *Controller) Stats() Stats {
	mc.stats.TotalKeys = len(mc.allocations)
	mc.stats.TotalVertices = 0
	mc.stats.TotalGPUBytes = 0
	mc.stats.TotalBatches = 0
	mc.stats.TotalSlots = 0
	mc.stats.TotalActiveSlots = 0
	mc.stats.FreeSlots = 0
	mc.stats.BucketSizeStats = make(map[BucketSize]BucketSizeStats)

	for size, pool := range mc.buckets {
		bs := pool.calculateStats()
		mc.stats.BucketSizeStats[size] = bs
		mc.stats.TotalVertices += bs.Vertices
		mc.stats.TotalGPUBytes += bs.GPUBytes
		mc.stats.TotalBatches += bs.BatchCount
		mc.stats.TotalSlots += bs.TotalSlots
		mc.stats.TotalActiveSlots += bs.ActiveSlots
		mc.stats.FreeSlots += bs.FreeSlots
	}
	return mc.stats
}

func (bp *bucketPool) calculateStats() BucketSizeStats {
	stats := BucketSizeStats{
		BatchCount: len(bp.batches),
		FreeSlots:  len(bp.freeSlots),
	}
	for _, b := range bp.batches {
		stats.GPUBytes += int64(b.capacity * FloatsPerVertex * 4)
		stats.TotalSlots += len(b.slots)
		stats.ActiveSlots += len(b.activeSlots)
		for _, idx := range b.activeSlots {
			stats.Vertices += int64(b.slots[idx].vertexCount)
		}
	}
	return stats
}

// PrintStats logs memory usage to the debug logger.
func (mc *Controller) PrintStats() {
	stats := mc.Stats()

	slotsUtil := 0.0
	if stats.TotalSlots > 0 {
		slotsUtil = float64(stats.TotalActiveSlots) / float64(stats.TotalSlots)
	}

	memoryLogger.Println("===== Memory Controller Stats =====")
	memoryLogger.Printf("%.1f%% slots active (%d/%d), %d batches (%d released), %d free-list slots, %s GPU, %d keys (%s vertices), %d draw calls",
		slotsUtil*100,
		stats.TotalActiveSlots,
		stats.TotalSlots,
		stats.TotalBatches,
		stats.BatchesReleased,
		stats.FreeSlots,
		formatNumber(stats.TotalGPUBytes),
		stats.TotalKeys,
		formatNumber(stats.TotalVertices),
		stats.DrawCallsPerFrame,
	)

	for _, size := range bucketSizes {
		bs, ok := stats.BucketSizeStats[size]
		if !ok || bs.BatchCount == 0 {
			continue
		}
		util := float64(bs.ActiveSlots) / float64(bs.TotalSlots)
		memoryLogger.Printf("  [%8s] %s %.0f%% slots active (%d/%d), %d batches, %d free-list slots, %s GPU (%s vertices)",
			size.String(),
			makeUtilizationBar(util, 12),
			util*100,
			bs.ActiveSlots,
			bs.TotalSlots,
			bs.BatchCount,
			bs.FreeSlots,
			formatNumber(bs.GPUBytes),
			formatNumber(bs.Vertices),
		)
	}
}

func makeUtilizationBar(utilization float64, width int) string {
	utilization = max(0, min(1, utilization))
	filled := int(utilization * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatNumber formats large numbers with K/M suffixes for readability.
func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000.0)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000.0)
}
