package clustering

import (
	"container/list"
	"encoding/binary"
	"math"
	"sync"

	"github.com/hyperjump/mixpad/internal/models"
)

// PreviewCache is an LRU cache of preview fits keyed by the exact ordered point list.
// Both successful and failed fits are cached. A nil cache or zero capacity caches nothing.
type PreviewCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type previewEntry struct {
	key    string
	labels []int
	ok     bool
}

// NewPreviewCache creates a cache holding up to capacity point sets.
func NewPreviewCache(capacity int) *PreviewCache {
	return &PreviewCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached preview for pts if present.
func (c *PreviewCache) Get(pts []models.Point) (labels []int, ok bool, found bool) {
	if c == nil || c.capacity <= 0 {
		return nil, false, false
	}
	key := pointsKey(pts)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, hit := c.cache[key]; hit {
		c.lru.MoveToFront(elem)
		e := elem.Value.(*previewEntry)
		return append([]int(nil), e.labels...), e.ok, true
	}
	return nil, false, false
}

// Set stores the preview outcome for pts, evicting the oldest entry if at capacity.
func (c *PreviewCache) Set(pts []models.Point, labels []int, ok bool) {
	if c == nil || c.capacity <= 0 {
		return
	}
	key := pointsKey(pts)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, hit := c.cache[key]; hit {
		c.lru.MoveToFront(elem)
		e := elem.Value.(*previewEntry)
		e.labels, e.ok = labels, ok
		return
	}

	elem := c.lru.PushFront(&previewEntry{key: key, labels: labels, ok: ok})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*previewEntry).key)
		}
	}
}

// Len returns the number of cached point sets.
func (c *PreviewCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every entry.
func (c *PreviewCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lru.Init()
}

// pointsKey encodes the exact bit patterns of pts, so equal keys mean identical input.
func pointsKey(pts []models.Point) string {
	buf := make([]byte, 16*len(pts))
	for i, p := range pts {
		binary.LittleEndian.PutUint64(buf[16*i:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[16*i+8:], math.Float64bits(p.Y))
	}
	return string(buf)
}
