package thumbs

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"tagview/internal/logging"
	"tagview/internal/metrics"
	"tagview/internal/workers"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 512

// State of a cache entry.
type State int

const (
	// StateUnknown: the path has no cache entry.
	StateUnknown State = iota
	// StatePending: a decode job is queued or running.
	StatePending
	// StateReady: thumbnail bytes are cached.
	StateReady
	// StateFailed: the last decode failed; Retry re-enqueues.
	StateFailed
)

// String returns the wire representation of a state.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Result is a point-in-time copy of an entry. Data is the cached JPEG
// and is shared; callers must not modify it. Width and Height are the
// decoded source dimensions, not the thumbnail's.
type Result struct {
	State  State
	Data   []byte
	Width  int
	Height int
	Err    string
}

// Generator produces thumbnail bytes for a source image path,
// reporting the source's decoded pixel dimensions.
type Generator func(path string) (data []byte, width, height int, err error)

// Config configures a Cache.
type Config struct {
	// Capacity bounds the entry count; DefaultCapacity when <= 0.
	Capacity int
	// Workers sizes the decode pool; a mixed-workload count when <= 0.
	Workers int
	// Generate produces thumbnails. Required.
	Generate Generator
	// OnComplete, when set, is called after every successful decode
	// with the source dimensions. It runs on a worker goroutine with
	// no cache lock held, so it may call back into the cache.
	OnComplete func(path string, width, height int)
	// DiskDir, when set, persists generated thumbnails there so a
	// restart or eviction does not force a fresh decode.
	DiskDir string
}

type entry struct {
	path   string
	state  State
	data   []byte
	width  int
	height int
	err    string
	gen    uint64
	elem   *list.Element // nil while Pending
}

func (e *entry) result() Result {
	return Result{State: e.state, Data: e.data, Width: e.width, Height: e.height, Err: e.err}
}

type job struct {
	path string
	gen  uint64
}

// Cache is the bounded asynchronous thumbnail store.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	lru        *list.List // front = most recently used, Pending entries excluded
	bytes      int64
	capacity   int
	genCounter uint64

	jobs     chan job
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	generate   Generator
	onComplete func(path string, width, height int)
	disk       *diskStore // nil when no DiskDir is configured
}

// New starts a cache and its worker pool.
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Workers <= 0 {
		cfg.Workers = workers.ForMixed(8)
	}
	if cfg.Generate == nil {
		cfg.Generate = func(string) ([]byte, int, int, error) {
			return nil, 0, 0, fmt.Errorf("no thumbnail generator configured")
		}
	}

	c := &Cache{
		entries:    make(map[string]*entry),
		lru:        list.New(),
		capacity:   cfg.Capacity,
		jobs:       make(chan job, cfg.Capacity+cfg.Workers*2),
		done:       make(chan struct{}),
		generate:   cfg.Generate,
		onComplete: cfg.OnComplete,
	}

	if cfg.DiskDir != "" {
		disk, err := newDiskStore(cfg.DiskDir)
		if err != nil {
			logging.Warn("Thumbnail disk store disabled: %v", err)
		} else {
			c.disk = disk
			logging.Info("Thumbnail disk store: %s", cfg.DiskDir)
		}
	}

	logging.Info("Thumbnail cache: capacity %d, %d workers", c.capacity, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// Stop shuts the worker pool down and waits for in-flight decodes.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// Request returns the entry for a path, enqueueing a decode job when
// the path has none. Pending and Ready entries are never re-enqueued;
// Failed entries stay Failed until an explicit Retry.
func (c *Cache) Request(path string) Result {
	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		c.touchLocked(e)
		res := e.result()
		c.mu.Unlock()
		if res.State == StateReady {
			metrics.ThumbnailCacheHits.Inc()
		}
		return res
	}

	c.genCounter++
	e := &entry{path: path, state: StatePending, gen: c.genCounter}
	c.entries[path] = e
	c.evictLocked()
	metrics.ThumbnailCacheEntries.Set(float64(len(c.entries)))
	j := job{path: path, gen: e.gen}
	c.mu.Unlock()

	metrics.ThumbnailCacheMisses.Inc()
	c.enqueue(j)
	return Result{State: StatePending}
}

// Get returns the current entry without triggering work. Found entries
// are touched for LRU purposes.
func (c *Cache) Get(path string) Result {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		c.mu.Unlock()
		metrics.ThumbnailCacheMisses.Inc()
		return Result{State: StateUnknown}
	}
	c.touchLocked(e)
	res := e.result()
	c.mu.Unlock()

	if res.State == StateReady {
		metrics.ThumbnailCacheHits.Inc()
	}
	return res
}

// State peeks at a path's state without touching LRU recency, for
// listings that report every image.
func (c *Cache) State(path string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		return e.state
	}
	return StateUnknown
}

// Retry re-enqueues a Failed entry. Entries in any other state are
// returned unchanged, so repeated retry clicks while a decode is
// already running do not stack jobs.
func (c *Cache) Retry(path string) Result {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		c.mu.Unlock()
		return Result{State: StateUnknown}
	}
	if e.state != StateFailed {
		res := e.result()
		c.mu.Unlock()
		return res
	}

	c.genCounter++
	e.gen = c.genCounter
	e.state = StatePending
	e.err = ""
	if e.elem != nil {
		c.lru.Remove(e.elem)
		e.elem = nil
	}
	j := job{path: path, gen: e.gen}
	c.mu.Unlock()

	metrics.ThumbnailRetriesTotal.Inc()
	c.enqueue(j)
	return Result{State: StatePending}
}

// Invalidate drops a path's entry, including its disk copy. A decode
// still in flight for it is abandoned when it completes. Unknown paths
// still get their disk copy removed; a changed file must not revive a
// stale thumbnail from the store.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		c.removeLocked(e)
	}
	c.mu.Unlock()

	if c.disk != nil {
		c.disk.remove(path)
	}
}

// Stats is a point-in-time census of the cache.
type Stats struct {
	Entries int   `json:"entries"`
	Ready   int   `json:"ready"`
	Pending int   `json:"pending"`
	Failed  int   `json:"failed"`
	Bytes   int64 `json:"bytes"`
}

// Stats counts entries by state.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Entries: len(c.entries), Bytes: c.bytes}
	for _, e := range c.entries {
		switch e.state {
		case StateReady:
			s.Ready++
		case StatePending:
			s.Pending++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}

// enqueue hands a job to the pool. It runs with no lock held: workers
// take the same lock to publish results, so blocking on a full queue
// under the lock would deadlock the pool.
func (c *Cache) enqueue(j job) {
	select {
	case c.jobs <- j:
		metrics.ThumbnailQueueDepth.Inc()
	case <-c.done:
	}
}

func (c *Cache) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case j := <-c.jobs:
			metrics.ThumbnailQueueDepth.Dec()
			c.process(j)
		}
	}
}

func (c *Cache) process(j job) {
	// Skip the decode when the entry was invalidated or superseded
	// while the job sat in the queue
	c.mu.Lock()
	e, ok := c.entries[j.path]
	stale := !ok || e.gen != j.gen
	c.mu.Unlock()
	if stale {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("stale").Inc()
		return
	}

	if c.disk != nil {
		if data, ok := c.disk.load(j.path); ok {
			c.completeFromDisk(j, data)
			return
		}
	}

	start := time.Now()
	data, width, height, err := c.generate(j.path)
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())

	// Persist before publishing: once an entry reads Ready, Invalidate
	// must be able to remove its disk copy without racing a late write.
	if err == nil && c.disk != nil {
		c.disk.save(j.path, data)
	}

	c.complete(j, data, width, height, err)
}

// completeFromDisk publishes bytes recovered from the disk store. The
// source dimensions are unknown here; they were persisted when the
// thumbnail was first generated.
func (c *Cache) completeFromDisk(j job, data []byte) {
	c.mu.Lock()
	e, ok := c.entries[j.path]
	if !ok || e.gen != j.gen {
		c.mu.Unlock()
		metrics.ThumbnailGenerationsTotal.WithLabelValues("stale").Inc()
		return
	}

	e.state = StateReady
	e.data = data
	c.bytes += int64(len(data))
	metrics.ThumbnailCacheBytes.Set(float64(c.bytes))
	e.elem = c.lru.PushFront(e)
	c.evictLocked()
	c.mu.Unlock()

	metrics.ThumbnailDiskHits.Inc()
}

// complete publishes a decode result, dropping it when the entry's
// generation moved past the job's.
func (c *Cache) complete(j job, data []byte, width, height int, genErr error) {
	c.mu.Lock()
	e, ok := c.entries[j.path]
	if !ok || e.gen != j.gen {
		c.mu.Unlock()
		// This decode was invalidated or superseded mid-flight; its
		// saved bytes must not outlive it on disk. A newer decode for
		// the path rewrites its own copy.
		if genErr == nil && c.disk != nil {
			c.disk.remove(j.path)
		}
		metrics.ThumbnailGenerationsTotal.WithLabelValues("stale").Inc()
		return
	}

	if genErr != nil {
		e.state = StateFailed
		e.err = genErr.Error()
		e.data = nil
	} else {
		e.state = StateReady
		e.data = data
		e.width = width
		e.height = height
		c.bytes += int64(len(data))
		metrics.ThumbnailCacheBytes.Set(float64(c.bytes))
	}

	e.elem = c.lru.PushFront(e)
	c.evictLocked()
	onComplete := c.onComplete
	c.mu.Unlock()

	if genErr != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		logging.Debug("Thumbnail failed: %s: %v", j.path, genErr)
		return
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	if onComplete != nil {
		onComplete(j.path, width, height)
	}
}

// touchLocked marks an entry recently used. Pending entries are not in
// the LRU list and need no touch.
func (c *Cache) touchLocked(e *entry) {
	if e.elem != nil {
		c.lru.MoveToFront(e.elem)
	}
}

// evictLocked removes least-recently-used completed entries until the
// cache fits its capacity. With enough Pending entries the cache can
// exceed capacity; they are never evicted.
func (c *Cache) evictLocked() {
	for len(c.entries) > c.capacity {
		back := c.lru.Back()
		if back == nil {
			return
		}
		c.removeLocked(back.Value.(*entry))
		metrics.ThumbnailCacheEvictions.Inc()
	}
}

func (c *Cache) removeLocked(e *entry) {
	if e.elem != nil {
		c.lru.Remove(e.elem)
		e.elem = nil
	}
	delete(c.entries, e.path)
	if e.state == StateReady {
		c.bytes -= int64(len(e.data))
		metrics.ThumbnailCacheBytes.Set(float64(c.bytes))
	}
	metrics.ThumbnailCacheEntries.Set(float64(len(c.entries)))
}
