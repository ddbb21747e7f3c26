package metrics

import (
	"time"

	"tagview/internal/logging"
)

// StatsProvider supplies catalog totals for the periodic collector.
type StatsProvider interface {
	GetStats() Stats
}

// StorageHealthChecker exposes the database-side health probes the
// collector drives on each tick.
type StorageHealthChecker interface {
	CheckStorageHealth()
	UpdateDBMetrics()
}

// Stats holds the current catalog statistics
type Stats struct {
	Images      int
	Directories int
	Tags        int
	Assignments int
	Untagged    int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	storage       StorageHealthChecker
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. Either provider may be
// nil, in which case its portion of the collection is skipped.
func NewCollector(provider StatsProvider, storage StorageHealthChecker, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		storage:       storage,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.storage != nil {
		c.storage.CheckStorageHealth()
		c.storage.UpdateDBMetrics()
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogImages.Set(float64(stats.Images))
	CatalogDirectories.Set(float64(stats.Directories))
	CatalogUntaggedImages.Set(float64(stats.Untagged))
	TagsTotal.Set(float64(stats.Tags))
	TagAssignments.Set(float64(stats.Assignments))

	logging.Debug("Metrics collected: images=%d, directories=%d, tags=%d, assignments=%d, untagged=%d",
		stats.Images, stats.Directories, stats.Tags, stats.Assignments, stats.Untagged)
}
