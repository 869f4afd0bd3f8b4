package metrics

import "time"

// VectorIndexStats is the subset of vectorindex.Index's stats this
// collector polls. Declared locally to avoid a dependency from pkg/metrics
// on pkg/vectorindex; callers pass a closure reading their own index.
type VectorIndexStats struct {
	Count int64
}

// GraphIndexStats is the subset of graphindex.Index's stats this collector
// polls.
type GraphIndexStats struct {
	NodeCount int
	EdgeCount int
}

// Collector polls the two hot indexes and the scheduler's queue depths on a
// fixed interval and republishes their state as Prometheus gauges (§10.2). It
// takes plain function callbacks rather than concrete package types so
// that pkg/metrics does not import pkg/coordinator, pkg/vectorindex, or
// pkg/graphindex directly — the caller (typically cmd/memoriad) wires the
// closures at startup.
type Collector struct {
	vectorStats func() VectorIndexStats
	graphStats  func() GraphIndexStats
	queueDepth  func() map[string]int // priority -> depth

	stopCh chan struct{}
}

// NewCollector creates a collector. Any of the callbacks may be nil, in
// which case that collection step is skipped.
func NewCollector(vectorStats func() VectorIndexStats, graphStats func() GraphIndexStats, queueDepth func() map[string]int) *Collector {
	return &Collector{
		vectorStats: vectorStats,
		graphStats:  graphStats,
		queueDepth:  queueDepth,
		stopCh:      make(chan struct{}),
	}
}

// Start begins collecting on a 15-second interval, matching the cadence
// the teacher's own collector uses for cluster state.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.vectorStats != nil {
		stats := c.vectorStats()
		VectorCount.Set(float64(stats.Count))
	}

	if c.graphStats != nil {
		stats := c.graphStats()
		MemEdgesTotal.Set(float64(stats.EdgeCount))
	}

	if c.queueDepth != nil {
		for priority, depth := range c.queueDepth() {
			SchedulerQueueDepth.WithLabelValues(priority).Set(float64(depth))
		}
	}
}
