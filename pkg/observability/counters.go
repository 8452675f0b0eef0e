package observability

import (
	"context"
	"sync"
	"time"
)

// Counters tallies pipeline and cache events. The zero value is not
// usable; create it with [NewCounters].
type Counters struct {
	NoopPipelineHooks
	NoopCacheHooks

	mu     sync.Mutex
	counts map[string]int64
}

// NewCounters returns empty counters.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int64)}
}

func (c *Counters) add(name string) {
	c.mu.Lock()
	c.counts[name]++
	c.mu.Unlock()
}

func (c *Counters) OnLoadComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	c.add(outcome("loads", err))
}

func (c *Counters) OnLayoutComplete(_ context.Context, _ time.Duration, err error) {
	c.add(outcome("layouts", err))
}

func (c *Counters) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	c.add(outcome("renders", err))
}

func (c *Counters) OnCacheHit(_ context.Context, keyType string) { c.add("cache." + keyType + ".hits") }

func (c *Counters) OnCacheMiss(_ context.Context, keyType string) {
	c.add("cache." + keyType + ".misses")
}

// Snapshot returns a copy of the current counts, e.g. "renders" or
// "cache.layout.hits". Failed operations count under "<name>.errors".
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func outcome(name string, err error) string {
	if err != nil {
		return name + ".errors"
	}
	return name
}
