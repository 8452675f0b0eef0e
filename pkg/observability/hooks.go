// Package observability lets the pipeline, caches and the source fetcher
// report events without depending on a logging or metrics backend.
//
// Any number of hooks can be registered; each event is delivered to every
// registered hook that implements the matching interface:
//
//	unregister := observability.Register(observability.NewCounters())
//	defer unregister()
//
// Libraries emit through the category accessors:
//
//	observability.Pipeline().OnLoadStart(ctx, source)
//	observability.Cache().OnCacheHit(ctx, "layout")
//
// [LogHooks] writes every event as a debug line and is what the CLI
// registers with --verbose. [Counters] aggregates events for the server's
// health endpoint.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineHooks receives load, layout and render events.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, nodeCount int, duration time.Duration, err error)
	OnLayoutStart(ctx context.Context, nodeCount int)
	OnLayoutComplete(ctx context.Context, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. keyType is the pipeline
// stage: "source", "layout" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from remote source fetches.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores every event. Embed it to implement only some
// methods.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                                {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, time.Duration, error)            {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                           {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)  {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Registry
// =============================================================================

type entry struct {
	id   uint64
	hook any
}

var (
	mu      sync.Mutex
	nextID  uint64
	entries []entry

	// current is rebuilt on every registration so emitters never lock.
	current atomic.Pointer[fanout]
)

func init() { current.Store(&fanout{}) }

// Register adds h for every hook interface it implements and returns a
// function removing it again. Registering a value that implements none of
// them has no effect.
func Register(h any) (unregister func()) {
	if h == nil {
		return func() {}
	}
	mu.Lock()
	defer mu.Unlock()
	nextID++
	id := nextID
	entries = append(entries, entry{id: id, hook: h})
	rebuild()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			for i, e := range entries {
				if e.id == id {
					entries = append(entries[:i:i], entries[i+1:]...)
					break
				}
			}
			rebuild()
		})
	}
}

// Reset removes every registered hook.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	entries = nil
	rebuild()
}

func rebuild() {
	f := &fanout{}
	for _, e := range entries {
		if h, ok := e.hook.(PipelineHooks); ok {
			f.pipeline = append(f.pipeline, h)
		}
		if h, ok := e.hook.(CacheHooks); ok {
			f.cache = append(f.cache, h)
		}
		if h, ok := e.hook.(HTTPHooks); ok {
			f.http = append(f.http, h)
		}
	}
	current.Store(f)
}

// Pipeline returns the registered pipeline hooks as one.
func Pipeline() PipelineHooks { return pipelineFanout(current.Load().pipeline) }

// Cache returns the registered cache hooks as one.
func Cache() CacheHooks { return cacheFanout(current.Load().cache) }

// HTTP returns the registered HTTP hooks as one.
func HTTP() HTTPHooks { return httpFanout(current.Load().http) }

type fanout struct {
	pipeline []PipelineHooks
	cache    []CacheHooks
	http     []HTTPHooks
}

type pipelineFanout []PipelineHooks

func (f pipelineFanout) OnLoadStart(ctx context.Context, source string) {
	for _, h := range f {
		h.OnLoadStart(ctx, source)
	}
}

func (f pipelineFanout) OnLoadComplete(ctx context.Context, source string, n int, d time.Duration, err error) {
	for _, h := range f {
		h.OnLoadComplete(ctx, source, n, d, err)
	}
}

func (f pipelineFanout) OnLayoutStart(ctx context.Context, n int) {
	for _, h := range f {
		h.OnLayoutStart(ctx, n)
	}
}

func (f pipelineFanout) OnLayoutComplete(ctx context.Context, d time.Duration, err error) {
	for _, h := range f {
		h.OnLayoutComplete(ctx, d, err)
	}
}

func (f pipelineFanout) OnRenderStart(ctx context.Context, formats []string) {
	for _, h := range f {
		h.OnRenderStart(ctx, formats)
	}
}

func (f pipelineFanout) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	for _, h := range f {
		h.OnRenderComplete(ctx, formats, d, err)
	}
}

type cacheFanout []CacheHooks

func (f cacheFanout) OnCacheHit(ctx context.Context, keyType string) {
	for _, h := range f {
		h.OnCacheHit(ctx, keyType)
	}
}

func (f cacheFanout) OnCacheMiss(ctx context.Context, keyType string) {
	for _, h := range f {
		h.OnCacheMiss(ctx, keyType)
	}
}

func (f cacheFanout) OnCacheSet(ctx context.Context, keyType string, size int) {
	for _, h := range f {
		h.OnCacheSet(ctx, keyType, size)
	}
}

type httpFanout []HTTPHooks

func (f httpFanout) OnRequest(ctx context.Context, method, host, path string) {
	for _, h := range f {
		h.OnRequest(ctx, method, host, path)
	}
}

func (f httpFanout) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	for _, h := range f {
		h.OnResponse(ctx, method, host, path, status, d)
	}
}

func (f httpFanout) OnError(ctx context.Context, method, host, path string, err error) {
	for _, h := range f {
		h.OnError(ctx, method, host, path, err)
	}
}
