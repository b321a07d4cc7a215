// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through the registered hooks; the application decides
// at startup where those events go. The defaults are no-ops, so packages can
// call hooks unconditionally and no library imports a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    reg := prometheus.NewRegistry()
//	    hooks := observability.NewPrometheusHooks(reg)
//	    observability.SetPipelineHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLoadStart(ctx, path)
//	// ... decode dataset ...
//	observability.Pipeline().OnLoadComplete(ctx, path, nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the extraction pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, dataset string)
	OnLoadComplete(ctx context.Context, dataset string, nodeCount int, duration time.Duration, err error)

	// Extract events
	OnExtractStart(ctx context.Context, maxFeatures int)
	OnExtractComplete(ctx context.Context, summary ExtractSummary, duration time.Duration, err error)
}

// ExtractSummary describes a finished extraction.
type ExtractSummary struct {
	Records   int
	Visited   int
	Skipped   int
	Malformed int
	Truncated bool
	CacheHit  bool
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                     {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error)       {}
func (NoopPipelineHooks) OnExtractStart(context.Context, int)                                     {}
func (NoopPipelineHooks) OnExtractComplete(context.Context, ExtractSummary, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
