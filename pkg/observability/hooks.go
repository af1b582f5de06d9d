// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup and receive events about pipeline stages, text
// composition, and usage governance.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not
// by libraries) and keeps the core library free of observability
// framework dependencies.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStageStart(ctx, "rendering")
//	// ... render charts ...
//	observability.Pipeline().OnStageComplete(ctx, "rendering", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the conversion pipeline.
type PipelineHooks interface {
	// OnStageStart fires when a pipeline stage begins.
	OnStageStart(ctx context.Context, stage string)

	// OnStageComplete fires when a pipeline stage finishes, successfully
	// or not.
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnRunComplete fires once per pipeline run with the final outcome.
	OnRunComplete(ctx context.Context, slideCount, warningCount int, duration time.Duration, err error)
}

// =============================================================================
// Composer Hooks
// =============================================================================

// ComposerHooks receives events from text composition.
type ComposerHooks interface {
	// OnFallback records that the primary text strategy failed and the
	// run was recomposed with the fallback.
	OnFallback(ctx context.Context, reason error)
}

// =============================================================================
// Governor Hooks
// =============================================================================

// GovernorHooks receives events from usage governance.
type GovernorHooks interface {
	// OnDenied records a refused conversion.
	OnDenied(ctx context.Context, userID, reason string)

	// OnReserved records a consumed conversion slot.
	OnReserved(ctx context.Context, userID string)

	// OnRollback records a reservation undone after a failed run.
	OnRollback(ctx context.Context, userID string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string)                          {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnRunComplete(context.Context, int, int, time.Duration, error) {}

// NoopComposerHooks is a no-op implementation of ComposerHooks.
type NoopComposerHooks struct{}

func (NoopComposerHooks) OnFallback(context.Context, error) {}

// NoopGovernorHooks is a no-op implementation of GovernorHooks.
type NoopGovernorHooks struct{}

func (NoopGovernorHooks) OnDenied(context.Context, string, string) {}
func (NoopGovernorHooks) OnReserved(context.Context, string)       {}
func (NoopGovernorHooks) OnRollback(context.Context, string)       {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	composerHooks ComposerHooks = NoopComposerHooks{}
	governorHooks GovernorHooks = NoopGovernorHooks{}
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

// SetComposerHooks registers custom composer hooks.
// This should be called once at application startup.
func SetComposerHooks(h ComposerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		composerHooks = h
	}
}

// SetGovernorHooks registers custom governor hooks.
// This should be called once at application startup.
func SetGovernorHooks(h GovernorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		governorHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Composer returns the registered composer hooks.
func Composer() ComposerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return composerHooks
}

// Governor returns the registered governor hooks.
func Governor() GovernorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return governorHooks
}

// Reset restores all hooks to their no-op defaults. Intended for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	composerHooks = NoopComposerHooks{}
	governorHooks = NoopGovernorHooks{}
}
