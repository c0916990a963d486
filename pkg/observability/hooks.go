// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and backend-agnostic. Consumers register hooks
// at startup to receive events about organize runs, sheet decoding and
// output commits.
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetOrganizerHooks(&myOrganizerHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Organizer().OnGroupStart(ctx, path, "layout", len(tiles))
//	// ... organize the group ...
//	observability.Organizer().OnGroupComplete(ctx, path, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Organizer Hooks
// =============================================================================

// OrganizerHooks receives events from organize runs.
type OrganizerHooks interface {
	// Run events
	OnOrganizeStart(ctx context.Context, tilesetID string, groups int)
	OnOrganizeComplete(ctx context.Context, tilesetID string, duration time.Duration, err error)

	// Group events
	OnGroupStart(ctx context.Context, path, connect string, tiles int)
	OnGroupComplete(ctx context.Context, path string, duration time.Duration, err error)
}

// =============================================================================
// Sheet Hooks
// =============================================================================

// SheetHooks receives events from the decoded-sheet cache.
type SheetHooks interface {
	// OnSheetHit records a sheet served from the cache.
	OnSheetHit(path string)

	// OnSheetDecode records a sheet decoded from disk.
	OnSheetDecode(path string, duration time.Duration, err error)
}

// =============================================================================
// Output Hooks
// =============================================================================

// OutputHooks receives events when an organized tree is written.
type OutputHooks interface {
	// OnCommit records the rename of a staged tree into place.
	OnCommit(ctx context.Context, dir string, files int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopOrganizerHooks is a no-op implementation of OrganizerHooks.
type NoopOrganizerHooks struct{}

func (NoopOrganizerHooks) OnOrganizeStart(context.Context, string, int)                    {}
func (NoopOrganizerHooks) OnOrganizeComplete(context.Context, string, time.Duration, error) {}
func (NoopOrganizerHooks) OnGroupStart(context.Context, string, string, int)               {}
func (NoopOrganizerHooks) OnGroupComplete(context.Context, string, time.Duration, error)    {}

// NoopSheetHooks is a no-op implementation of SheetHooks.
type NoopSheetHooks struct{}

func (NoopSheetHooks) OnSheetHit(string)                          {}
func (NoopSheetHooks) OnSheetDecode(string, time.Duration, error) {}

// NoopOutputHooks is a no-op implementation of OutputHooks.
type NoopOutputHooks struct{}

func (NoopOutputHooks) OnCommit(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	organizerHooks OrganizerHooks = NoopOrganizerHooks{}
	sheetHooks     SheetHooks     = NoopSheetHooks{}
	outputHooks    OutputHooks    = NoopOutputHooks{}
	hooksMu        sync.RWMutex
)

// SetOrganizerHooks registers custom organizer hooks.
// This should be called once at application startup.
func SetOrganizerHooks(h OrganizerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		organizerHooks = h
	}
}

// SetSheetHooks registers custom sheet cache hooks.
func SetSheetHooks(h SheetHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sheetHooks = h
	}
}

// SetOutputHooks registers custom output hooks.
func SetOutputHooks(h OutputHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		outputHooks = h
	}
}

// Organizer returns the registered organizer hooks.
func Organizer() OrganizerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return organizerHooks
}

// Sheet returns the registered sheet hooks.
func Sheet() SheetHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sheetHooks
}

// Output returns the registered output hooks.
func Output() OutputHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return outputHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	organizerHooks = NoopOrganizerHooks{}
	sheetHooks = NoopSheetHooks{}
	outputHooks = NoopOutputHooks{}
}
