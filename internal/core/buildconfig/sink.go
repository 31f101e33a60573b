// Package buildconfig turns a resolved LayoutDescriptor into mutation
// requests against a workspace item's build model.
//
// The build model is owned by the caller and reached only through the
// Sink interface. Every request here is idempotent: applying the same
// descriptor twice leaves the sink in the same state as applying it once.
// All calls must be made inside the caller's exclusive-modification
// section (store.WithTx).
package buildconfig

import (
	"context"

	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Collaborator Contracts
// =============================================================================

// Sink is the modifiable build model of one workspace item.
//
// Adding a source root that is already present must be a no-op. Commit
// finalizes all prior calls atomically from the caller's point of view.
type Sink interface {
	AddSourceRoot(path string, isResource bool)
	SetSDK(ref domain.SDKRef)
	SetOutputPath(path string)
	SetTestOutputPath(path string)

	// Library table, replace-by-name.
	Library(name string) (domain.LibraryEntry, bool)
	RemoveLibrary(name string) bool
	CreateLibrary(set domain.LibrarySet) error
	AttachGlobalLibrary(name string, scope domain.Scope) error
	SetLibraryScope(name string, scope domain.Scope) bool

	Commit(ctx context.Context) error
}

// GlobalLibraries looks up libraries defined outside any workspace item.
type GlobalLibraries interface {
	GetGlobalLibrary(ctx context.Context, name string) (*domain.LibrarySet, error)
}
