package store

import (
	"context"

	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface. It serves as the build-config
// sink (through ItemModel), the global library table and the run profile
// store.
type Store interface {
	// Workspace item operations
	CreateWorkspaceItem(ctx context.Context, item *domain.WorkspaceItem) error
	GetWorkspaceItem(ctx context.Context, name string) (*domain.WorkspaceItem, error)
	FindWorkspaceItemByContentRoot(ctx context.Context, root string) (*domain.WorkspaceItem, error)
	UpdateWorkspaceItem(ctx context.Context, item *domain.WorkspaceItem) error
	ListWorkspaceItems(ctx context.Context, opts ListOptions) ([]domain.WorkspaceItem, error)
	WorkspaceItemNames(ctx context.Context, base string) ([]string, error)
	OpenItemModel(ctx context.Context, name string) (*ItemModel, error)

	// Global library operations
	GetGlobalLibrary(ctx context.Context, name string) (*domain.LibrarySet, error)
	ReplaceGlobalLibrary(ctx context.Context, set domain.LibrarySet) error

	// Run profile operations
	FindProfile(ctx context.Context, key domain.ProfileKey) (*domain.RunProfile, error)
	RegisterProfile(ctx context.Context, profile *domain.RunProfile) error
	SaveProfile(ctx context.Context, profile *domain.RunProfile) error
	SelectProfile(ctx context.Context, key domain.ProfileKey) error
	SelectedProfile(ctx context.Context) (*domain.RunProfile, error)
	ListProfiles(ctx context.Context, opts ListOptions) ([]domain.RunProfile, error)

	// Server operations
	CreateServer(ctx context.Context, server domain.ServerInfo) error
	GetServer(ctx context.Context, name string) (*domain.ServerInfo, error)
	ListServers(ctx context.Context) ([]domain.ServerInfo, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// =============================================================================
// Item Model
// =============================================================================

// ItemModel is the modifiable model of one workspace item. Edits stay in
// memory until Commit writes them back through the store that opened it.
type ItemModel struct {
	*domain.WorkspaceItem
	exec executor
}

// Commit persists the model.
func (m *ItemModel) Commit(ctx context.Context) error {
	return updateWorkspaceItem(ctx, m.exec, m.WorkspaceItem)
}
