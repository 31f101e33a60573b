// Package registry maintains the webapp deployment records of a run
// profile.
//
// Two invariants hold after every successful call:
//   - no two records in a profile share a workspace item
//   - no two records in a profile share a context path
//
// A rejected upsert leaves the profile untouched.
package registry

import (
	"context"
	"errors"
	"slices"

	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Run Profile Store Contract
// =============================================================================

// ProfileStore looks up, creates and persists run profiles.
type ProfileStore interface {
	FindProfile(ctx context.Context, key domain.ProfileKey) (*domain.RunProfile, error)
	RegisterProfile(ctx context.Context, profile *domain.RunProfile) error
	SaveProfile(ctx context.Context, profile *domain.RunProfile) error
	SelectProfile(ctx context.Context, key domain.ProfileKey) error
}

// FindOrCreateProfile returns the profile with the given key, creating and
// registering it with defaults when absent. An existing profile is returned
// as stored; its fields are not reset. created reports which case applied.
func FindOrCreateProfile(ctx context.Context, store ProfileStore, key domain.ProfileKey, defaults domain.ProfileDefaults) (profile *domain.RunProfile, created bool, err error) {
	profile, err = store.FindProfile(ctx, key)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	profile = domain.NewRunProfile(key, defaults)
	if err := profile.ValidatePorts(); err != nil {
		return nil, false, err
	}
	if err := store.RegisterProfile(ctx, profile); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

// =============================================================================
// Upsert
// =============================================================================

// Upsert binds record into profile. Any previous record for the same
// workspace item is replaced; the new record is appended at the end.
//
// Validation, in order:
//   - workspace item and document base are set
//   - context path is non-empty and starts with '/'
//   - no record for another workspace item uses the context path
func Upsert(profile *domain.RunProfile, record domain.WebappDeploymentRecord) error {
	if err := Validate(profile, record); err != nil {
		return err
	}

	webapps := slices.DeleteFunc(slices.Clone(profile.Webapps), func(w domain.WebappDeploymentRecord) bool {
		return w.WorkspaceItem == record.WorkspaceItem
	})
	profile.Webapps = append(webapps, record)
	return nil
}

// Validate checks record against profile without modifying it.
func Validate(profile *domain.RunProfile, record domain.WebappDeploymentRecord) error {
	if record.WorkspaceItem == "" {
		return domain.NewValidationError("workspace_item", "", domain.ErrMissingWorkspaceItem)
	}
	if record.DocBase == "" {
		return domain.NewValidationError("doc_base", "", domain.ErrMissingDocBase)
	}
	if err := domain.ValidateContextPath(record.ContextPath); err != nil {
		return err
	}
	for _, w := range profile.Webapps {
		if w.WorkspaceItem != record.WorkspaceItem && w.ContextPath == record.ContextPath {
			return domain.NewValidationError("context_path", record.ContextPath, domain.ErrDuplicateContextPath)
		}
	}
	return nil
}

// Remove drops the record bound to item. It reports whether one existed.
func Remove(profile *domain.RunProfile, item string) bool {
	before := len(profile.Webapps)
	profile.Webapps = slices.DeleteFunc(profile.Webapps, func(w domain.WebappDeploymentRecord) bool {
		return w.WorkspaceItem == item
	})
	return len(profile.Webapps) != before
}
