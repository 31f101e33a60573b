package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Library Synchronizer
// =============================================================================

// Synchronizer replaces library sets on a sink from library directories.
type Synchronizer struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewSynchronizer creates a synchronizer reading jars from fs.
func NewSynchronizer(fs afero.Fs, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{fs: fs, logger: logger}
}

// Sync replaces one library set per library directory. A set with the same name is
// removed before the fresh one is created, so jars that left the directory
// do not linger.
func (s *Synchronizer) Sync(specs []domain.LibraryDirSpec, sink Sink) error {
	for _, spec := range specs {
		set, err := s.CollectLibrary(spec.LibraryName, spec.Path)
		if err != nil {
			return err
		}
		if err := ReplaceLibrary(sink, set, spec.Scope); err != nil {
			return err
		}
		s.logger.Debug("synchronized library",
			"library", spec.LibraryName,
			"jars", len(set.JarPaths),
			"scope", spec.Scope,
		)
	}
	return nil
}

// CollectLibrary reads the immediate children of dir and returns the jar
// files among them as a named set.
func (s *Synchronizer) CollectLibrary(name, dir string) (domain.LibrarySet, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return domain.LibrarySet{}, domain.NewIOFault("list jars", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return domain.NewLibrarySet(name, paths), nil
}

// ReplaceLibrary removes any set named set.Name from sink, creates the
// fresh set and then sets the attachment scope when it is not the default.
func ReplaceLibrary(sink Sink, set domain.LibrarySet, scope domain.Scope) error {
	if scope == "" {
		scope = domain.DefaultScope
	}
	if !scope.Valid() {
		return domain.NewValidationError("scope", string(scope), domain.ErrInvalidScope)
	}

	sink.RemoveLibrary(set.Name)
	if err := sink.CreateLibrary(set); err != nil {
		return fmt.Errorf("create library %s: %w", set.Name, err)
	}
	if scope != domain.DefaultScope {
		if !sink.SetLibraryScope(set.Name, scope) {
			return fmt.Errorf("set scope of library %s: %w", set.Name, domain.ErrNotFound)
		}
	}
	return nil
}

// SyncNamedReference attaches the global library called name to sink with
// the given scope, replacing a previous attachment of the same name. It
// returns an error wrapping domain.ErrNotFound when no global library has
// that name; callers treat that as non-fatal.
func (s *Synchronizer) SyncNamedReference(ctx context.Context, name string, scope domain.Scope, globals GlobalLibraries, sink Sink) error {
	if _, err := globals.GetGlobalLibrary(ctx, name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("global library not found", "library", name)
			return fmt.Errorf("global library %q: %w", name, domain.ErrNotFound)
		}
		return err
	}

	sink.RemoveLibrary(name)
	if err := sink.AttachGlobalLibrary(name, scope); err != nil {
		return fmt.Errorf("attach global library %s: %w", name, err)
	}
	s.logger.Debug("attached global library", "library", name, "scope", scope)
	return nil
}
