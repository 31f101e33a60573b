package engine

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/afero"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

// =============================================================================
// Server Registry
// =============================================================================

// RegisterServer records the Tomcat installation at path under name and
// publishes the jars of its lib directory as a global library of the same
// name. An empty name falls back to the directory name. A taken name is
// rejected with a *domain.DuplicateNameError before anything is written.
func (d *Deployer) RegisterServer(ctx context.Context, name, path string) (domain.ServerInfo, error) {
	info, err := domain.NewServerInfo(name, path)
	if err != nil {
		return domain.ServerInfo{}, flowErr(FlowServer, "validate", err)
	}

	exists, err := afero.DirExists(d.fs, info.Path)
	if err != nil || !exists {
		if err == nil {
			err = os.ErrNotExist
		}
		return domain.ServerInfo{}, flowErr(FlowServer, "validate", domain.NewIOFault("stat server home", info.Path, err))
	}

	set, err := d.libs.CollectLibrary(info.Name, info.LibDir())
	if err != nil {
		return domain.ServerInfo{}, flowErr(FlowServer, "collect jars", err)
	}

	err = d.store.WithTx(ctx, func(tx store.Store) error {
		_, err := tx.GetServer(ctx, info.Name)
		if err == nil {
			return flowErr(FlowServer, "register", &domain.DuplicateNameError{Kind: "server", Name: info.Name})
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return flowErr(FlowServer, "register", err)
		}

		if err := tx.CreateServer(ctx, info); err != nil {
			return flowErr(FlowServer, "register", err)
		}
		if err := tx.ReplaceGlobalLibrary(ctx, set); err != nil {
			return flowErr(FlowServer, "global library", err)
		}
		return nil
	})
	if err != nil {
		return domain.ServerInfo{}, err
	}

	d.logger.Info("server registered", "server", info.Name, "path", info.Path, "jars", len(set.JarPaths))
	return info, nil
}

// SuggestServerName returns preferred, or the first "preferred (n)" that
// no registered server uses yet.
func (d *Deployer) SuggestServerName(ctx context.Context, preferred string) (string, error) {
	servers, err := d.store.ListServers(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(servers))
	for _, s := range servers {
		names = append(names, s.Name)
	}
	return domain.UniqueName(names, preferred), nil
}
