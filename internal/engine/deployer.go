// Package engine wires layout inference, build configuration, library
// synchronization and the webapp registry into the two deploy flows:
// linking a directory and relinking from a web.xml descriptor.
//
// Each flow runs inside one store transaction. Either every change of the
// flow is committed or none is.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/thawee/SmartTomcat/internal/core/buildconfig"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/core/layout"
	"github.com/thawee/SmartTomcat/internal/core/registry"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds project-wide settings for the deploy flows.
type Config struct {
	// ProjectName derives the shared run profile name.
	ProjectName string

	// KindID of the shared run profile. Defaults to domain.DefaultKindID.
	KindID string

	// Defaults applied to a run profile when it is first created.
	Defaults domain.ProfileDefaults

	// SDK set on configured workspace items. Nil leaves the SDK unset.
	SDK *domain.SDKRef

	// ServerScope is the scope of the attached server library.
	// Defaults to domain.ScopeProvided.
	ServerScope domain.Scope
}

// ProfileKey returns the key of the shared run profile.
func (c Config) ProfileKey() domain.ProfileKey {
	kind := c.KindID
	if kind == "" {
		kind = domain.DefaultKindID
	}
	return domain.ProfileKey{KindID: kind, Name: domain.ProfileName(c.ProjectName)}
}

// =============================================================================
// Deployer
// =============================================================================

// Deployer runs the deploy flows against a store and a filesystem.
type Deployer struct {
	store    store.Store
	fs       afero.Fs
	resolver *layout.Resolver
	builder  *buildconfig.Builder
	libs     *buildconfig.Synchronizer
	cfg      Config
	logger   *slog.Logger
}

// NewDeployer creates a deployer.
func NewDeployer(s store.Store, fs afero.Fs, cfg Config, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Defaults.ProjectName == "" {
		cfg.Defaults.ProjectName = cfg.ProjectName
	}
	if cfg.ServerScope == "" {
		cfg.ServerScope = domain.ScopeProvided
	}
	return &Deployer{
		store:    s,
		fs:       fs,
		resolver: layout.NewResolver(fs, logger),
		builder:  buildconfig.NewBuilder(fs, logger),
		libs:     buildconfig.NewSynchronizer(fs, logger),
		cfg:      cfg,
		logger:   logger.With("component", "deployer"),
	}
}

// Result describes what a deploy flow did.
type Result struct {
	Item           *domain.WorkspaceItem         `json:"item" yaml:"item"`
	ItemCreated    bool                          `json:"item_created" yaml:"item_created"`
	Profile        *domain.RunProfile            `json:"profile" yaml:"profile"`
	ProfileCreated bool                          `json:"profile_created" yaml:"profile_created"`
	Record         domain.WebappDeploymentRecord `json:"record" yaml:"record"`
	Layout         domain.LayoutDescriptor       `json:"layout" yaml:"layout"`
}

// Resolve infers the layout of dir without changing anything.
func (d *Deployer) Resolve(dir string) (domain.LayoutDescriptor, error) {
	desc, err := d.resolver.Resolve(filepath.Clean(dir))
	if err != nil {
		return domain.LayoutDescriptor{}, flowErr(FlowResolve, "resolve", err)
	}
	return desc, nil
}

// LinkDirectory deploys dir as a webapp. A directory that is not yet the
// content root of a workspace item gets a new item named after it, which
// is then configured from the inferred layout. An existing item keeps its
// configuration; only its deployment record is rebound.
func (d *Deployer) LinkDirectory(ctx context.Context, dir string) (*Result, error) {
	return d.link(ctx, FlowLink, filepath.Clean(dir), "", false)
}

// LinkDescriptor deploys the project owning the web.xml at path. Unlike
// LinkDirectory, an existing workspace item is reconfigured: its managed
// library sets are dropped and synchronized again from the current tree.
// The directory holding WEB-INF becomes the document base, whatever its
// name.
func (d *Deployer) LinkDescriptor(ctx context.Context, path string) (*Result, error) {
	root, err := layout.ProjectRootForDescriptor(path)
	if err != nil {
		return nil, flowErr(FlowRelink, "descriptor", err)
	}
	webRoot := filepath.Dir(filepath.Dir(filepath.Clean(path)))
	return d.link(ctx, FlowRelink, root, webRoot, true)
}

// link runs a deploy flow for root. A non-empty preferredWebRoot that
// exists is tried before the discovered web roots.
func (d *Deployer) link(ctx context.Context, flow, root, preferredWebRoot string, reconfigure bool) (*Result, error) {
	log := d.logger.With("flow", flow, "root", root)

	desc, err := d.resolver.Resolve(root)
	if err != nil {
		return nil, flowErr(flow, "resolve", err)
	}
	if preferredWebRoot != "" {
		d.preferWebRoot(&desc, preferredWebRoot)
	}
	webRoot, ok := desc.WebRoot()
	if !ok {
		return nil, flowErr(flow, "web root", domain.NewValidationError("doc_base", root, domain.ErrMissingDocBase))
	}

	res := &Result{Layout: desc}
	err = d.store.WithTx(ctx, func(tx store.Store) error {
		profile, created, err := registry.FindOrCreateProfile(ctx, tx, d.cfg.ProfileKey(), d.cfg.Defaults)
		if err != nil {
			return flowErr(flow, "profile", err)
		}
		res.Profile, res.ProfileCreated = profile, created

		item, err := tx.FindWorkspaceItemByContentRoot(ctx, root)
		switch {
		case err == nil:
			if reconfigure {
				if item, err = d.configure(ctx, tx, flow, item.Name, desc, profile, true); err != nil {
					return err
				}
			}
		case errors.Is(err, domain.ErrNotFound):
			if item, err = d.createItem(ctx, tx, flow, root); err != nil {
				return err
			}
			if item, err = d.configure(ctx, tx, flow, item.Name, desc, profile, false); err != nil {
				return err
			}
			res.ItemCreated = true
		default:
			return flowErr(flow, "workspace item", err)
		}
		res.Item = item

		record, err := d.bind(ctx, tx, flow, profile, item, webRoot)
		if err != nil {
			return err
		}
		res.Record = record
		return nil
	})
	if err != nil {
		log.Warn("deploy flow aborted", "error", err)
		return nil, err
	}

	log.Info("webapp linked",
		"item", res.Item.Name,
		"item_created", res.ItemCreated,
		"context_path", res.Record.ContextPath,
		"doc_base", res.Record.DocBase,
		"profile", res.Profile.Key.Name,
	)
	return res, nil
}

// preferWebRoot moves webRoot to the front of desc.WebRoots when it is a
// directory. Its WEB-INF/lib supplies the WebInfLibs set if the layout
// found none.
func (d *Deployer) preferWebRoot(desc *domain.LayoutDescriptor, webRoot string) {
	if ok, _ := afero.DirExists(d.fs, webRoot); !ok {
		return
	}

	roots := make([]string, 0, len(desc.WebRoots)+1)
	roots = append(roots, webRoot)
	for _, r := range desc.WebRoots {
		if r != webRoot {
			roots = append(roots, r)
		}
	}
	desc.WebRoots = roots

	for _, spec := range desc.LibraryDirs {
		if spec.LibraryName == domain.LibraryWebInf {
			return
		}
	}
	lib := filepath.Join(webRoot, layout.MarkerWebInf, layout.MarkerLib)
	if ok, _ := afero.DirExists(d.fs, lib); ok {
		desc.LibraryDirs = append(desc.LibraryDirs, domain.LibraryDirSpec{
			Path:        lib,
			LibraryName: domain.LibraryWebInf,
			Scope:       domain.ScopeCompile,
		})
	}
}

// createItem creates a workspace item rooted at root, named after the
// directory and made unique among existing item names.
func (d *Deployer) createItem(ctx context.Context, tx store.Store, flow, root string) (*domain.WorkspaceItem, error) {
	preferred := filepath.Base(root)
	taken, err := tx.WorkspaceItemNames(ctx, preferred)
	if err != nil {
		return nil, flowErr(flow, "workspace item", err)
	}

	item := domain.NewWorkspaceItem(domain.UniqueName(taken, preferred), root)
	if err := tx.CreateWorkspaceItem(ctx, item); err != nil {
		return nil, flowErr(flow, "workspace item", err)
	}
	d.logger.Debug("created workspace item", "item", item.Name, "root", root)
	return item, nil
}

// configure applies the build configuration and library sets to the
// named item and commits its model.
func (d *Deployer) configure(ctx context.Context, tx store.Store, flow, name string, desc domain.LayoutDescriptor, profile *domain.RunProfile, dropManaged bool) (*domain.WorkspaceItem, error) {
	model, err := tx.OpenItemModel(ctx, name)
	if err != nil {
		return nil, flowErr(flow, "open model", err)
	}

	if dropManaged {
		for _, lib := range []string{domain.LibraryEndorsed, domain.LibraryWebInf, profile.ServerName} {
			if lib != "" {
				model.RemoveLibrary(lib)
			}
		}
	}

	d.builder.Apply(desc, d.cfg.SDK, model)

	if err := d.libs.Sync(desc.LibraryDirs, model); err != nil {
		return nil, flowErr(flow, "libraries", err)
	}

	if profile.ServerName != "" {
		err := d.libs.SyncNamedReference(ctx, profile.ServerName, d.cfg.ServerScope, tx, model)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, flowErr(flow, "server library", err)
		}
	}

	if err := model.Commit(ctx); err != nil {
		return nil, flowErr(flow, "commit", err)
	}
	return model.WorkspaceItem, nil
}

// bind upserts the deployment record of item into profile, saves the
// profile and selects it.
func (d *Deployer) bind(ctx context.Context, tx store.Store, flow string, profile *domain.RunProfile, item *domain.WorkspaceItem, docBase string) (domain.WebappDeploymentRecord, error) {
	exists, err := afero.DirExists(d.fs, docBase)
	if err != nil {
		return domain.WebappDeploymentRecord{}, flowErr(flow, "doc base", domain.NewIOFault("stat", docBase, err))
	}
	if !exists {
		return domain.WebappDeploymentRecord{}, flowErr(flow, "doc base", domain.NewValidationError("doc_base", docBase, domain.ErrMissingDocBase))
	}

	record := domain.WebappDeploymentRecord{
		WorkspaceItem: item.Name,
		DocBase:       docBase,
		ContextPath:   domain.ContextPath(item.Name),
	}
	if err := registry.Upsert(profile, record); err != nil {
		return domain.WebappDeploymentRecord{}, flowErr(flow, "upsert", err)
	}
	if err := tx.SaveProfile(ctx, profile); err != nil {
		return domain.WebappDeploymentRecord{}, flowErr(flow, "save profile", err)
	}
	if err := tx.SelectProfile(ctx, profile.Key); err != nil {
		return domain.WebappDeploymentRecord{}, flowErr(flow, "select profile", err)
	}
	return record, nil
}
