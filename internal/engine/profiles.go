package engine

import (
	"context"
	"fmt"

	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/core/registry"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

// =============================================================================
// Profile Maintenance
// =============================================================================

// PortSettings changes the ports of a run profile. Nil fields are left
// as they are. ClearSSL removes the SSL port and wins over SSLPort.
type PortSettings struct {
	Port      *int
	AdminPort *int
	SSLPort   *int
	ClearSSL  bool
}

// Unlink removes the deployment record of item from the project's run
// profile. The workspace item itself is kept.
func (d *Deployer) Unlink(ctx context.Context, item string) (*domain.RunProfile, error) {
	var profile *domain.RunProfile
	err := d.store.WithTx(ctx, func(tx store.Store) error {
		p, err := tx.FindProfile(ctx, d.cfg.ProfileKey())
		if err != nil {
			return flowErr(FlowUnlink, "profile", err)
		}
		if !registry.Remove(p, item) {
			return flowErr(FlowUnlink, "remove", fmt.Errorf("webapp %q: %w", item, domain.ErrNotFound))
		}
		if err := tx.SaveProfile(ctx, p); err != nil {
			return flowErr(FlowUnlink, "save profile", err)
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("webapp unlinked", "item", item, "profile", profile.Key.Name)
	return profile, nil
}

// UpdatePorts applies ps to the named run profile of the configured kind,
// or to the project's profile when name is empty. Out-of-range ports are
// rejected with a *domain.ValidationError and nothing is saved.
func (d *Deployer) UpdatePorts(ctx context.Context, name string, ps PortSettings) (*domain.RunProfile, error) {
	key := d.cfg.ProfileKey()
	if name != "" {
		key.Name = name
	}

	var profile *domain.RunProfile
	err := d.store.WithTx(ctx, func(tx store.Store) error {
		p, err := tx.FindProfile(ctx, key)
		if err != nil {
			return flowErr(FlowProfile, "profile", err)
		}

		if ps.Port != nil {
			p.Port = *ps.Port
		}
		if ps.AdminPort != nil {
			p.AdminPort = *ps.AdminPort
		}
		switch {
		case ps.ClearSSL:
			p.SSLPort = nil
		case ps.SSLPort != nil:
			ssl := *ps.SSLPort
			p.SSLPort = &ssl
		}

		if err := p.ValidatePorts(); err != nil {
			return flowErr(FlowProfile, "validate", err)
		}
		if err := tx.SaveProfile(ctx, p); err != nil {
			return flowErr(FlowProfile, "save profile", err)
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("profile ports updated", "profile", profile.Key.Name, "port", profile.Port, "admin_port", profile.AdminPort)
	return profile, nil
}
