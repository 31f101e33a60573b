package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/thawee/SmartTomcat/internal/core/domain"
)

// =============================================================================
// Run Profiles
// =============================================================================

// profileRow represents a run profile row in the database.
type profileRow struct {
	KindID         string `db:"kind_id"`
	Name           string `db:"name"`
	Port           int    `db:"port"`
	AdminPort      int    `db:"admin_port"`
	SSLPort        *int   `db:"ssl_port"`
	CatalinaBase   string `db:"catalina_base"`
	ServerName     string `db:"server_name"`
	VMOptions      string `db:"vm_options"`
	EnvOptions     string `db:"env_options"`
	PassParentEnvs bool   `db:"pass_parent_envs"`
	ExtraClassPath string `db:"extra_class_path"`
	Selected       bool   `db:"selected"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

// webappRow represents one webapp deployment record.
type webappRow struct {
	KindID        string `db:"kind_id"`
	ProfileName   string `db:"profile_name"`
	Position      int    `db:"position"`
	WorkspaceItem string `db:"workspace_item"`
	DocBase       string `db:"doc_base"`
	ContextPath   string `db:"context_path"`
}

func profileParams(op string, p *domain.RunProfile) (map[string]any, error) {
	envJSON, err := json.Marshal(p.EnvOptions)
	if err != nil {
		return nil, NewStoreError(op, "run_profile", p.Key.String(), "failed to serialize env options", ErrInvalidData)
	}

	ts := now()
	return map[string]any{
		"kind_id":          p.Key.KindID,
		"name":             p.Key.Name,
		"port":             p.Port,
		"admin_port":       p.AdminPort,
		"ssl_port":         p.SSLPort,
		"catalina_base":    p.CatalinaBase,
		"server_name":      p.ServerName,
		"vm_options":       p.VMOptions,
		"env_options":      string(envJSON),
		"pass_parent_envs": p.PassParentEnvs,
		"extra_class_path": p.ExtraClassPath,
		"created_at":       ts,
		"updated_at":       ts,
	}, nil
}

func findProfile(ctx context.Context, exec executor, key domain.ProfileKey) (*domain.RunProfile, error) {
	query := `SELECT * FROM run_profiles WHERE kind_id = ? AND name = ?`

	var row profileRow
	err := exec.GetContext(ctx, &row, query, key.KindID, key.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("FindProfile", "run_profile", key.String(), "run profile not found", ErrNotFound)
		}
		return nil, NewStoreError("FindProfile", "run_profile", key.String(), err.Error(), err)
	}

	return loadProfile(ctx, exec, &row)
}

func registerProfile(ctx context.Context, exec executor, p *domain.RunProfile) error {
	params, err := profileParams("RegisterProfile", p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO run_profiles (
			kind_id, name, port, admin_port, ssl_port, catalina_base, server_name,
			vm_options, env_options, pass_parent_envs, extra_class_path,
			created_at, updated_at
		) VALUES (
			:kind_id, :name, :port, :admin_port, :ssl_port, :catalina_base, :server_name,
			:vm_options, :env_options, :pass_parent_envs, :extra_class_path,
			:created_at, :updated_at
		)`

	_, err = exec.NamedExecContext(ctx, query, params)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: run_profiles") {
			return NewStoreError("RegisterProfile", "run_profile", p.Key.String(), "run profile already exists",
				&domain.DuplicateNameError{Kind: "run profile", Name: p.Key.Name})
		}
		return NewStoreError("RegisterProfile", "run_profile", p.Key.String(), err.Error(), err)
	}

	return insertWebapps(ctx, exec, "RegisterProfile", p)
}

func saveProfile(ctx context.Context, exec executor, p *domain.RunProfile) error {
	params, err := profileParams("SaveProfile", p)
	if err != nil {
		return err
	}

	query := `
		UPDATE run_profiles SET
			port = :port,
			admin_port = :admin_port,
			ssl_port = :ssl_port,
			catalina_base = :catalina_base,
			server_name = :server_name,
			vm_options = :vm_options,
			env_options = :env_options,
			pass_parent_envs = :pass_parent_envs,
			extra_class_path = :extra_class_path,
			updated_at = :updated_at
		WHERE kind_id = :kind_id AND name = :name`

	result, err := exec.NamedExecContext(ctx, query, params)
	if err != nil {
		return NewStoreError("SaveProfile", "run_profile", p.Key.String(), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("SaveProfile", "run_profile", p.Key.String(), "run profile not found", ErrNotFound)
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM webapps WHERE kind_id = ? AND profile_name = ?`, p.Key.KindID, p.Key.Name); err != nil {
		return NewStoreError("SaveProfile", "run_profile", p.Key.String(), err.Error(), err)
	}

	return insertWebapps(ctx, exec, "SaveProfile", p)
}

func insertWebapps(ctx context.Context, exec executor, op string, p *domain.RunProfile) error {
	query := `
		INSERT INTO webapps (kind_id, profile_name, position, workspace_item, doc_base, context_path)
		VALUES (:kind_id, :profile_name, :position, :workspace_item, :doc_base, :context_path)`

	for i, w := range p.Webapps {
		row := webappRow{
			KindID:        p.Key.KindID,
			ProfileName:   p.Key.Name,
			Position:      i,
			WorkspaceItem: w.WorkspaceItem,
			DocBase:       w.DocBase,
			ContextPath:   w.ContextPath,
		}
		if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
			if strings.Contains(err.Error(), "webapps.context_path") {
				return NewStoreError(op, "webapp", w.ContextPath, "context path is already in use",
					domain.NewValidationError("context_path", w.ContextPath, domain.ErrDuplicateContextPath))
			}
			if strings.Contains(err.Error(), "webapps.workspace_item") {
				return NewStoreError(op, "webapp", w.WorkspaceItem, "workspace item is bound twice", ErrDuplicateID)
			}
			return NewStoreError(op, "webapp", w.WorkspaceItem, err.Error(), err)
		}
	}
	return nil
}

// selectProfile marks key as the selected profile and clears the mark on
// every other profile.
func selectProfile(ctx context.Context, exec executor, key domain.ProfileKey) error {
	var count int
	err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM run_profiles WHERE kind_id = ? AND name = ?`, key.KindID, key.Name)
	if err != nil {
		return NewStoreError("SelectProfile", "run_profile", key.String(), err.Error(), err)
	}
	if count == 0 {
		return NewStoreError("SelectProfile", "run_profile", key.String(), "run profile not found", ErrNotFound)
	}

	query := `UPDATE run_profiles SET selected = CASE WHEN kind_id = ? AND name = ? THEN 1 ELSE 0 END`
	if _, err := exec.ExecContext(ctx, query, key.KindID, key.Name); err != nil {
		return NewStoreError("SelectProfile", "run_profile", key.String(), err.Error(), err)
	}
	return nil
}

func selectedProfile(ctx context.Context, exec executor) (*domain.RunProfile, error) {
	query := `SELECT * FROM run_profiles WHERE selected = 1 LIMIT 1`

	var row profileRow
	err := exec.GetContext(ctx, &row, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("SelectedProfile", "run_profile", "", "no run profile is selected", ErrNotFound)
		}
		return nil, NewStoreError("SelectedProfile", "run_profile", "", err.Error(), err)
	}

	return loadProfile(ctx, exec, &row)
}

func listProfiles(ctx context.Context, exec executor, opts ListOptions) ([]domain.RunProfile, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM run_profiles ORDER BY kind_id, name LIMIT ? OFFSET ?`

	var rows []profileRow
	if err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListProfiles", "run_profile", "", err.Error(), err)
	}

	profiles := make([]domain.RunProfile, 0, len(rows))
	for _, row := range rows {
		p, err := loadProfile(ctx, exec, &row)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

// loadProfile converts a profile row and reads its webapps in order.
func loadProfile(ctx context.Context, exec executor, row *profileRow) (*domain.RunProfile, error) {
	p := &domain.RunProfile{
		Key:            domain.ProfileKey{KindID: row.KindID, Name: row.Name},
		Port:           row.Port,
		AdminPort:      row.AdminPort,
		SSLPort:        row.SSLPort,
		CatalinaBase:   row.CatalinaBase,
		ServerName:     row.ServerName,
		VMOptions:      row.VMOptions,
		PassParentEnvs: row.PassParentEnvs,
		ExtraClassPath: row.ExtraClassPath,
	}
	if err := json.Unmarshal([]byte(row.EnvOptions), &p.EnvOptions); err != nil {
		return nil, NewStoreError("loadProfile", "run_profile", p.Key.String(), "failed to parse env options", ErrInvalidData)
	}

	query := `SELECT * FROM webapps WHERE kind_id = ? AND profile_name = ? ORDER BY position`
	var rows []webappRow
	if err := exec.SelectContext(ctx, &rows, query, row.KindID, row.Name); err != nil {
		return nil, NewStoreError("loadProfile", "webapp", p.Key.String(), err.Error(), err)
	}

	p.Webapps = make([]domain.WebappDeploymentRecord, 0, len(rows))
	for _, w := range rows {
		p.Webapps = append(p.Webapps, domain.WebappDeploymentRecord{
			WorkspaceItem: w.WorkspaceItem,
			DocBase:       w.DocBase,
			ContextPath:   w.ContextPath,
		})
	}
	return p, nil
}
