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
// Workspace Items
// =============================================================================

// workspaceItemRow represents a workspace item row in the database.
type workspaceItemRow struct {
	ID             string  `db:"id"`
	Name           string  `db:"name"`
	ContentRoot    string  `db:"content_root"`
	SDKName        *string `db:"sdk_name"`
	SDKHome        *string `db:"sdk_home"`
	OutputPath     string  `db:"output_path"`
	TestOutputPath string  `db:"test_output_path"`
	SourceRoots    string  `db:"source_roots"`
	Libraries      string  `db:"libraries"`
	CreatedAt      string  `db:"created_at"`
	UpdatedAt      string  `db:"updated_at"`
}

func itemParams(op string, item *domain.WorkspaceItem) (map[string]any, error) {
	rootsJSON, err := json.Marshal(item.SourceRoots)
	if err != nil {
		return nil, NewStoreError(op, "workspace_item", item.Name, "failed to serialize source roots", ErrInvalidData)
	}
	libsJSON, err := json.Marshal(item.Libraries)
	if err != nil {
		return nil, NewStoreError(op, "workspace_item", item.Name, "failed to serialize libraries", ErrInvalidData)
	}

	var sdkName, sdkHome *string
	if item.SDK != nil {
		sdkName = &item.SDK.Name
		sdkHome = &item.SDK.Home
	}

	ts := now()
	return map[string]any{
		"id":               item.ID,
		"name":             item.Name,
		"content_root":     item.ContentRoot,
		"sdk_name":         sdkName,
		"sdk_home":         sdkHome,
		"output_path":      item.OutputPath,
		"test_output_path": item.TestOutputPath,
		"source_roots":     string(rootsJSON),
		"libraries":        string(libsJSON),
		"created_at":       ts,
		"updated_at":       ts,
	}, nil
}

func createWorkspaceItem(ctx context.Context, exec executor, item *domain.WorkspaceItem) error {
	params, err := itemParams("CreateWorkspaceItem", item)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workspace_items (
			id, name, content_root, sdk_name, sdk_home, output_path,
			test_output_path, source_roots, libraries, created_at, updated_at
		) VALUES (
			:id, :name, :content_root, :sdk_name, :sdk_home, :output_path,
			:test_output_path, :source_roots, :libraries, :created_at, :updated_at
		)`

	_, err = exec.NamedExecContext(ctx, query, params)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: workspace_items.name") {
			return NewStoreError("CreateWorkspaceItem", "workspace_item", item.Name, "workspace item with this name already exists",
				&domain.DuplicateNameError{Kind: "workspace item", Name: item.Name})
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: workspace_items") {
			return NewStoreError("CreateWorkspaceItem", "workspace_item", item.Name, "workspace item with this key or content root already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateWorkspaceItem", "workspace_item", item.Name, err.Error(), err)
	}

	return nil
}

func getWorkspaceItem(ctx context.Context, exec executor, name string) (*domain.WorkspaceItem, error) {
	query := `SELECT * FROM workspace_items WHERE name = ?`

	var row workspaceItemRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetWorkspaceItem", "workspace_item", name, "workspace item not found", ErrNotFound)
		}
		return nil, NewStoreError("GetWorkspaceItem", "workspace_item", name, err.Error(), err)
	}

	return rowToWorkspaceItem(&row)
}

func findWorkspaceItemByContentRoot(ctx context.Context, exec executor, root string) (*domain.WorkspaceItem, error) {
	query := `SELECT * FROM workspace_items WHERE content_root = ?`

	var row workspaceItemRow
	err := exec.GetContext(ctx, &row, query, root)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("FindWorkspaceItemByContentRoot", "workspace_item", root, "no workspace item has this content root", ErrNotFound)
		}
		return nil, NewStoreError("FindWorkspaceItemByContentRoot", "workspace_item", root, err.Error(), err)
	}

	return rowToWorkspaceItem(&row)
}

func updateWorkspaceItem(ctx context.Context, exec executor, item *domain.WorkspaceItem) error {
	params, err := itemParams("UpdateWorkspaceItem", item)
	if err != nil {
		return err
	}

	query := `
		UPDATE workspace_items SET
			name = :name,
			content_root = :content_root,
			sdk_name = :sdk_name,
			sdk_home = :sdk_home,
			output_path = :output_path,
			test_output_path = :test_output_path,
			source_roots = :source_roots,
			libraries = :libraries,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, params)
	if err != nil {
		return NewStoreError("UpdateWorkspaceItem", "workspace_item", item.Name, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateWorkspaceItem", "workspace_item", item.Name, "workspace item not found", ErrNotFound)
	}

	return nil
}

func listWorkspaceItems(ctx context.Context, exec executor, opts ListOptions) ([]domain.WorkspaceItem, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM workspace_items ORDER BY name LIMIT ? OFFSET ?`

	var rows []workspaceItemRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListWorkspaceItems", "workspace_item", "", err.Error(), err)
	}

	items := make([]domain.WorkspaceItem, 0, len(rows))
	for _, row := range rows {
		item, err := rowToWorkspaceItem(&row)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, nil
}

// workspaceItemNames returns every item name equal to base or of the form
// "base (n)". Matching is done by LIKE, so a few unrelated names may be
// included; callers only use the result to avoid collisions.
func workspaceItemNames(ctx context.Context, exec executor, base string) ([]string, error) {
	query := `SELECT name FROM workspace_items WHERE name = ? OR name LIKE ? ESCAPE '\' ORDER BY name`

	var names []string
	err := exec.SelectContext(ctx, &names, query, base, escapeLike(base)+" (%)")
	if err != nil {
		return nil, NewStoreError("WorkspaceItemNames", "workspace_item", base, err.Error(), err)
	}
	return names, nil
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func openItemModel(ctx context.Context, exec executor, name string) (*ItemModel, error) {
	item, err := getWorkspaceItem(ctx, exec, name)
	if err != nil {
		return nil, err
	}
	return &ItemModel{WorkspaceItem: item, exec: exec}, nil
}

func rowToWorkspaceItem(row *workspaceItemRow) (*domain.WorkspaceItem, error) {
	item := &domain.WorkspaceItem{
		ID:             row.ID,
		Name:           row.Name,
		ContentRoot:    row.ContentRoot,
		OutputPath:     row.OutputPath,
		TestOutputPath: row.TestOutputPath,
	}
	if row.SDKName != nil {
		item.SDK = &domain.SDKRef{Name: *row.SDKName}
		if row.SDKHome != nil {
			item.SDK.Home = *row.SDKHome
		}
	}
	if err := json.Unmarshal([]byte(row.SourceRoots), &item.SourceRoots); err != nil {
		return nil, NewStoreError("rowToWorkspaceItem", "workspace_item", row.Name, "failed to parse source roots", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.Libraries), &item.Libraries); err != nil {
		return nil, NewStoreError("rowToWorkspaceItem", "workspace_item", row.Name, "failed to parse libraries", ErrInvalidData)
	}
	return item, nil
}

// =============================================================================
// Global Libraries
// =============================================================================

type globalLibraryRow struct {
	Name      string `db:"name"`
	Jars      string `db:"jars"`
	UpdatedAt string `db:"updated_at"`
}

func getGlobalLibrary(ctx context.Context, exec executor, name string) (*domain.LibrarySet, error) {
	query := `SELECT * FROM global_libraries WHERE name = ?`

	var row globalLibraryRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetGlobalLibrary", "global_library", name, "global library not found", ErrNotFound)
		}
		return nil, NewStoreError("GetGlobalLibrary", "global_library", name, err.Error(), err)
	}

	set := &domain.LibrarySet{Name: row.Name}
	if err := json.Unmarshal([]byte(row.Jars), &set.JarPaths); err != nil {
		return nil, NewStoreError("GetGlobalLibrary", "global_library", name, "failed to parse jars", ErrInvalidData)
	}
	return set, nil
}

// replaceGlobalLibrary writes set under its name, discarding any previous
// jar list for that name.
func replaceGlobalLibrary(ctx context.Context, exec executor, set domain.LibrarySet) error {
	jarsJSON, err := json.Marshal(set.JarPaths)
	if err != nil {
		return NewStoreError("ReplaceGlobalLibrary", "global_library", set.Name, "failed to serialize jars", ErrInvalidData)
	}

	query := `
		INSERT INTO global_libraries (name, jars, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET jars = excluded.jars, updated_at = excluded.updated_at`

	if _, err := exec.ExecContext(ctx, query, set.Name, string(jarsJSON), now()); err != nil {
		return NewStoreError("ReplaceGlobalLibrary", "global_library", set.Name, err.Error(), err)
	}
	return nil
}

// =============================================================================
// Servers
// =============================================================================

type serverRow struct {
	Name      string `db:"name"`
	Path      string `db:"path"`
	CreatedAt string `db:"created_at"`
}

func createServer(ctx context.Context, exec executor, server domain.ServerInfo) error {
	query := `INSERT INTO servers (name, path, created_at) VALUES (?, ?, ?)`

	_, err := exec.ExecContext(ctx, query, server.Name, server.Path, now())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: servers.name") {
			return NewStoreError("CreateServer", "server", server.Name, "server with this name already exists",
				&domain.DuplicateNameError{Kind: "server", Name: server.Name})
		}
		return NewStoreError("CreateServer", "server", server.Name, err.Error(), err)
	}
	return nil
}

func getServer(ctx context.Context, exec executor, name string) (*domain.ServerInfo, error) {
	query := `SELECT * FROM servers WHERE name = ?`

	var row serverRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetServer", "server", name, "server not found", ErrNotFound)
		}
		return nil, NewStoreError("GetServer", "server", name, err.Error(), err)
	}
	return &domain.ServerInfo{Name: row.Name, Path: row.Path}, nil
}

func listServers(ctx context.Context, exec executor) ([]domain.ServerInfo, error) {
	query := `SELECT * FROM servers ORDER BY name`

	var rows []serverRow
	if err := exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, NewStoreError("ListServers", "server", "", err.Error(), err)
	}

	servers := make([]domain.ServerInfo, 0, len(rows))
	for _, row := range rows {
		servers = append(servers, domain.ServerInfo{Name: row.Name, Path: row.Path})
	}
	return servers, nil
}
