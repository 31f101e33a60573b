package api

import "github.com/thawee/SmartTomcat/internal/core/domain"

// =============================================================================
// Request Types
// =============================================================================

// LinkRequest is the request body for the link and relink endpoints.
// For link, Path is a project directory; for relink, a web.xml file.
type LinkRequest struct {
	Path string `json:"path"`
}

// CreateServerRequest is the request body for registering a server.
type CreateServerRequest struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path"`
}

// =============================================================================
// Response Types
// =============================================================================

// LinkResponse is the response for link and relink.
type LinkResponse struct {
	Item           WorkspaceItemResponse         `json:"item"`
	ItemCreated    bool                          `json:"item_created"`
	Record         domain.WebappDeploymentRecord `json:"record"`
	Profile        ProfileResponse               `json:"profile"`
	ProfileCreated bool                          `json:"profile_created"`
}

// WorkspaceItemResponse summarises a workspace item.
type WorkspaceItemResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	ContentRoot string              `json:"content_root"`
	OutputPath  string              `json:"output_path,omitempty"`
	SourceRoots []domain.SourceRoot `json:"source_roots"`
	Libraries   []LibraryResponse   `json:"libraries"`
}

// LibraryResponse represents one attached library.
type LibraryResponse struct {
	Name   string `json:"name"`
	Scope  string `json:"scope"`
	Global bool   `json:"global"`
	Jars   int    `json:"jars"`
}

// ProfileResponse is the response for run profile operations.
type ProfileResponse struct {
	KindID         string                          `json:"kind_id"`
	Name           string                          `json:"name"`
	Port           int                             `json:"port"`
	AdminPort      int                             `json:"admin_port"`
	SSLPort        *int                            `json:"ssl_port,omitempty"`
	CatalinaBase   string                          `json:"catalina_base,omitempty"`
	Server         string                          `json:"server,omitempty"`
	VMOptions      string                          `json:"vm_options,omitempty"`
	EnvOptions     map[string]string               `json:"env"`
	PassParentEnvs bool                            `json:"pass_parent_envs"`
	ExtraClassPath string                          `json:"extra_class_path,omitempty"`
	Webapps        []domain.WebappDeploymentRecord `json:"webapps"`
}

// ServerResponse represents a registered server.
type ServerResponse struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
