package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// =============================================================================
// Run Profile
// =============================================================================

// DefaultKindID identifies Tomcat run profiles.
const DefaultKindID = "com.poratu.idea.plugins.tomcat"

// Default port settings for new profiles.
const (
	DefaultPort      = 8080
	DefaultAdminPort = 8005
)

// ProfileKey is the identity of a run profile.
type ProfileKey struct {
	KindID string `yaml:"kind_id" json:"kind_id"`
	Name   string `yaml:"name" json:"name"`
}

func (k ProfileKey) String() string {
	return k.KindID + "/" + k.Name
}

// WebappDeploymentRecord binds one workspace item to a document base and
// a context path.
type WebappDeploymentRecord struct {
	WorkspaceItem string `yaml:"workspace_item" json:"workspace_item"`
	DocBase       string `yaml:"doc_base" json:"doc_base"`
	ContextPath   string `yaml:"context_path" json:"context_path"`
}

// RunProfile is a reusable launch configuration holding webapp records.
type RunProfile struct {
	Key            ProfileKey               `yaml:"key" json:"key"`
	Port           int                      `yaml:"port" json:"port"`
	AdminPort      int                      `yaml:"admin_port" json:"admin_port"`
	SSLPort        *int                     `yaml:"ssl_port,omitempty" json:"ssl_port,omitempty"`
	CatalinaBase   string                   `yaml:"catalina_base,omitempty" json:"catalina_base,omitempty"`
	ServerName     string                   `yaml:"server,omitempty" json:"server,omitempty"`
	VMOptions      string                   `yaml:"vm_options,omitempty" json:"vm_options,omitempty"`
	EnvOptions     map[string]string        `yaml:"env,omitempty" json:"env,omitempty"`
	PassParentEnvs bool                     `yaml:"pass_parent_envs" json:"pass_parent_envs"`
	ExtraClassPath string                   `yaml:"extra_class_path,omitempty" json:"extra_class_path,omitempty"`
	Webapps        []WebappDeploymentRecord `yaml:"webapps" json:"webapps"`
}

// ProfileDefaults are applied only when a profile is first created.
type ProfileDefaults struct {
	Port            int
	AdminPort       int
	CatalinaBaseDir string
	ProjectName     string
	ServerName      string
}

// NewRunProfile creates a profile with defaults and no webapps.
func NewRunProfile(key ProfileKey, d ProfileDefaults) *RunProfile {
	p := &RunProfile{
		Key:            key,
		Port:           d.Port,
		AdminPort:      d.AdminPort,
		ServerName:     d.ServerName,
		PassParentEnvs: true,
		Webapps:        []WebappDeploymentRecord{},
	}
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.AdminPort == 0 {
		p.AdminPort = DefaultAdminPort
	}
	if d.CatalinaBaseDir != "" {
		p.CatalinaBase = filepath.Join(d.CatalinaBaseDir, d.ProjectName)
	}
	return p
}

// Webapp returns the record bound to the given workspace item.
func (p *RunProfile) Webapp(item string) (WebappDeploymentRecord, bool) {
	for _, w := range p.Webapps {
		if w.WorkspaceItem == item {
			return w, true
		}
	}
	return WebappDeploymentRecord{}, false
}

// ProfileName derives the shared run profile name for a project.
//
// Example:
//
//	ProfileName("shop") // returns "Tomcat: SHOP - 8080"
func ProfileName(projectName string) string {
	return fmt.Sprintf("Tomcat: %s - %d", strings.ToUpper(projectName), DefaultPort)
}

// =============================================================================
// Port Validation
// =============================================================================

// ParsePort parses a TCP port number in the range 1-65535.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewValidationError("port", s, ErrInvalidPort)
	}
	if err := ValidatePort("port", port); err != nil {
		return 0, err
	}
	return port, nil
}

// ValidatePort checks that port is in the range 1-65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return NewValidationError(field, strconv.Itoa(port), ErrInvalidPort)
	}
	return nil
}

// ValidatePorts checks all port settings of a profile.
func (p *RunProfile) ValidatePorts() error {
	if err := ValidatePort("port", p.Port); err != nil {
		return err
	}
	if err := ValidatePort("admin_port", p.AdminPort); err != nil {
		return err
	}
	if p.SSLPort != nil {
		if err := ValidatePort("ssl_port", *p.SSLPort); err != nil {
			return err
		}
	}
	return nil
}
