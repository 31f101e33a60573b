package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ServerInfo is a registered Tomcat installation. Its Name is also the
// name of the global library holding the server's jars.
type ServerInfo struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// ErrEmptyServerName is returned when a server has no display name.
var ErrEmptyServerName = errors.New("server name cannot be empty")

// NewServerInfo validates and creates a ServerInfo. An empty name falls
// back to the base name of path.
func NewServerInfo(name, path string) (ServerInfo, error) {
	path = filepath.Clean(path)
	name = strings.TrimSpace(name)
	if name == "" {
		name = filepath.Base(path)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return ServerInfo{}, NewValidationError("name", name, ErrEmptyServerName)
	}
	return ServerInfo{Name: name, Path: path}, nil
}

// LibDir returns the directory holding the server's own jars.
func (s ServerInfo) LibDir() string {
	return filepath.Join(s.Path, "lib")
}

// UniqueName returns preferred if it is not in existing, otherwise the
// first free "preferred (n)" with n starting at 2.
//
// Example:
//
//	UniqueName([]string{"tomcat"}, "tomcat") // returns "tomcat (2)"
func UniqueName(existing []string, preferred string) string {
	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[n] = true
	}
	if !taken[preferred] {
		return preferred
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", preferred, i)
		if !taken[candidate] {
			return candidate
		}
	}
}
