package domain

import (
	"path/filepath"
	"strings"
)

// =============================================================================
// Library Scope
// =============================================================================

// Scope is the visibility of a library attachment.
type Scope string

const (
	// ScopeCompile is available at build and runtime, and packaged.
	ScopeCompile Scope = "COMPILE"
	// ScopeProvided is available at build and runtime but not packaged.
	ScopeProvided Scope = "PROVIDED"
)

// DefaultScope is the scope a freshly attached library receives.
const DefaultScope = ScopeCompile

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeCompile || s == ScopeProvided
}

// ParseScope parses a scope name case-insensitively.
func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.ToUpper(strings.TrimSpace(s)))
	if !scope.Valid() {
		return "", NewValidationError("scope", s, ErrInvalidScope)
	}
	return scope, nil
}

// =============================================================================
// Layout Descriptor
// =============================================================================

// Fixed library set names.
const (
	LibraryEndorsed = "EndorsedLibs"
	LibraryWebInf   = "WebInfLibs"
)

// SourceRootSpec is a directory to be marked as source or resource root.
type SourceRootSpec struct {
	Path       string `yaml:"path" json:"path"`
	IsResource bool   `yaml:"resource" json:"resource"`
}

// LibraryDirSpec is a directory whose jars form one named library set.
type LibraryDirSpec struct {
	Path        string `yaml:"path" json:"path"`
	LibraryName string `yaml:"library" json:"library"`
	Scope       Scope  `yaml:"scope" json:"scope"`
}

// OutputDirRequest asks for a compiler output directory.
type OutputDirRequest struct {
	Path            string `yaml:"path" json:"path"`
	CreateIfMissing bool   `yaml:"create_if_missing" json:"create_if_missing"`
}

// LayoutDescriptor is the result of resolving a project root. It is built
// once per resolution and not modified afterwards.
type LayoutDescriptor struct {
	Root        string            `yaml:"root" json:"root"`
	SourceRoots []SourceRootSpec  `yaml:"source_roots" json:"source_roots"`
	LibraryDirs []LibraryDirSpec  `yaml:"library_dirs" json:"library_dirs"`
	OutputDir   *OutputDirRequest `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
	WebRoots    []string          `yaml:"web_roots" json:"web_roots"`
}

// WebRoot returns the first discovered web root.
func (d LayoutDescriptor) WebRoot() (string, bool) {
	if len(d.WebRoots) == 0 {
		return "", false
	}
	return d.WebRoots[0], true
}

// =============================================================================
// Library Set
// =============================================================================

// LibrarySet is a named bundle of jar paths. Identity is Name.
type LibrarySet struct {
	Name     string   `yaml:"name" json:"name"`
	JarPaths []string `yaml:"jars" json:"jars"`
}

// IsJar reports whether name has a .jar extension, ignoring case.
func IsJar(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".jar")
}

// NewLibrarySet builds a set from paths, dropping non-jar entries and
// duplicate resolved paths while keeping first-seen order.
func NewLibrarySet(name string, paths []string) LibrarySet {
	seen := make(map[string]bool, len(paths))
	jars := make([]string, 0, len(paths))
	for _, p := range paths {
		if !IsJar(p) {
			continue
		}
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		jars = append(jars, clean)
	}
	return LibrarySet{Name: name, JarPaths: jars}
}
