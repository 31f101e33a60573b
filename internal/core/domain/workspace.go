package domain

import (
	"path/filepath"
	"slices"

	"github.com/google/uuid"
)

// =============================================================================
// Workspace Item
// =============================================================================

// SDKRef names the SDK a workspace item compiles against.
type SDKRef struct {
	Name string `yaml:"name" json:"name"`
	Home string `yaml:"home,omitempty" json:"home,omitempty"`
}

// SourceRoot is a directory marked as source or resource input.
type SourceRoot struct {
	Path       string `yaml:"path" json:"path"`
	IsResource bool   `yaml:"resource" json:"resource"`
}

// LibraryEntry is a library attached to a workspace item. Scope belongs to
// the attachment, not to the library. Global entries reference a global
// library by name and carry no jars of their own.
type LibraryEntry struct {
	Name   string   `yaml:"name" json:"name"`
	Scope  Scope    `yaml:"scope" json:"scope"`
	Global bool     `yaml:"global,omitempty" json:"global,omitempty"`
	Jars   []string `yaml:"jars,omitempty" json:"jars,omitempty"`
}

// WorkspaceItem is a named build unit rooted at one content directory.
type WorkspaceItem struct {
	ID             string         `yaml:"id" json:"id"`
	Name           string         `yaml:"name" json:"name"`
	ContentRoot    string         `yaml:"content_root" json:"content_root"`
	SDK            *SDKRef        `yaml:"sdk,omitempty" json:"sdk,omitempty"`
	OutputPath     string         `yaml:"output_path,omitempty" json:"output_path,omitempty"`
	TestOutputPath string         `yaml:"test_output_path,omitempty" json:"test_output_path,omitempty"`
	SourceRoots    []SourceRoot   `yaml:"source_roots,omitempty" json:"source_roots,omitempty"`
	Libraries      []LibraryEntry `yaml:"libraries,omitempty" json:"libraries,omitempty"`
}

// NewWorkspaceItem creates an item named name whose content root is root.
func NewWorkspaceItem(name, root string) *WorkspaceItem {
	return &WorkspaceItem{
		ID:          "item_" + uuid.New().String()[:8],
		Name:        name,
		ContentRoot: filepath.Clean(root),
	}
}

// Clone returns a deep copy, used as the modifiable model of an item.
func (w *WorkspaceItem) Clone() *WorkspaceItem {
	c := *w
	if w.SDK != nil {
		sdk := *w.SDK
		c.SDK = &sdk
	}
	c.SourceRoots = slices.Clone(w.SourceRoots)
	c.Libraries = slices.Clone(w.Libraries)
	for i := range c.Libraries {
		c.Libraries[i].Jars = slices.Clone(c.Libraries[i].Jars)
	}
	return &c
}

// AddSourceRoot marks path as a source or resource root. Adding a path that
// is already a root is a no-op.
func (w *WorkspaceItem) AddSourceRoot(path string, isResource bool) {
	path = filepath.Clean(path)
	for _, r := range w.SourceRoots {
		if r.Path == path {
			return
		}
	}
	w.SourceRoots = append(w.SourceRoots, SourceRoot{Path: path, IsResource: isResource})
}

// SetSDK sets the item SDK.
func (w *WorkspaceItem) SetSDK(ref SDKRef) {
	w.SDK = &ref
}

// SetOutputPath sets the main compiler output directory.
func (w *WorkspaceItem) SetOutputPath(path string) {
	w.OutputPath = filepath.Clean(path)
}

// SetTestOutputPath sets the test compiler output directory.
func (w *WorkspaceItem) SetTestOutputPath(path string) {
	w.TestOutputPath = filepath.Clean(path)
}

// Library returns the attached library with the given name.
func (w *WorkspaceItem) Library(name string) (LibraryEntry, bool) {
	for _, lib := range w.Libraries {
		if lib.Name == name {
			return lib, true
		}
	}
	return LibraryEntry{}, false
}

// RemoveLibrary detaches the library with the given name.
func (w *WorkspaceItem) RemoveLibrary(name string) bool {
	for i, lib := range w.Libraries {
		if lib.Name == name {
			w.Libraries = append(w.Libraries[:i], w.Libraries[i+1:]...)
			return true
		}
	}
	return false
}

// CreateLibrary attaches a fresh item-level library with the default scope.
// A library with the same name must have been removed first.
func (w *WorkspaceItem) CreateLibrary(set LibrarySet) error {
	if _, ok := w.Library(set.Name); ok {
		return &DuplicateNameError{Kind: "library", Name: set.Name}
	}
	w.Libraries = append(w.Libraries, LibraryEntry{
		Name:  set.Name,
		Scope: DefaultScope,
		Jars:  slices.Clone(set.JarPaths),
	})
	return nil
}

// AttachGlobalLibrary attaches a reference to a global library.
func (w *WorkspaceItem) AttachGlobalLibrary(name string, scope Scope) error {
	if _, ok := w.Library(name); ok {
		return &DuplicateNameError{Kind: "library", Name: name}
	}
	w.Libraries = append(w.Libraries, LibraryEntry{Name: name, Scope: scope, Global: true})
	return nil
}

// SetLibraryScope sets the scope of the attachment with the given name.
func (w *WorkspaceItem) SetLibraryScope(name string, scope Scope) bool {
	for i := range w.Libraries {
		if w.Libraries[i].Name == name {
			w.Libraries[i].Scope = scope
			return true
		}
	}
	return false
}
