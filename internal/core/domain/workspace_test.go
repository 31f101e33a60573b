package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// WorkspaceItem Tests
// =============================================================================

func TestNewWorkspaceItem(t *testing.T) {
	item := NewWorkspaceItem("shop", "/work/shop/")
	assert.Equal(t, "shop", item.Name)
	assert.Equal(t, "/work/shop", item.ContentRoot)
	assert.Regexp(t, `^item_[0-9a-f]{8}$`, item.ID)
}

func TestWorkspaceItem_AddSourceRoot_Idempotent(t *testing.T) {
	item := NewWorkspaceItem("shop", "/work/shop")
	item.AddSourceRoot("/work/shop/src/main/java", false)
	item.AddSourceRoot("/work/shop/src/main/java", false)
	item.AddSourceRoot("/work/shop/src/main/java/", false)

	assert.Len(t, item.SourceRoots, 1)
}

func TestWorkspaceItem_Libraries(t *testing.T) {
	item := NewWorkspaceItem("shop", "/work/shop")

	require.NoError(t, item.CreateLibrary(NewLibrarySet(LibraryWebInf, []string{"/a.jar"})))
	err := item.CreateLibrary(NewLibrarySet(LibraryWebInf, []string{"/b.jar"}))
	assert.ErrorIs(t, err, ErrDuplicateName)

	lib, ok := item.Library(LibraryWebInf)
	require.True(t, ok)
	assert.Equal(t, ScopeCompile, lib.Scope)
	assert.Equal(t, []string{"/a.jar"}, lib.Jars)

	assert.True(t, item.SetLibraryScope(LibraryWebInf, ScopeProvided))
	lib, _ = item.Library(LibraryWebInf)
	assert.Equal(t, ScopeProvided, lib.Scope)

	assert.True(t, item.RemoveLibrary(LibraryWebInf))
	assert.False(t, item.RemoveLibrary(LibraryWebInf))
	assert.False(t, item.SetLibraryScope(LibraryWebInf, ScopeCompile))
}

func TestWorkspaceItem_AttachGlobalLibrary(t *testing.T) {
	item := NewWorkspaceItem("shop", "/work/shop")
	require.NoError(t, item.AttachGlobalLibrary("Tomcat 9", ScopeProvided))

	lib, ok := item.Library("Tomcat 9")
	require.True(t, ok)
	assert.True(t, lib.Global)
	assert.Empty(t, lib.Jars)
	assert.Equal(t, ScopeProvided, lib.Scope)
}

func TestWorkspaceItem_Clone_IsDeep(t *testing.T) {
	item := NewWorkspaceItem("shop", "/work/shop")
	item.SetSDK(SDKRef{Name: "17"})
	item.AddSourceRoot("/work/shop/src", false)
	require.NoError(t, item.CreateLibrary(NewLibrarySet(LibraryWebInf, []string{"/a.jar"})))

	clone := item.Clone()
	clone.SDK.Name = "21"
	clone.AddSourceRoot("/work/shop/other", false)
	clone.Libraries[0].Jars[0] = "/changed.jar"

	assert.Equal(t, "17", item.SDK.Name)
	assert.Len(t, item.SourceRoots, 1)
	assert.Equal(t, "/a.jar", item.Libraries[0].Jars[0])
}

// =============================================================================
// LibrarySet Tests
// =============================================================================

func TestNewLibrarySet_FiltersAndDeduplicates(t *testing.T) {
	set := NewLibrarySet(LibraryWebInf, []string{
		"/lib/x.jar",
		"/lib/y.JAR",
		"/lib/readme.txt",
		"/lib/../lib/x.jar",
		"/lib/noext",
	})

	assert.Equal(t, LibraryWebInf, set.Name)
	assert.Equal(t, []string{"/lib/x.jar", "/lib/y.JAR"}, set.JarPaths)
}

func TestIsJar(t *testing.T) {
	assert.True(t, IsJar("a.jar"))
	assert.True(t, IsJar("a.Jar"))
	assert.False(t, IsJar("a.jar.txt"))
	assert.False(t, IsJar("jar"))
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope("provided")
	require.NoError(t, err)
	assert.Equal(t, ScopeProvided, scope)

	_, err = ParseScope("runtime")
	assert.ErrorIs(t, err, ErrInvalidScope)
}
