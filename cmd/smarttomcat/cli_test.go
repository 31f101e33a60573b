package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Test Helpers
// =============================================================================

// cliEnv points the CLI at a fresh database and returns a workspace dir.
func cliEnv(t *testing.T) string {
	t.Helper()
	clearEnv(t)

	dir := t.TempDir()
	t.Setenv("SMARTTOMCAT_DATABASE_DSN", filepath.Join(dir, "db", "smarttomcat.db"))
	t.Setenv("SMARTTOMCAT_PROJECT_NAME", "shop")
	t.Setenv("SMARTTOMCAT_LOG_LEVEL", "error")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeTree(t *testing.T, root string, entries ...string) {
	t.Helper()
	for _, e := range entries {
		p := filepath.Join(root, filepath.FromSlash(e))
		if ext := filepath.Ext(p); ext == ".jar" || ext == ".xml" {
			require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
			require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
			continue
		}
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

// =============================================================================
// Command Tests
// =============================================================================

func TestCLI_Version(t *testing.T) {
	cliEnv(t)

	out, _, code := runCLI(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "smarttomcat version "+Version)
}

func TestCLI_LinkThenShowProfile(t *testing.T) {
	dir := cliEnv(t)
	project := filepath.Join(dir, "shop")
	writeTree(t, project, "src/main/java", "src/main/webapp/WEB-INF/web.xml")

	out, errOut, code := runCLI(t, "link", project)
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "Deployed shop at /shop")
	assert.Contains(t, out, "item:     shop (created)")
	assert.Contains(t, out, "profile:  Tomcat: SHOP - 8080 (created)")

	out, errOut, code = runCLI(t, "link", project)
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "item:     shop (existing)")
	assert.Contains(t, out, "webapps:  1")

	out, errOut, code = runCLI(t, "profile", "show")
	require.Equal(t, ExitSuccess, code, errOut)

	var profile domain.RunProfile
	require.NoError(t, yaml.Unmarshal([]byte(out), &profile))
	assert.Equal(t, "Tomcat: SHOP - 8080", profile.Key.Name)
	assert.Equal(t, []domain.WebappDeploymentRecord{{
		WorkspaceItem: "shop",
		DocBase:       filepath.Join(project, "src", "main", "webapp"),
		ContextPath:   "/shop",
	}}, profile.Webapps)
}

func TestCLI_RelinkFromDescriptor(t *testing.T) {
	dir := cliEnv(t)
	project := filepath.Join(dir, "Billing App")
	writeTree(t, project, "JavaSource", "WebContent/WEB-INF/web.xml")

	out, errOut, code := runCLI(t, "relink", filepath.Join(project, "WebContent", "WEB-INF", "web.xml"), "-o", "json")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, `"context_path": "/billing-app"`)
}

func TestCLI_LinkWithoutWebRootFails(t *testing.T) {
	dir := cliEnv(t)
	project := filepath.Join(dir, "lib")
	writeTree(t, project, "src/main/java")

	_, errOut, code := runCLI(t, "link", project)
	assert.Equal(t, ExitFlowError, code)
	assert.Contains(t, errOut, "Error:")
}

func TestCLI_Resolve(t *testing.T) {
	dir := cliEnv(t)
	project := filepath.Join(dir, "shop")
	writeTree(t, project, "src/main/java", "src/main/webapp/WEB-INF")

	out, errOut, code := runCLI(t, "resolve", project)
	require.Equal(t, ExitSuccess, code, errOut)

	var desc domain.LayoutDescriptor
	require.NoError(t, yaml.Unmarshal([]byte(out), &desc))
	assert.Equal(t, project, desc.Root)
	assert.Equal(t, []string{filepath.Join(project, "src", "main", "webapp")}, desc.WebRoots)

	_, err := os.Stat(filepath.Join(dir, "db"))
	assert.True(t, os.IsNotExist(err), "resolve must not open the database")
}

func TestCLI_ServerAddAndList(t *testing.T) {
	dir := cliEnv(t)
	home := filepath.Join(dir, "tomcat9")
	writeTree(t, home, "lib/servlet-api.jar", "lib/jsp-api.jar")

	out, errOut, code := runCLI(t, "server", "add", home)
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "Registered server tomcat9")

	_, errOut, code = runCLI(t, "server", "add", home)
	assert.Equal(t, ExitFlowError, code)
	assert.Contains(t, errOut, `try --name "tomcat9 (2)"`)

	out, errOut, code = runCLI(t, "server", "list")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "tomcat9")
	assert.Contains(t, out, home)
}

func TestCLI_ProfileShowMissing(t *testing.T) {
	cliEnv(t)

	_, errOut, code := runCLI(t, "profile", "show", "nope")
	assert.Equal(t, ExitFlowError, code)
	assert.Contains(t, errOut, "not found")
}

func TestCLI_InvalidConfigFile(t *testing.T) {
	dir := cliEnv(t)
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("invalid: yaml: content: [[["), 0o644))

	_, _, code := runCLI(t, "--config", bad, "version")
	assert.Equal(t, ExitConfigError, code)
}

func TestCLI_UnsupportedOutputFormat(t *testing.T) {
	dir := cliEnv(t)
	project := filepath.Join(dir, "shop")
	writeTree(t, project, "src/main/webapp")

	_, errOut, code := runCLI(t, "resolve", project, "-o", "xml")
	assert.Equal(t, ExitFlowError, code)
	assert.Contains(t, errOut, "unsupported output format")
}

func TestCLI_UnlinkAndProfileSet(t *testing.T) {
	dir := cliEnv(t)
	project := filepath.Join(dir, "shop")
	writeTree(t, project, "src/main/java", "src/main/webapp/WEB-INF/web.xml")

	_, errOut, code := runCLI(t, "link", project)
	require.Equal(t, ExitSuccess, code, errOut)

	out, errOut, code := runCLI(t, "profile", "set", "--port", "9090", "--ssl-port", "8443")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "Tomcat: SHOP - 8080: port 9090, admin port 8005, ssl port 8443")

	_, errOut, code = runCLI(t, "profile", "set", "--admin-port", "70000")
	assert.Equal(t, ExitFlowError, code)
	assert.Contains(t, errOut, "invalid port")

	out, errOut, code = runCLI(t, "unlink", "shop")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "Unlinked shop from Tomcat: SHOP - 8080 (0 webapps left)")

	_, errOut, code = runCLI(t, "unlink", "shop")
	assert.Equal(t, ExitFlowError, code)
	assert.Contains(t, errOut, "not found")

	out, errOut, code = runCLI(t, "item", "list")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "CONTENT ROOT")
	assert.Contains(t, out, project)
}
