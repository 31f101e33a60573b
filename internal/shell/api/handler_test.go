package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/engine"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

// =============================================================================
// Test Helpers
// =============================================================================

// stubDeployer implements Deployer for testing.
type stubDeployer struct {
	result *engine.Result
	server domain.ServerInfo
	err    error // If set, all operations return this error
	paths  []string
}

func (d *stubDeployer) LinkDirectory(ctx context.Context, dir string) (*engine.Result, error) {
	d.paths = append(d.paths, "link:"+dir)
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

func (d *stubDeployer) LinkDescriptor(ctx context.Context, path string) (*engine.Result, error) {
	d.paths = append(d.paths, "relink:"+path)
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

func (d *stubDeployer) RegisterServer(ctx context.Context, name, path string) (domain.ServerInfo, error) {
	if d.err != nil {
		return domain.ServerInfo{}, d.err
	}
	if d.server.Name == "" {
		return domain.NewServerInfo(name, path)
	}
	return d.server, nil
}

var testKey = domain.ProfileKey{KindID: domain.DefaultKindID, Name: "Tomcat: SHOP - 8080"}

func testResult(created bool) *engine.Result {
	item := domain.NewWorkspaceItem("shop", "/work/shop")
	item.AddSourceRoot("/work/shop/src/main/java", false)
	_ = item.CreateLibrary(domain.LibrarySet{Name: domain.LibraryWebInf, JarPaths: []string{"/work/shop/lib/foo.jar"}})

	record := domain.WebappDeploymentRecord{WorkspaceItem: "shop", DocBase: "/work/shop/src/main/webapp", ContextPath: "/shop"}
	profile := domain.NewRunProfile(testKey, domain.ProfileDefaults{})
	profile.Webapps = append(profile.Webapps, record)

	return &engine.Result{
		Item:           item,
		ItemCreated:    created,
		Profile:        profile,
		ProfileCreated: created,
		Record:         record,
	}
}

// newTestHandler creates a handler over an in-memory store and a stub deployer.
func newTestHandler(t *testing.T) (*Handler, store.Store, *stubDeployer) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	d := &stubDeployer{result: testResult(true)}
	return NewHandler(s, d, "", nil), s, d // nil logger uses default
}

// jsonBody encodes a value to JSON and returns a reader.
func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, json.NewEncoder(buf).Encode(v))
	return buf
}

// parseResponse parses a JSON response body into the given type.
func parseResponse[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var result T
	require.NoError(t, json.NewDecoder(body).Decode(&result))
	return result
}

func serve(h *Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	return w
}

// =============================================================================
// Health Endpoint Tests
// =============================================================================

func TestHealth_Success(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := serve(h, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	resp := parseResponse[HealthResponse](t, w.Body)
	assert.Equal(t, "healthy", resp.Status)
}

func TestReady_DatabaseOK(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := serve(h, http.MethodGet, "/ready", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[ReadyResponse](t, w.Body)
	assert.Equal(t, "ok", resp.Checks["database"])
}

func TestReady_DatabaseClosed(t *testing.T) {
	h, s, _ := newTestHandler(t)
	require.NoError(t, s.Close())

	w := serve(h, http.MethodGet, "/ready", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// =============================================================================
// Link Endpoint Tests
// =============================================================================

func TestLink_Created(t *testing.T) {
	h, _, d := newTestHandler(t)

	w := serve(h, http.MethodPost, "/api/v1/link", jsonBody(t, LinkRequest{Path: "/work/shop"}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"link:/work/shop"}, d.paths)

	resp := parseResponse[LinkResponse](t, w.Body)
	assert.True(t, resp.ItemCreated)
	assert.Equal(t, "shop", resp.Item.Name)
	assert.Equal(t, "/shop", resp.Record.ContextPath)
	require.Len(t, resp.Item.Libraries, 1)
	assert.Equal(t, "COMPILE", resp.Item.Libraries[0].Scope)
	assert.Equal(t, 1, resp.Item.Libraries[0].Jars)
	assert.Equal(t, testKey.Name, resp.Profile.Name)
	assert.Len(t, resp.Profile.Webapps, 1)
}

func TestLink_ExistingItem(t *testing.T) {
	h, _, d := newTestHandler(t)
	d.result = testResult(false)

	w := serve(h, http.MethodPost, "/api/v1/link", jsonBody(t, LinkRequest{Path: "/work/shop"}))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRelink_UsesDescriptorFlow(t *testing.T) {
	h, _, d := newTestHandler(t)

	w := serve(h, http.MethodPost, "/api/v1/relink", jsonBody(t, LinkRequest{Path: "/work/shop/WebContent/WEB-INF/web.xml"}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"relink:/work/shop/WebContent/WEB-INF/web.xml"}, d.paths)
}

func TestLink_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing path", `{}`},
		{"blank path", `{"path":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, d := newTestHandler(t)

			w := serve(h, http.MethodPost, "/api/v1/link", strings.NewReader(tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseResponse[ErrorResponse](t, w.Body)
			assert.Equal(t, "validation_error", resp.Code)
			assert.Empty(t, d.paths)
		})
	}
}

func TestLink_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{
			name:     "duplicate context path",
			err:      &engine.FlowError{Flow: engine.FlowLink, Step: "upsert", Err: domain.NewValidationError("context_path", "/shop", domain.ErrDuplicateContextPath)},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "validation_error",
		},
		{
			name:     "missing web root",
			err:      &engine.FlowError{Flow: engine.FlowLink, Step: "web root", Err: domain.NewValidationError("doc_base", "/work/x", domain.ErrMissingDocBase)},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "validation_error",
		},
		{
			name:     "unreadable root",
			err:      &engine.FlowError{Flow: engine.FlowLink, Step: "resolve", Err: domain.NewIOFault("resolve", "/work/x", errors.New("permission denied"))},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "io_fault",
		},
		{
			name:     "not found",
			err:      store.NewStoreError("OpenItemModel", "workspace_item", "shop", "not found", store.ErrNotFound),
			wantCode: http.StatusNotFound,
			wantKind: "not_found",
		},
		{
			name:     "unexpected",
			err:      errors.New("database is locked"),
			wantCode: http.StatusInternalServerError,
			wantKind: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, d := newTestHandler(t)
			d.err = tt.err

			w := serve(h, http.MethodPost, "/api/v1/link", jsonBody(t, LinkRequest{Path: "/work/x"}))

			assert.Equal(t, tt.wantCode, w.Code)
			resp := parseResponse[ErrorResponse](t, w.Body)
			assert.Equal(t, tt.wantKind, resp.Code)
		})
	}
}

func TestLink_UnexpectedErrorHidesDetail(t *testing.T) {
	h, _, d := newTestHandler(t)
	d.err = errors.New("secret internals")

	w := serve(h, http.MethodPost, "/api/v1/link", jsonBody(t, LinkRequest{Path: "/work/x"}))

	resp := parseResponse[ErrorResponse](t, w.Body)
	assert.Equal(t, "failed to link webapp", resp.Error)
}

// =============================================================================
// Profile Endpoint Tests
// =============================================================================

func TestGetProfile_Success(t *testing.T) {
	h, s, _ := newTestHandler(t)
	p := domain.NewRunProfile(testKey, domain.ProfileDefaults{})
	p.Webapps = append(p.Webapps, domain.WebappDeploymentRecord{WorkspaceItem: "shop", DocBase: "/work/shop/WebContent", ContextPath: "/shop"})
	require.NoError(t, s.RegisterProfile(context.Background(), p))

	w := serve(h, http.MethodGet, "/api/v1/profiles/Tomcat:%20SHOP%20-%208080", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[ProfileResponse](t, w.Body)
	assert.Equal(t, testKey.Name, resp.Name)
	assert.Equal(t, 8080, resp.Port)
	assert.Equal(t, 8005, resp.AdminPort)
	assert.True(t, resp.PassParentEnvs)
	assert.NotNil(t, resp.EnvOptions)
	require.Len(t, resp.Webapps, 1)
	assert.Equal(t, "/shop", resp.Webapps[0].ContextPath)
}

func TestGetProfile_NotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := serve(h, http.MethodGet, "/api/v1/profiles/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := parseResponse[ErrorResponse](t, w.Body)
	assert.Equal(t, "not_found", resp.Code)
}

func TestListProfiles(t *testing.T) {
	h, s, _ := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, s.RegisterProfile(ctx, domain.NewRunProfile(testKey, domain.ProfileDefaults{})))
	require.NoError(t, s.RegisterProfile(ctx, domain.NewRunProfile(domain.ProfileKey{KindID: domain.DefaultKindID, Name: "Tomcat: ADMIN - 8080"}, domain.ProfileDefaults{})))

	w := serve(h, http.MethodGet, "/api/v1/profiles?limit=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[[]ProfileResponse](t, w.Body)
	require.Len(t, resp, 1)
	assert.Equal(t, "Tomcat: ADMIN - 8080", resp[0].Name)
}

func TestSelectedProfile(t *testing.T) {
	h, s, _ := newTestHandler(t)
	ctx := context.Background()

	w := serve(h, http.MethodGet, "/api/v1/profiles/selected", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, s.RegisterProfile(ctx, domain.NewRunProfile(testKey, domain.ProfileDefaults{})))
	require.NoError(t, s.SelectProfile(ctx, testKey))

	w = serve(h, http.MethodGet, "/api/v1/profiles/selected", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[ProfileResponse](t, w.Body)
	assert.Equal(t, testKey.Name, resp.Name)
}

// =============================================================================
// Server Endpoint Tests
// =============================================================================

func TestCreateServer_Success(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := serve(h, http.MethodPost, "/api/v1/servers", jsonBody(t, CreateServerRequest{Path: "/opt/apache-tomcat-9"}))

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := parseResponse[ServerResponse](t, w.Body)
	assert.Equal(t, "apache-tomcat-9", resp.Name)
	assert.Equal(t, "/opt/apache-tomcat-9", resp.Path)
}

func TestCreateServer_Duplicate(t *testing.T) {
	h, _, d := newTestHandler(t)
	d.err = &engine.FlowError{Flow: engine.FlowServer, Step: "register", Err: &domain.DuplicateNameError{Kind: "server", Name: "tomcat"}}

	w := serve(h, http.MethodPost, "/api/v1/servers", jsonBody(t, CreateServerRequest{Name: "tomcat", Path: "/opt/t"}))

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := parseResponse[ErrorResponse](t, w.Body)
	assert.Equal(t, "duplicate_name", resp.Code)
}

func TestCreateServer_MissingPath(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := serve(h, http.MethodPost, "/api/v1/servers", jsonBody(t, CreateServerRequest{Name: "tomcat"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListServers(t *testing.T) {
	h, s, _ := newTestHandler(t)
	require.NoError(t, s.CreateServer(context.Background(), domain.ServerInfo{Name: "tomcat-9", Path: "/opt/tomcat-9"}))

	w := serve(h, http.MethodGet, "/api/v1/servers", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse[[]ServerResponse](t, w.Body)
	assert.Equal(t, []ServerResponse{{Name: "tomcat-9", Path: "/opt/tomcat-9"}}, resp)
}

// =============================================================================
// Token Tests
// =============================================================================

func TestWithToken_GuardsAPIOnly(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.WithToken("s3cret")

	w := serve(h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h, http.MethodGet, "/api/v1/servers", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/servers", nil)
	req.Header.Set("X-SmartTomcat-Token", "s3cret")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
