// Package api provides HTTP handlers for the SmartTomcat API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/engine"
	apimw "github.com/thawee/SmartTomcat/internal/shell/api/middleware"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Deployer runs the deploy flows.
type Deployer interface {
	LinkDirectory(ctx context.Context, dir string) (*engine.Result, error)
	LinkDescriptor(ctx context.Context, path string) (*engine.Result, error)
	RegisterServer(ctx context.Context, name, path string) (domain.ServerInfo, error)
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	store    store.Store
	deployer Deployer
	kindID   string
	token    string
	logger   *slog.Logger
}

// NewHandler creates a new API handler. Profiles are looked up under kindID.
func NewHandler(s store.Store, d Deployer, kindID string, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if kindID == "" {
		kindID = domain.DefaultKindID
	}
	return &Handler{
		store:    s,
		deployer: d,
		kindID:   kindID,
		logger:   l,
	}
}

// WithToken requires token on every /api/v1 request. Health endpoints
// stay open.
func (h *Handler) WithToken(token string) *Handler {
	h.token = token
	return h
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apimw.NewTokenAuth(apimw.TokenConfig{Token: h.token, Logger: h.logger}).Handler)

		r.Post("/link", h.handleLink)
		r.Post("/relink", h.handleRelink)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.handleListProfiles)
			r.Get("/selected", h.handleSelectedProfile)
			r.Get("/{name}", h.handleGetProfile)
		})

		r.Route("/servers", func(r chi.Router) {
			r.Get("/", h.handleListServers)
			r.Post("/", h.handleCreateServer)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if _, err := h.store.ListServers(r.Context()); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Deploy Handlers
// =============================================================================

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	h.runLink(w, r, h.deployer.LinkDirectory)
}

func (h *Handler) handleRelink(w http.ResponseWriter, r *http.Request) {
	h.runLink(w, r, h.deployer.LinkDescriptor)
}

func (h *Handler) runLink(w http.ResponseWriter, r *http.Request, flow func(context.Context, string) (*engine.Result, error)) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, http.StatusBadRequest, "path is required", "validation_error")
		return
	}

	res, err := flow(r.Context(), req.Path)
	if err != nil {
		h.writeDomainError(w, err, "failed to link webapp")
		return
	}

	status := http.StatusOK
	if res.ItemCreated {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, LinkResponse{
		Item:           itemToResponse(res.Item),
		ItemCreated:    res.ItemCreated,
		Record:         res.Record,
		Profile:        profileToResponse(res.Profile),
		ProfileCreated: res.ProfileCreated,
	})
}

// =============================================================================
// Profile Handlers
// =============================================================================

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	opts := store.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}

	profiles, err := h.store.ListProfiles(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list profiles", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list profiles", "internal_error")
		return
	}

	resp := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		resp = append(resp, profileToResponse(&profiles[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	profile, err := h.store.FindProfile(r.Context(), domain.ProfileKey{KindID: h.kindID, Name: name})
	if err != nil {
		h.writeDomainError(w, err, "failed to get profile")
		return
	}
	h.writeJSON(w, http.StatusOK, profileToResponse(profile))
}

func (h *Handler) handleSelectedProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.SelectedProfile(r.Context())
	if err != nil {
		h.writeDomainError(w, err, "failed to get selected profile")
		return
	}
	h.writeJSON(w, http.StatusOK, profileToResponse(profile))
}

// =============================================================================
// Server Handlers
// =============================================================================

func (h *Handler) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.store.ListServers(r.Context())
	if err != nil {
		h.logger.Error("failed to list servers", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list servers", "internal_error")
		return
	}

	resp := make([]ServerResponse, 0, len(servers))
	for _, s := range servers {
		resp = append(resp, ServerResponse{Name: s.Name, Path: s.Path})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req CreateServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, http.StatusBadRequest, "path is required", "validation_error")
		return
	}

	info, err := h.deployer.RegisterServer(r.Context(), req.Name, req.Path)
	if err != nil {
		h.writeDomainError(w, err, "failed to register server")
		return
	}
	h.writeJSON(w, http.StatusCreated, ServerResponse{Name: info.Name, Path: info.Path})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
// fallback is the message used for unexpected errors.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
	case errors.Is(err, domain.ErrDuplicateName):
		h.writeError(w, http.StatusConflict, err.Error(), "duplicate_name")
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, domain.ErrIOFault):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "io_fault")
	default:
		h.logger.Error(fallback, "error", err)
		h.writeError(w, http.StatusInternalServerError, fallback, "internal_error")
	}
}

func itemToResponse(item *domain.WorkspaceItem) WorkspaceItemResponse {
	resp := WorkspaceItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		ContentRoot: item.ContentRoot,
		OutputPath:  item.OutputPath,
		SourceRoots: make([]domain.SourceRoot, 0, len(item.SourceRoots)),
		Libraries:   make([]LibraryResponse, 0, len(item.Libraries)),
	}
	resp.SourceRoots = append(resp.SourceRoots, item.SourceRoots...)
	for _, lib := range item.Libraries {
		resp.Libraries = append(resp.Libraries, LibraryResponse{
			Name:   lib.Name,
			Scope:  string(lib.Scope),
			Global: lib.Global,
			Jars:   len(lib.Jars),
		})
	}
	return resp
}

func profileToResponse(p *domain.RunProfile) ProfileResponse {
	resp := ProfileResponse{
		KindID:         p.Key.KindID,
		Name:           p.Key.Name,
		Port:           p.Port,
		AdminPort:      p.AdminPort,
		SSLPort:        p.SSLPort,
		CatalinaBase:   p.CatalinaBase,
		Server:         p.ServerName,
		VMOptions:      p.VMOptions,
		EnvOptions:     p.EnvOptions,
		PassParentEnvs: p.PassParentEnvs,
		ExtraClassPath: p.ExtraClassPath,
		Webapps:        make([]domain.WebappDeploymentRecord, 0, len(p.Webapps)),
	}
	if resp.EnvOptions == nil {
		resp.EnvOptions = make(map[string]string)
	}
	resp.Webapps = append(resp.Webapps, p.Webapps...)
	return resp
}
