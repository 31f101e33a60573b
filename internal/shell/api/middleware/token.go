// Package middleware provides HTTP middleware for the SmartTomcat API.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// HeaderToken carries the API token. "Authorization: Bearer <token>" is
// accepted as well.
const HeaderToken = "X-SmartTomcat-Token"

// =============================================================================
// Token Auth Middleware
// =============================================================================

// TokenConfig holds configuration for the token middleware.
type TokenConfig struct {
	// Token every request must present. Empty disables the check.
	Token string

	// Logger for rejected requests.
	Logger *slog.Logger
}

// TokenAuth rejects requests that do not present the configured token.
type TokenAuth struct {
	config TokenConfig
}

// NewTokenAuth creates a new token middleware with the given config.
func NewTokenAuth(cfg TokenConfig) *TokenAuth {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &TokenAuth{config: cfg}
}

// Handler returns the middleware handler function.
func (m *TokenAuth) Handler(next http.Handler) http.Handler {
	if m.config.Token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := requestToken(r)
		if presented == "" {
			m.config.Logger.Warn("request without API token",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"method", r.Method,
			)
			writeJSONError(w, http.StatusUnauthorized, "API token required", "unauthorized")
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(m.config.Token)) != 1 {
			m.config.Logger.Warn("invalid API token",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeJSONError(w, http.StatusForbidden, "invalid API token", "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) string {
	if t := r.Header.Get(HeaderToken); t != "" {
		return t
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > len("Bearer ") && strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):])
	}
	return ""
}

// =============================================================================
// JSON Error Response
// =============================================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}
