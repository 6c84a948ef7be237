package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Auth           *AuthHandlers
	API            *APIHandlers
	AllowedOrigins []string
}

// NewRouter wires the HTTP routes exposed by the API. Everything below
// /groups and /users requires a valid session token; the auth endpoints,
// health check and metrics do not.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	if deps.Auth != nil {
		mux.HandleFunc("POST /auth/google", deps.Auth.handleGoogleLogin)
		mux.HandleFunc("POST /auth/register", deps.Auth.handleRegister)
		mux.HandleFunc("POST /auth/login", deps.Auth.handleLogin)
	}

	if deps.API != nil {
		// Protected routes live on the same mux so the matched pattern is
		// recorded on the request itself; middleware reads it for metrics.
		protect := authMiddleware(deps.Auth.jwt, logger)
		route := func(pattern string, handler http.HandlerFunc) {
			mux.Handle(pattern, protect(handler))
		}
		route("POST /groups", deps.API.handleCreateGroup)
		route("GET /groups", deps.API.handleListGroups)
		route("GET /groups/{name}", deps.API.handleGetGroup)
		route("DELETE /groups/{name}", deps.API.handleDeleteGroup)
		route("POST /groups/{name}/members", deps.API.handleAddMember)
		route("DELETE /groups/{name}/members/{email}", deps.API.handleRemoveMember)
		route("POST /groups/{name}/receipt", deps.API.handleParseReceipt)
		route("GET /groups/{name}/pending", deps.API.handleListPending)
		route("PUT /groups/{name}/pending/{item}", deps.API.handleAssignItem)
		route("DELETE /groups/{name}/pending", deps.API.handleClearPending)
		route("POST /groups/{name}/commit", deps.API.handleCommit)
		route("GET /groups/{name}/debts", deps.API.handleDebts)
		route("GET /groups/{name}/expenses", deps.API.handleListExpenses)
		route("PATCH /users/{email}", deps.API.handleRenameUser)
	}

	handler := metricsMiddleware(loggingMiddleware(logger, mux))
	if len(deps.AllowedOrigins) > 0 {
		handler = corsMiddleware(deps.AllowedOrigins)(handler)
	}
	return handler
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!containsOrigin(normalized, origin) && !containsOrigin(normalized, "*")) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
