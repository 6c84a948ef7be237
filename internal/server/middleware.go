package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sarankoundinya2000/smartsplit/internal/auth"
)

type contextKey string

const userEmailKey contextKey = "userEmail"

// GetUserEmail returns the authenticated user's email from the request
// context, or "" when the request was not authenticated.
func GetUserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}

// authMiddleware validates the bearer token and stores the verified email
// in the request context.
func authMiddleware(jwtManager *auth.JWTManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				writeError(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				logger.Warn("rejected request token", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
