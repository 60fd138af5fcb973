package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dan9191/mortgage-simulator/internal/config"
	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsKey contextKey = "adminClaims"

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// AuthMiddleware rejects requests without a valid admin bearer token
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := &models.AdminClaims{}
			if _, err := jwt.ParseWithClaims(raw, claims, keyFunc, jwt.WithValidMethods([]string{"HS256"})); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != models.RoleAdmin {
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the admin claims set by AuthMiddleware
func ClaimsFromContext(ctx context.Context) (*models.AdminClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*models.AdminClaims)
	return claims, ok
}
