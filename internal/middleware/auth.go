package middleware

import (
	"net/http"
	"strings"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/utils"
)

// Auth verifies bearer JWTs and binds the caller's tenant and user to the
// request context. Browsers cannot set headers on websocket upgrades, so a
// "token" query parameter is accepted as well.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.URL.Query().Get("token")
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
					return
				}
				tokenString = parts[1]
			}
			if tokenString == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(tokenString, secret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := appctx.WithTenant(r.Context(), claims.TenantID)
			ctx = appctx.WithUser(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
