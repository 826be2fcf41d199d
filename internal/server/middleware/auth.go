package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/scriba-app/scriba/internal/server/handlers"
)

// AuthMiddleware validates the JWT access token and stores the caller's
// identity in the request context.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			switch {
			case authHeader != "":
				// Expected format: "Bearer <token>"
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					logger.Warn("Invalid Authorization header format", "header", authHeader)
					http.Error(w, "Unauthorized: invalid token format", http.StatusUnauthorized)
					return
				}
				tokenString = parts[1]
			case r.URL.Query().Get("token") != "":
				// Browser WebSocket clients cannot set request headers,
				// so the realtime endpoint passes the token in the query
				tokenString = r.URL.Query().Get("token")
			default:
				logger.Warn("Missing Authorization header")
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, tokenString)
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, handlers.UsernameKey, claims.Username)

			logger.Debug("User authenticated", "user_id", claims.UserID, "username", claims.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
