package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"stayhub/pkg/logger"
)

const (
	UserIDKey contextKey = "user_id"
	IsHostKey contextKey = "is_host"
)

// RequireAuth wraps a single route with Bearer-token validation and puts
// the token's subject into the request context. Routes like availability
// checks stay unwrapped.
func RequireAuth(secret string, log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			rejectUnauthorized(w, log, r, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			rejectUnauthorized(w, log, r, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			rejectUnauthorized(w, log, r, "invalid claims")
			return
		}

		userID, _ := claims["sub"].(string)
		if userID == "" {
			rejectUnauthorized(w, log, r, "missing subject claim")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		if isHost, ok := claims["is_host"].(bool); ok {
			ctx = context.WithValue(ctx, IsHostKey, isHost)
		}

		next(w, r.WithContext(ctx), ps)
	}
}

func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

func IsHostFromContext(ctx context.Context) bool {
	isHost, _ := ctx.Value(IsHostKey).(bool)
	return isHost
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Authentication failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
