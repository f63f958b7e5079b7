package middleware

import (
	"context"
	"net/http"
	"strings"

	"trono-server/utils/errors"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

// SessionParser validates a bearer token and returns the session id it carries.
type SessionParser interface {
	ParseSession(token string) (string, error)
}

func JWTMiddleware(parser SessionParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflight requests carry no credentials.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			sessionID, err := parser.ParseSession(tokenString)
			if err != nil {
				WriteError(w, errors.ErrUnauthorized)
				return
			}

			ctx := WithSessionID(r.Context(), sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext returns the session id set by JWTMiddleware.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	return sessionID, ok && sessionID != ""
}
