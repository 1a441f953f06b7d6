package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// SessionTokenValidator validates the app-issued session bearer token.
type SessionTokenValidator interface {
	ValidateToken(tokenString string) (*SessionClaims, error)
}

// SessionChecker confirms the server-side session named by a token is still
// live. A CodeUnauthorized error means the session ended or expired.
type SessionChecker interface {
	CheckSession(ctx context.Context, sessionID string) error
}

// SessionClaims represents the claims we expect from the validator.
type SessionClaims struct {
	UserID    string
	SessionID string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if errDesc == "" {
		_, _ = w.Write(fmt.Appendf(nil, `{"error":%q}`, errCode))
		return
	}
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireSession authenticates the caller and places user and session IDs on
// the request context. A valid token whose session was logged out or has
// expired is rejected.
func RequireSession(validator SessionTokenValidator, sessions SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if err := sessions.CheckSession(ctx, claims.SessionID); err != nil {
				if dErrors.CodeOf(err) != dErrors.CodeUnauthorized {
					logger.ErrorContext(ctx, "session lookup failed",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "")
					return
				}
				logger.WarnContext(ctx, "unauthorized access - session ended",
					"session_id", claims.SessionID,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Session ended or expired")
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithSessionID(ctx, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
