package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/resp"
)

type contextKey string

const (
	// ContextAuthPayloadKey is the key used to store the parsed jwt.Payload in the request Context.
	ContextAuthPayloadKey contextKey = "auth_payload"
)

// IdentityExtractorMiddleware extracts and validates a bearer token and stores its Payload in the
// request Context. Missing or invalid tokens leave the request anonymous.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				next.ServeHTTP(w, r)
				return
			}

			logger := zerolog.Ctx(r.Context())

			payload, err := ParseToken(parts[1], secretKey)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid or expired JWT provided, treating as anonymous")
				next.ServeHTTP(w, r)
				return
			}

			logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("operator", payload.Name)
			})

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admin tokens with 403.
// It must run after IdentityExtractorMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		if !payload.IsAdmin() {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetPayloadFromContext safely extracts the authenticated Payload from the request Context.
// A nil return means the request is anonymous.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
