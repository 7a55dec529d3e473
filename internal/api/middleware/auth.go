package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bcnelson/yatube/internal/auth"
	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/storage"
)

type contextKey string

const APIKeyContextKey contextKey = "api_key"

func unauthorized(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&domain.StandardErrorResponse{
		Error: domain.StandardError{Code: code, Message: message},
	})
}

// Auth creates authentication middleware. Requests must carry a bearer API
// key. While no key is stored, bootstrapKey (if set) is accepted instead.
func Auth(store storage.Storage, bootstrapKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing authorization header")
				return
			}

			apiKey, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid authorization header format")
				return
			}
			if apiKey == "" {
				unauthorized(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "empty API key")
				return
			}

			ctx := r.Context()

			keyCount, err := store.CountAPIKeys(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "failed to count api keys", "error", err)
				unauthorized(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
				return
			}

			if keyCount == 0 && bootstrapKey != "" &&
				subtle.ConstantTimeCompare([]byte(apiKey), []byte(bootstrapKey)) == 1 {
				ctx = context.WithValue(ctx, APIKeyContextKey, &domain.APIKey{
					ID:   domain.BootstrapKeyID,
					Name: "Bootstrap Key",
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			storedKey, err := store.GetAPIKeyByHash(ctx, auth.HashAPIKey(apiKey))
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					unauthorized(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid API key")
					return
				}
				logger.ErrorContext(ctx, "failed to look up api key", "error", err)
				unauthorized(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
				return
			}

			if err := store.UpdateAPIKeyLastUsed(ctx, storedKey.ID); err != nil {
				logger.WarnContext(ctx, "failed to update api key usage", "key_id", storedKey.ID, "error", err)
			}

			ctx = context.WithValue(ctx, APIKeyContextKey, storedKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKeyFromContext retrieves the API key from the request context.
func GetAPIKeyFromContext(ctx context.Context) *domain.APIKey {
	key, _ := ctx.Value(APIKeyContextKey).(*domain.APIKey)
	return key
}
