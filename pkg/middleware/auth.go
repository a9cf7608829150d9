package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ksedova/fulltext/internal/auth/apikey"
	apperr "github.com/ksedova/fulltext/pkg/errors"
)

type contextKey string

const apiKeyInfoKey contextKey = "api_key_info"

// Auth returns middleware that validates API keys from the request.
// Keys can be provided via Authorization: Bearer <key>, X-API-Key header,
// or the api_key query parameter. Health endpoints are exempt; metrics
// are served on their own port and never reach this chain.
func Auth(validator *apikey.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}

			key := extractAPIKey(r)
			if key == "" {
				writeAppAuthError(w, apperr.New(apperr.ErrAPIKeyInvalid, http.StatusUnauthorized, "missing api key"))
				return
			}

			info, err := validator.Validate(r.Context(), key)
			if err != nil {
				switch err {
				case apikey.ErrInvalidKey:
					writeAppAuthError(w, apperr.New(apperr.ErrAPIKeyInvalid, http.StatusUnauthorized, "invalid api key"))
				case apikey.ErrExpiredKey:
					writeAppAuthError(w, apperr.New(apperr.ErrAPIKeyInvalid, http.StatusUnauthorized, "expired api key"))
				default:
					writeAppAuthError(w, apperr.New(apperr.ErrInternal, http.StatusInternalServerError, "authentication error"))
				}
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetKeyInfo retrieves the validated KeyInfo from the request context.
func GetKeyInfo(ctx context.Context) *apikey.KeyInfo {
	info, _ := ctx.Value(apiKeyInfoKey).(*apikey.KeyInfo)
	return info
}

// extractAPIKey reads the API key from the request in priority order:
// Authorization: Bearer header, X-API-Key header, api_key query parameter.
func extractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}

func writeAppAuthError(w http.ResponseWriter, appErr *apperr.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatusCode(appErr))
	w.Write([]byte(`{"error":"` + appErr.Message + `"}`))
}
