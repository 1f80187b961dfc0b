package auth

import (
	"log/slog"
	"net/http"

	"github.com/retailpad/retailpad/internal/platform/httpx"
)

// Middleware rejects requests without a valid bearer token and stores the
// verified identity in the request context.
func Middleware(v *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(bearerToken(r.Header.Get("Authorization")))
			if err != nil {
				if logger != nil {
					logger.Debug("reject request", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="retailpad"`)
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "valid bearer token required")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}
