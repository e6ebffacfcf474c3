package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/httpx"
	"github.com/qrdine/qrdine/pkg/models"
)

type contextKey int

const claimsKey contextKey = iota

// FromContext returns the authenticated claims, if the request carried a
// valid token.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// Middleware rejects requests without a valid bearer token and stores the
// claims on the request context.
func Middleware(tokens *TokenManager, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httpx.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.WithError(err).Warn("Rejected request with invalid token")
				httpx.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// HotelID resolves the hotel scope of a request: the token's hotel for
// owners, or an explicit query/body value for super admins.
func HotelID(r *http.Request) string {
	if claims, ok := FromContext(r.Context()); ok && claims.HotelID != "" {
		return claims.HotelID
	}
	return r.URL.Query().Get("hotelId")
}

// RequireRole gates a handler behind one role.
func RequireRole(role models.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok || claims.Role != role {
				httpx.Error(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
