package jwt

import (
	"net/http"
	"strings"

	"github.com/omiam/omiam-backend/pkg/actor"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/httputil"
	"github.com/omiam/omiam-backend/pkg/logger"
)

// Middleware validates the bearer token and attaches the caller as the
// request actor. Browsers cannot set headers on an EventSource, so the
// token is also accepted from the access_token query parameter.
func Middleware(m *Manager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extractToken(r)
			if err != nil {
				httputil.Error(w, err)
				return
			}

			claims, err := m.ValidateAccessToken(tokenString)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
				httputil.Error(w, err)
				return
			}

			ctx := actor.WithActor(r.Context(), &actor.Actor{
				ID:          claims.UserID,
				Name:        claims.Name,
				Role:        claims.Role,
				Permissions: claims.Permissions,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, nil
		}
		return "", errors.Unauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.Unauthorized("invalid authorization header format")
	}

	return parts[1], nil
}
