package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/tokenforge/wizard-middleware/pkg/app/errors"
	apphttp "github.com/tokenforge/wizard-middleware/pkg/app/http"
)

// Middleware returns a chi-compatible middleware that validates bearer tokens
// against the JWKS endpoint. When the validator is not configured the
// middleware is a pass-through.
func Middleware(validator *JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil || !validator.IsConfigured() {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Debug("token validation failed", zap.Error(err))
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid token"))
				return
			}

			ctx := r.Context()
			if sub, ok := claims["sub"].(string); ok {
				ctx = WithSubject(ctx, sub)
			}
			if tenant, ok := claims["tenant"].(string); ok {
				ctx = WithTenant(ctx, tenant)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
