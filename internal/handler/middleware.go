package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/ratelimit"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// TokenVerifier turns a bearer token into the authenticated principal.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// JWTAuthMiddleware validates Bearer tokens and puts the principal in the
// request context.
func JWTAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			principal, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			observability.RecordPrincipal(r, principal)
			ctx := domain.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimits holds the request limiters. PerIP runs before authentication
// so invalid tokens are limited too; PerUser runs after it. A nil limiter
// disables that stage.
type RateLimits struct {
	PerIP   *ratelimit.Limiter
	PerUser *ratelimit.Limiter
}

// RateLimitMiddleware limits requests per key. A nil limiter disables
// limiting.
func RateLimitMiddleware(limiter *ratelimit.Limiter, key func(*http.Request) string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if !limiter.Allow(k) {
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.RetryAfter(k).Seconds())))
				handleServiceError(w, &domain.ErrRateLimited{Key: k}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIPKey keys requests by remote address. RealIP has already applied
// forwarding headers.
func ClientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// UserKey keys requests by authenticated user, falling back to the client
// address.
func UserKey(r *http.Request) string {
	if p, ok := domain.PrincipalFromContext(r.Context()); ok {
		return "user:" + p.UserID
	}
	return ClientIPKey(r)
}

// TimeZoneMiddleware puts the caller's IANA time zone in the request context.
// The tz query parameter wins over the X-Timezone header; with neither the
// zone is UTC. Unknown zones and the server-relative "Local" are rejected.
func TimeZoneMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.URL.Query().Get("tz"))
			if name == "" {
				name = strings.TrimSpace(r.Header.Get("X-Timezone"))
			}
			if name == "" {
				next.ServeHTTP(w, r)
				return
			}

			loc, err := time.LoadLocation(name)
			if err != nil || name == "Local" {
				handleServiceError(w, &domain.ErrValidation{
					Field:   "tz",
					Message: "unknown time zone " + strconv.Quote(name),
				}, logger)
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.ContextWithLocation(r.Context(), loc)))
		})
	}
}

// RequestMetrics counts responses as success or error.
func RequestMetrics(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := "success"
			if ww.Status() >= http.StatusInternalServerError {
				status = "error"
			}
			metrics.IncrRequest(status)
		})
	}
}

// userID returns the authenticated user; routes using it sit behind
// JWTAuthMiddleware.
func userID(r *http.Request) string {
	p, _ := domain.PrincipalFromContext(r.Context())
	return p.UserID
}
