package authhandlers

import (
	"net"
	"net/http"
	"strings"

	authservice "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/httpx"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/ratelimit"
)

// RateLimitMiddleware returns a middleware that rate limits requests based on IP.
// A nil limiter disables limiting.
func RateLimitMiddleware(limiter *ratelimit.KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				httpx.Message(w, http.StatusTooManyRequests, "Too many requests!")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware returns a middleware that sets CORS headers for the configured origins.
// When allowedOrigins is empty, no CORS headers are added. "*" allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	_, allowAll := origins["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := origins[origin]; ok || allowAll {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func (h *AuthHandlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.service.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			httpx.Error(r.Context(), w, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(authdomain.WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := authdomain.IdentityFromContext(r.Context())
		if !ok {
			httpx.Error(r.Context(), w, nil, authservice.ErrTokenMissing)
			return
		}
		if !id.IsAdmin {
			httpx.Message(w, http.StatusForbidden, "Admin access required!")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}
