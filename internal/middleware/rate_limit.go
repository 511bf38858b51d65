package middleware

import (
	"net/http"
	"strconv"

	"github.com/michelvankessel/nedcloud-website/internal/ratelimit"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
	pkglogger "github.com/michelvankessel/nedcloud-website/pkg/logger"
)

// RateLimit creates a middleware that enforces the fixed-window budget of
// the given endpoint class, keyed by client IP. Denied requests receive a
// 429 with standard rate-limit headers; allowed requests carry the
// remaining-budget headers so clients can pace themselves.
func RateLimit(limiter *ratelimit.Limiter, class ratelimit.Class, ipConfig *pkghttp.IPConfig, audit *pkglogger.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := pkghttp.ExtractClientIP(r, ipConfig)
			result := limiter.Check(class, clientIP)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfterSeconds))
				audit.LogRateLimitTrip(string(class), clientIP, r.Header.Get("User-Agent"), result.RetryAfterSeconds)
				pkghttp.WriteTooManyRequests(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
