package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/aimux/aimux/services/dispatch"
	"github.com/aimux/aimux/services/ratelimit"
)

// providerHeader lets callers name the target provider at the transport
// level so the limiter can key on it without reading the request body.
const providerHeader = "X-LLM-Provider"

// RateLimitMiddleware throttles requests per caller|provider key.
type RateLimitMiddleware struct {
	limiter         *ratelimit.Limiter
	defaultProvider string
	logger          *zap.Logger
}

// NewRateLimitMiddleware creates the middleware. defaultProvider keys
// requests that do not name a provider.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, defaultProvider string, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:         limiter,
		defaultProvider: defaultProvider,
		logger:          logger,
	}
}

// Limit rejects requests over the caller's budget with 429.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := dispatch.CallerFromContext(r.Context())
		provider := r.Header.Get(providerHeader)
		if provider == "" {
			provider = m.defaultProvider
		}

		if !m.limiter.Allow(ratelimit.Key(caller, provider)) {
			m.logger.Warn("request rate limited",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("caller_id", caller),
				zap.String("provider", provider))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limited",
				"message": "request rate limit exceeded, retry later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
