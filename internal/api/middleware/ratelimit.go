package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/wayfarer/wayfarer/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Default rate limits.
var (
	// PublicRateLimit applies to the public read endpoints.
	PublicRateLimit = RateLimitConfig{RequestLimit: 300, WindowLength: time.Minute}

	// AdminRateLimit applies per editor to the admin endpoints.
	AdminRateLimit = RateLimitConfig{RequestLimit: 60, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

// RateLimitByEditor limits requests per authenticated editor, falling back
// to the client IP.
func RateLimitByEditor(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByEditorOrIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByEditorOrIP(r *http.Request) (string, error) {
	if p := GetPrincipal(r.Context()); p != nil {
		return "editor:" + p.Subject, nil
	}
	return httprate.KeyByRealIP(r)
}

func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.").
			WithInstance(r.URL.Path).
			Write(w)
	}
}
