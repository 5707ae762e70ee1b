package geocoder

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// ErrRateLimited is returned when the reverse-geocoding budget for the
// current minute is spent. Callers treat it like any other geocoding failure.
var ErrRateLimited = errors.New("geocoder rate limit exceeded")

// RateLimited wraps a Client with a shared per-minute request budget, so
// several workers together stay under the provider's usage policy.
type RateLimited struct {
	inner     Client
	rl        RateLimiter
	perMinute int64
}

func NewRateLimited(inner Client, rl RateLimiter, perMinute int64) *RateLimited {
	return &RateLimited{inner: inner, rl: rl, perMinute: perMinute}
}

func (c *RateLimited) Reverse(ctx context.Context, lat, lon float64) ([]Result, error) {
	if c.rl != nil && c.perMinute > 0 {
		minuteKey := "rl:geocoder:" + time.Now().UTC().Format("200601021504")
		allowed, n, err := c.rl.Allow(ctx, minuteKey, c.perMinute, 70*time.Second)
		if err != nil {
			// A broken limiter must not take geocoding down with it.
			slog.Warn("geocoder rate limiter", "error", err.Error())
		} else if !allowed {
			slog.Warn("geocoder rate limit exceeded", "count", n)
			return nil, ErrRateLimited
		}
	}
	return c.inner.Reverse(ctx, lat, lon)
}
