// Package ratelimit translates limiter decisions into HTTP semantics:
// client identity, 429 responses and the usual X-RateLimit headers.
package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/limiter"
	"github.com/trusthire/backend/internal/metrics"
)

type Config struct {
	// PerClient gates each caller individually; Global caps the whole
	// service. Either may be nil.
	PerClient limiter.Limiter
	Global    limiter.Limiter
	Logger    *zap.Logger
}

// Middleware enforces the per-client limiter first, then the global one.
// If a limiter errors (Redis down) the request is admitted: availability
// over strictness.
func Middleware(cfg Config) fiber.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		client := clientID(c)

		if cfg.PerClient != nil {
			ok, err := cfg.PerClient.Allow(c.UserContext(), client)
			if err != nil {
				cfg.Logger.Error("rate limiter unavailable, admitting request",
					zap.String("scope", "client"), zap.Error(err))
			} else if !ok {
				return deny(c, cfg, "client", client)
			}
		}

		if cfg.Global != nil {
			ok, err := cfg.Global.Allow(c.UserContext(), "global")
			if err != nil {
				cfg.Logger.Error("rate limiter unavailable, admitting request",
					zap.String("scope", "global"), zap.Error(err))
			} else if !ok {
				return deny(c, cfg, "global", client)
			}
		}

		if cfg.PerClient != nil {
			if remaining, err := cfg.PerClient.Remaining(c.UserContext(), client); err == nil {
				c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			}
		}
		return c.Next()
	}
}

func deny(c *fiber.Ctx, cfg Config, scope, client string) error {
	metrics.RateLimitDenied.WithLabelValues(scope).Inc()
	cfg.Logger.Warn("request rate limited",
		zap.String("scope", scope),
		zap.String("client_id", client),
		zap.String("path", c.Path()),
	)

	c.Set("X-RateLimit-Remaining", "0")
	src := cfg.PerClient
	if scope == "global" {
		src = cfg.Global
		client = "global"
	}
	if src != nil {
		if reset, err := src.ResetAt(c.UserContext(), client); err == nil && !reset.IsZero() {
			retryAfter := int(time.Until(reset).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))
		}
	}

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": "rate limit exceeded, please retry later",
	})
}

// clientID prefers the first hop of X-Forwarded-For so callers behind a
// proxy are told apart, falling back to the connection address.
func clientID(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	return c.IP()
}
