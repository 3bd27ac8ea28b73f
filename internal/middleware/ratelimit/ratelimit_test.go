package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trusthire/backend/internal/limiter"
)

func newTestApp(perClient, global limiter.Limiter) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{PerClient: perClient, Global: global}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestMiddlewareAdmitsUnderLimit(t *testing.T) {
	app := newTestApp(limiter.NewSlidingWindow(limiter.Config{Limit: 2, Window: time.Minute}), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestMiddlewareDeniesOverLimit(t *testing.T) {
	app := newTestApp(limiter.NewSlidingWindow(limiter.Config{Limit: 1, Window: time.Minute}), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestMiddlewareSeparatesClientsByForwardedFor(t *testing.T) {
	app := newTestApp(limiter.NewSlidingWindow(limiter.Config{Limit: 1, Window: time.Minute}), nil)

	reqA := httptest.NewRequest("GET", "/", nil)
	reqA.Header.Set("X-Forwarded-For", "10.0.0.1")
	reqB := httptest.NewRequest("GET", "/", nil)
	reqB.Header.Set("X-Forwarded-For", "10.0.0.2, 172.16.0.1")

	resp, err := app.Test(reqA)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(reqB)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "a different forwarded client has its own window")

	resp, err = app.Test(reqA)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestMiddlewareGlobalLimit(t *testing.T) {
	app := newTestApp(nil, limiter.NewSlidingWindow(limiter.Config{Limit: 2, Window: time.Minute}))

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.3")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode,
		"the global cap holds across distinct clients")
}
