package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "churchhub_backend/internals/helpers"
)

func newIPLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// Global limiter for every endpoint.
func GlobalRateLimiter() fiber.Handler {
	return newIPLimiter(300, time.Minute, "too many requests, please try again later")
}

// Login attempts.
func LoginRateLimiter() fiber.Handler {
	return newIPLimiter(5, time.Minute, "too many login attempts, please wait a moment")
}

// Checkout and verify both reach the payment gateway.
func PaymentRateLimiter() fiber.Handler {
	return newIPLimiter(20, time.Minute, "too many payment requests, please try again later")
}
