package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "rl:runs:"

// RunRateLimit caps the number of runs a client IP may submit per minute.
// A nil cache or a non-positive limit disables it. Cache errors fail open.
func RunRateLimit(cache redis.Cmdable, maxPerMin int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || maxPerMin <= 0 {
			return c.Next()
		}
		window := time.Now().UTC().Truncate(time.Minute).Unix()
		key := rateLimitPrefix + c.IP() + ":" + strconv.FormatInt(window, 10)

		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(maxPerMin))
		if cnt > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "too many runs, try again later")
		}
		return c.Next()
	}
}
