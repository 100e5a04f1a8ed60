package middleware

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit limits each client IP to a fixed number of requests per
// second, counted in Redis so the limit holds across replicas.
// Fails open: a Redis error lets the request through
func RateLimit(rdb *redis.Client) fiber.Handler {
	perSecond := 10
	if val := os.Getenv("RATE_LIMIT_PER_SECOND"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			perSecond = n
		}
	}

	return func(c *fiber.Ctx) error {
		now := time.Now()
		key := fmt.Sprintf("rl:%s:%d", c.IP(), now.Unix())

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("Rate limit check failed: %v", err)
			return c.Next()
		}
		rdb.Expire(ctx, key, 2*time.Second)

		c.Set("X-RateLimit-Limit", strconv.Itoa(perSecond))
		if count > int64(perSecond) {
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("Retry-After", "1")
			return c.Status(429).JSON(fiber.Map{
				"error":       "rate_limit_exceeded",
				"retry_after": 1,
			})
		}

		c.Set("X-RateLimit-Remaining", strconv.FormatInt(int64(perSecond)-count, 10))
		return c.Next()
	}
}
